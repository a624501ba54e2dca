package byterange

import (
	"testing"

	"github.com/dashfetch/dashfetch/internal/fetcherr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Valid(t *testing.T) {
	r, err := Parse("45-67")
	require.NoError(t, err)
	assert.Equal(t, Range{Start: 45, End: 67}, r)
}

func TestParse_Invalid(t *testing.T) {
	for _, s := range []string{"-", "45", "a-b", "", "45-"} {
		_, err := Parse(s)
		require.Errorf(t, err, "expected error for %q", s)
		assert.True(t, fetcherr.Is(err, fetcherr.Parsing))
	}
}

func TestRange_Header(t *testing.T) {
	r := Range{Start: 0, End: 1023}
	assert.Equal(t, "bytes=0-1023", r.Header())
}
