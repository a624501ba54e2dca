// Package byterange parses DASH's "start-end" byte-range strings.
package byterange

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dashfetch/dashfetch/internal/fetcherr"
)

// Range is an inclusive byte range, as sent in an HTTP Range header.
type Range struct {
	Start uint64
	End   uint64
}

// Parse parses a string of the form "<u64>-<u64>".
func Parse(s string) (Range, error) {
	idx := strings.IndexByte(s, '-')
	if idx <= 0 || idx == len(s)-1 {
		return Range{}, fetcherr.New(fetcherr.Parsing, fmt.Sprintf("malformed byte range %q", s))
	}

	start, err := strconv.ParseUint(s[:idx], 10, 64)
	if err != nil {
		return Range{}, fetcherr.Wrap(fetcherr.Parsing, fmt.Sprintf("malformed range start in %q", s), err)
	}
	end, err := strconv.ParseUint(s[idx+1:], 10, 64)
	if err != nil {
		return Range{}, fetcherr.Wrap(fetcherr.Parsing, fmt.Sprintf("malformed range end in %q", s), err)
	}

	return Range{Start: start, End: end}, nil
}

// Header formats the range as an HTTP Range header value.
func (r Range) Header() string {
	return fmt.Sprintf("bytes=%d-%d", r.Start, r.End)
}
