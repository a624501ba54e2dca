package selector

import (
	"testing"

	"github.com/dashfetch/dashfetch/internal/config"
	"github.com/dashfetch/dashfetch/internal/mpd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectAudioAdaptationSet_LanguagePreference(t *testing.T) {
	sets := []mpd.AdaptationSet{
		{ContentType: "audio", Lang: "en-GB"},
		{ContentType: "audio", Lang: "fr"},
	}
	got, ok := SelectAudioAdaptationSet(sets, "en-US")
	require.True(t, ok)
	assert.Equal(t, "en-GB", got.Lang)
}

func TestSelectAudioAdaptationSet_NoPreferenceTakesFirst(t *testing.T) {
	sets := []mpd.AdaptationSet{
		{ContentType: "video"},
		{ContentType: "audio", Lang: "fr"},
		{ContentType: "audio", Lang: "en"},
	}
	got, ok := SelectAudioAdaptationSet(sets, "")
	require.True(t, ok)
	assert.Equal(t, "fr", got.Lang)
}

func TestSelectVideoAdaptationSet_FirstInOrder(t *testing.T) {
	sets := []mpd.AdaptationSet{
		{ContentType: "audio"},
		{ContentType: "video", Lang: "ignored"},
	}
	got, ok := SelectVideoAdaptationSet(sets)
	require.True(t, ok)
	assert.Equal(t, mpd.KindVideo, got.Kind())
}

func bw(v uint64) *uint64 { return &v }

func TestSelectRepresentation_Highest(t *testing.T) {
	reps := []mpd.Representation{
		{ID: "low", Bandwidth: bw(100)},
		{ID: "high", Bandwidth: bw(900)},
	}
	got, err := SelectRepresentation(reps, config.QualityHighest)
	require.NoError(t, err)
	assert.Equal(t, "high", got.ID)
}

func TestSelectRepresentation_Lowest(t *testing.T) {
	reps := []mpd.Representation{
		{ID: "low", Bandwidth: bw(100)},
		{ID: "high", Bandwidth: bw(900)},
	}
	got, err := SelectRepresentation(reps, config.QualityLowest)
	require.NoError(t, err)
	assert.Equal(t, "low", got.ID)
}

func TestSelectRepresentation_MissingBandwidthTreatedPerPreference(t *testing.T) {
	reps := []mpd.Representation{
		{ID: "unknown"},
		{ID: "known", Bandwidth: bw(500)},
	}
	gotHighest, err := SelectRepresentation(reps, config.QualityHighest)
	require.NoError(t, err)
	assert.Equal(t, "known", gotHighest.ID)

	gotLowest, err := SelectRepresentation(reps, config.QualityLowest)
	require.NoError(t, err)
	assert.Equal(t, "known", gotLowest.ID)
}

func TestLangDistance(t *testing.T) {
	assert.Equal(t, langDistanceExact, LangDistance("en-US", "en-US"))
	assert.Equal(t, langDistancePrefixMatch, LangDistance("en-GB", "en-US"))
	assert.Equal(t, langDistanceNoMatch, LangDistance("fr", "en-US"))
	assert.Equal(t, langDistanceNoMatch, LangDistance("", "en-US"))
}
