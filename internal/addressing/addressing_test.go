package addressing

import (
	"net/url"
	"testing"

	"github.com/dashfetch/dashfetch/internal/mpd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustBase(t *testing.T, s string) *url.URL {
	t.Helper()
	u, err := url.Parse(s)
	require.NoError(t, err)
	return u
}

func u64(v uint64) *uint64 { return &v }
func i64(v int64) *int64   { return &v }

// S4: SegmentTemplate@duration simple addressing.
func TestResolve_SegmentTemplateDuration(t *testing.T) {
	period := &mpd.Period{Duration: "PT100S"}
	adaptSet := &mpd.AdaptationSet{}
	rep := &mpd.Representation{
		ID:        "v1",
		Bandwidth: u64(500000),
		SegmentTemplate: &mpd.SegmentTemplate{
			Initialization: "init-$RepresentationID$.m4s",
			Media:          "seg-$RepresentationID$-$Number%05d$.m4s",
			Duration:       u64(10),
			Timescale:      u64(1),
			StartNumber:    u64(1),
		},
	}

	frags, err := Resolve(period, adaptSet, rep, 100, mustBase(t, "http://cdn.example/a/b.mpd"))
	require.NoError(t, err)

	require.Len(t, frags, 11) // 1 init + ceil(100/10)=10 media segments
	assert.Equal(t, "http://cdn.example/a/init-v1.m4s", frags[0].URL.String())
	assert.Equal(t, "http://cdn.example/a/seg-v1-00001.m4s", frags[1].URL.String())
	assert.Equal(t, "http://cdn.example/a/seg-v1-00010.m4s", frags[10].URL.String())
}

// S5: SegmentTemplate + SegmentTimeline with an @r repeat count.
func TestResolve_SegmentTimelineWithRepeat(t *testing.T) {
	period := &mpd.Period{Duration: "PT40S"}
	adaptSet := &mpd.AdaptationSet{}
	rep := &mpd.Representation{
		ID: "a1",
		SegmentTemplate: &mpd.SegmentTemplate{
			Initialization: "init-$RepresentationID$.m4s",
			Media:          "seg-$RepresentationID$-t$Time$.m4s",
			Timescale:      u64(1),
			StartNumber:    u64(1),
			SegmentTimeline: &mpd.SegmentTimeline{
				S: []mpd.S{
					{T: u64(0), D: 10, R: i64(2)},
					{D: 10},
				},
			},
		},
	}

	frags, err := Resolve(period, adaptSet, rep, 40, mustBase(t, "http://cdn.example/a/b.mpd"))
	require.NoError(t, err)

	// 1 init + (1 + r=2 => 3 emits from the first S) + 1 emit from the second S.
	require.Len(t, frags, 5)
	assert.Equal(t, "http://cdn.example/a/init-a1.m4s", frags[0].URL.String())
	assert.Equal(t, "http://cdn.example/a/seg-a1-t0.m4s", frags[1].URL.String())
	assert.Equal(t, "http://cdn.example/a/seg-a1-t10.m4s", frags[2].URL.String())
	assert.Equal(t, "http://cdn.example/a/seg-a1-t20.m4s", frags[3].URL.String())
	assert.Equal(t, "http://cdn.example/a/seg-a1-t30.m4s", frags[4].URL.String())
}

func TestResolve_SegmentList(t *testing.T) {
	period := &mpd.Period{}
	adaptSet := &mpd.AdaptationSet{}
	rep := &mpd.Representation{
		ID: "v1",
		SegmentList: &mpd.SegmentList{
			Initialization: &mpd.Initialization{SourceURL: "init.mp4"},
			SegmentURLs: []mpd.SegmentURL{
				{Media: "seg1.mp4"},
				{Media: "seg2.mp4", MediaRange: "500-999"},
			},
		},
	}

	frags, err := Resolve(period, adaptSet, rep, 10, mustBase(t, "http://cdn.example/a/b.mpd"))
	require.NoError(t, err)

	require.Len(t, frags, 3)
	assert.Equal(t, "http://cdn.example/a/init.mp4", frags[0].URL.String())
	assert.False(t, frags[1].HasByteRange())
	require.True(t, frags[2].HasByteRange())
	assert.Equal(t, uint64(500), *frags[2].StartByte)
	assert.Equal(t, uint64(999), *frags[2].EndByte)
}

func TestResolve_SegmentListBothLevelsEmitted(t *testing.T) {
	period := &mpd.Period{}
	adaptSet := &mpd.AdaptationSet{
		SegmentList: &mpd.SegmentList{SegmentURLs: []mpd.SegmentURL{{Media: "from-adaptset.mp4"}}},
	}
	rep := &mpd.Representation{
		ID:          "v1",
		SegmentList: &mpd.SegmentList{SegmentURLs: []mpd.SegmentURL{{Media: "from-rep.mp4"}}},
	}

	frags, err := Resolve(period, adaptSet, rep, 10, mustBase(t, "http://cdn.example/a/b.mpd"))
	require.NoError(t, err)

	require.Len(t, frags, 2)
	assert.Equal(t, "http://cdn.example/a/from-adaptset.mp4", frags[0].URL.String())
	assert.Equal(t, "http://cdn.example/a/from-rep.mp4", frags[1].URL.String())
}

func TestResolve_SegmentBase(t *testing.T) {
	period := &mpd.Period{}
	adaptSet := &mpd.AdaptationSet{}
	rep := &mpd.Representation{
		ID: "v1",
		SegmentBase: &mpd.SegmentBase{
			IndexRange:     "0-819",
			Initialization: &mpd.Initialization{SourceURL: "full.mp4", Range: "820-1234"},
		},
	}

	frags, err := Resolve(period, adaptSet, rep, 10, mustBase(t, "http://cdn.example/a/full.mp4"))
	require.NoError(t, err)

	require.Len(t, frags, 2)
	require.True(t, frags[0].HasByteRange())
	assert.Equal(t, uint64(820), *frags[0].StartByte)
	assert.False(t, frags[1].HasByteRange())
	assert.Equal(t, "http://cdn.example/a/full.mp4", frags[1].URL.String())
}

func TestResolve_PlainBaseURLFallback(t *testing.T) {
	period := &mpd.Period{}
	adaptSet := &mpd.AdaptationSet{}
	rep := &mpd.Representation{ID: "v1", BaseURLs: []string{"http://cdn.example/full.mp4"}}

	frags, err := Resolve(period, adaptSet, rep, 10, mustBase(t, "http://cdn.example/full.mp4"))
	require.NoError(t, err)

	require.Len(t, frags, 1)
	assert.False(t, frags[0].HasByteRange())
	assert.Equal(t, "http://cdn.example/full.mp4", frags[0].URL.String())
}

func TestResolve_MissingRepresentationIDFails(t *testing.T) {
	period := &mpd.Period{}
	adaptSet := &mpd.AdaptationSet{}
	rep := &mpd.Representation{BaseURLs: []string{"http://cdn.example/full.mp4"}}

	_, err := Resolve(period, adaptSet, rep, 10, mustBase(t, "http://cdn.example/full.mp4"))
	require.Error(t, err)
}

func TestResolve_NoAddressingModeFails(t *testing.T) {
	period := &mpd.Period{}
	adaptSet := &mpd.AdaptationSet{}
	rep := &mpd.Representation{ID: "v1"}

	_, err := Resolve(period, adaptSet, rep, 10, mustBase(t, "http://cdn.example/b.mpd"))
	require.Error(t, err)
}

func TestResolve_RepresentationLevelTemplateOverridesAdaptationSet(t *testing.T) {
	period := &mpd.Period{Duration: "PT10S"}
	adaptSet := &mpd.AdaptationSet{
		SegmentTemplate: &mpd.SegmentTemplate{
			Media:    "from-adaptset-$Number$.m4s",
			Duration: u64(10),
		},
	}
	rep := &mpd.Representation{
		ID: "v1",
		SegmentTemplate: &mpd.SegmentTemplate{
			Media:    "from-rep-$Number$.m4s",
			Duration: u64(10),
		},
	}

	frags, err := Resolve(period, adaptSet, rep, 10, mustBase(t, "http://cdn.example/a/b.mpd"))
	require.NoError(t, err)

	require.Len(t, frags, 1)
	assert.Equal(t, "http://cdn.example/a/from-rep-1.m4s", frags[0].URL.String())
}
