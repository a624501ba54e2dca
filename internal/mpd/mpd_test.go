package mpd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleManifest = `<?xml version="1.0" encoding="UTF-8"?>
<MPD type="static" mediaPresentationDuration="PT10S">
  <Period duration="PT10S">
    <BaseURL>http://h/</BaseURL>
    <AdaptationSet contentType="audio" lang="en-GB">
      <Representation id="a1" bandwidth="128000">
        <SegmentTemplate initialization="init-$RepresentationID$.mp4" media="seg-$Number$.m4s" duration="2" timescale="1" startNumber="1"/>
      </Representation>
    </AdaptationSet>
    <AdaptationSet contentType="video">
      <Representation id="v1" bandwidth="500000"/>
    </AdaptationSet>
  </Period>
</MPD>`

func TestParse(t *testing.T) {
	m, err := Parse([]byte(sampleManifest))
	require.NoError(t, err)
	assert.False(t, m.IsDynamic())
	require.Len(t, m.Periods, 1)

	p := m.Periods[0]
	require.Len(t, p.AdaptationSets, 2)
	assert.Equal(t, KindAudio, p.AdaptationSets[0].Kind())
	assert.Equal(t, KindVideo, p.AdaptationSets[1].Kind())
	assert.Equal(t, "en-GB", p.AdaptationSets[0].Lang)

	rep := p.AdaptationSets[0].Representations[0]
	assert.Equal(t, "a1", rep.ID)
	require.NotNil(t, rep.Bandwidth)
	assert.EqualValues(t, 128000, *rep.Bandwidth)
	require.NotNil(t, rep.SegmentTemplate)
	assert.Equal(t, "seg-$Number$.m4s", rep.SegmentTemplate.Media)
}

func TestIsDynamic(t *testing.T) {
	m, err := Parse([]byte(`<MPD type="dynamic"></MPD>`))
	require.NoError(t, err)
	assert.True(t, m.IsDynamic())
}
