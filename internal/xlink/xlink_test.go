package xlink

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/dashfetch/dashfetch/internal/httpclient"
	"github.com/dashfetch/dashfetch/internal/mpd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePeriods_ResolveToZeroRemovesPeriod(t *testing.T) {
	origin, err := url.Parse("http://h/manifest.mpd")
	require.NoError(t, err)

	r := New(httpclient.NewWithDefaults(), origin)
	periods := []mpd.Period{
		{XlinkHref: ResolveToZero},
		{Duration: "PT10S"},
	}

	got, err := r.ResolvePeriods(context.Background(), periods)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "PT10S", got[0].Duration)
}

func TestResolveAdaptationSets_FetchesAndSplices(t *testing.T) {
	mux := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/dash+xml")
		_, _ = w.Write([]byte(`<AdaptationSet lang="en" contentType="audio"></AdaptationSet>`))
	}))
	defer mux.Close()

	origin, err := url.Parse(mux.URL + "/manifest.mpd")
	require.NoError(t, err)

	r := New(httpclient.NewWithDefaults(), origin)
	sets := []mpd.AdaptationSet{
		{XlinkHref: "/fragment.xml"},
	}

	got, err := r.ResolveAdaptationSets(context.Background(), sets)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "en", got[0].Lang)
	assert.Equal(t, mpd.KindAudio, got[0].Kind())
}

func TestResolveRepresentations_EmptyHrefLeftUntouched(t *testing.T) {
	origin, err := url.Parse("http://h/manifest.mpd")
	require.NoError(t, err)
	r := New(httpclient.NewWithDefaults(), origin)

	reps := []mpd.Representation{{ID: "r1"}}
	got, err := r.ResolveRepresentations(context.Background(), reps)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "r1", got[0].ID)
}
