package xlink

import (
	"bytes"
	"context"
	"encoding/xml"
	"net/http"

	"github.com/dashfetch/dashfetch/internal/fetcherr"
	"github.com/dashfetch/dashfetch/internal/mpd"
	"golang.org/x/net/html/charset"
)

// newManifestRequest builds a GET request with the DASH-conventional
// Accept header used for both manifest and xlink-fragment fetches.
func newManifestRequest(ctx context.Context, target string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/dash+xml,video/vnd.mpeg.dash.mpd")
	req.Header.Set("Accept-Language", "en-US,en")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	return req, nil
}

func newDecoder(body []byte) *xml.Decoder {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.CharsetReader = charset.NewReaderLabel
	return dec
}

func decodePeriod(body []byte) (*mpd.Period, error) {
	var p mpd.Period
	if err := newDecoder(body).Decode(&p); err != nil {
		return nil, fetcherr.Wrap(fetcherr.Parsing, "decoding xlink Period fragment", err)
	}
	return &p, nil
}

func decodeAdaptationSet(body []byte) (*mpd.AdaptationSet, error) {
	var a mpd.AdaptationSet
	if err := newDecoder(body).Decode(&a); err != nil {
		return nil, fetcherr.Wrap(fetcherr.Parsing, "decoding xlink AdaptationSet fragment", err)
	}
	return &a, nil
}

func decodeRepresentation(body []byte) (*mpd.Representation, error) {
	var r mpd.Representation
	if err := newDecoder(body).Decode(&r); err != nil {
		return nil, fetcherr.Wrap(fetcherr.Parsing, "decoding xlink Representation fragment", err)
	}
	return &r, nil
}
