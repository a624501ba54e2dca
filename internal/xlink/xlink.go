// Package xlink resolves DASH xlink:href indirection, fetching and
// splicing externally-referenced manifest fragments at the Period,
// AdaptationSet, and Representation levels.
package xlink

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/dashfetch/dashfetch/internal/fetcherr"
	"github.com/dashfetch/dashfetch/internal/httpclient"
	"github.com/dashfetch/dashfetch/internal/mpd"
)

// ResolveToZero is the special xlink:href value meaning "remove this node".
const ResolveToZero = "urn:mpeg:dash:resolve-to-zero:2013"

// Resolver fetches and splices xlink:href-referenced manifest fragments.
// originURL is the redirected manifest URL: per spec, relative hrefs are
// joined against it, never against the currently scoped BaseURL.
type Resolver struct {
	client    *httpclient.Client
	originURL *url.URL
}

// New builds a Resolver.
func New(client *httpclient.Client, originURL *url.URL) *Resolver {
	return &Resolver{client: client, originURL: originURL}
}

// shouldRemove reports whether href marks the node as absent.
func shouldRemove(href string) bool {
	return href == "" || href == ResolveToZero
}

// fetchFragment resolves href against originURL and GETs the fragment's
// bytes; the caller decodes them as the element type it expects.
func (r *Resolver) fetchFragment(ctx context.Context, href string) ([]byte, error) {
	target, err := resolveHref(r.originURL, href)
	if err != nil {
		return nil, err
	}

	req, err := newManifestRequest(ctx, target.String())
	if err != nil {
		return nil, fetcherr.Wrap(fetcherr.Network, "building xlink fragment request", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fetcherr.Wrap(fetcherr.Network, fmt.Sprintf("fetching xlink fragment %s", target), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fetcherr.Wrap(fetcherr.Network, "reading xlink fragment body", err)
	}
	return body, nil
}

func resolveHref(origin *url.URL, href string) (*url.URL, error) {
	rel, err := url.Parse(href)
	if err != nil {
		return nil, fetcherr.Wrap(fetcherr.Parsing, fmt.Sprintf("parsing xlink:href %q", href), err)
	}
	if rel.IsAbs() {
		return rel, nil
	}
	return origin.ResolveReference(rel), nil
}

// ResolvePeriods applies the Period-level xlink pass: each Period with a
// non-empty, non-resolve-to-zero href is replaced by the fetched fragment;
// a resolve-to-zero href removes the Period entirely. An empty href is not
// told apart from an absent one: such a Period is kept as it is.
func (r *Resolver) ResolvePeriods(ctx context.Context, periods []mpd.Period) ([]mpd.Period, error) {
	out := make([]mpd.Period, 0, len(periods))
	for _, p := range periods {
		href := p.XLinkHref()
		if href == "" {
			out = append(out, p)
			continue
		}
		if shouldRemove(href) {
			continue
		}

		body, err := r.fetchFragment(ctx, href)
		if err != nil {
			return nil, err
		}
		spliced, err := decodePeriod(body)
		if err != nil {
			return nil, err
		}
		out = append(out, *spliced)
	}
	return out, nil
}

// ResolveAdaptationSets applies the AdaptationSet-level xlink pass.
func (r *Resolver) ResolveAdaptationSets(ctx context.Context, sets []mpd.AdaptationSet) ([]mpd.AdaptationSet, error) {
	out := make([]mpd.AdaptationSet, 0, len(sets))
	for _, a := range sets {
		href := a.XLinkHref()
		if href == "" {
			out = append(out, a)
			continue
		}
		if shouldRemove(href) {
			continue
		}

		body, err := r.fetchFragment(ctx, href)
		if err != nil {
			return nil, err
		}
		spliced, err := decodeAdaptationSet(body)
		if err != nil {
			return nil, err
		}
		out = append(out, *spliced)
	}
	return out, nil
}

// ResolveRepresentations applies the Representation-level xlink pass.
func (r *Resolver) ResolveRepresentations(ctx context.Context, reps []mpd.Representation) ([]mpd.Representation, error) {
	out := make([]mpd.Representation, 0, len(reps))
	for _, rep := range reps {
		href := rep.XLinkHref()
		if href == "" {
			out = append(out, rep)
			continue
		}
		if shouldRemove(href) {
			continue
		}

		body, err := r.fetchFragment(ctx, href)
		if err != nil {
			return nil, err
		}
		spliced, err := decodeRepresentation(body)
		if err != nil {
			return nil, err
		}
		out = append(out, *spliced)
	}
	return out, nil
}
