// Package baseurl resolves the effective base URL at each manifest nesting
// level, per RFC 3986, maintaining the branch isolation the spec requires
// between audio and video paths below the Period level.
package baseurl

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/dashfetch/dashfetch/internal/fetcherr"
)

// IsAbsolute reports whether s is an absolute URL per the spec's accepted
// schemes.
func IsAbsolute(s string) bool {
	return strings.HasPrefix(s, "http://") ||
		strings.HasPrefix(s, "https://") ||
		strings.HasPrefix(s, "file://")
}

// Resolve applies one level's BaseURL (if any) against the current
// effective base, returning the new effective base. If baseURLs is empty,
// current is returned unchanged.
func Resolve(current *url.URL, baseURLs []string) (*url.URL, error) {
	if len(baseURLs) == 0 {
		return current, nil
	}
	raw := baseURLs[0]

	if IsAbsolute(raw) {
		parsed, err := url.Parse(raw)
		if err != nil {
			return nil, fetcherr.Wrap(fetcherr.Parsing, fmt.Sprintf("parsing absolute BaseURL %q", raw), err)
		}
		return parsed, nil
	}

	rel, err := url.Parse(raw)
	if err != nil {
		return nil, fetcherr.Wrap(fetcherr.Parsing, fmt.Sprintf("parsing relative BaseURL %q", raw), err)
	}
	return current.ResolveReference(rel), nil
}

// Branch returns a fresh copy of base so that further resolution on one
// audio/video path cannot mutate the URL another path continues to use.
// net/url.URL contains no nested mutable state beyond its own fields here
// (no maps/slices referenced by the parts this engine touches), so a
// shallow copy is sufficient isolation.
func Branch(base *url.URL) *url.URL {
	cp := *base
	return &cp
}

// Join resolves a single relative (or absolute) reference string against
// base, matching the URL-Template Resolver's hand-off point: once a
// template has been expanded to a raw string, this is the final step
// producing an absolute URL.
func Join(base *url.URL, ref string) (*url.URL, error) {
	if IsAbsolute(ref) {
		parsed, err := url.Parse(ref)
		if err != nil {
			return nil, fetcherr.Wrap(fetcherr.Parsing, fmt.Sprintf("parsing absolute reference %q", ref), err)
		}
		return parsed, nil
	}
	rel, err := url.Parse(ref)
	if err != nil {
		return nil, fetcherr.Wrap(fetcherr.Parsing, fmt.Sprintf("parsing reference %q", ref), err)
	}
	return base.ResolveReference(rel), nil
}
