// Package fetcher retrieves one media fragment at a time: plain HTTP GET
// (optionally byte-ranged) retried by internal/httpclient, inline data:
// URLs, content-type validation, and the permanent-failure tally.
package fetcher

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/dashfetch/dashfetch/internal/addressing"
	"github.com/dashfetch/dashfetch/internal/fetcherr"
	"github.com/dashfetch/dashfetch/internal/httpclient"
	"github.com/dashfetch/dashfetch/internal/mpd"
)

const defaultMaxPermanentErrors = 10

// ErrSkip is the cause wrapped by a fetcherr.Error returned from Fetch when a
// single fragment should be skipped with a warning rather than aborting the
// download: a content-type mismatch, or an HTTP failure still within the
// MaxPermanentErrors budget. Callers distinguish it with errors.Is.
var ErrSkip = errors.New("fragment skipped")

// Options configures a Fetcher's per-request behavior.
type Options struct {
	// RefererURL is sent as the Referer header: the redirected manifest URL.
	RefererURL string
	// ContentTypeChecks enables the accept/reject rule of §4.G.
	ContentTypeChecks bool
	// SleepBetweenRequests is an optional cooperative delay applied before
	// every non-data: request after the first.
	SleepBetweenRequests time.Duration
	// MaxPermanentErrors is the session-wide tolerance for permanently
	// failed fragment fetches before the whole download aborts. Zero
	// selects the default of 10.
	MaxPermanentErrors int
	// MaxResponseSize caps a single fragment response body. Zero or
	// negative means unbounded.
	MaxResponseSize int64
	// Logger receives warnings for skipped fragments. Nil falls back to
	// slog.Default().
	Logger *slog.Logger
}

// Fetcher retrieves MediaFragments and tallies permanent HTTP failures
// across the lifetime of one download.
type Fetcher struct {
	client          *httpclient.Client
	opts            Options
	permanentErrors int
	requestsIssued  int
}

// New builds a Fetcher around an already-configured resilient HTTP client.
func New(client *httpclient.Client, opts Options) *Fetcher {
	if opts.MaxPermanentErrors <= 0 {
		opts.MaxPermanentErrors = defaultMaxPermanentErrors
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Fetcher{client: client, opts: opts}
}

// Fetch retrieves a single fragment's bytes for the given stream kind. An
// HTTP failure or content-type mismatch within the MaxPermanentErrors budget
// returns an error wrapping ErrSkip: the caller should skip the fragment and
// continue. Any other error, including the tally's overflow, is fatal.
func (f *Fetcher) Fetch(ctx context.Context, frag addressing.MediaFragment, kind mpd.StreamKind) ([]byte, error) {
	if frag.URL.Scheme == "data" {
		return decodeDataURL(frag.URL.Opaque, kind)
	}

	if f.opts.SleepBetweenRequests > 0 && f.requestsIssued > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.opts.SleepBetweenRequests):
		}
	}
	f.requestsIssued++

	req, err := f.newFragmentRequest(ctx, frag, kind)
	if err != nil {
		return nil, fetcherr.Wrap(fetcherr.Network, "building fragment request", err)
	}

	resp, err := f.client.DoWithContext(ctx, req)
	if err != nil {
		if skipErr := f.skipOrFatal(frag, fmt.Sprintf("fetching fragment %s: %v", frag.URL, err)); skipErr != nil {
			return nil, skipErr
		}
		return nil, fetcherr.Wrap(fetcherr.Network, fmt.Sprintf("fetching fragment %s", frag.URL), ErrSkip)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if skipErr := f.skipOrFatal(frag, fmt.Sprintf("fragment %s returned status %d", frag.URL, resp.StatusCode)); skipErr != nil {
			return nil, skipErr
		}
		return nil, fetcherr.Wrap(fetcherr.Network, fmt.Sprintf("fragment %s returned status %d", frag.URL, resp.StatusCode), ErrSkip)
	}

	if f.opts.ContentTypeChecks {
		if ct := resp.Header.Get("Content-Type"); ct != "" && !acceptableContentType(ct, kind) {
			// Content-type mismatches are warnings, not errors: skip this
			// fragment without touching the permanent-error tally.
			f.opts.Logger.Warn("skipping fragment with unacceptable content-type",
				slog.String("url", frag.URL.String()),
				slog.String("content_type", ct),
			)
			return nil, fetcherr.Wrap(fetcherr.Network, fmt.Sprintf("fragment %s had unacceptable content-type %q", frag.URL, ct), ErrSkip)
		}
	}

	reader := io.Reader(resp.Body)
	if f.opts.MaxResponseSize > 0 {
		reader = io.LimitReader(resp.Body, f.opts.MaxResponseSize+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fetcherr.Wrap(fetcherr.Network, fmt.Sprintf("reading fragment %s body", frag.URL), err)
	}
	if f.opts.MaxResponseSize > 0 && int64(len(body)) > f.opts.MaxResponseSize {
		return nil, fetcherr.New(fetcherr.Network, fmt.Sprintf("fragment %s exceeded maximum response size of %d bytes", frag.URL, f.opts.MaxResponseSize))
	}
	return body, nil
}

// PermanentErrors reports the running tally of permanently failed fetches.
func (f *Fetcher) PermanentErrors() int {
	return f.permanentErrors
}

// skipOrFatal tallies one more permanently failed fetch for frag and reports
// whether the whole download must now abort: up to MaxPermanentErrors
// failures are tolerated (fragment skipped, warning logged), the next one
// promotes to a fatal Network error. Returns nil when the caller should
// treat the fragment as skippable.
func (f *Fetcher) skipOrFatal(frag addressing.MediaFragment, why string) error {
	f.permanentErrors++
	if f.permanentErrors > f.opts.MaxPermanentErrors {
		return fetcherr.New(fetcherr.Network, fmt.Sprintf("more than %d HTTP download errors", f.opts.MaxPermanentErrors))
	}
	f.opts.Logger.Warn("skipping fragment after HTTP error",
		slog.String("url", frag.URL.String()),
		slog.String("reason", why),
		slog.Int("permanent_errors", f.permanentErrors),
	)
	return nil
}

func (f *Fetcher) newFragmentRequest(ctx context.Context, frag addressing.MediaFragment, kind mpd.StreamKind) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, frag.URL.String(), nil)
	if err != nil {
		return nil, err
	}

	if kind == mpd.KindAudio {
		req.Header.Set("Accept", "audio/*;q=0.9,*/*;q=0.5")
	} else {
		req.Header.Set("Accept", "video/*")
	}
	if f.opts.RefererURL != "" {
		req.Header.Set("Referer", f.opts.RefererURL)
	}
	req.Header.Set("Sec-Fetch-Mode", "navigate")

	if frag.HasByteRange() {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", *frag.StartByte, *frag.EndByte))
	}

	return req, nil
}

// acceptableContentType applies §4.G's lenient mislabeling rule: audio
// accepts audio/*, video/* (some servers mislabel), or octet-stream; video
// accepts video/* or octet-stream.
func acceptableContentType(contentType string, kind mpd.StreamKind) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}

	if mediaType == "application/octet-stream" {
		return true
	}
	if kind == mpd.KindAudio {
		return strings.HasPrefix(mediaType, "audio/") || strings.HasPrefix(mediaType, "video/")
	}
	return strings.HasPrefix(mediaType, "video/")
}

// decodeDataURL decodes the opaque part of a data: URL per RFC 2397 and
// validates its declared top-level MIME type against kind.
func decodeDataURL(opaque string, kind mpd.StreamKind) ([]byte, error) {
	meta, payload, found := strings.Cut(opaque, ",")
	if !found {
		return nil, fetcherr.New(fetcherr.Parsing, "malformed data URL: missing comma separator")
	}

	mediaType := "text/plain"
	base64Encoded := false
	if meta != "" {
		parts := strings.Split(meta, ";")
		if parts[0] != "" {
			mediaType = parts[0]
		}
		for _, p := range parts[1:] {
			if p == "base64" {
				base64Encoded = true
			}
		}
	}

	wantPrefix := "video"
	if kind == mpd.KindAudio {
		wantPrefix = "audio"
	}
	if !strings.HasPrefix(mediaType, wantPrefix) {
		return nil, fetcherr.New(fetcherr.Parsing, fmt.Sprintf("data URL top-level type %q does not match expected %s stream", mediaType, wantPrefix))
	}

	if base64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fetcherr.Wrap(fetcherr.Parsing, "decoding base64 data URL payload", err)
		}
		return decoded, nil
	}

	unescaped, err := unescapeDataURL(payload)
	if err != nil {
		return nil, fetcherr.Wrap(fetcherr.Parsing, "decoding percent-escaped data URL payload", err)
	}
	return unescaped, nil
}

func unescapeDataURL(s string) ([]byte, error) {
	var out []byte
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			var b int
			if _, err := fmt.Sscanf(s[i+1:i+3], "%02x", &b); err == nil {
				out = append(out, byte(b))
				i += 2
				continue
			}
		}
		out = append(out, s[i])
	}
	return out, nil
}
