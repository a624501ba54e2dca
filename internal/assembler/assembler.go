// Package assembler wires the addressing, selector, xlink, and fetcher
// components into the end-to-end DASH download: manifest fetch, period
// walk, per-stream fragment retrieval into temp files, and final muxing.
package assembler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/dashfetch/dashfetch/internal/addressing"
	"github.com/dashfetch/dashfetch/internal/baseurl"
	"github.com/dashfetch/dashfetch/internal/config"
	"github.com/dashfetch/dashfetch/internal/fetcher"
	"github.com/dashfetch/dashfetch/internal/fetcherr"
	"github.com/dashfetch/dashfetch/internal/httpclient"
	"github.com/dashfetch/dashfetch/internal/mpd"
	"github.com/dashfetch/dashfetch/internal/muxer"
	"github.com/dashfetch/dashfetch/internal/selector"
	"github.com/dashfetch/dashfetch/internal/xlink"
	"github.com/google/uuid"

	"github.com/dashfetch/dashfetch/pkg/format"
	"github.com/dashfetch/dashfetch/pkg/progress"
)

// Assembler drives one DASH download from manifest URL to final output file.
type Assembler struct {
	httpClient *httpclient.Client
	cfg        *config.Config
	observer   progress.Observer
}

// New builds an Assembler. observer may be progress.NoOp{} if the caller
// does not need updates.
func New(httpClient *httpclient.Client, cfg *config.Config, observer progress.Observer) *Assembler {
	if observer == nil {
		observer = progress.NoOp{}
	}
	return &Assembler{httpClient: httpClient, cfg: cfg, observer: observer}
}

// Download fetches manifestURL and writes the muxed (or single-stream)
// result to outputPath.
func (a *Assembler) Download(ctx context.Context, manifestURL, outputPath string) error {
	manifest, finalURL, err := a.fetchManifest(ctx, manifestURL)
	if err != nil {
		return err
	}
	a.observer.Update(1, "manifest fetched")

	if manifest.IsDynamic() {
		return fetcherr.New(fetcherr.UnhandledMediaStream, "dynamic (live) manifests are not supported")
	}

	if len(manifest.Locations) > 0 {
		redirected, err := baseurl.Join(finalURL, manifest.Locations[0])
		if err != nil {
			return err
		}
		manifest, finalURL, err = a.fetchManifest(ctx, redirected.String())
		if err != nil {
			return err
		}
		if manifest.IsDynamic() {
			return fetcherr.New(fetcherr.UnhandledMediaStream, "dynamic (live) manifests are not supported")
		}
	}

	resolver := xlink.New(a.httpClient, finalURL)
	periods, err := resolver.ResolvePeriods(ctx, manifest.Periods)
	if err != nil {
		return err
	}

	var audioFragments, videoFragments []addressing.MediaFragment

	for i := range periods {
		period := &periods[i]

		adaptationSets, err := resolver.ResolveAdaptationSets(ctx, period.AdaptationSets)
		if err != nil {
			return err
		}
		period.AdaptationSets = adaptationSets

		for j := range period.AdaptationSets {
			reps, err := resolver.ResolveRepresentations(ctx, period.AdaptationSets[j].Representations)
			if err != nil {
				return err
			}
			period.AdaptationSets[j].Representations = reps
		}

		periodDurationSecs := mpd.ParseISODuration(period.Duration)
		if periodDurationSecs == 0 {
			periodDurationSecs = mpd.ParseISODuration(manifest.MediaPresentationDuration)
		}

		periodBase, err := baseurl.Resolve(finalURL, period.BaseURLs)
		if err != nil {
			return err
		}

		if a.cfg.Fetch.FetchAudio {
			frags, err := a.periodStreamFragments(period, periodBase, periodDurationSecs, mpd.KindAudio)
			if err != nil {
				return err
			}
			audioFragments = append(audioFragments, frags...)
		}
		if a.cfg.Fetch.FetchVideo {
			frags, err := a.periodStreamFragments(period, periodBase, periodDurationSecs, mpd.KindVideo)
			if err != nil {
				return err
			}
			videoFragments = append(videoFragments, frags...)
		}
	}

	if len(audioFragments) == 0 && len(videoFragments) == 0 {
		return fetcherr.New(fetcherr.UnhandledMediaStream, "no audio or video fragments found")
	}

	return a.fetchAndMux(ctx, finalURL, audioFragments, videoFragments, outputPath)
}

// periodStreamFragments selects the audio or video AdaptationSet/
// Representation for one Period and resolves its fragment list, with
// branch isolation against the Period's shared BaseURL.
func (a *Assembler) periodStreamFragments(period *mpd.Period, periodBase *url.URL, periodDurationSecs float64, kind mpd.StreamKind) ([]addressing.MediaFragment, error) {
	var adaptSet *mpd.AdaptationSet
	var ok bool
	if kind == mpd.KindAudio {
		adaptSet, ok = selector.SelectAudioAdaptationSet(period.AdaptationSets, a.cfg.Fetch.LanguagePreference)
	} else {
		adaptSet, ok = selector.SelectVideoAdaptationSet(period.AdaptationSets)
	}
	if !ok {
		return nil, nil
	}

	branch := baseurl.Branch(periodBase)
	adaptSetBase, err := baseurl.Resolve(branch, adaptSet.BaseURLs)
	if err != nil {
		return nil, err
	}

	rep, err := selector.SelectRepresentation(adaptSet.Representations, a.cfg.Fetch.QualityPreference)
	if err != nil {
		return nil, err
	}

	repBase, err := baseurl.Resolve(adaptSetBase, rep.BaseURLs)
	if err != nil {
		return nil, err
	}

	return addressing.Resolve(period, adaptSet, rep, periodDurationSecs, repBase)
}

// fetchAndMux retrieves every fragment into two temp files, in order, then
// produces the final output.
func (a *Assembler) fetchAndMux(ctx context.Context, manifestURL *url.URL, audioFragments, videoFragments []addressing.MediaFragment, outputPath string) error {
	seg := fetcher.New(a.httpClient, fetcher.Options{
		RefererURL:           manifestURL.String(),
		ContentTypeChecks:    a.cfg.Fetch.ContentTypeChecks,
		SleepBetweenRequests: time.Duration(a.cfg.Fetch.SleepBetweenRequests) * time.Second,
		MaxPermanentErrors:   a.cfg.Fetch.MaxHTTPErrors,
		MaxResponseSize:      a.cfg.Fetch.MaxResponseSize.Bytes(),
		Logger:               slog.Default(),
	})

	var audioPath, videoPath string
	var err error

	fragmentTotal := len(audioFragments) + len(videoFragments)
	fetched := 0
	onFragment := func() {
		fetched++
		a.observer.Update(int(math.Ceil(100*float64(fetched)/float64(fragmentTotal+2))),
			fmt.Sprintf("fetched %d of %d fragments", fetched, fragmentTotal))
	}

	if len(audioFragments) > 0 {
		audioPath, err = writeFragments(ctx, seg, audioFragments, mpd.KindAudio, "audio", onFragment)
		if err != nil {
			return err
		}
		if !a.cfg.Fetch.KeepAudio {
			defer os.Remove(audioPath)
		}
	}
	if len(videoFragments) > 0 {
		videoPath, err = writeFragments(ctx, seg, videoFragments, mpd.KindVideo, "video", onFragment)
		if err != nil {
			return err
		}
		if !a.cfg.Fetch.KeepVideo {
			defer os.Remove(videoPath)
		}
	}

	total := len(audioFragments) + len(videoFragments) + 2
	done := len(audioFragments) + len(videoFragments)
	a.observer.Update(int(math.Ceil(100*float64(done)/float64(total))),
		fmt.Sprintf("fragments retrieved (%s)", format.Bytes(fileSize(audioPath)+fileSize(videoPath))))

	switch {
	case audioPath != "" && videoPath != "":
		if err := muxer.Mux(ctx, a.cfg.Muxer, audioPath, videoPath, outputPath); err != nil {
			return err
		}
	case videoPath != "":
		if err := copyFile(videoPath, outputPath); err != nil {
			return err
		}
	case audioPath != "":
		if err := copyFile(audioPath, outputPath); err != nil {
			return err
		}
	default:
		return fetcherr.New(fetcherr.UnhandledMediaStream, "no audio or video stream to write")
	}

	a.observer.Update(99, "muxing complete")
	a.observer.Update(100, "download complete")
	return nil
}

// writeFragments fetches fragments in order into a new temp file and calls
// onFragment after each one, written or skipped.
func writeFragments(ctx context.Context, seg *fetcher.Fetcher, fragments []addressing.MediaFragment, kind mpd.StreamKind, label string, onFragment func()) (string, error) {
	pattern := fmt.Sprintf("dashfetch-%s-%s-*.tmp", label, uuid.NewString())
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", fetcherr.Wrap(fetcherr.Io, "creating temp file", err)
	}
	defer f.Close()

	for _, frag := range fragments {
		body, err := seg.Fetch(ctx, frag, kind)
		if err != nil {
			if errors.Is(err, fetcher.ErrSkip) {
				onFragment()
				continue
			}
			os.Remove(f.Name())
			return "", err
		}
		if _, err := f.Write(body); err != nil {
			os.Remove(f.Name())
			return "", fetcherr.Wrap(fetcherr.Io, "writing fragment to temp file", err)
		}
		onFragment()
	}

	return f.Name(), nil
}

// fileSize returns a file's size in bytes, or 0 if path is empty or the
// file cannot be statted.
func fileSize(path string) int64 {
	if path == "" {
		return 0
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fetcherr.Wrap(fetcherr.Io, fmt.Sprintf("opening %s", src), err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fetcherr.Wrap(fetcherr.Io, fmt.Sprintf("creating %s", dst), err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fetcherr.Wrap(fetcherr.Io, "copying single-stream output", err)
	}
	return nil
}

// fetchManifest performs the single retry-wrapped GET for a manifest,
// returning the parsed tree and the post-redirect URL relative hrefs must
// resolve against.
func (a *Assembler) fetchManifest(ctx context.Context, rawURL string) (*mpd.MPD, *url.URL, error) {
	if timeout := a.cfg.HTTP.ManifestTimeout.Duration(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, fetcherr.Wrap(fetcherr.Network, "building manifest request", err)
	}
	req.Header.Set("Accept", "application/dash+xml,video/vnd.mpeg.dash.mpd")
	req.Header.Set("Accept-Language", "en-US,en")
	req.Header.Set("Sec-Fetch-Mode", "navigate")

	resp, err := a.httpClient.DoWithContext(ctx, req)
	if err != nil {
		return nil, nil, fetcherr.Wrap(fetcherr.Network, fmt.Sprintf("fetching manifest %s", rawURL), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, fetcherr.New(fetcherr.Network, fmt.Sprintf("manifest %s returned status %d", rawURL, resp.StatusCode))
	}

	reader := io.Reader(resp.Body)
	maxSize := a.cfg.Fetch.MaxResponseSize.Bytes()
	if maxSize > 0 {
		reader = io.LimitReader(resp.Body, maxSize+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, nil, fetcherr.Wrap(fetcherr.Network, "reading manifest body", err)
	}
	if maxSize > 0 && int64(len(body)) > maxSize {
		return nil, nil, fetcherr.New(fetcherr.Network, fmt.Sprintf("manifest %s exceeded maximum response size of %d bytes", rawURL, maxSize))
	}

	manifest, err := mpd.Parse(body)
	if err != nil {
		return nil, nil, err
	}

	finalURL := resp.Request.URL
	if finalURL == nil {
		finalURL, err = url.Parse(rawURL)
		if err != nil {
			return nil, nil, fetcherr.Wrap(fetcherr.Parsing, "parsing manifest URL", err)
		}
	}

	return manifest, finalURL, nil
}
