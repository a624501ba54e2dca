package addressing

import (
	"fmt"
	"math"
	"net/url"
	"strconv"

	"github.com/dashfetch/dashfetch/internal/baseurl"
	"github.com/dashfetch/dashfetch/internal/byterange"
	"github.com/dashfetch/dashfetch/internal/fetcherr"
	"github.com/dashfetch/dashfetch/internal/mpd"
	"github.com/dashfetch/dashfetch/internal/template"
)

// Resolve emits the ordered MediaFragment list for a selected Representation
// within the given Period and AdaptationSet, applying the six-mode cascade
// of §4.F. base is the already fully-resolved effective BaseURL for this
// Representation (see internal/baseurl), including any Representation-level
// BaseURL override.
func Resolve(period *mpd.Period, adaptSet *mpd.AdaptationSet, rep *mpd.Representation, periodDurationSecs float64, base *url.URL) ([]MediaFragment, error) {
	if rep.ID == "" {
		return nil, fetcherr.New(fetcherr.UnhandledMediaStream, "representation is missing required @id")
	}

	vars := template.VariableMap{template.RepresentationID: rep.ID}
	if rep.Bandwidth != nil {
		vars[template.Bandwidth] = strconv.FormatUint(*rep.Bandwidth, 10)
	}

	var fragments []MediaFragment

	// Mode 1: SegmentList, AdaptationSet-level then Representation-level.
	if adaptSet.SegmentList != nil {
		f, err := resolveSegmentList(adaptSet.SegmentList, vars, base)
		if err != nil {
			return nil, err
		}
		fragments = append(fragments, f...)
	}
	if rep.SegmentList != nil {
		f, err := resolveSegmentList(rep.SegmentList, vars, base)
		if err != nil {
			return nil, err
		}
		fragments = append(fragments, f...)
	}

	if len(fragments) == 0 {
		effective := rep.SegmentTemplate
		if effective == nil {
			effective = adaptSet.SegmentTemplate
		}
		if effective != nil {
			if effective.SegmentTimeline != nil {
				f, err := resolveSegmentTimeline(effective, periodDurationSecs, vars, base)
				if err != nil {
					return nil, err
				}
				fragments = append(fragments, f...)
			} else {
				f, err := resolveSimpleTemplate(period, effective, periodDurationSecs, vars, base)
				if err != nil {
					return nil, err
				}
				fragments = append(fragments, f...)
			}
		}
	}

	if len(fragments) == 0 && rep.SegmentBase != nil {
		f, err := resolveSegmentBase(rep.SegmentBase, vars, base)
		if err != nil {
			return nil, err
		}
		fragments = append(fragments, f...)
	}

	if len(fragments) == 0 && len(rep.BaseURLs) > 0 {
		fragments = append(fragments, MediaFragment{URL: base})
	}

	if len(fragments) == 0 {
		return nil, fetcherr.New(fetcherr.UnhandledMediaStream,
			fmt.Sprintf("no usable addressing mode identified for %q representation", rep.ID))
	}

	return fragments, nil
}

func resolveSegmentList(sl *mpd.SegmentList, vars template.VariableMap, base *url.URL) ([]MediaFragment, error) {
	var out []MediaFragment

	if sl.Initialization != nil {
		f, err := resolveInitialization(sl.Initialization, vars, base)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}

	for _, su := range sl.SegmentURLs {
		u := base
		if su.Media != "" {
			resolved, err := baseurl.Join(base, template.Resolve(su.Media, vars))
			if err != nil {
				return nil, err
			}
			u = resolved
		}
		frag := MediaFragment{URL: u}
		if su.MediaRange != "" {
			r, err := byterange.Parse(su.MediaRange)
			if err != nil {
				return nil, err
			}
			frag.StartByte, frag.EndByte = &r.Start, &r.End
		}
		out = append(out, frag)
	}

	return out, nil
}

func resolveInitialization(init *mpd.Initialization, vars template.VariableMap, base *url.URL) (MediaFragment, error) {
	u := base
	if init.SourceURL != "" {
		resolved, err := baseurl.Join(base, template.Resolve(init.SourceURL, vars))
		if err != nil {
			return MediaFragment{}, err
		}
		u = resolved
	}
	frag := MediaFragment{URL: u}
	if init.Range != "" {
		r, err := byterange.Parse(init.Range)
		if err != nil {
			return MediaFragment{}, err
		}
		frag.StartByte, frag.EndByte = &r.Start, &r.End
	}
	return frag, nil
}

func resolveSegmentTimeline(et *mpd.SegmentTemplate, periodDurationSecs float64, vars template.VariableMap, base *url.URL) ([]MediaFragment, error) {
	var out []MediaFragment

	if et.Initialization != "" {
		resolved, err := baseurl.Join(base, template.Resolve(et.Initialization, vars))
		if err != nil {
			return nil, err
		}
		out = append(out, MediaFragment{URL: resolved})
	}

	if et.Media == "" {
		return nil, fetcherr.New(fetcherr.UnhandledMediaStream, "SegmentTimeline without a media attribute")
	}
	if et.SegmentTimeline == nil {
		return out, nil
	}

	timescale := uint64(1)
	if et.Timescale != nil {
		timescale = *et.Timescale
	}
	periodDurationUnits := uint64(periodDurationSecs * float64(timescale))

	number := uint64(1)
	if et.StartNumber != nil {
		number = *et.StartNumber
	}

	var segmentTime uint64
	emit := func() error {
		v := cloneVars(vars)
		v[template.Time] = strconv.FormatUint(segmentTime, 10)
		v[template.Number] = strconv.FormatUint(number, 10)
		resolved, err := baseurl.Join(base, template.Resolve(et.Media, v))
		if err != nil {
			return err
		}
		out = append(out, MediaFragment{URL: resolved})
		return nil
	}

	for _, s := range et.SegmentTimeline.S {
		if s.T != nil {
			segmentTime = *s.T
		}
		segmentDuration := s.D

		if err := emit(); err != nil {
			return nil, err
		}
		number++

		if s.R != nil {
			r := *s.R
			var count int64
			for {
				count++
				if r >= 0 && count > r {
					break
				}
				if r < 0 && segmentTime > periodDurationUnits {
					break
				}
				segmentTime += segmentDuration
				if err := emit(); err != nil {
					return nil, err
				}
				number++
			}
		}

		segmentTime += segmentDuration
	}

	return out, nil
}

func resolveSimpleTemplate(period *mpd.Period, et *mpd.SegmentTemplate, periodDurationSecs float64, vars template.VariableMap, base *url.URL) ([]MediaFragment, error) {
	var out []MediaFragment

	if et.Initialization != "" {
		resolved, err := baseurl.Join(base, template.Resolve(et.Initialization, vars))
		if err != nil {
			return nil, err
		}
		out = append(out, MediaFragment{URL: resolved})
	}

	timescale := uint64(1)
	if et.Timescale != nil {
		timescale = *et.Timescale
	}

	var segmentDuration float64
	if period.SegmentTemplate != nil && period.SegmentTemplate.Duration != nil {
		segmentDuration = float64(*period.SegmentTemplate.Duration)
	} else if et.Duration != nil {
		segmentDuration = float64(*et.Duration) / float64(timescale)
	}

	if segmentDuration <= 0 {
		return nil, fetcherr.New(fetcherr.UnhandledMediaStream, "no usable segment duration for SegmentTemplate addressing")
	}

	total := uint64(math.Ceil(periodDurationSecs / segmentDuration))
	startNumber := uint64(1)
	if et.StartNumber != nil {
		startNumber = *et.StartNumber
	}

	for i := uint64(1); i <= total; i++ {
		v := cloneVars(vars)
		v[template.Number] = strconv.FormatUint(startNumber+i-1, 10)
		resolved, err := baseurl.Join(base, template.Resolve(et.Media, v))
		if err != nil {
			return nil, err
		}
		out = append(out, MediaFragment{URL: resolved})
	}

	return out, nil
}

func resolveSegmentBase(sb *mpd.SegmentBase, vars template.VariableMap, base *url.URL) ([]MediaFragment, error) {
	var out []MediaFragment

	if sb.Initialization != nil && sb.Initialization.SourceURL != "" {
		f, err := resolveInitialization(sb.Initialization, vars, base)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}

	out = append(out, MediaFragment{URL: base})
	return out, nil
}

func cloneVars(vars template.VariableMap) template.VariableMap {
	out := make(template.VariableMap, len(vars)+2)
	for k, v := range vars {
		out[k] = v
	}
	return out
}
