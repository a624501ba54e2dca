// Package selector chooses one audio and/or one video Representation from
// a Period according to language and quality preferences.
package selector

import (
	"strings"

	"github.com/dashfetch/dashfetch/internal/config"
	"github.com/dashfetch/dashfetch/internal/fetcherr"
	"github.com/dashfetch/dashfetch/internal/mpd"
)

const (
	langDistanceExact       = 0
	langDistancePrefixMatch = 5
	langDistanceNoMatch     = 100

	bandwidthMissingLowest  = 1_000_000_000
	bandwidthMissingHighest = 0
)

// LangDistance computes the DASH audio-language preference distance
// between an AdaptationSet's lang attribute and the preferred language.
func LangDistance(lang, preferred string) int {
	if preferred == "" || lang == "" {
		return langDistanceNoMatch
	}
	if lang == preferred {
		return langDistanceExact
	}
	if len(lang) >= 2 && len(preferred) >= 2 && strings.EqualFold(lang[:2], preferred[:2]) {
		return langDistancePrefixMatch
	}
	return langDistanceNoMatch
}

// SelectAudioAdaptationSet picks the audio AdaptationSet minimizing language
// distance to preferred; without a preference, the first audio set in
// document order.
func SelectAudioAdaptationSet(sets []mpd.AdaptationSet, preferred string) (*mpd.AdaptationSet, bool) {
	var best *mpd.AdaptationSet
	bestDistance := -1

	for i := range sets {
		if sets[i].Kind() != mpd.KindAudio {
			continue
		}
		if preferred == "" {
			return &sets[i], true
		}
		d := LangDistance(sets[i].Lang, preferred)
		if best == nil || d < bestDistance {
			best = &sets[i]
			bestDistance = d
		}
	}
	if best == nil {
		return nil, false
	}
	return best, true
}

// SelectVideoAdaptationSet picks the first video AdaptationSet in document order.
func SelectVideoAdaptationSet(sets []mpd.AdaptationSet) (*mpd.AdaptationSet, bool) {
	for i := range sets {
		if sets[i].Kind() == mpd.KindVideo {
			return &sets[i], true
		}
	}
	return nil, false
}

// SelectRepresentation picks one Representation within an AdaptationSet by
// bandwidth preference.
func SelectRepresentation(reps []mpd.Representation, pref config.QualityPreference) (*mpd.Representation, error) {
	if len(reps) == 0 {
		return nil, fetcherr.New(fetcherr.UnhandledMediaStream, "adaptation set has no representations")
	}

	var best *mpd.Representation
	var bestBandwidth uint64

	for i := range reps {
		bw := bandwidthOf(&reps[i], pref)
		if best == nil {
			best = &reps[i]
			bestBandwidth = bw
			continue
		}
		switch pref {
		case config.QualityLowest:
			if bw < bestBandwidth {
				best = &reps[i]
				bestBandwidth = bw
			}
		default: // Highest
			if bw > bestBandwidth {
				best = &reps[i]
				bestBandwidth = bw
			}
		}
	}
	return best, nil
}

func bandwidthOf(r *mpd.Representation, pref config.QualityPreference) uint64 {
	if r.Bandwidth != nil {
		return *r.Bandwidth
	}
	if pref == config.QualityLowest {
		return bandwidthMissingLowest
	}
	return bandwidthMissingHighest
}
