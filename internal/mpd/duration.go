package mpd

import (
	"strconv"
	"strings"
)

// ParseISODuration parses an xs:duration string (the `PT10S`, `PT1H30M`,
// `P1DT2H` form DASH manifests use for @duration and
// @mediaPresentationDuration) into a count of seconds. Unparseable or empty
// input returns 0.
func ParseISODuration(s string) float64 {
	if s == "" {
		return 0
	}

	s = strings.TrimPrefix(s, "P")
	datePart, timePart, hasTime := strings.Cut(s, "T")
	if !hasTime {
		datePart, timePart = s, ""
	}

	var total float64
	if days, _, ok := strings.Cut(datePart, "D"); ok {
		total += parseFloatComponent(days) * 86400
	}

	if hours, rest, ok := strings.Cut(timePart, "H"); ok {
		total += parseFloatComponent(hours) * 3600
		timePart = rest
	}
	if minutes, rest, ok := strings.Cut(timePart, "M"); ok {
		total += parseFloatComponent(minutes) * 60
		timePart = rest
	}
	if seconds, _, ok := strings.Cut(timePart, "S"); ok {
		total += parseFloatComponent(seconds)
	}

	return total
}

func parseFloatComponent(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
