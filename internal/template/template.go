// Package template expands DASH URL-Template placeholders against a
// variable map.
package template

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Recognized variable names, per DASH-IF IOP's URL-Template variable set.
const (
	RepresentationID = "RepresentationID"
	Number           = "Number"
	Time             = "Time"
	Bandwidth        = "Bandwidth"
)

var recognized = []string{RepresentationID, Number, Time, Bandwidth}

// widthPattern caches one compiled regex per variable name for the
// `$Var%0Nd$` zero-padding form.
var widthPattern = func() map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp, len(recognized))
	for _, v := range recognized {
		m[v] = regexp.MustCompile(`\$` + regexp.QuoteMeta(v) + `%0(\d+)d\$`)
	}
	return m
}()

// VariableMap binds recognized variable names to their string values.
type VariableMap map[string]string

// Resolve expands, for each recognized variable, the first `$Var%0Nd$`
// placeholder and every `$Var$` placeholder in tmpl against vars. Later
// `$Var%0Nd$` occurrences of the same variable, unrecognized variables, and
// recognized variables with no bound value are left intact. Resolve is
// idempotent once all referenced variables are bound and no variable's
// `$Var%0Nd$` form appears more than once: re-running it on its own output
// is a no-op, since a fully substituted string contains no more `$...$`
// markers.
func Resolve(tmpl string, vars VariableMap) string {
	out := tmpl
	for _, name := range recognized {
		val, bound := vars[name]
		if !bound {
			continue
		}

		// Width-padded form first, first occurrence only: `$Var%0Nd$`.
		if loc := widthPattern[name].FindStringSubmatchIndex(out); loc != nil {
			if width, err := strconv.Atoi(out[loc[2]:loc[3]]); err == nil {
				out = out[:loc[0]] + padLeft(val, width) + out[loc[1]:]
			}
		}

		// Literal form: `$Var$`.
		out = strings.ReplaceAll(out, "$"+name+"$", val)
	}
	return out
}

// padLeft zero-pads val on the left to width characters. If val is a valid
// non-negative integer string, padding operates on its numeric value so
// that "42" padded to width 6 is "000042"; otherwise it pads the raw
// string. Values already at or beyond the requested width are left
// unchanged (no truncation).
func padLeft(val string, width int) string {
	if n, err := strconv.ParseUint(val, 10, 64); err == nil {
		return fmt.Sprintf("%0*d", width, n)
	}
	if len(val) >= width {
		return val
	}
	return strings.Repeat("0", width-len(val)) + val
}
