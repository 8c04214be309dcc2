// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package citation

import (
	"strconv"
	"strings"
)

// Range is one time range of a citation's time expression.
type Range struct {
	StartText string `json:"start_text" yaml:"start_text"`
	EndText   string `json:"end_text,omitempty" yaml:"end_text,omitempty"`

	// Start and End are in seconds. End is -1 when the range is a single
	// instant.
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// StartOf returns the first time value of a time expression: everything
// before the first '-' or ';', trimmed.
//
//	StartOf("9:27-14:14; 14:25-16:49") == "9:27"
func StartOf(timeExpr string) string {
	if i := strings.IndexAny(timeExpr, "-;"); i >= 0 {
		timeExpr = timeExpr[:i]
	}
	return strings.TrimSpace(timeExpr)
}

// ParseTimestamp converts "MM:SS" or "HH:MM:SS" to whole seconds.
// Components are coerced leniently: a component that is not a number
// counts as 0. Any other shape, including an empty string or a bare
// number, yields 0. Components are not range-checked, so "1:75" is 135.
func ParseTimestamp(ts string) int {
	ts = strings.TrimSpace(ts)
	if ts == "" {
		return 0
	}

	parts := strings.Split(ts, ":")
	switch len(parts) {
	case 3:
		return coerce(parts[0])*3600 + coerce(parts[1])*60 + coerce(parts[2])
	case 2:
		return coerce(parts[0])*60 + coerce(parts[1])
	default:
		return 0
	}
}

// coerce parses a non-negative number, truncating fractions. Anything else
// is 0.
func coerce(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0
		}
		return n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || f > 1e12 {
		return 0
	}
	return int(f)
}

// ParseRanges splits a time expression into its ';'-separated ranges, each
// optionally "start-end". Empty segments are dropped. The first range's
// Start always equals ParseTimestamp(StartOf(timeExpr)) when the expression
// begins with a time value.
func ParseRanges(timeExpr string) []Range {
	var ranges []Range
	for _, seg := range strings.Split(timeExpr, ";") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		startText, endText, hasEnd := strings.Cut(seg, "-")
		r := Range{
			StartText: strings.TrimSpace(startText),
			End:       -1,
		}
		r.Start = ParseTimestamp(r.StartText)
		if hasEnd {
			r.EndText = strings.TrimSpace(endText)
			r.End = ParseTimestamp(r.EndText)
		}
		ranges = append(ranges, r)
	}
	return ranges
}
