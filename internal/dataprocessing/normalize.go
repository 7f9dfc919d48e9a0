package dataprocessing

import (
	"math"
	"strconv"
	"strings"

	"navpulse/internal/series"
)

// spaceReplacer strips every space flavour used as a thousands separator,
// the percent sign, and maps the decimal comma and unicode minus.
var spaceReplacer = strings.NewReplacer(
	" ", "",
	" ", "",
	" ", "",
	"\t", "",
	"%", "",
	",", ".",
	"−", "-",
)

// ParseLocaleFloat parses Swedish-formatted numeric text such as "1 234,5" or
// "2,5%". A percent sign is removed without rescaling. Anything that does not
// parse to a finite number yields (NaN, false).
func ParseLocaleFloat(s string) (float64, bool) {
	raw := spaceReplacer.Replace(strings.TrimSpace(s))
	if raw == "" {
		return math.NaN(), false
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return math.NaN(), false
	}
	return v, true
}

// NormalizeColumn converts raw cells; unparseable cells become missing
func NormalizeColumn(cells []string) (series.Series, int) {
	out := make(series.Series, len(cells))
	degraded := 0
	for i, c := range cells {
		v, ok := ParseLocaleFloat(c)
		out[i] = v
		if !ok {
			degraded++
		}
	}
	return out, degraded
}

// NormalizeStats counts cells degraded to missing, per column
type NormalizeStats map[string]int

// Total returns the number of degraded cells over all columns
func (s NormalizeStats) Total() int {
	n := 0
	for _, v := range s {
		n += v
	}
	return n
}
