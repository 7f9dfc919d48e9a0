package exporter

import (
	"math"
	"strconv"
	"time"

	"navpulse/internal/config"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// formatFloat writes the shortest representation that round-trips.
// Missing values are empty; infinities are "inf" and "-inf".
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ""
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// formatDate writes the date part only; an unparsed date is empty
func formatDate(d time.Time) string {
	if d.IsZero() {
		return ""
	}
	return d.Format(config.DateLayout)
}
