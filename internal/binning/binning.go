// Package binning discretizes a metric into equal-frequency categories.
package binning

import (
	"math"
	"slices"
	"sort"

	"navpulse/internal/series"
)

// Category is the bin label of one row
type Category string

const (
	// CategoryNone marks a row whose metric is missing
	CategoryNone   Category = ""
	CategoryLow    Category = "low"
	CategoryMedium Category = "medium"
	CategoryHigh   Category = "high"
)

// TertileLabels are the labels of a three-way split, lowest first
var TertileLabels = []Category{CategoryLow, CategoryMedium, CategoryHigh}

// Edges are ascending, distinct bin boundaries; k bins have k+1 edges
type Edges []float64

// Bins returns the number of bins the edges describe
func (e Edges) Bins() int {
	if len(e) < 2 {
		return min(len(e), 1)
	}
	return len(e) - 1
}

// Quantile returns the p-quantile of sorted by linear interpolation between
// the closest ranks.
func Quantile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	return interpolate(sorted, p*float64(len(sorted)-1))
}

// rankQuantile is Quantile at p = num/den, with the rank computed in
// integers so that exact ranks stay exact.
func rankQuantile(sorted []float64, num, den int) float64 {
	return interpolate(sorted, float64(num*(len(sorted)-1))/float64(den))
}

func interpolate(sorted []float64, pos float64) float64 {
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// QuantileEdges computes q equal-frequency edges over the non-missing values
// and drops duplicates. It returns nil when there are no values.
func QuantileEdges(values series.Series, q int) Edges {
	sorted := values.Valid()
	if len(sorted) == 0 || q <= 0 {
		return nil
	}
	sort.Float64s(sorted)

	edges := make(Edges, 0, q+1)
	for i := 0; i <= q; i++ {
		e := rankQuantile(sorted, i, q)
		if len(edges) > 0 && e == edges[len(edges)-1] {
			continue
		}
		edges = append(edges, e)
	}
	return edges
}

// Index returns the bin of v: bin i holds edges[i] < v <= edges[i+1], and
// the first bin also holds its lower edge. Values outside the edges, and
// missing values, return -1.
func (e Edges) Index(v float64) int {
	if series.IsMissing(v) || len(e) == 0 || v < e[0] || v > e[len(e)-1] {
		return -1
	}
	if len(e) == 1 {
		return 0
	}
	j := sort.SearchFloat64s(e, v)
	return max(j-1, 0)
}

// collapsedLabels spreads labels over k bins so that the extremes keep the
// extreme labels and a single bin takes the middle one.
func collapsedLabels(labels []Category, k int) []Category {
	if k >= len(labels) {
		return labels
	}
	if k == 1 {
		return []Category{labels[len(labels)/2]}
	}
	out := make([]Category, k)
	for i := range out {
		pos := math.Round(float64(i) * float64(len(labels)-1) / float64(k-1))
		out[i] = labels[int(pos)]
	}
	return out
}

// Assign labels every row by its bin. Fewer bins than labels are tolerated
// and labelled with collapsedLabels; missing rows get CategoryNone.
func Assign(values series.Series, edges Edges, labels []Category) []Category {
	out := make([]Category, len(values))
	if len(labels) == 0 || len(edges) == 0 {
		return out
	}
	names := collapsedLabels(labels, edges.Bins())
	for i, v := range values {
		if b := edges.Index(v); b >= 0 && b < len(names) {
			out[i] = names[b]
		}
	}
	return out
}

// QuantileBins splits values into len(labels) equal-frequency bins
func QuantileBins(values series.Series, labels []Category) ([]Category, Edges) {
	edges := QuantileEdges(values, len(labels))
	return Assign(values, edges, labels), edges
}

// Tertiles splits values into low, medium and high thirds
func Tertiles(values series.Series) ([]Category, Edges) {
	return QuantileBins(values, TertileLabels)
}

// Counts tallies the assigned categories, ignoring CategoryNone
func Counts(cats []Category) map[Category]int {
	out := make(map[Category]int)
	for _, c := range cats {
		if c != CategoryNone {
			out[c]++
		}
	}
	return out
}

// Distinct returns the assigned categories in label order
func Distinct(cats []Category, labels []Category) []Category {
	counts := Counts(cats)
	var out []Category
	for _, l := range labels {
		if counts[l] > 0 {
			out = append(out, l)
		}
	}
	return slices.Clip(out)
}
