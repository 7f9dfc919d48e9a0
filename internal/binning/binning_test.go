package binning

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"navpulse/internal/series"
)

var nan = math.NaN()

func TestQuantile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	tests := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{1.0 / 3, 2},
		{0.5, 2.5},
		{2.0 / 3, 3},
		{1, 4},
		{-1, 1},
		{2, 4},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Quantile(sorted, tt.p), 1e-12, "p=%v", tt.p)
	}
	assert.True(t, math.IsNaN(Quantile(nil, 0.5)))
}

func TestTertiles(t *testing.T) {
	values := series.Of(1, 2, nan, 3, 4, 5, 6)
	cats, edges := Tertiles(values)

	require.Len(t, edges, 4)
	assert.InDelta(t, 1, edges[0], 1e-12)
	assert.InDelta(t, 6, edges[3], 1e-12)
	assert.Equal(t, []Category{
		CategoryLow, CategoryLow, CategoryNone, CategoryMedium, CategoryMedium, CategoryHigh, CategoryHigh,
	}, cats)
}

func TestTertilesRightInclusive(t *testing.T) {
	// edges at 1, 2, 3, 4: a value equal to an inner edge falls in the lower bin
	cats, edges := Tertiles(series.Of(1, 2, 3, 4))
	assert.Equal(t, Edges{1, 2, 3, 4}, edges)
	assert.Equal(t, []Category{CategoryLow, CategoryLow, CategoryMedium, CategoryHigh}, cats)
}

func TestTertilesCollapsedBins(t *testing.T) {
	tests := []struct {
		name     string
		values   series.Series
		wantBins int
		want     []Category
	}{
		{
			name:     "single value",
			values:   series.Of(5, 5, 5),
			wantBins: 1,
			want:     []Category{CategoryMedium, CategoryMedium, CategoryMedium},
		},
		{
			name:     "two bins",
			values:   series.Of(0, 0, 0, 0, 1, 1),
			wantBins: 2,
			want:     []Category{CategoryLow, CategoryLow, CategoryLow, CategoryLow, CategoryHigh, CategoryHigh},
		},
		{
			name:     "all missing",
			values:   series.New(3),
			wantBins: 0,
			want:     []Category{CategoryNone, CategoryNone, CategoryNone},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cats, edges := Tertiles(tt.values)
			assert.Equal(t, tt.wantBins, edges.Bins())
			assert.Equal(t, tt.want, cats)
		})
	}
}

func TestTertilesEqualFrequency(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	for n := 3; n <= 120; n++ {
		values := make(series.Series, n)
		for i, p := range r.Perm(n) {
			values[i] = float64(p) * 0.37
		}
		cats, _ := Tertiles(values)
		counts := Counts(cats)

		sizes := []int{counts[CategoryLow], counts[CategoryMedium], counts[CategoryHigh]}
		lo, hi := sizes[0], sizes[0]
		total := 0
		for _, s := range sizes {
			lo, hi = min(lo, s), max(hi, s)
			total += s
		}
		require.Equal(t, n, total)
		require.LessOrEqualf(t, hi-lo, 1, "n=%d sizes=%v", n, sizes)
	}
}

func TestQuantileBinsGeneric(t *testing.T) {
	labels := []Category{"q1", "q2", "q3", "q4"}
	cats, edges := QuantileBins(series.Of(1, 2, 3, 4, 5, 6, 7, 8), labels)
	assert.Equal(t, 4, edges.Bins())
	assert.Equal(t, map[Category]int{"q1": 2, "q2": 2, "q3": 2, "q4": 2}, Counts(cats))
	assert.Equal(t, labels, Distinct(cats, labels))
}

func TestEdgesIndex(t *testing.T) {
	e := Edges{0, 1, 2}
	assert.Equal(t, 0, e.Index(0))
	assert.Equal(t, 0, e.Index(1))
	assert.Equal(t, 1, e.Index(1.5))
	assert.Equal(t, 1, e.Index(2))
	assert.Equal(t, -1, e.Index(2.5))
	assert.Equal(t, -1, e.Index(-0.1))
	assert.Equal(t, -1, e.Index(nan))
}

func TestCollapsedLabels(t *testing.T) {
	assert.Equal(t, []Category{CategoryLow, CategoryHigh}, collapsedLabels(TertileLabels, 2))
	assert.Equal(t, []Category{CategoryMedium}, collapsedLabels(TertileLabels, 1))
	assert.Equal(t, TertileLabels, collapsedLabels(TertileLabels, 3))
}
