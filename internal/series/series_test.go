package series

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nan = math.NaN()

// assertSeries compares element-wise treating missing values as equal
func assertSeries(t *testing.T, want, got Series) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		if IsMissing(want[i]) {
			assert.Truef(t, IsMissing(got[i]), "row %d: want missing, got %v", i, got[i])
			continue
		}
		assert.InDeltaf(t, want[i], got[i], 1e-9, "row %d", i)
	}
}

func TestFinite(t *testing.T) {
	s := Of(1, math.Inf(1), math.Inf(-1), nan, 2)
	assertSeries(t, Of(1, nan, nan, nan, 2), s.Finite())
	assert.Equal(t, 2, s.Count())
	assert.Equal(t, []float64{1, 2}, s.Valid())
}

func TestMinMax(t *testing.T) {
	s := Of(nan, 3, -1, 7, nan)
	assert.Equal(t, -1.0, s.Min())
	assert.Equal(t, 7.0, s.Max())

	empty := New(3)
	assert.True(t, IsMissing(empty.Min()))
	assert.True(t, IsMissing(empty.Max()))
}

func TestShift(t *testing.T) {
	s := Of(1, 2, 3, 4)
	assertSeries(t, Of(nan, 1, 2, 3), s.Shift(1))
	assertSeries(t, Of(3, 4, nan, nan), s.Shift(-2))
	assertSeries(t, Of(nan, nan, nan, nan), s.Shift(-10))
}

func TestDiffAndPctChange(t *testing.T) {
	s := Of(100, 105, nan, 102, 0, 5)
	assertSeries(t, Of(nan, 5, nan, nan, -102, 5), s.Diff())
	assertSeries(t, Of(nan, 0.05, nan, nan, -1, nan), s.PctChange())
}

func TestMeanStdDev(t *testing.T) {
	assert.InDelta(t, 2.5, Mean([]float64{1, 2, 3, 4}), 1e-12)
	// sample standard deviation of 1..4 is sqrt(5/3)
	assert.InDelta(t, math.Sqrt(5.0/3.0), StdDev([]float64{1, 2, 3, 4}), 1e-12)
	assert.True(t, IsMissing(StdDev([]float64{1})))
	assert.True(t, IsMissing(Mean(nil)))
}

func TestRolling(t *testing.T) {
	s := Of(1, 2, nan, 4, 5, 6)

	got := s.Rolling(3, 2, Mean)
	// windows: [1] [1 2] [1 2 _] [2 _ 4] [_ 4 5] [4 5 6]
	assertSeries(t, Of(nan, 1.5, 1.5, 3, 4.5, 5), got)

	strict := s.Rolling(3, 3, Mean)
	assertSeries(t, Of(nan, nan, nan, nan, nan, 5), strict)

	assertSeries(t, New(6), s.Rolling(0, 1, Mean))
}

func TestExpanding(t *testing.T) {
	s := Of(nan, 2, 4, 6)
	assertSeries(t, Of(nan, nan, 3, 4), s.Expanding(2, Mean))
	assertSeries(t, Of(nan, nan, math.Sqrt(2), 2), s.Expanding(2, StdDev))
}

func TestEWM(t *testing.T) {
	s := Of(nan, 10, 20, nan, 30)
	alpha := 0.5
	// seeded with 10, then 15, carried, then 22.5
	assertSeries(t, Of(nan, 10, 15, 15, 22.5), s.EWM(alpha))
}

func TestClipAndFill(t *testing.T) {
	s := Of(-5, 50, 150, nan)
	assertSeries(t, Of(0, 50, 100, nan), s.Clip(0, 100))
	assertSeries(t, Of(-5, 50, 150, 100), s.FillMissing(100))
	// the receiver is untouched
	assert.True(t, IsMissing(s[3]))
}

func TestScaleSub(t *testing.T) {
	assertSeries(t, Of(0.02, nan), Of(2, nan).Scale(0.01))
	assertSeries(t, Of(1, nan), Of(3, 1).Sub(Of(2, nan)))
}

func TestCorrelation(t *testing.T) {
	a := Of(1, 2, 3, nan, 5)
	b := Of(2, 4, 6, 8, nan)
	assert.InDelta(t, 1.0, Correlation(a, b), 1e-12)

	c := Of(3, 2, 1)
	assert.InDelta(t, -1.0, Correlation(Of(1, 2, 3), c), 1e-12)

	assert.True(t, IsMissing(Correlation(Of(1, 1, 1), Of(1, 2, 3))))
	assert.True(t, IsMissing(Correlation(Of(1), Of(2))))
}
