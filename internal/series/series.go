// Package series implements float64 columns where NaN marks a missing
// observation, plus the windowed statistics the derived metrics need.
package series

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Series is one column of observations. NaN is a missing value; ±Inf never
// survives a public computation in this module.
type Series []float64

// Missing returns the missing-value marker
func Missing() float64 { return math.NaN() }

// IsMissing reports whether v is missing or non-finite
func IsMissing(v float64) bool { return math.IsNaN(v) || math.IsInf(v, 0) }

// New returns a series of n missing values
func New(n int) Series {
	s := make(Series, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}

// Of builds a series from literal values
func Of(values ...float64) Series {
	return append(Series(nil), values...)
}

// Clone returns an independent copy
func (s Series) Clone() Series {
	return append(Series(nil), s...)
}

// Len returns the number of rows
func (s Series) Len() int { return len(s) }

// Finite replaces ±Inf with missing, in place, and returns s
func (s Series) Finite() Series {
	for i, v := range s {
		if math.IsInf(v, 0) {
			s[i] = math.NaN()
		}
	}
	return s
}

// Valid returns the non-missing values in row order
func (s Series) Valid() []float64 {
	out := make([]float64, 0, len(s))
	for _, v := range s {
		if !IsMissing(v) {
			out = append(out, v)
		}
	}
	return out
}

// Count returns the number of non-missing values
func (s Series) Count() int {
	n := 0
	for _, v := range s {
		if !IsMissing(v) {
			n++
		}
	}
	return n
}

// Min returns the smallest non-missing value, or missing when there is none
func (s Series) Min() float64 {
	valid := s.Valid()
	if len(valid) == 0 {
		return math.NaN()
	}
	return floats.Min(valid)
}

// Max returns the largest non-missing value, or missing when there is none
func (s Series) Max() float64 {
	valid := s.Valid()
	if len(valid) == 0 {
		return math.NaN()
	}
	return floats.Max(valid)
}

// Scale multiplies every value by k
func (s Series) Scale(k float64) Series {
	out := make(Series, len(s))
	for i, v := range s {
		out[i] = v * k
	}
	return out.Finite()
}

// Sub returns s - o element-wise; the shorter length wins
func (s Series) Sub(o Series) Series {
	n := min(len(s), len(o))
	out := make(Series, n)
	for i := 0; i < n; i++ {
		out[i] = s[i] - o[i]
	}
	return out.Finite()
}

// Shift moves values k rows later (k > 0) or earlier (k < 0), filling with missing.
// Shift(-h)[t] == s[t+h].
func (s Series) Shift(k int) Series {
	out := New(len(s))
	for i := range s {
		j := i - k
		if j >= 0 && j < len(s) {
			out[i] = s[j]
		}
	}
	return out
}

// Diff returns s[t] - s[t-1]; the first row is missing
func (s Series) Diff() Series {
	out := New(len(s))
	for i := 1; i < len(s); i++ {
		out[i] = s[i] - s[i-1]
	}
	return out.Finite()
}

// PctChange returns (s[t] - s[t-1]) / s[t-1]; the first row is missing and
// a missing neighbour makes the row missing. Gaps are not forward-filled.
func (s Series) PctChange() Series {
	out := New(len(s))
	for i := 1; i < len(s); i++ {
		out[i] = (s[i] - s[i-1]) / s[i-1]
	}
	return out.Finite()
}

// Mean of the non-missing values in xs; missing when xs is empty
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return stat.Mean(xs, nil)
}

// StdDev is the sample standard deviation (n-1 denominator); missing below two values
func StdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return math.NaN()
	}
	return stat.StdDev(xs, nil)
}

// Rolling applies fn to the non-missing values of each trailing window of
// size window. Rows whose window holds fewer than minPeriods non-missing
// values are missing.
func (s Series) Rolling(window, minPeriods int, fn func([]float64) float64) Series {
	out := New(len(s))
	if window <= 0 {
		return out
	}
	if minPeriods <= 0 {
		minPeriods = 1
	}

	buf := make([]float64, 0, window)
	for i := range s {
		buf = buf[:0]
		for j := max(0, i-window+1); j <= i; j++ {
			if !IsMissing(s[j]) {
				buf = append(buf, s[j])
			}
		}
		if len(buf) >= minPeriods {
			out[i] = fn(buf)
		}
	}
	return out.Finite()
}

// Expanding applies fn to all non-missing values up to and including each row
func (s Series) Expanding(minPeriods int, fn func([]float64) float64) Series {
	out := New(len(s))
	if minPeriods <= 0 {
		minPeriods = 1
	}

	seen := make([]float64, 0, len(s))
	for i, v := range s {
		if !IsMissing(v) {
			seen = append(seen, v)
		}
		if len(seen) >= minPeriods {
			out[i] = fn(seen)
		}
	}
	return out.Finite()
}

// EWM is the recursive exponentially weighted mean
// y[0] = x[0], y[t] = (1-alpha)*y[t-1] + alpha*x[t].
// Leading missing values stay missing; a missing value later on repeats the previous mean.
func (s Series) EWM(alpha float64) Series {
	out := New(len(s))
	started := false
	var y float64
	for i, v := range s {
		switch {
		case IsMissing(v) && !started:
			continue
		case IsMissing(v):
		case !started:
			y = v
			started = true
		default:
			y = (1-alpha)*y + alpha*v
		}
		out[i] = y
	}
	return out.Finite()
}

// Clip bounds every non-missing value to [lo, hi]
func (s Series) Clip(lo, hi float64) Series {
	out := make(Series, len(s))
	for i, v := range s {
		out[i] = v
		if IsMissing(v) {
			continue
		}
		if v < lo {
			out[i] = lo
		} else if v > hi {
			out[i] = hi
		}
	}
	return out
}

// FillMissing replaces every missing value with v
func (s Series) FillMissing(v float64) Series {
	out := s.Clone()
	for i, x := range out {
		if IsMissing(x) {
			out[i] = v
		}
	}
	return out
}

// PairwiseComplete returns the rows where both a and b are present
func PairwiseComplete(a, b Series) (x, y []float64) {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if IsMissing(a[i]) || IsMissing(b[i]) {
			continue
		}
		x = append(x, a[i])
		y = append(y, b[i])
	}
	return x, y
}

// Correlation is the Pearson correlation over pairwise complete rows.
// Fewer than two rows or a constant side yields missing.
func Correlation(a, b Series) float64 {
	x, y := PairwiseComplete(a, b)
	if len(x) < 2 {
		return math.NaN()
	}
	if floats.Min(x) == floats.Max(x) || floats.Min(y) == floats.Max(y) {
		return math.NaN()
	}
	r := stat.Correlation(x, y, nil)
	if IsMissing(r) {
		return math.NaN()
	}
	return r
}
