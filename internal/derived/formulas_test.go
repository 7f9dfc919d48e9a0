package derived

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"navpulse/internal/series"
)

var nan = math.NaN()

func assertSeries(t *testing.T, want, got series.Series) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		if series.IsMissing(want[i]) {
			assert.Truef(t, series.IsMissing(got[i]), "row %d: want missing, got %v", i, got[i])
			continue
		}
		assert.InDeltaf(t, want[i], got[i], 1e-9, "row %d", i)
	}
}

func randomWalk(r *rand.Rand, n int) series.Series {
	out := make(series.Series, n)
	p := 100.0
	for i := range out {
		p *= 1 + (r.Float64()-0.5)*0.04
		out[i] = p
	}
	return out
}

func TestDiscountPremium(t *testing.T) {
	price := series.Of(100, 105, 98, 102)
	nav := series.Of(110, 108, 107, 109)

	dp := DiscountPremium(nav, price)
	assert.InDelta(t, 0.10, dp[0], 1e-12)
	assert.InDelta(t, 3.0/105.0, dp[1], 1e-12)

	adj := DiscountPremiumAdjusted(nav, price)
	assert.InDelta(t, -10.0/110.0, adj[0], 1e-12)

	for i := range price {
		assert.Truef(t, dp[i]*adj[i] < 0, "row %d: %v and %v must have opposite signs", i, dp[i], adj[i])
	}
}

func TestDiscountPremiumDegenerate(t *testing.T) {
	dp := DiscountPremium(series.Of(10, nan, 5), series.Of(0, 1, 5))
	assertSeries(t, series.Of(nan, nan, 0), dp)

	adj := DiscountPremiumAdjusted(series.Of(0, 5), series.Of(1, 5))
	assertSeries(t, series.Of(nan, 0), adj)
}

func TestForwardReturn(t *testing.T) {
	price := series.Of(100, 110, 121, 133.1)
	assertSeries(t, series.Of(0.21, 0.21, nan, nan), ForwardReturn(price, 2))
	assertSeries(t, series.New(4), ForwardReturn(price, 4))
	assertSeries(t, series.New(4), ForwardReturn(price, 0))
}

func TestForwardReturnTailIsMissing(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for _, h := range []int{1, 5, 200} {
		price := randomWalk(r, 260)
		fwd := ForwardReturn(price, h)
		for i := len(price) - h; i < len(price); i++ {
			assert.Truef(t, series.IsMissing(fwd[i]), "h=%d row %d", h, i)
		}
		for i := 0; i < len(price)-h; i++ {
			assert.Falsef(t, series.IsMissing(fwd[i]), "h=%d row %d", h, i)
		}
	}
}

func TestReturnMinusBenchmark(t *testing.T) {
	got := ReturnMinusBenchmark(series.Of(0.2, nan, 0.1), series.Of(5, 1, nan), 0.01)
	assertSeries(t, series.Of(0.15, nan, nan), got)
}

func TestRiskFreeDaily(t *testing.T) {
	assert.Equal(t, 0.0, RiskFreeDaily(0, 252))
	assert.InDelta(t, math.Pow(1.1, 1.0/252)-1, RiskFreeDaily(0.1, 252), 1e-15)
}

func TestRollingVolatilityAndSharpe(t *testing.T) {
	r := series.Of(nan, 0.01, -0.01, 0.02, 0.0, 0.01)
	k := math.Sqrt(252)
	std := math.Sqrt(1.3e-4)

	vol := RollingVolatility(r, 30, 5, 252)
	assertSeries(t, series.Of(nan, nan, nan, nan, nan, std*k), vol)

	sharpe := RollingSharpe(r, 30, 5, 252, 0)
	assertSeries(t, series.Of(nan, nan, nan, nan, nan, 0.006/std*k), sharpe)

	// a window of 3 rows with 2 observations required
	short := RollingVolatility(series.Of(1, 3, nan, 5), 3, 2, 1)
	assertSeries(t, series.Of(nan, math.Sqrt(2), math.Sqrt(2), math.Sqrt(2)), short)
}

func TestSharpeZeroDeviationIsMissing(t *testing.T) {
	flat := series.Of(0.25, 0.25, 0.25, 0.25, 0.25, 0.25)

	vol := RollingVolatility(flat, 30, 5, 252)
	assert.InDelta(t, 0, vol[5], 1e-12)

	assertSeries(t, series.New(6), RollingSharpe(flat, 30, 5, 252, 0))
	assertSeries(t, series.New(6), ExpandingSharpe(flat, 2, 252, 0))
	assertSeries(t, series.New(3), RollingSharpe(series.Of(0, 0, 0), 3, 2, 252, 0))
}

func TestExpandingVolatility(t *testing.T) {
	r := series.Of(nan, 1, 3, 5)
	assertSeries(t, series.Of(nan, nan, math.Sqrt(2), 2), ExpandingVolatility(r, 2, 1))
	assertSeries(t, series.Of(nan, nan, nan, 2), ExpandingVolatility(r, 3, 1))
	// mean 3, sd 2, one trading day, rf 1
	assertSeries(t, series.Of(nan, nan, nan, 1), ExpandingSharpe(r, 3, 1, 1))
}

func TestRSISimple(t *testing.T) {
	got := RSI(series.Of(1, 2, 1, 2), 2, false)
	assertSeries(t, series.Of(100, 100, 50, 50), got)
}

func TestRSIExponential(t *testing.T) {
	got := RSI(series.Of(1, 2, 1, 2), 3, true)
	assertSeries(t, series.Of(100, 100, 100-100/1.5, 100-100/3.5), got)
}

func TestRSIRisingPricesSaturate(t *testing.T) {
	price := series.Of(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16)
	for _, ema := range []bool{true, false} {
		got := RSI(price, 14, ema)
		for i, v := range got {
			assert.Equalf(t, 100.0, v, "ema=%v row %d", ema, i)
		}
	}
}

func TestRSIBounds(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for trial := 0; trial < 20; trial++ {
		price := randomWalk(r, 300)
		if trial%4 == 0 {
			price[r.Intn(len(price))] = nan
		}
		for _, ema := range []bool{true, false} {
			for i, v := range RSI(price, 14, ema) {
				require.Falsef(t, series.IsMissing(v), "row %d", i)
				require.GreaterOrEqual(t, v, 0.0)
				require.LessOrEqual(t, v, 100.0)
			}
		}
	}
}

func TestMinMaxNormalize(t *testing.T) {
	assertSeries(t, series.Of(0, nan, 0.5, 1), MinMaxNormalize(series.Of(2, nan, 4, 6)))
	assertSeries(t, series.New(3), MinMaxNormalize(series.Of(3, 3, nan)))
	assertSeries(t, series.New(2), MinMaxNormalize(series.New(2)))
}

func TestMinMaxNormalizeBounds(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	x := make(series.Series, 500)
	for i := range x {
		x[i] = r.NormFloat64()
	}
	x[10] = nan

	got := MinMaxNormalize(x)
	lo, hi := x.Min(), x.Max()
	for i, v := range got {
		if series.IsMissing(x[i]) {
			assert.True(t, series.IsMissing(v))
			continue
		}
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
		if x[i] == lo {
			assert.Equal(t, 0.0, v)
		}
		if x[i] == hi {
			assert.Equal(t, 1.0, v)
		}
	}
}
