package derived

import (
	"math"

	"navpulse/internal/series"
)

// DiscountPremium is (nav - price) / price. Positive means the price trades below NAV.
func DiscountPremium(nav, price series.Series) series.Series {
	n := min(len(nav), len(price))
	out := make(series.Series, n)
	for i := 0; i < n; i++ {
		out[i] = (nav[i] - price[i]) / price[i]
	}
	return out.Finite()
}

// DiscountPremiumAdjusted is (price - nav) / nav, the NAV-relative gap with
// the opposite sign convention to DiscountPremium.
func DiscountPremiumAdjusted(nav, price series.Series) series.Series {
	n := min(len(nav), len(price))
	out := make(series.Series, n)
	for i := 0; i < n; i++ {
		out[i] = (price[i] - nav[i]) / nav[i]
	}
	return out.Finite()
}

// ForwardReturn is (price[t+h] - price[t]) / price[t]. The last h rows are missing.
func ForwardReturn(price series.Series, h int) series.Series {
	if h <= 0 {
		return series.New(len(price))
	}
	ahead := price.Shift(-h)
	out := make(series.Series, len(price))
	for i := range price {
		out[i] = (ahead[i] - price[i]) / price[i]
	}
	return out.Finite()
}

// ReturnMinusBenchmark subtracts the benchmark return, given in percent and
// converted with scale, from the forward return.
func ReturnMinusBenchmark(fwd, benchmark series.Series, scale float64) series.Series {
	return fwd.Sub(benchmark.Scale(scale))
}

// DailyReturn is the one-row percentage change of price
func DailyReturn(price series.Series) series.Series {
	return price.PctChange()
}

// RiskFreeDaily converts an annual rate to a per-trading-day rate
func RiskFreeDaily(annual float64, tradingDays int) float64 {
	return math.Pow(1+annual, 1/float64(tradingDays)) - 1
}

func annualize(s series.Series, tradingDays int) series.Series {
	return s.Scale(math.Sqrt(float64(tradingDays)))
}

func sharpe(mean, std series.Series, rfDaily float64, tradingDays int) series.Series {
	out := make(series.Series, len(mean))
	k := math.Sqrt(float64(tradingDays))
	for i := range mean {
		out[i] = (mean[i] - rfDaily) / std[i] * k
	}
	return out.Finite()
}

// RollingVolatility is the annualized sample standard deviation over a
// trailing window of rows.
func RollingVolatility(r series.Series, window, minPeriods, tradingDays int) series.Series {
	return annualize(r.Rolling(window, minPeriods, series.StdDev), tradingDays)
}

// RollingSharpe is the annualized ratio of excess mean to standard deviation
// over a trailing window of rows.
func RollingSharpe(r series.Series, window, minPeriods, tradingDays int, rfDaily float64) series.Series {
	mean := r.Rolling(window, minPeriods, series.Mean)
	std := r.Rolling(window, minPeriods, series.StdDev)
	return sharpe(mean, std, rfDaily, tradingDays)
}

// ExpandingVolatility is RollingVolatility over the whole history so far
func ExpandingVolatility(r series.Series, minPeriods, tradingDays int) series.Series {
	return annualize(r.Expanding(minPeriods, series.StdDev), tradingDays)
}

// ExpandingSharpe is RollingSharpe over the whole history so far
func ExpandingSharpe(r series.Series, minPeriods, tradingDays int, rfDaily float64) series.Series {
	mean := r.Expanding(minPeriods, series.Mean)
	std := r.Expanding(minPeriods, series.StdDev)
	return sharpe(mean, std, rfDaily, tradingDays)
}

// RSI is the relative strength index over n rows. Gains and losses are
// averaged with an exponential mean (alpha = 2/(n+1)) when ema is set and a
// simple rolling mean of n rows otherwise. Rows without enough history, and
// rows with a zero average loss, saturate at 100.
func RSI(price series.Series, n int, ema bool) series.Series {
	delta := price.Diff()
	gain := make(series.Series, len(delta))
	loss := make(series.Series, len(delta))
	for i, d := range delta {
		// a missing delta counts as no movement
		if d > 0 {
			gain[i] = d
		}
		if d < 0 {
			loss[i] = -d
		}
	}

	var avgGain, avgLoss series.Series
	if ema {
		alpha := 2 / (float64(n) + 1)
		avgGain = gain.EWM(alpha)
		avgLoss = loss.EWM(alpha)
	} else {
		avgGain = gain.Rolling(n, n, series.Mean)
		avgLoss = loss.Rolling(n, n, series.Mean)
	}

	out := make(series.Series, len(price))
	for i := range out {
		if series.IsMissing(avgGain[i]) || series.IsMissing(avgLoss[i]) || avgLoss[i] == 0 {
			out[i] = 100
			continue
		}
		rs := avgGain[i] / avgLoss[i]
		out[i] = 100 - 100/(1+rs)
	}
	return out.FillMissing(100).Clip(0, 100)
}

// MinMaxNormalize rescales x to [0, 1] over its non-missing values. A zero
// range leaves every row missing.
func MinMaxNormalize(x series.Series) series.Series {
	lo, hi := x.Min(), x.Max()
	if series.IsMissing(lo) || hi == lo {
		return series.New(len(x))
	}
	out := make(series.Series, len(x))
	for i, v := range x {
		out[i] = (v - lo) / (hi - lo)
	}
	return out.Finite()
}
