package derived

import (
	"context"
	"fmt"
	"log/slog"

	"navpulse/internal/dataprocessing"
	"navpulse/internal/infrastructure"
	"navpulse/internal/series"
)

// Calculator applies the metric formulas to a fund table
type Calculator struct {
	params Params
	logger *slog.Logger
}

// NewCalculator creates a calculator after validating params
func NewCalculator(params Params, logger *slog.Logger) (*Calculator, error) {
	logger = infrastructure.WithComponent(logger, "deriver")
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("derived params: %w", err)
	}
	return &Calculator{params: params, logger: logger}, nil
}

// Params returns the parameters in use
func (c *Calculator) Params() Params { return c.params }

// DeriveReturns builds the English-named frame from a normalized table and
// adds the discount/premium and forward return columns. It must run before
// any date filter since the forward return reads prices Horizon rows ahead.
func (c *Calculator) DeriveReturns(ctx context.Context, t *dataprocessing.Table, dateCol string) (*Frame, error) {
	if err := t.Require(append([]string{dateCol}, dataprocessing.RequiredColumns...)...); err != nil {
		return nil, err
	}

	f, err := FrameFromTable(t, dateCol)
	if err != nil {
		return nil, err
	}
	if err := f.Require(dataprocessing.ColPriceEN, dataprocessing.ColCalculatedNAVEN, dataprocessing.ColBenchmarkEN); err != nil {
		return nil, fmt.Errorf("table not normalized: %w", err)
	}

	price, _ := f.Column(dataprocessing.ColPriceEN)
	nav, _ := f.Column(dataprocessing.ColCalculatedNAVEN)
	bench, _ := f.Column(dataprocessing.ColBenchmarkEN)

	fwd := ForwardReturn(price, c.params.Horizon)
	cols := map[string]series.Series{
		ColDiscountPremium:      DiscountPremium(nav, price),
		ColDiscountPremiumAdj:   DiscountPremiumAdjusted(nav, price),
		ColReturn:               fwd,
		ColReturnMinusBenchmark: ReturnMinusBenchmark(fwd, bench, c.params.BenchmarkScale),
	}
	for _, name := range ReturnColumns {
		if err := f.Set(name, cols[name]); err != nil {
			return nil, err
		}
	}

	c.logger.DebugContext(ctx, "return metrics derived",
		slog.String("source", f.Source),
		slog.Int("rows", f.Len()),
		slog.Int("horizon", c.params.Horizon),
		slog.Int("forward_returns", fwd.Count()))

	return f, nil
}

// DeriveRisk adds the normalized discount, daily return, volatility, Sharpe
// and RSI columns to a frame produced by DeriveReturns.
func (c *Calculator) DeriveRisk(ctx context.Context, f *Frame) error {
	if err := f.Require(dataprocessing.ColPriceEN, ColDiscountPremium); err != nil {
		return err
	}

	p := c.params
	price, _ := f.Column(dataprocessing.ColPriceEN)
	dp, _ := f.Column(ColDiscountPremium)

	daily := DailyReturn(price)
	rf := RiskFreeDaily(p.AnnualRiskFree, p.TradingDays)

	cols := map[string]series.Series{
		ColDiscountPremiumNorm: MinMaxNormalize(dp),
		ColDailyReturn:         daily,
		ColVolRolling:          RollingVolatility(daily, p.Window, p.WindowMinPeriods, p.TradingDays),
		ColSharpeRolling:       RollingSharpe(daily, p.Window, p.WindowMinPeriods, p.TradingDays, rf),
		ColVolExp:              ExpandingVolatility(daily, p.ExpandingMinPeriods, p.TradingDays),
		ColSharpeExp:           ExpandingSharpe(daily, p.ExpandingMinPeriods, p.TradingDays, rf),
		ColRSI:                 RSI(price, p.RSIPeriod, p.RSIEMA),
	}
	for _, name := range RiskColumns {
		if err := f.Set(name, cols[name]); err != nil {
			return err
		}
	}

	c.logger.DebugContext(ctx, "risk metrics derived",
		slog.String("source", f.Source),
		slog.Int("rows", f.Len()),
		slog.Int("window", p.Window),
		slog.Bool("rsi_ema", p.RSIEMA))

	return nil
}

// Derive runs both phases without a date filter in between
func (c *Calculator) Derive(ctx context.Context, t *dataprocessing.Table, dateCol string) (*Frame, error) {
	f, err := c.DeriveReturns(ctx, t, dateCol)
	if err != nil {
		return nil, err
	}
	if err := c.DeriveRisk(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}
