package derived

import (
	"navpulse/internal/config"
	apperrors "navpulse/internal/errors"
)

// Output column names
const (
	ColDiscountPremium      = "DISCOUNT_PREMIUM"
	ColDiscountPremiumAdj   = "DISCOUNT_PREMIUM_ADJ"
	ColDiscountPremiumNorm  = "DISCOUNT_PREMIUM_NORM"
	ColReturn               = "RETURN"
	ColReturnMinusBenchmark = "RETURN_MINUS_BENCHMARK"
	ColDailyReturn          = "DAILY_RETURN"
	ColVolRolling           = "VOL_ROLLING"
	ColSharpeRolling        = "SHARPE_ROLLING"
	ColVolExp               = "VOL_EXP"
	ColSharpeExp            = "SHARPE_EXP"
	ColRSI                  = "RSI"
)

// ReturnColumns are added by DeriveReturns, in output order
var ReturnColumns = []string{
	ColDiscountPremium,
	ColDiscountPremiumAdj,
	ColReturn,
	ColReturnMinusBenchmark,
}

// RiskColumns are added by DeriveRisk, in output order
var RiskColumns = []string{
	ColDiscountPremiumNorm,
	ColDailyReturn,
	ColVolRolling,
	ColSharpeRolling,
	ColVolExp,
	ColSharpeExp,
	ColRSI,
}

// Params controls the metric derivation
type Params struct {
	// Horizon is the forward return horizon in rows
	Horizon int
	// Window and WindowMinPeriods size the rolling volatility and Sharpe
	Window           int
	WindowMinPeriods int
	// ExpandingMinPeriods gates the whole-history volatility and Sharpe
	ExpandingMinPeriods int
	RSIPeriod           int
	// RSIEMA selects exponential rather than simple averaging of gains and losses
	RSIEMA         bool
	TradingDays    int
	AnnualRiskFree float64
	// BenchmarkScale converts the benchmark return to a fraction
	BenchmarkScale float64
}

// DefaultParams returns the standard parameters
func DefaultParams() Params {
	return Params{
		Horizon:             config.DefaultHorizon,
		Window:              config.DefaultWindow,
		WindowMinPeriods:    config.DefaultWindowMinPeriods,
		ExpandingMinPeriods: config.DefaultExpandingMinPeriods,
		RSIPeriod:           config.DefaultRSIPeriod,
		RSIEMA:              true,
		TradingDays:         config.DefaultTradingDays,
		AnnualRiskFree:      0,
		BenchmarkScale:      config.DefaultBenchmarkScale,
	}
}

// ParamsFromConfig maps the analysis section of the configuration
func ParamsFromConfig(cfg config.AnalysisConfig) Params {
	return Params{
		Horizon:             cfg.Horizon,
		Window:              cfg.Window,
		WindowMinPeriods:    cfg.WindowMinPeriods,
		ExpandingMinPeriods: cfg.ExpandingMinPeriods,
		RSIPeriod:           cfg.RSIPeriod,
		RSIEMA:              cfg.RSIEMA,
		TradingDays:         cfg.TradingDays,
		AnnualRiskFree:      cfg.AnnualRiskFree,
		BenchmarkScale:      cfg.BenchmarkScale,
	}
}

// Validate rejects parameters no formula can use
func (p Params) Validate() error {
	switch {
	case p.Horizon <= 0:
		return apperrors.NewInvalidParameterError("horizon", p.Horizon)
	case p.Window <= 1:
		return apperrors.NewInvalidParameterError("window", p.Window)
	case p.WindowMinPeriods <= 0 || p.WindowMinPeriods > p.Window:
		return apperrors.NewInvalidParameterError("window_min_periods", p.WindowMinPeriods)
	case p.ExpandingMinPeriods <= 0:
		return apperrors.NewInvalidParameterError("expanding_min_periods", p.ExpandingMinPeriods)
	case p.RSIPeriod <= 0:
		return apperrors.NewInvalidParameterError("rsi_period", p.RSIPeriod)
	case p.TradingDays <= 0:
		return apperrors.NewInvalidParameterError("trading_days", p.TradingDays)
	case p.AnnualRiskFree <= -1:
		return apperrors.NewInvalidParameterError("annual_risk_free", p.AnnualRiskFree)
	}
	return nil
}
