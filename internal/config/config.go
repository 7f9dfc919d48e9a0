package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "navpulse/internal/errors"
)

// EnvPrefix is the prefix for every environment override, e.g. NAVPULSE_ANALYSIS_HORIZON.
const EnvPrefix = "NAVPULSE"

// Config represents the complete application configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Analysis  AnalysisConfig  `yaml:"analysis" envconfig:"ANALYSIS"`
	Mining    MiningConfig    `yaml:"mining" envconfig:"MINING"`
	Charts    ChartsConfig    `yaml:"charts" envconfig:"CHARTS"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/navpulse.log"`
}

// PathsConfig contains file system locations, relative to the working directory unless absolute
type PathsConfig struct {
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	FiguresDir string `yaml:"figures_dir" envconfig:"FIGURES_DIR" default:"figs"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// AnalysisConfig holds the parameters of the metric derivation
type AnalysisConfig struct {
	DateColumn          string  `yaml:"date_column" envconfig:"DATE_COLUMN" default:"Investor Date" validate:"required"`
	Cutoff              string  `yaml:"cutoff" envconfig:"CUTOFF" default:"2024-12-11" validate:"required,datetime=2006-01-02"`
	Horizon             int     `yaml:"horizon" envconfig:"HORIZON" default:"200" validate:"gt=0"`
	Window              int     `yaml:"window" envconfig:"WINDOW" default:"30" validate:"gt=1"`
	WindowMinPeriods    int     `yaml:"window_min_periods" envconfig:"WINDOW_MIN_PERIODS" default:"5" validate:"gt=0"`
	ExpandingMinPeriods int     `yaml:"expanding_min_periods" envconfig:"EXPANDING_MIN_PERIODS" default:"20" validate:"gt=0"`
	RSIPeriod           int     `yaml:"rsi_period" envconfig:"RSI_PERIOD" default:"14" validate:"gt=0"`
	RSIEMA              bool    `yaml:"rsi_ema" envconfig:"RSI_EMA" default:"true"`
	TradingDays         int     `yaml:"trading_days" envconfig:"TRADING_DAYS" default:"252" validate:"gt=0"`
	AnnualRiskFree      float64 `yaml:"annual_risk_free" envconfig:"ANNUAL_RISK_FREE" default:"0" validate:"gt=-1"`
	BenchmarkScale      float64 `yaml:"benchmark_scale" envconfig:"BENCHMARK_SCALE" default:"0.01"`
}

// MiningConfig holds the association rule mining parameters
type MiningConfig struct {
	ReturnColumn   string  `yaml:"return_column" envconfig:"RETURN_COLUMN" default:"RETURN_MINUS_BENCHMARK" validate:"required"`
	DiscountColumn string  `yaml:"discount_column" envconfig:"DISCOUNT_COLUMN" default:"DISCOUNT_PREMIUM_ADJ" validate:"required"`
	MinSupport     float64 `yaml:"min_support" envconfig:"MIN_SUPPORT" default:"0.03" validate:"gt=0,lte=1"`
	Metric         string  `yaml:"metric" envconfig:"METRIC" default:"lift" validate:"oneof=lift confidence support leverage"`
	MinThreshold   float64 `yaml:"min_threshold" envconfig:"MIN_THRESHOLD" default:"1.0"`
	TopN           int     `yaml:"top_n" envconfig:"TOP_N" default:"20" validate:"gt=0"`
	FromYear       int     `yaml:"from_year" envconfig:"FROM_YEAR" default:"2016" validate:"gte=1900"`
	ToYear         int     `yaml:"to_year" envconfig:"TO_YEAR" default:"2024" validate:"gtefield=FromYear"`
	LookupFrom     string  `yaml:"lookup_from" envconfig:"LOOKUP_FROM" default:"DISC_PREM_low"`
	LookupTo       string  `yaml:"lookup_to" envconfig:"LOOKUP_TO" default:"RET_OMXS_high"`
}

// ChartsConfig controls PNG rendering
type ChartsConfig struct {
	WidthInches   float64 `yaml:"width_inches" envconfig:"WIDTH_INCHES" default:"8" validate:"gt=0"`
	HeightInches  float64 `yaml:"height_inches" envconfig:"HEIGHT_INCHES" default:"6" validate:"gt=0"`
	HistogramBins int     `yaml:"histogram_bins" envconfig:"HISTOGRAM_BINS" default:"30" validate:"gt=0"`
}

// TelemetryConfig controls tracing and the metrics textfile dump
type TelemetryConfig struct {
	TraceExporter   string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" default:"none" validate:"oneof=none stdout"`
	MetricsTextfile string `yaml:"metrics_textfile" envconfig:"METRICS_TEXTFILE"`
}

// CutoffTime parses the configured cutoff date
func (a AnalysisConfig) CutoffTime() (time.Time, error) {
	t, err := time.Parse(DateLayout, a.Cutoff)
	if err != nil {
		return time.Time{}, apperrors.NewConfigError(fmt.Sprintf("invalid cutoff %q", a.Cutoff), err)
	}
	return t, nil
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom loads configuration from environment variables and the given
// YAML file. An empty path skips the file.
func LoadFrom(configFile string) (*Config, error) {
	var cfg Config

	// Load from environment variables first
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	// Load from config file if exists
	if configFile != "" {
		fileConfig, present, err := loadFromFile(configFile)
		if err != nil {
			return nil, apperrors.NewConfigError("failed to load config from file "+configFile, err)
		}
		cfg = mergeConfigs(*fileConfig, *present, cfg, Default())
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// fileBools records which boolean keys the YAML file sets, since false
// cannot be told apart from absent in Config itself
type fileBools struct {
	Analysis struct {
		RSIEMA *bool `yaml:"rsi_ema"`
	} `yaml:"analysis"`
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, *fileBools, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, nil, err
	}
	var present fileBools
	if err := yaml.Unmarshal(data, &present); err != nil {
		return nil, nil, err
	}

	return &cfg, &present, nil
}

// mergeConfigs fills every env value still at its default with the file value.
// Environment wins whenever it was set to something other than the default.
func mergeConfigs(fileConfig Config, present fileBools, envConfig Config, defaults *Config) Config {
	str := func(env *string, file, def string) {
		if *env == def && file != "" {
			*env = file
		}
	}
	num := func(env *int, file, def int) {
		if *env == def && file != 0 {
			*env = file
		}
	}
	flt := func(env *float64, file, def float64) {
		if *env == def && file != 0 {
			*env = file
		}
	}
	bln := func(env *bool, file *bool, def bool) {
		if *env == def && file != nil {
			*env = *file
		}
	}

	str(&envConfig.Logging.Level, fileConfig.Logging.Level, defaults.Logging.Level)
	str(&envConfig.Logging.Format, fileConfig.Logging.Format, defaults.Logging.Format)
	str(&envConfig.Logging.Output, fileConfig.Logging.Output, defaults.Logging.Output)
	str(&envConfig.Logging.FilePath, fileConfig.Logging.FilePath, defaults.Logging.FilePath)

	str(&envConfig.Paths.DataDir, fileConfig.Paths.DataDir, defaults.Paths.DataDir)
	str(&envConfig.Paths.FiguresDir, fileConfig.Paths.FiguresDir, defaults.Paths.FiguresDir)
	str(&envConfig.Paths.LogsDir, fileConfig.Paths.LogsDir, defaults.Paths.LogsDir)

	a, fa, da := &envConfig.Analysis, fileConfig.Analysis, defaults.Analysis
	str(&a.DateColumn, fa.DateColumn, da.DateColumn)
	str(&a.Cutoff, fa.Cutoff, da.Cutoff)
	num(&a.Horizon, fa.Horizon, da.Horizon)
	num(&a.Window, fa.Window, da.Window)
	num(&a.WindowMinPeriods, fa.WindowMinPeriods, da.WindowMinPeriods)
	num(&a.ExpandingMinPeriods, fa.ExpandingMinPeriods, da.ExpandingMinPeriods)
	num(&a.RSIPeriod, fa.RSIPeriod, da.RSIPeriod)
	bln(&a.RSIEMA, present.Analysis.RSIEMA, da.RSIEMA)
	num(&a.TradingDays, fa.TradingDays, da.TradingDays)
	flt(&a.AnnualRiskFree, fa.AnnualRiskFree, da.AnnualRiskFree)
	flt(&a.BenchmarkScale, fa.BenchmarkScale, da.BenchmarkScale)

	m, fm, dm := &envConfig.Mining, fileConfig.Mining, defaults.Mining
	str(&m.ReturnColumn, fm.ReturnColumn, dm.ReturnColumn)
	str(&m.DiscountColumn, fm.DiscountColumn, dm.DiscountColumn)
	flt(&m.MinSupport, fm.MinSupport, dm.MinSupport)
	str(&m.Metric, fm.Metric, dm.Metric)
	flt(&m.MinThreshold, fm.MinThreshold, dm.MinThreshold)
	num(&m.TopN, fm.TopN, dm.TopN)
	num(&m.FromYear, fm.FromYear, dm.FromYear)
	num(&m.ToYear, fm.ToYear, dm.ToYear)
	str(&m.LookupFrom, fm.LookupFrom, dm.LookupFrom)
	str(&m.LookupTo, fm.LookupTo, dm.LookupTo)

	c, fc, dc := &envConfig.Charts, fileConfig.Charts, defaults.Charts
	flt(&c.WidthInches, fc.WidthInches, dc.WidthInches)
	flt(&c.HeightInches, fc.HeightInches, dc.HeightInches)
	num(&c.HistogramBins, fc.HistogramBins, dc.HistogramBins)

	str(&envConfig.Telemetry.TraceExporter, fileConfig.Telemetry.TraceExporter, defaults.Telemetry.TraceExporter)
	str(&envConfig.Telemetry.MetricsTextfile, fileConfig.Telemetry.MetricsTextfile, defaults.Telemetry.MetricsTextfile)

	return envConfig
}

// Validate checks struct tags and the cutoff date
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return apperrors.NewConfigError("config validation failed", err)
	}
	if _, err := c.Analysis.CutoffTime(); err != nil {
		return err
	}
	return nil
}

// getConfigFilePath returns the path to the config file, or "" when none exists
func getConfigFilePath() string {
	if explicit := os.Getenv(EnvPrefix + "_CONFIG"); explicit != "" {
		return explicit
	}

	locations := []string{
		"navpulse.yaml",
		"configs/navpulse.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/navpulse.log",
		},
		Paths: PathsConfig{
			DataDir:    "data",
			FiguresDir: "figs",
			LogsDir:    "logs",
		},
		Analysis: AnalysisConfig{
			DateColumn:          DefaultDateColumn,
			Cutoff:              DefaultCutoff,
			Horizon:             DefaultHorizon,
			Window:              DefaultWindow,
			WindowMinPeriods:    DefaultWindowMinPeriods,
			ExpandingMinPeriods: DefaultExpandingMinPeriods,
			RSIPeriod:           DefaultRSIPeriod,
			RSIEMA:              true,
			TradingDays:         DefaultTradingDays,
			AnnualRiskFree:      0,
			BenchmarkScale:      DefaultBenchmarkScale,
		},
		Mining: MiningConfig{
			ReturnColumn:   "RETURN_MINUS_BENCHMARK",
			DiscountColumn: "DISCOUNT_PREMIUM_ADJ",
			MinSupport:     DefaultMinSupport,
			Metric:         "lift",
			MinThreshold:   DefaultMinLift,
			TopN:           DefaultTopN,
			FromYear:       DefaultFromYear,
			ToYear:         DefaultToYear,
			LookupFrom:     "DISC_PREM_low",
			LookupTo:       "RET_OMXS_high",
		},
		Charts: ChartsConfig{
			WidthInches:   8,
			HeightInches:  6,
			HistogramBins: DefaultHistogramBins,
		},
		Telemetry: TelemetryConfig{
			TraceExporter: "none",
		},
	}
}
