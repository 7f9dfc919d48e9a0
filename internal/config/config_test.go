package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "navpulse/internal/errors"
)

// TestLoad tests the Load function with various scenarios
func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		yaml        string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "default configuration with no env vars",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "console", cfg.Logging.Output)
				assert.Equal(t, "Investor Date", cfg.Analysis.DateColumn)
				assert.Equal(t, "2024-12-11", cfg.Analysis.Cutoff)
				assert.Equal(t, 200, cfg.Analysis.Horizon)
				assert.Equal(t, 30, cfg.Analysis.Window)
				assert.Equal(t, 5, cfg.Analysis.WindowMinPeriods)
				assert.Equal(t, 20, cfg.Analysis.ExpandingMinPeriods)
				assert.Equal(t, 14, cfg.Analysis.RSIPeriod)
				assert.Equal(t, 252, cfg.Analysis.TradingDays)
				assert.Equal(t, 0.01, cfg.Analysis.BenchmarkScale)
				assert.Equal(t, 0.03, cfg.Mining.MinSupport)
				assert.Equal(t, "lift", cfg.Mining.Metric)
				assert.Equal(t, 20, cfg.Mining.TopN)
				assert.Equal(t, 2016, cfg.Mining.FromYear)
				assert.Equal(t, 2024, cfg.Mining.ToYear)
				assert.Equal(t, 30, cfg.Charts.HistogramBins)
				assert.Equal(t, "none", cfg.Telemetry.TraceExporter)
			},
		},
		{
			name: "environment overrides",
			env: map[string]string{
				"NAVPULSE_ANALYSIS_HORIZON":   "100",
				"NAVPULSE_MINING_MIN_SUPPORT": "0.05",
				"NAVPULSE_LOGGING_LEVEL":      "debug",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 100, cfg.Analysis.Horizon)
				assert.Equal(t, 0.05, cfg.Mining.MinSupport)
				assert.Equal(t, "debug", cfg.Logging.Level)
			},
		},
		{
			name: "yaml file fills defaults",
			yaml: "analysis:\n  window: 60\n  date_column: DATUM\nmining:\n  top_n: 5\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 60, cfg.Analysis.Window)
				assert.Equal(t, "DATUM", cfg.Analysis.DateColumn)
				assert.Equal(t, 5, cfg.Mining.TopN)
				assert.Equal(t, 200, cfg.Analysis.Horizon)
			},
		},
		{
			name: "environment wins over yaml",
			env:  map[string]string{"NAVPULSE_ANALYSIS_WINDOW": "45"},
			yaml: "analysis:\n  window: 60\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 45, cfg.Analysis.Window)
			},
		},
		{
			name: "yaml turns off ema rsi and picks text logs",
			yaml: "logging:\n  format: text\nanalysis:\n  rsi_ema: false\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.False(t, cfg.Analysis.RSIEMA)
				assert.Equal(t, "text", cfg.Logging.Format)
			},
		},
		{
			name: "yaml without rsi_ema keeps ema",
			yaml: "analysis:\n  rsi_period: 10\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.Analysis.RSIEMA)
				assert.Equal(t, 10, cfg.Analysis.RSIPeriod)
				assert.Equal(t, "json", cfg.Logging.Format)
			},
		},
		{
			name: "environment rsi_ema wins over yaml",
			env:  map[string]string{"NAVPULSE_ANALYSIS_RSI_EMA": "false"},
			yaml: "analysis:\n  rsi_ema: true\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.False(t, cfg.Analysis.RSIEMA)
			},
		},
		{
			name:    "unknown log format",
			yaml:    "logging:\n  format: xml\n",
			wantErr: true,
		},
		{
			name:    "invalid min support",
			env:     map[string]string{"NAVPULSE_MINING_MIN_SUPPORT": "1.5"},
			wantErr: true,
		},
		{
			name:    "invalid cutoff",
			env:     map[string]string{"NAVPULSE_ANALYSIS_CUTOFF": "11/12/2024"},
			wantErr: true,
		},
		{
			name:    "year range reversed",
			env:     map[string]string{"NAVPULSE_MINING_FROM_YEAR": "2020", "NAVPULSE_MINING_TO_YEAR": "2019"},
			wantErr: true,
		},
		{
			name:    "malformed yaml",
			yaml:    "analysis: [",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t, t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if tt.yaml != "" {
				path := filepath.Join(t.TempDir(), "navpulse.yaml")
				require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0644))
				t.Setenv("NAVPULSE_CONFIG", path)
			}

			cfg, err := Load()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.validateCfg != nil {
				tt.validateCfg(t, cfg)
			}
		})
	}
}

func TestLoadFromExplicitFile(t *testing.T) {
	chdir(t, t.TempDir())
	path := filepath.Join(t.TempDir(), "jobs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mining:\n  min_support: 0.1\n"), 0644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, 0.1, cfg.Mining.MinSupport)

	_, err = LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cutoff, err := cfg.Analysis.CutoffTime()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 12, 11, 0, 0, 0, 0, time.UTC), cutoff)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero horizon", func(c *Config) { c.Analysis.Horizon = 0 }},
		{"window of one", func(c *Config) { c.Analysis.Window = 1 }},
		{"unknown metric", func(c *Config) { c.Mining.Metric = "zhangs" }},
		{"unknown trace exporter", func(c *Config) { c.Telemetry.TraceExporter = "otlp" }},
		{"unknown log output", func(c *Config) { c.Logging.Output = "syslog" }},
		{"empty date column", func(c *Config) { c.Analysis.DateColumn = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateReturnsConfigError(t *testing.T) {
	cfg := Default()
	cfg.Mining.MinSupport = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))

	cfg = Default()
	cfg.Analysis.Cutoff = "2024-13-40"
	_, err = cfg.Analysis.CutoffTime()
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
}
