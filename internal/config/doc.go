// Package config provides configuration management for the navpulse tools.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Command-line flags (applied by each binary after Load)
//	2. Environment variables prefixed NAVPULSE_
//	3. A YAML file: $NAVPULSE_CONFIG, navpulse.yaml or configs/navpulse.yaml
//	4. Default values
//
// # Environment Variables
//
//	NAVPULSE_LOGGING_LEVEL=debug
//	NAVPULSE_ANALYSIS_HORIZON=200
//	NAVPULSE_ANALYSIS_CUTOFF=2024-12-11
//	NAVPULSE_MINING_MIN_SUPPORT=0.03
//	NAVPULSE_TELEMETRY_TRACE_EXPORTER=stdout
//
// # Path Management
//
// Paths resolves the data, figures and logs directories against a base
// directory (the working directory by default):
//
//	paths, err := config.GetPaths("", cfg.Paths)
//	input := paths.DataFile("Investor.csv")
//	output := config.DerivedPath(input, config.PreprocessSuffix)
package config
