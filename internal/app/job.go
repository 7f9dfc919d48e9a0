package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"navpulse/internal/config"
	"navpulse/internal/infrastructure"
	"navpulse/internal/operations"
)

// ShutdownTimeout bounds the telemetry flush on Close
const ShutdownTimeout = 5 * time.Second

// Options controls job construction
type Options struct {
	// ConfigFile is an explicit YAML file; empty uses the standard lookup
	ConfigFile string
	// BaseDir resolves relative paths; empty means the working directory
	BaseDir string
	// Logger replaces the global JSON logger, mainly for tests
	Logger *slog.Logger
}

// Job is the container one batch binary runs in: configuration, resolved
// paths, the logger, telemetry and a step runner, all tagged with one run ID.
type Job struct {
	Name   string
	RunID  string
	Config *config.Config
	Paths  *config.Paths
	Logger *slog.Logger
	OTel   *infrastructure.OTelProviders
	Runner *operations.Runner
}

// NewJob loads configuration and wires the ambient stack for a job
func NewJob(name string, opts Options) (*Job, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.ConfigFile != "" {
		cfg, err = config.LoadFrom(opts.ConfigFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	paths, err := config.GetPaths(opts.BaseDir, cfg.Paths)
	if err != nil {
		return nil, fmt.Errorf("failed to get paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logging := cfg.Logging
		logging.FilePath = logFilePath(paths, logging.FilePath)
		logger, err = infrastructure.InitializeLogger(logging)
		if err != nil {
			slog.Warn("Failed to initialize logger, using default", "error", err)
			logger = slog.Default()
		}
	}

	runID := infrastructure.GenerateRunID()
	logger = logger.With(slog.String("job", name), slog.String("run_id", runID))

	providers, err := infrastructure.InitializeOTel(infrastructure.NewOTelConfig(name, cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	logger.Info("Job starting",
		slog.String("version", config.AppVersion),
		slog.String("trace_exporter", cfg.Telemetry.TraceExporter))
	paths.LogPathResolution(logger)

	return &Job{
		Name:   name,
		RunID:  runID,
		Config: cfg,
		Paths:  paths,
		Logger: logger,
		OTel:   providers,
		Runner: operations.NewRunner(providers, logger),
	}, nil
}

// Context returns a context carrying the run ID that is cancelled on
// SIGINT or SIGTERM.
func (j *Job) Context(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	return infrastructure.WithRunID(ctx, j.RunID), stop
}

// SetDataDir overrides the configured data directory; relative paths
// resolve against the base directory.
func (j *Job) SetDataDir(dir string) error {
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(j.Paths.BaseDir, dir)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	j.Paths.DataDir = dir
	return nil
}

// SetFiguresDir overrides the configured figures directory
func (j *Job) SetFiguresDir(dir string) error {
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(j.Paths.BaseDir, dir)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create figures directory %s: %w", dir, err)
	}
	j.Paths.FiguresDir = dir
	return nil
}

// InputPath resolves an input file name to an absolute path, trying the
// working directory before the data directory.
func (j *Job) InputPath(name string) string {
	p := j.Paths.DataFile(name)
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// Metrics returns the pipeline instruments
func (j *Job) Metrics() *infrastructure.PipelineMetrics {
	if j.OTel == nil {
		return nil
	}
	return j.OTel.Metrics
}

// Run executes steps on a fresh state keyed by the run ID
func (j *Job) Run(ctx context.Context, steps ...operations.Step) (*operations.State, error) {
	state := operations.NewState(j.RunID)
	err := j.Runner.Run(ctx, state, steps...)
	return state, err
}

// Close writes the metrics textfile when configured and flushes telemetry
func (j *Job) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	var errs []error
	if j.OTel != nil {
		if path := j.Config.Telemetry.MetricsTextfile; path != "" {
			if err := j.OTel.WriteMetricsTextfile(path); err != nil {
				errs = append(errs, err)
			} else {
				j.Logger.Info("Metrics textfile written", slog.String("path", path))
			}
		}
		if err := j.OTel.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	j.Logger.Info("Job finished")
	if err := infrastructure.CloseLogFile(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// logFilePath places a bare file name in the logs dir and resolves other
// relative paths against the base dir
func logFilePath(paths *config.Paths, name string) string {
	switch {
	case filepath.IsAbs(name):
		return name
	case filepath.Base(name) == name:
		return paths.GetLogPath(name)
	default:
		return filepath.Join(paths.BaseDir, name)
	}
}
