package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"navpulse/internal/app"
	"navpulse/internal/config"
	"navpulse/internal/dataprocessing"
	"navpulse/internal/derived"
	"navpulse/internal/exporter"
	"navpulse/internal/files"
	"navpulse/internal/infrastructure"
	"navpulse/internal/operations"
	"navpulse/internal/store"
	"navpulse/internal/validation"
)

type options struct {
	configFile string
	dataDir    string
	dateCol    string
	cutoff     string
	horizon    int
	window     int
	riskFree   float64
	sqlite     string
	metrics    string
	workers    int
	discover   bool
	files      []string
	set        map[string]bool
}

func parseFlags(args []string) (*options, error) {
	opts := &options{set: make(map[string]bool)}
	fs := flag.NewFlagSet("preprocess", flag.ContinueOnError)
	fs.StringVar(&opts.configFile, "config", "", "YAML config file (defaults to navpulse.yaml lookup)")
	fs.StringVar(&opts.dataDir, "data", "", "directory holding the fund exports (overrides paths.data_dir)")
	fs.StringVar(&opts.dateCol, "date-col", config.DefaultDateColumn, "date column of the fund exports")
	fs.StringVar(&opts.cutoff, "cutoff", config.DefaultCutoff, "keep rows dated strictly before this day (YYYY-MM-DD)")
	fs.IntVar(&opts.horizon, "horizon", config.DefaultHorizon, "forward return horizon in rows")
	fs.IntVar(&opts.window, "window", config.DefaultWindow, "rolling volatility and Sharpe window in rows")
	fs.Float64Var(&opts.riskFree, "rf", 0, "annual risk-free rate")
	fs.StringVar(&opts.sqlite, "sqlite", "", "also store the derived tables in this SQLite file")
	fs.StringVar(&opts.metrics, "metrics", "", "write prometheus metrics to this textfile on exit")
	fs.IntVar(&opts.workers, "workers", runtime.NumCPU(), "files processed concurrently")
	fs.BoolVar(&opts.discover, "discover", false, "process every fund export in the data dir when no FILE is given")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })

	opts.files = fs.Args()
	if len(opts.files) == 0 && !opts.discover {
		opts.files = config.DefaultFundFiles
	}
	if opts.workers < 1 {
		opts.workers = 1
	}
	return opts, nil
}

// apply copies explicitly set flags over the loaded configuration
func (o *options) apply(cfg *config.Config) error {
	if o.set["date-col"] {
		cfg.Analysis.DateColumn = o.dateCol
	}
	if o.set["cutoff"] {
		cfg.Analysis.Cutoff = o.cutoff
	}
	if o.set["horizon"] {
		cfg.Analysis.Horizon = o.horizon
	}
	if o.set["window"] {
		cfg.Analysis.Window = o.window
	}
	if o.set["rf"] {
		cfg.Analysis.AnnualRiskFree = o.riskFree
	}
	if o.set["metrics"] {
		cfg.Telemetry.MetricsTextfile = o.metrics
	}
	return cfg.Validate()
}

func main() {
	if err := run(context.Background(), os.Args[1:], app.Options{}); err != nil {
		fmt.Fprintf(os.Stderr, "preprocess: %v\n", err)
		os.Exit(1)
	}
}

// result is one preprocessed fund
type result struct {
	source string
	output string
	frame  *derived.Frame
}

func run(ctx context.Context, args []string, jobOpts app.Options) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	if opts.configFile != "" {
		jobOpts.ConfigFile = opts.configFile
	}

	job, err := app.NewJob("preprocess", jobOpts)
	if err != nil {
		return err
	}
	defer job.Close()

	if err := opts.apply(job.Config); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	if opts.dataDir != "" {
		if err := job.SetDataDir(opts.dataDir); err != nil {
			return err
		}
	}

	ctx, stop := job.Context(ctx)
	defer stop()

	analysis := job.Config.Analysis
	cutoff, err := analysis.CutoffTime()
	if err != nil {
		return err
	}
	calc, err := derived.NewCalculator(derived.ParamsFromConfig(analysis), job.Logger)
	if err != nil {
		return err
	}

	p := &preprocessor{
		calc:    calc,
		writer:  exporter.NewCSVWriter(job.Paths, job.Logger),
		metrics: job.Metrics(),
		logger:  job.Logger,
		dateCol: analysis.DateColumn,
		cutoff:  cutoff,
	}

	inputs, err := inputFiles(job, opts.files)
	if err != nil {
		return err
	}

	job.Logger.Info("Starting preprocessing",
		slog.Any("files", inputs),
		slog.String("date_column", analysis.DateColumn),
		slog.String("cutoff", analysis.Cutoff),
		slog.Int("horizon", analysis.Horizon),
		slog.Int("workers", opts.workers))

	var results []*result
	validator := validation.NewFileValidator(job.Logger)
	steps := []operations.Step{
		operations.NewStep("validate", "Validate inputs", func(context.Context, *operations.State) error {
			return validator.ValidateCSVFiles(inputs)
		}),
		operations.NewStep("derive", "Derive fund metrics", func(ctx context.Context, _ *operations.State) error {
			r, err := p.all(ctx, inputs, opts.workers)
			results = r
			return err
		}),
	}
	if opts.sqlite != "" {
		dbPath := opts.sqlite
		if !filepath.IsAbs(dbPath) {
			dbPath = filepath.Join(job.Paths.DataDir, dbPath)
		}
		steps = append(steps, operations.NewStep("store", "Store derived tables", func(ctx context.Context, _ *operations.State) error {
			return storeResults(ctx, dbPath, job.RunID, results, job.Logger)
		}))
	}

	if _, err := job.Run(ctx, steps...); err != nil {
		step, _ := operations.FailedStep(err)
		infrastructure.WithError(job.Logger, err).Error("Preprocessing failed", slog.String("step", step))
		return err
	}
	return nil
}

// inputFiles resolves the named files, or discovers the fund exports in
// the data dir when none are named.
func inputFiles(job *app.Job, names []string) ([]string, error) {
	if len(names) == 0 {
		d := files.NewDiscovery(job.Paths.DataDir)
		d.Skip = []string{config.DefaultIndexCSV}
		found, err := d.FindFundExports(".")
		if err != nil {
			return nil, err
		}
		job.Logger.Info("Fund exports discovered", slog.Int("files", len(found)))
		return files.Paths(found), nil
	}
	out := make([]string, len(names))
	for i, f := range names {
		out[i] = job.InputPath(f)
	}
	return out, nil
}

type preprocessor struct {
	calc    *derived.Calculator
	writer  *exporter.CSVWriter
	metrics *infrastructure.PipelineMetrics
	logger  *slog.Logger
	dateCol string
	cutoff  time.Time
}

// all preprocesses files concurrently; the first failure cancels the rest
func (p *preprocessor) all(ctx context.Context, paths []string, workers int) ([]*result, error) {
	results := make([]*result, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			r, err := p.file(gctx, path)
			if err != nil {
				return fmt.Errorf("%s: %w", filepath.Base(path), err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// file normalizes one fund export, derives the return metrics on the full
// history, applies the cutoff and derives the risk metrics on what is left.
func (p *preprocessor) file(ctx context.Context, path string) (*result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger := infrastructure.WithFile(p.logger, path)
	attr := attribute.String("file", filepath.Base(path))

	t, err := dataprocessing.ReadCSV(path, dataprocessing.ReadOptions{Exclude: dataprocessing.PreprocessExcluded})
	if err != nil {
		return nil, err
	}
	p.metrics.Add(ctx, infrastructure.CounterRowsLoaded, t.Rows(), attr)

	// Index Value is optional; the rest must be present before normalizing
	if err := t.Require(append([]string{p.dateCol}, dataprocessing.RequiredColumns...)...); err != nil {
		return nil, err
	}
	stats, err := t.NormalizeOptional(logger, dataprocessing.PreprocessNumeric...)
	if err != nil {
		return nil, err
	}
	p.metrics.Add(ctx, infrastructure.CounterCellsMissing, stats.Total(), attr)

	bad, err := t.ParseDates(p.dateCol)
	if err != nil {
		return nil, err
	}
	if bad > 0 {
		logger.Warn("Rows with unparseable dates are excluded by the cutoff",
			slog.String("column", p.dateCol),
			slog.Int("rows", bad))
	}

	f, err := p.calc.DeriveReturns(ctx, t, p.dateCol)
	if err != nil {
		return nil, err
	}
	f = f.FilterBefore(p.cutoff)
	if err := p.calc.DeriveRisk(ctx, f); err != nil {
		return nil, err
	}

	out := config.DerivedPath(path, config.PreprocessSuffix)
	if err := p.writer.WriteFrame(out, f); err != nil {
		return nil, err
	}
	p.metrics.Add(ctx, infrastructure.CounterFilesWritten, 1, attr)

	logger.Info("Fund preprocessed",
		slog.Int("rows_in", t.Rows()),
		slog.Int("rows_out", f.Len()),
		slog.Int("missing_cells", stats.Total()),
		slog.String("output", out))

	return &result{source: path, output: out, frame: f}, nil
}

// storeResults saves every frame in one SQLite file and records the run
func storeResults(ctx context.Context, dbPath, runID string, results []*result, logger *slog.Logger) error {
	st, err := store.Open(dbPath, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	for _, r := range results {
		base := strings.TrimSuffix(filepath.Base(r.output), filepath.Ext(r.output))
		table := store.TableName(base)
		if err := st.SaveFrame(ctx, table, r.frame); err != nil {
			return err
		}
		if err := st.RecordRun(ctx, store.Run{
			ID:     runID,
			Job:    "preprocess",
			Source: r.source,
			Table:  table,
			Rows:   r.frame.Len(),
		}); err != nil {
			return err
		}
	}
	return nil
}
