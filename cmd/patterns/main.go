package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"navpulse/internal/app"
	"navpulse/internal/config"
	"navpulse/internal/dataprocessing"
	"navpulse/internal/derived"
	"navpulse/internal/exporter"
	"navpulse/internal/infrastructure"
	"navpulse/internal/mining"
	"navpulse/internal/operations"
	"navpulse/internal/report"
	"navpulse/internal/store"
	"navpulse/internal/validation"
)

type options struct {
	configFile  string
	in          string
	sqlite      string
	table       string
	minSupport  float64
	metric      string
	threshold   float64
	top         int
	from        int
	to          int
	returnCol   string
	discountCol string
	csvOut      string
	xlsxOut     string
	set         map[string]bool
}

func parseFlags(args []string) (*options, error) {
	opts := &options{set: make(map[string]bool)}
	fs := flag.NewFlagSet("patterns", flag.ContinueOnError)
	fs.StringVar(&opts.configFile, "config", "", "YAML config file (defaults to navpulse.yaml lookup)")
	fs.StringVar(&opts.in, "in", "Industrivarden_vanlig2_preprocess.csv", "preprocessed fund table")
	fs.StringVar(&opts.sqlite, "sqlite", "", "read the fund table from this SQLite file instead of -in")
	fs.StringVar(&opts.table, "table", "", "SQLite table (defaults to the table name derived from -in)")
	fs.Float64Var(&opts.minSupport, "min-support", config.DefaultMinSupport, "minimum itemset support")
	fs.StringVar(&opts.metric, "metric", "lift", "rule filter metric: lift, confidence, support or leverage")
	fs.Float64Var(&opts.threshold, "threshold", config.DefaultMinLift, "minimum value of -metric")
	fs.IntVar(&opts.top, "top", config.DefaultTopN, "rules printed")
	fs.IntVar(&opts.from, "from", config.DefaultFromYear, "first year mined")
	fs.IntVar(&opts.to, "to", config.DefaultToYear, "last year mined")
	fs.StringVar(&opts.returnCol, "return-col", derived.ColReturnMinusBenchmark, "return column binned into tertiles")
	fs.StringVar(&opts.discountCol, "discount-col", derived.ColDiscountPremiumAdj, "discount column binned into tertiles")
	fs.StringVar(&opts.csvOut, "csv", "", "write the cross rules to this csv")
	fs.StringVar(&opts.xlsxOut, "xlsx", "", "write the cross rules and lookup to this workbook")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })
	return opts, nil
}

// apply copies explicitly set flags over the mining configuration
func (o *options) apply(cfg *config.Config) error {
	m := &cfg.Mining
	if o.set["min-support"] {
		m.MinSupport = o.minSupport
	}
	if o.set["metric"] {
		m.Metric = o.metric
	}
	if o.set["threshold"] {
		m.MinThreshold = o.threshold
	}
	if o.set["top"] {
		m.TopN = o.top
	}
	if o.set["from"] {
		m.FromYear = o.from
	}
	if o.set["to"] {
		m.ToYear = o.to
	}
	if o.set["return-col"] {
		m.ReturnColumn = o.returnCol
	}
	if o.set["discount-col"] {
		m.DiscountColumn = o.discountCol
	}
	return cfg.Validate()
}

func main() {
	if err := run(context.Background(), os.Args[1:], app.Options{}, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "patterns: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, jobOpts app.Options, stdout io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	if opts.configFile != "" {
		jobOpts.ConfigFile = opts.configFile
	}

	job, err := app.NewJob("patterns", jobOpts)
	if err != nil {
		return err
	}
	defer job.Close()

	if err := opts.apply(job.Config); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	ctx, stop := job.Context(ctx)
	defer stop()

	mcfg := job.Config.Mining
	minerOpts, err := mining.OptionsFromConfig(mcfg)
	if err != nil {
		return err
	}

	logger := job.Logger
	metrics := job.Metrics()
	writer := exporter.NewCSVWriter(job.Paths, logger)
	in := job.InputPath(opts.in)

	logger.Info("Starting pattern mining",
		slog.String("input", in),
		slog.String("sqlite", opts.sqlite),
		slog.Int("from_year", mcfg.FromYear),
		slog.Int("to_year", mcfg.ToYear),
		slog.Float64("min_support", mcfg.MinSupport),
		slog.String("metric", mcfg.Metric))

	var (
		frame *derived.Frame
		res   *mining.Result
	)
	steps := []operations.Step{
		operations.NewStep("load", "Load fund table", func(ctx context.Context, _ *operations.State) error {
			var err error
			if opts.sqlite != "" {
				frame, err = loadFromStore(ctx, job, opts, in)
			} else if err = validation.NewFileValidator(logger).ValidateCSVFile(in); err == nil {
				frame, err = loadFromCSV(in, logger)
			}
			if err != nil {
				return err
			}
			metrics.Add(ctx, infrastructure.CounterRowsLoaded, frame.Len(), attribute.String("file", filepath.Base(in)))
			frame = frame.FilterYears(mcfg.FromYear, mcfg.ToYear)
			return frame.Require(mcfg.ReturnColumn, mcfg.DiscountColumn)
		}),
		operations.NewStep("mine", "Mine association rules", func(ctx context.Context, _ *operations.State) error {
			returns, _ := frame.Column(mcfg.ReturnColumn)
			discounts, _ := frame.Column(mcfg.DiscountColumn)
			r, err := mining.NewMiner(minerOpts, logger).Run(ctx, returns, discounts)
			if err != nil {
				return err
			}
			res = r
			metrics.Add(ctx, infrastructure.CounterRulesMined, len(r.Rules))
			infrastructure.SetSpanAttributes(ctx,
				attribute.Int("mining.transactions", r.Transactions),
				attribute.Int("mining.itemsets", len(r.Itemsets)),
				attribute.Int("mining.rules", len(r.Rules)))
			return nil
		}),
		operations.NewStep("report", "Report rules", func(ctx context.Context, _ *operations.State) error {
			if err := report.WriteSummary(stdout, res); err != nil {
				return err
			}
			if opts.csvOut != "" {
				if err := writer.WriteRules(opts.csvOut, res.Rules); err != nil {
					return err
				}
				metrics.Add(ctx, infrastructure.CounterFilesWritten, 1)
			}
			if opts.xlsxOut != "" {
				path := opts.xlsxOut
				if !filepath.IsAbs(path) {
					path = filepath.Join(job.Paths.DataDir, path)
				}
				if err := report.WriteWorkbook(path, res); err != nil {
					return err
				}
				metrics.Add(ctx, infrastructure.CounterFilesWritten, 1)
				logger.Info("Rule workbook written", slog.String("path", path))
			}
			return nil
		}),
	}

	if _, err := job.Run(ctx, steps...); err != nil {
		step, _ := operations.FailedStep(err)
		infrastructure.WithError(logger, err).Error("Pattern mining failed", slog.String("step", step))
		return err
	}
	return nil
}

// loadFromCSV reads a preprocessed table; every column but DATE is numeric
func loadFromCSV(path string, logger *slog.Logger) (*derived.Frame, error) {
	t, err := dataprocessing.ReadCSV(path, dataprocessing.ReadOptions{})
	if err != nil {
		return nil, err
	}
	if err := t.Require(dataprocessing.ColDate); err != nil {
		return nil, err
	}
	cols := slices.DeleteFunc(slices.Clone(t.Header), func(c string) bool { return c == dataprocessing.ColDate })
	if _, err := t.NormalizeNumeric(logger, cols...); err != nil {
		return nil, err
	}
	return derived.FrameFromTable(t, dataprocessing.ColDate)
}

// loadFromStore reads the table written by preprocess -sqlite
func loadFromStore(ctx context.Context, job *app.Job, opts *options, in string) (*derived.Frame, error) {
	db := opts.sqlite
	if !filepath.IsAbs(db) {
		db = filepath.Join(job.Paths.DataDir, db)
	}
	table := opts.table
	if table == "" {
		table = store.TableName(strings.TrimSuffix(filepath.Base(in), filepath.Ext(in)))
	}

	st, err := store.Open(db, job.Logger)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return st.LoadFrame(ctx, table)
}
