package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"navpulse/internal/app"
	"navpulse/internal/benchmark"
	"navpulse/internal/config"
	"navpulse/internal/dataprocessing"
	apperrors "navpulse/internal/errors"
	"navpulse/internal/exporter"
	"navpulse/internal/files"
	"navpulse/internal/infrastructure"
	"navpulse/internal/operations"
	"navpulse/internal/validation"
)

// stringList collects a repeated flag
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

type options struct {
	configFile  string
	xlsx        string
	sheet       string
	out         string
	companies   stringList
	companyDate string
	latest      bool
}

func parseFlags(args []string) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("indexcsv", flag.ContinueOnError)
	fs.StringVar(&opts.configFile, "config", "", "YAML config file (defaults to navpulse.yaml lookup)")
	fs.StringVar(&opts.xlsx, "xlsx", config.DefaultIndexWorkbook, "index workbook exported from the exchange")
	fs.StringVar(&opts.sheet, "sheet", "", "sheet to read (defaults to the first sheet with an index header)")
	fs.StringVar(&opts.out, "out", config.DefaultIndexCSV, "index csv output (relative paths resolve under the data dir)")
	fs.Var(&opts.companies, "company", "company csv to join with the index; repeatable")
	fs.StringVar(&opts.companyDate, "company-date", dataprocessing.ColTradeDate, "date column of the company files")
	fs.BoolVar(&opts.latest, "latest", false, "read the most recently modified workbook in the data dir instead of -xlsx")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return opts, nil
}

func main() {
	if err := run(context.Background(), os.Args[1:], app.Options{}); err != nil {
		fmt.Fprintf(os.Stderr, "indexcsv: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, jobOpts app.Options) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	if opts.configFile != "" {
		jobOpts.ConfigFile = opts.configFile
	}

	job, err := app.NewJob("indexcsv", jobOpts)
	if err != nil {
		return err
	}
	defer job.Close()

	ctx, stop := job.Context(ctx)
	defer stop()

	logger := job.Logger
	writer := exporter.NewCSVWriter(job.Paths, logger)
	metrics := job.Metrics()
	xlsx := job.InputPath(opts.xlsx)
	if opts.latest {
		if xlsx, err = latestWorkbook(job.Paths.DataDir); err != nil {
			return err
		}
	}

	logger.Info("Starting index extraction",
		slog.String("xlsx", xlsx),
		slog.String("sheet", opts.sheet),
		slog.String("output_file", opts.out),
		slog.Int("companies", len(opts.companies)))

	var points []benchmark.IndexPoint
	steps := []operations.Step{
		operations.NewStep("read_index", "Read index workbook", func(ctx context.Context, _ *operations.State) error {
			if err := validation.NewFileValidator(logger).ValidateExcelFile(xlsx); err != nil {
				return err
			}
			p, err := benchmark.ReadIndexWorkbook(xlsx, opts.sheet, logger)
			if err != nil {
				return err
			}
			benchmark.DailyReturns(p)
			points = p
			metrics.Add(ctx, infrastructure.CounterRowsLoaded, len(p), attribute.String("file", filepath.Base(xlsx)))
			return nil
		}),
		operations.NewStep("write_index", "Write index csv", func(ctx context.Context, _ *operations.State) error {
			if err := writer.WriteSimpleCSV(opts.out, benchmark.IndexCSVHeader, benchmark.Records(points)); err != nil {
				return err
			}
			metrics.Add(ctx, infrastructure.CounterFilesWritten, 1)
			logger.Info("Index csv written", slog.String("path", opts.out), slog.Int("rows", len(points)))
			return nil
		}),
	}

	for _, company := range opts.companies {
		path := job.InputPath(company)
		steps = append(steps, operations.NewStep("join:"+filepath.Base(path), "Join company with index",
			func(ctx context.Context, _ *operations.State) error {
				return joinCompany(ctx, writer, metrics, logger, path, opts.companyDate, points)
			}))
	}

	if _, err := job.Run(ctx, steps...); err != nil {
		step, _ := operations.FailedStep(err)
		infrastructure.WithError(logger, err).Error("Index extraction failed", slog.String("step", step))
		return err
	}
	return nil
}

// latestWorkbook picks the newest index workbook in dir
func latestWorkbook(dir string) (string, error) {
	found, err := files.NewDiscovery(dir).FindWorkbooks(".")
	if err != nil {
		return "", err
	}
	latest, ok := files.GetLatestFile(found)
	if !ok {
		return "", apperrors.NewNotFoundError("index workbook in " + dir)
	}
	return latest.Path, nil
}

// joinCompany writes "<base>_test<ext>" holding the company rows traded on index days
func joinCompany(ctx context.Context, writer *exporter.CSVWriter, metrics *infrastructure.PipelineMetrics,
	logger *slog.Logger, path, dateCol string, points []benchmark.IndexPoint) error {
	t, err := dataprocessing.ReadCSV(path, dataprocessing.ReadOptions{})
	if err != nil {
		return err
	}
	metrics.Add(ctx, infrastructure.CounterRowsLoaded, t.Rows(), attribute.String("file", filepath.Base(path)))

	joined, err := benchmark.JoinCompany(t, points, dateCol)
	if err != nil {
		return err
	}

	out := config.DerivedPath(path, config.JoinedSuffix)
	if err := writer.WriteTable(out, joined); err != nil {
		return err
	}
	metrics.Add(ctx, infrastructure.CounterFilesWritten, 1)

	logger.Info("Company joined with index",
		slog.String("company", path),
		slog.String("output", out),
		slog.Int("rows_in", t.Rows()),
		slog.Int("rows_out", joined.Rows()))
	return nil
}
