package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"navpulse/internal/app"
	"navpulse/internal/charts"
	"navpulse/internal/config"
	"navpulse/internal/dataprocessing"
	"navpulse/internal/derived"
	"navpulse/internal/files"
	"navpulse/internal/infrastructure"
	"navpulse/internal/operations"
	"navpulse/internal/report"
	"navpulse/internal/validation"
)

// Rendering modes
const (
	ModeExplore      = "explore"
	ModePresentation = "presentation"
)

type options struct {
	configFile string
	mode       string
	stock      string
	all        bool
	figs       string
	dpi        int
	workers    int
	discover   bool
	files      []string
}

func parseFlags(args []string) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("plots", flag.ContinueOnError)
	fs.StringVar(&opts.configFile, "config", "", "YAML config file (defaults to navpulse.yaml lookup)")
	fs.StringVar(&opts.mode, "mode", ModeExplore, "explore (raw exports) or presentation (preprocessed files)")
	fs.StringVar(&opts.stock, "stock", "", "fund name used in titles and file names (defaults to the file name)")
	fs.BoolVar(&opts.all, "all", true, "also render the return box plot and the time series")
	fs.StringVar(&opts.figs, "figs", "", "chart directory (overrides paths.figures_dir)")
	fs.IntVar(&opts.dpi, "dpi", config.DefaultDPI, "chart resolution")
	fs.IntVar(&opts.workers, "workers", runtime.NumCPU(), "files rendered concurrently")
	fs.BoolVar(&opts.discover, "discover", false, "render every matching file in the data dir when no FILE is given")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	switch opts.mode {
	case ModeExplore, ModePresentation:
	default:
		return nil, fmt.Errorf("unknown mode %q", opts.mode)
	}
	if opts.dpi <= 0 {
		return nil, errors.New("dpi must be positive")
	}

	opts.files = fs.Args()
	if len(opts.files) == 0 && !opts.discover {
		opts.files = slices.Clone(config.DefaultFundFiles)
		if opts.mode == ModePresentation {
			for i, f := range opts.files {
				opts.files[i] = config.DerivedPath(f, config.PreprocessSuffix)
			}
		}
	}
	if opts.stock != "" && len(opts.files) > 1 {
		return nil, errors.New("-stock needs exactly one file")
	}
	if opts.workers < 1 {
		opts.workers = 1
	}
	return opts, nil
}

// stockName derives a fund name from its file: data/Latour_preprocess.csv -> Latour
func stockName(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return strings.TrimSuffix(base, config.PreprocessSuffix)
}

func main() {
	if err := run(context.Background(), os.Args[1:], app.Options{}, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "plots: %v\n", err)
		os.Exit(1)
	}
}

// fund is one input file and what was drawn from it
type fund struct {
	path  string
	stock string
	frame *derived.Frame
	files []string
}

func run(ctx context.Context, args []string, jobOpts app.Options, stdout io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	if opts.configFile != "" {
		jobOpts.ConfigFile = opts.configFile
	}

	job, err := app.NewJob("plots", jobOpts)
	if err != nil {
		return err
	}
	defer job.Close()

	if opts.figs != "" {
		if err := job.SetFiguresDir(opts.figs); err != nil {
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
	params := derived.ParamsFromConfig(analysis)
	calc, err := derived.NewCalculator(params, job.Logger)
	if err != nil {
		return err
	}

	chartOpts := charts.OptionsFromConfig(job.Config.Charts)
	chartOpts.DPI = opts.dpi
	chartOpts.All = opts.all
	chartOpts.BenchmarkScale = analysis.BenchmarkScale

	p := &plotter{
		calc:     calc,
		renderer: charts.NewRenderer(job.Paths.FiguresDir, chartOpts, job.Logger, job.Metrics()),
		metrics:  job.Metrics(),
		logger:   job.Logger,
		dateCol:  analysis.DateColumn,
		cutoff:   cutoff,
	}

	inputs, err := inputFiles(job, opts)
	if err != nil {
		return err
	}
	if opts.stock != "" && len(inputs) > 1 {
		return errors.New("-stock needs exactly one file")
	}
	funds := make([]*fund, len(inputs))
	for i, path := range inputs {
		stock := opts.stock
		if stock == "" {
			stock = stockName(path)
		}
		funds[i] = &fund{path: path, stock: stock}
	}

	job.Logger.Info("Starting chart rendering",
		slog.String("mode", opts.mode),
		slog.Int("files", len(funds)),
		slog.Bool("all", opts.all),
		slog.String("figures_dir", job.Paths.FiguresDir))

	render := p.explore
	if opts.mode == ModePresentation {
		render = p.presentation
	}
	validator := validation.NewFileValidator(job.Logger)
	steps := []operations.Step{
		operations.NewStep("validate", "Validate inputs", func(context.Context, *operations.State) error {
			if err := validator.ValidateOutputDirectory(job.Paths.FiguresDir); err != nil {
				return err
			}
			return validator.ValidateCSVFiles(inputs)
		}),
		operations.NewStep("render", "Render charts", func(ctx context.Context, _ *operations.State) error {
			return p.all(ctx, funds, opts.workers, render)
		}),
	}
	if opts.mode == ModePresentation {
		steps = append(steps, operations.NewStep("correlate", "Print correlations", func(ctx context.Context, _ *operations.State) error {
			for _, f := range funds {
				if err := report.WriteCorrelationSummary(stdout, f.stock, f.frame); err != nil {
					return fmt.Errorf("%s: %w", f.stock, err)
				}
			}
			return nil
		}))
	}

	if _, err := job.Run(ctx, steps...); err != nil {
		step, _ := operations.FailedStep(err)
		infrastructure.WithError(job.Logger, err).Error("Chart rendering failed", slog.String("step", step))
		return err
	}
	return nil
}

// inputFiles resolves the named files, or discovers the raw exports (explore)
// or the preprocessed files (presentation) in the data dir.
func inputFiles(job *app.Job, opts *options) ([]string, error) {
	if len(opts.files) > 0 {
		out := make([]string, len(opts.files))
		for i, f := range opts.files {
			out[i] = job.InputPath(f)
		}
		return out, nil
	}

	d := files.NewDiscovery(job.Paths.DataDir)
	d.Skip = []string{config.DefaultIndexCSV}
	find := d.FindFundExports
	if opts.mode == ModePresentation {
		find = d.FindPreprocessed
	}
	found, err := find(".")
	if err != nil {
		return nil, err
	}
	job.Logger.Info("Inputs discovered", slog.String("mode", opts.mode), slog.Int("files", len(found)))
	return files.Paths(found), nil
}

type plotter struct {
	calc     *derived.Calculator
	renderer *charts.Renderer
	metrics  *infrastructure.PipelineMetrics
	logger   *slog.Logger
	dateCol  string
	cutoff   time.Time
}

// all renders every fund concurrently; the first failure cancels the rest
func (p *plotter) all(ctx context.Context, funds []*fund, workers int, render func(context.Context, *fund) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, f := range funds {
		g.Go(func() error {
			if err := render(gctx, f); err != nil {
				return fmt.Errorf("%s: %w", filepath.Base(f.path), err)
			}
			return nil
		})
	}
	return g.Wait()
}

// explore reads a raw fund export, keeps the rows before the cutoff and
// derives every metric on what is left before drawing the chart set.
func (p *plotter) explore(ctx context.Context, f *fund) error {
	t, err := dataprocessing.ReadCSV(f.path, dataprocessing.ReadOptions{Exclude: dataprocessing.ExportDerivedColumns})
	if err != nil {
		return err
	}
	attr := attribute.String("file", filepath.Base(f.path))
	p.metrics.Add(ctx, infrastructure.CounterRowsLoaded, t.Rows(), attr)

	if err := t.Require(append([]string{p.dateCol}, dataprocessing.RequiredColumns...)...); err != nil {
		return err
	}
	stats, err := t.NormalizeOptional(p.logger, dataprocessing.ExploreNumeric...)
	if err != nil {
		return err
	}
	p.metrics.Add(ctx, infrastructure.CounterCellsMissing, stats.Total(), attr)

	bad, err := t.ParseDates(p.dateCol)
	if err != nil {
		return err
	}
	if bad > 0 {
		infrastructure.WithFile(p.logger, f.path).Warn("Rows with unparseable dates are excluded by the cutoff",
			slog.String("column", p.dateCol),
			slog.Int("rows", bad))
	}
	t = t.FilterBefore(p.cutoff)

	frame, err := p.calc.Derive(ctx, t, p.dateCol)
	if err != nil {
		return err
	}
	f.frame = frame

	paths, err := p.renderer.RenderExplore(ctx, f.stock, frame)
	if err != nil {
		return err
	}
	f.files = paths
	infrastructure.WithFile(p.logger, f.path).Info("Fund charts written",
		slog.String("stock", f.stock),
		slog.Int("rows", frame.Len()),
		slog.Int("charts", len(paths)))
	return nil
}

// presentation reads a preprocessed file and draws the year-coloured scatter
func (p *plotter) presentation(ctx context.Context, f *fund) error {
	t, err := dataprocessing.ReadCSV(f.path, dataprocessing.ReadOptions{})
	if err != nil {
		return err
	}
	p.metrics.Add(ctx, infrastructure.CounterRowsLoaded, t.Rows(), attribute.String("file", filepath.Base(f.path)))

	if err := t.Require(dataprocessing.ColDate); err != nil {
		return err
	}
	cols := slices.DeleteFunc(slices.Clone(t.Header), func(c string) bool { return c == dataprocessing.ColDate })
	if _, err := t.NormalizeNumeric(p.logger, cols...); err != nil {
		return err
	}
	frame, err := derived.FrameFromTable(t, dataprocessing.ColDate)
	if err != nil {
		return err
	}
	f.frame = frame

	path, err := p.renderer.RenderPresentation(ctx, f.stock, frame)
	if err != nil {
		return err
	}
	f.files = []string{path}
	infrastructure.WithFile(p.logger, f.path).Info("Fund charts written",
		slog.String("stock", f.stock),
		slog.Int("rows", frame.Len()),
		slog.Int("charts", 1))
	return nil
}
