package charts

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"navpulse/internal/config"
	"navpulse/internal/dataprocessing"
	"navpulse/internal/derived"
	apperrors "navpulse/internal/errors"
	"navpulse/internal/infrastructure"
	"navpulse/internal/series"
)

// Options controls chart size and selection
type Options struct {
	WidthInches   float64
	HeightInches  float64
	DPI           int
	HistogramBins int
	// BenchmarkScale converts the benchmark return column to a fraction
	BenchmarkScale float64
	// All adds the return box plot and the time-series charts
	All bool
}

// DefaultOptions returns 8x6 inch charts at 300 dpi with every chart enabled
func DefaultOptions() Options {
	return Options{
		WidthInches:    8,
		HeightInches:   6,
		DPI:            config.DefaultDPI,
		HistogramBins:  config.DefaultHistogramBins,
		BenchmarkScale: config.DefaultBenchmarkScale,
		All:            true,
	}
}

// OptionsFromConfig maps the charts section of the configuration
func OptionsFromConfig(cfg config.ChartsConfig) Options {
	opts := DefaultOptions()
	opts.WidthInches = cfg.WidthInches
	opts.HeightInches = cfg.HeightInches
	opts.HistogramBins = cfg.HistogramBins
	return opts
}

// Renderer writes PNG charts into one directory
type Renderer struct {
	dir     string
	opts    Options
	logger  *slog.Logger
	metrics *infrastructure.PipelineMetrics
}

// NewRenderer creates a renderer writing into dir. metrics may be nil.
func NewRenderer(dir string, opts Options, logger *slog.Logger, metrics *infrastructure.PipelineMetrics) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{dir: dir, opts: opts, logger: logger, metrics: metrics}
}

// FileName builds "<chart>_<stock>.png" with path separators and spaces replaced
func FileName(chart, stock string) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ' ', ':':
			return '_'
		}
		return r
	}, stock)
	return chart + "_" + clean + ".png"
}

// Save renders p as a PNG named name inside the output directory
func (r *Renderer) Save(ctx context.Context, p *plot.Plot, name string) (string, error) {
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return "", apperrors.NewStorageError("failed to create figures directory", err)
	}
	path := filepath.Join(r.dir, name)

	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(r.opts.WidthInches)*vg.Inch, vg.Length(r.opts.HeightInches)*vg.Inch),
		vgimg.UseDPI(r.opts.DPI),
	)
	p.Draw(draw.New(c))

	f, err := os.Create(path)
	if err != nil {
		return "", apperrors.NewStorageError("failed to create "+path, err)
	}
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(f); err != nil {
		f.Close()
		return "", apperrors.NewRenderError("failed to encode "+name, err)
	}
	if err := f.Close(); err != nil {
		return "", apperrors.NewStorageError("failed to close "+path, err)
	}

	r.metrics.Add(ctx, infrastructure.CounterChartsRendered, 1, attribute.String("chart", name))
	r.logger.DebugContext(ctx, "chart saved", slog.String("path", path))
	return path, nil
}

type chart struct {
	name  string
	build func() (*plot.Plot, error)
}

func (r *Renderer) renderAll(ctx context.Context, charts []chart) ([]string, error) {
	paths := make([]string, 0, len(charts))
	for _, c := range charts {
		if err := ctx.Err(); err != nil {
			return paths, err
		}
		p, err := c.build()
		if err != nil {
			return paths, apperrors.NewRenderError("failed to build "+c.name, err)
		}
		path, err := r.Save(ctx, p, c.name)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// RenderExplore draws the exploratory chart set for one fund: three
// scatters, box plots, a histogram and, with All, the time series. With All
// the rows lacking a forward return are dropped after the return box plot,
// so the later charts share its rows.
func (r *Renderer) RenderExplore(ctx context.Context, stock string, f *derived.Frame) ([]string, error) {
	if err := f.Require(derived.ColDiscountPremium, derived.ColReturn, derived.ColReturnMinusBenchmark, derived.ColRSI); err != nil {
		return nil, err
	}
	col := func(fr *derived.Frame, name string) series.Series {
		s, ok := fr.Column(name)
		if !ok {
			return series.New(fr.Len())
		}
		return s
	}
	bench := func(fr *derived.Frame) series.Series {
		return col(fr, dataprocessing.ColBenchmarkEN).Scale(r.opts.BenchmarkScale)
	}

	full := f
	charts := []chart{
		{FileName("discount_vs_adjusted_return", stock), func() (*plot.Plot, error) {
			return Scatter("Discount/Premium against adjusted return rate for "+stock,
				"Discount/Premium", "Return rate adjusted for OMXS",
				col(full, derived.ColDiscountPremium), col(full, derived.ColReturnMinusBenchmark), guideRed)
		}},
		{FileName("discount_vs_forward_return", stock), func() (*plot.Plot, error) {
			return Scatter("Discount/Premium against return rate for "+stock,
				"Discount/Premium", "Return rate",
				col(full, derived.ColDiscountPremium), col(full, derived.ColReturn), guideRed)
		}},
		{FileName("discount_vs_rsi", stock), func() (*plot.Plot, error) {
			return Scatter("Discount/Premium against RSI for "+stock,
				"Discount/Premium", "RSI",
				col(full, derived.ColDiscountPremium), col(full, derived.ColRSI), nil)
		}},
	}

	rest := full
	if r.opts.All {
		rest = full.DropMissing(derived.ColReturn)
		charts = append(charts, chart{FileName("return_boxplot", stock), func() (*plot.Plot, error) {
			return BoxPlot("Return rate boxplot for "+stock, "Return rate", []BoxGroup{
				{Name: "Return rate " + stock, Values: col(rest, derived.ColReturn)},
				{Name: "Return rate OMXS", Values: bench(rest)},
			})
		}})
	}

	charts = append(charts,
		chart{FileName("discount_boxplot", stock), func() (*plot.Plot, error) {
			return BoxPlot("Discount/premium boxplot for "+stock, "Discount/Premium",
				[]BoxGroup{{Name: stock, Values: col(rest, derived.ColDiscountPremium)}})
		}},
		chart{FileName("discount_histogram", stock), func() (*plot.Plot, error) {
			return Histogram("Discount/Premium histogram for "+stock, "Discount / Premium",
				col(rest, derived.ColDiscountPremium), r.opts.HistogramBins)
		}},
	)

	if r.opts.All {
		charts = append(charts,
			chart{FileName("discount_timeseries", stock), func() (*plot.Plot, error) {
				return TimeSeries("Discount/Premium over time for "+stock, "Discount/Premium", rest.Dates,
					[]Line{{Values: col(rest, derived.ColDiscountPremium), Color: pointBlue}})
			}},
			chart{FileName("rsi_timeseries", stock), func() (*plot.Plot, error) {
				return TimeSeries("RSI over time for "+stock, "RSI", rest.Dates,
					[]Line{{Values: col(rest, derived.ColRSI), Color: pointBlue}}, 70, 30)
			}},
			chart{FileName("return_timeseries", stock), func() (*plot.Plot, error) {
				return TimeSeries("Return rate over time for "+stock, "Return rate", rest.Dates, []Line{
					{Name: stock + " return rate", Values: col(rest, derived.ColReturn), Color: pointBlue},
					{Name: "OMXS return rate", Values: bench(rest), Color: lineOrange},
				})
			}},
		)
	}

	paths, err := r.renderAll(ctx, charts)
	if err != nil {
		return paths, fmt.Errorf("%s: %w", stock, err)
	}
	r.logger.InfoContext(ctx, "charts rendered",
		slog.String("stock", stock),
		slog.Int("charts", len(paths)),
		slog.Bool("all", r.opts.All))
	return paths, nil
}

// RenderPresentation draws discount/premium against benchmark-adjusted
// return with points coloured by year.
func (r *Renderer) RenderPresentation(ctx context.Context, stock string, f *derived.Frame) (string, error) {
	if err := f.Require(derived.ColDiscountPremium, derived.ColReturnMinusBenchmark); err != nil {
		return "", err
	}
	dp, _ := f.Column(derived.ColDiscountPremium)
	adj, _ := f.Column(derived.ColReturnMinusBenchmark)

	p, err := ScatterByYear("Discount/Premium vs Adjusted Return Rate for "+stock,
		"Discount/Premium", "Return rate adjusted for OMXS", dp, adj, f.Years())
	if err != nil {
		return "", apperrors.NewRenderError("failed to build presentation scatter", err)
	}
	path, err := r.Save(ctx, p, FileName("discount_vs_return", stock))
	if err != nil {
		return "", err
	}
	r.logger.InfoContext(ctx, "charts rendered",
		slog.String("stock", stock),
		slog.Int("charts", 1))
	return path, nil
}
