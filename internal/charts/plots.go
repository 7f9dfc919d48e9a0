package charts

import (
	"image/color"
	"math"
	"sort"
	"strconv"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"navpulse/internal/series"
)

var (
	guideRed   = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	pointBlue  = color.RGBA{R: 31, G: 119, B: 180, A: 204}
	lineOrange = color.RGBA{R: 255, G: 127, B: 14, A: 255}
	histFill   = color.RGBA{R: 135, G: 206, B: 235, A: 255}
	dashes     = []vg.Length{vg.Points(4), vg.Points(3)}
)

// Line is one named series of a time-series chart
type Line struct {
	Name   string
	Values series.Series
	Color  color.Color
}

// BoxGroup is one box of a box plot
type BoxGroup struct {
	Name   string
	Values series.Series
}

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	return p
}

// points keeps the rows where both x and y are present
func points(x, y series.Series) plotter.XYs {
	xs, ys := series.PairwiseComplete(x, y)
	out := make(plotter.XYs, len(xs))
	for i := range xs {
		out[i].X, out[i].Y = xs[i], ys[i]
	}
	return out
}

// horizontal adds a dashed guide line at y
func horizontal(p *plot.Plot, y float64, c color.Color) {
	f := plotter.NewFunction(func(float64) float64 { return y })
	f.Color = c
	f.Dashes = dashes
	f.Width = vg.Points(1)
	p.Add(f)
}

// Scatter plots y against x, skipping rows where either is missing. A
// non-nil zeroLine color draws a dashed y=0 guide.
func Scatter(title, xLabel, yLabel string, x, y series.Series, zeroLine color.Color) (*plot.Plot, error) {
	p := newPlot(title, xLabel, yLabel)
	if xys := points(x, y); len(xys) > 0 {
		s, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, err
		}
		s.GlyphStyle.Color = pointBlue
		s.GlyphStyle.Radius = vg.Points(1.5)
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(s)
	}
	if zeroLine != nil {
		horizontal(p, 0, zeroLine)
	}
	return p, nil
}

// ScatterByYear plots y against x with one colour per calendar year taken
// from a colour map spanning the first to the last year.
func ScatterByYear(title, xLabel, yLabel string, x, y, years series.Series) (*plot.Plot, error) {
	p := newPlot(title, xLabel, yLabel)

	groups := make(map[int]plotter.XYs)
	n := min(len(x), len(y), len(years))
	for i := 0; i < n; i++ {
		if series.IsMissing(x[i]) || series.IsMissing(y[i]) || series.IsMissing(years[i]) {
			continue
		}
		yr := int(years[i])
		groups[yr] = append(groups[yr], plotter.XY{X: x[i], Y: y[i]})
	}

	order := make([]int, 0, len(groups))
	for yr := range groups {
		order = append(order, yr)
	}
	sort.Ints(order)

	if len(order) > 0 {
		cm := moreland.Kindlmann()
		cm.SetMin(float64(order[0]))
		cm.SetMax(math.Max(float64(order[len(order)-1]), float64(order[0])+1))
		cm.SetAlpha(0.8)

		for _, yr := range order {
			c, err := cm.At(float64(yr))
			if err != nil {
				return nil, err
			}
			s, err := plotter.NewScatter(groups[yr])
			if err != nil {
				return nil, err
			}
			s.GlyphStyle.Color = c
			s.GlyphStyle.Radius = vg.Points(1.5)
			s.GlyphStyle.Shape = draw.CircleGlyph{}
			p.Add(s)
			p.Legend.Add(strconv.Itoa(yr), s)
		}
		p.Legend.Top = true
		p.Legend.Left = false
	}

	horizontal(p, 0, guideRed)
	return p, nil
}

// BoxPlot draws one box per group; missing values are skipped and an empty
// group leaves its slot blank.
func BoxPlot(title, yLabel string, groups []BoxGroup) (*plot.Plot, error) {
	p := newPlot(title, "", yLabel)
	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = g.Name
		values := plotter.Values(g.Values.Valid())
		if len(values) == 0 {
			continue
		}
		b, err := plotter.NewBoxPlot(vg.Points(40), float64(i), values)
		if err != nil {
			return nil, err
		}
		p.Add(b)
	}
	p.NominalX(names...)
	return p, nil
}

// Histogram bins the non-missing values into the given number of bins
func Histogram(title, xLabel string, values series.Series, bins int) (*plot.Plot, error) {
	p := newPlot(title, xLabel, "Frequency")
	p.Add(plotter.NewGrid())
	if valid := plotter.Values(values.Valid()); len(valid) > 0 {
		h, err := plotter.NewHist(valid, bins)
		if err != nil {
			return nil, err
		}
		h.FillColor = histFill
		h.LineStyle.Color = color.Black
		p.Add(h)
	}
	return p, nil
}

// TimeSeries draws each line against the date axis. Missing values and
// undated rows break nothing; they are skipped. Guides are dashed
// horizontal lines with a legend entry each.
func TimeSeries(title, yLabel string, dates []time.Time, lines []Line, guides ...float64) (*plot.Plot, error) {
	p := newPlot(title, "Date", yLabel)
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01"}

	for _, l := range lines {
		var xys plotter.XYs
		for i, d := range dates {
			if i >= len(l.Values) || d.IsZero() || series.IsMissing(l.Values[i]) {
				continue
			}
			xys = append(xys, plotter.XY{X: float64(d.Unix()), Y: l.Values[i]})
		}
		if len(xys) == 0 {
			continue
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, err
		}
		if l.Color != nil {
			line.Color = l.Color
		}
		p.Add(line)
		if l.Name != "" {
			p.Legend.Add(l.Name, line)
		}
	}

	for _, g := range guides {
		f := plotter.NewFunction(func(float64) float64 { return g })
		f.Dashes = dashes
		f.Width = vg.Points(1)
		f.Color = color.Gray{Y: 96}
		p.Add(f)
		p.Legend.Add(strconv.FormatFloat(g, 'g', -1, 64), f)
	}
	return p, nil
}
