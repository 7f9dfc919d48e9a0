package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"navpulse/internal/derived"
	"navpulse/internal/series"
)

// CorrelationColumns are the columns of the summary matrix
var CorrelationColumns = []string{
	derived.ColDiscountPremium,
	derived.ColReturnMinusBenchmark,
	derived.ColReturn,
}

// Matrix is a symmetric correlation matrix
type Matrix struct {
	Names  []string
	Values [][]float64
}

// CorrelationMatrix computes pairwise Pearson correlations between the named
// columns, each pair over its own complete rows.
func CorrelationMatrix(f *derived.Frame, names ...string) (Matrix, error) {
	if err := f.Require(names...); err != nil {
		return Matrix{}, err
	}

	cols := make([]series.Series, len(names))
	for i, n := range names {
		cols[i], _ = f.Column(n)
	}

	values := make([][]float64, len(names))
	for i := range names {
		values[i] = make([]float64, len(names))
		for j := range names {
			if j < i {
				values[i][j] = values[j][i]
				continue
			}
			values[i][j] = series.Correlation(cols[i], cols[j])
		}
	}
	return Matrix{Names: names, Values: values}, nil
}

// At returns the correlation between two named columns
func (m Matrix) At(a, b string) float64 {
	i, j := indexOf(m.Names, a), indexOf(m.Names, b)
	if i < 0 || j < 0 {
		return series.Missing()
	}
	return m.Values[i][j]
}

func indexOf(names []string, n string) int {
	for i, v := range names {
		if v == n {
			return i
		}
	}
	return -1
}

// Write prints the matrix with aligned columns
func (m Matrix) Write(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "\t%s\t\n", strings.Join(m.Names, "\t"))
	for i, name := range m.Names {
		cells := make([]string, len(m.Values[i]))
		for j, v := range m.Values[i] {
			cells[j] = formatStat(v)
		}
		fmt.Fprintf(tw, "%s\t%s\t\n", name, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// WriteCorrelationSummary prints the headline correlation for a fund
// followed by the summary matrix.
func WriteCorrelationSummary(w io.Writer, stock string, f *derived.Frame) error {
	m, err := CorrelationMatrix(f, CorrelationColumns...)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "--Correlation for %s--\n", stock)
	fmt.Fprintf(w, "Correlation between discount/premium and benchmark-adjusted return for %s: %s\n",
		stock, formatStat(m.At(derived.ColDiscountPremium, derived.ColReturnMinusBenchmark)))
	return m.Write(w)
}

func formatStat(v float64) string {
	if series.IsMissing(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.4f", v)
}
