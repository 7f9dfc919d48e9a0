package derived

import (
	"fmt"
	"slices"
	"time"

	"navpulse/internal/dataprocessing"
	apperrors "navpulse/internal/errors"
	"navpulse/internal/series"
)

// BaseColumns lead every frame, in this order, when present
var BaseColumns = []string{
	dataprocessing.ColPriceEN,
	dataprocessing.ColCalculatedNAVEN,
	dataprocessing.ColReportedNAVEN,
	dataprocessing.ColIndexValueEN,
	dataprocessing.ColBenchmarkEN,
}

// Frame is a date-indexed set of English-named numeric columns
type Frame struct {
	Source  string
	Dates   []time.Time
	columns []string
	values  map[string]series.Series
}

// NewFrame returns an empty frame over the given dates
func NewFrame(source string, dates []time.Time) *Frame {
	return &Frame{
		Source: source,
		Dates:  dates,
		values: make(map[string]series.Series),
	}
}

// FrameFromTable converts every numeric column of t to English names. The
// date axis is parsed from dateCol unless t already has one.
func FrameFromTable(t *dataprocessing.Table, dateCol string) (*Frame, error) {
	if t.Dates() == nil {
		if _, err := t.ParseDates(dateCol); err != nil {
			return nil, err
		}
	}

	f := NewFrame(t.Source, slices.Clone(t.Dates()))
	english := func(name string) string {
		if en, ok := dataprocessing.EnglishNames[name]; ok {
			return en
		}
		return name
	}

	var rest []string
	present := make(map[string]series.Series)
	for _, name := range t.Header {
		s, ok := t.Numeric(name)
		if !ok || name == dateCol {
			continue
		}
		en := english(name)
		present[en] = s.Clone()
		if !slices.Contains(BaseColumns, en) {
			rest = append(rest, en)
		}
	}

	for _, name := range BaseColumns {
		if s, ok := present[name]; ok {
			f.columns = append(f.columns, name)
			f.values[name] = s
		}
	}
	for _, name := range rest {
		f.columns = append(f.columns, name)
		f.values[name] = present[name]
	}
	return f, nil
}

// Len returns the number of rows
func (f *Frame) Len() int { return len(f.Dates) }

// Columns returns the column names in output order
func (f *Frame) Columns() []string { return slices.Clone(f.columns) }

// Column returns a column by name
func (f *Frame) Column(name string) (series.Series, bool) {
	s, ok := f.values[name]
	return s, ok
}

// Require fails with a missing-column error naming every absent column
func (f *Frame) Require(names ...string) error {
	var missing []string
	for _, n := range names {
		if _, ok := f.values[n]; !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return apperrors.NewMissingColumnError(f.Source, missing...)
	}
	return nil
}

// Set stores a column, appending it to the output order when new
func (f *Frame) Set(name string, s series.Series) error {
	if len(s) != f.Len() {
		return apperrors.NewValidationError(
			fmt.Sprintf("%s: column %q has %d rows, want %d", f.Source, name, len(s), f.Len()), nil)
	}
	if _, ok := f.values[name]; !ok {
		f.columns = append(f.columns, name)
	}
	f.values[name] = s
	return nil
}

// Select returns a new frame holding the given rows in the given order
func (f *Frame) Select(idx []int) *Frame {
	out := &Frame{
		Source:  f.Source,
		Dates:   make([]time.Time, len(idx)),
		columns: slices.Clone(f.columns),
		values:  make(map[string]series.Series, len(f.values)),
	}
	for k, i := range idx {
		out.Dates[k] = f.Dates[i]
	}
	for name, s := range f.values {
		sel := make(series.Series, len(idx))
		for k, i := range idx {
			sel[k] = s[i]
		}
		out.values[name] = sel
	}
	return out
}

// FilterBefore keeps rows dated strictly before cutoff; undated rows are dropped
func (f *Frame) FilterBefore(cutoff time.Time) *Frame {
	return f.filter(func(d time.Time) bool { return d.Before(cutoff) })
}

// FilterYears keeps rows whose year lies in [from, to]
func (f *Frame) FilterYears(from, to int) *Frame {
	return f.filter(func(d time.Time) bool { return d.Year() >= from && d.Year() <= to })
}

func (f *Frame) filter(keep func(time.Time) bool) *Frame {
	idx := make([]int, 0, f.Len())
	for i, d := range f.Dates {
		if !d.IsZero() && keep(d) {
			idx = append(idx, i)
		}
	}
	return f.Select(idx)
}

// DropMissing keeps rows where every named column is present
func (f *Frame) DropMissing(names ...string) *Frame {
	idx := make([]int, 0, f.Len())
rows:
	for i := range f.Dates {
		for _, n := range names {
			s, ok := f.values[n]
			if !ok || series.IsMissing(s[i]) {
				continue rows
			}
		}
		idx = append(idx, i)
	}
	return f.Select(idx)
}

// Years returns the calendar year of every row; undated rows are missing
func (f *Frame) Years() series.Series {
	out := make(series.Series, f.Len())
	for i, d := range f.Dates {
		if d.IsZero() {
			out[i] = series.Missing()
			continue
		}
		out[i] = float64(d.Year())
	}
	return out
}
