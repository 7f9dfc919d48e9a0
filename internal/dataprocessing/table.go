package dataprocessing

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	apperrors "navpulse/internal/errors"
	"navpulse/internal/series"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Table is a column-oriented view of a delimited file. Raw text is kept for
// every column; numeric columns are added by NormalizeNumeric and the date
// axis by ParseDates.
type Table struct {
	Source  string
	Header  []string
	raw     map[string][]string
	numeric map[string]series.Series
	dates   []time.Time
	rows    int
}

// ReadOptions configures table loading
type ReadOptions struct {
	// Exclude drops these columns on load
	Exclude []string
	// Comma is the field delimiter; zero means ','
	Comma rune
}

// ReadCSV loads a delimited file
func ReadCSV(path string, opts ReadOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewNotFoundError(path).WithContext("cause", err.Error())
	}
	defer f.Close()

	return ReadTable(f, path, opts)
}

// ReadTable loads a delimited table from r. source names the table in errors and logs.
func ReadTable(r io.Reader, source string, opts ReadOptions) (*Table, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read "+source, err)
	}
	content = bytes.TrimPrefix(content, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(content))
	if opts.Comma != 0 {
		reader.Comma = opts.Comma
	}
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewParsingError("failed to parse "+source, err)
	}
	if len(records) == 0 {
		return nil, apperrors.NewValidationError(source+" has no header", apperrors.ErrEmptyInput)
	}

	t := &Table{
		Source:  source,
		raw:     make(map[string][]string),
		numeric: make(map[string]series.Series),
	}

	var keep []int
	for i, name := range records[0] {
		name = strings.TrimSpace(name)
		if slices.Contains(opts.Exclude, name) {
			continue
		}
		if _, dup := t.raw[name]; dup {
			continue
		}
		keep = append(keep, i)
		t.Header = append(t.Header, name)
		t.raw[name] = make([]string, 0, len(records)-1)
	}

	for _, rec := range records[1:] {
		if isBlankLine(rec) {
			continue
		}
		for k, i := range keep {
			cell := ""
			if i < len(rec) {
				cell = rec[i]
			}
			name := t.Header[k]
			t.raw[name] = append(t.raw[name], cell)
		}
		t.rows++
	}

	return t, nil
}

// isBlankLine reports a whitespace-only line. A record of empty fields is
// kept as a row of missing values so later rows keep their positions.
func isBlankLine(rec []string) bool {
	return len(rec) == 1 && strings.TrimSpace(rec[0]) == ""
}

// NewTable builds a table from in-memory columns; all columns must share one length.
func NewTable(source string, header []string, columns map[string][]string) (*Table, error) {
	t := &Table{
		Source:  source,
		raw:     make(map[string][]string),
		numeric: make(map[string]series.Series),
		rows:    -1,
	}
	for _, name := range header {
		col, ok := columns[name]
		if !ok {
			return nil, apperrors.NewMissingColumnError(source, name)
		}
		if t.rows >= 0 && len(col) != t.rows {
			return nil, apperrors.NewValidationError(
				fmt.Sprintf("%s: column %q has %d rows, want %d", source, name, len(col), t.rows), nil)
		}
		t.rows = len(col)
		t.Header = append(t.Header, name)
		t.raw[name] = append([]string(nil), col...)
	}
	if t.rows < 0 {
		t.rows = 0
	}
	return t, nil
}

// Rows returns the number of data rows
func (t *Table) Rows() int { return t.rows }

// Has reports whether the column exists
func (t *Table) Has(col string) bool {
	_, ok := t.raw[col]
	if !ok {
		_, ok = t.numeric[col]
	}
	return ok
}

// Require fails with a missing-column error naming every absent column
func (t *Table) Require(cols ...string) error {
	var missing []string
	for _, c := range cols {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return apperrors.NewMissingColumnError(t.Source, missing...)
	}
	return nil
}

// Raw returns the text cells of a column
func (t *Table) Raw(col string) ([]string, bool) {
	v, ok := t.raw[col]
	return v, ok
}

// Numeric returns a normalized column
func (t *Table) Numeric(col string) (series.Series, bool) {
	v, ok := t.numeric[col]
	return v, ok
}

// NumericOrMissing returns a normalized column, or an all-missing series when absent
func (t *Table) NumericOrMissing(col string) series.Series {
	if v, ok := t.numeric[col]; ok {
		return v
	}
	return series.New(t.rows)
}

// SetNumeric stores a numeric column, appending it to the header when new
func (t *Table) SetNumeric(col string, s series.Series) error {
	if len(s) != t.rows {
		return apperrors.NewValidationError(
			fmt.Sprintf("%s: column %q has %d rows, want %d", t.Source, col, len(s), t.rows), nil)
	}
	if !t.Has(col) {
		t.Header = append(t.Header, col)
	}
	t.numeric[col] = s
	return nil
}

// SetRaw stores a text column, appending it to the header when new
func (t *Table) SetRaw(col string, cells []string) error {
	if len(cells) != t.rows {
		return apperrors.NewValidationError(
			fmt.Sprintf("%s: column %q has %d rows, want %d", t.Source, col, len(cells), t.rows), nil)
	}
	if !t.Has(col) {
		t.Header = append(t.Header, col)
	}
	t.raw[col] = cells
	return nil
}

// Cell returns the text of one cell: the raw text when the column holds it,
// otherwise the formatted number with missing values as "".
func (t *Table) Cell(col string, row int) string {
	if cells, ok := t.raw[col]; ok {
		return cells[row]
	}
	if s, ok := t.numeric[col]; ok && !series.IsMissing(s[row]) {
		return strconv.FormatFloat(s[row], 'g', -1, 64)
	}
	return ""
}

// Dates returns the parsed date axis; nil before ParseDates
func (t *Table) Dates() []time.Time { return t.dates }

// NormalizeNumeric parses the named columns with ParseLocaleFloat.
// Every named column must exist.
func (t *Table) NormalizeNumeric(logger *slog.Logger, cols ...string) (NormalizeStats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := t.Require(cols...); err != nil {
		return nil, err
	}

	stats := make(NormalizeStats, len(cols))
	for _, col := range cols {
		cells, ok := t.raw[col]
		if !ok {
			// already numeric
			continue
		}
		s, degraded := NormalizeColumn(cells)
		t.numeric[col] = s
		stats[col] = degraded
		if degraded > 0 {
			logger.Debug("cells degraded to missing",
				slog.String("source", t.Source),
				slog.String("column", col),
				slog.Int("count", degraded))
		}
	}
	return stats, nil
}

// NormalizeOptional normalizes the columns that exist and fills the absent
// ones with missing values.
func (t *Table) NormalizeOptional(logger *slog.Logger, cols ...string) (NormalizeStats, error) {
	var present []string
	for _, c := range cols {
		if t.Has(c) {
			present = append(present, c)
			continue
		}
		if err := t.SetNumeric(c, series.New(t.rows)); err != nil {
			return nil, err
		}
	}
	return t.NormalizeNumeric(logger, present...)
}

// Rename changes column names in place; unknown names are ignored
func (t *Table) Rename(names map[string]string) {
	for i, old := range t.Header {
		nw, ok := names[old]
		if !ok || nw == old {
			continue
		}
		t.Header[i] = nw
		if v, ok := t.raw[old]; ok {
			t.raw[nw] = v
			delete(t.raw, old)
		}
		if v, ok := t.numeric[old]; ok {
			t.numeric[nw] = v
			delete(t.numeric, old)
		}
	}
}

// Select returns a new table holding the given rows in the given order
func (t *Table) Select(idx []int) *Table {
	out := &Table{
		Source:  t.Source,
		Header:  append([]string(nil), t.Header...),
		raw:     make(map[string][]string, len(t.raw)),
		numeric: make(map[string]series.Series, len(t.numeric)),
		rows:    len(idx),
	}
	for name, col := range t.raw {
		sel := make([]string, len(idx))
		for k, i := range idx {
			sel[k] = col[i]
		}
		out.raw[name] = sel
	}
	for name, col := range t.numeric {
		sel := make(series.Series, len(idx))
		for k, i := range idx {
			sel[k] = col[i]
		}
		out.numeric[name] = sel
	}
	if t.dates != nil {
		out.dates = make([]time.Time, len(idx))
		for k, i := range idx {
			out.dates[k] = t.dates[i]
		}
	}
	return out
}
