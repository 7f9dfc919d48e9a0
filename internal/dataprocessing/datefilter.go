package dataprocessing

import (
	"sort"
	"strings"
	"time"

	apperrors "navpulse/internal/errors"
)

// dateLayouts are tried in order
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"02/01/2006",
	"02.01.2006",
	time.RFC3339,
}

// ParseDate parses a date cell. Unparseable text yields the zero time and false.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// ParseDates builds the date axis from col. Unparseable cells keep the zero
// time; the row is retained but never passes a date filter.
func (t *Table) ParseDates(col string) (int, error) {
	cells, ok := t.raw[col]
	if !ok {
		return 0, apperrors.NewMissingColumnError(t.Source, col)
	}

	t.dates = make([]time.Time, len(cells))
	bad := 0
	for i, c := range cells {
		d, ok := ParseDate(c)
		if !ok {
			bad++
		}
		t.dates[i] = d
	}
	return bad, nil
}

// FilterBefore keeps rows whose date parsed and is strictly before cutoff
func (t *Table) FilterBefore(cutoff time.Time) *Table {
	return t.filter(func(d time.Time) bool { return d.Before(cutoff) })
}

// FilterYears keeps rows whose year lies in [from, to]
func (t *Table) FilterYears(from, to int) *Table {
	return t.filter(func(d time.Time) bool {
		y := d.Year()
		return y >= from && y <= to
	})
}

func (t *Table) filter(keep func(time.Time) bool) *Table {
	idx := make([]int, 0, t.rows)
	for i, d := range t.dates {
		if d.IsZero() || !keep(d) {
			continue
		}
		idx = append(idx, i)
	}
	return t.Select(idx)
}

// SortByDate orders rows by date ascending, keeping ties in input order.
// Rows with an unparseable date sort first.
func (t *Table) SortByDate() *Table {
	idx := make([]int, len(t.dates))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return t.dates[idx[a]].Before(t.dates[idx[b]])
	})
	return t.Select(idx)
}
