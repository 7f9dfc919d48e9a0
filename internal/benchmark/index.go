package benchmark

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"navpulse/internal/config"
	"navpulse/internal/dataprocessing"
	apperrors "navpulse/internal/errors"
)

// Header names in the index spreadsheet export
const (
	HeaderTradeDate  = "Trade Date"
	HeaderIndexValue = "Index Value"
)

// IndexCSVHeader is the column layout of the index CSV
var IndexCSVHeader = []string{"Date", dataprocessing.ColIndexValue, dataprocessing.ColBenchmarkReturn}

// IndexPoint is one trading day of the benchmark index
type IndexPoint struct {
	Date  time.Time
	Value float64
	// Return is the fractional change from the previous point, NaN for the first
	Return float64
}

// ReturnPercent is Return expressed in percent, the unit of the fund exports
func (p IndexPoint) ReturnPercent() float64 { return p.Return * 100 }

// ReadIndexWorkbook reads the index series from an xlsx export. When sheet is
// empty every sheet is scanned and the first one carrying both header
// columns is used. Rows missing a date or value are dropped and the result is
// sorted by date.
func ReadIndexWorkbook(path, sheet string, logger *slog.Logger) ([]IndexPoint, error) {
	if logger == nil {
		logger = slog.Default()
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewNotFoundError(path).WithContext("cause", err.Error())
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if sheet != "" {
		sheets = []string{sheet}
	}

	for _, name := range sheets {
		// raw values keep dates as serials and numbers without display formatting
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("failed to read sheet %q of %s", name, path), err)
		}

		hdr, dateIdx, valueIdx := findHeader(rows)
		if hdr < 0 {
			logger.Debug("sheet has no index header", slog.String("sheet", name))
			continue
		}

		points, dropped := parseRows(rows[hdr+1:], dateIdx, valueIdx)
		sort.SliceStable(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })

		logger.Info("index workbook read",
			slog.String("file", path),
			slog.String("sheet", name),
			slog.Int("points", len(points)),
			slog.Int("dropped", dropped))
		return points, nil
	}

	return nil, apperrors.NewMissingColumnError(path, HeaderTradeDate, HeaderIndexValue)
}

// findHeader locates the row holding both header names
func findHeader(rows [][]string) (row, dateIdx, valueIdx int) {
	for r, cells := range rows {
		dateIdx, valueIdx = -1, -1
		for c, cell := range cells {
			switch strings.TrimSpace(cell) {
			case HeaderTradeDate:
				dateIdx = c
			case HeaderIndexValue:
				valueIdx = c
			}
		}
		if dateIdx >= 0 && valueIdx >= 0 {
			return r, dateIdx, valueIdx
		}
	}
	return -1, -1, -1
}

func parseRows(rows [][]string, dateIdx, valueIdx int) ([]IndexPoint, int) {
	points := make([]IndexPoint, 0, len(rows))
	dropped := 0
	for _, cells := range rows {
		if dateIdx >= len(cells) || valueIdx >= len(cells) {
			dropped++
			continue
		}
		d, okDate := parseCellDate(cells[dateIdx])
		v, okValue := dataprocessing.ParseLocaleFloat(cells[valueIdx])
		if !okDate || !okValue {
			dropped++
			continue
		}
		points = append(points, IndexPoint{Date: d, Value: v, Return: math.NaN()})
	}
	return points, dropped
}

// parseCellDate accepts date text or an Excel serial number
func parseCellDate(cell string) (time.Time, bool) {
	if d, ok := dataprocessing.ParseDate(cell); ok {
		return d, true
	}
	serial, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil || serial <= 0 {
		return time.Time{}, false
	}
	d, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, false
	}
	y, m, day := d.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC), true
}

// DailyReturns sets each point's Return to the change from the previous point.
// The first point, and any point following a zero value, gets NaN.
func DailyReturns(points []IndexPoint) {
	for i := range points {
		if i == 0 || points[i-1].Value == 0 {
			points[i].Return = math.NaN()
			continue
		}
		points[i].Return = points[i].Value/points[i-1].Value - 1
	}
}

// Records renders points as rows of IndexCSVHeader
func Records(points []IndexPoint) [][]string {
	out := make([][]string, len(points))
	for i, p := range points {
		out[i] = []string{
			p.Date.Format(config.DateLayout),
			formatFloat(p.Value),
			formatFloat(p.ReturnPercent()),
		}
	}
	return out
}

// JoinCompany keeps the company rows whose dateCol matches an index date and
// adds the index value and return of that day. The company date is copied to
// the Investor Date column so the result loads like a regular fund export.
// Rows come out in ascending date order.
func JoinCompany(t *dataprocessing.Table, points []IndexPoint, dateCol string) (*dataprocessing.Table, error) {
	if _, err := t.ParseDates(dateCol); err != nil {
		return nil, err
	}
	t = t.SortByDate()

	byDate := make(map[time.Time]IndexPoint, len(points))
	for _, p := range points {
		byDate[p.Date] = p
	}

	var idx []int
	var matched []IndexPoint
	for i, d := range t.Dates() {
		if d.IsZero() {
			continue
		}
		if p, ok := byDate[d]; ok {
			idx = append(idx, i)
			matched = append(matched, p)
		}
	}

	out := t.Select(idx)
	ret := make([]string, len(matched))
	date := make([]string, len(matched))
	value := make([]string, len(matched))
	for i, p := range matched {
		ret[i] = formatFloat(p.ReturnPercent())
		date[i] = p.Date.Format(config.DateLayout)
		value[i] = formatFloat(p.Value)
	}

	for _, col := range []struct {
		name  string
		cells []string
	}{
		{dataprocessing.ColBenchmarkReturn, ret},
		{dataprocessing.ColInvestorDate, date},
		{dataprocessing.ColIndexValue, value},
	} {
		if err := out.SetRaw(col.name, col.cells); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func formatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
