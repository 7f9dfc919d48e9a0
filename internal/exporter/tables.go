package exporter

import (
	"log/slog"

	"navpulse/internal/dataprocessing"
	"navpulse/internal/derived"
	"navpulse/internal/mining"
)

// RuleHeader is the column layout of a rule export
var RuleHeader = []string{
	"antecedents", "consequents",
	"antecedent support", "consequent support",
	"support", "confidence", "lift", "leverage", "conviction",
}

// FrameHeader returns DATE followed by the frame columns
func FrameHeader(f *derived.Frame) []string {
	return append([]string{dataprocessing.ColDate}, f.Columns()...)
}

// FrameRecord renders one row of f in FrameHeader order
func FrameRecord(f *derived.Frame, row int) []string {
	cols := f.Columns()
	rec := make([]string, 0, len(cols)+1)
	rec = append(rec, formatDate(f.Dates[row]))
	for _, name := range cols {
		s, _ := f.Column(name)
		rec = append(rec, formatFloat(s[row]))
	}
	return rec
}

// RuleRecord renders one rule in RuleHeader order
func RuleRecord(r mining.Rule) []string {
	return []string{
		mining.FormatItems(r.Antecedents),
		mining.FormatItems(r.Consequents),
		formatFloat(r.AntecedentSupport),
		formatFloat(r.ConsequentSupport),
		formatFloat(r.Support),
		formatFloat(r.Confidence),
		formatFloat(r.Lift),
		formatFloat(r.Leverage),
		formatFloat(r.Conviction),
	}
}

// WriteFrame streams a derived frame to filePath
func (w *CSVWriter) WriteFrame(filePath string, f *derived.Frame) error {
	stream, err := w.CreateStreamWriter(filePath, FrameHeader(f))
	if err != nil {
		return err
	}
	for i := 0; i < f.Len(); i++ {
		if err := stream.WriteRecord(FrameRecord(f, i)); err != nil {
			stream.Close()
			return err
		}
	}
	if err := stream.Close(); err != nil {
		return err
	}

	w.logger.Info("frame written",
		slog.String("source", f.Source),
		slog.String("path", stream.Path()),
		slog.Int("rows", stream.Rows()),
		slog.Int("columns", len(f.Columns())+1))
	return nil
}

// WriteTable writes a loaded table back out with its header order
func (w *CSVWriter) WriteTable(filePath string, t *dataprocessing.Table) error {
	records := make([][]string, t.Rows())
	for i := range records {
		rec := make([]string, len(t.Header))
		for j, col := range t.Header {
			rec[j] = t.Cell(col, i)
		}
		records[i] = rec
	}
	return w.WriteSimpleCSV(filePath, t.Header, records)
}

// WriteRules writes association rules, one per row
func (w *CSVWriter) WriteRules(filePath string, rules []mining.Rule) error {
	records := make([][]string, len(rules))
	for i, r := range rules {
		records[i] = RuleRecord(r)
	}
	return w.WriteSimpleCSV(filePath, RuleHeader, records)
}
