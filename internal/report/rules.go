package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/xuri/excelize/v2"

	apperrors "navpulse/internal/errors"
	"navpulse/internal/exporter"
	"navpulse/internal/mining"
)

// Sheet names of the rule workbook
const (
	SheetRules  = "rules"
	SheetLookup = "lookup"
)

// WriteRuleTable prints rules with aligned columns
func WriteRuleTable(w io.Writer, title string, rules []mining.Rule) error {
	if title != "" {
		fmt.Fprintln(w, title)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "antecedents\tconsequents\tsupport\tconfidence\tlift")
	for _, r := range rules {
		fmt.Fprintf(tw, "%s\t%s\t%.4f\t%.4f\t%.4f\n",
			mining.FormatItems(r.Antecedents), mining.FormatItems(r.Consequents),
			r.Support, r.Confidence, r.Lift)
	}
	return tw.Flush()
}

// WriteLookup prints the looked-up rule of a mining run, or a note when the
// rule did not survive the support and threshold filters.
func WriteLookup(w io.Writer, res *mining.Result) error {
	from, to := res.Opts.LookupFrom, res.Opts.LookupTo
	if !res.Found {
		_, err := fmt.Fprintf(w, "\nNo direct rule %s => %s found with current min_support.\n", from, to)
		return err
	}
	r := res.Lookup
	_, err := fmt.Fprintf(w, "\nRule: %s => %s\nSupport   : %.4f\nConfidence: %.4f\nLift      : %.4f\n",
		from, to, r.Support, r.Confidence, r.Lift)
	return err
}

// WriteSummary prints the top rules and the lookup
func WriteSummary(w io.Writer, res *mining.Result) error {
	title := fmt.Sprintf("Top %d discount <-> return rules by lift:", len(res.Top))
	if err := WriteRuleTable(w, title, res.Top); err != nil {
		return err
	}
	return WriteLookup(w, res)
}

// WriteWorkbook saves the cross rules and the lookup as an xlsx workbook
func WriteWorkbook(path string, res *mining.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetRules); err != nil {
		return fmt.Errorf("failed to name rules sheet: %w", err)
	}
	if err := writeRow(f, SheetRules, 1, toRow(exporter.RuleHeader)); err != nil {
		return err
	}
	for i, r := range res.Rules {
		row := []interface{}{
			mining.FormatItems(r.Antecedents), mining.FormatItems(r.Consequents),
			r.AntecedentSupport, r.ConsequentSupport, r.Support,
			r.Confidence, r.Lift, r.Leverage, cellFloat(r.Conviction),
		}
		if err := writeRow(f, SheetRules, i+2, row); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(SheetLookup); err != nil {
		return fmt.Errorf("failed to add lookup sheet: %w", err)
	}
	lookup := [][]interface{}{
		{"antecedent", res.Opts.LookupFrom},
		{"consequent", res.Opts.LookupTo},
		{"found", res.Found},
		{"min_support", res.Opts.MinSupport},
		{"transactions", res.Transactions},
	}
	if res.Found {
		lookup = append(lookup,
			[]interface{}{"support", res.Lookup.Support},
			[]interface{}{"confidence", res.Lookup.Confidence},
			[]interface{}{"lift", res.Lookup.Lift},
		)
	}
	for i, row := range lookup {
		if err := writeRow(f, SheetLookup, i+1, row); err != nil {
			return err
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperrors.NewStorageError("failed to create directory "+dir, err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toRow(s []string) []interface{} {
	out := make([]interface{}, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

// cellFloat keeps infinite conviction readable in a spreadsheet
func cellFloat(v float64) interface{} {
	if math.IsInf(v, 1) {
		return "inf"
	}
	return v
}
