package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"navpulse/internal/app"
	"navpulse/internal/config"
	"navpulse/internal/derived"
	"navpulse/internal/report"
	"navpulse/internal/series"
	"navpulse/internal/shared/testutil"
	"navpulse/internal/store"
)

// preprocessedCSV holds nine rows in 2020 where low discounts meet high
// returns, plus one row on each side of the mined years.
func preprocessedCSV() string {
	var b strings.Builder
	b.WriteString("DATE,PRICE,DISCOUNT_PREMIUM_ADJ,RETURN_MINUS_BENCHMARK\n")
	b.WriteString("2015-06-01,100,9,9\n")
	for i := 1; i <= 9; i++ {
		fmt.Fprintf(&b, "2020-01-%02d,100,%d,%d\n", i, i, 10-i)
	}
	b.WriteString("2025-06-02,100,9,9\n")
	return b.String()
}

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-min-support", "0.1", "-metric", "confidence", "-top", "5"})
	require.NoError(t, err)
	assert.Equal(t, "Industrivarden_vanlig2_preprocess.csv", opts.in)

	cfg := config.Default()
	require.NoError(t, opts.apply(cfg))
	assert.Equal(t, 0.1, cfg.Mining.MinSupport)
	assert.Equal(t, "confidence", cfg.Mining.Metric)
	assert.Equal(t, 5, cfg.Mining.TopN)
	assert.Equal(t, config.DefaultFromYear, cfg.Mining.FromYear)
	assert.Equal(t, derived.ColReturnMinusBenchmark, cfg.Mining.ReturnColumn)
}

func TestApplyRejectsInvalidFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-min-support", "1.5"})
	require.NoError(t, err)
	assert.Error(t, opts.apply(config.Default()))

	opts, err = parseFlags([]string{"-from", "2024", "-to", "2016"})
	require.NoError(t, err)
	assert.Error(t, opts.apply(config.Default()))
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "Latour_preprocess.csv")
	require.NoError(t, os.WriteFile(in, []byte(preprocessedCSV()), 0644))

	logger, handler := testutil.NewTestLogger(t)
	var stdout bytes.Buffer
	err := run(context.Background(),
		[]string{"-in", in, "-csv", "rules.csv", "-xlsx", "rules.xlsx"},
		app.Options{BaseDir: dir, Logger: logger}, &stdout)
	require.NoError(t, err)

	out := stdout.String()
	assert.True(t, strings.HasPrefix(out, "Top "), out)
	assert.Contains(t, out, "discount <-> return rules by lift:")
	assert.Contains(t, out, "Rule: DISC_PREM_low => RET_OMXS_high")
	assert.Contains(t, out, "Support   : 0.3333")
	assert.Contains(t, out, "Confidence: 1.0000")
	assert.Contains(t, out, "Lift      : 3.0000")

	f, err := os.Open(filepath.Join(dir, "data", "rules.csv"))
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Greater(t, len(records), 1)
	assert.Equal(t, "antecedents", records[0][0])

	wb, err := excelize.OpenFile(filepath.Join(dir, "data", "rules.xlsx"))
	require.NoError(t, err)
	defer wb.Close()
	assert.Equal(t, []string{report.SheetRules, report.SheetLookup}, wb.GetSheetList())

	testutil.AssertLogAttr(t, handler, "transactions", int64(9))
	testutil.AssertNoErrors(t, handler)
}

func TestRunWorkbookInSubdirectory(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "Latour_preprocess.csv")
	require.NoError(t, os.WriteFile(in, []byte(preprocessedCSV()), 0644))

	logger, handler := testutil.NewTestLogger(t)
	var stdout bytes.Buffer
	err := run(context.Background(),
		[]string{"-in", in, "-xlsx", filepath.Join("sub", "rules.xlsx")},
		app.Options{BaseDir: dir, Logger: logger}, &stdout)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "data", "sub", "rules.xlsx"))
	testutil.AssertNoErrors(t, handler)
}

func TestRunFromStore(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "navpulse.db")

	dates := make([]time.Time, 9)
	disc := series.New(9)
	ret := series.New(9)
	for i := range dates {
		dates[i] = time.Date(2021, time.March, i+1, 0, 0, 0, 0, time.UTC)
		disc[i] = float64(i + 1)
		ret[i] = float64(9 - i)
	}
	frame := derived.NewFrame("Investor_preprocess.csv", dates)
	require.NoError(t, frame.Set(derived.ColDiscountPremiumAdj, disc))
	require.NoError(t, frame.Set(derived.ColReturnMinusBenchmark, ret))

	st, err := store.Open(db, nil)
	require.NoError(t, err)
	require.NoError(t, st.SaveFrame(context.Background(), store.TableName("Investor_preprocess"), frame))
	require.NoError(t, st.Close())

	logger, _ := testutil.NewTestLogger(t)
	var stdout bytes.Buffer
	err = run(context.Background(),
		[]string{"-sqlite", db, "-in", "Investor_preprocess.csv"},
		app.Options{BaseDir: dir, Logger: logger}, &stdout)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "Lift      : 3.0000")
}

func TestRunMissingColumn(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "Investor_preprocess.csv")
	require.NoError(t, os.WriteFile(in, []byte("DATE,PRICE\n2020-01-02,1\n"), 0644))

	logger, handler := testutil.NewTestLogger(t)
	err := run(context.Background(), []string{"-in", in},
		app.Options{BaseDir: dir, Logger: logger}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step load")
	assert.Contains(t, err.Error(), derived.ColDiscountPremiumAdj)
	testutil.AssertLogContains(t, handler, slog.LevelError, "Pattern mining failed")
	testutil.AssertLogAttr(t, handler, "step", "load")
	assert.True(t, handler.ContainsAttr("error", err.Error()))
}
