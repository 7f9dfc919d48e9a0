package dataprocessing

import (
	"errors"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "navpulse/internal/errors"
	"navpulse/internal/shared/testutil"
)

const fundCSV = "\uFEFFInvestor Date,PRIS,BERÄKNAT_SUBSTANSVÄRDE,SUBSTANSVÄRDE,Rabatt/Premie,Avkastning OMXS#=,Index Value\n" +
	"2024-12-09,\"1 234,5\",\"1 300\",\"1 290\",\"5,1%\",\"1,5%\",\"2 400,25\"\n" +
	"2024-12-10,\"1 240\",,\"1 295\",\"4,9%\",\"-0,5%\",\"2 410\"\n" +
	"\n" +
	"2024-12-11,\"1 250\",\"1 310\",\"1 300\",\"4,8%\",x,\"2 420\"\n"

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadCSV(t *testing.T) {
	path := writeFile(t, "Investor.csv", fundCSV)

	table, err := ReadCSV(path, ReadOptions{Exclude: PreprocessExcluded})
	require.NoError(t, err)

	assert.Equal(t, path, table.Source)
	assert.Equal(t, []string{ColInvestorDate, ColPrice, ColCalculatedNAV, ColBenchmarkReturn, ColIndexValue}, table.Header)
	// blank line skipped
	assert.Equal(t, 3, table.Rows())
	assert.False(t, table.Has("Rabatt/Premie"))
	assert.False(t, table.Has(ColReportedNAV))

	dates, ok := table.Raw(ColInvestorDate)
	require.True(t, ok)
	assert.Equal(t, "2024-12-09", dates[0], "byte order mark must be stripped from the first header")
}

func TestReadTableKeepsEmptyRecords(t *testing.T) {
	csv := "Investor Date,PRIS\n2024-12-09,100\n,\n\n2024-12-11,102\n"
	table, err := ReadTable(strings.NewReader(csv), "fund", ReadOptions{})
	require.NoError(t, err)

	// the all-empty record stays as a missing row; the blank line does not
	require.Equal(t, 3, table.Rows())
	prices, _ := table.Raw(ColPrice)
	assert.Equal(t, []string{"100", "", "102"}, prices)

	stats, err := table.NormalizeNumeric(nil, ColPrice)
	require.NoError(t, err)
	assert.Equal(t, 0, stats[ColPrice])
	p, _ := table.Numeric(ColPrice)
	assert.True(t, math.IsNaN(p[1]))
}

func TestReadCSVMissingFile(t *testing.T) {
	_, err := ReadCSV(filepath.Join(t.TempDir(), "absent.csv"), ReadOptions{})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}

func TestReadTableSemicolon(t *testing.T) {
	table, err := ReadTable(strings.NewReader("a;b\n1;2\n3\n"), "semi", ReadOptions{Comma: ';'})
	require.NoError(t, err)
	b, _ := table.Raw("b")
	assert.Equal(t, []string{"2", ""}, b, "short records are padded with empty cells")
}

func TestReadTableEmpty(t *testing.T) {
	_, err := ReadTable(strings.NewReader(""), "empty", ReadOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrEmptyInput))
}

func TestNormalizeNumeric(t *testing.T) {
	table, err := ReadTable(strings.NewReader(fundCSV), "fund", ReadOptions{Exclude: ExportDerivedColumns})
	require.NoError(t, err)

	logger, handler := testutil.NewTestLogger(t)
	stats, err := table.NormalizeNumeric(logger, ExploreNumeric...)
	require.NoError(t, err)

	assert.Equal(t, 1, stats[ColCalculatedNAV])
	assert.Equal(t, 1, stats[ColBenchmarkReturn])
	assert.Equal(t, 0, stats[ColPrice])
	assert.Equal(t, 2, stats.Total())

	price, ok := table.Numeric(ColPrice)
	require.True(t, ok)
	assert.Equal(t, []float64{1234.5, 1240, 1250}, []float64(price))

	bench, _ := table.Numeric(ColBenchmarkReturn)
	assert.Equal(t, 1.5, bench[0])
	assert.Equal(t, -0.5, bench[1])
	assert.True(t, math.IsNaN(bench[2]))

	testutil.AssertLogContains(t, handler, slog.LevelDebug, "cells degraded to missing")
}

func TestNormalizeNumericMissingColumn(t *testing.T) {
	table, err := ReadTable(strings.NewReader("PRIS\n1\n"), "fund", ReadOptions{})
	require.NoError(t, err)

	_, err = table.NormalizeNumeric(nil, ColPrice, ColCalculatedNAV, ColBenchmarkReturn)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrMissingColumn))
	assert.Contains(t, err.Error(), ColCalculatedNAV)
	assert.Contains(t, err.Error(), ColBenchmarkReturn)
}

func TestNormalizeOptional(t *testing.T) {
	table, err := ReadTable(strings.NewReader("PRIS\n1\n2\n"), "fund", ReadOptions{})
	require.NoError(t, err)

	_, err = table.NormalizeOptional(nil, ColPrice, ColIndexValue)
	require.NoError(t, err)

	idx, ok := table.Numeric(ColIndexValue)
	require.True(t, ok)
	assert.Len(t, idx, 2)
	assert.True(t, math.IsNaN(idx[0]))
	assert.Equal(t, []string{ColPrice, ColIndexValue}, table.Header)
}

func TestNewTableAndSetters(t *testing.T) {
	table, err := NewTable("mem", []string{"a", "b"}, map[string][]string{
		"a": {"1", "2"},
		"b": {"x", "y"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, table.Rows())

	_, err = NewTable("mem", []string{"a", "b"}, map[string][]string{"a": {"1"}, "b": {"1", "2"}})
	require.Error(t, err)

	_, err = NewTable("mem", []string{"a"}, map[string][]string{})
	assert.True(t, errors.Is(err, apperrors.ErrMissingColumn))

	require.NoError(t, table.SetNumeric("c", []float64{1, 2}))
	assert.Error(t, table.SetNumeric("d", []float64{1}))
	require.NoError(t, table.SetRaw("e", []string{"p", "q"}))
	assert.Equal(t, []string{"a", "b", "c", "e"}, table.Header)

	missing := table.NumericOrMissing("zzz")
	assert.Len(t, missing, 2)
	assert.True(t, math.IsNaN(missing[1]))
}

func TestRenameAndSelect(t *testing.T) {
	table, err := NewTable("mem", []string{ColPrice, ColInvestorDate}, map[string][]string{
		ColPrice:        {"1", "2", "3"},
		ColInvestorDate: {"2024-01-01", "2024-01-02", "2024-01-03"},
	})
	require.NoError(t, err)
	_, err = table.NormalizeNumeric(nil, ColPrice)
	require.NoError(t, err)
	_, err = table.ParseDates(ColInvestorDate)
	require.NoError(t, err)

	table.Rename(map[string]string{ColPrice: ColPriceEN, "unknown": "x"})
	assert.Equal(t, []string{ColPriceEN, ColInvestorDate}, table.Header)
	_, ok := table.Numeric(ColPriceEN)
	assert.True(t, ok)
	assert.False(t, table.Has(ColPrice))

	sel := table.Select([]int{2, 0})
	price, _ := sel.Numeric(ColPriceEN)
	assert.Equal(t, []float64{3, 1}, []float64(price))
	assert.Equal(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), sel.Dates()[0])
	// source untouched
	assert.Equal(t, 3, table.Rows())
}
