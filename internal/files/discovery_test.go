package files

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string, mod time.Time) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func names(files []FileInfo) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Name
	}
	return out
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		want Kind
	}{
		{"Investor.csv", KindFundExport},
		{"data/Latour.CSV", KindFundExport},
		{"Investor_preprocess.csv", KindPreprocessed},
		{"Industrivarden_vanlig2_test.csv", KindJoined},
		{"full_OMXS30.xlsx", KindWorkbook},
		{"old.xls", KindWorkbook},
		{"~$full_OMXS30.xlsx", KindOther},
		{".hidden.csv", KindOther},
		{"notes.txt", KindOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.name))
		})
	}
}

func TestFind(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "data")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub.csv"), 0755))

	now := time.Now()
	touch(t, dir, "Latour.csv", now)
	touch(t, dir, "Investor.csv", now)
	touch(t, dir, "OMXS30.csv", now)
	touch(t, dir, "Investor_preprocess.csv", now)
	touch(t, dir, "Investor_test.csv", now)
	touch(t, dir, "new.xlsx", now)
	touch(t, dir, "old.xlsx", now.Add(-time.Hour))
	touch(t, dir, "~$new.xlsx", now)

	d := NewDiscovery(base)
	d.Skip = []string{"OMXS30.csv"}

	funds, err := d.FindFundExports("data")
	require.NoError(t, err)
	assert.Equal(t, []string{"Investor.csv", "Latour.csv"}, names(funds))
	assert.Equal(t, filepath.Join(dir, "Investor.csv"), funds[0].Path)

	pre, err := d.FindPreprocessed(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"Investor_preprocess.csv"}, names(pre))

	books, err := d.FindWorkbooks("data")
	require.NoError(t, err)
	assert.Equal(t, []string{"old.xlsx", "new.xlsx"}, names(books))

	latest, ok := GetLatestFile(books)
	require.True(t, ok)
	assert.Equal(t, "new.xlsx", latest.Name)

	assert.Equal(t, []string{filepath.Join(dir, "Investor_preprocess.csv")}, Paths(pre))
}

func TestFindMissingDirectory(t *testing.T) {
	_, err := NewDiscovery(t.TempDir()).FindFundExports("absent")
	assert.Error(t, err)
}

func TestGetLatestFileEmpty(t *testing.T) {
	_, ok := GetLatestFile(nil)
	assert.False(t, ok)
}
