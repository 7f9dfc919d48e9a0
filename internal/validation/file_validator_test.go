package validation

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "navpulse/internal/errors"
	"navpulse/internal/shared/testutil"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestFileValidator_ValidateCSVFile(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name     string
		path     string
		wantType apperrors.ErrorType
	}{
		{name: "valid", path: writeFile(t, dir, "Investor.csv", "PRIS\n1\n")},
		{name: "missing", path: filepath.Join(dir, "Latour.csv"), wantType: apperrors.ErrTypeNotFound},
		{name: "empty", path: writeFile(t, dir, "empty.csv", ""), wantType: apperrors.ErrTypeValidation},
		{name: "wrong extension", path: writeFile(t, dir, "notes.txt", "x"), wantType: apperrors.ErrTypeValidation},
		{name: "directory", path: func() string {
			p := filepath.Join(dir, "sub.csv")
			require.NoError(t, os.Mkdir(p, 0755))
			return p
		}(), wantType: apperrors.ErrTypeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			err := NewFileValidator(logger).ValidateCSVFile(tt.path)
			if tt.wantType == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, tt.wantType), err.Error())
		})
	}
}

func TestFileValidator_EmptyFileIsEmptyInput(t *testing.T) {
	path := writeFile(t, t.TempDir(), "empty.csv", "")
	err := NewFileValidator(nil).ValidateFile(path)
	assert.True(t, errors.Is(err, apperrors.ErrEmptyInput))
}

func TestFileValidator_ValidateExcelFile(t *testing.T) {
	dir := t.TempDir()
	v := NewFileValidator(nil)

	assert.NoError(t, v.ValidateExcelFile(writeFile(t, dir, "full_OMXS30.xlsx", "PK")))
	assert.Error(t, v.ValidateExcelFile(writeFile(t, dir, "~$full_OMXS30.xlsx", "PK")))
	assert.Error(t, v.ValidateExcelFile(writeFile(t, dir, "index.csv", "a")))
}

func TestFileValidator_ValidateCSVFilesReportsAll(t *testing.T) {
	dir := t.TempDir()
	logger, handler := testutil.NewTestLogger(t)
	v := NewFileValidator(logger)

	good := writeFile(t, dir, "Investor.csv", "PRIS\n1\n")
	require.NoError(t, v.ValidateCSVFiles([]string{good}))
	testutil.AssertLogAttr(t, handler, "files", int64(1))

	err := v.ValidateCSVFiles([]string{good, filepath.Join(dir, "a.csv"), filepath.Join(dir, "b.csv")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a.csv")
	assert.Contains(t, err.Error(), "b.csv")

	assert.ErrorIs(t, v.ValidateCSVFiles(nil), apperrors.ErrEmptyInput)
}

func TestFileValidator_ValidateOutputDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "figs", "nested")
	require.NoError(t, NewFileValidator(nil).ValidateOutputDirectory(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
