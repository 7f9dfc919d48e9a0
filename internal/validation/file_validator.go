package validation

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "navpulse/internal/errors"
)

// FileValidator checks job inputs before any of them is read
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateFile checks that path is an existing, readable, non-empty file
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist", slog.String("file", path))
		return apperrors.NewNotFoundError("file " + path)
	}
	if err != nil {
		return apperrors.NewStorageError("failed to stat "+path, err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file", slog.String("path", path))
		return apperrors.NewValidationError(path+" is a directory, not a file", nil)
	}
	if info.Size() == 0 {
		v.logger.Error("File is empty", slog.String("file", path))
		return apperrors.NewValidationError(path+" is empty", apperrors.ErrEmptyInput)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(path+" is not readable", err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

func (v *FileValidator) validateExt(path string, exts ...string) error {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return nil
		}
	}
	v.logger.Error("Unexpected file extension",
		slog.String("file", path),
		slog.String("extension", ext))
	return apperrors.NewValidationError(
		fmt.Sprintf("%s: extension %q, want %s", path, ext, strings.Join(exts, " or ")), nil)
}

// ValidateCSVFile checks that path is a usable .csv file
func (v *FileValidator) ValidateCSVFile(path string) error {
	if err := v.validateExt(path, ".csv"); err != nil {
		return err
	}
	return v.ValidateFile(path)
}

// ValidateExcelFile checks that path is a usable workbook and not an Excel
// lock file
func (v *FileValidator) ValidateExcelFile(path string) error {
	if err := v.validateExt(path, ".xlsx", ".xlsm"); err != nil {
		return err
	}
	if strings.HasPrefix(filepath.Base(path), "~$") {
		v.logger.Warn("Skipping temporary Excel file", slog.String("file", path))
		return apperrors.NewValidationError(path+" is a temporary Excel file", nil)
	}
	return v.ValidateFile(path)
}

// ValidateCSVFiles checks every path and reports all problems at once
func (v *FileValidator) ValidateCSVFiles(paths []string) error {
	if len(paths) == 0 {
		return apperrors.NewValidationError("no input files", apperrors.ErrEmptyInput)
	}
	var errs []error
	for _, p := range paths {
		if err := v.ValidateCSVFile(p); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	v.logger.Info("Input files validated", slog.Int("files", len(paths)))
	return nil
}

// ValidateOutputDirectory ensures output directory exists and is writable
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError("failed to create output directory "+dir, err)
	}

	probe, err := os.CreateTemp(dir, ".write_test")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError("output directory "+dir+" is not writable", err)
	}
	name := probe.Name()
	probe.Close()
	os.Remove(name)

	v.logger.Debug("Output directory validated", slog.String("directory", dir))
	return nil
}
