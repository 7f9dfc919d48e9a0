package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Paths contains the resolved application paths.
// Every path produced by the binaries goes through this type.
type Paths struct {
	BaseDir    string
	DataDir    string
	FiguresDir string
	LogsDir    string
}

// GetPaths resolves the configured directories against base.
// An empty base means the current working directory.
func GetPaths(base string, cfg PathsConfig) (*Paths, error) {
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %v", err)
		}
		base = wd
	}

	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory %s: %v", base, err)
	}

	resolve := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(abs, p)
	}

	return &Paths{
		BaseDir:    abs,
		DataDir:    resolve(cfg.DataDir),
		FiguresDir: resolve(cfg.FiguresDir),
		LogsDir:    resolve(cfg.LogsDir),
	}, nil
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	logger := slog.Default()

	for _, dir := range []string{p.DataDir, p.FiguresDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}
		logger.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// DataFile resolves a data file name. Absolute paths and paths that already
// exist relative to the working directory are returned unchanged.
func (p *Paths) DataFile(name string) string {
	if filepath.IsAbs(name) || FileExists(name) {
		return name
	}
	return filepath.Join(p.DataDir, name)
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// DerivedPath places "<base><suffix><ext>" next to the source file,
// e.g. data/Investor.csv -> data/Investor_preprocess.csv.
func DerivedPath(source, suffix string) string {
	dir := filepath.Dir(source)
	file := filepath.Base(source)
	ext := filepath.Ext(file)
	base := strings.TrimSuffix(file, ext)
	return filepath.Join(dir, base+suffix+ext)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs the resolved directories
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("base", p.BaseDir),
			slog.String("data", p.DataDir),
			slog.String("figures", p.FiguresDir),
			slog.String("logs", p.LogsDir),
		))
}
