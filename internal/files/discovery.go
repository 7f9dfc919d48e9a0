package files

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"navpulse/internal/config"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Kind classifies a file found in the data directory
type Kind int

const (
	KindOther Kind = iota
	// KindFundExport is a raw price/NAV export such as Investor.csv
	KindFundExport
	// KindPreprocessed is a preprocess output such as Investor_preprocess.csv
	KindPreprocessed
	// KindJoined is an indexcsv company join such as Investor_test.csv
	KindJoined
	// KindWorkbook is a spreadsheet export
	KindWorkbook
)

// Classify tells the kind of a file from its name. Excel lock files
// ("~$book.xlsx") and hidden files are KindOther.
func Classify(name string) Kind {
	base := filepath.Base(name)
	if strings.HasPrefix(base, "~$") || strings.HasPrefix(base, ".") {
		return KindOther
	}
	ext := strings.ToLower(filepath.Ext(base))
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	switch ext {
	case ".xlsx", ".xls":
		return KindWorkbook
	case ".csv":
		switch {
		case strings.HasSuffix(stem, config.PreprocessSuffix):
			return KindPreprocessed
		case strings.HasSuffix(stem, config.JoinedSuffix):
			return KindJoined
		}
		return KindFundExport
	}
	return KindOther
}

// Discovery finds input files below a base directory
type Discovery struct {
	basePath string
	// Skip lists file names never returned, e.g. the index csv
	Skip []string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

func (d *Discovery) resolve(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}

// Find lists the files of the given kind in dir, sorted by name
func (d *Discovery) Find(dir string, kind Kind) ([]FileInfo, error) {
	fullPath := d.resolve(dir)
	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || Classify(name) != kind || slices.Contains(d.Skip, name) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// FindFundExports lists the raw fund exports in dir
func (d *Discovery) FindFundExports(dir string) ([]FileInfo, error) {
	return d.Find(dir, KindFundExport)
}

// FindPreprocessed lists the preprocess outputs in dir
func (d *Discovery) FindPreprocessed(dir string) ([]FileInfo, error) {
	return d.Find(dir, KindPreprocessed)
}

// FindWorkbooks lists the spreadsheets in dir, oldest first
func (d *Discovery) FindWorkbooks(dir string) ([]FileInfo, error) {
	files, err := d.Find(dir, KindWorkbook)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(files, func(i, j int) bool { return files[i].ModTime.Before(files[j].ModTime) })
	return files, nil
}

// GetLatestFile returns the most recently modified file from a list
func GetLatestFile(files []FileInfo) (FileInfo, bool) {
	if len(files) == 0 {
		return FileInfo{}, false
	}

	latest := files[0]
	for _, file := range files[1:] {
		if file.ModTime.After(latest.ModTime) {
			latest = file
		}
	}
	return latest, true
}

// Paths returns the path of every file
func Paths(files []FileInfo) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}
