package files

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/trendscenter/nvflare-csv-analyzer/internal/config"
)

var (
	csvNamePattern      = regexp.MustCompile(config.CSVFilePattern)
	workbookNamePattern = regexp.MustCompile(config.WorkbookFilePattern)
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
	IsDir   bool
}

// Discovery provides file discovery operations
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// FindCSVFiles finds all delimited text files (csv, tsv, txt) in the
// specified directory, sorted by name for stable batch order.
func (d *Discovery) FindCSVFiles(dir string) ([]FileInfo, error) {
	return d.findByName(dir, func(name string) bool {
		return csvNamePattern.MatchString(strings.ToLower(name))
	})
}

// FindWorkbookFiles finds all spreadsheet workbooks (xlsx, xls) in the
// specified directory, skipping editor lock files.
func (d *Discovery) FindWorkbookFiles(dir string) ([]FileInfo, error) {
	return d.findByName(dir, func(name string) bool {
		if strings.HasPrefix(name, "~$") {
			return false
		}
		return workbookNamePattern.MatchString(strings.ToLower(name))
	})
}

// FindInputFiles finds every auditable file in the directory: delimited
// text files and workbooks together, sorted by name.
func (d *Discovery) FindInputFiles(dir string) ([]FileInfo, error) {
	return d.findByName(dir, func(name string) bool {
		if strings.HasPrefix(name, "~$") {
			return false
		}
		lower := strings.ToLower(name)
		return csvNamePattern.MatchString(lower) || workbookNamePattern.MatchString(lower)
	})
}

func (d *Discovery) findByName(dir string, match func(string) bool) ([]FileInfo, error) {
	fullPath := d.resolveDir(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !match(name) {
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
			IsDir:   false,
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})

	return files, nil
}

// FindFilesByPattern finds files matching a glob pattern
func (d *Discovery) FindFilesByPattern(dir string, pattern string) ([]FileInfo, error) {
	fullPath := d.resolveDir(dir)
	searchPattern := filepath.Join(fullPath, pattern)

	matches, err := filepath.Glob(searchPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
	}

	var files []FileInfo
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil {
			continue
		}

		if !info.IsDir() {
			files = append(files, FileInfo{
				Path:    match,
				Name:    filepath.Base(match),
				Size:    info.Size(),
				ModTime: info.ModTime(),
				IsDir:   false,
			})
		}
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})

	return files, nil
}

// ListDirectories lists all subdirectories in the specified directory
func (d *Discovery) ListDirectories(dir string) ([]FileInfo, error) {
	fullPath := d.resolveDir(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var dirs []FileInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		dirs = append(dirs, FileInfo{
			Path:    filepath.Join(fullPath, entry.Name()),
			Name:    entry.Name(),
			Size:    0,
			ModTime: info.ModTime(),
			IsDir:   true,
		})
	}

	return dirs, nil
}

// resolveDir resolves a directory against the base path unless it is
// already absolute.
func (d *Discovery) resolveDir(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(d.basePath, dir)
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
