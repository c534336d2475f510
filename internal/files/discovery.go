package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// TableExtensions lists the input table formats in preference order.
var TableExtensions = []string{".csv", ".xlsx"}

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery locates input tables under a base directory.
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

func (d *Discovery) resolve(p string) string {
	if filepath.IsAbs(p) || d.basePath == "" {
		return p
	}
	return filepath.Join(d.basePath, p)
}

// FindTables lists the CSV and XLSX files in dir sorted by name. Excel lock
// files (~$name.xlsx) are skipped.
func (d *Discovery) FindTables(dir string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), "~$") {
			continue
		}
		if !IsTable(entry.Name()) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})

	return files, nil
}

// LocateTable resolves a configured table path. When the file itself is
// missing, a sibling with the same stem and another table extension is
// accepted, so exped.csv may be supplied as exped.xlsx. If several
// candidates exist the most recently modified one wins.
func (d *Discovery) LocateTable(path string) (FileInfo, error) {
	fullPath := d.resolve(path)

	if info, err := os.Stat(fullPath); err == nil && !info.IsDir() {
		return FileInfo{Path: fullPath, Name: info.Name(), Size: info.Size(), ModTime: info.ModTime()}, nil
	}

	stem := strings.TrimSuffix(fullPath, filepath.Ext(fullPath))
	var candidates []FileInfo
	for _, ext := range TableExtensions {
		candidate := stem + ext
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		candidates = append(candidates, FileInfo{Path: candidate, Name: info.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}

	latest, ok := GetLatestFile(candidates)
	if !ok {
		return FileInfo{}, fmt.Errorf("no table found for %s (tried %s): %w",
			fullPath, strings.Join(TableExtensions, ", "), os.ErrNotExist)
	}
	return latest, nil
}

// IsTable reports whether name has a supported table extension.
func IsTable(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range TableExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// IsExcel reports whether name is an XLSX workbook.
func IsExcel(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".xlsx")
}

// GetLatestFile returns the most recently modified file
func GetLatestFile(files []FileInfo) (FileInfo, bool) {
	if len(files) == 0 {
		return FileInfo{}, false
	}

	latest := files[0]
	for _, f := range files[1:] {
		if f.ModTime.After(latest.ModTime) {
			latest = f
		}
	}
	return latest, true
}
