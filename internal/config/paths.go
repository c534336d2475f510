package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Paths contains every resolved file system location the application uses.
// This is the single source of truth for input and output file names.
type Paths struct {
	BaseDir   string
	InputDir  string
	OutputDir string
	LogsDir   string

	ExpeditionsFile string
	PeaksFile       string

	TimelineCSV   string
	TimelineJSON  string
	TimelineXLSX  string
	PeakLookupCSV string
	SummaryReport string
}

// Resolve turns the configured paths into absolute ones. Input file names
// that are already absolute are used as is.
func (c PathsConfig) Resolve() (*Paths, error) {
	base := c.BaseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		base = wd
	}

	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	abs := func(dir, p string) string {
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(dir, p)
	}

	inputDir := abs(base, c.InputDir)
	outputDir := abs(base, c.OutputDir)

	return &Paths{
		BaseDir:         base,
		InputDir:        inputDir,
		OutputDir:       outputDir,
		LogsDir:         abs(base, c.LogsDir),
		ExpeditionsFile: abs(inputDir, c.ExpeditionsFile),
		PeaksFile:       abs(inputDir, c.PeaksFile),
		TimelineCSV:     filepath.Join(outputDir, TimelineCSVName),
		TimelineJSON:    filepath.Join(outputDir, TimelineJSONName),
		TimelineXLSX:    filepath.Join(outputDir, TimelineXLSXName),
		PeakLookupCSV:   filepath.Join(outputDir, PeakLookupCSVName),
		SummaryReport:   filepath.Join(outputDir, SummaryReportName),
	}, nil
}

// EnsureDirectories creates the output and log directories if they don't
// exist. The input directory is never created.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.OutputDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}
	return nil
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// PeakTimelineCSV returns the per-peak timeline file, timeline_<peak>.csv.
func (p *Paths) PeakTimelineCSV(peakID string) string {
	name := unsafeFileChars.ReplaceAllString(strings.TrimSpace(peakID), "_")
	if name == "" {
		name = "combined"
	}
	return filepath.Join(p.OutputDir, fmt.Sprintf("timeline_%s.csv", name))
}

// LogPathResolution logs every resolved path at debug level
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("Path resolution",
		slog.Group("dirs",
			slog.String("base", p.BaseDir),
			slog.String("input", p.InputDir),
			slog.String("output", p.OutputDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("inputs",
			slog.String("expeditions", p.ExpeditionsFile),
			slog.Bool("expeditions_exists", FileExists(p.ExpeditionsFile)),
			slog.String("peaks", p.PeaksFile),
			slog.Bool("peaks_exists", FileExists(p.PeaksFile)),
		),
	)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
