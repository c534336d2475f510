package exporter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"peaktrail/internal/config"
	"peaktrail/internal/files"
	"peaktrail/internal/timeline"
	apiv1 "peaktrail/pkg/contracts/api/v1"
	"peaktrail/pkg/contracts/domain"
)

// Format is an output file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// ParseFormats parses a comma separated format list such as "csv,json".
// Duplicates are dropped and an empty list means CSV only.
func ParseFormats(s string) ([]Format, error) {
	var formats []Format
	seen := make(map[Format]bool)
	for _, part := range strings.Split(s, ",") {
		f := Format(strings.ToLower(strings.TrimSpace(part)))
		if f == "" || seen[f] {
			continue
		}
		switch f {
		case FormatCSV, FormatJSON, FormatXLSX:
		default:
			return nil, fmt.Errorf("unknown output format %q (want csv, json or xlsx)", part)
		}
		seen[f] = true
		formats = append(formats, f)
	}
	if len(formats) == 0 {
		formats = []Format{FormatCSV}
	}
	return formats, nil
}

// Options controls which files Export writes.
type Options struct {
	Formats []Format
	// PerPeak also writes timeline_<peak>.csv for every peak.
	PerPeak bool
	RunID   string
}

// Exporter writes pipeline results into the output directory.
type Exporter struct {
	paths  *config.Paths
	files  *files.Manager
	logger *slog.Logger
	now    func() time.Time
}

// NewExporter creates an exporter writing to paths.
func NewExporter(paths *config.Paths, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		paths:  paths,
		files:  files.NewManager(logger),
		logger: logger.With(slog.String("component", "exporter")),
		now:    time.Now,
	}
}

// Export writes the peak lookup, the summary report and the timeline in every
// requested format. Files are written concurrently; each one appears
// atomically. It returns the paths written.
func (e *Exporter) Export(ctx context.Context, res *timeline.Result, lookup domain.PeakLookup, opts Options) ([]string, error) {
	if res == nil {
		return nil, fmt.Errorf("no timeline result to export")
	}
	if len(opts.Formats) == 0 {
		opts.Formats = []Format{FormatCSV}
	}

	entries := NameEntries(res.Entries(), lookup)
	summary := res.TimelineSummary(opts.RunID)
	peaks := lookup.Filter(res.Peaks)

	type job struct {
		path  string
		write func(io.Writer) error
	}

	jobs := []job{
		{e.paths.PeakLookupCSV, func(w io.Writer) error {
			return WritePeaksCSV(w, lookup, CSVOptions{BOMPrefix: true})
		}},
		{e.paths.SummaryReport, func(w io.Writer) error {
			return WriteSummaryReport(w, res, lookup, opts.RunID, e.now())
		}},
	}

	for _, f := range opts.Formats {
		switch f {
		case FormatCSV:
			jobs = append(jobs, job{e.paths.TimelineCSV, func(w io.Writer) error {
				return WriteTimelineCSV(w, entries, CSVOptions{BOMPrefix: true})
			}})
		case FormatJSON:
			jobs = append(jobs, job{e.paths.TimelineJSON, func(w io.Writer) error {
				return WriteTimelineJSON(w, apiv1.TimelineResponse{Entries: entries, Peaks: peaks, Summary: summary})
			}})
		case FormatXLSX:
			jobs = append(jobs, job{e.paths.TimelineXLSX, func(w io.Writer) error {
				return WriteTimelineXLSX(w, entries, summary)
			}})
		}
	}

	if opts.PerPeak {
		order, groups := GroupByPeak(entries)
		for _, peakID := range order {
			rows := groups[peakID]
			jobs = append(jobs, job{e.paths.PeakTimelineCSV(peakID), func(w io.Writer) error {
				return WriteTimelineCSV(w, rows, CSVOptions{BOMPrefix: true})
			}})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return e.files.WriteAtomic(j.path, j.write)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	written := make([]string, len(jobs))
	for i, j := range jobs {
		written[i] = j.path
	}

	e.logger.InfoContext(ctx, "Timeline exported",
		slog.String("output_dir", e.paths.OutputDir),
		slog.Int("files", len(written)),
		slog.Int("entries", len(entries)),
		slog.Bool("per_peak", opts.PerPeak))

	return written, nil
}
