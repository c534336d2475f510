package exporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	apiv1 "peaktrail/pkg/contracts/api/v1"
	"peaktrail/pkg/contracts/domain"
)

// utf8BOM helps Excel recognize UTF-8 CSV files.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// TimelineHeaders is the column order of every timeline CSV.
var TimelineHeaders = []string{
	"peak_id",
	"peak_name",
	"bucket_index",
	"bucket",
	"year",
	"season",
	"magnitude",
	"is_dashed",
	"high_death_rate",
	"high_success_rate",
	"deaths",
	"expeditions",
}

// PeakHeaders is the column order of the peak lookup CSV.
var PeakHeaders = []string{"peak_id", "peak_name"}

// CSVOptions configures CSV writing behavior
type CSVOptions struct {
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// NameEntries fills PeakName from lookup. Entries without a peak id
// (combined timelines) are left unnamed.
func NameEntries(entries []domain.TimelineEntry, lookup domain.PeakLookup) []domain.TimelineEntry {
	for i := range entries {
		if entries[i].PeakID != "" {
			entries[i].PeakName = lookup.Name(entries[i].PeakID)
		}
	}
	return entries
}

// GroupByPeak splits entries by peak, keeping the order in which peaks first
// appear.
func GroupByPeak(entries []domain.TimelineEntry) (order []string, groups map[string][]domain.TimelineEntry) {
	groups = make(map[string][]domain.TimelineEntry)
	for _, e := range entries {
		if _, ok := groups[e.PeakID]; !ok {
			order = append(order, e.PeakID)
		}
		groups[e.PeakID] = append(groups[e.PeakID], e)
	}
	return order, groups
}

func entryRecord(e domain.TimelineEntry) []string {
	return []string{
		e.PeakID,
		e.PeakName,
		formatInt(int64(e.BucketIndex)),
		e.Bucket,
		formatInt(int64(e.Year)),
		e.Season,
		formatFloat(e.Magnitude),
		formatBool(e.IsDashed),
		formatBool(e.HighDeathRate),
		formatBool(e.HighSuccessRate),
		formatInt(int64(e.Deaths)),
		formatInt(int64(e.Expeditions)),
	}
}

// WriteTimelineCSV writes entries as CSV with a header row.
func WriteTimelineCSV(w io.Writer, entries []domain.TimelineEntry, opts CSVOptions) error {
	return writeCSV(w, TimelineHeaders, len(entries), func(i int) []string {
		return entryRecord(entries[i])
	}, opts)
}

// WritePeaksCSV writes the peak lookup as CSV, in lookup order.
func WritePeaksCSV(w io.Writer, peaks domain.PeakLookup, opts CSVOptions) error {
	return writeCSV(w, PeakHeaders, len(peaks), func(i int) []string {
		return []string{peaks[i].ID, peaks[i].Name}
	}, opts)
}

func writeCSV(w io.Writer, headers []string, n int, record func(int) []string, opts CSVOptions) error {
	if opts.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i := 0; i < n; i++ {
		if err := writer.Write(record(i)); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteTimelineJSON writes the API response shape as indented JSON.
func WriteTimelineJSON(w io.Writer, resp apiv1.TimelineResponse) error {
	if resp.Entries == nil {
		resp.Entries = []domain.TimelineEntry{}
	}
	if resp.Peaks == nil {
		resp.Peaks = []domain.Peak{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		return fmt.Errorf("failed to encode timeline: %w", err)
	}
	return nil
}
