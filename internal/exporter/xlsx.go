package exporter

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"peaktrail/pkg/contracts/domain"
)

const (
	summarySheet  = "Summary"
	combinedSheet = "Combined"
)

var invalidSheetChars = strings.NewReplacer(
	":", "_", "\\", "_", "/", "_", "?", "_", "*", "_", "[", "_", "]", "_",
)

// SheetName turns a peak id into a valid worksheet name.
func SheetName(peakID string) string {
	name := strings.Trim(invalidSheetChars.Replace(strings.TrimSpace(peakID)), "'")
	if name == "" {
		return combinedSheet
	}
	if utf8.RuneCountInString(name) > excelize.MaxSheetNameLength {
		name = string([]rune(name)[:excelize.MaxSheetNameLength])
	}
	return name
}

// WriteTimelineXLSX writes a workbook with a summary sheet followed by one
// sheet per peak, in the order peaks first appear in entries.
func WriteTimelineXLSX(w io.Writer, entries []domain.TimelineEntry, summary domain.TimelineSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("failed to rename default sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeSummarySheet(f, summary, bold); err != nil {
		return err
	}

	order, groups := GroupByPeak(entries)
	seen := map[string]bool{strings.ToLower(summarySheet): true}
	for _, peakID := range order {
		sheet := SheetName(peakID)
		if seen[strings.ToLower(sheet)] {
			return fmt.Errorf("duplicate sheet name %q for peak %q", sheet, peakID)
		}
		seen[strings.ToLower(sheet)] = true

		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
		}
		if err := writeTimelineSheet(f, sheet, groups[peakID], bold); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, s domain.TimelineSummary, bold int) error {
	sw, err := f.NewStreamWriter(summarySheet)
	if err != nil {
		return fmt.Errorf("failed to open summary sheet: %w", err)
	}
	if err := sw.SetColWidth(1, 1, 22); err != nil {
		return err
	}

	rows := [][]interface{}{
		{"run_id", s.RunID},
		{"granularity", s.Granularity},
		{"peaks", strings.Join(s.Peaks, ", ")},
		{"records_read", s.RecordsRead},
		{"facts_kept", s.FactsKept},
		{"records_rejected", s.RecordsRejected},
		{"records_dropped", s.RecordsDropped},
		{"dense_rows", s.DenseRows},
		{"emitted_rows", s.EmittedRows},
		{"dashed_rows", s.DashedRows},
		{"high_death_rows", s.HighDeathRows},
		{"high_success_rows", s.HighSuccessRows},
		{"total_expeditions", s.TotalExpeditions},
		{"total_successes", s.TotalSuccesses},
		{"total_deaths", s.TotalDeaths},
		{"mean_magnitude", s.MeanMagnitude},
	}

	if err := sw.SetRow("A1", []interface{}{"metric", "value"}, excelize.RowOpts{StyleID: bold}); err != nil {
		return fmt.Errorf("failed to write summary header: %w", err)
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write summary row %d: %w", i, err)
		}
	}
	return sw.Flush()
}

func writeTimelineSheet(f *excelize.File, sheet string, entries []domain.TimelineEntry, bold int) error {
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("failed to open sheet %s: %w", sheet, err)
	}

	header := make([]interface{}, len(TimelineHeaders))
	for i, h := range TimelineHeaders {
		header[i] = h
	}
	if err := sw.SetRow("A1", header, excelize.RowOpts{StyleID: bold}); err != nil {
		return fmt.Errorf("failed to write header of %s: %w", sheet, err)
	}

	for i, e := range entries {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{
			e.PeakID, e.PeakName, e.BucketIndex, e.Bucket, e.Year, e.Season,
			e.Magnitude, e.IsDashed, e.HighDeathRate, e.HighSuccessRate,
			e.Deaths, e.Expeditions,
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i, sheet, err)
		}
	}
	return sw.Flush()
}
