package exporter

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"

	"peaktrail/internal/timeline"
	"peaktrail/pkg/contracts/domain"
)

// maxReportedRejections caps the rejected record listing in the report.
const maxReportedRejections = 20

// PeakStats summarizes one peak's emitted rows.
type PeakStats struct {
	PeakID       string
	Name         string
	Buckets      int
	Expeditions  int
	Successes    int
	Deaths       int
	DashedRows   int
	MaxMagnitude float64
	MaxBucket    string
}

// CalculatePeakStats groups scaled rows by peak, keeping result peak order.
func CalculatePeakStats(res *timeline.Result, lookup domain.PeakLookup) []PeakStats {
	byPeak := make(map[string][]timeline.ScaledRow)
	var order []string
	for _, row := range res.Rows {
		if _, ok := byPeak[row.PeakID]; !ok {
			order = append(order, row.PeakID)
		}
		byPeak[row.PeakID] = append(byPeak[row.PeakID], row)
	}

	stats := make([]PeakStats, 0, len(order))
	for _, id := range order {
		rows := byPeak[id]
		s := PeakStats{PeakID: id, Name: lookup.Name(id), Buckets: len(rows)}
		if id == "" {
			s.Name = combinedSheet
		}

		mags := make([]float64, len(rows))
		for i, r := range rows {
			mags[i] = r.Magnitude
			s.Expeditions += r.Expeditions
			s.Successes += r.Successes
			s.Deaths += r.Deaths
			if r.Dashed {
				s.DashedRows++
			}
		}
		if len(mags) > 0 {
			i := floats.MaxIdx(mags)
			s.MaxMagnitude = mags[i]
			s.MaxBucket = rows[i].Bucket.String()
		}
		stats = append(stats, s)
	}
	return stats
}

// WriteSummaryReport writes a plain text report of a pipeline run.
func WriteSummaryReport(w io.Writer, res *timeline.Result, lookup domain.PeakLookup, runID string, generated time.Time) error {
	if res == nil {
		return fmt.Errorf("no timeline result to report")
	}

	s := res.Summary
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "PeakTrail Expedition Timeline - Summary Report\n")
	fmt.Fprintf(bw, "==============================================\n\n")
	fmt.Fprintf(bw, "Generated: %s\n", generated.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(bw, "Run ID: %s\n\n", runID)

	fmt.Fprintf(bw, "DATASET OVERVIEW\n")
	fmt.Fprintf(bw, "----------------\n")
	fmt.Fprintf(bw, "Records Read: %d\n", s.RecordsRead)
	fmt.Fprintf(bw, "Facts Kept: %d\n", s.FactsKept)
	fmt.Fprintf(bw, "Records Rejected: %d\n", s.RecordsRejected)
	fmt.Fprintf(bw, "Records Dropped: %d\n", s.RecordsDropped)
	for _, reason := range sortedReasons(res.Reconcile.Dropped) {
		fmt.Fprintf(bw, "  %s: %d\n", reason, res.Reconcile.Dropped[reason])
	}
	fmt.Fprintf(bw, "\n")

	fmt.Fprintf(bw, "TIMELINE\n")
	fmt.Fprintf(bw, "--------\n")
	fmt.Fprintf(bw, "Granularity: %s\n", s.Granularity)
	fmt.Fprintf(bw, "Peaks: %d (%s)\n", s.Peaks, strings.Join(displayPeaks(res.Peaks), ", "))
	fmt.Fprintf(bw, "Dense Rows: %d\n", s.DenseRows)
	fmt.Fprintf(bw, "Emitted Rows: %d\n", s.EmittedRows)
	fmt.Fprintf(bw, "Dashed Rows: %d\n", s.DashedRows)
	fmt.Fprintf(bw, "High Death Rate Rows: %d\n", s.HighDeathRows)
	fmt.Fprintf(bw, "High Success Rate Rows: %d\n", s.HighSuccessRows)
	fmt.Fprintf(bw, "Mean Magnitude: %.4f\n\n", s.MeanMagnitude)

	fmt.Fprintf(bw, "TOTALS\n")
	fmt.Fprintf(bw, "------\n")
	fmt.Fprintf(bw, "Expeditions: %d\n", s.Totals.Expeditions)
	fmt.Fprintf(bw, "Successes: %d\n", s.Totals.Successes)
	fmt.Fprintf(bw, "Deaths: %d\n", s.Totals.Deaths)
	fmt.Fprintf(bw, "Members: %d\n", s.Totals.Members)
	fmt.Fprintf(bw, "Summiters: %d\n\n", s.Totals.Summits)

	fmt.Fprintf(bw, "PER PEAK\n")
	fmt.Fprintf(bw, "--------\n")
	for _, p := range CalculatePeakStats(res, lookup) {
		fmt.Fprintf(bw, "%-10s %-24s buckets=%d expeditions=%d successes=%d deaths=%d dashed=%d max=%.4f (%s)\n",
			displayPeak(p.PeakID), p.Name, p.Buckets, p.Expeditions, p.Successes, p.Deaths, p.DashedRows, p.MaxMagnitude, p.MaxBucket)
	}
	fmt.Fprintf(bw, "\n")

	if len(res.Stages) > 0 {
		fmt.Fprintf(bw, "STAGES\n")
		fmt.Fprintf(bw, "------\n")
		for _, st := range res.Stages {
			fmt.Fprintf(bw, "%-10s %6d -> %-6d %s\n", st.Name, st.RowsIn, st.RowsOut, st.Duration.Round(time.Microsecond))
		}
		fmt.Fprintf(bw, "\n")
	}

	if n := len(res.Reconcile.Rejected); n > 0 {
		fmt.Fprintf(bw, "REJECTED RECORDS\n")
		fmt.Fprintf(bw, "----------------\n")
		for i, rej := range res.Reconcile.Rejected {
			if i == maxReportedRejections {
				fmt.Fprintf(bw, "... and %d more\n", n-maxReportedRejections)
				break
			}
			fmt.Fprintf(bw, "line %d: %s %s=%q\n", rej.Line, rej.ExpID, rej.Field, rej.Value)
		}
	}

	return bw.Flush()
}

func sortedReasons(dropped map[timeline.DropReason]int) []timeline.DropReason {
	reasons := make([]timeline.DropReason, 0, len(dropped))
	for r, n := range dropped {
		if n > 0 {
			reasons = append(reasons, r)
		}
	}
	sort.Slice(reasons, func(i, j int) bool { return reasons[i] < reasons[j] })
	return reasons
}

func displayPeak(id string) string {
	if id == "" {
		return "(all)"
	}
	return id
}

func displayPeaks(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = displayPeak(id)
	}
	return out
}
