package timeline

import (
	"fmt"
	"sort"
	"strings"
)

// PeakSelector chooses which peaks make up the densifier's peak axis.
type PeakSelector interface {
	// Select returns the kept peak IDs in axis order.
	Select(rows []AggregateRow) ([]string, error)
	String() string
}

// TopN keeps the N peaks with the most expeditions. Peaks with equal totals
// keep the order in which they first appear in the aggregate rows, which
// Aggregate preserves from the input records, so the same input always yields
// the same selection.
type TopN struct {
	N int
}

// Select implements PeakSelector
func (s TopN) Select(rows []AggregateRow) ([]string, error) {
	if s.N <= 0 {
		return nil, &ValidationError{Field: "top_n", Message: "must be positive", Value: s.N}
	}

	type peakTotal struct {
		id    string
		total int
	}

	index := make(map[string]int)
	var totals []peakTotal
	for _, r := range rows {
		i, ok := index[r.PeakID]
		if !ok {
			i = len(totals)
			index[r.PeakID] = i
			totals = append(totals, peakTotal{id: r.PeakID})
		}
		totals[i].total += r.Expeditions
	}

	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].total > totals[j].total
	})

	n := s.N
	if n > len(totals) {
		n = len(totals)
	}

	peaks := make([]string, n)
	for i := 0; i < n; i++ {
		peaks[i] = totals[i].id
	}
	return peaks, nil
}

func (s TopN) String() string {
	return fmt.Sprintf("top-%d", s.N)
}

// Fixed keeps an explicit list of peaks. Listed peaks without data still get
// a row of zeroes on the grid.
type Fixed struct {
	IDs []string
}

// Select implements PeakSelector
func (s Fixed) Select(_ []AggregateRow) ([]string, error) {
	seen := make(map[string]bool, len(s.IDs))
	peaks := make([]string, 0, len(s.IDs))
	for _, id := range s.IDs {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		peaks = append(peaks, id)
	}

	if len(peaks) == 0 {
		return nil, &ValidationError{Field: "peaks", Message: "at least one peak ID is required"}
	}
	return peaks, nil
}

func (s Fixed) String() string {
	return "fixed:" + strings.Join(s.IDs, ",")
}

// All keeps every peak present in the data, ordered by ID.
type All struct{}

// Select implements PeakSelector
func (All) Select(rows []AggregateRow) ([]string, error) {
	seen := make(map[string]bool)
	var peaks []string
	for _, r := range rows {
		if !seen[r.PeakID] {
			seen[r.PeakID] = true
			peaks = append(peaks, r.PeakID)
		}
	}
	sort.Strings(peaks)
	return peaks, nil
}

func (All) String() string {
	return "all"
}

// Combined pools every peak into a single series with an empty peak ID.
type Combined struct{}

// Select implements PeakSelector
func (Combined) Select(_ []AggregateRow) ([]string, error) {
	return []string{""}, nil
}

func (Combined) String() string {
	return "combined"
}

func groupsByPeak(s PeakSelector) bool {
	_, combined := s.(Combined)
	return !combined
}
