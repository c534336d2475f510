package timeline

import "sort"

type groupKey struct {
	peak   string
	bucket BucketKey
}

// Aggregate sums facts sharing a bucket. With byPeak the peak is part of the
// key; otherwise every fact is pooled under an empty peak ID. Each distinct
// key appears exactly once in the result. Peaks are ordered by their first
// appearance in facts, buckets chronologically within a peak.
func Aggregate(facts []Fact, byPeak bool) []AggregateRow {
	index := make(map[groupKey]int, len(facts))
	peakRank := make(map[string]int)
	rows := make([]AggregateRow, 0)

	for _, f := range facts {
		k := groupKey{bucket: f.Bucket}
		if byPeak {
			k.peak = f.PeakID
		}

		if _, ok := peakRank[k.peak]; !ok {
			peakRank[k.peak] = len(peakRank)
		}

		i, ok := index[k]
		if !ok {
			i = len(rows)
			index[k] = i
			rows = append(rows, AggregateRow{PeakID: k.peak, Bucket: k.bucket})
		}

		r := &rows[i]
		r.Deaths += f.Deaths
		r.Members += f.Members
		r.Summits += f.Summits
		r.Expeditions++
		if f.Success {
			r.Successes++
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].PeakID != rows[j].PeakID {
			return peakRank[rows[i].PeakID] < peakRank[rows[j].PeakID]
		}
		return rows[i].Bucket.Less(rows[j].Bucket)
	})

	return rows
}

// FilterPeaks keeps the rows whose peak is in peaks.
func FilterPeaks(rows []AggregateRow, peaks []string) []AggregateRow {
	keep := make(map[string]bool, len(peaks))
	for _, p := range peaks {
		keep[p] = true
	}

	out := make([]AggregateRow, 0, len(rows))
	for _, r := range rows {
		if keep[r.PeakID] {
			out = append(out, r)
		}
	}
	return out
}
