package timeline

import "time"

// Fact is one reconciled expedition that passed every filter.
type Fact struct {
	ExpID    string
	PeakID   string
	Bucket   BucketKey
	Date     time.Time // zero unless the granularity is date based
	Deaths   int
	Members  int
	Summits  int
	Success  bool
	Occurred bool
}

// AggregateRow sums the facts that share a bucket (and peak, when grouping
// by peak).
type AggregateRow struct {
	PeakID      string
	Bucket      BucketKey
	Deaths      int
	Members     int
	Summits     int
	Successes   int
	Expeditions int
}

// DenseRow is an aggregate row placed on the full bucket grid. Rows filled
// in by the densifier have zero counts and Occurred == false.
type DenseRow struct {
	AggregateRow
	Occurred bool
}

// FlaggedRow carries the rate-derived flags for a dense row.
type FlaggedRow struct {
	DenseRow
	HighDeathRate   bool
	HighSuccessRate bool
	SafeSeason      bool
}

// ScaledRow is a flagged row with its visual magnitude. Index is the row's
// position among its peak's emitted rows.
type ScaledRow struct {
	FlaggedRow
	Magnitude float64
	Dashed    bool
	Index     int
}

// Totals holds summed counts used for conservation checks and summaries.
type Totals struct {
	Deaths      int `json:"deaths"`
	Members     int `json:"members"`
	Summits     int `json:"summits"`
	Successes   int `json:"successes"`
	Expeditions int `json:"expeditions"`
}

// SumFacts totals a fact set.
func SumFacts(facts []Fact) Totals {
	var t Totals
	for _, f := range facts {
		t.Deaths += f.Deaths
		t.Members += f.Members
		t.Summits += f.Summits
		if f.Success {
			t.Successes++
		}
		t.Expeditions++
	}
	return t
}

// SumAggregates totals a set of aggregate rows.
func SumAggregates(rows []AggregateRow) Totals {
	var t Totals
	for _, r := range rows {
		t.Deaths += r.Deaths
		t.Members += r.Members
		t.Summits += r.Summits
		t.Successes += r.Successes
		t.Expeditions += r.Expeditions
	}
	return t
}
