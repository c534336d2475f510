package timeline

import "math"

// Default rate thresholds.
const (
	DefaultDeathRateThreshold   = 0.05
	DefaultSuccessRateThreshold = 0.5
)

// Thresholds holds the strict lower bounds above which a bucket is flagged.
type Thresholds struct {
	DeathRate   float64 `json:"death_rate" yaml:"death_rate" validate:"gte=0,lte=1"`
	SuccessRate float64 `json:"success_rate" yaml:"success_rate" validate:"gte=0,lte=1"`
}

// DefaultThresholds returns the standard thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{DeathRate: DefaultDeathRateThreshold, SuccessRate: DefaultSuccessRateThreshold}
}

// Validate checks both thresholds are finite and non-negative.
func (t Thresholds) Validate() error {
	if t.DeathRate < 0 || math.IsNaN(t.DeathRate) || math.IsInf(t.DeathRate, 0) {
		return &ValidationError{Field: "death_rate", Message: "must be a finite non-negative number", Value: t.DeathRate}
	}
	if t.SuccessRate < 0 || math.IsNaN(t.SuccessRate) || math.IsInf(t.SuccessRate, 0) {
		return &ValidationError{Field: "success_rate", Message: "must be a finite non-negative number", Value: t.SuccessRate}
	}
	return nil
}

// DeathRate returns deaths per member, or 0 when the bucket has no members.
func DeathRate(r DenseRow) float64 {
	if r.Members <= 0 {
		return 0
	}
	return float64(r.Deaths) / float64(r.Members)
}

// SuccessRate returns summiters per member, or 0 when the bucket has no
// members.
func SuccessRate(r DenseRow) float64 {
	if r.Members <= 0 {
		return 0
	}
	return float64(r.Summits) / float64(r.Members)
}

// ApplyFlags derives the rate flags and the safe-season flag for every row.
// Comparisons are strict; a rate equal to its threshold is not flagged.
func ApplyFlags(rows []DenseRow, t Thresholds) []FlaggedRow {
	out := make([]FlaggedRow, len(rows))
	for i, r := range rows {
		out[i] = FlaggedRow{
			DenseRow:        r,
			HighDeathRate:   DeathRate(r) > t.DeathRate,
			HighSuccessRate: SuccessRate(r) > t.SuccessRate,
			SafeSeason:      r.Occurred && r.Deaths == 0,
		}
	}
	return out
}
