package timeline

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Default magnitude scale.
const (
	DefaultScaleMin        = 1.0
	DefaultScaleMax        = 10.0
	DefaultDashedThickness = 0.5
)

// ScaleParams maps log deaths onto [Min, Max]. Safe seasons are drawn with
// DashedThickness instead.
type ScaleParams struct {
	Min             float64 `json:"min" yaml:"min" validate:"gt=0"`
	Max             float64 `json:"max" yaml:"max" validate:"gtefield=Min"`
	DashedThickness float64 `json:"dashed_thickness" yaml:"dashed_thickness" validate:"gt=0"`
}

// DefaultScaleParams returns A=1, B=10 and a dashed thickness of 0.5.
func DefaultScaleParams() ScaleParams {
	return ScaleParams{Min: DefaultScaleMin, Max: DefaultScaleMax, DashedThickness: DefaultDashedThickness}
}

// Validate requires 0 < Min <= Max and a positive dashed thickness.
func (s ScaleParams) Validate() error {
	if !(s.Min > 0) || math.IsInf(s.Min, 0) {
		return &ValidationError{Field: "scale_min", Message: "must be positive", Value: s.Min}
	}
	if !(s.Max >= s.Min) || math.IsInf(s.Max, 0) {
		return &ValidationError{Field: "scale_max", Message: "must be >= scale_min", Value: s.Max}
	}
	if !(s.DashedThickness > 0) || math.IsInf(s.DashedThickness, 0) {
		return &ValidationError{Field: "dashed_thickness", Message: "must be positive", Value: s.DashedThickness}
	}
	return nil
}

// Normalize assigns each row a magnitude and drops the rows that have none.
//
// Rows with deaths take ln(deaths) min-max mapped onto [Min, Max] across the
// whole batch. When every such row has the same value they all get Min.
// Safe seasons get DashedThickness. Everything else has magnitude 0 and is
// removed. Survivors keep the input's peak order, are sorted by bucket
// within a peak and are numbered from 0 per peak.
func Normalize(rows []FlaggedRow, s ScaleParams) ([]ScaledRow, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	var logs []float64
	for _, r := range rows {
		if r.Deaths > 0 {
			logs = append(logs, math.Log(float64(r.Deaths)))
		}
	}

	var lo, hi float64
	if len(logs) > 0 {
		lo, hi = floats.Min(logs), floats.Max(logs)
	}

	rank := make(map[string]int)
	scaled := make([]ScaledRow, 0, len(rows))
	for _, r := range rows {
		if _, ok := rank[r.PeakID]; !ok {
			rank[r.PeakID] = len(rank)
		}

		out := ScaledRow{FlaggedRow: r}
		switch {
		case r.Deaths > 0:
			v := math.Log(float64(r.Deaths))
			if hi == lo {
				out.Magnitude = s.Min
			} else {
				out.Magnitude = s.Min + (v-lo)/(hi-lo)*(s.Max-s.Min)
			}
		case r.SafeSeason:
			out.Magnitude = s.DashedThickness
			out.Dashed = true
		}

		if math.IsNaN(out.Magnitude) || math.IsInf(out.Magnitude, 0) {
			return nil, fmt.Errorf("%w: peak %s bucket %s", ErrNonFinite, r.PeakID, r.Bucket)
		}
		if out.Magnitude <= 0 {
			continue
		}
		scaled = append(scaled, out)
	}

	sort.SliceStable(scaled, func(i, j int) bool {
		if scaled[i].PeakID != scaled[j].PeakID {
			return rank[scaled[i].PeakID] < rank[scaled[j].PeakID]
		}
		return scaled[i].Bucket.Less(scaled[j].Bucket)
	})

	idx := 0
	for i := range scaled {
		if i > 0 && scaled[i].PeakID != scaled[i-1].PeakID {
			idx = 0
		}
		scaled[i].Index = idx
		idx++
	}

	return scaled, nil
}
