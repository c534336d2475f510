// Package api contains the HTTP API contract of the peaktrail server.
package api

import (
	"peaktrail/pkg/contracts/domain"
)

// TimelineRequest carries the optional per-request overrides of the
// pipeline configuration. Zero values keep the server configuration.
type TimelineRequest struct {
	Granularity string   `json:"granularity,omitempty" query:"granularity" validate:"omitempty,oneof=day month year year-season"`
	Rollup      string   `json:"rollup,omitempty" query:"rollup" validate:"omitempty,oneof=month year"`
	Top         int      `json:"top,omitempty" query:"top" validate:"omitempty,min=1,max=100"`
	Peaks       []string `json:"peaks,omitempty" query:"peaks" validate:"omitempty,max=50,dive,peakid"`
	Combined    bool     `json:"combined,omitempty" query:"combined"`
}

// IsDefault reports whether the request overrides nothing.
func (r TimelineRequest) IsDefault() bool {
	return r.Granularity == "" && r.Rollup == "" && r.Top == 0 && len(r.Peaks) == 0 && !r.Combined
}

// TimelineResponse is the body of GET /api/timeline
type TimelineResponse struct {
	Entries []domain.TimelineEntry `json:"entries"`
	Peaks   []domain.Peak          `json:"peaks"`
	Summary domain.TimelineSummary `json:"summary"`
}

// PeaksResponse is the body of GET /api/peaks
type PeaksResponse struct {
	Peaks []domain.Peak `json:"peaks"`
	Count int           `json:"count"`
}

// ReloadResponse is the body of POST /api/reload
type ReloadResponse struct {
	Records int    `json:"records"`
	Peaks   int    `json:"peaks"`
	RunID   string `json:"run_id"`
}
