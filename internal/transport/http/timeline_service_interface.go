package http

import (
	"context"

	"peaktrail/internal/services"
	apiv1 "peaktrail/pkg/contracts/api/v1"
	"peaktrail/pkg/contracts/domain"
)

// TimelineServiceInterface defines the timeline operations used by the
// handlers
type TimelineServiceInterface interface {
	Timeline(ctx context.Context, req apiv1.TimelineRequest) (*services.TimelineView, error)
	Peaks(ctx context.Context) (domain.PeakLookup, error)
	Reload(ctx context.Context) (apiv1.ReloadResponse, error)
}
