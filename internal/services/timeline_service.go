package services

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"peaktrail/internal/config"
	apierrors "peaktrail/internal/errors"
	"peaktrail/internal/exporter"
	"peaktrail/internal/infrastructure"
	"peaktrail/internal/timeline"
	apiv1 "peaktrail/pkg/contracts/api/v1"
	"peaktrail/pkg/contracts/domain"
)

// TimelineView is one computed timeline together with the peak lookup it
// was named against.
type TimelineView struct {
	Result *timeline.Result
	Peaks  domain.PeakLookup
	RunID  string
}

// Entries returns the named output rows.
func (v *TimelineView) Entries() []domain.TimelineEntry {
	return exporter.NameEntries(v.Result.Entries(), v.Peaks)
}

// Response builds the API body for the view.
func (v *TimelineView) Response() apiv1.TimelineResponse {
	return apiv1.TimelineResponse{
		Entries: v.Entries(),
		Peaks:   v.Peaks.Filter(v.Result.Peaks),
		Summary: v.Result.TimelineSummary(v.RunID),
	}
}

// DataStatus describes the currently loaded inputs.
type DataStatus struct {
	Loaded          bool      `json:"loaded"`
	Records         int       `json:"records"`
	Peaks           int       `json:"peaks"`
	ExpeditionsFile string    `json:"expeditions_file,omitempty"`
	PeaksFile       string    `json:"peaks_file,omitempty"`
	LoadedAt        time.Time `json:"loaded_at,omitempty"`
	RunID           string    `json:"run_id,omitempty"`
}

// TimelineService keeps the loaded inputs and the timeline computed with
// the configured pipeline. Requests with overrides recompute from the
// loaded records without touching the cache.
type TimelineService struct {
	pipeline config.PipelineConfig
	paths    *config.Paths
	inputs   *InputLoader
	metrics  *infrastructure.HTTPMetrics
	logger   *slog.Logger

	mu   sync.RWMutex
	data *Inputs
	base *TimelineView
}

// NewTimelineService creates the service. The pipeline section must already
// be valid; nothing is loaded until Reload.
func NewTimelineService(pipeline config.PipelineConfig, paths *config.Paths, metrics *infrastructure.HTTPMetrics, logger *slog.Logger) (*TimelineService, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := pipeline.ToTimeline(); err != nil {
		return nil, apierrors.NewConfigError("invalid pipeline configuration", err)
	}

	return &TimelineService{
		pipeline: pipeline,
		paths:    paths,
		inputs:   NewInputLoader(paths.BaseDir, logger),
		metrics:  metrics,
		logger:   logger.With(slog.String("service", "timeline")),
	}, nil
}

// Reload reads the input tables from disk, recomputes the default timeline
// and swaps both in. On error the previous data stays in place.
func (s *TimelineService) Reload(ctx context.Context) (apiv1.ReloadResponse, error) {
	in, err := s.inputs.Load(ctx, s.paths.ExpeditionsFile, s.paths.PeaksFile)
	if err != nil {
		s.logger.ErrorContext(ctx, "Reload failed", slog.String("error", err.Error()))
		return apiv1.ReloadResponse{}, err
	}

	view, err := s.compute(ctx, s.pipeline, in)
	if err != nil {
		return apiv1.ReloadResponse{}, err
	}

	s.mu.Lock()
	s.data = in
	s.base = view
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.Reloads.Add(ctx, 1)
	}

	s.logger.InfoContext(ctx, "Timeline data reloaded",
		slog.Int("records", len(in.Records)),
		slog.Int("peaks", len(in.Peaks)),
		slog.String("run_id", view.RunID))

	return apiv1.ReloadResponse{
		Records: len(in.Records),
		Peaks:   len(in.Peaks),
		RunID:   view.RunID,
	}, nil
}

// Timeline returns the cached timeline for a default request and a freshly
// computed one when req overrides the configuration.
func (s *TimelineService) Timeline(ctx context.Context, req apiv1.TimelineRequest) (*TimelineView, error) {
	s.mu.RLock()
	in, base := s.data, s.base
	s.mu.RUnlock()

	if in == nil {
		return nil, apierrors.ErrServiceUnavailable
	}
	if req.IsDefault() {
		return base, nil
	}

	pipeline := ApplyRequest(s.pipeline, req)
	view, err := s.compute(ctx, pipeline, in)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.Recomputations.Add(ctx, 1, metric.WithAttributes(
			attribute.String("granularity", pipeline.Granularity),
			attribute.String("peak_mode", pipeline.PeakMode),
		))
	}
	return view, nil
}

// Peaks returns the loaded peak lookup.
func (s *TimelineService) Peaks(ctx context.Context) (domain.PeakLookup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.data == nil {
		return nil, apierrors.ErrServiceUnavailable
	}
	return s.data.Peaks, nil
}

// Status reports what is currently loaded.
func (s *TimelineService) Status() DataStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.data == nil {
		return DataStatus{}
	}
	return DataStatus{
		Loaded:          true,
		Records:         len(s.data.Records),
		Peaks:           len(s.data.Peaks),
		ExpeditionsFile: s.data.ExpeditionsFile,
		PeaksFile:       s.data.PeaksFile,
		LoadedAt:        s.data.LoadedAt,
		RunID:           s.base.RunID,
	}
}

func (s *TimelineService) compute(ctx context.Context, pipeline config.PipelineConfig, in *Inputs) (*TimelineView, error) {
	cfg, err := pipeline.ToTimeline()
	if err != nil {
		return nil, err
	}

	p, err := timeline.NewPipeline(cfg, s.logger)
	if err != nil {
		return nil, err
	}

	res, err := p.Run(ctx, in.Records)
	if err != nil {
		return nil, err
	}

	return &TimelineView{
		Result: res,
		Peaks:  in.Peaks,
		RunID:  infrastructure.GenerateTraceID(),
	}, nil
}

// ApplyRequest overlays the request overrides on the pipeline section.
// Peaks win over Top, and Combined wins over both.
func ApplyRequest(p config.PipelineConfig, req apiv1.TimelineRequest) config.PipelineConfig {
	if req.Granularity != "" {
		p.Granularity = strings.ToLower(req.Granularity)
		p.Rollup = ""
	}
	if req.Rollup != "" {
		p.Rollup = strings.ToLower(req.Rollup)
	}
	switch {
	case req.Combined:
		p.PeakMode = config.PeakModeCombined
	case len(req.Peaks) > 0:
		p.PeakMode = config.PeakModeFixed
		p.Peaks = req.Peaks
	case req.Top > 0:
		p.PeakMode = config.PeakModeTop
		p.TopN = req.Top
	}
	return p
}
