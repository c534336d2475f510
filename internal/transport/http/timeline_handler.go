package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "peaktrail/internal/errors"
	"peaktrail/internal/exporter"
	"peaktrail/internal/middleware"
	apiv1 "peaktrail/pkg/contracts/api/v1"
	"peaktrail/pkg/contracts/domain"
)

// TimelineHandler serves the computed timeline, the peak lookup and the
// reload trigger.
type TimelineHandler struct {
	service      TimelineServiceInterface
	validator    *middleware.RequestValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewTimelineHandler creates a new timeline handler with RFC 7807 error
// handling
func NewTimelineHandler(service TimelineServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *TimelineHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if errorHandler == nil {
		errorHandler = apierrors.NewErrorHandler(logger, false)
	}
	return &TimelineHandler{
		service:      service,
		validator:    middleware.NewRequestValidator(logger),
		logger:       logger.With(slog.String("component", "timeline_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the timeline routes on a new router
func (h *TimelineHandler) Routes() chi.Router {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes adds the timeline routes to r
func (h *TimelineHandler) RegisterRoutes(r chi.Router) {
	r.Get("/timeline", h.GetTimeline)
	r.Get("/timeline.csv", h.GetTimelineCSV)
	r.Get("/peaks", h.GetPeaks)
	r.Post("/reload", h.Reload)
}

// GetTimeline handles GET /api/timeline
func (h *TimelineHandler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	req, err := h.validator.ParseTimelineRequest(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	view, err := h.service.Timeline(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, view.Response())
}

// GetTimelineCSV handles GET /api/timeline.csv. It takes the same query as
// GetTimeline.
func (h *TimelineHandler) GetTimelineCSV(w http.ResponseWriter, r *http.Request) {
	req, err := h.validator.ParseTimelineRequest(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	view, err := h.service.Timeline(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	entries := view.Entries()
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="timeline.csv"`)
	w.WriteHeader(http.StatusOK)

	// Headers are gone by now, so a failed write can only be logged.
	if err := exporter.WriteTimelineCSV(w, entries, exporter.CSVOptions{}); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to stream timeline CSV",
			slog.String("error", err.Error()),
			slog.Int("entries", len(entries)))
	}
}

// GetPeaks handles GET /api/peaks
func (h *TimelineHandler) GetPeaks(w http.ResponseWriter, r *http.Request) {
	peaks, err := h.service.Peaks(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if peaks == nil {
		peaks = domain.PeakLookup{}
	}

	render.JSON(w, r, apiv1.PeaksResponse{Peaks: peaks, Count: len(peaks)})
}

// Reload handles POST /api/reload
func (h *TimelineHandler) Reload(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Reload(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Inputs reloaded via API",
		slog.String("run_id", resp.RunID),
		slog.Int("records", resp.Records))
	render.JSON(w, r, resp)
}
