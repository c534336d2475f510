package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peaktrail/internal/shared/testutil"
	"peaktrail/internal/timeline"
)

func TestNewErrorHandler(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	handler := NewErrorHandler(logger, true)

	assert.NotNil(t, handler.logger)
	assert.True(t, handler.includeStack)
	assert.NotNil(t, NewErrorHandler(nil, false).logger)
}

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "api error",
			err:        ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantType:   TypeNotFound,
		},
		{
			name:       "wrapped timeline validation error",
			err:        fmt.Errorf("config: %w", &timeline.ValidationError{Field: "top_n", Message: "must be positive"}),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
		},
		{
			name:       "no facts",
			err:        fmt.Errorf("reconcile: %w", timeline.ErrNoFacts),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeNoTimelineData,
		},
		{
			name:       "range error",
			err:        &timeline.RangeError{Axis: "peak", Reason: "no peaks selected", Err: timeline.ErrEmptyRange},
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeTimelineRange,
		},
		{
			name:       "malformed record",
			err:        &timeline.MalformedRecordError{Line: 4, ExpID: "EVER00101", Field: "mdeaths", Value: "x"},
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeMalformedRecord,
		},
		{
			name:       "storage app error",
			err:        NewStorageError("read expeditions", fmt.Errorf("permission denied")),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeStorage,
		},
		{
			name:       "not found app error",
			err:        NewNotFoundError("peak K2"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeNotFound,
		},
		{
			name:       "deadline",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "unknown error",
			err:        fmt.Errorf("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			handler := NewErrorHandler(logger, false)

			req := httptest.NewRequest(http.MethodGet, "/api/timeline", nil)
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "req-1"))
			w := httptest.NewRecorder()

			handler.HandleError(w, req, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, float64(tt.wantStatus), body["status"])
			assert.Equal(t, "/api/timeline", body["instance"])
			assert.Equal(t, "req-1", body["trace_id"])
			assert.NotContains(t, body, "stack")

			assert.True(t, logs.ContainsMessage("request failed"))
			assert.True(t, logs.ContainsAttr("request_id", "req-1"))
		})
	}
}

func TestErrorHandler_HandleErrorNil(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)
	w := httptest.NewRecorder()

	handler.HandleError(w, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Zero(t, w.Body.Len())
	assert.Zero(t, logs.Count())
}

func TestErrorHandler_LogLevel(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)

	handler.HandleError(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), ErrInvalidParameter)
	handler.HandleError(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), ErrInternalServer)

	assert.Len(t, logs.GetRecordsByLevel(slog.LevelWarn), 1)
	assert.Len(t, logs.GetRecordsByLevel(slog.LevelError), 1)
}

func TestErrorHandler_ValidationExtension(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)
	req := httptest.NewRequest(http.MethodGet, "/api/timeline?top=0", nil)

	problem := handler.ErrorToProblem(&timeline.ValidationError{Field: "top_n", Message: "must be positive", Value: 0}, req)

	require.Contains(t, problem.Extensions, "errors")
	assert.Equal(t, []ValidationError{{Field: "top_n", Message: "must be positive"}}, problem.Extensions["errors"])
}

func TestErrorHandler_AppErrorDetail(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)
	req := httptest.NewRequest(http.MethodPost, "/api/reload", nil)

	parsing := handler.ErrorToProblem(NewParsingError("read exped.csv", fmt.Errorf("missing column peakid")), req)
	assert.Equal(t, http.StatusUnprocessableEntity, parsing.Status)
	assert.Equal(t, "read exped.csv: missing column peakid", parsing.Detail)
	assert.Equal(t, "PARSING", parsing.Extensions["error_type"])

	storage := handler.ErrorToProblem(NewStorageError("write timeline.csv", fmt.Errorf("disk full")), req)
	assert.Equal(t, "write timeline.csv", storage.Detail)
}

func TestErrorHandler_HandlePanic(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, true)
	w := httptest.NewRecorder()

	handler.HandlePanic(w, httptest.NewRequest(http.MethodGet, "/api/peaks", nil), "nil map")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "nil map", body["panic"])
	assert.Contains(t, body, "stack")
	testutil.AssertLogContains(t, logs, slog.LevelError, "panic recovered")
}

func TestErrorHandler_NotFoundAndMethodNotAllowed(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)

	w := httptest.NewRecorder()
	handler.NotFound(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	handler.MethodNotAllowed(w, httptest.NewRequest(http.MethodDelete, "/api/peaks", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Contains(t, w.Body.String(), "Method DELETE is not allowed")
}

func TestRecoveryMiddleware(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	mw := RecoveryMiddleware(NewErrorHandler(logger, false))

	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("exploded")
	}))
	w := httptest.NewRecorder()

	require.NotPanics(t, func() {
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
