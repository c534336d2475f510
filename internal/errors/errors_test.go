package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIErrorHelpers(t *testing.T) {
	tests := []struct {
		name       string
		err        *APIError
		wantStatus int
		wantCode   string
	}{
		{"invalid request", InvalidRequestWithError(fmt.Errorf("bad query")), http.StatusBadRequest, "INVALID_REQUEST"},
		{"validation", ErrValidation("granularity", "unknown"), http.StatusBadRequest, "VALIDATION_FAILED"},
		{"not found", NotFoundError("peak"), http.StatusNotFound, "NOT_FOUND"},
		{"filesystem", FileSystemError("export", fmt.Errorf("denied")), http.StatusInternalServerError, "FILESYSTEM_ERROR"},
		{"many validation", NewValidationErrors([]ValidationError{{Field: "a"}, {Field: "b"}}), http.StatusBadRequest, "VALIDATION_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, tt.err.StatusCode)
			assert.Equal(t, tt.wantCode, tt.err.ErrorCode)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()

	WriteError(w, ErrRateLimitExceeded)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", resp.Error.ErrorCode)
}

func TestAppError(t *testing.T) {
	cause := fmt.Errorf("no such file")
	err := NewStorageError("open exped.csv", cause).WithContext("path", "data/exped.csv")

	assert.Equal(t, "[STORAGE] open exped.csv: no such file", err.Error())
	assert.True(t, stderrors.Is(err, cause))
	assert.Equal(t, "data/exped.csv", err.Context["path"])

	assert.Equal(t, "[NOT_FOUND] peak K2 not found", NewNotFoundError("peak K2").Error())
}

func TestAppError_StatusCode(t *testing.T) {
	tests := []struct {
		errType ErrorType
		want    int
	}{
		{ErrTypeValidation, http.StatusBadRequest},
		{ErrTypeNotFound, http.StatusNotFound},
		{ErrTypeParsing, http.StatusUnprocessableEntity},
		{ErrTypePipeline, http.StatusUnprocessableEntity},
		{ErrTypeStorage, http.StatusInternalServerError},
		{ErrTypeConfig, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.errType), func(t *testing.T) {
			assert.Equal(t, tt.want, NewAppError(tt.errType, "x", nil).StatusCode())
		})
	}
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	pd := NewProblemDetails(http.StatusBadRequest, TypeValidation, "Validation Failed", "", "/api/timeline").
		WithExtension("trace_id", "abc")

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, TypeValidation, body["type"])
	assert.Equal(t, "abc", body["trace_id"])
	assert.NotContains(t, body, "detail")

	// Extensions never shadow the standard members.
	pd.WithExtension("status", 999)
	data, err = json.Marshal(pd)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, float64(http.StatusBadRequest), body["status"])
}
