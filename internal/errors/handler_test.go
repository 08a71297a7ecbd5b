package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler() *ErrorHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewErrorHandler(logger, false)
}

func TestErrorToProblem(t *testing.T) {
	handler := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/dataset", nil)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "context deadline exceeded",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "source missing sentinel",
			err:        ErrSourceMissing,
			wantStatus: http.StatusNotFound,
			wantType:   TypeSourceNotFound,
		},
		{
			name:       "wrapped source discovery failure",
			err:        fmt.Errorf("reload: %w", ErrNoSourceDiscovered),
			wantStatus: http.StatusNotFound,
			wantType:   TypeSourceNotFound,
		},
		{
			name:       "source too large",
			err:        ErrSourceTooLarge,
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeSourceTooLarge,
		},
		{
			name:       "header mismatch",
			err:        fmt.Errorf("ingest: %w", ErrHeaderMismatch),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeSourceCorrupted,
		},
		{
			name:       "dataset not loaded",
			err:        ErrDatasetUnloaded,
			wantStatus: http.StatusServiceUnavailable,
			wantType:   TypeDatasetUnloaded,
		},
		{
			name:       "empty source",
			err:        fmt.Errorf("parse: %w", ErrEmptySource),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeSourceCorrupted,
		},
		{
			name:       "api error maps by code",
			err:        New(http.StatusNotFound, CodeSourceNotFound, "Dataset source file not found"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeSourceNotFound,
		},
		{
			name:       "unknown dimension message",
			err:        fmt.Errorf("unknown dimension: %q", "favorite_color"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeUnknownDimension,
		},
		{
			name:       "unrecognized error",
			err:        fmt.Errorf("something odd happened"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problem := handler.ErrorToProblem(tt.err, req)
			assert.Equal(t, tt.wantStatus, problem.Status)
			assert.Equal(t, tt.wantType, problem.Type)
			assert.Equal(t, "/api/dataset", problem.Instance)
		})
	}
}

func TestErrorToProblem_APIErrorExtensions(t *testing.T) {
	handler := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/api/query/aggregate", nil)

	apiErr := NewWithDetails(http.StatusBadRequest, CodeValidationFailed, "Request validation failed", ValidationError{
		Field:   "kind",
		Message: "must be a known aggregation kind",
	})

	problem := handler.ErrorToProblem(apiErr, req)

	assert.Equal(t, TypeValidation, problem.Type)
	assert.Equal(t, CodeValidationFailed, problem.Extensions["error_code"])
	assert.NotNil(t, problem.Extensions["details"])
}

func TestHandleError_WritesProblemJSON(t *testing.T) {
	handler := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/api/dataset/reload", nil)
	rec := httptest.NewRecorder()

	handler.HandleError(rec, req, ErrSourceMissing)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	assert.Equal(t, TypeSourceNotFound, decoded["type"])
	assert.Contains(t, decoded, "trace_id")
}

func TestHandleError_NilError(t *testing.T) {
	handler := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()

	handler.HandleError(rec, req, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	handler := newTestHandler()

	t.Run("not found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/nope", nil)
		rec := httptest.NewRecorder()

		handler.NotFound(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/dataset", nil)
		rec := httptest.NewRecorder()

		handler.MethodNotAllowed(rec, req)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
		assert.Contains(t, decoded["detail"], "DELETE")
	})
}
