package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *APIError
		wantMsg string
	}{
		{
			name:    "simple error",
			err:     New(http.StatusBadRequest, CodeInvalidRequest, "Invalid request format"),
			wantMsg: "Invalid request format",
		},
		{
			name:    "error with details",
			err:     NewWithDetails(http.StatusNotFound, CodeSourceNotFound, "Dataset source file not found", "data/incidents.csv"),
			wantMsg: "Dataset source file not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestAPIError_Render(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/query/records", nil)

	err := New(http.StatusNotFound, CodeSourceNotFound, "Dataset source file not found")
	require.NoError(t, err.Render(rec, req))
	assert.Equal(t, http.StatusNotFound, req.Context().Value(render.StatusCtxKey))
}

func TestErrorHelpers(t *testing.T) {
	t.Run("InvalidRequestWithError wraps cause", func(t *testing.T) {
		cause := fmt.Errorf("unexpected EOF")
		err := InvalidRequestWithError(cause)

		assert.Equal(t, http.StatusBadRequest, err.StatusCode)
		assert.Equal(t, CodeInvalidRequest, err.ErrorCode)
		assert.Equal(t, cause.Error(), err.Details)
	})

	t.Run("ErrValidation carries field", func(t *testing.T) {
		err := ErrValidation("from", "must be YYYY-MM-DD")

		assert.Equal(t, CodeValidationFailed, err.ErrorCode)
		require.IsType(t, ValidationError{}, err.Details)
		ve := err.Details.(ValidationError)
		assert.Equal(t, "from", ve.Field)
		assert.Equal(t, "must be YYYY-MM-DD", ve.Message)
	})

	t.Run("NewValidationErrors carries every violation", func(t *testing.T) {
		err := NewValidationErrors([]ValidationError{
			{Field: "from", Message: "must be YYYY-MM-DD"},
			{Field: "limit", Message: "must be at most 10000"},
		})

		assert.Equal(t, http.StatusBadRequest, err.StatusCode)
		require.IsType(t, ValidationErrors{}, err.Details)
		assert.Len(t, err.Details.(ValidationErrors).Errors, 2)
	})
}

func TestWriteProblem(t *testing.T) {
	rec := httptest.NewRecorder()
	problem := NewProblemDetails(
		http.StatusTooManyRequests,
		TypeRateLimit,
		"Rate Limit Exceeded",
		"Request rate limit exceeded. Retry after 60 seconds.",
		"/api/query/summary",
	).WithExtension("trace_id", "req-42")

	WriteProblem(rec, problem)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	assert.Equal(t, TypeRateLimit, decoded["type"])
	assert.Equal(t, "req-42", decoded["trace_id"])
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	problem := NewProblemDetails(
		http.StatusNotFound,
		TypeSourceNotFound,
		"Dataset Source Not Found",
		"no source file discovered",
		"/api/dataset/reload",
	).WithExtension("trace_id", "req-123").
		WithExtension("searched_dirs", []string{"data"})

	data, err := json.Marshal(problem)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, TypeSourceNotFound, decoded["type"])
	assert.Equal(t, "Dataset Source Not Found", decoded["title"])
	assert.Equal(t, float64(http.StatusNotFound), decoded["status"])
	assert.Equal(t, "no source file discovered", decoded["detail"])
	assert.Equal(t, "req-123", decoded["trace_id"])
	assert.Contains(t, decoded, "searched_dirs")
}

func TestProblemDetails_OmitsEmptyFields(t *testing.T) {
	problem := NewProblemDetails(http.StatusInternalServerError, TypeInternal, "Internal Server Error", "", "")

	data, err := json.Marshal(problem)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.NotContains(t, decoded, "detail")
	assert.NotContains(t, decoded, "instance")
}

func TestNewSourceNotFoundProblem(t *testing.T) {
	problem := NewSourceNotFoundProblem(&SourceFailureDetails{
		Path:         "data/incidents.csv",
		SearchedDirs: []string{"data", "."},
		Extensions:   []string{".csv", ".xlsx"},
	}, "trace-9")

	assert.Equal(t, http.StatusNotFound, problem.Status)
	assert.Equal(t, TypeSourceNotFound, problem.Type)
	assert.Equal(t, "data/incidents.csv", problem.Extensions["configured_path"])
	assert.Equal(t, "trace-9", problem.Extensions["trace_id"])
	assert.Contains(t, problem.Instance, "trace-9")
}
