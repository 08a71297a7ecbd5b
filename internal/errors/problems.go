package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// Sentinel errors for dataset load failures.
var (
	ErrSourceMissing      = errors.New("dataset source file not found")
	ErrNoSourceDiscovered = errors.New("no source file discovered in data directory")
	ErrSourceTooLarge     = errors.New("source file exceeds configured size limit")
	ErrEmptySource        = errors.New("source file contains no data rows")
	ErrHeaderMismatch     = errors.New("source header row does not match expected layout")
	ErrDatasetUnloaded    = errors.New("dataset not loaded")
	ErrWatcherStopped     = errors.New("source watcher stopped")
)

// SourceFailureDetails provides additional context for source load errors
type SourceFailureDetails struct {
	Path         string   `json:"path,omitempty"`
	SizeBytes    int64    `json:"size_bytes,omitempty"`
	SearchedDirs []string `json:"searched_dirs,omitempty"`
	Extensions   []string `json:"extensions,omitempty"`
}

// ProblemDetails is the RFC 7807 response body every API failure
// renders to.
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	// Extra members flattened into the JSON object
	Extensions map[string]interface{} `json:"-"`
}

// Render stashes the HTTP status for chi's render pipeline.
func (pd *ProblemDetails) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, pd.Status)
	return nil
}

// MarshalJSON flattens Extensions next to the standard members.
func (pd *ProblemDetails) MarshalJSON() ([]byte, error) {
	data := map[string]interface{}{
		"type":   pd.Type,
		"title":  pd.Title,
		"status": pd.Status,
	}
	if pd.Detail != "" {
		data["detail"] = pd.Detail
	}
	if pd.Instance != "" {
		data["instance"] = pd.Instance
	}
	for k, v := range pd.Extensions {
		data[k] = v
	}
	return json.Marshal(data)
}

// NewProblemDetails builds a problem with an empty extension map.
func NewProblemDetails(status int, problemType, title, detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:       problemType,
		Title:      title,
		Status:     status,
		Detail:     detail,
		Instance:   instance,
		Extensions: make(map[string]interface{}),
	}
}

// WriteProblem writes a problem response directly, bypassing the render
// pipeline. Middleware that refuses a request before any handler runs uses
// it, so the response carries the problem media type rather than plain JSON.
func WriteProblem(w http.ResponseWriter, pd *ProblemDetails) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(pd.Status)
	json.NewEncoder(w).Encode(pd)
}

// WithExtension sets one extension member, returning the problem for
// chaining.
func (pd *ProblemDetails) WithExtension(key string, value interface{}) *ProblemDetails {
	pd.Extensions[key] = value
	return pd
}

// NewSourceNotFoundProblem creates an enhanced error for a missing source file.
// This is the only load failure that is fatal to the dataset lifecycle, so the
// response carries enough context for an operator to place the file correctly.
func NewSourceNotFoundProblem(details *SourceFailureDetails, traceID string) *ProblemDetails {
	problem := NewProblemDetails(
		http.StatusNotFound,
		TypeSourceNotFound,
		"Dataset Source Not Found",
		"No incident source file could be located. Place a CSV or XLSX export in the data directory and reload.",
		fmt.Sprintf("/api/dataset/reload#%s", traceID),
	)

	problem.WithExtension("error_type", "source_not_found").
		WithExtension("trace_id", traceID)

	if details != nil {
		if details.Path != "" {
			problem.WithExtension("configured_path", details.Path)
		}
		if len(details.SearchedDirs) > 0 {
			problem.WithExtension("searched_dirs", details.SearchedDirs)
		}
		if len(details.Extensions) > 0 {
			problem.WithExtension("accepted_extensions", details.Extensions)
		}
	}

	return problem
}

// NewSourceTooLargeProblem creates an error for a source file over the size cap
func NewSourceTooLargeProblem(details *SourceFailureDetails, maxBytes int64, traceID string) *ProblemDetails {
	problem := NewProblemDetails(
		http.StatusUnprocessableEntity,
		TypeSourceTooLarge,
		"Dataset Source Too Large",
		fmt.Sprintf("The source file exceeds the configured limit of %d bytes.", maxBytes),
		fmt.Sprintf("/api/dataset/reload#%s", traceID),
	)

	problem.WithExtension("error_type", "source_too_large").
		WithExtension("trace_id", traceID).
		WithExtension("max_bytes", maxBytes)

	if details != nil {
		if details.Path != "" {
			problem.WithExtension("configured_path", details.Path)
		}
		if details.SizeBytes > 0 {
			problem.WithExtension("size_bytes", details.SizeBytes)
		}
	}

	return problem
}
