package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"strings"

	"github.com/go-chi/render"

	"bitewatch/internal/infrastructure"
)

// Problem type URIs for the generic error classes.
const (
	TypeValidation       = "/errors/validation"
	TypeNotFound         = "/errors/not-found"
	TypeMethodNotAllowed = "/errors/method-not-allowed"
	TypeUnauthorized     = "/errors/unauthorized"
	TypeRateLimit        = "/errors/rate-limit"
	TypeInternal         = "/errors/internal"
	TypeTimeout          = "/errors/timeout"
	TypePayloadTooLarge  = "/errors/payload-too-large"
	TypeUnsupportedMedia = "/errors/unsupported-media-type"
)

// Problem type URIs specific to the dataset lifecycle and query engine.
const (
	TypeSourceNotFound   = "/errors/source/not-found"
	TypeSourceTooLarge   = "/errors/source/too-large"
	TypeSourceCorrupted  = "/errors/source/corrupted"
	TypeDatasetUnloaded  = "/errors/dataset/not-loaded"
	TypeUnknownDimension = "/errors/query/unknown-dimension"
	TypeWebSocketUpgrade = "/errors/websocket/upgrade-failed"
)

// ErrorHandler turns the errors reaching a handler into RFC 7807 responses.
// One instance is shared by every route.
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler creates the shared handler. includeStack is only ever
// true in development mode.
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

// HandleError logs the error and answers with its problem details form.
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	h.logger.ErrorContext(r.Context(), "request failed",
		slog.String("error", err.Error()),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("remote_addr", r.RemoteAddr),
	)
	infrastructure.RecordError(r.Context(), err)

	problem := h.ErrorToProblem(err, r)

	// The trace id set by the request-id middleware, refined to the otel
	// trace id when a span is active
	problem.WithExtension("trace_id", infrastructure.GetTraceID(r.Context()))

	if h.includeStack {
		problem.WithExtension("stack", stackTrace())
	}

	render.Render(w, r, problem)
}

// ErrorToProblem maps an error onto problem details. Sentinels from the
// dataset lifecycle come first, then structured APIErrors, then what can be
// recognized from the error text. Anything unrecognized is a plain 500 so
// no internal detail leaks by accident.
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewProblemDetails(
			http.StatusGatewayTimeout,
			TypeTimeout,
			"Request Timeout",
			"The request took too long to process and was cancelled",
			r.URL.Path,
		)
	}

	switch {
	case errors.Is(err, ErrSourceMissing), errors.Is(err, ErrNoSourceDiscovered):
		return NewProblemDetails(
			http.StatusNotFound,
			TypeSourceNotFound,
			"Dataset Source Not Found",
			err.Error(),
			r.URL.Path,
		)

	case errors.Is(err, ErrSourceTooLarge):
		return NewProblemDetails(
			http.StatusUnprocessableEntity,
			TypeSourceTooLarge,
			"Dataset Source Too Large",
			err.Error(),
			r.URL.Path,
		)

	case errors.Is(err, ErrHeaderMismatch), errors.Is(err, ErrEmptySource):
		return NewProblemDetails(
			http.StatusUnprocessableEntity,
			TypeSourceCorrupted,
			"Dataset Source Unusable",
			err.Error(),
			r.URL.Path,
		)

	case errors.Is(err, ErrDatasetUnloaded):
		return NewProblemDetails(
			http.StatusServiceUnavailable,
			TypeDatasetUnloaded,
			"Dataset Not Loaded",
			"The clean dataset has not been loaded yet. Trigger a reload or wait for the watcher.",
			r.URL.Path,
		)
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return h.apiErrorToProblem(apiErr, r)
	}

	// The analytics engine reports unknown dimensions as plain errors
	if strings.Contains(err.Error(), "unknown dimension") {
		return NewProblemDetails(
			http.StatusBadRequest,
			TypeUnknownDimension,
			"Unknown Dimension",
			err.Error(),
			r.URL.Path,
		)
	}

	return NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		"Internal Server Error",
		"An unexpected error occurred while processing your request",
		r.URL.Path,
	)
}

// apiErrorToProblem converts a structured handler error. The error code
// picks the problem type, status and message carry over as they are.
func (h *ErrorHandler) apiErrorToProblem(apiErr *APIError, r *http.Request) *ProblemDetails {
	var problemType string
	switch apiErr.ErrorCode {
	case CodeValidationFailed, CodeInvalidRequest, CodeInvalidJSON:
		problemType = TypeValidation
	case CodeSourceNotFound:
		problemType = TypeSourceNotFound
	case CodePayloadTooLarge:
		problemType = TypePayloadTooLarge
	case CodeUnsupportedMedia:
		problemType = TypeUnsupportedMedia
	default:
		problemType = TypeInternal
	}

	problem := NewProblemDetails(
		apiErr.StatusCode,
		problemType,
		http.StatusText(apiErr.StatusCode),
		apiErr.Message,
		r.URL.Path,
	).WithExtension("error_code", apiErr.ErrorCode)

	if apiErr.Details != nil {
		problem.WithExtension("details", apiErr.Details)
	}

	return problem
}

// NotFound answers unmatched routes in the problem details shape.
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(
		http.StatusNotFound,
		TypeNotFound,
		"Not Found",
		"The requested resource was not found",
		r.URL.Path,
	).WithExtension("trace_id", infrastructure.GetTraceID(r.Context()))

	render.Render(w, r, problem)
}

// MethodNotAllowed answers unsupported methods on known routes.
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(
		http.StatusMethodNotAllowed,
		TypeMethodNotAllowed,
		"Method Not Allowed",
		fmt.Sprintf("Method %s is not allowed for this endpoint", r.Method),
		r.URL.Path,
	).WithExtension("trace_id", infrastructure.GetTraceID(r.Context()))

	render.Render(w, r, problem)
}

func stackTrace() string {
	buf := make([]byte, 8*1024)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}
