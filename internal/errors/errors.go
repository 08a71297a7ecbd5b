package errors

import (
	"net/http"

	"github.com/go-chi/render"
)

// Machine-readable error codes carried by APIError. Clients branch on the
// code, the message is for humans.
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeInvalidJSON      = "INVALID_JSON"
	CodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
	CodeUnsupportedMedia = "UNSUPPORTED_MEDIA_TYPE"
	CodeSourceNotFound   = "SOURCE_NOT_FOUND"
)

// APIError is a handler-level error with enough structure to become an
// RFC 7807 response. Handlers build one and pass it to the ErrorHandler,
// nothing else renders it.
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Render implements render.Renderer for chi/render.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// New creates an APIError from its parts.
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates an APIError carrying a details payload, rendered
// under the problem response's details extension.
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	err := New(statusCode, errorCode, message)
	err.Details = details
	return err
}

// InvalidRequestWithError wraps a lower-level failure as a 400.
func InvalidRequestWithError(err error) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeInvalidRequest, "Invalid request format", err.Error())
}

// ValidationError is one field-level violation.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors groups the violations of a single request.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// ErrValidation creates a 400 for a single invalid field.
func ErrValidation(field, message string) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeValidationFailed, "Request validation failed", ValidationError{
		Field:   field,
		Message: message,
	})
}

// NewValidationErrors creates a 400 carrying every violation at once, so a
// client can surface all of them in one round trip.
func NewValidationErrors(errors []ValidationError) *APIError {
	return NewWithDetails(
		http.StatusBadRequest,
		CodeValidationFailed,
		"Request validation failed",
		ValidationErrors{Errors: errors},
	)
}
