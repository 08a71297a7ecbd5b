package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "bitewatch/internal/errors"
	"bitewatch/pkg/contracts/domain"
)

// maxRequestBody caps accepted JSON bodies. Query payloads are small, the
// cap only exists to bound memory on abuse.
const maxRequestBody = 10 * 1024 * 1024

// ValidationMiddleware validates request payloads against struct tags.
type ValidationMiddleware struct {
	validator    *validator.Validate
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	maxBodySize  int64
}

// NewValidationMiddleware builds the validator with the domain extensions
// registered. Error messages use JSON field names so they line up with the
// payload the client actually sent.
func NewValidationMiddleware(logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ValidationMiddleware {
	v := validator.New()
	v.RegisterValidation("dimension", isValidDimension)
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &ValidationMiddleware{
		validator:    v,
		logger:       logger.With(slog.String("component", "validation_middleware")),
		errorHandler: errorHandler,
		maxBodySize:  maxRequestBody,
	}
}

// ValidateRequest rejects oversized or syntactically broken JSON bodies
// before a handler sees them. The body is replayed for the handler after
// the check. Read-only methods pass through untouched.
func (m *ValidationMiddleware) ValidateRequest(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		if r.ContentLength > m.maxBodySize {
			m.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
				http.StatusRequestEntityTooLarge,
				apierrors.CodePayloadTooLarge,
				"Request body exceeds the configured size limit",
				map[string]interface{}{
					"max_size": m.maxBodySize,
					"size":     r.ContentLength,
				},
			))
			return
		}

		if r.Body != nil && r.ContentLength > 0 {
			body, err := io.ReadAll(io.LimitReader(r.Body, m.maxBodySize))
			if err != nil {
				m.logger.ErrorContext(r.Context(), "failed to read request body",
					slog.String("error", err.Error()),
				)
				m.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			if len(body) > 0 && !json.Valid(body) {
				m.errorHandler.HandleError(w, r, apierrors.New(
					http.StatusBadRequest,
					apierrors.CodeInvalidJSON,
					"Request body is not valid JSON",
				))
				return
			}
		}

		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(fn)
}

// ValidateStruct runs tag validation and converts the violations into the
// API error shape.
func (m *ValidationMiddleware) ValidateStruct(v interface{}) error {
	err := m.validator.Struct(v)
	if err == nil {
		return nil
	}

	var violations []apierrors.ValidationError
	for _, fieldErr := range err.(validator.ValidationErrors) {
		violations = append(violations, apierrors.ValidationError{
			Field:   fieldErr.Field(),
			Message: violationMessage(fieldErr),
		})
	}
	return apierrors.NewValidationErrors(violations)
}

// violationMessage renders a single field violation for humans.
func violationMessage(err validator.FieldError) string {
	field := err.Field()
	param := err.Param()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "datetime":
		return fmt.Sprintf("%s must be a date in %s format", field, param)
	case "dimension":
		return fmt.Sprintf("%s must be a known dimension identifier", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

// isValidDimension backs the `dimension` validation tag.
func isValidDimension(fl validator.FieldLevel) bool {
	return domain.Dimension(fl.Field().String()).IsValid()
}

// ContentTypeValidator answers 415 when a mutating request does not declare
// one of the accepted content types. Parameters such as charset are ignored
// in the comparison.
func ContentTypeValidator(contentTypes ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodDelete:
				next.ServeHTTP(w, r)
				return
			}

			declared := r.Header.Get("Content-Type")
			for _, allowed := range contentTypes {
				if strings.HasPrefix(declared, allowed) {
					next.ServeHTTP(w, r)
					return
				}
			}

			render.Status(r, http.StatusUnsupportedMediaType)
			render.JSON(w, r, apierrors.NewWithDetails(
				http.StatusUnsupportedMediaType,
				apierrors.CodeUnsupportedMedia,
				"Content type is not supported",
				map[string]interface{}{
					"content_type": declared,
					"allowed":      contentTypes,
				},
			))
		}
		return http.HandlerFunc(fn)
	}
}

// QueryParamValidator validates individual query string parameters.
type QueryParamValidator struct {
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewQueryParamValidator creates a new query parameter validator.
func NewQueryParamValidator(logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *QueryParamValidator {
	return &QueryParamValidator{
		logger:       logger.With(slog.String("component", "query_validator")),
		errorHandler: errorHandler,
	}
}

// ValidateDate validates a calendar-date query parameter in YYYY-MM-DD form.
// A missing parameter is valid and yields nil.
func (v *QueryParamValidator) ValidateDate(w http.ResponseWriter, r *http.Request, param string) (*time.Time, bool) {
	value := r.URL.Query().Get(param)
	if value == "" {
		return nil, true
	}

	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		v.errorHandler.HandleError(w, r, apierrors.ErrValidation(param, fmt.Sprintf("%s must be a date in YYYY-MM-DD format", param)))
		return nil, false
	}

	return &parsed, true
}
