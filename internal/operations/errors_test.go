package operations

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *OperationError
		want string
	}{
		{
			name: "with stage and cause",
			err:  NewExecutionError(StageIDBuild, errors.New("header mismatch")),
			want: "[execution] build: stage execution failed: header mismatch",
		},
		{
			name: "validation without cause",
			err:  NewValidationError(StageIDExport, "no dataset built"),
			want: "[validation] export: no dataset built",
		},
		{
			name: "cancellation",
			err:  NewCancellationError(StageIDDiscover),
			want: "[cancellation] discover: operation was cancelled",
		},
		{
			name: "without stage",
			err:  &OperationError{Type: ErrorTypeExecution, Message: "runner misconfigured"},
			want: "[execution] runner misconfigured",
		},
		{
			name: "nil receiver",
			err:  nil,
			want: "unknown operation error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestOperationError_Unwrap(t *testing.T) {
	sentinel := errors.New("source vanished")
	wrapped := fmt.Errorf("stat: %w", sentinel)

	err := NewExecutionError(StageIDDiscover, wrapped)

	assert.True(t, errors.Is(err, sentinel), "errors.Is reaches through the cause chain")
}

func TestWrapError(t *testing.T) {
	t.Run("nil passes through", func(t *testing.T) {
		assert.Nil(t, WrapError(nil, StageIDBuild))
	})

	t.Run("plain error becomes execution error", func(t *testing.T) {
		cause := errors.New("boom")
		err := WrapError(cause, StageIDBuild)

		require.NotNil(t, err)
		assert.Equal(t, ErrorTypeExecution, err.Type)
		assert.Equal(t, StageIDBuild, err.Step)
		assert.True(t, errors.Is(err, cause))
	})

	t.Run("operation error keeps its type", func(t *testing.T) {
		original := NewValidationError(StageIDExport, "no dataset built")
		err := WrapError(original, StageIDBuild)

		assert.Equal(t, ErrorTypeValidation, err.Type)
		assert.Equal(t, StageIDExport, err.Step, "an attributed error keeps its stage")
	})

	t.Run("unattributed operation error gains the stage", func(t *testing.T) {
		original := &OperationError{Type: ErrorTypeExecution, Message: "boom"}
		err := WrapError(original, StageIDBuild)

		assert.Equal(t, StageIDBuild, err.Step)
	})
}

func TestGetErrorType(t *testing.T) {
	assert.Equal(t, ErrorType(""), GetErrorType(nil))
	assert.Equal(t, ErrorTypeCancellation, GetErrorType(NewCancellationError(StageIDBuild)))
	assert.Equal(t, ErrorTypeValidation, GetErrorType(NewValidationError(StageIDBuild, "nope")))
	assert.Equal(t, ErrorTypeExecution, GetErrorType(errors.New("plain")))

	wrapped := fmt.Errorf("outer: %w", NewCancellationError(StageIDExport))
	assert.Equal(t, ErrorTypeCancellation, GetErrorType(wrapped), "classification survives wrapping")
}
