package operations

import (
	"context"
	"log/slog"
)

// logOperationStart logs the start of an operation execution
func (r *Runner) logOperationStart(ctx context.Context, operationID string) {
	r.logger.InfoContext(ctx, "operation_start",
		slog.String("operation_id", operationID),
		slog.Int("stages", len(r.steps)))
}

// logOperationComplete logs the completion of an operation execution
func (r *Runner) logOperationComplete(ctx context.Context, operationID string, state *OperationState) {
	r.logger.InfoContext(ctx, "operation_complete",
		slog.String("operation_id", operationID),
		slog.String("status", string(state.CurrentStatus())),
		slog.Duration("duration", state.Duration()))
}

// logOperationError logs an operation level error
func (r *Runner) logOperationError(ctx context.Context, operationID string, err error) {
	errorMsg := "unknown error"
	if err != nil {
		errorMsg = err.Error()
	}
	r.logger.ErrorContext(ctx, "operation_error",
		slog.String("operation_id", operationID),
		slog.String("error", errorMsg))
}

// logStageStart logs the start of a stage execution
func (r *Runner) logStageStart(ctx context.Context, operationID, stageID string) {
	r.logger.InfoContext(ctx, "stage_start",
		slog.String("operation_id", operationID),
		slog.String("stage", stageID))
}

// logStageComplete logs the completion of a stage execution
func (r *Runner) logStageComplete(ctx context.Context, operationID, stageID string, stepState *StepState) {
	r.logger.InfoContext(ctx, "stage_complete",
		slog.String("operation_id", operationID),
		slog.String("stage", stageID),
		slog.Duration("duration", stepState.Duration()))
}

// logStageError logs a stage error
func (r *Runner) logStageError(ctx context.Context, operationID, stageID string, err error) {
	errorMsg := "unknown error"
	if err != nil {
		errorMsg = err.Error()
	}
	r.logger.ErrorContext(ctx, "stage_error",
		slog.String("operation_id", operationID),
		slog.String("stage", stageID),
		slog.String("error", errorMsg))
}
