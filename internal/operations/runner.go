package operations

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
)

// Runner executes a fixed sequence of stages against one shared state.
// Stages run strictly in registration order; the first failure fails the
// operation and skips everything after it.
type Runner struct {
	logger *slog.Logger
	steps  []Step
}

// NewRunner creates a runner over the given stages
func NewRunner(logger *slog.Logger, steps ...Step) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		logger: logger,
		steps:  steps,
	}
}

// Run executes every registered stage in order. The returned state is always
// non-nil and records how far execution got; the error is the first stage
// failure, validation refusal, or cancellation.
func (r *Runner) Run(ctx context.Context) (*OperationState, error) {
	state := NewOperationState(uuid.New().String())
	for _, step := range r.steps {
		state.SetStage(step.ID(), NewStepState(step.ID(), step.Name()))
	}

	state.Start()
	r.logOperationStart(ctx, state.ID)

	for i, step := range r.steps {
		stepState := state.GetStage(step.ID())

		// Cancellation is honored at stage boundaries. A stage that was
		// already running sees it through its own context.
		select {
		case <-ctx.Done():
			cancelErr := NewCancellationError(step.ID())
			stepState.Skip("operation cancelled")
			r.skipRemaining(state, r.steps[i+1:], "operation cancelled")
			state.Cancel()
			r.logOperationError(ctx, state.ID, cancelErr)
			return state, cancelErr
		default:
		}

		if err := step.Validate(state); err != nil {
			var opErr *OperationError
			if !errors.As(err, &opErr) {
				opErr = NewValidationError(step.ID(), err.Error())
			}
			stepState.Fail(opErr)
			r.skipRemaining(state, r.steps[i+1:], "previous stage failed")
			state.Fail(opErr)
			r.logStageError(ctx, state.ID, step.ID(), opErr)
			return state, opErr
		}

		stepState.Start()
		r.logStageStart(ctx, state.ID, step.ID())

		if err := step.Execute(ctx, state); err != nil {
			opErr := WrapError(err, step.ID())
			stepState.Fail(opErr)
			r.skipRemaining(state, r.steps[i+1:], "previous stage failed")
			state.Fail(opErr)
			r.logStageError(ctx, state.ID, step.ID(), opErr)
			return state, opErr
		}

		stepState.Complete()
		r.logStageComplete(ctx, state.ID, step.ID(), stepState)
	}

	state.Complete()
	r.logOperationComplete(ctx, state.ID, state)
	return state, nil
}

// skipRemaining marks every not-yet-run stage as skipped
func (r *Runner) skipRemaining(state *OperationState, steps []Step, reason string) {
	for _, step := range steps {
		if stepState := state.GetStage(step.ID()); stepState != nil {
			stepState.Skip(reason)
		}
	}
}
