package operations

import (
	"context"
	"sync"
	"time"
)

// Step represents a single stage in the refresh pipeline
type Step interface {
	// ID returns the unique identifier for this stage
	ID() string

	// Name returns the human-readable name for this stage
	Name() string

	// Validate checks if the stage can be executed with the current state.
	// It runs before Execute; a non-nil error fails the operation without
	// starting the stage.
	Validate(state *OperationState) error

	// Execute runs the stage against the shared operation state
	Execute(ctx context.Context, state *OperationState) error
}

// StepStatus represents the current status of a stage
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusActive    StepStatus = "active"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

// StepState represents the runtime state of a stage
type StepState struct {
	mu        sync.RWMutex
	ID        string
	Name      string
	Status    StepStatus
	StartTime *time.Time
	EndTime   *time.Time
	Message   string
	Error     error
}

// NewStepState creates a new stage state with default values
func NewStepState(id, name string) *StepState {
	return &StepState{
		ID:     id,
		Name:   name,
		Status: StepStatusPending,
	}
}

// Start marks the stage as active and sets the start time
func (s *StepState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.StartTime = &now
	s.Status = StepStatusActive
}

// Complete marks the stage as completed and sets the end time
func (s *StepState) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.EndTime = &now
	s.Status = StepStatusCompleted
}

// Fail marks the stage as failed with the given error
func (s *StepState) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.EndTime = &now
	s.Status = StepStatusFailed
	s.Error = err
}

// Skip marks the stage as skipped with the given reason
func (s *StepState) Skip(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.EndTime = &now
	s.Status = StepStatusSkipped
	s.Message = reason
}

// CurrentStatus returns the status under the read lock
func (s *StepState) CurrentStatus() StepStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}

// Duration returns the duration of the stage execution
func (s *StepState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.StartTime == nil {
		return 0
	}
	if s.EndTime != nil {
		return s.EndTime.Sub(*s.StartTime)
	}
	return time.Since(*s.StartTime)
}
