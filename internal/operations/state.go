package operations

import (
	"sync"
	"time"

	"bitewatch/pkg/contracts/domain"
)

// OperationStatusValue is the lifecycle state of a whole refresh run.
type OperationStatusValue string

const (
	OperationStatusPending   OperationStatusValue = "pending"
	OperationStatusRunning   OperationStatusValue = "running"
	OperationStatusCompleted OperationStatusValue = "completed"
	OperationStatusFailed    OperationStatusValue = "failed"
	OperationStatusCancelled OperationStatusValue = "cancelled"
)

// OperationState tracks one refresh execution from discovery to export.
// The runner mutates it, status watchers read it concurrently.
type OperationState struct {
	mu sync.RWMutex

	ID        string
	Status    OperationStatusValue
	StartTime time.Time
	EndTime   *time.Time

	// Per-stage states keyed by stage ID
	Steps map[string]*StepState

	Error error

	// Payload handed between stages. The pipeline is strictly linear, so
	// each stage reads exactly what an earlier stage stored.
	source  domain.SourceInfo
	dataset *domain.Dataset
}

// NewOperationState creates a pending state for the given run ID.
func NewOperationState(id string) *OperationState {
	return &OperationState{
		ID:        id,
		Status:    OperationStatusPending,
		StartTime: time.Now(),
		Steps:     make(map[string]*StepState),
	}
}

// Start marks the run as executing and resets its clock.
func (p *OperationState) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Status = OperationStatusRunning
	p.StartTime = time.Now()
}

// finish stamps the end time and terminal status. The recorded error is
// left alone unless a new one is supplied.
func (p *OperationState) finish(status OperationStatusValue, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = status
	if err != nil {
		p.Error = err
	}
}

// Complete marks the run as finished successfully.
func (p *OperationState) Complete() {
	p.finish(OperationStatusCompleted, nil)
}

// Fail marks the run as failed with its cause.
func (p *OperationState) Fail(err error) {
	p.finish(OperationStatusFailed, err)
}

// Cancel marks the run as cancelled.
func (p *OperationState) Cancel() {
	p.finish(OperationStatusCancelled, nil)
}

// CurrentStatus reads the status under the lock.
func (p *OperationState) CurrentStatus() OperationStatusValue {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Status
}

// GetStage looks up one stage's state, nil when it was never registered.
func (p *OperationState) GetStage(stageID string) *StepState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Steps[stageID]
}

// SetStage registers a stage's state under its ID.
func (p *OperationState) SetStage(stageID string, state *StepState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Steps[stageID] = state
}

// Source returns the source identity stored by the discover stage.
func (p *OperationState) Source() domain.SourceInfo {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.source
}

// SetSource stores the source identity for later stages.
func (p *OperationState) SetSource(source domain.SourceInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.source = source
}

// Dataset returns the dataset stored by the build stage, nil before it ran.
func (p *OperationState) Dataset() *domain.Dataset {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.dataset
}

// SetDataset stores the built dataset for later stages.
func (p *OperationState) SetDataset(dataset *domain.Dataset) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dataset = dataset
}

// Duration is the elapsed run time, still ticking while the run is live.
func (p *OperationState) Duration() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.EndTime != nil {
		return p.EndTime.Sub(p.StartTime)
	}
	return time.Since(p.StartTime)
}
