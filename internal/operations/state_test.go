package operations

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitewatch/pkg/contracts/domain"
)

func TestNewOperationState(t *testing.T) {
	state := NewOperationState("op-1")

	assert.Equal(t, "op-1", state.ID)
	assert.Equal(t, OperationStatusPending, state.CurrentStatus())
	assert.Empty(t, state.Steps)
	assert.Nil(t, state.EndTime)
	assert.Nil(t, state.Dataset())
	assert.Empty(t, state.Source().Path)
}

func TestOperationState_Lifecycle(t *testing.T) {
	tests := []struct {
		name       string
		transition func(s *OperationState)
		wantStatus OperationStatusValue
		wantEnded  bool
	}{
		{
			name:       "start marks running",
			transition: func(s *OperationState) { s.Start() },
			wantStatus: OperationStatusRunning,
		},
		{
			name:       "complete marks completed",
			transition: func(s *OperationState) { s.Start(); s.Complete() },
			wantStatus: OperationStatusCompleted,
			wantEnded:  true,
		},
		{
			name:       "fail marks failed",
			transition: func(s *OperationState) { s.Start(); s.Fail(errors.New("boom")) },
			wantStatus: OperationStatusFailed,
			wantEnded:  true,
		},
		{
			name:       "cancel marks cancelled",
			transition: func(s *OperationState) { s.Start(); s.Cancel() },
			wantStatus: OperationStatusCancelled,
			wantEnded:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := NewOperationState("op-1")
			tt.transition(state)

			assert.Equal(t, tt.wantStatus, state.CurrentStatus())
			if tt.wantEnded {
				assert.NotNil(t, state.EndTime)
			} else {
				assert.Nil(t, state.EndTime)
			}
		})
	}
}

func TestOperationState_FailRecordsError(t *testing.T) {
	state := NewOperationState("op-1")
	cause := NewExecutionError(StageIDBuild, errors.New("parse exploded"))

	state.Start()
	state.Fail(cause)

	assert.Equal(t, OperationStatusFailed, state.CurrentStatus())
	assert.Equal(t, cause, state.Error)
}

func TestOperationState_StageRegistry(t *testing.T) {
	state := NewOperationState("op-1")

	state.SetStage(StageIDDiscover, NewStepState(StageIDDiscover, StageNameDiscover))

	require.NotNil(t, state.GetStage(StageIDDiscover))
	assert.Equal(t, StageNameDiscover, state.GetStage(StageIDDiscover).Name)
	assert.Nil(t, state.GetStage(StageIDExport), "unregistered stage yields nil")
}

func TestOperationState_SourcePayload(t *testing.T) {
	state := NewOperationState("op-1")
	source := domain.SourceInfo{
		Path:        "data/bites.csv",
		Fingerprint: "abc123",
		SizeBytes:   2048,
		ModTime:     time.Date(2023, time.March, 1, 10, 0, 0, 0, time.UTC),
	}

	state.SetSource(source)

	assert.Equal(t, source, state.Source())
}

func TestOperationState_DatasetPayload(t *testing.T) {
	state := NewOperationState("op-1")
	dataset := &domain.Dataset{RawRows: 3, DroppedRows: 1}

	state.SetDataset(dataset)

	assert.Same(t, dataset, state.Dataset(), "the stored dataset is shared, not copied")
}

func TestOperationState_Duration(t *testing.T) {
	state := NewOperationState("op-1")
	state.StartTime = time.Now().Add(-time.Minute)
	end := state.StartTime.Add(45 * time.Second)
	state.EndTime = &end

	assert.Equal(t, 45*time.Second, state.Duration())
}
