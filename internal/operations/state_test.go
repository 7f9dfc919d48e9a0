package operations_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"navpulse/internal/operations"
)

func TestNewStepState(t *testing.T) {
	state := operations.NewStepState("derive", "Derive metrics")

	assert.Equal(t, "derive", state.ID)
	assert.Equal(t, "Derive metrics", state.Name)
	assert.Equal(t, operations.StepStatusPending, state.CurrentStatus())
	assert.Nil(t, state.StartTime)
	assert.Nil(t, state.EndTime)
	assert.NoError(t, state.Error)
	assert.Zero(t, state.Duration())
}

func TestStepStateTransitions(t *testing.T) {
	tests := []struct {
		name       string
		transition func(*operations.StepState)
		wantStatus operations.StepStatus
		wantEnd    bool
	}{
		{"start", func(s *operations.StepState) { s.Start() }, operations.StepStatusActive, false},
		{"complete", func(s *operations.StepState) { s.Start(); s.Complete() }, operations.StepStatusCompleted, true},
		{"fail", func(s *operations.StepState) { s.Start(); s.Fail(errors.New("x")) }, operations.StepStatusFailed, true},
		{"skip", func(s *operations.StepState) { s.Skip("upstream failed") }, operations.StepStatusSkipped, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := operations.NewStepState("id", "name")
			tt.transition(s)
			assert.Equal(t, tt.wantStatus, s.CurrentStatus())
			assert.Equal(t, tt.wantEnd, s.EndTime != nil)
		})
	}
}

func TestStepStateDuration(t *testing.T) {
	s := operations.NewStepState("id", "name")
	s.Start()
	time.Sleep(5 * time.Millisecond)
	s.Complete()

	d := s.Duration()
	assert.GreaterOrEqual(t, d, 5*time.Millisecond)
	assert.Equal(t, d, s.Duration())
}

func TestStateLifecycle(t *testing.T) {
	state := operations.NewState("run")
	assert.Equal(t, operations.StatusPending, state.CurrentStatus())
	assert.Zero(t, state.Duration())

	state.Start()
	assert.Equal(t, operations.StatusRunning, state.CurrentStatus())

	boom := errors.New("boom")
	state.Fail(boom)
	assert.Equal(t, operations.StatusFailed, state.CurrentStatus())
	assert.Equal(t, boom, state.Error)
	require.NotNil(t, state.EndTime)
}

func TestStateContext(t *testing.T) {
	state := operations.NewState("run")

	_, ok := state.GetContext("missing")
	assert.False(t, ok)

	state.SetContext("rows", 42)
	v, ok := state.GetContext("rows")
	require.True(t, ok)
	assert.Equal(t, 42, v)
	assert.Nil(t, state.GetStep("unknown"))
}

func TestStepFuncNilClosure(t *testing.T) {
	step := operations.NewStep("noop", "No-op", nil)
	assert.Equal(t, "noop", step.ID())
	assert.Equal(t, "No-op", step.Name())
	assert.NoError(t, step.Execute(context.Background(), operations.NewState("run")))
}
