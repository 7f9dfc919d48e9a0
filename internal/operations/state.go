package operations

import (
	"sync"
	"time"
)

// Status represents the overall status of a job run
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// State tracks one job run: the state of every step plus a shared context map
// steps use to hand results to later steps.
type State struct {
	mu        sync.RWMutex
	ID        string
	Status    Status
	StartTime time.Time
	EndTime   *time.Time
	Error     error
	steps     map[string]*StepState
	order     []string
	context   map[string]interface{}
}

// NewState creates a pending job state
func NewState(id string) *State {
	return &State{
		ID:      id,
		Status:  StatusPending,
		steps:   make(map[string]*StepState),
		context: make(map[string]interface{}),
	}
}

// Start marks the run as started
func (s *State) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = StatusRunning
	s.StartTime = time.Now()
}

// Complete marks the run as completed
func (s *State) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = StatusCompleted
}

// Fail marks the run as failed
func (s *State) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = StatusFailed
	s.Error = err
}

// Cancel marks the run as cancelled
func (s *State) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = StatusCancelled
}

// CurrentStatus returns the run status under the read lock
func (s *State) CurrentStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}

// GetStep returns the state of a step, nil when unknown
func (s *State) GetStep(id string) *StepState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.steps[id]
}

// ensureStep registers a pending state for step unless one exists
func (s *State) ensureStep(step Step) *StepState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.steps[step.ID()]; ok {
		return st
	}
	st := NewStepState(step.ID(), step.Name())
	s.steps[step.ID()] = st
	s.order = append(s.order, step.ID())
	return st
}

// Steps returns the step states in registration order
func (s *State) Steps() []*StepState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*StepState, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.steps[id])
	}
	return out
}

// GetContext retrieves a value stored by an earlier step
func (s *State) GetContext(key string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.context[key]
	return v, ok
}

// SetContext stores a value for later steps
func (s *State) SetContext(key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.context[key] = value
}

// Duration returns the run duration so far
func (s *State) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.StartTime.IsZero() {
		return 0
	}
	if s.EndTime != nil {
		return s.EndTime.Sub(s.StartTime)
	}
	return time.Since(s.StartTime)
}

// HasFailures reports whether any step failed
func (s *State) HasFailures() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, st := range s.steps {
		if st.CurrentStatus() == StepStatusFailed {
			return true
		}
	}
	return false
}
