package component

import (
	"context"
	"sync/atomic"
	"time"
)

// State represents the current lifecycle state of a component
type State int32

const (
	// StateCreated indicates component was created but not started
	StateCreated State = iota
	// StateStarted indicates component is running
	StateStarted
	// StateStopping indicates shutdown was requested and is in progress
	StateStopping
	// StateStopped indicates component was stopped
	StateStopped
	// StateFailed indicates component failed during lifecycle operation
	StateFailed
)

// String returns a string representation of the component state
func (cs State) String() string {
	switch cs {
	case StateCreated:
		return "created"
	case StateStarted:
		return "started"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Lifecycle is implemented by long-running components. Start returns once the
// component is running and stops it when ctx is cancelled; Stop waits at most
// timeout for it to drain.
type Lifecycle interface {
	Start(ctx context.Context) error
	Stop(timeout time.Duration) error
}

// StateTracker holds a component's state for lock-free reads
type StateTracker struct {
	state atomic.Int32
}

// Load returns the current state
func (t *StateTracker) Load() State {
	return State(t.state.Load())
}

// Transition moves from one state to another and reports whether the
// current state was from
func (t *StateTracker) Transition(from, to State) bool {
	return t.state.CompareAndSwap(int32(from), int32(to))
}

// Set forces the state
func (t *StateTracker) Set(s State) {
	t.state.Store(int32(s))
}
