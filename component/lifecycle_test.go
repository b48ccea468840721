package component

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestState_String(t *testing.T) {
	assert.Equal(t, "created", StateCreated.String())
	assert.Equal(t, "started", StateStarted.String())
	assert.Equal(t, "stopping", StateStopping.String())
	assert.Equal(t, "stopped", StateStopped.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestStateTracker(t *testing.T) {
	var tr StateTracker
	assert.Equal(t, StateCreated, tr.Load())

	assert.True(t, tr.Transition(StateCreated, StateStarted))
	assert.False(t, tr.Transition(StateCreated, StateStarted), "second start must fail")
	assert.Equal(t, StateStarted, tr.Load())

	assert.True(t, tr.Transition(StateStarted, StateStopping))
	tr.Set(StateStopped)
	assert.Equal(t, StateStopped, tr.Load())
}
