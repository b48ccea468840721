package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorClass_String(t *testing.T) {
	assert.Equal(t, "transient", ErrorTransient.String())
	assert.Equal(t, "invalid", ErrorInvalid.String())
	assert.Equal(t, "fatal", ErrorFatal.String())
	assert.Equal(t, "unknown", ErrorClass(999).String())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{"nil", nil, ErrorTransient},
		{"plain", fmt.Errorf("boom"), ErrorTransient},
		{"canceled", context.Canceled, ErrorTransient},
		{"invariant sentinel", ErrInvariantViolation, ErrorFatal},
		{"wrapped invariant", fmt.Errorf("tick 3: %w", ErrInvariantViolation), ErrorFatal},
		{"invalid config", ErrInvalidConfig, ErrorInvalid},
		{"missing config", fmt.Errorf("load: %w", ErrMissingConfig), ErrorInvalid},
		{"out of range", ErrOutOfRange, ErrorInvalid},
		{"classified wins", WrapTransient(ErrInvalidConfig, "C", "M", "a"), ErrorTransient},
		{"outermost class wins", WrapFatal(WrapInvalid(ErrOutOfRange, "C", "M", "a"), "D", "N", "b"), ErrorFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestPredicates(t *testing.T) {
	assert.False(t, IsTransient(nil), "nil is not an error of any class")
	assert.False(t, IsInvalid(nil))
	assert.False(t, IsFatal(nil))

	assert.True(t, IsTransient(context.DeadlineExceeded))
	assert.True(t, IsInvalid(WrapInvalid(errors.New("x"), "C", "M", "a")))
	assert.True(t, IsFatal(Invariant("C", "M", "x")))
	assert.False(t, IsFatal(ErrInvalidConfig))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "C", "M", "a"))
	assert.Nil(t, WrapTransient(nil, "C", "M", "a"))
	assert.Nil(t, WrapInvalid(nil, "C", "M", "a"))
	assert.Nil(t, WrapFatal(nil, "C", "M", "a"))

	base := errors.New("disk on fire")
	err := Wrap(base, "Store", "Seek", "seek")
	assert.Equal(t, "Store.Seek: seek failed: disk on fire", err.Error())
	assert.ErrorIs(t, err, base)

	err = WrapInvalid(ErrInvalidConfig, "Config", "Validate", "check threads")
	assert.Equal(t, "Config.Validate: check threads failed: invalid configuration", err.Error())
	assert.ErrorIs(t, err, ErrInvalidConfig)

	var ce *ClassifiedError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrorInvalid, ce.Class)
	assert.Equal(t, "Config", ce.Component)
	assert.Equal(t, "Validate", ce.Operation)
}

func TestInvariant(t *testing.T) {
	err := Invariant("Store", "AllocateBatch", "batch of %d exceeds capacity %d", 10, 4)

	assert.Equal(t, "Store.AllocateBatch: invariant violation: batch of 10 exceeds capacity 4", err.Error())
	assert.ErrorIs(t, err, ErrInvariantViolation)
	assert.Equal(t, ErrorFatal, Classify(err))

	var ce *ClassifiedError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "Store", ce.Component)
	assert.Equal(t, "AllocateBatch", ce.Operation)
}

func TestFromPanic(t *testing.T) {
	assert.Nil(t, FromPanic(nil, "Worker", "Run"))

	inv := Invariant("Rules", "GDPR", "cleared bit")
	assert.Same(t, inv, FromPanic(inv, "Worker", "Run"), "fatal errors pass through")

	err := FromPanic(errors.New("index out of range"), "Worker", "Run")
	assert.True(t, IsFatal(err))
	assert.Equal(t, "Worker.Run: recovered panic failed: index out of range", err.Error())

	err = FromPanic("boom", "Worker", "Run")
	assert.True(t, IsFatal(err))
	assert.Contains(t, err.Error(), "panic: boom")

	err = FromPanic(ErrInvalidConfig, "Worker", "Run")
	assert.True(t, IsFatal(err), "a panic is fatal whatever it carries")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
