package worker

import "errors"

var (
	// ErrPoolNotStarted is returned by Wait before Start
	ErrPoolNotStarted = errors.New("worker pool not started")

	// ErrPoolStopped is returned by Start once the pool has run; pools are single use
	ErrPoolStopped = errors.New("worker pool stopped")

	// ErrPoolAlreadyStarted is returned by a second Start
	ErrPoolAlreadyStarted = errors.New("worker pool already started")

	// ErrNilRunner is the panic value of NewPool when runner is nil
	ErrNilRunner = errors.New("runner function cannot be nil")

	// ErrStopTimeout is returned by Stop when runners outlive the timeout
	ErrStopTimeout = errors.New("timeout waiting for workers to stop")
)
