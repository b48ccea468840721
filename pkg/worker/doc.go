// Package worker provides a fixed pool of long-lived worker goroutines.
//
// # Overview
//
// Each worker runs the same Runner with its own id until the runner returns
// or the pool's context is cancelled. There is no queue: a runner decides
// what to work on from its id, which suits pipelines where every worker owns
// a disjoint slice of the input and keeps its own state.
//
//	pool := worker.NewPool(4, func(ctx context.Context, id int) error {
//	    for ctx.Err() == nil {
//	        // process the share owned by id
//	    }
//	    return nil
//	})
//	if err := pool.Start(ctx); err != nil {
//	    return err
//	}
//	<-pool.Done()
//
// # Faults
//
// A panic in a runner is recovered and converted with errors.FromPanic into a
// fatal classified error. Only the panicking worker stops; the others keep
// running. The error is passed to the ExitFunc installed with WithExitFunc
// and is available from Errors once every worker returned.
//
// # Shutdown
//
// Stop(timeout) cancels the context handed to runners and waits for them.
// Runners are expected to check ctx at a bounded interval and return.
// ErrStopTimeout is reported when they don't make it in time. Done is closed
// when the last worker exits, whether by Stop, by the parent context or
// because every runner finished on its own.
//
// # Observability
//
// Statistics are always tracked with atomics (Stats). With
// WithMetricsRegistry the pool also registers, under the complianceflow
// namespace and the given prefix:
//
//   - <prefix>_running: workers currently running
//   - <prefix>_exits_total{status}: exits by ok, error or panic
//   - <prefix>_lifetime_seconds: time from start to exit
//
// # Thread Safety
//
// Start, Stop and Wait are serialized by a mutex. Stats, Done and Errors are
// safe to call from any goroutine.
package worker
