package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/c360/complianceflow/aggregate"
	"github.com/c360/complianceflow/ecs"
	"github.com/c360/complianceflow/generator"
	"github.com/c360/complianceflow/metric"
	"github.com/c360/complianceflow/rules"
)

// worker owns everything one goroutine touches in the hot loop. Nothing here
// is shared: the only hand-off is the counters copy published to slot.
type worker struct {
	id       int
	schedule Schedule
	maxBatch int
	duration time.Duration

	// limiter paces the worker at its share of the target rate; nil runs
	// unthrottled
	limiter *rate.Limiter
	idle    bool

	store  *ecs.Store
	gen    *generator.Generator
	eval   *rules.Evaluator
	policy *rules.Policy

	scratch aggregate.Counters
	local   aggregate.Counters
	slot    *aggregate.Slot

	metrics *metric.Metrics
	logger  *slog.Logger
	hook    func(worker int, batch ecs.IDRange)
}

// run processes ticks until the context is done, the id limit is reached or
// the run duration elapsed. A tick in progress always completes.
func (w *worker) run(ctx context.Context, start time.Time) error {
	for t := uint64(0); ; t++ {
		if ctx.Err() != nil {
			return nil
		}
		if w.schedule.Exhausted(t) {
			w.logger.Debug("id limit reached", "tick", t)
			return nil
		}

		// Throttled runs measure duration in schedule time so the event
		// count does not depend on scheduling jitter
		if w.duration > 0 {
			elapsed := w.schedule.TickStart(t)
			if w.limiter == nil {
				elapsed = time.Since(start)
			}
			if elapsed >= w.duration {
				w.logger.Debug("run duration reached", "tick", t)
				return nil
			}
		}

		share := w.schedule.Share(t, w.id)
		n := share.Len()
		if w.idle {
			n = 1
		}
		if w.limiter != nil && n > 0 {
			if err := w.limiter.WaitN(ctx, n); err != nil {
				w.logger.Debug("throttle wait interrupted", "tick", t, "error", err)
				return nil
			}
		}

		w.tick(share)
	}
}

// tick generates, evaluates and folds one share in sub-batches of at most
// maxBatch events, then publishes the updated counters. A panic leaves local
// and the published counters untouched.
func (w *worker) tick(share ecs.IDRange) {
	if share.Len() == 0 {
		return
	}
	began := time.Now()

	w.scratch.Reset()
	w.store.Seek(share.First)
	for first := share.First; first < share.End; {
		n := min(int(share.End-first), w.maxBatch)
		if w.hook != nil {
			w.hook(w.id, ecs.IDRange{First: first, End: first + ecs.ID(n)})
		}

		batch := w.gen.Generate(w.store, n)
		w.eval.Run(w.store, batch)
		w.scratch.Fold(w.policy, w.store, batch)
		first = batch.End
	}

	w.local.Merge(&w.scratch)
	w.slot.Publish(w.local.Clone())

	if w.metrics != nil {
		w.metrics.RecordBatch(w.id, time.Since(began))
	}
}
