package aggregate

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360/complianceflow/errors"
	"github.com/c360/complianceflow/metric"
	"github.com/c360/complianceflow/pkg/buffer"
	"github.com/c360/complianceflow/rules"
)

// DefaultHistorySize is the number of intervals kept in Snapshot.History.
const DefaultHistorySize = 30

// Slot is the hand-off point between one worker and the aggregator.
type Slot struct {
	counters atomic.Pointer[Counters]
	fault    atomic.Pointer[Fault]
	finished atomic.Bool
}

// Publish makes c the worker's latest counters. The caller must not modify c
// afterwards.
func (s *Slot) Publish(c *Counters) {
	s.counters.Store(c)
}

// Counters returns the last published counters, or nil.
func (s *Slot) Counters() *Counters {
	return s.counters.Load()
}

// SetFault records the fault that stopped the worker.
func (s *Slot) SetFault(f Fault) {
	s.fault.Store(&f)
}

// Fault returns the recorded fault, or nil.
func (s *Slot) Fault() *Fault {
	return s.fault.Load()
}

// Finish marks the worker as exited.
func (s *Slot) Finish() {
	s.finished.Store(true)
}

// Finished reports whether the worker exited.
func (s *Slot) Finished() bool {
	return s.finished.Load()
}

// Aggregator merges worker slots into snapshots.
type Aggregator struct {
	runID       string
	interval    time.Duration
	historySize int
	registry    *metric.MetricsRegistry
	logger      *slog.Logger
	now         func() time.Time

	slots   []*Slot
	latest  atomic.Pointer[Snapshot]
	history *buffer.Ring[HistoryPoint]

	mu         sync.Mutex // serializes Collect
	start      time.Time
	seq        uint64
	prevAt     time.Time
	prevTotal  uint64
	prevSystem [rules.NumSystems]uint64
	prevRisk   uint64
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithRunID stamps every snapshot with id.
func WithRunID(id string) Option {
	return func(a *Aggregator) { a.runID = id }
}

// WithInterval sets the Run cadence.
func WithInterval(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.interval = d
		}
	}
}

// WithHistorySize sets how many intervals Snapshot.History keeps.
func WithHistorySize(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.historySize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithMetrics records snapshot publication in registry.
func WithMetrics(registry *metric.MetricsRegistry) Option {
	return func(a *Aggregator) { a.registry = registry }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// New creates an aggregator with one slot per worker and publishes an empty
// snapshot so Latest never returns nil.
func New(workers int, opts ...Option) (*Aggregator, error) {
	if workers <= 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Aggregator", "New", "check worker count")
	}

	a := &Aggregator{
		interval:    5 * time.Second,
		historySize: DefaultHistorySize,
		logger:      slog.Default(),
		now:         time.Now,
		slots:       make([]*Slot, workers),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("component", "aggregator")

	for i := range a.slots {
		a.slots[i] = &Slot{}
	}

	history, err := buffer.NewRing[HistoryPoint](a.historySize,
		buffer.WithMetrics[HistoryPoint](a.registry, "history"))
	if err != nil {
		return nil, err
	}
	a.history = history

	a.start = a.now()
	a.prevAt = a.start
	a.latest.Store(&Snapshot{
		RunID:                a.runID,
		PublishedAt:          a.start,
		Interval:             a.interval,
		CompliancePercentage: 100,
		Workers:              workers,
		ActiveWorkers:        workers,
		Faults:               []Fault{},
		History:              []HistoryPoint{},
	})
	return a, nil
}

// Slot returns the slot of worker i.
func (a *Aggregator) Slot(i int) *Slot {
	return a.slots[i]
}

// Workers returns the number of slots.
func (a *Aggregator) Workers() int {
	return len(a.slots)
}

// Interval returns the Run cadence.
func (a *Aggregator) Interval() time.Duration {
	return a.interval
}

// Latest returns the most recently published snapshot.
func (a *Aggregator) Latest() *Snapshot {
	return a.latest.Load()
}

// Begin marks the start of the run. Uptime and the first interval's
// throughput are measured from here; it has no effect once a snapshot was
// collected.
func (a *Aggregator) Begin() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.seq > 0 {
		return
	}
	a.start = a.now()
	a.prevAt = a.start
}

// Collect merges every slot, publishes a new snapshot and returns it.
func (a *Aggregator) Collect() *Snapshot {
	began := time.Now()

	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()

	var totals Counters
	faults := []Fault{}
	active := 0
	for _, s := range a.slots {
		totals.Merge(s.Counters())
		switch {
		case s.Fault() != nil:
			faults = append(faults, *s.Fault())
		case !s.Finished():
			active++
		}
	}

	elapsed := now.Sub(a.prevAt)
	delta := totals.TotalEvents - a.prevTotal
	var throughput float64
	if elapsed > 0 {
		throughput = float64(delta) / elapsed.Seconds()
	}

	point := HistoryPoint{At: now, Events: delta, Throughput: throughput}
	for i := range point.SystemViolations {
		point.SystemViolations[i] = totals.SystemViolations[i] - a.prevSystem[i]
	}
	if delta > 0 {
		point.AverageRiskScore = float64(totals.RiskScoreSum-a.prevRisk) / float64(delta)
	}
	a.history.Push(point)

	a.seq++
	snap := &Snapshot{
		RunID:                a.runID,
		Sequence:             a.seq,
		PublishedAt:          now,
		Uptime:               now.Sub(a.start),
		Interval:             a.interval,
		Totals:               totals,
		IntervalEvents:       delta,
		Throughput:           throughput,
		AverageRiskScore:     totals.AverageRiskScore(),
		AverageSensitivity:   totals.AverageSensitivity(),
		CompliancePercentage: totals.CompliancePercentage(),
		Workers:              len(a.slots),
		ActiveWorkers:        active,
		FaultedWorkers:       len(faults),
		Faults:               faults,
		History:              a.history.Items(),
	}
	a.latest.Store(snap)

	a.prevAt = now
	a.prevTotal = totals.TotalEvents
	a.prevSystem = totals.SystemViolations
	a.prevRisk = totals.RiskScoreSum

	if a.registry != nil {
		a.registry.CoreMetrics().RecordSnapshot(time.Since(began))
	}
	a.logger.Debug("snapshot published",
		"sequence", snap.Sequence,
		"total_events", totals.TotalEvents,
		"interval_events", delta,
		"throughput", throughput)

	return snap
}

// Run collects every interval until ctx is done.
func (a *Aggregator) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			a.Collect()
		}
	}
}
