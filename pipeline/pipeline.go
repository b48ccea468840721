// Package pipeline runs the generate, evaluate and aggregate loop across a
// fixed pool of workers.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/c360/complianceflow/aggregate"
	"github.com/c360/complianceflow/component"
	"github.com/c360/complianceflow/config"
	"github.com/c360/complianceflow/ecs"
	"github.com/c360/complianceflow/errors"
	"github.com/c360/complianceflow/generator"
	"github.com/c360/complianceflow/health"
	"github.com/c360/complianceflow/metric"
	workerpool "github.com/c360/complianceflow/pkg/worker"
	"github.com/c360/complianceflow/rules"
)

const (
	// SystemName is the name of the aggregated health status
	SystemName = "complianceflow"

	aggregatorComponent = "aggregator"
	workerPrefix        = "worker-"
)

// Pipeline owns the workers, the aggregator and their health
type Pipeline struct {
	cfg      *config.Config
	runID    string
	policy   *rules.Policy
	schedule Schedule

	agg     *aggregate.Aggregator
	pool    *workerpool.Pool
	workers []*worker

	monitor  *health.Monitor
	registry *metric.MetricsRegistry
	logger   *slog.Logger

	state component.StateTracker
	start time.Time
	done  chan struct{}

	// faultHook is called before every sub-batch; tests use it to inject panics
	faultHook func(worker int, batch ecs.IDRange)
}

var _ component.Lifecycle = (*Pipeline)(nil)

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMetrics registers pipeline metrics and the snapshot collector in registry
func WithMetrics(registry *metric.MetricsRegistry) Option {
	return func(p *Pipeline) { p.registry = registry }
}

// WithRunID overrides the generated run ID
func WithRunID(id string) Option {
	return func(p *Pipeline) {
		if id != "" {
			p.runID = id
		}
	}
}

// WithMonitor shares a health monitor with other components
func WithMonitor(m *health.Monitor) Option {
	return func(p *Pipeline) {
		if m != nil {
			p.monitor = m
		}
	}
}

// New validates cfg and builds one worker per configured thread
func New(cfg *config.Config, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Pipeline", "New", "check config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{
		cfg:     cfg,
		runID:   uuid.NewString(),
		monitor: health.NewMonitor(),
		logger:  slog.Default(),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	base := p.logger.With("run_id", p.runID)
	p.logger = base.With("component", "pipeline")

	policy, err := rules.Compile(cfg.Policy)
	if err != nil {
		return nil, err
	}
	p.policy = policy
	p.schedule = NewSchedule(cfg.TargetRate, cfg.TicksPerSecond, cfg.Threads, cfg.MaxEvents)

	p.agg, err = aggregate.New(cfg.Threads,
		aggregate.WithRunID(p.runID),
		aggregate.WithInterval(cfg.ReportInterval.Std()),
		aggregate.WithHistorySize(cfg.HistorySize),
		aggregate.WithLogger(base),
		aggregate.WithMetrics(p.registry))
	if err != nil {
		return nil, err
	}

	var coreMetrics *metric.Metrics
	poolOpts := []workerpool.Option{workerpool.WithExitFunc(p.workerExited)}
	if p.registry != nil {
		coreMetrics = p.registry.CoreMetrics()
		poolOpts = append(poolOpts, workerpool.WithMetricsRegistry(p.registry, "worker_pool"))
		if err := p.registry.Register("aggregator", "snapshot", aggregate.NewCollector(p.agg)); err != nil {
			return nil, err
		}
	}

	p.workers = make([]*worker, cfg.Threads)
	for i := range p.workers {
		gen, err := generator.New(cfg.Seed, cfg.Generator)
		if err != nil {
			return nil, err
		}
		var (
			limiter *rate.Limiter
			idle    bool
		)
		if cfg.Throttle {
			perSecond, burst := p.schedule.WorkerRate(i)
			if perSecond > 0 {
				limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
			} else {
				// owns no ids; step through ticks at the tick rate
				limiter = rate.NewLimiter(rate.Limit(cfg.TicksPerSecond), 1)
				idle = true
			}
		}
		p.workers[i] = &worker{
			id:       i,
			schedule: p.schedule,
			maxBatch: cfg.MaxBatch,
			duration: cfg.Duration.Std(),
			limiter:  limiter,
			idle:     idle,
			store:    ecs.NewStore(cfg.MaxBatch),
			gen:      gen,
			eval:     rules.NewEvaluator(policy),
			policy:   policy,
			slot:     p.agg.Slot(i),
			metrics:  coreMetrics,
			logger:   p.logger.With("worker", i),
		}
	}

	p.pool = workerpool.NewPool(cfg.Threads, p.runWorker, poolOpts...)
	p.setState(component.StateCreated)
	return p, nil
}

// Start launches the workers and the aggregator. Cancelling ctx stops the
// workers; the aggregator publishes a final snapshot once they drained.
func (p *Pipeline) Start(ctx context.Context) error {
	if !p.state.Transition(component.StateCreated, component.StateStarted) {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Pipeline", "Start", "check state")
	}
	if p.registry != nil {
		p.registry.CoreMetrics().RecordComponentStatus("pipeline", int(component.StateStarted))
	}

	for _, w := range p.workers {
		w.hook = p.faultHook
		p.updateHealth(workerName(w.id), health.NewHealthy(workerName(w.id), "running"))
	}
	p.updateHealth(aggregatorComponent, health.NewHealthy(aggregatorComponent, "publishing"))

	p.start = time.Now()
	p.agg.Begin()
	aggCtx, stopAgg := context.WithCancel(context.Background())
	aggDone := make(chan struct{})
	go func() {
		defer close(aggDone)
		_ = p.agg.Run(aggCtx)
	}()

	if err := p.pool.Start(ctx); err != nil {
		stopAgg()
		p.setState(component.StateFailed)
		close(p.done)
		return errors.WrapFatal(err, "Pipeline", "Start", "start workers")
	}

	p.logger.Info("pipeline started",
		"workers", p.cfg.Threads,
		"target_rate", p.cfg.TargetRate,
		"ticks_per_second", p.cfg.TicksPerSecond,
		"throttle", p.cfg.Throttle,
		"max_events", p.cfg.MaxEvents,
		"duration", p.cfg.Duration.Std())

	go func() {
		<-p.pool.Done()
		stopAgg()
		<-aggDone

		snap := p.agg.Collect()
		p.updateHealth(aggregatorComponent, health.NewHealthy(aggregatorComponent, "stopped"))
		p.setState(component.StateStopped)
		p.logger.Info("pipeline stopped",
			"total_events", snap.Totals.TotalEvents,
			"faulted_workers", snap.FaultedWorkers,
			"elapsed", time.Since(p.start))
		close(p.done)
	}()

	return nil
}

// Stop cancels the workers and waits up to timeout for the final snapshot
func (p *Pipeline) Stop(timeout time.Duration) error {
	switch p.state.Load() {
	case component.StateCreated, component.StateStopped, component.StateFailed:
		return nil
	}
	p.state.Transition(component.StateStarted, component.StateStopping)

	deadline := time.Now().Add(timeout)
	if err := p.pool.Stop(timeout); err != nil {
		return errors.WrapTransient(err, "Pipeline", "Stop", "stop workers")
	}

	timer := time.NewTimer(max(time.Until(deadline), 0))
	defer timer.Stop()

	select {
	case <-p.done:
		return nil
	case <-timer.C:
	}

	// The final snapshot may have landed together with the deadline.
	select {
	case <-p.done:
		return nil
	default:
		return errors.WrapTransient(workerpool.ErrStopTimeout, "Pipeline", "Stop", "wait for final snapshot")
	}
}

// Done is closed after the workers exited and the final snapshot was published
func (p *Pipeline) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until Done or ctx is done
func (p *Pipeline) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Latest returns the most recently published snapshot
func (p *Pipeline) Latest() *aggregate.Snapshot {
	return p.agg.Latest()
}

// Aggregator returns the snapshot aggregator
func (p *Pipeline) Aggregator() *aggregate.Aggregator {
	return p.agg
}

// RunID returns the ID stamped on every snapshot
func (p *Pipeline) RunID() string {
	return p.runID
}

// State returns the lifecycle state
func (p *Pipeline) State() component.State {
	return p.state.Load()
}

// Health aggregates the aggregator with the workers. Losing some workers
// degrades the pipeline; losing all of them or the aggregator is unhealthy.
func (p *Pipeline) Health() health.Status {
	workers := health.Quorum("workers", p.monitor.WithPrefix(workerPrefix))
	agg, ok := p.monitor.Get(aggregatorComponent)
	if !ok {
		agg = health.NewHealthy(aggregatorComponent, "not started")
	}
	return health.Aggregate(SystemName, []health.Status{agg, workers})
}

func (p *Pipeline) runWorker(ctx context.Context, id int) error {
	return p.workers[id].run(ctx, p.start)
}

// workerExited records how a worker ended. Faults are isolated: the slot
// keeps the counters published before the fault and other workers continue.
func (p *Pipeline) workerExited(id int, err error) {
	slot := p.agg.Slot(id)
	name := workerName(id)

	if err == nil {
		slot.Finish()
		p.updateHealth(name, health.NewHealthy(name, "finished"))
		return
	}

	slot.SetFault(aggregate.Fault{
		Worker: id,
		Class:  errors.Classify(err).String(),
		Error:  err.Error(),
		At:     time.Now(),
	})
	slot.Finish()

	if p.registry != nil {
		p.registry.CoreMetrics().RecordWorkerFault(id)
	}
	p.updateHealth(name, health.FromError(name, err))
	p.logger.Error("worker faulted", "worker", id, "class", errors.Classify(err).String(), "error", err)
}

func (p *Pipeline) updateHealth(name string, status health.Status) {
	p.monitor.Update(name, status)
	if p.registry != nil {
		p.registry.CoreMetrics().RecordHealthStatus(name, status.IsHealthy(), status.IsDegraded())
	}
}

func (p *Pipeline) setState(s component.State) {
	p.state.Set(s)
	if p.registry != nil {
		p.registry.CoreMetrics().RecordComponentStatus("pipeline", int(s))
	}
}

func workerName(id int) string {
	return fmt.Sprintf("%s%d", workerPrefix, id)
}
