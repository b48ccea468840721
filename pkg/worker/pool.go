package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/complianceflow/errors"
	"github.com/c360/complianceflow/metric"
)

// Runner is the body of one worker. It runs until ctx is done or its work is
// finished and returns why it stopped.
type Runner func(ctx context.Context, id int) error

// ExitFunc is called once per worker after its runner returned or panicked.
type ExitFunc func(id int, err error)

// Pool runs a fixed number of long-lived workers
type Pool struct {
	// Configuration
	workers int
	runner  Runner
	onExit  ExitFunc

	// Runtime state
	metrics *Metrics
	wg      sync.WaitGroup
	cancel  context.CancelFunc
	done    chan struct{}
	errs    []error

	// Lifecycle management
	lifecycleMu sync.Mutex
	started     bool
	stopped     bool

	// Statistics (atomic)
	running   int64
	completed int64
	failed    int64
	panicked  int64

	// Metrics configuration
	metricsRegistry metric.Registrar
	metricsPrefix   string
}

// Metrics holds Prometheus metrics for worker pool monitoring
type Metrics struct {
	running  prometheus.Gauge
	exits    *prometheus.CounterVec
	lifetime prometheus.Histogram
}

// Option represents a configuration option for the worker pool
type Option func(*Pool)

// WithMetricsRegistry configures the pool to register metrics with the registry
func WithMetricsRegistry(registry metric.Registrar, prefix string) Option {
	return func(p *Pool) {
		p.metricsRegistry = registry
		p.metricsPrefix = prefix
	}
}

// WithExitFunc installs a callback invoked as each worker exits
func WithExitFunc(fn ExitFunc) Option {
	return func(p *Pool) {
		p.onExit = fn
	}
}

// NewPool creates a pool of workers sharing one runner
func NewPool(workers int, runner Runner, opts ...Option) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if runner == nil {
		panic(ErrNilRunner)
	}

	pool := &Pool{
		workers: workers,
		runner:  runner,
		done:    make(chan struct{}),
		errs:    make([]error, workers),
	}

	for _, opt := range opts {
		opt(pool)
	}

	if pool.metricsRegistry != nil && pool.metricsPrefix != "" {
		pool.initializeMetrics()
	}

	return pool
}

// initializeMetrics creates and registers metrics with the registry
func (p *Pool) initializeMetrics() {
	name := func(n string) string {
		return prometheus.BuildFQName(metric.Namespace, p.metricsPrefix, n)
	}

	running := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: name("running"),
		Help: "Workers currently running",
	})
	exits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: name("exits_total"),
		Help: "Worker exits by outcome",
	}, []string{"status"})
	lifetime := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    name("lifetime_seconds"),
		Help:    "Time from worker start to exit",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
	})

	owner := "worker_pool/" + p.metricsPrefix
	added := make([]string, 0, 3)
	for _, m := range []struct {
		name string
		c    prometheus.Collector
	}{
		{"running", running},
		{"exits_total", exits},
		{"lifetime_seconds", lifetime},
	} {
		if err := p.metricsRegistry.Register(owner, m.name, m.c); err != nil {
			for _, name := range added {
				p.metricsRegistry.Unregister(owner, name)
			}
			return
		}
		added = append(added, m.name)
	}

	p.metrics = &Metrics{
		running:  running,
		exits:    exits,
		lifetime: lifetime,
	}
}

// Start launches every worker. Workers stop when ctx is done, when Stop is
// called, or when their runner returns.
func (p *Pool) Start(ctx context.Context) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	if p.started {
		return ErrPoolAlreadyStarted
	}
	if p.stopped {
		return ErrPoolStopped
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(p.workers)
	for i := range p.workers {
		go p.worker(runCtx, i)
	}

	go func() {
		p.wg.Wait()
		cancel()
		close(p.done)
	}()

	p.started = true
	return nil
}

// Stop cancels every worker and waits up to timeout for them to return
func (p *Pool) Stop(timeout time.Duration) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	if !p.started || p.stopped {
		return nil
	}

	p.cancel()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-p.done:
		p.stopped = true
		return nil
	case <-timer.C:
		return ErrStopTimeout
	}
}

// Done is closed once every worker has returned
func (p *Pool) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until every worker has returned or ctx is done
func (p *Pool) Wait(ctx context.Context) error {
	p.lifecycleMu.Lock()
	started := p.started
	p.lifecycleMu.Unlock()
	if !started {
		return ErrPoolNotStarted
	}

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Errors returns the exit error of each worker, indexed by worker id.
// Only meaningful after Done is closed.
func (p *Pool) Errors() []error {
	select {
	case <-p.done:
	default:
		return nil
	}
	out := make([]error, len(p.errs))
	copy(out, p.errs)
	return out
}

// Stats returns current pool statistics
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Workers:   p.workers,
		Running:   atomic.LoadInt64(&p.running),
		Completed: atomic.LoadInt64(&p.completed),
		Failed:    atomic.LoadInt64(&p.failed),
		Panicked:  atomic.LoadInt64(&p.panicked),
	}
}

// PoolStats represents worker pool statistics
type PoolStats struct {
	Workers   int   `json:"workers"`
	Running   int64 `json:"running"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Panicked  int64 `json:"panicked"`
}

// worker runs one runner to completion and records how it ended
func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	start := time.Now()
	atomic.AddInt64(&p.running, 1)
	if p.metrics != nil {
		p.metrics.running.Inc()
	}

	panicked, err := p.run(ctx, id)

	atomic.AddInt64(&p.running, -1)
	status := "ok"
	switch {
	case panicked:
		atomic.AddInt64(&p.panicked, 1)
		status = "panic"
	case err != nil && ctx.Err() == nil:
		atomic.AddInt64(&p.failed, 1)
		status = "error"
	default:
		atomic.AddInt64(&p.completed, 1)
	}
	p.errs[id] = err

	if p.metrics != nil {
		p.metrics.running.Dec()
		p.metrics.exits.WithLabelValues(status).Inc()
		p.metrics.lifetime.Observe(time.Since(start).Seconds())
	}

	if p.onExit != nil {
		p.onExit(id, err)
	}
}

// run calls the runner, converting a panic into a fatal error
func (p *Pool) run(ctx context.Context, id int) (panicked bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			err = errors.FromPanic(r, "Worker", "Run")
		}
	}()
	return false, p.runner(ctx, id)
}
