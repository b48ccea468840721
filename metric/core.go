package metric

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric the pipeline exports.
const Namespace = "complianceflow"

// Metrics contains the pipeline-level metrics (not snapshot contents)
type Metrics struct {
	ComponentStatus *prometheus.GaugeVec

	// Worker metrics
	BatchesProcessed *prometheus.CounterVec
	BatchDuration    *prometheus.HistogramVec
	WorkerFaults     *prometheus.CounterVec

	// Aggregator metrics
	SnapshotsPublished prometheus.Counter
	SnapshotDuration   prometheus.Histogram

	HealthCheckStatus *prometheus.GaugeVec
}

// NewMetrics creates a new Metrics instance with all pipeline metrics
func NewMetrics() *Metrics {
	return &Metrics{
		ComponentStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Subsystem: "component",
				Name:      "status",
				Help:      "Component state (0=created, 1=started, 2=stopping, 3=stopped, 4=failed)",
			},
			[]string{"component"},
		),

		BatchesProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "worker",
				Name:      "batches_total",
				Help:      "Total number of batches generated, evaluated and folded",
			},
			[]string{"worker"},
		),

		BatchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "worker",
				Name:      "batch_duration_seconds",
				Help:      "Time to generate, evaluate and fold one batch",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
			[]string{"worker"},
		),

		WorkerFaults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "worker",
				Name:      "faults_total",
				Help:      "Total number of workers stopped by an invariant violation",
			},
			[]string{"worker"},
		),

		SnapshotsPublished: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "aggregator",
				Name:      "snapshots_published_total",
				Help:      "Total number of snapshots published",
			},
		),

		SnapshotDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "aggregator",
				Name:      "collect_duration_seconds",
				Help:      "Time to merge worker counters and publish a snapshot",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 8),
			},
		),

		HealthCheckStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Subsystem: "health",
				Name:      "status",
				Help:      "Health check status (0=unhealthy, 1=degraded, 2=healthy)",
			},
			[]string{"component"},
		),
	}
}

func (c *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		c.ComponentStatus,
		c.BatchesProcessed,
		c.BatchDuration,
		c.WorkerFaults,
		c.SnapshotsPublished,
		c.SnapshotDuration,
		c.HealthCheckStatus,
	}
}

// RecordComponentStatus updates the component state metric
func (c *Metrics) RecordComponentStatus(component string, state int) {
	c.ComponentStatus.WithLabelValues(component).Set(float64(state))
}

// RecordBatch counts one processed batch of a worker and its duration
func (c *Metrics) RecordBatch(worker int, duration time.Duration) {
	label := strconv.Itoa(worker)
	c.BatchesProcessed.WithLabelValues(label).Inc()
	c.BatchDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// RecordWorkerFault counts a worker stopped by a fault
func (c *Metrics) RecordWorkerFault(worker int) {
	c.WorkerFaults.WithLabelValues(strconv.Itoa(worker)).Inc()
}

// RecordSnapshot counts a published snapshot and the time it took to build
func (c *Metrics) RecordSnapshot(duration time.Duration) {
	c.SnapshotsPublished.Inc()
	c.SnapshotDuration.Observe(duration.Seconds())
}

// RecordHealthStatus updates health check status
func (c *Metrics) RecordHealthStatus(component string, healthy, degraded bool) {
	value := 0.0
	switch {
	case healthy:
		value = 2.0
	case degraded:
		value = 1.0
	}
	c.HealthCheckStatus.WithLabelValues(component).Set(value)
}
