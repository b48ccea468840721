package buffer

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/complianceflow/metric"
)

type ringMetrics struct {
	pushes    prometheus.Counter
	evictions prometheus.Counter
	length    prometheus.Gauge
}

func newRingMetrics(registry *metric.MetricsRegistry, name string) (*ringMetrics, error) {
	labels := prometheus.Labels{"ring": name}
	m := &ringMetrics{
		pushes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   metric.Namespace,
			Subsystem:   "ring",
			Name:        "pushes_total",
			Help:        "Items pushed into the ring",
			ConstLabels: labels,
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   metric.Namespace,
			Subsystem:   "ring",
			Name:        "evictions_total",
			Help:        "Oldest items evicted to make room",
			ConstLabels: labels,
		}),
		length: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   metric.Namespace,
			Subsystem:   "ring",
			Name:        "length",
			Help:        "Items currently held",
			ConstLabels: labels,
		}),
	}

	if err := registry.Register("ring/"+name, "pushes", m.pushes); err != nil {
		return nil, err
	}
	if err := registry.Register("ring/"+name, "evictions", m.evictions); err != nil {
		return nil, err
	}
	if err := registry.Register("ring/"+name, "length", m.length); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *ringMetrics) record(evicted bool, size int) {
	m.pushes.Inc()
	if evicted {
		m.evictions.Inc()
	}
	m.length.Set(float64(size))
}
