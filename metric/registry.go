package metric

import (
	stderrors "errors"
	"fmt"
	"slices"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/c360/complianceflow/errors"
)

// Registrar registers collectors under an owner-scoped key so one owner can
// later unregister exactly what it added.
type Registrar interface {
	Register(owner, name string, c prometheus.Collector) error
	Unregister(owner, name string) bool
}

// MetricsRegistry wraps a Prometheus registry holding the core pipeline
// metrics, Go runtime collectors and any component collectors.
type MetricsRegistry struct {
	prometheusRegistry *prometheus.Registry
	core               *Metrics

	mu         sync.Mutex
	registered map[string]prometheus.Collector
}

var _ Registrar = (*MetricsRegistry)(nil)

// NewMetricsRegistry creates a registry with the core metrics registered
func NewMetricsRegistry() *MetricsRegistry {
	r := &MetricsRegistry{
		prometheusRegistry: prometheus.NewRegistry(),
		core:               NewMetrics(),
		registered:         make(map[string]prometheus.Collector),
	}

	r.prometheusRegistry.MustRegister(r.core.collectors()...)
	r.prometheusRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// PrometheusRegistry returns the underlying Prometheus registry
func (r *MetricsRegistry) PrometheusRegistry() *prometheus.Registry {
	return r.prometheusRegistry
}

// CoreMetrics returns the core pipeline metrics
func (r *MetricsRegistry) CoreMetrics() *Metrics {
	return r.core
}

// Register adds c under owner/name. Reusing a key is invalid; so is a
// collector whose series clash with one already registered.
func (r *MetricsRegistry) Register(owner, name string, c prometheus.Collector) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := owner + "/" + name
	if _, exists := r.registered[key]; exists {
		return errors.WrapInvalid(fmt.Errorf("%s already registered", key),
			"MetricsRegistry", "Register", "duplicate metric registration")
	}

	if err := r.prometheusRegistry.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if stderrors.As(err, &already) {
			return errors.WrapInvalid(err, "MetricsRegistry", "Register", "prometheus conflict for "+key)
		}
		return errors.WrapFatal(err, "MetricsRegistry", "Register", "register "+key)
	}

	r.registered[key] = c
	return nil
}

// Unregister removes the collector stored under owner/name
func (r *MetricsRegistry) Unregister(owner, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := owner + "/" + name
	c, exists := r.registered[key]
	if !exists || !r.prometheusRegistry.Unregister(c) {
		return false
	}
	delete(r.registered, key)
	return true
}

// Registered lists the owner/name keys, sorted
func (r *MetricsRegistry) Registered() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]string, 0, len(r.registered))
	for k := range r.registered {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
