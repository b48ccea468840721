package health

import (
	"encoding/json"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"
)

// Monitor stores the latest status per component name
type Monitor struct {
	mu       sync.RWMutex
	statuses map[string]Status
}

// NewMonitor creates an empty monitor
func NewMonitor() *Monitor {
	return &Monitor{statuses: make(map[string]Status)}
}

// Update stores status under name, stamping the name and a missing timestamp
func (m *Monitor) Update(name string, status Status) {
	status.Component = name
	if status.Timestamp.IsZero() {
		status.Timestamp = time.Now()
	}

	m.mu.Lock()
	m.statuses[name] = status
	m.mu.Unlock()
}

// Get returns the status stored under name
func (m *Monitor) Get(name string) (Status, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status, ok := m.statuses[name]
	return status, ok
}

// WithPrefix returns the statuses whose name starts with prefix, sorted by name
func (m *Monitor) WithPrefix(prefix string) []Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Status
	for name, status := range m.statuses {
		if strings.HasPrefix(name, prefix) {
			out = append(out, status)
		}
	}
	return sorted(out)
}

// Names returns every component name, sorted
func (m *Monitor) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.statuses))
	for name := range m.statuses {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Aggregate is the worst status across every component
func (m *Monitor) Aggregate(system string) Status {
	return Aggregate(system, m.WithPrefix(""))
}

// Handler serves check() as JSON. Unhealthy answers 503; healthy and
// degraded answer 200 so a partially faulted pipeline stays in rotation.
func Handler(check func() Status) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		status := check()

		w.Header().Set("Content-Type", "application/json")
		if status.IsUnhealthy() {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(status)
	})
}
