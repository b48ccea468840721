package buffer

import (
	"sync"

	"github.com/c360/complianceflow/errors"
	"github.com/c360/complianceflow/metric"
)

// Ring is a fixed-capacity, thread-safe buffer that evicts its oldest item
// when a new one arrives while full.
type Ring[T any] struct {
	mu    sync.RWMutex
	items []T
	head  int // next write position
	size  int

	stats   *Stats
	metrics *ringMetrics
	onEvict func(T)
}

// Option configures a Ring.
type Option[T any] func(*Ring[T]) error

// WithMetrics exports ring activity under the component label name.
// A nil registry leaves metrics disabled.
func WithMetrics[T any](registry *metric.MetricsRegistry, name string) Option[T] {
	return func(r *Ring[T]) error {
		if registry == nil || name == "" {
			return nil
		}
		m, err := newRingMetrics(registry, name)
		if err != nil {
			return errors.WrapTransient(err, "Ring", "New", "metrics registration")
		}
		r.metrics = m
		return nil
	}
}

// WithEvictFunc calls fn with every evicted item, outside the lock.
func WithEvictFunc[T any](fn func(T)) Option[T] {
	return func(r *Ring[T]) error {
		r.onEvict = fn
		return nil
	}
}

// NewRing creates a ring holding at most capacity items.
func NewRing[T any](capacity int, opts ...Option[T]) (*Ring[T], error) {
	if capacity <= 0 {
		return nil, errors.WrapInvalid(errors.ErrOutOfRange, "Ring", "New", "check capacity")
	}
	r := &Ring[T]{
		items: make([]T, capacity),
		stats: &Stats{},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Push appends item, evicting the oldest one when the ring is full.
func (r *Ring[T]) Push(item T) {
	r.mu.Lock()

	var (
		evicted T
		full    = r.size == len(r.items)
	)
	if full {
		evicted = r.items[r.head]
	} else {
		r.size++
	}
	r.items[r.head] = item
	r.head = (r.head + 1) % len(r.items)
	size := r.size

	r.mu.Unlock()

	r.stats.push(full, size)
	if r.metrics != nil {
		r.metrics.record(full, size)
	}
	if full && r.onEvict != nil {
		r.onEvict(evicted)
	}
}

// Items returns a copy of the buffered items, oldest first.
func (r *Ring[T]) Items() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]T, r.size)
	first := r.head - r.size + len(r.items)
	for i := range out {
		out[i] = r.items[(first+i)%len(r.items)]
	}
	return out
}

// Last returns the newest item.
func (r *Ring[T]) Last() (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.size == 0 {
		var zero T
		return zero, false
	}
	return r.items[(r.head-1+len(r.items))%len(r.items)], true
}

// Len returns the number of buffered items.
func (r *Ring[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}

// Cap returns the capacity.
func (r *Ring[T]) Cap() int {
	return len(r.items)
}

// Reset drops every item without calling the evict func.
func (r *Ring[T]) Reset() {
	r.mu.Lock()
	clear(r.items)
	r.head = 0
	r.size = 0
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.length.Set(0)
	}
}

// Stats returns the ring's counters.
func (r *Ring[T]) Stats() *Stats {
	return r.stats
}
