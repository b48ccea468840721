package buffer

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/complianceflow/errors"
	"github.com/c360/complianceflow/metric"
)

func TestRing_PushAndItems(t *testing.T) {
	r, err := NewRing[string](3)
	require.NoError(t, err)

	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 3, r.Cap())
	assert.Empty(t, r.Items())
	_, ok := r.Last()
	assert.False(t, ok)

	r.Push("a")
	r.Push("b")
	assert.Equal(t, []string{"a", "b"}, r.Items())

	last, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, "b", last)
	assert.Equal(t, 2, r.Len(), "Items and Last must not consume")
}

func TestRing_EvictsOldest(t *testing.T) {
	var evicted []int
	r, err := NewRing[int](3, WithEvictFunc(func(v int) { evicted = append(evicted, v) }))
	require.NoError(t, err)

	for i := 1; i <= 7; i++ {
		r.Push(i)
	}

	assert.Equal(t, []int{5, 6, 7}, r.Items())
	assert.Equal(t, []int{1, 2, 3, 4}, evicted)

	s := r.Stats().Summary()
	assert.Equal(t, Summary{Pushes: 7, Evictions: 4, MaxLen: 3}, s)
}

func TestRing_Reset(t *testing.T) {
	r, err := NewRing[int](2)
	require.NoError(t, err)
	r.Push(1)
	r.Push(2)
	r.Push(3)

	r.Reset()
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Items())

	r.Push(4)
	assert.Equal(t, []int{4}, r.Items())
	assert.Equal(t, int64(3), r.Stats().MaxLen(), "MaxLen survives Reset")
}

func TestRing_InvalidCapacity(t *testing.T) {
	for _, c := range []int{0, -1} {
		_, err := NewRing[int](c)
		require.Error(t, err)
		assert.True(t, errors.IsInvalid(err))
	}
}

func TestRing_Metrics(t *testing.T) {
	registry := metric.NewMetricsRegistry()
	r, err := NewRing[int](2, WithMetrics[int](registry, "history"))
	require.NoError(t, err)

	for i := range 5 {
		r.Push(i)
	}

	assert.Equal(t, 5.0, testutil.ToFloat64(r.metrics.pushes))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.metrics.evictions))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.metrics.length))

	_, err = NewRing[int](2, WithMetrics[int](registry, "history"))
	assert.Error(t, err, "duplicate ring name must fail registration")

	_, err = NewRing[int](2, WithMetrics[int](nil, "history"))
	assert.NoError(t, err, "nil registry disables metrics")
}

func TestRing_ConcurrentPush(t *testing.T) {
	r, err := NewRing[int](16)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				r.Push(g*100 + i)
				_ = r.Items()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 16, r.Len())
	assert.Equal(t, int64(800), r.Stats().Pushes())
	assert.Equal(t, int64(784), r.Stats().Evictions())
}
