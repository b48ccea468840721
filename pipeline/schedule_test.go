package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/complianceflow/ecs"
	"github.com/c360/complianceflow/errors"
)

func TestSchedule_TicksSumToRate(t *testing.T) {
	tests := []struct {
		rate  uint64
		ticks int
	}{
		{100000, 100},
		{7, 100},
		{1, 1000},
		{999983, 64},
		{3, 3},
	}

	for _, tt := range tests {
		s := NewSchedule(tt.rate, tt.ticks, 1, 0)
		for sec := uint64(0); sec < 3; sec++ {
			var total int
			prev := s.TickRange(sec * uint64(tt.ticks)).First
			assert.Equal(t, ecs.ID(sec*tt.rate), prev, "second %d starts at its rate boundary", sec)
			for i := range uint64(tt.ticks) {
				r := s.TickRange(sec*uint64(tt.ticks) + i)
				assert.Equal(t, prev, r.First, "ticks are contiguous")
				total += r.Len()
				prev = r.End
			}
			assert.Equal(t, int(tt.rate), total, "rate %d ticks %d second %d", tt.rate, tt.ticks, sec)
		}
	}
}

func TestSchedule_SharePartitionsTick(t *testing.T) {
	for _, workers := range []int{1, 3, 4, 7, 16} {
		s := NewSchedule(1003, 10, workers, 0)
		for tick := range uint64(25) {
			r := s.TickRange(tick)
			next := r.First
			sizes := make([]int, workers)
			for w := range workers {
				share := s.Share(tick, w)
				assert.Equal(t, next, share.First, "workers=%d tick=%d worker=%d", workers, tick, w)
				sizes[w] = share.Len()
				next = share.End
			}
			assert.Equal(t, r.End, next, "shares cover the tick")

			// Remainder goes to the first workers
			for w := 1; w < workers; w++ {
				assert.LessOrEqual(t, sizes[w], sizes[w-1])
				assert.LessOrEqual(t, sizes[0]-sizes[w], 1)
			}
		}
	}
}

func TestSchedule_WorkerRate(t *testing.T) {
	tests := []struct {
		name    string
		rate    uint64
		ticks   int
		workers int
		want    [][2]int
	}{
		{"uneven split", 1000, 100, 3, [][2]int{{400, 4}, {300, 3}, {300, 3}}},
		{"even split", 100000, 100, 4, [][2]int{{25000, 250}, {25000, 250}, {25000, 250}, {25000, 250}}},
		{"fewer ids than workers", 1, 100, 3, [][2]int{{1, 1}, {0, 0}, {0, 0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSchedule(tt.rate, tt.ticks, tt.workers, 10)
			var total int
			for w, want := range tt.want {
				perSecond, burst := s.WorkerRate(w)
				assert.Equal(t, want, [2]int{perSecond, burst}, "worker %d", w)
				total += perSecond
			}
			assert.Equal(t, int(tt.rate), total, "limit does not shrink the rate")
		})
	}
}

func TestSchedule_Limit(t *testing.T) {
	s := NewSchedule(1000, 100, 4, 25)

	assert.Equal(t, ecs.IDRange{First: 0, End: 10}, s.TickRange(0))
	assert.Equal(t, ecs.IDRange{First: 20, End: 25}, s.TickRange(2), "the last tick is clipped")
	assert.Equal(t, 0, s.TickRange(3).Len())

	assert.False(t, s.Exhausted(2))
	assert.True(t, s.Exhausted(3))
	assert.False(t, NewSchedule(1000, 100, 4, 0).Exhausted(1<<40), "no limit")

	var total int
	for tick := range uint64(3) {
		for w := range 4 {
			total += s.Share(tick, w).Len()
		}
	}
	assert.Equal(t, 25, total)
}

func TestSchedule_TickStart(t *testing.T) {
	s := NewSchedule(1, 100, 1, 0)
	assert.Equal(t, time.Duration(0), s.TickStart(0))
	assert.Equal(t, 10*time.Millisecond, s.TickStart(1))
	assert.Equal(t, time.Second, s.TickStart(100))
	assert.Equal(t, 3*time.Second+250*time.Millisecond, s.TickStart(325))

	s = NewSchedule(1, 3, 1, 0)
	assert.Equal(t, 333333333*time.Nanosecond, s.TickStart(1))
	assert.Equal(t, 100*time.Second, s.TickStart(300))
	assert.Equal(t, 3, s.TicksPerSecond())
}

func TestSchedule_Invariants(t *testing.T) {
	requireInvariant := func(t *testing.T, fn func()) {
		t.Helper()
		defer func() {
			r := recover()
			require.NotNil(t, r)
			err, ok := r.(error)
			require.True(t, ok)
			assert.ErrorIs(t, err, errors.ErrInvariantViolation)
		}()
		fn()
	}

	requireInvariant(t, func() { NewSchedule(0, 100, 1, 0) })
	requireInvariant(t, func() { NewSchedule(10, 0, 1, 0) })
	requireInvariant(t, func() { NewSchedule(10, 100, 0, 0) })
	requireInvariant(t, func() { NewSchedule(1<<62, 1, 1, 0).TickRange(16) })
}
