package pipeline

import (
	"math/bits"
	"time"

	"github.com/c360/complianceflow/ecs"
	"github.com/c360/complianceflow/errors"
)

// Schedule maps ticks to global ID ranges and splits each tick between
// workers. Tick t covers [t*rate/ticks, (t+1)*rate/ticks), so every whole
// second holds exactly rate IDs.
type Schedule struct {
	rate    uint64
	ticks   uint64
	workers uint64
	limit   uint64
}

// NewSchedule creates a schedule. A limit of 0 leaves the ID space unbounded.
func NewSchedule(rate uint64, ticksPerSecond, workers int, limit uint64) Schedule {
	if rate == 0 || ticksPerSecond <= 0 || workers <= 0 {
		panic(errors.Invariant("Schedule", "New", "rate %d, ticks %d, workers %d must be positive",
			rate, ticksPerSecond, workers))
	}
	return Schedule{
		rate:    rate,
		ticks:   uint64(ticksPerSecond),
		workers: uint64(workers),
		limit:   limit,
	}
}

// boundary returns floor(t*rate/ticks) clipped to the limit.
func (s Schedule) boundary(t uint64) ecs.ID {
	hi, lo := bits.Mul64(t, s.rate)
	if hi >= s.ticks {
		panic(errors.Invariant("Schedule", "TickRange", "tick %d overflows the id space", t))
	}
	id, _ := bits.Div64(hi, lo, s.ticks)
	if s.limit > 0 && id > s.limit {
		id = s.limit
	}
	return ecs.ID(id)
}

// TickRange returns the global IDs of tick t.
func (s Schedule) TickRange(t uint64) ecs.IDRange {
	return ecs.IDRange{First: s.boundary(t), End: s.boundary(t + 1)}
}

// Share returns worker w's contiguous block of tick t. The remainder of an
// uneven split goes to the first workers.
func (s Schedule) Share(t uint64, w int) ecs.IDRange {
	tick := s.TickRange(t)
	n := uint64(tick.Len())
	base, rem := n/s.workers, n%s.workers

	i := uint64(w)
	offset := i*base + min(i, rem)
	size := base
	if i < rem {
		size++
	}

	first := tick.First + ecs.ID(offset)
	return ecs.IDRange{First: first, End: first + ecs.ID(size)}
}

// Exhausted reports whether tick t starts at or past the limit.
func (s Schedule) Exhausted(t uint64) bool {
	return s.limit > 0 && uint64(s.boundary(t)) >= s.limit
}

// TickStart returns the offset of tick t from the start of the run.
func (s Schedule) TickStart(t uint64) time.Duration {
	whole, frac := t/s.ticks, t%s.ticks
	return time.Duration(whole)*time.Second + time.Duration(frac)*time.Second/time.Duration(s.ticks)
}

// WorkerRate returns how many IDs worker w owns per second and the largest
// share it gets in any single tick. Shares repeat every second, so one
// second of ticks covers them all. The limit is ignored.
func (s Schedule) WorkerRate(w int) (perSecond, burst int) {
	unbounded := s
	unbounded.limit = 0
	for t := range s.ticks {
		n := unbounded.Share(t, w).Len()
		perSecond += n
		burst = max(burst, n)
	}
	return perSecond, burst
}

// TicksPerSecond returns the tick rate.
func (s Schedule) TicksPerSecond() int {
	return int(s.ticks)
}
