package buffer

import "sync/atomic"

// Stats counts ring activity. It is always collected, with or without
// Prometheus metrics.
type Stats struct {
	pushes    atomic.Int64
	evictions atomic.Int64
	maxLen    atomic.Int64
}

func (s *Stats) push(evicted bool, size int) {
	s.pushes.Add(1)
	if evicted {
		s.evictions.Add(1)
	}
	for {
		cur := s.maxLen.Load()
		if int64(size) <= cur || s.maxLen.CompareAndSwap(cur, int64(size)) {
			return
		}
	}
}

// Pushes returns the number of items pushed.
func (s *Stats) Pushes() int64 { return s.pushes.Load() }

// Evictions returns the number of items evicted to make room.
func (s *Stats) Evictions() int64 { return s.evictions.Load() }

// MaxLen returns the largest length the ring reached.
func (s *Stats) MaxLen() int64 { return s.maxLen.Load() }

// Summary is a point-in-time copy of Stats.
type Summary struct {
	Pushes    int64 `json:"pushes"`
	Evictions int64 `json:"evictions"`
	MaxLen    int64 `json:"max_len"`
}

// Summary copies the counters.
func (s *Stats) Summary() Summary {
	return Summary{
		Pushes:    s.Pushes(),
		Evictions: s.Evictions(),
		MaxLen:    s.MaxLen(),
	}
}
