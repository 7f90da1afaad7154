package replay

import (
	"sort"
	"time"
)

// pendingReturn is a menu return waiting for the virtual clock
type pendingReturn struct {
	due        time.Duration
	generation uint64
	seq        int
}

// ManualScheduler implements atm.Scheduler against a virtual clock.
// Nothing fires until Advance or Drain is called.
type ManualScheduler struct {
	now     time.Duration
	seq     int
	pending []pendingReturn
}

// NewManualScheduler creates a scheduler at virtual time zero
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// ScheduleMenuReturn queues a return due after delay
func (m *ManualScheduler) ScheduleMenuReturn(delay time.Duration, generation uint64) {
	m.seq++
	m.pending = append(m.pending, pendingReturn{
		due:        m.now + delay,
		generation: generation,
		seq:        m.seq,
	})
}

// Pending returns how many returns are queued
func (m *ManualScheduler) Pending() int {
	return len(m.pending)
}

// Now returns the virtual clock
func (m *ManualScheduler) Now() time.Duration {
	return m.now
}

// Advance moves the clock forward by d and returns the generations that
// came due, in due order.
func (m *ManualScheduler) Advance(d time.Duration) []uint64 {
	m.now += d

	sort.SliceStable(m.pending, func(i, j int) bool {
		if m.pending[i].due == m.pending[j].due {
			return m.pending[i].seq < m.pending[j].seq
		}
		return m.pending[i].due < m.pending[j].due
	})

	var fired []uint64
	keep := m.pending[:0]
	for _, p := range m.pending {
		if p.due <= m.now {
			fired = append(fired, p.generation)
		} else {
			keep = append(keep, p)
		}
	}
	m.pending = keep
	return fired
}

// Drain advances to the latest due time and returns everything pending
func (m *ManualScheduler) Drain() []uint64 {
	var latest time.Duration
	for _, p := range m.pending {
		if p.due > latest {
			latest = p.due
		}
	}
	if latest < m.now {
		latest = m.now
	}
	return m.Advance(latest - m.now)
}
