package audit

import (
	"sync"

	"github.com/willfong/atmsim/internal/models"
)

// MemoryRecorder keeps entries in process. Safe for concurrent use.
type MemoryRecorder struct {
	mu      sync.Mutex
	entries []models.AuditEntry
}

// NewMemoryRecorder creates an empty recorder
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

// Record appends an entry
func (m *MemoryRecorder) Record(entry models.AuditEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
}

// Entries returns a copy of everything recorded so far
func (m *MemoryRecorder) Entries() []models.AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.AuditEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// CountByAction tallies entries per action
func (m *MemoryRecorder) CountByAction() map[models.AuditAction]int {
	m.mu.Lock()
	defer m.mu.Unlock()

	counts := make(map[models.AuditAction]int)
	for _, e := range m.entries {
		counts[e.Action]++
	}
	return counts
}

// Fanout records every entry into each recorder in order
type Fanout []interface {
	Record(entry models.AuditEntry)
}

// Record forwards the entry
func (f Fanout) Record(entry models.AuditEntry) {
	for _, r := range f {
		r.Record(entry)
	}
}
