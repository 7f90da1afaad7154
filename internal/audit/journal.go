// Package audit delivers ATM audit entries to storage.
//
// FILE: journal.go
// PURPOSE: Asynchronous audit journal. The session controller records entries
// without blocking; a single writer goroutine inserts them in order.
//
// KEY TYPES:
// - Journal: buffered recorder backed by a Writer (database.Queries)
// - Stats: written/dropped/failed counters
//
// RELATED FILES:
// - memory.go: in-process recorder for tests and replays
package audit

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/willfong/atmsim/internal/config"
	"github.com/willfong/atmsim/internal/models"
)

// Writer persists one entry. database.Queries implements it.
type Writer interface {
	InsertAuditEntry(ctx context.Context, entry *models.AuditEntry) (int64, error)
}

// Journal queues entries for a background writer.
type Journal struct {
	writer Writer
	cfg    config.AuditConfig
	log    *zap.Logger

	mu      sync.RWMutex
	closed  bool
	entries chan models.AuditEntry
	wg      sync.WaitGroup

	written atomic.Int64
	dropped atomic.Int64
	failed  atomic.Int64
}

// Stats reports journal counters
type Stats struct {
	Written int64
	Dropped int64
	Failed  int64
}

// NewJournal starts the writer goroutine. Call Close to drain it.
func NewJournal(w Writer, cfg config.AuditConfig, log *zap.Logger) *Journal {
	if log == nil {
		log = zap.NewNop()
	}
	size := cfg.QueueSize
	if size < 1 {
		size = config.AuditQueueSize
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = config.AuditWriteTimeout
	}

	j := &Journal{
		writer:  w,
		cfg:     cfg,
		log:     log,
		entries: make(chan models.AuditEntry, size),
	}

	j.wg.Add(1)
	go j.run()

	return j
}

// Record queues an entry. When the queue is full the entry is dropped
// and counted; the caller never waits on storage.
func (j *Journal) Record(entry models.AuditEntry) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if j.closed {
		j.dropped.Add(1)
		return
	}

	select {
	case j.entries <- entry:
	default:
		j.dropped.Add(1)
		j.log.Warn("audit queue full, entry dropped",
			zap.String("action", string(entry.Action)),
			zap.String("session_id", entry.SessionID),
		)
	}
}

// Close stops accepting entries and waits for queued ones to be written,
// or for ctx to expire.
func (j *Journal) Close(ctx context.Context) error {
	j.mu.Lock()
	if !j.closed {
		j.closed = true
		close(j.entries)
	}
	j.mu.Unlock()

	done := make(chan struct{})
	go func() {
		j.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns a snapshot of the counters
func (j *Journal) Stats() Stats {
	return Stats{
		Written: j.written.Load(),
		Dropped: j.dropped.Load(),
		Failed:  j.failed.Load(),
	}
}

func (j *Journal) run() {
	defer j.wg.Done()

	for entry := range j.entries {
		j.write(entry)
	}
}

func (j *Journal) write(entry models.AuditEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), j.cfg.WriteTimeout)
	defer cancel()

	id, err := j.writer.InsertAuditEntry(ctx, &entry)
	if err != nil {
		j.failed.Add(1)
		j.log.Error("audit write failed",
			zap.String("action", string(entry.Action)),
			zap.String("session_id", entry.SessionID),
			zap.Error(err),
		)
		return
	}

	j.written.Add(1)
	j.log.Debug("audit entry written",
		zap.Int64("id", id),
		zap.String("action", string(entry.Action)),
	)
}
