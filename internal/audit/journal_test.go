package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/willfong/atmsim/internal/config"
	"github.com/willfong/atmsim/internal/models"
)

type fakeWriter struct {
	mu      sync.Mutex
	entries []models.AuditEntry
	err     error
	block   chan struct{}
}

func (w *fakeWriter) InsertAuditEntry(ctx context.Context, entry *models.AuditEntry) (int64, error) {
	if w.block != nil {
		select {
		case <-w.block:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return 0, w.err
	}
	w.entries = append(w.entries, *entry)
	return int64(len(w.entries)), nil
}

func (w *fakeWriter) actions() []models.AuditAction {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]models.AuditAction, len(w.entries))
	for i, e := range w.entries {
		out[i] = e.Action
	}
	return out
}

func TestJournal_WritesInOrder(t *testing.T) {
	w := &fakeWriter{}
	j := NewJournal(w, config.DefaultConfig().Audit, nil)

	want := []models.AuditAction{
		models.AuditCardInserted,
		models.AuditPINSuccess,
		models.AuditWithdrawal,
		models.AuditCardEjected,
	}
	for _, a := range want {
		j.Record(models.AuditEntry{Action: a, SessionID: "s1"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := j.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	got := w.actions()
	if len(got) != len(want) {
		t.Fatalf("Expected %d entries, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d: expected %s, got %s", i, want[i], got[i])
		}
	}

	if s := j.Stats(); s.Written != 4 || s.Dropped != 0 || s.Failed != 0 {
		t.Errorf("Unexpected stats %+v", s)
	}
}

func TestJournal_DropsWhenFull(t *testing.T) {
	w := &fakeWriter{block: make(chan struct{})}
	cfg := config.DefaultConfig().Audit
	cfg.QueueSize = 1
	j := NewJournal(w, cfg, nil)

	// The writer holds one entry, the queue one more; the rest drop
	for i := 0; i < 10; i++ {
		j.Record(models.AuditEntry{Action: models.AuditBalanceInquiry})
	}
	close(w.block)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := j.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s := j.Stats()
	if s.Written+s.Dropped != 10 {
		t.Errorf("Expected written+dropped = 10, got %+v", s)
	}
	if s.Dropped < 8 {
		t.Errorf("Expected at least 8 drops with queue size 1, got %d", s.Dropped)
	}
}

func TestJournal_CountsFailures(t *testing.T) {
	w := &fakeWriter{err: errors.New("connection refused")}
	j := NewJournal(w, config.DefaultConfig().Audit, nil)

	j.Record(models.AuditEntry{Action: models.AuditDeposit})
	j.Record(models.AuditEntry{Action: models.AuditWithdrawal})

	if err := j.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if s := j.Stats(); s.Failed != 2 || s.Written != 0 {
		t.Errorf("Expected 2 failures, got %+v", s)
	}
}

func TestJournal_RecordAfterClose(t *testing.T) {
	j := NewJournal(&fakeWriter{}, config.DefaultConfig().Audit, nil)
	if err := j.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	j.Record(models.AuditEntry{Action: models.AuditDeposit})

	if s := j.Stats(); s.Dropped != 1 {
		t.Errorf("Expected late entry to be dropped, got %+v", s)
	}
	// Second close is harmless
	if err := j.Close(context.Background()); err != nil {
		t.Errorf("Second Close failed: %v", err)
	}
}

func TestJournal_CloseHonoursContext(t *testing.T) {
	w := &fakeWriter{block: make(chan struct{})}
	cfg := config.DefaultConfig().Audit
	cfg.WriteTimeout = time.Minute
	j := NewJournal(w, cfg, nil)
	j.Record(models.AuditEntry{Action: models.AuditDeposit})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := j.Close(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
	close(w.block)
}

func TestMemoryRecorder(t *testing.T) {
	m := NewMemoryRecorder()
	f := Fanout{m}

	f.Record(models.AuditEntry{Action: models.AuditPINFailed})
	f.Record(models.AuditEntry{Action: models.AuditPINFailed})
	f.Record(models.AuditEntry{Action: models.AuditAccountLocked})

	if n := len(m.Entries()); n != 3 {
		t.Fatalf("Expected 3 entries, got %d", n)
	}
	counts := m.CountByAction()
	if counts[models.AuditPINFailed] != 2 || counts[models.AuditAccountLocked] != 1 {
		t.Errorf("Unexpected counts %v", counts)
	}
}
