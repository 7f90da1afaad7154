package simulator

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/willfong/atmsim/internal/models"
)

// Metrics counts simulation activity. It also records audit entries so
// money movement can be totalled. Safe for concurrent use.
type Metrics struct {
	sessions atomic.Int64
	events   atomic.Int64
	restarts atomic.Int64

	deposited atomic.Int64
	withdrawn atomic.Int64

	outcomes [4]atomic.Int64

	mu      sync.Mutex
	actions map[models.AuditAction]int64

	startTime time.Time
}

// NewMetrics creates an empty tracker
func NewMetrics() *Metrics {
	return &Metrics{
		actions:   make(map[models.AuditAction]int64),
		startTime: time.Now(),
	}
}

// Record implements atm.Recorder
func (m *Metrics) Record(entry models.AuditEntry) {
	m.mu.Lock()
	m.actions[entry.Action]++
	m.mu.Unlock()

	if entry.Amount == nil {
		return
	}
	switch entry.Action {
	case models.AuditDeposit:
		m.deposited.Add(*entry.Amount)
	case models.AuditWithdrawal:
		m.withdrawn.Add(*entry.Amount)
	}
}

// RecordVisit counts a finished visit and the events it took
func (m *Metrics) RecordVisit(outcome VisitOutcome, events int64) {
	m.sessions.Add(1)
	m.events.Add(events)
	if int(outcome) < len(m.outcomes) {
		m.outcomes[outcome].Add(1)
	}
}

// RecordRestart counts a terminated terminal put back in service
func (m *Metrics) RecordRestart() {
	m.restarts.Add(1)
}

// Report is a point-in-time view of the metrics
type Report struct {
	Sessions int64
	Events   int64
	Restarts int64

	Outcomes map[VisitOutcome]int64
	Actions  map[models.AuditAction]int64

	Deposited int64
	Withdrawn int64

	Elapsed time.Duration
}

// Snapshot returns the current counters
func (m *Metrics) Snapshot() Report {
	r := Report{
		Sessions:  m.sessions.Load(),
		Events:    m.events.Load(),
		Restarts:  m.restarts.Load(),
		Outcomes:  make(map[VisitOutcome]int64, len(visitOutcomes)),
		Actions:   make(map[models.AuditAction]int64),
		Deposited: m.deposited.Load(),
		Withdrawn: m.withdrawn.Load(),
		Elapsed:   time.Since(m.startTime),
	}
	for _, o := range visitOutcomes {
		r.Outcomes[o] = m.outcomes[o].Load()
	}

	m.mu.Lock()
	for action, n := range m.actions {
		r.Actions[action] = n
	}
	m.mu.Unlock()

	return r
}

// Terminations returns visits that ended the terminal's session
func (r Report) Terminations() int64 {
	return r.Outcomes[VisitCardRetained] + r.Outcomes[VisitReportedStolen]
}

// SessionsPerSecond returns visit throughput
func (r Report) SessionsPerSecond() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Sessions) / r.Elapsed.Seconds()
}
