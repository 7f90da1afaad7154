package simulator

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/willfong/atmsim/internal/atm"
	"github.com/willfong/atmsim/internal/audit"
	"github.com/willfong/atmsim/internal/config"
)

// Manager runs customer visits across concurrent terminals. Each terminal
// is owned by one goroutine; visits are handed out over a channel.
type Manager struct {
	atmCfg config.ATMConfig
	cfg    config.SimulateConfig

	rng      *Random
	metrics  *Metrics
	recorder atm.Recorder
	log      *zap.Logger
}

// Option configures a Manager
type Option func(*Manager)

// WithRecorder forwards every audit entry, e.g. to the MySQL journal
func WithRecorder(r atm.Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

// WithLogger sets the logger for the manager and its controllers
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// NewManager creates a manager. Terminals share atmCfg except for the
// terminal id, which gets a numeric suffix.
func NewManager(atmCfg config.ATMConfig, cfg config.SimulateConfig, opts ...Option) *Manager {
	m := &Manager{
		atmCfg:  atmCfg,
		cfg:     cfg,
		rng:     NewRandom(cfg.Seed),
		metrics: NewMetrics(),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Seed returns the seed in use, for reproducing a run
func (m *Manager) Seed() uint64 {
	return m.rng.Seed()
}

// Metrics returns the live metrics
func (m *Manager) Metrics() *Metrics {
	return m.metrics
}

// Run performs cfg.Sessions visits, or fewer if ctx is cancelled, and
// returns the final report. Visits in progress finish before Run returns.
func (m *Manager) Run(ctx context.Context) Report {
	terminals := m.cfg.Terminals
	if terminals < 1 {
		terminals = 1
	}

	m.log.Info("simulation starting",
		zap.Int("sessions", m.cfg.Sessions),
		zap.Int("terminals", terminals),
		zap.Uint64("seed", m.rng.Seed()),
	)

	visits := make(chan int)
	var wg sync.WaitGroup

	for i, rng := range m.rng.ForkN(terminals) {
		wg.Add(1)
		go func(id string, rng *Random) {
			defer wg.Done()
			m.serve(id, rng, visits)
		}(fmt.Sprintf("%s-%02d", m.atmCfg.TerminalID, i+1), rng)
	}

feed:
	for i := 0; i < m.cfg.Sessions; i++ {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break feed
		case visits <- i:
		}
	}
	close(visits)
	wg.Wait()

	report := m.metrics.Snapshot()
	m.log.Info("simulation finished",
		zap.Int64("sessions", report.Sessions),
		zap.Int64("events", report.Events),
		zap.Int64("terminations", report.Terminations()),
		zap.Duration("elapsed", report.Elapsed),
	)
	return report
}

// serve runs visits on one terminal, replacing it after a termination
func (m *Manager) serve(id string, rng *Random, visits <-chan int) {
	customer := NewCustomer(rng, m.cfg)
	term := m.newTerminal(id)

	for range visits {
		if term.Termination() != nil {
			m.log.Debug("terminal back in service", zap.String("terminal", id))
			m.metrics.RecordRestart()
			term = m.newTerminal(id)
		}

		before := term.Events()
		outcome := customer.Visit(term)
		m.metrics.RecordVisit(outcome, term.Events()-before)
	}
}

func (m *Manager) newTerminal(id string) *Terminal {
	cfg := m.atmCfg
	cfg.TerminalID = id

	var rec atm.Recorder = m.metrics
	if m.recorder != nil {
		rec = audit.Fanout{m.metrics, m.recorder}
	}

	return NewTerminal(cfg,
		atm.WithRecorder(rec),
		atm.WithLogger(m.log.With(zap.String("terminal", id))),
	)
}
