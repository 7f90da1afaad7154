// Package simulator runs many simulated customers against ATM controllers
// to exercise the session state machine and load the audit trail.
//
// FILE: terminal.go
// PURPOSE: One simulated ATM: controller, virtual-clock scheduler and the
// PIN the customer population currently believes in.
//
// RELATED FILES:
// - customer.go: visit behavior
// - manager.go: terminal goroutines and session feed
// - metrics.go: counters and report
package simulator

import (
	"github.com/willfong/atmsim/internal/atm"
	"github.com/willfong/atmsim/internal/config"
	"github.com/willfong/atmsim/internal/replay"
)

// Terminal is a simulated ATM driven by customers instead of a keypad
type Terminal struct {
	ID string

	ctrl   *atm.Controller
	sched  *replay.ManualScheduler
	screen *screen
	latch  *terminationLatch

	// pin is what customers type; it follows successful PIN changes
	pin    int64
	events int64
}

// screen counts display writes; nobody watches a simulated screen
type screen struct {
	writes int64
}

func (s *screen) SetText(string)            { s.writes++ }
func (s *screen) SetInsertCardVisible(bool) {}

type terminationLatch struct {
	reason *atm.TerminationReason
}

func (l *terminationLatch) TerminateSession(reason atm.TerminationReason) {
	r := reason
	l.reason = &r
}

// NewTerminal starts a controller for cfg. opts are applied after the
// terminal's scheduler and terminator.
func NewTerminal(cfg config.ATMConfig, opts ...atm.Option) *Terminal {
	t := &Terminal{
		ID:     cfg.TerminalID,
		sched:  replay.NewManualScheduler(),
		screen: &screen{},
		latch:  &terminationLatch{},
		pin:    cfg.DefaultPIN,
	}

	all := append([]atm.Option{
		atm.WithScheduler(t.sched),
		atm.WithTerminator(t.latch),
	}, opts...)
	t.ctrl = atm.NewController(cfg, t.screen, all...)
	t.ctrl.Start()
	return t
}

// Session returns the controller's session state
func (t *Terminal) Session() atm.Session {
	return t.ctrl.Session()
}

// Termination returns why the terminal stopped, or nil while it is in service
func (t *Terminal) Termination() *atm.TerminationReason {
	return t.latch.reason
}

// Events returns how many events the terminal has received
func (t *Terminal) Events() int64 {
	return t.events
}

func (t *Terminal) send(ev atm.Event) {
	t.events++
	t.ctrl.Dispatch(ev)
}

// wait lets every pending menu return fire
func (t *Terminal) wait() {
	for _, gen := range t.sched.Drain() {
		t.ctrl.ReturnToMenu(gen)
	}
}
