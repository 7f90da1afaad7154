package simulator

import (
	"github.com/willfong/atmsim/internal/atm"
	"github.com/willfong/atmsim/internal/config"
)

// VisitOutcome describes how a customer visit ended
type VisitOutcome int

const (
	// VisitCompleted means the customer used the menu and exited
	VisitCompleted VisitOutcome = iota

	// VisitCanceled means the customer cancelled at the PIN prompt
	VisitCanceled

	// VisitCardRetained means too many wrong PINs ended the session
	VisitCardRetained

	// VisitReportedStolen means the customer reported the card stolen
	VisitReportedStolen
)

var visitOutcomes = []VisitOutcome{VisitCompleted, VisitCanceled, VisitCardRetained, VisitReportedStolen}

// String returns the outcome name
func (o VisitOutcome) String() string {
	switch o {
	case VisitCompleted:
		return "completed"
	case VisitCanceled:
		return "canceled"
	case VisitCardRetained:
		return "card retained"
	case VisitReportedStolen:
		return "reported stolen"
	default:
		return "unknown"
	}
}

// Menu operation weights: balance, withdraw, deposit, language, change PIN
var operationWeights = []int{30, 35, 15, 5, 3}

// Customer plays card holders visiting a terminal
type Customer struct {
	rng *Random
	cfg config.SimulateConfig
}

// NewCustomer creates a customer drawing behavior from rng
func NewCustomer(rng *Random, cfg config.SimulateConfig) *Customer {
	return &Customer{rng: rng, cfg: cfg}
}

// Visit runs one card session at t
func (c *Customer) Visit(t *Terminal) VisitOutcome {
	t.send(atm.InsertCardEvent())

	if outcome, ok := c.authenticate(t); !ok {
		return outcome
	}

	ops := c.rng.IntRange(1, c.cfg.MaxOperations)
	for i := 0; i < ops; i++ {
		if c.rng.Probability(c.cfg.StolenRate) {
			t.send(atm.MenuEvent(atm.OptionReportLost))
			return VisitReportedStolen
		}
		c.operate(t)
	}

	t.send(atm.MenuEvent(atm.OptionExit))
	return VisitCompleted
}

// authenticate types PINs until the menu opens, the customer gives up or
// the card is retained
func (c *Customer) authenticate(t *Terminal) (VisitOutcome, bool) {
	for {
		if c.rng.Probability(c.cfg.CancelRate) {
			t.send(atm.CancelEvent())
			return VisitCanceled, false
		}

		pin := t.pin
		if c.rng.Probability(c.cfg.WrongPINRate) {
			pin = c.rng.WrongPIN(t.pin)
		}
		t.send(atm.DigitEvent(Digits(pin)))
		t.send(atm.EnterEvent())

		s := t.Session()
		switch {
		case s.Terminated:
			return VisitCardRetained, false
		case s.Mode == atm.ModeMainMenu:
			return VisitCompleted, true
		}
	}
}

func (c *Customer) operate(t *Terminal) {
	switch c.rng.WeightedPick(operationWeights) {
	case 0:
		t.send(atm.MenuEvent(atm.OptionBalance))
	case 1:
		t.send(atm.MenuEvent(atm.OptionWithdraw))
		c.enter(t, Digits(c.rng.CashAmount()))
	case 2:
		t.send(atm.MenuEvent(atm.OptionDeposit))
		c.enter(t, Digits(c.rng.CashAmount()))
	case 3:
		t.send(atm.MenuEvent(atm.OptionLanguage))
		c.enter(t, Digits(int64(c.rng.IntRange(1, 2))))
	case 4:
		newPIN := c.rng.PIN()
		t.send(atm.MenuEvent(atm.OptionChangePIN))
		if c.enter(t, Digits(newPIN)) {
			t.pin = newPIN
		}
	}
	t.wait()
}

// enter types digits and submits them. Some customers clear a typo first,
// some cancel instead of submitting. Reports whether Enter was pressed.
func (c *Customer) enter(t *Terminal, digits string) bool {
	if c.rng.Probability(c.cfg.TypoRate) {
		t.send(atm.DigitEvent(digits[:1]))
		t.send(atm.ResetEvent())
	}
	t.send(atm.DigitEvent(digits))

	if c.rng.Probability(c.cfg.CancelRate) {
		t.send(atm.CancelEvent())
		return false
	}
	t.send(atm.EnterEvent())
	return true
}
