// Package atm implements the ATM session controller.
//
// FILE: controller.go
// PURPOSE: Controller construction, collaborator interfaces and the keypad
// operations (insert card, digits, cancel, reset, enter, menu options).
//
// KEY FUNCTIONS:
// - NewController: wires a session to its display and optional collaborators
// - InsertCard, PressDigit, PressCancel, PressReset, PressEnter, SelectMenuOption
// - ReturnToMenu: applies a scheduled menu return if it is still current
//
// The controller is not safe for concurrent use. The embedding event loop
// must deliver one event at a time and run scheduled returns on that same loop.
package atm

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/willfong/atmsim/internal/config"
	"github.com/willfong/atmsim/internal/models"
)

// Display is the text surface of the ATM. Last write wins.
type Display interface {
	SetText(message string)
	SetInsertCardVisible(visible bool)
}

// Scheduler arranges for ReturnToMenu(generation) to be called on the
// controller's event loop once delay has elapsed.
type Scheduler interface {
	ScheduleMenuReturn(delay time.Duration, generation uint64)
}

// Terminator receives the session-ending signal.
type Terminator interface {
	TerminateSession(reason TerminationReason)
}

// Recorder receives audit entries. Implementations must not block for long.
type Recorder interface {
	Record(entry models.AuditEntry)
}

// Controller owns one Session and applies keypad events to it.
type Controller struct {
	cfg config.ATMConfig
	s   Session

	display    Display
	scheduler  Scheduler
	terminator Terminator
	recorder   Recorder
	log        *zap.Logger
	now        func() time.Time
}

// Option configures optional collaborators
type Option func(*Controller)

// WithScheduler sets the menu-return scheduler
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) { c.scheduler = s }
}

// WithTerminator sets the session-ending signal receiver
func WithTerminator(t Terminator) Option {
	return func(c *Controller) { c.terminator = t }
}

// WithRecorder sets the audit recorder
func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

// WithLogger sets the structured logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithClock overrides the time source used for audit timestamps
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// NewController creates a controller in WaitingForCard. Call Start to
// render the initial display.
func NewController(cfg config.ATMConfig, display Display, opts ...Option) *Controller {
	lang, _ := ParseLanguage(cfg.Language)
	c := &Controller{
		cfg: cfg,
		s: Session{
			Balance:  cfg.InitialBalance,
			PIN:      cfg.DefaultPIN,
			Mode:     ModeWaitingForCard,
			Language: lang,
		},
		display:    display,
		scheduler:  nopScheduler{},
		terminator: nopTerminator{},
		recorder:   nopRecorder{},
		log:        zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns a copy of the current session state
func (c *Controller) Session() Session {
	return c.s
}

// Start renders the welcome text and shows the insert-card affordance
func (c *Controller) Start() {
	c.display.SetInsertCardVisible(true)
	c.show(text(c.s.Language, msgWelcome))
	c.log.Info("atm ready",
		zap.Int64("balance", c.s.Balance),
		zap.Int("max_pin_attempts", c.cfg.MaxPINAttempts),
		zap.String("language", c.s.Language.Code()),
	)
}

// InsertCard starts a card session. Ignored while a card is inserted.
func (c *Controller) InsertCard() {
	if c.s.Terminated || c.s.CardInserted {
		return
	}
	c.accepted("insert")

	c.s.ID = uuid.NewString()
	c.s.CardInserted = true
	c.s.Input = ""
	c.setMode(ModePINEntry)

	c.display.SetInsertCardVisible(false)
	c.show(text(c.s.Language, msgCardInserted))
	c.record(models.AuditCardInserted, models.OutcomeSuccess, nil, "")
}

// PressDigit appends digits to the input buffer and echoes them under the prompt.
func (c *Controller) PressDigit(d string) {
	if c.s.Terminated || !c.s.CardInserted || c.s.Mode == ModeMainMenu {
		return
	}
	if !isDigits(d) {
		c.log.Warn("ignoring non-digit key", zap.String("key", d))
		return
	}
	c.accepted("digit", zap.Int("digits", len(d)))

	c.s.Input += d
	c.show(promptFor(c.s.Language, c.s.Mode) + "\n" + c.maskedInput())
}

// PressCancel abandons the current entry. From PIN entry it ejects the card;
// from any entry mode it returns to the main menu immediately.
func (c *Controller) PressCancel() {
	if c.s.Terminated || c.s.Mode == ModeWaitingForCard {
		return
	}
	c.accepted("cancel")

	c.s.Input = ""

	switch c.s.Mode {
	case ModePINEntry:
		c.record(models.AuditCardEjected, models.OutcomeSuccess, nil, "canceled at PIN entry")
		c.s.ejectCard()
		c.log.Info("mode change", zap.String("mode", c.s.Mode.String()), zap.String("cause", "cancel"))
		c.show(text(c.s.Language, msgCardEjected))
		c.display.SetInsertCardVisible(true)
	case ModeMainMenu:
		// nothing pending to cancel
	default:
		c.record(models.AuditTransactionCanceled, models.OutcomeSuccess, nil, c.s.Mode.String())
		c.setMode(ModeMainMenu)
		c.showMenu()
	}
}

// PressReset clears the input buffer and re-shows the current prompt
func (c *Controller) PressReset() {
	if c.s.Terminated || !c.s.CardInserted || c.s.Mode == ModeMainMenu {
		return
	}
	c.accepted("reset")

	c.s.Input = ""
	c.show(promptFor(c.s.Language, c.s.Mode))
}

// PressEnter submits the input buffer to the current mode's handler
func (c *Controller) PressEnter() {
	if c.s.Terminated || !c.s.CardInserted {
		return
	}
	c.accepted("enter")

	switch c.s.Mode {
	case ModePINEntry:
		c.submitPIN()
	case ModeDepositEntry:
		c.submitDeposit()
	case ModeWithdrawEntry:
		c.submitWithdraw()
	case ModeChangePINEntry:
		c.submitChangePIN()
	case ModeLanguageEntry:
		c.submitLanguage()
	}
}

// Menu options as labelled on the keypad
const (
	OptionBalance    = 1
	OptionDeposit    = 2
	OptionWithdraw   = 3
	OptionLanguage   = 4
	OptionChangePIN  = 5
	OptionReportLost = 6
	OptionExit       = 7
)

// SelectMenuOption handles the side buttons. Ignored outside the main menu.
func (c *Controller) SelectMenuOption(n int) {
	if c.s.Terminated || c.s.Mode != ModeMainMenu {
		return
	}
	c.accepted("menu", zap.Int("option", n))

	c.s.Input = ""

	switch n {
	case OptionBalance:
		c.show(text(c.s.Language, msgBalance, c.s.Balance))
		c.record(models.AuditBalanceInquiry, models.OutcomeSuccess, nil, "")
		c.scheduleMenuReturn()
	case OptionDeposit:
		c.enterMode(ModeDepositEntry)
	case OptionWithdraw:
		c.enterMode(ModeWithdrawEntry)
	case OptionLanguage:
		c.enterMode(ModeLanguageEntry)
	case OptionChangePIN:
		c.enterMode(ModeChangePINEntry)
	case OptionReportLost:
		c.reportStolen()
	case OptionExit:
		c.exit()
	default:
		c.notice(text(c.s.Language, msgInvalidSelection))
	}
}

// ReturnToMenu shows the main menu if generation is still the latest display
// write and the session is in MainMenu. It reports whether the menu was shown.
func (c *Controller) ReturnToMenu(generation uint64) bool {
	if c.s.Terminated || generation != c.s.Generation || c.s.Mode != ModeMainMenu {
		c.log.Debug("stale menu return dropped",
			zap.Uint64("generation", generation),
			zap.Uint64("current", c.s.Generation),
		)
		return false
	}
	c.showMenu()
	return true
}

func (c *Controller) enterMode(m Mode) {
	c.setMode(m)
	c.show(promptFor(c.s.Language, m))
}

func (c *Controller) reportStolen() {
	c.show(text(c.s.Language, msgReportedStolen))
	c.record(models.AuditCardStolen, models.OutcomeSuccess, nil, "card retained")
	c.s.ejectCard()
	c.terminate(CardReportedStolen)
}

func (c *Controller) exit() {
	c.show(text(c.s.Language, msgGoodbye))
	c.record(models.AuditCardEjected, models.OutcomeSuccess, nil, "customer exit")
	c.record(models.AuditSessionEnded, models.OutcomeSuccess, nil, "")
	c.s.ejectCard()
	c.log.Info("mode change", zap.String("mode", c.s.Mode.String()), zap.String("cause", "exit"))
	c.display.SetInsertCardVisible(true)
}

func (c *Controller) terminate(reason TerminationReason) {
	c.s.Terminated = true
	c.log.Warn("session terminated",
		zap.String("session_id", c.s.ID),
		zap.Stringer("reason", reason),
	)
	c.terminator.TerminateSession(reason)
}

func (c *Controller) setMode(m Mode) {
	if c.s.Mode == m {
		return
	}
	c.log.Info("mode change",
		zap.String("from", c.s.Mode.String()),
		zap.String("mode", m.String()),
	)
	c.s.Mode = m
}

func (c *Controller) showMenu() {
	c.show(text(c.s.Language, msgMainMenu))
}

// show writes the display and supersedes any pending menu return
func (c *Controller) show(msg string) {
	c.s.Generation++
	c.display.SetText(msg)
}

// accepted logs an event that passed the mode guards. Digit values are
// never logged.
func (c *Controller) accepted(event string, fields ...zap.Field) {
	c.log.Debug("event accepted", append([]zap.Field{
		zap.String("event", event),
		zap.String("mode", c.s.Mode.String()),
	}, fields...)...)
}

// notice writes the display without changing state, so a pending menu
// return still applies
func (c *Controller) notice(msg string) {
	c.display.SetText(msg)
}

func (c *Controller) scheduleMenuReturn() {
	c.scheduler.ScheduleMenuReturn(c.cfg.MenuReturnDelay, c.s.Generation)
}

// maskedInput hides PIN digits on the display
func (c *Controller) maskedInput() string {
	if c.cfg.MaskPIN && (c.s.Mode == ModePINEntry || c.s.Mode == ModeChangePINEntry) {
		masked := make([]byte, len(c.s.Input))
		for i := range masked {
			masked[i] = '*'
		}
		return string(masked)
	}
	return c.s.Input
}

func (c *Controller) record(action models.AuditAction, outcome models.AuditOutcome, amount *int64, description string) {
	c.recorder.Record(models.AuditEntry{
		Timestamp:   c.now(),
		SessionID:   c.s.ID,
		TerminalID:  c.cfg.TerminalID,
		Channel:     models.AuditChannelATM,
		Action:      action,
		Outcome:     outcome,
		Amount:      amount,
		Balance:     c.s.Balance,
		Description: description,
	})
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

type nopScheduler struct{}

func (nopScheduler) ScheduleMenuReturn(time.Duration, uint64) {}

type nopTerminator struct{}

func (nopTerminator) TerminateSession(TerminationReason) {}

type nopRecorder struct{}

func (nopRecorder) Record(models.AuditEntry) {}
