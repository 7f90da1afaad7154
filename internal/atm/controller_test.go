package atm

import (
	"strings"
	"testing"
	"time"

	"github.com/willfong/atmsim/internal/config"
	"github.com/willfong/atmsim/internal/models"
)

// fakeDisplay keeps every write so tests can inspect history
type fakeDisplay struct {
	texts         []string
	insertVisible bool
	visibility    []bool
}

func (d *fakeDisplay) SetText(message string) { d.texts = append(d.texts, message) }

func (d *fakeDisplay) SetInsertCardVisible(visible bool) {
	d.insertVisible = visible
	d.visibility = append(d.visibility, visible)
}

func (d *fakeDisplay) last() string {
	if len(d.texts) == 0 {
		return ""
	}
	return d.texts[len(d.texts)-1]
}

type scheduledReturn struct {
	delay      time.Duration
	generation uint64
}

type fakeScheduler struct {
	pending []scheduledReturn
}

func (s *fakeScheduler) ScheduleMenuReturn(delay time.Duration, generation uint64) {
	s.pending = append(s.pending, scheduledReturn{delay: delay, generation: generation})
}

type fakeTerminator struct {
	reasons []TerminationReason
}

func (t *fakeTerminator) TerminateSession(reason TerminationReason) {
	t.reasons = append(t.reasons, reason)
}

type fakeRecorder struct {
	entries []models.AuditEntry
}

func (r *fakeRecorder) Record(entry models.AuditEntry) { r.entries = append(r.entries, entry) }

func (r *fakeRecorder) actions() []models.AuditAction {
	out := make([]models.AuditAction, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Action
	}
	return out
}

type harness struct {
	c     *Controller
	disp  *fakeDisplay
	sched *fakeScheduler
	term  *fakeTerminator
	rec   *fakeRecorder
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWith(t, config.DefaultConfig().ATM)
}

func newHarnessWith(t *testing.T, cfg config.ATMConfig) *harness {
	t.Helper()
	h := &harness{
		disp:  &fakeDisplay{},
		sched: &fakeScheduler{},
		term:  &fakeTerminator{},
		rec:   &fakeRecorder{},
	}
	h.c = NewController(cfg, h.disp,
		WithScheduler(h.sched),
		WithTerminator(h.term),
		WithRecorder(h.rec),
	)
	h.c.Start()
	return h
}

func (h *harness) typeDigits(s string) {
	for _, r := range s {
		h.c.PressDigit(string(r))
	}
}

// authenticate inserts the card and enters the default PIN
func (h *harness) authenticate(t *testing.T) {
	t.Helper()
	h.c.InsertCard()
	h.typeDigits("1234")
	h.c.PressEnter()
	if h.c.Session().Mode != ModeMainMenu {
		t.Fatalf("authenticate: expected MainMenu, got %s", h.c.Session().Mode)
	}
}

func TestController_Start(t *testing.T) {
	h := newHarness(t)

	if h.disp.last() != "Please insert your card." {
		t.Errorf("Expected welcome text, got %q", h.disp.last())
	}
	if !h.disp.insertVisible {
		t.Error("Expected insert-card affordance visible at start")
	}

	s := h.c.Session()
	if s.Mode != ModeWaitingForCard || s.CardInserted || s.Balance != 1000 || s.PIN != 1234 {
		t.Errorf("Unexpected initial session: %+v", s)
	}
}

// Scenario 1
func TestController_CorrectPIN(t *testing.T) {
	h := newHarness(t)

	h.c.InsertCard()
	if h.disp.insertVisible {
		t.Error("Expected insert-card affordance hidden after insertion")
	}
	if h.disp.last() != "Card inserted. Please enter your PIN:" {
		t.Errorf("Unexpected insert text %q", h.disp.last())
	}

	h.typeDigits("1234")
	if h.disp.last() != "Please enter your PIN:\n1234" {
		t.Errorf("Expected prompt with buffer, got %q", h.disp.last())
	}

	h.c.PressEnter()

	s := h.c.Session()
	if s.Mode != ModeMainMenu {
		t.Errorf("Expected MainMenu, got %s", s.Mode)
	}
	if s.PINAttempts != 0 {
		t.Errorf("Expected 0 attempts, got %d", s.PINAttempts)
	}
	if s.Input != "" {
		t.Errorf("Expected empty buffer, got %q", s.Input)
	}
	if !strings.HasPrefix(h.disp.last(), "Main Menu:\nL1: Check Balance") {
		t.Errorf("Expected main menu text, got %q", h.disp.last())
	}
}

// Scenario 2
func TestController_TooManyPINAttempts(t *testing.T) {
	h := newHarness(t)
	h.c.InsertCard()

	for i := 1; i <= 2; i++ {
		h.c.PressDigit("0")
		h.c.PressEnter()
		if got := h.c.Session().PINAttempts; got != i {
			t.Fatalf("Expected %d attempts, got %d", i, got)
		}
		if h.disp.last() != "Incorrect PIN. Please try again:" {
			t.Errorf("Unexpected retry text %q", h.disp.last())
		}
		if len(h.term.reasons) != 0 {
			t.Fatal("TerminateSession called too early")
		}
	}

	h.c.PressDigit("0")
	h.c.PressEnter()

	if len(h.term.reasons) != 1 || h.term.reasons[0] != TooManyPINAttempts {
		t.Fatalf("Expected one TooManyPINAttempts termination, got %v", h.term.reasons)
	}
	if !strings.Contains(strings.ToLower(h.disp.last()), "card retained") {
		t.Errorf("Expected card retained message, got %q", h.disp.last())
	}
	if h.disp.insertVisible {
		t.Error("Retained card must not re-show insert-card affordance")
	}

	s := h.c.Session()
	if !s.Terminated || s.CardInserted || s.Mode != ModeWaitingForCard {
		t.Errorf("Unexpected terminal session: %+v", s)
	}

	// Terminated session ignores everything
	writes := len(h.disp.texts)
	h.c.InsertCard()
	h.c.PressDigit("1")
	h.c.PressEnter()
	h.c.SelectMenuOption(1)
	if len(h.disp.texts) != writes {
		t.Error("Expected no display writes after termination")
	}
	if len(h.term.reasons) != 1 {
		t.Error("TerminateSession must fire exactly once")
	}
}

// Scenario 3
func TestController_Withdraw(t *testing.T) {
	h := newHarness(t)
	h.authenticate(t)

	h.c.SelectMenuOption(OptionWithdraw)
	if h.disp.last() != "Enter withdrawal amount:" {
		t.Errorf("Unexpected prompt %q", h.disp.last())
	}
	h.c.PressDigit("5")
	h.c.PressDigit("0")
	h.c.PressEnter()

	s := h.c.Session()
	if s.Balance != 950 {
		t.Errorf("Expected balance 950, got %d", s.Balance)
	}
	if h.disp.last() != "Please take your cash. New balance: 950" {
		t.Errorf("Unexpected result text %q", h.disp.last())
	}
	if s.Mode != ModeMainMenu {
		t.Errorf("Expected MainMenu, got %s", s.Mode)
	}
	if len(h.sched.pending) != 1 {
		t.Fatalf("Expected one scheduled menu return, got %d", len(h.sched.pending))
	}
	if h.sched.pending[0].delay != 3*time.Second {
		t.Errorf("Expected 3s delay, got %s", h.sched.pending[0].delay)
	}

	if !h.c.ReturnToMenu(h.sched.pending[0].generation) {
		t.Fatal("Expected scheduled return to apply")
	}
	if !strings.HasPrefix(h.disp.last(), "Main Menu:") {
		t.Errorf("Expected main menu after delay, got %q", h.disp.last())
	}
}

// Scenario 4
func TestController_InsufficientFunds(t *testing.T) {
	h := newHarness(t)
	h.authenticate(t)

	h.c.SelectMenuOption(OptionWithdraw)
	h.c.PressDigit("9999")
	h.c.PressEnter()

	if got := h.c.Session().Balance; got != 1000 {
		t.Errorf("Expected balance unchanged at 1000, got %d", got)
	}
	if !strings.Contains(strings.ToLower(h.disp.last()), "insufficient funds") {
		t.Errorf("Expected insufficient funds, got %q", h.disp.last())
	}
	if h.c.Session().Mode != ModeMainMenu {
		t.Error("Expected return to MainMenu after decline")
	}
	if len(h.sched.pending) != 1 {
		t.Errorf("Expected delayed menu return after decline, got %d", len(h.sched.pending))
	}

	last := h.rec.entries[len(h.rec.entries)-1]
	if last.Action != models.AuditWithdrawalDeclined || last.Outcome != models.OutcomeDenied {
		t.Errorf("Expected declined audit entry, got %+v", last)
	}
}

// Scenario 5
func TestController_CancelFromEntryMode(t *testing.T) {
	h := newHarness(t)
	h.authenticate(t)

	h.c.SelectMenuOption(OptionDeposit)
	h.c.PressDigit("42")
	h.c.PressCancel()

	s := h.c.Session()
	if s.Mode != ModeMainMenu {
		t.Errorf("Expected MainMenu, got %s", s.Mode)
	}
	if s.Input != "" {
		t.Errorf("Expected cleared buffer, got %q", s.Input)
	}
	if len(h.sched.pending) != 0 {
		t.Error("Cancel must return to the menu without a delay")
	}
	if !strings.HasPrefix(h.disp.last(), "Main Menu:") {
		t.Errorf("Expected main menu, got %q", h.disp.last())
	}
	if s.Balance != 1000 {
		t.Errorf("Cancel must not change balance, got %d", s.Balance)
	}
}

func TestController_CancelAtPINEjectsCard(t *testing.T) {
	h := newHarness(t)
	h.c.InsertCard()
	h.c.PressDigit("12")
	h.c.PressCancel()

	s := h.c.Session()
	if s.CardInserted || s.Mode != ModeWaitingForCard || s.Input != "" {
		t.Errorf("Expected ejected card, got %+v", s)
	}
	if !h.disp.insertVisible {
		t.Error("Expected insert-card affordance shown after eject")
	}
	if h.disp.last() != "Card ejected. Please insert your card." {
		t.Errorf("Unexpected eject text %q", h.disp.last())
	}
}

func TestController_IgnoredEvents(t *testing.T) {
	tests := []struct {
		name  string
		setup func(h *harness, t *testing.T)
		event func(c *Controller)
	}{
		{"digit without card", func(*harness, *testing.T) {}, func(c *Controller) { c.PressDigit("1") }},
		{"enter without card", func(*harness, *testing.T) {}, func(c *Controller) { c.PressEnter() }},
		{"reset without card", func(*harness, *testing.T) {}, func(c *Controller) { c.PressReset() }},
		{"cancel without card", func(*harness, *testing.T) {}, func(c *Controller) { c.PressCancel() }},
		{"menu without card", func(*harness, *testing.T) {}, func(c *Controller) { c.SelectMenuOption(1) }},
		{"digit in menu", (*harness).authenticate, func(c *Controller) { c.PressDigit("1") }},
		{"reset in menu", (*harness).authenticate, func(c *Controller) { c.PressReset() }},
		{"enter in menu", (*harness).authenticate, func(c *Controller) { c.PressEnter() }},
		{"cancel in menu", (*harness).authenticate, func(c *Controller) { c.PressCancel() }},
		{"insert twice", func(h *harness, _ *testing.T) { h.c.InsertCard() }, func(c *Controller) { c.InsertCard() }},
		{"menu during PIN entry", func(h *harness, _ *testing.T) { h.c.InsertCard() }, func(c *Controller) { c.SelectMenuOption(1) }},
		{"menu during deposit", func(h *harness, t *testing.T) {
			h.authenticate(t)
			h.c.SelectMenuOption(OptionDeposit)
		}, func(c *Controller) { c.SelectMenuOption(OptionWithdraw) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			tt.setup(h, t)

			before := h.c.Session()
			writes := len(h.disp.texts)
			tt.event(h.c)

			if after := h.c.Session(); after != before {
				t.Errorf("Expected no state change:\nbefore %+v\nafter  %+v", before, after)
			}
			if len(h.disp.texts) != writes {
				t.Errorf("Expected no display write, got %q", h.disp.last())
			}
		})
	}
}

func TestController_Reset(t *testing.T) {
	h := newHarness(t)
	h.c.InsertCard()
	h.c.PressDigit("99")
	h.c.PressReset()

	if h.c.Session().Input != "" {
		t.Errorf("Expected cleared buffer, got %q", h.c.Session().Input)
	}
	if h.disp.last() != "Please enter your PIN:" {
		t.Errorf("Expected bare prompt, got %q", h.disp.last())
	}
	if h.c.Session().Mode != ModePINEntry {
		t.Error("Reset must not change mode")
	}
}

func TestController_InvalidPINEntry(t *testing.T) {
	h := newHarness(t)
	h.c.InsertCard()
	h.c.PressEnter() // empty buffer does not parse

	s := h.c.Session()
	if s.PINAttempts != 0 {
		t.Errorf("Unparseable entry must not count as an attempt, got %d", s.PINAttempts)
	}
	if s.Mode != ModePINEntry {
		t.Errorf("Expected PINEntry, got %s", s.Mode)
	}
	if h.disp.last() != "Invalid PIN entry. Please try again:" {
		t.Errorf("Unexpected text %q", h.disp.last())
	}
}

func TestController_AttemptsSurviveReinsert(t *testing.T) {
	h := newHarness(t)

	h.c.InsertCard()
	h.typeDigits("1111")
	h.c.PressEnter()
	h.c.PressCancel()
	h.c.InsertCard()

	if got := h.c.Session().PINAttempts; got != 1 {
		t.Errorf("Expected attempts to persist across reinsertion, got %d", got)
	}

	h.typeDigits("1234")
	h.c.PressEnter()
	if got := h.c.Session().PINAttempts; got != 0 {
		t.Errorf("Expected attempts reset on correct PIN, got %d", got)
	}
}

func TestController_Deposit(t *testing.T) {
	h := newHarness(t)
	h.authenticate(t)

	h.c.SelectMenuOption(OptionDeposit)
	h.typeDigits("250")
	h.c.PressEnter()

	if got := h.c.Session().Balance; got != 1250 {
		t.Errorf("Expected 1250, got %d", got)
	}
	if h.disp.last() != "Deposit successful. New balance: 1250" {
		t.Errorf("Unexpected text %q", h.disp.last())
	}
	if len(h.sched.pending) != 1 {
		t.Errorf("Expected scheduled return, got %d", len(h.sched.pending))
	}
}

func TestController_InvalidAmountKeepsMode(t *testing.T) {
	for _, opt := range []int{OptionDeposit, OptionWithdraw} {
		h := newHarness(t)
		h.authenticate(t)
		h.c.SelectMenuOption(opt)
		mode := h.c.Session().Mode

		h.c.PressEnter()

		if h.c.Session().Mode != mode {
			t.Errorf("option %d: expected mode %s, got %s", opt, mode, h.c.Session().Mode)
		}
		if h.disp.last() != "Invalid amount. Please enter a valid number:" {
			t.Errorf("option %d: unexpected text %q", opt, h.disp.last())
		}
	}
}

func TestController_AmountOverflowIsInvalid(t *testing.T) {
	h := newHarness(t)
	h.authenticate(t)
	h.c.SelectMenuOption(OptionDeposit)
	h.c.PressDigit("99999999999")
	h.c.PressEnter()

	if h.c.Session().Mode != ModeDepositEntry {
		t.Error("Expected to stay in DepositEntry on overflow")
	}
	if h.c.Session().Balance != 1000 {
		t.Error("Balance must not change on overflow")
	}
}

func TestController_ChangePIN(t *testing.T) {
	h := newHarness(t)
	h.authenticate(t)

	h.c.SelectMenuOption(OptionChangePIN)
	h.typeDigits("4321")
	h.c.PressEnter()

	if got := h.c.Session().PIN; got != 4321 {
		t.Errorf("Expected PIN 4321, got %d", got)
	}
	if h.disp.last() != "PIN changed. Old PIN: 1234 New PIN: 4321" {
		t.Errorf("Unexpected text %q", h.disp.last())
	}

	// The new PIN is required on the next card session
	h.c.SelectMenuOption(OptionExit)
	h.c.InsertCard()
	h.typeDigits("1234")
	h.c.PressEnter()
	if h.c.Session().Mode != ModePINEntry {
		t.Error("Old PIN must be rejected")
	}
	h.typeDigits("4321")
	h.c.PressEnter()
	if h.c.Session().Mode != ModeMainMenu {
		t.Error("New PIN must be accepted")
	}
}

func TestController_Language(t *testing.T) {
	h := newHarness(t)
	h.authenticate(t)

	h.c.SelectMenuOption(OptionLanguage)
	h.c.PressDigit("3")
	h.c.PressEnter()
	if h.c.Session().Mode != ModeLanguageEntry {
		t.Errorf("Expected LanguageEntry after bad code, got %s", h.c.Session().Mode)
	}
	if h.disp.last() != "Invalid language selection. Enter 1 or 2:" {
		t.Errorf("Unexpected text %q", h.disp.last())
	}

	h.c.PressDigit("2")
	h.c.PressEnter()

	s := h.c.Session()
	if s.Language != Spanish {
		t.Errorf("Expected Spanish, got %s", s.Language)
	}
	if s.Mode != ModeMainMenu {
		t.Errorf("Expected MainMenu, got %s", s.Mode)
	}
	if h.disp.last() != "Idioma cambiado a español" {
		t.Errorf("Unexpected confirmation %q", h.disp.last())
	}

	h.c.ReturnToMenu(h.sched.pending[len(h.sched.pending)-1].generation)
	if !strings.HasPrefix(h.disp.last(), "Menú Principal:") {
		t.Errorf("Expected Spanish menu, got %q", h.disp.last())
	}
}

func TestController_BalanceAndInvalidSelection(t *testing.T) {
	h := newHarness(t)
	h.authenticate(t)

	h.c.SelectMenuOption(OptionBalance)
	if h.disp.last() != "Your balance is: 1000" {
		t.Errorf("Unexpected balance text %q", h.disp.last())
	}
	if h.c.Session().Mode != ModeMainMenu {
		t.Error("Balance check stays in MainMenu")
	}
	if len(h.sched.pending) != 1 {
		t.Errorf("Expected scheduled return, got %d", len(h.sched.pending))
	}

	h.c.SelectMenuOption(9)
	if h.disp.last() != "Invalid selection." {
		t.Errorf("Unexpected text %q", h.disp.last())
	}
	if h.c.Session().Mode != ModeMainMenu {
		t.Error("Invalid selection must not change mode")
	}
}

func TestController_Exit(t *testing.T) {
	h := newHarness(t)
	h.authenticate(t)

	h.c.SelectMenuOption(OptionExit)

	s := h.c.Session()
	if s.CardInserted || s.Mode != ModeWaitingForCard {
		t.Errorf("Expected ejected card, got %+v", s)
	}
	if s.Terminated || len(h.term.reasons) != 0 {
		t.Error("Exit must not terminate the simulation")
	}
	if !h.disp.insertVisible {
		t.Error("Expected insert-card affordance shown after exit")
	}
	if h.disp.last() != "Thank you for using our ATM. Please take your card." {
		t.Errorf("Unexpected text %q", h.disp.last())
	}

	// Simulation continues
	h.c.InsertCard()
	if h.c.Session().Mode != ModePINEntry {
		t.Error("Expected a new card session after exit")
	}
}

func TestController_ReportStolen(t *testing.T) {
	h := newHarness(t)
	h.authenticate(t)

	h.c.SelectMenuOption(OptionReportLost)

	if len(h.term.reasons) != 1 || h.term.reasons[0] != CardReportedStolen {
		t.Fatalf("Expected CardReportedStolen termination, got %v", h.term.reasons)
	}
	if h.disp.last() != "PIN and Card details reported stolen. Card is deactivated." {
		t.Errorf("Unexpected text %q", h.disp.last())
	}
	s := h.c.Session()
	if s.CardInserted || s.Mode != ModeWaitingForCard || !s.Terminated {
		t.Errorf("Unexpected session %+v", s)
	}
}

func TestController_StaleMenuReturn(t *testing.T) {
	h := newHarness(t)
	h.authenticate(t)

	h.c.SelectMenuOption(OptionBalance)
	stale := h.sched.pending[0].generation

	// A newer event lands before the timer fires
	h.c.SelectMenuOption(OptionDeposit)

	if h.c.ReturnToMenu(stale) {
		t.Fatal("Stale return must be dropped")
	}
	if h.disp.last() != "Enter deposit amount:" {
		t.Errorf("Stale return overwrote display: %q", h.disp.last())
	}

	// Exit during the delay: return must not resurrect the menu
	h.c.PressCancel()
	h.c.SelectMenuOption(OptionBalance)
	gen := h.sched.pending[len(h.sched.pending)-1].generation
	h.c.SelectMenuOption(OptionExit)
	if h.c.ReturnToMenu(gen) {
		t.Error("Return after exit must be dropped")
	}
	if h.c.Session().Mode != ModeWaitingForCard {
		t.Error("Expected WaitingForCard after exit")
	}
}

func TestController_LatestReturnWins(t *testing.T) {
	h := newHarness(t)
	h.authenticate(t)

	h.c.SelectMenuOption(OptionBalance)
	h.c.SelectMenuOption(OptionBalance)

	first, second := h.sched.pending[0].generation, h.sched.pending[1].generation
	if h.c.ReturnToMenu(first) {
		t.Error("Superseded return must be dropped")
	}
	if !h.c.ReturnToMenu(second) {
		t.Error("Latest return must apply")
	}
	if h.c.ReturnToMenu(second) {
		t.Error("A return applies at most once")
	}
}

func TestController_InvalidSelectionKeepsPendingReturn(t *testing.T) {
	h := newHarness(t)
	h.authenticate(t)

	h.c.SelectMenuOption(OptionBalance)
	gen := h.sched.pending[0].generation
	before := h.c.Session()

	h.c.SelectMenuOption(9)
	if h.c.Session() != before {
		t.Errorf("Invalid selection changed the session: %+v", h.c.Session())
	}

	if !h.c.ReturnToMenu(gen) {
		t.Fatal("Return scheduled before an invalid selection must still apply")
	}
	if !strings.HasPrefix(h.disp.last(), "Main Menu:") {
		t.Errorf("Expected main menu, got %q", h.disp.last())
	}
}

func TestController_MaskPIN(t *testing.T) {
	cfg := config.DefaultConfig().ATM
	cfg.MaskPIN = true
	h := newHarnessWith(t, cfg)

	h.c.InsertCard()
	h.typeDigits("12")
	if h.disp.last() != "Please enter your PIN:\n**" {
		t.Errorf("Expected masked echo, got %q", h.disp.last())
	}
}

func TestController_NonDigitKeyIgnored(t *testing.T) {
	h := newHarness(t)
	h.c.InsertCard()
	writes := len(h.disp.texts)

	h.c.PressDigit("a")
	h.c.PressDigit("")

	if h.c.Session().Input != "" || len(h.disp.texts) != writes {
		t.Error("Non-digit keys must be ignored")
	}
}

func TestController_AuditTrail(t *testing.T) {
	h := newHarness(t)
	h.c.InsertCard()
	h.typeDigits("0000")
	h.c.PressEnter()
	h.typeDigits("1234")
	h.c.PressEnter()
	h.c.SelectMenuOption(OptionDeposit)
	h.typeDigits("10")
	h.c.PressEnter()
	h.c.SelectMenuOption(OptionExit)

	want := []models.AuditAction{
		models.AuditCardInserted,
		models.AuditPINFailed,
		models.AuditPINSuccess,
		models.AuditDeposit,
		models.AuditCardEjected,
		models.AuditSessionEnded,
	}
	got := h.rec.actions()
	if len(got) != len(want) {
		t.Fatalf("Expected actions %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d: expected %s, got %s", i, want[i], got[i])
		}
	}

	sessionID := h.rec.entries[0].SessionID
	if sessionID == "" {
		t.Fatal("Expected session id on audit entries")
	}
	for _, e := range h.rec.entries {
		if e.SessionID != sessionID {
			t.Errorf("Expected one session id, got %s and %s", sessionID, e.SessionID)
		}
		if e.TerminalID != config.TerminalID {
			t.Errorf("Expected terminal %s, got %s", config.TerminalID, e.TerminalID)
		}
	}

	deposit := h.rec.entries[3]
	if deposit.Amount == nil || *deposit.Amount != 10 || deposit.Balance != 1010 {
		t.Errorf("Unexpected deposit entry %+v", deposit)
	}
}
