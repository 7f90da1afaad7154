package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/willfong/atmsim/internal/atm"
	"github.com/willfong/atmsim/internal/config"
	"github.com/willfong/atmsim/internal/ui"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newModel(t *testing.T) *Model {
	t.Helper()
	return New(config.DefaultConfig().ATM, ui.Plain())
}

func press(m *Model, msgs ...tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	for _, msg := range msgs {
		_, cmd = m.Update(msg)
	}
	return cmd
}

func login(m *Model) {
	press(m, runes("i"), runes("1"), runes("2"), runes("3"), runes("4"), tea.KeyMsg{Type: tea.KeyEnter})
}

func TestModel_StartsWaitingForCard(t *testing.T) {
	m := newModel(t)

	if m.disp.text != "Please insert your card." {
		t.Errorf("Unexpected start text %q", m.disp.text)
	}
	if !m.disp.insertVisible {
		t.Error("Expected insert-card affordance at start")
	}
	if !strings.Contains(m.View(), "Insert card: press i") {
		t.Error("View should show the insert-card affordance")
	}
}

func TestModel_LoginShowsMenu(t *testing.T) {
	m := newModel(t)
	login(m)

	if m.Session().Mode != atm.ModeMainMenu {
		t.Fatalf("Expected MainMenu, got %s", m.Session().Mode)
	}
	if !strings.HasPrefix(m.disp.text, "Main Menu:") {
		t.Errorf("Unexpected display %q", m.disp.text)
	}
	if m.disp.insertVisible {
		t.Error("Affordance should be hidden with a card inserted")
	}
}

func TestModel_MenuReturnTick(t *testing.T) {
	m := newModel(t)
	login(m)

	cmd := press(m, tea.KeyMsg{Type: tea.KeyF1})
	if m.disp.text != "Your balance is: 1000" {
		t.Fatalf("Expected balance, got %q", m.disp.text)
	}
	if cmd == nil {
		t.Fatal("Expected a tick command for the menu return")
	}

	gen := m.Session().Generation
	press(m, menuReturnMsg{generation: gen})
	if !strings.HasPrefix(m.disp.text, "Main Menu:") {
		t.Errorf("Expected menu after return, got %q", m.disp.text)
	}
}

func TestModel_StaleMenuReturnIgnored(t *testing.T) {
	m := newModel(t)
	login(m)

	press(m, tea.KeyMsg{Type: tea.KeyF1})
	stale := m.Session().Generation
	press(m, tea.KeyMsg{Type: tea.KeyF2})

	press(m, menuReturnMsg{generation: stale})
	if m.disp.text != "Enter deposit amount:" {
		t.Errorf("Stale return changed display to %q", m.disp.text)
	}
}

func TestModel_AltDigitSelectsMenu(t *testing.T) {
	m := newModel(t)
	login(m)

	press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("3"), Alt: true})
	if m.Session().Mode != atm.ModeWithdrawEntry {
		t.Errorf("Expected WithdrawEntry, got %s", m.Session().Mode)
	}
}

func TestModel_CancelAndReset(t *testing.T) {
	m := newModel(t)
	login(m)

	press(m, tea.KeyMsg{Type: tea.KeyF2}, runes("5"), tea.KeyMsg{Type: tea.KeyBackspace})
	if m.Session().Input != "" {
		t.Errorf("Expected cleared input, got %q", m.Session().Input)
	}

	press(m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.Session().Mode != atm.ModeMainMenu {
		t.Errorf("Expected MainMenu after cancel, got %s", m.Session().Mode)
	}
}

func TestModel_TerminationQuits(t *testing.T) {
	m := newModel(t)
	press(m, runes("i"))

	var cmd tea.Cmd
	for i := 0; i < 3; i++ {
		cmd = press(m, runes("9"), tea.KeyMsg{Type: tea.KeyEnter})
	}

	if m.Termination() == nil || *m.Termination() != atm.TooManyPINAttempts {
		t.Fatalf("Expected termination, got %v", m.Termination())
	}
	if cmd == nil {
		t.Fatal("Expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected tea.QuitMsg")
	}
	if !strings.Contains(m.View(), "Session terminated: too many PIN attempts") {
		t.Error("View should report the termination")
	}
}

func TestModel_QuitKey(t *testing.T) {
	m := newModel(t)
	cmd := press(m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("Expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected tea.QuitMsg")
	}
	if m.Termination() != nil {
		t.Error("Quitting is not a termination")
	}
}

func TestMenuOption(t *testing.T) {
	tests := []struct {
		key      string
		expected int
	}{
		{"f1", 1},
		{"f7", 7},
		{"alt+4", 4},
		{"x", 0},
		{"enter", 0},
	}
	for _, test := range tests {
		if got := menuOption(test.key); got != test.expected {
			t.Errorf("menuOption(%q): expected %d, got %d", test.key, test.expected, got)
		}
	}
}
