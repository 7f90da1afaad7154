// Package tui runs the ATM controller as an interactive bubbletea program.
//
// FILE: model.go
// PURPOSE: tea.Model wrapping atm.Controller. The model is the display sink,
// menu returns become tea.Tick commands, and termination quits the program.
//
// RELATED FILES:
// - keys.go: key bindings and help
// - internal/atm/controller.go: session state machine
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/willfong/atmsim/internal/atm"
	"github.com/willfong/atmsim/internal/config"
	"github.com/willfong/atmsim/internal/ui"
)

// menuReturnMsg fires when a scheduled return-to-menu delay elapses
type menuReturnMsg struct {
	generation uint64
}

// screen is the display sink handed to the controller
type screen struct {
	text          string
	insertVisible bool
}

func (s *screen) SetText(message string) {
	s.text = message
}

func (s *screen) SetInsertCardVisible(visible bool) {
	s.insertVisible = visible
}

// tickScheduler turns scheduled menu returns into tea commands. Commands
// are collected during Update and returned from it.
type tickScheduler struct {
	pending []tea.Cmd
}

func (t *tickScheduler) ScheduleMenuReturn(delay time.Duration, generation uint64) {
	t.pending = append(t.pending, tea.Tick(delay, func(time.Time) tea.Msg {
		return menuReturnMsg{generation: generation}
	}))
}

type terminationLatch struct {
	reason *atm.TerminationReason
}

func (l *terminationLatch) TerminateSession(reason atm.TerminationReason) {
	r := reason
	l.reason = &r
}

// Model is the interactive ATM
type Model struct {
	ctrl  *atm.Controller
	cfg   config.ATMConfig
	ui    *ui.UI
	disp  *screen
	sched *tickScheduler
	latch *terminationLatch

	keys     keyMap
	help     help.Model
	width    int
	quitting bool
}

// New creates the model and starts the controller. opts are passed through
// to atm.NewController after the model's own scheduler and terminator.
func New(cfg config.ATMConfig, u *ui.UI, opts ...atm.Option) *Model {
	m := &Model{
		cfg:   cfg,
		ui:    u,
		disp:  &screen{},
		sched: &tickScheduler{},
		latch: &terminationLatch{},
		keys:  defaultKeyMap(),
		help:  help.New(),
	}

	all := append([]atm.Option{
		atm.WithScheduler(m.sched),
		atm.WithTerminator(m.latch),
	}, opts...)
	m.ctrl = atm.NewController(cfg, m.disp, all...)
	m.ctrl.Start()
	return m
}

// Session returns the controller's session state
func (m *Model) Session() atm.Session {
	return m.ctrl.Session()
}

// Termination returns the termination reason, or nil if the user quit
func (m *Model) Termination() *atm.TerminationReason {
	return m.latch.reason
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case menuReturnMsg:
		m.ctrl.ReturnToMenu(msg.generation)
		return m, m.flush()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Insert):
			m.ctrl.InsertCard()
		case key.Matches(msg, m.keys.Digit):
			m.ctrl.PressDigit(msg.String())
		case key.Matches(msg, m.keys.Enter):
			m.ctrl.PressEnter()
		case key.Matches(msg, m.keys.Cancel):
			m.ctrl.PressCancel()
		case key.Matches(msg, m.keys.Reset):
			m.ctrl.PressReset()
		case key.Matches(msg, m.keys.Menu):
			m.ctrl.SelectMenuOption(menuOption(msg.String()))
		}
		return m, m.flush()
	}

	return m, nil
}

// flush returns the commands produced by the last controller call
func (m *Model) flush() tea.Cmd {
	cmds := m.sched.pending
	m.sched.pending = nil

	if m.latch.reason != nil {
		m.quitting = true
		cmds = append(cmds, tea.Quit)
	}

	switch len(cmds) {
	case 0:
		return nil
	case 1:
		return cmds[0]
	default:
		return tea.Batch(cmds...)
	}
}

// View implements tea.Model
func (m *Model) View() string {
	s := m.ctrl.Session()

	var sb strings.Builder
	sb.WriteString(m.ui.Header("ATM " + m.cfg.TerminalID))
	sb.WriteString("\n\n")
	sb.WriteString(m.ui.Screen(m.disp.text))
	sb.WriteString("\n\n")

	if m.disp.insertVisible {
		sb.WriteString(m.ui.Muted(fmt.Sprintf("  [ %s Insert card: press i ]", ui.SymbolCard)))
		sb.WriteString("\n")
	}

	status := lipgloss.JoinHorizontal(lipgloss.Top,
		m.ui.KeyValue("Mode", s.Mode.String()),
		"  ",
		m.ui.KeyValue("Language", s.Language.String()),
	)
	sb.WriteString(status)
	sb.WriteString("\n")
	sb.WriteString(m.ui.Gauge("PIN attempts", int64(s.PINAttempts), int64(m.cfg.MaxPINAttempts)))
	sb.WriteString("\n\n")

	if m.latch.reason != nil {
		sb.WriteString(m.ui.Error("Session terminated: " + m.latch.reason.String()))
		sb.WriteString("\n")
		return sb.String()
	}
	if m.quitting {
		return sb.String()
	}

	sb.WriteString(m.help.View(m.keys))
	sb.WriteString("\n")
	return sb.String()
}
