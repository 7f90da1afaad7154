// Package atm implements the ATM session controller: a modal state machine that
// turns discrete keypad events into display text and balance changes.
//
// FILE: session.go
// PURPOSE: Session state, modes and languages.
//
// KEY TYPES:
// - Session: complete mutable state of one simulated ATM
// - Mode: which prompt and submission handler are active
// - Language: display language of the message catalog
//
// RELATED FILES:
// - controller.go: event operations and collaborators
// - submit.go: Enter-triggered submission handlers
// - events.go: Event union and text parsing
// - messages.go: English/Spanish display text
package atm

import "strings"

// Mode is the session's state-machine state.
type Mode int

const (
	ModeWaitingForCard Mode = iota
	ModePINEntry
	ModeMainMenu
	ModeDepositEntry
	ModeWithdrawEntry
	ModeChangePINEntry
	ModeLanguageEntry
)

// String returns the mode name
func (m Mode) String() string {
	switch m {
	case ModeWaitingForCard:
		return "WaitingForCard"
	case ModePINEntry:
		return "PINEntry"
	case ModeMainMenu:
		return "MainMenu"
	case ModeDepositEntry:
		return "DepositEntry"
	case ModeWithdrawEntry:
		return "WithdrawEntry"
	case ModeChangePINEntry:
		return "ChangePinEntry"
	case ModeLanguageEntry:
		return "LanguageEntry"
	default:
		return "Unknown"
	}
}

// Language selects the display text catalog.
type Language int

const (
	English Language = iota
	Spanish
)

// String returns the language name as shown on the ATM display
func (l Language) String() string {
	if l == Spanish {
		return "español"
	}
	return "English"
}

// Code returns the short language code used in configuration ("en", "es")
func (l Language) Code() string {
	if l == Spanish {
		return "es"
	}
	return "en"
}

// ParseLanguage maps a configuration code to a Language.
// Unknown codes fall back to English with ok=false.
func ParseLanguage(code string) (Language, bool) {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "en", "english", "1":
		return English, true
	case "es", "spanish", "español", "2":
		return Spanish, true
	default:
		return English, false
	}
}

// TerminationReason explains why a session ended the simulation.
type TerminationReason int

const (
	TooManyPINAttempts TerminationReason = iota + 1
	CardReportedStolen
)

// String returns a human-readable reason
func (r TerminationReason) String() string {
	switch r {
	case TooManyPINAttempts:
		return "too many PIN attempts"
	case CardReportedStolen:
		return "card reported stolen"
	default:
		return "unknown"
	}
}

// Session is the complete mutable state of the simulated ATM.
//
// Invariants: Input is empty whenever Mode is MainMenu or WaitingForCard;
// CardInserted == false implies Mode == WaitingForCard.
type Session struct {
	// ID identifies the current card session (new uuid per insertion)
	ID string

	Balance     int64
	PIN         int64
	PINAttempts int

	CardInserted bool
	Input        string
	Mode         Mode
	Language     Language

	// Generation increments on every display write. Scheduled menu returns
	// carry the generation they were scheduled at.
	Generation uint64

	// Terminated is set once the session has signalled TerminateSession.
	Terminated bool
}

// ejectCard returns the session to WaitingForCard
func (s *Session) ejectCard() {
	s.CardInserted = false
	s.Mode = ModeWaitingForCard
	s.Input = ""
}
