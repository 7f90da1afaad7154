// Package atm implements the ATM session controller.
//
// FILE: events.go
// PURPOSE: Keypad events as a tagged union, dispatch onto the controller,
// and the text form used by replay scripts ("insert", "digit 5", "menu 3").
package atm

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Script parsing errors
var (
	ErrUnknownEvent = errors.New("unknown event")
	ErrBadDigit     = errors.New("digit event needs one or more digits 0-9")
	ErrBadOption    = errors.New("menu event needs an option number")
)

// EventKind identifies a keypad button
type EventKind uint8

const (
	EventInvalid EventKind = iota
	EventInsertCard
	EventDigit
	EventCancel
	EventReset
	EventEnter
	EventMenuOption
)

// String returns the script keyword for the kind
func (k EventKind) String() string {
	switch k {
	case EventInsertCard:
		return "insert"
	case EventDigit:
		return "digit"
	case EventCancel:
		return "cancel"
	case EventReset:
		return "reset"
	case EventEnter:
		return "enter"
	case EventMenuOption:
		return "menu"
	default:
		return "invalid"
	}
}

// Event is one button press. Digit is set for EventDigit, Option for EventMenuOption.
type Event struct {
	Kind   EventKind
	Digit  string
	Option int
}

// Convenience constructors
func InsertCardEvent() Event    { return Event{Kind: EventInsertCard} }
func DigitEvent(d string) Event { return Event{Kind: EventDigit, Digit: d} }
func CancelEvent() Event        { return Event{Kind: EventCancel} }
func ResetEvent() Event         { return Event{Kind: EventReset} }
func EnterEvent() Event         { return Event{Kind: EventEnter} }
func MenuEvent(n int) Event     { return Event{Kind: EventMenuOption, Option: n} }

// String renders the event in script syntax
func (e Event) String() string {
	switch e.Kind {
	case EventDigit:
		return "digit " + e.Digit
	case EventMenuOption:
		return "menu " + strconv.Itoa(e.Option)
	default:
		return e.Kind.String()
	}
}

// ParseEvent parses one event in script syntax. Keywords are case-insensitive.
func ParseEvent(s string) (Event, error) {
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) == 0 {
		return Event{}, fmt.Errorf("%w: empty", ErrUnknownEvent)
	}

	kw, args := fields[0], fields[1:]
	switch kw {
	case "insert", "card", "insert-card":
		return InsertCardEvent(), nil
	case "cancel":
		return CancelEvent(), nil
	case "reset", "clear":
		return ResetEvent(), nil
	case "enter":
		return EnterEvent(), nil
	case "digit", "digits":
		if len(args) != 1 || !isDigits(args[0]) {
			return Event{}, fmt.Errorf("%w: %q", ErrBadDigit, s)
		}
		return DigitEvent(args[0]), nil
	case "menu", "option":
		if len(args) != 1 {
			return Event{}, fmt.Errorf("%w: %q", ErrBadOption, s)
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return Event{}, fmt.Errorf("%w: %q", ErrBadOption, s)
		}
		return MenuEvent(n), nil
	default:
		return Event{}, fmt.Errorf("%w: %q", ErrUnknownEvent, s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler
func (e *Event) UnmarshalText(b []byte) error {
	ev, err := ParseEvent(string(b))
	if err != nil {
		return err
	}
	*e = ev
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (e Event) MarshalText() ([]byte, error) {
	if e.Kind == EventInvalid {
		return nil, ErrUnknownEvent
	}
	return []byte(e.String()), nil
}

// Dispatch applies one event to the controller
func (c *Controller) Dispatch(e Event) {
	switch e.Kind {
	case EventInsertCard:
		c.InsertCard()
	case EventDigit:
		c.PressDigit(e.Digit)
	case EventCancel:
		c.PressCancel()
	case EventReset:
		c.PressReset()
	case EventEnter:
		c.PressEnter()
	case EventMenuOption:
		c.SelectMenuOption(e.Option)
	}
}
