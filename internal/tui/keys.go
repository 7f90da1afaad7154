package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// keyMap binds terminal keys to keypad and side-button events
type keyMap struct {
	Insert key.Binding
	Digit  key.Binding
	Enter  key.Binding
	Cancel key.Binding
	Reset  key.Binding
	Menu   key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Insert: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "insert card"),
		),
		Digit: key.NewBinding(
			key.WithKeys("0", "1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("0-9", "keypad"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "enter"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc", "c"),
			key.WithHelp("esc/c", "cancel"),
		),
		Reset: key.NewBinding(
			key.WithKeys("backspace", "r"),
			key.WithHelp("bksp/r", "clear"),
		),
		Menu: key.NewBinding(
			key.WithKeys(
				"f1", "f2", "f3", "f4", "f5", "f6", "f7",
				"alt+1", "alt+2", "alt+3", "alt+4", "alt+5", "alt+6", "alt+7",
			),
			key.WithHelp("F1-F7", "menu L1-L4 R1-R3"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Insert, k.Digit, k.Enter, k.Menu, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Insert, k.Digit, k.Enter},
		{k.Cancel, k.Reset},
		{k.Menu, k.Help, k.Quit},
	}
}

// menuOption maps "f3" or "alt+3" to side button 3
func menuOption(keyName string) int {
	last := keyName[len(keyName)-1]
	if last < '1' || last > '9' || !(strings.HasPrefix(keyName, "f") || strings.HasPrefix(keyName, "alt+")) {
		return 0
	}
	return int(last - '0')
}
