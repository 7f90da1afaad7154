// Package replay drives an ATM controller from a YAML event script and
// records the resulting display transcript.
//
// FILE: script.go
// PURPOSE: Script format and loading.
//
// A script looks like:
//
//	name: withdraw fifty
//	events:
//	  - insert
//	  - digit 1234
//	  - enter
//	  - menu 3
//	  - digit 50
//	  - enter
//	  - wait
//	expect:
//	  mode: MainMenu
//	  balance: 950
//	  display: Main Menu
//
// "wait" lets every pending menu return fire.
package replay

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/willfong/atmsim/internal/atm"
)

// ErrEmptyScript is returned for scripts without events
var ErrEmptyScript = errors.New("script has no events")

// Script is a named sequence of steps with optional final expectations
type Script struct {
	Name   string  `yaml:"name"`
	Steps  []Step  `yaml:"events"`
	Expect *Expect `yaml:"expect,omitempty"`
}

// Step is either a keypad event or a wait for scheduled menu returns
type Step struct {
	Event atm.Event
	Wait  bool
}

// String renders the step in script syntax
func (s Step) String() string {
	if s.Wait {
		return "wait"
	}
	return s.Event.String()
}

// UnmarshalYAML accepts a scalar such as "digit 5" or "wait"
func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("line %d: step must be a string: %w", node.Line, err)
	}

	if strings.EqualFold(strings.TrimSpace(raw), "wait") {
		*s = Step{Wait: true}
		return nil
	}

	ev, err := atm.ParseEvent(raw)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*s = Step{Event: ev}
	return nil
}

// MarshalYAML writes the step back as a scalar
func (s Step) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// Expect lists assertions checked after the last step. Unset fields are skipped.
type Expect struct {
	Mode        string `yaml:"mode,omitempty"`
	Balance     *int64 `yaml:"balance,omitempty"`
	PINAttempts *int   `yaml:"pin_attempts,omitempty"`
	Terminated  *bool  `yaml:"terminated,omitempty"`
	Language    string `yaml:"language,omitempty"`

	// Display must be a substring of the final display text
	Display string `yaml:"display,omitempty"`
}

// Parse decodes a script from YAML
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	if len(s.Steps) == 0 {
		return nil, ErrEmptyScript
	}
	return &s, nil
}

// Load reads and decodes a script file
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = path
	}
	return s, nil
}
