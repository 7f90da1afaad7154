package replay

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/willfong/atmsim/internal/atm"
)

func TestParse(t *testing.T) {
	data := []byte(`
name: demo
events:
  - insert
  - digit 12
  - WAIT
  - menu 7
expect:
  balance: 1000
`)
	s, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if s.Name != "demo" {
		t.Errorf("Expected name demo, got %q", s.Name)
	}
	want := []Step{
		{Event: atm.InsertCardEvent()},
		{Event: atm.DigitEvent("12")},
		{Wait: true},
		{Event: atm.MenuEvent(7)},
	}
	if len(s.Steps) != len(want) {
		t.Fatalf("Expected %d steps, got %d", len(want), len(s.Steps))
	}
	for i := range want {
		if s.Steps[i] != want[i] {
			t.Errorf("step %d: expected %+v, got %+v", i, want[i], s.Steps[i])
		}
	}
	if s.Expect == nil || s.Expect.Balance == nil || *s.Expect.Balance != 1000 {
		t.Errorf("Expected balance expectation, got %+v", s.Expect)
	}
}

func TestParse_Errors(t *testing.T) {
	if _, err := Parse([]byte("name: empty\nevents: []\n")); !errors.Is(err, ErrEmptyScript) {
		t.Errorf("Expected ErrEmptyScript, got %v", err)
	}
	if _, err := Parse([]byte("events:\n  - swipe\n")); !errors.Is(err, atm.ErrUnknownEvent) {
		t.Errorf("Expected ErrUnknownEvent, got %v", err)
	}
	if _, err := Parse([]byte("events:\n  - {digit: 1}\n")); err == nil {
		t.Error("Expected error for mapping step")
	}
}

func TestLoad_DefaultsNameToPath(t *testing.T) {
	path := filepath.Join("testdata", "withdraw.yaml")
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.Name != "withdraw fifty" {
		t.Errorf("Expected script name, got %q", s.Name)
	}

	if _, err := Load(filepath.Join("testdata", "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}
