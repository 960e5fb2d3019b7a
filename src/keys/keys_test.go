package keys

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		expected Key
	}{
		{"ControlLeft", ControlLeft},
		{"controlleft", ControlLeft},
		{"Ctrl", ControlLeft},
		{"shift", ShiftLeft},
		{"Alt", Alt},
		{"option", Alt},
		{"AltGr", AltGr},
		{"cmd", MetaLeft},
		{"Win", MetaLeft},
		{"Slash", Slash},
		{"/", Slash},
		{"q", KeyQ},
		{"KeyQ", KeyQ},
		{"7", Num7},
		{"F12", F12},
		{"esc", Escape},
		{" Return ", Return},
		{"left", LeftArrow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.name)
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tt.name, err)
			}
			if got != tt.expected {
				t.Errorf("Parse(%q) = %s, expected %s", tt.name, got, tt.expected)
			}
		})
	}
}

func TestParseUnknown(t *testing.T) {
	for _, name := range []string{"", "hyper", "F25", "+", "ctrl+q"} {
		if _, err := Parse(name); !errors.Is(err, ErrUnknownKey) {
			t.Errorf("Parse(%q) error = %v, expected ErrUnknownKey", name, err)
		}
	}
}

func TestNamesRoundTrip(t *testing.T) {
	for _, k := range All() {
		got, err := Parse(k.String())
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", k.String(), err)
		}
		if got != k {
			t.Errorf("Parse(%q) = %s, expected %s", k.String(), got, k)
		}
	}
}

func TestIsModifier(t *testing.T) {
	mods := map[Key]bool{
		ControlLeft: true, ControlRight: true, ShiftLeft: true, ShiftRight: true,
		Alt: true, AltGr: true, MetaLeft: true, MetaRight: true,
	}
	for _, k := range All() {
		if k.IsModifier() != mods[k] {
			t.Errorf("%s.IsModifier() = %v", k, k.IsModifier())
		}
	}
}

func TestParseCombination(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		err      error
	}{
		{"ControlLeft+Alt+ShiftLeft+Slash", "ControlLeft+Alt+ShiftLeft+Slash", nil},
		{"Ctrl+Alt+Q", "ControlLeft+Alt+KeyQ", nil},
		{"cmd + shift + 4", "MetaLeft+ShiftLeft+Num4", nil},
		{"AltGr+F1", "AltGr+F1", nil},
		{"Ctrl+Shift", "", ErrNoKey},
		{"Q", "", ErrNoModifier},
		{"Slash+F1", "", ErrNoModifier},
		{"Ctrl+Ctrl+Q", "", ErrDuplicateKey},
		{"Ctrl+ControlLeft+Q", "", ErrDuplicateKey},
		{"Ctrl+Bogus", "", ErrUnknownKey},
		{"", "", ErrEmptyCombination},
		{"   ", "", ErrEmptyCombination},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			c, err := ParseCombination(tt.input)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("ParseCombination(%q) error = %v, expected %v", tt.input, err, tt.err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCombination(%q) failed: %v", tt.input, err)
			}
			if c.String() != tt.expected {
				t.Errorf("ParseCombination(%q) = %q, expected %q", tt.input, c.String(), tt.expected)
			}
		})
	}
}

func TestNewCombinationEveryModifierKeyPair(t *testing.T) {
	var mods, plain []Key
	for _, k := range All() {
		if k.IsModifier() {
			mods = append(mods, k)
		} else {
			plain = append(plain, k)
		}
	}
	for _, m := range mods {
		for _, k := range plain {
			if _, err := NewCombination(m, k); err != nil {
				t.Errorf("NewCombination(%s, %s) failed: %v", m, k, err)
			}
		}
	}
	if _, err := NewCombination(mods...); !errors.Is(err, ErrNoKey) {
		t.Errorf("all modifiers: error = %v, expected ErrNoKey", err)
	}
	if _, err := NewCombination(plain...); !errors.Is(err, ErrNoModifier) {
		t.Errorf("all plain keys: error = %v, expected ErrNoModifier", err)
	}
}

func TestCombinationIsImmutable(t *testing.T) {
	src := []Key{ControlLeft, KeyQ}
	c, err := NewCombination(src...)
	if err != nil {
		t.Fatal(err)
	}
	src[1] = KeyW
	got := c.Keys()
	got[0] = Alt
	if c.String() != "ControlLeft+KeyQ" {
		t.Errorf("combination changed through aliasing: %s", c)
	}
	if !c.Contains(KeyQ) || c.Contains(KeyW) {
		t.Errorf("Contains mismatch for %s", c)
	}
}
