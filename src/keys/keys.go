// Package keys defines the fixed key vocabulary used for hotkey combinations.
package keys

import (
	"errors"
	"fmt"
	"strings"
)

// Key is one named physical key.
type Key uint16

const (
	Unknown Key = iota

	ControlLeft
	ControlRight
	ShiftLeft
	ShiftRight
	Alt
	AltGr
	MetaLeft
	MetaRight

	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
	KeyG
	KeyH
	KeyI
	KeyJ
	KeyK
	KeyL
	KeyM
	KeyN
	KeyO
	KeyP
	KeyQ
	KeyR
	KeyS
	KeyT
	KeyU
	KeyV
	KeyW
	KeyX
	KeyY
	KeyZ

	Num0
	Num1
	Num2
	Num3
	Num4
	Num5
	Num6
	Num7
	Num8
	Num9

	F1
	F2
	F3
	F4
	F5
	F6
	F7
	F8
	F9
	F10
	F11
	F12

	Space
	Return
	Tab
	Escape
	Backspace
	Delete
	Insert
	Home
	End
	PageUp
	PageDown
	UpArrow
	DownArrow
	LeftArrow
	RightArrow

	Minus
	Equal
	LeftBracket
	RightBracket
	BackSlash
	SemiColon
	Quote
	BackQuote
	Comma
	Dot
	Slash

	numKeys
)

var (
	ErrUnknownKey       = errors.New("unknown key name")
	ErrEmptyCombination = errors.New("hotkey is empty")
	ErrDuplicateKey     = errors.New("hotkey contains a key twice")
	ErrNoModifier       = errors.New("hotkey must include at least one modifier key")
	ErrNoKey            = errors.New("hotkey must include at least one non-modifier key")
)

var names = [numKeys]string{
	Unknown:      "Unknown",
	ControlLeft:  "ControlLeft",
	ControlRight: "ControlRight",
	ShiftLeft:    "ShiftLeft",
	ShiftRight:   "ShiftRight",
	Alt:          "Alt",
	AltGr:        "AltGr",
	MetaLeft:     "MetaLeft",
	MetaRight:    "MetaRight",
	KeyA:         "KeyA",
	KeyB:         "KeyB",
	KeyC:         "KeyC",
	KeyD:         "KeyD",
	KeyE:         "KeyE",
	KeyF:         "KeyF",
	KeyG:         "KeyG",
	KeyH:         "KeyH",
	KeyI:         "KeyI",
	KeyJ:         "KeyJ",
	KeyK:         "KeyK",
	KeyL:         "KeyL",
	KeyM:         "KeyM",
	KeyN:         "KeyN",
	KeyO:         "KeyO",
	KeyP:         "KeyP",
	KeyQ:         "KeyQ",
	KeyR:         "KeyR",
	KeyS:         "KeyS",
	KeyT:         "KeyT",
	KeyU:         "KeyU",
	KeyV:         "KeyV",
	KeyW:         "KeyW",
	KeyX:         "KeyX",
	KeyY:         "KeyY",
	KeyZ:         "KeyZ",
	Num0:         "Num0",
	Num1:         "Num1",
	Num2:         "Num2",
	Num3:         "Num3",
	Num4:         "Num4",
	Num5:         "Num5",
	Num6:         "Num6",
	Num7:         "Num7",
	Num8:         "Num8",
	Num9:         "Num9",
	F1:           "F1",
	F2:           "F2",
	F3:           "F3",
	F4:           "F4",
	F5:           "F5",
	F6:           "F6",
	F7:           "F7",
	F8:           "F8",
	F9:           "F9",
	F10:          "F10",
	F11:          "F11",
	F12:          "F12",
	Space:        "Space",
	Return:       "Return",
	Tab:          "Tab",
	Escape:       "Escape",
	Backspace:    "Backspace",
	Delete:       "Delete",
	Insert:       "Insert",
	Home:         "Home",
	End:          "End",
	PageUp:       "PageUp",
	PageDown:     "PageDown",
	UpArrow:      "UpArrow",
	DownArrow:    "DownArrow",
	LeftArrow:    "LeftArrow",
	RightArrow:   "RightArrow",
	Minus:        "Minus",
	Equal:        "Equal",
	LeftBracket:  "LeftBracket",
	RightBracket: "RightBracket",
	BackSlash:    "BackSlash",
	SemiColon:    "SemiColon",
	Quote:        "Quote",
	BackQuote:    "BackQuote",
	Comma:        "Comma",
	Dot:          "Dot",
	Slash:        "Slash",
}

// aliases map lowercase alternate spellings to keys.
var aliases = map[string]Key{
	"ctrl":    ControlLeft,
	"control": ControlLeft,
	"shift":   ShiftLeft,
	"option":  Alt,
	"opt":     Alt,
	"command": MetaLeft,
	"cmd":     MetaLeft,
	"win":     MetaLeft,
	"super":   MetaLeft,
	"meta":    MetaLeft,
	"enter":   Return,
	"esc":     Escape,
	"up":      UpArrow,
	"down":    DownArrow,
	"left":    LeftArrow,
	"right":   RightArrow,
	"/":       Slash,
	"?":       Slash,
	"\\":      BackSlash,
	"|":       BackSlash,
	",":       Comma,
	"<":       Comma,
	".":       Dot,
	">":       Dot,
	";":       SemiColon,
	":":       SemiColon,
	"'":       Quote,
	"\"":      Quote,
	"`":       BackQuote,
	"~":       BackQuote,
	"[":       LeftBracket,
	"{":       LeftBracket,
	"]":       RightBracket,
	"}":       RightBracket,
	"-":       Minus,
	"_":       Minus,
	"=":       Equal,
}

var byName = func() map[string]Key {
	m := make(map[string]Key, int(numKeys)+len(aliases))
	for k := ControlLeft; k < numKeys; k++ {
		m[strings.ToLower(names[k])] = k
	}
	for a, k := range aliases {
		m[a] = k
	}
	// Bare letters and digits ("q", "7") are accepted too.
	for k := KeyA; k <= KeyZ; k++ {
		m[string(rune('a'+int(k-KeyA)))] = k
	}
	for k := Num0; k <= Num9; k++ {
		m[string(rune('0'+int(k-Num0)))] = k
	}
	return m
}()

// String returns the canonical name of the key.
func (k Key) String() string {
	if k >= numKeys {
		return fmt.Sprintf("Key(%d)", uint16(k))
	}
	return names[k]
}

// IsModifier reports whether k is one of the control, shift, alt or meta keys.
func (k Key) IsModifier() bool {
	return k >= ControlLeft && k <= MetaRight
}

// Valid reports whether k is part of the vocabulary.
func (k Key) Valid() bool {
	return k > Unknown && k < numKeys
}

// Parse resolves a key name. Matching is case-insensitive; unknown names fail.
func Parse(name string) (Key, error) {
	n := strings.TrimSpace(name)
	if k, ok := byName[strings.ToLower(n)]; ok {
		return k, nil
	}
	return Unknown, fmt.Errorf("%w: %q", ErrUnknownKey, n)
}

// All returns every key of the vocabulary in declaration order.
func All() []Key {
	out := make([]Key, 0, int(numKeys)-1)
	for k := ControlLeft; k < numKeys; k++ {
		out = append(out, k)
	}
	return out
}
