package keys

import (
	"fmt"
	"strings"
)

// Combination is an immutable set of keys that must be held together.
type Combination struct {
	keys []Key
}

// NewCombination validates keys and builds a Combination.
// At least one modifier and one non-modifier key are required and no key may repeat.
func NewCombination(ks ...Key) (Combination, error) {
	if len(ks) == 0 {
		return Combination{}, ErrEmptyCombination
	}
	seen := make(map[Key]bool, len(ks))
	hasMod, hasKey := false, false
	for _, k := range ks {
		if !k.Valid() {
			return Combination{}, fmt.Errorf("%w: %s", ErrUnknownKey, k)
		}
		if seen[k] {
			return Combination{}, fmt.Errorf("%w: %s", ErrDuplicateKey, k)
		}
		seen[k] = true
		if k.IsModifier() {
			hasMod = true
		} else {
			hasKey = true
		}
	}
	if !hasMod {
		return Combination{}, ErrNoModifier
	}
	if !hasKey {
		return Combination{}, ErrNoKey
	}
	return Combination{keys: append([]Key(nil), ks...)}, nil
}

// ParseCombination parses a "+" separated list such as "ControlLeft+Alt+ShiftLeft+Slash".
func ParseCombination(s string) (Combination, error) {
	if strings.TrimSpace(s) == "" {
		return Combination{}, ErrEmptyCombination
	}
	parts := strings.Split(s, "+")
	ks := make([]Key, 0, len(parts))
	for _, p := range parts {
		k, err := Parse(p)
		if err != nil {
			return Combination{}, err
		}
		ks = append(ks, k)
	}
	return NewCombination(ks...)
}

// MustParseCombination is like ParseCombination but panics on error.
func MustParseCombination(s string) Combination {
	c, err := ParseCombination(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Keys returns a copy of the keys in the combination.
func (c Combination) Keys() []Key {
	return append([]Key(nil), c.keys...)
}

// Contains reports whether k is part of the combination.
func (c Combination) Contains(k Key) bool {
	for _, ck := range c.keys {
		if ck == k {
			return true
		}
	}
	return false
}

// IsZero reports whether c was never built.
func (c Combination) IsZero() bool { return len(c.keys) == 0 }

func (c Combination) String() string {
	parts := make([]string, len(c.keys))
	for i, k := range c.keys {
		parts[i] = k.String()
	}
	return strings.Join(parts, "+")
}
