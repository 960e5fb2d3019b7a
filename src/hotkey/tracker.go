package hotkey

import (
	"fmt"

	"kbd-layout-overlay/src/keys"
)

// Event is what the capture side asks the overlay to do.
type Event int

const (
	Show Event = iota + 1
	Hide
	Toggle
)

func (e Event) String() string {
	switch e {
	case Show:
		return "Show"
	case Hide:
		return "Hide"
	case Toggle:
		return "Toggle"
	default:
		return fmt.Sprintf("Event(%d)", int(e))
	}
}

// Tracker owns the set of currently pressed keys and turns key transitions
// into Show/Hide (momentary) or Toggle (persist) events.
// It is not safe for concurrent use; the capture goroutine is its only user.
type Tracker struct {
	required []keys.Key
	persist  bool
	pressed  map[keys.Key]bool
	active   bool
}

// NewTracker creates a tracker for the given combination.
func NewTracker(combo keys.Combination, persist bool) *Tracker {
	return &Tracker{
		required: combo.Keys(),
		persist:  persist,
		pressed:  make(map[keys.Key]bool),
	}
}

// Press records k as held. It returns an event when the full combination
// has just become held.
func (t *Tracker) Press(k keys.Key) (Event, bool) {
	t.pressed[k] = true
	if t.active || !t.allDown() {
		return 0, false
	}
	t.active = true
	if t.persist {
		return Toggle, true
	}
	return Show, true
}

// Release records k as released. In momentary mode it returns Hide when the
// combination collapses; in persist mode it only re-arms the latch.
func (t *Tracker) Release(k keys.Key) (Event, bool) {
	delete(t.pressed, k)
	if !t.active || t.allDown() {
		return 0, false
	}
	t.active = false
	if t.persist {
		return 0, false
	}
	return Hide, true
}

// Held reports how many keys are currently down.
func (t *Tracker) Held() int { return len(t.pressed) }

func (t *Tracker) allDown() bool {
	for _, k := range t.required {
		if !t.pressed[k] {
			return false
		}
	}
	return true
}
