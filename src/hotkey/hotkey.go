package hotkey

import (
	"context"
	"errors"
	"log"

	"kbd-layout-overlay/src/keys"
)

// ErrUnavailable is returned when no global key hook exists on this platform/build.
var ErrUnavailable = errors.New("global key hook unavailable")

// RawEvent is a key transition as reported by an OS hook. Keycode is a
// libuiohook VC_* code.
type RawEvent struct {
	Down    bool
	Keycode uint16
}

// Hook is a source of global key transitions.
type Hook interface {
	// Start begins capturing; the returned channel is closed when the hook ends.
	Start() (<-chan RawEvent, error)
	// Stop terminates the hook.
	Stop()
}

// Sender hands events to the UI loop without ever blocking the caller.
// When the buffer is full the oldest queued event gives way, so the newest
// event, and with it the final Show/Hide state, always gets through.
type Sender struct {
	ch chan Event
}

// NewChannel creates a buffered event channel and the Sender that feeds it.
func NewChannel(size int) (Sender, <-chan Event) {
	ch := make(chan Event, size)
	return Sender{ch: ch}, ch
}

// Send enqueues e. It reports false when an older event had to be dropped
// to make room.
func (s Sender) Send(e Event) bool {
	dropped := false
	for {
		select {
		case s.ch <- e:
			return !dropped
		default:
		}
		select {
		case <-s.ch:
			dropped = true
		default:
		}
	}
}

// Options configures Listen.
type Options struct {
	Combo   keys.Combination
	Persist bool
	// Lookup maps a hook keycode to a key; defaults to LookupKeycode.
	Lookup func(keycode uint16) (keys.Key, bool)
}

// Listen starts hook and forwards combination events to sender until ctx is
// cancelled or the hook ends. It returns once the hook has started.
func Listen(ctx context.Context, hook Hook, opts Options, sender Sender) error {
	if opts.Combo.IsZero() {
		return keys.ErrEmptyCombination
	}
	lookup := opts.Lookup
	if lookup == nil {
		lookup = LookupKeycode
	}

	evCh, err := hook.Start()
	if err != nil {
		return err
	}
	log.Printf("Hotkey listener configured for: %s (persist=%v)", opts.Combo, opts.Persist)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PANIC in hotkey goroutine: %v", r)
			}
		}()
		defer hook.Stop()

		tracker := NewTracker(opts.Combo, opts.Persist)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-evCh:
				if !ok {
					log.Printf("Hotkey event channel closed")
					return
				}
				k, known := lookup(ev.Keycode)
				if !known {
					continue
				}
				var out Event
				var emit bool
				if ev.Down {
					out, emit = tracker.Press(k)
				} else {
					out, emit = tracker.Release(k)
				}
				if !emit {
					continue
				}
				if !sender.Send(out) {
					log.Printf("Hotkey: event queue full, dropped %s", out)
				}
			}
		}
	}()
	return nil
}
