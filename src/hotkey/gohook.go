//go:build cgo && (windows || linux || darwin)

package hotkey

import (
	"log"
	"sync"

	gohook "github.com/robotn/gohook"
)

// gohookSource adapts the libuiohook-based global hook.
type gohookSource struct {
	mu      sync.Mutex
	started bool
}

// NewSystemHook returns the process-wide global key hook.
func NewSystemHook() (Hook, error) {
	return &gohookSource{}, nil
}

func (g *gohookSource) Start() (<-chan RawEvent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.started {
		return nil, ErrUnavailable
	}

	log.Printf("Starting gohook event loop...")
	evChan := gohook.Start()
	if evChan == nil {
		return nil, ErrUnavailable
	}
	g.started = true

	out := make(chan RawEvent, 32)
	go func() {
		defer close(out)
		for ev := range evChan {
			switch ev.Kind {
			// KeyHold is the press. KeyDown is the "typed" notification and
			// carries VC_UNDEFINED, which the lookup ignores. Rawcode is not
			// used: on X11 it is a keysym that changes with held modifiers.
			case gohook.KeyDown, gohook.KeyHold:
				out <- RawEvent{Down: true, Keycode: ev.Keycode}
			case gohook.KeyUp:
				out <- RawEvent{Down: false, Keycode: ev.Keycode}
			}
		}
	}()
	return out, nil
}

func (g *gohookSource) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.started {
		return
	}
	g.started = false
	gohook.End()
}
