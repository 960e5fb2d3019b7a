package eventloop

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"

	"kbd-layout-overlay/src/compositor"
	"kbd-layout-overlay/src/config"
	"kbd-layout-overlay/src/hotkey"
	"kbd-layout-overlay/src/locator"
	"kbd-layout-overlay/src/overlay"
	"kbd-layout-overlay/src/platform"
)

// eventQueueSize bounds the hotkey channel; a full queue drops events.
const eventQueueSize = 16

// Kind classifies engine failures.
type Kind int

const (
	// KindConfig is an invalid snapshot; no window was created.
	KindConfig Kind = iota + 1
	// KindPlatform is a failure to create the overlay window.
	KindPlatform
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "configuration"
	case KindPlatform:
		return "platform"
	}
	return "unknown"
}

// Error is returned by Run for fatal failures.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return fmt.Sprintf("%s error: %v", e.Kind, e.Err) }

func (e *Error) Unwrap() error { return e.Err }

// Loop is the single-goroutine owner of the overlay. Hotkey events, window
// notifications and rebuilt frames all arrive over channels and are handled
// one at a time.
type Loop struct {
	snap     config.Snapshot
	plat     platform.Platform
	surface  overlay.Surface
	ctrl     *overlay.Controller
	sender   hotkey.Sender
	hotkeyCh <-chan hotkey.Event
	frames   chan *compositor.Frame
}

// New validates snap, builds the frame and creates the hidden overlay window.
func New(snap config.Snapshot, plat platform.Platform) (*Loop, error) {
	if err := snap.Validate(); err != nil {
		return nil, &Error{Kind: KindConfig, Err: err}
	}

	frame := buildFrame(snap)

	surface, err := plat.CreateOverlayWindow(image.Pt(snap.Width, snap.Height))
	if err != nil {
		return nil, &Error{Kind: KindPlatform, Err: fmt.Errorf("create overlay window: %w", err)}
	}

	sender, ch := hotkey.NewChannel(eventQueueSize)
	return &Loop{
		snap:     snap,
		plat:     plat,
		surface:  surface,
		ctrl:     overlay.NewController(surface, locator.New(plat.Probe()), snap.Placement, frame),
		sender:   sender,
		hotkeyCh: ch,
		frames:   make(chan *compositor.Frame, 1),
	}, nil
}

// Run is the engine entry point: it blocks until ctx is done or the overlay
// window is closed.
func Run(ctx context.Context, snap config.Snapshot, plat platform.Platform) error {
	l, err := New(snap, plat)
	if err != nil {
		return err
	}
	defer l.Close()
	return l.Run(ctx)
}

// Controller exposes the overlay controller, mainly for inspection.
func (l *Loop) Controller() *overlay.Controller { return l.ctrl }

// Run starts key capture and processes events until ctx is done or the
// window is closed. Missing capabilities are logged, not returned.
func (l *Loop) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := hotkey.Options{Combo: l.snap.Hotkey, Persist: l.snap.Persist}
	if err := l.plat.RegisterHotkey(ctx, opts, l.sender); err != nil {
		if errors.Is(err, platform.ErrUnsupported) {
			log.Printf("WARNING: global hotkey unavailable on %s, overlay can not be triggered: %v", l.plat.Name(), err)
		} else {
			log.Printf("WARNING: failed to register hotkey %s: %v", l.snap.Hotkey, err)
		}
	}

	if l.snap.WatchImage && l.snap.ImagePath != "" {
		if err := watchImage(ctx, l.snap.ImagePath, func() { l.rebuild(ctx) }); err != nil {
			log.Printf("Image watch disabled: %v", err)
		}
	}

	log.Printf("Overlay ready on %s: hotkey %s, %dx%d, opacity %.2f, persist=%v, position=%s",
		l.plat.Name(), l.snap.Hotkey, l.snap.Width, l.snap.Height, l.snap.Opacity, l.snap.Persist, l.snap.Placement)

	surfaceEvents := l.surface.Events()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-l.hotkeyCh:
			l.ctrl.Apply(ev)
		case f := <-l.frames:
			l.ctrl.SetFrame(f)
		case sev, ok := <-surfaceEvents:
			if !ok {
				log.Printf("Overlay window event stream closed")
				return nil
			}
			if !l.ctrl.HandleSurface(sev) {
				return nil
			}
		}
	}
}

// Close destroys the overlay window.
func (l *Loop) Close() error {
	return l.surface.Close()
}

// rebuild composes a fresh frame off the loop goroutine and hands it over;
// the controller swaps it in whole.
func (l *Loop) rebuild(ctx context.Context) {
	f, origin, err := compositor.Build(frameOptions(l.snap))
	if err != nil {
		log.Printf("Image reload failed: %v", err)
		return
	}
	log.Printf("Image reloaded from %s", origin)
	// Keep only the newest pending frame.
	select {
	case <-l.frames:
	default:
	}
	select {
	case l.frames <- f:
	case <-ctx.Done():
	}
}

func frameOptions(snap config.Snapshot) compositor.Options {
	return compositor.Options{
		Path:    snap.ImagePath,
		Width:   snap.Width,
		Height:  snap.Height,
		Invert:  snap.Invert,
		Opacity: snap.Opacity,
	}
}

// buildFrame returns nil when no image could be decoded; the overlay then
// stays inert.
func buildFrame(snap config.Snapshot) *compositor.Frame {
	f, origin, err := compositor.Build(frameOptions(snap))
	if err != nil {
		log.Printf("WARNING: no overlay image available, hotkey will do nothing: %v", err)
		return nil
	}
	log.Printf("Overlay image loaded from %s (%dx%d)", origin, f.Width, f.Height)
	return f
}
