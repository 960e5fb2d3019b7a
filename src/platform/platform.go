// Package platform binds the engine to the host desktop: global key capture,
// the native overlay window and focus probing. One implementation is compiled
// per target OS.
package platform

import (
	"context"
	"errors"
	"fmt"
	"image"

	"kbd-layout-overlay/src/hotkey"
	"kbd-layout-overlay/src/locator"
	"kbd-layout-overlay/src/overlay"
)

// ErrUnsupported reports a capability this platform lacks.
var ErrUnsupported = errors.New("not supported on this platform")

// Platform is the set of OS capabilities the engine needs.
type Platform interface {
	Name() string
	// RegisterHotkey starts global key capture. Events go to sender until ctx
	// is done. It returns an error wrapping ErrUnsupported when capture is not
	// possible.
	RegisterHotkey(ctx context.Context, opts hotkey.Options, sender hotkey.Sender) error
	// CreateOverlayWindow creates the hidden overlay window of the given size.
	CreateOverlayWindow(size image.Point) (overlay.Surface, error)
	// Probe reports the active window, pointer and monitors.
	Probe() locator.Probe
	Close() error
}

// registerSystemHook backs RegisterHotkey on every platform gohook supports.
func registerSystemHook(ctx context.Context, opts hotkey.Options, sender hotkey.Sender) error {
	hook, err := hotkey.NewSystemHook()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	return hotkey.Listen(ctx, hook, opts, sender)
}

// Null has no capabilities. It stands in where no desktop is reachable.
type Null struct {
	// Reason is reported by CreateOverlayWindow.
	Reason string
}

func (n Null) Name() string { return "null" }

func (n Null) RegisterHotkey(context.Context, hotkey.Options, hotkey.Sender) error {
	return fmt.Errorf("%w: global key capture", ErrUnsupported)
}

func (n Null) CreateOverlayWindow(image.Point) (overlay.Surface, error) {
	if n.Reason != "" {
		return nil, fmt.Errorf("%w: overlay window: %s", ErrUnsupported, n.Reason)
	}
	return nil, fmt.Errorf("%w: overlay window", ErrUnsupported)
}

func (n Null) Probe() locator.Probe { return nullProbe{} }

func (n Null) Close() error { return nil }

type nullProbe struct{}

func (nullProbe) ActiveWindow() (image.Rectangle, bool) { return image.Rectangle{}, false }
func (nullProbe) Pointer() (image.Point, bool)          { return image.Point{}, false }
func (nullProbe) Displays() []image.Rectangle           { return nil }
