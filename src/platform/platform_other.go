//go:build !windows && !linux

package platform

import (
	"context"
	"image"
	"runtime"

	"kbd-layout-overlay/src/hotkey"
	"kbd-layout-overlay/src/locator"
)

// hookOnly captures keys where gohook works but no overlay window exists.
type hookOnly struct {
	Null
}

// New returns the platform for this build.
func New() Platform {
	return hookOnly{Null{Reason: "no layered window backend for " + runtime.GOOS}}
}

func (h hookOnly) Name() string { return runtime.GOOS }

func (h hookOnly) RegisterHotkey(ctx context.Context, opts hotkey.Options, sender hotkey.Sender) error {
	return registerSystemHook(ctx, opts, sender)
}

func (h hookOnly) Probe() locator.Probe { return displayProbe{} }

// displayProbe knows monitors but not focus.
type displayProbe struct{ nullProbe }

func (displayProbe) Displays() []image.Rectangle { return locator.Displays() }
