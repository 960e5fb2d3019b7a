//go:build windows

package platform

import (
	"context"
	"image"

	"github.com/lxn/win"

	"kbd-layout-overlay/src/hotkey"
	"kbd-layout-overlay/src/locator"
	"kbd-layout-overlay/src/overlay"
)

type windowsPlatform struct{}

// New returns the platform for this build.
func New() Platform { return windowsPlatform{} }

func (windowsPlatform) Name() string { return "windows" }

func (windowsPlatform) RegisterHotkey(ctx context.Context, opts hotkey.Options, sender hotkey.Sender) error {
	return registerSystemHook(ctx, opts, sender)
}

func (windowsPlatform) CreateOverlayWindow(size image.Point) (overlay.Surface, error) {
	return newLayeredSurface(size)
}

func (windowsPlatform) Probe() locator.Probe { return win32Probe{} }

func (windowsPlatform) Close() error { return nil }

type win32Probe struct{}

func (win32Probe) ActiveWindow() (image.Rectangle, bool) {
	hwnd := win.GetForegroundWindow()
	if hwnd == 0 || isIconic(hwnd) {
		return image.Rectangle{}, false
	}
	var rc win.RECT
	if !win.GetWindowRect(hwnd, &rc) {
		return image.Rectangle{}, false
	}
	return image.Rect(int(rc.Left), int(rc.Top), int(rc.Right), int(rc.Bottom)), true
}

func isIconic(hwnd win.HWND) bool {
	ret, _, _ := procIsIconic.Call(uintptr(hwnd))
	return ret != 0
}

func (win32Probe) Pointer() (image.Point, bool) {
	var pt win.POINT
	if !win.GetCursorPos(&pt) {
		return image.Point{}, false
	}
	return image.Pt(int(pt.X), int(pt.Y)), true
}

func (win32Probe) Displays() []image.Rectangle { return locator.Displays() }
