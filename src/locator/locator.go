// Package locator finds where the overlay should appear: the monitor that
// holds the user's current focus.
package locator

import (
	"image"

	"github.com/kbinani/screenshot"

	"kbd-layout-overlay/src/logutil"
)

// Probe answers best-effort questions about the desktop. Implementations
// report false instead of failing.
type Probe interface {
	// ActiveWindow returns the bounds of the foreground window.
	ActiveWindow() (image.Rectangle, bool)
	// Pointer returns the cursor position.
	Pointer() (image.Point, bool)
	// Displays returns the bounds of every connected monitor.
	Displays() []image.Rectangle
}

// Anchor is a focus point and the monitor containing it.
type Anchor struct {
	Point   image.Point
	Monitor image.Rectangle
}

// Locator resolves anchors from a Probe. A zero Locator is not usable.
type Locator struct {
	probe Probe
}

// New returns a Locator backed by probe.
func New(probe Probe) *Locator {
	return &Locator{probe: probe}
}

// Locate returns a fresh anchor: the active window's center if there is one,
// otherwise the pointer. It reports false when neither is known or no monitor
// contains the point; callers keep the previous placement then.
func (l *Locator) Locate() (Anchor, bool) {
	pt, ok := l.focusPoint()
	if !ok {
		logutil.Debugf("Locator: no active window or pointer")
		return Anchor{}, false
	}
	mon, ok := MonitorAt(l.displays(), pt)
	if !ok {
		logutil.Debugf("Locator: no display contains %v", pt)
		return Anchor{}, false
	}
	return Anchor{Point: pt, Monitor: mon}, true
}

func (l *Locator) focusPoint() (pt image.Point, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logutil.Debugf("Locator: probe panicked: %v", r)
			pt, ok = image.Point{}, false
		}
	}()
	if r, ok := l.probe.ActiveWindow(); ok && !r.Empty() {
		return Center(r), true
	}
	return l.probe.Pointer()
}

func (l *Locator) displays() (out []image.Rectangle) {
	defer func() {
		if r := recover(); r != nil {
			logutil.Debugf("Locator: display query panicked: %v", r)
			out = nil
		}
	}()
	return l.probe.Displays()
}

// Center returns the midpoint of r.
func Center(r image.Rectangle) image.Point {
	return image.Pt(r.Min.X+r.Dx()/2, r.Min.Y+r.Dy()/2)
}

// MonitorAt returns the first display whose bounds contain pt.
func MonitorAt(displays []image.Rectangle, pt image.Point) (image.Rectangle, bool) {
	for _, d := range displays {
		if pt.In(d) {
			return d, true
		}
	}
	return image.Rectangle{}, false
}

// Displays lists connected monitors in virtual-screen coordinates.
func Displays() []image.Rectangle {
	n := screenshot.NumActiveDisplays()
	out := make([]image.Rectangle, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, screenshot.GetDisplayBounds(i))
	}
	return out
}
