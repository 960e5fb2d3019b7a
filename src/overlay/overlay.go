// Package overlay drives the overlay window: its visibility state, where it is
// placed, and what it shows.
package overlay

import (
	"fmt"
	"image"
	"log"
	"strings"
	"sync/atomic"

	"kbd-layout-overlay/src/compositor"
	"kbd-layout-overlay/src/hotkey"
	"kbd-layout-overlay/src/locator"
	"kbd-layout-overlay/src/logutil"
)

// State is the overlay visibility.
type State int

const (
	Hidden State = iota
	Visible
)

func (s State) String() string {
	if s == Visible {
		return "Visible"
	}
	return "Hidden"
}

// Placement selects where on the target monitor the overlay sits.
type Placement int

const (
	// PlaceBottom centers horizontally and aligns to the bottom edge.
	PlaceBottom Placement = iota
	// PlaceCenter centers on the monitor.
	PlaceCenter
)

func (p Placement) String() string {
	if p == PlaceCenter {
		return "center"
	}
	return "bottom"
}

// ParsePlacement accepts "bottom" (or "bottom_center") and "center".
func ParsePlacement(s string) (Placement, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "bottom", "bottom_center", "bottom-center":
		return PlaceBottom, nil
	case "center", "centre":
		return PlaceCenter, nil
	}
	return PlaceBottom, fmt.Errorf("unknown position %q (expected bottom or center)", s)
}

// Place returns the rectangle of a w×h overlay on monitor.
func Place(monitor image.Rectangle, w, h int, p Placement) image.Rectangle {
	x := monitor.Min.X + (monitor.Dx()-w)/2
	y := monitor.Max.Y - h
	if p == PlaceCenter {
		y = monitor.Min.Y + (monitor.Dy()-h)/2
	}
	return image.Rect(x, y, x+w, y+h)
}

// SurfaceEvent is a notification from the native window.
type SurfaceEvent int

const (
	// Redraw asks for the current frame to be presented again.
	Redraw SurfaceEvent = iota + 1
	// CloseRequested means the window is being closed by the system.
	CloseRequested
)

// Surface is a borderless, transparent, click-through, topmost native window.
// It starts hidden. All methods are called from the UI loop goroutine.
type Surface interface {
	SetBounds(r image.Rectangle) error
	Show() error
	Hide() error
	// Present copies f into the window and displays it.
	Present(f *compositor.Frame) error
	Events() <-chan SurfaceEvent
	Close() error
}

// Locator supplies fresh anchors.
type Locator interface {
	Locate() (locator.Anchor, bool)
}

// Controller owns the overlay state. It is not safe for concurrent use except
// for SetFrame's swap, which may race with painting.
type Controller struct {
	surface   Surface
	locator   Locator
	placement Placement
	frame     atomic.Pointer[compositor.Frame]

	state  State
	bounds image.Rectangle
}

// NewController wraps surface. frame may be nil, in which case Show and
// Toggle do nothing until SetFrame supplies one.
func NewController(surface Surface, loc Locator, placement Placement, frame *compositor.Frame) *Controller {
	c := &Controller{surface: surface, locator: loc, placement: placement}
	if !frame.Empty() {
		c.frame.Store(frame)
	}
	return c
}

// State returns the current visibility.
func (c *Controller) State() State { return c.state }

// Bounds returns the last placement, zero before the first one.
func (c *Controller) Bounds() image.Rectangle { return c.bounds }

// Frame returns the frame currently shown.
func (c *Controller) Frame() *compositor.Frame { return c.frame.Load() }

// Apply dispatches a hotkey event.
func (c *Controller) Apply(ev hotkey.Event) {
	switch ev {
	case hotkey.Show:
		c.Show()
	case hotkey.Hide:
		c.Hide()
	case hotkey.Toggle:
		c.Toggle()
	}
}

// Show repositions over the monitor holding the user's focus, makes the
// overlay visible and paints it.
func (c *Controller) Show() {
	f := c.frame.Load()
	if f == nil {
		logutil.Debugf("Overlay: no frame, ignoring show")
		return
	}
	c.reposition(f)
	if c.state == Hidden {
		if err := c.surface.Show(); err != nil {
			logutil.Debugf("Overlay: show failed: %v", err)
			return
		}
		c.state = Visible
	}
	c.Paint()
}

// Hide makes the overlay invisible. The window and frame are kept.
func (c *Controller) Hide() {
	if c.state == Hidden {
		return
	}
	if err := c.surface.Hide(); err != nil {
		logutil.Debugf("Overlay: hide failed: %v", err)
	}
	c.state = Hidden
}

// Toggle flips visibility.
func (c *Controller) Toggle() {
	if c.state == Visible {
		c.Hide()
		return
	}
	c.Show()
}

// Paint presents the current frame. Without a frame it does nothing.
func (c *Controller) Paint() {
	f := c.frame.Load()
	if f == nil {
		return
	}
	if err := c.surface.Present(f); err != nil {
		logutil.Debugf("Overlay: present failed: %v", err)
	}
}

// SetFrame replaces the frame. A visible overlay is re-placed and repainted
// with the new one; a nil or empty frame hides it.
func (c *Controller) SetFrame(f *compositor.Frame) {
	if f.Empty() {
		c.frame.Store(nil)
		c.Hide()
		return
	}
	c.frame.Store(f)
	if c.state == Visible {
		c.reposition(f)
		c.Paint()
	}
}

// HandleSurface reacts to a window notification. It reports false when the
// window is closing and the loop should stop.
func (c *Controller) HandleSurface(ev SurfaceEvent) bool {
	switch ev {
	case Redraw:
		if c.state == Visible {
			c.Paint()
		}
	case CloseRequested:
		log.Printf("Overlay: window close requested")
		return false
	}
	return true
}

func (c *Controller) reposition(f *compositor.Frame) {
	a, ok := c.locator.Locate()
	if !ok {
		if c.bounds.Empty() {
			logutil.Debugf("Overlay: no anchor and no previous placement")
		}
		return
	}
	r := Place(a.Monitor, f.Width, f.Height, c.placement)
	if r == c.bounds {
		return
	}
	if err := c.surface.SetBounds(r); err != nil {
		logutil.Debugf("Overlay: set bounds %v failed: %v", r, err)
		return
	}
	c.bounds = r
}
