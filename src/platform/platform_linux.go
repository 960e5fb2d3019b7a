//go:build linux

package platform

import (
	"context"
	"fmt"
	"image"
	"log"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"

	"kbd-layout-overlay/src/hotkey"
	"kbd-layout-overlay/src/locator"
	"kbd-layout-overlay/src/overlay"
)

// x11Platform talks to the X server named by $DISPLAY.
type x11Platform struct {
	conn *xgb.Conn
	root xproto.Window
}

// New returns the X11 platform, or Null when no X server is reachable.
func New() Platform {
	conn, err := xgb.NewConn()
	if err != nil {
		log.Printf("Platform: cannot connect to X server: %v", err)
		return Null{Reason: fmt.Sprintf("no X server: %v", err)}
	}
	return &x11Platform{conn: conn, root: xproto.Setup(conn).DefaultScreen(conn).Root}
}

func (p *x11Platform) Name() string { return "x11" }

func (p *x11Platform) RegisterHotkey(ctx context.Context, opts hotkey.Options, sender hotkey.Sender) error {
	return registerSystemHook(ctx, opts, sender)
}

func (p *x11Platform) CreateOverlayWindow(size image.Point) (overlay.Surface, error) {
	return newX11Surface(p.conn, size)
}

func (p *x11Platform) Probe() locator.Probe {
	return &x11Probe{conn: p.conn, root: p.root}
}

func (p *x11Platform) Close() error {
	p.conn.Close()
	return nil
}

// x11Probe resolves focus through EWMH properties on the root window.
type x11Probe struct {
	conn       *xgb.Conn
	root       xproto.Window
	activeAtom xproto.Atom
}

func (p *x11Probe) ActiveWindow() (image.Rectangle, bool) {
	if p.activeAtom == 0 {
		reply, err := xproto.InternAtom(p.conn, true, uint16(len("_NET_ACTIVE_WINDOW")), "_NET_ACTIVE_WINDOW").Reply()
		if err != nil || reply.Atom == 0 {
			return image.Rectangle{}, false
		}
		p.activeAtom = reply.Atom
	}

	prop, err := xproto.GetProperty(p.conn, false, p.root, p.activeAtom, xproto.AtomWindow, 0, 1).Reply()
	if err != nil || prop.Format != 32 || len(prop.Value) < 4 {
		return image.Rectangle{}, false
	}
	active := xproto.Window(xgb.Get32(prop.Value))
	if active == 0 {
		return image.Rectangle{}, false
	}

	geom, err := xproto.GetGeometry(p.conn, xproto.Drawable(active)).Reply()
	if err != nil {
		return image.Rectangle{}, false
	}
	// Geometry is relative to the parent (often a WM frame); translate to root.
	origin, err := xproto.TranslateCoordinates(p.conn, active, p.root, 0, 0).Reply()
	if err != nil {
		return image.Rectangle{}, false
	}
	x, y := int(origin.DstX), int(origin.DstY)
	return image.Rect(x, y, x+int(geom.Width), y+int(geom.Height)), true
}

func (p *x11Probe) Pointer() (image.Point, bool) {
	reply, err := xproto.QueryPointer(p.conn, p.root).Reply()
	if err != nil || !reply.SameScreen {
		return image.Point{}, false
	}
	return image.Pt(int(reply.RootX), int(reply.RootY)), true
}

func (p *x11Probe) Displays() []image.Rectangle { return locator.Displays() }
