//go:build linux

package platform

import (
	"errors"
	"fmt"
	"image"
	"log"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/shape"
	"github.com/jezek/xgb/xproto"

	"kbd-layout-overlay/src/compositor"
	"kbd-layout-overlay/src/overlay"
)

// putImageHeader is the fixed part of a PutImage request in bytes.
const putImageHeader = 24

// x11Surface is an override-redirect ARGB window with an empty input shape,
// which makes it undecorated, unmanaged and click-through.
type x11Surface struct {
	conn   *xgb.Conn
	win    xproto.Window
	gc     xproto.Gcontext
	cmap   xproto.Colormap
	events chan overlay.SurfaceEvent

	mu     sync.Mutex
	bounds image.Rectangle
	closed bool
}

func newX11Surface(conn *xgb.Conn, size image.Point) (*x11Surface, error) {
	screen := xproto.Setup(conn).DefaultScreen(conn)
	visual, ok := argbVisual(screen)
	if !ok {
		return nil, errors.New("no 32-bit TrueColor visual; a compositing manager is required")
	}

	cmap, err := xproto.NewColormapId(conn)
	if err != nil {
		return nil, fmt.Errorf("allocate colormap id: %w", err)
	}
	if err := xproto.CreateColormapChecked(conn, xproto.ColormapAllocNone, cmap, screen.Root, visual).Check(); err != nil {
		return nil, fmt.Errorf("create colormap: %w", err)
	}

	wid, err := xproto.NewWindowId(conn)
	if err != nil {
		return nil, fmt.Errorf("allocate window id: %w", err)
	}
	mask := uint32(xproto.CwBackPixel | xproto.CwBorderPixel | xproto.CwOverrideRedirect |
		xproto.CwEventMask | xproto.CwColormap)
	values := []uint32{
		0, // transparent background
		0,
		1, // override-redirect
		xproto.EventMaskExposure | xproto.EventMaskStructureNotify,
		uint32(cmap),
	}
	err = xproto.CreateWindowChecked(conn, 32, wid, screen.Root,
		0, 0, uint16(size.X), uint16(size.Y), 0,
		xproto.WindowClassInputOutput, visual, mask, values).Check()
	if err != nil {
		return nil, fmt.Errorf("create window: %w", err)
	}

	s := &x11Surface{
		conn:   conn,
		win:    wid,
		cmap:   cmap,
		events: make(chan overlay.SurfaceEvent, 4),
		bounds: image.Rectangle{Max: size},
	}

	if err := shape.Init(conn); err != nil {
		log.Printf("Overlay: X SHAPE extension unavailable, window will not be click-through: %v", err)
	} else if err := shape.RectanglesChecked(conn, shape.SoSet, shape.SkInput,
		xproto.ClipOrderingUnsorted, wid, 0, 0, nil).Check(); err != nil {
		log.Printf("Overlay: failed to clear input shape: %v", err)
	}

	title := "Keyboard layout overlay"
	xproto.ChangeProperty(conn, xproto.PropModeReplace, wid, xproto.AtomWmName,
		xproto.AtomString, 8, uint32(len(title)), []byte(title))

	gc, err := xproto.NewGcontextId(conn)
	if err != nil {
		s.destroy()
		return nil, fmt.Errorf("allocate gc id: %w", err)
	}
	if err := xproto.CreateGCChecked(conn, gc, xproto.Drawable(wid), 0, nil).Check(); err != nil {
		s.destroy()
		return nil, fmt.Errorf("create gc: %w", err)
	}
	s.gc = gc

	go s.readEvents()
	return s, nil
}

// argbVisual finds a depth-32 TrueColor visual.
func argbVisual(screen *xproto.ScreenInfo) (xproto.Visualid, bool) {
	for _, d := range screen.AllowedDepths {
		if d.Depth != 32 {
			continue
		}
		for _, v := range d.Visuals {
			if v.Class == xproto.VisualClassTrueColor {
				return v.VisualId, true
			}
		}
	}
	return 0, false
}

// readEvents forwards window events until the connection closes.
func (s *x11Surface) readEvents() {
	defer close(s.events)
	for {
		ev, xerr := s.conn.WaitForEvent()
		if ev == nil && xerr == nil {
			return
		}
		if xerr != nil {
			log.Printf("Overlay: X error: %v", xerr)
			continue
		}
		switch e := ev.(type) {
		case xproto.ExposeEvent:
			if e.Window == s.win && e.Count == 0 {
				s.notify(overlay.Redraw)
			}
		case xproto.DestroyNotifyEvent:
			if e.Window == s.win {
				s.notify(overlay.CloseRequested)
			}
		}
	}
}

func (s *x11Surface) notify(ev overlay.SurfaceEvent) {
	select {
	case s.events <- ev:
	default:
	}
}

func (s *x11Surface) SetBounds(r image.Rectangle) error {
	s.mu.Lock()
	s.bounds = r
	s.mu.Unlock()
	return xproto.ConfigureWindowChecked(s.conn, s.win,
		xproto.ConfigWindowX|xproto.ConfigWindowY|xproto.ConfigWindowWidth|xproto.ConfigWindowHeight,
		[]uint32{uint32(int32(r.Min.X)), uint32(int32(r.Min.Y)), uint32(r.Dx()), uint32(r.Dy())}).Check()
}

func (s *x11Surface) Show() error {
	if err := xproto.MapWindowChecked(s.conn, s.win).Check(); err != nil {
		return err
	}
	return xproto.ConfigureWindowChecked(s.conn, s.win, xproto.ConfigWindowStackMode,
		[]uint32{xproto.StackModeAbove}).Check()
}

func (s *x11Surface) Hide() error {
	return xproto.UnmapWindowChecked(s.conn, s.win).Check()
}

// Present uploads the frame with PutImage, split into as many requests as the
// server's maximum request length requires.
func (s *x11Surface) Present(f *compositor.Frame) error {
	stride := f.Width * 4
	maxBytes := int(xproto.Setup(s.conn).MaximumRequestLength)*4 - putImageHeader
	rows := maxBytes / stride
	if rows < 1 {
		return fmt.Errorf("frame row of %d bytes exceeds X request limit", stride)
	}

	data := f.PremultipliedBGRA()
	for y := 0; y < f.Height; y += rows {
		n := rows
		if y+n > f.Height {
			n = f.Height - y
		}
		chunk := data[y*stride : (y+n)*stride]
		err := xproto.PutImageChecked(s.conn, xproto.ImageFormatZPixmap, xproto.Drawable(s.win), s.gc,
			uint16(f.Width), uint16(n), 0, int16(y), 0, 32, chunk).Check()
		if err != nil {
			return fmt.Errorf("put image rows %d-%d: %w", y, y+n, err)
		}
	}
	return nil
}

func (s *x11Surface) Events() <-chan overlay.SurfaceEvent { return s.events }

func (s *x11Surface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.destroy()
	return nil
}

func (s *x11Surface) destroy() {
	if s.gc != 0 {
		xproto.FreeGC(s.conn, s.gc)
	}
	xproto.DestroyWindow(s.conn, s.win)
	xproto.FreeColormap(s.conn, s.cmap)
	s.conn.Sync()
}
