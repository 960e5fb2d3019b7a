//go:build windows

package platform

import (
	"errors"
	"fmt"
	"image"
	"log"
	"runtime"
	"sync"
	"syscall"
	"unsafe"

	"github.com/lxn/win"
	"golang.org/x/sys/windows"

	"kbd-layout-overlay/src/compositor"
	"kbd-layout-overlay/src/overlay"
)

const (
	overlayClassName = "KbdLayoutOverlay"
	wmInvoke         = win.WM_APP + 1

	wsExNoActivate  = 0x08000000
	wmMouseActivate = 0x0021
	maNoActivate    = 3
	wmDisplayChange = 0x007E
	ulwAlpha        = 0x00000002
	acSrcOver       = 0x00
	acSrcAlpha      = 0x01

	swpFlags    = win.SWP_NOACTIVATE | win.SWP_NOOWNERZORDER
	overlayExSt = win.WS_EX_LAYERED | win.WS_EX_TRANSPARENT | win.WS_EX_TOPMOST |
		win.WS_EX_TOOLWINDOW | wsExNoActivate
)

// HTTRANSPARENT as a WndProc result.
const htTransparent = ^uintptr(0)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procUpdateLayeredWindow = user32.NewProc("UpdateLayeredWindow")
	procIsIconic            = user32.NewProc("IsIconic")
)

type blendFunction struct {
	BlendOp             byte
	BlendFlags          byte
	SourceConstantAlpha byte
	AlphaFormat         byte
}

var errWindowGone = errors.New("overlay window destroyed")

// layeredSurface is a per-pixel-alpha layered window. The window lives on a
// dedicated OS thread running its message loop; methods marshal onto it.
type layeredSurface struct {
	hwnd   win.HWND
	events chan overlay.SurfaceEvent
	calls  chan func()
	done   chan struct{}

	// owned by the window thread
	bounds image.Rectangle
	memDC  win.HDC
	bitmap win.HBITMAP
	bits   unsafe.Pointer
	dib    image.Point

	closeOnce sync.Once
}

func newLayeredSurface(size image.Point) (*layeredSurface, error) {
	s := &layeredSurface{
		events: make(chan overlay.SurfaceEvent, 4),
		calls:  make(chan func(), 1),
		done:   make(chan struct{}),
		bounds: image.Rectangle{Max: size},
	}
	ready := make(chan error, 1)
	go s.run(size, ready)
	if err := <-ready; err != nil {
		return nil, err
	}
	return s, nil
}

func (s *layeredSurface) run(size image.Point, ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(s.done)

	hInstance := win.GetModuleHandle(nil)
	className := syscall.StringToUTF16Ptr(overlayClassName)
	wc := win.WNDCLASSEX{
		CbSize:        uint32(unsafe.Sizeof(win.WNDCLASSEX{})),
		LpfnWndProc:   syscall.NewCallback(s.wndProc),
		HInstance:     hInstance,
		LpszClassName: className,
	}
	if win.RegisterClassEx(&wc) == 0 {
		ready <- fmt.Errorf("RegisterClassEx failed: %v", windows.GetLastError())
		return
	}
	defer win.UnregisterClass(className)

	s.hwnd = win.CreateWindowEx(
		overlayExSt,
		className,
		syscall.StringToUTF16Ptr("Keyboard layout overlay"),
		win.WS_POPUP,
		0, 0, int32(size.X), int32(size.Y),
		0, 0, hInstance, nil,
	)
	if s.hwnd == 0 {
		ready <- fmt.Errorf("CreateWindowEx failed: %v", windows.GetLastError())
		return
	}
	defer s.releaseDIB()
	ready <- nil

	var msg win.MSG
	for {
		ret := win.GetMessage(&msg, 0, 0, 0)
		if ret == 0 {
			return
		}
		if ret == -1 {
			log.Printf("Overlay: GetMessage failed: %v", windows.GetLastError())
			return
		}
		win.TranslateMessage(&msg)
		win.DispatchMessage(&msg)
	}
}

func (s *layeredSurface) wndProc(hwnd win.HWND, msg uint32, wParam, lParam uintptr) uintptr {
	switch msg {
	case wmInvoke:
		select {
		case fn := <-s.calls:
			fn()
		default:
		}
		return 0
	case win.WM_NCHITTEST:
		return htTransparent
	case wmMouseActivate:
		return maNoActivate
	case wmDisplayChange:
		s.notify(overlay.Redraw)
		return 0
	case win.WM_CLOSE:
		s.notify(overlay.CloseRequested)
		return 0
	case win.WM_DESTROY:
		win.PostQuitMessage(0)
		return 0
	}
	return win.DefWindowProc(hwnd, msg, wParam, lParam)
}

func (s *layeredSurface) notify(ev overlay.SurfaceEvent) {
	select {
	case s.events <- ev:
	default:
	}
}

// do runs fn on the window thread and waits for it.
func (s *layeredSurface) do(fn func() error) error {
	result := make(chan error, 1)
	call := func() { result <- fn() }
	select {
	case s.calls <- call:
	case <-s.done:
		return errWindowGone
	}
	if win.PostMessage(s.hwnd, wmInvoke, 0, 0) == 0 {
		select {
		case <-s.calls:
		default:
		}
		return fmt.Errorf("PostMessage failed: %v", windows.GetLastError())
	}
	select {
	case err := <-result:
		return err
	case <-s.done:
		return errWindowGone
	}
}

func (s *layeredSurface) SetBounds(r image.Rectangle) error {
	return s.do(func() error {
		if !win.SetWindowPos(s.hwnd, win.HWND_TOPMOST,
			int32(r.Min.X), int32(r.Min.Y), int32(r.Dx()), int32(r.Dy()), swpFlags) {
			return fmt.Errorf("SetWindowPos: %v", windows.GetLastError())
		}
		s.bounds = r
		return nil
	})
}

func (s *layeredSurface) Show() error {
	return s.do(func() error {
		win.ShowWindow(s.hwnd, win.SW_SHOWNOACTIVATE)
		// Re-assert topmost; other topmost windows may have been raised since.
		win.SetWindowPos(s.hwnd, win.HWND_TOPMOST, 0, 0, 0, 0, swpFlags|win.SWP_NOMOVE|win.SWP_NOSIZE)
		return nil
	})
}

func (s *layeredSurface) Hide() error {
	return s.do(func() error {
		win.ShowWindow(s.hwnd, win.SW_HIDE)
		return nil
	})
}

func (s *layeredSurface) Present(f *compositor.Frame) error {
	return s.do(func() error {
		if err := s.ensureDIB(f.Width, f.Height); err != nil {
			return err
		}
		dst := unsafe.Slice((*byte)(s.bits), f.Width*f.Height*4)
		copy(dst, f.PremultipliedBGRA())

		pos := win.POINT{X: int32(s.bounds.Min.X), Y: int32(s.bounds.Min.Y)}
		size := win.SIZE{CX: int32(f.Width), CY: int32(f.Height)}
		src := win.POINT{}
		blend := blendFunction{BlendOp: acSrcOver, SourceConstantAlpha: 255, AlphaFormat: acSrcAlpha}
		ret, _, callErr := procUpdateLayeredWindow.Call(
			uintptr(s.hwnd),
			0,
			uintptr(unsafe.Pointer(&pos)),
			uintptr(unsafe.Pointer(&size)),
			uintptr(s.memDC),
			uintptr(unsafe.Pointer(&src)),
			0,
			uintptr(unsafe.Pointer(&blend)),
			ulwAlpha,
		)
		if ret == 0 {
			return fmt.Errorf("UpdateLayeredWindow: %v", callErr)
		}
		return nil
	})
}

// ensureDIB keeps a top-down 32bpp DIB section of w×h selected into memDC.
func (s *layeredSurface) ensureDIB(w, h int) error {
	if s.bitmap != 0 && s.dib == image.Pt(w, h) {
		return nil
	}
	s.releaseDIB()

	screen := win.GetDC(0)
	defer win.ReleaseDC(0, screen)
	memDC := win.CreateCompatibleDC(screen)
	if memDC == 0 {
		return errors.New("CreateCompatibleDC failed")
	}

	var bi win.BITMAPINFOHEADER
	bi.BiSize = uint32(unsafe.Sizeof(bi))
	bi.BiWidth = int32(w)
	bi.BiHeight = -int32(h)
	bi.BiPlanes = 1
	bi.BiBitCount = 32
	bi.BiCompression = win.BI_RGB

	var bits unsafe.Pointer
	bitmap := win.CreateDIBSection(memDC, &bi, win.DIB_RGB_COLORS, &bits, 0, 0)
	if bitmap == 0 || bits == nil {
		win.DeleteDC(memDC)
		return errors.New("CreateDIBSection failed")
	}
	win.SelectObject(memDC, win.HGDIOBJ(bitmap))

	s.memDC, s.bitmap, s.bits, s.dib = memDC, bitmap, bits, image.Pt(w, h)
	return nil
}

func (s *layeredSurface) releaseDIB() {
	if s.memDC != 0 {
		win.DeleteDC(s.memDC)
	}
	if s.bitmap != 0 {
		win.DeleteObject(win.HGDIOBJ(s.bitmap))
	}
	s.memDC, s.bitmap, s.bits, s.dib = 0, 0, nil, image.Point{}
}

func (s *layeredSurface) Events() <-chan overlay.SurfaceEvent { return s.events }

func (s *layeredSurface) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.do(func() error {
			win.DestroyWindow(s.hwnd)
			return nil
		})
		<-s.done
	})
	if errors.Is(err, errWindowGone) {
		return nil
	}
	return err
}
