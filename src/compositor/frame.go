package compositor

import (
	"image"
	"image/color"
)

// Frame is an immutable overlay bitmap. Pixels are packed 0xAARRGGBB, row
// major, with opacity already folded into alpha. Callers must not modify the
// slices returned by its accessors.
type Frame struct {
	Width  int
	Height int

	pix    []uint32
	premul []byte
}

func newFrame(w, h int) *Frame {
	return &Frame{
		Width:  w,
		Height: h,
		pix:    make([]uint32, w*h),
		premul: make([]byte, w*h*4),
	}
}

// Bounds returns the frame rectangle anchored at the origin.
func (f *Frame) Bounds() image.Rectangle { return image.Rect(0, 0, f.Width, f.Height) }

// Pixels returns the straight-alpha 0xAARRGGBB buffer.
func (f *Frame) Pixels() []uint32 { return f.pix }

// At returns the packed pixel at (x, y).
func (f *Frame) At(x, y int) uint32 { return f.pix[y*f.Width+x] }

// PremultipliedBGRA returns the frame as little-endian premultiplied
// B, G, R, A bytes, the layout of Win32 DIB sections and 32-bit X11 visuals.
func (f *Frame) PremultipliedBGRA() []byte { return f.premul }

// Empty reports whether the frame has no pixels.
func (f *Frame) Empty() bool { return f == nil || len(f.pix) == 0 }

// Image returns a copy of the frame as a straight-alpha image.
func (f *Frame) Image() *image.NRGBA {
	img := image.NewNRGBA(f.Bounds())
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			p := f.At(x, y)
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(p >> 16),
				G: uint8(p >> 8),
				B: uint8(p),
				A: uint8(p >> 24),
			})
		}
	}
	return img
}

func (f *Frame) set(i int, r, g, b, a uint8) {
	f.pix[i] = uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b)
	o := i * 4
	f.premul[o] = premultiply(b, a)
	f.premul[o+1] = premultiply(g, a)
	f.premul[o+2] = premultiply(r, a)
	f.premul[o+3] = a
}

func premultiply(c, a uint8) uint8 {
	return uint8((uint32(c)*uint32(a) + 127) / 255)
}
