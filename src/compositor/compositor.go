// Package compositor turns the configured keymap image into the packed
// bitmap shown by the overlay.
package compositor

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"

	// Registered decoders accepted for the keymap image.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"kbd-layout-overlay/src/assets"
)

// ErrInvalidSize is returned for non-positive target dimensions.
var ErrInvalidSize = errors.New("frame dimensions must be positive")

// Options are the inputs a frame is derived from.
type Options struct {
	// Path is the configured image; empty means use the fallbacks.
	Path    string
	Width   int
	Height  int
	Invert  bool
	Opacity float64
}

// Origin names where the source image came from.
type Origin string

const (
	OriginPath     Origin = "path"
	OriginSibling  Origin = "sibling"
	OriginEmbedded Origin = "embedded"
)

// executableDir is replaced in tests.
var executableDir = func() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// embedded is replaced in tests.
var embedded = func() []byte { return assets.Keymap }

// Build loads the source image and composes a frame from it.
func Build(opts Options) (*Frame, Origin, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, "", fmt.Errorf("%w: %dx%d", ErrInvalidSize, opts.Width, opts.Height)
	}
	img, origin, err := Load(opts.Path)
	if err != nil {
		return nil, "", err
	}
	return Compose(img, opts), origin, nil
}

// Load tries the explicit path, then the default file next to the
// executable, then the embedded keymap. Every fallback is logged.
func Load(path string) (image.Image, Origin, error) {
	if path != "" {
		img, err := decodeFile(path)
		if err == nil {
			return img, OriginPath, nil
		}
		log.Printf("Compositor: failed to load image %q, falling back: %v", path, err)
	}

	if dir, err := executableDir(); err == nil {
		sibling := filepath.Join(dir, assets.DefaultKeymapName)
		img, err := decodeFile(sibling)
		if err == nil {
			return img, OriginSibling, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("Compositor: failed to load %s, falling back: %v", sibling, err)
		}
	}

	img, _, err := image.Decode(bytes.NewReader(embedded()))
	if err != nil {
		return nil, "", fmt.Errorf("decode embedded keymap: %w", err)
	}
	if path != "" {
		log.Printf("Compositor: using embedded keymap")
	}
	return img, OriginEmbedded, nil
}

// decodeFile reads and decodes the image at path. A missing file yields an
// error matching os.ErrNotExist.
func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// Decode builds a frame from encoded image data.
func Decode(data []byte, opts Options) (*Frame, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, opts.Width, opts.Height)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return Compose(img, opts), nil
}

// Compose resizes img to the target size if needed, then applies invert and
// opacity. The result depends only on its inputs.
func Compose(img image.Image, opts Options) *Frame {
	src := toNRGBA(img, opts.Width, opts.Height)
	opacity := opts.Opacity
	if opacity < 0 {
		opacity = 0
	} else if opacity > 1 {
		opacity = 1
	}

	f := newFrame(opts.Width, opts.Height)
	for y := 0; y < opts.Height; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+opts.Width*4]
		for x := 0; x < opts.Width; x++ {
			r, g, b, a := row[x*4], row[x*4+1], row[x*4+2], row[x*4+3]
			if opts.Invert {
				r, g, b = 255-r, 255-g, 255-b
			}
			a = uint8(float64(a) * opacity)
			f.set(y*opts.Width+x, r, g, b, a)
		}
	}
	return f
}

// toNRGBA returns img as a zero-origin NRGBA of size w×h, resampling with a
// bilinear filter only when the source size differs.
func toNRGBA(img image.Image, w, h int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		if n, ok := img.(*image.NRGBA); ok && b.Min == (image.Point{}) {
			return n
		}
		dst := image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		return dst
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
