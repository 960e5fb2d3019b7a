//go:build ignore

// Generates the fallback keymap image.
// Run: go run src/assets/gen_keymap.go [dir]
package main

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log"
	"os"
	"path/filepath"
)

const (
	width  = 742
	height = 235
	margin = 10
)

// Relative key widths per row, in key units (ANSI layout, 15 units wide).
var rows = [][]float64{
	{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 2},
	{1.5, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1.5},
	{1.75, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 2.25},
	{2.25, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 2.75},
	{1.25, 1.25, 1.25, 6.25, 1.25, 1.25, 1.25, 1.25},
}

var (
	background = color.NRGBA{R: 24, G: 24, B: 28, A: 230}
	keyEdge    = color.NRGBA{R: 90, G: 90, B: 100, A: 255}
	keyFace    = color.NRGBA{R: 220, G: 220, B: 228, A: 255}
)

func main() {
	dir := "src/assets"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	fill(img, img.Bounds(), background)

	unit := float64(width-2*margin) / 15
	rowH := (height - 2*margin) / len(rows)
	for r, row := range rows {
		x := float64(margin)
		y := margin + r*rowH
		for _, k := range row {
			x0, x1 := int(x)+2, int(x+k*unit)-2
			fill(img, image.Rect(x0, y+2, x1, y+rowH-2), keyEdge)
			fill(img, image.Rect(x0+2, y+4, x1-2, y+rowH-6), keyFace)
			x += k * unit
		}
	}

	path := filepath.Join(dir, "keymap.png")
	f, err := os.Create(path)
	if err != nil {
		log.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		log.Fatalf("encode %s: %v", path, err)
	}
	log.Printf("wrote %s", path)
}

func fill(img *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	draw.Draw(img, r, &image.Uniform{C: c}, image.Point{}, draw.Src)
}
