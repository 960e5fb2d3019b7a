// Package assets holds resources compiled into the binary.
package assets

import (
	_ "embed"
)

// DefaultKeymapName is the file name looked up next to the executable
// before falling back to the embedded keymap.
const DefaultKeymapName = "keymap.png"

// Keymap is the bundled fallback overlay image.
//
//go:embed keymap.png
var Keymap []byte

// IconPNG is the tray icon for Linux and macOS.
//
//go:embed icon.png
var IconPNG []byte

// IconICO is the tray icon for Windows.
//
//go:embed icon.ico
var IconICO []byte
