//go:build !windows

package tray

import (
	"log"

	"kbd-layout-overlay/src/assets"
)

func showMessage(title, message string) {
	log.Printf("%s: %s", title, message)
}

func iconData() []byte { return assets.IconPNG }
