// Package tray shows the optional system-tray menu. The engine knows nothing
// about it; menu actions either restart the process or stop it.
package tray

import (
	"fmt"
	"log"

	"github.com/getlantern/systray"
)

// Config describes the tray icon and what its menu does.
type Config struct {
	Title   string
	Tooltip string
	// About is shown by the About item.
	About string

	OnRestart    func()
	OnOpenConfig func()
	OnQuit       func()
}

// Tray owns the tray icon.
type Tray struct {
	cfg       Config
	aboutBtn  *systray.MenuItem
	configBtn *systray.MenuItem
	restart   *systray.MenuItem
	quitBtn   *systray.MenuItem
}

func New(cfg Config) *Tray {
	return &Tray{cfg: cfg}
}

// Run shows the icon and blocks until Quit. It must run on the main goroutine.
func (t *Tray) Run(onReady func()) {
	systray.Run(func() {
		t.onReady()
		if onReady != nil {
			onReady()
		}
	}, t.onExit)
}

// Quit removes the icon and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetIcon(iconData())
	systray.SetTitle(t.cfg.Title)
	systray.SetTooltip(t.cfg.Tooltip)

	t.aboutBtn = systray.AddMenuItem("About", "Show the configured hotkey")
	t.configBtn = systray.AddMenuItem("Open config", "Edit the .env configuration file")
	t.restart = systray.AddMenuItem("Restart", "Restart to apply configuration changes")
	systray.AddSeparator()
	t.quitBtn = systray.AddMenuItem("Quit", "Quit the overlay")

	go t.handleMenuEvents()
}

func (t *Tray) handleMenuEvents() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("PANIC in tray menu handler: %v", r)
		}
	}()
	for {
		select {
		case <-t.aboutBtn.ClickedCh:
			showMessage(t.cfg.Title, t.cfg.About)
		case <-t.configBtn.ClickedCh:
			call(t.cfg.OnOpenConfig)
		case <-t.restart.ClickedCh:
			call(t.cfg.OnRestart)
		case <-t.quitBtn.ClickedCh:
			call(t.cfg.OnQuit)
			systray.Quit()
			return
		}
	}
}

func (t *Tray) onExit() {
	log.Printf("Tray exited")
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}

// AboutText formats the About message.
func AboutText(title, hotkey string, persist bool, configPath string) string {
	mode := "hold the keys to show the overlay"
	if persist {
		mode = "press the keys to toggle the overlay"
	}
	if configPath == "" {
		configPath = "(none, using defaults)"
	}
	return fmt.Sprintf("%s\n\nHotkey: %s (%s)\nConfig: %s", title, hotkey, mode, configPath)
}
