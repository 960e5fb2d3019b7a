package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"kbd-layout-overlay/src/keys"
	"kbd-layout-overlay/src/overlay"
)

var configKeys = []string{
	"IMAGE_PATH", "WIDTH", "HEIGHT", "OPACITY", "INVERT", "PERSIST", "HOTKEY",
	"POSITION", "WATCH_IMAGE", "ENABLE_FILE_LOGGING", "DEBUG", "TRAY", ConfigPathEnvVar,
}

// clearEnv blanks every key so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func writeEnv(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadWithOptions(LoadOptions{EnvPath: filepath.Join(t.TempDir(), "missing.env")})
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}

	expected := Config{
		EnvPath:    cfg.EnvPath,
		Width:      742,
		Height:     235,
		Opacity:    0.3,
		Hotkey:     "ControlLeft+Alt+ShiftLeft+Slash",
		Position:   "bottom",
		WatchImage: true,
		Tray:       true,
	}
	if *cfg != expected {
		t.Errorf("defaults = %+v, expected %+v", *cfg, expected)
	}
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	envPath := writeEnv(t, `
WIDTH=800
HEIGHT=300
OPACITY=0.5
INVERT=true
HOTKEY=ctrl+shift+k
POSITION=center
ENABLE_FILE_LOGGING=true
`)
	// The process environment wins over the file.
	t.Setenv("HEIGHT", "320")
	t.Setenv("PERSIST", "true")

	cfg, err := LoadWithOptions(LoadOptions{EnvPath: envPath})
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}

	tests := []struct {
		name     string
		got      any
		expected any
	}{
		{"Width", cfg.Width, 800},
		{"Height", cfg.Height, 320},
		{"Opacity", cfg.Opacity, 0.5},
		{"Invert", cfg.Invert, true},
		{"Persist", cfg.Persist, true},
		{"Hotkey", cfg.Hotkey, "ctrl+shift+k"},
		{"Position", cfg.Position, "center"},
		{"EnableFileLogging", cfg.EnableFileLogging, true},
		{"Tray", cfg.Tray, true},
	}
	for _, tt := range tests {
		if tt.got != tt.expected {
			t.Errorf("Expected %s to be %v, got %v", tt.name, tt.expected, tt.got)
		}
	}
}

func TestLoadAlternateEnvFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(ConfigPathEnvVar, writeEnv(t, "WIDTH=1000\n"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Width != 1000 {
		t.Errorf("Expected Width 1000 from %s, got %d", ConfigPathEnvVar, cfg.Width)
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("WIDTH", "wide")
	t.Setenv("OPACITY", "lots")
	t.Setenv("INVERT", "maybe")

	cfg, _ := LoadWithOptions(LoadOptions{EnvPath: filepath.Join(t.TempDir(), "none")})
	if cfg.Width != DefaultWidth || cfg.Opacity != DefaultOpacity || cfg.Invert {
		t.Errorf("malformed values should fall back to defaults, got %+v", *cfg)
	}
}

func TestLoadOptionsOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("WIDTH", "900")
	t.Setenv("TRAY", "true")

	width, hotkey, tray := 500, "alt+f1", false
	cfg, err := LoadWithOptions(LoadOptions{
		EnvPath: filepath.Join(t.TempDir(), "none"),
		Width:   &width,
		Hotkey:  &hotkey,
		Tray:    &tray,
	})
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Width != 500 || cfg.Hotkey != "alt+f1" || cfg.Tray {
		t.Errorf("overrides not applied: %+v", *cfg)
	}
}

func validConfig() Config {
	return Config{
		Width:    DefaultWidth,
		Height:   DefaultHeight,
		Opacity:  DefaultOpacity,
		Hotkey:   DefaultHotkey,
		Position: DefaultPosition,
	}
}

func TestSnapshot(t *testing.T) {
	cfg := validConfig()
	snap, err := cfg.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	want := keys.MustParseCombination("ControlLeft+Alt+ShiftLeft+Slash")
	if snap.Hotkey.String() != want.String() {
		t.Errorf("Hotkey = %s, expected %s", snap.Hotkey, want)
	}
	if snap.Placement != overlay.PlaceBottom || snap.Width != 742 || snap.Height != 235 || snap.Opacity != 0.3 {
		t.Errorf("snapshot = %+v", snap)
	}
	if err := snap.Validate(); err != nil {
		t.Errorf("Validate on a built snapshot: %v", err)
	}
}

func TestSnapshotErrors(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		expected error
		reason   error
	}{
		{"zero width", func(c *Config) { c.Width = 0 }, ErrInvalidDimensions, nil},
		{"negative height", func(c *Config) { c.Height = -5 }, ErrInvalidDimensions, nil},
		{"no modifier", func(c *Config) { c.Hotkey = "KeyA+Slash" }, ErrInvalidHotkey, keys.ErrNoModifier},
		{"only modifiers", func(c *Config) { c.Hotkey = "ctrl+shift" }, ErrInvalidHotkey, keys.ErrNoKey},
		{"unknown key", func(c *Config) { c.Hotkey = "ctrl+banana" }, ErrInvalidHotkey, keys.ErrUnknownKey},
		{"empty hotkey", func(c *Config) { c.Hotkey = "" }, ErrInvalidHotkey, keys.ErrEmptyCombination},
		{"bad position", func(c *Config) { c.Position = "top" }, ErrInvalidPosition, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			_, err := cfg.Snapshot()
			if !errors.Is(err, tt.expected) {
				t.Fatalf("error = %v, expected %v", err, tt.expected)
			}
			if tt.reason != nil && !errors.Is(err, tt.reason) {
				t.Errorf("error = %v, expected reason %v", err, tt.reason)
			}
		})
	}
}

func TestSnapshotClampsOpacity(t *testing.T) {
	tests := []struct {
		in       float64
		expected float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.3, 0.3},
		{1, 1},
		{7, 1},
		{math.NaN(), DefaultOpacity},
	}
	for _, tt := range tests {
		cfg := validConfig()
		cfg.Opacity = tt.in
		snap, err := cfg.Snapshot()
		if err != nil {
			t.Fatalf("Snapshot(opacity=%v) failed: %v", tt.in, err)
		}
		if snap.Opacity != tt.expected {
			t.Errorf("opacity %v -> %v, expected %v", tt.in, snap.Opacity, tt.expected)
		}
	}
}

func TestSnapshotDropsMissingImage(t *testing.T) {
	existing := filepath.Join(t.TempDir(), "layout.png")
	if err := os.WriteFile(existing, []byte("png"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := validConfig()
	cfg.ImagePath = existing
	if snap, _ := cfg.Snapshot(); snap.ImagePath != existing {
		t.Errorf("existing image dropped: %q", snap.ImagePath)
	}

	cfg.ImagePath = filepath.Join(t.TempDir(), "missing.png")
	if snap, _ := cfg.Snapshot(); snap.ImagePath != "" {
		t.Errorf("missing image kept: %q", snap.ImagePath)
	}
}

func TestValidate(t *testing.T) {
	combo := keys.MustParseCombination(DefaultHotkey)
	tests := []struct {
		name     string
		snap     Snapshot
		expected error
	}{
		{"valid", Snapshot{Width: 1, Height: 1, Opacity: 1, Hotkey: combo}, nil},
		{"no size", Snapshot{Opacity: 1, Hotkey: combo}, ErrInvalidDimensions},
		{"no hotkey", Snapshot{Width: 1, Height: 1, Opacity: 1}, ErrInvalidHotkey},
		{"opacity out of range", Snapshot{Width: 1, Height: 1, Opacity: 2, Hotkey: combo}, ErrInvalidOpacity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.snap.Validate()
			if tt.expected == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.expected) {
				t.Errorf("error = %v, expected %v", err, tt.expected)
			}
		})
	}
}

func TestWriteDefaultRoundTrips(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault failed: %v", err)
	}
	cfg, err := LoadWithOptions(LoadOptions{EnvPath: path})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, err := cfg.Snapshot(); err != nil {
		t.Errorf("default file does not produce a valid snapshot: %v", err)
	}
	if cfg.Hotkey != DefaultHotkey || cfg.Width != DefaultWidth {
		t.Errorf("loaded %+v", *cfg)
	}

	if err := os.WriteFile(path, []byte("WIDTH=10\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault on existing file: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "WIDTH=10\n" {
		t.Errorf("existing file was overwritten: %q", data)
	}
}
