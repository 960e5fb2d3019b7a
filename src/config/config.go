package config

import (
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"kbd-layout-overlay/src/keys"
	"kbd-layout-overlay/src/overlay"
)

const (
	// ConfigPathEnvVar names an alternate .env file, used when none sits next
	// to the executable.
	ConfigPathEnvVar = "KBD_LAYOUT_OVERLAY"

	DefaultWidth    = 742
	DefaultHeight   = 235
	DefaultOpacity  = 0.3
	DefaultHotkey   = "ControlLeft+Alt+ShiftLeft+Slash"
	DefaultPosition = "bottom"
)

var (
	ErrInvalidDimensions = errors.New("width and height must be positive")
	ErrInvalidHotkey     = errors.New("invalid hotkey")
	ErrInvalidPosition   = errors.New("invalid position")
	ErrInvalidOpacity    = errors.New("opacity must be within [0, 1]")
)

// LoadOptions override values from the environment and .env file. Nil
// fields are left alone.
type LoadOptions struct {
	// EnvPath is an explicit .env file; it replaces the usual lookup.
	EnvPath string

	ImagePath *string
	Width     *int
	Height    *int
	Opacity   *float64
	Invert    *bool
	Persist   *bool
	Hotkey    *string
	Position  *string
	Tray      *bool
}

// Config is the raw configuration before validation.
type Config struct {
	EnvPath           string
	ImagePath         string
	Width             int
	Height            int
	Opacity           float64
	Invert            bool
	Persist           bool
	Hotkey            string
	Position          string
	WatchImage        bool
	EnableFileLogging bool
	Debug             bool
	Tray              bool
}

// Snapshot is the validated, immutable configuration the engine runs with.
type Snapshot struct {
	ImagePath  string
	Width      int
	Height     int
	Opacity    float64
	Invert     bool
	Persist    bool
	Hotkey     keys.Combination
	Placement  overlay.Placement
	WatchImage bool
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Sources in priority order:
	// 1) process environment
	// 2) .env in the executable directory, else the file named by KBD_LAYOUT_OVERLAY
	// 3) defaults
	// LoadOptions then override the result.
	envPath := opts.EnvPath
	if envPath == "" {
		envPath = resolveEnvPath()
	}
	env := source{dotenv: readDotenvValues(envPath)}

	cfg := &Config{
		EnvPath:           envPath,
		ImagePath:         env.getString("IMAGE_PATH", ""),
		Width:             env.getInt("WIDTH", DefaultWidth),
		Height:            env.getInt("HEIGHT", DefaultHeight),
		Opacity:           env.getFloat("OPACITY", DefaultOpacity),
		Invert:            env.getBool("INVERT", false),
		Persist:           env.getBool("PERSIST", false),
		Hotkey:            env.getString("HOTKEY", DefaultHotkey),
		Position:          env.getString("POSITION", DefaultPosition),
		WatchImage:        env.getBool("WATCH_IMAGE", true),
		EnableFileLogging: env.getBool("ENABLE_FILE_LOGGING", false),
		Debug:             env.getBool("DEBUG", false),
		Tray:              env.getBool("TRAY", true),
	}
	cfg.apply(opts)
	return cfg, nil
}

func (c *Config) apply(opts LoadOptions) {
	if opts.ImagePath != nil {
		c.ImagePath = strings.TrimSpace(*opts.ImagePath)
	}
	if opts.Width != nil {
		c.Width = *opts.Width
	}
	if opts.Height != nil {
		c.Height = *opts.Height
	}
	if opts.Opacity != nil {
		c.Opacity = *opts.Opacity
	}
	if opts.Invert != nil {
		c.Invert = *opts.Invert
	}
	if opts.Persist != nil {
		c.Persist = *opts.Persist
	}
	if opts.Hotkey != nil {
		c.Hotkey = *opts.Hotkey
	}
	if opts.Position != nil {
		c.Position = *opts.Position
	}
	if opts.Tray != nil {
		c.Tray = *opts.Tray
	}
}

// Snapshot validates c. Opacity is clamped and an image path that does not
// exist is dropped with a warning; bad dimensions, hotkey or position fail.
func (c *Config) Snapshot() (Snapshot, error) {
	if c.Width <= 0 || c.Height <= 0 {
		return Snapshot{}, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, c.Width, c.Height)
	}
	combo, err := keys.ParseCombination(c.Hotkey)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w %q: %w", ErrInvalidHotkey, c.Hotkey, err)
	}
	placement, err := overlay.ParsePlacement(c.Position)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrInvalidPosition, err)
	}

	opacity := c.Opacity
	switch {
	case math.IsNaN(opacity):
		log.Printf("Config: opacity is not a number, using %.2f", DefaultOpacity)
		opacity = DefaultOpacity
	case opacity < 0:
		log.Printf("Config: opacity %.2f clamped to 0", opacity)
		opacity = 0
	case opacity > 1:
		log.Printf("Config: opacity %.2f clamped to 1", opacity)
		opacity = 1
	}

	imagePath := c.ImagePath
	if imagePath != "" {
		if _, err := os.Stat(imagePath); err != nil {
			log.Printf("Config: image %q not usable (%v), using the default keymap", imagePath, err)
			imagePath = ""
		}
	}

	return Snapshot{
		ImagePath:  imagePath,
		Width:      c.Width,
		Height:     c.Height,
		Opacity:    opacity,
		Invert:     c.Invert,
		Persist:    c.Persist,
		Hotkey:     combo,
		Placement:  placement,
		WatchImage: c.WatchImage,
	}, nil
}

// Validate checks a snapshot built by hand rather than by Config.Snapshot.
func (s Snapshot) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, s.Width, s.Height)
	}
	if s.Hotkey.IsZero() {
		return fmt.Errorf("%w: %w", ErrInvalidHotkey, keys.ErrEmptyCombination)
	}
	if math.IsNaN(s.Opacity) || s.Opacity < 0 || s.Opacity > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidOpacity, s.Opacity)
	}
	return nil
}

// DefaultEnvPath is where a new .env is created: next to the executable.
func DefaultEnvPath() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(execPath), ".env"), nil
}

// WriteDefault creates a .env at path holding the default settings. An
// existing file is left untouched.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return godotenv.Write(map[string]string{
		"IMAGE_PATH":          "",
		"WIDTH":               strconv.Itoa(DefaultWidth),
		"HEIGHT":              strconv.Itoa(DefaultHeight),
		"OPACITY":             strconv.FormatFloat(DefaultOpacity, 'f', -1, 64),
		"INVERT":              "false",
		"PERSIST":             "false",
		"HOTKEY":              DefaultHotkey,
		"POSITION":            DefaultPosition,
		"WATCH_IMAGE":         "true",
		"ENABLE_FILE_LOGGING": "false",
		"DEBUG":               "false",
		"TRAY":                "true",
	}, path)
}

func resolveEnvPath() string {
	if exeEnv, err := DefaultEnvPath(); err == nil {
		if _, err := os.Stat(exeEnv); err == nil {
			return exeEnv
		}
	}

	if alt := os.Getenv(ConfigPathEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func readDotenvValues(envPath string) map[string]string {
	if envPath == "" {
		return map[string]string{}
	}

	values, err := godotenv.Read(envPath)
	if err != nil {
		log.Printf("Config: failed to read %s: %v", envPath, err)
		return map[string]string{}
	}

	return values
}

// source looks keys up in the environment first, then the .env values.
type source struct {
	dotenv map[string]string
}

func (s source) lookup(key string) (string, bool) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v, true
	}
	v, ok := s.dotenv[key]
	return v, ok && v != ""
}

func (s source) getString(key, def string) string {
	if v, ok := s.lookup(key); ok {
		return strings.TrimSpace(v)
	}
	return def
}

func (s source) getInt(key string, def int) int {
	v, ok := s.lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		log.Printf("Config: %s=%q is not an integer, using %d", key, v, def)
		return def
	}
	return n
}

func (s source) getFloat(key string, def float64) float64 {
	v, ok := s.lookup(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		log.Printf("Config: %s=%q is not a number, using %g", key, v, def)
		return def
	}
	return f
}

func (s source) getBool(key string, def bool) bool {
	v, ok := s.lookup(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		log.Printf("Config: %s=%q is not a boolean, using %v", key, v, def)
		return def
	}
	return b
}
