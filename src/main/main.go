package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"kbd-layout-overlay/src/config"
	"kbd-layout-overlay/src/eventloop"
	"kbd-layout-overlay/src/keys"
	"kbd-layout-overlay/src/locator"
	"kbd-layout-overlay/src/logutil"
	"kbd-layout-overlay/src/platform"
	"kbd-layout-overlay/src/singleinstance"
	"kbd-layout-overlay/src/tray"
)

const appTitle = "Keyboard Layout Overlay"

type mainOptions struct {
	configPath string
	imagePath  string
	width      int
	height     int
	opacity    float64
	invert     bool
	persist    bool
	hotkey     string
	position   string
	noTray     bool
	verbose    bool
	listKeys   bool
	replace    bool
}

func main() {
	// The tray and Win32 message loops want the main OS thread.
	runtime.LockOSThread()

	if err := runWithArgs(normalizeLegacyArgs(os.Args)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{"kbd-layout-overlay"}
	}

	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "kbd-layout-overlay",
		Short:         "Show a keyboard layout overlay while a hotkey is held",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.listKeys {
				printKeys(cmd)
				return nil
			}
			return runWithOptions(*opts, buildLoadOptions(cmd, opts))
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "Path to a .env configuration file")
	f.StringVar(&opts.imagePath, "image", "", "Overlay image (PNG, JPEG, GIF, BMP or WebP)")
	f.IntVar(&opts.width, "width", config.DefaultWidth, "Overlay width in pixels")
	f.IntVar(&opts.height, "height", config.DefaultHeight, "Overlay height in pixels")
	f.Float64Var(&opts.opacity, "opacity", config.DefaultOpacity, "Overlay opacity between 0 and 1")
	f.BoolVar(&opts.invert, "invert", false, "Invert the image colors")
	f.BoolVar(&opts.persist, "persist", false, "Toggle the overlay on each press instead of holding")
	f.StringVar(&opts.hotkey, "hotkey", config.DefaultHotkey, "Key combination, e.g. ControlLeft+Alt+ShiftLeft+Slash")
	f.StringVar(&opts.position, "position", config.DefaultPosition, "Placement on the monitor: bottom or center")
	f.BoolVar(&opts.noTray, "no-tray", false, "Do not show a system tray icon")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Debug logging")
	f.BoolVar(&opts.listKeys, "list-keys", false, "Print the key names accepted by --hotkey and exit")
	f.BoolVar(&opts.replace, "replace", false, "Ask a running instance to quit and take its place")

	return cmd
}

// buildLoadOptions turns the flags the user actually set into overrides, so
// that unset flags do not mask the .env file.
func buildLoadOptions(cmd *cobra.Command, opts *mainOptions) config.LoadOptions {
	f := cmd.Flags()
	lo := config.LoadOptions{EnvPath: opts.configPath}
	if f.Changed("image") {
		lo.ImagePath = &opts.imagePath
	}
	if f.Changed("width") {
		lo.Width = &opts.width
	}
	if f.Changed("height") {
		lo.Height = &opts.height
	}
	if f.Changed("opacity") {
		lo.Opacity = &opts.opacity
	}
	if f.Changed("invert") {
		lo.Invert = &opts.invert
	}
	if f.Changed("persist") {
		lo.Persist = &opts.persist
	}
	if f.Changed("hotkey") {
		lo.Hotkey = &opts.hotkey
	}
	if f.Changed("position") {
		lo.Position = &opts.position
	}
	if f.Changed("no-tray") {
		tray := !opts.noTray
		lo.Tray = &tray
	}
	return lo
}

func printKeys(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	for _, k := range keys.All() {
		kind := "key"
		if k.IsModifier() {
			kind = "modifier"
		}
		fmt.Fprintf(out, "%-14s %s\n", k, kind)
	}
}

func runWithOptions(opts mainOptions, lo config.LoadOptions) error {
	cfg, err := config.LoadWithOptions(lo)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logutil.Setup(cfg.EnableFileLogging)
	logutil.SetDebug(cfg.Debug || opts.verbose)

	snap, err := cfg.Snapshot()
	if err != nil {
		return &eventloop.Error{Kind: eventloop.KindConfig, Err: err}
	}

	// Ensure DPI awareness before creating any windows or querying metrics
	enableDPIAwareness()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle SIGINT/SIGTERM
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		select {
		case s := <-ch:
			log.Printf("Received %s, shutting down", s)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(ch)
	}()

	guard, err := acquireInstance(ctx, opts.replace)
	if err != nil {
		return err
	}
	defer guard.Close()
	go func() {
		select {
		case <-guard.QuitRequested():
			log.Printf("Replaced by a new instance, shutting down")
			cancel()
		case <-ctx.Done():
		}
	}()

	plat := platform.New()
	defer plat.Close()
	logMonitorConfiguration(plat)

	if !cfg.Tray {
		return eventloop.Run(ctx, snap, plat)
	}
	return runWithTray(ctx, cancel, cfg, snap, plat, guard)
}

func acquireInstance(ctx context.Context, replace bool) (*singleinstance.Guard, error) {
	if !replace {
		guard, err := singleinstance.Acquire(ctx)
		if errors.Is(err, singleinstance.ErrAlreadyRunning) {
			return nil, fmt.Errorf("%w (use --replace to take over)", err)
		}
		return guard, err
	}
	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return singleinstance.AcquireReplacing(waitCtx)
}

// runWithTray runs the engine in the background while the tray owns the main
// goroutine. Either one stopping stops the other.
func runWithTray(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, snap config.Snapshot, plat platform.Platform, guard *singleinstance.Guard) error {
	engineErr := make(chan error, 1)
	t := tray.New(tray.Config{
		Title:   appTitle,
		Tooltip: fmt.Sprintf("%s - %s", appTitle, snap.Hotkey),
		About:   tray.AboutText(appTitle, snap.Hotkey.String(), snap.Persist, cfg.EnvPath),
		OnOpenConfig: func() {
			if err := openConfig(cfg.EnvPath); err != nil {
				log.Printf("Open config failed: %v", err)
			}
		},
		OnRestart: func() {
			// The new process must find the port range free.
			_ = guard.Close()
			if err := tray.Relaunch(); err != nil {
				log.Printf("Restart failed: %v", err)
				return
			}
			cancel()
		},
		OnQuit: cancel,
	})

	// Start the engine only once the icon exists so that Quit always has a
	// running tray to stop.
	t.Run(func() {
		go func() {
			engineErr <- eventloop.Run(ctx, snap, plat)
			t.Quit()
		}()
	})
	cancel()
	return <-engineErr
}

// openConfig opens the .env in use, creating one with defaults next to the
// executable when there is none.
func openConfig(path string) error {
	if path == "" {
		p, err := config.DefaultEnvPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := config.WriteDefault(path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return tray.OpenFile(path)
}

func logMonitorConfiguration(plat platform.Platform) {
	displays := plat.Probe().Displays()
	log.Printf("MONITOR: %s platform, %d display(s)", plat.Name(), len(displays))
	for i, d := range displays {
		log.Printf("MONITOR: #%d %v", i, d)
	}
	if len(displays) == 0 {
		logutil.Debugf("MONITOR: screenshot reports %v", locator.Displays())
	}
}

// normalizeLegacyArgs maps single-dash long flags (-image, -width=742) to
// the double-dash form cobra expects.
func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		if !strings.HasPrefix(arg, "-") || strings.HasPrefix(arg, "--") {
			continue
		}
		name := strings.TrimPrefix(arg, "-")
		if eq := strings.IndexByte(name, '='); eq >= 0 {
			name = name[:eq]
		}
		if legacyFlags[name] {
			normalized[i] = "-" + arg
		}
	}

	return normalized
}

var legacyFlags = map[string]bool{
	"config":    true,
	"image":     true,
	"width":     true,
	"height":    true,
	"opacity":   true,
	"invert":    true,
	"persist":   true,
	"hotkey":    true,
	"position":  true,
	"no-tray":   true,
	"verbose":   true,
	"list-keys": true,
	"replace":   true,
}

// exitCode is 2 for configuration errors and 1 for everything else.
func exitCode(err error) int {
	var engineErr *eventloop.Error
	if errors.As(err, &engineErr) && engineErr.Kind == eventloop.KindConfig {
		return 2
	}
	if err != nil {
		return 1
	}
	return 0
}
