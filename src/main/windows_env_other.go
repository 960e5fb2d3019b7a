//go:build !windows

package main

// enableDPIAwareness is a no-op; X11 and Quartz report physical pixels.
func enableDPIAwareness() {}
