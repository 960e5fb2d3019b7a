package tray

import (
	"strings"
	"testing"
)

func TestOpenerCommand(t *testing.T) {
	tests := []struct {
		goos     string
		expected string
	}{
		{"windows", "rundll32 url.dll,FileProtocolHandler C:/cfg/.env"},
		{"darwin", "open C:/cfg/.env"},
		{"linux", "xdg-open C:/cfg/.env"},
		{"freebsd", "xdg-open C:/cfg/.env"},
	}
	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			name, args := openerCommand(tt.goos, "C:/cfg/.env")
			got := strings.Join(append([]string{name}, args...), " ")
			if got != tt.expected {
				t.Errorf("command = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestAboutText(t *testing.T) {
	got := AboutText("Keyboard Layout Overlay", "ControlLeft+Alt+ShiftLeft+Slash", false, "")
	for _, want := range []string{"ControlLeft+Alt+ShiftLeft+Slash", "hold the keys", "using defaults"} {
		if !strings.Contains(got, want) {
			t.Errorf("about text %q lacks %q", got, want)
		}
	}
	if got := AboutText("x", "ctrl+a", true, "/etc/.env"); !strings.Contains(got, "toggle") || !strings.Contains(got, "/etc/.env") {
		t.Errorf("persist about text = %q", got)
	}
}
