package styles

import (
	"strings"
	"testing"

	catppuccin "github.com/catppuccin/go"
	"github.com/charmbracelet/lipgloss"
)

func TestApplyTheme(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"latte", catppuccin.Latte.Mauve().Hex},
		{"light", catppuccin.Latte.Mauve().Hex},
		{"frappe", catppuccin.Frappe.Mauve().Hex},
		{"macchiato", catppuccin.Macchiato.Mauve().Hex},
		{"mocha", catppuccin.Mocha.Mauve().Hex},
		{"dark", catppuccin.Mocha.Mauve().Hex},
		{"Mocha", catppuccin.Mocha.Mauve().Hex},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ApplyTheme(tt.name)
			if Primary != lipgloss.Color(tt.want) {
				t.Errorf("Primary = %q, want %q", Primary, tt.want)
			}
		})
	}
	ApplyTheme("mocha")
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		percent float64
		filled  int
	}{
		{0, 0},
		{50, 5},
		{100, 10},
		{150, 10},
		{-10, 0},
	}
	for _, tt := range tests {
		bar := ProgressBar(tt.percent, 10)
		if got := strings.Count(bar, "━"); got != tt.filled {
			t.Errorf("ProgressBar(%v) filled = %d, want %d", tt.percent, got, tt.filled)
		}
		if got := strings.Count(bar, "─"); got != 10-tt.filled {
			t.Errorf("ProgressBar(%v) empty = %d, want %d", tt.percent, got, 10-tt.filled)
		}
	}
}

func TestDeviceIcon(t *testing.T) {
	if DeviceIcon("Computer") != DeviceIcon("computer") {
		t.Error("DeviceIcon should ignore case")
	}
	if DeviceIcon("unknown") != "🎧" {
		t.Errorf("DeviceIcon(unknown) = %q", DeviceIcon("unknown"))
	}
}
