package styles

import (
	"strings"

	catppuccin "github.com/catppuccin/go"
	"github.com/charmbracelet/lipgloss"
)

// flavour is the part of a catppuccin palette the styles draw from.
type flavour interface {
	Mauve() catppuccin.Color
	Green() catppuccin.Color
	Peach() catppuccin.Color
	Yellow() catppuccin.Color
	Red() catppuccin.Color
	Blue() catppuccin.Color
	Pink() catppuccin.Color
	Text() catppuccin.Color
	Subtext0() catppuccin.Color
	Overlay0() catppuccin.Color
	Surface1() catppuccin.Color
	Base() catppuccin.Color
}

// Colors, set by ApplyTheme.
var (
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color

	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color

	Border    lipgloss.Color
	Text      lipgloss.Color
	TextMuted lipgloss.Color
	TextDim   lipgloss.Color
	Liked     lipgloss.Color
)

// Text styles
var (
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Label     lipgloss.Style
	Highlight lipgloss.Style
	Muted     lipgloss.Style
	Dim       lipgloss.Style
	Playing   lipgloss.Style
	Paused    lipgloss.Style
	ErrorText lipgloss.Style
	Heart     lipgloss.Style
)

// Border styles
var (
	BorderStyle   lipgloss.Style
	FocusedBorder lipgloss.Style
)

func init() {
	ApplyTheme("mocha")
}

// ApplyTheme switches every color and style to the named theme: "latte",
// "frappe", "macchiato" or "mocha". "light" is latte and "dark" is mocha;
// "auto" picks one from the terminal background.
func ApplyTheme(name string) {
	var f flavour
	switch strings.ToLower(name) {
	case "latte", "light":
		f = catppuccin.Latte
	case "frappe":
		f = catppuccin.Frappe
	case "macchiato":
		f = catppuccin.Macchiato
	case "auto":
		if lipgloss.HasDarkBackground() {
			f = catppuccin.Mocha
		} else {
			f = catppuccin.Latte
		}
	default:
		f = catppuccin.Mocha
	}
	apply(f)
}

func apply(f flavour) {
	c := func(col catppuccin.Color) lipgloss.Color { return lipgloss.Color(col.Hex) }

	Primary = c(f.Mauve())
	Secondary = c(f.Green())
	Accent = c(f.Peach())
	Success = c(f.Green())
	Warning = c(f.Yellow())
	Error = c(f.Red())
	Info = c(f.Blue())
	Border = c(f.Surface1())
	Text = c(f.Text())
	TextMuted = c(f.Subtext0())
	TextDim = c(f.Overlay0())
	Liked = c(f.Pink())

	Title = lipgloss.NewStyle().Bold(true).Foreground(Text)
	Subtitle = lipgloss.NewStyle().Foreground(TextMuted)
	Label = lipgloss.NewStyle().Foreground(TextDim)
	Highlight = lipgloss.NewStyle().Bold(true).Foreground(Primary)
	Muted = lipgloss.NewStyle().Foreground(TextMuted)
	Dim = lipgloss.NewStyle().Foreground(TextDim)
	Playing = lipgloss.NewStyle().Foreground(Success)
	Paused = lipgloss.NewStyle().Foreground(Warning)
	ErrorText = lipgloss.NewStyle().Foreground(Error)
	Heart = lipgloss.NewStyle().Foreground(Liked)

	BorderStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border)
	FocusedBorder = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Primary)
}

// Panel returns the frame for a panel.
func Panel(focused bool) lipgloss.Style {
	if focused {
		return FocusedBorder.Padding(0, 1)
	}
	return BorderStyle.Padding(0, 1)
}

// PanelTitle creates a styled panel title
func PanelTitle(title string, focused bool) string {
	style := Label
	if focused {
		style = Highlight
	}
	return style.Render(" " + title + " ")
}

// ProgressBar creates a progress bar string
func ProgressBar(percent float64, width int) string {
	if width < 0 {
		width = 0
	}
	filled := min(max(int(percent/100*float64(width)), 0), width)

	filledStyle := lipgloss.NewStyle().Foreground(Primary)
	emptyStyle := lipgloss.NewStyle().Foreground(Border)

	return filledStyle.Render(strings.Repeat("━", filled)) +
		emptyStyle.Render(strings.Repeat("─", width-filled))
}

// StatusIcon returns an icon for playback status
func StatusIcon(playing bool) string {
	if playing {
		return Playing.Render("▶")
	}
	return Paused.Render("⏸")
}

// DeviceIcon returns an icon for device type
func DeviceIcon(deviceType string) string {
	switch strings.ToLower(deviceType) {
	case "computer":
		return "💻"
	case "smartphone", "phone":
		return "📱"
	case "speaker":
		return "🔊"
	case "tv":
		return "📺"
	default:
		return "🎧"
	}
}
