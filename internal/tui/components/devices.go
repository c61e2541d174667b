package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/cadence/internal/core"
	"github.com/tessro/cadence/internal/tui/styles"
)

// Devices displays available playback devices
type Devices struct {
	selected int
}

// NewDevices creates a new Devices component
func NewDevices() *Devices {
	return &Devices{}
}

// SelectNext selects the next device
func (d *Devices) SelectNext() {
	d.selected++
}

// SelectPrev selects the previous device
func (d *Devices) SelectPrev() {
	if d.selected > 0 {
		d.selected--
	}
}

// SelectedDevice returns the selected device, or nil.
func (d *Devices) SelectedDevice(devices []core.Device) *core.Device {
	if len(devices) == 0 {
		return nil
	}
	d.clamp(len(devices))
	return &devices[d.selected]
}

func (d *Devices) clamp(n int) {
	if d.selected >= n {
		d.selected = n - 1
	}
	if d.selected < 0 {
		d.selected = 0
	}
}

// Render renders the devices panel. local names the embedded engine.
func (d *Devices) Render(devices []core.Device, local string, width, height int, focused bool) string {
	title := styles.PanelTitle("Devices", focused)

	var content string
	if len(devices) == 0 {
		content = styles.Muted.Render("No devices found")
	} else {
		content = d.renderDevices(devices, local, height-4, focused)
	}

	panel := styles.Panel(focused).
		Width(width).
		Height(height)

	return panel.Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		content,
	))
}

func (d *Devices) renderDevices(devices []core.Device, local string, maxLines int, focused bool) string {
	d.clamp(len(devices))

	lines := make([]string, 0, len(devices))
	for i, device := range devices {
		if len(lines) >= maxLines {
			break
		}
		icon := styles.DeviceIcon(string(device.Type))

		selector := "  "
		if focused && i == d.selected {
			selector = "▸ "
		}

		name := device.Name
		if i == d.selected && focused {
			name = styles.Highlight.Render(name)
		}
		if local != "" && device.Name == local {
			name += styles.Dim.Render(" (this computer)")
		}

		active := ""
		if device.IsActive {
			active = styles.Playing.Render(" ●")
		}

		lines = append(lines, fmt.Sprintf("%s%s %s%s", selector, icon, name, active))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
