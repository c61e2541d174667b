package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/cadence/internal/core"
	"github.com/tessro/cadence/internal/playback"
	"github.com/tessro/cadence/internal/tui/styles"
)

// NowPlayingState is what the now playing panel shows.
type NowPlayingState struct {
	playback.Snapshot
	Liked bool
	Local bool
}

// NowPlaying displays the currently playing track
type NowPlaying struct{}

// NewNowPlaying creates a new NowPlaying component
func NewNowPlaying() *NowPlaying {
	return &NowPlaying{}
}

// Render renders the now playing panel
func (n *NowPlaying) Render(state NowPlayingState, width, height int, focused bool) string {
	title := styles.PanelTitle("Now Playing", focused)

	var content string
	if state.Track == nil {
		content = styles.Muted.Render("No track playing")
	} else {
		content = n.renderTrack(state, width-4)
	}

	panel := styles.Panel(focused).
		Width(width).
		Height(height)

	return panel.Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		content,
		"",
		n.renderSettings(state),
	))
}

func (n *NowPlaying) renderTrack(state NowPlayingState, width int) string {
	track := state.Track

	icon := styles.StatusIcon(state.IsPlaying)
	heart := ""
	if state.Liked {
		heart = " " + styles.Heart.Render("♥")
	}
	title := styles.Title.Width(max(width-4, 1)).Render(track.Title + heart)

	artist := styles.Subtitle.Render(track.Artist)
	album := styles.Dim.Render(track.Album)
	if track.Kind == core.KindEpisode {
		album = styles.Dim.Render(core.PodcastAlbum)
	}

	progressWidth := max(width-14, 10)
	progress := fmt.Sprintf("%s %s %s",
		FormatDuration(state.Progress()),
		styles.ProgressBar(state.ProgressPercent(), progressWidth),
		FormatDuration(state.Duration()))

	return lipgloss.JoinVertical(lipgloss.Left,
		icon+" "+title,
		"  "+artist,
		"  "+album,
		"",
		progress,
	)
}

func (n *NowPlaying) renderSettings(state NowPlayingState) string {
	s := state.Settings

	device := s.DeviceName
	if device == "" {
		device = "no device"
	}
	if state.Local {
		device += " (local)"
	}

	shuffle := styles.Dim.Render("shuffle off")
	if s.Shuffle {
		shuffle = styles.Playing.Render("shuffle on")
	}
	repeat := styles.Dim.Render("repeat " + s.Repeat.String())
	if s.Repeat != core.RepeatOff {
		repeat = styles.Playing.Render("repeat " + s.Repeat.String())
	}

	return fmt.Sprintf("%s  %s  %s  %s",
		styles.Muted.Render(device),
		styles.Muted.Render(fmt.Sprintf("vol %d%%", s.Volume)),
		shuffle,
		repeat)
}

// FormatDuration formats d as m:ss.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Truncate(time.Second)
	m := d / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%d:%02d", m, s)
}
