package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/cadence/internal/core"
	"github.com/tessro/cadence/internal/tui/styles"
)

// Queue displays the upcoming tracks and tracks a selection within them.
type Queue struct {
	offset   int
	selected int
}

// NewQueue creates a new Queue component
func NewQueue() *Queue {
	return &Queue{}
}

// SelectNext moves the selection down.
func (q *Queue) SelectNext() {
	q.selected++
}

// SelectPrev moves the selection up.
func (q *Queue) SelectPrev() {
	if q.selected > 0 {
		q.selected--
	}
}

// SelectedTrack returns the selected upcoming track, or nil.
func (q *Queue) SelectedTrack(queue *core.Queue) *core.Track {
	upcoming := queue.Upcoming()
	if len(upcoming) == 0 {
		return nil
	}
	q.clamp(len(upcoming))
	return &upcoming[q.selected]
}

func (q *Queue) clamp(n int) {
	if q.selected >= n {
		q.selected = n - 1
	}
	if q.selected < 0 {
		q.selected = 0
	}
}

// Render renders the queue panel. liked marks liked tracks.
func (q *Queue) Render(queue *core.Queue, liked func(uri string) bool, width, height int, focused bool) string {
	title := styles.PanelTitle("Queue", focused)

	var content string
	if len(queue.Upcoming()) == 0 {
		content = styles.Muted.Render("Queue is empty")
	} else {
		content = q.renderQueue(queue.Upcoming(), liked, width-4, height-4, focused)
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

func (q *Queue) renderQueue(tracks []core.Track, liked func(string) bool, width, maxLines int, focused bool) string {
	q.clamp(len(tracks))

	visible := max(maxLines-1, 1)
	if q.selected < q.offset {
		q.offset = q.selected
	}
	if q.selected >= q.offset+visible {
		q.offset = q.selected - visible + 1
	}
	start := q.offset
	end := min(start+visible, len(tracks))

	// "XX. " + selector + " — " + heart
	const overhead = 11
	available := max(width-overhead, 10)

	lines := make([]string, 0, end-start+1)
	for i := start; i < end; i++ {
		track := tracks[i]
		num := fmt.Sprintf("%2d.", i+1)

		artistSpace := min(len(track.Artist), max(available/3, 10))
		title := truncate(track.Title, available-artistSpace)
		artist := truncate(track.Artist, artistSpace)

		heart := "  "
		if liked != nil && liked(track.URI) {
			heart = " " + styles.Heart.Render("♥")
		}

		var line string
		if focused && i == q.selected {
			line = styles.Highlight.Render(fmt.Sprintf("%s ▸ %s — %s", num, title, artist)) + heart
		} else {
			line = fmt.Sprintf("%s   %s — %s%s", styles.Dim.Render(num), title, styles.Muted.Render(artist), heart)
		}
		lines = append(lines, line)
	}

	if end < len(tracks) {
		lines = append(lines, styles.Dim.Render(fmt.Sprintf("    ... and %d more", len(tracks)-end)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
