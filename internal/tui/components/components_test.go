package components

import (
	"strings"
	"testing"
	"time"

	"github.com/tessro/cadence/internal/core"
	"github.com/tessro/cadence/internal/playback"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0:00"},
		{-time.Second, "0:00"},
		{59*time.Second + 900*time.Millisecond, "0:59"},
		{3*time.Minute + 5*time.Second, "3:05"},
		{75 * time.Minute, "75:00"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		s    string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"héllo wörld", 8, "héllo..."},
		{"hello", 2, "he"},
		{"hello", 0, ""},
	}
	for _, tt := range tests {
		if got := truncate(tt.s, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.s, tt.n, got, tt.want)
		}
	}
}

func TestQueueSelection(t *testing.T) {
	queue := &core.Queue{Tracks: []core.Track{
		{URI: "spotify:track:now"},
		{URI: "spotify:track:a"},
		{URI: "spotify:track:b"},
	}}
	q := NewQueue()

	if got := q.SelectedTrack(queue); got == nil || got.URI != "spotify:track:a" {
		t.Fatalf("SelectedTrack = %+v, want first upcoming", got)
	}
	q.SelectNext()
	q.SelectNext()
	q.SelectNext()
	if got := q.SelectedTrack(queue); got.URI != "spotify:track:b" {
		t.Errorf("selection should clamp to the last track, got %s", got.URI)
	}
	q.SelectPrev()
	if got := q.SelectedTrack(queue); got.URI != "spotify:track:a" {
		t.Errorf("SelectPrev: got %s", got.URI)
	}
	if q.SelectedTrack(nil) != nil {
		t.Error("nil queue should select nothing")
	}
}

func TestQueueRender(t *testing.T) {
	queue := &core.Queue{Tracks: []core.Track{
		{URI: "spotify:track:now", Title: "Current"},
		{URI: "spotify:track:a", Title: "Upcoming", Artist: "Band"},
	}}
	out := NewQueue().Render(queue, func(string) bool { return true }, 60, 10, true)
	if strings.Contains(out, "Current") {
		t.Error("the playing track should not be listed in the queue")
	}
	if !strings.Contains(out, "Upcoming") || !strings.Contains(out, "♥") {
		t.Errorf("render missing track or liked marker:\n%s", out)
	}

	empty := NewQueue().Render(nil, nil, 60, 10, false)
	if !strings.Contains(empty, "Queue is empty") {
		t.Errorf("empty render:\n%s", empty)
	}
}

func TestDevicesRender(t *testing.T) {
	devices := []core.Device{
		{ID: "1", Name: "Kitchen", IsActive: true},
		{ID: "2", Name: "cadence"},
	}
	d := NewDevices()
	out := d.Render(devices, "cadence", 60, 10, true)
	if !strings.Contains(out, "this computer") {
		t.Errorf("local device not marked:\n%s", out)
	}
	d.SelectNext()
	if got := d.SelectedDevice(devices); got.ID != "2" {
		t.Errorf("SelectedDevice = %s, want 2", got.ID)
	}
}

func TestNowPlayingRender(t *testing.T) {
	state := NowPlayingState{
		Snapshot: playback.Snapshot{
			Track:      &core.Track{Title: "Episode 1", Artist: "The Show", Kind: core.KindEpisode},
			ProgressMs: 61000,
			DurationMs: 120000,
			Settings:   core.PlaybackSettings{DeviceName: "cadence", Volume: 55, Repeat: core.RepeatOne},
		},
		Liked: true,
		Local: true,
	}
	out := NewNowPlaying().Render(state, 80, 14, false)
	for _, want := range []string{"Episode 1", core.PodcastAlbum, "1:01", "2:00", "(local)", "vol 55%", "repeat one", "♥"} {
		if !strings.Contains(out, want) {
			t.Errorf("render missing %q:\n%s", want, out)
		}
	}

	if !strings.Contains(NewNowPlaying().Render(NowPlayingState{}, 80, 14, false), "No track playing") {
		t.Error("empty state should say nothing is playing")
	}
}
