package playback

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tessro/cadence/internal/core"
)

// EventKind identifies a player lifecycle event.
type EventKind int

const (
	EventOther EventKind = iota
	EventLoading
	EventPlaying
	EventPaused
	EventPositionChanged
	EventSeeked
	EventStopped
	EventEndOfTrack
	EventTrackChanged
)

func (k EventKind) String() string {
	switch k {
	case EventLoading:
		return "loading"
	case EventPlaying:
		return "playing"
	case EventPaused:
		return "paused"
	case EventPositionChanged:
		return "position_changed"
	case EventSeeked:
		return "seeked"
	case EventStopped:
		return "stopped"
	case EventEndOfTrack:
		return "end_of_track"
	case EventTrackChanged:
		return "track_changed"
	default:
		return "other"
	}
}

// Event is a lifecycle notification from a local engine.
type Event struct {
	Kind       EventKind
	PositionMs uint32

	// Item is set for EventTrackChanged.
	Item *Item

	// Name is the engine's own name for the event, kept for logging.
	Name string
}

// ItemKind distinguishes the payloads an engine can describe.
type ItemKind int

const (
	ItemTrack ItemKind = iota
	ItemEpisode
	ItemLocal
)

// Item describes the audio item an engine started.
type Item struct {
	Kind       ItemKind
	URI        string
	ID         string
	Name       string
	Artists    []string
	Album      string
	ShowName   string
	DurationMs uint32
}

// Track derives display metadata for the item. Episodes show their show as
// the artist and a fixed album label. Local files fall back to whatever the
// URI encodes.
func (it *Item) Track() core.Track {
	t := core.Track{
		ID:       it.ID,
		URI:      it.URI,
		Title:    it.Name,
		Artists:  it.Artists,
		Album:    it.Album,
		Duration: time.Duration(it.DurationMs) * time.Millisecond,
	}
	if len(it.Artists) > 0 {
		t.Artist = it.Artists[0]
	}

	switch it.Kind {
	case ItemEpisode:
		t.Kind = core.KindEpisode
		t.Artist = it.ShowName
		t.Artists = nil
		if it.ShowName != "" {
			t.Artists = []string{it.ShowName}
		}
		t.Album = core.PodcastAlbum
	case ItemLocal:
		t.Kind = core.KindLocal
		fillFromLocalURI(&t)
	default:
		t.Kind = core.KindTrack
	}
	return t
}

// fillFromLocalURI fills missing fields from a local file URI of the form
// spotify:local:<artist>:<album>:<title>:<seconds>.
func fillFromLocalURI(t *core.Track) {
	rest, ok := strings.CutPrefix(t.URI, "spotify:local:")
	if !ok {
		return
	}
	parts := strings.Split(rest, ":")
	if len(parts) != 4 {
		return
	}
	field := func(s string) string {
		v, err := url.QueryUnescape(s)
		if err != nil {
			return s
		}
		return v
	}
	if t.Artist == "" {
		t.Artist = field(parts[0])
	}
	if t.Album == "" {
		t.Album = field(parts[1])
	}
	if t.Title == "" {
		t.Title = field(parts[2])
	}
	if t.Duration == 0 {
		if secs, err := strconv.Atoi(parts[3]); err == nil {
			t.Duration = time.Duration(secs) * time.Second
		}
	}
}
