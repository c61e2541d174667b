package core

import "time"

// TrackKind indicates what sort of item is playing.
type TrackKind string

const (
	KindTrack   TrackKind = "track"
	KindEpisode TrackKind = "episode"
	KindLocal   TrackKind = "local"
)

// PodcastAlbum is shown in place of an album for podcast episodes.
const PodcastAlbum = "Podcast"

// Track represents a playable item: a catalog track, a podcast episode
// or a local file.
type Track struct {
	ID       string        `json:"id"`
	URI      string        `json:"uri"`
	Title    string        `json:"title"`
	Artist   string        `json:"artist"`
	Artists  []string      `json:"artists"`
	Album    string        `json:"album"`
	Duration time.Duration `json:"duration"`
	Kind     TrackKind     `json:"kind"`
}

// DurationMs returns the duration in whole milliseconds, saturating at the
// uint32 range.
func (t *Track) DurationMs() uint32 {
	if t == nil || t.Duration <= 0 {
		return 0
	}
	ms := t.Duration.Milliseconds()
	if ms > int64(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(ms)
}
