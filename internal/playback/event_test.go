package playback

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tessro/cadence/internal/core"
)

func TestItem_Track(t *testing.T) {
	tests := []struct {
		name string
		item Item
		want core.Track
	}{
		{
			name: "track uses first artist",
			item: Item{Kind: ItemTrack, URI: "spotify:track:1", ID: "1", Name: "Song", Artists: []string{"A", "B"}, Album: "LP", DurationMs: 1500},
			want: core.Track{ID: "1", URI: "spotify:track:1", Title: "Song", Artist: "A", Artists: []string{"A", "B"}, Album: "LP", Duration: 1500 * time.Millisecond, Kind: core.KindTrack},
		},
		{
			name: "episode shows podcast",
			item: Item{Kind: ItemEpisode, URI: "spotify:episode:2", Name: "Ep 4", ShowName: "The Show", DurationMs: 60000},
			want: core.Track{URI: "spotify:episode:2", Title: "Ep 4", Artist: "The Show", Artists: []string{"The Show"}, Album: "Podcast", Duration: time.Minute, Kind: core.KindEpisode},
		},
		{
			name: "local falls back to uri",
			item: Item{Kind: ItemLocal, URI: "spotify:local:Some+Band:Demo+Tape:First+Take:215"},
			want: core.Track{URI: "spotify:local:Some+Band:Demo+Tape:First+Take:215", Title: "First Take", Artist: "Some Band", Album: "Demo Tape", Duration: 215 * time.Second, Kind: core.KindLocal},
		},
		{
			name: "local keeps engine fields",
			item: Item{Kind: ItemLocal, URI: "spotify:local:x:y:z:1", Name: "Named", Artists: []string{"Known"}},
			want: core.Track{URI: "spotify:local:x:y:z:1", Title: "Named", Artist: "Known", Artists: []string{"Known"}, Album: "y", Duration: time.Second, Kind: core.KindLocal},
		},
		{
			name: "local without parsable uri",
			item: Item{Kind: ItemLocal, URI: "file:///tmp/a.mp3"},
			want: core.Track{URI: "file:///tmp/a.mp3", Kind: core.KindLocal},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.item.Track())
		})
	}
}

func TestEventKind_String(t *testing.T) {
	assert.Equal(t, "track_changed", EventTrackChanged.String())
	assert.Equal(t, "other", EventKind(99).String())
}
