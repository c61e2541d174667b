package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessro/cadence/internal/core"
)

func TestNormalizeURI(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"spotify:track:abc", "spotify:track:abc", false},
		{" spotify:album:xyz ", "spotify:album:xyz", false},
		{"spotify:user:bob:playlist:p1", "spotify:user:bob:playlist:p1", false},
		{"https://open.spotify.com/track/abc?si=123", "spotify:track:abc", false},
		{"https://open.spotify.com/intl-de/album/xyz", "spotify:album:xyz", false},
		{"https://open.spotify.com/episode/e1/", "spotify:episode:e1", false},
		{"spotify:track:", "", true},
		{"spotify:song:abc", "", true},
		{"https://example.com/track/abc", "", true},
		{"https://open.spotify.com/genre/pop", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := normalizeURI(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlayOptions(t *testing.T) {
	opts, err := playOptions("spotify:track:a", "")
	require.NoError(t, err)
	assert.Equal(t, core.PlayOptions{URIs: []string{"spotify:track:a"}}, opts)

	opts, err = playOptions("spotify:album:x", "https://open.spotify.com/track/b")
	require.NoError(t, err)
	assert.Equal(t, core.PlayOptions{ContextURI: "spotify:album:x", OffsetURI: "spotify:track:b"}, opts)

	_, err = playOptions("spotify:episode:e", "spotify:track:b")
	assert.Error(t, err, "single items take no offset")
}
