package librespot

import (
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessro/cadence/internal/playback"
)

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestMessageFromEnv(t *testing.T) {
	msg := MessageFromEnv(envOf(map[string]string{
		"PLAYER_EVENT": "track_changed",
		"TRACK_ID":     "abc",
		"URI":          "spotify:track:abc",
		"NAME":         "Song",
		"ARTISTS":      "First\nSecond\n",
		"ALBUM":        "LP",
		"ITEM_TYPE":    "Track",
		"DURATION_MS":  "215000",
		"POSITION_MS":  "garbage",
	}))

	assert.Equal(t, HookMessage{
		PlayerEvent: "track_changed",
		TrackID:     "abc",
		URI:         "spotify:track:abc",
		Name:        "Song",
		Artists:     []string{"First", "Second"},
		Album:       "LP",
		ItemType:    "Track",
		DurationMs:  215000,
	}, msg)
}

func TestHookMessage_Event(t *testing.T) {
	tests := []struct {
		event string
		kind  playback.EventKind
	}{
		{"loading", playback.EventLoading},
		{"playing", playback.EventPlaying},
		{"paused", playback.EventPaused},
		{"position_correction", playback.EventPositionChanged},
		{"seeked", playback.EventSeeked},
		{"stopped", playback.EventStopped},
		{"end_of_track", playback.EventEndOfTrack},
		{"track_changed", playback.EventTrackChanged},
		{"volume_changed", playback.EventOther},
		{"session_connected", playback.EventOther},
	}

	for _, tt := range tests {
		t.Run(tt.event, func(t *testing.T) {
			ev := HookMessage{PlayerEvent: tt.event, PositionMs: 1200}.Event()
			assert.Equal(t, tt.kind, ev.Kind)
			assert.Equal(t, uint32(1200), ev.PositionMs)
			assert.Equal(t, tt.event, ev.Name)
		})
	}
}

func TestHookMessage_Items(t *testing.T) {
	ep := HookMessage{PlayerEvent: "track_changed", TrackID: "e1", ItemType: "Episode", ShowName: "Show"}.Event()
	require.NotNil(t, ep.Item)
	assert.Equal(t, playback.ItemEpisode, ep.Item.Kind)
	assert.Equal(t, "spotify:episode:e1", ep.Item.URI)
	assert.Equal(t, "Show", ep.Item.Track().Artist)

	local := HookMessage{PlayerEvent: "track_changed", URI: "spotify:local:A:B:C:10"}.Event()
	assert.Equal(t, playback.ItemLocal, local.Item.Kind)

	track := HookMessage{PlayerEvent: "track_changed", TrackID: "t1"}.Event()
	assert.Equal(t, "spotify:track:t1", track.Item.URI)
}

// shortDir returns a directory whose path fits a Unix socket name.
func shortDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "cad")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return dir
}

func TestEventServer_DeliversInOrder(t *testing.T) {
	path := filepath.Join(shortDir(t), "ev.sock")
	srv, err := listenEvents(path, log.New(io.Discard))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, name := range []string{"playing", "paused", "seeked"} {
		require.NoError(t, SendHook(ctx, path, HookMessage{PlayerEvent: name, PositionMs: 10}))
	}

	var got []playback.EventKind
	for range 3 {
		select {
		case ev := <-srv.events:
			got = append(got, ev.Kind)
		case <-ctx.Done():
			t.Fatal("timed out waiting for events")
		}
	}
	assert.Equal(t, []playback.EventKind{playback.EventPlaying, playback.EventPaused, playback.EventSeeked}, got)

	require.NoError(t, srv.Close())
	_, open := <-srv.events
	assert.False(t, open, "channel should be closed")
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "socket should be removed")
}

func TestEventServer_CloseWithIdleConnection(t *testing.T) {
	path := filepath.Join(shortDir(t), "ev.sock")
	srv, err := listenEvents(path, log.New(io.Discard))
	require.NoError(t, err)

	conn, err := net.Dial("unix", path)
	require.NoError(t, err)
	defer conn.Close()

	// give the accept loop a moment to register the connection
	time.Sleep(50 * time.Millisecond)

	closed := make(chan struct{})
	go func() {
		_ = srv.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close blocked on an idle hook connection")
	}
}

func TestEventServer_SkipsBadLines(t *testing.T) {
	path := filepath.Join(shortDir(t), "ev.sock")
	srv, err := listenEvents(path, log.New(io.Discard))
	require.NoError(t, err)
	defer srv.Close()

	conn, err := net.Dial("unix", path)
	require.NoError(t, err)
	_, err = conn.Write([]byte("not json\n{\"player_event\":\"stopped\"}\n"))
	require.NoError(t, err)
	_ = conn.Close()

	select {
	case ev := <-srv.events:
		assert.Equal(t, playback.EventStopped, ev.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}
}

func TestSendHook_NoEngine(t *testing.T) {
	err := SendHook(context.Background(), filepath.Join(shortDir(t), "missing.sock"), HookMessage{PlayerEvent: "playing"})
	assert.Error(t, err)
}
