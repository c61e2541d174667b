package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := New(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"}),
		WithBaseURL(srv.URL), WithRateLimit(1000, 10))
	c.retryWait = time.Millisecond
	return c
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		params map[string]string
		want   string
	}{
		{"no params", "/me", nil, "/me"},
		{"empty params", "/me", map[string]string{}, "/me"},
		{"single param", "/search", map[string]string{"q": "test"}, "/search?q=test"},
		{"multiple params sorted", "/search", map[string]string{"type": "track", "q": "test"}, "/search?q=test&type=track"},
		{"empty value dropped", "/me/player/pause", map[string]string{"device_id": ""}, "/me/player/pause"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildURL(tt.path, tt.params); got != tt.want {
				t.Errorf("BuildURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAPIError(t *testing.T) {
	err := newAPIError(401, "Invalid access token")

	expected := "Spotify API error 401: Invalid access token"
	if got := err.Error(); got != expected {
		t.Errorf("Error() = %q, want %q", got, expected)
	}
	if got := StatusOf(fmt.Errorf("wrapped: %w", err)); got != 401 {
		t.Errorf("StatusOf() = %d, want 401", got)
	}
}

func TestClient_SendsToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		if r.URL.Path != "/me/player/devices" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(DevicesResponse{Devices: []Device{{ID: "d1", Name: "Kitchen"}}})
	})

	devices, err := c.GetDevices(context.Background())
	if err != nil {
		t.Fatalf("GetDevices() error = %v", err)
	}
	if len(devices) != 1 || devices[0].Name != "Kitchen" {
		t.Errorf("GetDevices() = %+v", devices)
	}
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(User{ID: "me"})
	})

	user, err := c.GetCurrentUser(context.Background())
	if err != nil {
		t.Fatalf("GetCurrentUser() error = %v", err)
	}
	if user.ID != "me" {
		t.Errorf("ID = %q, want me", user.ID)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("calls = %d, want 3", n)
	}
}

func TestClient_GivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	err := c.Next(context.Background(), "")
	if err == nil {
		t.Fatal("Next() should fail")
	}
	if StatusOf(err) != http.StatusServiceUnavailable {
		t.Errorf("StatusOf() = %d, want 503", StatusOf(err))
	}
	if n := calls.Load(); n != maxRetries+1 {
		t.Errorf("calls = %d, want %d", n, maxRetries+1)
	}
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"status":404,"message":"Player command failed: No active device found","reason":"NO_ACTIVE_DEVICE"}}`))
	})

	err := c.Pause(context.Background(), "")
	if err == nil {
		t.Fatal("Pause() should fail")
	}
	if !strings.Contains(err.Error(), "404") || !strings.Contains(err.Error(), "No active device") {
		t.Errorf("error = %q", err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

func TestClient_NonJSONErrorKeepsStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("slow down"))
	})

	err := c.SetVolume(context.Background(), 10, "")
	if StatusOf(err) != http.StatusTooManyRequests {
		t.Errorf("StatusOf() = %d, want 429", StatusOf(err))
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("error = %q should mention the status", err)
	}
}

func TestClient_NothingPlaying(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("additional_types") != "track,episode" {
			t.Errorf("additional_types = %q", r.URL.Query().Get("additional_types"))
		}
		w.WriteHeader(http.StatusNoContent)
	})

	state, err := c.GetPlaybackState(context.Background())
	if err != nil {
		t.Fatalf("GetPlaybackState() error = %v", err)
	}
	if state != nil {
		t.Errorf("GetPlaybackState() = %+v, want nil", state)
	}
}

func TestClient_AcceptedIsFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	err := c.Next(context.Background(), "dev")
	if err == nil || !strings.Contains(strings.ToLower(err.Error()), "player command failed") {
		t.Errorf("Next() error = %v", err)
	}
}

func TestClient_DeviceTargeting(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/me/player/next" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("device_id"); got != "abc" {
			t.Errorf("device_id = %q, want abc", got)
		}
		w.WriteHeader(http.StatusNoContent)
	})

	if err := c.Next(context.Background(), "abc"); err != nil {
		t.Fatalf("Next() error = %v", err)
	}
}

func TestClient_TransferPlayback(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			DeviceIDs []string `json:"device_ids"`
			Play      bool     `json:"play"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		if r.Method != http.MethodPut || len(body.DeviceIDs) != 1 || body.DeviceIDs[0] != "abc" || body.Play {
			t.Errorf("%s body = %+v", r.Method, body)
		}
		w.WriteHeader(http.StatusNoContent)
	})

	if err := c.TransferPlayback(context.Background(), "abc", false); err != nil {
		t.Fatalf("TransferPlayback() error = %v", err)
	}
}

func TestClient_AllSavedTracks(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		page := SavedTracksPage{Limit: SavedTracksPageSize, Total: 3}
		switch r.URL.Query().Get("offset") {
		case "0":
			page.Items = []SavedTrack{{Track: Item{URI: "spotify:track:1"}}, {Track: Item{URI: "spotify:track:2"}}}
			page.Next = "more"
		case "50":
			page.Items = []SavedTrack{{Track: Item{URI: "spotify:track:3"}}}
		default:
			t.Errorf("unexpected offset %q", r.URL.Query().Get("offset"))
		}
		_ = json.NewEncoder(w).Encode(page)
	})

	tracks, err := c.AllSavedTracks(context.Background())
	if err != nil {
		t.Fatalf("AllSavedTracks() error = %v", err)
	}
	if len(tracks) != 3 || tracks[2].Track.URI != "spotify:track:3" {
		t.Errorf("AllSavedTracks() = %+v", tracks)
	}
}

func TestClient_SaveTracksChunks(t *testing.T) {
	var batches []int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/me/tracks" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		batches = append(batches, len(strings.Split(r.URL.Query().Get("ids"), ",")))
		w.WriteHeader(http.StatusOK)
	})

	ids := make([]string, 120)
	for i := range ids {
		ids[i] = fmt.Sprintf("id%d", i)
	}
	if err := c.SaveTracks(context.Background(), ids...); err != nil {
		t.Fatalf("SaveTracks() error = %v", err)
	}
	if fmt.Sprint(batches) != "[50 50 20]" {
		t.Errorf("batches = %v", batches)
	}
}

func TestClient_NotAuthenticated(t *testing.T) {
	c := New(nil)
	if _, err := c.GetDevices(context.Background()); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("GetDevices() error = %v, want ErrNotAuthenticated", err)
	}
}
