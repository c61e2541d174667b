package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

// tokenServer answers refresh requests with a fresh access token.
func tokenServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("Failed to parse form: %v", err)
		}
		if r.FormValue("grant_type") != "refresh_token" {
			t.Errorf("grant_type = %q, want refresh_token", r.FormValue("grant_type"))
		}
		if r.FormValue("client_id") != "test_client" {
			t.Errorf("client_id = %q, want test_client", r.FormValue("client_id"))
		}
		if r.FormValue("refresh_token") != "refresh_1" {
			t.Errorf("refresh_token = %q, want refresh_1", r.FormValue("refresh_token"))
		}
		n := calls.Add(1)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "access_" + string(rune('0'+n)),
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(tokenURL string) *Config {
	cfg := NewConfig("test_client", "")
	cfg.OAuth.Endpoint.TokenURL = tokenURL
	return cfg
}

func TestExpiresWithin(t *testing.T) {
	tests := []struct {
		name  string
		token *oauth2.Token
		want  bool
	}{
		{"nil", nil, true},
		{"expired", &oauth2.Token{Expiry: time.Now().Add(-time.Hour)}, true},
		{"inside threshold", &oauth2.Token{Expiry: time.Now().Add(2 * time.Minute)}, true},
		{"valid", &oauth2.Token{Expiry: time.Now().Add(time.Hour)}, false},
		{"no expiry", &oauth2.Token{AccessToken: "a"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpiresWithin(tt.token, RefreshThreshold); got != tt.want {
				t.Errorf("ExpiresWithin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSource_RefreshPersists(t *testing.T) {
	var calls atomic.Int32
	srv := tokenServer(t, &calls)

	storage, _ := NewTokenStorage(filepath.Join(t.TempDir(), "token.json"))
	old := &oauth2.Token{AccessToken: "access_0", RefreshToken: "refresh_1", Expiry: time.Now().Add(time.Minute)}
	src := NewSource(context.Background(), testConfig(srv.URL), storage, old, nil)

	if err := src.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	cur := src.Current()
	if cur.AccessToken != "access_1" {
		t.Errorf("AccessToken = %q, want access_1", cur.AccessToken)
	}
	if cur.RefreshToken != "refresh_1" {
		t.Errorf("RefreshToken = %q, want the previous refresh token", cur.RefreshToken)
	}

	saved, err := storage.Load()
	if err != nil || saved == nil {
		t.Fatalf("Load() = %v, %v", saved, err)
	}
	if saved.AccessToken != "access_1" || saved.RefreshToken != "refresh_1" {
		t.Errorf("saved token = %+v", saved)
	}
}

func TestSource_TokenRefreshesExpired(t *testing.T) {
	var calls atomic.Int32
	srv := tokenServer(t, &calls)

	old := &oauth2.Token{AccessToken: "stale", RefreshToken: "refresh_1", Expiry: time.Now().Add(-time.Hour)}
	src := NewSource(context.Background(), testConfig(srv.URL), nil, old, nil)

	tok, err := src.Token()
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if tok.AccessToken != "access_1" {
		t.Errorf("AccessToken = %q, want access_1", tok.AccessToken)
	}

	// a valid token is reused
	if _, err := src.Token(); err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("token endpoint called %d times, want 1", n)
	}
}

func TestSource_NoRefreshToken(t *testing.T) {
	src := NewSource(context.Background(), testConfig("http://127.0.0.1:1"), nil, &oauth2.Token{AccessToken: "a"}, nil)
	if err := src.Refresh(context.Background()); !errors.Is(err, ErrNoRefreshToken) {
		t.Errorf("Refresh() error = %v, want ErrNoRefreshToken", err)
	}
}

func TestSource_RunRefreshesNearExpiry(t *testing.T) {
	var calls atomic.Int32
	srv := tokenServer(t, &calls)

	old := &oauth2.Token{AccessToken: "access_0", RefreshToken: "refresh_1", Expiry: time.Now().Add(time.Minute)}
	src := NewSource(context.Background(), testConfig(srv.URL), nil, old, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- src.Run(ctx, 10*time.Millisecond, RefreshThreshold) }()

	for src.Current().AccessToken != "access_1" {
		select {
		case <-ctx.Done():
			t.Fatal("refresher never refreshed")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done

	// the fresh token is an hour out, so no further refreshes happen
	if n := calls.Load(); n != 1 {
		t.Errorf("token endpoint called %d times, want 1", n)
	}
}
