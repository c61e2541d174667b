package auth

import (
	"net/url"
	"strings"
	"testing"

	"golang.org/x/oauth2"
)

func TestAuthURL(t *testing.T) {
	cfg := NewConfig("test_client_id", "http://localhost:8888/callback")
	cfg.OAuth.Scopes = []string{"user-read-private", "user-read-email"}

	verifier := oauth2.GenerateVerifier()
	authURL := cfg.AuthURL("test_state", verifier)

	u, err := url.Parse(authURL)
	if err != nil {
		t.Fatalf("AuthURL() produced invalid URL: %v", err)
	}

	if u.Scheme != "https" || u.Host != "accounts.spotify.com" || u.Path != "/authorize" {
		t.Errorf("AuthURL() base URL = %s://%s%s, want https://accounts.spotify.com/authorize",
			u.Scheme, u.Host, u.Path)
	}

	q := u.Query()
	tests := []struct {
		param string
		want  string
	}{
		{"client_id", "test_client_id"},
		{"response_type", "code"},
		{"redirect_uri", "http://localhost:8888/callback"},
		{"code_challenge_method", "S256"},
		{"code_challenge", oauth2.S256ChallengeFromVerifier(verifier)},
		{"state", "test_state"},
		{"scope", "user-read-private user-read-email"},
	}

	for _, tt := range tests {
		if got := q.Get(tt.param); got != tt.want {
			t.Errorf("AuthURL() %s = %q, want %q", tt.param, got, tt.want)
		}
	}
}

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig("id", "")

	if cfg.OAuth.RedirectURL != DefaultRedirectURI {
		t.Errorf("RedirectURL = %q, want %q", cfg.OAuth.RedirectURL, DefaultRedirectURI)
	}
	if cfg.OAuth.ClientSecret != "" {
		t.Error("PKCE config must not carry a client secret")
	}
	if cfg.OAuth.Endpoint.AuthStyle != oauth2.AuthStyleInParams {
		t.Error("client id should be sent in params")
	}

	scopes := strings.Join(cfg.OAuth.Scopes, " ")
	for _, want := range []string{"streaming", "user-library-modify", "user-modify-playback-state"} {
		if !strings.Contains(scopes, want) {
			t.Errorf("default scopes missing %q", want)
		}
	}
}

func TestCallbackAddr(t *testing.T) {
	tests := []struct {
		name     string
		redirect string
		addr     string
		path     string
		wantErr  bool
	}{
		{"default", DefaultRedirectURI, "127.0.0.1:8888", "/callback", false},
		{"root path", "http://localhost:9000", "localhost:9000", "/", false},
		{"no port", "http://localhost/callback", "", "", true},
		{"garbage", "://", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, path, err := NewConfig("id", tt.redirect).CallbackAddr()
			if (err != nil) != tt.wantErr {
				t.Fatalf("CallbackAddr() error = %v, wantErr %v", err, tt.wantErr)
			}
			if addr != tt.addr || path != tt.path {
				t.Errorf("CallbackAddr() = %q, %q, want %q, %q", addr, path, tt.addr, tt.path)
			}
		})
	}
}

func TestNewState(t *testing.T) {
	a, err := NewState()
	if err != nil {
		t.Fatalf("NewState() error = %v", err)
	}
	b, _ := NewState()
	if a == b {
		t.Error("NewState() returned the same value twice")
	}
	if len(a) < 32 {
		t.Errorf("NewState() = %q, too short", a)
	}
}
