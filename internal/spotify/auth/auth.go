package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/url"

	"golang.org/x/oauth2"
)

const (
	// SpotifyAuthURL is the Spotify authorization endpoint.
	SpotifyAuthURL = "https://accounts.spotify.com/authorize"

	// SpotifyTokenURL is the Spotify token endpoint.
	SpotifyTokenURL = "https://accounts.spotify.com/api/token"

	// DefaultRedirectURI is the default callback URI for the local server.
	DefaultRedirectURI = "http://127.0.0.1:8888/callback"
)

// DefaultScopes are the Spotify scopes cadence needs. The streaming scope
// lets the local engine register as a Connect device.
var DefaultScopes = []string{
	"user-read-playback-state",
	"user-modify-playback-state",
	"user-read-currently-playing",
	"user-read-private",
	"user-read-email",
	"user-library-read",
	"user-library-modify",
	"streaming",
}

// Endpoint is Spotify's OAuth endpoint. Spotify PKCE clients send the
// client id in the form body.
var Endpoint = oauth2.Endpoint{
	AuthURL:   SpotifyAuthURL,
	TokenURL:  SpotifyTokenURL,
	AuthStyle: oauth2.AuthStyleInParams,
}

// Config holds the OAuth configuration for a public (secretless) client.
type Config struct {
	OAuth *oauth2.Config
}

// NewConfig creates an OAuth configuration with the default scopes. An
// empty redirectURI selects DefaultRedirectURI.
func NewConfig(clientID, redirectURI string) *Config {
	if redirectURI == "" {
		redirectURI = DefaultRedirectURI
	}
	return &Config{
		OAuth: &oauth2.Config{
			ClientID:    clientID,
			RedirectURL: redirectURI,
			Scopes:      DefaultScopes,
			Endpoint:    Endpoint,
		},
	}
}

// AuthURL returns the authorization URL for a PKCE login.
func (c *Config) AuthURL(state, verifier string) string {
	return c.OAuth.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

// Exchange trades an authorization code for a token.
func (c *Config) Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error) {
	tok, err := c.OAuth.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	return tok, nil
}

// CallbackAddr returns the host:port and path the callback server must
// serve for the configured redirect URI.
func (c *Config) CallbackAddr() (addr, path string, err error) {
	u, err := url.Parse(c.OAuth.RedirectURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid redirect uri: %w", err)
	}
	if u.Port() == "" {
		return "", "", fmt.Errorf("redirect uri %q has no port", c.OAuth.RedirectURL)
	}
	path = u.Path
	if path == "" {
		path = "/"
	}
	return u.Host, path, nil
}

// NewState returns a random state parameter for CSRF protection.
func NewState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
