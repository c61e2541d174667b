package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
)

const (
	// RefreshCheckInterval is how often the refresher looks at the token.
	RefreshCheckInterval = 60 * time.Second

	// RefreshThreshold is how close to expiry a token is refreshed.
	RefreshThreshold = 5 * time.Minute
)

// ErrNoRefreshToken is returned when a refresh is needed but the stored
// token cannot be refreshed.
var ErrNoRefreshToken = errors.New("no refresh token")

// ExpiresWithin reports whether t is missing or expires within d. Tokens
// without an expiry never expire.
func ExpiresWithin(t *oauth2.Token, d time.Duration) bool {
	if t == nil {
		return true
	}
	if t.Expiry.IsZero() {
		return false
	}
	return time.Until(t.Expiry) < d
}

// Source is an oauth2.TokenSource that persists every new token it
// obtains. It is shared by the Web API client and the local engine.
type Source struct {
	ctx     context.Context
	cfg     *Config
	storage *TokenStorage
	log     *log.Logger

	mu    sync.Mutex
	token *oauth2.Token
	base  oauth2.TokenSource
}

// NewSource wraps tok. ctx supplies the HTTP client used for refreshes
// (see oauth2.HTTPClient).
func NewSource(ctx context.Context, cfg *Config, storage *TokenStorage, tok *oauth2.Token, logger *log.Logger) *Source {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Source{
		ctx:     ctx,
		cfg:     cfg,
		storage: storage,
		log:     logger,
		token:   tok,
		base:    cfg.OAuth.TokenSource(ctx, tok),
	}
}

// Token returns a valid token, refreshing it when it has expired.
func (s *Source) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	base := s.base
	s.mu.Unlock()

	t, err := base.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	s.store(t)
	return t, nil
}

// Current returns the last known token without refreshing.
func (s *Source) Current() *oauth2.Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Refresh exchanges the refresh token for a new access token now.
func (s *Source) Refresh(ctx context.Context) error {
	s.mu.Lock()
	var rt string
	if s.token != nil {
		rt = s.token.RefreshToken
	}
	s.mu.Unlock()
	if rt == "" {
		return ErrNoRefreshToken
	}

	t, err := s.cfg.OAuth.TokenSource(ctx, &oauth2.Token{RefreshToken: rt}).Token()
	if err != nil {
		return fmt.Errorf("failed to refresh token: %w", err)
	}
	if t.RefreshToken == "" {
		t.RefreshToken = rt
	}

	s.mu.Lock()
	s.base = s.cfg.OAuth.TokenSource(s.ctx, t)
	s.mu.Unlock()
	s.store(t)
	return nil
}

func (s *Source) store(t *oauth2.Token) {
	s.mu.Lock()
	if s.token != nil && s.token.AccessToken == t.AccessToken {
		s.mu.Unlock()
		return
	}
	if s.token != nil && t.RefreshToken == "" {
		t.RefreshToken = s.token.RefreshToken
	}
	s.token = t
	s.mu.Unlock()

	s.log.Debug("token refreshed", "expiry", t.Expiry)
	if s.storage == nil {
		return
	}
	if err := s.storage.Save(t); err != nil {
		s.log.Warn("failed to save token", "err", err)
	}
}

// Run refreshes the token whenever it gets within threshold of expiry,
// checking every interval, until ctx is cancelled.
func (s *Source) Run(ctx context.Context, interval, threshold time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if !ExpiresWithin(s.Current(), threshold) {
				continue
			}
			if err := s.Refresh(ctx); err != nil {
				s.log.Warn("background token refresh failed", "err", err)
			}
		}
	}
}
