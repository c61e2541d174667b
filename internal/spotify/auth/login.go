package auth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
)

// Login runs the PKCE authorization flow. It serves the redirect URI,
// passes the authorization URL to open and exchanges the code that comes
// back. ctx bounds the whole flow.
func Login(ctx context.Context, cfg *Config, open func(authURL string) error) (*oauth2.Token, error) {
	addr, path, err := cfg.CallbackAddr()
	if err != nil {
		return nil, err
	}

	state, err := NewState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state: %w", err)
	}
	verifier := oauth2.GenerateVerifier()

	cs, err := NewCallbackServer(addr, path)
	if err != nil {
		return nil, fmt.Errorf("failed to start callback server: %w", err)
	}
	cs.Start()
	defer func() { _ = cs.Shutdown(context.Background()) }()

	if err := open(cfg.AuthURL(state, verifier)); err != nil {
		return nil, err
	}

	result, err := cs.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("authentication timed out: %w", err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("authentication failed: %s", result.Error)
	}
	if result.State != state {
		return nil, fmt.Errorf("state mismatch: possible CSRF attack")
	}

	return cfg.Exchange(ctx, result.Code, verifier)
}
