package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Spotify.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("spotify: %w", err))
	}
	if err := c.Engine.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("engine: %w", err))
	}
	if err := c.TUI.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tui: %w", err))
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}

	return errors.Join(errs...)
}

// Validate checks SpotifyConfig for errors.
func (c *SpotifyConfig) Validate() error {
	if c.RedirectURI == "" {
		return nil
	}
	u, err := url.Parse(c.RedirectURI)
	if err != nil {
		return fmt.Errorf("invalid redirect_uri: %w", err)
	}
	if u.Port() == "" {
		return fmt.Errorf("redirect_uri must include a port: %s", c.RedirectURI)
	}
	return nil
}

// Validate checks EngineConfig for errors.
func (c *EngineConfig) Validate() error {
	var errs []error
	switch c.Bitrate {
	case 0, 96, 160, 320:
	default:
		errs = append(errs, fmt.Errorf("invalid bitrate: %d (must be 96, 160, or 320)", c.Bitrate))
	}
	if c.InitialVolume < 0 || c.InitialVolume > 100 {
		errs = append(errs, errors.New("initial_volume must be between 0 and 100"))
	}
	return errors.Join(errs...)
}

// Validate checks TUIConfig for errors.
func (c *TUIConfig) Validate() error {
	var errs []error
	switch c.Theme {
	case "", "auto", "dark", "light", "latte", "frappe", "macchiato", "mocha":
	default:
		errs = append(errs, fmt.Errorf("invalid theme: %s (must be auto, dark, light, or a catppuccin flavour)", c.Theme))
	}
	if c.RefreshMs < 0 {
		errs = append(errs, errors.New("refresh_ms must be non-negative"))
	}
	if c.PollMs < 0 {
		errs = append(errs, errors.New("poll_ms must be non-negative"))
	}
	return errors.Join(errs...)
}

// Validate checks LogConfig for errors.
func (c *LogConfig) Validate() error {
	switch c.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Level)
	}
	return nil
}
