package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/tessro/cadence/internal/config"
	"github.com/tessro/cadence/internal/core"
	cerrors "github.com/tessro/cadence/internal/errors"
	"github.com/tessro/cadence/internal/spotify/auth"
	"github.com/tessro/cadence/internal/spotify/client"
	"github.com/tessro/cadence/internal/spotify/player"
)

// Web API request budget shared by every command.
const (
	apiRate  = 10
	apiBurst = 5
)

var errNoClientID = errors.New("spotify.client_id not configured")

// session is an authenticated connection to the Web API.
type session struct {
	storage *auth.TokenStorage
	tokens  *auth.Source
	client  *client.Client
	player  *player.Player
}

func authConfig() (*auth.Config, error) {
	if cfg.Spotify.ClientID == "" {
		return nil, cerrors.WithSuggestion(errNoClientID,
			fmt.Sprintf("Set spotify.client_id in %s or CADENCE_SPOTIFY_CLIENT_ID", config.Path()))
	}
	return auth.NewConfig(cfg.Spotify.ClientID, cfg.Spotify.RedirectURI), nil
}

// newSession loads the stored token and builds a client around it. ctx
// carries the token refreshes for the life of the session.
func newSession(ctx context.Context, logger *log.Logger) (*session, error) {
	ac, err := authConfig()
	if err != nil {
		return nil, err
	}

	storage, err := auth.NewTokenStorage("")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token storage: %w", err)
	}
	tok, err := storage.Load()
	if err != nil {
		return nil, err
	}
	if tok == nil {
		return nil, cerrors.ErrNotAuthenticated
	}

	tokens := auth.NewSource(ctx, ac, storage, tok, logger.WithPrefix("auth"))
	c := client.New(tokens,
		client.WithLogger(logger.WithPrefix("api")),
		client.WithRateLimit(apiRate, apiBurst),
	)
	return &session{
		storage: storage,
		tokens:  tokens,
		client:  c,
		player:  player.New(c),
	}, nil
}

// findDevice matches query against device IDs, then names, then a
// case-insensitive name.
func findDevice(devices []core.Device, query string) *core.Device {
	for i := range devices {
		if devices[i].ID == query {
			return &devices[i]
		}
	}
	if d := core.FindDevice(devices, query); d != nil {
		return d
	}
	for i := range devices {
		if strings.EqualFold(devices[i].Name, query) {
			return &devices[i]
		}
	}
	return nil
}

// target picks the device one-shot commands act on: the explicit device,
// else the active one, else the configured default, which is transferred
// to first.
func (s *session) target(ctx context.Context, explicit string) error {
	devices, err := s.player.GetDevices(ctx)
	if err != nil {
		return err
	}

	if explicit != "" {
		d := findDevice(devices, explicit)
		if d == nil {
			return fmt.Errorf("%w: %s", cerrors.ErrDeviceNotFound, explicit)
		}
		s.player.SetDevice(d.ID)
		return nil
	}

	if core.ActiveDevice(devices) != nil {
		return nil
	}

	if name := cfg.Defaults.Device; name != "" {
		d := findDevice(devices, name)
		if d == nil {
			return cerrors.WithSuggestion(fmt.Errorf("%w: default device %q", cerrors.ErrDeviceNotFound, name),
				"Run 'cadence config set-device' to pick a device that is online")
		}
		if err := s.player.TransferPlayback(ctx, d.ID, false); err != nil {
			return err
		}
		s.player.SetDevice(d.ID)
		return nil
	}

	return cerrors.WithSuggestion(cerrors.ErrNoActiveDevice,
		"Start playing on a device, run 'cadence transfer', or set a default with 'cadence config set-device'")
}
