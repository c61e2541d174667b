package client

import (
	"context"
	"strconv"
	"strings"
)

// SavedTracksPageSize is the largest page /me/tracks returns.
const SavedTracksPageSize = 50

// maxLibraryIDs is the most ids one library write accepts.
const maxLibraryIDs = 50

// GetCurrentUser returns the current user's profile.
func (c *Client) GetCurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.Get(ctx, "/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetDevices returns the user's available playback devices.
func (c *Client) GetDevices(ctx context.Context) ([]Device, error) {
	var resp DevicesResponse
	if err := c.Get(ctx, "/me/player/devices", &resp); err != nil {
		return nil, err
	}
	return resp.Devices, nil
}

// GetPlaybackState returns the current playback state, or nil when
// nothing is playing on any device.
func (c *Client) GetPlaybackState(ctx context.Context) (*PlaybackState, error) {
	var state *PlaybackState
	path := BuildURL("/me/player", map[string]string{"additional_types": "track,episode"})
	if err := c.Get(ctx, path, &state); err != nil {
		return nil, err
	}
	return state, nil
}

// GetSavedTracks returns one page of the user's liked songs.
func (c *Client) GetSavedTracks(ctx context.Context, offset, limit int) (*SavedTracksPage, error) {
	if limit <= 0 || limit > SavedTracksPageSize {
		limit = SavedTracksPageSize
	}
	params := map[string]string{
		"limit":  strconv.Itoa(limit),
		"offset": strconv.Itoa(offset),
	}

	var page SavedTracksPage
	if err := c.Get(ctx, BuildURL("/me/tracks", params), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// AllSavedTracks pages through the user's liked songs.
func (c *Client) AllSavedTracks(ctx context.Context) ([]SavedTrack, error) {
	var all []SavedTrack
	for offset := 0; ; offset += SavedTracksPageSize {
		page, err := c.GetSavedTracks(ctx, offset, SavedTracksPageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		if page.Next == "" || len(page.Items) == 0 {
			return all, nil
		}
	}
}

// SaveTracks adds track ids to the user's liked songs.
func (c *Client) SaveTracks(ctx context.Context, ids ...string) error {
	return chunked(ids, func(batch []string) error {
		return c.Put(ctx, BuildURL("/me/tracks", map[string]string{"ids": strings.Join(batch, ",")}), nil, nil)
	})
}

// RemoveSavedTracks removes track ids from the user's liked songs.
func (c *Client) RemoveSavedTracks(ctx context.Context, ids ...string) error {
	return chunked(ids, func(batch []string) error {
		return c.Delete(ctx, BuildURL("/me/tracks", map[string]string{"ids": strings.Join(batch, ",")}), nil)
	})
}

func chunked(ids []string, fn func([]string) error) error {
	for len(ids) > 0 {
		n := min(len(ids), maxLibraryIDs)
		if err := fn(ids[:n]); err != nil {
			return err
		}
		ids = ids[n:]
	}
	return nil
}
