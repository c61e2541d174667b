package client

import (
	"context"
	"strconv"
)

// PlayOptions configures a play request.
type PlayOptions struct {
	ContextURI string      `json:"context_uri,omitempty"`
	URIs       []string    `json:"uris,omitempty"`
	Offset     *PlayOffset `json:"offset,omitempty"`
	PositionMS int         `json:"position_ms,omitempty"`
}

// PlayOffset specifies where to start playback in a context.
type PlayOffset struct {
	Position int    `json:"position,omitempty"` // Track index
	URI      string `json:"uri,omitempty"`      // Track URI
}

func devicePath(path, deviceID string) string {
	return BuildURL(path, map[string]string{"device_id": deviceID})
}

// Play starts or resumes playback. A nil opts resumes the current
// context. An empty deviceID targets the active device.
func (c *Client) Play(ctx context.Context, deviceID string, opts *PlayOptions) error {
	// the endpoint wants a JSON body even for a plain resume
	body := opts
	if body == nil {
		body = &PlayOptions{}
	}
	return c.Put(ctx, devicePath("/me/player/play", deviceID), body, nil)
}

// Pause pauses playback.
func (c *Client) Pause(ctx context.Context, deviceID string) error {
	return c.Put(ctx, devicePath("/me/player/pause", deviceID), nil, nil)
}

// Next skips to the next track.
func (c *Client) Next(ctx context.Context, deviceID string) error {
	return c.Post(ctx, devicePath("/me/player/next", deviceID), nil, nil)
}

// Previous skips to the previous track.
func (c *Client) Previous(ctx context.Context, deviceID string) error {
	return c.Post(ctx, devicePath("/me/player/previous", deviceID), nil, nil)
}

// Seek seeks to a position in the current track.
func (c *Client) Seek(ctx context.Context, positionMs int, deviceID string) error {
	return c.Put(ctx, BuildURL("/me/player/seek", map[string]string{
		"position_ms": strconv.Itoa(positionMs),
		"device_id":   deviceID,
	}), nil, nil)
}

// SetVolume sets the playback volume (0-100).
func (c *Client) SetVolume(ctx context.Context, percent int, deviceID string) error {
	return c.Put(ctx, BuildURL("/me/player/volume", map[string]string{
		"volume_percent": strconv.Itoa(percent),
		"device_id":      deviceID,
	}), nil, nil)
}

// SetRepeat sets the repeat mode (off, track, context).
func (c *Client) SetRepeat(ctx context.Context, state string, deviceID string) error {
	return c.Put(ctx, BuildURL("/me/player/repeat", map[string]string{
		"state":     state,
		"device_id": deviceID,
	}), nil, nil)
}

// SetShuffle sets the shuffle mode.
func (c *Client) SetShuffle(ctx context.Context, state bool, deviceID string) error {
	return c.Put(ctx, BuildURL("/me/player/shuffle", map[string]string{
		"state":     strconv.FormatBool(state),
		"device_id": deviceID,
	}), nil, nil)
}

// GetQueue returns the user's playback queue.
func (c *Client) GetQueue(ctx context.Context) (*Queue, error) {
	var queue Queue
	if err := c.Get(ctx, "/me/player/queue", &queue); err != nil {
		return nil, err
	}
	return &queue, nil
}

// AddToQueue adds a track to the playback queue.
func (c *Client) AddToQueue(ctx context.Context, uri string, deviceID string) error {
	return c.Post(ctx, BuildURL("/me/player/queue", map[string]string{
		"uri":       uri,
		"device_id": deviceID,
	}), nil, nil)
}

// TransferPlayback transfers playback to a different device.
func (c *Client) TransferPlayback(ctx context.Context, deviceID string, play bool) error {
	body := map[string]any{
		"device_ids": []string{deviceID},
		"play":       play,
	}
	return c.Put(ctx, "/me/player", body, nil)
}
