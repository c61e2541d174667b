package core

import (
	"context"
	"time"
)

// PlayOptions selects what to start playing. An empty value resumes the
// current context.
type PlayOptions struct {
	ContextURI string
	URIs       []string
	OffsetURI  string
	Position   time.Duration
}

// Player is the remote control surface of the streaming service.
type Player interface {
	GetState(ctx context.Context) (*PlaybackState, error)
	GetDevices(ctx context.Context) ([]Device, error)
	GetQueue(ctx context.Context) (*Queue, error)

	Play(ctx context.Context, opts PlayOptions) error
	Pause(ctx context.Context) error
	Next(ctx context.Context) error
	Prev(ctx context.Context) error
	Seek(ctx context.Context, position time.Duration) error

	SetVolume(ctx context.Context, percent int) error
	SetShuffle(ctx context.Context, on bool) error
	SetRepeat(ctx context.Context, mode RepeatMode) error

	TransferPlayback(ctx context.Context, deviceID string, play bool) error
	AddToQueue(ctx context.Context, uri string) error
}
