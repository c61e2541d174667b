package player

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/tessro/cadence/internal/core"
	"github.com/tessro/cadence/internal/spotify/client"
)

// Player implements core.Player on the Spotify Web API.
type Player struct {
	client *client.Client

	mu       sync.RWMutex
	deviceID string
}

// New creates a new Spotify player.
func New(c *client.Client) *Player {
	return &Player{client: c}
}

// Client returns the underlying Web API client.
func (p *Player) Client() *client.Client {
	return p.client
}

// SetDevice sets the target device for playback commands. An empty id
// targets whichever device is active.
func (p *Player) SetDevice(deviceID string) {
	p.mu.Lock()
	p.deviceID = deviceID
	p.mu.Unlock()
}

func (p *Player) device() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.deviceID
}

// Play starts or resumes playback.
func (p *Player) Play(ctx context.Context, opts core.PlayOptions) error {
	return p.client.Play(ctx, p.device(), playOptions(opts))
}

func playOptions(opts core.PlayOptions) *client.PlayOptions {
	if opts.ContextURI == "" && len(opts.URIs) == 0 && opts.Position == 0 {
		return nil
	}
	po := &client.PlayOptions{
		ContextURI: opts.ContextURI,
		URIs:       opts.URIs,
		PositionMS: int(opts.Position.Milliseconds()),
	}
	if opts.OffsetURI != "" {
		po.Offset = &client.PlayOffset{URI: opts.OffsetURI}
	}
	return po
}

// Pause pauses playback.
func (p *Player) Pause(ctx context.Context) error {
	return p.client.Pause(ctx, p.device())
}

// Next skips to the next track.
func (p *Player) Next(ctx context.Context) error {
	return p.client.Next(ctx, p.device())
}

// Prev skips to the previous track.
func (p *Player) Prev(ctx context.Context) error {
	return p.client.Previous(ctx, p.device())
}

// Seek seeks to a position in the current track.
func (p *Player) Seek(ctx context.Context, position time.Duration) error {
	return p.client.Seek(ctx, int(max(0, position.Milliseconds())), p.device())
}

// SetVolume sets the playback volume (0-100).
func (p *Player) SetVolume(ctx context.Context, percent int) error {
	return p.client.SetVolume(ctx, core.ClampVolume(percent), p.device())
}

// SetShuffle turns shuffle on or off.
func (p *Player) SetShuffle(ctx context.Context, on bool) error {
	return p.client.SetShuffle(ctx, on, p.device())
}

// SetRepeat sets the repeat mode.
func (p *Player) SetRepeat(ctx context.Context, mode core.RepeatMode) error {
	return p.client.SetRepeat(ctx, mode.APIState(), p.device())
}

// NextOn skips to the next track on a specific device.
func (p *Player) NextOn(ctx context.Context, deviceID string) error {
	return p.client.Next(ctx, deviceID)
}

// PauseOn pauses a specific device.
func (p *Player) PauseOn(ctx context.Context, deviceID string) error {
	return p.client.Pause(ctx, deviceID)
}

// GetState returns the current playback state, or nil when nothing is
// playing.
func (p *Player) GetState(ctx context.Context) (*core.PlaybackState, error) {
	state, err := p.client.GetPlaybackState(ctx)
	if err != nil || state == nil {
		return nil, err
	}

	repeat, _ := core.ParseRepeatState(state.RepeatState)
	coreState := &core.PlaybackState{
		IsPlaying: state.IsPlaying,
		Progress:  time.Duration(state.ProgressMS) * time.Millisecond,
		Shuffle:   state.ShuffleState,
		Repeat:    repeat,
	}

	if state.Device.VolumePercent != nil {
		coreState.Volume = *state.Device.VolumePercent
	}
	if state.Device.ID != "" || state.Device.Name != "" {
		coreState.Device = convertDevice(&state.Device)
	}
	coreState.Track = convertItem(state.Item)

	return coreState, nil
}

// GetQueue returns the current playback queue. The currently playing
// item is first.
func (p *Player) GetQueue(ctx context.Context) (*core.Queue, error) {
	queue, err := p.client.GetQueue(ctx)
	if err != nil {
		return nil, err
	}

	coreQueue := &core.Queue{
		Tracks: make([]core.Track, 0, len(queue.Queue)+1),
	}
	if t := convertItem(queue.CurrentlyPlaying); t != nil {
		coreQueue.Tracks = append(coreQueue.Tracks, *t)
	}
	for i := range queue.Queue {
		coreQueue.Tracks = append(coreQueue.Tracks, *convertItem(&queue.Queue[i]))
	}
	return coreQueue, nil
}

// AddToQueue adds a track to the playback queue.
func (p *Player) AddToQueue(ctx context.Context, uri string) error {
	return p.client.AddToQueue(ctx, uri, p.device())
}

// TransferPlayback transfers playback to a different device.
func (p *Player) TransferPlayback(ctx context.Context, deviceID string, play bool) error {
	return p.client.TransferPlayback(ctx, deviceID, play)
}

// GetDevices returns the user's available playback devices.
func (p *Player) GetDevices(ctx context.Context) ([]core.Device, error) {
	devices, err := p.client.GetDevices(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]core.Device, len(devices))
	for i := range devices {
		result[i] = *convertDevice(&devices[i])
	}
	return result, nil
}

// SavedTrack is a liked song with the time it was saved.
type SavedTrack struct {
	URI     string
	AddedAt time.Time
}

// SavedTracks returns all of the user's liked songs.
func (p *Player) SavedTracks(ctx context.Context) ([]SavedTrack, error) {
	saved, err := p.client.AllSavedTracks(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]SavedTrack, 0, len(saved))
	for _, s := range saved {
		if s.Track.URI == "" {
			continue
		}
		added, _ := time.Parse(time.RFC3339, s.AddedAt)
		out = append(out, SavedTrack{URI: s.Track.URI, AddedAt: added})
	}
	return out, nil
}

// SetLiked saves or removes a track from the user's liked songs.
func (p *Player) SetLiked(ctx context.Context, uri string, liked bool) error {
	id := TrackID(uri)
	if id == "" {
		return nil
	}
	if liked {
		return p.client.SaveTracks(ctx, id)
	}
	return p.client.RemoveSavedTracks(ctx, id)
}

// TrackID returns the id of a spotify:track: URI, or "" for any other URI.
func TrackID(uri string) string {
	id, ok := strings.CutPrefix(uri, "spotify:track:")
	if !ok {
		return ""
	}
	return id
}

// convertItem converts a track or episode to a core track.
func convertItem(it *client.Item) *core.Track {
	if it == nil {
		return nil
	}

	t := &core.Track{
		ID:       it.ID,
		URI:      it.URI,
		Title:    it.Name,
		Album:    it.Album.Name,
		Duration: time.Duration(it.DurationMS) * time.Millisecond,
		Kind:     core.KindTrack,
	}

	for _, a := range it.Artists {
		t.Artists = append(t.Artists, a.Name)
	}

	switch {
	case it.Type == "episode":
		t.Kind = core.KindEpisode
		t.Album = core.PodcastAlbum
		if it.Show != nil {
			t.Artists = []string{it.Show.Name}
		}
	case it.IsLocal || strings.HasPrefix(it.URI, "spotify:local:"):
		t.Kind = core.KindLocal
	}

	if len(t.Artists) > 0 {
		t.Artist = t.Artists[0]
	}
	return t
}

// convertDevice converts a Spotify device to a core device.
func convertDevice(d *client.Device) *core.Device {
	if d == nil {
		return nil
	}

	deviceType := core.DeviceType(strings.ToLower(d.Type))
	switch d.Type {
	case "Computer":
		deviceType = core.DeviceTypeComputer
	case "Smartphone":
		deviceType = core.DeviceTypePhone
	case "Speaker", "AVR", "CastAudio":
		deviceType = core.DeviceTypeSpeaker
	case "TV", "CastVideo":
		deviceType = core.DeviceTypeTV
	}

	return &core.Device{
		ID:           d.ID,
		Name:         d.Name,
		Type:         deviceType,
		IsActive:     d.IsActive,
		IsRestricted: d.IsRestricted,
		Volume:       d.VolumePercent,
	}
}

var _ core.Player = (*Player)(nil)
