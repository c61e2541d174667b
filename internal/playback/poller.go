package playback

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mitchellh/hashstructure/v2"

	"github.com/tessro/cadence/internal/core"
)

// StateSource is the part of the Web API the poller reads from.
type StateSource interface {
	GetState(ctx context.Context) (*core.PlaybackState, error)
	Next(ctx context.Context) error
}

// remoteSettings is the slice of remote state that maps onto
// PlaybackSettings. Its hash tells the poller when to write.
type remoteSettings struct {
	Device  string
	Shuffle bool
	Repeat  core.RepeatMode
	Volume  int
}

// Poller reconciles State against the remote service while a remote
// device is the active source. While the local engine is active its events
// are authoritative, and the poller only checks every handoverEvery ticks
// whether playback has moved to another device. Two such sightings in a row
// hand the state back to the poller.
type Poller struct {
	source   StateSource
	state    *State
	skips    *SkipSet
	handle   *Handle
	interval time.Duration
	log      *log.Logger

	handoverEvery int
	// touched only by the Start goroutine
	localTicks int
	elsewhere  int

	onTrackChange func(core.Track)

	mu         sync.Mutex
	lastHash   uint64
	skippedURI string

	done     chan struct{}
	stopOnce sync.Once
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// PollEvery sets the poll interval.
func PollEvery(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// PollHandoverEvery sets how many ticks pass between handover checks while
// the local engine is active.
func PollHandoverEvery(n int) PollerOption {
	return func(p *Poller) {
		if n > 0 {
			p.handoverEvery = n
		}
	}
}

// PollLogger sets the logger.
func PollLogger(l *log.Logger) PollerOption {
	return func(p *Poller) { p.log = l }
}

// PollOnTrackChange registers fn to run after a remote track change is
// committed.
func PollOnTrackChange(fn func(core.Track)) PollerOption {
	return func(p *Poller) { p.onTrackChange = fn }
}

// NewPoller creates a Poller. The default interval is one second.
func NewPoller(source StateSource, state *State, skips *SkipSet, handle *Handle, opts ...PollerOption) *Poller {
	p := &Poller{
		source:   source,
		state:    state,
		skips:    skips,
		handle:   handle,
		interval: time.Second,
		log:      log.New(io.Discard),
		done:     make(chan struct{}),

		handoverEvery: 5,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start polls until ctx is cancelled or Stop is called.
func (p *Poller) Start(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.done:
			return nil
		case <-ticker.C:
			if p.state.ShouldQuit() {
				continue
			}
			if p.handle.IsActive() {
				p.localTicks++
				if p.localTicks < p.handoverEvery {
					continue
				}
				p.localTicks = 0
				if err := p.checkHandover(ctx); err != nil {
					p.log.Debug("handover check failed", "err", err)
				}
				continue
			}
			p.localTicks = 0
			p.elsewhere = 0
			if err := p.Refresh(ctx); err != nil {
				p.log.Debug("poll failed", "err", err)
			}
		}
	}
}

// Stop stops the poller.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.done) })
}

// Refresh fetches the remote state once and reconciles it, whichever
// source is active.
func (p *Poller) Refresh(ctx context.Context) error {
	remote, err := p.source.GetState(ctx)
	if err != nil {
		return err
	}
	p.reconcile(remote)
	return nil
}

// checkHandover looks for another device playing while the local engine
// believes it is the sink, as when the user moves playback from a phone.
func (p *Poller) checkHandover(ctx context.Context) error {
	remote, err := p.source.GetState(ctx)
	if err != nil {
		return err
	}
	engine := p.handle.Engine()
	if engine == nil || remote == nil || remote.Device == nil || remote.Device.Name == engine.DeviceName() {
		p.elsewhere = 0
		return nil
	}

	// a transfer onto the local engine may still be landing
	p.elsewhere++
	if p.elsewhere < 2 {
		return nil
	}
	p.elsewhere = 0

	p.log.Info("playback moved to another device", "device", remote.Device.Name, "local", engine.DeviceName())
	p.handle.SetActive(false)
	p.reconcile(remote)
	return nil
}

func (p *Poller) reconcile(remote *core.PlaybackState) {
	if !remote.HasTrack() {
		if p.state.IsPlaying() {
			p.state.SetPlaying(false)
		}
		return
	}

	track := *remote.Track
	if cur := p.state.Track(); cur == nil || cur.URI != track.URI {
		p.mu.Lock()
		pending := p.skippedURI == track.URI
		p.mu.Unlock()
		if pending {
			// the skip request has not landed yet
			return
		}

		skipped := commitOrSkip(p.state, p.skips, track, p.source.Next, p.log)
		p.mu.Lock()
		p.skippedURI = ""
		if skipped {
			p.skippedURI = track.URI
		}
		p.mu.Unlock()
		if skipped {
			return
		}
		p.log.Info("remote track changed", "track", track.Title, "artist", track.Artist, "uri", track.URI)
		if p.onTrackChange != nil {
			go p.onTrackChange(track)
		}
	}

	p.state.UpdatePosition(clampMs(remote.Progress), remote.IsPlaying)
	p.applySettings(remote)
}

func (p *Poller) applySettings(remote *core.PlaybackState) {
	rs := remoteSettings{
		Shuffle: remote.Shuffle,
		Repeat:  remote.Repeat,
		Volume:  -1,
	}
	if remote.Device != nil {
		rs.Device = remote.Device.Name
		if remote.Device.Volume != nil {
			rs.Volume = *remote.Device.Volume
		}
	}

	h, err := hashstructure.Hash(rs, hashstructure.FormatV2, nil)
	if err != nil {
		p.log.Warn("failed to hash remote settings", "err", err)
	}
	p.mu.Lock()
	unchanged := err == nil && h == p.lastHash
	p.lastHash = h
	p.mu.Unlock()
	if unchanged {
		return
	}

	p.state.UpdateSettings(func(s *core.PlaybackSettings) {
		s.Shuffle = rs.Shuffle
		s.Repeat = rs.Repeat
		if rs.Volume >= 0 {
			s.Volume = rs.Volume
		}
		if rs.Device != "" {
			s.DeviceName = rs.Device
		}
	})
}

func clampMs(d time.Duration) uint32 {
	ms := d.Milliseconds()
	switch {
	case ms < 0:
		return 0
	case ms > int64(^uint32(0)):
		return ^uint32(0)
	}
	return uint32(ms)
}
