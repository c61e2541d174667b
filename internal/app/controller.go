// Package app wires the playback engine to the Spotify collaborators and
// exposes the commands the TUI and CLI issue.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tessro/cadence/internal/core"
	cerrors "github.com/tessro/cadence/internal/errors"
	"github.com/tessro/cadence/internal/library"
	"github.com/tessro/cadence/internal/playback"
	"github.com/tessro/cadence/internal/spotify/player"
)

const (
	// shuffleSettle gives the service time to reorder the queue before it
	// is fetched again.
	shuffleSettle = 250 * time.Millisecond
	// selectSettle lets Connect see a freshly activated local engine.
	selectSettle = 500 * time.Millisecond
)

// ErrNoTrackID is returned when liking an item that has no track id.
var ErrNoTrackID = errors.New("cannot like/unlike: track has no ID")

// Remote is the Web API surface the controller drives.
type Remote interface {
	core.Player
	SavedTracks(ctx context.Context) ([]player.SavedTrack, error)
	SetLiked(ctx context.Context, uri string, liked bool) error
}

// TokenRefresher keeps the access token fresh until ctx is cancelled.
type TokenRefresher interface {
	Run(ctx context.Context, interval, threshold time.Duration) error
}

// Options configures a Controller. Remote is required; everything else may
// be left zero.
type Options struct {
	Remote Remote
	// Factory creates the local engine. Nil runs remote-only.
	Factory playback.EngineFactory
	Likes   *library.Likes
	Tokens  TokenRefresher

	RefreshInterval  time.Duration
	RefreshThreshold time.Duration
	PollInterval     time.Duration
	Arbitrator       *playback.ArbitratorOptions
	Logger           *log.Logger
}

// View is everything the UI renders in one frame.
type View struct {
	playback.Snapshot
	LocalActive bool
	Queue       *core.Queue
	Devices     []core.Device
	Error       string
}

// Controller owns the shared playback state and runs user commands
// against it.
type Controller struct {
	remote  Remote
	factory playback.EngineFactory
	likes   *library.Likes
	tokens  TokenRefresher
	log     *log.Logger

	refreshInterval  time.Duration
	refreshThreshold time.Duration

	state        *playback.State
	skips        *playback.SkipSet
	handle       *playback.Handle
	synchronizer *playback.Synchronizer
	arbitrator   *playback.Arbitrator
	poller       *playback.Poller

	mu      sync.RWMutex
	queue   *core.Queue
	devices []core.Device

	// queueHidden is set while the UI covers the queue panel. A track
	// change in that time marks the queue stale instead of fetching it.
	queueHidden atomic.Bool
	queueStale  atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc

	// bgMu orders wg.Add against the wg.Wait in Shutdown.
	bgMu   sync.Mutex
	closed bool
	wg     sync.WaitGroup

	shutdownOnce sync.Once
}

// New creates a Controller. Call Initialize before issuing commands.
func New(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	arbOpts := playback.DefaultArbitratorOptions()
	if opts.Arbitrator != nil {
		arbOpts = *opts.Arbitrator
	}

	c := &Controller{
		remote:           opts.Remote,
		factory:          opts.Factory,
		likes:            opts.Likes,
		tokens:           opts.Tokens,
		log:              logger,
		refreshInterval:  opts.RefreshInterval,
		refreshThreshold: opts.RefreshThreshold,
		state:            playback.NewState(),
		skips:            playback.NewSkipSet(),
		handle:           playback.NewHandle(),
	}
	if c.refreshInterval <= 0 {
		c.refreshInterval = time.Minute
	}
	if c.refreshThreshold <= 0 {
		c.refreshThreshold = 5 * time.Minute
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())

	onTrack := func(core.Track) { c.queueChanged() }
	c.synchronizer = playback.NewSynchronizer(c.state, c.skips, c.handle,
		playback.WithLogger(logger.WithPrefix("events")),
		playback.OnTrackChange(onTrack))
	c.arbitrator = playback.NewArbitrator(opts.Remote, opts.Factory, c.handle,
		c.synchronizer, c.state, arbOpts, logger.WithPrefix("device"))
	c.poller = playback.NewPoller(opts.Remote, c.state, c.skips, c.handle,
		playback.PollEvery(opts.PollInterval),
		playback.PollLogger(logger.WithPrefix("poll")),
		playback.PollOnTrackChange(onTrack))
	return c
}

// Initialize starts the background work: the local engine in its dormant
// state, the remote poller and the token refresh loop. It then pulls the
// current playback once and refreshes devices, queue and liked songs in
// the background.
func (c *Controller) Initialize(ctx context.Context) {
	if c.factory != nil {
		c.goBackground(func(ctx context.Context) {
			if err := c.arbitrator.Boot(ctx); err != nil {
				c.log.Warn("local engine unavailable", "err", err)
			}
		})
	}
	c.goBackground(func(ctx context.Context) {
		_ = c.poller.Start(ctx)
	})
	if c.tokens != nil {
		c.goBackground(func(ctx context.Context) {
			_ = c.tokens.Run(ctx, c.refreshInterval, c.refreshThreshold)
		})
	}

	if err := c.poller.Refresh(ctx); err != nil {
		c.log.Warn("failed to fetch initial playback", "err", err)
	}

	c.RefreshDevices()
	c.RefreshQueue()
	c.goBackground(c.refreshLikes)
}

// goBackground runs fn on the controller's lifetime context. It does
// nothing once Shutdown has begun.
func (c *Controller) goBackground(fn func(ctx context.Context)) bool {
	c.bgMu.Lock()
	if c.closed {
		c.bgMu.Unlock()
		return false
	}
	c.wg.Add(1)
	c.bgMu.Unlock()

	go func() {
		defer c.wg.Done()
		fn(c.ctx)
	}()
	return true
}

// fail records err for the UI and returns it.
func (c *Controller) fail(action string, err error) error {
	c.log.Error(action+" failed", "err", err)
	c.state.SetError(cerrors.UserMessage(err))
	return err
}

// command makes sure a target exists and runs op with recovery.
func (c *Controller) command(ctx context.Context, action string, op func(context.Context) error) error {
	if err := c.arbitrator.EnsureTarget(ctx); err != nil {
		return err
	}
	if err := c.arbitrator.WithRecovery(ctx, op); err != nil {
		return c.fail(action, err)
	}
	return nil
}

// TogglePlayback pauses when playing and resumes otherwise. Only resuming
// needs a target.
func (c *Controller) TogglePlayback(ctx context.Context) error {
	if c.state.IsPlaying() {
		if err := c.arbitrator.WithRecovery(ctx, c.remote.Pause); err != nil {
			return c.fail("pause", err)
		}
		c.state.SetPlaying(false)
		c.log.Info("playback toggled", "action", "paused")
		return nil
	}

	err := c.command(ctx, "resume", func(ctx context.Context) error {
		return c.remote.Play(ctx, core.PlayOptions{})
	})
	if err != nil {
		return err
	}
	c.state.SetPlaying(true)
	c.log.Info("playback toggled", "action", "resumed")
	return nil
}

// Next skips to the next track.
func (c *Controller) Next(ctx context.Context) error {
	if err := c.command(ctx, "next track", c.remote.Next); err != nil {
		return err
	}
	c.log.Info("skipped to next track")
	return nil
}

// Previous returns to the previous track.
func (c *Controller) Previous(ctx context.Context) error {
	return c.command(ctx, "previous track", c.remote.Prev)
}

// Seek moves the position by delta, clamped to the track.
func (c *Controller) Seek(ctx context.Context, delta time.Duration) error {
	snap := c.state.Snapshot()
	if snap.Track == nil {
		return nil
	}
	target := snap.Progress() + delta
	if target < 0 {
		target = 0
	}
	if d := snap.Duration(); d > 0 && target > d {
		target = d
	}

	err := c.command(ctx, "seek", func(ctx context.Context) error {
		return c.remote.Seek(ctx, target)
	})
	if err != nil {
		return err
	}
	c.state.Seek(uint32(target.Milliseconds()))
	return nil
}

// VolumeUp raises the volume by one step.
func (c *Controller) VolumeUp(ctx context.Context) error {
	return c.setVolume(ctx, c.state.Settings().Volume+core.VolumeStep)
}

// VolumeDown lowers the volume by one step.
func (c *Controller) VolumeDown(ctx context.Context) error {
	return c.setVolume(ctx, c.state.Settings().Volume-core.VolumeStep)
}

func (c *Controller) setVolume(ctx context.Context, v int) error {
	v = core.ClampVolume(v)
	if err := c.remote.SetVolume(ctx, v); err != nil {
		return c.fail("set volume", err)
	}
	c.state.UpdateSettings(func(s *core.PlaybackSettings) { s.Volume = v })
	return nil
}

// ToggleShuffle flips shuffle and refreshes the queue once the service has
// reordered it.
func (c *Controller) ToggleShuffle(ctx context.Context) error {
	on := !c.state.Settings().Shuffle
	if err := c.remote.SetShuffle(ctx, on); err != nil {
		return c.fail("set shuffle", err)
	}
	c.state.UpdateSettings(func(s *core.PlaybackSettings) { s.Shuffle = on })

	c.goBackground(func(ctx context.Context) {
		t := time.NewTimer(shuffleSettle)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		c.refreshQueue(ctx)
	})
	return nil
}

// CycleRepeat moves repeat through Off, All and One.
func (c *Controller) CycleRepeat(ctx context.Context) error {
	mode := c.state.Settings().Repeat.Next()
	if err := c.remote.SetRepeat(ctx, mode); err != nil {
		return c.fail("set repeat", err)
	}
	c.state.UpdateSettings(func(s *core.PlaybackSettings) { s.Repeat = mode })
	return nil
}

// PlayContext starts uri, a track or a context such as an album or
// playlist. offsetURI optionally picks the track to start from. Pending
// skips belong to the old context and are dropped.
func (c *Controller) PlayContext(ctx context.Context, uri, offsetURI string) error {
	opts := core.PlayOptions{ContextURI: uri, OffsetURI: offsetURI}
	if strings.HasPrefix(uri, "spotify:track:") || strings.HasPrefix(uri, "spotify:episode:") {
		opts = core.PlayOptions{URIs: []string{uri}}
	}

	c.skips.Clear()
	err := c.command(ctx, "play", func(ctx context.Context) error {
		return c.remote.Play(ctx, opts)
	})
	if err != nil {
		return err
	}
	c.state.SetPlaying(true)
	c.RefreshQueue()
	return nil
}

// AddToQueue appends uri to the queue.
func (c *Controller) AddToQueue(ctx context.Context, uri string) error {
	if err := c.remote.AddToQueue(ctx, uri); err != nil {
		return c.fail("add to queue", err)
	}
	c.log.Info("track added to queue", "uri", uri)
	c.RefreshQueue()
	return nil
}

// RemoveFromQueue hides uri from the queue and skips it when it starts.
// The service has no queue removal, so the skip happens on sight.
func (c *Controller) RemoveFromQueue(uri string) {
	c.skips.Add(uri)
	c.log.Info("track removed from queue", "uri", uri)
}

// SelectDevice moves playback to the device with the given id.
func (c *Controller) SelectDevice(ctx context.Context, id string) error {
	device := c.findDevice(id)
	if device == nil {
		if err := c.refreshDevices(ctx); err != nil {
			return c.fail("list devices", err)
		}
		if device = c.findDevice(id); device == nil {
			return c.fail("select device", fmt.Errorf("%w: %s", cerrors.ErrDeviceNotFound, id))
		}
	}

	local := c.localDeviceName()
	isLocal := local != "" && device.Name == local
	c.log.Info("selecting playback device", "device", device.Name, "id", device.ID, "local", isLocal)

	if isLocal {
		if err := c.arbitrator.Activate(ctx); err != nil {
			return err
		}
		if err := sleepCtx(ctx, selectSettle); err != nil {
			return err
		}
	} else if engine := c.handle.Engine(); engine != nil {
		if err := engine.Stop(ctx); err != nil {
			c.log.Warn("failed to stop local playback", "err", err)
		}
		c.handle.SetActive(false)
	}

	if err := c.remote.TransferPlayback(ctx, device.ID, true); err != nil {
		return c.fail("transfer playback", err)
	}
	c.state.SetDeviceName(device.Name)
	c.log.Info("playback transferred", "device", device.Name)

	if err := c.poller.Refresh(ctx); err != nil {
		c.log.Debug("refresh after transfer failed", "err", err)
	}
	c.RefreshDevices()
	return nil
}

func (c *Controller) localDeviceName() string {
	if e := c.handle.Engine(); e != nil {
		return e.DeviceName()
	}
	if f, ok := c.factory.(interface{ DeviceName() string }); ok {
		return f.DeviceName()
	}
	return ""
}

func (c *Controller) findDevice(id string) *core.Device {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := range c.devices {
		if c.devices[i].ID == id {
			d := c.devices[i]
			return &d
		}
	}
	return nil
}

// ToggleLiked saves or removes uri from the liked songs.
func (c *Controller) ToggleLiked(ctx context.Context, uri string) error {
	if player.TrackID(uri) == "" {
		c.state.SetError("Cannot like/unlike: track has no ID")
		return ErrNoTrackID
	}
	liked := !c.IsLiked(uri)
	if err := c.remote.SetLiked(ctx, uri, liked); err != nil {
		return c.fail("toggle liked", err)
	}
	if c.likes != nil {
		if err := c.likes.Set(uri, liked); err != nil {
			c.log.Warn("failed to update liked-songs cache", "err", err)
		}
	}
	c.log.Info("track liked status toggled", "uri", uri, "liked", liked)
	return nil
}

// IsLiked reports whether uri is in the liked-songs cache.
func (c *Controller) IsLiked(uri string) bool {
	return c.likes != nil && c.likes.Contains(uri)
}

// SetQueueVisible tells the controller whether the queue is on screen. A
// queue that went stale while hidden is fetched when it is shown again.
func (c *Controller) SetQueueVisible(visible bool) {
	c.queueHidden.Store(!visible)
	if visible && c.queueStale.Swap(false) {
		c.RefreshQueue()
	}
}

func (c *Controller) queueChanged() {
	if c.queueHidden.Load() {
		c.queueStale.Store(true)
		return
	}
	c.RefreshQueue()
}

// RefreshQueue re-fetches the queue in the background.
func (c *Controller) RefreshQueue() {
	c.goBackground(c.refreshQueue)
}

func (c *Controller) refreshQueue(ctx context.Context) {
	q, err := c.remote.GetQueue(ctx)
	if err != nil {
		c.log.Debug("failed to refresh queue", "err", err)
		return
	}
	c.mu.Lock()
	c.queue = q
	c.mu.Unlock()
}

// RefreshDevices re-fetches the device list in the background.
func (c *Controller) RefreshDevices() {
	c.goBackground(func(ctx context.Context) {
		if err := c.refreshDevices(ctx); err != nil {
			c.log.Debug("failed to refresh devices", "err", err)
		}
	})
}

func (c *Controller) refreshDevices(ctx context.Context) error {
	devices, err := c.remote.GetDevices(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.devices = devices
	c.mu.Unlock()
	return nil
}

func (c *Controller) refreshLikes(ctx context.Context) {
	if c.likes == nil {
		return
	}
	saved, err := c.remote.SavedTracks(ctx)
	if err != nil {
		c.log.Warn("failed to fetch liked songs", "err", err)
		return
	}
	liked := make([]library.Liked, len(saved))
	for i, s := range saved {
		liked[i] = library.Liked{URI: s.URI, AddedAt: s.AddedAt}
	}
	if err := c.likes.Replace(liked); err != nil {
		c.log.Warn("failed to persist liked songs", "err", err)
		return
	}
	c.log.Info("liked songs cached", "count", len(liked))
}

// Snapshot returns the current playback state. It is cheap enough to call
// every frame.
func (c *Controller) Snapshot() playback.Snapshot {
	return c.state.Snapshot()
}

// View returns the snapshot plus the cached queue, devices and error.
// Queued tracks pending a skip are left out.
func (c *Controller) View() View {
	c.mu.RLock()
	q := c.queue
	devices := append([]core.Device(nil), c.devices...)
	c.mu.RUnlock()

	if q != nil {
		q = q.Without(c.skips.Contains)
	}
	return View{
		Snapshot:    c.state.Snapshot(),
		LocalActive: c.handle.IsActive(),
		Queue:       q,
		Devices:     devices,
		Error:       c.state.Error(),
	}
}

// LocalDeviceName returns the name the local engine registers under, or ""
// when running remote-only.
func (c *Controller) LocalDeviceName() string {
	return c.localDeviceName()
}

// EnsureTarget makes sure playback has somewhere to go.
func (c *Controller) EnsureTarget(ctx context.Context) error {
	return c.arbitrator.EnsureTarget(ctx)
}

// WithRecovery runs op, restarting the local engine and retrying once if
// the device went away.
func (c *Controller) WithRecovery(ctx context.Context, op func(context.Context) error) error {
	return c.arbitrator.WithRecovery(ctx, op)
}

// AddSkip marks uri to be skipped when it starts.
func (c *Controller) AddSkip(uri string) { c.skips.Add(uri) }

// ClearSkips drops all pending skips.
func (c *Controller) ClearSkips() { c.skips.Clear() }

// Error returns the visible error message, or "" once it has expired.
func (c *Controller) Error() string { return c.state.Error() }

// DismissError clears the visible error.
func (c *Controller) DismissError() { c.state.ClearError() }

// Shutdown stops the background work and the local engine.
func (c *Controller) Shutdown() {
	c.shutdownOnce.Do(func() {
		c.state.Quit()
		c.poller.Stop()

		c.bgMu.Lock()
		c.closed = true
		c.bgMu.Unlock()
		c.cancel()
		if engine := c.handle.Take(); engine != nil {
			if err := engine.Close(); err != nil {
				c.log.Warn("failed to close local engine", "err", err)
			}
		}
		c.wg.Wait()
		c.synchronizer.Wait()
	})
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
