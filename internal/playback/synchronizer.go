package playback

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tessro/cadence/internal/core"
)

// skipTimeout bounds the one request the listener makes itself.
const skipTimeout = 5 * time.Second

// Synchronizer drains lifecycle events from the local engine into State.
// At most one listener runs per installed engine.
type Synchronizer struct {
	state  *State
	skips  *SkipSet
	handle *Handle
	log    *log.Logger

	// onTrackChange runs in its own goroutine after a track is committed.
	onTrackChange func(core.Track)

	wg sync.WaitGroup
}

// SynchronizerOption configures a Synchronizer.
type SynchronizerOption func(*Synchronizer)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) SynchronizerOption {
	return func(s *Synchronizer) { s.log = l }
}

// OnTrackChange registers fn to run after a new track is committed. The
// app uses it to refresh the queue view.
func OnTrackChange(fn func(core.Track)) SynchronizerOption {
	return func(s *Synchronizer) { s.onTrackChange = fn }
}

// NewSynchronizer creates a Synchronizer over the given shared state.
func NewSynchronizer(state *State, skips *SkipSet, handle *Handle, opts ...SynchronizerOption) *Synchronizer {
	s := &Synchronizer{
		state:  state,
		skips:  skips,
		handle: handle,
		log:    log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches a listener on the installed engine's event channel. It
// returns false if there is no channel or a listener already owns it.
func (s *Synchronizer) Start() bool {
	events, ok := s.handle.claimListener()
	if !ok {
		return false
	}

	s.log.Info("starting player event listener")
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.listen(events)
	}()
	return true
}

// Wait blocks until every listener has exited.
func (s *Synchronizer) Wait() {
	s.wg.Wait()
}

func (s *Synchronizer) listen(events <-chan Event) {
	for ev := range events {
		if s.state.ShouldQuit() {
			s.log.Debug("player event listener shutting down")
			return
		}
		s.apply(ev)
	}
	s.log.Debug("player event channel closed")
}

func (s *Synchronizer) apply(ev Event) {
	switch ev.Kind {
	case EventPlaying:
		s.log.Debug("playing", "position_ms", ev.PositionMs)
		s.state.UpdatePosition(ev.PositionMs, true)
	case EventPaused:
		s.log.Debug("paused", "position_ms", ev.PositionMs)
		s.state.UpdatePosition(ev.PositionMs, false)
	case EventPositionChanged, EventSeeked:
		s.log.Debug(ev.Kind.String(), "position_ms", ev.PositionMs)
		s.state.Reposition(ev.PositionMs)
	case EventLoading:
		s.log.Debug("loading", "position_ms", ev.PositionMs)
		s.state.UpdatePosition(ev.PositionMs, false)
	case EventStopped:
		s.log.Debug("stopped")
		s.state.UpdatePosition(0, false)
	case EventEndOfTrack:
		s.log.Debug("end of track")
		s.state.SetPlaying(false)
	case EventTrackChanged:
		if ev.Item == nil {
			s.log.Warn("track change without item")
			return
		}
		s.trackChanged(ev.Item.Track())
	default:
		s.log.Debug("ignoring player event", "event", ev.Name)
	}
}

func (s *Synchronizer) trackChanged(track core.Track) {
	skipped := commitOrSkip(s.state, s.skips, track, func(ctx context.Context) error {
		engine := s.handle.Engine()
		if engine == nil {
			return nil
		}
		return engine.SkipToNext(ctx)
	}, s.log)
	if skipped {
		return
	}

	s.log.Info("track changed", "track", track.Title, "artist", track.Artist,
		"album", track.Album, "uri", track.URI)
	if s.onTrackChange != nil {
		go s.onTrackChange(track)
	}
}

// commitOrSkip either skips track because the user removed it from the
// queue, or commits it as the current track. It reports whether it skipped.
func commitOrSkip(state *State, skips *SkipSet, track core.Track, skip func(context.Context) error, logger *log.Logger) bool {
	if skips.Take(track.URI) {
		logger.Info("track is in skip list, auto-skipping", "track", track.Title, "uri", track.URI)
		ctx, cancel := context.WithTimeout(context.Background(), skipTimeout)
		defer cancel()
		if err := skip(ctx); err != nil {
			logger.Error("failed to auto-skip track", "err", err)
		}
		return true
	}

	state.SetTrack(track)
	return false
}
