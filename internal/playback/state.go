package playback

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/tessro/cadence/internal/core"
)

// ErrorTTL is how long a raised error stays visible.
const ErrorTTL = 5 * time.Second

// Snapshot is a read-only copy of the playback state for rendering.
type Snapshot struct {
	Track      *core.Track
	ProgressMs uint32
	DurationMs uint32
	IsPlaying  bool
	Settings   core.PlaybackSettings
}

// Progress returns the progress as a duration.
func (s Snapshot) Progress() time.Duration {
	return time.Duration(s.ProgressMs) * time.Millisecond
}

// Duration returns the track duration.
func (s Snapshot) Duration() time.Duration {
	return time.Duration(s.DurationMs) * time.Millisecond
}

// ProgressPercent returns playback progress as a percentage (0-100).
func (s Snapshot) ProgressPercent() float64 {
	if s.DurationMs == 0 {
		return 0
	}
	return float64(s.ProgressMs) / float64(s.DurationMs) * 100
}

// State is the one authoritative playback state. The event listener and
// the remote poller write to it; the UI reads a Snapshot every frame.
//
// Each group of fields has its own lock and no lock is held while calling
// out, so a slow writer never stalls the render loop.
type State struct {
	now func() time.Time

	playMu sync.RWMutex
	timing Timing
	track  *core.Track

	settingsMu sync.RWMutex
	settings   core.PlaybackSettings

	errMu    sync.Mutex
	errMsg   string
	errRaise time.Time

	quit atomic.Bool
}

// NewState returns an empty State with default settings.
func NewState() *State {
	return newState(time.Now)
}

func newState(now func() time.Time) *State {
	return &State{
		now:      now,
		timing:   newTiming(now),
		settings: core.PlaybackSettings{Volume: core.DefaultVolume},
	}
}

// UpdatePosition applies a position report through the timing model.
func (s *State) UpdatePosition(positionMs uint32, playing bool) bool {
	s.playMu.Lock()
	defer s.playMu.Unlock()
	return s.timing.Update(positionMs, playing)
}

// Reposition applies a position report that carries no play state, keeping
// the current flag. The report still goes through the jitter band.
func (s *State) Reposition(positionMs uint32) bool {
	s.playMu.Lock()
	defer s.playMu.Unlock()
	return s.timing.Update(positionMs, s.timing.Playing())
}

// Seek re-anchors the position at positionMs after a seek the user asked
// for.
func (s *State) Seek(positionMs uint32) {
	s.playMu.Lock()
	s.timing.Seek(positionMs)
	s.playMu.Unlock()
}

// SetPlaying freezes the position and sets the play flag.
func (s *State) SetPlaying(playing bool) {
	s.playMu.Lock()
	s.timing.SetPlaying(playing)
	s.playMu.Unlock()
}

// IsPlaying reports the last known play state.
func (s *State) IsPlaying() bool {
	s.playMu.RLock()
	defer s.playMu.RUnlock()
	return s.timing.Playing()
}

// SetTrack commits t as the current track and takes its duration.
func (s *State) SetTrack(t core.Track) {
	s.playMu.Lock()
	s.track = &t
	s.timing.SetDuration(t.DurationMs())
	s.playMu.Unlock()
}

// Track returns a copy of the current track, or nil.
func (s *State) Track() *core.Track {
	s.playMu.RLock()
	defer s.playMu.RUnlock()
	if s.track == nil {
		return nil
	}
	t := *s.track
	return &t
}

// ClearTrack forgets the current track and resets the timing model.
func (s *State) ClearTrack() {
	s.playMu.Lock()
	s.track = nil
	s.timing.Reset()
	s.playMu.Unlock()
}

// Settings returns a copy of the playback settings.
func (s *State) Settings() core.PlaybackSettings {
	s.settingsMu.RLock()
	defer s.settingsMu.RUnlock()
	return s.settings
}

// UpdateSettings applies fn to the settings under the lock. Last writer
// wins.
func (s *State) UpdateSettings(fn func(*core.PlaybackSettings)) {
	s.settingsMu.Lock()
	fn(&s.settings)
	s.settings.Volume = core.ClampVolume(s.settings.Volume)
	s.settingsMu.Unlock()
}

// SetDeviceName sets the displayed device name.
func (s *State) SetDeviceName(name string) {
	s.UpdateSettings(func(ps *core.PlaybackSettings) { ps.DeviceName = name })
}

// SetError raises a user-visible error message.
func (s *State) SetError(msg string) {
	s.errMu.Lock()
	s.errMsg = msg
	s.errRaise = s.now()
	s.errMu.Unlock()
}

// Error returns the active error message, or "" once it has expired.
func (s *State) Error() string {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.errMsg == "" {
		return ""
	}
	if s.now().Sub(s.errRaise) >= ErrorTTL {
		s.errMsg = ""
		return ""
	}
	return s.errMsg
}

// ClearError dismisses the active error.
func (s *State) ClearError() {
	s.errMu.Lock()
	s.errMsg = ""
	s.errMu.Unlock()
}

// Quit sets the process-wide quit flag.
func (s *State) Quit() { s.quit.Store(true) }

// ShouldQuit reports whether Quit was called.
func (s *State) ShouldQuit() bool { return s.quit.Load() }

// Snapshot returns a copy of everything the UI renders. It never blocks on
// I/O and is safe to call every frame.
func (s *State) Snapshot() Snapshot {
	s.playMu.RLock()
	snap := Snapshot{
		ProgressMs: s.timing.Position(),
		DurationMs: s.timing.DurationMs(),
		IsPlaying:  s.timing.Playing(),
	}
	if s.track != nil {
		t := *s.track
		snap.Track = &t
	}
	s.playMu.RUnlock()

	snap.Settings = s.Settings()
	return snap
}
