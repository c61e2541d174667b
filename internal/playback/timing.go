package playback

import (
	"math"
	"time"
)

const (
	// Reports further than this from the extrapolated position are real
	// seeks and always win.
	seekThresholdMs = 2000

	// Reports at most this far behind the extrapolated position are drift
	// and are accepted. Anything between this and seekThresholdMs behind is
	// jitter.
	driftToleranceMs = 100
)

// Timing reconstructs a smooth playback position from sparse, late
// position reports. Between reports the position is extrapolated from the
// wall clock while playing.
//
// Timing is not safe for concurrent use. State owns one and guards it.
type Timing struct {
	positionMs uint32
	durationMs uint32
	playing    bool
	lastUpdate time.Time
	now        func() time.Time
}

// NewTiming returns a paused Timing at position zero with an unknown
// duration.
func NewTiming() *Timing {
	t := newTiming(time.Now)
	return &t
}

func newTiming(now func() time.Time) Timing {
	return Timing{lastUpdate: now(), now: now}
}

// Position returns the extrapolated position in milliseconds.
//
// While playing with a known duration the position advances with the wall
// clock and stops at the duration. Otherwise the committed position is
// returned, clamped one millisecond below the duration so a track paused
// at its end does not read as finished.
func (t *Timing) Position() uint32 {
	if t.playing && t.durationMs > 0 {
		return min(saturatingAdd(t.positionMs, t.elapsedMs()), t.durationMs)
	}
	return min(t.positionMs, max(t.durationMs, 1)-1)
}

// Update applies a position report and reports whether the position was
// taken. The playing flag is always applied; the position only when the
// report is a genuine correction rather than network jitter.
func (t *Timing) Update(positionMs uint32, playing bool) bool {
	if t.durationMs > 0 {
		positionMs = min(positionMs, t.durationMs)
	}

	diff := int64(positionMs) - int64(t.Position())

	accept := t.playing != playing ||
		diff < -seekThresholdMs ||
		diff > seekThresholdMs ||
		!t.playing ||
		diff >= -driftToleranceMs

	if accept {
		t.positionMs = positionMs
		t.lastUpdate = t.now()
	}
	t.playing = playing
	return accept
}

// Seek moves the position to positionMs unconditionally, keeping the play
// flag. Local seeks are known to be real, so they skip the jitter band.
func (t *Timing) Seek(positionMs uint32) {
	if t.durationMs > 0 {
		positionMs = min(positionMs, t.durationMs)
	}
	t.positionMs = positionMs
	t.lastUpdate = t.now()
}

// SetPlaying freezes the extrapolated position and sets the playing flag.
// It is used when playback stops without a fresh position report.
func (t *Timing) SetPlaying(playing bool) {
	t.positionMs = t.Position()
	t.lastUpdate = t.now()
	t.playing = playing
}

// SetDuration sets the duration of the current track. Zero means unknown.
func (t *Timing) SetDuration(durationMs uint32) {
	t.durationMs = durationMs
	if durationMs > 0 && t.positionMs > durationMs {
		t.positionMs = durationMs
	}
}

// Reset returns the model to a paused state at zero.
func (t *Timing) Reset() {
	t.positionMs = 0
	t.durationMs = 0
	t.playing = false
	t.lastUpdate = t.now()
}

// Playing reports the last known play state.
func (t *Timing) Playing() bool { return t.playing }

// DurationMs returns the track duration, or zero when unknown.
func (t *Timing) DurationMs() uint32 { return t.durationMs }

func (t *Timing) elapsedMs() uint32 {
	d := t.now().Sub(t.lastUpdate)
	if d <= 0 {
		return 0
	}
	ms := d.Milliseconds()
	if ms > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(ms)
}

func saturatingAdd(a, b uint32) uint32 {
	if s := a + b; s >= a {
		return s
	}
	return math.MaxUint32
}
