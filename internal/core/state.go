package core

import "time"

// RepeatMode is the repeat setting of the playback context.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota
	RepeatAll
	RepeatOne
)

func (m RepeatMode) String() string {
	switch m {
	case RepeatAll:
		return "all"
	case RepeatOne:
		return "one"
	default:
		return "off"
	}
}

// Next returns the mode that follows m in the Off, All, One cycle.
func (m RepeatMode) Next() RepeatMode {
	switch m {
	case RepeatOff:
		return RepeatAll
	case RepeatAll:
		return RepeatOne
	default:
		return RepeatOff
	}
}

// APIState returns the Web API name for the mode.
func (m RepeatMode) APIState() string {
	switch m {
	case RepeatAll:
		return "context"
	case RepeatOne:
		return "track"
	default:
		return "off"
	}
}

// ParseRepeatState maps a Web API repeat state ("off", "track", "context")
// or a user spelling ("all", "one") to a RepeatMode.
func ParseRepeatState(s string) (RepeatMode, bool) {
	switch s {
	case "off":
		return RepeatOff, true
	case "context", "all":
		return RepeatAll, true
	case "track", "one":
		return RepeatOne, true
	}
	return RepeatOff, false
}

const (
	DefaultVolume = 50
	VolumeStep    = 5
)

// ClampVolume limits v to 0-100.
func ClampVolume(v int) int {
	return max(0, min(100, v))
}

// PlaybackSettings are the user-adjustable playback settings.
type PlaybackSettings struct {
	DeviceName string     `json:"device_name"`
	Shuffle    bool       `json:"shuffle"`
	Repeat     RepeatMode `json:"repeat"`
	Volume     int        `json:"volume"`
}

// PlaybackState is the playback state as reported by the remote service.
type PlaybackState struct {
	Track     *Track        `json:"track"`
	Device    *Device       `json:"device"`
	IsPlaying bool          `json:"is_playing"`
	Progress  time.Duration `json:"progress"`
	Shuffle   bool          `json:"shuffle"`
	Repeat    RepeatMode    `json:"repeat"`
	Volume    int           `json:"volume"`
}

// HasTrack returns true if there is an active track.
func (s *PlaybackState) HasTrack() bool {
	return s != nil && s.Track != nil
}

// ProgressPercent returns playback progress as a percentage (0-100).
func (s *PlaybackState) ProgressPercent() float64 {
	if s == nil || s.Track == nil || s.Track.Duration == 0 {
		return 0
	}
	return float64(s.Progress) / float64(s.Track.Duration) * 100
}
