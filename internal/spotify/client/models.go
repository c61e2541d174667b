package client

// User represents a Spotify user profile.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Country     string `json:"country"`
	Product     string `json:"product"`
	URI         string `json:"uri"`
}

// Device represents a Spotify Connect device.
type Device struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Type             string `json:"type"`
	IsActive         bool   `json:"is_active"`
	IsRestricted     bool   `json:"is_restricted"`
	IsPrivateSession bool   `json:"is_private_session"`
	VolumePercent    *int   `json:"volume_percent"` // Nullable
	SupportsVolume   bool   `json:"supports_volume"`
}

// DevicesResponse is the response from the devices endpoint.
type DevicesResponse struct {
	Devices []Device `json:"devices"`
}

// PlaybackState represents the current playback state.
type PlaybackState struct {
	Device               Device   `json:"device"`
	ShuffleState         bool     `json:"shuffle_state"`
	RepeatState          string   `json:"repeat_state"` // off, track, context
	Timestamp            int64    `json:"timestamp"`
	ProgressMS           int      `json:"progress_ms"`
	IsPlaying            bool     `json:"is_playing"`
	Item                 *Item    `json:"item"`
	CurrentlyPlayingType string   `json:"currently_playing_type"` // track, episode, ad, unknown
	Context              *Context `json:"context"`
}

// Item is a playable item: a track or a podcast episode. Episodes carry
// Show instead of Artists and Album.
type Item struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	URI        string   `json:"uri"`
	Type       string   `json:"type"` // track, episode
	DurationMS int      `json:"duration_ms"`
	Explicit   bool     `json:"explicit"`
	IsLocal    bool     `json:"is_local"`
	Artists    []Artist `json:"artists"`
	Album      Album    `json:"album"`
	Show       *Show    `json:"show,omitempty"`
}

// Artist represents a Spotify artist.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// Album represents a Spotify album.
type Album struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// Show is the podcast an episode belongs to.
type Show struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Publisher string `json:"publisher"`
}

// Context represents a playback context (album, artist, playlist).
type Context struct {
	Type string `json:"type"`
	URI  string `json:"uri"`
}

// Queue represents the user's playback queue.
type Queue struct {
	CurrentlyPlaying *Item  `json:"currently_playing"`
	Queue            []Item `json:"queue"`
}

// SavedTrack is an entry of the user's liked songs.
type SavedTrack struct {
	AddedAt string `json:"added_at"`
	Track   Item   `json:"track"`
}

// SavedTracksPage is one page of the user's liked songs.
type SavedTracksPage struct {
	Items  []SavedTrack `json:"items"`
	Total  int          `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
	Next   string       `json:"next"`
}
