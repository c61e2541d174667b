package config

// Config is the root configuration structure.
type Config struct {
	Spotify  SpotifyConfig  `toml:"spotify"`
	Engine   EngineConfig   `toml:"engine"`
	Defaults DefaultsConfig `toml:"defaults"`
	TUI      TUIConfig      `toml:"tui"`
	Log      LogConfig      `toml:"log"`
	Cache    CacheConfig    `toml:"cache"`
}

// SpotifyConfig holds Spotify API settings.
type SpotifyConfig struct {
	ClientID    string `toml:"client_id"`
	RedirectURI string `toml:"redirect_uri"`
}

// EngineConfig controls the local librespot playback engine.
type EngineConfig struct {
	Enabled       bool   `toml:"enabled"`
	Binary        string `toml:"binary"`
	DeviceName    string `toml:"device_name"`
	Backend       string `toml:"backend"`
	Bitrate       int    `toml:"bitrate"`
	InitialVolume int    `toml:"initial_volume"`
	CacheDir      string `toml:"cache_dir"`
}

// DefaultsConfig holds defaults for the command line.
type DefaultsConfig struct {
	// Device is transferred to when a command needs a target and nothing
	// is active.
	Device string `toml:"device"`
}

// TUIConfig holds terminal UI settings. Intervals are in milliseconds.
type TUIConfig struct {
	Theme     string `toml:"theme"`
	RefreshMs int    `toml:"refresh_ms"`
	PollMs    int    `toml:"poll_ms"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// CacheConfig holds the location of the on-disk caches.
type CacheConfig struct {
	Dir string `toml:"dir"`
}
