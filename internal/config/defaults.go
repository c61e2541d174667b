package config

const (
	DefaultRedirectURI   = "http://127.0.0.1:8888/callback"
	DefaultEngineBinary  = "librespot"
	DefaultDeviceName    = "Spotify-RS"
	DefaultEngineBackend = "rodio"
	DefaultBitrate       = 320
	DefaultVolume        = 50
	DefaultRefreshMs     = 50
	DefaultPollMs        = 1000
)

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Spotify: SpotifyConfig{
			RedirectURI: DefaultRedirectURI,
		},
		Engine: EngineConfig{
			Enabled:       true,
			Binary:        DefaultEngineBinary,
			DeviceName:    DefaultDeviceName,
			Backend:       DefaultEngineBackend,
			Bitrate:       DefaultBitrate,
			InitialVolume: DefaultVolume,
		},
		TUI: TUIConfig{
			Theme:     "auto",
			RefreshMs: DefaultRefreshMs,
			PollMs:    DefaultPollMs,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ApplyDefaults fills in zero values with sensible defaults. Booleans are
// left alone; decode into Default() to keep their defaults.
func (c *Config) ApplyDefaults() {
	d := Default()

	if c.Spotify.RedirectURI == "" {
		c.Spotify.RedirectURI = d.Spotify.RedirectURI
	}

	if c.Engine.Binary == "" {
		c.Engine.Binary = d.Engine.Binary
	}
	if c.Engine.DeviceName == "" {
		c.Engine.DeviceName = d.Engine.DeviceName
	}
	if c.Engine.Backend == "" {
		c.Engine.Backend = d.Engine.Backend
	}
	if c.Engine.Bitrate == 0 {
		c.Engine.Bitrate = d.Engine.Bitrate
	}

	if c.TUI.Theme == "" {
		c.TUI.Theme = d.TUI.Theme
	}
	if c.TUI.RefreshMs == 0 {
		c.TUI.RefreshMs = d.TUI.RefreshMs
	}
	if c.TUI.PollMs == 0 {
		c.TUI.PollMs = d.TUI.PollMs
	}

	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}
