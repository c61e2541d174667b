package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
)

const header = "# Cadence configuration\n\n"

// Load reads configuration from standard locations with environment overrides.
// Search order: ~/.cadencerc, $XDG_CONFIG_HOME/cadence/config.toml
func Load() (*Config, error) {
	path := findConfigFile()
	if path == "" {
		cfg := Default()
		applyEnvOverrides(cfg, os.Getenv)
		return cfg, nil
	}
	return LoadFrom(path)
}

// LoadFrom reads configuration from a specific file path.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.ApplyDefaults()
	applyEnvOverrides(cfg, os.Getenv)
	return cfg, nil
}

// Path returns the file configuration is read from, or the file that
// would be created if none exists yet.
func Path() string {
	if p := findConfigFile(); p != "" {
		return p
	}
	return filepath.Join(xdg.ConfigHome, "cadence", "config.toml")
}

func findConfigFile() string {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".cadencerc"))
	}
	paths = append(paths, filepath.Join(xdg.ConfigHome, "cadence", "config.toml"))

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func applyEnvOverrides(cfg *Config, getenv func(string) string) {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if i, err := strconv.Atoi(getenv(key)); err == nil {
			*dst = i
		}
	}

	str("CADENCE_SPOTIFY_CLIENT_ID", &cfg.Spotify.ClientID)
	str("CADENCE_SPOTIFY_REDIRECT_URI", &cfg.Spotify.RedirectURI)

	if b, err := strconv.ParseBool(getenv("CADENCE_ENGINE_ENABLED")); err == nil {
		cfg.Engine.Enabled = b
	}
	str("CADENCE_ENGINE_BINARY", &cfg.Engine.Binary)
	str("CADENCE_ENGINE_DEVICE_NAME", &cfg.Engine.DeviceName)
	str("CADENCE_ENGINE_BACKEND", &cfg.Engine.Backend)
	num("CADENCE_ENGINE_BITRATE", &cfg.Engine.Bitrate)

	str("CADENCE_DEFAULTS_DEVICE", &cfg.Defaults.Device)

	str("CADENCE_TUI_THEME", &cfg.TUI.Theme)
	num("CADENCE_TUI_REFRESH_MS", &cfg.TUI.RefreshMs)
	num("CADENCE_TUI_POLL_MS", &cfg.TUI.PollMs)

	str("CADENCE_LOG_LEVEL", &cfg.Log.Level)
	str("CADENCE_LOG_FILE", &cfg.Log.File)

	str("CADENCE_CACHE_DIR", &cfg.Cache.Dir)
}

// WriteDefault creates a config file at path holding the default values.
// It fails if the file already exists.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	return write(path, Default())
}

// Set updates a single "section.key" value in the file at path, keeping
// whatever else the file holds.
func Set(path, key, value string) error {
	section, field, ok := strings.Cut(key, ".")
	if !ok || section == "" || field == "" {
		return fmt.Errorf("invalid key format %q: use 'section.key' (e.g. defaults.device)", key)
	}

	raw := map[string]any{}
	if _, err := toml.DecodeFile(path, &raw); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	typed, err := typedValue(key, value)
	if err != nil {
		return err
	}

	sectionMap, ok := raw[section].(map[string]any)
	if !ok {
		sectionMap = map[string]any{}
		raw[section] = sectionMap
	}
	sectionMap[field] = typed

	return write(path, raw)
}

func typedValue(key, value string) (any, error) {
	switch key {
	case "engine.bitrate", "engine.initial_volume", "tui.refresh_ms", "tui.poll_ms":
		i, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("value must be an integer for %s", key)
		}
		return i, nil
	case "engine.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("value must be true or false for %s", key)
		}
		return b, nil
	}
	return value, nil
}

func write(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteString(header); err != nil {
		return err
	}
	enc := toml.NewEncoder(f)
	enc.Indent = "  "
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
