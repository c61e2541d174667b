package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/tessro/cadence/internal/app"
	"github.com/tessro/cadence/internal/engine/librespot"
	"github.com/tessro/cadence/internal/library"
	"github.com/tessro/cadence/internal/logging"
	"github.com/tessro/cadence/internal/playback"
	"github.com/tessro/cadence/internal/spotify/auth"
	"github.com/tessro/cadence/internal/tui"
)

var (
	tuiRefresh int
	tuiNoLocal bool
)

var tuiCmd = &cobra.Command{
	Use:     "ui",
	Aliases: []string{"tui"},
	Short:   "Launch interactive dashboard",
	Long: `Launch the interactive terminal dashboard.

The dashboard provides a live view with:
  • Now Playing - current track, progress, device and settings
  • Queue - upcoming tracks, liked songs marked
  • Devices - Spotify Connect devices, including the local engine

Keyboard shortcuts:
  q, Ctrl+C    Quit
  ?            Help
  Space        Play/Pause
  n / p        Next / previous track
  ←/→          Seek 10 seconds
  +/-          Volume up/down
  s / r        Shuffle / repeat
  L            Like or unlike
  o            Play a URI
  Tab          Switch panel`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().IntVar(&tuiRefresh, "refresh", 0, "Redraw interval in milliseconds (default from tui.refresh_ms)")
	tuiCmd.Flags().BoolVar(&tuiNoLocal, "no-local", false, "Do not start the local playback engine")
	rootCmd.AddCommand(tuiCmd)
}

// openLog opens the dashboard's log file. The terminal belongs to the UI,
// so nothing is logged to stderr.
func openLog() (*log.Logger, io.Closer, error) {
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	path := cfg.Log.File
	if path == "" {
		var err error
		path, err = logging.DailyPath(time.Now())
		if err != nil {
			return nil, nil, err
		}
	}
	return logging.OpenFile(path, level)
}

// hookCommand is the command librespot runs for player events: this
// binary's hidden engine-event subcommand.
func hookCommand(logger *log.Logger) string {
	exe, err := os.Executable()
	if err != nil {
		logger.Warn("cannot locate executable; engine events disabled", "err", err)
		return ""
	}
	if strings.ContainsAny(exe, " \t") {
		logger.Warn("executable path contains whitespace; engine events disabled", "path", exe)
		return ""
	}
	return exe
}

func engineFactory(s *session, logger *log.Logger) playback.EngineFactory {
	if !cfg.Engine.Enabled || tuiNoLocal {
		return nil
	}
	cacheDir := cfg.Engine.CacheDir
	if cacheDir == "" && cfg.Cache.Dir != "" {
		cacheDir = cfg.Cache.Dir
	}
	return librespot.NewFactory(librespot.Config{
		Binary:        cfg.Engine.Binary,
		DeviceName:    cfg.Engine.DeviceName,
		Backend:       cfg.Engine.Backend,
		Bitrate:       cfg.Engine.Bitrate,
		InitialVolume: cfg.Engine.InitialVolume,
		CacheDir:      cacheDir,
		HookCommand:   hookCommand(logger),
	}, s.player, s.tokens, logger.WithPrefix("engine"))
}

func runTUI(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger, closer, err := openLog()
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	defer func() { _ = closer.Close() }()

	s, err := newSession(ctx, logger)
	if err != nil {
		return err
	}

	likes, err := library.Open(likesPath())
	if err != nil {
		// The dashboard works without the cache; liked marks are lost.
		logger.Warn("liked-songs cache unavailable", "err", err)
	}
	if likes != nil {
		defer func() { _ = likes.Close() }()
	}

	ctl := app.New(app.Options{
		Remote:           s.player,
		Factory:          engineFactory(s, logger),
		Likes:            likes,
		Tokens:           s.tokens,
		RefreshInterval:  auth.RefreshCheckInterval,
		RefreshThreshold: auth.RefreshThreshold,
		PollInterval:     time.Duration(cfg.TUI.PollMs) * time.Millisecond,
		Logger:           logger,
	})
	logger.Info("starting dashboard", "engine", cfg.Engine.Enabled && !tuiNoLocal)
	ctl.Initialize(ctx)
	defer ctl.Shutdown()

	refresh := cfg.TUI.RefreshMs
	if tuiRefresh > 0 {
		refresh = tuiRefresh
	}
	return tui.Run(ctl, tui.Options{
		Refresh: time.Duration(refresh) * time.Millisecond,
		Theme:   cfg.TUI.Theme,
	})
}
