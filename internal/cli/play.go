package cli

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tessro/cadence/internal/core"
)

var uriKinds = []string{"track", "episode", "album", "playlist", "artist", "show"}

var playOffset string

var playCmd = &cobra.Command{
	Use:   "play [uri]",
	Short: "Start or resume playback",
	Long: `Play a Spotify URI or open.spotify.com link. Tracks and episodes
play on their own; albums, playlists, artists and shows play as a
context. Without arguments, resumes current playback.

Examples:
  cadence play                                    # Resume playback
  cadence play spotify:album:1A2GTWGtFfWp7KSQTwWOyo
  cadence play https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC
  cadence play spotify:album:xxx --offset spotify:track:yyy`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&playOffset, "offset", "", "Track URI within the context to start from")
	playCmd.Flags().StringVarP(&controlDevice, "device", "d", "", "Target device name or ID")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return runResume(cmd, args)
	}

	uri, err := normalizeURI(args[0])
	if err != nil {
		return err
	}
	opts, err := playOptions(uri, playOffset)
	if err != nil {
		return err
	}

	ctx := context.Background()
	s, err := controlSession(ctx)
	if err != nil {
		return err
	}
	if err := s.player.Play(ctx, opts); err != nil {
		return fmt.Errorf("failed to play: %w", err)
	}
	return report("playing", "▶ Playing "+uri, map[string]any{"uri": uri})
}

// playOptions plays single items by URI and everything else as a context.
func playOptions(uri, offset string) (core.PlayOptions, error) {
	kind := uriKind(uri)
	if kind == "track" || kind == "episode" {
		if offset != "" {
			return core.PlayOptions{}, fmt.Errorf("--offset needs an album, playlist, artist or show")
		}
		return core.PlayOptions{URIs: []string{uri}}, nil
	}
	opts := core.PlayOptions{ContextURI: uri}
	if offset != "" {
		o, err := normalizeURI(offset)
		if err != nil {
			return core.PlayOptions{}, err
		}
		opts.OffsetURI = o
	}
	return opts, nil
}

func uriKind(uri string) string {
	parts := strings.Split(uri, ":")
	if len(parts) < 3 {
		return ""
	}
	return parts[1]
}

// normalizeURI accepts a spotify: URI or an open.spotify.com link and
// returns the spotify: URI.
func normalizeURI(s string) (string, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "spotify:") {
		parts := strings.Split(s, ":")
		if len(parts) == 3 && slices.Contains(uriKinds, parts[1]) && parts[2] != "" {
			return s, nil
		}
		// spotify:user:<name>:playlist:<id>
		if len(parts) == 5 && parts[1] == "user" && parts[3] == "playlist" && parts[4] != "" {
			return s, nil
		}
		return "", fmt.Errorf("invalid Spotify URI %q", s)
	}

	u, err := url.Parse(s)
	if err != nil || u.Host != "open.spotify.com" {
		return "", fmt.Errorf("not a Spotify URI or link: %q", s)
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segs) > 0 && strings.HasPrefix(segs[0], "intl-") {
		segs = segs[1:]
	}
	if len(segs) != 2 || !slices.Contains(uriKinds, segs[0]) || segs[1] == "" {
		return "", fmt.Errorf("unsupported Spotify link %q", s)
	}
	return "spotify:" + segs[0] + ":" + segs[1], nil
}
