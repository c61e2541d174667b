package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tessro/cadence/internal/core"
)

const progressWidth = 30

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current playback status",
	Long:  `Shows what is playing, where, and the playback settings.`,
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s, err := newSession(ctx, stderrLogger())
	if err != nil {
		return err
	}

	state, err := s.player.GetState(ctx)
	if err != nil {
		return fmt.Errorf("failed to get playback state: %w", err)
	}

	if !state.HasTrack() {
		if JSONOutput() {
			return writeJSON(map[string]any{
				"playing": false,
				"message": "No active playback",
			})
		}
		fmt.Println("No active playback")
		return nil
	}

	if JSONOutput() {
		return writeJSON(statusJSON(state))
	}
	printStatus(state)
	return nil
}

func statusJSON(state *core.PlaybackState) map[string]any {
	t := state.Track
	out := map[string]any{
		"playing":     state.IsPlaying,
		"uri":         t.URI,
		"title":       t.Title,
		"artist":      t.Artist,
		"album":       albumOf(t),
		"kind":        t.Kind,
		"progress_ms": state.Progress.Milliseconds(),
		"duration_ms": t.Duration.Milliseconds(),
		"shuffle":     state.Shuffle,
		"repeat":      state.Repeat.String(),
		"volume":      state.Volume,
	}
	if state.Device != nil {
		out["device"] = state.Device.Name
		out["device_id"] = state.Device.ID
	}
	return out
}

func albumOf(t *core.Track) string {
	if t.Kind == core.KindEpisode {
		return core.PodcastAlbum
	}
	return t.Album
}

func printStatus(state *core.PlaybackState) {
	t := state.Track
	icon := "⏸"
	if state.IsPlaying {
		icon = "▶"
	}

	fmt.Printf("%s %s\n", icon, t.Title)
	if t.Artist != "" {
		fmt.Printf("  %s\n", t.Artist)
	}
	if album := albumOf(t); album != "" {
		fmt.Printf("  %s\n", album)
	}
	fmt.Printf("  %s %s %s\n",
		FormatDuration(state.Progress),
		FormatProgress(state.Progress, t.Duration, progressWidth),
		FormatDuration(t.Duration))

	device := "unknown device"
	if state.Device != nil {
		device = state.Device.Name
	}
	shuffle := "off"
	if state.Shuffle {
		shuffle = "on"
	}
	fmt.Printf("\n  Device: %s  Volume: %d%%  Shuffle: %s  Repeat: %s\n",
		device, state.Volume, shuffle, state.Repeat)

	if Verbose() {
		fmt.Printf("  URI: %s\n", t.URI)
	}
}
