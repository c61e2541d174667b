package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tessro/cadence/internal/core"
)

var queueLimit int

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Show the playback queue",
	Long:  `Shows the current track and what plays next.`,
	Args:  cobra.NoArgs,
	RunE:  runQueueList,
}

var queueAddCmd = &cobra.Command{
	Use:   "add <uri>",
	Short: "Add a track or episode to the queue",
	Long: `Add a track or episode to the end of the queue.

Examples:
  cadence queue add spotify:track:4uLU6hMCjMI75M1A2tKUQC
  cadence queue add https://open.spotify.com/episode/xxx`,
	Args: cobra.ExactArgs(1),
	RunE: runQueueAdd,
}

func init() {
	queueCmd.Flags().IntVarP(&queueLimit, "limit", "n", 20, "Maximum number of upcoming tracks to show")
	queueAddCmd.Flags().StringVarP(&controlDevice, "device", "d", "", "Target device name or ID")
	queueCmd.AddCommand(queueAddCmd)
	rootCmd.AddCommand(queueCmd)
}

func runQueueList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s, err := newSession(ctx, stderrLogger())
	if err != nil {
		return err
	}

	queue, err := s.player.GetQueue(ctx)
	if err != nil {
		return fmt.Errorf("failed to get queue: %w", err)
	}
	if queue == nil {
		queue = &core.Queue{}
	}

	upcoming := queue.Upcoming()
	if queueLimit > 0 && len(upcoming) > queueLimit {
		upcoming = upcoming[:queueLimit]
	}

	if JSONOutput() {
		if upcoming == nil {
			upcoming = []core.Track{}
		}
		return writeJSON(map[string]any{
			"current":  queue.Current(),
			"upcoming": upcoming,
		})
	}

	if cur := queue.Current(); cur != nil {
		fmt.Printf("Now playing: %s — %s\n\n", cur.Title, cur.Artist)
	}
	if len(upcoming) == 0 {
		fmt.Println("Queue is empty")
		return nil
	}

	t := NewTable("#", "TITLE", "ARTIST", "LENGTH")
	for i, track := range upcoming {
		t.Row(strconv.Itoa(i+1), TruncateString(track.Title, 40), TruncateString(track.Artist, 30), FormatDuration(track.Duration))
	}
	t.Flush()

	if rest := len(queue.Upcoming()) - len(upcoming); rest > 0 {
		fmt.Printf("... and %d more\n", rest)
	}
	return nil
}

func runQueueAdd(cmd *cobra.Command, args []string) error {
	uri, err := normalizeURI(args[0])
	if err != nil {
		return err
	}
	if k := uriKind(uri); k != "track" && k != "episode" {
		return fmt.Errorf("only tracks and episodes can be queued, got %s", k)
	}

	ctx := context.Background()
	s, err := controlSession(ctx)
	if err != nil {
		return err
	}
	if err := s.player.AddToQueue(ctx, uri); err != nil {
		return fmt.Errorf("failed to add to queue: %w", err)
	}
	return report("queued", "Added "+uri+" to the queue", map[string]any{"uri": uri})
}
