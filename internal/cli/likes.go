package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tessro/cadence/internal/library"
)

var likesCmd = &cobra.Command{
	Use:   "likes",
	Short: "Show the liked-songs cache",
	Long: `Shows how many liked songs are cached locally. The dashboard uses
the cache to mark liked tracks and refreshes it on start.`,
	Args: cobra.NoArgs,
	RunE: runLikes,
}

var likesSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Download liked songs into the cache",
	Args:  cobra.NoArgs,
	RunE:  runLikesSync,
}

func init() {
	likesCmd.AddCommand(likesSyncCmd)
	rootCmd.AddCommand(likesCmd)
}

// likesPath is the cache file, honoring cache.dir.
func likesPath() string {
	if cfg.Cache.Dir != "" {
		return filepath.Join(cfg.Cache.Dir, "likes.db")
	}
	return ""
}

func runLikes(cmd *cobra.Command, args []string) error {
	likes, err := library.Open(likesPath())
	if err != nil {
		return err
	}
	defer func() { _ = likes.Close() }()

	if JSONOutput() {
		return writeJSON(map[string]any{"count": likes.Len()})
	}
	fmt.Printf("%s liked songs cached\n", humanize.Comma(int64(likes.Len())))
	return nil
}

func runLikesSync(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s, err := newSession(ctx, stderrLogger())
	if err != nil {
		return err
	}

	saved, err := s.player.SavedTracks(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch liked songs: %w", err)
	}

	likes, err := library.Open(likesPath())
	if err != nil {
		return err
	}
	defer func() { _ = likes.Close() }()

	liked := make([]library.Liked, len(saved))
	for i, t := range saved {
		liked[i] = library.Liked{URI: t.URI, AddedAt: t.AddedAt}
	}
	if err := likes.Replace(liked); err != nil {
		return err
	}

	return report("synced", fmt.Sprintf("Cached %s liked songs", humanize.Comma(int64(len(liked)))),
		map[string]any{"count": len(liked)})
}
