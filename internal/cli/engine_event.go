package cli

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tessro/cadence/internal/engine/librespot"
)

// hookTimeout bounds how long librespot waits on one event delivery.
const hookTimeout = 2 * time.Second

var engineEventSocket string

// engineEventCmd is what librespot runs for each player event. It reads
// the event from the environment and forwards it to the dashboard.
var engineEventCmd = &cobra.Command{
	Use:    "engine-event",
	Short:  "Forward a librespot player event",
	Hidden: true,
	Args:   cobra.NoArgs,
	// Runs without a config file.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), hookTimeout)
		defer cancel()
		return librespot.SendHook(ctx, engineEventSocket, librespot.MessageFromEnv(os.Getenv))
	},
}

func init() {
	engineEventCmd.Flags().StringVar(&engineEventSocket, "socket", "", "Event socket of the running engine")
	_ = engineEventCmd.MarkFlagRequired("socket")
	rootCmd.AddCommand(engineEventCmd)
}
