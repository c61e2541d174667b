package cli

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	// Set via ldflags at build time
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// enginePath resolves the configured librespot binary, or "" when it is
// not on PATH.
func enginePath() string {
	if cfg == nil {
		return ""
	}
	p, err := exec.LookPath(cfg.Engine.Binary)
	if err != nil {
		return ""
	}
	return p
}

func runVersion(cmd *cobra.Command, args []string) error {
	engine := enginePath()

	if JSONOutput() {
		return writeJSON(map[string]any{
			"version":        Version,
			"commit":         Commit,
			"build_date":     BuildDate,
			"go_version":     runtime.Version(),
			"os":             runtime.GOOS,
			"arch":           runtime.GOARCH,
			"engine_enabled": cfg != nil && cfg.Engine.Enabled,
			"engine_binary":  engine,
		})
	}

	fmt.Printf("cadence %s\n", Version)
	if Verbose() {
		fmt.Printf("  commit:     %s\n", Commit)
		fmt.Printf("  built:      %s\n", BuildDate)
		fmt.Printf("  go version: %s\n", runtime.Version())
		fmt.Printf("  platform:   %s/%s\n", runtime.GOOS, runtime.GOARCH)
		if engine == "" {
			engine = "not found"
		}
		fmt.Printf("  librespot:  %s\n", engine)
	}
	return nil
}
