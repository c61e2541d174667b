package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/tessro/cadence/internal/config"
	cerrors "github.com/tessro/cadence/internal/errors"
	"github.com/tessro/cadence/internal/logging"
)

var (
	cfgFile string
	jsonOut bool
	verbose bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "cadence",
	Short: "Play Spotify from the terminal",
	Long: `Cadence is a terminal Spotify client. It plays through a local
librespot engine or controls any Spotify Connect device.

Run without a subcommand to open the dashboard.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	RunE:          runTUI,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.cadencerc)")
	rootCmd.PersistentFlags().BoolVarP(&jsonOut, "json", "j", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func initConfig() error {
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFrom(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("%w: %w", cerrors.ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", cerrors.ErrInvalidConfig, err)
	}

	return nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, cerrors.Format(err))
		os.Exit(1)
	}
}

// Config returns the loaded configuration.
func Config() *config.Config {
	return cfg
}

// JSONOutput returns true if JSON output is requested.
func JSONOutput() bool {
	return jsonOut
}

// Verbose returns true if verbose output is requested.
func Verbose() bool {
	return verbose
}

// stderrLogger logs to stderr for one-shot commands. Only warnings are
// shown unless --verbose is set.
func stderrLogger() *log.Logger {
	level := "warn"
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(os.Stderr, level)
	if err != nil {
		return logging.Discard()
	}
	return logger
}

// configPath is the file config commands read and write.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.Path()
}
