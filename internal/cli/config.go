package cli

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/tessro/cadence/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Commands for viewing and editing cadence configuration.`,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration, including environment overrides.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long:  `Open the configuration file in your default editor.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long:  `Create a new configuration file with default values.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value.

Common keys:
  spotify.client_id     Spotify application client ID
  engine.enabled        Run the local librespot engine (true/false)
  engine.device_name    Name the local engine registers under
  engine.bitrate        96, 160 or 320
  defaults.device       Device used when nothing is active
  tui.theme             auto, dark, light, latte, frappe, macchiato or mocha

Examples:
  cadence config set defaults.device "Kitchen"
  cadence config set engine.bitrate 160`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configSetDeviceCmd = &cobra.Command{
	Use:   "set-device",
	Short: "Interactively select default device",
	Long:  `Shows a picker to select the default playback device.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigSetDevice,
}

func init() {
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configSetDeviceCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	path := configPath()
	_, err := os.Stat(path)
	if JSONOutput() {
		return writeJSON(map[string]any{"path": path, "exists": err == nil})
	}
	fmt.Println(path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	if JSONOutput() {
		return writeJSON(cfg)
	}

	encoder := toml.NewEncoder(os.Stdout)
	encoder.Indent = "  "
	return encoder.Encode(cfg)
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	path := configPath()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("config file not found at %s. Run 'cadence config init' first", path)
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		for _, e := range []string{"nano", "vim", "vi", "notepad"} {
			if _, err := exec.LookPath(e); err == nil {
				editor = e
				break
			}
		}
	}
	if editor == "" {
		return fmt.Errorf("no editor found. Set EDITOR environment variable")
	}

	editorCmd := exec.Command(editor, path)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	return editorCmd.Run()
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configPath()
	if err := config.WriteDefault(path); err != nil {
		return err
	}

	if JSONOutput() {
		return writeJSON(map[string]string{
			"status": "created",
			"path":   path,
		})
	}
	fmt.Printf("Created config file: %s\n", path)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Set your Spotify client ID in the config file or via CADENCE_SPOTIFY_CLIENT_ID")
	fmt.Println("  2. Run 'cadence auth login' to authenticate with Spotify")
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]
	path := configPath()

	if err := config.Set(path, key, value); err != nil {
		return err
	}

	// Re-read so a bad value is reported now rather than on the next run.
	updated, err := config.LoadFrom(path)
	if err != nil {
		return err
	}
	if err := updated.Validate(); err != nil {
		return fmt.Errorf("%s now holds an invalid value: %w", path, err)
	}

	if JSONOutput() {
		return writeJSON(map[string]string{
			"status": "updated",
			"key":    key,
			"value":  value,
		})
	}
	fmt.Printf("Set %s = %s\n", key, value)
	return nil
}

func runConfigSetDevice(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s, err := newSession(ctx, stderrLogger())
	if err != nil {
		return err
	}

	devices, err := s.player.GetDevices(ctx)
	if err != nil {
		return fmt.Errorf("failed to get devices: %w", err)
	}
	if len(devices) == 0 {
		return fmt.Errorf("no devices found. Make sure Spotify is open on at least one device")
	}

	id, err := pickDevice("Select default device",
		"This device will be used when no active device is found", devices)
	if err != nil {
		return err
	}
	d := findDevice(devices, id)
	if d == nil {
		return fmt.Errorf("device %s disappeared", id)
	}

	return runConfigSet(cmd, []string{"defaults.device", d.Name})
}
