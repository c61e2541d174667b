package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/tessro/cadence/internal/core"
	cerrors "github.com/tessro/cadence/internal/errors"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List available playback devices",
	Long:  `Lists the Spotify Connect devices visible to your account.`,
	Args:  cobra.NoArgs,
	RunE:  runDevices,
}

var transferPlay bool

var transferCmd = &cobra.Command{
	Use:   "transfer [device]",
	Short: "Move playback to another device",
	Long: `Transfer playback to a device by name or ID. Without an argument
a picker lists the available devices.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTransfer,
}

func init() {
	transferCmd.Flags().BoolVarP(&transferPlay, "play", "p", true, "Start playing after the transfer")
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(transferCmd)
}

func runDevices(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s, err := newSession(ctx, stderrLogger())
	if err != nil {
		return err
	}

	devices, err := s.player.GetDevices(ctx)
	if err != nil {
		return fmt.Errorf("failed to get devices: %w", err)
	}

	if JSONOutput() {
		if devices == nil {
			devices = []core.Device{}
		}
		return writeJSON(devices)
	}

	if len(devices) == 0 {
		fmt.Println("No devices found")
		return nil
	}

	t := NewTable("", "NAME", "TYPE", "VOLUME")
	for _, d := range devices {
		t.Row(StatusIcon(d.IsActive), deviceLabel(d), string(d.Type), volumeLabel(d.Volume))
	}
	t.Flush()

	if Verbose() {
		fmt.Println()
		for _, d := range devices {
			fmt.Printf("%s  %s\n", d.ID, d.Name)
		}
	}
	return nil
}

func deviceLabel(d core.Device) string {
	label := d.Name
	if cfg != nil && cfg.Engine.Enabled && d.Name == cfg.Engine.DeviceName {
		label += " (cadence)"
	}
	if d.IsRestricted {
		label += " [restricted]"
	}
	return label
}

func volumeLabel(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d%%", *v)
}

func runTransfer(cmd *cobra.Command, args []string) error {
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
		return cerrors.WithSuggestion(cerrors.ErrDeviceNotFound, "Open Spotify on a device so it shows up in 'cadence devices'")
	}

	var target *core.Device
	if len(args) == 1 {
		target = findDevice(devices, args[0])
		if target == nil {
			return fmt.Errorf("%w: %s", cerrors.ErrDeviceNotFound, args[0])
		}
	} else {
		if !interactive() {
			return fmt.Errorf("specify a device name or ID")
		}
		id, err := pickDevice("Transfer playback to", "", devices)
		if err != nil {
			return err
		}
		target = findDevice(devices, id)
	}

	if err := s.player.TransferPlayback(ctx, target.ID, transferPlay); err != nil {
		return fmt.Errorf("failed to transfer playback: %w", err)
	}
	return report("transferred", "Playing on "+target.Name, map[string]any{"device_id": target.ID, "device": target.Name})
}

// pickDevice shows a device picker and returns the chosen device ID.
func pickDevice(title, description string, devices []core.Device) (string, error) {
	options := make([]huh.Option[string], 0, len(devices))
	for _, d := range devices {
		label := deviceLabel(d)
		if d.Type != "" {
			label = fmt.Sprintf("%s (%s)", label, d.Type)
		}
		if d.IsActive {
			label += " [active]"
		}
		options = append(options, huh.NewOption(label, d.ID))
	}

	var selectedID string
	sel := huh.NewSelect[string]().
		Title(title).
		Options(options...).
		Value(&selectedID)
	if description != "" {
		sel = sel.Description(description)
	}

	if err := huh.NewForm(huh.NewGroup(sel)).Run(); err != nil {
		return "", fmt.Errorf("selection cancelled: %w", err)
	}
	return selectedID, nil
}
