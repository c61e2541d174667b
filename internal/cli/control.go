package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tessro/cadence/internal/core"
)

// volumeFlagStep is the change --up and --down apply.
const volumeFlagStep = 10

var controlDevice string

var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause playback",
	Long:  `Pause the current playback.`,
	Args:  cobra.NoArgs,
	RunE:  runPause,
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume playback",
	Long:  `Resume paused playback.`,
	Args:  cobra.NoArgs,
	RunE:  runResume,
}

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Skip to next track",
	Long:  `Skip to the next track in the queue.`,
	Args:  cobra.NoArgs,
	RunE:  runNext,
}

var prevCmd = &cobra.Command{
	Use:   "prev",
	Short: "Go to previous track",
	Long:  `Go back to the previous track.`,
	Args:  cobra.NoArgs,
	RunE:  runPrev,
}

var restartCmd = &cobra.Command{
	Use:     "restart",
	Aliases: []string{"replay"},
	Short:   "Restart current track",
	Long:    `Restart the current track from the beginning.`,
	Args:    cobra.NoArgs,
	RunE:    runRestart,
}

var seekCmd = &cobra.Command{
	Use:   "seek <position>",
	Short: "Seek within the current track",
	Long: `Seek to a position in the current track.

Examples:
  cadence seek 1:30   # Jump to 1:30
  cadence seek 90     # Jump to 90 seconds
  cadence seek +15s   # Skip ahead 15 seconds`,
	Args: cobra.ExactArgs(1),
	RunE: runSeek,
}

var (
	volumeUp   bool
	volumeDown bool
)

var volumeCmd = &cobra.Command{
	Use:   "volume [level]",
	Short: "Set or adjust volume",
	Long: `Set the playback volume (0-100) or adjust it up/down.

Examples:
  cadence volume 50      # Set volume to 50%
  cadence volume +5      # Raise by 5
  cadence volume --up    # Increase volume by 10%
  cadence volume --down  # Decrease volume by 10%`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVolume,
}

var shuffleCmd = &cobra.Command{
	Use:   "shuffle [on|off]",
	Short: "Set or toggle shuffle",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runShuffle,
}

var repeatCmd = &cobra.Command{
	Use:   "repeat [off|all|one]",
	Short: "Set or cycle the repeat mode",
	Long: `Set the repeat mode. Without an argument the mode advances
off → all → one → off.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRepeat,
}

func init() {
	for _, c := range []*cobra.Command{pauseCmd, resumeCmd, nextCmd, prevCmd, restartCmd, seekCmd, volumeCmd, shuffleCmd, repeatCmd} {
		c.Flags().StringVarP(&controlDevice, "device", "d", "", "Target device name or ID")
		rootCmd.AddCommand(c)
	}
	volumeCmd.Flags().BoolVar(&volumeUp, "up", false, "Increase volume by 10%")
	volumeCmd.Flags().BoolVar(&volumeDown, "down", false, "Decrease volume by 10%")
	volumeCmd.MarkFlagsMutuallyExclusive("up", "down")
}

// controlSession opens a session aimed at the device the command should
// act on.
func controlSession(ctx context.Context) (*session, error) {
	s, err := newSession(ctx, stderrLogger())
	if err != nil {
		return nil, err
	}
	if err := s.target(ctx, controlDevice); err != nil {
		return nil, err
	}
	return s, nil
}

// currentState returns the playback state, failing when nothing plays.
func (s *session) currentState(ctx context.Context) (*core.PlaybackState, error) {
	state, err := s.player.GetState(ctx)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, fmt.Errorf("nothing is playing")
	}
	return state, nil
}

func report(status, message string, extra map[string]any) error {
	if JSONOutput() {
		out := map[string]any{"status": status}
		for k, v := range extra {
			out[k] = v
		}
		return writeJSON(out)
	}
	fmt.Println(message)
	return nil
}

func runPause(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s, err := controlSession(ctx)
	if err != nil {
		return err
	}
	if err := s.player.Pause(ctx); err != nil {
		return fmt.Errorf("failed to pause: %w", err)
	}
	return report("paused", "⏸ Paused", nil)
}

func runResume(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s, err := controlSession(ctx)
	if err != nil {
		return err
	}
	if err := s.player.Play(ctx, core.PlayOptions{}); err != nil {
		return fmt.Errorf("failed to resume: %w", err)
	}
	return report("playing", "▶ Resumed", nil)
}

func runNext(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s, err := controlSession(ctx)
	if err != nil {
		return err
	}
	if err := s.player.Next(ctx); err != nil {
		return fmt.Errorf("failed to skip: %w", err)
	}
	return report("skipped", "⏭ Next track", nil)
}

func runPrev(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s, err := controlSession(ctx)
	if err != nil {
		return err
	}
	if err := s.player.Prev(ctx); err != nil {
		return fmt.Errorf("failed to go back: %w", err)
	}
	return report("previous", "⏮ Previous track", nil)
}

func runRestart(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s, err := controlSession(ctx)
	if err != nil {
		return err
	}
	if err := s.player.Seek(ctx, 0); err != nil {
		return fmt.Errorf("failed to restart: %w", err)
	}
	return report("restarted", "⏮ Restarted track", nil)
}

func runSeek(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s, err := controlSession(ctx)
	if err != nil {
		return err
	}
	state, err := s.currentState(ctx)
	if err != nil {
		return err
	}
	if state.Track == nil {
		return fmt.Errorf("nothing is playing")
	}

	pos, err := parsePosition(args[0], state.Progress)
	if err != nil {
		return err
	}
	pos = min(max(pos, 0), state.Track.Duration)

	if err := s.player.Seek(ctx, pos); err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}
	return report("seeked", fmt.Sprintf("⏩ %s / %s", FormatDuration(pos), FormatDuration(state.Track.Duration)),
		map[string]any{"position_ms": pos.Milliseconds()})
}

func runVolume(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !volumeUp && !volumeDown {
		return fmt.Errorf("specify a level, --up or --down")
	}

	ctx := context.Background()
	s, err := controlSession(ctx)
	if err != nil {
		return err
	}
	state, err := s.currentState(ctx)
	if err != nil {
		return err
	}

	var level int
	switch {
	case volumeUp:
		level = core.ClampVolume(state.Volume + volumeFlagStep)
	case volumeDown:
		level = core.ClampVolume(state.Volume - volumeFlagStep)
	default:
		level, err = parseVolume(args[0], state.Volume)
		if err != nil {
			return err
		}
	}

	if err := s.player.SetVolume(ctx, level); err != nil {
		return fmt.Errorf("failed to set volume: %w", err)
	}
	return report("volume", fmt.Sprintf("🔊 Volume %d%%", level), map[string]any{"volume": level})
}

func runShuffle(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s, err := controlSession(ctx)
	if err != nil {
		return err
	}
	state, err := s.currentState(ctx)
	if err != nil {
		return err
	}

	arg := ""
	if len(args) > 0 {
		arg = args[0]
	}
	on, err := parseSwitch(arg, state.Shuffle)
	if err != nil {
		return err
	}

	if err := s.player.SetShuffle(ctx, on); err != nil {
		return fmt.Errorf("failed to set shuffle: %w", err)
	}
	label := "off"
	if on {
		label = "on"
	}
	return report("shuffle", "🔀 Shuffle "+label, map[string]any{"shuffle": on})
}

func runRepeat(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s, err := controlSession(ctx)
	if err != nil {
		return err
	}
	state, err := s.currentState(ctx)
	if err != nil {
		return err
	}

	mode := state.Repeat.Next()
	if len(args) > 0 {
		var ok bool
		mode, ok = core.ParseRepeatState(strings.ToLower(args[0]))
		if !ok {
			return fmt.Errorf("invalid repeat mode %q: use off, all or one", args[0])
		}
	}

	if err := s.player.SetRepeat(ctx, mode); err != nil {
		return fmt.Errorf("failed to set repeat: %w", err)
	}
	return report("repeat", "🔁 Repeat "+mode.String(), map[string]any{"repeat": mode.String()})
}

// parseVolume reads an absolute level ("40") or a change ("+5", "-5")
// applied to current. The result is clamped to 0-100.
func parseVolume(arg string, current int) (int, error) {
	relative := strings.HasPrefix(arg, "+") || strings.HasPrefix(arg, "-")
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid volume %q: use 0-100, +N or -N", arg)
	}
	if relative {
		return core.ClampVolume(current + n), nil
	}
	if n < 0 || n > 100 {
		return 0, fmt.Errorf("volume must be between 0 and 100, got %d", n)
	}
	return n, nil
}

// parseSwitch reads on/off spellings. An empty arg toggles current.
func parseSwitch(arg string, current bool) (bool, error) {
	switch strings.ToLower(arg) {
	case "":
		return !current, nil
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid value %q: use on or off", arg)
}

// parsePosition reads "m:ss", bare seconds, or a Go duration. A leading
// "+" or "-" makes it relative to current.
func parsePosition(arg string, current time.Duration) (time.Duration, error) {
	sign := 0
	rest := arg
	switch {
	case strings.HasPrefix(arg, "+"):
		sign, rest = 1, arg[1:]
	case strings.HasPrefix(arg, "-"):
		sign, rest = -1, arg[1:]
	}

	d, err := parseClock(rest)
	if err != nil {
		return 0, fmt.Errorf("invalid position %q: use m:ss, seconds or a duration like 15s", arg)
	}
	if sign == 0 {
		return d, nil
	}
	return current + time.Duration(sign)*d, nil
}

func parseClock(s string) (time.Duration, error) {
	if m, sec, ok := strings.Cut(s, ":"); ok {
		mi, err := strconv.Atoi(m)
		if err != nil || mi < 0 {
			return 0, fmt.Errorf("bad minutes")
		}
		si, err := strconv.Atoi(sec)
		if err != nil || si < 0 || si >= 60 {
			return 0, fmt.Errorf("bad seconds")
		}
		return time.Duration(mi)*time.Minute + time.Duration(si)*time.Second, nil
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("bad duration")
	}
	return d, nil
}
