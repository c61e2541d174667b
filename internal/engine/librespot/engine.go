// Package librespot runs librespot as the local Connect engine. The
// process reports player events through its --onevent hook, which runs
// "cadence engine-event" and relays them over a Unix socket.
package librespot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/tessro/cadence/internal/core"
	cerrors "github.com/tessro/cadence/internal/errors"
	"github.com/tessro/cadence/internal/playback"
)

const (
	DefaultBinary     = "librespot"
	DefaultDeviceName = "Spotify-RS"
	DefaultBackend    = "rodio"
	DefaultBitrate    = 320

	// killAfter is how long Close waits for SIGTERM before killing.
	killAfter = 3 * time.Second
)

// ErrExited is returned when the engine process is no longer running.
var ErrExited = errors.New("engine process exited")

// Remote is the part of the Web API the engine drives its own device
// through.
type Remote interface {
	GetDevices(ctx context.Context) ([]core.Device, error)
	NextOn(ctx context.Context, deviceID string) error
	PauseOn(ctx context.Context, deviceID string) error
}

// Config describes how to run librespot.
type Config struct {
	Binary        string
	DeviceName    string
	Backend       string
	Bitrate       int
	InitialVolume int
	CacheDir      string

	// SocketDir holds the per-engine event sockets.
	SocketDir string

	// HookCommand is the program librespot runs per event. The socket
	// arguments are appended to it.
	HookCommand string

	// ReadyTimeout bounds the wait for the device to show up in the
	// device list after the process starts.
	ReadyTimeout  time.Duration
	ReadyInterval time.Duration
}

func (c *Config) setDefaults() {
	if c.Binary == "" {
		c.Binary = DefaultBinary
	}
	if c.DeviceName == "" {
		c.DeviceName = DefaultDeviceName
	}
	if c.Backend == "" {
		c.Backend = DefaultBackend
	}
	if c.Bitrate == 0 {
		c.Bitrate = DefaultBitrate
	}
	if c.InitialVolume <= 0 {
		c.InitialVolume = core.DefaultVolume
	}
	if c.SocketDir == "" {
		c.SocketDir = os.TempDir()
	}
	if c.ReadyTimeout == 0 {
		c.ReadyTimeout = 10 * time.Second
	}
	if c.ReadyInterval == 0 {
		c.ReadyInterval = 250 * time.Millisecond
	}
}

// Factory creates librespot engines. It holds the credentials every
// engine is started with.
type Factory struct {
	cfg    Config
	remote Remote
	tokens oauth2.TokenSource
	log    *log.Logger

	// command builds the process. Tests replace it.
	command func(name string, args ...string) *exec.Cmd
	seq     atomic.Uint64
}

// NewFactory creates a Factory.
func NewFactory(cfg Config, remote Remote, tokens oauth2.TokenSource, logger *log.Logger) *Factory {
	cfg.setDefaults()
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Factory{
		cfg:     cfg,
		remote:  remote,
		tokens:  tokens,
		log:     logger,
		command: exec.Command,
	}
}

// DeviceName is the name engines register under.
func (f *Factory) DeviceName() string {
	return f.cfg.DeviceName
}

func (f *Factory) args(socket, token string) []string {
	args := []string{
		"--name", f.cfg.DeviceName,
		"--backend", f.cfg.Backend,
		"--bitrate", strconv.Itoa(f.cfg.Bitrate),
		"--initial-volume", strconv.Itoa(core.ClampVolume(f.cfg.InitialVolume)),
		"--device-type", "computer",
		"--disable-audio-cache",
	}
	if f.cfg.CacheDir != "" {
		args = append(args, "--cache", f.cfg.CacheDir)
	}
	if token != "" {
		args = append(args, "--access-token", token)
	}
	if f.cfg.HookCommand != "" {
		args = append(args, "--onevent", f.cfg.HookCommand+" engine-event --socket "+socket)
	}
	return args
}

// Create starts a librespot process and waits for its device to appear.
// An engine that does not show up in time is still returned; the caller's
// transfer will report it missing.
func (f *Factory) Create(ctx context.Context, activate bool) (playback.Engine, <-chan playback.Event, error) {
	var token string
	if f.tokens != nil {
		tok, err := f.tokens.Token()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get credentials: %w", err)
		}
		token = tok.AccessToken
	}

	n := f.seq.Add(1)
	socket := filepath.Join(f.cfg.SocketDir, fmt.Sprintf("cadence-engine-%d-%d.sock", os.Getpid(), n))
	logger := f.log.With("engine", n)

	srv, err := listenEvents(socket, logger)
	if err != nil {
		return nil, nil, err
	}

	cmd := f.command(f.cfg.Binary, f.args(socket, token)...)
	out := logger.StandardLog(log.StandardLogOptions{ForceLevel: log.DebugLevel}).Writer()
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Start(); err != nil {
		_ = srv.Close()
		return nil, nil, fmt.Errorf("failed to start %s: %w", f.cfg.Binary, err)
	}
	logger.Info("engine started", "pid", cmd.Process.Pid, "device", f.cfg.DeviceName)

	e := &Engine{
		name:   f.cfg.DeviceName,
		remote: f.remote,
		cmd:    cmd,
		srv:    srv,
		exited: make(chan struct{}),
		log:    logger,
	}
	go e.wait()

	if err := e.waitForDevice(ctx, f.cfg.ReadyTimeout, f.cfg.ReadyInterval); err != nil {
		_ = e.Close()
		return nil, nil, err
	}

	if activate {
		if err := e.Activate(ctx); err != nil {
			_ = e.Close()
			return nil, nil, err
		}
	}
	return e, srv.events, nil
}

// Engine is a running librespot process.
type Engine struct {
	name   string
	remote Remote
	cmd    *exec.Cmd
	srv    *eventServer
	log    *log.Logger

	exited  chan struct{}
	waitErr error

	mu       sync.Mutex
	deviceID string
	active   bool

	closeOnce sync.Once
	closeErr  error
}

func (e *Engine) wait() {
	e.waitErr = e.cmd.Wait()
	close(e.exited)
	e.log.Info("engine process exited", "err", e.waitErr)
}

func (e *Engine) alive() bool {
	select {
	case <-e.exited:
		return false
	default:
		return true
	}
}

// waitForDevice polls the device list until the engine is visible.
func (e *Engine) waitForDevice(ctx context.Context, timeout, interval time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := e.resolve(ctx); err == nil {
			return nil
		}
		select {
		case <-e.exited:
			return fmt.Errorf("%w: %v", ErrExited, e.waitErr)
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				e.log.Warn("engine not visible yet", "device", e.name)
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// resolve returns the Connect id of the engine's device.
func (e *Engine) resolve(ctx context.Context) (string, error) {
	e.mu.Lock()
	id := e.deviceID
	e.mu.Unlock()
	if id != "" {
		return id, nil
	}
	if e.remote == nil {
		return "", cerrors.ErrDeviceNotFound
	}

	devices, err := e.remote.GetDevices(ctx)
	if err != nil {
		return "", err
	}
	d := core.FindDevice(devices, e.name)
	if d == nil || d.ID == "" {
		return "", fmt.Errorf("%w: %s", cerrors.ErrDeviceNotFound, e.name)
	}

	e.mu.Lock()
	e.deviceID = d.ID
	e.mu.Unlock()
	return d.ID, nil
}

// Activate marks the engine as the playback sink.
func (e *Engine) Activate(ctx context.Context) error {
	if !e.alive() {
		return ErrExited
	}
	e.mu.Lock()
	e.active = true
	e.mu.Unlock()
	return nil
}

// IsActive reports whether the engine was activated and not stopped since.
func (e *Engine) IsActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// Stop pauses the engine's device.
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	e.active = false
	e.mu.Unlock()

	if !e.alive() {
		return nil
	}
	id, err := e.resolve(ctx)
	if err != nil {
		return err
	}
	if err := e.remote.PauseOn(ctx, id); err != nil && !isNotPlaying(err) {
		return err
	}
	return nil
}

// isNotPlaying reports the restriction error the service returns when
// pausing a device that is already paused.
func isNotPlaying(err error) bool {
	return strings.Contains(err.Error(), "403")
}

// SkipToNext advances the engine's device to the next track.
func (e *Engine) SkipToNext(ctx context.Context) error {
	if !e.alive() {
		return ErrExited
	}
	id, err := e.resolve(ctx)
	if err != nil {
		return err
	}
	return e.remote.NextOn(ctx, id)
}

// Events returns the engine's event channel.
func (e *Engine) Events() <-chan playback.Event {
	return e.srv.events
}

// DeviceName returns the Connect name of the engine.
func (e *Engine) DeviceName() string {
	return e.name
}

// Close terminates the process and closes the event channel.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		if e.alive() {
			_ = e.cmd.Process.Signal(syscall.SIGTERM)
			select {
			case <-e.exited:
			case <-time.After(killAfter):
				e.log.Warn("engine ignored SIGTERM, killing")
				if err := e.cmd.Process.Kill(); err != nil {
					e.closeErr = err
				}
				<-e.exited
			}
		}
		if err := e.srv.Close(); err != nil && e.closeErr == nil {
			e.closeErr = err
		}
	})
	return e.closeErr
}

var (
	_ playback.Engine        = (*Engine)(nil)
	_ playback.EngineFactory = (*Factory)(nil)
)
