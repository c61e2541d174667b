package playback

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tessro/cadence/internal/core"
	cerrors "github.com/tessro/cadence/internal/errors"
)

// Remote is the part of the Web API the arbitrator needs.
type Remote interface {
	GetDevices(ctx context.Context) ([]core.Device, error)
	TransferPlayback(ctx context.Context, deviceID string, play bool) error
}

// ArbitratorOptions holds the waits used while activating and restarting
// the local engine.
type ArbitratorOptions struct {
	// ReadyTimeout bounds the wait for the engine to finish creation,
	// polled every ReadyInterval.
	ReadyTimeout  time.Duration
	ReadyInterval time.Duration

	// TransferDelay lets Connect see an activated engine before playback
	// is transferred to it.
	TransferDelay time.Duration

	// RestartDelay separates dropping the old engine from creating the new
	// one. RetryDelay separates installing it from retrying the command.
	RestartDelay time.Duration
	RetryDelay   time.Duration
}

// DefaultArbitratorOptions returns the production waits.
func DefaultArbitratorOptions() ArbitratorOptions {
	return ArbitratorOptions{
		ReadyTimeout:  5 * time.Second,
		ReadyInterval: 100 * time.Millisecond,
		TransferDelay: time.Second,
		RestartDelay:  time.Second,
		RetryDelay:    500 * time.Millisecond,
	}
}

// Arbitrator makes sure a playback target exists before a command runs and
// restarts the local engine once when a command fails because the device
// went away.
type Arbitrator struct {
	remote  Remote
	factory EngineFactory
	handle  *Handle
	sync    *Synchronizer
	state   *State
	opts    ArbitratorOptions
	log     *log.Logger

	// restartMu keeps two failing commands from restarting concurrently.
	restartMu sync.Mutex
}

// NewArbitrator creates an Arbitrator. factory may be nil when no local
// engine is configured.
func NewArbitrator(remote Remote, factory EngineFactory, handle *Handle, synchronizer *Synchronizer, state *State, opts ArbitratorOptions, logger *log.Logger) *Arbitrator {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Arbitrator{
		remote:  remote,
		factory: factory,
		handle:  handle,
		sync:    synchronizer,
		state:   state,
		opts:    opts,
		log:     logger,
	}
}

// Boot creates the local engine in its dormant state and starts listening
// to it. Creation can take a while, so callers run it in a goroutine; the
// other methods wait for it.
func (a *Arbitrator) Boot(ctx context.Context) error {
	if a.factory == nil {
		return cerrors.ErrBackendNotReady
	}
	engine, events, err := a.factory.Create(ctx, false)
	if err != nil {
		a.log.Error("failed to create local engine", "err", err)
		return err
	}
	a.handle.Install(engine, events, false)
	a.sync.Start()
	a.log.Info("local engine ready", "device", engine.DeviceName())
	return nil
}

// EnsureTarget makes sure there is somewhere for playback to go. It
// returns nil immediately if the local engine is the active sink or any
// remote device is active. Otherwise it activates the local engine and
// transfers playback onto it. Failures are also raised into State.
func (a *Arbitrator) EnsureTarget(ctx context.Context) error {
	if a.handle.IsActive() {
		a.log.Debug("local engine already active")
		return nil
	}

	devices, err := a.remote.GetDevices(ctx)
	if err != nil {
		a.log.Warn("failed to list devices", "err", err)
	} else if d := core.ActiveDevice(devices); d != nil {
		a.log.Debug("found active device", "device", d.Name)
		return nil
	}

	a.log.Debug("no active device, activating local engine")
	engine, err := a.waitForEngine(ctx)
	if err != nil {
		a.log.Warn("audio backend not ready after waiting")
		a.state.SetError(cerrors.UserMessage(err))
		return err
	}

	if err := a.activate(ctx, engine); err != nil {
		return err
	}

	if err := sleepCtx(ctx, a.opts.TransferDelay); err != nil {
		return err
	}
	if err := a.transferTo(ctx, engine.DeviceName()); err != nil {
		a.log.Warn("failed to transfer playback to local device, will try during play", "err", err)
	}

	a.log.Info("local engine activated for playback")
	return nil
}

// Activate makes the local engine the active sink without transferring
// playback to it. It waits for the engine to be created if needed.
func (a *Arbitrator) Activate(ctx context.Context) error {
	engine, err := a.waitForEngine(ctx)
	if err != nil {
		a.state.SetError(cerrors.UserMessage(err))
		return err
	}
	return a.activate(ctx, engine)
}

func (a *Arbitrator) activate(ctx context.Context, engine Engine) error {
	if err := engine.Activate(ctx); err != nil {
		a.log.Error("failed to activate local engine", "err", err)
		err = fmt.Errorf("%w: %w", cerrors.ErrActivation, err)
		a.state.SetError(cerrors.UserMessage(err))
		return err
	}
	a.handle.SetActive(true)
	a.sync.Start()
	a.state.SetDeviceName(engine.DeviceName())
	return nil
}

// transferTo moves playback onto the device called name without starting
// it.
func (a *Arbitrator) transferTo(ctx context.Context, name string) error {
	devices, err := a.remote.GetDevices(ctx)
	if err != nil {
		return fmt.Errorf("list devices: %w", err)
	}
	d := core.FindDevice(devices, name)
	if d == nil {
		a.log.Warn("local device not in device list", "device", name, "devices", len(devices))
		return fmt.Errorf("%w: %s", cerrors.ErrDeviceNotFound, name)
	}
	a.log.Info("transferring playback to local device", "device", name, "id", d.ID)
	return a.remote.TransferPlayback(ctx, d.ID, false)
}

// waitForEngine polls until the engine exists or ReadyTimeout passes.
func (a *Arbitrator) waitForEngine(ctx context.Context) (Engine, error) {
	if e := a.handle.Engine(); e != nil {
		return e, nil
	}
	if a.factory == nil {
		return nil, cerrors.ErrBackendNotReady
	}

	deadline := time.Now().Add(a.opts.ReadyTimeout)
	ticker := time.NewTicker(a.opts.ReadyInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			if e := a.handle.Engine(); e != nil {
				return e, nil
			}
			if !time.Now().Before(deadline) {
				return nil, cerrors.ErrBackendNotReady
			}
		}
	}
}

// WithRecovery runs op. If op fails with a device error while a local
// engine exists, the engine is restarted and op is retried exactly once.
// The retry's result is returned as is.
func (a *Arbitrator) WithRecovery(ctx context.Context, op func(context.Context) error) error {
	err := op(ctx)
	if err == nil {
		return nil
	}

	recoverable := cerrors.IsRecoverable(err)
	hasEngine := a.handle.Engine() != nil
	a.log.Debug("playback operation failed", "err", err, "recoverable", recoverable, "local_engine", hasEngine)
	if !recoverable || !hasEngine {
		return err
	}

	a.log.Info("device unavailable, restarting local engine")
	if rerr := a.Restart(ctx); rerr != nil {
		return err
	}

	if err := sleepCtx(ctx, a.opts.RetryDelay); err != nil {
		return err
	}

	a.log.Debug("retrying playback operation after restart")
	if err := op(ctx); err != nil {
		a.log.Error("playback operation failed even after restart", "err", err)
		return err
	}
	a.log.Info("playback operation succeeded after restart")
	return nil
}

// Restart replaces the local engine with a new, activated one, starts a
// listener on its events and transfers playback onto it. The old engine is
// fully closed first. If the transfer fails the new engine stays installed
// but is not marked active, so the next EnsureTarget takes the full path.
func (a *Arbitrator) Restart(ctx context.Context) error {
	a.restartMu.Lock()
	defer a.restartMu.Unlock()

	if a.factory == nil {
		return cerrors.ErrBackendNotReady
	}

	a.state.SetError("Reconnecting audio...")

	if old := a.handle.Take(); old != nil {
		if err := old.Close(); err != nil {
			a.log.Warn("failed to close old engine", "err", err)
		}
	}

	if err := sleepCtx(ctx, a.opts.RestartDelay); err != nil {
		return err
	}

	engine, events, err := a.factory.Create(ctx, true)
	if err != nil {
		a.log.Error("audio reconnect failed", "err", err)
		a.state.SetError("Audio reconnect failed: " + err.Error())
		return err
	}

	a.handle.Install(engine, events, true)
	a.sync.Start()
	a.state.SetDeviceName(engine.DeviceName())

	if err := sleepCtx(ctx, a.opts.TransferDelay); err != nil {
		a.handle.SetActive(false)
		return err
	}
	if err := a.transferTo(ctx, engine.DeviceName()); err != nil {
		a.log.Error("failed to transfer playback after restart", "err", err)
		a.handle.SetActive(false)
		a.state.SetError("Audio reconnect failed: " + err.Error())
		return err
	}
	a.state.ClearError()
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
