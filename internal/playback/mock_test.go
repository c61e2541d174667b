package playback

import (
	"context"
	"errors"
	"sync"

	"github.com/tessro/cadence/internal/core"
)

const testDeviceName = "cadence-test"

type fakeEngine struct {
	name   string
	events chan Event

	mu          sync.Mutex
	activates   int
	stops       int
	skips       int
	activateErr error
	closed      bool
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{name: testDeviceName, events: make(chan Event, 16)}
}

func (e *fakeEngine) Activate(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.activates++
	return e.activateErr
}

func (e *fakeEngine) Stop(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stops++
	return nil
}

func (e *fakeEngine) SkipToNext(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.skips++
	return nil
}

func (e *fakeEngine) Events() <-chan Event { return e.events }

func (e *fakeEngine) DeviceName() string { return e.name }

func (e *fakeEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		close(e.events)
	}
	return nil
}

func (e *fakeEngine) counts() (activates, skips int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activates, e.skips
}

func (e *fakeEngine) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

type fakeFactory struct {
	mu        sync.Mutex
	created   []*fakeEngine
	activated []bool
	err       error
}

func (f *fakeFactory) Create(_ context.Context, activate bool) (Engine, <-chan Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, nil, f.err
	}
	e := newFakeEngine()
	f.created = append(f.created, e)
	f.activated = append(f.activated, activate)
	return e, e.events, nil
}

func (f *fakeFactory) creates() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

// closeAll closes every engine the factory made so listeners exit.
func (f *fakeFactory) closeAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.created {
		_ = e.Close()
	}
}

type transfer struct {
	deviceID string
	play     bool
}

type fakeRemote struct {
	mu          sync.Mutex
	devices     []core.Device
	devicesErr  error
	deviceCalls int
	transfers   []transfer
	transferErr error
	// activateOnTransfer marks the target device active on a successful
	// transfer, the way Connect does.
	activateOnTransfer bool
	state              *core.PlaybackState
	stateCalls  int
	nexts       int
}

func (r *fakeRemote) GetDevices(context.Context) ([]core.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deviceCalls++
	if r.devicesErr != nil {
		return nil, r.devicesErr
	}
	return append([]core.Device(nil), r.devices...), nil
}

func (r *fakeRemote) TransferPlayback(_ context.Context, deviceID string, play bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transfers = append(r.transfers, transfer{deviceID, play})
	if r.transferErr != nil {
		return r.transferErr
	}
	if r.activateOnTransfer {
		for i := range r.devices {
			r.devices[i].IsActive = r.devices[i].ID == deviceID
		}
	}
	return nil
}

// dropSession makes every device inactive, as when the service forgets
// the local session.
func (r *fakeRemote) dropSession() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.devices {
		r.devices[i].IsActive = false
	}
}

// command behaves like a player command: it fails unless some device is
// active.
func (r *fakeRemote) command(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if core.ActiveDevice(r.devices) == nil {
		return errors.New("Spotify API error 404: Player command failed: No active device found")
	}
	return nil
}

func (r *fakeRemote) GetState(context.Context) (*core.PlaybackState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stateCalls++
	return r.state, nil
}

func (r *fakeRemote) Next(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nexts++
	return nil
}

func (r *fakeRemote) setState(s *core.PlaybackState) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

func (r *fakeRemote) calls() (devices, transfers, nexts int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deviceCalls, len(r.transfers), r.nexts
}
