package app

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/tessro/cadence/internal/core"
	"github.com/tessro/cadence/internal/playback"
	"github.com/tessro/cadence/internal/spotify/player"
)

type call struct {
	name string
	arg  any
}

type fakeRemote struct {
	mu      sync.Mutex
	calls   []call
	errs    map[string]error
	state   *core.PlaybackState
	devices []core.Device
	queue   *core.Queue
	saved   []player.SavedTrack
}

func (r *fakeRemote) record(name string, arg any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{name, arg})
	return r.errs[name]
}

func (r *fakeRemote) setErr(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.errs == nil {
		r.errs = map[string]error{}
	}
	r.errs[name] = err
}

func (r *fakeRemote) called(name string) []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	var args []any
	for _, c := range r.calls {
		if c.name == name {
			args = append(args, c.arg)
		}
	}
	return args
}

func (r *fakeRemote) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, c := range r.calls {
		if !slices.Contains([]string{"state", "devices", "queue", "saved"}, c.name) {
			out = append(out, c.name)
		}
	}
	return out
}

func (r *fakeRemote) GetState(context.Context) (*core.PlaybackState, error) {
	err := r.record("state", nil)
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state, err
}

func (r *fakeRemote) GetDevices(context.Context) ([]core.Device, error) {
	err := r.record("devices", nil)
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.devices), err
}

func (r *fakeRemote) GetQueue(context.Context) (*core.Queue, error) {
	err := r.record("queue", nil)
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.queue, err
}

func (r *fakeRemote) Play(_ context.Context, opts core.PlayOptions) error {
	return r.record("play", opts)
}

func (r *fakeRemote) Pause(context.Context) error { return r.record("pause", nil) }
func (r *fakeRemote) Next(context.Context) error  { return r.record("next", nil) }
func (r *fakeRemote) Prev(context.Context) error  { return r.record("prev", nil) }

func (r *fakeRemote) Seek(_ context.Context, pos time.Duration) error {
	return r.record("seek", pos)
}

func (r *fakeRemote) SetVolume(_ context.Context, v int) error { return r.record("volume", v) }
func (r *fakeRemote) SetShuffle(_ context.Context, on bool) error {
	return r.record("shuffle", on)
}

func (r *fakeRemote) SetRepeat(_ context.Context, m core.RepeatMode) error {
	return r.record("repeat", m)
}

func (r *fakeRemote) TransferPlayback(_ context.Context, id string, _ bool) error {
	return r.record("transfer", id)
}

func (r *fakeRemote) AddToQueue(_ context.Context, uri string) error {
	return r.record("enqueue", uri)
}

func (r *fakeRemote) SavedTracks(context.Context) ([]player.SavedTrack, error) {
	err := r.record("saved", nil)
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.saved), err
}

func (r *fakeRemote) SetLiked(_ context.Context, uri string, liked bool) error {
	return r.record("liked", liked)
}

type fakeEngine struct {
	name   string
	events chan playback.Event

	mu        sync.Mutex
	activates int
	stops     int
	closed    bool
}

func newFakeEngine(name string) *fakeEngine {
	return &fakeEngine{name: name, events: make(chan playback.Event, 8)}
}

func (e *fakeEngine) Activate(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.activates++
	return nil
}

func (e *fakeEngine) Stop(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stops++
	return nil
}

func (e *fakeEngine) SkipToNext(context.Context) error { return nil }
func (e *fakeEngine) Events() <-chan playback.Event    { return e.events }
func (e *fakeEngine) DeviceName() string               { return e.name }

func (e *fakeEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		close(e.events)
	}
	return nil
}

func (e *fakeEngine) counts() (activates, stops int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activates, e.stops
}

type fakeFactory struct {
	name string

	mu      sync.Mutex
	created []*fakeEngine
}

func (f *fakeFactory) Create(_ context.Context, _ bool) (playback.Engine, <-chan playback.Event, error) {
	e := newFakeEngine(f.name)
	f.mu.Lock()
	f.created = append(f.created, e)
	f.mu.Unlock()
	return e, e.events, nil
}

func (f *fakeFactory) DeviceName() string { return f.name }

type fakeTokens struct {
	mu  sync.Mutex
	ran bool
}

func (t *fakeTokens) Run(ctx context.Context, _, _ time.Duration) error {
	t.mu.Lock()
	t.ran = true
	t.mu.Unlock()
	<-ctx.Done()
	return ctx.Err()
}

func (t *fakeTokens) started() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ran
}
