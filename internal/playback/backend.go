package playback

import (
	"context"
	"sync"
)

// Engine is a local playback engine that can act as a Connect device.
type Engine interface {
	// Activate makes the engine the Connect-visible sink.
	Activate(ctx context.Context) error
	// Stop halts local playback when switching to another device.
	Stop(ctx context.Context) error
	SkipToNext(ctx context.Context) error
	// Events returns the engine's lifecycle event channel. It is closed
	// when the engine is closed.
	Events() <-chan Event
	// DeviceName is the name the engine registers under.
	DeviceName() string
	// Close tears the engine down and releases everything it holds.
	Close() error
}

// EngineFactory creates engines. Creation may take a second or more.
type EngineFactory interface {
	Create(ctx context.Context, activate bool) (Engine, <-chan Event, error)
}

// Handle owns the current local engine, its event channel and the gate
// that admits one listener per engine. All fields share one lock so an
// engine swap and the listener gate reset happen together.
type Handle struct {
	mu      sync.Mutex
	engine  Engine
	events  <-chan Event
	active  bool
	started bool
}

// NewHandle returns an empty Handle.
func NewHandle() *Handle {
	return &Handle{}
}

// Install puts a freshly created engine in place and re-opens the listener
// gate. The caller must have closed any previous engine.
func (h *Handle) Install(engine Engine, events <-chan Event, active bool) {
	h.mu.Lock()
	h.engine = engine
	h.events = events
	h.active = active
	h.started = false
	h.mu.Unlock()
}

// Take removes the engine from the handle and returns it. The listener
// gate stays closed until the next Install.
func (h *Handle) Take() Engine {
	h.mu.Lock()
	defer h.mu.Unlock()
	e := h.engine
	h.engine = nil
	h.events = nil
	h.active = false
	return e
}

// Engine returns the current engine, or nil.
func (h *Handle) Engine() Engine {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.engine
}

// IsActive reports whether an engine exists and is the active sink.
func (h *Handle) IsActive() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.engine != nil && h.active
}

// SetActive records whether the engine is the active sink.
func (h *Handle) SetActive(active bool) {
	h.mu.Lock()
	h.active = active && h.engine != nil
	h.mu.Unlock()
}

// claimListener hands out the event channel to the first caller after an
// Install. Later callers get false until the next Install.
func (h *Handle) claimListener() (<-chan Event, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.events == nil || h.started {
		return nil, false
	}
	h.started = true
	return h.events, true
}
