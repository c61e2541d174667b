package playback

import (
	"context"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessro/cadence/internal/core"
)

func remoteState(uri string, progress time.Duration, playing bool) *core.PlaybackState {
	vol := 65
	return &core.PlaybackState{
		Track: &core.Track{
			URI:      uri,
			Title:    "Remote Song",
			Artist:   "Remote Artist",
			Duration: 4 * time.Minute,
		},
		Device:    &core.Device{ID: "phone", Name: "Phone", IsActive: true, Volume: &vol},
		IsPlaying: playing,
		Progress:  progress,
		Shuffle:   true,
		Repeat:    core.RepeatOne,
	}
}

func TestPoller_Reconciles(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		remote := &fakeRemote{state: remoteState("spotify:track:r", 30*time.Second, true)}
		state := NewState()
		changed := make(chan core.Track, 1)
		p := NewPoller(remote, state, NewSkipSet(), NewHandle(), PollOnTrackChange(func(tr core.Track) { changed <- tr }))

		require.NoError(t, p.Refresh(context.Background()))

		snap := state.Snapshot()
		require.NotNil(t, snap.Track)
		assert.Equal(t, "Remote Song", snap.Track.Title)
		assert.Equal(t, uint32(30000), snap.ProgressMs)
		assert.Equal(t, uint32(240000), snap.DurationMs)
		assert.True(t, snap.IsPlaying)
		assert.Equal(t, core.PlaybackSettings{DeviceName: "Phone", Shuffle: true, Repeat: core.RepeatOne, Volume: 65}, snap.Settings)
		assert.Equal(t, "spotify:track:r", (<-changed).URI)
	})
}

func TestPoller_UnchangedSettingsAreNotRewritten(t *testing.T) {
	remote := &fakeRemote{state: remoteState("spotify:track:r", time.Second, true)}
	state := NewState()
	p := NewPoller(remote, state, NewSkipSet(), NewHandle())

	require.NoError(t, p.Refresh(context.Background()))
	state.UpdateSettings(func(s *core.PlaybackSettings) { s.Volume = 80 })

	require.NoError(t, p.Refresh(context.Background()))
	assert.Equal(t, 80, state.Settings().Volume)

	vol := 40
	next := remoteState("spotify:track:r", 2*time.Second, true)
	next.Device.Volume = &vol
	remote.setState(next)
	require.NoError(t, p.Refresh(context.Background()))
	assert.Equal(t, 40, state.Settings().Volume)
}

func TestPoller_SkipsRemovedTrack(t *testing.T) {
	remote := &fakeRemote{state: remoteState("spotify:track:x", time.Second, true)}
	state := NewState()
	skips := NewSkipSet()
	skips.Add("spotify:track:x")
	p := NewPoller(remote, state, skips, NewHandle())

	require.NoError(t, p.Refresh(context.Background()))
	_, _, nexts := remote.calls()
	assert.Equal(t, 1, nexts)
	assert.Nil(t, state.Track())

	// the service still reports the skipped track until the skip lands
	require.NoError(t, p.Refresh(context.Background()))
	_, _, nexts = remote.calls()
	assert.Equal(t, 1, nexts)
	assert.Nil(t, state.Track())

	remote.setState(remoteState("spotify:track:y", 0, true))
	require.NoError(t, p.Refresh(context.Background()))
	require.NotNil(t, state.Track())
	assert.Equal(t, "spotify:track:y", state.Track().URI)
}

func TestPoller_NothingPlaying(t *testing.T) {
	remote := &fakeRemote{state: remoteState("spotify:track:r", time.Second, true)}
	state := NewState()
	p := NewPoller(remote, state, NewSkipSet(), NewHandle())
	require.NoError(t, p.Refresh(context.Background()))
	require.True(t, state.IsPlaying())

	remote.setState(nil)
	require.NoError(t, p.Refresh(context.Background()))
	assert.False(t, state.IsPlaying())
}

func TestPoller_QuietWhileLocalActive(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		local := remoteState("spotify:track:r", time.Second, true)
		local.Device = &core.Device{ID: "local-id", Name: testDeviceName, IsActive: true}
		remote := &fakeRemote{state: local}
		handle := NewHandle()
		engine := newFakeEngine()
		handle.Install(engine, engine.events, true)

		p := NewPoller(remote, NewState(), NewSkipSet(), handle, PollEvery(time.Second), PollHandoverEvery(5))
		done := make(chan error, 1)
		go func() { done <- p.Start(context.Background()) }()

		// only the handover checks at 5s and 10s reach the service
		time.Sleep(10500 * time.Millisecond)
		remote.mu.Lock()
		assert.Equal(t, 2, remote.stateCalls)
		remote.mu.Unlock()
		assert.True(t, handle.IsActive())

		handle.SetActive(false)
		time.Sleep(2 * time.Second)
		remote.mu.Lock()
		assert.Equal(t, 4, remote.stateCalls)
		remote.mu.Unlock()

		p.Stop()
		assert.NoError(t, <-done)
	})
}

func TestPoller_HandsOverWhenPlaybackMovesAway(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		remote := &fakeRemote{state: remoteState("spotify:track:r", 30*time.Second, true)}
		handle := NewHandle()
		engine := newFakeEngine()
		handle.Install(engine, engine.events, true)
		state := NewState()
		state.SetTrack(core.Track{URI: "spotify:track:local", Duration: time.Minute})
		state.SetPlaying(false)

		p := NewPoller(remote, state, NewSkipSet(), handle, PollEvery(time.Second), PollHandoverEvery(2))
		done := make(chan error, 1)
		go func() { done <- p.Start(context.Background()) }()

		// the first sighting may be a transfer still in flight
		time.Sleep(2500 * time.Millisecond)
		assert.True(t, handle.IsActive())
		assert.Equal(t, "spotify:track:local", state.Track().URI)

		time.Sleep(2 * time.Second)
		assert.False(t, handle.IsActive())
		require.NotNil(t, state.Track())
		assert.Equal(t, "spotify:track:r", state.Track().URI)
		assert.True(t, state.IsPlaying())
		assert.Equal(t, "Phone", state.Settings().DeviceName)

		// back on the remote path, every tick polls
		remote.mu.Lock()
		before := remote.stateCalls
		remote.mu.Unlock()
		time.Sleep(3 * time.Second)
		remote.mu.Lock()
		assert.Equal(t, before+3, remote.stateCalls)
		remote.mu.Unlock()

		p.Stop()
		assert.NoError(t, <-done)
	})
}

func TestPoller_TransientOtherDeviceKeepsLocal(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		remote := &fakeRemote{state: remoteState("spotify:track:r", time.Second, true)}
		handle := NewHandle()
		engine := newFakeEngine()
		handle.Install(engine, engine.events, true)

		p := NewPoller(remote, NewState(), NewSkipSet(), handle, PollEvery(time.Second), PollHandoverEvery(2))
		done := make(chan error, 1)
		go func() { done <- p.Start(context.Background()) }()

		time.Sleep(2500 * time.Millisecond)
		local := remoteState("spotify:track:r", 3*time.Second, true)
		local.Device = &core.Device{ID: "local-id", Name: testDeviceName, IsActive: true}
		remote.setState(local)

		time.Sleep(4 * time.Second)
		assert.True(t, handle.IsActive())

		p.Stop()
		assert.NoError(t, <-done)
	})
}
