package simulation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/lao-tseu-is-alive/go-boids-explore/internal/flock"
	"github.com/lao-tseu-is-alive/go-boids-explore/internal/remote"
)

type mockSnapshots struct {
	mock.Mock
}

func (m *mockSnapshots) FetchSnapshot(ctx context.Context) (remote.Snapshot, error) {
	args := m.Called(ctx)
	snap, _ := args.Get(0).(remote.Snapshot)
	return snap, args.Error(1)
}

type mockParams struct {
	mock.Mock
}

func (m *mockParams) FetchParams(ctx context.Context) (flock.Params, error) {
	args := m.Called(ctx)
	p, _ := args.Get(0).(flock.Params)
	return p, args.Error(1)
}

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.SnapshotURL = "http://backend.test/boids"
	cfg.TickIntervalMs = 1
	cfg.SyncIntervalMs = 20
	cfg.RequestTimeoutMs = 1000
	return cfg
}

func twoAgents() remote.Snapshot {
	return remote.Snapshot{
		"a": {PositionX: 100, PositionY: 100, VelocityX: 3, VelocityY: 4},
		"b": {UserID: "user-b", PositionX: 500, PositionY: 500, VelocityY: -0.5},
	}
}

// run starts sim and returns a stop func that cancels it and waits for Run to return.
func run(t *testing.T, sim *Simulator) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sim.Run(ctx) }()

	stopped := false
	stop := func() {
		if stopped {
			return
		}
		stopped = true
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("simulator did not stop")
		}
	}
	t.Cleanup(stop)
	return stop
}

// waitFrame reads frames until one satisfies cond.
func waitFrame(t *testing.T, sim *Simulator, cond func(Frame) bool) Frame {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case f := <-sim.Frames():
			if cond(f) {
				return f
			}
		case <-timeout:
			t.Fatal("no matching frame")
			return Frame{}
		}
	}
}

func TestSimulator_NoTickBeforeParams(t *testing.T) {
	release := make(chan struct{})
	params := &mockParams{}
	params.On("FetchParams", mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(flock.DefaultParams(), nil)
	snaps := &mockSnapshots{}
	snaps.On("FetchSnapshot", mock.Anything).Return(twoAgents(), nil)

	sim := NewSimulator(testConfig(), snaps, params, zap.NewNop())
	run(t, sim)

	select {
	case f := <-sim.Frames():
		t.Fatalf("got frame before params loaded: %+v", f)
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	f := waitFrame(t, sim, func(f Frame) bool { return f.Tick > 0 })
	require.Len(t, f.Agents, 2)
	assert.Equal(t, "a", f.Agents[0].ID)
	assert.Equal(t, "user-b", f.Agents[1].ID)
	for _, a := range f.Agents {
		assert.LessOrEqual(t, a.Vel.Len(), f.Params.MaxSpeed+1e-9)
	}
}

func TestSimulator_InitialFailureStartsEmpty(t *testing.T) {
	params := &mockParams{}
	params.On("FetchParams", mock.Anything).Return(flock.DefaultParams(), nil)
	snaps := &mockSnapshots{}
	snaps.On("FetchSnapshot", mock.Anything).Return(nil, errors.New("connection refused")).Once()
	snaps.On("FetchSnapshot", mock.Anything).Return(twoAgents(), nil)

	cfg := testConfig()
	cfg.SyncIntervalMs = 200
	sim := NewSimulator(cfg, snaps, params, zap.NewNop())
	run(t, sim)

	empty := waitFrame(t, sim, func(f Frame) bool { return f.Tick > 0 })
	assert.Empty(t, empty.Agents)
	assert.True(t, empty.LastSync.IsZero())

	synced := waitFrame(t, sim, func(f Frame) bool { return len(f.Agents) == 2 })
	assert.False(t, synced.LastSync.IsZero())
}

func TestSimulator_RequestResync(t *testing.T) {
	cfg := testConfig()
	cfg.SyncIntervalMs = int(time.Hour / time.Millisecond)

	params := &mockParams{}
	params.On("FetchParams", mock.Anything).Return(flock.DefaultParams(), nil)
	snaps := &mockSnapshots{}
	snaps.On("FetchSnapshot", mock.Anything).Return(remote.Snapshot{}, nil).Once()
	snaps.On("FetchSnapshot", mock.Anything).Return(twoAgents(), nil)

	sim := NewSimulator(cfg, snaps, params, zap.NewNop())
	run(t, sim)

	waitFrame(t, sim, func(f Frame) bool { return f.Tick > 0 && !f.LastSync.IsZero() })
	sim.RequestResync()
	waitFrame(t, sim, func(f Frame) bool { return len(f.Agents) == 2 })
	snaps.AssertNumberOfCalls(t, "FetchSnapshot", 2)
}

func TestSimulator_LateResultDiscarded(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	release := make(chan struct{})
	fetched := make(chan struct{})

	params := &mockParams{}
	params.On("FetchParams", mock.Anything).Return(flock.DefaultParams(), nil)
	snaps := &mockSnapshots{}
	snaps.On("FetchSnapshot", mock.Anything).
		Run(func(mock.Arguments) {
			close(fetched)
			<-release
		}).
		Return(twoAgents(), nil).Once()

	sim := NewSimulator(testConfig(), snaps, params, zap.New(core))
	stop := run(t, sim)

	<-fetched
	stop()
	close(release)

	assert.Eventually(t, func() bool {
		return logs.FilterMessage("discarding snapshot fetched after teardown").Len() == 1
	}, time.Second, 5*time.Millisecond)
	assert.Zero(t, logs.FilterMessage("flock synchronised").Len())
}

func TestSimulator_SnapshotHeldUntilParams(t *testing.T) {
	sim := NewSimulator(testConfig(), &mockSnapshots{}, &mockParams{}, zaptest.NewLogger(t))

	sim.handleSnapshot(snapshotResult{agents: twoAgents().Agents()})
	sim.step()
	assert.Nil(t, sim.flock)
	assert.Zero(t, sim.tick)
	assert.True(t, sim.hasPending)

	sim.handleParams(paramsResult{params: flock.DefaultParams()})
	require.NotNil(t, sim.flock)
	assert.Equal(t, 2, sim.flock.Len())
	assert.False(t, sim.hasPending)
	assert.Nil(t, sim.pending)
}

func TestSimulator_ParamsFailureKeepsWaiting(t *testing.T) {
	sim := NewSimulator(testConfig(), &mockSnapshots{}, &mockParams{}, zaptest.NewLogger(t))
	sim.loadingParams = true

	sim.handleParams(paramsResult{err: errors.New("timeout")})
	assert.Nil(t, sim.flock)
	assert.False(t, sim.loadingParams)
}

func TestSimulator_FetchSkippedWhileInFlight(t *testing.T) {
	snaps := &mockSnapshots{}
	sim := NewSimulator(testConfig(), snaps, &mockParams{}, zaptest.NewLogger(t))
	sim.fetching = true

	sim.startFetch(context.Background())
	snaps.AssertNotCalled(t, "FetchSnapshot", mock.Anything)
}

func TestSimulator_FailedResyncKeepsFlock(t *testing.T) {
	sim := NewSimulator(testConfig(), &mockSnapshots{}, &mockParams{}, zaptest.NewLogger(t))
	sim.handleParams(paramsResult{params: flock.DefaultParams()})
	sim.handleSnapshot(snapshotResult{agents: twoAgents().Agents()})
	before := sim.flock.Agents()

	sim.fetching = true
	sim.handleSnapshot(snapshotResult{err: remote.ErrUnexpectedStatus})
	assert.False(t, sim.fetching)
	assert.Equal(t, before, sim.flock.Agents())
}

func TestSimulator_PruneMissing(t *testing.T) {
	cfg := testConfig()
	cfg.PruneMissing = true
	sim := NewSimulator(cfg, &mockSnapshots{}, &mockParams{}, zaptest.NewLogger(t))
	sim.handleParams(paramsResult{params: flock.DefaultParams()})
	sim.handleSnapshot(snapshotResult{agents: twoAgents().Agents()})

	only := remote.Snapshot{"a": {PositionX: 1, PositionY: 1}}
	sim.handleSnapshot(snapshotResult{agents: only.Agents()})
	require.Equal(t, 1, sim.flock.Len())
	assert.Equal(t, "a", sim.flock.Agents()[0].ID)
}

func TestSimulator_Tune(t *testing.T) {
	sim := NewSimulator(testConfig(), &mockSnapshots{}, &mockParams{}, zaptest.NewLogger(t))

	bad := flock.DefaultParams()
	bad.MaxSpeed = -1
	assert.ErrorIs(t, sim.Tune(bad), flock.ErrInvalidParams)

	sim.handleParams(paramsResult{params: flock.DefaultParams()})
	sim.handleSnapshot(snapshotResult{agents: twoAgents().Agents()})

	tuned := flock.DefaultParams()
	tuned.MaxSpeed = 0.25
	require.NoError(t, sim.Tune(tuned))
	sim.handleTune()

	assert.Equal(t, tuned, sim.flock.Params())
	for _, a := range sim.flock.Agents() {
		assert.LessOrEqual(t, a.Vel.Len(), 0.25+1e-9)
	}
}

func TestSimulator_FramesKeepLatest(t *testing.T) {
	sim := NewSimulator(testConfig(), &mockSnapshots{}, &mockParams{}, zaptest.NewLogger(t))
	sim.handleParams(paramsResult{params: flock.DefaultParams()})
	for i := 0; i < 5; i++ {
		sim.step()
	}

	f := <-sim.Frames()
	assert.Equal(t, uint64(5), f.Tick)
	select {
	case extra := <-sim.Frames():
		t.Fatalf("unexpected extra frame %d", extra.Tick)
	default:
	}
}
