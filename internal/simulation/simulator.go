package simulation

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/lao-tseu-is-alive/go-boids-explore/internal/flock"
	"github.com/lao-tseu-is-alive/go-boids-explore/internal/remote"
)

// Frame is an immutable copy of the flock handed to the renderer.
type Frame struct {
	Agents   []flock.Agent
	Params   flock.Params
	Tick     uint64
	LastSync time.Time
}

type snapshotResult struct {
	agents []flock.Agent
	err    error
}

type paramsResult struct {
	params flock.Params
	err    error
}

// Simulator runs the flock: one goroutine (Run) owns the agent set, steps it
// on every tick and merges remote snapshots into it on every sync.
type Simulator struct {
	cfg       *Config
	snapshots remote.SnapshotSource
	params    remote.ParamsSource
	log       *zap.Logger

	// owned by the Run goroutine
	flock          *flock.Flock
	pending        []flock.Agent // snapshot received before the params
	hasPending     bool
	fetching       bool
	loadingParams  bool
	tick           uint64
	lastSync       time.Time
	ticksPerSec    int
	syncsPerSec    int
	failuresPerSec int

	mounted  atomic.Bool
	snapCh   chan snapshotResult
	paramsCh chan paramsResult
	resyncCh chan struct{}
	tuneCh   chan struct{}
	tuneMu   sync.Mutex
	tuned    *flock.Params
	frames   chan Frame
}

func NewSimulator(cfg *Config, snapshots remote.SnapshotSource, params remote.ParamsSource, log *zap.Logger) *Simulator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Simulator{
		cfg:       cfg,
		snapshots: snapshots,
		params:    params,
		log:       log,
		snapCh:    make(chan snapshotResult),
		paramsCh:  make(chan paramsResult),
		resyncCh:  make(chan struct{}, 1),
		tuneCh:    make(chan struct{}, 1),
		frames:    make(chan Frame, 1),
	}
}

// Frames delivers the latest state after every tick and every sync.
// A slow reader only ever misses intermediate frames.
func (s *Simulator) Frames() <-chan Frame {
	return s.frames
}

// RequestResync asks for a sync as soon as possible, outside the sync period.
func (s *Simulator) RequestResync() {
	select {
	case s.resyncCh <- struct{}{}:
	default:
	}
}

// Tune replaces the flock params from the next tick on.
// Only the most recent value is kept when Tune is called faster than ticks.
func (s *Simulator) Tune(p flock.Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.tuneMu.Lock()
	s.tuned = &p
	s.tuneMu.Unlock()
	select {
	case s.tuneCh <- struct{}{}:
	default:
	}
	return nil
}

// Run drives the simulation until ctx is cancelled.
func (s *Simulator) Run(ctx context.Context) error {
	s.mounted.Store(true)
	defer s.mounted.Store(false)

	tickTicker := time.NewTicker(s.cfg.TickInterval())
	defer tickTicker.Stop()
	syncTicker := time.NewTicker(s.cfg.SyncInterval())
	defer syncTicker.Stop()
	statsTicker := time.NewTicker(time.Second)
	defer statsTicker.Stop()

	s.log.Info("simulator started",
		zap.Duration("tick", s.cfg.TickInterval()),
		zap.Duration("sync", s.cfg.SyncInterval()))

	s.loadParams(ctx)
	s.startFetch(ctx)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("simulator stopped", zap.Uint64("ticks", s.tick))
			return nil
		case res := <-s.paramsCh:
			s.handleParams(res)
		case res := <-s.snapCh:
			s.handleSnapshot(res)
		case <-s.tuneCh:
			s.handleTune()
		case <-s.resyncCh:
			s.startFetch(ctx)
		case <-syncTicker.C:
			if s.flock == nil {
				s.loadParams(ctx)
			}
			s.startFetch(ctx)
		case <-tickTicker.C:
			s.step()
		case <-statsTicker.C:
			s.logStats()
		}
	}
}

func (s *Simulator) loadParams(ctx context.Context) {
	if s.loadingParams {
		return
	}
	s.loadingParams = true
	go func() {
		fctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout())
		defer cancel()
		p, err := s.params.FetchParams(fctx)
		s.deliverParams(ctx, paramsResult{params: p, err: err})
	}()
}

// startFetch launches a snapshot fetch unless one is still in flight.
func (s *Simulator) startFetch(ctx context.Context) {
	if s.fetching {
		s.log.Debug("sync skipped, previous fetch still running")
		return
	}
	s.fetching = true
	go func() {
		fctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout())
		defer cancel()
		snap, err := s.snapshots.FetchSnapshot(fctx)
		res := snapshotResult{err: err}
		if err == nil {
			res.agents = snap.Agents()
		}
		s.deliverSnapshot(ctx, res)
	}()
}

func (s *Simulator) deliverSnapshot(ctx context.Context, res snapshotResult) {
	if !s.mounted.Load() {
		s.log.Info("discarding snapshot fetched after teardown", zap.Int("agents", len(res.agents)))
		return
	}
	select {
	case s.snapCh <- res:
	case <-ctx.Done():
		s.log.Info("discarding snapshot fetched after teardown", zap.Int("agents", len(res.agents)))
	}
}

func (s *Simulator) deliverParams(ctx context.Context, res paramsResult) {
	if !s.mounted.Load() {
		s.log.Info("discarding params fetched after teardown")
		return
	}
	select {
	case s.paramsCh <- res:
	case <-ctx.Done():
		s.log.Info("discarding params fetched after teardown")
	}
}

func (s *Simulator) handleParams(res paramsResult) {
	s.loadingParams = false
	if res.err != nil {
		s.log.Error("failed to load flock params, retrying on next sync", zap.Error(res.err))
		return
	}
	if s.flock != nil {
		s.flock.SetParams(res.params)
		return
	}

	s.flock = flock.New(res.params)
	s.log.Info("flock params loaded",
		zap.Float64("world_width", res.params.WorldWidth),
		zap.Float64("world_height", res.params.WorldHeight),
		zap.Float64("max_speed", res.params.MaxSpeed))

	if s.hasPending {
		s.apply(s.pending)
		s.pending, s.hasPending = nil, false
	}
	s.pushFrame()
}

func (s *Simulator) handleSnapshot(res snapshotResult) {
	s.fetching = false
	if res.err != nil {
		s.failuresPerSec++
		s.log.Warn("snapshot fetch failed, keeping current flock", zap.Error(res.err))
		return
	}
	if s.flock == nil {
		s.pending, s.hasPending = res.agents, true
		s.log.Debug("holding snapshot until params load", zap.Int("agents", len(res.agents)))
		return
	}
	s.apply(res.agents)
	s.pushFrame()
}

func (s *Simulator) apply(agents []flock.Agent) {
	r := s.flock.Apply(agents, flock.ReconcileOptions{PruneMissing: s.cfg.PruneMissing})
	s.lastSync = time.Now()
	s.syncsPerSec++
	s.log.Info("flock synchronised",
		zap.Int("agents", s.flock.Len()),
		zap.Int("updated", r.Updated),
		zap.Int("added", r.Added),
		zap.Int("retained", r.Retained),
		zap.Int("pruned", r.Pruned))
}

func (s *Simulator) handleTune() {
	s.tuneMu.Lock()
	p := s.tuned
	s.tuned = nil
	s.tuneMu.Unlock()
	if p == nil {
		return
	}
	if s.flock == nil {
		s.log.Warn("ignoring tuning before params loaded")
		return
	}
	s.flock.SetParams(*p)
	s.log.Debug("flock params tuned", zap.Any("params", *p))
}

// step advances the flock by one tick. Nothing moves before the params load.
func (s *Simulator) step() {
	if s.flock == nil {
		return
	}
	s.flock.Step()
	s.tick++
	s.ticksPerSec++
	s.pushFrame()
}

func (s *Simulator) pushFrame() {
	f := Frame{
		Agents:   s.flock.Agents(),
		Params:   s.flock.Params(),
		Tick:     s.tick,
		LastSync: s.lastSync,
	}
	select {
	case s.frames <- f:
	default:
		// renderer behind, replace the stale frame
		select {
		case <-s.frames:
		default:
		}
		select {
		case s.frames <- f:
		default:
		}
	}
}

func (s *Simulator) logStats() {
	agents := 0
	if s.flock != nil {
		agents = s.flock.Len()
	}
	s.log.Debug("simulation rate",
		zap.Int("ticks", s.ticksPerSec),
		zap.Int("syncs", s.syncsPerSec),
		zap.Int("failures", s.failuresPerSec),
		zap.Int("agents", agents))
	s.ticksPerSec, s.syncsPerSec, s.failuresPerSec = 0, 0, 0
}
