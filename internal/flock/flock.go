package flock

// Flock owns the agent set between synchronisations.
// It is not safe for concurrent use: one goroutine drives Step and Apply.
type Flock struct {
	params Params
	agents []Agent
	// next is the write buffer for Step, swapped with agents after every tick
	next []Agent
}

// New creates an empty flock with the given params.
func New(p Params) *Flock {
	return &Flock{params: p}
}

// Params returns the params the flock steps with.
func (f *Flock) Params() Params {
	return f.params
}

// SetParams replaces the physics constants. Velocities are reclamped so
// lowering MaxSpeed never leaves an agent above the new limit.
func (f *Flock) SetParams(p Params) {
	f.params = p
	for i := range f.agents {
		f.agents[i].ClampVelocity(p.MaxSpeed)
	}
}

// Len returns the number of agents.
func (f *Flock) Len() int {
	return len(f.agents)
}

// Agents returns a copy of the current agent set.
func (f *Flock) Agents() []Agent {
	out := make([]Agent, len(f.agents))
	copy(out, f.agents)
	return out
}

// Step advances every agent by one tick.
// Every agent reads the same previous-tick state, so results never depend on
// the order agents are visited in.
func (f *Flock) Step() {
	if cap(f.next) < len(f.agents) {
		f.next = make([]Agent, len(f.agents))
	}
	f.next = f.next[:len(f.agents)]

	p := f.params
	for i := range f.agents {
		a := f.agents[i]
		a.Acc = Acceleration(f.agents, i, p)
		a.Vel = a.Vel.Add(a.Acc).Limit(p.MaxSpeed)
		a.Pos = Wrap(a.Pos.Add(a.Vel), p.WorldWidth, p.WorldHeight)
		f.next[i] = a
	}

	f.agents, f.next = f.next, f.agents
}

// Apply reconciles the flock with a remote snapshot; see Reconcile.
func (f *Flock) Apply(remote []Agent, opts ReconcileOptions) ReconcileResult {
	var res ReconcileResult
	f.agents, res = Reconcile(f.agents, remote, f.params.MaxSpeed, opts)
	return res
}
