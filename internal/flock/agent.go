package flock

import "github.com/lao-tseu-is-alive/go-boids-explore/pkg/geometry"

// Agent is a single boid.
// Boids is an artificial life program, developed by Craig Reynolds in 1986,
// which simulates the flocking behaviour of birds. https://en.wikipedia.org/wiki/Boids
type Agent struct {
	ID       string
	UserID   string
	UserName string
	Color    string

	Pos geometry.Vector2D
	Vel geometry.Vector2D
	// Acc is the steering applied on the last tick; it is never persisted.
	Acc geometry.Vector2D
}

// ClampVelocity caps the agent's speed at maxSpeed.
func (a *Agent) ClampVelocity(maxSpeed float64) {
	a.Vel = a.Vel.Limit(maxSpeed)
}

// Wrap moves a position that left the world back in through the opposite edge.
// A component above its bound resets to 0, one below 0 resets to the bound.
func Wrap(pos geometry.Vector2D, width, height float64) geometry.Vector2D {
	if pos.X > width {
		pos.X = 0
	} else if pos.X < 0 {
		pos.X = width
	}
	if pos.Y > height {
		pos.Y = 0
	} else if pos.Y < 0 {
		pos.Y = height
	}
	return pos
}
