package flock

import "github.com/lao-tseu-is-alive/go-boids-explore/pkg/geometry"

// Acceleration computes the steering of flock[self] against every other agent in flock.
// flock is read only; the caller passes the previous tick's state.
func Acceleration(flock []Agent, self int, p Params) geometry.Vector2D {
	me := flock[self]

	// Initialize force accumulators
	var alignment, cohesion, separation geometry.Vector2D
	totalAlignment, totalCohesion, totalSeparation := 0, 0, 0

	for i := range flock {
		if i == self {
			continue
		}
		other := &flock[i]
		distance := me.Pos.DistanceTo(other.Pos)

		if distance < p.AlignmentRadius {
			alignment = alignment.Add(other.Vel)
			totalAlignment++
		}

		if distance < p.CohesionRadius {
			cohesion = cohesion.Add(other.Pos)
			totalCohesion++
		}

		// coincident agents have no direction to flee in
		if distance < p.SeparationRadius && distance > 0 {
			// divide twice, distance*distance underflows to 0 for nearly coincident agents
			away, _ := me.Pos.Sub(other.Pos).Div(distance)
			away, _ = away.Div(distance)
			if away.IsFinite() {
				separation = separation.Add(away)
				totalSeparation++
			}
		}
	}

	var steering geometry.Vector2D

	if totalAlignment > 0 {
		avg := alignment.Mul(1 / float64(totalAlignment))
		steering = steering.Add(steer(avg, me.Vel, p).Mul(p.AlignmentStrength))
	}

	if totalCohesion > 0 {
		centroid := cohesion.Mul(1 / float64(totalCohesion))
		steering = steering.Add(steer(centroid.Sub(me.Pos), me.Vel, p).Mul(p.CohesionStrength))
	}

	if totalSeparation > 0 && separation.IsFinite() {
		avg := separation.Mul(1 / float64(totalSeparation))
		steering = steering.Add(steer(avg, me.Vel, p).Mul(p.SeparationStrength))
	}

	return steering
}

// steer turns a desired direction into a bounded correction of vel:
// rescale to MaxSpeed, subtract the current velocity, clamp to MaxForce.
// Directions shorter than MinScaleLength are not rescaled.
func steer(desired, vel geometry.Vector2D, p Params) geometry.Vector2D {
	if scaled, ok := desired.ScaleTo(p.MaxSpeed, p.MinScaleLength); ok {
		desired = scaled
	}
	return desired.Sub(vel).Limit(p.MaxForce)
}
