package flock

import "github.com/lao-tseu-is-alive/go-boids-explore/pkg/geometry"

// MapToScreen scales a world position to a viewport of the given size.
// It keeps no state; callers pass the current viewport on every render.
func MapToScreen(pos geometry.Vector2D, worldW, worldH, screenW, screenH float64) geometry.Vector2D {
	if worldW <= 0 || worldH <= 0 {
		return geometry.Vector2D{}
	}
	return geometry.Vector2D{
		X: pos.X / worldW * screenW,
		Y: pos.Y / worldH * screenH,
	}
}
