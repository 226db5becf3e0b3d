package flock

import (
	"errors"
	"fmt"
)

// ErrInvalidParams is returned by Params.Validate.
var ErrInvalidParams = errors.New("invalid flock params")

// Params controls the physics constants of the flock.
// The JSON layout is the flat object served by the params endpoint.
type Params struct {
	// World Dimensions
	WorldWidth  float64 `json:"world_width"`
	WorldHeight float64 `json:"world_height"`

	// Perception radii
	AlignmentRadius  float64 `json:"alignment_radius"`
	CohesionRadius   float64 `json:"cohesion_radius"`
	SeparationRadius float64 `json:"separation_radius"`

	// Strength multipliers
	AlignmentStrength  float64 `json:"alignment_strength"`
	CohesionStrength   float64 `json:"cohesion_strength"`
	SeparationStrength float64 `json:"separation_strength"`

	MaxForce       float64 `json:"max_force"`
	MaxSpeed       float64 `json:"max_speed"`
	MinScaleLength float64 `json:"min_scale_length"`
}

// DefaultParams returns the values the explore screen ships with.
func DefaultParams() Params {
	return Params{
		WorldWidth:         1000,
		WorldHeight:        1000,
		AlignmentRadius:    50,
		CohesionRadius:     50,
		SeparationRadius:   25,
		AlignmentStrength:  2,
		CohesionStrength:   3,
		SeparationStrength: 5,
		MaxForce:           0.05,
		MaxSpeed:           1,
		MinScaleLength:     1e-6,
	}
}

// Validate checks that the params describe a usable world.
func (p Params) Validate() error {
	switch {
	case p.WorldWidth <= 0 || p.WorldHeight <= 0:
		return fmt.Errorf("%w: world must have a positive size, got %vx%v", ErrInvalidParams, p.WorldWidth, p.WorldHeight)
	case p.AlignmentRadius < 0 || p.CohesionRadius < 0 || p.SeparationRadius < 0:
		return fmt.Errorf("%w: radii must not be negative", ErrInvalidParams)
	case p.MaxSpeed <= 0:
		return fmt.Errorf("%w: max speed must be positive, got %v", ErrInvalidParams, p.MaxSpeed)
	case p.MaxForce < 0:
		return fmt.Errorf("%w: max force must not be negative, got %v", ErrInvalidParams, p.MaxForce)
	case p.MinScaleLength < 0:
		return fmt.Errorf("%w: min scale length must not be negative, got %v", ErrInvalidParams, p.MinScaleLength)
	case p.MaxSpeed >= p.WorldWidth || p.MaxSpeed >= p.WorldHeight:
		// a single step must never cross the whole world or the wrap breaks
		return fmt.Errorf("%w: max speed %v does not fit a %vx%v world", ErrInvalidParams, p.MaxSpeed, p.WorldWidth, p.WorldHeight)
	}
	return nil
}
