package remote

import (
	"sort"

	"github.com/lao-tseu-is-alive/go-boids-explore/internal/flock"
	"github.com/lao-tseu-is-alive/go-boids-explore/pkg/geometry"
)

// Record is one agent as the backend stores it: flat numeric fields, no nested vectors.
type Record struct {
	UserID        string  `json:"user_id,omitempty" firestore:"user_id,omitempty"`
	UserName      string  `json:"user_name,omitempty" firestore:"user_name,omitempty"`
	Color         string  `json:"color,omitempty" firestore:"color,omitempty"`
	PositionX     float64 `json:"position_x" firestore:"position_x"`
	PositionY     float64 `json:"position_y" firestore:"position_y"`
	VelocityX     float64 `json:"velocity_x" firestore:"velocity_x"`
	VelocityY     float64 `json:"velocity_y" firestore:"velocity_y"`
	AccelerationX float64 `json:"acceleration_x,omitempty" firestore:"acceleration_x,omitempty"`
	AccelerationY float64 `json:"acceleration_y,omitempty" firestore:"acceleration_y,omitempty"`
}

// Snapshot is the full remote agent set, keyed by the backend's object key.
type Snapshot map[string]Record

// Agents converts the snapshot into flock agents sorted by key, so the order
// new agents are appended in does not depend on map iteration.
// The agent id is the record's user_id, or its key when user_id is empty.
func (s Snapshot) Agents() []flock.Agent {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	agents := make([]flock.Agent, 0, len(s))
	for _, k := range keys {
		agents = append(agents, s[k].toAgent(k))
	}
	return agents
}

func (r Record) toAgent(key string) flock.Agent {
	id := r.UserID
	if id == "" {
		id = key
	}
	return flock.Agent{
		ID:       id,
		UserID:   r.UserID,
		UserName: r.UserName,
		Color:    r.Color,
		Pos:      geometry.Vector2D{X: r.PositionX, Y: r.PositionY},
		Vel:      geometry.Vector2D{X: r.VelocityX, Y: r.VelocityY},
		Acc:      geometry.Vector2D{X: r.AccelerationX, Y: r.AccelerationY},
	}
}
