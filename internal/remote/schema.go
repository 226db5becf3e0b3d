package remote

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/lao-tseu-is-alive/go-boids-explore/internal/flock"
)

var (
	// ErrUnexpectedStatus is returned when the backend answers with a non-2xx code.
	ErrUnexpectedStatus = errors.New("unexpected response status")
	// ErrMalformedSnapshot is returned when a snapshot payload fails validation.
	// The whole snapshot is rejected.
	ErrMalformedSnapshot = errors.New("malformed agent snapshot")
	// ErrMalformedParams is returned when a params payload fails validation.
	ErrMalformedParams = errors.New("malformed flock params")
)

const snapshotSchemaJSON = `{
  "type": "object",
  "additionalProperties": {
    "type": "object",
    "required": ["position_x", "position_y", "velocity_x", "velocity_y"],
    "properties": {
      "user_id": {"type": "string"},
      "user_name": {"type": "string"},
      "color": {"type": "string"},
      "position_x": {"type": "number"},
      "position_y": {"type": "number"},
      "velocity_x": {"type": "number"},
      "velocity_y": {"type": "number"},
      "acceleration_x": {"type": "number"},
      "acceleration_y": {"type": "number"}
    }
  }
}`

const paramsSchemaJSON = `{
  "type": "object",
  "required": ["world_width", "world_height"],
  "properties": {
    "world_width": {"type": "number", "exclusiveMinimum": 0},
    "world_height": {"type": "number", "exclusiveMinimum": 0},
    "alignment_radius": {"type": "number", "minimum": 0},
    "cohesion_radius": {"type": "number", "minimum": 0},
    "separation_radius": {"type": "number", "minimum": 0},
    "alignment_strength": {"type": "number"},
    "cohesion_strength": {"type": "number"},
    "separation_strength": {"type": "number"},
    "max_force": {"type": "number", "minimum": 0},
    "max_speed": {"type": "number", "exclusiveMinimum": 0},
    "min_scale_length": {"type": "number", "minimum": 0}
  }
}`

var (
	snapshotSchema = jsonschema.MustCompileString("snapshot.schema.json", snapshotSchemaJSON)
	paramsSchema   = jsonschema.MustCompileString("params.schema.json", paramsSchemaJSON)
)

// DecodeSnapshot validates and decodes a snapshot payload.
// One bad record rejects the whole payload.
func DecodeSnapshot(body []byte) (Snapshot, error) {
	if err := validate(snapshotSchema, body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	return snap, nil
}

// DecodeParams validates and decodes a params payload.
// Fields the payload omits keep their DefaultParams value.
func DecodeParams(body []byte) (flock.Params, error) {
	if err := validate(paramsSchema, body); err != nil {
		return flock.Params{}, fmt.Errorf("%w: %v", ErrMalformedParams, err)
	}
	p := flock.DefaultParams()
	if err := json.Unmarshal(body, &p); err != nil {
		return flock.Params{}, fmt.Errorf("%w: %v", ErrMalformedParams, err)
	}
	if err := p.Validate(); err != nil {
		return flock.Params{}, fmt.Errorf("%w: %v", ErrMalformedParams, err)
	}
	return p, nil
}

func validate(sch *jsonschema.Schema, body []byte) error {
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return fmt.Errorf("failed to decode json: %w", err)
	}
	return sch.Validate(v)
}
