package remote

import (
	"context"

	"github.com/lao-tseu-is-alive/go-boids-explore/internal/flock"
)

// SnapshotSource fetches the authoritative agent set.
type SnapshotSource interface {
	FetchSnapshot(ctx context.Context) (Snapshot, error)
}

// ParamsSource fetches the simulation params.
type ParamsSource interface {
	FetchParams(ctx context.Context) (flock.Params, error)
}

// StaticParams serves params known at startup, typically from the config file.
type StaticParams flock.Params

// FetchParams returns the static params.
func (s StaticParams) FetchParams(context.Context) (flock.Params, error) {
	p := flock.Params(s)
	if err := p.Validate(); err != nil {
		return flock.Params{}, err
	}
	return p, nil
}
