package flock

// ReconcileOptions tunes how a remote snapshot is merged into the local set.
type ReconcileOptions struct {
	// PruneMissing drops local agents absent from the snapshot.
	// Off by default: agents whose owner disconnected keep flying.
	PruneMissing bool
}

// ReconcileResult counts what a reconciliation did.
type ReconcileResult struct {
	Updated  int
	Added    int
	Retained int
	Pruned   int
}

// Reconcile merges remote into local and returns the new local set.
//
// A local agent whose ID appears in remote is replaced field for field by the
// remote one, velocity clamped to maxSpeed. Remote agents with unseen IDs are
// appended in remote order. Local agents missing from remote are kept unless
// opts.PruneMissing is set. When remote repeats an ID the last entry wins.
// local is not modified.
func Reconcile(local, remote []Agent, maxSpeed float64, opts ReconcileOptions) ([]Agent, ReconcileResult) {
	var res ReconcileResult

	byID := make(map[string]Agent, len(remote))
	for _, r := range remote {
		r.ClampVelocity(maxSpeed)
		byID[r.ID] = r
	}

	out := make([]Agent, 0, len(local)+len(remote))
	seen := make(map[string]struct{}, len(local))
	for _, l := range local {
		seen[l.ID] = struct{}{}
		if r, ok := byID[l.ID]; ok {
			out = append(out, r)
			res.Updated++
			continue
		}
		if opts.PruneMissing {
			res.Pruned++
			continue
		}
		out = append(out, l)
		res.Retained++
	}

	for _, r := range remote {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, byID[r.ID])
		res.Added++
	}

	return out, res
}
