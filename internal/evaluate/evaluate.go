// Package evaluate measures how useful candidate new points would be against
// a set of targets, compared to an existing point set.
package evaluate

import (
	"context"
	"math"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/miss-inputs/tpg-cli/internal/geodesy"
	"github.com/miss-inputs/tpg-cli/internal/pointset"
)

// Stats aggregates a single candidate's improvements across all targets.
// A candidate that never beats the existing best for any target has the
// zero value (Improved == 0), which callers need to see: "this point is
// currently useless" is the answer, not an omission.
type Stats struct {
	CandidateIndex int     `json:"candidate_index"`
	Candidate      string  `json:"candidate"`
	Improved       int     `json:"improved"`    // targets where the candidate beats the existing best
	TotalGain      float64 `json:"total_gain"`  // metres saved, summed over improved targets
	MeanGain       float64 `json:"mean_gain"`   // TotalGain / Improved
	BestGain       float64 `json:"best_gain"`   // largest single improvement in metres
	BestTarget     int     `json:"best_target"` // target index of BestGain, -1 if none
}

// Evaluate computes per-candidate usefulness stats: for each target, the
// candidate improves iff its distance to the target is strictly less than
// the existing set's best. An empty existing set is an implicit infinite
// prior best: every candidate improves every target, and the gain values
// are +Inf rather than an error or a crash.
//
// Aggregation is associative, so results are independent of candidate order.
// Inputs are never mutated. Cancellation is honoured per candidate.
func Evaluate(ctx context.Context, existing, candidates, targets pointset.Set, concurrency int) ([]Stats, error) {
	if len(candidates) == 0 || len(targets) == 0 {
		return nil, pointset.ErrEmptyInput
	}
	for name, set := range map[string]pointset.Set{"existing": existing, "candidates": candidates, "targets": targets} {
		if err := set.Validate(); err != nil {
			return nil, eris.Wrapf(err, "evaluate: %s", name)
		}
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	// Best existing distance per target, computed once. With no existing
	// points the prior best is +Inf: every candidate improves everything.
	prior := make([]float64, len(targets))
	for i, t := range targets {
		if len(existing) == 0 {
			prior[i] = math.Inf(1)
			continue
		}
		m, err := pointset.Nearest(t.Coordinate, existing)
		if err != nil {
			return nil, eris.Wrapf(err, "evaluate: target %d", i)
		}
		prior[i] = m.Distance
	}

	results := make([]Stats, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for ci, cand := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s := Stats{CandidateIndex: ci, Candidate: cand.Label(), BestTarget: -1}
			for ti, t := range targets {
				d := geodesy.Distance(t.Coordinate, cand.Coordinate)
				if d >= prior[ti] {
					continue
				}
				s.Improved++
				gain := prior[ti] - d
				s.TotalGain += gain
				if gain > s.BestGain || s.BestTarget < 0 {
					s.BestGain = gain
					s.BestTarget = ti
				}
			}
			if s.Improved > 0 {
				s.MeanGain = s.TotalGain / float64(s.Improved)
			}
			results[ci] = s
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "evaluate: candidates")
	}
	return results, nil
}
