// Package midpoint enumerates great-circle midpoints between two point sets,
// e.g. every meeting point for a pair of TPG teammates.
package midpoint

import (
	"context"
	"fmt"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/miss-inputs/tpg-cli/internal/evaluate"
	"github.com/miss-inputs/tpg-cli/internal/geodesy"
	"github.com/miss-inputs/tpg-cli/internal/pointset"
)

// Candidate is one pairing from the cross product: the two source points,
// their geodesic midpoint, and the distance between the sources. The pair
// distance lets callers filter out implausible pairings (midpoints between
// points half a world apart).
type Candidate struct {
	AIndex       int                `json:"a_index"`
	BIndex       int                `json:"b_index"`
	A            pointset.Point     `json:"a"`
	B            pointset.Point     `json:"b"`
	Midpoint     geodesy.Coordinate `json:"midpoint"`
	PairDistance float64            `json:"pair_distance"` // metres between A and B
	Name         string             `json:"name"`
}

// AllMidpoints produces the full |A| x |B| cross product of midpoints, in
// row-major order (all pairings for A[0] first). Coincident midpoints are not
// deduplicated; the caller decides. Cancellation is checked once per outer
// row, so large products abort cleanly.
func AllMidpoints(ctx context.Context, setA, setB pointset.Set) ([]Candidate, error) {
	if len(setA) == 0 || len(setB) == 0 {
		return nil, pointset.ErrEmptyInput
	}
	if err := setA.Validate(); err != nil {
		return nil, eris.Wrap(err, "midpoint: set A")
	}
	if err := setB.Validate(); err != nil {
		return nil, eris.Wrap(err, "midpoint: set B")
	}

	candidates := make([]Candidate, 0, len(setA)*len(setB))
	for i, a := range setA {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "midpoint: cancelled")
		}
		for j, b := range setB {
			candidates = append(candidates, Candidate{
				AIndex:       i,
				BIndex:       j,
				A:            a,
				B:            b,
				Midpoint:     geodesy.Midpoint(a.Coordinate, b.Coordinate),
				PairDistance: geodesy.Distance(a.Coordinate, b.Coordinate),
				Name:         fmt.Sprintf("%s + %s", a.Label(), b.Label()),
			})
		}
	}
	return candidates, nil
}

// FilterMaxPairDistance returns the candidates whose source points are at
// most maxMetres apart. The input order is preserved.
func FilterMaxPairDistance(candidates []Candidate, maxMetres float64) []Candidate {
	kept := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.PairDistance <= maxMetres {
			kept = append(kept, c)
		}
	}
	return kept
}

// Ranked pairs a candidate with its usefulness stats against a target set.
type Ranked struct {
	Candidate Candidate      `json:"candidate"`
	Stats     evaluate.Stats `json:"stats"`
}

// RankByUsefulness orders candidates by how much their midpoints would
// improve coverage of the targets relative to the existing set, best total
// gain first. An empty existing set means every midpoint improves every
// target. Ties keep the cross-product order.
func RankByUsefulness(ctx context.Context, candidates []Candidate, existing, targets pointset.Set, concurrency int) ([]Ranked, error) {
	stats, err := evaluate.Evaluate(ctx, existing, Points(candidates), targets, concurrency)
	if err != nil {
		return nil, eris.Wrap(err, "midpoint: rank")
	}
	ranked := make([]Ranked, len(stats))
	for i, s := range stats {
		ranked[i] = Ranked{Candidate: candidates[s.CandidateIndex], Stats: s}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Stats.TotalGain > ranked[j].Stats.TotalGain
	})
	return ranked, nil
}

// Points converts candidates to a point set of their midpoints, preserving
// order, so midpoints can feed straight back into nearest-point matching or
// usefulness evaluation.
func Points(candidates []Candidate) pointset.Set {
	set := make(pointset.Set, len(candidates))
	for i, c := range candidates {
		set[i] = pointset.Point{Coordinate: c.Midpoint, Name: c.Name}
	}
	return set
}
