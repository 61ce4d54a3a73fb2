package pointset

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/miss-inputs/tpg-cli/internal/geodesy"
)

// Match is the result of a nearest-point lookup.
type Match struct {
	Index    int     `json:"index"`
	Point    Point   `json:"point"`
	Distance float64 `json:"distance"` // metres
	Bearing  float64 `json:"bearing"`  // degrees from query to matched point
}

// Nearest returns the closest point in the set to the query coordinate.
// Ties on bitwise-equal distance go to the first occurrence, so results are
// deterministic. An empty set fails with ErrEmptyInput.
func Nearest(query geodesy.Coordinate, set Set) (Match, error) {
	if len(set) == 0 {
		return Match{}, ErrEmptyInput
	}

	best := Match{Index: -1}
	for i, p := range set {
		d := geodesy.Distance(query, p.Coordinate)
		if best.Index < 0 || d < best.Distance {
			best = Match{Index: i, Point: p, Distance: d}
		}
	}
	best.Bearing = geodesy.Bearing(query, set[best.Index].Coordinate)
	return best, nil
}

// BatchResult holds the outcome for one query in a batch lookup. Err is set
// when that unit failed; the rest of the batch still completes.
type BatchResult struct {
	Match Match
	Err   error
}

// NearestForEach runs Nearest for every query, fanning out across a bounded
// worker group. Results are merged by query index and are identical to
// calling Nearest once per query; no state is shared between queries.
// Cancellation is honoured at per-query granularity.
func NearestForEach(ctx context.Context, queries []geodesy.Coordinate, set Set, concurrency int) ([]BatchResult, error) {
	if concurrency <= 0 {
		concurrency = 1
	}

	results := make([]BatchResult, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, q := range queries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			m, err := Nearest(q, set)
			results[i] = BatchResult{Match: m, Err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
