package scoring

import (
	"cmp"
	"context"
	"slices"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/miss-inputs/tpg-cli/internal/geodesy"
)

// ScoreRound computes distance, rank, and score for every submission in a
// round. The input round is not mutated; the returned ScoredRound carries a
// fresh submissions slice sorted by ascending distance.
//
// A round with zero submissions scores to an empty ScoredRound without error.
// A round with no target fails with ErrInvalidRound.
func ScoreRound(r Round, rule Rule) (ScoredRound, error) {
	if r.Target == nil {
		return ScoredRound{}, eris.Wrapf(ErrInvalidRound, "round %d", r.Number)
	}
	if !r.Target.Valid() {
		return ScoredRound{}, eris.Wrapf(geodesy.ErrInvalidPoint, "round %d target", r.Number)
	}

	scored := ScoredRound{Round: Round{
		Number: r.Number,
		Name:   r.Name,
		Target: r.Target,
	}}
	if len(r.Submissions) == 0 {
		return scored, nil
	}

	subs := make([]Submission, len(r.Submissions))
	copy(subs, r.Submissions)

	for i := range subs {
		if !subs[i].Coordinate.Valid() {
			return ScoredRound{}, eris.Wrapf(geodesy.ErrInvalidPoint,
				"round %d submission %d (%s)", r.Number, i, subs[i].Player)
		}
		subs[i].Distance = geodesy.Distance(subs[i].Coordinate, *r.Target)
	}

	slices.SortStableFunc(subs, func(a, b Submission) int {
		return cmp.Compare(a.Distance, b.Distance)
	})

	total := len(subs)
	var distanceSum float64
	for i := range subs {
		subs[i].Rank = competitionRank(subs, i)
		beaten := playersBeaten(subs, i)
		subs[i].Score = rule.Score(subs[i].Distance, subs[i].Rank, beaten, total)
		distanceSum += subs[i].Distance
	}

	if err := checkMonotonic(subs, rule); err != nil {
		return ScoredRound{}, err
	}

	scored.Submissions = subs
	scored.MeanDistance = distanceSum / float64(total)
	scored.WinningDistance = subs[0].Distance
	scored.Winner = subs[0].Player
	return scored, nil
}

// competitionRank returns the standard competition rank for index i of a
// distance-sorted slice: tied distances share the rank of the first of the
// tie group, and the next distinct distance skips past the group.
func competitionRank(sorted []Submission, i int) int {
	rank := i + 1
	for j := i - 1; j >= 0; j-- {
		if sorted[j].Distance != sorted[i].Distance {
			break
		}
		rank = j + 1
	}
	return rank
}

// playersBeaten counts submissions with strictly greater distance than
// index i of a distance-sorted slice.
func playersBeaten(sorted []Submission, i int) int {
	beaten := 0
	for j := len(sorted) - 1; j > i; j-- {
		if sorted[j].Distance == sorted[i].Distance {
			break
		}
		beaten++
	}
	return beaten
}

// checkMonotonic verifies the rule contract over the scored round:
// moving down the distance-sorted order, scores never increase.
func checkMonotonic(sorted []Submission, rule Rule) error {
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Distance > sorted[i-1].Distance && sorted[i].Score > sorted[i-1].Score {
			return eris.Wrapf(ErrRule, "rule %q scored %.2f at %.0fm above %.2f at %.0fm",
				rule.Name(), sorted[i].Score, sorted[i].Distance, sorted[i-1].Score, sorted[i-1].Distance)
		}
	}
	return nil
}

// ScoreAll scores every round of a Data value concurrently. Rounds are
// independent, so they fan out across a bounded worker group; a failing round
// is recorded in ScoredData.Failed without aborting the others. Only context
// cancellation stops the batch early.
func ScoreAll(ctx context.Context, data Data, rule Rule, concurrency int) (ScoredData, error) {
	if concurrency <= 0 {
		concurrency = 1
	}

	scored := make([]*ScoredRound, len(data.Rounds))
	errs := make([]error, len(data.Rounds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, r := range data.Rounds {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sr, err := ScoreRound(r, rule)
			if err != nil {
				errs[i] = err
				return nil
			}
			scored[i] = &sr
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return ScoredData{}, eris.Wrap(err, "scoring: score all rounds")
	}

	var result ScoredData
	for i, sr := range scored {
		if sr != nil {
			result.Rounds = append(result.Rounds, *sr)
			continue
		}
		result.Failed = append(result.Failed, RoundError{
			RoundNumber: data.Rounds[i].Number,
			Err:         errs[i],
		})
		zap.L().Warn("scoring: round failed",
			zap.Int("round", data.Rounds[i].Number),
			zap.Error(errs[i]),
		)
	}
	return result, nil
}
