// Package scoring implements round scoring, ranking, and leaderboard
// derivation for Travel Pics Game data.
package scoring

import (
	"github.com/rotisserie/eris"

	"github.com/miss-inputs/tpg-cli/internal/geodesy"
)

// ErrInvalidRound indicates a round with no target coordinate. Distinct from
// a round with zero submissions, which scores to an empty result.
var ErrInvalidRound = eris.New("scoring: round has no target coordinate")

// ErrRule indicates a configured rule violated the monotonicity contract:
// a strictly closer submission received a strictly lower score.
var ErrRule = eris.New("scoring: rule broke distance monotonicity")

// Submission is one player's guessed coordinate for a round. Distance, Score
// and Rank are computed fields; re-scoring overwrites them.
type Submission struct {
	Player     string             `json:"player"`
	Coordinate geodesy.Coordinate `json:"coordinate"`
	Distance   float64            `json:"distance,omitempty"` // metres to target
	Score      float64            `json:"score,omitempty"`
	Rank       int                `json:"rank,omitempty"` // standard competition ranking
}

// Round is one instance of "guess this location": a target coordinate and
// the submissions made for it. A nil Target marks a malformed round.
type Round struct {
	Number      int                 `json:"number"`
	Name        string              `json:"name,omitempty"`
	Target      *geodesy.Coordinate `json:"target"`
	Submissions []Submission        `json:"submissions"`
}

// Data is an ordered sequence of rounds, the full TPG history the engine
// consumes by value and never mutates.
type Data struct {
	Rounds []Round `json:"rounds"`
}

// ScoredRound is a round with every submission annotated with distance, rank
// and score, sorted by ascending distance, plus round-level aggregates.
type ScoredRound struct {
	Round
	MeanDistance    float64 `json:"mean_distance"`    // metres
	WinningDistance float64 `json:"winning_distance"` // metres
	Winner          string  `json:"winner,omitempty"`
}

// RoundError records a per-round scoring failure inside a batch. The rest of
// the batch still scores.
type RoundError struct {
	RoundNumber int
	Err         error
}

// ScoredData is the result of scoring a whole Data value: successfully
// scored rounds in input order, and the rounds that failed.
type ScoredData struct {
	Rounds []ScoredRound
	Failed []RoundError
}
