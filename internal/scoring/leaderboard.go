package scoring

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// PlayerTotal is one leaderboard row: a player's total score across every
// round they submitted to, plus per-player aggregates.
type PlayerTotal struct {
	Player    string  `json:"player"`
	Total     float64 `json:"total"`
	Rounds    int     `json:"rounds"`
	Average   float64 `json:"average"`
	BestRound float64 `json:"best_round"`
	Wins      int     `json:"wins"` // rounds won outright (rank 1)
}

// MedalCount tallies podium finishes for one player. Gold is worth 3 medal
// points, silver 2, bronze 1.
type MedalCount struct {
	Player string `json:"player"`
	Gold   int    `json:"gold"`
	Silver int    `json:"silver"`
	Bronze int    `json:"bronze"`
	Points int    `json:"points"`
}

// canonicalName normalizes a player name for merging: trimmed and NFC so the
// same player typed with different Unicode compositions tallies as one.
func canonicalName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// Leaderboard sums each player's score across the given scored rounds.
// Ordering is descending total, ties broken by player name, so the result is
// fully deterministic. Every round a player submitted to counts exactly once.
func Leaderboard(rounds []ScoredRound) []PlayerTotal {
	totals := make(map[string]*PlayerTotal)

	for _, r := range rounds {
		for _, sub := range r.Submissions {
			name := canonicalName(sub.Player)
			pt, ok := totals[name]
			if !ok {
				pt = &PlayerTotal{Player: name}
				totals[name] = pt
			}
			pt.Total += sub.Score
			pt.Rounds++
			if sub.Score > pt.BestRound {
				pt.BestRound = sub.Score
			}
			if sub.Rank == 1 {
				pt.Wins++
			}
		}
	}

	rows := make([]PlayerTotal, 0, len(totals))
	for _, pt := range totals {
		if pt.Rounds > 0 {
			pt.Average = pt.Total / float64(pt.Rounds)
		}
		rows = append(rows, *pt)
	}

	slices.SortFunc(rows, func(a, b PlayerTotal) int {
		if c := cmp.Compare(b.Total, a.Total); c != 0 {
			return c
		}
		return cmp.Compare(a.Player, b.Player)
	})
	return rows
}

// MedalTable tallies gold/silver/bronze medals from podium placements across
// the given rounds, sorted by medal points descending with name tie-break.
// A shared rank earns every tied player that medal.
func MedalTable(rounds []ScoredRound) []MedalCount {
	counts := make(map[string]*MedalCount)

	for _, r := range rounds {
		for _, sub := range r.Submissions {
			if sub.Rank < 1 || sub.Rank > 3 {
				continue
			}
			name := canonicalName(sub.Player)
			mc, ok := counts[name]
			if !ok {
				mc = &MedalCount{Player: name}
				counts[name] = mc
			}
			switch sub.Rank {
			case 1:
				mc.Gold++
				mc.Points += 3
			case 2:
				mc.Silver++
				mc.Points += 2
			case 3:
				mc.Bronze++
				mc.Points++
			}
		}
	}

	rows := make([]MedalCount, 0, len(counts))
	for _, mc := range counts {
		rows = append(rows, *mc)
	}
	slices.SortFunc(rows, func(a, b MedalCount) int {
		if c := cmp.Compare(b.Points, a.Points); c != 0 {
			return c
		}
		return cmp.Compare(a.Player, b.Player)
	})
	return rows
}
