package scoring

import (
	"math"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Rule turns a submission's distance and standing into a score. Rules must be
// pure and deterministic, and must never give a strictly closer submission a
// strictly lower score.
//
// rank is the standard competition rank (tied distances share the best rank),
// beaten is the count of submissions with strictly greater distance, and
// total is the field size for the round.
type Rule interface {
	Score(distanceMetres float64, rank, beaten, total int) float64
	Name() string
}

// worldDistanceKM is the nominal maximum distance on Earth used by the main
// game formula. Not the exact antipodal distance, but it is the game's
// constant, so it is ours.
const worldDistanceKM = 20000.0

// fiveKThresholdKM is how close a submission must be to count as a 5K.
const fiveKThresholdKM = 0.1

// StandardRule is the main game's scoring formula: distance points plus
// players-beaten points plus podium bonus, a flat 5000 bonus for 5Ks, and a
// flat 5000 for near-antipodal submissions. Scores round to two decimals.
type StandardRule struct {
	// AllowNegative keeps distance points negative past 20000 km instead of
	// clipping to zero. Only reachable within a few km of an exact antipode.
	AllowNegative bool
}

func (r StandardRule) Name() string { return "standard" }

func (r StandardRule) Score(distanceMetres float64, rank, beaten, total int) float64 {
	km := distanceMetres / 1000

	distancePoints := 0.25 * (worldDistanceKM - km)
	if !r.AllowNegative && distancePoints < 0 {
		distancePoints = 0
	}

	var beatenPoints float64
	if total > 1 {
		beatenPoints = 5000 * float64(beaten) / float64(total-1)
	}

	var bonus float64
	switch rank {
	case 1:
		bonus = 3000
	case 2:
		bonus = 2000
	case 3:
		bonus = 1000
	}
	if km <= fiveKThresholdKM {
		bonus = 5000
	}

	score := distancePoints + beatenPoints + bonus
	if km >= 19995 {
		// Antipode 5K.
		score = 5000
	}
	return round2(score)
}

// LinearRule is the spinoff-game formula for TPGs covering a smaller area:
// the mean of clipped distance points and players-beaten points, with an
// optional flat score for 5Ks.
type LinearRule struct {
	WorldDistanceKM  float64 // maximum plausible distance in this game's area
	FiveKScore       float64 // flat score for 5Ks; 0 disables
	FiveKThresholdKM float64 // defaults to 0.1 km
	AllowNegative    bool
}

func (r LinearRule) Name() string { return "linear" }

func (r LinearRule) Score(distanceMetres float64, rank, beaten, total int) float64 {
	world := r.WorldDistanceKM
	if world <= 0 {
		world = worldDistanceKM
	}
	threshold := r.FiveKThresholdKM
	if threshold <= 0 {
		threshold = fiveKThresholdKM
	}

	km := distanceMetres / 1000
	distancePoints := world - km
	if !r.AllowNegative && distancePoints < 0 {
		distancePoints = 0
	}

	var beatenPoints float64
	if total > 1 {
		beatenPoints = 5000 * float64(beaten) / float64(total-1)
	}

	score := (distancePoints + beatenPoints) / 2
	if r.FiveKScore > 0 && km <= threshold {
		score = r.FiveKScore
	}
	return round2(score)
}

// RankTableRule scores purely by rank from a fixed points table. Ranks past
// the end of the table score zero.
type RankTableRule struct {
	Points []float64 // Points[0] is the score for rank 1
}

func (r RankTableRule) Name() string { return "rank_table" }

func (r RankTableRule) Score(_ float64, rank, _, _ int) float64 {
	if rank < 1 || rank > len(r.Points) {
		return 0
	}
	return r.Points[rank-1]
}

// rankTableFile is the YAML shape of a rank table rule file.
type rankTableFile struct {
	Points []float64 `yaml:"points"`
}

// LoadRankTable reads a rank table rule from a YAML file with a single
// "points" list, ordered from rank 1 down. The table must be non-empty and
// non-increasing, otherwise the rule could break monotonicity.
func LoadRankTable(path string) (RankTableRule, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return RankTableRule{}, eris.Wrapf(err, "scoring: read rank table %s", path)
	}

	var f rankTableFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return RankTableRule{}, eris.Wrapf(err, "scoring: parse rank table %s", path)
	}
	if len(f.Points) == 0 {
		return RankTableRule{}, eris.Errorf("scoring: rank table %s has no points", path)
	}
	for i := 1; i < len(f.Points); i++ {
		if f.Points[i] > f.Points[i-1] {
			return RankTableRule{}, eris.Wrapf(ErrRule, "rank table %s increases at rank %d", path, i+1)
		}
	}
	return RankTableRule{Points: f.Points}, nil
}

// DistanceRule scores as a pure decreasing function of distance, independent
// of the rest of the field.
type DistanceRule struct {
	MaxKM       float64 // distance at which the score reaches zero
	PointsPerKM float64 // points lost per kilometre
}

func (r DistanceRule) Name() string { return "distance" }

func (r DistanceRule) Score(distanceMetres float64, _, _, _ int) float64 {
	km := distanceMetres / 1000
	score := (r.MaxKM - km) * r.PointsPerKM
	if score < 0 {
		return 0
	}
	return round2(score)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
