// Package loader reads point sets and game data from the formats the
// community actually keeps them in (CSV trackers, GeoJSON, XLSX sheets,
// shapefiles) and writes scored results back out.
package loader

import (
	"encoding/csv"
	"io"
	"sort"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/miss-inputs/tpg-cli/internal/geodesy"
	"github.com/miss-inputs/tpg-cli/internal/pointset"
	"github.com/miss-inputs/tpg-cli/internal/scoring"
)

type pointRecord struct {
	Name        string  `csv:"name,omitempty"`
	Lat         float64 `csv:"lat"`
	Lng         float64 `csv:"lng"`
	Description string  `csv:"description,omitempty"`
}

// ReadPointsCSV reads a point set from CSV with a header row of
// name,lat,lng[,description]. The set is validated before return.
func ReadPointsCSV(r io.Reader) (pointset.Set, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		return nil, eris.Wrap(err, "loader: read CSV header")
	}

	var set pointset.Set
	for {
		var rec pointRecord
		if err := dec.Decode(&rec); err == io.EOF {
			break
		} else if err != nil {
			return nil, eris.Wrapf(err, "loader: decode CSV row %d", len(set)+1)
		}
		set = append(set, pointset.Point{
			Coordinate:  geodesy.Coordinate{Lat: rec.Lat, Lng: rec.Lng},
			Name:        rec.Name,
			Description: rec.Description,
		})
	}

	if err := set.Validate(); err != nil {
		return nil, eris.Wrap(err, "loader: CSV point set")
	}
	return set, nil
}

// WritePointsCSV writes a point set as name,lat,lng,description rows.
func WritePointsCSV(w io.Writer, set pointset.Set) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	for i, p := range set {
		rec := pointRecord{Name: p.Name, Lat: p.Lat, Lng: p.Lng, Description: p.Description}
		if err := enc.Encode(rec); err != nil {
			return eris.Wrapf(err, "loader: encode point %d", i)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "loader: flush CSV")
}

// trackerRecord is one row of a submission tracker: rounds are repeated
// across rows, one row per player submission. Rows with an empty player are
// target-only rounds (no submissions yet).
type trackerRecord struct {
	Round     int     `csv:"round"`
	RoundName string  `csv:"round_name,omitempty"`
	TargetLat float64 `csv:"target_lat"`
	TargetLng float64 `csv:"target_lng"`
	Player    string  `csv:"player,omitempty"`
	Lat       float64 `csv:"lat,omitempty"`
	Lng       float64 `csv:"lng,omitempty"`
}

// ReadTrackerCSV reads a submission tracker into game data. Rows sharing a
// round number form one round; the first row of a round sets its target and
// name. Rounds come back ordered by round number, submissions in row order.
func ReadTrackerCSV(r io.Reader) (scoring.Data, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		return scoring.Data{}, eris.Wrap(err, "loader: read tracker header")
	}

	byRound := make(map[int]*scoring.Round)
	var row int
	for {
		var rec trackerRecord
		row++
		if err := dec.Decode(&rec); err == io.EOF {
			break
		} else if err != nil {
			return scoring.Data{}, eris.Wrapf(err, "loader: decode tracker row %d", row)
		}

		rd, ok := byRound[rec.Round]
		if !ok {
			target := geodesy.Coordinate{Lat: rec.TargetLat, Lng: rec.TargetLng}
			rd = &scoring.Round{Number: rec.Round, Name: rec.RoundName, Target: &target}
			byRound[rec.Round] = rd
		}
		if rec.Player == "" {
			continue
		}
		rd.Submissions = append(rd.Submissions, scoring.Submission{
			Player:     rec.Player,
			Coordinate: geodesy.Coordinate{Lat: rec.Lat, Lng: rec.Lng},
		})
	}

	numbers := make([]int, 0, len(byRound))
	for n := range byRound {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	data := scoring.Data{Rounds: make([]scoring.Round, 0, len(byRound))}
	for _, n := range numbers {
		data.Rounds = append(data.Rounds, *byRound[n])
	}
	return data, nil
}

type scoredRecord struct {
	Round      int     `csv:"round"`
	Player     string  `csv:"player"`
	Lat        float64 `csv:"lat"`
	Lng        float64 `csv:"lng"`
	DistanceKM float64 `csv:"distance_km"`
	Rank       int     `csv:"rank"`
	Score      float64 `csv:"score"`
}

// WriteScoredCSV writes scored rounds as one row per submission, distances
// in kilometres, in the scored (distance-ascending) order.
func WriteScoredCSV(w io.Writer, rounds []scoring.ScoredRound) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	for _, rd := range rounds {
		for _, s := range rd.Submissions {
			rec := scoredRecord{
				Round:      rd.Number,
				Player:     s.Player,
				Lat:        s.Coordinate.Lat,
				Lng:        s.Coordinate.Lng,
				DistanceKM: s.Distance / 1000,
				Rank:       s.Rank,
				Score:      s.Score,
			}
			if err := enc.Encode(rec); err != nil {
				return eris.Wrapf(err, "loader: encode round %d player %s", rd.Number, s.Player)
			}
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "loader: flush scored CSV")
}

// ReadScoredCSV reads rows written by WriteScoredCSV back into scored
// rounds, rebuilding the round aggregates from the submissions. Targets and
// round names are not part of this format and come back empty; the SQLite
// store is the full-fidelity persistence path.
func ReadScoredCSV(r io.Reader) ([]scoring.ScoredRound, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		return nil, eris.Wrap(err, "loader: read scored header")
	}

	byRound := make(map[int]*scoring.ScoredRound)
	var row int
	for {
		var rec scoredRecord
		row++
		if err := dec.Decode(&rec); err == io.EOF {
			break
		} else if err != nil {
			return nil, eris.Wrapf(err, "loader: decode scored row %d", row)
		}

		rd, ok := byRound[rec.Round]
		if !ok {
			rd = &scoring.ScoredRound{Round: scoring.Round{Number: rec.Round}}
			byRound[rec.Round] = rd
		}
		rd.Submissions = append(rd.Submissions, scoring.Submission{
			Player:     rec.Player,
			Coordinate: geodesy.Coordinate{Lat: rec.Lat, Lng: rec.Lng},
			Distance:   rec.DistanceKM * 1000,
			Rank:       rec.Rank,
			Score:      rec.Score,
		})
	}

	numbers := make([]int, 0, len(byRound))
	for n := range byRound {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	rounds := make([]scoring.ScoredRound, 0, len(byRound))
	for _, n := range numbers {
		rd := byRound[n]
		var sum float64
		for _, s := range rd.Submissions {
			sum += s.Distance
		}
		if len(rd.Submissions) > 0 {
			rd.MeanDistance = sum / float64(len(rd.Submissions))
			rd.WinningDistance = rd.Submissions[0].Distance
			rd.Winner = rd.Submissions[0].Player
		}
		rounds = append(rounds, *rd)
	}
	return rounds, nil
}

type leaderboardRecord struct {
	Player  string  `csv:"player"`
	Total   float64 `csv:"total"`
	Rounds  int     `csv:"rounds"`
	Average float64 `csv:"average"`
	Wins    int     `csv:"wins"`
}

// WriteLeaderboardCSV writes leaderboard rows in standings order.
func WriteLeaderboardCSV(w io.Writer, totals []scoring.PlayerTotal) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	for _, t := range totals {
		rec := leaderboardRecord{
			Player: t.Player, Total: t.Total, Rounds: t.Rounds,
			Average: t.Average, Wins: t.Wins,
		}
		if err := enc.Encode(rec); err != nil {
			return eris.Wrapf(err, "loader: encode leaderboard row %s", t.Player)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "loader: flush leaderboard CSV")
}
