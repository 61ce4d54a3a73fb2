// Package store persists scoring runs so leaderboards can be derived from
// history without re-reading tracker files.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/miss-inputs/tpg-cli/internal/geodesy"
	"github.com/miss-inputs/tpg-cli/internal/scoring"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS scoring_runs (
	id         TEXT PRIMARY KEY,
	rule       TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS rounds (
	run_id           TEXT NOT NULL REFERENCES scoring_runs(id),
	number           INTEGER NOT NULL,
	name             TEXT NOT NULL DEFAULT '',
	target_lat       REAL NOT NULL,
	target_lng       REAL NOT NULL,
	mean_distance    REAL NOT NULL,
	winning_distance REAL NOT NULL,
	winner           TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, number)
);

CREATE TABLE IF NOT EXISTS submissions (
	run_id       TEXT NOT NULL,
	round_number INTEGER NOT NULL,
	position     INTEGER NOT NULL,
	player       TEXT NOT NULL,
	lat          REAL NOT NULL,
	lng          REAL NOT NULL,
	distance     REAL NOT NULL,
	rank         INTEGER NOT NULL,
	score        REAL NOT NULL,
	PRIMARY KEY (run_id, round_number, position),
	FOREIGN KEY (run_id, round_number) REFERENCES rounds(run_id, number)
);

CREATE INDEX IF NOT EXISTS idx_rounds_run_id ON rounds(run_id);
CREATE INDEX IF NOT EXISTS idx_submissions_run_round ON submissions(run_id, round_number);
CREATE INDEX IF NOT EXISTS idx_submissions_player ON submissions(player);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// RunInfo summarizes one stored scoring run.
type RunInfo struct {
	ID        string    `json:"id"`
	Rule      string    `json:"rule"`
	CreatedAt time.Time `json:"created_at"`
	Rounds    int       `json:"rounds"`
}

// SaveScoredData stores the scored rounds of one run under a fresh run ID.
// Failed rounds are not stored; the whole save is transactional.
func (s *SQLiteStore) SaveScoredData(ctx context.Context, rule string, data scoring.ScoredData) (string, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: begin save")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO scoring_runs (id, rule, created_at) VALUES (?, ?, ?)`,
		id, rule, now,
	)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: insert run")
	}

	for _, rd := range data.Rounds {
		if rd.Target == nil {
			return "", eris.Wrapf(scoring.ErrInvalidRound, "sqlite: round %d", rd.Number)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO rounds (run_id, number, name, target_lat, target_lng, mean_distance, winning_distance, winner)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, rd.Number, rd.Name, rd.Target.Lat, rd.Target.Lng,
			rd.MeanDistance, rd.WinningDistance, rd.Winner,
		)
		if err != nil {
			return "", eris.Wrapf(err, "sqlite: insert round %d", rd.Number)
		}

		for pos, sub := range rd.Submissions {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO submissions (run_id, round_number, position, player, lat, lng, distance, rank, score)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				id, rd.Number, pos, sub.Player,
				sub.Coordinate.Lat, sub.Coordinate.Lng,
				sub.Distance, sub.Rank, sub.Score,
			)
			if err != nil {
				return "", eris.Wrapf(err, "sqlite: insert submission round %d player %s", rd.Number, sub.Player)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", eris.Wrap(err, "sqlite: commit save")
	}
	return id, nil
}

// LoadRun reads back a stored run's scored rounds, in round-number order
// with submissions in their stored (distance-ascending) order.
func (s *SQLiteStore) LoadRun(ctx context.Context, runID string) ([]scoring.ScoredRound, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM scoring_runs WHERE id = ?`, runID,
	).Scan(&exists)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: check run")
	}
	if exists == 0 {
		return nil, eris.Errorf("sqlite: run not found: %s", runID)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT number, name, target_lat, target_lng, mean_distance, winning_distance, winner
		 FROM rounds WHERE run_id = ? ORDER BY number`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load rounds")
	}
	defer rows.Close()

	var rounds []scoring.ScoredRound
	for rows.Next() {
		var rd scoring.ScoredRound
		var target geodesy.Coordinate
		if err := rows.Scan(&rd.Number, &rd.Name, &target.Lat, &target.Lng,
			&rd.MeanDistance, &rd.WinningDistance, &rd.Winner); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan round")
		}
		rd.Target = &target
		rounds = append(rounds, rd)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: load rounds iterate")
	}

	for i := range rounds {
		subs, err := s.loadSubmissions(ctx, runID, rounds[i].Number)
		if err != nil {
			return nil, err
		}
		rounds[i].Submissions = subs
	}
	return rounds, nil
}

func (s *SQLiteStore) loadSubmissions(ctx context.Context, runID string, round int) ([]scoring.Submission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT player, lat, lng, distance, rank, score
		 FROM submissions WHERE run_id = ? AND round_number = ? ORDER BY position`,
		runID, round,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: load submissions round %d", round)
	}
	defer rows.Close()

	var subs []scoring.Submission
	for rows.Next() {
		var sub scoring.Submission
		if err := rows.Scan(&sub.Player, &sub.Coordinate.Lat, &sub.Coordinate.Lng,
			&sub.Distance, &sub.Rank, &sub.Score); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan submission")
		}
		subs = append(subs, sub)
	}
	return subs, eris.Wrap(rows.Err(), "sqlite: load submissions iterate")
}

// ListRuns returns stored runs newest first. A limit <= 0 defaults to 100.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]RunInfo, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.rule, r.created_at, COUNT(rd.number)
		 FROM scoring_runs r LEFT JOIN rounds rd ON rd.run_id = r.id
		 GROUP BY r.id ORDER BY r.created_at DESC, r.id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var infos []RunInfo
	for rows.Next() {
		var info RunInfo
		if err := rows.Scan(&info.ID, &info.Rule, &info.CreatedAt, &info.Rounds); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		infos = append(infos, info)
	}
	return infos, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

// DeleteRun removes a run and everything stored under it.
func (s *SQLiteStore) DeleteRun(ctx context.Context, runID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin delete")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM submissions WHERE run_id = ?`, runID); err != nil {
		return eris.Wrapf(err, "sqlite: delete submissions %s", runID)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM rounds WHERE run_id = ?`, runID); err != nil {
		return eris.Wrapf(err, "sqlite: delete rounds %s", runID)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM scoring_runs WHERE id = ?`, runID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete run %s", runID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit delete")
}
