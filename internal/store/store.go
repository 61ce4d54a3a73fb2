package store

import (
	"context"

	"github.com/miss-inputs/tpg-cli/internal/scoring"
)

// Store defines the persistence interface for scoring history.
type Store interface {
	// Runs
	SaveScoredData(ctx context.Context, rule string, data scoring.ScoredData) (string, error)
	LoadRun(ctx context.Context, runID string) ([]scoring.ScoredRound, error)
	ListRuns(ctx context.Context, limit int) ([]RunInfo, error)
	DeleteRun(ctx context.Context, runID string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

var _ Store = (*SQLiteStore)(nil)
