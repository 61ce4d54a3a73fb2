package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miss-inputs/tpg-cli/internal/geodesy"
	"github.com/miss-inputs/tpg-cli/internal/scoring"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testScoredData() scoring.ScoredData {
	tokyo := geodesy.Coordinate{Lat: 35.65858, Lng: 139.74543}
	paris := geodesy.Coordinate{Lat: 48.85837, Lng: 2.29448}
	return scoring.ScoredData{
		Rounds: []scoring.ScoredRound{
			{
				Round: scoring.Round{
					Number: 1,
					Name:   "Opening Round",
					Target: &tokyo,
					Submissions: []scoring.Submission{
						{Player: "alice", Coordinate: geodesy.Coordinate{Lat: 35.0, Lng: 139.0}, Distance: 98000, Rank: 1, Score: 14200.5},
						{Player: "bob", Coordinate: geodesy.Coordinate{Lat: 34.0, Lng: -118.0}, Distance: 8800000, Rank: 2, Score: 5800},
					},
				},
				MeanDistance:    4449000,
				WinningDistance: 98000,
				Winner:          "alice",
			},
			{
				Round: scoring.Round{Number: 2, Target: &paris},
			},
		},
	}
}

func TestSQLite_SaveAndLoadRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	data := testScoredData()
	runID, err := st.SaveScoredData(ctx, "standard", data)
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	rounds, err := st.LoadRun(ctx, runID)
	require.NoError(t, err)
	require.Len(t, rounds, 2)

	got := rounds[0]
	assert.Equal(t, 1, got.Number)
	assert.Equal(t, "Opening Round", got.Name)
	require.NotNil(t, got.Target)
	assert.InDelta(t, 35.65858, got.Target.Lat, 1e-9)
	assert.Equal(t, "alice", got.Winner)
	assert.InDelta(t, 98000, got.WinningDistance, 1e-9)

	require.Len(t, got.Submissions, 2)
	assert.Equal(t, "alice", got.Submissions[0].Player)
	assert.Equal(t, 1, got.Submissions[0].Rank)
	assert.InDelta(t, 14200.5, got.Submissions[0].Score, 1e-9)
	assert.InDelta(t, 98000, got.Submissions[0].Distance, 1e-9)

	// Empty round round-trips as empty, not missing.
	assert.Equal(t, 2, rounds[1].Number)
	assert.Empty(t, rounds[1].Submissions)
}

func TestSQLite_LoadRun_Missing(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.LoadRun(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLite_SaveScoredData_NilTarget(t *testing.T) {
	st := newTestSQLiteStore(t)

	data := scoring.ScoredData{Rounds: []scoring.ScoredRound{
		{Round: scoring.Round{Number: 4}},
	}}
	_, err := st.SaveScoredData(context.Background(), "standard", data)
	require.Error(t, err)
	assert.True(t, eris.Is(err, scoring.ErrInvalidRound))

	// The failed save must not leave a partial run behind.
	infos, err := st.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestSQLite_ListRuns(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	data := testScoredData()
	id1, err := st.SaveScoredData(ctx, "standard", data)
	require.NoError(t, err)
	id2, err := st.SaveScoredData(ctx, "linear", data)
	require.NoError(t, err)

	infos, err := st.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, infos, 2)

	ids := []string{infos[0].ID, infos[1].ID}
	assert.Contains(t, ids, id1)
	assert.Contains(t, ids, id2)
	for _, info := range infos {
		assert.Equal(t, 2, info.Rounds)
		assert.False(t, info.CreatedAt.IsZero())
	}

	limited, err := st.ListRuns(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLite_DeleteRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	runID, err := st.SaveScoredData(ctx, "standard", testScoredData())
	require.NoError(t, err)

	require.NoError(t, st.DeleteRun(ctx, runID))

	_, err = st.LoadRun(ctx, runID)
	require.Error(t, err)

	err = st.DeleteRun(ctx, runID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
