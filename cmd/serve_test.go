package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/miss-inputs/tpg-cli/internal/config"
	"github.com/miss-inputs/tpg-cli/internal/geodesy"
	"github.com/miss-inputs/tpg-cli/internal/pointset"
	"github.com/miss-inputs/tpg-cli/internal/scoring"
	"github.com/miss-inputs/tpg-cli/internal/store"
)

func newTestAPI(t *testing.T) *apiServer {
	t.Helper()

	cfg = &config.Config{
		Engine:  config.EngineConfig{Concurrency: 2},
		Scoring: config.ScoringConfig{Rule: "standard", WorldKM: 20000},
	}

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	return &apiServer{
		set: pointset.Set{
			{Coordinate: geodesy.Coordinate{Lat: 35.6586, Lng: 139.7454}, Name: "Tokyo Tower"},
			{Coordinate: geodesy.Coordinate{Lat: 48.85837, Lng: 2.29448}, Name: "Eiffel Tower"},
		},
		store: st,
		rule:  scoring.StandardRule{},
	}
}

func TestHandleNearest(t *testing.T) {
	api := newTestAPI(t)

	body := `{"queries":[{"lat":36,"lng":140},{"lat":48,"lng":2}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/nearest", strings.NewReader(body))
	rec := httptest.NewRecorder()
	api.handleNearest(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Results []struct {
			Match *pointset.Match `json:"match"`
			Error string          `json:"error"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 2)
	require.NotNil(t, resp.Results[0].Match)
	assert.Equal(t, "Tokyo Tower", resp.Results[0].Match.Point.Name)
	assert.Equal(t, "Eiffel Tower", resp.Results[1].Match.Point.Name)
}

func TestHandleNearest_BadRequest(t *testing.T) {
	api := newTestAPI(t)

	for _, body := range []string{"", "{}", `{"queries":[]}`, "not json"} {
		req := httptest.NewRequest(http.MethodPost, "/v1/nearest", strings.NewReader(body))
		rec := httptest.NewRecorder()
		api.handleNearest(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
	}
}

func TestHandleScore(t *testing.T) {
	api := newTestAPI(t)

	body := `{"rounds":[{
		"number": 1,
		"target": {"lat": 0, "lng": 0},
		"submissions": [
			{"player": "alice", "coordinate": {"lat": 0, "lng": 1}},
			{"player": "bob", "coordinate": {"lat": 0, "lng": 50}}
		]
	}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/score", strings.NewReader(body))
	rec := httptest.NewRecorder()
	api.handleScore(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Rule        string                `json:"rule"`
		Rounds      []scoring.ScoredRound `json:"rounds"`
		Leaderboard []scoring.PlayerTotal `json:"leaderboard"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "standard", resp.Rule)
	require.Len(t, resp.Rounds, 1)
	assert.Equal(t, "alice", resp.Rounds[0].Winner)
	require.Len(t, resp.Leaderboard, 2)
	assert.Equal(t, "alice", resp.Leaderboard[0].Player)
}

func TestHandleRuns_AndRunLeaderboard(t *testing.T) {
	api := newTestAPI(t)
	ctx := context.Background()

	target := geodesy.Coordinate{Lat: 0, Lng: 0}
	runID, err := api.store.SaveScoredData(ctx, "standard", scoring.ScoredData{
		Rounds: []scoring.ScoredRound{{
			Round: scoring.Round{
				Number: 1,
				Target: &target,
				Submissions: []scoring.Submission{
					{Player: "alice", Distance: 1000, Rank: 1, Score: 12994.13},
				},
			},
			Winner: "alice",
		}},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/runs", nil)
	rec := httptest.NewRecorder()
	api.handleRuns(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), runID)

	r := chi.NewRouter()
	r.Get("/v1/runs/{id}/leaderboard", api.handleRunLeaderboard)

	req = httptest.NewRequest(http.MethodGet, "/v1/runs/"+runID+"/leaderboard", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alice")

	req = httptest.NewRequest(http.MethodGet, "/v1/runs/nope/leaderboard", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimit(t *testing.T) {
	handler := rateLimit(rate.Limit(1), 2)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 4)
	for range 4 {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		codes = append(codes, rec.Code)
	}

	// Burst of 2 passes, the rest are limited.
	assert.Equal(t, http.StatusOK, codes[0])
	assert.Equal(t, http.StatusOK, codes[1])
	assert.Equal(t, http.StatusTooManyRequests, codes[2])
	assert.Equal(t, http.StatusTooManyRequests, codes[3])
}
