package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/miss-inputs/tpg-cli/internal/geodesy"
	"github.com/miss-inputs/tpg-cli/internal/pointset"
	"github.com/miss-inputs/tpg-cli/internal/scoring"
	"github.com/miss-inputs/tpg-cli/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve nearest-pic and scoring over a JSON API",
	Long: `Start an HTTP server exposing nearest-point matching over a loaded
point set, on-demand round scoring, and stored run history.

Examples:
  tpg serve --points pics.csv
  tpg serve --points pics.geojson --port 9090`,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.String("points", "", "point set served by /v1/nearest (required)")
	f.Int("port", 0, "server port (default from config)")
	_ = serveCmd.MarkFlagRequired("points")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pointsPath, _ := cmd.Flags().GetString("points")
	set, err := loadPointSet(pointsPath)
	if err != nil {
		return err
	}

	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck
	if err := st.Migrate(ctx); err != nil {
		return err
	}

	rule, err := buildRule("", cfg.Scoring)
	if err != nil {
		return err
	}

	api := &apiServer{set: set, store: st, rule: rule}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	r.Use(rateLimit(rate.Limit(cfg.Server.RateLimit), cfg.Server.RateBurst))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/v1/nearest", api.handleNearest)
	r.Post("/v1/score", api.handleScore)
	r.Get("/v1/runs", api.handleRuns)
	r.Get("/v1/runs/{id}/leaderboard", api.handleRunLeaderboard)

	port, _ := cmd.Flags().GetInt("port")
	if port == 0 {
		port = cfg.Server.Port
	}
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: r,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		_ = srv.Shutdown(ctx)
	}()

	zap.L().Info("starting server", zap.Int("port", port), zap.Int("points", len(set)))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server listen")
	}
	return nil
}

// rateLimit applies one shared token bucket to every request.
func rateLimit(limit rate.Limit, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(limit, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type apiServer struct {
	set   pointset.Set
	store store.Store
	rule  scoring.Rule
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *apiServer) handleNearest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Queries []geodesy.Coordinate `json:"queries"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, eris.Wrap(err, "invalid request body"))
		return
	}
	if len(req.Queries) == 0 {
		writeError(w, http.StatusBadRequest, eris.New("queries is required"))
		return
	}

	results, err := pointset.NearestForEach(r.Context(), req.Queries, s.set, cfg.Engine.Concurrency)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	type matchJSON struct {
		Query geodesy.Coordinate `json:"query"`
		Match *pointset.Match    `json:"match,omitempty"`
		Error string             `json:"error,omitempty"`
	}
	out := make([]matchJSON, len(results))
	for i, res := range results {
		out[i].Query = req.Queries[i]
		if res.Err != nil {
			out[i].Error = res.Err.Error()
			continue
		}
		m := res.Match
		out[i].Match = &m
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": out})
}

func (s *apiServer) handleScore(w http.ResponseWriter, r *http.Request) {
	var data scoring.Data
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeError(w, http.StatusBadRequest, eris.Wrap(err, "invalid request body"))
		return
	}

	scored, err := scoring.ScoreAll(r.Context(), data, s.rule, cfg.Engine.Concurrency)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	failed := make([]map[string]any, 0, len(scored.Failed))
	for _, f := range scored.Failed {
		failed = append(failed, map[string]any{
			"round": f.RoundNumber,
			"error": f.Err.Error(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"rule":        s.rule.Name(),
		"rounds":      scored.Rounds,
		"failed":      failed,
		"leaderboard": scoring.Leaderboard(scored.Rounds),
	})
}

func (s *apiServer) handleRuns(w http.ResponseWriter, r *http.Request) {
	infos, err := s.store.ListRuns(r.Context(), 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": infos})
}

func (s *apiServer) handleRunLeaderboard(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")
	rounds, err := s.store.LoadRun(r.Context(), runID)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"run":         runID,
		"leaderboard": scoring.Leaderboard(rounds),
		"medals":      scoring.MedalTable(rounds),
	})
}
