package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/miss-inputs/tpg-cli/internal/loader"
	"github.com/miss-inputs/tpg-cli/internal/scoring"
	"github.com/miss-inputs/tpg-cli/internal/store"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a submission tracker",
	Long: `Score every round of a submission tracker CSV: distance to target,
competition rank, and points under the configured rule.

Examples:
  # Score a tracker with the standard rule
  tpg score --input tracker.csv --output scored.csv

  # Score with the linear spinoff rule and write the leaderboard too
  tpg score --input tracker.csv --rule linear --leaderboard standings.csv

  # Score and persist the run for later leaderboards
  tpg score --input tracker.csv --save`,
	RunE: runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.String("input", "", "submission tracker CSV (required)")
	f.String("rule", "", "scoring rule: standard, linear, distance, ranktable (default from config)")
	f.String("output", "", "scored submissions CSV (default: stdout)")
	f.String("leaderboard", "", "also write the leaderboard CSV to this path")
	f.Bool("save", false, "save the scored run to the history store")
	_ = scoreCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := zap.L().With(zap.String("command", "score"))

	input, _ := cmd.Flags().GetString("input")
	ruleName, _ := cmd.Flags().GetString("rule")

	rule, err := buildRule(ruleName, cfg.Scoring)
	if err != nil {
		return err
	}

	in, err := os.Open(input)
	if err != nil {
		return eris.Wrapf(err, "open %s", input)
	}
	data, err := loader.ReadTrackerCSV(in)
	_ = in.Close()
	if err != nil {
		return err
	}
	log.Info("tracker loaded", zap.Int("rounds", len(data.Rounds)), zap.String("rule", rule.Name()))

	scored, err := scoring.ScoreAll(ctx, data, rule, cfg.Engine.Concurrency)
	if err != nil {
		return err
	}
	for _, f := range scored.Failed {
		log.Warn("round failed", zap.Int("round", f.RoundNumber), zap.Error(f.Err))
	}

	outPath, _ := cmd.Flags().GetString("output")
	out, err := outputWriter(outPath)
	if err != nil {
		return err
	}
	err = loader.WriteScoredCSV(out, scored.Rounds)
	closeOutput(out)
	if err != nil {
		return err
	}

	if lbPath, _ := cmd.Flags().GetString("leaderboard"); lbPath != "" {
		lb, err := outputWriter(lbPath)
		if err != nil {
			return err
		}
		err = loader.WriteLeaderboardCSV(lb, scoring.Leaderboard(scored.Rounds))
		closeOutput(lb)
		if err != nil {
			return err
		}
	}

	if save, _ := cmd.Flags().GetBool("save"); save {
		st, err := store.NewSQLite(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}
		runID, err := st.SaveScoredData(ctx, rule.Name(), scored)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "saved run %s\n", runID)
	}

	log.Info("scoring complete",
		zap.Int("scored", len(scored.Rounds)),
		zap.Int("failed", len(scored.Failed)),
	)
	return nil
}
