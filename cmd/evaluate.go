package main

import (
	"fmt"
	"math"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/miss-inputs/tpg-cli/internal/evaluate"
	"github.com/miss-inputs/tpg-cli/internal/pointset"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate how much candidate points would improve coverage",
	Long: `For each candidate point, measure how many target locations it would
serve better than the existing set does, and by how much.

Examples:
  tpg evaluate --existing pics.csv --candidates wishlist.csv --targets rounds.csv

  # Only candidates that improve at least 3 targets
  tpg evaluate --existing pics.csv --candidates wishlist.csv --targets rounds.csv --min-improved 3`,
	RunE: runEvaluate,
}

func init() {
	f := evaluateCmd.Flags()
	f.String("existing", "", "existing point set (required)")
	f.String("candidates", "", "candidate point set (required)")
	f.String("targets", "", "target locations to serve (required)")
	f.Int("min-improved", 0, "only show candidates improving at least this many targets")
	_ = evaluateCmd.MarkFlagRequired("existing")
	_ = evaluateCmd.MarkFlagRequired("candidates")
	_ = evaluateCmd.MarkFlagRequired("targets")

	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	existing, err := flagPointSet(cmd, "existing")
	if err != nil {
		return err
	}
	candidates, err := flagPointSet(cmd, "candidates")
	if err != nil {
		return err
	}
	targets, err := flagPointSet(cmd, "targets")
	if err != nil {
		return err
	}

	stats, err := evaluate.Evaluate(ctx, existing, candidates, targets, cfg.Engine.Concurrency)
	if err != nil {
		return err
	}

	minImproved, _ := cmd.Flags().GetInt("min-improved")

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CANDIDATE\tIMPROVED\tMEAN GAIN KM\tBEST GAIN KM\tBEST TARGET")
	for _, s := range stats {
		if s.Improved < minImproved {
			continue
		}
		best := "-"
		if s.BestTarget >= 0 {
			best = targets[s.BestTarget].Label()
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n",
			s.Candidate,
			s.Improved,
			formatGainKM(s.MeanGain),
			formatGainKM(s.BestGain),
			best,
		)
	}
	return eris.Wrap(w.Flush(), "evaluate: flush output")
}

func flagPointSet(cmd *cobra.Command, flag string) (pointset.Set, error) {
	path, _ := cmd.Flags().GetString(flag)
	return loadPointSet(path)
}

// formatGainKM renders a gain in km; gains against an empty existing set are
// infinite and print as "inf".
func formatGainKM(metres float64) string {
	if math.IsInf(metres, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.1f", metres/1000)
}
