package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/miss-inputs/tpg-cli/internal/scoring"
	"github.com/miss-inputs/tpg-cli/internal/store"
)

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show standings from a stored scoring run",
	Long: `Derive the leaderboard and medal table from a scoring run saved with
"tpg score --save". Without --run, lists stored runs instead.

Examples:
  tpg leaderboard
  tpg leaderboard --run 2f0c...
  tpg leaderboard --run 2f0c... --medals`,
	RunE: runLeaderboard,
}

func init() {
	f := leaderboardCmd.Flags()
	f.String("run", "", "run ID to derive standings from")
	f.Bool("medals", false, "show the medal table instead of point totals")
	f.Int("limit", 0, "max runs to list without --run")

	rootCmd.AddCommand(leaderboardCmd)
}

func runLeaderboard(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck
	if err := st.Migrate(ctx); err != nil {
		return err
	}

	runID, _ := cmd.Flags().GetString("run")
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

	if runID == "" {
		limit, _ := cmd.Flags().GetInt("limit")
		infos, err := st.ListRuns(ctx, limit)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "RUN\tRULE\tROUNDS\tCREATED")
		for _, info := range infos {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
				info.ID, info.Rule, info.Rounds, info.CreatedAt.Format("2006-01-02 15:04"))
		}
		return eris.Wrap(w.Flush(), "leaderboard: flush output")
	}

	rounds, err := st.LoadRun(ctx, runID)
	if err != nil {
		return err
	}

	if medals, _ := cmd.Flags().GetBool("medals"); medals {
		fmt.Fprintln(w, "PLAYER\tGOLD\tSILVER\tBRONZE\tPOINTS")
		for _, m := range scoring.MedalTable(rounds) {
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n", m.Player, m.Gold, m.Silver, m.Bronze, m.Points)
		}
		return eris.Wrap(w.Flush(), "leaderboard: flush output")
	}

	fmt.Fprintln(w, "PLAYER\tTOTAL\tROUNDS\tAVERAGE\tWINS")
	for _, t := range scoring.Leaderboard(rounds) {
		fmt.Fprintf(w, "%s\t%.2f\t%d\t%.2f\t%d\n", t.Player, t.Total, t.Rounds, t.Average, t.Wins)
	}
	return eris.Wrap(w.Flush(), "leaderboard: flush output")
}
