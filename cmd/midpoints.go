package main

import (
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/miss-inputs/tpg-cli/internal/loader"
	"github.com/miss-inputs/tpg-cli/internal/midpoint"
	"github.com/miss-inputs/tpg-cli/internal/pointset"
)

var midpointsCmd = &cobra.Command{
	Use:   "midpoints",
	Short: "Generate midpoint candidates between two point sets",
	Long: `Cross two point sets and emit the great-circle midpoint of every pair,
named "<A> + <B>". Useful for finding fresh locations between the pics two
players already have.

Examples:
  tpg midpoints --a mine.csv --b yours.csv --output between.csv

  # Only pairs within 2000 km of each other
  tpg midpoints --a mine.csv --b yours.csv --max-pair-km 2000 --output between.geojson

  # Rank midpoints by how much they improve coverage of a target set
  tpg midpoints --a mine.csv --b yours.csv --targets wanted.csv --existing taken.csv`,
	RunE: runMidpoints,
}

func init() {
	f := midpointsCmd.Flags()
	f.String("a", "", "first point set (required)")
	f.String("b", "", "second point set (required)")
	f.Float64("max-pair-km", 0, "drop pairs farther apart than this (0 = keep all)")
	f.String("targets", "", "rank midpoints by total gain against this target set")
	f.String("existing", "", "existing point set the targets are currently covered by")
	f.String("output", "", "output file, .csv or .geojson (default: stdout CSV)")
	_ = midpointsCmd.MarkFlagRequired("a")
	_ = midpointsCmd.MarkFlagRequired("b")

	rootCmd.AddCommand(midpointsCmd)
}

func runMidpoints(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	aPath, _ := cmd.Flags().GetString("a")
	bPath, _ := cmd.Flags().GetString("b")

	setA, err := loadPointSet(aPath)
	if err != nil {
		return err
	}
	setB, err := loadPointSet(bPath)
	if err != nil {
		return err
	}

	candidates, err := midpoint.AllMidpoints(ctx, setA, setB)
	if err != nil {
		return err
	}

	if maxKM, _ := cmd.Flags().GetFloat64("max-pair-km"); maxKM > 0 {
		before := len(candidates)
		candidates = midpoint.FilterMaxPairDistance(candidates, maxKM*1000)
		zap.L().Info("filtered midpoint pairs",
			zap.Int("kept", len(candidates)),
			zap.Int("dropped", before-len(candidates)),
		)
	}

	if targetsPath, _ := cmd.Flags().GetString("targets"); targetsPath != "" {
		targets, err := loadPointSet(targetsPath)
		if err != nil {
			return err
		}
		var existing pointset.Set
		if existingPath, _ := cmd.Flags().GetString("existing"); existingPath != "" {
			if existing, err = loadPointSet(existingPath); err != nil {
				return err
			}
		}
		ranked, err := midpoint.RankByUsefulness(ctx, candidates, existing, targets, cfg.Engine.Concurrency)
		if err != nil {
			return err
		}
		candidates = candidates[:0]
		for _, r := range ranked {
			candidates = append(candidates, r.Candidate)
		}
	}

	outPath, _ := cmd.Flags().GetString("output")
	out, err := outputWriter(outPath)
	if err != nil {
		return err
	}
	defer closeOutput(out)

	points := midpoint.Points(candidates)
	if strings.EqualFold(filepath.Ext(outPath), ".geojson") {
		return loader.WritePointsGeoJSON(out, points)
	}
	if err := loader.WritePointsCSV(out, points); err != nil {
		return eris.Wrap(err, "midpoints: write output")
	}
	return nil
}
