package main

import (
	"fmt"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/miss-inputs/tpg-cli/internal/geodesy"
	"github.com/miss-inputs/tpg-cli/internal/pointset"
)

var nearestCmd = &cobra.Command{
	Use:   "nearest",
	Short: "Find the nearest pic for each query location",
	Long: `For each query coordinate, find the closest point of a point set along
with distance and initial bearing.

Examples:
  # One query against a CSV point set
  tpg nearest --points pics.csv --at "35.6586,139.7454"

  # Batch queries from a file, any supported format
  tpg nearest --points pics.geojson --queries targets.csv`,
	RunE: runNearest,
}

func init() {
	f := nearestCmd.Flags()
	f.String("points", "", "point set file: .csv, .geojson, .xlsx or .shp (required)")
	f.StringSlice("at", nil, "query coordinate as \"lat,lng\" (repeatable)")
	f.String("queries", "", "file of query points")
	_ = nearestCmd.MarkFlagRequired("points")

	rootCmd.AddCommand(nearestCmd)
}

func parseCoordinate(s string) (geodesy.Coordinate, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return geodesy.Coordinate{}, eris.Errorf("coordinate %q is not \"lat,lng\"", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return geodesy.Coordinate{}, eris.Wrapf(err, "latitude of %q", s)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return geodesy.Coordinate{}, eris.Wrapf(err, "longitude of %q", s)
	}
	return geodesy.NewCoordinate(lat, lng)
}

func runNearest(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pointsPath, _ := cmd.Flags().GetString("points")
	set, err := loadPointSet(pointsPath)
	if err != nil {
		return err
	}

	var queries []geodesy.Coordinate
	if ats, _ := cmd.Flags().GetStringSlice("at"); len(ats) > 0 {
		for _, s := range ats {
			c, err := parseCoordinate(s)
			if err != nil {
				return err
			}
			queries = append(queries, c)
		}
	}
	if qPath, _ := cmd.Flags().GetString("queries"); qPath != "" {
		qSet, err := loadPointSet(qPath)
		if err != nil {
			return err
		}
		queries = append(queries, qSet.Coordinates()...)
	}
	if len(queries) == 0 {
		return eris.New("no queries: pass --at or --queries")
	}

	results, err := pointset.NearestForEach(ctx, queries, set, cfg.Engine.Concurrency)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "QUERY\tNEAREST\tDISTANCE KM\tBEARING")
	var failed int
	for i, res := range results {
		if res.Err != nil {
			zap.L().Warn("query failed",
				zap.String("query", pointset.FormatCoordinate(queries[i])),
				zap.Error(res.Err),
			)
			failed++
			continue
		}
		m := res.Match
		fmt.Fprintf(w, "%s\t%s\t%.1f\t%.0f°\n",
			pointset.FormatCoordinate(queries[i]),
			m.Point.Label(),
			m.Distance/1000,
			m.Bearing,
		)
	}
	if err := w.Flush(); err != nil {
		return eris.Wrap(err, "nearest: flush output")
	}
	if failed > 0 {
		return eris.Errorf("%d of %d queries failed", failed, len(queries))
	}
	return nil
}
