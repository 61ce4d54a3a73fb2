package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/miss-inputs/tpg-cli/internal/area"
	"github.com/miss-inputs/tpg-cli/internal/geomx"
)

var areastatsCmd = &cobra.Command{
	Use:   "areastats",
	Short: "Show each region's share of a defined area",
	Long: `Clip regions against the defined area and report each one's area and
its fraction of the whole, i.e. how often a uniform random target should land
there.

Examples:
  tpg areastats --area world.geojson --regions continents.geojson
  tpg areastats --area australia.geojson --regions states.shp`,
	RunE: runAreastats,
}

func init() {
	f := areastatsCmd.Flags()
	f.String("area", "", "defined area GeoJSON (required)")
	f.String("regions", "", "region polygons, .geojson or .shp (required)")
	_ = areastatsCmd.MarkFlagRequired("area")
	_ = areastatsCmd.MarkFlagRequired("regions")

	rootCmd.AddCommand(areastatsCmd)
}

func runAreastats(cmd *cobra.Command, _ []string) error {
	areaPath, _ := cmd.Flags().GetString("area")
	defined, err := loadArea(areaPath)
	if err != nil {
		return err
	}

	regionsPath, _ := cmd.Flags().GetString("regions")
	named, err := loadRegions(regionsPath)
	if err != nil {
		return err
	}

	regions := make([]area.Region, len(named))
	for i, r := range named {
		regions[i] = area.Region{ID: r.ID, Poly: r.Poly}
	}

	shares, err := area.RegionShares(geomx.New(), defined, regions)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "REGION\tAREA KM²\tSHARE")
	for _, s := range shares {
		fmt.Fprintf(w, "%s\t%.0f\t%.2f%%\n", s.ID, s.AreaSqM/1e6, s.Fraction*100)
	}
	return eris.Wrap(w.Flush(), "areastats: flush output")
}
