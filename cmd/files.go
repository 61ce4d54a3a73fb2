package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/miss-inputs/tpg-cli/internal/config"
	"github.com/miss-inputs/tpg-cli/internal/loader"
	"github.com/miss-inputs/tpg-cli/internal/pointset"
	"github.com/miss-inputs/tpg-cli/internal/scoring"
)

// loadPointSet reads a point set, dispatching on file extension.
func loadPointSet(path string) (pointset.Set, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "open %s", path)
		}
		defer f.Close() //nolint:errcheck
		return loader.ReadPointsCSV(f)
	case ".geojson", ".json":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "open %s", path)
		}
		defer f.Close() //nolint:errcheck
		return loader.ReadPointsGeoJSON(f)
	case ".xlsx":
		return loader.ReadPointsXLSX(path, loader.XLSXOptions{})
	case ".shp":
		return loader.ReadPointsShapefile(path)
	default:
		return nil, eris.Errorf("unsupported point set format: %s", path)
	}
}

// loadArea reads a defined-area polygon from a GeoJSON file.
func loadArea(path string) (geom.T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open %s", path)
	}
	defer f.Close() //nolint:errcheck
	return loader.ReadAreaGeoJSON(f)
}

// loadRegions reads named region polygons from GeoJSON or a shapefile.
func loadRegions(path string) ([]loader.NamedRegion, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "open %s", path)
		}
		defer f.Close() //nolint:errcheck
		return loader.ReadRegionsGeoJSON(f)
	case ".shp":
		return loader.ReadRegionsShapefile(path)
	default:
		return nil, eris.Errorf("unsupported region format: %s", path)
	}
}

// buildRule constructs the scoring rule named by flag or config.
func buildRule(name string, sc config.ScoringConfig) (scoring.Rule, error) {
	if name == "" {
		name = sc.Rule
	}
	switch name {
	case "standard":
		return scoring.StandardRule{AllowNegative: sc.AllowNegative}, nil
	case "linear":
		return scoring.LinearRule{WorldDistanceKM: sc.WorldKM, AllowNegative: sc.AllowNegative}, nil
	case "distance":
		return scoring.DistanceRule{MaxKM: sc.WorldKM, PointsPerKM: 1}, nil
	case "ranktable", "rank_table":
		if sc.RankTablePath == "" {
			return nil, eris.New("rank table rule needs scoring.rank_table_path")
		}
		return scoring.LoadRankTable(sc.RankTablePath)
	default:
		return nil, eris.Errorf("unknown scoring rule %q", name)
	}
}

// outputWriter opens the output file, or stdout when path is empty.
func outputWriter(path string) (io.WriteCloser, error) {
	if path == "" {
		return os.Stdout, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, eris.Wrapf(err, "create %s", path)
	}
	return f, nil
}

func closeOutput(w io.WriteCloser) {
	if w != os.Stdout {
		_ = w.Close()
	}
}
