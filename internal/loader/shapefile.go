package loader

import (
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/miss-inputs/tpg-cli/internal/geodesy"
	"github.com/miss-inputs/tpg-cli/internal/pointset"
)

// ReadPointsShapefile reads a point layer as a point set. Names come from
// the first attribute field matching the usual aliases; shapes that are not
// points are skipped with a debug log.
func ReadPointsShapefile(path string) (pointset.Set, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "loader: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	nameIdx := shpFieldIndex(reader, nameHeaders)
	descIdx := shpFieldIndex(reader, descHeaders)

	var set pointset.Set
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()
		pt, ok := shape.(*shp.Point)
		if !ok {
			skipped++
			continue
		}
		set = append(set, pointset.Point{
			Coordinate:  geodesy.Coordinate{Lat: pt.Y, Lng: pt.X},
			Name:        shpAttribute(reader, nameIdx),
			Description: shpAttribute(reader, descIdx),
		})
	}

	if skipped > 0 {
		zap.L().Debug("loader: skipped non-point shapefile records",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}

	if err := set.Validate(); err != nil {
		return nil, eris.Wrap(err, "loader: shapefile point set")
	}
	return set, nil
}

// ReadRegionsShapefile reads a polygon layer as named regions. Region IDs
// come from the first matching name attribute, falling back to the record
// index.
func ReadRegionsShapefile(path string) ([]NamedRegion, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "loader: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	idIdx := shpFieldIndex(reader, []string{"id", "geoid", "name", "title"})

	var regions []NamedRegion
	var skipped int
	for i := 0; reader.Next(); i++ {
		_, shape := reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			skipped++
			continue
		}
		g := polygonToGeom(poly)
		if g == nil {
			skipped++
			continue
		}
		id := shpAttribute(reader, idIdx)
		if id == "" {
			id = "region-" + strconv.Itoa(i)
		}
		regions = append(regions, NamedRegion{ID: id, Poly: g})
	}

	if skipped > 0 {
		zap.L().Debug("loader: skipped non-polygon shapefile records",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}

	if len(regions) == 0 {
		return nil, eris.Errorf("loader: shapefile %s has no polygon records", path)
	}
	return regions, nil
}

// polygonToGeom converts a shapefile polygon to a geom.Polygon. Shapefile
// parts all become rings of one polygon; ring role (outer vs hole) is left
// to the winding the file carries.
func polygonToGeom(p *shp.Polygon) geom.T {
	if p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	var flat []float64
	var ends []int
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}
		ends = append(ends, len(flat))
	}
	return geom.NewPolygonFlat(geom.XY, flat, ends)
}

func shpFieldIndex(reader *shp.Reader, aliases []string) int {
	for i, f := range reader.Fields() {
		name := strings.TrimRight(f.String(), "\x00")
		for _, a := range aliases {
			if strings.EqualFold(name, a) {
				return i
			}
		}
	}
	return -1
}

func shpAttribute(reader *shp.Reader, idx int) string {
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(reader.Attribute(idx), "\x00"))
}
