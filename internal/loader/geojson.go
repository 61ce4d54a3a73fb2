package loader

import (
	"encoding/json"
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/miss-inputs/tpg-cli/internal/geodesy"
	"github.com/miss-inputs/tpg-cli/internal/pointset"
)

// ReadPointsGeoJSON reads a FeatureCollection of Point features as a point
// set. The feature property "name" (or "title") becomes the point name,
// "description" the description. Non-point features are skipped.
func ReadPointsGeoJSON(r io.Reader) (pointset.Set, error) {
	var fc geojson.FeatureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, eris.Wrap(err, "loader: decode GeoJSON")
	}

	var set pointset.Set
	for _, f := range fc.Features {
		pt, ok := f.Geometry.(*geom.Point)
		if !ok {
			continue
		}
		coords := pt.Coords()
		set = append(set, pointset.Point{
			Coordinate:  geodesy.Coordinate{Lat: coords[1], Lng: coords[0]},
			Name:        stringProp(f.Properties, "name", "title"),
			Description: stringProp(f.Properties, "description"),
		})
	}

	if err := set.Validate(); err != nil {
		return nil, eris.Wrap(err, "loader: GeoJSON point set")
	}
	return set, nil
}

// WritePointsGeoJSON writes a point set as a GeoJSON FeatureCollection.
func WritePointsGeoJSON(w io.Writer, set pointset.Set) error {
	fc := geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(set))}
	for _, p := range set {
		props := map[string]any{}
		if p.Name != "" {
			props["name"] = p.Name
		}
		if p.Description != "" {
			props["description"] = p.Description
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry:   geom.NewPointFlat(geom.XY, []float64{p.Lng, p.Lat}),
			Properties: props,
		})
	}
	return eris.Wrap(json.NewEncoder(w).Encode(&fc), "loader: encode GeoJSON")
}

// ReadAreaGeoJSON reads the first polygonal geometry from a GeoJSON
// document. It accepts a bare geometry, a Feature, or a FeatureCollection.
func ReadAreaGeoJSON(r io.Reader) (geom.T, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "loader: read GeoJSON area")
	}

	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, eris.Wrap(err, "loader: decode GeoJSON area")
	}

	switch probe.Type {
	case "FeatureCollection":
		var fc geojson.FeatureCollection
		if err := json.Unmarshal(raw, &fc); err != nil {
			return nil, eris.Wrap(err, "loader: decode GeoJSON area")
		}
		for _, f := range fc.Features {
			if isPolygonal(f.Geometry) {
				return f.Geometry, nil
			}
		}
		return nil, eris.New("loader: GeoJSON has no polygon feature")
	case "Feature":
		var f geojson.Feature
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, eris.Wrap(err, "loader: decode GeoJSON area")
		}
		if !isPolygonal(f.Geometry) {
			return nil, eris.New("loader: GeoJSON feature is not a polygon")
		}
		return f.Geometry, nil
	default:
		var g geom.T
		if err := geojson.Unmarshal(raw, &g); err != nil {
			return nil, eris.Wrap(err, "loader: decode GeoJSON area")
		}
		if !isPolygonal(g) {
			return nil, eris.New("loader: GeoJSON geometry is not a polygon")
		}
		return g, nil
	}
}

// ReadRegionsGeoJSON reads a FeatureCollection of polygons as named
// regions for distribution stats. Region IDs come from the "id" or "name"
// property, falling back to the feature index.
func ReadRegionsGeoJSON(r io.Reader) ([]NamedRegion, error) {
	var fc geojson.FeatureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, eris.Wrap(err, "loader: decode GeoJSON regions")
	}

	var regions []NamedRegion
	for i, f := range fc.Features {
		if !isPolygonal(f.Geometry) {
			continue
		}
		id := stringProp(f.Properties, "id", "name")
		if id == "" {
			id = "region-" + strconv.Itoa(i)
		}
		regions = append(regions, NamedRegion{ID: id, Poly: f.Geometry})
	}
	if len(regions) == 0 {
		return nil, eris.New("loader: GeoJSON has no polygon regions")
	}
	return regions, nil
}

// NamedRegion pairs a region polygon with a stable ID.
type NamedRegion struct {
	ID   string
	Poly geom.T
}

func isPolygonal(g geom.T) bool {
	switch g.(type) {
	case *geom.Polygon, *geom.MultiPolygon:
		return true
	default:
		return false
	}
}

func stringProp(props map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := props[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

