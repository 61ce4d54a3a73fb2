package loader

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/miss-inputs/tpg-cli/internal/geodesy"
	"github.com/miss-inputs/tpg-cli/internal/pointset"
)

const pointsFC = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "geometry": {"type": "Point", "coordinates": [151.21528, -33.85678]},
      "properties": {"name": "Sydney Opera House", "description": "white sails"}
    },
    {
      "type": "Feature",
      "geometry": {"type": "Point", "coordinates": [-0.12459, 51.50074]},
      "properties": {}
    },
    {
      "type": "Feature",
      "geometry": {"type": "LineString", "coordinates": [[0, 0], [1, 1]]},
      "properties": {"name": "not a point"}
    }
  ]
}`

func TestReadPointsGeoJSON(t *testing.T) {
	set, err := ReadPointsGeoJSON(strings.NewReader(pointsFC))
	require.NoError(t, err)
	require.Len(t, set, 2)

	assert.Equal(t, "Sydney Opera House", set[0].Name)
	assert.InDelta(t, -33.85678, set[0].Lat, 1e-9)
	assert.InDelta(t, 151.21528, set[0].Lng, 1e-9)
	assert.Equal(t, "white sails", set[0].Description)
	assert.Empty(t, set[1].Name)
}

func TestPointsGeoJSON_RoundTrip(t *testing.T) {
	set := pointset.Set{
		{Coordinate: geodesy.Coordinate{Lat: 35.6586, Lng: 139.7454}, Name: "Tokyo Tower"},
		{Coordinate: geodesy.Coordinate{Lat: -13.16306, Lng: -72.54472}},
	}

	var buf bytes.Buffer
	require.NoError(t, WritePointsGeoJSON(&buf, set))

	got, err := ReadPointsGeoJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, set, got)
}

func TestReadAreaGeoJSON(t *testing.T) {
	polygon := `{"type": "Polygon", "coordinates": [[[0,0],[10,0],[10,10],[0,10],[0,0]]]}`

	tests := []struct {
		name string
		in   string
	}{
		{"bare geometry", polygon},
		{"feature", `{"type": "Feature", "geometry": ` + polygon + `, "properties": {}}`},
		{"feature collection", `{"type": "FeatureCollection", "features": [
			{"type": "Feature", "geometry": {"type": "Point", "coordinates": [5, 5]}, "properties": {}},
			{"type": "Feature", "geometry": ` + polygon + `, "properties": {}}
		]}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g, err := ReadAreaGeoJSON(strings.NewReader(tc.in))
			require.NoError(t, err)
			poly, ok := g.(*geom.Polygon)
			require.True(t, ok)
			assert.Equal(t, 1, poly.NumLinearRings())
		})
	}
}

func TestReadAreaGeoJSON_NoPolygon(t *testing.T) {
	in := `{"type": "Point", "coordinates": [1, 2]}`
	_, err := ReadAreaGeoJSON(strings.NewReader(in))
	require.Error(t, err)
}

func TestReadRegionsGeoJSON(t *testing.T) {
	in := `{"type": "FeatureCollection", "features": [
		{"type": "Feature", "geometry": {"type": "Polygon", "coordinates": [[[0,0],[4,0],[4,10],[0,10],[0,0]]]}, "properties": {"id": "west"}},
		{"type": "Feature", "geometry": {"type": "Polygon", "coordinates": [[[4,0],[10,0],[10,10],[4,10],[4,0]]]}, "properties": {}}
	]}`

	regions, err := ReadRegionsGeoJSON(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, regions, 2)
	assert.Equal(t, "west", regions[0].ID)
	assert.Equal(t, "region-1", regions[1].ID)
}
