package loader

import (
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func TestPolygonToGeom_SinglePart(t *testing.T) {
	p := &shp.Polygon{
		NumParts: 1,
		Parts:    []int32{0},
		Points: []shp.Point{
			{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}, {X: 0, Y: 0},
		},
	}

	g := polygonToGeom(p)
	require.NotNil(t, g)
	poly, ok := g.(*geom.Polygon)
	require.True(t, ok)
	assert.Equal(t, 1, poly.NumLinearRings())
	assert.Equal(t, []float64{0, 0, 10, 0, 10, 10, 0, 10, 0, 0}, poly.FlatCoords())
}

func TestPolygonToGeom_MultiPart(t *testing.T) {
	p := &shp.Polygon{
		NumParts: 2,
		Parts:    []int32{0, 5},
		Points: []shp.Point{
			{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}, {X: 0, Y: 0},
			{X: 4, Y: 4}, {X: 4, Y: 6}, {X: 6, Y: 6}, {X: 6, Y: 4}, {X: 4, Y: 4},
		},
	}

	g := polygonToGeom(p)
	require.NotNil(t, g)
	poly, ok := g.(*geom.Polygon)
	require.True(t, ok)
	assert.Equal(t, 2, poly.NumLinearRings())
}

func TestPolygonToGeom_Empty(t *testing.T) {
	assert.Nil(t, polygonToGeom(&shp.Polygon{}))
}
