package pointset

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miss-inputs/tpg-cli/internal/geodesy"
)

func testSet() Set {
	return Set{
		{Coordinate: geodesy.Coordinate{Lat: -33.87, Lng: 151.21}, Name: "Sydney"},
		{Coordinate: geodesy.Coordinate{Lat: -37.81, Lng: 144.96}, Name: "Melbourne"},
		{Coordinate: geodesy.Coordinate{Lat: -27.47, Lng: 153.03}, Name: "Brisbane"},
		{Coordinate: geodesy.Coordinate{Lat: 35.68, Lng: 139.69}, Name: "Tokyo"},
	}
}

func TestNearest(t *testing.T) {
	// Query near Newcastle, NSW: Sydney is the closest pic.
	m, err := Nearest(geodesy.Coordinate{Lat: -32.93, Lng: 151.78}, testSet())
	require.NoError(t, err)
	assert.Equal(t, 0, m.Index)
	assert.Equal(t, "Sydney", m.Point.Name)
	assert.Greater(t, m.Distance, 0.0)

	// The match is at least as close as every other point.
	for _, p := range testSet() {
		assert.LessOrEqual(t, m.Distance, geodesy.Distance(geodesy.Coordinate{Lat: -32.93, Lng: 151.78}, p.Coordinate))
	}
}

func TestNearest_Empty(t *testing.T) {
	_, err := Nearest(geodesy.Coordinate{}, Set{})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrEmptyInput))
}

func TestNearest_TieFirstOccurrence(t *testing.T) {
	set := Set{
		{Coordinate: geodesy.Coordinate{Lat: 10, Lng: 10}, Name: "first"},
		{Coordinate: geodesy.Coordinate{Lat: 10, Lng: 10}, Name: "second"},
	}
	m, err := Nearest(geodesy.Coordinate{Lat: 0, Lng: 0}, set)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Index)
	assert.Equal(t, "first", m.Point.Name)
}

func TestNearest_ExactLocation(t *testing.T) {
	set := testSet()
	m, err := Nearest(set[2].Coordinate, set)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Index)
	assert.Zero(t, m.Distance)
}

func TestNearestForEach_MatchesScalar(t *testing.T) {
	set := testSet()
	queries := []geodesy.Coordinate{
		{Lat: -32.93, Lng: 151.78},
		{Lat: 34.69, Lng: 135.5},
		{Lat: -42.88, Lng: 147.33},
	}

	results, err := NearestForEach(context.Background(), queries, set, 2)
	require.NoError(t, err)
	require.Len(t, results, len(queries))

	for i, q := range queries {
		want, err := Nearest(q, set)
		require.NoError(t, err)
		require.NoError(t, results[i].Err)
		assert.Equal(t, want, results[i].Match)
	}
}

func TestNearestForEach_EmptySetPerUnitFailure(t *testing.T) {
	results, err := NearestForEach(context.Background(), []geodesy.Coordinate{{Lat: 1, Lng: 1}}, Set{}, 4)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, eris.Is(results[0].Err, ErrEmptyInput))
}

func TestNearestForEach_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	queries := make([]geodesy.Coordinate, 100)
	_, err := NearestForEach(ctx, queries, testSet(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestValidate(t *testing.T) {
	set := testSet()
	require.NoError(t, set.Validate())

	bad := append(Set{}, set...)
	bad = append(bad, Point{Coordinate: geodesy.Coordinate{Lat: 95, Lng: 0}, Name: "oops"})
	err := bad.Validate()
	require.Error(t, err)
	assert.True(t, eris.Is(err, geodesy.ErrInvalidPoint))
	assert.Contains(t, err.Error(), "point 4")
}

func TestLabel(t *testing.T) {
	p := Point{Coordinate: geodesy.Coordinate{Lat: -33.87, Lng: 151.21}}
	assert.Equal(t, "-33.87000, 151.21000", p.Label())
	p.Name = "Sydney"
	assert.Equal(t, "Sydney", p.Label())
}
