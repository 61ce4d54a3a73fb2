package midpoint

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miss-inputs/tpg-cli/internal/geodesy"
	"github.com/miss-inputs/tpg-cli/internal/pointset"
)

func pt(name string, lat, lng float64) pointset.Point {
	return pointset.Point{Coordinate: geodesy.Coordinate{Lat: lat, Lng: lng}, Name: name}
}

func TestAllMidpoints_CrossProduct(t *testing.T) {
	setA := pointset.Set{pt("a1", 0, 0), pt("a2", 10, 10), pt("a3", -20, 140)}
	setB := pointset.Set{pt("b1", 5, 5), pt("b2", 50, -100)}

	candidates, err := AllMidpoints(context.Background(), setA, setB)
	require.NoError(t, err)
	require.Len(t, candidates, 6)

	// Row-major: all pairings of a1 first.
	assert.Equal(t, "a1 + b1", candidates[0].Name)
	assert.Equal(t, "a1 + b2", candidates[1].Name)
	assert.Equal(t, "a2 + b1", candidates[2].Name)
	assert.Equal(t, 2, candidates[5].AIndex)
	assert.Equal(t, 1, candidates[5].BIndex)

	for _, c := range candidates {
		// Each midpoint is equidistant from its sources.
		da := geodesy.Distance(c.A.Coordinate, c.Midpoint)
		db := geodesy.Distance(c.Midpoint, c.B.Coordinate)
		assert.InDelta(t, da, db, 1, c.Name)
		assert.InDelta(t, c.PairDistance, da+db, 1, c.Name)
	}
}

func TestAllMidpoints_NoDeduplication(t *testing.T) {
	// Identical coordinate pairs yield identical midpoints, all kept.
	setA := pointset.Set{pt("x", 0, 0), pt("y", 0, 0)}
	setB := pointset.Set{pt("z", 10, 10)}

	candidates, err := AllMidpoints(context.Background(), setA, setB)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, candidates[0].Midpoint, candidates[1].Midpoint)
}

func TestAllMidpoints_Empty(t *testing.T) {
	_, err := AllMidpoints(context.Background(), pointset.Set{}, pointset.Set{pt("b", 1, 1)})
	require.Error(t, err)
	assert.True(t, eris.Is(err, pointset.ErrEmptyInput))

	_, err = AllMidpoints(context.Background(), pointset.Set{pt("a", 1, 1)}, pointset.Set{})
	require.Error(t, err)
	assert.True(t, eris.Is(err, pointset.ErrEmptyInput))
}

func TestAllMidpoints_InvalidPoint(t *testing.T) {
	setA := pointset.Set{pt("bad", 120, 0)}
	setB := pointset.Set{pt("b", 1, 1)}
	_, err := AllMidpoints(context.Background(), setA, setB)
	require.Error(t, err)
	assert.True(t, eris.Is(err, geodesy.ErrInvalidPoint))
}

func TestAllMidpoints_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	setA := make(pointset.Set, 50)
	setB := make(pointset.Set, 50)
	for i := range setA {
		setA[i] = pt("a", 1, 1)
	}
	for i := range setB {
		setB[i] = pt("b", 2, 2)
	}
	_, err := AllMidpoints(ctx, setA, setB)
	require.Error(t, err)
}

func TestFilterMaxPairDistance(t *testing.T) {
	setA := pointset.Set{pt("syd", -33.87, 151.21)}
	setB := pointset.Set{pt("mel", -37.81, 144.96), pt("lhr", 51.47, -0.45)}

	candidates, err := AllMidpoints(context.Background(), setA, setB)
	require.NoError(t, err)

	// Sydney-Melbourne is ~700 km; Sydney-Heathrow is ~17000 km.
	kept := FilterMaxPairDistance(candidates, 2_000_000)
	require.Len(t, kept, 1)
	assert.Equal(t, "syd + mel", kept[0].Name)
}

func TestPoints(t *testing.T) {
	setA := pointset.Set{pt("a", 0, 0)}
	setB := pointset.Set{pt("b", 0, 10)}
	candidates, err := AllMidpoints(context.Background(), setA, setB)
	require.NoError(t, err)

	set := Points(candidates)
	require.Len(t, set, 1)
	assert.Equal(t, "a + b", set[0].Name)
	assert.InDelta(t, 5, set[0].Lng, 1e-6)
	assert.InDelta(t, 0, set[0].Lat, 1e-9)
}

func TestRankByUsefulness(t *testing.T) {
	setA := pointset.Set{pt("w", 0, 0)}
	setB := pointset.Set{pt("near", 0, 10), pt("far", 0, 100)}
	candidates, err := AllMidpoints(context.Background(), setA, setB)
	require.NoError(t, err)

	// Existing best for the target is 26 degrees away; the (0, 5) midpoint
	// closes that to 1 degree, the (0, 50) midpoint does not improve at all.
	existing := pointset.Set{pt("old", 0, 30)}
	targets := pointset.Set{pt("t", 0, 4)}

	ranked, err := RankByUsefulness(context.Background(), candidates, existing, targets, 2)
	require.NoError(t, err)
	require.Len(t, ranked, 2)

	assert.Equal(t, "w + near", ranked[0].Candidate.Name)
	assert.Equal(t, 1, ranked[0].Stats.Improved)
	assert.Greater(t, ranked[0].Stats.TotalGain, 0.0)

	assert.Equal(t, "w + far", ranked[1].Candidate.Name)
	assert.Zero(t, ranked[1].Stats.Improved)
	assert.Zero(t, ranked[1].Stats.TotalGain)
}

func TestRankByUsefulness_TiesKeepCrossProductOrder(t *testing.T) {
	// Coincident sources produce identical midpoints and identical gains.
	setA := pointset.Set{pt("x", 0, 0), pt("y", 0, 0)}
	setB := pointset.Set{pt("z", 0, 10)}
	candidates, err := AllMidpoints(context.Background(), setA, setB)
	require.NoError(t, err)

	ranked, err := RankByUsefulness(context.Background(), candidates, nil, pointset.Set{pt("t", 0, 5)}, 1)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, 0, ranked[0].Candidate.AIndex)
	assert.Equal(t, 1, ranked[1].Candidate.AIndex)
}

func TestRankByUsefulness_NoTargets(t *testing.T) {
	candidates, err := AllMidpoints(context.Background(),
		pointset.Set{pt("a", 0, 0)}, pointset.Set{pt("b", 0, 10)})
	require.NoError(t, err)

	_, err = RankByUsefulness(context.Background(), candidates, nil, pointset.Set{}, 1)
	require.Error(t, err)
	assert.True(t, eris.Is(err, pointset.ErrEmptyInput))
}

func TestAllMidpoints_UnnamedPointsUseCoordinates(t *testing.T) {
	setA := pointset.Set{{Coordinate: geodesy.Coordinate{Lat: 1, Lng: 2}}}
	setB := pointset.Set{pt("named", 3, 4)}
	candidates, err := AllMidpoints(context.Background(), setA, setB)
	require.NoError(t, err)
	assert.Equal(t, "1.00000, 2.00000 + named", candidates[0].Name)
}
