// Package area draws uniform random coordinates inside a polygonal defined
// area and computes area-weighted distribution stats over sub-regions.
// Polygon containment, area, and clipping come from an injected geometry
// provider; the engine does no spatial indexing or clipping of its own.
package area

import (
	"context"
	"math"
	"math/rand/v2"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/miss-inputs/tpg-cli/internal/geodesy"
	"github.com/miss-inputs/tpg-cli/internal/pointset"
)

// Geometry is the provider capability the sampler needs. Implementations
// must treat all polygons as WGS84 lng/lat.
type Geometry interface {
	// Contains reports whether the coordinate lies strictly inside the polygon.
	Contains(poly geom.T, c geodesy.Coordinate) bool
	// Area returns the geodesic area of the polygon in square metres.
	Area(poly geom.T) float64
	// Clip returns the part of subject inside mask.
	Clip(subject, mask geom.T) (geom.T, error)
	// Bounds returns the polygon's bounding box.
	Bounds(poly geom.T) *geom.Bounds
}

// SampleUniform draws count coordinates uniformly distributed by area over
// the polygon, by rejection sampling against its bounding box. Latitude is
// drawn uniform in sin(lat) so high-latitude areas are not oversampled; the
// accept test is the provider's containment. Sampling repeats until count
// points are accepted, so degenerate (zero-area) polygons are rejected up
// front instead of looping forever.
//
// The random source is injected so runs reproduce under a fixed seed.
func SampleUniform(ctx context.Context, geo Geometry, poly geom.T, count int, rng *rand.Rand) ([]geodesy.Coordinate, error) {
	if count <= 0 {
		return nil, eris.New("area: sample count must be positive")
	}
	if geo.Area(poly) <= 0 {
		return nil, eris.Wrap(pointset.ErrEmptyInput, "area: polygon has no area")
	}

	b := geo.Bounds(poly)
	minLng, minLat := b.Min(0), b.Min(1)
	maxLng, maxLat := b.Max(0), b.Max(1)
	sinMin := math.Sin(minLat * math.Pi / 180)
	sinMax := math.Sin(maxLat * math.Pi / 180)

	coords := make([]geodesy.Coordinate, 0, count)
	for len(coords) < count {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "area: sampling cancelled")
		}
		lng := minLng + rng.Float64()*(maxLng-minLng)
		z := sinMin + rng.Float64()*(sinMax-sinMin)
		lat := math.Asin(z) * 180 / math.Pi

		c := geodesy.Coordinate{Lat: lat, Lng: lng}
		if geo.Contains(poly, c) {
			coords = append(coords, c)
		}
	}
	return coords, nil
}

// Region is a named sub-region polygon.
type Region struct {
	ID   string
	Poly geom.T
}

// Share is a region's fraction of the defined area.
type Share struct {
	ID       string  `json:"id"`
	AreaSqM  float64 `json:"area_sq_m"`
	Fraction float64 `json:"fraction"`
}

// RegionShares computes, for each region, the area of its intersection with
// the defined area divided by the defined area's total area. For regions
// that exactly partition the area, the fractions sum to 1 within
// floating-point tolerance. Result order follows the input regions.
// The defined area is the clip mask for every region, so it must satisfy
// the provider's mask requirements; geomx rejects concave masks.
func RegionShares(geo Geometry, defined geom.T, regions []Region) ([]Share, error) {
	total := geo.Area(defined)
	if total <= 0 {
		return nil, eris.Wrap(pointset.ErrEmptyInput, "area: defined area has no area")
	}

	shares := make([]Share, 0, len(regions))
	for _, r := range regions {
		clipped, err := geo.Clip(r.Poly, defined)
		if err != nil {
			return nil, eris.Wrapf(err, "area: clip region %s", r.ID)
		}
		a := 0.0
		if clipped != nil {
			a = geo.Area(clipped)
		}
		shares = append(shares, Share{ID: r.ID, AreaSqM: a, Fraction: a / total})
	}
	return shares, nil
}
