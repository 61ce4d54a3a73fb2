// Package geomx is the go-geom-backed geometry provider for the area
// sampler: point-in-polygon containment, geodesic polygon area, and convex
// clipping over WGS84 lng/lat geometries.
package geomx

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/miss-inputs/tpg-cli/internal/geodesy"
)

// ErrConcaveMask indicates a clip mask whose outer ring is not convex.
// Sutherland-Hodgman against a concave mask would silently bow-tie the
// result, so the provider refuses instead.
var ErrConcaveMask = eris.New("geomx: clip mask is not convex")

// Provider implements the area.Geometry interface over go-geom polygons and
// multipolygons.
type Provider struct{}

// New returns a Provider.
func New() *Provider { return &Provider{} }

// Contains reports whether c is inside the polygon by even-odd ray casting:
// inside the outer ring and outside every hole. MultiPolygons match if any
// component polygon contains the point.
func (p *Provider) Contains(g geom.T, c geodesy.Coordinate) bool {
	switch t := g.(type) {
	case *geom.Polygon:
		return polygonContains(t, c)
	case *geom.MultiPolygon:
		for i := range t.NumPolygons() {
			if polygonContains(t.Polygon(i), c) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func polygonContains(poly *geom.Polygon, c geodesy.Coordinate) bool {
	if poly.NumLinearRings() == 0 {
		return false
	}
	if !pointInRing(c, poly.LinearRing(0)) {
		return false
	}
	for i := 1; i < poly.NumLinearRings(); i++ {
		if pointInRing(c, poly.LinearRing(i)) {
			return false
		}
	}
	return true
}

// pointInRing is the standard even-odd ray cast over a linear ring.
func pointInRing(c geodesy.Coordinate, ring *geom.LinearRing) bool {
	coords := ring.FlatCoords()
	stride := ring.Stride()
	n := len(coords) / stride
	if n < 3 {
		return false
	}

	x, y := c.Lng, c.Lat
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := coords[i*stride], coords[i*stride+1]
		xj, yj := coords[j*stride], coords[j*stride+1]
		if (yi > y) != (yj > y) &&
			x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

// Area returns the geodesic area in square metres, computed per ring with
// the Chamberlain–Duquette spherical excess approximation on the same
// sphere the distance function uses. Holes subtract from the outer ring.
func (p *Provider) Area(g geom.T) float64 {
	switch t := g.(type) {
	case *geom.Polygon:
		return polygonArea(t)
	case *geom.MultiPolygon:
		var total float64
		for i := range t.NumPolygons() {
			total += polygonArea(t.Polygon(i))
		}
		return total
	default:
		return 0
	}
}

func polygonArea(poly *geom.Polygon) float64 {
	if poly.NumLinearRings() == 0 {
		return 0
	}
	area := math.Abs(ringArea(poly.LinearRing(0)))
	for i := 1; i < poly.NumLinearRings(); i++ {
		area -= math.Abs(ringArea(poly.LinearRing(i)))
	}
	if area < 0 {
		return 0
	}
	return area
}

func ringArea(ring *geom.LinearRing) float64 {
	coords := ring.FlatCoords()
	stride := ring.Stride()
	n := len(coords) / stride
	if n < 3 {
		return 0
	}

	var total float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		lng1 := radians(coords[i*stride])
		lat1 := radians(coords[i*stride+1])
		lng2 := radians(coords[j*stride])
		lat2 := radians(coords[j*stride+1])
		total += (lng2 - lng1) * (2 + math.Sin(lat1) + math.Sin(lat2))
	}
	return total * geodesy.EarthRadiusMetres * geodesy.EarthRadiusMetres / 2
}

// Clip returns the part of subject inside mask via Sutherland–Hodgman,
// clipping the subject's outer ring against each edge of the mask's outer
// ring. The mask's outer ring must be convex; a concave mask returns
// ErrConcaveMask rather than a wrong intersection.
func (p *Provider) Clip(subject, mask geom.T) (geom.T, error) {
	subjRing, err := outerRing(subject)
	if err != nil {
		return nil, eris.Wrap(err, "geomx: clip subject")
	}
	maskRing, err := outerRing(mask)
	if err != nil {
		return nil, eris.Wrap(err, "geomx: clip mask")
	}
	if !convex(maskRing) {
		return nil, ErrConcaveMask
	}

	out := subjRing
	m := len(maskRing)
	ccw := signedArea(maskRing) > 0
	for i := 0; i < m; i++ {
		a := maskRing[i]
		b := maskRing[(i+1)%m]
		out = clipAgainstEdge(out, a, b, ccw)
		if len(out) < 3 {
			return nil, nil
		}
	}

	flat := make([]float64, 0, (len(out)+1)*2)
	for _, v := range out {
		flat = append(flat, v[0], v[1])
	}
	// Close the ring.
	flat = append(flat, out[0][0], out[0][1])
	return geom.NewPolygonFlat(geom.XY, flat, []int{len(flat)}), nil
}

// Bounds returns the geometry's bounding box.
func (p *Provider) Bounds(g geom.T) *geom.Bounds {
	return g.Bounds()
}

type vertex [2]float64 // lng, lat

func outerRing(g geom.T) ([]vertex, error) {
	var poly *geom.Polygon
	switch t := g.(type) {
	case *geom.Polygon:
		poly = t
	case *geom.MultiPolygon:
		if t.NumPolygons() != 1 {
			return nil, eris.Errorf("geomx: clipping needs a single polygon, got %d", t.NumPolygons())
		}
		poly = t.Polygon(0)
	default:
		return nil, eris.Errorf("geomx: clipping needs a polygon, got %T", g)
	}
	if poly.NumLinearRings() == 0 {
		return nil, eris.New("geomx: polygon has no rings")
	}

	ring := poly.LinearRing(0)
	coords := ring.FlatCoords()
	stride := ring.Stride()
	n := len(coords) / stride

	out := make([]vertex, 0, n)
	for i := 0; i < n; i++ {
		v := vertex{coords[i*stride], coords[i*stride+1]}
		// Drop the closing duplicate.
		if i == n-1 && len(out) > 0 && v == out[0] {
			break
		}
		out = append(out, v)
	}
	if len(out) < 3 {
		return nil, eris.New("geomx: ring has fewer than 3 vertices")
	}
	return out, nil
}

// convex reports whether the ring turns the same way at every vertex.
// Collinear runs are allowed.
func convex(ring []vertex) bool {
	n := len(ring)
	var sign float64
	for i := 0; i < n; i++ {
		a := ring[i]
		b := ring[(i+1)%n]
		c := ring[(i+2)%n]
		cross := (b[0]-a[0])*(c[1]-b[1]) - (b[1]-a[1])*(c[0]-b[0])
		if cross == 0 {
			continue
		}
		if sign == 0 {
			sign = cross
		} else if (cross > 0) != (sign > 0) {
			return false
		}
	}
	return true
}

func signedArea(ring []vertex) float64 {
	var sum float64
	n := len(ring)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += ring[i][0]*ring[j][1] - ring[j][0]*ring[i][1]
	}
	return sum / 2
}

// clipAgainstEdge keeps the part of the ring on the inner side of the
// infinite line through a->b, where "inner" depends on the mask's winding.
func clipAgainstEdge(ring []vertex, a, b vertex, ccw bool) []vertex {
	inside := func(v vertex) bool {
		cross := (b[0]-a[0])*(v[1]-a[1]) - (b[1]-a[1])*(v[0]-a[0])
		if ccw {
			return cross >= 0
		}
		return cross <= 0
	}

	out := make([]vertex, 0, len(ring)+4)
	n := len(ring)
	for i := 0; i < n; i++ {
		cur := ring[i]
		prev := ring[(i+n-1)%n]
		curIn := inside(cur)
		prevIn := inside(prev)

		if curIn {
			if !prevIn {
				out = append(out, intersect(prev, cur, a, b))
			}
			out = append(out, cur)
		} else if prevIn {
			out = append(out, intersect(prev, cur, a, b))
		}
	}
	return out
}

// intersect returns where segment p1->p2 crosses the line through a->b.
func intersect(p1, p2, a, b vertex) vertex {
	dx1 := p2[0] - p1[0]
	dy1 := p2[1] - p1[1]
	dx2 := b[0] - a[0]
	dy2 := b[1] - a[1]

	denom := dx1*dy2 - dy1*dx2
	if denom == 0 {
		return p2 // parallel: degenerate, keep the endpoint
	}
	t := ((a[0]-p1[0])*dy2 - (a[1]-p1[1])*dx2) / denom
	return vertex{p1[0] + t*dx1, p1[1] + t*dy1}
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
