// Package geodesy provides great-circle distance, bearing, and midpoint
// calculations on the spherical Earth model that TPG itself scores with.
package geodesy

import (
	"math"

	"github.com/rotisserie/eris"
)

// EarthRadiusMetres is the mean Earth radius used for all haversine math.
// This matches the constant the game uses, so scores reproduce exactly.
const EarthRadiusMetres = 6371000.0

// ErrInvalidPoint indicates a coordinate outside the valid lat/lng range.
var ErrInvalidPoint = eris.New("geodesy: coordinate out of range")

// Coordinate is an immutable latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// NewCoordinate validates and normalizes a coordinate. Longitudes outside
// [-180, 180] are wrapped into range; out-of-range latitudes are an error.
func NewCoordinate(lat, lng float64) (Coordinate, error) {
	if math.IsNaN(lat) || math.IsNaN(lng) || lat < -90 || lat > 90 {
		return Coordinate{}, eris.Wrapf(ErrInvalidPoint, "lat=%v lng=%v", lat, lng)
	}
	lng = NormalizeLng(lng)
	return Coordinate{Lat: lat, Lng: lng}, nil
}

// Valid reports whether the coordinate is within range.
func (c Coordinate) Valid() bool {
	return !math.IsNaN(c.Lat) && !math.IsNaN(c.Lng) &&
		c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// NormalizeLng wraps a longitude into (-180, 180]. The antimeridian is
// always reported as +180, so equivalent inputs normalize identically.
func NormalizeLng(lng float64) float64 {
	lng = math.Mod(lng+180, 360)
	if lng < 0 {
		lng += 360
	}
	lng -= 180
	if lng == -180 {
		return 180
	}
	return lng
}

// Distance returns the haversine distance between a and b in metres.
// It is symmetric, non-negative, and zero for coincident points, and has no
// discontinuity across the antimeridian or at the poles.
func Distance(a, b Coordinate) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Asin(math.Min(1, math.Sqrt(h)))
	return EarthRadiusMetres * c
}

// Bearing returns the initial great-circle bearing from a to b in degrees,
// normalized to [0, 360).
func Bearing(a, b Coordinate) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLng := radians(b.Lng - a.Lng)

	y := math.Sin(dLng) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLng)
	deg := degrees(math.Atan2(y, x))
	return math.Mod(deg+360, 360)
}

// DistanceAndBearing returns both the distance in metres and the initial
// bearing in degrees from a to b.
func DistanceAndBearing(a, b Coordinate) (float64, float64) {
	return Distance(a, b), Bearing(a, b)
}

// Midpoint returns the point halfway along the great-circle segment between
// a and b. Computed via 3-D unit vectors, so it behaves correctly near the
// poles and across the antimeridian where naive lat/lng averaging does not.
// For exactly antipodal points the midpoint is not unique; one valid point
// on the bisecting great circle is returned.
func Midpoint(a, b Coordinate) Coordinate {
	x1, y1, z1 := toVector(a)
	x2, y2, z2 := toVector(b)

	x := x1 + x2
	y := y1 + y2
	z := z1 + z2
	norm := math.Sqrt(x*x + y*y + z*z)
	if norm < 1e-12 {
		// Antipodal: pick a perpendicular direction deterministically.
		x, y, z = perpendicular(x1, y1, z1)
		norm = math.Sqrt(x*x + y*y + z*z)
	}

	return Coordinate{
		Lat: degrees(math.Asin(z / norm)),
		Lng: degrees(math.Atan2(y/norm, x/norm)),
	}
}

func toVector(c Coordinate) (x, y, z float64) {
	lat := radians(c.Lat)
	lng := radians(c.Lng)
	return math.Cos(lat) * math.Cos(lng), math.Cos(lat) * math.Sin(lng), math.Sin(lat)
}

// perpendicular returns an arbitrary unit vector orthogonal to (x, y, z).
func perpendicular(x, y, z float64) (float64, float64, float64) {
	if math.Abs(x) < math.Abs(y) && math.Abs(x) < math.Abs(z) {
		return 0, -z, y
	}
	if math.Abs(y) < math.Abs(z) {
		return -z, 0, x
	}
	return -y, x, 0
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }
