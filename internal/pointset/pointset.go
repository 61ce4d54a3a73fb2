// Package pointset defines labeled coordinate collections and nearest-point
// matching over them.
package pointset

import (
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/miss-inputs/tpg-cli/internal/geodesy"
)

// ErrEmptyInput indicates an operation that requires at least one point was
// given none. Callers must not substitute a default match.
var ErrEmptyInput = eris.New("pointset: point set is empty")

// Point is a coordinate with an optional display name and description.
// Identity is positional (its index in the owning Set); names need not be
// unique.
type Point struct {
	geodesy.Coordinate
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// Label returns the point's name, or a formatted coordinate if unnamed.
func (p Point) Label() string {
	if p.Name != "" {
		return p.Name
	}
	return FormatCoordinate(p.Coordinate)
}

// FormatCoordinate renders a coordinate the way the game community writes
// them: "lat, lng" with enough precision to locate a pic.
func FormatCoordinate(c geodesy.Coordinate) string {
	return fmt.Sprintf("%.5f, %.5f", c.Lat, c.Lng)
}

// Set is an ordered sequence of points. Engine operations treat a Set as
// read-only; derived sets are always new values.
type Set []Point

// Validate checks every point's coordinate range. The first out-of-range
// point fails with geodesy.ErrInvalidPoint wrapped with its index.
func (s Set) Validate() error {
	for i, p := range s {
		if !p.Coordinate.Valid() {
			return eris.Wrapf(geodesy.ErrInvalidPoint, "point %d (%s)", i, p.Label())
		}
	}
	return nil
}

// Coordinates returns the coordinates of the set, in order.
func (s Set) Coordinates() []geodesy.Coordinate {
	coords := make([]geodesy.Coordinate, len(s))
	for i, p := range s {
		coords[i] = p.Coordinate
	}
	return coords
}
