package planner

import (
	"context"

	"backend-routesmith/internal/shared/geo"
)

// Profile names the travel mode passed to the router.
type Profile string

const (
	ProfileWalking Profile = "walking"
	ProfileCycling Profile = "cycling"
	ProfileDriving Profile = "driving"
)

// Directions is a routed path between two points.
type Directions struct {
	Geometry geo.LineString
	Distance float64
}

// Router finds a path between two points. Any error, or a result with fewer
// than two coordinates, makes the engine fall back to a straight line.
type Router interface {
	Directions(ctx context.Context, from, to geo.LngLat, profile Profile) (*Directions, error)
}

// ElevationSource samples elevations for a set of coordinates. The result may
// be shorter than the input; an error means no profile.
type ElevationSource interface {
	Elevations(ctx context.Context, coords []geo.Position) ([]float64, error)
}

// PlaceNamer reverse-geocodes a point to a short human place name.
type PlaceNamer interface {
	PlaceName(ctx context.Context, lng, lat float64) (string, error)
}
