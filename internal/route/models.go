package route

import (
	"time"

	"backend-routesmith/internal/planner"
	"backend-routesmith/internal/shared/geo"
)

// UnknownLocation is stored when the start point could not be named.
const UnknownLocation = "Unknown Location"

// Route is a saved route document.
type Route struct {
	ID               string                   `json:"id"`
	OwnerID          string                   `json:"owner_id"`
	Name             string                   `json:"name"`
	IsPublic         bool                     `json:"is_public"`
	Distance         float64                  `json:"distance"`
	ElevationGain    float64                  `json:"elevation_gain"`
	MinElevation     *float64                 `json:"min_elevation"`
	MaxElevation     *float64                 `json:"max_elevation"`
	StartLocation    string                   `json:"start_location"`
	Waypoints        []planner.Waypoint       `json:"waypoints"`
	Segments         []planner.Segment        `json:"segments"`
	ElevationProfile []planner.ElevationPoint `json:"elevation_profile"`
	Geometry         *geo.LineString          `json:"full_geojson"`
	PreviewPolyline  string                   `json:"preview_polyline,omitempty"`
	CreatedAt        time.Time                `json:"created_at"`
	UpdatedAt        time.Time                `json:"updated_at"`
}

// FromSnapshot builds the document for a planner snapshot.
func FromSnapshot(snap planner.Snapshot, ownerID, startLocation string, isPublic bool) Route {
	if startLocation == "" {
		startLocation = UnknownLocation
	}
	r := Route{
		ID:               snap.RouteID,
		OwnerID:          ownerID,
		Name:             snap.RouteName,
		IsPublic:         isPublic,
		Distance:         snap.TotalDistance,
		ElevationGain:    snap.TotalElevationGain,
		MinElevation:     snap.MinElevation,
		MaxElevation:     snap.MaxElevation,
		StartLocation:    startLocation,
		Waypoints:        snap.Waypoints,
		Segments:         snap.Segments,
		ElevationProfile: snap.ElevationProfile,
		Geometry:         snap.Geometry,
	}
	if snap.Geometry != nil {
		r.PreviewPolyline = geo.EncodePolyline(*snap.Geometry)
	}
	return r
}

// RestoreInput converts the document back into planner input.
func (r Route) RestoreInput() planner.RestoreInput {
	return planner.RestoreInput{
		RouteID:   r.ID,
		Name:      r.Name,
		Waypoints: r.Waypoints,
		Segments:  r.Segments,
	}
}

// Patch is the owner-editable metadata of a saved route.
type Patch struct {
	Name     *string `json:"name"`
	IsPublic *bool   `json:"is_public"`
}

// Filters bound search results. Nil bounds are open.
type Filters struct {
	MinDistance *float64
	MaxDistance *float64
	MinGain     *float64
	MaxGain     *float64
}
