package planner

import (
	"errors"
	"fmt"

	"backend-routesmith/internal/shared/geo"
)

// DefaultRouteName marks a route the user has not named yet.
const DefaultRouteName = "New Route"

const importedRouteName = "Imported Route"

type Kind string

const (
	KindStart Kind = "start"
	KindEnd   Kind = "end"
	KindRoute Kind = "route"
	KindPOI   Kind = "poi"
)

// Routing reports whether waypoints of this kind take part in the connected path.
func (k Kind) Routing() bool {
	return k == KindStart || k == KindEnd || k == KindRoute
}

func (k Kind) Valid() bool {
	return k.Routing() || k == KindPOI
}

type POIKind string

const (
	POIWater  POIKind = "water"
	POIHazard POIKind = "hazard"
	POIClosed POIKind = "closed"
	POICamera POIKind = "camera"
)

func (k POIKind) Valid() bool {
	switch k {
	case POIWater, POIHazard, POIClosed, POICamera:
		return true
	}
	return false
}

// Annotation is the free-form metadata editable from a marker popup.
type Annotation struct {
	Comment string `json:"comment,omitempty"`
	Date    string `json:"date,omitempty"`
	Image   string `json:"image,omitempty"`
	Caption string `json:"caption,omitempty"`
}

// Waypoint is a routing point or a POI marker. POIKind is only ever set when
// Kind is KindPOI; Validate enforces that for data coming from outside.
type Waypoint struct {
	ID        string   `json:"id"`
	Lng       float64  `json:"lng"`
	Lat       float64  `json:"lat"`
	Elevation *float64 `json:"elevation,omitempty"`
	Kind      Kind     `json:"type"`
	POIKind   POIKind  `json:"poi_type,omitempty"`
	Annotation
}

func (w Waypoint) LngLat() geo.LngLat { return geo.LngLat{w.Lng, w.Lat} }

var errNoWaypointID = errors.New("waypoint id required")

func (w Waypoint) Validate() error {
	if w.ID == "" {
		return errNoWaypointID
	}
	if !w.Kind.Valid() {
		return fmt.Errorf("waypoint %s: unknown type %q", w.ID, w.Kind)
	}
	if w.Kind == KindPOI && !w.POIKind.Valid() {
		return fmt.Errorf("waypoint %s: unknown poi type %q", w.ID, w.POIKind)
	}
	if w.Kind != KindPOI && w.POIKind != "" {
		return fmt.Errorf("waypoint %s: poi type on %s waypoint", w.ID, w.Kind)
	}
	return nil
}

// WaypointPatch carries the fields of an update; nil means "leave as is".
type WaypointPatch struct {
	Lng       *float64 `json:"lng,omitempty"`
	Lat       *float64 `json:"lat,omitempty"`
	Elevation *float64 `json:"elevation,omitempty"`
	POIKind   *POIKind `json:"poi_type,omitempty"`
	Comment   *string  `json:"comment,omitempty"`
	Date      *string  `json:"date,omitempty"`
	Image     *string  `json:"image,omitempty"`
	Caption   *string  `json:"caption,omitempty"`
}

func (p WaypointPatch) moves(w Waypoint) bool {
	return (p.Lng != nil && *p.Lng != w.Lng) || (p.Lat != nil && *p.Lat != w.Lat)
}

func (p WaypointPatch) apply(w Waypoint) Waypoint {
	if p.Lng != nil {
		w.Lng = *p.Lng
	}
	if p.Lat != nil {
		w.Lat = *p.Lat
	}
	if p.Elevation != nil {
		ele := *p.Elevation
		w.Elevation = &ele
	}
	if p.POIKind != nil && w.Kind == KindPOI && p.POIKind.Valid() {
		w.POIKind = *p.POIKind
	}
	if p.Comment != nil {
		w.Comment = *p.Comment
	}
	if p.Date != nil {
		w.Date = *p.Date
	}
	if p.Image != nil {
		w.Image = *p.Image
	}
	if p.Caption != nil {
		w.Caption = *p.Caption
	}
	return w
}

type ElevationPoint struct {
	Distance  float64 `json:"distance"`
	Elevation float64 `json:"elevation"`
}

// Segment is the path between two consecutive routing waypoints. Segments are
// never modified after they are built; edits replace them.
type Segment struct {
	ID               string           `json:"id"`
	Geometry         geo.LineString   `json:"geometry"`
	Distance         float64          `json:"distance"`
	ElevationProfile []ElevationPoint `json:"elevation_profile,omitempty"`
}

// Snapshot is an immutable view of the engine state. Consumers must not modify
// the slices it carries.
type Snapshot struct {
	Revision           uint64           `json:"revision"`
	Waypoints          []Waypoint       `json:"waypoints"`
	Segments           []Segment        `json:"segments"`
	Geometry           *geo.LineString  `json:"route_geojson"`
	Bounds             *[4]float64      `json:"bounds,omitempty"`
	TotalDistance      float64          `json:"total_distance"`
	TotalElevationGain float64          `json:"total_elevation_gain"`
	ElevationProfile   []ElevationPoint `json:"elevation_profile"`
	MinElevation       *float64         `json:"min_elevation"`
	MaxElevation       *float64         `json:"max_elevation"`
	RouteName          string           `json:"route_name"`
	RouteID            string           `json:"route_id,omitempty"`
	IsFetching         bool             `json:"is_fetching"`
	IsReadOnly         bool             `json:"is_read_only"`
	IsManualMode       bool             `json:"is_manual_mode"`
	HoveredDistance    *float64         `json:"hovered_distance"`
	ShouldFitBounds    bool             `json:"should_fit_bounds"`
}

// RoutingWaypoints returns the start/route/end waypoints in insertion order.
func (s Snapshot) RoutingWaypoints() []Waypoint {
	var out []Waypoint
	for _, w := range s.Waypoints {
		if w.Kind.Routing() {
			out = append(out, w)
		}
	}
	return out
}

// RestoreInput is a persisted route to load back into an engine.
type RestoreInput struct {
	RouteID   string
	Name      string
	Waypoints []Waypoint
	Segments  []Segment
}
