package planner

import (
	"context"
	"fmt"
	"strings"
)

type ToolKind string

const (
	ToolNone     ToolKind = "none"
	ToolPlacePOI ToolKind = "placing-poi"
	ToolDelete   ToolKind = "deleting"
)

// ToolMode decides what a map click does. POIKind is only meaningful with
// ToolPlacePOI.
type ToolMode struct {
	Kind    ToolKind `json:"kind"`
	POIKind POIKind  `json:"poi_type,omitempty"`
}

// ParseToolMode accepts "none", "deleting" or "placing-poi:<kind>".
func ParseToolMode(s string) (ToolMode, error) {
	kind, poi, _ := strings.Cut(s, ":")
	switch ToolKind(kind) {
	case "", ToolNone:
		return ToolMode{Kind: ToolNone}, nil
	case ToolDelete:
		return ToolMode{Kind: ToolDelete}, nil
	case ToolPlacePOI:
		if !POIKind(poi).Valid() {
			return ToolMode{}, fmt.Errorf("unknown poi type %q", poi)
		}
		return ToolMode{Kind: ToolPlacePOI, POIKind: POIKind(poi)}, nil
	}
	return ToolMode{}, fmt.Errorf("unknown tool %q", s)
}

// Click is a map click. WaypointID is set when the click hit a marker.
type Click struct {
	Lng        float64 `json:"lng"`
	Lat        float64 `json:"lat"`
	WaypointID string  `json:"waypoint_id,omitempty"`
}

type ActionKind string

const (
	ActionNone       ActionKind = "none"
	ActionAddRouting ActionKind = "add-routing"
	ActionAddPOI     ActionKind = "add-poi"
	ActionRemove     ActionKind = "remove"
)

type Action struct {
	Kind       ActionKind
	Lng, Lat   float64
	POIKind    POIKind
	WaypointID string
}

// ResolveClick maps a click under a tool mode to the edit it triggers. Marker
// clicks outside delete mode open the marker popup and do nothing here.
func ResolveClick(mode ToolMode, click Click) Action {
	switch mode.Kind {
	case ToolPlacePOI:
		if !mode.POIKind.Valid() {
			return Action{Kind: ActionNone}
		}
		return Action{Kind: ActionAddPOI, Lng: click.Lng, Lat: click.Lat, POIKind: mode.POIKind}
	case ToolDelete:
		if click.WaypointID == "" {
			return Action{Kind: ActionNone}
		}
		return Action{Kind: ActionRemove, WaypointID: click.WaypointID}
	}
	if click.WaypointID != "" {
		return Action{Kind: ActionNone}
	}
	return Action{Kind: ActionAddRouting, Lng: click.Lng, Lat: click.Lat}
}

// Apply runs a resolved action against the engine.
func (e *Engine) Apply(ctx context.Context, a Action) Snapshot {
	switch a.Kind {
	case ActionAddRouting:
		return e.AddRoutingWaypoint(ctx, a.Lng, a.Lat)
	case ActionAddPOI:
		return e.AddPOI(ctx, a.Lng, a.Lat, a.POIKind)
	case ActionRemove:
		return e.RemoveWaypoint(ctx, a.WaypointID)
	}
	return e.Snapshot()
}
