package planner

import "backend-routesmith/internal/shared/geo"

// HoverPoint is the shared hover position between the profile chart and the
// map. Marker is the map position; Distance is the chart position.
type HoverPoint struct {
	Distance float64    `json:"distance"`
	Marker   geo.LngLat `json:"marker"`
}

// ChartHover stores the hovered distance from the elevation chart and returns
// where the map marker belongs. The distance is stored even when there is no
// route to place a marker on; ok reports whether a marker was found.
func (e *Engine) ChartHover(distance float64) (Snapshot, HoverPoint, bool) {
	e.mu.Lock()
	d := distance
	e.st.hovered = &d

	var marker geo.LngLat
	ok := false
	if line := e.st.stats.Geometry; line != nil {
		marker, ok = geo.PointAtDistance(*line, distance)
	}
	snap := e.commit()
	if !ok {
		return snap, HoverPoint{}, false
	}
	return snap, HoverPoint{Distance: d, Marker: marker}, true
}

// MapHover projects a map pointer position onto the route and sets the hovered
// distance from it.
func (e *Engine) MapHover(lng, lat float64) (Snapshot, HoverPoint, bool) {
	e.mu.Lock()
	line := e.st.stats.Geometry
	if line == nil {
		defer e.mu.Unlock()
		return e.snapshotLocked(), HoverPoint{}, false
	}
	d, ok := geo.DistanceAtPoint(*line, lng, lat)
	if !ok {
		defer e.mu.Unlock()
		return e.snapshotLocked(), HoverPoint{}, false
	}
	marker, _ := geo.PointAtDistance(*line, d)
	e.st.hovered = &d
	return e.commit(), HoverPoint{Distance: d, Marker: marker}, true
}

func (e *Engine) HoverEnd() Snapshot {
	e.mu.Lock()
	e.st.hovered = nil
	return e.commit()
}
