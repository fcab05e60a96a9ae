package planner

import (
	"context"

	"go.uber.org/zap"

	"backend-routesmith/internal/metrics"
	"backend-routesmith/internal/shared/geo"
)

// buildSegment routes from -> to, falling back to a straight line, and attaches
// an elevation profile when one can be sampled. It never fails.
func (e *Engine) buildSegment(ctx context.Context, from, to geo.LngLat, manual bool) Segment {
	seg := Segment{ID: e.newID()}

	if !manual {
		if dir := e.route(ctx, from, to); dir != nil {
			seg.Geometry = dir.Geometry
			seg.Distance = dir.Distance
			if seg.Distance <= 0 {
				seg.Distance = geo.LineLength(dir.Geometry)
			}
		} else {
			metrics.FallbackSegments.Inc()
		}
	}
	if len(seg.Geometry.Coordinates) == 0 {
		seg.Geometry = geo.NewLineString(from.Position(), to.Position())
		seg.Distance = geo.DistanceMeters(from.Lat(), from.Lng(), to.Lat(), to.Lng())
	}

	if e.elevation != nil {
		elevations, err := e.elevation.Elevations(ctx, seg.Geometry.Coordinates)
		if err != nil {
			e.logger.Warn("elevation lookup failed", zap.Error(err))
		} else {
			seg.ElevationProfile = DistributeProfile(elevations, seg.Distance)
		}
	}
	return seg
}

func (e *Engine) route(ctx context.Context, from, to geo.LngLat) *Directions {
	if e.router == nil {
		return nil
	}
	dir, err := e.router.Directions(ctx, from, to, e.profile)
	if err != nil {
		e.logger.Warn("routing failed, using straight line",
			zap.Float64s("from", from[:]), zap.Float64s("to", to[:]), zap.Error(err))
		return nil
	}
	if dir == nil || !geo.Complete(dir.Geometry) {
		e.logger.Warn("routing returned unusable geometry, using straight line")
		return nil
	}
	return dir
}
