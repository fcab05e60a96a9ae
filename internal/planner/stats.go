package planner

import (
	"math"

	"backend-routesmith/internal/shared/geo"
)

// GainThreshold is the climb, in elevation units, a point must exceed the
// running reference by before it counts toward gain.
const GainThreshold = 2.0

// Stats are the values derived from the segment list.
type Stats struct {
	Geometry      *geo.LineString
	Bounds        *[4]float64
	TotalDistance float64
	Profile       []ElevationPoint
	Gain          float64
	Min           *float64
	Max           *float64
}

// Aggregate derives combined geometry and statistics from segments in order.
func Aggregate(segments []Segment) Stats {
	var st Stats
	var coords []geo.Position
	var offset float64

	for _, seg := range segments {
		coords = append(coords, seg.Geometry.Coordinates...)
		for _, p := range seg.ElevationProfile {
			st.Profile = append(st.Profile, ElevationPoint{
				Distance:  offset + p.Distance,
				Elevation: p.Elevation,
			})
		}
		offset += seg.Distance
	}
	st.TotalDistance = offset

	if len(coords) > 0 {
		line := geo.NewLineString(coords...)
		st.Geometry = &line
		if b, ok := geo.Bounds(line); ok {
			st.Bounds = &[4]float64{b.Min[0], b.Min[1], b.Max[0], b.Max[1]}
		}
	}

	if len(st.Profile) == 0 {
		st.Profile = []ElevationPoint{}
		return st
	}

	st.Gain = ElevationGain(st.Profile)
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range st.Profile {
		lo = math.Min(lo, p.Elevation)
		hi = math.Max(hi, p.Elevation)
	}
	st.Min, st.Max = &lo, &hi
	return st
}

// ElevationGain is the noise-filtered cumulative climb over a profile. The
// reference follows every descent but only moves up once a climb clears
// GainThreshold, at which point the whole climb above it counts.
func ElevationGain(profile []ElevationPoint) float64 {
	if len(profile) == 0 {
		return 0
	}
	var gain float64
	ref := profile[0].Elevation
	for _, p := range profile[1:] {
		switch {
		case p.Elevation-ref > GainThreshold:
			gain += p.Elevation - ref
			ref = p.Elevation
		case p.Elevation < ref:
			ref = p.Elevation
		}
	}
	return gain
}

// DistributeProfile spreads elevation samples evenly over distance by sample
// index, not by ground distance between the sampled coordinates.
func DistributeProfile(elevations []float64, distance float64) []ElevationPoint {
	if len(elevations) == 0 {
		return nil
	}
	span := float64(len(elevations) - 1)
	if span == 0 {
		span = 1
	}
	profile := make([]ElevationPoint, len(elevations))
	for i, ele := range elevations {
		profile[i] = ElevationPoint{
			Distance:  float64(i) / span * distance,
			Elevation: ele,
		}
	}
	return profile
}
