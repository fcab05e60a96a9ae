package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	orbgeo "github.com/paulmach/orb/geo"
)

// HaversineKm returns the great-circle distance in kilometers.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	return orbgeo.DistanceHaversine(orb.Point{lon1, lat1}, orb.Point{lon2, lat2}) / 1000
}

// DistanceMeters returns the great-circle distance in meters.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	return HaversineKm(lat1, lon1, lat2, lon2) * 1000
}

func between(a, b Position) float64 {
	return DistanceMeters(a.Lat(), a.Lng(), b.Lat(), b.Lng())
}

// LineLength sums consecutive great-circle distances along the line, in meters.
func LineLength(line LineString) float64 {
	coords := usable(line.Coordinates)
	var total float64
	for i := 1; i < len(coords); i++ {
		total += between(coords[i-1], coords[i])
	}
	return total
}

// PointAtDistance returns the coordinate at distance meters along the line
// from src. The distance is clamped to the line's length.
func PointAtDistance(src LineSource, distance float64) (LngLat, bool) {
	coords, ok := coordsOf(src)
	if !ok {
		return LngLat{}, false
	}
	if distance <= 0 || len(coords) == 1 {
		return coords[0].LngLat(), true
	}
	p, _ := orbgeo.PointAtDistanceAlongLine(ToOrb(NewLineString(coords...)), distance)
	return LngLat{p[0], p[1]}, true
}

// DistanceAtPoint projects (lng, lat) onto the nearest location on the line and
// returns the distance along the line to that projection, in meters.
func DistanceAtPoint(src LineSource, lng, lat float64) (float64, bool) {
	coords, ok := coordsOf(src)
	if !ok {
		return 0, false
	}
	if len(coords) == 1 {
		return 0, true
	}

	p := Position{lng, lat}
	// equirectangular frame scaled at the query latitude
	kx := math.Cos(lat * math.Pi / 180)

	best := math.Inf(1)
	bestAlong := math.NaN()
	var walked float64
	for i := 1; i < len(coords); i++ {
		a, b := coords[i-1], coords[i]
		dx := (b.Lng() - a.Lng()) * kx
		dy := b.Lat() - a.Lat()
		px := (lng - a.Lng()) * kx
		py := lat - a.Lat()

		t := 0.0
		if l2 := dx*dx + dy*dy; l2 > 0 {
			t = (px*dx + py*dy) / l2
		}
		t = math.Max(0, math.Min(1, t))

		proj := Position{a.Lng() + t*(b.Lng()-a.Lng()), a.Lat() + t*(b.Lat()-a.Lat())}
		if d := between(p, proj); d < best {
			best = d
			bestAlong = walked + between(a, proj)
		}
		walked += between(a, b)
	}

	if math.IsNaN(bestAlong) || math.IsInf(bestAlong, 0) {
		return 0, false
	}
	return bestAlong, true
}

// ToOrb drops elevation and returns the planar line.
func ToOrb(line LineString) orb.LineString {
	coords := usable(line.Coordinates)
	ls := make(orb.LineString, 0, len(coords))
	for _, c := range coords {
		ls = append(ls, orb.Point{c.Lng(), c.Lat()})
	}
	return ls
}

// Bounds is the line's extent; false when it has no usable coordinates.
func Bounds(line LineString) (orb.Bound, bool) {
	ls := ToOrb(line)
	if len(ls) == 0 {
		return orb.Bound{}, false
	}
	return ls.Bound(), true
}

// WKT renders the line for PostGIS ST_GeogFromText.
func WKT(line LineString) string {
	return wkt.MarshalString(ToOrb(line))
}

// Complete reports whether the line has at least two coordinates and each
// carries both a longitude and a latitude.
func Complete(line LineString) bool {
	if len(line.Coordinates) < 2 {
		return false
	}
	for _, c := range line.Coordinates {
		if !c.valid() {
			return false
		}
	}
	return true
}

func coordsOf(src LineSource) ([]Position, bool) {
	if src == nil {
		return nil, false
	}
	line, ok := src.Line()
	if !ok {
		return nil, false
	}
	coords := usable(line.Coordinates)
	if len(coords) == 0 {
		return nil, false
	}
	return coords, true
}

func usable(coords []Position) []Position {
	out := coords[:0:0]
	for _, c := range coords {
		if c.valid() {
			out = append(out, c)
		}
	}
	return out
}
