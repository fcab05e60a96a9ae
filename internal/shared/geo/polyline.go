package geo

import (
	"fmt"

	"github.com/twpayne/go-polyline"
)

// EncodePolyline encodes the line as a precision-5 polyline ([lat, lng] order).
func EncodePolyline(line LineString) string {
	coords := usable(line.Coordinates)
	latLngs := make([][]float64, 0, len(coords))
	for _, c := range coords {
		latLngs = append(latLngs, []float64{c.Lat(), c.Lng()})
	}
	return string(polyline.EncodeCoords(latLngs))
}

// DecodePolyline is the inverse of EncodePolyline.
func DecodePolyline(encoded string) (LineString, error) {
	latLngs, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return LineString{}, fmt.Errorf("decode polyline: %w", err)
	}
	coords := make([]Position, 0, len(latLngs))
	for _, ll := range latLngs {
		coords = append(coords, Position{ll[1], ll[0]})
	}
	return NewLineString(coords...), nil
}
