package geo

import "encoding/json"

const (
	TypeLineString        = "LineString"
	TypeFeature           = "Feature"
	TypeFeatureCollection = "FeatureCollection"
)

// Position is a GeoJSON position: [lng, lat] or [lng, lat, elevation].
type Position []float64

func (p Position) Lng() float64 { return p[0] }
func (p Position) Lat() float64 { return p[1] }

// Elevation reports the third value when the position carries one.
func (p Position) Elevation() (float64, bool) {
	if len(p) < 3 {
		return 0, false
	}
	return p[2], true
}

func (p Position) LngLat() LngLat { return LngLat{p[0], p[1]} }

func (p Position) valid() bool { return len(p) >= 2 }

// LngLat is a bare [lng, lat] pair.
type LngLat [2]float64

func (ll LngLat) Lng() float64 { return ll[0] }
func (ll LngLat) Lat() float64 { return ll[1] }

func (ll LngLat) Position() Position { return Position{ll[0], ll[1]} }

type LineString struct {
	Type        string     `json:"type"`
	Coordinates []Position `json:"coordinates"`
}

func NewLineString(coords ...Position) LineString {
	return LineString{Type: TypeLineString, Coordinates: coords}
}

// Geometry keeps coordinates raw so collections with mixed geometry types decode.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates,omitempty"`
}

type Feature struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Geometry   *Geometry      `json:"geometry"`
}

// NewLineFeature wraps a line into a feature with empty properties.
func NewLineFeature(line LineString) Feature {
	raw, _ := json.Marshal(line.Coordinates)
	return Feature{
		Type:       TypeFeature,
		Properties: map[string]any{},
		Geometry:   &Geometry{Type: TypeLineString, Coordinates: raw},
	}
}

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// LineSource is anything that can yield a single line geometry.
type LineSource interface {
	Line() (LineString, bool)
}

func (l LineString) Line() (LineString, bool) {
	if l.Type != "" && l.Type != TypeLineString {
		return LineString{}, false
	}
	return l, true
}

func (f Feature) Line() (LineString, bool) {
	if f.Geometry == nil || f.Geometry.Type != TypeLineString {
		return LineString{}, false
	}
	var coords []Position
	if err := json.Unmarshal(f.Geometry.Coordinates, &coords); err != nil {
		return LineString{}, false
	}
	return NewLineString(coords...), true
}

// Name returns the feature's "name" property when it is a non-empty string.
func (f Feature) Name() string {
	name, _ := f.Properties["name"].(string)
	return name
}

// Line scans for the first feature carrying line geometry.
func (fc FeatureCollection) Line() (LineString, bool) {
	_, line, ok := fc.FirstLine()
	return line, ok
}

// FirstLine is Line plus the feature the line came from.
func (fc FeatureCollection) FirstLine() (Feature, LineString, bool) {
	for _, f := range fc.Features {
		if line, ok := f.Line(); ok {
			return f, line, true
		}
	}
	return Feature{}, LineString{}, false
}
