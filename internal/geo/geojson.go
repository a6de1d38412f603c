// Package geo implements the geometry pipeline of the globe: GeoJSON
// decoding, preprocessing, spherical math and orthographic projection.
package geo

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Position is a [longitude, latitude] pair in degrees.
type Position [2]float64

// Lon returns the longitude.
func (p Position) Lon() float64 { return p[0] }

// Lat returns the latitude.
func (p Position) Lat() float64 { return p[1] }

// UnmarshalJSON decodes a position. A position with fewer than two
// coordinates, or a null or non-numeric coordinate, decodes as NaN so the
// ring holding it is dropped by Preprocess.
func (p *Position) UnmarshalJSON(data []byte) error {
	var raw []interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("position must be an array: %w", err)
	}
	*p = Position{math.NaN(), math.NaN()}
	if len(raw) < 2 {
		return nil
	}
	lon, okLon := raw[0].(float64)
	lat, okLat := raw[1].(float64)
	if okLon && okLat {
		*p = Position{lon, lat}
	}
	return nil
}

func (p Position) finite() bool {
	for _, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Ring is a closed linear ring; the first ring of a polygon is its exterior.
type Ring []Position

// Polygon is an exterior ring followed by holes.
type Polygon []Ring

// Geometry is a Polygon or MultiPolygon normalized to a list of polygons.
// Other geometry types decode to an empty geometry.
type Geometry struct {
	Type     string
	Polygons []Polygon
}

// Empty reports whether the geometry has no polygons.
func (g Geometry) Empty() bool {
	return len(g.Polygons) == 0
}

type rawGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// UnmarshalJSON decodes Polygon and MultiPolygon geometries.
func (g *Geometry) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*g = Geometry{}
		return nil
	}

	var raw rawGeometry
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode geometry: %w", err)
	}

	g.Type = raw.Type
	g.Polygons = nil

	switch raw.Type {
	case "Polygon":
		var poly Polygon
		if err := json.Unmarshal(raw.Coordinates, &poly); err != nil {
			return fmt.Errorf("failed to decode polygon coordinates: %w", err)
		}
		g.Polygons = []Polygon{poly}
	case "MultiPolygon":
		if err := json.Unmarshal(raw.Coordinates, &g.Polygons); err != nil {
			return fmt.Errorf("failed to decode multipolygon coordinates: %w", err)
		}
	}
	return nil
}

// MarshalJSON encodes the geometry back to GeoJSON.
func (g Geometry) MarshalJSON() ([]byte, error) {
	if g.Empty() {
		return []byte("null"), nil
	}
	if len(g.Polygons) == 1 {
		return json.Marshal(rawPolygon{Type: "Polygon", Coordinates: g.Polygons[0]})
	}
	return json.Marshal(rawMultiPolygon{Type: "MultiPolygon", Coordinates: g.Polygons})
}

type rawPolygon struct {
	Type        string  `json:"type"`
	Coordinates Polygon `json:"coordinates"`
}

type rawMultiPolygon struct {
	Type        string    `json:"type"`
	Coordinates []Polygon `json:"coordinates"`
}

// Feature is one country boundary with its property bag.
type Feature struct {
	Type       string                 `json:"type"`
	ID         interface{}            `json:"id,omitempty"`
	Properties map[string]interface{} `json:"properties"`
	Geometry   Geometry               `json:"geometry"`
}

// FeatureCollection is the top-level GeoJSON document.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`

	// Malformed counts features Decode skipped.
	Malformed int `json:"-"`
}

type rawCollection struct {
	Type     string            `json:"type"`
	Features []json.RawMessage `json:"features"`
}

// Decode parses a GeoJSON FeatureCollection. Features are decoded one by
// one; a feature that fails to decode is skipped and counted in Malformed.
func Decode(data []byte) (*FeatureCollection, error) {
	var raw rawCollection
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode feature collection: %w", err)
	}
	if raw.Type != "" && raw.Type != "FeatureCollection" {
		return nil, fmt.Errorf("unexpected GeoJSON type %q", raw.Type)
	}

	fc := &FeatureCollection{
		Type:     raw.Type,
		Features: make([]Feature, 0, len(raw.Features)),
	}
	for _, data := range raw.Features {
		var f Feature
		if err := json.Unmarshal(data, &f); err != nil {
			fc.Malformed++
			continue
		}
		fc.Features = append(fc.Features, f)
	}
	return fc, nil
}

// placeholder is the Natural Earth value for "no code".
const placeholder = "-99"

// Prop returns a trimmed string property. Missing, non-string and
// placeholder values yield "".
func (f Feature) Prop(key string) string {
	s, ok := f.Properties[key].(string)
	if !ok {
		return ""
	}
	s = strings.TrimSpace(s)
	if s == placeholder {
		return ""
	}
	return s
}

// PropFloat returns a numeric property.
func (f Feature) PropFloat(key string) (float64, bool) {
	v, ok := f.Properties[key]
	if !ok {
		return 0, false
	}
	n, ok := v.(float64)
	if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// Name returns the first available display name.
func (f Feature) Name() string {
	for _, key := range []string{"NAME", "ADMIN", "name"} {
		if s := f.Prop(key); s != "" {
			return s
		}
	}
	return ""
}

// Code returns the first available ISO code, preferring ISO-3.
func (f Feature) Code() string {
	for _, key := range []string{"ISO_A3", "ISO_A2"} {
		if s := f.Prop(key); s != "" {
			return s
		}
	}
	if s, ok := f.ID.(string); ok && len(s) == 3 && s != placeholder {
		return s
	}
	return ""
}

// Key returns a stable identifier for the feature, used in frames and
// click commands.
func (f Feature) Key() string {
	if code := f.Code(); code != "" {
		return code
	}
	switch id := f.ID.(type) {
	case string:
		if id != "" {
			return id
		}
	case float64:
		return fmt.Sprintf("%g", id)
	}
	return f.Name()
}

// LabelAnchor returns the label position carried in the properties:
// LABEL_X/LABEL_Y, else LON/LAT.
func (f Feature) LabelAnchor() (Position, bool) {
	pairs := [][2]string{{"LABEL_X", "LABEL_Y"}, {"LON", "LAT"}}
	for _, keys := range pairs {
		lon, okLon := f.PropFloat(keys[0])
		lat, okLat := f.PropFloat(keys[1])
		if okLon && okLat {
			return Position{lon, lat}, true
		}
	}
	return Position{}, false
}
