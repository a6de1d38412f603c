package globe

import (
	"github.com/aristath/marketglobe/internal/domain"
	"github.com/aristath/marketglobe/internal/geo"
	"github.com/aristath/marketglobe/internal/modules/matcher"
	"github.com/aristath/marketglobe/internal/modules/palette"
	"github.com/rs/zerolog"
)

// Polygon is a feature prepared for a client-side WebGL globe.
type Polygon struct {
	Key         string         `json:"key" msgpack:"key"`
	Name        string         `json:"name" msgpack:"name"`
	CountryID   string         `json:"countryId,omitempty" msgpack:"countryId,omitempty"`
	CapColor    string         `json:"capColor" msgpack:"capColor"`
	Label       string         `json:"label,omitempty" msgpack:"label,omitempty"`
	Performance string         `json:"performance,omitempty" msgpack:"performance,omitempty"`
	LabelAt     *domain.LatLng `json:"labelAt,omitempty" msgpack:"labelAt,omitempty"`
	Geometry    geo.Geometry   `json:"geometry" msgpack:"-"`
}

// Polygons pairs every feature with its country. Unmatched features keep
// the neutral cap color and no label.
func Polygons(features []geo.Feature, countries []domain.Country, log zerolog.Logger) []Polygon {
	m := matcher.New(countries, log)
	out := make([]Polygon, 0, len(features))

	for _, f := range features {
		p := Polygon{
			Key:      f.Key(),
			Name:     f.Name(),
			CapColor: palette.NoData.Hex(),
			Geometry: f.Geometry,
		}
		if at, ok := f.LabelAnchor(); ok {
			p.LabelAt = &domain.LatLng{Lat: at.Lat(), Lng: at.Lon()}
		}

		if c, ok := m.Match(f); ok {
			p.CountryID = c.ID
			p.CapColor = palette.ColorFor(c.Performance).Hex()
			p.Label = c.Name
			p.Performance = palette.FormatPercent(c.Performance)
		}
		out = append(out, p)
	}
	return out
}
