package globe

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/aristath/marketglobe/internal/config"
	"github.com/aristath/marketglobe/internal/domain"
	"github.com/aristath/marketglobe/internal/geo"
	"github.com/aristath/marketglobe/internal/modules/matcher"
	"github.com/aristath/marketglobe/internal/modules/palette"
	"github.com/rs/zerolog"
)

// Options tune frame output.
type Options struct {
	MaxLabels      int
	LabelThreshold float64
	ResizeThrottle time.Duration
}

// DefaultOptions returns the stock label and resize settings.
func DefaultOptions() Options {
	return Options{
		MaxLabels:      7,
		LabelThreshold: 2.0,
		ResizeThrottle: 100 * time.Millisecond,
	}
}

// OptionsFromConfig maps globe configuration to renderer options.
func OptionsFromConfig(cfg config.GlobeConfig) Options {
	return Options{
		MaxLabels:      cfg.MaxLabels,
		LabelThreshold: cfg.LabelThreshold,
		ResizeThrottle: cfg.ResizeThrottle,
	}
}

// Shape is one projected country.
type Shape struct {
	Key         string `json:"key" msgpack:"key"`
	Name        string `json:"name" msgpack:"name"`
	CountryID   string `json:"countryId,omitempty" msgpack:"countryId,omitempty"`
	Fill        string `json:"fill" msgpack:"fill"`
	Path        string `json:"path" msgpack:"path"`
	Interactive bool   `json:"interactive" msgpack:"interactive"`
}

// Label is a visible country label.
type Label struct {
	CountryID   string  `json:"countryId" msgpack:"countryId"`
	Text        string  `json:"text" msgpack:"text"`
	X           float64 `json:"x" msgpack:"x"`
	Y           float64 `json:"y" msgpack:"y"`
	Performance float64 `json:"performance" msgpack:"performance"`
}

// Frame is one fully projected view of the globe.
type Frame struct {
	Width     float64    `json:"width" msgpack:"width"`
	Height    float64    `json:"height" msgpack:"height"`
	Scale     float64    `json:"scale" msgpack:"scale"`
	Translate geo.Point  `json:"translate" msgpack:"translate"`
	Rotation  [2]float64 `json:"rotation" msgpack:"rotation"`
	Sphere    string     `json:"sphere" msgpack:"sphere"`
	Graticule string     `json:"graticule" msgpack:"graticule"`
	Shapes    []Shape    `json:"shapes" msgpack:"shapes"`
	Labels    []Label    `json:"labels" msgpack:"labels"`
}

// View is the projection input of a frame.
type View struct {
	Width, Height float64
	Lambda, Phi   float64
}

// Projection returns the orthographic projection of the view.
func (v View) Projection() *geo.Orthographic {
	scale, translate := geo.Viewport(v.Width, v.Height)
	return geo.NewOrthographic(v.Lambda, v.Phi, scale, translate)
}

// projector is the part of the projection a frame needs per feature.
type projector interface {
	ProjectGeometry(g geo.Geometry) [][]geo.Point
}

// projectFeature projects one feature. Panics from malformed geometry are
// recovered and reported as an error so the frame can continue.
func projectFeature(p projector, f geo.Feature) (rings [][]geo.Point, err error) {
	defer func() {
		if r := recover(); r != nil {
			rings, err = nil, fmt.Errorf("projection panic: %v", r)
		}
	}()
	return p.ProjectGeometry(f.Geometry), nil
}

type labelCandidate struct {
	label     Label
	magnitude float64
}

// BuildFrame projects features for a view, colors them from the dataset
// and picks the labels.
func BuildFrame(features []geo.Feature, countries []domain.Country, view View, opts Options, log zerolog.Logger) *Frame {
	proj := view.Projection()
	m := matcher.New(countries, log)

	frame := &Frame{
		Width:     view.Width,
		Height:    view.Height,
		Scale:     proj.Scale(),
		Translate: proj.Translate(),
		Rotation:  proj.Rotation(),
		Sphere:    geo.PathData([][]geo.Point{proj.Outline()}),
		Graticule: graticulePath(proj),
		Shapes:    make([]Shape, 0, len(features)),
		Labels:    []Label{},
	}

	var candidates []labelCandidate
	labelled := make(map[string]bool)

	for _, f := range features {
		shape := Shape{Key: f.Key(), Name: f.Name(), Fill: palette.NoData.Hex()}

		rings, err := projectFeature(proj, f)
		if err != nil {
			log.Warn().Err(err).Str("feature", shape.Key).Msg("Feature projection failed, drawing empty path")
		}
		shape.Path = geo.PathData(rings)

		country, ok := m.Match(f)
		if ok {
			shape.CountryID = country.ID
			shape.Interactive = true
			shape.Fill = palette.ColorFor(country.Performance).Hex()
		}
		frame.Shapes = append(frame.Shapes, shape)

		if !ok || labelled[country.ID] {
			continue
		}
		if c, show := labelFor(country, rings, opts.LabelThreshold); show {
			labelled[country.ID] = true
			candidates = append(candidates, c)
		}
	}

	frame.Labels = selectLabels(candidates, opts.MaxLabels)
	return frame
}

// labelFor returns the label of a country drawn with the given rings. Labels
// are hidden without data, at or below the threshold, or when nothing of the
// country is on the visible side.
func labelFor(c domain.Country, rings [][]geo.Point, threshold float64) (labelCandidate, bool) {
	if !c.HasData() || len(rings) == 0 {
		return labelCandidate{}, false
	}
	p := *c.Performance
	if math.IsNaN(p) || math.IsInf(p, 0) || math.Abs(p) <= threshold {
		return labelCandidate{}, false
	}

	at, ok := geo.PlanarCentroid(rings)
	if !ok {
		return labelCandidate{}, false
	}
	return labelCandidate{
		label: Label{
			CountryID:   c.ID,
			Text:        palette.ShortLabel(c),
			X:           math.Round(at.X*10) / 10,
			Y:           math.Round(at.Y*10) / 10,
			Performance: p,
		},
		magnitude: math.Abs(p),
	}, true
}

// selectLabels keeps the limit largest magnitudes; ties keep input order.
func selectLabels(candidates []labelCandidate, limit int) []Label {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].magnitude > candidates[j].magnitude
	})
	if limit >= 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	labels := make([]Label, len(candidates))
	for i, c := range candidates {
		labels[i] = c.label
	}
	return labels
}

func graticulePath(proj *geo.Orthographic) string {
	var lines [][]geo.Point
	for _, line := range geo.Graticule() {
		lines = append(lines, proj.ProjectLine(line)...)
	}
	return geo.LineData(lines)
}
