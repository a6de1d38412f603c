package globe

import (
	"context"
	"sync/atomic"

	"github.com/aristath/marketglobe/internal/clients/geometry"
	"github.com/aristath/marketglobe/internal/domain"
	"github.com/aristath/marketglobe/internal/geo"
	"github.com/rs/zerolog"
)

func quietLog() zerolog.Logger {
	return zerolog.New(nil).Level(zerolog.Disabled)
}

// square returns a size x size degree polygon with its south-west corner
// at lon, lat.
func square(lon, lat, size float64) geo.Geometry {
	ring := geo.Ring{{lon, lat}, {lon + size, lat}, {lon + size, lat + size}, {lon, lat + size}, {lon, lat}}
	return geo.Geometry{Type: "Polygon", Polygons: []geo.Polygon{{ring}}}
}

func feature(code, name string, g geo.Geometry) geo.Feature {
	return geo.Feature{
		Type:       "Feature",
		Properties: map[string]interface{}{"ISO_A3": code, "NAME": name},
		Geometry:   g,
	}
}

type staticCountries []domain.Country

func (s staticCountries) List() []domain.Country {
	return append([]domain.Country(nil), s...)
}

type fakeFetcher struct {
	calls   int32
	results []*geometry.Result
	err     error
}

func (f *fakeFetcher) Fetch(ctx context.Context) (*geometry.Result, error) {
	n := atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	i := int(n) - 1
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	return f.results[i], nil
}

func collection(features ...geo.Feature) *geo.FeatureCollection {
	return &geo.FeatureCollection{Type: "FeatureCollection", Features: features}
}

func readyStore(features ...geo.Feature) *Store {
	s := NewStore(&fakeFetcher{results: []*geometry.Result{{Collection: collection(features...)}}}, nil, quietLog())
	if err := s.Load(context.Background()); err != nil {
		panic(err)
	}
	return s
}

func readyResults(features ...geo.Feature) []*geometry.Result {
	return []*geometry.Result{{Collection: collection(features...)}}
}
