package geo

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(lon, lat, size float64) Ring {
	return Ring{{lon, lat}, {lon + size, lat}, {lon + size, lat + size}, {lon, lat + size}, {lon, lat}}
}

func feature(name string, polys ...Polygon) Feature {
	return Feature{
		Type:       "Feature",
		Properties: map[string]interface{}{"NAME": name},
		Geometry:   Geometry{Type: "MultiPolygon", Polygons: polys},
	}
}

func TestPreprocess(t *testing.T) {
	fc := &FeatureCollection{Features: []Feature{
		feature("Antarctica", Polygon{square(0, -80, 10)}),
		feature("Roundland", Polygon{{{1.234567, 2.345678}, {3, 2}, {3, 4}, {1.234567, 2.345678}}}),
		feature("Sliver", Polygon{{{0, 0}, {1, 1}, {0, 0}}}),
		feature("Broken", Polygon{{{0, 0}, {math.NaN(), 1}, {1, 1}, {0, 0}}}),
		feature("Holey", Polygon{square(0, 0, 10), {{1, 1}, {2, 2}, {1, 1}}}),
	}}

	out, stats := Preprocess(fc)

	require.Len(t, out.Features, 2)
	assert.Equal(t, "Roundland", out.Features[0].Name())
	assert.Equal(t, "Holey", out.Features[1].Name())

	assert.Equal(t, Position{1.2346, 2.3457}, out.Features[0].Geometry.Polygons[0][0][0])
	assert.Equal(t, "Polygon", out.Features[0].Geometry.Type)
	assert.Len(t, out.Features[1].Geometry.Polygons[0], 1, "invalid hole is dropped")

	assert.Equal(t, PreprocessStats{
		Input:           5,
		Kept:            2,
		Antarctica:      1,
		DroppedRings:    3,
		DroppedFeatures: 2,
	}, stats)

	// Input is untouched
	assert.Equal(t, 1.234567, fc.Features[1].Geometry.Polygons[0][0][0][0])
}

func TestPreprocess_DropsShortAndNullPositions(t *testing.T) {
	var fc FeatureCollection
	require.NoError(t, json.Unmarshal([]byte(`{"type":"FeatureCollection","features":[
	  {"type":"Feature","properties":{"NAME":"Short"},"geometry":{"type":"Polygon","coordinates":[[[10],[20],[30],[10]]]}},
	  {"type":"Feature","properties":{"NAME":"Nulls"},"geometry":{"type":"Polygon","coordinates":[[[10,null],[20,null],[30,null],[10,null]]]}},
	  {"type":"Feature","properties":{"NAME":"Fine"},"geometry":{"type":"Polygon","coordinates":[[[10,0],[20,0],[20,5],[10,0]]]}}
	]}`), &fc))

	out, stats := Preprocess(&fc)

	require.Len(t, out.Features, 1)
	assert.Equal(t, "Fine", out.Features[0].Name())
	assert.Equal(t, 2, stats.DroppedRings)
	assert.Equal(t, 2, stats.DroppedFeatures)
}

func TestPreprocess_AntarcticaByCode(t *testing.T) {
	f := feature("", Polygon{square(0, -80, 10)})
	f.Properties["ISO_A3"] = "ATA"
	out, stats := Preprocess(&FeatureCollection{Features: []Feature{f}})
	assert.Empty(t, out.Features)
	assert.Equal(t, 1, stats.Antarctica)
}

func TestPreprocess_Nil(t *testing.T) {
	out, stats := Preprocess(nil)
	assert.Empty(t, out.Features)
	assert.Zero(t, stats.Input)
}
