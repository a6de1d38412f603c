package globe

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/aristath/marketglobe/internal/domain"
	"github.com/aristath/marketglobe/internal/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

var centeredView = View{Width: 800, Height: 800}

var natoCodes = []string{"AAA", "BBB", "CCC", "DDD", "EEE", "FFF", "GGG", "HHH", "III", "JJJ"}
var natoNames = []string{"Alpha", "Bravo", "Charlie", "Delta", "Echo", "Foxtrot", "Golf", "Hotel", "India", "Juliet"}

// row builds one visible square per performance value, west to east.
func row(perf ...*float64) ([]geo.Feature, []domain.Country) {
	var features []geo.Feature
	var countries []domain.Country
	for i, p := range perf {
		features = append(features, feature(natoCodes[i], natoNames[i], square(-45+float64(i)*10, 0, 5)))
		countries = append(countries, domain.Country{
			ID: natoCodes[i], Name: natoNames[i], ISOCode: natoCodes[i], Performance: p,
		})
	}
	return features, countries
}

func labelIDs(f *Frame) []string {
	out := make([]string, len(f.Labels))
	for i, l := range f.Labels {
		out[i] = l.CountryID
	}
	return out
}

func TestBuildFrame_LabelCap(t *testing.T) {
	f := domain.Float
	features, countries := row(f(2.1), f(-9), f(3), f(4), f(-5), f(6), f(2.5), f(-7), f(8), f(2.2))

	frame := BuildFrame(features, countries, centeredView, DefaultOptions(), quietLog())

	require.Len(t, frame.Labels, 7)
	assert.Equal(t, []string{"BBB", "III", "HHH", "FFF", "EEE", "DDD", "CCC"}, labelIDs(frame))
	assert.Equal(t, "Bravo: -9.0%", frame.Labels[0].Text)
}

func TestBuildFrame_HiddenLabels(t *testing.T) {
	features, countries := row(nil, domain.Float(2.0), domain.Float(-2.0), domain.Float(2.01))

	far := feature("KKK", "Kilo", square(175, 0, 3))
	features = append(features, far)
	countries = append(countries, domain.Country{ID: "KKK", Name: "Kilo", ISOCode: "KKK", Performance: domain.Float(9)})

	frame := BuildFrame(features, countries, centeredView, DefaultOptions(), quietLog())

	assert.Equal(t, []string{"DDD"}, labelIDs(frame))
	assert.Equal(t, "", frame.Shapes[4].Path, "far side is not drawn")
}

func TestBuildFrame_TiesKeepIterationOrder(t *testing.T) {
	features, countries := row(domain.Float(3), domain.Float(-3), domain.Float(3))
	opts := DefaultOptions()
	opts.MaxLabels = 2

	frame := BuildFrame(features, countries, centeredView, opts, quietLog())
	assert.Equal(t, []string{"AAA", "BBB"}, labelIDs(frame))
}

func TestBuildFrame_Fills(t *testing.T) {
	features, countries := row(domain.Float(5), nil, domain.Float(0))
	features = append(features, feature("ZZZ", "Nowhere", square(30, 0, 5)))

	frame := BuildFrame(features, countries, centeredView, DefaultOptions(), quietLog())
	require.Len(t, frame.Shapes, 4)

	assert.Equal(t, "#00ff00", frame.Shapes[0].Fill)
	assert.Equal(t, "#888888", frame.Shapes[1].Fill)
	assert.Equal(t, "#ffffff", frame.Shapes[2].Fill)

	unmatched := frame.Shapes[3]
	assert.Equal(t, "#888888", unmatched.Fill)
	assert.False(t, unmatched.Interactive)
	assert.Empty(t, unmatched.CountryID)
	assert.NotEmpty(t, unmatched.Path)
}

func TestBuildFrame_LabelAtProjectedCentroid(t *testing.T) {
	features := []geo.Feature{feature("AAA", "Alpha", square(-5, -5, 10))}
	countries := []domain.Country{{ID: "a", Name: "Alpha", ISOCode: "AAA", Performance: domain.Float(4)}}

	frame := BuildFrame(features, countries, centeredView, DefaultOptions(), quietLog())
	require.Len(t, frame.Labels, 1)
	assert.InDelta(t, 400, frame.Labels[0].X, 0.5)
	assert.InDelta(t, 400, frame.Labels[0].Y, 0.5)
}

type panickingProjector struct{}

func (panickingProjector) ProjectGeometry(geo.Geometry) [][]geo.Point {
	var rings [][]geo.Point
	_ = rings[3]
	return rings
}

func TestProjectFeature_RecoversPanic(t *testing.T) {
	rings, err := projectFeature(panickingProjector{}, feature("AAA", "Alpha", square(0, 0, 5)))
	assert.Error(t, err)
	assert.Nil(t, rings)
	assert.Equal(t, "", geo.PathData(rings))
}

func TestFrame_Encodings(t *testing.T) {
	features, countries := row(domain.Float(4), domain.Float(-3))
	features[0].Properties["NAME"] = "Alpha & <Omega>"
	frame := BuildFrame(features, countries, View{Width: 640, Height: 480, Lambda: 20, Phi: -10}, DefaultOptions(), quietLog())

	data, err := json.Marshal(frame)
	require.NoError(t, err, "frames never carry NaN")
	assert.NotContains(t, string(data), "NaN")

	svg := string(frame.SVG())
	assert.True(t, strings.HasPrefix(svg, `<svg xmlns="http://www.w3.org/2000/svg" width="640" height="480"`))
	assert.Contains(t, svg, `data-country-id="AAA"`)
	assert.Contains(t, svg, "Alpha &amp; &lt;Omega&gt;")
	assert.Contains(t, svg, `class="ocean"`)
	assert.NotContains(t, svg, "NaN")

	packed, err := frame.Msgpack()
	require.NoError(t, err)
	var decoded Frame
	require.NoError(t, msgpack.Unmarshal(packed, &decoded))
	assert.Equal(t, labelIDs(frame), labelIDs(&decoded))
	assert.Equal(t, frame.Sphere, decoded.Sphere)
}

func TestPolygons(t *testing.T) {
	withAnchor := feature("AAA", "Alpha", square(0, 0, 5))
	withAnchor.Properties["LABEL_X"] = 2.0
	withAnchor.Properties["LABEL_Y"] = 3.0
	features := []geo.Feature{withAnchor, feature("ZZZ", "Nowhere", square(10, 0, 5))}
	countries := []domain.Country{{ID: "a", Name: "Alpha", ISOCode: "AAA", Performance: domain.Float(-1.25)}}

	polys := Polygons(features, countries, quietLog())
	require.Len(t, polys, 2)

	assert.Equal(t, "a", polys[0].CountryID)
	assert.Equal(t, "-1.25%", polys[0].Performance)
	require.NotNil(t, polys[0].LabelAt)
	assert.Equal(t, domain.LatLng{Lat: 3, Lng: 2}, *polys[0].LabelAt)

	assert.Equal(t, "#888888", polys[1].CapColor)
	assert.Empty(t, polys[1].Label)
	assert.Nil(t, polys[1].LabelAt)
}
