package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPathData(t *testing.T) {
	rings := [][]Point{{{0, 0}, {10, 0}, {10.04, 10.26}}}
	assert.Equal(t, "M0,0L10,0L10,10.3Z", PathData(rings))
	assert.Equal(t, "", PathData(nil))
}

func TestLineData(t *testing.T) {
	lines := [][]Point{{{1, 2}, {3, 4}}, {{5, 6}, {7, 8}}}
	assert.Equal(t, "M1,2L3,4M5,6L7,8", LineData(lines))
}

func TestPlanarCentroid(t *testing.T) {
	sq := []Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	rev := []Point{{0, 10}, {10, 10}, {10, 0}, {0, 0}}

	for _, ring := range [][]Point{sq, rev} {
		c, ok := PlanarCentroid([][]Point{ring})
		assert.True(t, ok)
		assert.InDelta(t, 5, c.X, 1e-9)
		assert.InDelta(t, 5, c.Y, 1e-9)
	}
}

func TestPlanarCentroid_Degenerate(t *testing.T) {
	c, ok := PlanarCentroid([][]Point{{{0, 0}, {10, 0}}})
	assert.True(t, ok)
	assert.Equal(t, Point{5, 0}, c)

	_, ok = PlanarCentroid(nil)
	assert.False(t, ok)
}

func TestGraticule(t *testing.T) {
	lines := Graticule()
	assert.Len(t, lines, 24+11)

	// Major meridians reach the poles
	first := lines[0]
	assert.Equal(t, -90.0, first[0].Lat())
	assert.InDelta(t, 90.0, first[len(first)-1].Lat(), 1e-9)

	minor := lines[1]
	assert.Equal(t, -80.0, minor[0].Lat())
}
