package geo

import (
	"math"
	"strconv"
	"strings"
)

// PathData renders closed rings as an SVG path "d" attribute.
func PathData(rings [][]Point) string {
	var b strings.Builder
	for _, ring := range rings {
		writeRun(&b, ring)
		b.WriteByte('Z')
	}
	return b.String()
}

// LineData renders open polylines as an SVG path "d" attribute.
func LineData(lines [][]Point) string {
	var b strings.Builder
	for _, line := range lines {
		writeRun(&b, line)
	}
	return b.String()
}

func writeRun(b *strings.Builder, points []Point) {
	for i, p := range points {
		if i == 0 {
			b.WriteByte('M')
		} else {
			b.WriteByte('L')
		}
		b.WriteString(formatCoord(p.X))
		b.WriteByte(',')
		b.WriteString(formatCoord(p.Y))
	}
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', -1, 64)
}

// PlanarCentroid returns the area-weighted centroid of projected rings.
// Rings wound opposite to the largest ring (holes) subtract. When the total
// area vanishes the mean of the vertices is used; ok is false without
// vertices.
func PlanarCentroid(rings [][]Point) (Point, bool) {
	var area, cx, cy float64
	var sx, sy float64
	n := 0

	for _, ring := range rings {
		for i := range ring {
			p, q := ring[i], ring[(i+1)%len(ring)]
			cross := p.X*q.Y - q.X*p.Y
			area += cross
			cx += (p.X + q.X) * cross
			cy += (p.Y + q.Y) * cross
			sx += p.X
			sy += p.Y
			n++
		}
	}

	if n == 0 {
		return Point{}, false
	}
	if math.Abs(area) > epsilon {
		c := Point{X: cx / (3 * area), Y: cy / (3 * area)}
		if c.finite() {
			return c, true
		}
	}
	c := Point{X: sx / float64(n), Y: sy / float64(n)}
	return c, c.finite()
}

// graticuleStep is the spacing of the globe grid in degrees.
const graticuleStep = 15.0

// graticuleSample is the spacing of points along each grid line.
const graticuleSample = 2.5

// Graticule returns meridians and parallels every 15 degrees. Minor
// meridians stop at 80 degrees of latitude so the poles stay readable.
func Graticule() [][]Position {
	var lines [][]Position

	for lon := -180.0; lon < 180; lon += graticuleStep {
		extent := 80.0
		if math.Mod(lon, 90) == 0 {
			extent = 90
		}
		var line []Position
		for lat := -extent; lat <= extent+epsilon; lat += graticuleSample {
			line = append(line, Position{lon, lat})
		}
		lines = append(lines, line)
	}

	for lat := -75.0; lat <= 75; lat += graticuleStep {
		var line []Position
		for lon := -180.0; lon <= 180+epsilon; lon += graticuleSample {
			line = append(line, Position{lon, lat})
		}
		lines = append(lines, line)
	}

	return lines
}
