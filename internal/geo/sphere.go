package geo

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	degrees = 180 / math.Pi
	radians = math.Pi / 180
	epsilon = 1e-9
)

// Cartesian converts a lon/lat position to a unit vector with X towards
// (0,0), Y towards (90E,0) and Z towards the north pole.
func Cartesian(p Position) r3.Vec {
	lon, lat := p[0]*radians, p[1]*radians
	cosLat := math.Cos(lat)
	return r3.Vec{
		X: cosLat * math.Cos(lon),
		Y: cosLat * math.Sin(lon),
		Z: math.Sin(lat),
	}
}

// Spherical converts a vector back to a lon/lat position.
func Spherical(v r3.Vec) Position {
	v = r3.Unit(v)
	lat := math.Asin(math.Max(-1, math.Min(1, v.Z)))
	lon := math.Atan2(v.Y, v.X)
	return Position{lon * degrees, lat * degrees}
}

// SphericalCentroid returns the area-weighted centroid of the exterior rings
// of a geometry on the sphere. Each edge contributes its great-circle normal
// weighted by the arc angle; ring orientation is normalized per polygon so
// both winding conventions give the same answer. Degenerate input falls back
// to the mean of the vertices; ok is false when even that is undefined.
func SphericalCentroid(g Geometry) (Position, bool) {
	var sum, mean r3.Vec

	for _, poly := range g.Polygons {
		if len(poly) == 0 {
			continue
		}
		ring := poly[0]

		var contribution, ringMean r3.Vec
		for i := 0; i+1 < len(ring); i++ {
			a, b := Cartesian(ring[i]), Cartesian(ring[i+1])
			ringMean = r3.Add(ringMean, a)

			cross := r3.Cross(a, b)
			n := r3.Norm(cross)
			if n < epsilon {
				continue
			}
			angle := math.Atan2(n, r3.Dot(a, b))
			contribution = r3.Add(contribution, r3.Scale(angle/n, cross))
		}

		if r3.Dot(contribution, ringMean) < 0 {
			contribution = r3.Scale(-1, contribution)
		}
		sum = r3.Add(sum, contribution)
		mean = r3.Add(mean, ringMean)
	}

	if r3.Norm(sum) > epsilon {
		return Spherical(sum), true
	}
	if r3.Norm(mean) > epsilon {
		return Spherical(mean), true
	}
	return Position{}, false
}

// AngularDistance returns the great-circle distance between two positions
// in degrees.
func AngularDistance(a, b Position) float64 {
	va, vb := Cartesian(a), Cartesian(b)
	return math.Atan2(r3.Norm(r3.Cross(va, vb)), r3.Dot(va, vb)) * degrees
}

// Contains reports whether a position lies inside the geometry, using an
// even-odd test in lon/lat space per polygon (holes subtract).
func Contains(g Geometry, p Position) bool {
	for _, poly := range g.Polygons {
		if len(poly) == 0 || !ringContains(poly[0], p) {
			continue
		}
		inHole := false
		for _, hole := range poly[1:] {
			if ringContains(hole, p) {
				inHole = true
				break
			}
		}
		if !inHole {
			return true
		}
	}
	return false
}

func ringContains(ring Ring, p Position) bool {
	inside := false
	x, y := p[0], p[1]
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}
