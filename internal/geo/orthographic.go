package geo

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Point is a screen-space coordinate in pixels.
type Point struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

func (p Point) finite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Viewport returns the projection scale and translation for a container of
// the given size: the globe fills 90% of the smaller side.
func Viewport(width, height float64) (scale float64, translate Point) {
	return math.Min(width, height) * 0.9 / 2.3, Point{X: width / 2, Y: height / 2}
}

// Orthographic projects the sphere as seen from infinitely far away.
// Rotation is [lambda, phi] in degrees: the point (-lambda, -phi) ends up in
// the centre of the view.
type Orthographic struct {
	lambda, phi float64
	scale       float64
	translate   Point

	spin, tilt     r3.Rotation
	unspin, untilt r3.Rotation
}

// NewOrthographic creates a projection.
func NewOrthographic(lambda, phi, scale float64, translate Point) *Orthographic {
	zAxis, yAxis := r3.Vec{Z: 1}, r3.Vec{Y: 1}
	return &Orthographic{
		lambda:    lambda,
		phi:       phi,
		scale:     scale,
		translate: translate,
		spin:      r3.NewRotation(lambda*radians, zAxis),
		tilt:      r3.NewRotation(-phi*radians, yAxis),
		unspin:    r3.NewRotation(-lambda*radians, zAxis),
		untilt:    r3.NewRotation(phi*radians, yAxis),
	}
}

// Rotation returns [lambda, phi].
func (o *Orthographic) Rotation() [2]float64 { return [2]float64{o.lambda, o.phi} }

// Scale returns the globe radius in pixels.
func (o *Orthographic) Scale() float64 { return o.scale }

// Translate returns the screen position of the globe centre.
func (o *Orthographic) Translate() Point { return o.translate }

// rotate returns the view-space vector of p. X > 0 faces the viewer.
func (o *Orthographic) rotate(p Position) r3.Vec {
	return o.tilt.Rotate(o.spin.Rotate(Cartesian(p)))
}

func (o *Orthographic) screen(v r3.Vec) Point {
	return Point{
		X: o.translate.X + o.scale*v.Y,
		Y: o.translate.Y - o.scale*v.Z,
	}
}

// Visible reports whether a position is on the near hemisphere.
func (o *Orthographic) Visible(p Position) bool {
	return o.rotate(p).X > 0
}

// Project maps a position to the screen. ok is false on the far side.
func (o *Orthographic) Project(p Position) (Point, bool) {
	v := o.rotate(p)
	return o.screen(v), v.X > 0
}

// Invert maps a screen point back to lon/lat. ok is false outside the disk.
func (o *Orthographic) Invert(pt Point) (Position, bool) {
	if o.scale <= 0 {
		return Position{}, false
	}
	y := (pt.X - o.translate.X) / o.scale
	z := (o.translate.Y - pt.Y) / o.scale
	r2 := y*y + z*z
	if r2 > 1 {
		return Position{}, false
	}
	v := r3.Vec{X: math.Sqrt(1 - r2), Y: y, Z: z}
	return Spherical(o.unspin.Rotate(o.untilt.Rotate(v))), true
}

// horizonPoint returns the screen point on the globe outline at angle theta,
// measured counter-clockwise from the east side of the disk.
func (o *Orthographic) horizonPoint(theta float64) Point {
	return Point{
		X: o.translate.X + o.scale*math.Cos(theta),
		Y: o.translate.Y - o.scale*math.Sin(theta),
	}
}

// run is a visible stretch of a line. Cut ends lie on the horizon.
type run struct {
	points           []Point
	startCut, endCut bool
	startAng, endAng float64
}

// clipLine splits a polyline into its visible runs, inserting the exact
// horizon crossing where an edge passes behind the globe.
func (o *Orthographic) clipLine(line []Position) []run {
	var runs []run
	var cur *run

	var prev r3.Vec
	prevVisible := false

	for i, p := range line {
		v := o.rotate(p)
		visible := v.X > 0

		switch {
		case i == 0:
			if visible {
				cur = &run{points: []Point{o.screen(v)}}
			}
		case visible && prevVisible:
			cur.points = append(cur.points, o.screen(v))
		case visible && !prevVisible:
			h := horizonCrossing(prev, v)
			ang := math.Atan2(h.Z, h.Y)
			cur = &run{points: []Point{o.screen(h), o.screen(v)}, startCut: true, startAng: ang}
		case !visible && prevVisible:
			h := horizonCrossing(prev, v)
			cur.points = append(cur.points, o.screen(h))
			cur.endCut, cur.endAng = true, math.Atan2(h.Z, h.Y)
			runs = append(runs, *cur)
			cur = nil
		}

		prev, prevVisible = v, visible
	}

	if cur != nil {
		runs = append(runs, *cur)
	}
	return runs
}

// horizonCrossing interpolates the point where segment a-b meets X = 0 and
// pushes it onto the unit circle.
func horizonCrossing(a, b r3.Vec) r3.Vec {
	t := a.X / (a.X - b.X)
	h := r3.Add(a, r3.Scale(t, r3.Sub(b, a)))
	h.X = 0
	if n := r3.Norm(h); n > epsilon {
		return r3.Scale(1/n, h)
	}
	return h
}

// arcStep is the angular step used when following the globe outline.
const arcStep = 5 * radians

// arc returns outline points strictly between two horizon angles, walking
// counter-clockwise when dir > 0 and clockwise otherwise.
func (o *Orthographic) arc(from, to, dir float64) []Point {
	travel := math.Mod(dir*(to-from), 2*math.Pi)
	if travel < 0 {
		travel += 2 * math.Pi
	}
	steps := int(travel / arcStep)
	points := make([]Point, 0, steps)
	for i := 1; i <= steps; i++ {
		points = append(points, o.horizonPoint(from+dir*travel*float64(i)/float64(steps+1)))
	}
	return points
}

// turnsLeft reports whether a ring runs counter-clockwise around its smaller
// side, seen from outside the sphere. The smaller side is taken as the
// interior, which holds for country outlines and their holes under either
// winding convention.
func turnsLeft(ring Ring) bool {
	var normal, mean r3.Vec
	for i := 0; i+1 < len(ring); i++ {
		a, b := Cartesian(ring[i]), Cartesian(ring[i+1])
		normal = r3.Add(normal, r3.Cross(a, b))
		mean = r3.Add(mean, a)
	}
	return r3.Dot(normal, mean) >= 0
}

// ProjectRing projects a closed ring, clipping it to the visible hemisphere.
// Pieces cut by the horizon are joined along the globe outline, walking in
// the direction that keeps the ring's interior on the same side, so one ring
// may come back as several closed parts. Returns nil when nothing is
// visible.
func (o *Orthographic) ProjectRing(ring Ring) [][]Point {
	runs := o.clipLine(ring)
	if len(runs) == 0 {
		return nil
	}
	if len(runs) == 1 && !runs[0].startCut && !runs[0].endCut {
		return [][]Point{runs[0].points}
	}

	// A ring that starts visible is split at its seam; join the pieces.
	if len(runs) > 1 && !runs[0].startCut {
		last := runs[len(runs)-1]
		first := runs[0]
		merged := run{
			points:   append(append([]Point(nil), last.points...), first.points[1:]...),
			startCut: last.startCut,
			startAng: last.startAng,
			endCut:   first.endCut,
			endAng:   first.endAng,
		}
		runs = append([]run{merged}, runs[1:len(runs)-1]...)
	}

	dir := -1.0
	if turnsLeft(ring) {
		dir = 1
	}

	var parts [][]Point
	used := make([]bool, len(runs))
	for start := range runs {
		if used[start] {
			continue
		}
		var part []Point
		for i := start; !used[i]; {
			used[i] = true
			r := runs[i]
			part = append(part, r.points...)
			if !r.endCut {
				break
			}
			next := nextEntry(runs, used, start, r.endAng, dir)
			if next < 0 {
				break
			}
			part = append(part, o.arc(r.endAng, runs[next].startAng, dir)...)
			i = next
		}
		parts = append(parts, part)
	}
	return parts
}

// nextEntry returns the run whose horizon entry comes first when walking
// from angle from in direction dir. Only unused runs and the run that opened
// the current part qualify.
func nextEntry(runs []run, used []bool, open int, from, dir float64) int {
	best, bestTravel := -1, math.Inf(1)
	for i, r := range runs {
		if !r.startCut || (used[i] && i != open) {
			continue
		}
		travel := math.Mod(dir*(r.startAng-from), 2*math.Pi)
		if travel < 0 {
			travel += 2 * math.Pi
		}
		if travel < bestTravel {
			best, bestTravel = i, travel
		}
	}
	return best
}

// ProjectLine projects an open polyline into visible pieces.
func (o *Orthographic) ProjectLine(line []Position) [][]Point {
	runs := o.clipLine(line)
	out := make([][]Point, 0, len(runs))
	for _, r := range runs {
		if len(r.points) > 1 {
			out = append(out, r.points)
		}
	}
	return out
}

// ProjectGeometry projects every ring of a geometry. Rings that are entirely
// hidden or produce non-finite coordinates are omitted.
func (o *Orthographic) ProjectGeometry(g Geometry) [][]Point {
	var rings [][]Point
	for _, poly := range g.Polygons {
		for _, ring := range poly {
			for _, pts := range o.ProjectRing(ring) {
				if len(pts) < 3 || !allFinite(pts) {
					continue
				}
				rings = append(rings, pts)
			}
		}
	}
	return rings
}

// Outline returns the globe disk outline.
func (o *Orthographic) Outline() []Point {
	points := make([]Point, 0, 72)
	for i := 0; i < 72; i++ {
		points = append(points, o.horizonPoint(float64(i)*arcStep))
	}
	return points
}

func allFinite(points []Point) bool {
	for _, p := range points {
		if !p.finite() {
			return false
		}
	}
	return true
}
