// Package geometry provides the spatial reasoning used by the decision engine.
//
// Everything works in the detector's normalized screen space: x grows to the
// right, y grows downward, both in [0,1]. Angles are in degrees measured from
// the horizontal axis with the sign inverted, so 90 points up the screen.
// That inversion matches the joystick convention in package hero; any code
// producing a heading must go through these functions or the motion mirrors
// vertically.
package geometry

import "math"

// NoTarget is returned by the selection functions when there are no candidates.
const NoTarget = -1

// Point is a position in normalized screen space.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Distance returns the Euclidean distance to other.
func (p Point) Distance(other Point) float64 {
	return math.Hypot(other.X-p.X, other.Y-p.Y)
}

// Mirror reflects p through the screen centre (0.5, 0.5).
func (p Point) Mirror() Point {
	return Point{X: 1 - p.X, Y: 1 - p.Y}
}

// Pixels converts p to the nearest device pixel for a w x h screen.
func (p Point) Pixels(w, h int) (x, y int) {
	return int(math.Round(p.X * float64(w))), int(math.Round(p.Y * float64(h)))
}

// Box is an axis-aligned bounding box (x1,y1) top-left to (x2,y2) bottom-right.
type Box struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Center returns the midpoint of the box.
func (b Box) Center() Point {
	return Point{X: (b.X1 + b.X2) / 2, Y: (b.Y1 + b.Y2) / 2}
}

// GroundCenter returns the bottom-centre of the box, used as a character's footprint.
func (b Box) GroundCenter() Point {
	return Point{X: (b.X1 + b.X2) / 2, Y: b.Y2}
}

// Area returns the box area, or 0 for a degenerate box.
func (b Box) Area() float64 {
	w, h := b.X2-b.X1, b.Y2-b.Y1
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Nearest returns the index of the box whose ground-centre is closest to p.
// Ties keep the first box. Returns NoTarget for an empty slice.
func Nearest(boxes []Box, p Point) int {
	best := NoTarget
	bestDist := math.Inf(1)
	for i, b := range boxes {
		d := b.GroundCenter().Distance(p)
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

// Farthest returns the index of the box whose ground-centre is farthest from p.
// Ties keep the first box. Returns NoTarget for an empty slice.
func Farthest(boxes []Box, p Point) int {
	best := NoTarget
	bestDist := math.Inf(-1)
	for i, b := range boxes {
		d := b.GroundCenter().Distance(p)
		if d > bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

// SecondNearest returns the index of the second-closest box to p.
// With fewer than two boxes it degrades to Nearest.
func SecondNearest(boxes []Box, p Point) int {
	if len(boxes) < 2 {
		return Nearest(boxes, p)
	}

	first, second := NoTarget, NoTarget
	d1, d2 := math.Inf(1), math.Inf(1)
	for i, b := range boxes {
		d := b.GroundCenter().Distance(p)
		switch {
		case d < d1:
			second, d2 = first, d1
			first, d1 = i, d
		case d < d2:
			second, d2 = i, d
		}
	}
	return second
}

// AngleTo returns the heading from one point to another in the joystick convention.
func AngleTo(from, to Point) float64 {
	rad := math.Atan2(to.Y-from.Y, to.X-from.X)
	return -rad * 180 / math.Pi
}

// BearingAngle returns the heading from p to the centre of b.
func BearingAngle(p Point, b Box) float64 {
	return AngleTo(p, b.Center())
}

// GateAimPoint returns the point depth of the way down a doorway box, horizontally centred.
func GateAimPoint(b Box, depth float64) Point {
	return Point{X: (b.X1 + b.X2) / 2, Y: b.Y1 + (b.Y2-b.Y1)*depth}
}

// GateAngle is BearingAngle aimed at GateAimPoint instead of the centre.
func GateAngle(p Point, b Box, depth float64) float64 {
	return AngleTo(p, GateAimPoint(b, depth))
}

// NormalizeAngle maps any angle in degrees into [-180, 180).
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	if a >= 180 {
		a -= 360
	}
	return a
}

// IoU returns the intersection-over-union of two boxes, 0 when the union is empty.
func IoU(a, b Box) float64 {
	ix := math.Max(0, math.Min(a.X2, b.X2)-math.Max(a.X1, b.X1))
	iy := math.Max(0, math.Min(a.Y2, b.Y2)-math.Max(a.Y1, b.Y1))
	inter := ix * iy

	union := (a.X2-a.X1)*(a.Y2-a.Y1) + (b.X2-b.X1)*(b.Y2-b.Y1) - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}
