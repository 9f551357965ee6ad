// Package geometry provides the planar types used by the device model:
// points, segments and axis-aligned rectangles, plus the segment–rectangle
// intersection used when routed connections are split around obstacles.
//
// Vector arithmetic is delegated to gonum's spatial/r2 package. Points
// serialize to JSON as two-element arrays ([x, y]), which is the form used
// by the interchange format.
package geometry

import (
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Epsilon is the tolerance used when comparing coordinates.
const Epsilon = 1e-9

// Point is a 2D point in device coordinates (micrometres).
type Point struct {
	X float64
	Y float64
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

func (p Point) vec() r2.Vec { return r2.Vec{X: p.X, Y: p.Y} }

func fromVec(v r2.Vec) Point { return Point{X: v.X, Y: v.Y} }

// Distance returns the Euclidean distance to another point.
func (p Point) Distance(other Point) float64 {
	return r2.Norm(r2.Sub(p.vec(), other.vec()))
}

// Add returns the sum of two points.
func (p Point) Add(other Point) Point {
	return fromVec(r2.Add(p.vec(), other.vec()))
}

// Sub returns the difference of two points.
func (p Point) Sub(other Point) Point {
	return fromVec(r2.Sub(p.vec(), other.vec()))
}

// Scale returns the point scaled by a factor.
func (p Point) Scale(factor float64) Point {
	return fromVec(r2.Scale(factor, p.vec()))
}

// ApproxEqual reports whether both coordinates are within Epsilon.
func (p Point) ApproxEqual(other Point) bool {
	return math.Abs(p.X-other.X) <= Epsilon && math.Abs(p.Y-other.Y) <= Epsilon
}

// IsFinite reports whether neither coordinate is NaN or infinite.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Array returns the point as the raw [x, y] pair used by the interchange format.
func (p Point) Array() []float64 {
	return []float64{p.X, p.Y}
}

// String formats the point as "(x, y)".
func (p Point) String() string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}

// MarshalJSON encodes the point as [x, y].
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.X, p.Y})
}

// UnmarshalJSON accepts [x, y] or {"x": x, "y": y}.
func (p *Point) UnmarshalJSON(data []byte) error {
	var arr []float64
	if err := json.Unmarshal(data, &arr); err == nil {
		if len(arr) != 2 {
			return fmt.Errorf("point must have 2 coordinates, got %d", len(arr))
		}
		p.X, p.Y = arr[0], arr[1]
		return nil
	}
	var obj struct {
		X *float64 `json:"x"`
		Y *float64 `json:"y"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("point: %w", err)
	}
	if obj.X == nil || obj.Y == nil {
		return fmt.Errorf("point object requires x and y")
	}
	p.X, p.Y = *obj.X, *obj.Y
	return nil
}

// Segment is a straight line between two points. Index 0 is the start.
type Segment [2]Point

// Seg is shorthand for Segment{a, b}.
func Seg(a, b Point) Segment {
	return Segment{a, b}
}

// Start returns the first endpoint.
func (s Segment) Start() Point { return s[0] }

// End returns the second endpoint.
func (s Segment) End() Point { return s[1] }

// Length returns the distance between the endpoints.
func (s Segment) Length() float64 { return s[0].Distance(s[1]) }

// Array returns the segment as [[x1, y1], [x2, y2]].
func (s Segment) Array() [][]float64 {
	return [][]float64{s[0].Array(), s[1].Array()}
}

// ApproxEqual reports whether both endpoints match within Epsilon, in order.
func (s Segment) ApproxEqual(other Segment) bool {
	return s[0].ApproxEqual(other[0]) && s[1].ApproxEqual(other[1])
}

// String formats the segment as "[(x1, y1) (x2, y2)]".
func (s Segment) String() string {
	return fmt.Sprintf("[%s %s]", s[0], s[1])
}

// Rect represents an axis-aligned rectangle. Y grows downward, so (X, Y)
// is the top-left corner.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewRect creates a new Rect.
func NewRect(x, y, width, height float64) Rect {
	return Rect{X: x, Y: y, Width: width, Height: height}
}

// RectAround returns the rectangle of the given size centred on c.
func RectAround(c Point, width, height float64) Rect {
	return Rect{X: c.X - width/2, Y: c.Y - height/2, Width: width, Height: height}
}

// Contains returns true if the point is inside the rectangle or on its border.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width &&
		p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Center returns the center point of the rectangle.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// TopLeft returns the top-left corner.
func (r Rect) TopLeft() Point {
	return Point{X: r.X, Y: r.Y}
}

// BottomRight returns the bottom-right corner.
func (r Rect) BottomRight() Point {
	return Point{X: r.X + r.Width, Y: r.Y + r.Height}
}

// Corners returns the corners clockwise from the top-left.
func (r Rect) Corners() [4]Point {
	return [4]Point{
		{X: r.X, Y: r.Y},
		{X: r.X + r.Width, Y: r.Y},
		{X: r.X + r.Width, Y: r.Y + r.Height},
		{X: r.X, Y: r.Y + r.Height},
	}
}

// Edges returns the four border segments, clockwise from the top edge.
func (r Rect) Edges() [4]Segment {
	c := r.Corners()
	return [4]Segment{
		{c[0], c[1]},
		{c[1], c[2]},
		{c[2], c[3]},
		{c[3], c[0]},
	}
}

// IsEmpty reports whether the rectangle has no area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Intersects returns true if this rectangle intersects with another.
func (r Rect) Intersects(other Rect) bool {
	return r.X < other.X+other.Width && r.X+r.Width > other.X &&
		r.Y < other.Y+other.Height && r.Y+r.Height > other.Y
}

// Union returns the smallest rectangle containing both rectangles.
func (r Rect) Union(other Rect) Rect {
	x := math.Min(r.X, other.X)
	y := math.Min(r.Y, other.Y)
	x2 := math.Max(r.X+r.Width, other.X+other.Width)
	y2 := math.Max(r.Y+r.Height, other.Y+other.Height)
	return Rect{X: x, Y: y, Width: x2 - x, Height: y2 - y}
}

// Expand grows the rectangle by margin on every side.
func (r Rect) Expand(margin float64) Rect {
	return Rect{X: r.X - margin, Y: r.Y - margin, Width: r.Width + 2*margin, Height: r.Height + 2*margin}
}

// BoundingBox computes the axis-aligned bounding box of a set of points.
func BoundingBox(points []Point) Rect {
	if len(points) == 0 {
		return Rect{}
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
