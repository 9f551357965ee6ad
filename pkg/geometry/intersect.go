package geometry

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"
)

// SegmentIntersection returns the point where segments a and b cross and
// true, or false when they do not meet. Parallel segments (including
// collinear overlaps) report no intersection.
func SegmentIntersection(a, b Segment) (Point, bool) {
	p, _, ok := segmentIntersection(a, b)
	return p, ok
}

// segmentIntersection also returns the parameter t along a (0 at a[0],
// 1 at a[1]) so callers can order hits along a.
func segmentIntersection(a, b Segment) (Point, float64, bool) {
	d := r2.Sub(a[1].vec(), a[0].vec())
	e := r2.Sub(b[1].vec(), b[0].vec())
	denom := r2.Cross(d, e)
	if math.Abs(denom) < Epsilon {
		return Point{}, 0, false
	}

	w := r2.Sub(b[0].vec(), a[0].vec())
	t := r2.Cross(w, e) / denom
	u := r2.Cross(w, d) / denom
	if t < -Epsilon || t > 1+Epsilon || u < -Epsilon || u > 1+Epsilon {
		return Point{}, 0, false
	}

	t = clamp01(t)
	return fromVec(r2.Add(a[0].vec(), r2.Scale(t, d))), t, true
}

// SegmentRectIntersections returns the points where segment s crosses the
// border of r, ordered by distance from s.Start(). The result holds 0, 1 or
// 2 points: a hit exactly on a corner is reported once, and an edge that
// runs along the segment contributes nothing.
func SegmentRectIntersections(s Segment, r Rect) []Point {
	type hit struct {
		p Point
		t float64
	}

	var hits []hit
	for _, edge := range r.Edges() {
		p, t, ok := segmentIntersection(s, edge)
		if !ok {
			continue
		}
		if slices.ContainsFunc(hits, func(h hit) bool { return h.p.ApproxEqual(p) }) {
			continue
		}
		hits = append(hits, hit{p: p, t: t})
	}

	slices.SortFunc(hits, func(a, b hit) int {
		switch {
		case a.t < b.t:
			return -1
		case a.t > b.t:
			return 1
		default:
			return 0
		}
	})

	points := make([]Point, len(hits))
	for i, h := range hits {
		points[i] = h.p
	}
	return points
}

func clamp01(t float64) float64 {
	return math.Max(0, math.Min(1, t))
}
