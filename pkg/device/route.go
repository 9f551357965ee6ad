package device

import (
	"math"

	"github.com/matzehuels/fluidcad/pkg/errors"
	"github.com/matzehuels/fluidcad/pkg/geometry"
)

// DeriveSegments pairs consecutive waypoints into segments, so segment i
// runs from wps[i] to wps[i+1]. At least two waypoints are required, every
// coordinate must be finite and no waypoint may repeat its predecessor.
func DeriveSegments(wps []geometry.Point) ([]geometry.Segment, error) {
	if len(wps) < 2 {
		return nil, errors.New(errors.ErrCodeMalformedGeometry, "route needs at least 2 waypoints, got %d", len(wps))
	}
	for i, p := range wps {
		if !p.IsFinite() {
			return nil, errors.New(errors.ErrCodeMalformedGeometry, "waypoint %d is not finite: %s", i, p)
		}
		if i > 0 && p == wps[i-1] {
			return nil, errors.New(errors.ErrCodeMalformedGeometry, "waypoint %d repeats waypoint %d at %s", i, i-1, p)
		}
	}
	segs := make([]geometry.Segment, len(wps)-1)
	for i := range segs {
		segs[i] = geometry.Seg(wps[i], wps[i+1])
	}
	return segs, nil
}

// Tangent is a segment that touched an obstacle boundary at one point.
type Tangent struct {
	Segment int
	At      geometry.Point
}

// GapResult is the outcome of splitting a route around an obstacle.
type GapResult struct {
	Segments []geometry.Segment
	Splits   int
	Tangents []Tangent
}

// SplitAroundBox cuts every segment that crosses the boundary of box twice
// into two segments, leaving the part inside the box out. Segments that miss
// the box are kept; segments that touch it once are kept and reported as
// tangents. Indices in Tangents refer to segs. New segments are never
// re-examined.
func SplitAroundBox(segs []geometry.Segment, box geometry.Rect) (GapResult, error) {
	if !validBox(box) {
		return GapResult{}, errors.New(errors.ErrCodeMalformedGeometry, "invalid obstacle %+v", box)
	}
	res := GapResult{Segments: make([]geometry.Segment, 0, len(segs))}
	for i, s := range segs {
		hits := geometry.SegmentRectIntersections(s, box)
		switch len(hits) {
		case 2:
			a, b := BreakSegment(s, hits[0], hits[1])
			res.Segments = append(res.Segments, a, b)
			res.Splits++
		case 1:
			res.Tangents = append(res.Tangents, Tangent{Segment: i, At: hits[0]})
			res.Segments = append(res.Segments, s)
		default:
			res.Segments = append(res.Segments, s)
		}
	}
	return res, nil
}

// BreakSegment splits s at the two boundary points break1 and break2.
// break1 pairs with whichever endpoint of s is nearer to it and break2 with
// the other, so each half stays on its side of the gap:
//
//	[endpoint nearer break1, break1], [other endpoint, break2]
//
// Ties go to the end point.
func BreakSegment(s geometry.Segment, break1, break2 geometry.Point) (geometry.Segment, geometry.Segment) {
	p1, p2 := s.Start(), s.End()
	if p1.Distance(break1) < p2.Distance(break1) {
		return geometry.Seg(p1, break1), geometry.Seg(p2, break2)
	}
	return geometry.Seg(p2, break1), geometry.Seg(p1, break2)
}

func validBox(r geometry.Rect) bool {
	for _, v := range []float64{r.X, r.Y, r.Width, r.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return r.Width >= 0 && r.Height >= 0
}
