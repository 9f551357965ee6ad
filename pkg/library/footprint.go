package library

import (
	"github.com/matzehuels/fluidcad/pkg/errors"
	"github.com/matzehuels/fluidcad/pkg/geometry"
	"github.com/matzehuels/fluidcad/pkg/params"
)

// Shape names a footprint variant in feature-set files.
type Shape string

// Footprint shapes.
const (
	ShapeLine     Shape = "line"
	ShapeCircle   Shape = "circle"
	ShapePolyline Shape = "polyline"
	ShapeRect     Shape = "rect"
)

// Footprint computes the area a feature occupies on its layer from the
// feature's parameters. Each variant names the parameter keys it reads.
type Footprint interface {
	Shape() Shape
	Bounds(p *params.Params) (geometry.Rect, error)
	// Keys returns the parameter keys the footprint reads with their
	// required kinds.
	Keys() map[string]params.Kind
}

// LineFootprint is a straight stroke from Start to End, Width wide.
type LineFootprint struct {
	Start, End, Width string
}

func (LineFootprint) Shape() Shape { return ShapeLine }

func (f LineFootprint) Keys() map[string]params.Kind {
	return map[string]params.Kind{f.Start: params.KindPoint, f.End: params.KindPoint, f.Width: params.KindFloat}
}

func (f LineFootprint) Bounds(p *params.Params) (geometry.Rect, error) {
	start, err := point(p, f.Start)
	if err != nil {
		return geometry.Rect{}, err
	}
	end, err := point(p, f.End)
	if err != nil {
		return geometry.Rect{}, err
	}
	w, err := float(p, f.Width)
	if err != nil {
		return geometry.Rect{}, err
	}
	return geometry.BoundingBox([]geometry.Point{start, end}).Expand(w / 2), nil
}

// CircleFootprint is a disc of Radius around Center.
type CircleFootprint struct {
	Center, Radius string
}

func (CircleFootprint) Shape() Shape { return ShapeCircle }

func (f CircleFootprint) Keys() map[string]params.Kind {
	return map[string]params.Kind{f.Center: params.KindPoint, f.Radius: params.KindFloat}
}

func (f CircleFootprint) Bounds(p *params.Params) (geometry.Rect, error) {
	c, err := point(p, f.Center)
	if err != nil {
		return geometry.Rect{}, err
	}
	r, err := float(p, f.Radius)
	if err != nil {
		return geometry.Rect{}, err
	}
	return geometry.RectAround(c, 2*r, 2*r), nil
}

// PolylineFootprint strokes every segment of a routed path, Width wide.
type PolylineFootprint struct {
	Segments, Width string
}

func (PolylineFootprint) Shape() Shape { return ShapePolyline }

func (f PolylineFootprint) Keys() map[string]params.Kind {
	return map[string]params.Kind{f.Segments: params.KindSegmentArray, f.Width: params.KindFloat}
}

func (f PolylineFootprint) Bounds(p *params.Params) (geometry.Rect, error) {
	param, ok := p.Get(f.Segments)
	if !ok {
		return geometry.Rect{}, errors.New(errors.ErrCodeNotFound, "footprint needs %q", f.Segments)
	}
	segs, err := param.Segments()
	if err != nil {
		return geometry.Rect{}, err
	}
	if len(segs) == 0 {
		return geometry.Rect{}, errors.New(errors.ErrCodeMalformedGeometry, "path has no segments")
	}
	w, err := float(p, f.Width)
	if err != nil {
		return geometry.Rect{}, err
	}
	pts := make([]geometry.Point, 0, 2*len(segs))
	for _, s := range segs {
		pts = append(pts, s.Start(), s.End())
	}
	return geometry.BoundingBox(pts).Expand(w / 2), nil
}

// RectFootprint is an axis-aligned box whose top-left corner is Position.
type RectFootprint struct {
	Position, Width, Length string
}

func (RectFootprint) Shape() Shape { return ShapeRect }

func (f RectFootprint) Keys() map[string]params.Kind {
	return map[string]params.Kind{f.Position: params.KindPoint, f.Width: params.KindFloat, f.Length: params.KindFloat}
}

func (f RectFootprint) Bounds(p *params.Params) (geometry.Rect, error) {
	pos, err := point(p, f.Position)
	if err != nil {
		return geometry.Rect{}, err
	}
	w, err := float(p, f.Width)
	if err != nil {
		return geometry.Rect{}, err
	}
	l, err := float(p, f.Length)
	if err != nil {
		return geometry.Rect{}, err
	}
	return geometry.NewRect(pos.X, pos.Y, w, l), nil
}

func point(p *params.Params, key string) (geometry.Point, error) {
	param, ok := p.Get(key)
	if !ok {
		return geometry.Point{}, errors.New(errors.ErrCodeNotFound, "footprint needs %q", key)
	}
	return param.Point()
}

func float(p *params.Params, key string) (float64, error) {
	param, ok := p.Get(key)
	if !ok {
		return 0, errors.New(errors.ErrCodeNotFound, "footprint needs %q", key)
	}
	return param.Float()
}

// footprintFile is the TOML form of a footprint: a shape tag plus the
// parameter keys that variant reads.
type footprintFile struct {
	Shape    Shape  `toml:"shape"`
	Start    string `toml:"start"`
	End      string `toml:"end"`
	Center   string `toml:"center"`
	Radius   string `toml:"radius"`
	Segments string `toml:"segments"`
	Position string `toml:"position"`
	Width    string `toml:"width"`
	Length   string `toml:"length"`
}

func (f footprintFile) build() (Footprint, error) {
	var fp Footprint
	switch f.Shape {
	case "":
		return nil, nil
	case ShapeLine:
		fp = LineFootprint{Start: f.Start, End: f.End, Width: f.Width}
	case ShapeCircle:
		fp = CircleFootprint{Center: f.Center, Radius: f.Radius}
	case ShapePolyline:
		fp = PolylineFootprint{Segments: f.Segments, Width: f.Width}
	case ShapeRect:
		fp = RectFootprint{Position: f.Position, Width: f.Width, Length: f.Length}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown footprint shape %q", f.Shape)
	}
	for key := range fp.Keys() {
		if key == "" {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "%s footprint is missing a parameter key", f.Shape)
		}
	}
	return fp, nil
}
