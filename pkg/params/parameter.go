package params

import (
	"fmt"
	"math"
	"slices"

	"github.com/matzehuels/fluidcad/pkg/errors"
	"github.com/matzehuels/fluidcad/pkg/geometry"
)

// Kind is the declared type tag of a parameter.
type Kind string

// Parameter kinds. The string values are the names used in type
// definitions and feature-set files.
const (
	KindFloat        Kind = "Float"
	KindInteger      Kind = "Integer"
	KindString       Kind = "String"
	KindBoolean      Kind = "Boolean"
	KindPoint        Kind = "Point"
	KindPointArray   Kind = "PointArray"
	KindSegmentArray Kind = "SegmentArray"
)

var kinds = []Kind{KindFloat, KindInteger, KindString, KindBoolean, KindPoint, KindPointArray, KindSegmentArray}

// ParseKind returns the Kind named s.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !slices.Contains(kinds, k) {
		return "", errors.New(errors.ErrCodeInvalidFormat, "unknown parameter kind %q", s)
	}
	return k, nil
}

// IsNumeric reports whether values of this kind can carry bounds.
func (k Kind) IsNumeric() bool {
	return k == KindFloat || k == KindInteger
}

// Parameter is a single typed value. The zero value is not usable; build
// parameters with New. Parameters are values: copying one never shares
// slices with the original.
type Parameter struct {
	kind  Kind
	value any
}

// New creates a parameter of the given kind. The value may already have the
// kind's Go shape (float64, int, string, bool, geometry.Point,
// []geometry.Point, []geometry.Segment) or be a raw decoded form such as
// []any{1.0, 2.0} for a point. Returns TYPE_MISMATCH if the value cannot be
// read as that kind.
func New(kind Kind, value any) (Parameter, error) {
	v, err := coerce(kind, value)
	if err != nil {
		return Parameter{}, err
	}
	return Parameter{kind: kind, value: v}, nil
}

// MustNew is like New but panics on error. Intended for static tables and tests.
func MustNew(kind Kind, value any) Parameter {
	p, err := New(kind, value)
	if err != nil {
		panic(err)
	}
	return p
}

// Kind returns the declared kind.
func (p Parameter) Kind() Kind { return p.kind }

// IsZero reports whether p was never initialized.
func (p Parameter) IsZero() bool { return p.kind == "" }

// Value returns a copy of the typed value.
func (p Parameter) Value() any {
	switch v := p.value.(type) {
	case []geometry.Point:
		return slices.Clone(v)
	case []geometry.Segment:
		return slices.Clone(v)
	default:
		return v
	}
}

func (p Parameter) mismatch(want Kind) error {
	return errors.New(errors.ErrCodeTypeMismatch, "parameter is %s, not %s", p.kind, want)
}

// Float returns the value of a Float or Integer parameter.
func (p Parameter) Float() (float64, error) {
	switch v := p.value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	}
	return 0, p.mismatch(KindFloat)
}

// Int returns the value of an Integer parameter.
func (p Parameter) Int() (int, error) {
	if v, ok := p.value.(int); ok {
		return v, nil
	}
	return 0, p.mismatch(KindInteger)
}

// Text returns the value of a String parameter.
func (p Parameter) Text() (string, error) {
	if v, ok := p.value.(string); ok {
		return v, nil
	}
	return "", p.mismatch(KindString)
}

// Bool returns the value of a Boolean parameter.
func (p Parameter) Bool() (bool, error) {
	if v, ok := p.value.(bool); ok {
		return v, nil
	}
	return false, p.mismatch(KindBoolean)
}

// Point returns the value of a Point parameter.
func (p Parameter) Point() (geometry.Point, error) {
	if v, ok := p.value.(geometry.Point); ok {
		return v, nil
	}
	return geometry.Point{}, p.mismatch(KindPoint)
}

// Points returns a copy of the value of a PointArray parameter.
func (p Parameter) Points() ([]geometry.Point, error) {
	if v, ok := p.value.([]geometry.Point); ok {
		return slices.Clone(v), nil
	}
	return nil, p.mismatch(KindPointArray)
}

// Segments returns a copy of the value of a SegmentArray parameter.
func (p Parameter) Segments() ([]geometry.Segment, error) {
	if v, ok := p.value.([]geometry.Segment); ok {
		return slices.Clone(v), nil
	}
	return nil, p.mismatch(KindSegmentArray)
}

// Serializable returns the untyped form used by the interchange format:
// numbers, strings and booleans as-is, points as []float64{x, y}, point
// arrays as [][]float64 and segment arrays as [][][]float64.
func (p Parameter) Serializable() any {
	switch v := p.value.(type) {
	case geometry.Point:
		return v.Array()
	case []geometry.Point:
		out := make([][]float64, len(v))
		for i, pt := range v {
			out[i] = pt.Array()
		}
		return out
	case []geometry.Segment:
		out := make([][][]float64, len(v))
		for i, s := range v {
			out[i] = s.Array()
		}
		return out
	default:
		return v
	}
}

// Equal reports whether two parameters have the same kind and value.
func (p Parameter) Equal(other Parameter) bool {
	if p.kind != other.kind {
		return false
	}
	switch v := p.value.(type) {
	case []geometry.Point:
		return slices.Equal(v, other.value.([]geometry.Point))
	case []geometry.Segment:
		return slices.Equal(v, other.value.([]geometry.Segment))
	default:
		return p.value == other.value
	}
}

// String formats the parameter for logs.
func (p Parameter) String() string {
	return fmt.Sprintf("%s(%v)", p.kind, p.value)
}

func coerce(kind Kind, value any) (any, error) {
	mismatch := func() error {
		return errors.New(errors.ErrCodeTypeMismatch, "value %v (%T) is not a %s", value, value, kind)
	}

	switch kind {
	case KindFloat:
		f, ok := toFloat(value)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, mismatch()
		}
		return f, nil
	case KindInteger:
		f, ok := toFloat(value)
		if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
			return nil, mismatch()
		}
		return int(f), nil
	case KindString:
		s, ok := value.(string)
		if !ok {
			return nil, mismatch()
		}
		return s, nil
	case KindBoolean:
		b, ok := value.(bool)
		if !ok {
			return nil, mismatch()
		}
		return b, nil
	case KindPoint:
		pt, ok := toPoint(value)
		if !ok {
			return nil, mismatch()
		}
		return pt, nil
	case KindPointArray:
		pts, ok := toPoints(value)
		if !ok {
			return nil, mismatch()
		}
		return pts, nil
	case KindSegmentArray:
		segs, ok := toSegments(value)
		if !ok {
			return nil, mismatch()
		}
		return segs, nil
	}
	return nil, errors.New(errors.ErrCodeTypeMismatch, "unknown parameter kind %q", kind)
}

// toFloat accepts every numeric type the JSON, TOML and msgpack decoders produce.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

func toPoint(v any) (geometry.Point, bool) {
	var pt geometry.Point
	switch t := v.(type) {
	case geometry.Point:
		pt = t
	case []float64:
		if len(t) != 2 {
			return pt, false
		}
		pt = geometry.Pt(t[0], t[1])
	case [2]float64:
		pt = geometry.Pt(t[0], t[1])
	case []any:
		if len(t) != 2 {
			return pt, false
		}
		x, okX := toFloat(t[0])
		y, okY := toFloat(t[1])
		if !okX || !okY {
			return pt, false
		}
		pt = geometry.Pt(x, y)
	default:
		return pt, false
	}
	return pt, pt.IsFinite()
}

func toPoints(v any) ([]geometry.Point, bool) {
	switch t := v.(type) {
	case []geometry.Point:
		if slices.ContainsFunc(t, func(p geometry.Point) bool { return !p.IsFinite() }) {
			return nil, false
		}
		return slices.Clone(t), true
	case [][]float64:
		out := make([]geometry.Point, len(t))
		for i, raw := range t {
			p, ok := toPoint(raw)
			if !ok {
				return nil, false
			}
			out[i] = p
		}
		return out, true
	case []any:
		out := make([]geometry.Point, len(t))
		for i, raw := range t {
			p, ok := toPoint(raw)
			if !ok {
				return nil, false
			}
			out[i] = p
		}
		return out, true
	}
	return nil, false
}

func toSegments(v any) ([]geometry.Segment, bool) {
	switch t := v.(type) {
	case []geometry.Segment:
		for _, s := range t {
			if !s[0].IsFinite() || !s[1].IsFinite() {
				return nil, false
			}
		}
		return slices.Clone(t), true
	case [][][]float64:
		out := make([]geometry.Segment, len(t))
		for i, raw := range t {
			pts, ok := toPoints(toAnySlice(raw))
			if !ok || len(pts) != 2 {
				return nil, false
			}
			out[i] = geometry.Seg(pts[0], pts[1])
		}
		return out, true
	case []any:
		out := make([]geometry.Segment, len(t))
		for i, raw := range t {
			pts, ok := toPoints(raw)
			if !ok || len(pts) != 2 {
				return nil, false
			}
			out[i] = geometry.Seg(pts[0], pts[1])
		}
		return out, true
	}
	return nil, false
}

func toAnySlice(raw [][]float64) []any {
	out := make([]any, len(raw))
	for i, r := range raw {
		out[i] = r
	}
	return out
}
