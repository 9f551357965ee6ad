package geometry

import (
	"encoding/json"
	"math"
	"testing"
)

func TestPointDistance(t *testing.T) {
	if got := Pt(0, 0).Distance(Pt(3, 4)); got != 5 {
		t.Errorf("Distance = %v, want 5", got)
	}
	if got := Pt(-1, -1).Distance(Pt(-1, -1)); got != 0 {
		t.Errorf("Distance to self = %v, want 0", got)
	}
}

func TestPointArithmetic(t *testing.T) {
	p := Pt(1, 2).Add(Pt(3, 4)).Sub(Pt(1, 1)).Scale(2)
	if p != Pt(6, 10) {
		t.Errorf("got %v, want (6, 10)", p)
	}
}

func TestPointIsFinite(t *testing.T) {
	if !Pt(1, 2).IsFinite() {
		t.Error("(1, 2) should be finite")
	}
	if Pt(math.NaN(), 0).IsFinite() {
		t.Error("NaN point should not be finite")
	}
	if Pt(0, math.Inf(1)).IsFinite() {
		t.Error("Inf point should not be finite")
	}
}

func TestPointJSON(t *testing.T) {
	data, err := json.Marshal(Pt(1.5, -2))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != "[1.5,-2]" {
		t.Errorf("Marshal = %s, want [1.5,-2]", data)
	}

	tests := []struct {
		name    string
		input   string
		want    Point
		wantErr bool
	}{
		{"array", "[3,4]", Pt(3, 4), false},
		{"object", `{"x":5,"y":6}`, Pt(5, 6), false},
		{"short array", "[1]", Point{}, true},
		{"missing y", `{"x":1}`, Point{}, true},
		{"string", `"1,2"`, Point{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Point
			err := json.Unmarshal([]byte(tt.input), &p)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal(%s) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err == nil && p != tt.want {
				t.Errorf("Unmarshal(%s) = %v, want %v", tt.input, p, tt.want)
			}
		})
	}
}

func TestSegmentJSON(t *testing.T) {
	data, err := json.Marshal(Seg(Pt(0, 0), Pt(10, 0)))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != "[[0,0],[10,0]]" {
		t.Errorf("Marshal = %s, want [[0,0],[10,0]]", data)
	}
}

func TestRectBasics(t *testing.T) {
	r := NewRect(10, 20, 30, 40)

	if r.TopLeft() != Pt(10, 20) {
		t.Errorf("TopLeft = %v", r.TopLeft())
	}
	if r.BottomRight() != Pt(40, 60) {
		t.Errorf("BottomRight = %v", r.BottomRight())
	}
	if r.Center() != Pt(25, 40) {
		t.Errorf("Center = %v", r.Center())
	}
	if !r.Contains(Pt(10, 20)) || r.Contains(Pt(9, 20)) {
		t.Error("Contains should include the border and exclude outside points")
	}
	if got := RectAround(Pt(25, 40), 30, 40); got != r {
		t.Errorf("RectAround = %v, want %v", got, r)
	}
	if got := r.Expand(5); got != NewRect(5, 15, 40, 50) {
		t.Errorf("Expand = %v", got)
	}
}

func TestRectUnion(t *testing.T) {
	a := NewRect(0, 0, 10, 10)
	b := NewRect(5, -5, 10, 10)
	if got := a.Union(b); got != NewRect(0, -5, 15, 15) {
		t.Errorf("Union = %v", got)
	}
	if !a.Intersects(b) {
		t.Error("rects should intersect")
	}
	if a.Intersects(NewRect(20, 20, 1, 1)) {
		t.Error("distant rects should not intersect")
	}
}

func TestBoundingBox(t *testing.T) {
	if got := BoundingBox(nil); got != (Rect{}) {
		t.Errorf("BoundingBox(nil) = %v", got)
	}
	got := BoundingBox([]Point{Pt(3, 1), Pt(-2, 5), Pt(0, 0)})
	if got != NewRect(-2, 0, 5, 5) {
		t.Errorf("BoundingBox = %v", got)
	}
}

func TestSegmentIntersection(t *testing.T) {
	p, ok := SegmentIntersection(Seg(Pt(0, 0), Pt(10, 10)), Seg(Pt(0, 10), Pt(10, 0)))
	if !ok || !p.ApproxEqual(Pt(5, 5)) {
		t.Errorf("crossing diagonals = %v, %v; want (5, 5), true", p, ok)
	}

	if _, ok := SegmentIntersection(Seg(Pt(0, 0), Pt(10, 0)), Seg(Pt(0, 1), Pt(10, 1))); ok {
		t.Error("parallel segments should not intersect")
	}
	if _, ok := SegmentIntersection(Seg(Pt(0, 0), Pt(1, 0)), Seg(Pt(5, -1), Pt(5, 1))); ok {
		t.Error("segments that would meet beyond their ends should not intersect")
	}
}

func TestSegmentRectIntersections(t *testing.T) {
	tests := []struct {
		name string
		seg  Segment
		rect Rect
		want []Point
	}{
		{
			name: "horizontal crossing",
			seg:  Seg(Pt(0, 0), Pt(20, 0)),
			rect: NewRect(8, -5, 4, 10),
			want: []Point{Pt(8, 0), Pt(12, 0)},
		},
		{
			name: "reversed direction orders from start",
			seg:  Seg(Pt(20, 0), Pt(0, 0)),
			rect: NewRect(8, -5, 4, 10),
			want: []Point{Pt(12, 0), Pt(8, 0)},
		},
		{
			name: "vertical crossing",
			seg:  Seg(Pt(5, -10), Pt(5, 10)),
			rect: NewRect(0, -2, 10, 4),
			want: []Point{Pt(5, -2), Pt(5, 2)},
		},
		{
			name: "miss",
			seg:  Seg(Pt(0, 0), Pt(20, 0)),
			rect: NewRect(8, 5, 4, 10),
			want: nil,
		},
		{
			name: "endpoint inside",
			seg:  Seg(Pt(0, 0), Pt(10, 0)),
			rect: NewRect(8, -5, 4, 10),
			want: []Point{Pt(8, 0)},
		},
		{
			name: "corner touch counted once",
			seg:  Seg(Pt(0, 0), Pt(20, 20)),
			rect: NewRect(10, -10, 10, 20),
			want: []Point{Pt(10, 10)},
		},
		{
			name: "diagonal through corners",
			seg:  Seg(Pt(-5, -5), Pt(15, 15)),
			rect: NewRect(0, 0, 10, 10),
			want: []Point{Pt(0, 0), Pt(10, 10)},
		},
		{
			name: "along an edge",
			seg:  Seg(Pt(-5, 0), Pt(15, 0)),
			rect: NewRect(0, 0, 10, 10),
			want: []Point{Pt(0, 0), Pt(10, 0)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SegmentRectIntersections(tt.seg, tt.rect)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d points %v, want %d %v", len(got), got, len(tt.want), tt.want)
			}
			for i := range got {
				if !got[i].ApproxEqual(tt.want[i]) {
					t.Errorf("point[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}
