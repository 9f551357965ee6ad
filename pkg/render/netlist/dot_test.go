package netlist

import (
	"bytes"
	"strings"
	"testing"

	"github.com/matzehuels/fluidcad/pkg/device"
	"github.com/matzehuels/fluidcad/pkg/geometry"
)

func testDevice(t *testing.T) *device.Device {
	t.Helper()
	d, err := device.New("mixer")
	if err != nil {
		t.Fatal(err)
	}
	layers, err := d.AddLevel()
	if err != nil {
		t.Fatal(err)
	}
	flow := layers[0].ID()
	for _, p := range []struct {
		id, name string
		at       geometry.Point
	}{
		{"p1", "inlet", geometry.Pt(0, 0)},
		{"p2", "outlet", geometry.Pt(5000, 0)},
	} {
		f, err := d.MakeFeature("Port", "", map[string]any{"position": p.at}, device.WithID(p.id), device.WithName(p.name))
		if err != nil {
			t.Fatal(err)
		}
		if err := d.AddFeature(flow, f); err != nil {
			t.Fatal(err)
		}
	}
	_, err = d.Route(flow,
		[]geometry.Point{geometry.Pt(0, 0), geometry.Pt(5000, 0)},
		device.MustTarget("p1", "a"),
		[]device.Target{device.MustTarget("p2", ""), device.MustTarget("ghost", "b")},
		device.WithName("main"))
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(testDevice(t), Options{})

	for _, want := range []string{
		`digraph netlist {`,
		`"p1" [label="inlet"];`,
		`"p2" [label="outlet"];`,
		`"ghost" [label="ghost", style="rounded,dashed"];`,
		`"p1" -> "p2" [label="main", taillabel="a"];`,
		`"p1" -> "ghost" [label="main", taillabel="a", headlabel="b"];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %s\n%s", want, dot)
		}
	}
	if strings.Index(dot, `"ghost" [`) > strings.Index(dot, `"p1" [`) {
		t.Error("nodes should be sorted by component id")
	}
}

func TestToDOTDetailed(t *testing.T) {
	dot := ToDOT(testDevice(t), Options{Detailed: true})

	for _, want := range []string{
		`"p1" [label="inlet\nPort"];`,
		`label="main\n800 µm"`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %s\n%s", want, dot)
		}
	}
}

func TestToDOTSkipsSourceless(t *testing.T) {
	d, _ := device.New("d")
	c, err := d.MakeConnection("", nil, device.WithID("c1"))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.AddSink("p9", ""); err != nil {
		t.Fatal(err)
	}
	if err := d.AddConnection(c); err != nil {
		t.Fatal(err)
	}

	dot := ToDOT(d, Options{})
	if !strings.Contains(dot, `"p9" [`) {
		t.Errorf("sink node missing:\n%s", dot)
	}
	if strings.Contains(dot, "->") {
		t.Errorf("sourceless connection drew an edge:\n%s", dot)
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(ToDOT(testDevice(t), Options{}))
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	if !bytes.Contains(svg, []byte(`viewBox="0 0 `)) {
		t.Errorf("svg header not normalized: %.200s", svg)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="62pt" height="44pt" viewBox="0.00 0.00 62.00 44.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 62.00 44.00" width="62" height="44"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox() = %s, want %s", got, want)
	}

	plain := []byte(`<svg><g/></svg>`)
	if got := normalizeViewBox(plain); !bytes.Equal(got, plain) {
		t.Errorf("normalizeViewBox(no viewBox) = %s", got)
	}
}
