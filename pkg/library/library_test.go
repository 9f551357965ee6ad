package library

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/fluidcad/pkg/errors"
	"github.com/matzehuels/fluidcad/pkg/geometry"
	"github.com/matzehuels/fluidcad/pkg/params"
)

func TestBasicSet(t *testing.T) {
	fs := Basic()
	if fs.Name() != BasicName {
		t.Fatalf("Name() = %q, want %q", fs.Name(), BasicName)
	}

	want := []string{"Chamber", "Channel", "Connection", "Port", "Valve", "Valve_control"}
	got := fs.Types()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Types() = %v, want %v", got, want)
	}

	def, err := fs.Definition("Channel")
	if err != nil {
		t.Fatalf("Definition(Channel): %v", err)
	}
	if def.Minimum["channelWidth"] != 3 || def.Maximum["channelWidth"] != 2000 {
		t.Errorf("channelWidth bounds = [%v, %v], want [3, 2000]", def.Minimum["channelWidth"], def.Maximum["channelWidth"])
	}
	if def.Minimum["height"] != 10 || def.Maximum["height"] != 1200 {
		t.Errorf("height bounds = [%v, %v], want [10, 1200]", def.Minimum["height"], def.Maximum["height"])
	}
	if def.Unit("channelWidth") != "μm" {
		t.Errorf("Unit(channelWidth) = %q", def.Unit("channelWidth"))
	}
	if !def.IsHeritable("channelWidth") || def.IsHeritable("start") {
		t.Error("channelWidth must be heritable and start unique")
	}
}

func TestBasicDefaultsAreComplete(t *testing.T) {
	fs := Basic()
	for _, typ := range fs.Types() {
		def, _ := fs.Definition(typ)
		p, err := params.FromDefaults(def, nil)
		if err != nil {
			t.Errorf("%s: FromDefaults: %v", typ, err)
			continue
		}
		if missing := p.Missing(); len(missing) > 0 {
			t.Errorf("%s: keys without default: %v", typ, missing)
		}
	}
}

func TestDefinitionUnknownType(t *testing.T) {
	_, err := Basic().Definition("Mixer")
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Definition(Mixer) error = %v, want NOT_FOUND", err)
	}
	if Basic().Contains("Mixer") {
		t.Error("Contains(Mixer) = true")
	}
}

func TestTool(t *testing.T) {
	tool, tp, err := Basic().Tool("Channel")
	if err != nil {
		t.Fatalf("Tool(Channel): %v", err)
	}
	if tool != "DragTool" || tp["start"] != "start" || tp["end"] != "end" {
		t.Errorf("Tool(Channel) = %q %v", tool, tp)
	}

	_, _, err = Basic().Tool("Valve_control")
	if !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("Tool(Valve_control) error = %v, want UNSUPPORTED", err)
	}
}

func TestDefaultsCopy(t *testing.T) {
	fs := Basic()
	all := fs.Defaults()
	all["Channel"]["channelWidth"] = 1.0

	def, _ := fs.Definition("Channel")
	if def.Defaults["channelWidth"] != 800.0 {
		t.Errorf("Defaults() leaked into template: %v", def.Defaults["channelWidth"])
	}
}

func TestFootprints(t *testing.T) {
	fs := Basic()
	tests := []struct {
		typ     string
		overlay map[string]any
		want    geometry.Rect
	}{
		{
			typ:     "Channel",
			overlay: map[string]any{"start": []any{0.0, 0.0}, "end": []any{100.0, 0.0}, "channelWidth": 10.0},
			want:    geometry.NewRect(-5, -5, 110, 10),
		},
		{
			typ:     "Port",
			overlay: map[string]any{"position": []any{50.0, 50.0}, "portRadius": 10.0},
			want:    geometry.NewRect(40, 40, 20, 20),
		},
		{
			typ:     "Chamber",
			overlay: map[string]any{"position": []any{10.0, 20.0}, "width": 100.0, "length": 50.0},
			want:    geometry.NewRect(10, 20, 100, 50),
		},
		{
			typ: "Connection",
			overlay: map[string]any{
				"segments":     []any{[]any{[]any{0.0, 0.0}, []any{10.0, 0.0}}, []any{[]any{10.0, 0.0}, []any{10.0, 10.0}}},
				"channelWidth": 4.0,
			},
			want: geometry.NewRect(-2, -2, 14, 14),
		},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			tmpl, err := fs.Template(tt.typ)
			if err != nil {
				t.Fatal(err)
			}
			p, err := params.FromDefaults(tmpl.Definition, tt.overlay)
			if err != nil {
				t.Fatalf("FromDefaults: %v", err)
			}
			got, err := tmpl.Footprint.Bounds(p)
			if err != nil {
				t.Fatalf("Bounds: %v", err)
			}
			if got != tt.want {
				t.Errorf("Bounds() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPolylineFootprintEmpty(t *testing.T) {
	tmpl, _ := Basic().Template("Connection")
	p, _ := params.FromDefaults(tmpl.Definition, nil)
	_, err := tmpl.Footprint.Bounds(p)
	if !errors.Is(err, errors.ErrCodeMalformedGeometry) {
		t.Errorf("Bounds() on unrouted connection error = %v, want MALFORMED_GEOMETRY", err)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		toml string
		code errors.Code
	}{
		{
			name: "bad kind",
			toml: "name = \"X\"\n[templates.A]\nunique = { a = \"Vector\" }\n",
			code: errors.ErrCodeInvalidFormat,
		},
		{
			name: "unknown field",
			toml: "name = \"X\"\ncolour = \"red\"\n",
			code: errors.ErrCodeInvalidFormat,
		},
		{
			name: "default out of bounds",
			toml: "name = \"X\"\n[templates.A]\nheritable = { w = \"Float\" }\ndefaults = { w = 1.0 }\nminimum = { w = 3.0 }\n",
			code: errors.ErrCodeInvalidFormat,
		},
		{
			name: "tool param undeclared",
			toml: "name = \"X\"\n[templates.A]\ntool = \"DragTool\"\ntool_params = { start = \"begin\" }\n",
			code: errors.ErrCodeUnknownParameter,
		},
		{
			name: "footprint wrong kind",
			toml: "name = \"X\"\n[templates.A]\nunique = { c = \"String\", r = \"Float\" }\nfootprint = { shape = \"circle\", center = \"c\", radius = \"r\" }\n",
			code: errors.ErrCodeTypeMismatch,
		},
		{
			name: "unknown shape",
			toml: "name = \"X\"\n[templates.A]\nfootprint = { shape = \"star\" }\n",
			code: errors.ErrCodeInvalidFormat,
		},
		{
			name: "not toml",
			toml: "name = = \n",
			code: errors.ErrCodeInvalidFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.toml))
			if err == nil {
				t.Fatal("Parse() succeeded, want error")
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("Parse() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestLoadFileAndCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.toml")
	src := `name = "Custom"

[templates.Mixer]
tool = "PositionTool"
tool_params = { position = "position" }
unique = { position = "Point" }
heritable = { bendCount = "Integer" }
defaults = { position = [0, 0], bendCount = 3 }
minimum = { bendCount = 1.0 }
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	fs, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	c, err := NewCatalog(Basic(), fs)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	if got := c.Names(); len(got) != 2 || got[0] != "Basic" || got[1] != "Custom" {
		t.Errorf("Names() = %v", got)
	}
	if _, err := c.Template("Custom", "Mixer"); err != nil {
		t.Errorf("Template(Custom, Mixer): %v", err)
	}
	if _, err := c.Template("Custom", "Channel"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Template(Custom, Channel) error = %v, want NOT_FOUND", err)
	}
	if err := c.Add(Basic()); !errors.Is(err, errors.ErrCodeDuplicate) {
		t.Errorf("Add(Basic) twice error = %v, want DUPLICATE", err)
	}
}
