package interchange

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/fluidcad/pkg/device"
	"github.com/matzehuels/fluidcad/pkg/errors"
	"github.com/matzehuels/fluidcad/pkg/geometry"
	"github.com/matzehuels/fluidcad/pkg/library"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

// sampleDevice builds a device with a routed connection, a split segment,
// two sinks and a multilayer valve.
func sampleDevice(t *testing.T) *device.Device {
	t.Helper()
	d, err := device.New("sample", device.WithIDGenerator(sequentialIDs()))
	if err != nil {
		t.Fatal(err)
	}
	layers, err := d.AddLevel()
	if err != nil {
		t.Fatal(err)
	}
	c, err := d.Route(layers[0].ID(),
		[]geometry.Point{geometry.Pt(0, 0), geometry.Pt(20, 0), geometry.Pt(20, 20)},
		device.MustTarget("port-a", "1"),
		[]device.Target{device.MustTarget("port-b", "1"), device.MustTarget("port-c", "2")},
		device.WithName("main"))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.InsertFeatureGap(d, geometry.NewRect(8, -5, 4, 10)); err != nil {
		t.Fatal(err)
	}
	if _, err := d.PlaceMultilayer(layers[0].ID(), "Valve", geometry.Pt(10, 0)); err != nil {
		t.Fatal(err)
	}
	return d
}

func TestConnectionRoundTrip(t *testing.T) {
	d := sampleDevice(t)
	orig := d.Connections()[0]

	data, err := EncodeConnection(orig)
	if err != nil {
		t.Fatalf("EncodeConnection: %v", err)
	}
	back, err := DecodeConnection(d.Lookup(), data)
	if err != nil {
		t.Fatalf("DecodeConnection: %v", err)
	}

	if back.ID() != orig.ID() || back.Name() != orig.Name() || back.Entity() != orig.Entity() {
		t.Errorf("identity = %s/%s/%s, want %s/%s/%s",
			back.ID(), back.Name(), back.Entity(), orig.ID(), orig.Name(), orig.Entity())
	}
	wantSrc, _ := orig.Source()
	gotSrc, ok := back.Source()
	if !ok || gotSrc != wantSrc {
		t.Errorf("Source() = %v, want %v", gotSrc, wantSrc)
	}
	if got, want := back.Sinks(), orig.Sinks(); len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Sinks() = %v, want %v", got, want)
	}
	if !back.Params().Equal(orig.Params()) {
		t.Errorf("Params() = %v, want %v", back.Params().ToSerializable(), orig.Params().ToSerializable())
	}
	for _, k := range orig.Params().Keys() {
		a, _ := orig.Params().Get(k)
		b, _ := back.Params().Get(k)
		if a.Kind() != b.Kind() {
			t.Errorf("kind of %s = %s, want %s", k, b.Kind(), a.Kind())
		}
	}
	if got := back.FeatureIDs(); len(got) != 1 || got[0] != orig.FeatureIDs()[0] {
		t.Errorf("FeatureIDs() = %v", got)
	}
}

const sampleConnection = `{
  "id": "conn-1",
  "name": "Connection 1",
  "entity": "Connection",
  "source": {"component": "comp1", "port": "in"},
  "sinks": [{"component": "comp2", "port": "out"}, {"component": "comp3", "port": "out"}],
  "params": {
    "channelWidth": 400,
    "wayPoints": [[0, 0], [10, 0], [10, 10]],
    "segments": [[[0, 0], [10, 0]], [[10, 0], [10, 10]]]
  }
}`

func TestDecodeConnectionRestoresSinks(t *testing.T) {
	c, err := DecodeConnection(library.Basic(), []byte(sampleConnection))
	if err != nil {
		t.Fatalf("DecodeConnection: %v", err)
	}
	sinks := c.Sinks()
	if len(sinks) != 2 || sinks[0].Component != "comp2" || sinks[1].Component != "comp3" {
		t.Errorf("Sinks() = %v, want comp2 and comp3", sinks)
	}
	if src, _ := c.Source(); src.Component != "comp1" || src.Port != "in" {
		t.Errorf("Source() = %v", src)
	}
	if c.ID() != "conn-1" {
		t.Errorf("ID() = %q, want conn-1", c.ID())
	}
	wps, err := c.Waypoints()
	if err != nil || len(wps) != 3 || wps[2] != geometry.Pt(10, 10) {
		t.Errorf("Waypoints() = %v, %v", wps, err)
	}
	if v, _ := c.Value("channelWidth"); v != 400.0 {
		t.Errorf("channelWidth = %v (%T), want float 400", v, v)
	}
}

func TestDecodeConnectionOptionalTargets(t *testing.T) {
	tests := []string{
		`{"id": "c", "name": "n", "entity": "Connection", "params": {}}`,
		`{"id": "c", "name": "n", "entity": "Connection", "params": {}, "source": null, "sinks": null}`,
		`{"id": "c", "name": "n", "entity": "Connection", "params": {}, "sinks": []}`,
	}
	for _, in := range tests {
		c, err := DecodeConnection(library.Basic(), []byte(in))
		if err != nil {
			t.Errorf("DecodeConnection(%s): %v", in, err)
			continue
		}
		if _, ok := c.Source(); ok {
			t.Errorf("Source() set for %s", in)
		}
		if len(c.Sinks()) != 0 {
			t.Errorf("Sinks() = %v for %s", c.Sinks(), in)
		}
	}
}

func TestDecodeConnectionErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		code errors.Code
	}{
		{"missing id", `{"name": "n", "entity": "Connection", "params": {}}`, errors.ErrCodeInvalidFormat},
		{"missing name", `{"id": "c", "entity": "Connection", "params": {}}`, errors.ErrCodeInvalidFormat},
		{"missing entity", `{"id": "c", "name": "n", "params": {}}`, errors.ErrCodeInvalidFormat},
		{"missing params", `{"id": "c", "name": "n", "entity": "Connection"}`, errors.ErrCodeInvalidFormat},
		{"not an object", `[1, 2]`, errors.ErrCodeInvalidFormat},
		{"numeric source component", `{"id": "c", "name": "n", "entity": "Connection", "params": {}, "source": {"component": 42, "port": "in"}}`, errors.ErrCodeInvalidReference},
		{"numeric sink component", `{"id": "c", "name": "n", "entity": "Connection", "params": {}, "sinks": [{"component": 7}]}`, errors.ErrCodeInvalidReference},
		{"numeric port", `{"id": "c", "name": "n", "entity": "Connection", "params": {}, "source": {"component": "a", "port": 1}}`, errors.ErrCodeInvalidReference},
		{"empty component", `{"id": "c", "name": "n", "entity": "Connection", "params": {}, "source": {"component": ""}}`, errors.ErrCodeInvalidReference},
		{"unknown param", `{"id": "c", "name": "n", "entity": "Connection", "params": {"color": "red"}}`, errors.ErrCodeUnknownParameter},
		{"wrong kind", `{"id": "c", "name": "n", "entity": "Connection", "params": {"wayPoints": "north"}}`, errors.ErrCodeTypeMismatch},
		{"out of bounds", `{"id": "c", "name": "n", "entity": "Connection", "params": {"channelWidth": 5000}}`, errors.ErrCodeTypeMismatch},
		{"unknown entity", `{"id": "c", "name": "n", "entity": "Wire", "params": {}}`, errors.ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeConnection(library.Basic(), []byte(tt.in))
			if !errors.Is(err, tt.code) {
				t.Errorf("DecodeConnection() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestConnectionToV1Shape(t *testing.T) {
	d, _ := device.New("d")
	c, _ := d.MakeConnection("", nil, device.WithID("c1"), device.WithName("plain"))

	data, err := EncodeConnection(c)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if v, ok := raw["source"]; !ok || v != nil {
		t.Errorf("source = %v, want explicit null", v)
	}
	if sinks, ok := raw["sinks"].([]any); !ok || len(sinks) != 0 {
		t.Errorf("sinks = %v, want []", raw["sinks"])
	}
	if _, ok := raw["features"]; ok {
		t.Error("features should be omitted when empty")
	}
	for _, k := range []string{"id", "name", "entity", "params"} {
		if _, ok := raw[k]; !ok {
			t.Errorf("missing field %q", k)
		}
	}
}

func assertSameDevice(t *testing.T, got, want *device.Device) {
	t.Helper()
	if got.Name() != want.Name() {
		t.Errorf("Name() = %q, want %q", got.Name(), want.Name())
	}
	gl, wl := got.Layers(), want.Layers()
	if len(gl) != len(wl) {
		t.Fatalf("layers = %d, want %d", len(gl), len(wl))
	}
	for i := range wl {
		if gl[i].ID() != wl[i].ID() || gl[i].Kind() != wl[i].Kind() || gl[i].Len() != wl[i].Len() {
			t.Errorf("layer %d = %s/%s/%d, want %s/%s/%d", i,
				gl[i].ID(), gl[i].Kind(), gl[i].Len(), wl[i].ID(), wl[i].Kind(), wl[i].Len())
		}
	}
	for _, wf := range want.Features() {
		gf, err := got.FeatureByID(wf.ID())
		if err != nil {
			t.Errorf("feature %s lost: %v", wf.ID(), err)
			continue
		}
		if gf.Type() != wf.Type() || !gf.Params().Equal(wf.Params()) {
			t.Errorf("feature %s differs", wf.ID())
		}
	}
	gc, wc := got.Connections(), want.Connections()
	if len(gc) != len(wc) {
		t.Fatalf("connections = %d, want %d", len(gc), len(wc))
	}
	for i := range wc {
		if gc[i].ID() != wc[i].ID() || !gc[i].Params().Equal(wc[i].Params()) {
			t.Errorf("connection %s differs", wc[i].ID())
		}
		if len(gc[i].Sinks()) != len(wc[i].Sinks()) {
			t.Errorf("connection %s sinks = %v, want %v", wc[i].ID(), gc[i].Sinks(), wc[i].Sinks())
		}
	}
}

func TestDeviceJSONRoundTrip(t *testing.T) {
	d := sampleDevice(t)

	var buf bytes.Buffer
	if err := WriteJSON(d, &buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if !strings.Contains(buf.String(), `"version": 1`) {
		t.Errorf("output lacks version: %s", buf.String())
	}

	back, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	assertSameDevice(t, back, d)
}

func TestDeviceMsgpackRoundTrip(t *testing.T) {
	d := sampleDevice(t)

	data, err := MarshalMsgpack(d)
	if err != nil {
		t.Fatalf("MarshalMsgpack: %v", err)
	}
	back, err := UnmarshalMsgpack(data)
	if err != nil {
		t.Fatalf("UnmarshalMsgpack: %v", err)
	}
	assertSameDevice(t, back, d)
}

func TestExportImportJSON(t *testing.T) {
	d := sampleDevice(t)
	path := filepath.Join(t.TempDir(), "device.json")

	if err := ExportJSON(d, path); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	back, err := ImportJSON(path)
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	assertSameDevice(t, back, d)

	if _, err := ImportJSON(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("ImportJSON(missing) succeeded")
	}
}

func TestDeviceFromV1Errors(t *testing.T) {
	d := sampleDevice(t)

	future := DeviceToV1(d)
	future.Version = 2
	if _, err := DeviceFromV1(future); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("version 2 error = %v, want UNSUPPORTED", err)
	}

	dangling := DeviceToV1(d)
	dangling.Connections[0].Features = append(dangling.Connections[0].Features, "ghost")
	if _, err := DeviceFromV1(dangling); !errors.Is(err, errors.ErrCodeUnresolvedFeature) {
		t.Errorf("dangling feature error = %v, want UNRESOLVED_FEATURE", err)
	}

	badLayer := DeviceToV1(d)
	badLayer.Layers[0].Type = "MEMBRANE"
	if _, err := DeviceFromV1(badLayer); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("bad layer type error = %v, want INVALID_FORMAT", err)
	}

	if _, err := ReadJSON(strings.NewReader("{not json")); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("ReadJSON(garbage) error = %v, want INVALID_FORMAT", err)
	}
}
