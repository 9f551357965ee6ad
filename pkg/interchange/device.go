package interchange

import (
	"fmt"

	"github.com/matzehuels/fluidcad/pkg/device"
	"github.com/matzehuels/fluidcad/pkg/errors"
	"github.com/matzehuels/fluidcad/pkg/library"
	"github.com/matzehuels/fluidcad/pkg/params"
)

// Version is the interchange format version written by this package.
const Version = 1

// FeatureV1 is the interchange form of a feature.
type FeatureV1 struct {
	ID     string         `json:"id" msgpack:"id" bson:"id"`
	Name   string         `json:"name" msgpack:"name" bson:"name"`
	Type   string         `json:"type" msgpack:"type" bson:"type"`
	Entity string         `json:"entity" msgpack:"entity" bson:"entity"`
	Params map[string]any `json:"params" msgpack:"params" bson:"params"`
}

// LayerV1 is the interchange form of a layer and its features.
type LayerV1 struct {
	ID       string      `json:"id" msgpack:"id" bson:"id"`
	Name     string      `json:"name" msgpack:"name" bson:"name"`
	Type     string      `json:"type" msgpack:"type" bson:"type"`
	Features []FeatureV1 `json:"features" msgpack:"features" bson:"features"`
}

// DeviceV1 is a whole device document.
type DeviceV1 struct {
	Version     int            `json:"version" msgpack:"version" bson:"version"`
	Name        string         `json:"name" msgpack:"name" bson:"name"`
	Layers      []LayerV1      `json:"layers" msgpack:"layers" bson:"layers"`
	Connections []ConnectionV1 `json:"connections" msgpack:"connections" bson:"connections"`
}

// FeatureToV1 converts f to its interchange form.
func FeatureToV1(f *device.Feature) FeatureV1 {
	return FeatureV1{
		ID:     f.ID(),
		Name:   f.Name(),
		Type:   f.Type(),
		Entity: f.Entity(),
		Params: f.Params().ToSerializable(),
	}
}

// FeatureFromV1 rebuilds a feature, typing its parameters with the template
// that catalog resolves for the document's entity and type.
func FeatureFromV1(catalog *library.Catalog, doc FeatureV1) (*device.Feature, error) {
	if doc.ID == "" {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "feature: missing id")
	}
	tmpl, err := catalog.Template(doc.Entity, doc.Type)
	if err != nil {
		return nil, fmt.Errorf("feature %s: %w", doc.ID, err)
	}
	p, err := params.FromSerializable(tmpl.Definition, doc.Params)
	if err != nil {
		return nil, fmt.Errorf("feature %s: %w", doc.ID, err)
	}
	return device.NewFeature(doc.ID, doc.Type, doc.Entity, doc.Name, p)
}

// DeviceToV1 converts d to a version 1 document.
func DeviceToV1(d *device.Device) DeviceV1 {
	doc := DeviceV1{
		Version:     Version,
		Name:        d.Name(),
		Layers:      []LayerV1{},
		Connections: []ConnectionV1{},
	}
	for _, l := range d.Layers() {
		lv := LayerV1{ID: l.ID(), Name: l.Name(), Type: string(l.Kind()), Features: []FeatureV1{}}
		for _, f := range l.Features() {
			lv.Features = append(lv.Features, FeatureToV1(f))
		}
		doc.Layers = append(doc.Layers, lv)
	}
	for _, c := range d.Connections() {
		doc.Connections = append(doc.Connections, ConnectionToV1(c))
	}
	return doc
}

// DeviceFromV1 rebuilds a device. opts configure the new device (catalog,
// logger); connection parameters are typed against its default set. The
// result is validated, so dangling feature references fail the decode.
func DeviceFromV1(doc DeviceV1, opts ...device.Option) (*device.Device, error) {
	if doc.Version != Version {
		return nil, errors.New(errors.ErrCodeUnsupported, "interchange version %d is not supported", doc.Version)
	}
	d, err := device.New(doc.Name, opts...)
	if err != nil {
		return nil, err
	}

	for _, lv := range doc.Layers {
		kind, err := device.ParseLayerKind(lv.Type)
		if err != nil {
			return nil, fmt.Errorf("layer %s: %w", lv.ID, err)
		}
		l, err := device.NewLayer(lv.ID, lv.Name, kind)
		if err != nil {
			return nil, err
		}
		if err := d.AddLayer(l); err != nil {
			return nil, err
		}
		for _, fv := range lv.Features {
			f, err := FeatureFromV1(d.Catalog(), fv)
			if err != nil {
				return nil, err
			}
			if err := d.AddFeature(l.ID(), f); err != nil {
				return nil, err
			}
		}
	}

	for _, cv := range doc.Connections {
		c, err := ConnectionFromV1(d.Lookup(), cv)
		if err != nil {
			return nil, err
		}
		if err := d.AddConnection(c); err != nil {
			return nil, err
		}
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}
