package device

import (
	"slices"

	"github.com/matzehuels/fluidcad/pkg/errors"
)

// LayerKind is the role of a layer within a level.
type LayerKind string

// Layer kinds. A level is a flow, control and integration layer, in that
// order.
const (
	LayerFlow        LayerKind = "FLOW"
	LayerControl     LayerKind = "CONTROL"
	LayerIntegration LayerKind = "INTEGRATION"
)

// ParseLayerKind returns the LayerKind named s.
func ParseLayerKind(s string) (LayerKind, error) {
	switch k := LayerKind(s); k {
	case LayerFlow, LayerControl, LayerIntegration:
		return k, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unknown layer type %q", s)
}

// Layer owns an ordered list of features.
type Layer struct {
	id       string
	name     string
	kind     LayerKind
	features []*Feature
}

// NewLayer creates an empty layer.
func NewLayer(id, name string, kind LayerKind) (*Layer, error) {
	if err := errors.ValidateReference("layer", id); err != nil {
		return nil, err
	}
	if err := errors.ValidateName(name); err != nil {
		return nil, err
	}
	if _, err := ParseLayerKind(string(kind)); err != nil {
		return nil, err
	}
	return &Layer{id: id, name: name, kind: kind}, nil
}

func (l *Layer) ID() string      { return l.id }
func (l *Layer) Name() string    { return l.name }
func (l *Layer) Kind() LayerKind { return l.kind }

// Features returns the layer's features in placement order.
func (l *Layer) Features() []*Feature { return slices.Clone(l.features) }

// Len returns the number of features on the layer.
func (l *Layer) Len() int { return len(l.features) }

// Feature returns the feature with the given id.
func (l *Layer) Feature(id string) (*Feature, bool) {
	i := l.index(id)
	if i < 0 {
		return nil, false
	}
	return l.features[i], true
}

func (l *Layer) add(f *Feature) error {
	if l.index(f.id) >= 0 {
		return errors.New(errors.ErrCodeDuplicate, "layer %s already holds feature %s", l.id, f.id)
	}
	l.features = append(l.features, f)
	return nil
}

func (l *Layer) remove(id string) bool {
	i := l.index(id)
	if i < 0 {
		return false
	}
	l.features = slices.Delete(l.features, i, i+1)
	return true
}

func (l *Layer) index(id string) int {
	return slices.IndexFunc(l.features, func(f *Feature) bool { return f.id == id })
}
