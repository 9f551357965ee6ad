package device

import (
	"github.com/matzehuels/fluidcad/pkg/errors"
	"github.com/matzehuels/fluidcad/pkg/params"
)

// Feature is a single device element placed on a layer, such as a channel,
// a valve or a port. Type names the template inside the feature set named
// by Entity.
//
// A feature never references the connections that use it; connections
// hold feature ids and push parameter updates one way.
type Feature struct {
	id     string
	typ    string
	entity string
	name   string
	params *params.Params
}

// NewFeature assembles a feature from already-resolved parameters. Most
// callers want Device.MakeFeature, which resolves the template and
// defaults first.
func NewFeature(id, typ, entity, name string, p *params.Params) (*Feature, error) {
	if err := errors.ValidateReference("feature", id); err != nil {
		return nil, err
	}
	if err := errors.ValidateName(name); err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "feature %s has no parameters", id)
	}
	return &Feature{id: id, typ: typ, entity: entity, name: name, params: p.Clone()}, nil
}

func (f *Feature) ID() string     { return f.id }
func (f *Feature) Type() string   { return f.typ }
func (f *Feature) Entity() string { return f.entity }
func (f *Feature) Name() string   { return f.name }

// SetName renames the feature.
func (f *Feature) SetName(name string) error {
	if err := errors.ValidateName(name); err != nil {
		return err
	}
	f.name = name
	return nil
}

// Params returns a copy of the feature's parameters.
func (f *Feature) Params() *params.Params { return f.params.Clone() }

// Value returns the typed value stored at key.
func (f *Feature) Value(key string) (any, error) {
	return f.params.Value(key)
}

// UpdateParameter replaces the value at key. value may be a params.Parameter
// or a raw value that is coerced to the declared kind. Keys the type does
// not declare fail with UNKNOWN_PARAMETER; out-of-bounds values with
// TYPE_MISMATCH.
func (f *Feature) UpdateParameter(key string, value any) error {
	if p, ok := value.(params.Parameter); ok {
		return f.params.Set(key, p)
	}
	return f.params.SetValue(key, value)
}

// SetParams copies every heritable value of src that this feature's type
// also declares. It is used to derive a twin on another layer from an
// existing feature. The update is all or nothing.
func (f *Feature) SetParams(src *params.Params) error {
	staged := f.params.Clone()
	for key, p := range src.Heritable() {
		if !staged.Definition().Declares(key) {
			continue
		}
		if err := staged.Set(key, p); err != nil {
			return errors.Wrap(errors.GetCode(err), err, "feature %s", f.id)
		}
	}
	f.params = staged
	return nil
}
