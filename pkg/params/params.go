package params

import (
	"maps"
	"slices"

	"github.com/matzehuels/fluidcad/pkg/errors"
)

// Params is a named collection of parameters governed by a Definition.
//
// Values stored in a Params are owned by it: Set copies the parameter and
// Get returns a copy, so two owners (a connection and the features that
// realize it) never alias the same slice.
//
// The zero value is not usable - use NewSet, FromDefaults or FromSerializable.
// Params is not safe for concurrent use.
type Params struct {
	def    Definition
	values map[string]Parameter
}

// NewSet creates an empty parameter set governed by def.
func NewSet(def Definition) *Params {
	return &Params{def: def, values: make(map[string]Parameter)}
}

// FromDefaults builds a parameter set from the definition's defaults and
// then applies overlay on top. Overlay keys must be declared.
func FromDefaults(def Definition, overlay map[string]any) (*Params, error) {
	p := NewSet(def)
	for _, key := range slices.Sorted(maps.Keys(def.Defaults)) {
		if err := p.SetValue(key, def.Defaults[key]); err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "default %q", key)
		}
	}
	for _, key := range slices.Sorted(maps.Keys(overlay)) {
		if err := p.SetValue(key, overlay[key]); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// FromSerializable rebuilds a parameter set from its untyped form. Kinds
// come from def, never from the raw values: an undeclared key fails with
// UNKNOWN_PARAMETER and a value that does not fit its kind with
// TYPE_MISMATCH.
func FromSerializable(def Definition, raw map[string]any) (*Params, error) {
	p := NewSet(def)
	for _, key := range slices.Sorted(maps.Keys(raw)) {
		if err := p.SetValue(key, raw[key]); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Definition returns the governing definition.
func (p *Params) Definition() Definition { return p.def }

// Get returns the parameter stored at key.
func (p *Params) Get(key string) (Parameter, bool) {
	v, ok := p.values[key]
	if !ok {
		return Parameter{}, false
	}
	return MustNew(v.kind, v.value), true
}

// Has reports whether a parameter is stored at key.
func (p *Params) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

// Value returns the typed value stored at key, or NOT_FOUND.
func (p *Params) Value(key string) (any, error) {
	v, ok := p.values[key]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "no value for parameter %q", key)
	}
	return v.Value(), nil
}

// Set stores param at key. The key must be declared and param must carry
// the declared kind; numeric values must respect the declared bounds.
func (p *Params) Set(key string, param Parameter) error {
	kind, ok := p.def.KindOf(key)
	if !ok {
		return errors.New(errors.ErrCodeUnknownParameter, "parameter %q is not declared", key)
	}
	if param.IsZero() {
		return errors.New(errors.ErrCodeTypeMismatch, "parameter %q has no kind", key)
	}
	if param.Kind() != kind {
		if kind != KindFloat || param.Kind() != KindInteger {
			return errors.New(errors.ErrCodeTypeMismatch, "parameter %q is declared %s, got %s", key, kind, param.Kind())
		}
		f, _ := param.Float()
		param = MustNew(KindFloat, f)
	}
	if err := p.def.CheckBounds(key, param); err != nil {
		return err
	}
	p.values[key] = MustNew(param.kind, param.value)
	return nil
}

// SetValue coerces value to the declared kind of key and stores it.
func (p *Params) SetValue(key string, value any) error {
	kind, ok := p.def.KindOf(key)
	if !ok {
		return errors.New(errors.ErrCodeUnknownParameter, "parameter %q is not declared", key)
	}
	param, err := New(kind, value)
	if err != nil {
		return errors.Wrap(errors.ErrCodeTypeMismatch, err, "parameter %q", key)
	}
	return p.Set(key, param)
}

// Delete removes the parameter at key.
func (p *Params) Delete(key string) {
	delete(p.values, key)
}

// Keys returns the stored keys in sorted order.
func (p *Params) Keys() []string {
	return slices.Sorted(maps.Keys(p.values))
}

// Len returns the number of stored parameters.
func (p *Params) Len() int { return len(p.values) }

// Missing returns declared keys that have no stored parameter, sorted.
func (p *Params) Missing() []string {
	var missing []string
	for _, k := range p.def.Keys() {
		if _, ok := p.values[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing
}

// Heritable returns a copy of the stored heritable parameters.
func (p *Params) Heritable() map[string]Parameter {
	out := make(map[string]Parameter)
	for k, v := range p.values {
		if p.def.IsHeritable(k) {
			out[k] = MustNew(v.kind, v.value)
		}
	}
	return out
}

// Clone returns a deep copy sharing only the (read-only) definition.
func (p *Params) Clone() *Params {
	c := NewSet(p.def)
	for k, v := range p.values {
		c.values[k] = MustNew(v.kind, v.value)
	}
	return c
}

// Equal reports whether both sets store the same keys with equal parameters.
func (p *Params) Equal(other *Params) bool {
	if len(p.values) != len(other.values) {
		return false
	}
	for k, v := range p.values {
		o, ok := other.values[k]
		if !ok || !v.Equal(o) {
			return false
		}
	}
	return true
}

// ToSerializable maps every entry to its raw value, dropping the kind tag.
func (p *Params) ToSerializable() map[string]any {
	out := make(map[string]any, len(p.values))
	for k, v := range p.values {
		out[k] = v.Serializable()
	}
	return out
}
