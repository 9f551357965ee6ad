package params

import (
	"maps"
	"slices"

	"github.com/matzehuels/fluidcad/pkg/errors"
)

// Definition declares which parameters a feature or connection type accepts.
//
// Unique parameters belong to a single instance (positions, waypoints);
// heritable parameters are copied when a feature is derived from another
// (widths, heights). Units, Minimum and Maximum are keyed by parameter name
// and only meaningful for declared keys. Defaults holds raw values that are
// coerced to the declared kind when a parameter set is built.
type Definition struct {
	Unique    map[string]Kind
	Heritable map[string]Kind
	Units     map[string]string
	Defaults  map[string]any
	Minimum   map[string]float64
	Maximum   map[string]float64
}

// Lookup resolves a type string to its definition. Feature sets implement it.
type Lookup interface {
	Definition(typ string) (Definition, error)
}

// KindOf returns the declared kind of key and whether it is declared.
func (d Definition) KindOf(key string) (Kind, bool) {
	if k, ok := d.Unique[key]; ok {
		return k, true
	}
	k, ok := d.Heritable[key]
	return k, ok
}

// Declares reports whether key is a unique or heritable parameter.
func (d Definition) Declares(key string) bool {
	_, ok := d.KindOf(key)
	return ok
}

// IsHeritable reports whether key propagates to derived features.
func (d Definition) IsHeritable(key string) bool {
	_, ok := d.Heritable[key]
	return ok
}

// Keys returns every declared key in sorted order.
func (d Definition) Keys() []string {
	keys := slices.Collect(maps.Keys(d.Unique))
	for k := range d.Heritable {
		if _, dup := d.Unique[k]; !dup {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}

// Unit returns the display unit for key, or "" when none is declared.
func (d Definition) Unit(key string) string {
	return d.Units[key]
}

// CheckBounds returns TYPE_MISMATCH when a numeric parameter lies outside
// the declared [Minimum, Maximum] range for key.
func (d Definition) CheckBounds(key string, p Parameter) error {
	if !p.Kind().IsNumeric() {
		return nil
	}
	v, err := p.Float()
	if err != nil {
		return err
	}
	if lo, ok := d.Minimum[key]; ok && v < lo {
		return errors.New(errors.ErrCodeTypeMismatch, "%s = %g is below minimum %g", key, v, lo)
	}
	if hi, ok := d.Maximum[key]; ok && v > hi {
		return errors.New(errors.ErrCodeTypeMismatch, "%s = %g is above maximum %g", key, v, hi)
	}
	return nil
}

// Validate checks the definition itself: no key may be both unique and
// heritable, bounds must reference numeric keys, and every default must
// coerce to its declared kind and respect the bounds.
func (d Definition) Validate() error {
	for k := range d.Unique {
		if _, dup := d.Heritable[k]; dup {
			return errors.New(errors.ErrCodeInvalidFormat, "parameter %q is both unique and heritable", k)
		}
	}
	for _, bounds := range []map[string]float64{d.Minimum, d.Maximum} {
		for k := range bounds {
			kind, ok := d.KindOf(k)
			if !ok || !kind.IsNumeric() {
				return errors.New(errors.ErrCodeInvalidFormat, "bounds declared for non-numeric parameter %q", k)
			}
		}
	}
	for k, raw := range d.Defaults {
		kind, ok := d.KindOf(k)
		if !ok {
			return errors.New(errors.ErrCodeUnknownParameter, "default for undeclared parameter %q", k)
		}
		p, err := New(kind, raw)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFormat, err, "default for %q", k)
		}
		if err := d.CheckBounds(k, p); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFormat, err, "default for %q", k)
		}
	}
	return nil
}

// Clone returns a deep copy of the definition maps.
func (d Definition) Clone() Definition {
	return Definition{
		Unique:    maps.Clone(d.Unique),
		Heritable: maps.Clone(d.Heritable),
		Units:     maps.Clone(d.Units),
		Defaults:  maps.Clone(d.Defaults),
		Minimum:   maps.Clone(d.Minimum),
		Maximum:   maps.Clone(d.Maximum),
	}
}
