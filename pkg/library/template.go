package library

import (
	"maps"

	"github.com/matzehuels/fluidcad/pkg/errors"
	"github.com/matzehuels/fluidcad/pkg/params"
)

// Template describes one feature type inside a feature set: the parameters
// it accepts, how it is placed and the area it covers.
type Template struct {
	Name       string
	Definition params.Definition
	// Tool names the placement tool an editor uses for this type, e.g.
	// "DragTool" or "PositionTool".
	Tool string
	// ToolParams maps tool inputs to parameter keys, e.g. {"start": "start"}.
	ToolParams map[string]string
	// Footprint is nil for types with no physical extent.
	Footprint Footprint
}

// Defaults returns a copy of the template's default values.
func (t *Template) Defaults() map[string]any {
	return maps.Clone(t.Definition.Defaults)
}

// Validate checks the definition and that tool params and footprint keys
// reference declared parameters of a compatible kind.
func (t *Template) Validate() error {
	if err := t.Definition.Validate(); err != nil {
		return errors.Wrap(errors.GetCode(err), err, "template %s", t.Name)
	}
	for in, key := range t.ToolParams {
		if !t.Definition.Declares(key) {
			return errors.New(errors.ErrCodeUnknownParameter, "template %s: tool param %q maps to undeclared %q", t.Name, in, key)
		}
	}
	if t.Footprint == nil {
		return nil
	}
	for key, want := range t.Footprint.Keys() {
		got, ok := t.Definition.KindOf(key)
		if !ok {
			return errors.New(errors.ErrCodeUnknownParameter, "template %s: %s footprint reads undeclared %q", t.Name, t.Footprint.Shape(), key)
		}
		if got != want && !(want == params.KindFloat && got == params.KindInteger) {
			return errors.New(errors.ErrCodeTypeMismatch, "template %s: footprint key %q is %s, want %s", t.Name, key, got, want)
		}
	}
	return nil
}
