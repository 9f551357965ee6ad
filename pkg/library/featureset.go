package library

import (
	"maps"
	"slices"

	"github.com/matzehuels/fluidcad/pkg/errors"
	"github.com/matzehuels/fluidcad/pkg/params"
)

// FeatureSet is a technology: a named collection of templates. It
// implements params.Lookup.
type FeatureSet struct {
	name      string
	templates map[string]*Template
}

var _ params.Lookup = (*FeatureSet)(nil)

// NewFeatureSet builds a feature set after validating every template.
func NewFeatureSet(name string, templates ...*Template) (*FeatureSet, error) {
	if err := errors.ValidateReference("feature set", name); err != nil {
		return nil, err
	}
	fs := &FeatureSet{name: name, templates: make(map[string]*Template, len(templates))}
	for _, t := range templates {
		if _, dup := fs.templates[t.Name]; dup {
			return nil, errors.New(errors.ErrCodeDuplicate, "feature set %s: template %q declared twice", name, t.Name)
		}
		if err := t.Validate(); err != nil {
			return nil, err
		}
		fs.templates[t.Name] = t
	}
	return fs, nil
}

// Name returns the set name, which features record as their entity.
func (fs *FeatureSet) Name() string { return fs.name }

// Contains reports whether the set defines typ.
func (fs *FeatureSet) Contains(typ string) bool {
	_, ok := fs.templates[typ]
	return ok
}

// Types returns the template names in sorted order.
func (fs *FeatureSet) Types() []string {
	return slices.Sorted(maps.Keys(fs.templates))
}

// Template returns the template for typ, or NOT_FOUND.
func (fs *FeatureSet) Template(typ string) (*Template, error) {
	t, ok := fs.templates[typ]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "feature set %s has no type %q", fs.name, typ)
	}
	return t, nil
}

// Definition implements params.Lookup.
func (fs *FeatureSet) Definition(typ string) (params.Definition, error) {
	t, err := fs.Template(typ)
	if err != nil {
		return params.Definition{}, err
	}
	return t.Definition, nil
}

// Defaults returns the default values of every template, keyed by type.
func (fs *FeatureSet) Defaults() map[string]map[string]any {
	out := make(map[string]map[string]any, len(fs.templates))
	for name, t := range fs.templates {
		out[name] = t.Defaults()
	}
	return out
}

// Tool returns the placement tool and its parameter mapping for typ.
func (fs *FeatureSet) Tool(typ string) (string, map[string]string, error) {
	t, err := fs.Template(typ)
	if err != nil {
		return "", nil, err
	}
	if t.Tool == "" {
		return "", nil, errors.Unsupported("placement", fs.name+"."+typ)
	}
	return t.Tool, maps.Clone(t.ToolParams), nil
}

// Catalog holds every loaded feature set keyed by name.
type Catalog struct {
	sets map[string]*FeatureSet
}

// NewCatalog creates a catalog from the given sets.
func NewCatalog(sets ...*FeatureSet) (*Catalog, error) {
	c := &Catalog{sets: make(map[string]*FeatureSet)}
	for _, fs := range sets {
		if err := c.Add(fs); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Add registers fs. A set with the same name is rejected with DUPLICATE.
func (c *Catalog) Add(fs *FeatureSet) error {
	if _, dup := c.sets[fs.name]; dup {
		return errors.New(errors.ErrCodeDuplicate, "feature set %q already loaded", fs.name)
	}
	c.sets[fs.name] = fs
	return nil
}

// Set returns the feature set named entity, or NOT_FOUND.
func (c *Catalog) Set(entity string) (*FeatureSet, error) {
	fs, ok := c.sets[entity]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "unknown feature set %q", entity)
	}
	return fs, nil
}

// Names returns the loaded set names in sorted order.
func (c *Catalog) Names() []string {
	return slices.Sorted(maps.Keys(c.sets))
}

// Template resolves typ inside the set named entity.
func (c *Catalog) Template(entity, typ string) (*Template, error) {
	fs, err := c.Set(entity)
	if err != nil {
		return nil, err
	}
	return fs.Template(typ)
}
