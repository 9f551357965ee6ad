package library

import (
	_ "embed"
	"io"
	"os"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/fluidcad/pkg/errors"
	"github.com/matzehuels/fluidcad/pkg/params"
)

// BasicName is the name of the built-in feature set.
const BasicName = "Basic"

//go:embed basic.toml
var basicTOML []byte

var (
	basicSet     *FeatureSet
	basicErr     error
	basicSetOnce sync.Once
)

// Basic returns the built-in feature set. It is parsed once.
func Basic() *FeatureSet {
	basicSetOnce.Do(func() {
		basicSet, basicErr = Parse(basicTOML)
	})
	if basicErr != nil {
		panic("library: embedded basic.toml: " + basicErr.Error())
	}
	return basicSet
}

// DefaultCatalog returns a catalog holding only the Basic set.
func DefaultCatalog() *Catalog {
	c, _ := NewCatalog(Basic())
	return c
}

type setFile struct {
	Name      string                  `toml:"name"`
	Templates map[string]templateFile `toml:"templates"`
}

type templateFile struct {
	Tool       string             `toml:"tool"`
	ToolParams map[string]string  `toml:"tool_params"`
	Footprint  footprintFile      `toml:"footprint"`
	Unique     map[string]string  `toml:"unique"`
	Heritable  map[string]string  `toml:"heritable"`
	Units      map[string]string  `toml:"units"`
	Defaults   map[string]any     `toml:"defaults"`
	Minimum    map[string]float64 `toml:"minimum"`
	Maximum    map[string]float64 `toml:"maximum"`
}

// Parse decodes a feature set from TOML.
//
//	name = "Basic"
//
//	[templates.Channel]
//	tool = "DragTool"
//	tool_params = { start = "start", end = "end" }
//	footprint = { shape = "line", start = "start", end = "end", width = "channelWidth" }
//	unique = { start = "Point", end = "Point" }
//	heritable = { channelWidth = "Float", height = "Float" }
//	minimum = { channelWidth = 3.0 }
func Parse(data []byte) (*FeatureSet, error) {
	var f setFile
	md, err := toml.Decode(string(data), &f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode feature set")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "feature set %s: unknown field %s", f.Name, undecoded[0])
	}

	templates := make([]*Template, 0, len(f.Templates))
	for name, tf := range f.Templates {
		t, err := tf.build(name)
		if err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "feature set %s", f.Name)
		}
		templates = append(templates, t)
	}
	return NewFeatureSet(f.Name, templates...)
}

// Load reads a feature set from r.
func Load(r io.Reader) (*FeatureSet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// LoadFile reads a feature set from a TOML file.
func LoadFile(path string) (*FeatureSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func (tf templateFile) build(name string) (*Template, error) {
	unique, err := parseKinds(tf.Unique)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "template %s", name)
	}
	heritable, err := parseKinds(tf.Heritable)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "template %s", name)
	}
	fp, err := tf.Footprint.build()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "template %s", name)
	}
	return &Template{
		Name: name,
		Definition: params.Definition{
			Unique:    unique,
			Heritable: heritable,
			Units:     orEmpty(tf.Units),
			Defaults:  orEmpty(tf.Defaults),
			Minimum:   orEmpty(tf.Minimum),
			Maximum:   orEmpty(tf.Maximum),
		},
		Tool:       tf.Tool,
		ToolParams: orEmpty(tf.ToolParams),
		Footprint:  fp,
	}, nil
}

func parseKinds(raw map[string]string) (map[string]params.Kind, error) {
	out := make(map[string]params.Kind, len(raw))
	for key, name := range raw {
		k, err := params.ParseKind(name)
		if err != nil {
			return nil, err
		}
		out[key] = k
	}
	return out, nil
}

func orEmpty[V any](m map[string]V) map[string]V {
	if m == nil {
		return map[string]V{}
	}
	return m
}
