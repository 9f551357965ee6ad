package device

import (
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/fluidcad/pkg/errors"
	"github.com/matzehuels/fluidcad/pkg/geometry"
	"github.com/matzehuels/fluidcad/pkg/library"
	"github.com/matzehuels/fluidcad/pkg/params"
)

// ConnectionEntity is the entity, and template name, of routed connections
// in the default feature set.
const ConnectionEntity = "Connection"

// controlSuffix names the control-layer twin of a multilayer type.
const controlSuffix = "_control"

var discard = log.New(io.Discard)

// Registry is what connections need from their device: feature lookup,
// id generation and a logger for diagnostics.
type Registry interface {
	FeatureByID(id string) (*Feature, error)
	GenerateID() string
	Logger() *log.Logger
}

// Device owns layers (and through them features) and connections. It is
// the Registry its connections resolve features through.
//
// Device is not safe for concurrent use.
type Device struct {
	name        string
	layers      []*Layer
	connections []*Connection
	features    map[string]*Feature
	owner       map[string]*Layer

	catalog    *library.Catalog
	defaultSet string
	logger     *log.Logger
	newID      func() string
}

var _ Registry = (*Device)(nil)

// Option configures a Device.
type Option func(*Device)

// WithLogger sets the logger used for routing diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(d *Device) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithCatalog sets the feature sets templates resolve against.
func WithCatalog(c *library.Catalog) Option {
	return func(d *Device) {
		if c != nil {
			d.catalog = c
		}
	}
}

// WithDefaultSet names the feature set used when a call leaves the entity
// empty. It defaults to library.BasicName.
func WithDefaultSet(name string) Option {
	return func(d *Device) { d.defaultSet = name }
}

// WithIDGenerator replaces the UUID generator, mostly for tests.
func WithIDGenerator(fn func() string) Option {
	return func(d *Device) {
		if fn != nil {
			d.newID = fn
		}
	}
}

// New creates an empty device with no layers.
func New(name string, opts ...Option) (*Device, error) {
	if err := errors.ValidateName(name); err != nil {
		return nil, err
	}
	d := &Device{
		name:       name,
		features:   make(map[string]*Feature),
		owner:      make(map[string]*Layer),
		defaultSet: library.BasicName,
		logger:     discard,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.catalog == nil {
		d.catalog = library.DefaultCatalog()
	}
	if _, err := d.catalog.Set(d.defaultSet); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Device) Name() string               { return d.name }
func (d *Device) Logger() *log.Logger        { return d.logger }
func (d *Device) GenerateID() string         { return d.newID() }
func (d *Device) Catalog() *library.Catalog  { return d.catalog }
func (d *Device) DefaultSet() string         { return d.defaultSet }
func (d *Device) Layers() []*Layer           { return slices.Clone(d.layers) }
func (d *Device) Connections() []*Connection { return slices.Clone(d.connections) }

// SetName renames the device.
func (d *Device) SetName(name string) error {
	if err := errors.ValidateName(name); err != nil {
		return err
	}
	d.name = name
	return nil
}

// FeatureByID returns the live feature with the given id, or
// UNRESOLVED_FEATURE.
func (d *Device) FeatureByID(id string) (*Feature, error) {
	f, ok := d.features[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnresolvedFeature, "no feature %q in device %q", id, d.name)
	}
	return f, nil
}

// Features returns every feature in layer order.
func (d *Device) Features() []*Feature {
	var out []*Feature
	for _, l := range d.layers {
		out = append(out, l.features...)
	}
	return out
}

// LayerOf returns the layer that holds the feature.
func (d *Device) LayerOf(featureID string) (*Layer, error) {
	l, ok := d.owner[featureID]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnresolvedFeature, "no feature %q in device %q", featureID, d.name)
	}
	return l, nil
}

// Layer returns the layer with the given id.
func (d *Device) Layer(id string) (*Layer, error) {
	for _, l := range d.layers {
		if l.id == id {
			return l, nil
		}
	}
	return nil, errors.New(errors.ErrCodeNotFound, "no layer %q in device %q", id, d.name)
}

// AddLayer appends l. Its features are registered with the device.
func (d *Device) AddLayer(l *Layer) error {
	if _, err := d.Layer(l.id); err == nil {
		return errors.New(errors.ErrCodeDuplicate, "layer %q already exists", l.id)
	}
	for _, f := range l.features {
		if _, dup := d.features[f.id]; dup {
			return errors.New(errors.ErrCodeDuplicate, "feature %q already exists", f.id)
		}
	}
	d.layers = append(d.layers, l)
	for _, f := range l.features {
		d.features[f.id] = f
		d.owner[f.id] = l
	}
	return nil
}

// AddLevel appends a flow, control and integration layer, named after the
// level index, and returns them in that order.
func (d *Device) AddLevel() ([]*Layer, error) {
	level := len(d.layers) / 3
	kinds := []LayerKind{LayerFlow, LayerControl, LayerIntegration}
	out := make([]*Layer, 0, len(kinds))
	for _, k := range kinds {
		l, err := NewLayer(d.GenerateID(), fmt.Sprintf("%d_%s", level, k), k)
		if err != nil {
			return nil, err
		}
		if err := d.AddLayer(l); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

// CreateOption customizes a feature or connection built by MakeFeature or
// MakeConnection.
type CreateOption func(*createOptions)

type createOptions struct {
	name string
	id   string
}

// WithName sets the display name.
func WithName(name string) CreateOption {
	return func(o *createOptions) { o.name = name }
}

// WithID keeps the given id instead of generating one.
func WithID(id string) CreateOption {
	return func(o *createOptions) { o.id = id }
}

func (d *Device) createOptions(defaultName string, opts []CreateOption) createOptions {
	o := createOptions{name: defaultName}
	for _, opt := range opts {
		opt(&o)
	}
	if o.id == "" {
		o.id = d.GenerateID()
	}
	return o
}

func (d *Device) entityOrDefault(entity string) string {
	if entity == "" {
		return d.defaultSet
	}
	return entity
}

// MakeFeature resolves typ in the feature set named entity (the default set
// when empty), fills every declared parameter from the template defaults,
// overlays values and returns a new feature. The feature is not placed on
// a layer; use AddFeature. The default name is "New <entity>.<type>".
func (d *Device) MakeFeature(typ, entity string, values map[string]any, opts ...CreateOption) (*Feature, error) {
	entity = d.entityOrDefault(entity)
	tmpl, err := d.catalog.Template(entity, typ)
	if err != nil {
		return nil, err
	}
	p, err := params.FromDefaults(tmpl.Definition, values)
	if err != nil {
		return nil, fmt.Errorf("make %s.%s: %w", entity, typ, err)
	}
	o := d.createOptions(fmt.Sprintf("New %s.%s", entity, typ), opts)
	return NewFeature(o.id, typ, entity, o.name, p)
}

// AddFeature places f on the layer. Feature ids are unique per device.
func (d *Device) AddFeature(layerID string, f *Feature) error {
	l, err := d.Layer(layerID)
	if err != nil {
		return err
	}
	if _, dup := d.features[f.id]; dup {
		return errors.New(errors.ErrCodeDuplicate, "feature %q already exists", f.id)
	}
	if err := l.add(f); err != nil {
		return err
	}
	d.features[f.id] = f
	d.owner[f.id] = l
	return nil
}

// RemoveFeature deletes the feature from its layer and from every
// connection that referenced it.
func (d *Device) RemoveFeature(id string) error {
	l, err := d.LayerOf(id)
	if err != nil {
		return err
	}
	l.remove(id)
	delete(d.features, id)
	delete(d.owner, id)
	for _, c := range d.connections {
		c.removeFeatureID(id)
	}
	return nil
}

// MakeConnection builds a connection whose type and entity are entity
// (ConnectionEntity when empty), resolved as a template of the default
// feature set. The connection is not added to the device.
func (d *Device) MakeConnection(entity string, values map[string]any, opts ...CreateOption) (*Connection, error) {
	if entity == "" {
		entity = ConnectionEntity
	}
	fs, err := d.catalog.Set(d.defaultSet)
	if err != nil {
		return nil, err
	}
	def, err := fs.Definition(entity)
	if err != nil {
		return nil, err
	}
	p, err := params.FromDefaults(def, values)
	if err != nil {
		return nil, fmt.Errorf("make connection %s: %w", entity, err)
	}
	o := d.createOptions("New "+entity, opts)
	return NewConnection(o.id, entity, o.name, entity, p)
}

// Lookup returns the definition source connections are typed against.
func (d *Device) Lookup() params.Lookup {
	fs, _ := d.catalog.Set(d.defaultSet)
	return fs
}

// Connection returns the connection with the given id.
func (d *Device) Connection(id string) (*Connection, error) {
	for _, c := range d.connections {
		if c.id == id {
			return c, nil
		}
	}
	return nil, errors.New(errors.ErrCodeNotFound, "no connection %q in device %q", id, d.name)
}

// AddConnection appends c. Connection ids are unique per device.
func (d *Device) AddConnection(c *Connection) error {
	if _, err := d.Connection(c.id); err == nil {
		return errors.New(errors.ErrCodeDuplicate, "connection %q already exists", c.id)
	}
	d.connections = append(d.connections, c)
	return nil
}

// RemoveConnection deletes the connection. Its features stay on their
// layers.
func (d *Device) RemoveConnection(id string) error {
	i := slices.IndexFunc(d.connections, func(c *Connection) bool { return c.id == id })
	if i < 0 {
		return errors.New(errors.ErrCodeNotFound, "no connection %q in device %q", id, d.name)
	}
	d.connections = slices.Delete(d.connections, i, i+1)
	return nil
}

// FeatureFootprint returns the area a feature covers according to its
// template's footprint.
func (d *Device) FeatureFootprint(id string) (geometry.Rect, error) {
	f, err := d.FeatureByID(id)
	if err != nil {
		return geometry.Rect{}, err
	}
	tmpl, err := d.catalog.Template(f.entity, f.typ)
	if err != nil {
		return geometry.Rect{}, err
	}
	if tmpl.Footprint == nil {
		return geometry.Rect{}, errors.Unsupported("footprint", f.entity+"."+f.typ)
	}
	return tmpl.Footprint.Bounds(f.params)
}

// UpdateBounds sets the connection's bounds to the union of its features'
// footprints, or to its own routed footprint when it has no features.
func (d *Device) UpdateBounds(connectionID string) error {
	c, err := d.Connection(connectionID)
	if err != nil {
		return err
	}
	if len(c.features) == 0 {
		r, err := c.Footprint()
		if err != nil {
			return err
		}
		return c.SetBounds(r)
	}
	var bounds geometry.Rect
	for i, id := range c.features {
		r, err := d.FeatureFootprint(id)
		if err != nil {
			return err
		}
		if i == 0 {
			bounds = r
		} else {
			bounds = bounds.Union(r)
		}
	}
	return c.SetBounds(bounds)
}

// Route creates a connection along wps, realized by one feature of the
// connection type on the given layer, attaches source and sinks, derives
// segments and records bounds. The device is unchanged on failure.
func (d *Device) Route(layerID string, wps []geometry.Point, source Target, sinks []Target, opts ...CreateOption) (*Connection, error) {
	if _, err := d.Layer(layerID); err != nil {
		return nil, err
	}
	if _, err := DeriveSegments(wps); err != nil {
		return nil, err
	}
	for _, t := range append([]Target{source}, sinks...) {
		if t.IsZero() {
			return nil, errors.New(errors.ErrCodeInvalidReference, "route needs a source and non-empty sinks")
		}
		if err := t.Validate(); err != nil {
			return nil, err
		}
	}

	values := map[string]any{KeyWaypoints: wps}
	c, err := d.MakeConnection("", values, opts...)
	if err != nil {
		return nil, err
	}
	f, err := d.MakeFeature(ConnectionEntity, d.defaultSet, values, WithName(c.name))
	if err != nil {
		return nil, err
	}
	if err := d.AddFeature(layerID, f); err != nil {
		return nil, err
	}
	if err := d.AddConnection(c); err != nil {
		_ = d.RemoveFeature(f.id)
		return nil, err
	}
	rollback := func() {
		_ = d.RemoveConnection(c.id)
		_ = d.RemoveFeature(f.id)
	}

	if err := c.AddFeatureID(f.id); err != nil {
		rollback()
		return nil, err
	}
	for _, t := range append([]Target{source}, sinks...) {
		if err := c.AddConnectionTarget(t); err != nil {
			rollback()
			return nil, err
		}
	}
	if err := c.RegenerateSegments(d); err != nil {
		rollback()
		return nil, err
	}
	if err := d.UpdateBounds(c.id); err != nil {
		rollback()
		return nil, err
	}
	d.logger.Debug("routed connection", "connection", c.id, "waypoints", len(wps), "sinks", len(sinks))
	return c, nil
}

// PlaceMultilayer places a typ feature at the given point on the flow layer
// of the level containing layerID, and a typ+"_control" twin at the same
// point on that level's control layer. The twin copies the flow feature's
// heritable parameters. It returns the flow and control feature ids.
func (d *Device) PlaceMultilayer(layerID, typ string, at geometry.Point) ([]string, error) {
	i := slices.IndexFunc(d.layers, func(l *Layer) bool { return l.id == layerID })
	if i < 0 {
		return nil, errors.New(errors.ErrCodeNotFound, "no layer %q in device %q", layerID, d.name)
	}
	level := i / 3
	if level*3+1 >= len(d.layers) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "level %d has no control layer", level)
	}
	flow, control := d.layers[level*3], d.layers[level*3+1]
	if flow.kind != LayerFlow || control.kind != LayerControl {
		return nil, errors.New(errors.ErrCodeInvalidInput, "level %d is not a flow/control pair", level)
	}

	entity := d.entityOrDefault("")
	for _, t := range []string{typ, typ + controlSuffix} {
		if _, err := d.catalog.Template(entity, t); err != nil {
			return nil, err
		}
	}

	values := map[string]any{KeyPosition: at}
	f, err := d.MakeFeature(typ, "", values)
	if err != nil {
		return nil, err
	}
	twin, err := d.MakeFeature(typ+controlSuffix, "", values)
	if err != nil {
		return nil, err
	}
	if err := twin.SetParams(f.params); err != nil {
		return nil, err
	}
	if err := d.AddFeature(flow.id, f); err != nil {
		return nil, err
	}
	if err := d.AddFeature(control.id, twin); err != nil {
		_ = d.RemoveFeature(f.id)
		return nil, err
	}
	return []string{f.id, twin.id}, nil
}

// Validate checks cross-object invariants: every feature has a value for
// every declared parameter and every connection's features resolve.
func (d *Device) Validate() error {
	for _, f := range d.Features() {
		if missing := f.params.Missing(); len(missing) > 0 {
			return errors.New(errors.ErrCodeInvalidFormat, "feature %s is missing parameters %v", f.id, missing)
		}
	}
	for _, c := range d.connections {
		if missing := c.params.Missing(); len(missing) > 0 {
			return errors.New(errors.ErrCodeInvalidFormat, "connection %s is missing parameters %v", c.id, missing)
		}
		for _, id := range c.features {
			if _, err := d.FeatureByID(id); err != nil {
				return fmt.Errorf("connection %s: %w", c.id, err)
			}
		}
	}
	return nil
}
