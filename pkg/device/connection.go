package device

import (
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/fluidcad/pkg/errors"
	"github.com/matzehuels/fluidcad/pkg/geometry"
	"github.com/matzehuels/fluidcad/pkg/library"
	"github.com/matzehuels/fluidcad/pkg/observability"
	"github.com/matzehuels/fluidcad/pkg/params"
)

// Parameter keys a connection's definition is expected to declare.
const (
	KeyWaypoints = "wayPoints"
	KeySegments  = "segments"
	KeyPosition  = "position"
	KeyXSpan     = "xspan"
	KeyYSpan     = "yspan"
	KeyWidth     = "channelWidth"
)

// Connection is a routed link from a source target to zero or more sinks.
// Its route lives in the wayPoints and segments parameters. The features
// that draw the connection on each layer are referenced by id only;
// SetParams and UpdateSegments push values into them through a Registry.
//
// Connection is not safe for concurrent use.
type Connection struct {
	id       string
	typ      string
	name     string
	entity   string
	params   *params.Params
	features []string
	source   *Target
	sinks    []Target
}

// NewConnection assembles a connection. The id is kept for the life of the
// connection.
func NewConnection(id, typ, name, entity string, p *params.Params) (*Connection, error) {
	if err := errors.ValidateReference("connection", id); err != nil {
		return nil, err
	}
	if err := errors.ValidateName(name); err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "connection %s has no parameters", id)
	}
	return &Connection{id: id, typ: typ, name: name, entity: entity, params: p.Clone()}, nil
}

func (c *Connection) ID() string     { return c.id }
func (c *Connection) Type() string   { return c.typ }
func (c *Connection) Entity() string { return c.entity }
func (c *Connection) Name() string   { return c.name }

// SetName renames the connection.
func (c *Connection) SetName(name string) error {
	if err := errors.ValidateName(name); err != nil {
		return err
	}
	c.name = name
	return nil
}

// Params returns a copy of the connection's parameters.
func (c *Connection) Params() *params.Params { return c.params.Clone() }

// Value returns the typed value stored at key.
func (c *Connection) Value(key string) (any, error) {
	return c.params.Value(key)
}

// Waypoints returns the user-placed route points.
func (c *Connection) Waypoints() ([]geometry.Point, error) {
	p, ok := c.params.Get(KeyWaypoints)
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "connection %s has no %s", c.id, KeyWaypoints)
	}
	return p.Points()
}

// Segments returns the routed segments.
func (c *Connection) Segments() ([]geometry.Segment, error) {
	p, ok := c.params.Get(KeySegments)
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "connection %s has no %s", c.id, KeySegments)
	}
	return p.Segments()
}

// Position returns the top-left corner recorded by SetBounds.
func (c *Connection) Position() (geometry.Point, error) {
	p, ok := c.params.Get(KeyPosition)
	if !ok {
		return geometry.Point{}, errors.New(errors.ErrCodeNotFound, "connection %s has no %s", c.id, KeyPosition)
	}
	return p.Point()
}

// FeatureIDs returns the ids of the features realizing the connection.
func (c *Connection) FeatureIDs() []string { return slices.Clone(c.features) }

// Source returns the source target and whether one is set.
func (c *Connection) Source() (Target, bool) {
	if c.source == nil {
		return Target{}, false
	}
	return *c.source, true
}

// Sinks returns the sink targets in insertion order.
func (c *Connection) Sinks() []Target { return slices.Clone(c.sinks) }

// SetBounds records the rectangle's top-left corner as position and its
// size as xspan and yspan. No geometry is computed.
func (c *Connection) SetBounds(r geometry.Rect) error {
	staged := c.params.Clone()
	if err := staged.SetValue(KeyPosition, r.TopLeft()); err != nil {
		return err
	}
	if err := staged.SetValue(KeyXSpan, r.Width); err != nil {
		return err
	}
	if err := staged.SetValue(KeyYSpan, r.Height); err != nil {
		return err
	}
	c.params = staged
	return nil
}

// UpdateParameter replaces one value on the connection only. Features are
// not touched; use SetParams to fan values out.
func (c *Connection) UpdateParameter(key string, value any) error {
	if p, ok := value.(params.Parameter); ok {
		return c.params.Set(key, p)
	}
	return c.params.SetValue(key, value)
}

// SetParams replaces the parameter set and pushes every value, key by key in
// sorted order, into every feature in FeatureIDs order. Every feature is
// resolved and every value staged before anything is committed: an
// unresolved feature or a rejected value leaves the connection and all of
// its features unchanged.
func (c *Connection) SetParams(reg Registry, p *params.Params) error {
	if p == nil {
		return errors.New(errors.ErrCodeInvalidInput, "connection %s: nil parameters", c.id)
	}
	next := p.Clone()
	updates, err := c.stage(reg, func(fp *params.Params) error {
		for _, key := range next.Keys() {
			v, _ := next.Get(key)
			if err := fp.Set(key, v); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	c.params = next
	commit(updates)
	return nil
}

// UpdateSegments stores segs and forwards them to every feature. Like
// SetParams it commits nothing unless every feature accepts the value.
func (c *Connection) UpdateSegments(reg Registry, segs []geometry.Segment) error {
	param, err := params.New(params.KindSegmentArray, segs)
	if err != nil {
		return errors.Wrap(errors.ErrCodeMalformedGeometry, err, "connection %s", c.id)
	}
	next := c.params.Clone()
	if err := next.Set(KeySegments, param); err != nil {
		return err
	}
	updates, err := c.stage(reg, func(fp *params.Params) error {
		return fp.Set(KeySegments, param)
	})
	if err != nil {
		return err
	}
	c.params = next
	commit(updates)
	return nil
}

// RegenerateSegments rebuilds segments from the wayPoints parameter and
// stores them through UpdateSegments. Fewer than two waypoints, a
// non-finite coordinate or a repeated waypoint fails with
// MALFORMED_GEOMETRY before anything changes.
func (c *Connection) RegenerateSegments(reg Registry) error {
	wps, err := c.Waypoints()
	if err != nil {
		return err
	}
	segs, err := DeriveSegments(wps)
	if err != nil {
		return errors.Wrap(errors.ErrCodeMalformedGeometry, err, "connection %s", c.id)
	}
	if err := c.UpdateSegments(reg, segs); err != nil {
		return err
	}
	observability.Routing().OnSegmentsRegenerated(c.id, len(segs))
	return nil
}

// AddWaypoint appends p to the route without regenerating segments.
func (c *Connection) AddWaypoint(p geometry.Point) error {
	if !p.IsFinite() {
		return errors.New(errors.ErrCodeMalformedGeometry, "waypoint is not finite: %s", p)
	}
	wps, err := c.Waypoints()
	if err != nil {
		return err
	}
	return c.params.SetValue(KeyWaypoints, append(wps, p))
}

// SetWaypoints replaces the route and regenerates segments. Invalid
// routes leave the connection unchanged.
func (c *Connection) SetWaypoints(reg Registry, wps []geometry.Point) error {
	if _, err := DeriveSegments(wps); err != nil {
		return errors.Wrap(errors.ErrCodeMalformedGeometry, err, "connection %s", c.id)
	}
	prev := c.params.Clone()
	if err := c.params.SetValue(KeyWaypoints, wps); err != nil {
		return err
	}
	if err := c.RegenerateSegments(reg); err != nil {
		c.params = prev
		return err
	}
	return nil
}

// InsertFeatureGap splits the route around box so a feature can sit in the
// gap. Each segment whose line crosses the box border twice is replaced by
// the two pieces outside it (see BreakSegment); segments touching the
// border once are logged and left whole. The new list is committed with a
// single UpdateSegments call.
func (c *Connection) InsertFeatureGap(reg Registry, box geometry.Rect) error {
	segs, err := c.Segments()
	if err != nil {
		return err
	}
	res, err := SplitAroundBox(segs, box)
	if err != nil {
		return err
	}

	logger := loggerOf(reg)
	for _, t := range res.Tangents {
		logger.Warn("tangential intersection, segment left unsplit",
			"connection", c.id, "segment", t.Segment, "at", t.At.String())
		observability.Routing().OnTangentialIntersection(c.id, t.Segment)
	}

	if err := c.UpdateSegments(reg, res.Segments); err != nil {
		return err
	}
	logger.Debug("inserted feature gap", "connection", c.id, "splits", res.Splits, "segments", len(res.Segments))
	observability.Routing().OnGapInserted(c.id, res.Splits)
	return nil
}

// Footprint returns the area covered by the routed segments, widened by
// half the channel width on every side.
func (c *Connection) Footprint() (geometry.Rect, error) {
	return library.PolylineFootprint{Segments: KeySegments, Width: KeyWidth}.Bounds(c.params)
}

// SetSource sets the source to (component, port). An invalid component or
// port reference fails with INVALID_REFERENCE.
func (c *Connection) SetSource(component, port string) error {
	t, err := NewTarget(component, port)
	if err != nil {
		return err
	}
	c.source = &t
	return nil
}

// AddSink appends (component, port) to the sinks.
func (c *Connection) AddSink(component, port string) error {
	t, err := NewTarget(component, port)
	if err != nil {
		return err
	}
	c.sinks = append(c.sinks, t)
	return nil
}

// AddConnectionTarget makes t the source when none is set and appends it to
// the sinks otherwise. Duplicate sinks are kept.
func (c *Connection) AddConnectionTarget(t Target) error {
	if t.IsZero() {
		return errors.New(errors.ErrCodeInvalidReference, "connection %s: empty connection target", c.id)
	}
	if err := t.Validate(); err != nil {
		return err
	}
	if c.source == nil {
		c.source = &t
		return nil
	}
	c.sinks = append(c.sinks, t)
	return nil
}

// AddFeatureID records a feature that realizes the connection.
func (c *Connection) AddFeatureID(id string) error {
	if err := errors.ValidateReference("feature", id); err != nil {
		return err
	}
	c.features = append(c.features, id)
	return nil
}

func (c *Connection) removeFeatureID(id string) {
	c.features = slices.DeleteFunc(c.features, func(f string) bool { return f == id })
}

type stagedUpdate struct {
	feature *Feature
	params  *params.Params
}

// stage resolves every feature in order and applies fn to a copy of its
// parameters. The first failure aborts with nothing applied.
func (c *Connection) stage(reg Registry, fn func(*params.Params) error) ([]stagedUpdate, error) {
	if len(c.features) == 0 {
		return nil, nil
	}
	if reg == nil {
		return nil, errors.New(errors.ErrCodeUnresolvedFeature, "connection %s: no registry to resolve %d features", c.id, len(c.features))
	}
	updates := make([]stagedUpdate, 0, len(c.features))
	for _, id := range c.features {
		f, err := reg.FeatureByID(id)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeUnresolvedFeature, err, "connection %s: feature %s", c.id, id)
		}
		fp := f.params.Clone()
		if err := fn(fp); err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "connection %s: feature %s", c.id, id)
		}
		updates = append(updates, stagedUpdate{feature: f, params: fp})
	}
	return updates, nil
}

func commit(updates []stagedUpdate) {
	for _, u := range updates {
		u.feature.params = u.params
	}
}

func loggerOf(reg Registry) *log.Logger {
	if reg != nil {
		if l := reg.Logger(); l != nil {
			return l
		}
	}
	return discard
}
