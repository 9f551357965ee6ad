package interchange

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/matzehuels/fluidcad/pkg/device"
	"github.com/matzehuels/fluidcad/pkg/errors"
	"github.com/matzehuels/fluidcad/pkg/params"
)

// TargetV1 is a connection endpoint: a port on a component.
type TargetV1 struct {
	Component string `json:"component" msgpack:"component" bson:"component"`
	Port      string `json:"port" msgpack:"port" bson:"port"`
}

// UnmarshalJSON rejects endpoints whose component or port is not a string
// with INVALID_REFERENCE rather than a generic decode error.
func (t *TargetV1) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidReference, err, "connection target")
	}
	return t.fromMap(raw)
}

// DecodeMsgpack applies the same checks as UnmarshalJSON.
func (t *TargetV1) DecodeMsgpack(dec *msgpack.Decoder) error {
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidReference, err, "connection target")
	}
	return t.fromMap(raw)
}

func (t *TargetV1) fromMap(raw map[string]any) error {
	comp, ok := raw["component"].(string)
	if !ok {
		return errors.New(errors.ErrCodeInvalidReference, "connection target component must be a string, got %T", raw["component"])
	}
	var port string
	switch p := raw["port"].(type) {
	case nil:
	case string:
		port = p
	default:
		return errors.New(errors.ErrCodeInvalidReference, "connection target port must be a string, got %T", p)
	}
	*t = TargetV1{Component: comp, Port: port}
	return nil
}

func targetToV1(t device.Target) TargetV1 {
	return TargetV1{Component: string(t.Component), Port: string(t.Port)}
}

// ConnectionV1 is the interchange form of a connection. Source is null when
// unset; Features is omitted when the connection has no features.
type ConnectionV1 struct {
	ID       string         `json:"id" msgpack:"id" bson:"id"`
	Name     string         `json:"name" msgpack:"name" bson:"name"`
	Entity   string         `json:"entity" msgpack:"entity" bson:"entity"`
	Source   *TargetV1      `json:"source" msgpack:"source" bson:"source"`
	Sinks    []TargetV1     `json:"sinks" msgpack:"sinks" bson:"sinks"`
	Params   map[string]any `json:"params" msgpack:"params" bson:"params"`
	Features []string       `json:"features,omitempty" msgpack:"features,omitempty" bson:"features,omitempty"`
}

var requiredConnectionFields = []string{"id", "name", "entity", "params"}

// UnmarshalJSON requires id, name, entity and params to be present.
// source and sinks may be absent or null.
func (c *ConnectionV1) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "connection")
	}
	for _, k := range requiredConnectionFields {
		if _, ok := fields[k]; !ok {
			return errors.New(errors.ErrCodeInvalidFormat, "connection: missing required field %q", k)
		}
	}

	type plain ConnectionV1
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		if errors.GetCode(err) != "" {
			return err
		}
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "connection")
	}
	*c = ConnectionV1(p)
	return nil
}

// ConnectionToV1 converts c to its interchange form.
func ConnectionToV1(c *device.Connection) ConnectionV1 {
	doc := ConnectionV1{
		ID:       c.ID(),
		Name:     c.Name(),
		Entity:   c.Entity(),
		Sinks:    []TargetV1{},
		Params:   c.Params().ToSerializable(),
		Features: c.FeatureIDs(),
	}
	if src, ok := c.Source(); ok {
		t := targetToV1(src)
		doc.Source = &t
	}
	for _, s := range c.Sinks() {
		doc.Sinks = append(doc.Sinks, targetToV1(s))
	}
	return doc
}

// ConnectionFromV1 rebuilds a connection. Parameter kinds come from
// lookup.Definition(doc.Entity), not from the document. The id is kept.
// Any invalid part fails the whole conversion.
func ConnectionFromV1(lookup params.Lookup, doc ConnectionV1) (*device.Connection, error) {
	if doc.ID == "" {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "connection: missing id")
	}
	if doc.Entity == "" {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "connection %s: missing entity", doc.ID)
	}
	if doc.Params == nil {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "connection %s: missing params", doc.ID)
	}

	def, err := lookup.Definition(doc.Entity)
	if err != nil {
		return nil, fmt.Errorf("connection %s: %w", doc.ID, err)
	}
	p, err := params.FromSerializable(def, doc.Params)
	if err != nil {
		return nil, fmt.Errorf("connection %s: %w", doc.ID, err)
	}

	c, err := device.NewConnection(doc.ID, doc.Entity, doc.Name, doc.Entity, p)
	if err != nil {
		return nil, err
	}
	if doc.Source != nil {
		if err := c.SetSource(doc.Source.Component, doc.Source.Port); err != nil {
			return nil, fmt.Errorf("connection %s source: %w", doc.ID, err)
		}
	}
	for i, s := range doc.Sinks {
		if err := c.AddSink(s.Component, s.Port); err != nil {
			return nil, fmt.Errorf("connection %s sink %d: %w", doc.ID, i, err)
		}
	}
	for _, id := range doc.Features {
		if err := c.AddFeatureID(id); err != nil {
			return nil, fmt.Errorf("connection %s: %w", doc.ID, err)
		}
	}
	return c, nil
}

// EncodeConnection marshals c as interchange JSON.
func EncodeConnection(c *device.Connection) ([]byte, error) {
	return json.Marshal(ConnectionToV1(c))
}

// DecodeConnection parses interchange JSON and rebuilds the connection.
func DecodeConnection(lookup params.Lookup, data []byte) (*device.Connection, error) {
	var doc ConnectionV1
	if err := json.Unmarshal(data, &doc); err != nil {
		if errors.GetCode(err) != "" {
			return nil, err
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode connection")
	}
	return ConnectionFromV1(lookup, doc)
}
