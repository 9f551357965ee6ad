package device

import (
	"fmt"

	"github.com/matzehuels/fluidcad/pkg/errors"
)

// ComponentID identifies a component a connection attaches to.
// Values built with NewComponentID are validated references.
type ComponentID string

// PortID identifies a port on a component.
type PortID string

// NewComponentID validates s as a component reference.
func NewComponentID(s string) (ComponentID, error) {
	if err := errors.ValidateReference("component", s); err != nil {
		return "", err
	}
	return ComponentID(s), nil
}

// NewPortID validates s as a port reference. Ports may be empty for
// components with a single implicit port.
func NewPortID(s string) (PortID, error) {
	if s == "" {
		return "", nil
	}
	if err := errors.ValidateReference("port", s); err != nil {
		return "", err
	}
	return PortID(s), nil
}

// Target references a port on a component. It is a value: two targets are
// equal when both fields are equal, and neither field changes after
// construction.
type Target struct {
	Component ComponentID `json:"component" msgpack:"component" bson:"component"`
	Port      PortID      `json:"port" msgpack:"port" bson:"port"`
}

// NewTarget validates both references and returns the target.
func NewTarget(component, port string) (Target, error) {
	c, err := NewComponentID(component)
	if err != nil {
		return Target{}, err
	}
	p, err := NewPortID(port)
	if err != nil {
		return Target{}, err
	}
	return Target{Component: c, Port: p}, nil
}

// MustTarget is like NewTarget but panics on error.
func MustTarget(component, port string) Target {
	t, err := NewTarget(component, port)
	if err != nil {
		panic(err)
	}
	return t
}

// IsZero reports whether t was never set.
func (t Target) IsZero() bool { return t.Component == "" }

// Validate re-checks a target that may have been built as a struct literal.
func (t Target) Validate() error {
	_, err := NewTarget(string(t.Component), string(t.Port))
	return err
}

func (t Target) String() string {
	if t.Port == "" {
		return string(t.Component)
	}
	return fmt.Sprintf("%s.%s", t.Component, t.Port)
}
