// Package params implements the typed parameter system shared by features
// and connections.
//
// # Overview
//
// Every attribute of a device element (a channel's width, a valve's
// position, a connection's waypoints) is a [Parameter]: a value tagged with
// a [Kind]. A [Params] set groups parameters under a [Definition] that
// declares which keys a type accepts, whether each key is unique to an
// instance or heritable, its display unit and its numeric bounds.
//
//	def := params.Definition{
//	    Heritable: map[string]params.Kind{"channelWidth": params.KindFloat},
//	    Minimum:   map[string]float64{"channelWidth": 3},
//	    Maximum:   map[string]float64{"channelWidth": 2000},
//	}
//	p := params.NewSet(def)
//	err := p.SetValue("channelWidth", 1.5) // TYPE_MISMATCH: below minimum
//
// # Serialization
//
// [Params.ToSerializable] strips the kind tags for the interchange format.
// [FromSerializable] restores them from the definition, so the definition
// rather than the document decides what kind a value has.
package params
