// Package interchange converts devices, features and connections to and
// from the version 1 interchange format.
//
// # Overview
//
// The interchange format is the portable form of a device design. It is
// written as JSON for files and the HTTP API, and as msgpack for compact
// storage; both encodings share field names.
//
// # Connection Format
//
//	{
//	  "id": "5b0c…",
//	  "name": "main",
//	  "entity": "Connection",
//	  "source": {"component": "port-a", "port": "1"},
//	  "sinks": [{"component": "port-b", "port": "1"}],
//	  "params": {"channelWidth": 800, "wayPoints": [[0, 0], [100, 0]], ...},
//	  "features": ["9f3e…"]
//	}
//
// Required fields: id, name, entity, params. source may be absent or null,
// sinks absent or empty. features is omitted when the connection has none.
//
// Params are untyped in the document. Decoding re-attaches each kind from
// the definition the feature-set library declares for the entity, so the
// library rather than the document decides what kind a value has. A value
// that does not fit fails with TYPE_MISMATCH, an undeclared key with
// UNKNOWN_PARAMETER and a non-string component or port with
// INVALID_REFERENCE. Any failure fails the whole decode.
//
// # Device Format
//
//	{
//	  "version": 1,
//	  "name": "mixer",
//	  "layers": [{"id": "…", "name": "0_FLOW", "type": "FLOW", "features": [...]}],
//	  "connections": [...]
//	}
//
// Features carry {id, name, type, entity, params}.
package interchange
