// Package library provides feature-set templates: the per-technology
// definitions that say which parameters a feature type accepts, their
// defaults and bounds, how the type is placed and what area it covers.
//
// Feature sets are declared in TOML. The built-in "Basic" set is embedded
// and available through [Basic]; additional sets load with [LoadFile] and
// are grouped in a [Catalog] keyed by set name (the entity recorded on
// every feature).
//
// Footprints are tagged variants ([LineFootprint], [CircleFootprint],
// [PolylineFootprint], [RectFootprint]) selected by the `shape` field of a
// template, rather than per-type code.
package library
