// Package pkg provides the core libraries for fluidcad microfluidic device design.
//
// # Overview
//
// A device is a stack of layers holding features (ports, channels, valves,
// chambers) and a set of connections that route fluid between component
// ports. The pkg directory is organized into four main areas:
//
//  1. Model - [params], [library], [device] and [geometry]
//  2. Serialization - [interchange]
//  3. Infrastructure - [store], [observability], [errors] and [buildinfo]
//  4. Surfaces - [render] and [server]
//
// # Architecture
//
// The typical data flow when a connection is edited:
//
//	waypoints (editor, CLI, HTTP)
//	         ↓
//	    [device] Connection.SetWaypoints / RegenerateSegments
//	         ↓
//	    segments fanned out to the connection's realizing features
//	         ↓
//	    [interchange] version 1 document
//	         ↓
//	    [store] file / sqlite / redis / mongo
//
// # Quick Start
//
// Route a connection and save the device:
//
//	import (
//	    "github.com/matzehuels/fluidcad/pkg/device"
//	    "github.com/matzehuels/fluidcad/pkg/geometry"
//	    "github.com/matzehuels/fluidcad/pkg/interchange"
//	)
//
//	d, _ := device.New("mixer")
//	layers, _ := d.AddLevel()
//	c, err := d.Route(layers[0].ID(),
//	    []geometry.Point{geometry.Pt(0, 0), geometry.Pt(5000, 0)},
//	    device.MustTarget("inlet", ""),
//	    []device.Target{device.MustTarget("chamber", "1")})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_ = c.InsertFeatureGap(d, geometry.NewRect(2000, -500, 1000, 1000))
//	_ = interchange.ExportJSON(d, "mixer.json")
//
// # Package Organization
//
// ## Model
//
// [params] - Typed parameter values and the definitions that declare which
// keys a feature type accepts, their kinds, units and bounds.
//
// [library] - Feature sets (technologies) loaded from TOML. The embedded
// Basic set declares Channel, Connection, Port, Chamber and Valve.
//
// [device] - Layers, features, connection targets and connections. The
// Device is the registry connections resolve their feature ids against;
// the segment router lives here too.
//
// [geometry] - Points, segments, rectangles and segment/rectangle
// intersection.
//
// ## Serialization
//
// [interchange] - The version 1 document format as JSON and msgpack.
//
// ## Infrastructure
//
// [store] - Document storage with memory, file, SQLite, Redis and MongoDB
// backends behind one interface.
//
// [observability] - Hook registry for routing, store and HTTP events with
// no-op defaults and a Prometheus implementation.
//
// [errors] - Coded errors shared by every package.
//
// ## Surfaces
//
// [render] - Netlist diagrams via Graphviz and SVG conversion.
//
// [server] - REST API over a store.
//
// # Testing
//
// Run tests:
//
//	go test ./...                        # All tests
//	go test ./pkg/device/...             # Specific package
//	go test -tags integration ./pkg/...  # Include Redis and MongoDB tests
//
// [params]: https://pkg.go.dev/github.com/matzehuels/fluidcad/pkg/params
// [library]: https://pkg.go.dev/github.com/matzehuels/fluidcad/pkg/library
// [device]: https://pkg.go.dev/github.com/matzehuels/fluidcad/pkg/device
// [geometry]: https://pkg.go.dev/github.com/matzehuels/fluidcad/pkg/geometry
// [interchange]: https://pkg.go.dev/github.com/matzehuels/fluidcad/pkg/interchange
// [store]: https://pkg.go.dev/github.com/matzehuels/fluidcad/pkg/store
// [observability]: https://pkg.go.dev/github.com/matzehuels/fluidcad/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/fluidcad/pkg/errors
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/fluidcad/pkg/buildinfo
// [render]: https://pkg.go.dev/github.com/matzehuels/fluidcad/pkg/render
// [server]: https://pkg.go.dev/github.com/matzehuels/fluidcad/pkg/server
package pkg
