// Package netlist renders the connectivity of a device as a node-link
// diagram.
//
// Components referenced by connection targets are boxes; a connection with
// a source and n sinks is n arrows labeled with the connection name. Port
// names appear at the arrow ends. When a component id resolves to a feature
// of the device, the box shows the feature name; otherwise the raw id is
// shown with a dashed outline, which makes dangling targets easy to spot.
//
//	dot := netlist.ToDOT(d, netlist.Options{Detailed: true})
//	svg, err := netlist.RenderSVG(dot)
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package netlist
