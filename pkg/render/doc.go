// Package render turns device designs into pictures.
//
// The [netlist] subpackage draws the connectivity of a device as a Graphviz
// diagram: components are boxes and every connection is an arrow from its
// source to each sink.
//
//	dot := netlist.ToDOT(d, netlist.Options{})
//	svg, err := netlist.RenderSVG(dot)
//	pdf, err := render.ToPDF(ctx, svg)
//
// [Converter] turns any SVG into PDF or PNG with the external rsvg-convert
// tool from librsvg; [ToPDF] and [ToPNG] use the default one.
//
// [netlist]: github.com/matzehuels/fluidcad/pkg/render/netlist
package render
