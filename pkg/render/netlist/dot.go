package netlist

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/fluidcad/pkg/device"
	"github.com/matzehuels/fluidcad/pkg/render"
)

// Options configures netlist rendering.
type Options struct {
	// Detailed adds feature types to component labels and channel widths
	// to connection labels.
	Detailed bool
}

// ToDOT converts the connectivity of d to Graphviz DOT. Every component
// named by a connection target becomes a node; every connection adds one
// edge from its source to each sink. Components that are not features of d
// are drawn dashed. Connections without a source contribute nodes only.
func ToDOT(d *device.Device, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph netlist {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontsize=10];\n")
	buf.WriteString("\n")

	conns := d.Connections()
	for _, id := range components(conns) {
		attrs := nodeAttrs(d, id, opts.Detailed)
		fmt.Fprintf(&buf, "  %q [%s];\n", id, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, c := range conns {
		src, ok := c.Source()
		if !ok {
			continue
		}
		label := edgeLabel(c, opts.Detailed)
		for _, sink := range c.Sinks() {
			attrs := []string{fmt.Sprintf("label=%q", label)}
			if src.Port != "" {
				attrs = append(attrs, fmt.Sprintf("taillabel=%q", string(src.Port)))
			}
			if sink.Port != "" {
				attrs = append(attrs, fmt.Sprintf("headlabel=%q", string(sink.Port)))
			}
			fmt.Fprintf(&buf, "  %q -> %q [%s];\n", string(src.Component), string(sink.Component), strings.Join(attrs, ", "))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// components returns every component referenced by conns, sorted.
func components(conns []*device.Connection) []string {
	seen := make(map[string]bool)
	for _, c := range conns {
		if src, ok := c.Source(); ok {
			seen[string(src.Component)] = true
		}
		for _, s := range c.Sinks() {
			seen[string(s.Component)] = true
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func nodeAttrs(d *device.Device, id string, detailed bool) []string {
	f, err := d.FeatureByID(id)
	if err != nil {
		return []string{fmt.Sprintf("label=%q", id), "style=\"rounded,dashed\""}
	}
	label := f.Name()
	if detailed {
		label += "\n" + f.Type()
	}
	return []string{fmt.Sprintf("label=%q", label)}
}

func edgeLabel(c *device.Connection, detailed bool) string {
	if !detailed {
		return c.Name()
	}
	w, err := c.Value(device.KeyWidth)
	if err != nil {
		return c.Name()
	}
	return fmt.Sprintf("%s\n%v µm", c.Name(), w)
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-sized svg header with one
// that scales.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}

// RenderPDF renders a DOT graph as PDF via SVG. Requires librsvg.
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders a DOT graph as PNG via SVG. Requires librsvg.
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
