package cli

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/fluidcad/pkg/device"
	fcerrors "github.com/matzehuels/fluidcad/pkg/errors"
	"github.com/matzehuels/fluidcad/pkg/geometry"
)

// routeOpts holds the command-line flags for the route command.
type routeOpts struct {
	layer  string   // layer id; empty selects the first flow layer
	name   string   // connection name; empty generates one
	from   string   // source target
	to     []string // sink targets
	via    []string // waypoints as "x,y"
	gaps   []string // obstacle boxes as "x,y,w,h"
	create bool     // create the document when it does not exist
	output string   // output path; empty overwrites the input
}

// routeCommand creates the route command for adding connections.
func (c *CLI) routeCommand() *cobra.Command {
	var opts routeOpts

	cmd := &cobra.Command{
		Use:   "route [file]",
		Short: "Add a routed connection to a device document",
		Long: `Route a connection through the given waypoints from a source component to
one or more sinks. Targets are written as component or component.port.

Each --gap box splits every segment that crosses it, leaving a gap where
the segment passes through the box.`,
		Example: `  fluidcad route chip.json --create --from inlet --to mixer.1 --via 0,0 --via 5000,0
  fluidcad route chip.json --from mixer.2 --to out1 --to out2 --via 5000,0 --via 5000,4000 --gap 4500,1000,1000,1000`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDocuments,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRoute(cmd.Context(), cmd.OutOrStdout(), args[0], &opts)
		},
	}

	cmd.Flags().StringVar(&opts.layer, "layer", "", "layer id (default: first flow layer)")
	cmd.Flags().StringVar(&opts.name, "name", "", "connection name")
	cmd.Flags().StringVar(&opts.from, "from", "", "source component[.port]")
	cmd.Flags().StringArrayVar(&opts.to, "to", nil, "sink component[.port] (repeatable)")
	cmd.Flags().StringArrayVar(&opts.via, "via", nil, "waypoint x,y in µm (repeatable, at least two)")
	cmd.Flags().StringArrayVar(&opts.gaps, "gap", nil, "obstacle box x,y,width,height to split around (repeatable)")
	cmd.Flags().BoolVar(&opts.create, "create", false, "create the document with one level if it does not exist")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: overwrite input)")
	_ = cmd.RegisterFlagCompletionFunc("layer", c.completeLayers)
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func (c *CLI) runRoute(ctx context.Context, w io.Writer, path string, opts *routeOpts) error {
	logger := loggerFromContext(ctx)

	wps := make([]geometry.Point, 0, len(opts.via))
	for _, v := range opts.via {
		xy, err := parseFloats(v, 2)
		if err != nil {
			return err
		}
		wps = append(wps, geometry.Pt(xy[0], xy[1]))
	}
	boxes := make([]geometry.Rect, 0, len(opts.gaps))
	for _, g := range opts.gaps {
		r, err := parseFloats(g, 4)
		if err != nil {
			return err
		}
		boxes = append(boxes, geometry.NewRect(r[0], r[1], r[2], r[3]))
	}
	src, err := parseTarget(opts.from)
	if err != nil {
		return err
	}
	sinks := make([]device.Target, 0, len(opts.to))
	for _, s := range opts.to {
		t, err := parseTarget(s)
		if err != nil {
			return err
		}
		sinks = append(sinks, t)
	}

	d, err := c.openOrCreate(path, opts.create)
	if err != nil {
		return err
	}
	layer := opts.layer
	if layer == "" {
		if layer, err = firstFlowLayer(d); err != nil {
			return err
		}
	}

	var create []device.CreateOption
	if opts.name != "" {
		create = append(create, device.WithName(opts.name))
	}
	conn, err := d.Route(layer, wps, src, sinks, create...)
	if err != nil {
		return err
	}
	for _, box := range boxes {
		if err := conn.InsertFeatureGap(d, box); err != nil {
			return err
		}
	}
	if len(boxes) > 0 {
		if err := d.UpdateBounds(conn.ID()); err != nil {
			return err
		}
	}

	out := opts.output
	if out == "" {
		out = path
	}
	if err := writeDevice(d, out); err != nil {
		return err
	}
	logger.Debug("wrote device", "path", out, "connections", len(d.Connections()))

	segs, _ := conn.Segments()
	printSuccess(w, "Routed %s", conn.Name())
	printStats(w, connectionSummary(conn), plural(len(segs), "segment"))
	printFile(w, out)
	return nil
}

// openOrCreate reads the document at path. With create set, a missing file
// yields a new device named after the file with one level of layers.
func (c *CLI) openOrCreate(path string, create bool) (*device.Device, error) {
	opts, err := c.deviceOptions()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); !create || !errors.Is(err, fs.ErrNotExist) {
		return readDevice(path, opts...)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	d, err := device.New(name, opts...)
	if err != nil {
		return nil, err
	}
	if _, err := d.AddLevel(); err != nil {
		return nil, err
	}
	return d, nil
}

func firstFlowLayer(d *device.Device) (string, error) {
	for _, l := range d.Layers() {
		if l.Kind() == device.LayerFlow {
			return l.ID(), nil
		}
	}
	return "", fcerrors.New(fcerrors.ErrCodeInvalidInput, "device %s has no flow layer; pass --layer", d.Name())
}
