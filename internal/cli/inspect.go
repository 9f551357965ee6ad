package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/fluidcad/pkg/device"
)

// inspectCommand creates the inspect command for summarizing device documents.
func (c *CLI) inspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [file]",
		Short: "Load a device document and summarize its layers and connections",
		Long: `Load a JSON or msgpack device document, rebuild every feature and connection
against the feature-set library and print a summary. Loading fails on the
first invalid parameter, reference or geometry.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDocuments,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.deviceOptions()
			if err != nil {
				return err
			}
			d, err := readDevice(args[0], opts...)
			if err != nil {
				return err
			}
			printDevice(cmd.OutOrStdout(), d)
			return nil
		},
	}
}

func printDevice(w io.Writer, d *device.Device) {
	layers, conns := d.Layers(), d.Connections()
	printTitle(w, d.Name())
	printStats(w, plural(len(layers), "layer"), plural(len(d.Features()), "feature"), plural(len(conns), "connection"))

	for _, l := range layers {
		printKeyValue(w, string(l.Kind()), fmt.Sprintf("%s (%s) · %s", l.Name(), l.ID(), plural(l.Len(), "feature")))
	}

	for _, conn := range conns {
		printInfo(w, "%s %s", conn.Name(), StyleDim.Render(conn.ID()))
		printDetail(w, "%s", connectionSummary(conn))
		if segs, err := conn.Segments(); err == nil {
			detail := plural(len(segs), "segment")
			if width, err := conn.Value(device.KeyWidth); err == nil {
				detail += fmt.Sprintf(" · %v µm wide", width)
			}
			printDetail(w, "%s", detail)
		}
	}

	if err := d.Validate(); err != nil {
		printWarning(w, "%v", err)
	}
}

// connectionSummary renders "src → sink1, sink2".
func connectionSummary(conn *device.Connection) string {
	src := "(none)"
	if t, ok := conn.Source(); ok {
		src = t.String()
	}
	sinks := conn.Sinks()
	names := make([]string, len(sinks))
	for i, t := range sinks {
		names[i] = t.String()
	}
	if len(names) == 0 {
		names = []string{"(none)"}
	}
	return src + " " + iconArrow + " " + strings.Join(names, ", ")
}
