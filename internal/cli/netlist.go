package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/fluidcad/pkg/errors"
	"github.com/matzehuels/fluidcad/pkg/render/netlist"
)

// Netlist output formats.
const (
	netlistDOT = "dot"
	netlistSVG = "svg"
	netlistPDF = "pdf"
	netlistPNG = "png"
)

// netlistOpts holds the command-line flags for the netlist command.
type netlistOpts struct {
	output   string  // output path; empty writes DOT to stdout or <input>.<format>
	format   string  // dot, svg, pdf or png
	detailed bool    // show feature types and channel widths
	scale    float64 // PNG scale factor
}

// netlistCommand creates the netlist command for rendering component graphs.
func (c *CLI) netlistCommand() *cobra.Command {
	opts := netlistOpts{format: netlistSVG, scale: 2}

	cmd := &cobra.Command{
		Use:   "netlist [file]",
		Short: "Render the component netlist of a device",
		Long: `Render which components each connection joins. Every source and sink becomes
a node and every connection an edge from its source to each sink.

DOT and SVG are rendered in-process; PDF and PNG need rsvg-convert (librsvg).`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDocuments,
		RunE: func(cmd *cobra.Command, args []string) error {
			devOpts, err := c.deviceOptions()
			if err != nil {
				return err
			}
			d, err := readDevice(args[0], devOpts...)
			if err != nil {
				return err
			}

			prog := newProgress(loggerFromContext(cmd.Context()))
			dot := netlist.ToDOT(d, netlist.Options{Detailed: opts.detailed})

			var data []byte
			switch opts.format {
			case netlistDOT:
				if opts.output == "" {
					_, err := fmt.Fprint(cmd.OutOrStdout(), dot)
					return err
				}
				data = []byte(dot)
			case netlistSVG:
				data, err = netlist.RenderSVG(dot)
			case netlistPDF:
				data, err = netlist.RenderPDF(cmd.Context(), dot)
			case netlistPNG:
				data, err = netlist.RenderPNG(cmd.Context(), dot, opts.scale)
			default:
				return errors.New(errors.ErrCodeInvalidInput, "unknown format %q (want dot, svg, pdf or png)", opts.format)
			}
			if err != nil {
				return err
			}

			out := opts.output
			if out == "" {
				out = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + "." + opts.format
			}
			if err := os.WriteFile(out, data, 0644); err != nil {
				return err
			}
			prog.done("Rendered netlist")
			printSuccess(cmd.OutOrStdout(), "Rendered netlist of %s", d.Name())
			printFile(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: <input>.<format>, stdout for dot)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: svg (default), dot, pdf, png")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show feature types and channel widths")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG scale factor")
	_ = cmd.RegisterFlagCompletionFunc("format", completeNetlistFormats)

	return cmd
}
