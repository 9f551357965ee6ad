package cli

import (
	"github.com/spf13/cobra"
)

// convertCommand creates the convert command for switching document encodings.
func (c *CLI) convertCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "convert [input] [output]",
		Short: "Convert a device document between JSON and msgpack",
		Long: `Convert a device document. The encoding of each file is chosen by its
extension: .msgpack or .mpk for msgpack, anything else for JSON. The
document is fully rebuilt, so conversion also validates it.`,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeDocumentPair,
		RunE: func(cmd *cobra.Command, args []string) error {
			prog := newProgress(loggerFromContext(cmd.Context()))
			opts, err := c.deviceOptions()
			if err != nil {
				return err
			}
			d, err := readDevice(args[0], opts...)
			if err != nil {
				return err
			}
			if err := writeDevice(d, args[1]); err != nil {
				return err
			}
			prog.done("Converted " + documentFormat(args[0]) + " to " + documentFormat(args[1]))
			printSuccess(cmd.OutOrStdout(), "Converted %s", d.Name())
			printFile(cmd.OutOrStdout(), args[1])
			return nil
		},
	}
}
