package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/fluidcad/pkg/library"
)

// documentExts are the device document extensions offered for file arguments.
var documentExts = []string{"json", "msgpack", "mpk"}

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for fluidcad.

Besides commands and flags, completions cover device documents (.json,
.msgpack), stored device names for "store pull" and "store rm", feature
types for "library show", layer ids for "route --layer" and netlist
formats. Stored names come from the store selected by --config.

Bash:
  $ source <(fluidcad completion bash)
  $ fluidcad completion bash > /etc/bash_completion.d/fluidcad

Zsh:
  $ fluidcad completion zsh > "${fpath[1]}/_fluidcad"

Fish:
  $ fluidcad completion fish > ~/.config/fish/completions/fluidcad.fish

PowerShell:
  PS> fluidcad completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(w, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(w)
			case "fish":
				return cmd.Root().GenFishCompletion(w, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(w)
			}
			return nil
		},
	}

	return cmd
}

// completionConfig loads the config for a completion request. The root
// pre-run hook does not run for completions. A broken config yields the
// defaults.
func (c *CLI) completionConfig() *Config {
	if c.config == nil {
		cfg, err := LoadConfig(c.configPath)
		if err != nil {
			c.Logger.Debug("completion config", "error", err)
			cfg = DefaultConfig()
		}
		c.config = cfg
	}
	return c.config
}

// completeDocuments offers device documents for the first argument.
func completeDocuments(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return documentExts, cobra.ShellCompDirectiveFilterFileExt
}

// completeDocumentPair offers device documents for an input and an output.
func completeDocumentPair(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 1 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return documentExts, cobra.ShellCompDirectiveFilterFileExt
}

// completeStoredDevices offers the names of devices in the configured store.
func (c *CLI) completeStoredDevices(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	c.completionConfig()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := c.openStore(ctx)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	defer s.Close()

	entries, err := s.List(ctx)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	var names []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name, toComplete) {
			names = append(names, e.Name+"\t"+e.UpdatedAt.Local().Format("2006-01-02 15:04"))
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

// completeFeatureTypes offers the types of the feature set named by --set,
// the configured set or Basic.
func (c *CLI) completeFeatureTypes(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	cfg := c.completionConfig()

	name, _ := cmd.Flags().GetString("set")
	if name == "" {
		name = cfg.Library.Set
	}
	if name == "" {
		name = library.BasicName
	}
	cat, err := cfg.Catalog()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	set, err := cat.Set(name)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	var types []string
	for _, typ := range set.Types() {
		if !strings.HasPrefix(typ, toComplete) {
			continue
		}
		t, _ := set.Template(typ)
		types = append(types, typ+"\t"+t.Tool)
	}
	return types, cobra.ShellCompDirectiveNoFileComp
}

// completeLayers offers the layer ids of the document named by the first argument.
func (c *CLI) completeLayers(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	c.completionConfig()

	opts, err := c.deviceOptions()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	d, err := readDevice(args[0], opts...)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var ids []string
	for _, l := range d.Layers() {
		if strings.HasPrefix(l.ID(), toComplete) {
			ids = append(ids, fmt.Sprintf("%s\t%s %s", l.ID(), l.Kind(), l.Name()))
		}
	}
	return ids, cobra.ShellCompDirectiveNoFileComp
}

// completeNetlistFormats offers the netlist output formats.
func completeNetlistFormats(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return []string{
		netlistSVG + "\tGraphviz SVG",
		netlistDOT + "\tGraphviz source",
		netlistPDF + "\tPDF via rsvg-convert",
		netlistPNG + "\tPNG via rsvg-convert",
	}, cobra.ShellCompDirectiveNoFileComp
}
