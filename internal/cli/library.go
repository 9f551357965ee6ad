package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/fluidcad/pkg/library"
	"github.com/matzehuels/fluidcad/pkg/params"
)

// libraryCommand creates the feature-set library command.
func (c *CLI) libraryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Inspect the loaded feature sets",
	}

	cmd.AddCommand(c.libraryListCommand())
	cmd.AddCommand(c.libraryShowCommand())

	return cmd
}

// libraryListCommand creates the "library list" subcommand.
func (c *CLI) libraryListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List feature sets and their types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := c.cfg().Catalog()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, name := range cat.Names() {
				set, _ := cat.Set(name)
				printTitle(w, name)
				for _, typ := range set.Types() {
					t, _ := set.Template(typ)
					printKeyValue(w, typ, templateSummary(t))
				}
			}
			return nil
		},
	}
}

// libraryShowCommand creates the "library show" subcommand.
func (c *CLI) libraryShowCommand() *cobra.Command {
	var set string

	cmd := &cobra.Command{
		Use:               "show [type]",
		Short:             "Show the parameters of a feature type",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeFeatureTypes,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := c.cfg().Catalog()
			if err != nil {
				return err
			}
			if set == "" {
				set = c.cfg().Library.Set
			}
			if set == "" {
				set = library.BasicName
			}
			t, err := cat.Template(set, args[0])
			if err != nil {
				return err
			}
			printTemplate(cmd.OutOrStdout(), set, t)
			return nil
		},
	}

	cmd.Flags().StringVar(&set, "set", "", "feature set (default from config, else Basic)")

	return cmd
}

func templateSummary(t *library.Template) string {
	parts := []string{plural(len(t.Definition.Keys()), "param")}
	if t.Tool != "" {
		parts = append([]string{t.Tool}, parts...)
	}
	if t.Footprint != nil {
		parts = append(parts, string(t.Footprint.Shape()))
	}
	return strings.Join(parts, " · ")
}

func printTemplate(w io.Writer, set string, t *library.Template) {
	printTitle(w, set+"/"+t.Name)
	if t.Tool != "" {
		printKeyValue(w, "tool", t.Tool)
	}
	for _, in := range slices.Sorted(maps.Keys(t.ToolParams)) {
		printDetail(w, "%s %s %s", in, iconArrow, t.ToolParams[in])
	}
	if t.Footprint != nil {
		printKeyValue(w, "footprint", string(t.Footprint.Shape()))
	}
	fmt.Fprintln(w)
	for _, key := range t.Definition.Keys() {
		printKeyValue(w, key, paramSummary(t.Definition, key))
	}
}

// paramSummary renders one declared parameter, e.g.
// "Float µm = 800 [3, 2000] heritable".
func paramSummary(def params.Definition, key string) string {
	kind, _ := def.KindOf(key)
	parts := []string{string(kind)}
	if u := def.Unit(key); u != "" {
		parts = append(parts, u)
	}
	if v, ok := def.Defaults[key]; ok {
		parts = append(parts, fmt.Sprintf("= %v", v))
	}
	lo, hasLo := def.Minimum[key]
	hi, hasHi := def.Maximum[key]
	switch {
	case hasLo && hasHi:
		parts = append(parts, fmt.Sprintf("[%g, %g]", lo, hi))
	case hasLo:
		parts = append(parts, fmt.Sprintf("[%g, ∞)", lo))
	case hasHi:
		parts = append(parts, fmt.Sprintf("(-∞, %g]", hi))
	}
	if def.IsHeritable(key) {
		parts = append(parts, "heritable")
	}
	return strings.Join(parts, " ")
}
