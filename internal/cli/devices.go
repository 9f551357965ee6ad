package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/fluidcad/pkg/store"
)

// storeCommand creates the device store management command.
func (c *CLI) storeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage devices in the configured store",
		Long: `Manage devices in the document store. The backend is selected by the
[store] config section or FLUIDCAD_STORE: file (default), sqlite, redis,
mongo or memory.`,
	}

	cmd.AddCommand(c.storeListCommand())
	cmd.AddCommand(c.storePushCommand())
	cmd.AddCommand(c.storePullCommand())
	cmd.AddCommand(c.storeDeleteCommand())
	cmd.AddCommand(c.storePathCommand())

	return cmd
}

// storeListCommand creates the "store list" subcommand.
func (c *CLI) storeListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			entries, err := s.List(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(entries) == 0 {
				printInfo(w, "Store is empty")
				return nil
			}
			for _, e := range entries {
				printKeyValue(w, e.Name, e.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}

// storePushCommand creates the "store push" subcommand.
func (c *CLI) storePushCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:               "push [file]",
		Short:             "Validate a device document and save it to the store",
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
			if name != "" {
				if err := d.SetName(name); err != nil {
					return err
				}
			}

			s, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			if err := store.SaveDevice(cmd.Context(), s, d); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Saved %s", d.Name())
			printNextStep(cmd.OutOrStdout(), "Fetch it back", "fluidcad store pull "+d.Name())
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "store under this name instead of the document's")

	return cmd
}

// storePullCommand creates the "store pull" subcommand.
func (c *CLI) storePullCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:               "pull [name]",
		Short:             "Load a device from the store and write it to a file",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeStoredDevices,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			opts, err := c.deviceOptions()
			if err != nil {
				return err
			}
			d, err := store.LoadDevice(cmd.Context(), s, args[0], opts...)
			if err != nil {
				return err
			}
			if output == "" {
				output = args[0] + ".json"
			}
			if err := writeDevice(d, output); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Pulled %s", d.Name())
			printFile(cmd.OutOrStdout(), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <name>.json)")

	return cmd
}

// storeDeleteCommand creates the "store rm" subcommand.
func (c *CLI) storeDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "rm [name]",
		Aliases:           []string{"delete"},
		Short:             "Delete a device from the store",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeStoredDevices,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Deleted %s", args[0])
			return nil
		},
	}
}

// storePathCommand creates the "store path" subcommand.
func (c *CLI) storePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where the configured store keeps its data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.cfg().Store
			w := cmd.OutOrStdout()
			printKeyValue(w, "backend", backendName(cfg.Backend))
			switch backendName(cfg.Backend) {
			case store.BackendFile:
				dir := cfg.Dir
				if dir == "" {
					d, err := store.DefaultDir()
					if err != nil {
						return err
					}
					dir = d
				}
				printKeyValue(w, "dir", dir)
			case store.BackendSQLite:
				path, err := cfg.SQLitePath()
				if err != nil {
					return err
				}
				printKeyValue(w, "database", path)
			case store.BackendRedis, store.BackendMongo:
				printKeyValue(w, "dsn", cfg.DSN)
			}
			return nil
		},
	}
}
