// Package cli implements the fluidcad command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/fluidcad/pkg/buildinfo"
	"github.com/matzehuels/fluidcad/pkg/device"
	"github.com/matzehuels/fluidcad/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "fluidcad"

	// configFile is the config file name inside the config directory.
	configFile = "config.toml"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	config     *Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "fluidcad edits microfluidic device documents",
		Long:         `fluidcad builds, routes and inspects microfluidic device designs stored as interchange documents, and serves them over HTTP.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(c.configPath)
			if err != nil {
				return err
			}
			c.config = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/fluidcad/config.toml)")

	// Register all subcommands
	root.AddCommand(c.libraryCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.routeCommand())
	root.AddCommand(c.convertCommand())
	root.AddCommand(c.netlistCommand())
	root.AddCommand(c.storeCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Shared Helpers
// =============================================================================

// cfg returns the loaded config, or defaults when a command runs without the
// root pre-run (tests calling subcommands directly).
func (c *CLI) cfg() *Config {
	if c.config == nil {
		c.config = DefaultConfig()
	}
	return c.config
}

// deviceOptions returns the options every device built by the CLI shares.
func (c *CLI) deviceOptions() ([]device.Option, error) {
	cat, err := c.cfg().Catalog()
	if err != nil {
		return nil, err
	}
	opts := []device.Option{device.WithCatalog(cat), device.WithLogger(c.Logger)}
	if set := c.cfg().Library.Set; set != "" {
		opts = append(opts, device.WithDefaultSet(set))
	}
	return opts, nil
}

// openStore opens the configured store backend.
func (c *CLI) openStore(ctx context.Context) (store.Store, error) {
	s, err := store.Open(ctx, c.cfg().Store)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", backendName(c.cfg().Store.Backend), err)
	}
	return s, nil
}

func backendName(b string) string {
	if b == "" {
		return store.BackendFile
	}
	return b
}

// =============================================================================
// Paths
// =============================================================================

// configDir returns the config directory using XDG standard (~/.config/fluidcad/).
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}
