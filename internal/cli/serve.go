package cli

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/fluidcad/pkg/observability"
	"github.com/matzehuels/fluidcad/pkg/server"
)

// serveCommand creates the serve command that runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		metrics bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the device API over HTTP",
		Long: `Serve the REST API over the configured store until interrupted.

With --metrics, routing, store and request metrics are exported in the
Prometheus text format at /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.cfg().Server
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}
			if cmd.Flags().Changed("metrics") {
				cfg.Metrics = metrics
			}

			srv, err := c.newServer(cmd, cfg)
			if err != nil {
				return err
			}
			return srv.ListenAndServe(cmd.Context(), cfg.Addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "export Prometheus metrics at /metrics")

	return cmd
}

// newServer opens the store and assembles the server. The store stays open
// for the life of the process.
func (c *CLI) newServer(cmd *cobra.Command, cfg server.Config) (*server.Server, error) {
	st, err := c.openStore(cmd.Context())
	if err != nil {
		return nil, err
	}
	cat, err := c.cfg().Catalog()
	if err != nil {
		st.Close()
		return nil, err
	}

	opts := []server.Option{server.WithLogger(c.Logger), server.WithCatalog(cat)}
	if cfg.Metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		hooks := observability.NewPrometheusHooks(reg)
		observability.SetRoutingHooks(hooks)
		observability.SetStoreHooks(hooks)
		observability.SetHTTPHooks(hooks)
		opts = append(opts, server.WithMetrics(reg))
	}

	c.Logger.Info("opened store", "backend", backendName(c.cfg().Store.Backend), "metrics", cfg.Metrics)
	return server.New(st, opts...), nil
}
