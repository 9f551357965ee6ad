// Package server exposes stored devices over HTTP.
//
// # Routes
//
//	GET    /healthz
//	GET    /metrics                                   (when WithMetrics is set)
//	GET    /api/v1/library
//	GET    /api/v1/library/{set}
//	GET    /api/v1/devices
//	GET    /api/v1/devices/{name}
//	PUT    /api/v1/devices/{name}
//	DELETE /api/v1/devices/{name}
//	GET    /api/v1/devices/{name}/netlist.dot
//	GET    /api/v1/devices/{name}/netlist.svg
//	GET    /api/v1/devices/{name}/connections
//	POST   /api/v1/devices/{name}/connections
//	GET    /api/v1/devices/{name}/connections/{id}
//	PUT    /api/v1/devices/{name}/connections/{id}/waypoints
//	POST   /api/v1/devices/{name}/connections/{id}/regenerate
//	POST   /api/v1/devices/{name}/connections/{id}/gap
//
// Bodies are interchange version 1 JSON. Every mutating request loads the
// device, applies the change and saves it while holding a per-device lock,
// so concurrent edits to one device are serialized. Errors are returned as
// {"error": {"code": ..., "message": ...}} with a status derived from the
// error code.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/fluidcad/pkg/device"
	"github.com/matzehuels/fluidcad/pkg/library"
	"github.com/matzehuels/fluidcad/pkg/store"
)

// Config holds the [server] section of the CLI configuration.
type Config struct {
	Addr    string `toml:"addr"`
	Metrics bool   `toml:"metrics"`
}

// DefaultAddr is the listen address used when Config.Addr is empty.
const DefaultAddr = "localhost:8080"

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 8 << 20

// Server serves the device API over a Store.
type Server struct {
	store     store.Store
	catalog   *library.Catalog
	logger    *log.Logger
	gatherer  prometheus.Gatherer
	startedAt time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCatalog sets the feature sets stored devices are decoded against.
func WithCatalog(c *library.Catalog) Option {
	return func(s *Server) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithMetrics serves g at /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// New creates a server over st.
func New(st store.Store, opts ...Option) *Server {
	s := &Server{
		store:     st,
		catalog:   library.DefaultCatalog(),
		logger:    log.Default(),
		startedAt: time.Now(),
		locks:     make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/library", s.handleLibrary)
		r.Get("/library/{set}", s.handleFeatureSet)

		r.Get("/devices", s.handleListDevices)
		r.Route("/devices/{name}", func(r chi.Router) {
			r.Get("/", s.handleGetDevice)
			r.Put("/", s.handlePutDevice)
			r.Delete("/", s.handleDeleteDevice)
			r.Get("/netlist.dot", s.handleNetlistDOT)
			r.Get("/netlist.svg", s.handleNetlistSVG)

			r.Get("/connections", s.handleListConnections)
			r.Post("/connections", s.handleRoute)
			r.Route("/connections/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetConnection)
				r.Put("/waypoints", s.handleSetWaypoints)
				r.Post("/regenerate", s.handleRegenerate)
				r.Post("/gap", s.handleInsertGap)
			})
		})
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// lock serializes work on one device and returns the unlock function.
func (s *Server) lock(name string) func() {
	s.mu.Lock()
	l, ok := s.locks[name]
	if !ok {
		l = &sync.Mutex{}
		s.locks[name] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func (s *Server) deviceOptions() []device.Option {
	return []device.Option{device.WithCatalog(s.catalog), device.WithLogger(s.logger)}
}
