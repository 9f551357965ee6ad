package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/fluidcad/pkg/buildinfo"
	"github.com/matzehuels/fluidcad/pkg/device"
	fcerrors "github.com/matzehuels/fluidcad/pkg/errors"
	"github.com/matzehuels/fluidcad/pkg/geometry"
	"github.com/matzehuels/fluidcad/pkg/interchange"
	"github.com/matzehuels/fluidcad/pkg/render/netlist"
	"github.com/matzehuels/fluidcad/pkg/store"
)

// HealthResponse is the /healthz body.
type HealthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
	Uptime string         `json:"uptime"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Build:  buildinfo.Get(),
		Uptime: time.Since(s.startedAt).Round(time.Second).String(),
	})
}

// =============================================================================
// Library
// =============================================================================

// FeatureSetSummary lists the types of one feature set.
type FeatureSetSummary struct {
	Name  string   `json:"name"`
	Types []string `json:"types"`
}

// TemplateInfo describes one template of a feature set.
type TemplateInfo struct {
	Tool     string         `json:"tool,omitempty"`
	Defaults map[string]any `json:"defaults"`
}

func (s *Server) handleLibrary(w http.ResponseWriter, r *http.Request) {
	out := []FeatureSetSummary{}
	for _, name := range s.catalog.Names() {
		fs, err := s.catalog.Set(name)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		out = append(out, FeatureSetSummary{Name: name, Types: fs.Types()})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"sets": out})
}

func (s *Server) handleFeatureSet(w http.ResponseWriter, r *http.Request) {
	fs, err := s.catalog.Set(chi.URLParam(r, "set"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	templates := make(map[string]TemplateInfo)
	for _, typ := range fs.Types() {
		t, err := fs.Template(typ)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		templates[typ] = TemplateInfo{Tool: t.Tool, Defaults: t.Defaults()}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"name": fs.Name(), "templates": templates})
}

// =============================================================================
// Devices
// =============================================================================

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"devices": entries})
}

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.Load(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, doc)
}

// handlePutDevice validates the document by building the device before it
// is stored. The URL name wins over the document name.
func (s *Server) handlePutDevice(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var doc interchange.DeviceV1
	if err := decodeJSON(w, r, &doc); err != nil {
		s.writeError(w, r, err)
		return
	}
	doc.Name = name

	unlock := s.lock(name)
	defer unlock()

	d, err := interchange.DeviceFromV1(doc, s.deviceOptions()...)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := store.SaveDevice(r.Context(), s.store, d); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, interchange.DeviceToV1(d))
}

func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	unlock := s.lock(name)
	defer unlock()

	if err := s.store.Delete(r.Context(), name); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleNetlistDOT(w http.ResponseWriter, r *http.Request) {
	d, err := store.LoadDevice(r.Context(), s.store, chi.URLParam(r, "name"), s.deviceOptions()...)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz")
	_, _ = w.Write([]byte(netlist.ToDOT(d, netlistOptions(r))))
}

func (s *Server) handleNetlistSVG(w http.ResponseWriter, r *http.Request) {
	d, err := store.LoadDevice(r.Context(), s.store, chi.URLParam(r, "name"), s.deviceOptions()...)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	svg, err := netlist.RenderSVG(netlist.ToDOT(d, netlistOptions(r)))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(svg)
}

func netlistOptions(r *http.Request) netlist.Options {
	return netlist.Options{Detailed: r.URL.Query().Get("detailed") == "true"}
}

// =============================================================================
// Connections
// =============================================================================

func (s *Server) handleListConnections(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.Load(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	conns := doc.Connections
	if conns == nil {
		conns = []interchange.ConnectionV1{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"connections": conns})
}

func (s *Server) handleGetConnection(w http.ResponseWriter, r *http.Request) {
	d, err := store.LoadDevice(r.Context(), s.store, chi.URLParam(r, "name"), s.deviceOptions()...)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := d.Connection(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, interchange.ConnectionToV1(c))
}

// RouteRequest creates a routed connection.
type RouteRequest struct {
	Layer     string                 `json:"layer"`
	Name      string                 `json:"name,omitempty"`
	Waypoints []geometry.Point       `json:"waypoints"`
	Source    interchange.TargetV1   `json:"source"`
	Sinks     []interchange.TargetV1 `json:"sinks"`
}

func (req RouteRequest) targets() (device.Target, []device.Target, error) {
	src, err := device.NewTarget(req.Source.Component, req.Source.Port)
	if err != nil {
		return device.Target{}, nil, err
	}
	if len(req.Sinks) == 0 {
		return device.Target{}, nil, fcerrors.New(fcerrors.ErrCodeInvalidReference, "route needs at least one sink")
	}
	sinks := make([]device.Target, 0, len(req.Sinks))
	for _, t := range req.Sinks {
		sink, err := device.NewTarget(t.Component, t.Port)
		if err != nil {
			return device.Target{}, nil, err
		}
		sinks = append(sinks, sink)
	}
	return src, sinks, nil
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	var req RouteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	src, sinks, err := req.targets()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.mutate(w, r, http.StatusCreated, func(d *device.Device) (any, error) {
		var opts []device.CreateOption
		if req.Name != "" {
			opts = append(opts, device.WithName(req.Name))
		}
		c, err := d.Route(req.Layer, req.Waypoints, src, sinks, opts...)
		if err != nil {
			return nil, err
		}
		return interchange.ConnectionToV1(c), nil
	})
}

// WaypointsRequest replaces a connection's route.
type WaypointsRequest struct {
	Waypoints []geometry.Point `json:"waypoints"`
}

func (s *Server) handleSetWaypoints(w http.ResponseWriter, r *http.Request) {
	var req WaypointsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.mutateConnection(w, r, func(d *device.Device, c *device.Connection) error {
		if err := c.SetWaypoints(d, req.Waypoints); err != nil {
			return err
		}
		return d.UpdateBounds(c.ID())
	})
}

func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	s.mutateConnection(w, r, func(d *device.Device, c *device.Connection) error {
		if err := c.RegenerateSegments(d); err != nil {
			return err
		}
		return d.UpdateBounds(c.ID())
	})
}

// GapRequest is the obstacle box a connection is split around.
type GapRequest struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (s *Server) handleInsertGap(w http.ResponseWriter, r *http.Request) {
	var req GapRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.mutateConnection(w, r, func(d *device.Device, c *device.Connection) error {
		return c.InsertFeatureGap(d, geometry.NewRect(req.X, req.Y, req.Width, req.Height))
	})
}

// mutate loads the device named in the URL, applies fn and saves the
// result under the device lock. Nothing is saved when fn fails.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, status int, fn func(*device.Device) (any, error)) {
	name := chi.URLParam(r, "name")
	unlock := s.lock(name)
	defer unlock()

	d, err := store.LoadDevice(r.Context(), s.store, name, s.deviceOptions()...)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp, err := fn(d)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := store.SaveDevice(r.Context(), s.store, d); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, status, resp)
}

// mutateConnection is mutate for the connection named in the URL; it
// responds with the updated connection.
func (s *Server) mutateConnection(w http.ResponseWriter, r *http.Request, fn func(*device.Device, *device.Connection) error) {
	s.mutate(w, r, http.StatusOK, func(d *device.Device) (any, error) {
		c, err := d.Connection(chi.URLParam(r, "id"))
		if err != nil {
			return nil, err
		}
		if err := fn(d, c); err != nil {
			return nil, err
		}
		return interchange.ConnectionToV1(c), nil
	})
}
