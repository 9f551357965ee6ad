package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusHooks implements every hook interface by updating Prometheus
// collectors.
type PrometheusHooks struct {
	regenerations *prometheus.CounterVec
	segments      prometheus.Histogram
	gapSplits     prometheus.Counter
	tangents      prometheus.Counter
	storeOps      *prometheus.CounterVec
	storeBytes    *prometheus.CounterVec
	requests      *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

var (
	_ RoutingHooks = (*PrometheusHooks)(nil)
	_ StoreHooks   = (*PrometheusHooks)(nil)
	_ HTTPHooks    = (*PrometheusHooks)(nil)
)

// NewPrometheusHooks creates the collectors and registers them with reg.
// A nil reg skips registration, which tests use to read values directly.
func NewPrometheusHooks(reg prometheus.Registerer) *PrometheusHooks {
	h := &PrometheusHooks{
		regenerations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fluidcad",
			Subsystem: "routing",
			Name:      "regenerations_total",
			Help:      "Segment regenerations from waypoints.",
		}, []string{"outcome"}),
		segments: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fluidcad",
			Subsystem: "routing",
			Name:      "segments",
			Help:      "Segments produced per regeneration.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		}),
		gapSplits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fluidcad",
			Subsystem: "routing",
			Name:      "gap_splits_total",
			Help:      "Segments split by gap insertion.",
		}),
		tangents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fluidcad",
			Subsystem: "routing",
			Name:      "tangential_intersections_total",
			Help:      "Segments left unsplit after touching an obstacle at one point.",
		}),
		storeOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fluidcad",
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Document store operations by backend and result.",
		}, []string{"backend", "result"}),
		storeBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fluidcad",
			Subsystem: "store",
			Name:      "written_bytes_total",
			Help:      "Bytes written to the document store.",
		}, []string{"backend"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fluidcad",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "API requests by route and status.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fluidcad",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	if reg != nil {
		reg.MustRegister(h.regenerations, h.segments, h.gapSplits, h.tangents,
			h.storeOps, h.storeBytes, h.requests, h.latency)
	}
	return h
}

func (h *PrometheusHooks) OnSegmentsRegenerated(_ string, segments int) {
	h.regenerations.WithLabelValues("ok").Inc()
	h.segments.Observe(float64(segments))
}

func (h *PrometheusHooks) OnGapInserted(_ string, splits int) {
	h.gapSplits.Add(float64(splits))
}

func (h *PrometheusHooks) OnTangentialIntersection(string, int) {
	h.tangents.Inc()
}

func (h *PrometheusHooks) OnStoreHit(_ context.Context, backend string) {
	h.storeOps.WithLabelValues(backend, "hit").Inc()
}

func (h *PrometheusHooks) OnStoreMiss(_ context.Context, backend string) {
	h.storeOps.WithLabelValues(backend, "miss").Inc()
}

func (h *PrometheusHooks) OnStoreSave(_ context.Context, backend string, size int) {
	h.storeOps.WithLabelValues(backend, "save").Inc()
	h.storeBytes.WithLabelValues(backend).Add(float64(size))
}

// OnRequest is a no-op; requests are counted once their status is known.
func (h *PrometheusHooks) OnRequest(context.Context, string, string) {}

func (h *PrometheusHooks) OnResponse(_ context.Context, method, route string, statusCode int, duration time.Duration) {
	h.requests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	h.latency.WithLabelValues(method, route).Observe(duration.Seconds())
}
