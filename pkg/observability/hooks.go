// Package observability provides hooks for metrics and diagnostics.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers register hooks at startup to
// receive events about segment routing, document store access and API requests.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, not by libraries, so the document model never
// imports a metrics backend. [PrometheusHooks] is the bundled implementation.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    ph := observability.NewPrometheusHooks(prometheus.DefaultRegisterer)
//	    observability.SetRoutingHooks(ph)
//	    observability.SetStoreHooks(ph)
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Routing().OnSegmentsRegenerated(connID, len(segments))
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Routing Hooks
// =============================================================================

// RoutingHooks receives events from connection routing. Routing is pure
// in-memory work, so these hooks take no context.
type RoutingHooks interface {
	// OnSegmentsRegenerated records a waypoint-to-segment derivation.
	OnSegmentsRegenerated(connection string, segments int)

	// OnGapInserted records a gap insertion and how many segments it split.
	OnGapInserted(connection string, splits int)

	// OnTangentialIntersection records a segment that touched an obstacle
	// boundary at a single point and was left unsplit.
	OnTangentialIntersection(connection string, segment int)
}

// =============================================================================
// Store Hooks
// =============================================================================

// StoreHooks receives events from document store operations.
type StoreHooks interface {
	// OnStoreHit records a successful load.
	OnStoreHit(ctx context.Context, backend string)

	// OnStoreMiss records a load of a missing document.
	OnStoreMiss(ctx context.Context, backend string)

	// OnStoreSave records a document write.
	OnStoreSave(ctx context.Context, backend string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the HTTP API.
type HTTPHooks interface {
	// OnRequest records an incoming request against a route pattern.
	OnRequest(ctx context.Context, method, route string)

	// OnResponse records the response status and latency.
	OnResponse(ctx context.Context, method, route string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopRoutingHooks is a no-op implementation of RoutingHooks.
type NoopRoutingHooks struct{}

func (NoopRoutingHooks) OnSegmentsRegenerated(string, int)    {}
func (NoopRoutingHooks) OnGapInserted(string, int)            {}
func (NoopRoutingHooks) OnTangentialIntersection(string, int) {}

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnStoreHit(context.Context, string)       {}
func (NoopStoreHooks) OnStoreMiss(context.Context, string)      {}
func (NoopStoreHooks) OnStoreSave(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	routingHooks RoutingHooks = NoopRoutingHooks{}
	storeHooks   StoreHooks   = NoopStoreHooks{}
	httpHooks    HTTPHooks    = NoopHTTPHooks{}
	hooksMu      sync.RWMutex
)

// SetRoutingHooks registers custom routing hooks.
// This should be called once at application startup before any routing.
func SetRoutingHooks(h RoutingHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		routingHooks = h
	}
}

// SetStoreHooks registers custom store hooks.
// This should be called once at application startup before any store operations.
func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storeHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before serving.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Routing returns the registered routing hooks.
func Routing() RoutingHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return routingHooks
}

// Store returns the registered store hooks.
func Store() StoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storeHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	routingHooks = NoopRoutingHooks{}
	storeHooks = NoopStoreHooks{}
	httpHooks = NoopHTTPHooks{}
}
