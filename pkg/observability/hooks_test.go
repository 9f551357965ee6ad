package observability

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Routing hooks
	r := NoopRoutingHooks{}
	r.OnSegmentsRegenerated("conn-1", 3)
	r.OnGapInserted("conn-1", 1)
	r.OnTangentialIntersection("conn-1", 0)

	// Store hooks
	s := NoopStoreHooks{}
	s.OnStoreHit(ctx, "file")
	s.OnStoreMiss(ctx, "sqlite")
	s.OnStoreSave(ctx, "redis", 1024)

	// HTTP hooks
	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "/devices/{name}")
	h.OnResponse(ctx, "GET", "/devices/{name}", 200, time.Second)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Routing().(NoopRoutingHooks); !ok {
		t.Error("Routing() should return NoopRoutingHooks by default")
	}
	if _, ok := Store().(NoopStoreHooks); !ok {
		t.Error("Store() should return NoopStoreHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customRouting := &testRoutingHooks{}
	SetRoutingHooks(customRouting)
	if Routing() != customRouting {
		t.Error("SetRoutingHooks should set custom hooks")
	}

	customStore := &testStoreHooks{}
	SetStoreHooks(customStore)
	if Store() != customStore {
		t.Error("SetStoreHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Routing().(NoopRoutingHooks); !ok {
		t.Error("Reset() should restore NoopRoutingHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testRoutingHooks{}
	SetRoutingHooks(custom)

	// Setting nil should be ignored
	SetRoutingHooks(nil)

	if Routing() != custom {
		t.Error("SetRoutingHooks(nil) should be ignored")
	}

	Reset()
}

func TestPrometheusHooks(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	h := NewPrometheusHooks(reg)

	h.OnSegmentsRegenerated("c", 2)
	h.OnSegmentsRegenerated("c", 4)
	h.OnGapInserted("c", 3)
	h.OnTangentialIntersection("c", 1)
	h.OnStoreHit(ctx, "file")
	h.OnStoreMiss(ctx, "file")
	h.OnStoreSave(ctx, "file", 100)
	h.OnStoreSave(ctx, "file", 50)
	h.OnResponse(ctx, "GET", "/devices", 200, 10*time.Millisecond)

	if got := testutil.ToFloat64(h.regenerations.WithLabelValues("ok")); got != 2 {
		t.Errorf("regenerations = %v, want 2", got)
	}
	if got := testutil.ToFloat64(h.gapSplits); got != 3 {
		t.Errorf("gap splits = %v, want 3", got)
	}
	if got := testutil.ToFloat64(h.tangents); got != 1 {
		t.Errorf("tangents = %v, want 1", got)
	}
	if got := testutil.ToFloat64(h.storeOps.WithLabelValues("file", "save")); got != 2 {
		t.Errorf("store saves = %v, want 2", got)
	}
	if got := testutil.ToFloat64(h.storeBytes.WithLabelValues("file")); got != 150 {
		t.Errorf("store bytes = %v, want 150", got)
	}
	if got := testutil.ToFloat64(h.requests.WithLabelValues("GET", "/devices", "200")); got != 1 {
		t.Errorf("requests = %v, want 1", got)
	}

	if n, err := testutil.GatherAndCount(reg); err != nil || n == 0 {
		t.Errorf("GatherAndCount() = %d, %v", n, err)
	}
}

// Test implementations
type testRoutingHooks struct{ NoopRoutingHooks }
type testStoreHooks struct{ NoopStoreHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
