package metrics

import "testing"

func TestCounterAccumulatesPerKey(t *testing.T) {
	r := NewInMemory()
	r.Counter("queue.dispatched", "type=add_task")
	r.Counter("queue.dispatched", "type=add_task")
	r.Counter("queue.dispatched", "type=update_design")

	snap := r.Snapshot()
	if snap.Counters["queue.dispatched|type=add_task"] != 2 {
		t.Fatalf("got %v", snap.Counters)
	}
	if snap.Counters["queue.dispatched|type=update_design"] != 1 {
		t.Fatalf("got %v", snap.Counters)
	}
}

func TestGaugeOverwritesLatestValue(t *testing.T) {
	r := NewInMemory()
	r.Gauge("cache.size", 10)
	r.Gauge("cache.size", 42)

	snap := r.Snapshot()
	if snap.Gauges["cache.size"] != 42 {
		t.Fatalf("got %v, want 42", snap.Gauges["cache.size"])
	}
}

func TestHistogramAppendsAndTrimsToLast1000(t *testing.T) {
	r := NewInMemory()
	for i := 0; i < 1500; i++ {
		r.Histogram("tick.duration_ms", float64(i))
	}

	snap := r.Snapshot()
	values := snap.Histograms["tick.duration_ms"]
	if len(values) != 1000 {
		t.Fatalf("expected 1000 retained samples, got %d", len(values))
	}
	if values[0] != 500 || values[len(values)-1] != 1499 {
		t.Fatalf("expected the oldest 500 samples dropped, got first=%v last=%v", values[0], values[len(values)-1])
	}
}

func TestSnapshotIsACopyNotALiveView(t *testing.T) {
	r := NewInMemory()
	r.Counter("x")
	snap := r.Snapshot()

	r.Counter("x")
	if snap.Counters["x"] != 1 {
		t.Fatalf("expected the earlier snapshot to stay frozen at 1, got %v", snap.Counters["x"])
	}
}

func TestGlobalRegistryDefaultsToInMemoryAndIsSettable(t *testing.T) {
	original := Global()
	defer SetGlobal(original)

	custom := NewInMemory()
	SetGlobal(custom)
	if Global() != custom {
		t.Fatalf("expected Global() to return the registry set via SetGlobal")
	}
}
