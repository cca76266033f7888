package syncstate

import (
	"testing"

	"github.com/specforged/specforge/internal/queue"
	"github.com/specforged/specforge/internal/specstore"
)

func TestComputeCountersByStatus(t *testing.T) {
	q := &queue.Queue{Operations: []*queue.Operation{
		{Status: queue.StatusPending},
		{Status: queue.StatusPending},
		{Status: queue.StatusInProgress},
		{Status: queue.StatusCompleted},
		{Status: queue.StatusFailed},
	}}
	s := Compute(q, 2, nil, t.TempDir(), &Tracker{}, 0, 0)

	if s.Pending != 2 || s.InProgress != 1 || s.Completed != 1 || s.Failed != 1 {
		t.Fatalf("unexpected counters: %+v", s)
	}
	if s.ActiveConflicts != 2 {
		t.Fatalf("expected 2 active conflicts, got %d", s.ActiveConflicts)
	}
}

func TestTrackerEMASmoothing(t *testing.T) {
	tr := &Tracker{}
	tr.Observe(100)
	if tr.averageMs != 100 {
		t.Fatalf("first observation should seed the average, got %f", tr.averageMs)
	}
	tr.Observe(200)
	want := 0.2*200 + 0.8*100
	if tr.averageMs != want {
		t.Fatalf("expected EMA %f, got %f", want, tr.averageMs)
	}
}

func TestComputeIncludesSpecSummaries(t *testing.T) {
	q := &queue.Queue{}
	specs := []*specstore.Specification{{Slug: "a", Status: specstore.StatusDraft}}
	s := Compute(q, 0, specs, t.TempDir(), &Tracker{}, 0, 0)
	if len(s.Specifications) != 1 || s.Specifications[0].SpecID != "a" {
		t.Fatalf("expected one spec summary for 'a', got %+v", s.Specifications)
	}
}
