package batcher

import (
	"testing"
	"time"

	"github.com/specforged/specforge/internal/queue"
)

func op(typ queue.Type, spec string, priority int, at time.Time) *queue.Operation {
	return &queue.Operation{
		Type:        typ,
		Priority:    priority,
		SubmittedAt: at,
		Params:      map[string]interface{}{"specId": spec},
	}
}

func TestBatchesGroupSameTypeSameSpec(t *testing.T) {
	now := time.Now()
	ops := []*queue.Operation{
		op(queue.TypeCheckTask, "a", 0, now),
		op(queue.TypeCheckTask, "a", 0, now.Add(time.Second)),
	}
	batches := Batches(ops, 0)
	if len(batches) != 1 || len(batches[0].Operations) != 2 {
		t.Fatalf("expected one batch of two, got %+v", batches)
	}
}

func TestBatchesSeparateIncompatibleTypes(t *testing.T) {
	now := time.Now()
	ops := []*queue.Operation{
		op(queue.TypeAddUserStory, "a", 0, now),
		op(queue.TypeUpdateRequirements, "a", 0, now.Add(time.Second)),
	}
	batches := Batches(ops, 0)
	if len(batches) != 2 {
		t.Fatalf("expected add_user_story and update_requirements to split into separate batches, got %d", len(batches))
	}
}

func TestBatchesMergeDisjointArtifactTypes(t *testing.T) {
	now := time.Now()
	ops := []*queue.Operation{
		op(queue.TypeUpdateRequirements, "a", 0, now),
		op(queue.TypeUpdateDesign, "a", 0, now.Add(time.Second)),
	}
	batches := Batches(ops, 0)
	if len(batches) != 1 {
		t.Fatalf("expected update_requirements and update_design to merge, got %d batches", len(batches))
	}
}

func TestBatchesAlwaysCompatibleAcrossSpecs(t *testing.T) {
	now := time.Now()
	ops := []*queue.Operation{
		op(queue.TypeAddUserStory, "a", 0, now),
		op(queue.TypeUpdateRequirements, "b", 0, now.Add(time.Second)),
	}
	batches := Batches(ops, 0)
	if len(batches) != 1 {
		t.Fatalf("expected cross-spec ops to batch together, got %d", len(batches))
	}
}

func TestBatchesRespectCapacity(t *testing.T) {
	now := time.Now()
	var ops []*queue.Operation
	for i := 0; i < 5; i++ {
		ops = append(ops, op(queue.TypeCheckTask, "a", 0, now.Add(time.Duration(i)*time.Second)))
	}
	batches := Batches(ops, 2)
	if len(batches) != 3 {
		t.Fatalf("expected 3 batches at capacity 2 for 5 ops, got %d", len(batches))
	}
}

func TestBatchesOrderByPriorityThenTimestamp(t *testing.T) {
	now := time.Now()
	low := op(queue.TypeCheckTask, "a", 1, now)
	high := op(queue.TypeCheckTask, "b", 5, now.Add(time.Second))
	batches := Batches([]*queue.Operation{low, high}, 0)
	// different specs are always compatible, so they land in one batch,
	// but ordering within it must be priority-first.
	if batches[0].Operations[0] != high {
		t.Fatalf("expected higher-priority operation first")
	}
}
