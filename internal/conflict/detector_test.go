package conflict

import (
	"testing"
	"time"

	"github.com/specforged/specforge/internal/queue"
)

func mkOp(id string, typ queue.Type, spec string, at time.Time) *queue.Operation {
	return &queue.Operation{
		ID:          id,
		Type:        typ,
		Status:      queue.StatusPending,
		SubmittedAt: at,
		Params:      map[string]interface{}{"specId": spec, "title": "same"},
	}
}

func TestDetectDuplicateCancelsLater(t *testing.T) {
	now := time.Now()
	a := mkOp("a", queue.TypeAddTask, "spec", now)
	b := mkOp("b", queue.TypeAddTask, "spec", now.Add(time.Minute))

	resolutions := Detect(b, []*queue.Operation{a, b}, nil, nil)
	found := false
	for _, r := range resolutions {
		if r.Conflict.Type == queue.ConflictDuplicate {
			found = true
			if len(r.CancelIDs) != 1 || r.CancelIDs[0] != "b" {
				t.Fatalf("expected later operation b cancelled, got %+v", r.CancelIDs)
			}
		}
	}
	if !found {
		t.Fatalf("expected a duplicate conflict")
	}
}

func TestDetectDuplicateOutsideWindowIsNotFlagged(t *testing.T) {
	now := time.Now()
	a := mkOp("a", queue.TypeAddTask, "spec", now)
	b := mkOp("b", queue.TypeAddTask, "spec", now.Add(10*time.Minute))

	resolutions := Detect(b, []*queue.Operation{a, b}, nil, nil)
	for _, r := range resolutions {
		if r.Conflict.Type == queue.ConflictDuplicate {
			t.Fatalf("did not expect a duplicate conflict outside the window")
		}
	}
}

func TestDetectConcurrentModificationSerializesLater(t *testing.T) {
	now := time.Now()
	a := mkOp("a", queue.TypeUpdateDesign, "spec", now)
	b := mkOp("b", queue.TypeAddUserStory, "spec", now.Add(time.Minute))

	resolutions := Detect(b, []*queue.Operation{a, b}, nil, nil)
	found := false
	for _, r := range resolutions {
		if r.Conflict.Type == queue.ConflictConcurrentModification {
			found = true
			if len(r.SerializeIDs) != 1 || r.SerializeIDs[0] != "b" {
				t.Fatalf("expected later operation serialized, got %+v", r.SerializeIDs)
			}
		}
	}
	if !found {
		t.Fatalf("expected a concurrent-modification conflict")
	}
}

func TestDetectVersionMismatch(t *testing.T) {
	now := time.Now()
	a := mkOp("a", queue.TypeUpdateDesign, "spec", now)
	mtime := func(op *queue.Operation) (time.Time, bool) {
		return now.Add(time.Hour), true
	}
	resolutions := Detect(a, []*queue.Operation{a}, mtime, nil)
	if len(resolutions) != 1 || resolutions[0].Conflict.Type != queue.ConflictVersionMismatch {
		t.Fatalf("expected a version-mismatch conflict, got %+v", resolutions)
	}
}

func TestDetectDependencyViolationFails(t *testing.T) {
	now := time.Now()
	a := mkOp("a", queue.TypeExecuteTask, "spec", now)
	depsSatisfied := func(op *queue.Operation) (bool, bool) { return false, true }

	resolutions := Detect(a, []*queue.Operation{a}, nil, depsSatisfied)
	if len(resolutions) != 1 || resolutions[0].Conflict.Type != queue.ConflictDependencyViolation {
		t.Fatalf("expected a dependency-violation conflict, got %+v", resolutions)
	}
	if len(resolutions[0].FailIDs) != 1 {
		t.Fatalf("expected the operation to be marked for failure")
	}
}
