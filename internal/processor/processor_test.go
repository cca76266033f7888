package processor

import (
	"context"
	"testing"
	"time"

	"github.com/specforged/specforge/internal/atomicio"
	"github.com/specforged/specforge/internal/config"
	"github.com/specforged/specforge/internal/queue"
	"github.com/specforged/specforge/internal/sandbox"
	"github.com/specforged/specforge/internal/specstore"
)

func newTestProcessor(t *testing.T) (*Processor, *sandbox.Sandbox) {
	t.Helper()
	sb, err := sandbox.Resolve(t.TempDir())
	if err != nil {
		t.Fatalf("resolve sandbox: %v", err)
	}
	store := specstore.New(sb, nil)
	cfg := config.Default()
	cfg.Queue.TickInterval = 10 * time.Millisecond
	return New(cfg, sb, store, nil), sb
}

func writeQueue(t *testing.T, p *Processor, ops ...*queue.Operation) {
	t.Helper()
	q := &queue.Queue{Operations: ops}
	if err := queue.Save(p.paths.Queue, q); err != nil {
		t.Fatalf("save queue: %v", err)
	}
}

func newOp(id string, typ queue.Type, params map[string]interface{}) *queue.Operation {
	return &queue.Operation{
		ID:          id,
		Type:        typ,
		Status:      queue.StatusPending,
		SubmittedAt: time.Now(),
		MaxRetries:  3,
		Params:      params,
	}
}

// A create_spec operation dispatched through tick() produces a
// completed result and a persisted specification.
func TestTickDispatchesCreateSpec(t *testing.T) {
	p, _ := newTestProcessor(t)
	writeQueue(t, p, newOp("op-1", queue.TypeCreateSpec, map[string]interface{}{
		"name": "Checkout Flow",
	}))

	var lastSync time.Time
	if err := p.tick(context.Background(), &lastSync); err != nil {
		t.Fatalf("tick: %v", err)
	}

	q, _, err := queue.Load(p.paths.Queue)
	if err != nil {
		t.Fatalf("load queue: %v", err)
	}
	if q.Operations[0].Status != queue.StatusCompleted {
		t.Fatalf("expected op completed, got %s", q.Operations[0].Status)
	}

	specs := p.store.List()
	if len(specs) != 1 {
		t.Fatalf("expected one specification to have been created, got %d", len(specs))
	}
}

// An operation replayed with the same signature within the idempotency
// window is short-circuited from the cache rather than re-dispatched.
func TestTickIdempotencyShortCircuitsReplay(t *testing.T) {
	p, _ := newTestProcessor(t)
	op := newOp("op-1", queue.TypeCreateSpec, map[string]interface{}{"name": "Billing"})
	writeQueue(t, p, op)

	var lastSync time.Time
	if err := p.tick(context.Background(), &lastSync); err != nil {
		t.Fatalf("first tick: %v", err)
	}
	if len(p.store.List()) != 1 {
		t.Fatalf("expected one spec after first tick")
	}

	// Re-submit the identical operation under a new id and pending
	// status, as a client replaying a request would.
	replay := newOp("op-2", queue.TypeCreateSpec, map[string]interface{}{"name": "Billing"})
	writeQueue(t, p, replay)
	if err := p.tick(context.Background(), &lastSync); err != nil {
		t.Fatalf("second tick: %v", err)
	}

	// The replay must not have created a second specification: the
	// cached result was replayed instead of calling the handler again.
	if len(p.store.List()) != 1 {
		t.Fatalf("expected idempotency cache to suppress the duplicate create, got %d specs", len(p.store.List()))
	}

	resultLog, err := queue.LoadResults(p.paths.Results)
	if err != nil {
		t.Fatalf("load results: %v", err)
	}
	found := false
	for _, r := range resultLog.Results {
		if r.OperationID == "op-2" && r.Success {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a successful cached result recorded for op-2")
	}
}

// A handler failure that is not retryable fails the operation at once
// without incrementing its retry count or scheduling a backoff.
func TestTickFailsNonRetryableErrorWithoutRetry(t *testing.T) {
	p, _ := newTestProcessor(t)
	// set_current_spec against a specId that doesn't exist returns
	// ErrNotFound, which is not retryable, so the operation fails
	// immediately without a retry schedule.
	writeQueue(t, p, newOp("op-1", queue.TypeSetCurrentSpec, map[string]interface{}{
		"specId": "does-not-exist",
	}))

	var lastSync time.Time
	if err := p.tick(context.Background(), &lastSync); err != nil {
		t.Fatalf("tick: %v", err)
	}

	q, _, err := queue.Load(p.paths.Queue)
	if err != nil {
		t.Fatalf("load queue: %v", err)
	}
	op := q.Operations[0]
	if op.Status != queue.StatusFailed {
		t.Fatalf("expected not-found lookup to fail the operation, got %s", op.Status)
	}
	if op.RetryCount != 0 {
		t.Fatalf("validation/not-found failures are not retryable, expected retry count 0, got %d", op.RetryCount)
	}
}

// sync_status has no entry in handlers.Table; the processor answers it
// directly with a SyncState snapshot rather than failing with
// ErrUnknownOperation.
func TestTickAnswersSyncStatusDirectly(t *testing.T) {
	p, _ := newTestProcessor(t)
	writeQueue(t, p, newOp("op-1", queue.TypeSyncStatus, nil))

	var lastSync time.Time
	if err := p.tick(context.Background(), &lastSync); err != nil {
		t.Fatalf("tick: %v", err)
	}

	resultLog, err := queue.LoadResults(p.paths.Results)
	if err != nil {
		t.Fatalf("load results: %v", err)
	}
	if len(resultLog.Results) != 1 || !resultLog.Results[0].Success {
		t.Fatalf("expected a single successful sync_status result, got %+v", resultLog.Results)
	}
	if resultLog.Results[0].Data == nil {
		t.Fatalf("expected sync_status result to carry SyncState data")
	}
}

// A duplicate add_task submitted twice within the conflict window is
// cancelled rather than dispatched a second time.
func TestTickCancelsDuplicateWithinWindow(t *testing.T) {
	p, _ := newTestProcessor(t)
	now := time.Now()
	first := newOp("op-1", queue.TypeAddTask, map[string]interface{}{
		"specId": "does-not-matter",
		"title":  "Write tests",
	})
	first.SubmittedAt = now
	second := newOp("op-2", queue.TypeAddTask, map[string]interface{}{
		"specId": "does-not-matter",
		"title":  "Write tests",
	})
	second.SubmittedAt = now.Add(time.Second)
	writeQueue(t, p, first, second)

	var lastSync time.Time
	if err := p.tick(context.Background(), &lastSync); err != nil {
		t.Fatalf("tick: %v", err)
	}

	q, _, err := queue.Load(p.paths.Queue)
	if err != nil {
		t.Fatalf("load queue: %v", err)
	}
	var cancelled int
	for _, op := range q.Operations {
		if op.Status == queue.StatusCancelled {
			cancelled++
		}
	}
	if cancelled != 1 {
		t.Fatalf("expected exactly one of the duplicate pair cancelled, got %d", cancelled)
	}
}

// Stop lets the in-flight tick finish before the run loop exits, and a
// final SyncState is written with server_online=true.
func TestStopWritesFinalSyncAfterCurrentTick(t *testing.T) {
	p, _ := newTestProcessor(t)
	writeQueue(t, p, newOp("op-1", queue.TypeHeartbeat, nil))

	done := make(chan error, 1)
	go func() { done <- p.Run(context.Background()) }()

	// Give the loop at least one tick to run before stopping.
	time.Sleep(30 * time.Millisecond)
	p.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not exit after Stop")
	}

	if !atomicio.Exists(p.paths.Sync) {
		t.Fatalf("expected sync state file to exist after stop")
	}
}
