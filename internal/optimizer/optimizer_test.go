package optimizer

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/specforged/specforge/internal/cache"
	"github.com/specforged/specforge/internal/config"
	"github.com/specforged/specforge/internal/queue"
)

func mkOp(id string, status queue.Status, submitted time.Time) *queue.Operation {
	return &queue.Operation{
		ID:          id,
		Type:        queue.TypeHeartbeat,
		Status:      status,
		SubmittedAt: submitted,
	}
}

func TestSweepDropsExpiredTerminalOperations(t *testing.T) {
	dir := t.TempDir()
	qp := filepath.Join(dir, "mcp-operations.json")
	now := time.Now()

	q := &queue.Queue{Operations: []*queue.Operation{
		mkOp("old-completed", queue.StatusCompleted, now.Add(-25*time.Hour)),
		mkOp("recent-completed", queue.StatusCompleted, now.Add(-time.Hour)),
		mkOp("still-pending", queue.StatusPending, now.Add(-48*time.Hour)),
	}}
	if err := queue.Save(qp, q); err != nil {
		t.Fatalf("save: %v", err)
	}

	cfg := config.Default()
	opt := New(cfg, qp, cache.New(10), nil)
	opt.Sweep(now)

	got, _, err := queue.Load(qp)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Operations) != 2 {
		t.Fatalf("expected the expired terminal op dropped, got %d operations", len(got.Operations))
	}
	for _, op := range got.Operations {
		if op.ID == "old-completed" {
			t.Fatalf("expired terminal operation should have been dropped")
		}
	}
}

func TestCompactDropsOldestCompletedDownToTarget(t *testing.T) {
	now := time.Now()
	var ops []*queue.Operation
	for i := 0; i < 12; i++ {
		ops = append(ops, mkOp(string(rune('a'+i)), queue.StatusCompleted, now.Add(time.Duration(i)*time.Minute)))
	}

	out := compact(ops, 10, 5)
	if len(out) != 5 {
		t.Fatalf("expected compaction down to target 5, got %d", len(out))
	}
	// The five newest (highest index) completed ops must survive.
	for _, op := range out {
		if op.ID == "a" || op.ID == "b" {
			t.Fatalf("oldest completed operations should have been dropped, found %s", op.ID)
		}
	}
}

func TestCompactLeavesQueueUnderCapUntouched(t *testing.T) {
	now := time.Now()
	ops := []*queue.Operation{
		mkOp("one", queue.StatusCompleted, now),
		mkOp("two", queue.StatusPending, now),
	}
	out := compact(ops, 10, 5)
	if len(out) != 2 {
		t.Fatalf("expected queue under cap left untouched, got %d", len(out))
	}
}

func TestSweepClearsCacheUnderHighOccupancy(t *testing.T) {
	dir := t.TempDir()
	qp := filepath.Join(dir, "mcp-operations.json")
	if err := queue.Save(qp, &queue.Queue{}); err != nil {
		t.Fatalf("save: %v", err)
	}

	c := cache.New(2)
	c.Put("a", 1)
	c.Put("b", 2)

	cfg := config.Default()
	cfg.Optimizer.CacheOccupancyMax = 0.5 // 2/2 = 1.0 > 0.5, forces a clear
	cfg.Optimizer.MemoryCeilingMiB = 1 << 30

	opt := New(cfg, qp, c, nil)
	opt.Sweep(time.Now())

	if stats := c.Stats(); stats.Size != 0 {
		t.Fatalf("expected cache cleared under high occupancy, size=%d", stats.Size)
	}
}
