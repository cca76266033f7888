// Package optimizer implements the background housekeeping sweep that
// keeps the durable queue and the idempotency cache from growing
// without bound: it runs far less often than the processor's tick
// loop, trims terminal operations past their TTL, compacts an
// oversized queue, and clears the LRU cache under memory pressure.
// Writes are guarded by a circuit breaker built on the consecutive-
// failure breaker in internal/resilience/circuitbreaker.go, since a
// wedged filesystem should not be hammered every sweep.
package optimizer

import (
	"context"
	"runtime"
	"sort"
	"time"

	"github.com/specforged/specforge/internal/cache"
	"github.com/specforged/specforge/internal/config"
	"github.com/specforged/specforge/internal/logging"
	"github.com/specforged/specforge/internal/queue"
	"github.com/specforged/specforge/internal/resilience"
)

var terminalStatuses = map[queue.Status]bool{
	queue.StatusCompleted: true,
	queue.StatusFailed:    true,
	queue.StatusCancelled: true,
}

// Optimizer owns the slow-cadence sweep. It shares the processor's LRU
// cache instance (passed in by the caller that also owns the
// Processor) so clearing it here is visible to the reactor immediately.
type Optimizer struct {
	cfg       *config.Config
	queuePath string
	cacheLRU  *cache.LRU
	logger    logging.Logger
	breaker   *resilience.CircuitBreaker
}

// New constructs an Optimizer targeting the queue document at
// queuePath and sharing cacheLRU with the processor.
func New(cfg *config.Config, queuePath string, cacheLRU *cache.LRU, logger logging.Logger) *Optimizer {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Optimizer{
		cfg:       cfg,
		queuePath: queuePath,
		cacheLRU:  cacheLRU,
		logger:    logger.WithComponent("optimizer"),
		breaker:   resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig()),
	}
}

// Run drives the sweep on cfg.Optimizer.Interval until ctx is
// cancelled. Unlike the processor's reactor, a stuck sweep does not
// need a tick-boundary shutdown contract: one pass is a handful of
// milliseconds of pure CPU plus a single rewrite, so ctx.Done is
// checked only between passes.
func (o *Optimizer) Run(ctx context.Context) {
	ticker := time.NewTicker(o.cfg.Optimizer.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.Sweep(time.Now())
		}
	}
}

// Sweep performs one housekeeping pass. It is exported so tests can
// trigger it without waiting for the ticker.
func (o *Optimizer) Sweep(now time.Time) {
	if err := o.breaker.Execute(func() error { return o.sweepQueue(now) }); err != nil {
		o.logger.Warn("sweep skipped", map[string]interface{}{"error": err.Error()})
	}
	o.sweepCache()
}

func (o *Optimizer) sweepQueue(now time.Time) error {
	q, _, err := queue.Load(o.queuePath)
	if err != nil {
		return err
	}

	before := len(q.Operations)
	q.Operations = dropExpiredTerminal(q.Operations, now, o.cfg.Optimizer.TerminalTTL)
	q.Operations = compact(q.Operations, o.cfg.Optimizer.QueueLengthCap, o.cfg.Optimizer.QueueLengthTarget)

	if len(q.Operations) == before {
		// Nothing changed; avoid an unnecessary write and version bump.
		return nil
	}

	q.Version++
	if err := queue.Save(o.queuePath, q); err != nil {
		return err
	}
	o.logger.Info("queue compacted", map[string]interface{}{
		"before": before,
		"after":  len(q.Operations),
	})
	return nil
}

// dropExpiredTerminal removes operations in a terminal status whose
// SubmittedAt is older than ttl. The Operation carries no completion
// timestamp (its only other time, NotBefore, is a retry gate), so
// SubmittedAt is used rather than the result log's Timestamp.
func dropExpiredTerminal(ops []*queue.Operation, now time.Time, ttl time.Duration) []*queue.Operation {
	out := ops[:0:0]
	for _, op := range ops {
		if terminalStatuses[op.Status] && now.Sub(op.SubmittedAt) > ttl {
			continue
		}
		out = append(out, op)
	}
	return out
}

// compact drops the oldest completed operations when the queue exceeds
// cap, stopping once length <= target. Non-completed operations (and
// completed ones within the target) are left untouched.
func compact(ops []*queue.Operation, cap_, target int) []*queue.Operation {
	if len(ops) <= cap_ {
		return ops
	}

	completed := make([]*queue.Operation, 0, len(ops))
	for _, op := range ops {
		if op.Status == queue.StatusCompleted {
			completed = append(completed, op)
		}
	}
	sort.SliceStable(completed, func(i, j int) bool {
		return completed[i].SubmittedAt.Before(completed[j].SubmittedAt)
	})

	toDrop := len(ops) - target
	if toDrop > len(completed) {
		toDrop = len(completed)
	}
	dropIDs := make(map[string]bool, toDrop)
	for _, op := range completed[:toDrop] {
		dropIDs[op.ID] = true
	}

	out := ops[:0:0]
	for _, op := range ops {
		if dropIDs[op.ID] {
			continue
		}
		out = append(out, op)
	}
	return out
}

// sweepCache clears the idempotency cache when either resident memory
// is estimated over the configured ceiling or the cache is nearly
// full, whichever trips first. Go's runtime doesn't expose a
// per-cache byte count, so memory pressure is estimated from process
// heap usage (runtime.MemStats), the same signal resource-pressure
// checks elsewhere in the corpus use.
func (o *Optimizer) sweepCache() {
	stats := o.cacheLRU.Stats()

	var occupancyHigh bool
	if cap := o.cacheCapacity(); cap > 0 {
		occupancyHigh = float64(stats.Size)/float64(cap) > o.cfg.Optimizer.CacheOccupancyMax
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	memHighMiB := int64(mem.HeapAlloc / (1024 * 1024))
	memHigh := memHighMiB > o.cfg.Optimizer.MemoryCeilingMiB

	if memHigh || occupancyHigh {
		o.cacheLRU.Clear()
		o.logger.Info("idempotency cache cleared", map[string]interface{}{
			"heap_mib":        memHighMiB,
			"occupancy_high":  occupancyHigh,
			"cache_size_was":  stats.Size,
		})
	}
}

func (o *Optimizer) cacheCapacity() int {
	return o.cfg.Cache.Capacity
}
