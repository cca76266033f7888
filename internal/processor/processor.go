// Package processor implements the queue processor's single
// cooperative reactor: one tick loop that loads the operation queue,
// deduplicates via the idempotency cache, detects conflicts, batches
// compatible operations, dispatches handlers under bounded
// concurrency, retries failures under backoff, and persists results
// and sync state. This is the queue processor's hard core.
package processor

import (
	"context"
	"sort"
	"time"

	"github.com/specforged/specforge/internal/batcher"
	"github.com/specforged/specforge/internal/cache"
	"github.com/specforged/specforge/internal/conflict"
	"github.com/specforged/specforge/internal/config"
	"github.com/specforged/specforge/internal/handlers"
	"github.com/specforged/specforge/internal/logging"
	"github.com/specforged/specforge/internal/queue"
	"github.com/specforged/specforge/internal/rediscache"
	"github.com/specforged/specforge/internal/resilience"
	"github.com/specforged/specforge/internal/sandbox"
	"github.com/specforged/specforge/internal/specerrors"
	"github.com/specforged/specforge/internal/specstore"
	"github.com/specforged/specforge/internal/syncstate"
	"github.com/specforged/specforge/internal/telemetry"
)

// cachedResult is what the idempotency cache stores per signature.
type cachedResult struct {
	result    queue.Result
	cachedAt  time.Time
}

// Processor owns the tick loop and all the shared mutable state the
// reactor touches: the LRU idempotency cache and the SyncState EMA
// tracker. These are the only state touched outside handler bodies,
// guarded here by the cache's own mutex and by running the tracker
// update only from the single reactor goroutine.
type Processor struct {
	cfg     *config.Config
	sandbox *sandbox.Sandbox
	store   *specstore.Store
	cacheLRU *cache.LRU
	logger  logging.Logger
	paths   Paths
	tracker syncstate.Tracker

	wake chan struct{}
	stop chan struct{}
	done chan struct{}

	activeConflicts []queue.Conflict
	redisMirror     *rediscache.Mirror
}

// SetRedisMirror wires an optional Redis mirror for SyncState, kept
// separate from New's required arguments since most deployments never
// set SPECFORGE_REDIS_URL.
func (p *Processor) SetRedisMirror(m *rediscache.Mirror) { p.redisMirror = m }

// New constructs a Processor rooted at sb.Root().
func New(cfg *config.Config, sb *sandbox.Sandbox, store *specstore.Store, logger logging.Logger) *Processor {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Processor{
		cfg:      cfg,
		sandbox:  sb,
		store:    store,
		cacheLRU: cache.New(cfg.Cache.Capacity),
		logger:   logger.WithComponent("processor"),
		paths:    NewPaths(sb.Root()),
		wake:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Cache exposes the idempotency cache so the background optimizer can
// share and clear the same instance the reactor reads from.
func (p *Processor) Cache() *cache.LRU { return p.cacheLRU }

// QueuePath exposes the queue document path for the background
// optimizer's own sweep, avoiding a second NewPaths computation.
func (p *Processor) QueuePath() string { return p.paths.Queue }

// Nudge requests an early tick (the fsnotify fast path); non-blocking.
func (p *Processor) Nudge() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Stop signals the loop to finish its current tick and exit. It blocks
// until the loop has actually stopped.
func (p *Processor) Stop() {
	close(p.stop)
	<-p.done
}

// Run drives the tick loop until ctx is cancelled or Stop is called.
func (p *Processor) Run(ctx context.Context) error {
	defer close(p.done)

	ticker := time.NewTicker(p.cfg.Queue.TickInterval)
	defer ticker.Stop()

	lastSync := time.Time{}
	for {
		if err := p.tick(ctx, &lastSync); err != nil {
			p.logger.Error("tick failed", map[string]interface{}{"error": err.Error()})
		}

		select {
		case <-ctx.Done():
			p.finalSync()
			return ctx.Err()
		case <-p.stop:
			p.finalSync()
			return nil
		case <-p.wake:
		case <-ticker.C:
		}
	}
}

func (p *Processor) finalSync() {
	q, _, err := queue.Load(p.paths.Queue)
	if err != nil {
		return
	}
	state := syncstate.Compute(q, len(p.activeConflicts), p.store.List(), p.sandbox.Root(), &p.tracker, 0, 0)
	state.ServerOnline = true
	if err := syncstate.Write(p.paths.Sync, state); err == nil && p.redisMirror != nil {
		p.redisMirror.Write(state)
	}
}

// tick runs the ten-step algorithm once.
func (p *Processor) tick(ctx context.Context, lastSync *time.Time) error {
	ctx, span := telemetry.Tracer.Start(ctx, "processor.tick")
	defer span.End()

	// 1. Heartbeat happens implicitly via the SyncState write at the
	// end of the tick (step 10), which always stamps last_heartbeat.

	// 2. Load
	q, _, err := queue.Load(p.paths.Queue)
	if err != nil {
		return specerrors.Wrap("processor.tick", specerrors.ErrTransient, err)
	}

	now := time.Now()

	// 3. Select
	var ready []*queue.Operation
	for _, op := range q.Operations {
		if op.Ready(now) {
			ready = append(ready, op)
		}
	}
	sort.SliceStable(ready, func(i, j int) bool {
		if ready[i].Priority != ready[j].Priority {
			return ready[i].Priority > ready[j].Priority
		}
		return ready[i].SubmittedAt.Before(ready[j].SubmittedAt)
	})

	resultLog, err := queue.LoadResults(p.paths.Results)
	if err != nil {
		resultLog = &queue.ResultLog{}
	}

	// 4. Idempotency check
	var toProcess []*queue.Operation
	for _, op := range ready {
		sig := queue.Signature(op)
		if cached, ok := p.cacheLRU.Get(sig); ok {
			entry := cached.(cachedResult)
			if now.Sub(entry.cachedAt) < p.cfg.Queue.IdempotencyWindow {
				op.Status = queue.StatusCompleted
				result := entry.result
				result.OperationID = op.ID
				resultLog.Append(&result)
				continue
			}
		}
		toProcess = append(toProcess, op)
	}

	// 5. Conflict detection
	mtime := conflict.FileArtifactMTime(p.sandbox.Root())
	depsSatisfied := p.dependencySatisfier()
	p.activeConflicts = nil

	cancelled := map[string]bool{}
	failed := map[string]bool{}
	serialized := map[string]bool{}
	for _, op := range toProcess {
		resolutions := conflict.Detect(op, q.Operations, mtime, depsSatisfied)
		for _, r := range resolutions {
			switch {
			case len(r.CancelIDs) > 0:
				for _, id := range r.CancelIDs {
					cancelled[id] = true
				}
			case len(r.FailIDs) > 0:
				for _, id := range r.FailIDs {
					failed[id] = true
				}
			case len(r.SerializeIDs) > 0:
				for _, id := range r.SerializeIDs {
					serialized[id] = true
				}
			default:
				p.activeConflicts = append(p.activeConflicts, r.Conflict)
			}
		}
	}
	for _, op := range q.Operations {
		if cancelled[op.ID] {
			op.Status = queue.StatusCancelled
		}
		if failed[op.ID] {
			op.Status = queue.StatusFailed
			op.Error = "dependency unmet"
		}
	}

	// Drop cancelled, failed, and serialized-later operations from
	// this tick's dispatch set; serialized ones remain pending and are
	// picked up once the earlier operation on that specification
	// completes.
	var dispatchable []*queue.Operation
	for _, op := range toProcess {
		if cancelled[op.ID] || failed[op.ID] || serialized[op.ID] {
			continue
		}
		dispatchable = append(dispatchable, op)
	}

	// 6. Batching
	batches := batcher.Batches(dispatchable, p.cfg.Queue.BatchCapacity)
	var flat []*queue.Operation
	for _, b := range batches {
		flat = append(flat, b.Operations...)
	}

	// 7. Dispatch
	for _, op := range flat {
		op.Status = queue.StatusInProgress
	}
	outcomes := p.dispatchBatches(ctx, flat)

	// 8/9. Retry + persist results
	backoffCfg := resilience.BackoffConfig{
		Base:        p.cfg.Queue.BackoffBase,
		JitterRatio: p.cfg.Queue.BackoffJitter,
		Cap:         p.cfg.Queue.BackoffCap,
		MaxRetries:  p.cfg.Queue.MaxRetries,
	}
	for _, o := range outcomes {
		p.tracker.Observe(float64(o.elapsed.Milliseconds()))

		if o.err == nil {
			o.op.Status = queue.StatusCompleted
			result := queue.Result{
				OperationID:      o.op.ID,
				Success:          true,
				Message:          o.result.Message,
				Data:             o.result.Data,
				Timestamp:        now,
				ProcessingTimeMs: o.elapsed.Milliseconds(),
				Retryable:        false,
			}
			resultLog.Append(&result)
			sig := queue.Signature(o.op)
			p.cacheLRU.Put(sig, cachedResult{result: result, cachedAt: now})
			continue
		}

		retryable := specerrors.Retryable(o.err)
		if retryable && o.op.RetryCount < o.op.MaxRetries {
			o.op.RetryCount++
			delay := backoffCfg.Delay(o.op.RetryCount)
			notBefore := now.Add(delay)
			o.op.Status = queue.StatusPending
			o.op.NotBefore = &notBefore
		} else {
			o.op.Status = queue.StatusFailed
		}
		o.op.Error = o.err.Error()
		resultLog.Append(&queue.Result{
			OperationID:      o.op.ID,
			Success:          false,
			Message:          o.err.Error(),
			Timestamp:        now,
			ProcessingTimeMs: o.elapsed.Milliseconds(),
			Retryable:        retryable,
		})
	}

	q.Version++
	t := now
	q.LastProcessed = &t
	if err := queue.Save(p.paths.Queue, q); err != nil {
		return err
	}
	if err := queue.SaveResults(p.paths.Results, resultLog); err != nil {
		return err
	}

	// 10. SyncState write: once per tick, which trivially satisfies the
	// documented 30s upper bound at any tick interval <= 30s.
	state := syncstate.Compute(q, len(p.activeConflicts), p.store.List(), p.sandbox.Root(), &p.tracker, lastElapsedMs(outcomes), processingRate(outcomes, p.cfg.Queue.TickInterval))
	if err := syncstate.Write(p.paths.Sync, state); err != nil {
		p.logger.Warn("sync write failed, will retry next tick", map[string]interface{}{"error": err.Error()})
	} else {
		*lastSync = now
		if p.redisMirror != nil {
			p.redisMirror.Write(state)
		}
	}

	return nil
}

// syncStatusResult answers a sync_status operation with a fresh
// SyncState snapshot computed from the on-disk queue, without going
// through handlers.Table (there is no specstore mutation to perform).
func (p *Processor) syncStatusResult() handlers.Result {
	q, _, err := queue.Load(p.paths.Queue)
	if err != nil {
		q = &queue.Queue{}
	}
	state := syncstate.Compute(q, len(p.activeConflicts), p.store.List(), p.sandbox.Root(), &p.tracker, 0, 0)
	return handlers.Result{Message: "sync status", Data: state}
}

func (p *Processor) dependencySatisfier() func(op *queue.Operation) (bool, bool) {
	return func(op *queue.Operation) (bool, bool) {
		specID := op.SpecID()
		taskID, _ := op.Params["task_id"].(string)
		if specID == "" || taskID == "" {
			return true, false
		}
		spec, err := p.store.Get(specID)
		if err != nil {
			return true, false
		}
		t := specstore.FindTask(spec.Tasks, taskID)
		if t == nil {
			return true, false
		}
		return specstore.DependenciesSatisfied(spec.Tasks, t.Dependencies), true
	}
}

func lastElapsedMs(outcomes []dispatchOutcome) float64 {
	if len(outcomes) == 0 {
		return 0
	}
	return float64(outcomes[len(outcomes)-1].elapsed.Milliseconds())
}

func processingRate(outcomes []dispatchOutcome, tick time.Duration) float64 {
	if tick <= 0 {
		return 0
	}
	return float64(len(outcomes)) / tick.Seconds()
}
