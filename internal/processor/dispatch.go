package processor

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/specforged/specforge/internal/handlers"
	"github.com/specforged/specforge/internal/queue"
	"github.com/specforged/specforge/internal/specerrors"
	"github.com/specforged/specforge/internal/telemetry"
)

// dispatchOutcome is what a single handler invocation produced, folded
// back into the tick's queue/result mutations by the caller.
type dispatchOutcome struct {
	op      *queue.Operation
	result  handlers.Result
	err     error
	elapsed time.Duration
}

// runHandler invokes the handler for op under a per-handler deadline,
// converting a panic into an error rather than taking down the
// reactor. This mirrors the common worker-pool panic-recovery idiom
// (deferred recover + timeout context) adapted to a single blocking
// call rather than a persistent worker loop.
func (p *Processor) runHandler(ctx context.Context, op *queue.Operation) dispatchOutcome {
	ctx, span := telemetry.Tracer.Start(ctx, "processor.dispatch", trace.WithAttributes(
		attribute.String("specforge.operation_type", string(op.Type)),
		attribute.String("specforge.operation_id", op.ID),
	))
	defer span.End()

	start := time.Now()

	// sync_status has no entry in handlers.Table: it doesn't mutate a
	// specification, it reports the processor's own current SyncState,
	// so it is answered directly rather than routed through a handler.
	if op.Type == queue.TypeSyncStatus {
		return dispatchOutcome{op: op, result: p.syncStatusResult(), elapsed: time.Since(start)}
	}

	handler, ok := handlers.Table[op.Type]
	if !ok {
		return dispatchOutcome{
			op:      op,
			err:     specerrors.New("processor.runHandler", specerrors.ErrUnknownOperation, "unknown operation type: "+string(op.Type)),
			elapsed: time.Since(start),
		}
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Queue.HandlerTimeout)
	defer cancel()

	type outcome struct {
		res handlers.Result
		err error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: specerrors.New("processor.runHandler", specerrors.ErrFatal, fmt.Sprintf("handler panic: %v", r))}
			}
		}()
		res, err := handler(p.store, op)
		done <- outcome{res: res, err: err}
	}()

	select {
	case o := <-done:
		return dispatchOutcome{op: op, result: o.res, err: o.err, elapsed: time.Since(start)}
	case <-ctx.Done():
		return dispatchOutcome{
			op:      op,
			err:     specerrors.New("processor.runHandler", specerrors.ErrTransient, "handler timed out").WithID(op.ID),
			elapsed: time.Since(start),
		}
	}
}

// dispatchBatches fans out every operation across all batches under a
// semaphore bounding concurrency to p.cfg.Queue.Concurrency, and waits
// for all to finish before returning.
func (p *Processor) dispatchBatches(ctx context.Context, ops []*queue.Operation) []dispatchOutcome {
	sem := make(chan struct{}, p.cfg.Queue.Concurrency)
	results := make(chan dispatchOutcome, len(ops))

	for _, op := range ops {
		op := op
		sem <- struct{}{}
		go func() {
			defer func() { <-sem }()
			results <- p.runHandler(ctx, op)
		}()
	}

	// Drain: wait for every dispatched goroutine to report back. We
	// know len(ops) sends will occur because each goroutine always
	// sends exactly once (runHandler has no path that skips the send).
	out := make([]dispatchOutcome, 0, len(ops))
	for i := 0; i < len(ops); i++ {
		out = append(out, <-results)
	}
	return out
}
