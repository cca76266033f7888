package mcpserver

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/specforged/specforge/internal/logging"
	"github.com/specforged/specforge/internal/queue"
	"github.com/specforged/specforge/internal/specerrors"
)

// Dispatcher is the only thing a tool call touches: it appends one
// Operation to the durable queue document and returns its id. It never
// reads from internal/specstore — the processor reports results
// asynchronously via mcp-results.json, which a client polls or a
// future streaming transport could push.
type Dispatcher struct {
	queuePath string
	logger    logging.Logger
}

// NewDispatcher targets the queue document at queuePath.
func NewDispatcher(queuePath string, logger logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Dispatcher{queuePath: queuePath, logger: logger.WithComponent("mcpserver")}
}

// Enqueue validates a tool call's arguments against its ToolSpec,
// builds an Operation, and appends it to the queue under the queue's
// own read-modify-write cycle (atomicio's rename is the only
// concurrency primitive here — no file locks).
func (d *Dispatcher) Enqueue(toolName string, args map[string]interface{}, source string) (*queue.Operation, error) {
	tool, ok := findTool(toolName)
	if !ok {
		return nil, specerrors.New("mcpserver.Enqueue", specerrors.ErrUnknownOperation, "unknown tool: "+toolName)
	}
	for _, req := range tool.RequiredParams {
		if _, present := args[req]; !present {
			return nil, specerrors.New("mcpserver.Enqueue", specerrors.ErrValidation, fmt.Sprintf("tool %s missing required argument %q", toolName, req))
		}
	}

	op := &queue.Operation{
		ID:          uuid.NewString(),
		Type:        tool.OperationType,
		Status:      queue.StatusPending,
		Priority:    priorityFor(tool.OperationType),
		SubmittedAt: time.Now(),
		Source:      source,
		MaxRetries:  3,
		Params:      args,
	}

	q, _, err := queue.Load(d.queuePath)
	if err != nil {
		return nil, specerrors.Wrap("mcpserver.Enqueue", specerrors.ErrTransient, err)
	}
	q.Operations = append(q.Operations, op)
	q.Version++
	if err := queue.Save(d.queuePath, q); err != nil {
		return nil, specerrors.Wrap("mcpserver.Enqueue", specerrors.ErrTransient, err)
	}

	d.logger.Info("operation enqueued", map[string]interface{}{
		"operation_id": op.ID,
		"type":         string(op.Type),
	})
	return op, nil
}

// priorityFor gives sync_status/heartbeat a slight edge so liveness
// and status checks don't queue behind a burst of mutations — ready
// selection is priority-desc, timestamp-asc.
func priorityFor(t queue.Type) int {
	switch t {
	case queue.TypeHeartbeat, queue.TypeSyncStatus:
		return 10
	default:
		return 0
	}
}
