// Package queue defines the Operation, OperationQueue, OperationResult,
// and Conflict types plus the operation status machine. The queue
// itself is a plain durable document (see internal/atomicio and
// internal/streamjson for how it reaches disk); this package only
// holds the shapes and the legal-transition rules.
package queue

import "time"

// Status is an operation's position in the pending -> in_progress ->
// {completed, failed, cancelled} state machine.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// legalTransitions enumerates every allowed (from, to) status edge.
// A failed operation may return to pending for a retry attempt (gated
// by retry_count < max_retries at the call site, not here); cancelled
// is terminal and only entered via conflict resolution.
var legalTransitions = map[Status]map[Status]bool{
	StatusPending:    {StatusInProgress: true, StatusCancelled: true},
	StatusInProgress: {StatusCompleted: true, StatusFailed: true, StatusCancelled: true},
	StatusFailed:     {StatusPending: true},
}

// CanTransition reports whether from->to is a legal status edge.
func CanTransition(from, to Status) bool {
	return legalTransitions[from][to]
}

// Type is the closed set of operation types the queue accepts.
type Type string

const (
	TypeCreateSpec               Type = "create_spec"
	TypeSetCurrentSpec           Type = "set_current_spec"
	TypeUpdateRequirements       Type = "update_requirements"
	TypeUpdateDesign             Type = "update_design"
	TypeUpdateTasks              Type = "update_tasks"
	TypeAddUserStory             Type = "add_user_story"
	TypeAddRequirement           Type = "add_requirement"
	TypeAddTask                  Type = "add_task"
	TypeCheckTask                Type = "check_task"
	TypeUncheckTask              Type = "uncheck_task"
	TypeBulkCheckTasks           Type = "bulk_check_tasks"
	TypeExecuteTask              Type = "execute_task"
	TypeTransitionPhase          Type = "transition_phase"
	TypeGenerateImplementation   Type = "generate_implementation_plan"
	TypeUpdateImplementationPlan Type = "update_implementation_plan"
	TypeHeartbeat                Type = "heartbeat"
	TypeSyncStatus               Type = "sync_status"
)

// Operation is one client-submitted unit of work.
type Operation struct {
	ID           string                 `json:"id"`
	Type         Type                   `json:"type"`
	Status       Status                 `json:"status"`
	Priority     int                    `json:"priority"`
	SubmittedAt  time.Time              `json:"submitted_at"`
	Source       string                 `json:"source,omitempty"`
	RetryCount   int                    `json:"retry_count"`
	MaxRetries   int                    `json:"max_retries"`
	Params       map[string]interface{} `json:"params"`
	Error        string                 `json:"error,omitempty"`
	ResultRef    string                 `json:"result_ref,omitempty"`
	NotBefore    *time.Time             `json:"not_before,omitempty"`
}

// Ready reports whether the operation is eligible for selection: it is
// pending and, if it carries a NotBefore stamp from a prior retry
// backoff, that time has passed.
func (o *Operation) Ready(now time.Time) bool {
	if o.Status != StatusPending {
		return false
	}
	if o.NotBefore != nil && now.Before(*o.NotBefore) {
		return false
	}
	return true
}

// SpecID extracts the specId parameter common to most operation types,
// returning "" if absent (e.g. heartbeat, sync_status).
func (o *Operation) SpecID() string {
	if v, ok := o.Params["specId"].(string); ok {
		return v
	}
	return ""
}

// Queue is the full durable document: an ordered operation list plus a
// monotonic version and last-processed timestamp.
type Queue struct {
	Operations    []*Operation `json:"operations"`
	Version       int          `json:"version"`
	LastProcessed *time.Time   `json:"last_processed"`
}

// Result records the outcome of processing one operation.
type Result struct {
	OperationID       string      `json:"operation_id"`
	Success           bool        `json:"success"`
	Message           string      `json:"message"`
	Data              interface{} `json:"data,omitempty"`
	Timestamp         time.Time   `json:"timestamp"`
	ProcessingTimeMs  int64       `json:"processing_time_ms"`
	Retryable         bool        `json:"retryable"`
}

// ConflictType names one of the four detectable conflict kinds.
type ConflictType string

const (
	ConflictDuplicate             ConflictType = "duplicate"
	ConflictConcurrentModification ConflictType = "concurrent_modification"
	ConflictVersionMismatch       ConflictType = "version_mismatch"
	ConflictDependencyViolation   ConflictType = "dependency_violation"
)

// Conflict describes a detected interaction between two (or one, for
// dependency violations) operations.
type Conflict struct {
	Type            ConflictType `json:"type"`
	OperationIDs    []string     `json:"operation_ids"`
	Description     string       `json:"description"`
	AutoResolveHint string       `json:"auto_resolve_hint,omitempty"`
}

// ResultLog is the rolling, size-bounded log of recent results
// persisted to mcp-results.json.
type ResultLog struct {
	Results []*Result `json:"results"`
}

// MaxResultLogSize is the cap on ResultLog.Results per the filesystem
// layout contract ("rolling result log (<=100 most recent)").
const MaxResultLogSize = 100

// Append adds result to the log, evicting the oldest entries past
// MaxResultLogSize.
func (l *ResultLog) Append(result *Result) {
	l.Results = append(l.Results, result)
	if over := len(l.Results) - MaxResultLogSize; over > 0 {
		l.Results = l.Results[over:]
	}
}
