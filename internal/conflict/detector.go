// Package conflict detects interactions between queued operations:
// duplicates, concurrent modifications, version mismatches against
// externally-edited artifacts, and dependency violations. Detected
// conflicts are either auto-resolved in place or surfaced for the
// client to decide.
package conflict

import (
	"os"
	"path/filepath"
	"time"

	"github.com/specforged/specforge/internal/queue"
)

// Window is the 5-minute lookback used for duplicate and
// concurrent-modification detection.
const Window = 5 * time.Minute

// mutatingTypes are operations that write to a specification's domain
// model, relevant to concurrent-modification detection.
var mutatingTypes = map[queue.Type]bool{
	queue.TypeUpdateRequirements:       true,
	queue.TypeUpdateDesign:             true,
	queue.TypeUpdateTasks:              true,
	queue.TypeAddUserStory:             true,
	queue.TypeAddRequirement:           true,
	queue.TypeAddTask:                  true,
	queue.TypeCheckTask:                true,
	queue.TypeUncheckTask:              true,
	queue.TypeBulkCheckTasks:           true,
	queue.TypeExecuteTask:              true,
	queue.TypeTransitionPhase:          true,
	queue.TypeGenerateImplementation:   true,
	queue.TypeUpdateImplementationPlan: true,
}

// ArtifactMTime resolves the on-disk modification time of the artifact
// an operation targets, for version-mismatch detection. Operations
// with no file artifact (heartbeat, sync_status) return the zero time.
type ArtifactMTime func(op *queue.Operation) (time.Time, bool)

// FileArtifactMTime builds an ArtifactMTime that stats spec.json under
// root/.specifications/<specId>, the one artifact every mutating
// operation ultimately touches.
func FileArtifactMTime(root string) ArtifactMTime {
	return func(op *queue.Operation) (time.Time, bool) {
		specID := op.SpecID()
		if specID == "" {
			return time.Time{}, false
		}
		path := filepath.Join(root, ".specifications", specID, "spec.json")
		info, err := os.Stat(path)
		if err != nil {
			return time.Time{}, false
		}
		return info.ModTime(), true
	}
}

// Resolution is what happened to an operation as a result of conflict
// auto-resolution.
type Resolution struct {
	Conflict     queue.Conflict
	CancelIDs    []string // operations to mark cancelled
	SerializeIDs []string // operations to leave pending (blocked until the earlier completes)
	FailIDs      []string // operations to fail without retry (dependency violation)
}

// Detect compares candidate against every other pending/in-progress
// operation in queued (which should include candidate itself) and
// against depsSatisfied for dependency violations, returning every
// detected conflict and its resolution.
func Detect(candidate *queue.Operation, queued []*queue.Operation, mtime ArtifactMTime, depsSatisfied func(op *queue.Operation) (bool, bool)) []Resolution {
	var out []Resolution

	for _, other := range queued {
		if other.ID == candidate.ID {
			continue
		}
		if other.Status != queue.StatusPending && other.Status != queue.StatusInProgress {
			continue
		}

		if r, ok := detectDuplicate(candidate, other); ok {
			out = append(out, r)
			continue
		}
		if r, ok := detectConcurrentModification(candidate, other); ok {
			out = append(out, r)
		}
	}

	if r, ok := detectVersionMismatch(candidate, mtime); ok {
		out = append(out, r)
	}
	if r, ok := detectDependencyViolation(candidate, depsSatisfied); ok {
		out = append(out, r)
	}

	return out
}

func withinWindow(a, b time.Time) bool {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= Window
}

// detectDuplicate: same type, same spec, same normalized parameters,
// within the window. Auto-resolve by cancelling the later submission.
func detectDuplicate(candidate, other *queue.Operation) (Resolution, bool) {
	if candidate.Type != other.Type || candidate.SpecID() != other.SpecID() {
		return Resolution{}, false
	}
	if queue.Signature(candidate) != queue.Signature(other) {
		return Resolution{}, false
	}
	if !withinWindow(candidate.SubmittedAt, other.SubmittedAt) {
		return Resolution{}, false
	}

	later := candidate
	if other.SubmittedAt.After(candidate.SubmittedAt) {
		later = other
	}
	return Resolution{
		Conflict: queue.Conflict{
			Type:            queue.ConflictDuplicate,
			OperationIDs:    []string{candidate.ID, other.ID},
			Description:     "duplicate submission of " + string(candidate.Type),
			AutoResolveHint: "cancel later",
		},
		CancelIDs: []string{later.ID},
	}, true
}

// detectConcurrentModification: two mutating operations on the same
// spec submitted within the window, both still unprocessed. Serialize
// by blocking the later until the earlier completes.
func detectConcurrentModification(candidate, other *queue.Operation) (Resolution, bool) {
	if !mutatingTypes[candidate.Type] || !mutatingTypes[other.Type] {
		return Resolution{}, false
	}
	if candidate.SpecID() == "" || candidate.SpecID() != other.SpecID() {
		return Resolution{}, false
	}
	if !withinWindow(candidate.SubmittedAt, other.SubmittedAt) {
		return Resolution{}, false
	}

	later := candidate
	if other.SubmittedAt.After(candidate.SubmittedAt) {
		later = other
	}
	return Resolution{
		Conflict: queue.Conflict{
			Type:            queue.ConflictConcurrentModification,
			OperationIDs:    []string{candidate.ID, other.ID},
			Description:     "concurrent modification of specification " + candidate.SpecID(),
			AutoResolveHint: "serialize later behind earlier",
		},
		SerializeIDs: []string{later.ID},
	}, true
}

// detectVersionMismatch: the target artifact's on-disk mtime is
// strictly newer than the operation's own submission timestamp,
// indicating an external edit. Not auto-resolved.
func detectVersionMismatch(candidate *queue.Operation, mtime ArtifactMTime) (Resolution, bool) {
	if mtime == nil || !mutatingTypes[candidate.Type] {
		return Resolution{}, false
	}
	modified, ok := mtime(candidate)
	if !ok || !modified.After(candidate.SubmittedAt) {
		return Resolution{}, false
	}
	return Resolution{
		Conflict: queue.Conflict{
			Type:         queue.ConflictVersionMismatch,
			OperationIDs: []string{candidate.ID},
			Description:  "target artifact modified externally after operation was submitted",
		},
	}, true
}

// detectDependencyViolation: an execute_task operation targets a task
// whose dependencies are not all completed. Auto-resolve: fail without
// retry. check_task, uncheck_task and bulk_check_tasks are not checked
// here.
func detectDependencyViolation(candidate *queue.Operation, depsSatisfied func(op *queue.Operation) (bool, bool)) (Resolution, bool) {
	if candidate.Type != queue.TypeExecuteTask || depsSatisfied == nil {
		return Resolution{}, false
	}
	satisfied, applicable := depsSatisfied(candidate)
	if !applicable || satisfied {
		return Resolution{}, false
	}
	return Resolution{
		Conflict: queue.Conflict{
			Type:            queue.ConflictDependencyViolation,
			OperationIDs:    []string{candidate.ID},
			Description:     "task dependencies not all completed",
			AutoResolveHint: "fail without retry",
		},
		FailIDs: []string{candidate.ID},
	}, true
}
