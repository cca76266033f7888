package specstore

import (
	"fmt"

	"github.com/google/uuid"
)

// renumber recomputes every task's hierarchical number as its 1-based
// position among siblings, recursively, and stamps ParentID.
func renumber(tasks []*Task, parentID, parentNumber string) {
	for i, t := range tasks {
		t.ParentID = parentID
		if parentNumber == "" {
			t.Number = fmt.Sprintf("%d", i+1)
		} else {
			t.Number = fmt.Sprintf("%s.%d", parentNumber, i+1)
		}
		renumber(t.Subtasks, t.ID, t.Number)
	}
}

// findTask locates a task by id anywhere in the tree.
func findTask(tasks []*Task, id string) *Task {
	for _, t := range tasks {
		if t.ID == id {
			return t
		}
		if found := findTask(t.Subtasks, id); found != nil {
			return found
		}
	}
	return nil
}

// findTaskByNumber locates a task by its rendered hierarchical number.
func findTaskByNumber(tasks []*Task, number string) *Task {
	for _, t := range tasks {
		if t.Number == number {
			return t
		}
		if found := findTaskByNumber(t.Subtasks, number); found != nil {
			return found
		}
	}
	return nil
}

// parentOf returns the parent of the task with the given id, or nil
// if it is a root task or not found.
func parentOf(tasks []*Task, id string) *Task {
	for _, t := range tasks {
		for _, child := range t.Subtasks {
			if child.ID == id {
				return t
			}
		}
		if found := parentOf(t.Subtasks, id); found != nil {
			return found
		}
	}
	return nil
}

// rollup walks ancestors of the task identified by id, recomputing
// each ancestor's status from its direct subtasks: completed iff all
// subtasks are completed; in_progress iff any descendant is in_progress
// or completed but not all complete; otherwise pending.
func rollup(tasks []*Task, id string) {
	parent := parentOf(tasks, id)
	for parent != nil {
		parent.Status = statusFromSubtasks(parent.Subtasks)
		parent = parentOf(tasks, parent.ID)
	}
}

func statusFromSubtasks(subtasks []*Task) TaskStatus {
	if len(subtasks) == 0 {
		return TaskPending
	}
	allCompleted := true
	anyProgress := false
	for _, s := range subtasks {
		if s.Status != TaskCompleted {
			allCompleted = false
		}
		if s.Status == TaskInProgress || s.Status == TaskCompleted {
			anyProgress = true
		}
	}
	switch {
	case allCompleted:
		return TaskCompleted
	case anyProgress:
		return TaskInProgress
	default:
		return TaskPending
	}
}

// stats walks the full tree counting leaf and branch tasks by status.
func stats(tasks []*Task) CompletionStats {
	var s CompletionStats
	var walk func([]*Task)
	walk = func(ts []*Task) {
		for _, t := range ts {
			s.Total++
			switch t.Status {
			case TaskCompleted:
				s.Completed++
			case TaskInProgress:
				s.InProgress++
			default:
				s.Pending++
			}
			walk(t.Subtasks)
		}
	}
	walk(tasks)
	return s
}

func newTaskID() string {
	return "T-" + uuid.NewString()
}

// dependenciesSatisfied reports whether every id in deps names a task
// in tasks whose status is completed.
func dependenciesSatisfied(tasks []*Task, deps []string) bool {
	for _, dep := range deps {
		t := findTask(tasks, dep)
		if t == nil || t.Status != TaskCompleted {
			return false
		}
	}
	return true
}

// FindTask locates a task by id anywhere in tasks' tree, exported for
// the conflict detector's dependency-violation check.
func FindTask(tasks []*Task, id string) *Task {
	return findTask(tasks, id)
}

// DependenciesSatisfied reports whether every dependency id names a
// completed task, exported for the conflict detector.
func DependenciesSatisfied(tasks []*Task, deps []string) bool {
	return dependenciesSatisfied(tasks, deps)
}
