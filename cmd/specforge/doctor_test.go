package main

import (
	"strings"
	"testing"
	"time"

	"github.com/specforged/specforge/internal/processor"
	"github.com/specforged/specforge/internal/queue"
)

func TestRunDoctorReportsBacklogAndOldestPending(t *testing.T) {
	root := newTestProjectRoot(t)
	withProjectRoot(t, root)

	paths := processor.NewPaths(root)
	old := time.Now().Add(-time.Hour)
	q := &queue.Queue{
		Version: 1,
		Operations: []*queue.Operation{
			{ID: "op-1", Type: queue.TypeAddTask, Status: queue.StatusPending, SubmittedAt: old, MaxRetries: 3},
			{ID: "op-2", Type: queue.TypeAddTask, Status: queue.StatusCompleted, SubmittedAt: time.Now(), MaxRetries: 3},
			{ID: "op-3", Type: queue.TypeCheckTask, Status: queue.StatusFailed, SubmittedAt: time.Now(), RetryCount: 2, MaxRetries: 3},
		},
	}
	if err := queue.Save(paths.Queue, q); err != nil {
		t.Fatalf("queue.Save: %v", err)
	}

	out := captureStdout(t, func() {
		if err := runDoctor(nil, nil); err != nil {
			t.Fatalf("runDoctor: %v", err)
		}
	})

	for _, want := range []string{"3 operations", "op-1", "operations with at least one retry: 1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q, got %q", want, out)
		}
	}
}

func TestRunDoctorOnEmptyQueueDoesNotPanic(t *testing.T) {
	root := newTestProjectRoot(t)
	withProjectRoot(t, root)

	paths := processor.NewPaths(root)
	if err := queue.Save(paths.Queue, &queue.Queue{}); err != nil {
		t.Fatalf("queue.Save: %v", err)
	}

	out := captureStdout(t, func() {
		if err := runDoctor(nil, nil); err != nil {
			t.Fatalf("runDoctor: %v", err)
		}
	})
	if !strings.Contains(out, "0 operations") {
		t.Fatalf("expected 0 operations reported, got %q", out)
	}
}

func TestRunDoctorWithNoQueueFileYetReportsEmpty(t *testing.T) {
	root := newTestProjectRoot(t)
	withProjectRoot(t, root)

	out := captureStdout(t, func() {
		if err := runDoctor(nil, nil); err != nil {
			t.Fatalf("runDoctor: %v", err)
		}
	})
	if !strings.Contains(out, "0 operations") {
		t.Fatalf("expected 0 operations reported for a missing queue file, got %q", out)
	}
}
