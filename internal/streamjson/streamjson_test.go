package streamjson

import (
	"os"
	"path/filepath"
	"testing"
)

func writeQueue(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "queue.json")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadDecodesOperationsVersionAndLastProcessed(t *testing.T) {
	path := writeQueue(t, `{
		"operations": [
			{"id": "op-1", "type": "add_task"},
			{"id": "op-2", "type": "update_design"}
		],
		"version": 7,
		"last_processed": "2026-01-15T10:00:00Z"
	}`)

	q, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(q.Operations) != 2 {
		t.Fatalf("expected 2 operations, got %d", len(q.Operations))
	}
	if q.Version != 7 {
		t.Fatalf("expected version 7, got %d", q.Version)
	}
	if q.LastProcessed == nil || q.LastProcessed.Year() != 2026 {
		t.Fatalf("expected last_processed to parse, got %v", q.LastProcessed)
	}
	if q.Skipped != 0 {
		t.Fatalf("expected no skipped elements, got %d", q.Skipped)
	}
}

func TestLoadHandlesNullLastProcessed(t *testing.T) {
	path := writeQueue(t, `{"operations": [], "version": 1, "last_processed": null}`)

	q, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if q.LastProcessed != nil {
		t.Fatalf("expected nil last_processed, got %v", q.LastProcessed)
	}
}

func TestLoadIgnoresUnknownTopLevelFields(t *testing.T) {
	path := writeQueue(t, `{"operations": [], "version": 2, "extra": {"nested": [1,2,3]}}`)

	q, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if q.Version != 2 {
		t.Fatalf("expected version 2, got %d", q.Version)
	}
}

func TestLoadRejectsNonObjectDocument(t *testing.T) {
	path := writeQueue(t, `["not", "an", "object"]`)

	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error for a non-object top-level document")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}
