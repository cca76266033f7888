package main

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/specforged/specforge/internal/processor"
	"github.com/specforged/specforge/internal/sandbox"
	"github.com/specforged/specforge/internal/specstore"
	"github.com/specforged/specforge/pkg/mcpserver"
)

func newTestServer(t *testing.T) (*server, *gin.Engine) {
	t.Helper()
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, ".git"), 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	sb, err := sandbox.Resolve(root)
	if err != nil {
		t.Fatalf("sandbox.Resolve: %v", err)
	}
	store := specstore.New(sb, nil)

	paths := processor.NewPaths(sb.Root())
	s := &server{
		dispatcher: mcpserver.NewDispatcher(paths.Queue, nil),
		store:      store,
		paths:      paths,
		logger:     nil,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.POST("/operations", s.postOperation)
	r.GET("/sync", s.getSync)
	r.GET("/specs/:slug", s.getSpec)
	return s, r
}

func TestPostOperationEnqueuesAndReturnsAccepted(t *testing.T) {
	_, r := newTestServer(t)

	body := []byte(`{"tool":"specforge_create_spec","args":{"name":"Todo App"}}`)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/operations", bytes.NewReader(body))
	r.ServeHTTP(rec, req)

	if rec.Code != 202 {
		t.Fatalf("got status %d, body %s", rec.Code, rec.Body.String())
	}
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["operationId"] == "" || out["operationId"] == nil {
		t.Fatalf("expected an operationId in the response, got %v", out)
	}
}

func TestPostOperationRejectsUnknownTool(t *testing.T) {
	_, r := newTestServer(t)

	body := []byte(`{"tool":"not_a_real_tool","args":{}}`)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/operations", bytes.NewReader(body))
	r.ServeHTTP(rec, req)

	if rec.Code != 422 {
		t.Fatalf("got status %d, want 422", rec.Code)
	}
}

func TestGetSyncWithNoStateYetReturnsEmptyState(t *testing.T) {
	_, r := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/sync", nil)
	r.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("got status %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestGetSpecReturnsRenderedMarkdownForAnExistingSpec(t *testing.T) {
	s, r := newTestServer(t)

	spec, err := s.store.Create("Todo App", "A simple todo tracker", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/specs/"+spec.Slug, nil)
	r.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("got status %d, body %s", rec.Code, rec.Body.String())
	}
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["requirements_md"] == "" || out["requirements_md"] == nil {
		t.Fatalf("expected non-empty requirements_md, got %v", out)
	}
}

func TestGetSpecReturnsNotFoundForUnknownSlug(t *testing.T) {
	_, r := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/specs/does-not-exist", nil)
	r.ServeHTTP(rec, req)

	if rec.Code != 404 {
		t.Fatalf("got status %d, want 404", rec.Code)
	}
}
