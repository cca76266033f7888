// Command specforge-httpd is an out-of-scope REST shim over the same
// durable documents specforge's MCP binding reads and writes: it lets
// a plain HTTP client append operations and poll sync state without
// speaking JSON-RPC. Routes use gin the way the broader corpus wires
// HTTP surfaces: one engine, explicit status codes, no middleware
// beyond recovery.
package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/specforged/specforge/internal/config"
	"github.com/specforged/specforge/internal/logging"
	"github.com/specforged/specforge/internal/processor"
	"github.com/specforged/specforge/internal/sandbox"
	"github.com/specforged/specforge/internal/specstore"
	"github.com/specforged/specforge/internal/syncstate"
	"github.com/specforged/specforge/pkg/mcpserver"
)

type server struct {
	dispatcher *mcpserver.Dispatcher
	store      *specstore.Store
	paths      processor.Paths
	logger     logging.Logger
}

func main() {
	logger := logging.New("specforge-httpd", "info", "json", os.Stderr)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	sb, err := sandbox.Resolve(cfg.Sandbox.RootOverride)
	if err != nil {
		logger.Error("resolve project root", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	store := specstore.New(sb, logger)
	if err := store.LoadAll(); err != nil {
		logger.Error("load specifications", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	paths := processor.NewPaths(sb.Root())
	s := &server{
		dispatcher: mcpserver.NewDispatcher(paths.Queue, logger),
		store:      store,
		paths:      paths,
		logger:     logger.WithComponent("httpd"),
	}

	addr := ":8080"
	if cfg.HTTPPort != "" {
		addr = ":" + cfg.HTTPPort
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.POST("/operations", s.postOperation)
	r.GET("/sync", s.getSync)
	r.GET("/specs/:slug", s.getSpec)

	logger.Info("specforge-httpd listening", map[string]interface{}{"addr": addr})
	if err := r.Run(addr); err != nil {
		logger.Error("server exited", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
}

type operationRequest struct {
	Tool string                 `json:"tool" binding:"required"`
	Args map[string]interface{} `json:"args"`
}

func (s *server) postOperation(c *gin.Context) {
	var req operationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	op, err := s.dispatcher.Enqueue(req.Tool, req.Args, "httpd")
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"operationId": op.ID, "type": op.Type, "status": op.Status})
}

func (s *server) getSync(c *gin.Context) {
	data, err := os.ReadFile(s.paths.Sync)
	if err != nil {
		if os.IsNotExist(err) {
			c.JSON(http.StatusOK, syncstate.State{})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}

func (s *server) getSpec(c *gin.Context) {
	slug := c.Param("slug")
	spec, err := s.store.Get(slug)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no such specification: %s", slug)})
		return
	}

	requirementsMD, designMD, tasksMD := specstore.RenderedMarkdown(spec)
	c.JSON(http.StatusOK, gin.H{
		"specification":    spec,
		"requirements_md":  requirementsMD,
		"design_md":        designMD,
		"tasks_md":         tasksMD,
	})
}
