package mcpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/specforged/specforge/internal/logging"
)

// HTTPTransport exposes the same JSON-RPC dispatch as StdioTransport
// over a single POST endpoint, using gin the way the broader corpus's
// HTTP surfaces do (gin.Engine, JSON binding, explicit status codes).
type HTTPTransport struct {
	server *Server
	logger logging.Logger
}

// NewHTTPTransport serves server's JSON-RPC methods over HTTP.
func NewHTTPTransport(server *Server, logger logging.Logger) *HTTPTransport {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &HTTPTransport{server: server, logger: logger.WithComponent("mcpserver.http")}
}

// Router builds a gin.Engine with the single MCP JSON-RPC route.
// Kept separate from cmd/specforge-httpd's own gin router (that one
// exposes specforge's own REST shim over the queue/store, not JSON-RPC).
func (h *HTTPTransport) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.POST("/mcp", h.handle)
	return r
}

func (h *HTTPTransport) handle(c *gin.Context) {
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response{
			JSONRPC: "2.0",
			Error:   &rpcError{Code: codeInvalidRequest, Message: "invalid JSON-RPC request: " + err.Error()},
		})
		return
	}

	resp := h.server.Handle(req)
	if resp == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, resp)
}
