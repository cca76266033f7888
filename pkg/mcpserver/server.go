package mcpserver

import (
	"encoding/json"
	"fmt"

	"github.com/specforged/specforge/pkg/prompts"
)

// Server answers the small slice of JSON-RPC methods an MCP client
// needs: initialize, tools/list, tools/call, prompts/list, prompts/get.
// It holds no queue state of its own beyond the Dispatcher.
type Server struct {
	dispatcher *Dispatcher
	name       string
	version    string
}

// New constructs a Server that enqueues through dispatcher.
func New(dispatcher *Dispatcher) *Server {
	return &Server{dispatcher: dispatcher, name: "specforge", version: "0.1.0"}
}

// Handle dispatches one decoded JSON-RPC request to its method and
// returns the reply to send back (nil for notifications, which carry
// no id and expect no response).
func (s *Server) Handle(req request) *response {
	if req.ID == nil && isNotification(req.Method) {
		return nil
	}

	result, err := s.route(req)
	if err != nil {
		return &response{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{Code: codeFor(err), Message: err.Error()}}
	}
	return &response{JSONRPC: "2.0", ID: req.ID, Result: result}
}

func isNotification(method string) bool {
	return method == "notifications/initialized"
}

func (s *Server) route(req request) (interface{}, error) {
	switch req.Method {
	case "initialize":
		return s.initialize(), nil
	case "tools/list":
		return s.listTools(), nil
	case "tools/call":
		return s.callTool(req.Params)
	case "prompts/list":
		return s.listPrompts(), nil
	case "prompts/get":
		return s.getPrompt(req.Params)
	case "ping":
		return struct{}{}, nil
	default:
		return nil, methodNotFoundError(req.Method)
	}
}

type rpcMethodError struct {
	code int
	msg  string
}

func (e *rpcMethodError) Error() string { return e.msg }

func methodNotFoundError(method string) error {
	return &rpcMethodError{code: codeMethodNotFound, msg: "method not found: " + method}
}

func codeFor(err error) int {
	if me, ok := err.(*rpcMethodError); ok {
		return me.code
	}
	return codeInternalError
}

func (s *Server) initialize() map[string]interface{} {
	return map[string]interface{}{
		"protocolVersion": "2024-11-05",
		"capabilities": map[string]interface{}{
			"tools":   map[string]interface{}{},
			"prompts": map[string]interface{}{},
		},
		"serverInfo": map[string]interface{}{
			"name":    s.name,
			"version": s.version,
		},
	}
}

func (s *Server) listTools() map[string]interface{} {
	schemas := make([]map[string]interface{}, 0, len(Tools))
	for _, t := range Tools {
		props := map[string]interface{}{}
		for _, p := range t.RequiredParams {
			props[p] = map[string]interface{}{"type": "string"}
		}
		schemas = append(schemas, map[string]interface{}{
			"name":        t.Name,
			"description": t.Description,
			"inputSchema": map[string]interface{}{
				"type":       "object",
				"properties": props,
				"required":   t.RequiredParams,
			},
		})
	}
	return map[string]interface{}{"tools": schemas}
}

func (s *Server) callTool(raw json.RawMessage) (interface{}, error) {
	var params callToolParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, &rpcMethodError{code: codeInvalidParams, msg: "invalid tools/call params: " + err.Error()}
	}

	op, err := s.dispatcher.Enqueue(params.Name, params.Arguments, "mcp")
	if err != nil {
		return toolCallResult{
			Content: []toolContent{{Type: "text", Text: err.Error()}},
			IsError: true,
		}, nil
	}

	return toolCallResult{
		Content: []toolContent{{Type: "text", Text: fmt.Sprintf("queued operation %s (%s)", op.ID, op.Type)}},
	}, nil
}

func (s *Server) listPrompts() map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(prompts.Registry))
	for _, name := range prompts.Names() {
		p := prompts.Registry[name]
		out = append(out, map[string]interface{}{"name": p.Name, "description": p.Description})
	}
	return map[string]interface{}{"prompts": out}
}

func (s *Server) getPrompt(raw json.RawMessage) (interface{}, error) {
	var params struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, &rpcMethodError{code: codeInvalidParams, msg: "invalid prompts/get params: " + err.Error()}
	}
	p, ok := prompts.Registry[params.Name]
	if !ok {
		return nil, &rpcMethodError{code: codeInvalidParams, msg: "unknown prompt: " + params.Name}
	}
	return map[string]interface{}{
		"description": p.Description,
		"messages": []map[string]interface{}{
			{"role": "assistant", "content": map[string]interface{}{"type": "text", "text": p.Text}},
		},
	}, nil
}
