package mcpserver

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/specforged/specforge/internal/logging"
)

// StdioTransport serves MCP requests read line-by-line from in and
// writes line-delimited JSON responses to out. Grounded on the
// StdioTransport readStdout loop in
// theRebelliousNerd-codenerd/internal/mcp/transport_stdio.go, which
// scans newline-delimited JSON-RPC off a pipe — this is the same loop
// run from the server side of that pipe instead of the client side.
type StdioTransport struct {
	server *Server
	in     io.Reader
	out    io.Writer
	logger logging.Logger
	mu     sync.Mutex // guards writes to out
}

// NewStdioTransport serves server over in/out.
func NewStdioTransport(server *Server, in io.Reader, out io.Writer, logger logging.Logger) *StdioTransport {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &StdioTransport{server: server, in: in, out: out, logger: logger.WithComponent("mcpserver.stdio")}
}

// Serve reads one JSON-RPC request per line until in is exhausted or
// ctx is cancelled, dispatching each to the server and writing its
// response back. A malformed line gets a parse-error response rather
// than aborting the whole session, matching the same tolerant
// per-line handling of unexpected input seen in the reference client.
func (t *StdioTransport) Serve(ctx context.Context) error {
	scanner := bufio.NewScanner(t.in)
	scanner.Buffer(make([]byte, 64*1024), 8*1024*1024)

	lines := make(chan []byte)
	scanErr := make(chan error, 1)
	go func() {
		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			lines <- line
		}
		scanErr <- scanner.Err()
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return <-scanErr
			}
			if len(line) == 0 {
				continue
			}
			t.handleLine(line)
		}
	}
}

func (t *StdioTransport) handleLine(line []byte) {
	var req request
	if err := json.Unmarshal(line, &req); err != nil {
		t.write(&response{JSONRPC: "2.0", Error: &rpcError{Code: codeParseError, Message: "parse error: " + err.Error()}})
		return
	}

	resp := t.server.Handle(req)
	if resp == nil {
		return
	}
	t.write(resp)
}

func (t *StdioTransport) write(resp *response) {
	data, err := json.Marshal(resp)
	if err != nil {
		t.logger.Error("failed to marshal response", map[string]interface{}{"error": err.Error()})
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.out.Write(append(data, '\n'))
}
