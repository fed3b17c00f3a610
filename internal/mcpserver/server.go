package mcpserver

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/qfs-io/qfs/internal/embed"
	"github.com/qfs-io/qfs/internal/search"
	"github.com/qfs-io/qfs/internal/store"
)

// Server exposes a Store (and, if configured, an Embedder) as an MCP
// stdio endpoint. It is intentionally stateless across requests beyond
// its store/searcher/embedder handles: the protocol has no session
// concept besides the initialize handshake.
type Server struct {
	store    *store.Store
	searcher *search.Searcher
	embedder embed.Embedder

	tools map[string]toolEntry
	order []string
}

// New builds a Server over s. embedder may be nil, in which case
// qfs_vsearch and vector/hybrid qfs_query calls fail with the
// embeddings-required error rather than a nil-pointer panic.
func New(s *store.Store, embedder embed.Embedder) *Server {
	srv := &Server{
		store:    s,
		searcher: search.New(s),
		embedder: embedder,
		tools:    make(map[string]toolEntry),
	}
	for _, t := range buildTools() {
		srv.tools[t.def.Name] = t
		srv.order = append(srv.order, t.def.Name)
	}
	return srv
}

// Run reads one JSON-RPC request per line from in until EOF, writes one
// response per line to out, and returns the first I/O error encountered
// (io.EOF is not an error: it ends the loop cleanly). Malformed JSON on
// a line still produces a framed parse-error response with id=null,
// matching the reference server's behavior, rather than aborting the
// connection.
func (s *Server) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	writer := bufio.NewWriter(out)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			if werr := writeResponse(writer, errorResponse(nil, parseError("Invalid JSON: "+err.Error()))); werr != nil {
				return werr
			}
			continue
		}

		resp := s.handleRequest(ctx, req)
		if resp == nil {
			// A nil response means there is nothing to write.
			continue
		}
		if err := writeResponse(writer, *resp); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func writeResponse(w *bufio.Writer, resp Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if err := w.WriteByte('\n'); err != nil {
		return err
	}
	return w.Flush()
}

// handleRequest dispatches one decoded request to its method handler.
// notifications/initialized is acknowledged with an empty result.
func (s *Server) handleRequest(ctx context.Context, req Request) *Response {
	if req.Method == "" {
		resp := errorResponse(req.ID, invalidRequest("Invalid Request: missing method"))
		return &resp
	}
	switch req.Method {
	case "initialize":
		resp := successResponse(req.ID, s.handleInitialize())
		return &resp
	case "notifications/initialized":
		resp := successResponse(req.ID, map[string]any{})
		return &resp
	case "tools/list":
		resp := successResponse(req.ID, s.handleToolsList())
		return &resp
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		resp := successResponse(req.ID, map[string]any{})
		return &resp
	default:
		resp := errorResponse(req.ID, methodNotFound(req.Method))
		return &resp
	}
}

type initializeResult struct {
	ProtocolVersion string          `json:"protocolVersion"`
	Capabilities    map[string]any  `json:"capabilities"`
	ServerInfo      serverInfoJSON  `json:"serverInfo"`
}

type serverInfoJSON struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

func (s *Server) handleInitialize() initializeResult {
	return initializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities:    map[string]any{"tools": map[string]any{}},
		ServerInfo:      serverInfoJSON{Name: ServerName, Version: ServerVersion},
	}
}

type toolsListResult struct {
	Tools []any `json:"tools"`
}

// handleToolsList marshals each registered mcp.Tool as-is: its own JSON
// tags already produce the {name, description, inputSchema} shape the
// protocol expects.
func (s *Server) handleToolsList() toolsListResult {
	tools := make([]any, 0, len(s.order))
	for _, name := range s.order {
		tools = append(tools, s.tools[name].def)
	}
	return toolsListResult{Tools: tools}
}

type callToolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

func (s *Server) handleToolsCall(ctx context.Context, req Request) *Response {
	if len(req.Params) == 0 {
		resp := errorResponse(req.ID, invalidParams("Missing params"))
		return &resp
	}

	var params callToolParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		resp := errorResponse(req.ID, invalidParams("Invalid params: "+err.Error()))
		return &resp
	}
	if params.Name == "" {
		resp := errorResponse(req.ID, invalidParams("Missing tool name"))
		return &resp
	}
	if params.Arguments == nil {
		params.Arguments = map[string]any{}
	}

	entry, ok := s.tools[params.Name]
	if !ok {
		resp := errorResponse(req.ID, invalidParams(fmt.Sprintf("Unknown tool: %s", params.Name)))
		return &resp
	}

	result, rpcErr := entry.handler(ctx, s, params.Arguments)
	if rpcErr != nil {
		resp := errorResponse(req.ID, rpcErr)
		return &resp
	}
	resp := successResponse(req.ID, result)
	return &resp
}
