// Package mcpserver implements the line-delimited JSON-RPC 2.0 stdio
// transport and tool dispatch that expose qfs to AI agents over the
// Model Context Protocol, grounded on the teacher's own
// internal/mcpserver/server.go wiring of github.com/mark3labs/mcp-go for
// tool-schema construction, and on the original reference
// implementation's mcp/{protocol,server,tools}.rs for the exact
// JSON-RPC envelope and error-code semantics the spec requires (the
// library's own higher-level ServeStdio loop is not used, since the
// spec pins down behavior — id=null on parse error, -32602 for an
// unknown tool name, sequential processing — more precisely than a
// generic transport guarantees).
package mcpserver

import "encoding/json"

// ProtocolVersion is the MCP protocol version this server implements.
const ProtocolVersion = "2024-11-05"

// ServerName/ServerVersion populate the initialize response's serverInfo.
const (
	ServerName    = "qfs"
	ServerVersion = "0.1.0"
)

// JSON-RPC 2.0 reserved error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeServerError    = -32000
)

// Request is one line of the stdio transport, decoded from a single JSON
// value. ID is preserved verbatim (including a literal null) so the
// response can echo it unchanged.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is the single JSON value written back per request. Exactly
// one of Result/Error is set on success vs. failure.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *RPCError) Error() string { return e.Message }

func newError(code int, message string) *RPCError {
	return &RPCError{Code: code, Message: message}
}

func parseError(message string) *RPCError     { return newError(CodeParseError, message) }
func invalidRequest(message string) *RPCError { return newError(CodeInvalidRequest, message) }
func methodNotFound(method string) *RPCError {
	return newError(CodeMethodNotFound, "Method not found: "+method)
}
func invalidParams(message string) *RPCError { return newError(CodeInvalidParams, message) }
func internalError(message string) *RPCError { return newError(CodeInternalError, message) }
func serverError(message string) *RPCError   { return newError(CodeServerError, message) }

func successResponse(id json.RawMessage, result any) Response {
	return Response{JSONRPC: "2.0", ID: rawID(id), Result: result}
}

func errorResponse(id json.RawMessage, err *RPCError) Response {
	return Response{JSONRPC: "2.0", ID: rawID(id), Error: err}
}

// rawID normalizes a missing id to a literal JSON null, matching the
// reference server's Option<Value> id field.
func rawID(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return json.RawMessage("null")
	}
	return id
}

// ToolContent is one content block of a tool call result.
type ToolContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolResult is the result value returned for a successful tools/call.
type ToolResult struct {
	Content []ToolContent `json:"content"`
}

// textResult wraps a single text block, the only content type qfs tools
// produce.
func textResult(text string) *ToolResult {
	return &ToolResult{Content: []ToolContent{{Type: "text", Text: text}}}
}
