package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qfs-io/qfs/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return New(s, nil)
}

func runLine(t *testing.T, srv *Server, line string) Response {
	t.Helper()
	var out bytes.Buffer
	err := srv.Run(context.Background(), strings.NewReader(line+"\n"), &out)
	require.NoError(t, err)
	var resp Response
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	return resp
}

func TestParseErrorPreservesNullID(t *testing.T) {
	srv := newTestServer(t)
	var out bytes.Buffer
	err := srv.Run(context.Background(), strings.NewReader("not json\n"), &out)
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	require.Equal(t, "null", string(resp.ID))
	require.NotNil(t, resp.Error)
	require.Equal(t, CodeParseError, resp.Error.Code)
}

func TestUnknownMethodReturnsMethodNotFound(t *testing.T) {
	srv := newTestServer(t)
	resp := runLine(t, srv, `{"jsonrpc":"2.0","id":1,"method":"bogus"}`)
	require.NotNil(t, resp.Error)
	require.Equal(t, CodeMethodNotFound, resp.Error.Code)
}

func TestNotificationsInitializedReturnsEmptyResult(t *testing.T) {
	srv := newTestServer(t)
	resp := runLine(t, srv, `{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	require.Nil(t, resp.Error)
	require.Equal(t, map[string]any{}, resp.Result)
}

func TestInitializeReturnsServerInfo(t *testing.T) {
	srv := newTestServer(t)
	resp := runLine(t, srv, `{"jsonrpc":"2.0","id":1,"method":"initialize"}`)
	require.Nil(t, resp.Error)

	var result initializeResult
	b, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, &result))
	require.Equal(t, ProtocolVersion, result.ProtocolVersion)
	require.Equal(t, ServerName, result.ServerInfo.Name)
}

func TestToolsListReturnsSixTools(t *testing.T) {
	srv := newTestServer(t)
	resp := runLine(t, srv, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	require.Nil(t, resp.Error)

	var result toolsListResult
	b, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, &result))
	require.Len(t, result.Tools, 6)
}

func TestToolsCallUnknownToolIsInvalidParams(t *testing.T) {
	srv := newTestServer(t)
	resp := runLine(t, srv, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"does_not_exist","arguments":{}}}`)
	require.NotNil(t, resp.Error)
	require.Equal(t, CodeInvalidParams, resp.Error.Code)
}

func TestToolsCallStatusOnEmptyStore(t *testing.T) {
	srv := newTestServer(t)
	resp := runLine(t, srv, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"qfs_status","arguments":{}}}`)
	require.Nil(t, resp.Error)

	var result ToolResult
	b, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, &result))
	require.Len(t, result.Content, 1)
	require.Contains(t, result.Content[0].Text, "totalDocuments")
}

func TestToolsCallSearchMissingQueryIsInvalidParams(t *testing.T) {
	srv := newTestServer(t)
	resp := runLine(t, srv, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"qfs_search","arguments":{}}}`)
	require.NotNil(t, resp.Error)
	require.Equal(t, CodeInvalidParams, resp.Error.Code)
}

func TestPingReturnsEmptyResult(t *testing.T) {
	srv := newTestServer(t)
	resp := runLine(t, srv, `{"jsonrpc":"2.0","id":1,"method":"ping"}`)
	require.Nil(t, resp.Error)
	require.NotNil(t, resp.Result)
}
