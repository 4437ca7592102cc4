package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/switchboard"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	eng, err := switchboard.New()
	require.NoError(t, err)
	return NewServer(eng)
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func TestSubmitAndInspect(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)

	resp, err := s.handleSubmit(ctx, mcp.CallToolRequest{}, SubmitArgs{Input: "my card was charged twice", UserID: "u1"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.SessionID)
	assert.Equal(t, domain.IssueBilling, resp.StateSummary.IssueType)

	state, err := s.handleGetSession(ctx, mcp.CallToolRequest{}, SessionArgs{SessionID: resp.SessionID})
	require.NoError(t, err)
	assert.Len(t, state.Messages, 2)

	list, err := s.handleListSessions(ctx, mcp.CallToolRequest{}, struct{}{})
	require.NoError(t, err)
	assert.Equal(t, []string{resp.SessionID}, list.Sessions)

	contents, err := s.readSession(ctx, mcp.ReadResourceRequest{Params: mcp.ReadResourceParams{URI: sessionURIPrefix + resp.SessionID}})
	require.NoError(t, err)
	require.Len(t, contents, 1)
	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Contains(t, text.Text, `"session_id":"`+resp.SessionID+`"`)
}

func TestSubmit_Errors(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)

	_, err := s.handleSubmit(ctx, mcp.CallToolRequest{}, SubmitArgs{Input: " "})
	assert.ErrorIs(t, err, domain.ErrEmptyInput)

	_, err = s.handleGetSession(ctx, mcp.CallToolRequest{}, SessionArgs{SessionID: "missing"})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = s.readSession(ctx, mcp.ReadResourceRequest{Params: mcp.ReadResourceParams{URI: "other://x"}})
	assert.Error(t, err)
}

func TestInvokeTool(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)

	res, err := s.handleInvokeTool(ctx, callRequest(map[string]any{
		"name":      "keyword_search",
		"arguments": `{"query":"refund"}`,
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	res, err = s.handleInvokeTool(ctx, callRequest(map[string]any{"name": "nope"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = s.handleInvokeTool(ctx, callRequest(map[string]any{"name": "keyword_search", "arguments": "[1,2"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestToolsAreListed(t *testing.T) {
	s := newTestServer(t)

	msg := s.mcpServer.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	for _, name := range []string{"submit_message", "get_session", "list_sessions", "delete_session", "invoke_tool"} {
		assert.Contains(t, string(data), `"`+name+`"`)
	}
}
