// Package mcp exposes the switchboard engine as a Model Context Protocol server.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/switchboard"
	"github.com/aretw0/switchboard/internal/logging"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	sessionsURI        = "switchboard://sessions"
	sessionURIPrefix   = sessionsURI + "/"
	sessionURITemplate = sessionURIPrefix + "{session_id}"
)

// Engine defines the operations the MCP server needs from the switchboard engine.
type Engine interface {
	Submit(ctx context.Context, req switchboard.SubmitRequest) (*switchboard.SubmitResponse, error)
	Inspect(ctx context.Context, sessionID string) (*domain.State, error)
	Sessions(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, sessionID string) error
	Tools() []tools.Info
	InvokeTool(ctx context.Context, name string, args map[string]any) domain.ToolResult
}

// SubmitArgs are the arguments of the submit_message tool.
type SubmitArgs struct {
	SessionID string `json:"session_id,omitempty"`
	Input     string `json:"input"`
	UserID    string `json:"user_id,omitempty"`
	AccountID string `json:"account_id,omitempty"`
}

// SessionArgs identify a session.
type SessionArgs struct {
	SessionID string `json:"session_id"`
}

// SessionList is the result of list_sessions.
type SessionList struct {
	Sessions []string `json:"sessions" jsonschema_description:"Stored session ids"`
}

// InvokeArgs are the arguments of the invoke_tool tool.
type InvokeArgs struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments,omitempty"`
}

// Server wraps the switchboard Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("switchboard-mcp", strings.TrimSpace(switchboard.Version)),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	submitTool := mcp.NewTool("submit_message",
		mcp.WithDescription("Send a customer message to a support session and get the assistant reply. Omit session_id to start a new session."),
		mcp.WithString("input", mcp.Required(), mcp.Description("The customer's message")),
		mcp.WithString("session_id", mcp.Description("Existing session id (optional)")),
		mcp.WithString("user_id", mcp.Description("Customer id used for long-term history (optional)")),
		mcp.WithString("account_id", mcp.Description("Customer account id (optional)")),
		mcp.WithOutputSchema[switchboard.SubmitResponse](),
	)
	s.mcpServer.AddTool(submitTool, mcp.NewStructuredToolHandler(s.handleSubmit))

	getTool := mcp.NewTool("get_session",
		mcp.WithDescription("Get the full state of a support session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
	)
	s.mcpServer.AddTool(getTool, mcp.NewStructuredToolHandler(s.handleGetSession))

	listTool := mcp.NewTool("list_sessions",
		mcp.WithDescription("List stored support sessions."),
		mcp.WithOutputSchema[SessionList](),
	)
	s.mcpServer.AddTool(listTool, mcp.NewStructuredToolHandler(s.handleListSessions))

	s.mcpServer.AddTool(mcp.NewTool("delete_session",
		mcp.WithDescription("Delete a support session checkpoint."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sessionID := request.GetString("session_id", "")
		if err := s.engine.Delete(ctx, sessionID); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("delete failed: %v", err)), nil
		}
		return mcp.NewToolResultText("deleted " + sessionID), nil
	})

	names := make([]string, 0)
	for _, info := range s.engine.Tools() {
		names = append(names, info.Name)
	}
	s.mcpServer.AddTool(mcp.NewTool("invoke_tool",
		mcp.WithDescription("Invoke a support tool directly. Available: "+strings.Join(names, ", ")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Tool name")),
		mcp.WithString("arguments", mcp.Description("JSON object of tool arguments")),
	), s.handleInvokeTool)
}

func (s *Server) handleSubmit(ctx context.Context, _ mcp.CallToolRequest, args SubmitArgs) (switchboard.SubmitResponse, error) {
	resp, err := s.engine.Submit(ctx, switchboard.SubmitRequest{
		SessionID: args.SessionID,
		Input:     args.Input,
		UserID:    args.UserID,
		AccountID: args.AccountID,
	})
	if err != nil {
		s.logger.Warn("MCP Submit failed", "session_id", args.SessionID, "err", err)
		return switchboard.SubmitResponse{}, fmt.Errorf("submit failed: %w", err)
	}
	return *resp, nil
}

func (s *Server) handleGetSession(ctx context.Context, _ mcp.CallToolRequest, args SessionArgs) (*domain.State, error) {
	state, err := s.engine.Inspect(ctx, args.SessionID)
	if err != nil {
		return nil, fmt.Errorf("inspect failed: %w", err)
	}
	return state, nil
}

func (s *Server) handleListSessions(ctx context.Context, _ mcp.CallToolRequest, _ struct{}) (SessionList, error) {
	ids, err := s.engine.Sessions(ctx)
	if err != nil {
		return SessionList{}, fmt.Errorf("list failed: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return SessionList{Sessions: ids}, nil
}

func (s *Server) handleInvokeTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := request.GetString("name", "")
	args := map[string]any{}
	if raw := request.GetString("arguments", ""); raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("arguments must be a JSON object: %v", err)), nil
		}
	}

	res := s.engine.InvokeTool(ctx, name, args)
	payload, err := json.Marshal(res)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	if !res.OK() {
		return mcp.NewToolResultError(string(payload)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(sessionsURI, "Support sessions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.engine.Sessions(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions: %w", err)
		}
		return jsonContents(sessionsURI, SessionList{Sessions: ids})
	})

	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate(sessionURITemplate, "Support session state",
		mcp.WithTemplateMIMEType("application/json"),
	), s.readSession)
}

func (s *Server) readSession(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := request.Params.URI
	sessionID := strings.TrimPrefix(uri, sessionURIPrefix)
	if sessionID == "" || sessionID == uri {
		return nil, fmt.Errorf("invalid session uri %q", uri)
	}
	state, err := s.engine.Inspect(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect session: %w", err)
	}
	return jsonContents(uri, state)
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
