package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/snapreply/snapreply/internal/biz/domain"
)

// Server exposes session control as MCP tools backed by the dashboard API
type Server struct {
	server *mcp.Server
	client *Client
}

// NewServer creates the MCP server and registers its tools
func NewServer(client *Client, version string) *Server {
	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "snapreply",
			Version: version,
		}, nil),
		client: client,
	}
	s.registerTools()
	return s
}

// Run serves MCP over stdio until ctx is cancelled or the peer disconnects
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "snapreply_list_sessions",
		Description: "List all automated chat sessions with their stored status.",
	}, s.handleListSessions)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "snapreply_session_status",
		Description: "Get the status of one session, including live worker stats when it is running.",
	}, s.handleSessionStatus)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "snapreply_start_session",
		Description: "Start the auto-reply worker for a session. The session must have a captured login.",
	}, s.action("start"))

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "snapreply_stop_session",
		Description: "Stop the auto-reply worker for a session.",
	}, s.action("stop"))

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "snapreply_pause_session",
		Description: "Pause a running session. It stops scanning until resumed.",
	}, s.action("pause"))

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "snapreply_resume_session",
		Description: "Resume a paused session.",
	}, s.action("resume"))
}

// ListSessionsInput is empty - no input needed
type ListSessionsInput struct{}

// ListSessionsOutput contains the sessions
type ListSessionsOutput struct {
	Sessions []domain.Session `json:"sessions"`
	Error    string           `json:"error,omitempty"`
}

func (s *Server) handleListSessions(ctx context.Context, req *mcp.CallToolRequest, input ListSessionsInput) (*mcp.CallToolResult, ListSessionsOutput, error) {
	sessions, err := s.client.ListSessions(ctx)
	if err != nil {
		return nil, ListSessionsOutput{Error: err.Error()}, nil
	}
	if sessions == nil {
		sessions = []domain.Session{}
	}
	return nil, ListSessionsOutput{Sessions: sessions}, nil
}

// SessionInput identifies a session
type SessionInput struct {
	SessionID string `json:"session_id" jsonschema:"The session ID as returned by snapreply_list_sessions"`
}

// SessionStatusOutput describes a session
type SessionStatusOutput struct {
	SessionID        string  `json:"session_id"`
	Name             string  `json:"name,omitempty"`
	Status           string  `json:"status,omitempty"`
	Running          bool    `json:"running"`
	State            string  `json:"state,omitempty"`
	MessagesReceived int     `json:"messages_received"`
	MessagesSent     int     `json:"messages_sent"`
	AvgResponseSecs  float64 `json:"avg_response_secs"`
	LastError        string  `json:"last_error,omitempty"`
	Error            string  `json:"error,omitempty"`
}

func (s *Server) handleSessionStatus(ctx context.Context, req *mcp.CallToolRequest, input SessionInput) (*mcp.CallToolResult, SessionStatusOutput, error) {
	out := SessionStatusOutput{SessionID: input.SessionID}
	if input.SessionID == "" {
		out.Error = "session_id is required"
		return nil, out, nil
	}

	status, err := s.client.Status(ctx, input.SessionID)
	if err != nil {
		out.Error = err.Error()
		return nil, out, nil
	}

	if status.Session != nil {
		out.Name = status.Session.Name
		out.Status = string(status.Session.Status)
		out.LastError = status.Session.LastError
	}
	out.Running = status.Running
	if r := status.Report; r != nil {
		out.State = string(r.State)
		out.MessagesReceived = r.Stats.MessagesReceived
		out.MessagesSent = r.Stats.MessagesSent
		out.AvgResponseSecs = r.Stats.AverageResponseTime().Seconds()
	}
	return nil, out, nil
}

// ActionOutput is the result of a lifecycle action
type ActionOutput struct {
	Success bool   `json:"success"`
	Status  string `json:"status,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) action(name string) mcp.ToolHandlerFor[SessionInput, ActionOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SessionInput) (*mcp.CallToolResult, ActionOutput, error) {
		if input.SessionID == "" {
			return nil, ActionOutput{Error: "session_id is required"}, nil
		}
		status, err := s.client.Action(ctx, input.SessionID, name)
		if err != nil {
			return nil, ActionOutput{Error: err.Error()}, nil
		}
		return nil, ActionOutput{Success: true, Status: status}, nil
	}
}
