// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes read-only newsletter tools for LLM integration via
// stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ansuz/internal/store"
)

// Server wraps the MCP server with Ansuz tools.
type Server struct {
	mcp *server.MCPServer
	db  store.Store
}

// New creates a new MCP server with all Ansuz tools registered. The
// tool surface is read-only: generation and distribution stay behind
// the authenticated HTTP API.
func New(db store.Store) *Server {
	s := &Server{db: db}

	s.mcp = server.NewMCPServer(
		"Ansuz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_newsletters",
		mcp.WithDescription("List newsletter summaries for one or more categories."),
		mcp.WithString("categories", mcp.Required(), mcp.Description("Comma-separated category names (e.g. Tech,Sports)")),
	), s.listNewsletters)

	s.mcp.AddTool(mcp.NewTool("get_newsletter",
		mcp.WithDescription("Read the full record of a newsletter, including its generated HTML."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Newsletter UUID")),
	), s.getNewsletter)

	s.mcp.AddTool(mcp.NewTool("get_newsletter_status",
		mcp.WithDescription("Return the workflow status and recipient count of a newsletter."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Newsletter UUID")),
	), s.getNewsletterStatus)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listNewsletters(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("categories")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var categories []string
	for _, c := range strings.Split(raw, ",") {
		if c = strings.TrimSpace(c); c != "" {
			categories = append(categories, c)
		}
	}
	items, err := s.db.ListByCategories(ctx, categories)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(items, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getNewsletter(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid id: %s", raw)), nil
	}
	n, err := s.db.GetNewsletter(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", raw)), nil
	}
	out, _ := json.MarshalIndent(struct {
		ID       uuid.UUID `json:"id"`
		Title    string    `json:"title"`
		Category string    `json:"category"`
		Status   string    `json:"status"`
		HTML     string    `json:"html"`
	}{n.ID, n.Title, n.Category, string(n.Status), n.HTML}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getNewsletterStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid id: %s", raw)), nil
	}
	n, err := s.db.GetNewsletter(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", raw)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("status: %s, recipients: %d", n.Status, len(n.Recipients))), nil
}
