package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/ansuz/internal/store"
	"github.com/starford/ansuz/internal/testutil"
)

func testServer(t *testing.T) (*Server, *store.DB) {
	t.Helper()
	db := testutil.TestStore(t)
	return New(db), db
}

func seedNewsletter(t *testing.T, db *store.DB, title, category string) uuid.UUID {
	t.Helper()
	n, err := db.CreateGenerated(context.Background(), title, category, testutil.Articles(),
		"<!DOCTYPE html><html><body>"+title+"</body></html>", []byte("%PDF-1.7"))
	if err != nil {
		t.Fatal(err)
	}
	return n.ID
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so we
	// call the handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_newsletters":
		result, err = srv.listNewsletters(ctx, req)
	case "get_newsletter":
		result, err = srv.getNewsletter(ctx, req)
	case "get_newsletter_status":
		result, err = srv.getNewsletterStatus(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestListNewsletters(t *testing.T) {
	srv, db := testServer(t)
	seedNewsletter(t, db, "Weekly Digest", "Tech")
	seedNewsletter(t, db, "Match Report", "Sports")

	r := callTool(t, srv, "list_newsletters", map[string]interface{}{"categories": "Tech"})
	text := resultText(r)
	if !strings.Contains(text, "Weekly Digest") {
		t.Errorf("list missing Tech newsletter: %q", text)
	}
	if strings.Contains(text, "Match Report") {
		t.Errorf("list leaked other category: %q", text)
	}
}

func TestGetNewsletter(t *testing.T) {
	srv, db := testServer(t)
	id := seedNewsletter(t, db, "Weekly Digest", "Tech")

	r := callTool(t, srv, "get_newsletter", map[string]interface{}{"id": id.String()})
	text := resultText(r)
	if !strings.Contains(text, "Weekly Digest") || !strings.Contains(text, "<!DOCTYPE html>") {
		t.Errorf("get result = %q", text)
	}
}

func TestGetNewsletterMissing(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "get_newsletter", map[string]interface{}{"id": uuid.NewString()})
	if !r.IsError {
		t.Error("expected error for missing newsletter")
	}

	r = callTool(t, srv, "get_newsletter", map[string]interface{}{"id": "not-a-uuid"})
	if !r.IsError {
		t.Error("expected error for malformed id")
	}
}

func TestGetNewsletterStatus(t *testing.T) {
	srv, db := testServer(t)
	id := seedNewsletter(t, db, "Weekly Digest", "Tech")

	r := callTool(t, srv, "get_newsletter_status", map[string]interface{}{"id": id.String()})
	text := resultText(r)
	if text != "status: not_sent, recipients: 0" {
		t.Errorf("status = %q", text)
	}
}
