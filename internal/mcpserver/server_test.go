package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/odshub/internal/apperr"
	"github.com/starford/odshub/internal/landing"
	"github.com/starford/odshub/internal/models"
	"github.com/starford/odshub/internal/pageservice"
	"github.com/starford/odshub/internal/render"
	"github.com/starford/odshub/internal/testutil"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	_, store := testutil.ContentTree(t, testutil.SampleContent)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := pageservice.NewService(store, render.New(), landing.NewLoader(store, "", logger), pageservice.Config{}, logger)
	return New(svc, "test")
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so handlers are called
	// directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search_content":
		result, err = srv.searchContent(ctx, req)
	case "read_page":
		result, err = srv.readPage(ctx, req)
	case "list_collection":
		result, err = srv.listCollection(ctx, req)
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

func TestSearchContent(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "search_content", map[string]any{"query": "genomic"})
	if r.IsError {
		t.Fatalf("search error: %s", resultText(r))
	}
	var sections []searchSection
	if err := json.Unmarshal([]byte(resultText(r)), &sections); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(sections) == 0 || sections[0].Title != "Examples" {
		t.Fatalf("sections = %+v", sections)
	}
	top := sections[0].Hits[0]
	if top.Slug != "examples/genomic-data" || top.Title != "Genomic Data" {
		t.Errorf("top hit = %+v", top)
	}
}

func TestSearchContent_Limit(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "search_content", map[string]any{"query": "data", "limit": 1})
	var sections []searchSection
	if err := json.Unmarshal([]byte(resultText(r)), &sections); err != nil {
		t.Fatalf("decode: %v", err)
	}
	total := 0
	for _, s := range sections {
		total += len(s.Hits)
	}
	if total != 1 {
		t.Errorf("hits = %d, want 1", total)
	}
}

func TestSearchContent_NoResults(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "search_content", map[string]any{"query": "zzzzqqqq"})
	if got := resultText(r); got != "no results found" {
		t.Errorf("result = %q", got)
	}
}

type downStore struct{}

func (downStore) Read(context.Context, string) ([]byte, error) {
	return nil, &apperr.StatusError{Status: 503}
}

func (downStore) List(context.Context, string) ([]models.Entry, error) {
	return nil, &apperr.StatusError{Status: 503}
}

func TestSearchContent_UpstreamDown(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := downStore{}
	svc := pageservice.NewService(store, render.New(), landing.NewLoader(store, "", logger), pageservice.Config{}, logger)
	srv := New(svc, "test")

	r := callTool(t, srv, "search_content", map[string]any{"query": "genomic"})
	if r.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(r))
	}
	if got := resultText(r); got != "no results found" {
		t.Errorf("result = %q", got)
	}
}

func TestSearchContent_MissingQuery(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "search_content", map[string]any{})
	if !r.IsError {
		t.Error("expected error for missing query")
	}
}

func TestReadPage(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "read_page", map[string]any{"slug": "about/team"})
	if r.IsError {
		t.Fatalf("read error: %s", resultText(r))
	}
	text := resultText(r)
	if !strings.Contains(text, `"title": "Our Team"`) || !strings.Contains(text, `"id": "people"`) {
		t.Errorf("read result = %s", text)
	}
}

func TestReadPageMissing(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "read_page", map[string]any{"slug": "about/nope"})
	if !r.IsError {
		t.Error("expected error for missing page")
	}
	if got := resultText(r); got != "not found: about/nope" {
		t.Errorf("error text = %q", got)
	}
}

func TestListCollection(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "list_collection", map[string]any{})
	if got := resultText(r); got != "about\tAbout\nexamples\tExamples" {
		t.Errorf("collections = %q", got)
	}

	r = callTool(t, srv, "list_collection", map[string]any{"name": "examples"})
	want := "examples/genomic-data\tGenomic Data\nexamples/imaging\timaging"
	if got := resultText(r); got != want {
		t.Errorf("posts = %q, want %q", got, want)
	}
}

func TestSyntaxResource(t *testing.T) {
	srv := testServer(t)

	contents, err := srv.readSyntaxResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || tc.URI != syntaxURI || !strings.Contains(tc.Text, "AND") {
		t.Errorf("resource = %+v", contents[0])
	}
}
