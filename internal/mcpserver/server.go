// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes odshub content tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/odshub/internal/apperr"
	"github.com/starford/odshub/internal/pageservice"
	"github.com/starford/odshub/internal/search"
)

const (
	defaultLimit = 20
	syntaxURI    = "odshub://search-syntax"
)

// Server wraps the MCP server with odshub tools.
type Server struct {
	mcp *server.MCPServer
	svc *pageservice.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *pageservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"odshub",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_content",
		mcp.WithDescription("Fuzzy search across every content page by file name and body. "+
			"Supports extended syntax; read the "+syntaxURI+" resource for operators."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 20)")),
	), s.searchContent)

	s.mcp.AddTool(mcp.NewTool("read_page",
		mcp.WithDescription("Render a content page and return its title, table of contents and HTML."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Page slug, collection/name (e.g. examples/genomic-data)")),
	), s.readPage)

	s.mcp.AddTool(mcp.NewTool("list_collection",
		mcp.WithDescription("List the pages of a collection, or every collection when name is empty."),
		mcp.WithString("name", mcp.Description("Collection name (empty for all collections)")),
	), s.listCollection)

	s.mcp.AddResource(
		mcp.NewResource(syntaxURI, "Search Syntax",
			mcp.WithResourceDescription("Query operators accepted by search_content."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readSyntaxResource,
	)

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

type searchHit struct {
	Title      string  `json:"title"`
	Collection string  `json:"collection"`
	Slug       string  `json:"slug"`
	Path       string  `json:"path"`
	Score      float64 `json:"score"`
}

type searchSection struct {
	Title string      `json:"title"`
	Hits  []searchHit `json:"hits"`
}

func (s *Server) searchContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := req.GetInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}

	results, err := s.svc.Search(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("no results found"), nil
	}
	if len(results) > limit {
		results = results[:limit]
	}

	var sections []searchSection
	for _, g := range search.GroupByCollection(results) {
		sec := searchSection{Title: g.Title}
		for _, r := range g.Results {
			sec.Hits = append(sec.Hits, searchHit{
				Title:      r.Record.DisplayTitle(),
				Collection: r.Record.Collection,
				Slug:       strings.TrimPrefix(r.Record.Link(), "/post/"),
				Path:       r.Record.Path,
				Score:      r.Score,
			})
		}
		sections = append(sections, sec)
	}
	out, _ := json.MarshalIndent(sections, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page, err := s.svc.GetPage(ctx, slug)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", slug)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(map[string]any{
		"title":    page.Title,
		"slug":     page.Slug,
		"headings": page.Headings,
		"html":     page.HTML,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listCollection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	if name == "" {
		var lines []string
		for _, c := range s.svc.ListCollections(ctx) {
			lines = append(lines, c.Name+"\t"+c.Title)
		}
		if len(lines) == 0 {
			return mcp.NewToolResultText("no collections found"), nil
		}
		return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
	}

	posts, err := s.svc.ListCollection(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(posts) == 0 {
		return mcp.NewToolResultText("no pages found"), nil
	}
	lines := make([]string, len(posts))
	for i, p := range posts {
		lines[i] = p.Slug + "\t" + p.Title
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) readSyntaxResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      syntaxURI,
			MIMEType: "text/markdown",
			Text:     SearchSyntaxGuide,
		},
	}, nil
}
