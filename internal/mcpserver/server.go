// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the Ansuz document tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/halvard/ansuz/internal/apperr"
	"github.com/halvard/ansuz/internal/catalog"
	"github.com/halvard/ansuz/internal/docservice"
	"github.com/halvard/ansuz/internal/index"
)

// Server wraps the MCP server with the Ansuz document tools.
type Server struct {
	mcp     *server.MCPServer
	docs    *docservice.Service
	scanner *catalog.Scanner
	db      index.DocIndex
}

// New creates a new MCP server with all tools registered. db may be nil, in
// which case the search tool reports that no index is configured.
func New(docs *docservice.Service, scanner *catalog.Scanner, db index.DocIndex) *Server {
	s := &Server{docs: docs, scanner: scanner, db: db}

	s.mcp = server.NewMCPServer(
		"Ansuz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_catalog",
		mcp.WithDescription("List the knowledge catalog: every document with its title and category."),
		mcp.WithString("category", mcp.Description("Optional case-insensitive category filter, e.g. 'libs'")),
		mcp.WithBoolean("detail", mcp.Description("Include description and tags per entry (default false)")),
	), s.listCatalog)

	s.mcp.AddTool(mcp.NewTool("get_outline",
		mcp.WithDescription("Get a document's metadata and heading structure with section IDs. "+
			"Always call this before update_section: section IDs are derived from the current "+
			"content and change when the document changes."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Document path or bare file name (fuzzy lookup supported)")),
	), s.getOutline)

	s.mcp.AddTool(mcp.NewTool("create_document",
		mcp.WithDescription("Create a new document skeleton: frontmatter plus a single H1 title. "+
			"Never overwrites; use update_section to fill in content afterwards. "+
			"Call this at most once per user request."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Document title (becomes the H1 heading)")),
		mcp.WithString("category", mcp.Required(), mcp.Description("Category subdirectory, e.g. libs, tools")),
		mcp.WithString("tags", mcp.Required(), mcp.Description("Comma-separated tags, e.g. \"react, hooks\"")),
		mcp.WithString("description", mcp.Required(), mcp.Description("One-line description of the document")),
		mcp.WithString("name", mcp.Description("Optional file name without path or .md suffix (default: slug from title)")),
	), s.createDocument)

	s.mcp.AddTool(mcp.NewTool("update_section",
		mcp.WithDescription("Replace one section of a document, addressed by its outline ID. "+
			"Use node_id \"APPEND\" to append to the end of the file instead. "+
			"expected_title must match the target heading (dual lock against stale outlines). "+
			"A snapshot is captured before every write."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Document path")),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Section ID from get_outline (e.g. \"2.1\"), or \"APPEND\"")),
		mcp.WithString("expected_title", mcp.Required(), mcp.Description("Current title of the target section")),
		mcp.WithString("new_content", mcp.Required(), mcp.Description("Replacement Markdown, including the heading line")),
		mcp.WithString("expected_checksum", mcp.Description("Optional SHA-256 of the current content; update fails if stale")),
	), s.updateSection)

	s.mcp.AddTool(mcp.NewTool("view_changes",
		mcp.WithDescription("Show the unified diff between a document's latest snapshot and its current content."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Document path")),
	), s.viewChanges)

	s.mcp.AddTool(mcp.NewTool("search_documents",
		mcp.WithDescription("Full-text search through document content and titles."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchDocuments)

	s.mcp.AddTool(mcp.NewTool("get_document_contract",
		mcp.WithDescription("Returns the canonical Ansuz document format contract. "+
			"Call this before creating or updating documents to ensure correct structure."),
	), s.getDocumentContract)

	// Resource: document format contract.
	s.mcp.AddResource(
		mcp.NewResource("ansuz://document-format", "Document Format Contract",
			mcp.WithResourceDescription("Canonical Markdown document format and update workflow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readDocumentFormatResource,
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

func (s *Server) listCatalog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := req.GetString("category", "")
	detail := req.GetBool("detail", false)

	entries, err := s.scanner.List(category, detail)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(entries, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getOutline(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := s.docs.GetOutline(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	payload, _ := json.MarshalIndent(out, "", "  ")
	return mcp.NewToolResultText(string(payload)), nil
}

func (s *Server) createDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	category, err := req.RequireString("category")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tags, err := req.RequireString("tags")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	description, err := req.RequireString("description")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	path, err := s.docs.Create(ctx, docservice.CreateRequest{
		Title:       title,
		Category:    category,
		Tags:        tags,
		Description: description,
		Name:        req.GetString("name", ""),
	})
	if err != nil {
		if errors.Is(err, apperr.ErrAlreadyExists) {
			return mcp.NewToolResultError(fmt.Sprintf(
				"document already exists: %s. Use update_section to change it.", path)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"created: %s\nNext: call get_outline to see the structure, then update_section to fill in content.", path)), nil
}

func (s *Server) updateSection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	nodeID, err := req.RequireString("node_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	expectedTitle, err := req.RequireString("expected_title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	newContent, err := req.RequireString("new_content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := s.docs.UpdateSection(ctx, docservice.UpdateRequest{
		Path:             path,
		NodeID:           nodeID,
		ExpectedTitle:    expectedTitle,
		NewContent:       newContent,
		ExpectedChecksum: req.GetString("expected_checksum", ""),
	})
	if err != nil {
		if errors.Is(err, apperr.ErrLockMismatch) {
			return mcp.NewToolResultError(err.Error() + " Re-fetch the outline before retrying."), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}

	if res.NodeID == docservice.AppendID {
		return mcp.NewToolResultText(fmt.Sprintf(
			"appended %d lines to %s", res.AddedLines, res.Path)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"updated section %s in %s; lines %d -> %d", res.NodeID, res.Path, res.RemovedLines, res.AddedLines)), nil
}

func (s *Server) viewChanges(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	diff, err := s.docs.Changes(ctx, path)
	if err != nil {
		if errors.Is(err, apperr.ErrNoHistory) {
			return mcp.NewToolResultText("no history yet (initial version)"), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(diff), nil
}

func (s *Server) searchDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if s.db == nil {
		return mcp.NewToolResultError("search index not configured"), nil
	}
	results, err := s.db.Search(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getDocumentContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(DocumentFormatContract), nil
}

func (s *Server) readDocumentFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "ansuz://document-format",
			MIMEType: "text/markdown",
			Text:     DocumentFormatContract,
		},
	}, nil
}
