package api

import (
	"github.com/halvard/ansuz/internal/catalog"
	"github.com/halvard/ansuz/internal/docservice"
	"github.com/halvard/ansuz/internal/index"
)

// CreateDocumentRequest is the request body for creating a document skeleton.
type CreateDocumentRequest struct {
	Title       string `json:"title"`
	Category    string `json:"category"`
	Tags        string `json:"tags"` // comma-separated
	Description string `json:"description"`
	Name        string `json:"name,omitempty"`
}

// UpdateSectionRequest is the request body for a section mutation. The
// document path comes from the URL.
type UpdateSectionRequest struct {
	NodeID           string `json:"node_id"`
	ExpectedTitle    string `json:"expected_title"`
	NewContent       string `json:"new_content"`
	ExpectedChecksum string `json:"expected_checksum,omitempty"`
}

// CreateDocumentResponse reports the final path of a created document.
type CreateDocumentResponse struct {
	Path string `json:"path"`
}

// CatalogEntry is a catalog item (aliased from the domain layer).
type CatalogEntry = catalog.Entry

// OutlineResponse is the outline payload (aliased from the domain layer).
type OutlineResponse = docservice.Outline

// UpdateResult reports affected line counts (aliased from the domain layer).
type UpdateResult = docservice.UpdateResult

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results"`
}
