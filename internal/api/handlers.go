package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/halvard/ansuz/internal/apperr"
	"github.com/halvard/ansuz/internal/catalog"
	"github.com/halvard/ansuz/internal/docservice"
	"github.com/halvard/ansuz/internal/index"
)

// Handler holds API route handlers.
type Handler struct {
	docs    *docservice.Service
	scanner *catalog.Scanner
	db      index.DocIndex
}

// NewHandler creates a new Handler. db may be nil when search is not wired.
func NewHandler(docs *docservice.Service, scanner *catalog.Scanner, db index.DocIndex) *Handler {
	return &Handler{docs: docs, scanner: scanner, db: db}
}

// docPath extracts the document path from the URL wildcard. Supports encoded
// slashes from API clients (e.g. libs%2Freact_hooks.md).
func docPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// writeDomainError maps the engine's error taxonomy onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	var ambiguous *apperr.AmbiguousPathError
	switch {
	case errors.As(err, &ambiguous):
		writeJSON(w, http.StatusConflict, errResponse{Error: ambiguous.Error(), Candidates: ambiguous.Candidates})
	case errors.Is(err, apperr.ErrPathTraversal), errors.Is(err, apperr.ErrOutOfBounds):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrNotFound), errors.Is(err, apperr.ErrSectionNotFound), errors.Is(err, apperr.ErrNoHistory):
		writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrLockMismatch), errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusPreconditionFailed, errorBody(err.Error()))
	default:
		slog.Error("request failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// Catalog handles GET /api/catalog?category=&detail=.
func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	detail, _ := strconv.ParseBool(q.Get("detail"))

	entries, err := h.scanner.List(q.Get("category"), detail)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// Outline handles GET /api/outline/*.
func (h *Handler) Outline(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	out, err := h.docs.GetOutline(r.Context(), path)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateDocument handles POST /api/documents.
func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req CreateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json body"))
		return
	}
	if req.Title == "" || req.Category == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("title and category are required"))
		return
	}

	path, err := h.docs.Create(r.Context(), docservice.CreateRequest{
		Title:       req.Title,
		Category:    req.Category,
		Tags:        req.Tags,
		Description: req.Description,
		Name:        req.Name,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateDocumentResponse{Path: path})
}

// DeleteDocument handles DELETE /api/documents/*.
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if err := h.docs.Delete(r.Context(), path); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateSection handles PUT /api/section/*.
func (h *Handler) UpdateSection(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req UpdateSectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json body"))
		return
	}
	if req.NodeID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("node_id is required"))
		return
	}

	res, err := h.docs.UpdateSection(r.Context(), docservice.UpdateRequest{
		Path:             path,
		NodeID:           req.NodeID,
		ExpectedTitle:    req.ExpectedTitle,
		NewContent:       req.NewContent,
		ExpectedChecksum: req.ExpectedChecksum,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Changes handles GET /api/changes/*.
func (h *Handler) Changes(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	diff, err := h.docs.Changes(r.Context(), path)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(diff))
}

// Search handles GET /api/search?q=&limit=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		writeJSON(w, http.StatusNotImplemented, errorBody("search index not configured"))
		return
	}
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("q is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	results, err := h.db.Search(q, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if results == nil {
		results = []index.SearchResult{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}
