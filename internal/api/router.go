package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/halvard/ansuz/internal/catalog"
	"github.com/halvard/ansuz/internal/docservice"
	"github.com/halvard/ansuz/internal/index"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(docs *docservice.Service, scanner *catalog.Scanner, db index.DocIndex, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(docs, scanner, db)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Catalog listing.
	r.Get("/catalog", h.Catalog)

	// Document operations.
	r.Post("/documents", h.CreateDocument)
	r.Delete("/documents/*", h.DeleteDocument)
	r.Get("/outline/*", h.Outline)
	r.Put("/section/*", h.UpdateSection)
	r.Get("/changes/*", h.Changes)

	// Search.
	r.Get("/search", h.Search)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
