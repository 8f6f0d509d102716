package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/odshub/internal/pageservice"
	"github.com/starford/odshub/internal/search"
)

// Routes bundles the optional collaborators of the API router.
type Routes struct {
	// Sessions enables the /search/sessions routes when non-nil.
	Sessions *search.Registry
	// Events, if non-nil, is mounted at GET /events.
	Events http.Handler
	// Assets, if non-nil, serves GET /assets/*.
	Assets *AssetHandler
	// HighlightStyle is the default chroma style of /assets/highlight.css.
	HighlightStyle string
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(svc *pageservice.Service, rt Routes) chi.Router {
	h := NewHandler(svc, rt.Sessions)

	r := chi.NewRouter()

	// Pages and listings.
	r.Get("/pages/*", h.GetPage)
	r.Get("/collections", h.ListCollections)
	r.Get("/collections/{name}", h.ListCollection)
	r.Get("/landing", h.Landing)

	// Search.
	r.Get("/search", h.Search)
	if rt.Sessions != nil {
		r.Post("/search/sessions", h.StartSession)
		r.Get("/search/sessions/{id}", h.QuerySession)
		r.Delete("/search/sessions/{id}", h.CloseSession)
	}

	// Static content.
	style := rt.HighlightStyle
	if style == "" {
		style = "github"
	}
	r.Get("/assets/highlight.css", HighlightCSS(style))
	if rt.Assets != nil {
		r.Get("/assets/*", rt.Assets.ServeFile)
	}

	// Live content changes (preview mode only).
	if rt.Events != nil {
		r.Get("/events", rt.Events.ServeHTTP)
	}

	return r
}
