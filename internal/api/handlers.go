package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/odshub/internal/checksum"
	"github.com/starford/odshub/internal/pageservice"
	"github.com/starford/odshub/internal/search"
)

// Handler holds API route handlers.
type Handler struct {
	svc      *pageservice.Service
	sessions *search.Registry
}

// NewHandler creates a new Handler. sessions may be nil, in which case the
// session routes are not mounted.
func NewHandler(svc *pageservice.Service, sessions *search.Registry) *Handler {
	return &Handler{svc: svc, sessions: sessions}
}

// wildcardPath extracts everything after the route prefix. Supports encoded
// slashes from OpenAPI clients (e.g. about%2Fteam).
func wildcardPath(r *http.Request) string {
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

// GetPage handles GET /api/pages/*.
//
//	@Summary		Render a content page
//	@Tags			pages
//	@Produce		json
//	@Param			slug			path		string	true	"collection/page"
//	@Param			If-None-Match	header		string	false	"ETag from a previous response"
//	@Success		200				{object}	Page
//	@Success		304				"Not modified"
//	@Failure		400				{object}	errResponse
//	@Failure		404				{object}	errResponse
//	@Failure		502				{object}	errResponse
//	@Router			/pages/{slug} [get]
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	slug := wildcardPath(r)
	if slug == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("slug is required"))
		return
	}
	page, err := h.svc.GetPage(r.Context(), slug)
	if err != nil {
		writeError(w, "get page", err, slog.String("slug", slug))
		return
	}

	etag := checksum.ETag(page.Checksum)
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match != "" && checksum.Match(match, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// ListCollections handles GET /api/collections.
//
//	@Summary		List content collections
//	@Tags			collections
//	@Produce		json
//	@Success		200	{object}	CollectionsResponse
//	@Router			/collections [get]
func (h *Handler) ListCollections(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, CollectionsResponse{
		Collections: h.svc.ListCollections(r.Context()),
	})
}

// ListCollection handles GET /api/collections/{name}.
//
//	@Summary		List the posts of one collection
//	@Tags			collections
//	@Produce		json
//	@Param			name	path		string	true	"Collection name"
//	@Success		200		{object}	CollectionResponse
//	@Failure		400		{object}	errResponse
//	@Router			/collections/{name} [get]
func (h *Handler) ListCollection(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	posts, err := h.svc.ListCollection(r.Context(), name)
	if err != nil {
		writeError(w, "list collection", err, slog.String("collection", name))
		return
	}
	writeJSON(w, http.StatusOK, CollectionResponse{
		Name:  name,
		Title: search.SectionTitle(name),
		Posts: posts,
	})
}

// Landing handles GET /api/landing.
//
//	@Summary		Get the landing page configuration
//	@Tags			landing
//	@Produce		json
//	@Success		200	{object}	LandingResponse
//	@Router			/landing [get]
func (h *Handler) Landing(w http.ResponseWriter, r *http.Request) {
	cfg, source := h.svc.Landing(r.Context())
	writeJSON(w, http.StatusOK, LandingResponse{Source: source, Config: cfg})
}

// Search handles GET /api/search. Each call builds its own corpus.
//
//	@Summary		Fuzzy search across all pages
//	@Tags			search
//	@Produce		json
//	@Param			q	query		string	true	"Search query (extended syntax)"
//	@Success		200	{object}	SearchResponse
//	@Failure		400	{object}	errResponse
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	if !r.URL.Query().Has("q") {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	q := r.URL.Query().Get("q")
	results, err := h.svc.Search(r.Context(), q)
	if err != nil {
		writeError(w, "search", err, slog.String("query", q))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{
		Query:   q,
		Results: toSearchResults(results),
		Groups:  toSearchGroups(search.GroupByCollection(results)),
	})
}

// StartSession handles POST /api/search/sessions.
//
//	@Summary		Start a search session
//	@Description	Starts building a corpus in the background. Poll the session until it is ready.
//	@Tags			search
//	@Produce		json
//	@Success		202	{object}	SessionResponse
//	@Router			/search/sessions [post]
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Start()
	writeJSON(w, http.StatusAccepted, toSessionResponse(s, s.Query("")))
}

// QuerySession handles GET /api/search/sessions/{id}.
//
//	@Summary		Query a search session
//	@Tags			search
//	@Produce		json
//	@Param			id	path		string	true	"Session ID"
//	@Param			q	query		string	false	"Search query (extended syntax)"
//	@Success		200	{object}	SessionResponse
//	@Failure		404	{object}	errResponse
//	@Router			/search/sessions/{id} [get]
func (h *Handler) QuerySession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s, err := h.sessions.Get(id)
	if err != nil {
		writeError(w, "query session", err, slog.String("session", id))
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(s, s.Query(r.URL.Query().Get("q"))))
}

// CloseSession handles DELETE /api/search/sessions/{id}.
//
//	@Summary		Close a search session
//	@Tags			search
//	@Param			id	path	string	true	"Session ID"
//	@Success		204	"Session closed"
//	@Failure		404	{object}	errResponse
//	@Router			/search/sessions/{id} [delete]
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.sessions.Close(id); err != nil {
		writeError(w, "close session", err, slog.String("session", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
