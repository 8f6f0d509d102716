package api

import (
	"github.com/starford/odshub/internal/landing"
	"github.com/starford/odshub/internal/pageservice"
	"github.com/starford/odshub/internal/search"
)

// Page is the rendered page response type (aliased from the domain layer).
type Page = pageservice.Page

// Post is one collection listing item (aliased from the domain layer).
type Post = pageservice.Post

// CollectionSummary names a collection (aliased from the domain layer).
type CollectionSummary = pageservice.CollectionSummary

// HomePageConfig is the landing page configuration (aliased from the domain layer).
type HomePageConfig = landing.HomePageConfig

// CollectionsResponse wraps the collection index.
type CollectionsResponse struct {
	Collections []CollectionSummary `json:"collections" validate:"required"`
}

// CollectionResponse wraps one collection's posts.
type CollectionResponse struct {
	Name  string `json:"name" example:"examples" validate:"required"`
	Title string `json:"title" example:"Examples" validate:"required"`
	Posts []Post `json:"posts" validate:"required"`
}

// LandingResponse wraps the landing configuration with its origin.
type LandingResponse struct {
	Source string          `json:"source" example:"store" enums:"store,default" validate:"required"`
	Config *HomePageConfig `json:"config" validate:"required"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	Name         string  `json:"name" example:"genomic-data.md" validate:"required"`
	Path         string  `json:"path" example:"pages/examples/genomic-data.md" validate:"required"`
	Collection   string  `json:"collectionName" example:"examples" validate:"required"`
	DisplayTitle string  `json:"displayTitle" example:"Genomic Data" validate:"required"`
	Link         string  `json:"link" example:"/post/examples/genomic-data" validate:"required"`
	Score        float64 `json:"score" example:"0.01" validate:"required"`
}

// SearchGroup is the results of one collection.
type SearchGroup struct {
	Collection string         `json:"collectionName" example:"examples" validate:"required"`
	Title      string         `json:"title" example:"Examples" validate:"required"`
	Results    []SearchResult `json:"results" validate:"required"`
}

// SearchResponse wraps ranked and grouped search results.
type SearchResponse struct {
	Query   string         `json:"query" example:"genomic" validate:"required"`
	Results []SearchResult `json:"results" validate:"required"`
	Groups  []SearchGroup  `json:"groups" validate:"required"`
}

// SessionResponse describes a search session and, once ready, the answer
// to the request's query.
type SessionResponse struct {
	ID      string         `json:"id" example:"4f1c2a9e-..." validate:"required"`
	State   search.State   `json:"state" example:"ready" enums:"loading,ready,error,closed" validate:"required"`
	Query   string         `json:"query"`
	Records int            `json:"records" example:"42"`
	Empty   bool           `json:"empty"`
	Results []SearchResult `json:"results" validate:"required"`
	Groups  []SearchGroup  `json:"groups" validate:"required"`
	Error   string         `json:"error,omitempty"`
}

func toSearchResults(results []search.Result) []SearchResult {
	out := make([]SearchResult, len(results))
	for i, r := range results {
		out[i] = SearchResult{
			Name:         r.Record.Name,
			Path:         r.Record.Path,
			Collection:   r.Record.Collection,
			DisplayTitle: r.Record.DisplayTitle(),
			Link:         r.Record.Link(),
			Score:        r.Score,
		}
	}
	return out
}

func toSearchGroups(groups []search.Group) []SearchGroup {
	out := make([]SearchGroup, len(groups))
	for i, g := range groups {
		out[i] = SearchGroup{
			Collection: g.Collection,
			Title:      g.Title,
			Results:    toSearchResults(g.Results),
		}
	}
	return out
}

func toSessionResponse(s *search.Session, snap search.Snapshot) SessionResponse {
	resp := SessionResponse{
		ID:      s.ID,
		State:   snap.State,
		Query:   snap.Query,
		Records: snap.Records,
		Empty:   snap.Empty(),
		Results: toSearchResults(snap.Results),
		Groups:  toSearchGroups(snap.Groups),
	}
	if snap.State == search.StateError {
		if err := s.Err(); err != nil {
			resp.Error = err.Error()
		}
	}
	return resp
}
