// Package pageservice coordinates the content store, the Markdown pipeline,
// the corpus builder and the landing loader behind the API and MCP surfaces.
package pageservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/odshub/internal/apperr"
	"github.com/starford/odshub/internal/checksum"
	"github.com/starford/odshub/internal/index"
	"github.com/starford/odshub/internal/landing"
	"github.com/starford/odshub/internal/metrics"
	"github.com/starford/odshub/internal/models"
	"github.com/starford/odshub/internal/parser"
	"github.com/starford/odshub/internal/render"
	"github.com/starford/odshub/internal/search"
	"github.com/starford/odshub/internal/storage"
)

// DefaultPagesRoot is the store directory holding page collections.
const DefaultPagesRoot = "pages"

// Page is a rendered content page.
type Page struct {
	Collection string           `json:"collection"`
	Slug       string           `json:"slug"`
	Title      string           `json:"title"`
	Metadata   models.Metadata  `json:"metadata"`
	HTML       string           `json:"html"`
	Headings   []models.Heading `json:"headings"`
	Checksum   string           `json:"checksum"`
}

// CollectionSummary names one collection for navigation.
type CollectionSummary struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

// Post is one entry of a collection listing.
type Post struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

// Config holds the service tunables.
type Config struct {
	PagesRoot   string
	Concurrency int
	Search      []search.Option
}

// Service renders pages and builds search corpora from a content store.
type Service struct {
	store    storage.Store
	pipeline *render.Pipeline
	landing  *landing.Loader
	builder  *index.Builder
	cfg      Config
	logger   *slog.Logger
}

// NewService creates a page service. Zero Config fields take their defaults.
func NewService(store storage.Store, pipeline *render.Pipeline, loader *landing.Loader, cfg Config, logger *slog.Logger) *Service {
	if cfg.PagesRoot == "" {
		cfg.PagesRoot = DefaultPagesRoot
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = index.DefaultConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		pipeline: pipeline,
		landing:  loader,
		builder:  index.NewBuilder(store, cfg.PagesRoot, cfg.Concurrency, logger),
		cfg:      cfg,
		logger:   logger,
	}
}

// GetPage fetches and renders the page at slug, "collection/name" with
// optional deeper segments and no extension.
func (s *Service) GetPage(ctx context.Context, slug string) (*Page, error) {
	segments, err := splitSlug(slug)
	if err != nil {
		return nil, err
	}
	slug = strings.Join(segments, "/")

	data, err := s.store.Read(ctx, path.Join(s.cfg.PagesRoot, slug)+".md")
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			metrics.ObserveRender("not_found")
		} else {
			metrics.ObserveRender("error")
		}
		return nil, err
	}

	res, err := parser.Parse(data)
	if err != nil {
		metrics.ObserveRender("error")
		return nil, err
	}
	out, err := s.pipeline.Render(res.Body, slug)
	if err != nil {
		metrics.ObserveRender("error")
		return nil, fmt.Errorf("render %s: %w", slug, err)
	}
	metrics.ObserveRender("ok")

	title := res.Title
	if title == "" {
		title = segments[1]
	}
	return &Page{
		Collection: segments[0],
		Slug:       slug,
		Title:      title,
		Metadata:   nonNilMap(res.Metadata),
		HTML:       out.HTML,
		Headings:   nonNilSlice(out.Headings),
		Checksum:   checksum.Sum(data),
	}, nil
}

// splitSlug validates a page slug and returns its segments.
func splitSlug(slug string) ([]string, error) {
	slug = strings.TrimSuffix(strings.Trim(slug, "/"), ".md")
	segments := strings.Split(slug, "/")
	if len(segments) < 2 {
		return nil, fmt.Errorf("%q: want collection/page: %w", slug, apperr.ErrInvalidPath)
	}
	for _, seg := range segments {
		if seg == "" || seg == "." || seg == ".." || strings.HasPrefix(seg, ".") {
			return nil, fmt.Errorf("%q: %w", slug, apperr.ErrInvalidPath)
		}
	}
	return segments, nil
}

// ListCollections returns the collections under the pages root. A store
// failure yields an empty list.
func (s *Service) ListCollections(ctx context.Context) []CollectionSummary {
	entries, err := s.store.List(ctx, s.cfg.PagesRoot)
	if err != nil {
		s.logger.Warn("pages: list collections failed",
			slog.String("root", s.cfg.PagesRoot),
			slog.String("error", err.Error()))
		return []CollectionSummary{}
	}
	out := []CollectionSummary{}
	for _, e := range entries {
		if e.Type == models.EntryDir {
			out = append(out, CollectionSummary{Name: e.Name, Title: search.SectionTitle(e.Name)})
		}
	}
	return out
}

// ListCollection returns the posts of one collection in listing order, with
// titles read from each document's frontmatter. A listing failure yields an
// empty list; a document that cannot be read keeps its file-name title.
func (s *Service) ListCollection(ctx context.Context, name string) ([]Post, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return nil, fmt.Errorf("%q: %w", name, apperr.ErrInvalidPath)
	}
	entries, err := s.store.List(ctx, path.Join(s.cfg.PagesRoot, name))
	if err != nil {
		s.logger.Warn("pages: list collection failed",
			slog.String("collection", name),
			slog.String("error", err.Error()))
		return []Post{}, nil
	}

	var files []models.Entry
	for _, e := range entries {
		if e.IsMarkdown() {
			files = append(files, e)
		}
	}

	posts := make([]Post, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i, e := range files {
		stem := strings.TrimSuffix(e.Name, ".md")
		posts[i] = Post{ID: e.SHA, Title: stem, Slug: name + "/" + stem}
		g.Go(func() error {
			data, err := s.store.Read(gctx, e.Path)
			if err != nil {
				s.logger.Warn("pages: read title failed",
					slog.String("path", e.Path),
					slog.String("error", err.Error()))
				return nil
			}
			res, err := parser.Parse(data)
			if err == nil && res.Title != "" {
				posts[i].Title = res.Title
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return posts, nil
}

// Landing returns the landing page configuration and the source it came from.
func (s *Service) Landing(ctx context.Context) (*landing.HomePageConfig, string) {
	return s.landing.Load(ctx)
}

// Corpus builds a fresh set of search records. It satisfies search.CorpusFunc.
func (s *Service) Corpus(ctx context.Context) ([]models.SearchRecord, error) {
	c, err := s.builder.Build(ctx)
	if err != nil {
		return nil, err
	}
	metrics.ObserveCorpusBuild(c.Stats.Duration, c.Stats.Documents, c.Stats.Failed)
	return c.Records, nil
}

// Search builds a corpus for this call alone and runs q against it. A failed
// corpus build yields no results; only a cancelled ctx is reported.
func (s *Service) Search(ctx context.Context, q string) ([]search.Result, error) {
	if strings.TrimSpace(q) == "" {
		return []search.Result{}, nil
	}
	records, err := s.Corpus(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.logger.Warn("search: corpus build failed",
			slog.String("query", q),
			slog.String("error", err.Error()))
		return []search.Result{}, nil
	}
	return search.NewEngine(records, s.cfg.Search...).Search(q), nil
}

// NewRegistry returns a session registry whose sessions build corpora
// through this service.
func (s *Service) NewRegistry(ctx context.Context, ttl time.Duration) *search.Registry {
	return search.NewRegistry(ctx, s.Corpus, ttl, s.logger, s.cfg.Search...)
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func nonNilMap(m models.Metadata) models.Metadata {
	if m == nil {
		return models.Metadata{}
	}
	return m
}
