// Package index builds the in-memory search corpus from a content store and
// watches a local checkout for changes.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/odshub/internal/models"
	"github.com/starford/odshub/internal/parser"
	"github.com/starford/odshub/internal/storage"
)

// DefaultConcurrency bounds the number of in-flight store requests.
const DefaultConcurrency = 8

// Corpus is a snapshot of every collection and its searchable records.
// It is owned by whoever built it and never mutated afterwards.
type Corpus struct {
	Collections []models.Collection
	Records     []models.SearchRecord
	Stats       Stats
}

// Stats summarises one build.
type Stats struct {
	Collections int
	Documents   int
	Failed      int
	Duration    time.Duration
}

// Builder flattens the collections under a content root into a Corpus.
type Builder struct {
	store       storage.Store
	root        string
	concurrency int
	logger      *slog.Logger
}

// NewBuilder creates a Builder reading collections under root.
// A non-positive concurrency falls back to DefaultConcurrency.
func NewBuilder(store storage.Store, root string, concurrency int, logger *slog.Logger) *Builder {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{store: store, root: root, concurrency: concurrency, logger: logger}
}

// Build lists the root, then every collection, then fetches every Markdown
// document. Only a failure to list the root is returned; collection and
// document failures are logged and skipped. Output order follows listing
// order.
func (b *Builder) Build(ctx context.Context) (*Corpus, error) {
	start := time.Now()

	entries, err := b.store.List(ctx, b.root)
	if err != nil {
		return nil, fmt.Errorf("index: list %s: %w", b.root, err)
	}

	var cols []models.Collection
	for _, e := range entries {
		if e.Type == models.EntryDir {
			cols = append(cols, models.Collection{Name: e.Name, Path: e.Path})
		}
	}

	listings, err := b.listCollections(ctx, cols)
	if err != nil {
		return nil, err
	}
	docs, failed, err := b.fetchDocuments(ctx, cols, listings)
	if err != nil {
		return nil, err
	}

	c := &Corpus{Collections: cols, Records: []models.SearchRecord{}}
	for i := range cols {
		for _, d := range docs[i] {
			if d == nil {
				continue
			}
			c.Collections[i].Documents = append(c.Collections[i].Documents, *d)
			c.Records = append(c.Records, recordOf(d))
		}
	}
	c.Stats = Stats{
		Collections: len(cols),
		Documents:   len(c.Records),
		Failed:      failed,
		Duration:    time.Since(start),
	}
	b.logger.Debug("index: corpus built",
		slog.Int("collections", c.Stats.Collections),
		slog.Int("documents", c.Stats.Documents),
		slog.Int("failed", c.Stats.Failed),
		slog.Duration("duration", c.Stats.Duration))
	return c, nil
}

// listCollections returns the Markdown entries of each collection, indexed
// like cols. A failed listing leaves its slot empty.
func (b *Builder) listCollections(ctx context.Context, cols []models.Collection) ([][]models.Entry, error) {
	out := make([][]models.Entry, len(cols))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i, col := range cols {
		g.Go(func() error {
			entries, err := b.store.List(gctx, col.Path)
			if err != nil {
				b.logger.Warn("index: list collection failed",
					slog.String("collection", col.Name),
					slog.String("error", err.Error()))
				return nil
			}
			for _, e := range entries {
				if e.IsMarkdown() {
					out[i] = append(out[i], e)
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// fetchDocuments reads and parses every listed entry. Slots of documents that
// could not be read stay nil.
func (b *Builder) fetchDocuments(ctx context.Context, cols []models.Collection, listings [][]models.Entry) ([][]*models.Document, int, error) {
	out := make([][]*models.Document, len(cols))
	for i := range listings {
		out[i] = make([]*models.Document, len(listings[i]))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i, entries := range listings {
		for j, e := range entries {
			g.Go(func() error {
				d, err := b.fetch(gctx, cols[i].Name, e)
				if err != nil {
					b.logger.Warn("index: fetch document failed",
						slog.String("path", e.Path),
						slog.String("error", err.Error()))
					return nil
				}
				out[i][j] = d
				return nil
			})
		}
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	failed := 0
	for i := range out {
		for _, d := range out[i] {
			if d == nil {
				failed++
			}
		}
	}
	return out, failed, nil
}

func (b *Builder) fetch(ctx context.Context, collection string, e models.Entry) (*models.Document, error) {
	data, err := b.store.Read(ctx, e.Path)
	if err != nil {
		return nil, err
	}
	res, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}
	return &models.Document{
		Collection: collection,
		Name:       e.Name,
		Path:       e.Path,
		Raw:        data,
		Metadata:   res.Metadata,
		Body:       res.Body,
	}, nil
}

func recordOf(d *models.Document) models.SearchRecord {
	return models.SearchRecord{
		Name:       d.Name,
		Path:       d.Path,
		Collection: d.Collection,
		Content:    d.Body,
		Title:      parser.CleanTitle(d.Metadata.Text("title")),
	}
}
