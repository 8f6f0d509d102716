// Package storage defines the read-only content store abstraction.
package storage

import (
	"context"

	"github.com/starford/odshub/internal/models"
)

// Store is the interface for content repository reads. Paths are relative to
// the repository root and use forward slashes.
type Store interface {
	// Read returns the raw bytes of the file at path. A missing file yields
	// an error wrapping apperr.ErrNotFound.
	Read(ctx context.Context, path string) ([]byte, error)
	// List returns the immediate children of dir.
	List(ctx context.Context, dir string) ([]models.Entry, error)
}
