package documents

import (
	"context"
	"errors"
)

// ErrNotFound reports a (userID, publicID) pair absent from the catalog.
var ErrNotFound = errors.New("subdocument not found")

// CatalogRepo is the per-user document catalog: metadata only, no bytes.
// Append and Remove are each atomic catalog-level operations.
type CatalogRepo interface {
	Append(ctx context.Context, doc Subdocument) error
	ListByUser(ctx context.Context, userID string) ([]Subdocument, error)
	GetByUser(ctx context.Context, userID, publicID string) (Subdocument, error)
	// Remove reports false when the entry was already gone, so callers
	// can distinguish a lost delete race from a successful removal.
	Remove(ctx context.Context, userID, publicID string) (bool, error)
}
