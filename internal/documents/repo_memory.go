package documents

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory implementation of CatalogRepo, used when no
// database is configured and in tests. Lists preserve insertion order.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string][]Subdocument // userID -> documents, insertion order
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string][]Subdocument),
	}
}

// Append adds a document to the owner's list.
func (r *MemoryRepo) Append(ctx context.Context, doc Subdocument) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[doc.UserID] = append(r.data[doc.UserID], doc)
	return nil
}

// ListByUser returns the user's documents in insertion order.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string) ([]Subdocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	docs := make([]Subdocument, len(r.data[userID]))
	copy(docs, r.data[userID])
	return docs, nil
}

// GetByUser returns the document identified by (userID, publicID).
func (r *MemoryRepo) GetByUser(ctx context.Context, userID, publicID string) (Subdocument, error) {
	if err := ctx.Err(); err != nil {
		return Subdocument{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, doc := range r.data[userID] {
		if doc.PublicID == publicID {
			return doc, nil
		}
	}
	return Subdocument{}, ErrNotFound
}

// Remove deletes the entry and reports whether it was present.
func (r *MemoryRepo) Remove(ctx context.Context, userID, publicID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	docs := r.data[userID]
	for i, doc := range docs {
		if doc.PublicID == publicID {
			r.data[userID] = append(docs[:i:i], docs[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

var _ CatalogRepo = (*MemoryRepo)(nil)
