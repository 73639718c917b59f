package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/apicoin/apicoin/internal/paging"
)

type memoryRepository struct {
	mu        sync.RWMutex
	entries   []Entry
	byHandle  map[string]int
	byCreator map[string][]Entry
}

// NewMemoryRepository builds an in-memory app store.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		byHandle:  make(map[string]int),
		byCreator: make(map[string][]Entry),
	}
}

func (r *memoryRepository) Create(_ context.Context, entry Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byHandle[entry.Handle]; exists {
		return fmt.Errorf("app %s already registered", entry.Handle)
	}
	r.byHandle[entry.Handle] = len(r.entries)
	r.entries = append(r.entries, entry)
	r.byCreator[entry.Creator] = append(r.byCreator[entry.Creator], entry)
	return nil
}

func (r *memoryRepository) Get(_ context.Context, handle string) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pos, ok := r.byHandle[handle]
	if !ok {
		return Entry{}, fmt.Errorf("app %s: %w", handle, ErrAppNotFound)
	}
	return r.entries[pos], nil
}

func (r *memoryRepository) List(_ context.Context, offset, limit int) ([]Entry, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return paging.Slice(r.entries, offset, limit), len(r.entries), nil
}

func (r *memoryRepository) ListByCreator(_ context.Context, creator string, offset, limit int) ([]Entry, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	owned := r.byCreator[creator]
	return paging.Slice(owned, offset, limit), len(owned), nil
}
