package catalog

import (
	"context"
	"sync"

	"github.com/gofrs/uuid"
)

// MemoryRepository is an in-process catalog used by tests and by deployments
// that feed the engine a static product list.
type MemoryRepository struct {
	mu       sync.RWMutex
	products map[uuid.UUID]Product
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{products: make(map[uuid.UUID]Product)}
}

func (r *MemoryRepository) Put(p Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = p
}

func (r *MemoryRepository) GetProduct(_ context.Context, id uuid.UUID) (*Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	return &p, nil
}
