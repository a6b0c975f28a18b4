package stock

import (
	"context"
	"sort"
	"sync"

	"github.com/gofrs/uuid"
)

// MemoryRepository keeps lines and movements in process memory. It backs the
// test suites and small single-node deployments.
type MemoryRepository struct {
	mu        sync.RWMutex
	lines     map[uuid.UUID]Line
	movements map[uuid.UUID][]Movement
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		lines:     make(map[uuid.UUID]Line),
		movements: make(map[uuid.UUID][]Movement),
	}
}

func (r *MemoryRepository) GetLine(_ context.Context, productID uuid.UUID) (*Line, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	line, ok := r.lines[productID]
	if !ok {
		return nil, ErrLineNotFound
	}
	return &line, nil
}

func (r *MemoryRepository) ListLines(_ context.Context) ([]Line, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lines := make([]Line, 0, len(r.lines))
	for _, line := range r.lines {
		lines = append(lines, line)
	}
	sort.Slice(lines, func(i, j int) bool {
		return lines[i].ProductName < lines[j].ProductName
	})
	return lines, nil
}

func (r *MemoryRepository) ListMovements(_ context.Context, productID uuid.UUID) ([]Movement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	trail := r.movements[productID]
	out := make([]Movement, len(trail))
	copy(out, trail)
	return out, nil
}

func (r *MemoryRepository) SaveLine(_ context.Context, line *Line) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines[line.ProductID] = *line
	return nil
}

func (r *MemoryRepository) SaveLineWithMovement(_ context.Context, line *Line, mv *Movement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines[line.ProductID] = *line
	r.movements[mv.ProductID] = append(r.movements[mv.ProductID], *mv)
	return nil
}
