package repository

import (
	"context"
	"sync"

	"github.com/Andrewcephas/food-fusion-commerce-hub/internal/domain"
)

// MemoryCartRepository holds cart lines in memory, keyed by user (or POS
// register). The POS screen uses it because a register's running order should
// not outlive the process.
type MemoryCartRepository struct {
	mu    sync.RWMutex
	carts map[string]map[string]domain.CartLine
}

func NewMemoryCartRepository() *MemoryCartRepository {
	return &MemoryCartRepository{
		carts: make(map[string]map[string]domain.CartLine),
	}
}

func (r *MemoryCartRepository) ListLines(_ context.Context, userID string) ([]domain.CartLine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lines := make([]domain.CartLine, 0, len(r.carts[userID]))
	for _, line := range r.carts[userID] {
		lines = append(lines, line)
	}
	return lines, nil
}

func (r *MemoryCartRepository) GetLine(_ context.Context, userID, productID string) (*domain.CartLine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	line, ok := r.carts[userID][productID]
	if !ok {
		return nil, domain.ErrLineNotFound
	}
	return &line, nil
}

func (r *MemoryCartRepository) PutLine(_ context.Context, line *domain.CartLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.carts[line.UserID] == nil {
		r.carts[line.UserID] = make(map[string]domain.CartLine)
	}
	r.carts[line.UserID][line.ProductID] = *line
	return nil
}

func (r *MemoryCartRepository) DeleteLine(_ context.Context, userID, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.carts[userID], productID)
	return nil
}

func (r *MemoryCartRepository) Clear(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.carts, userID)
	return nil
}
