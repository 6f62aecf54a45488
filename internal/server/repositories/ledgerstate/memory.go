package ledgerstate

import (
	"context"
	"sync"
)

type MemoryRepository struct {
	mu     sync.Mutex
	supply int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) TotalSupply(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.supply, nil
}

func (r *MemoryRepository) AddSupply(ctx context.Context, delta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.supply += delta
	return nil
}
