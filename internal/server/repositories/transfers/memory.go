package transfers

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/lastping/internal/common"
	"github.com/dmitrijs2005/lastping/internal/server/models"
)

// MemoryRepository keeps transfers in memory with a dedup index. Ids are a
// monotonically increasing counter starting at 1.
type MemoryRepository struct {
	mu     sync.Mutex
	nextID int64
	byKey  map[models.DedupKey][]*models.Transfer
	log    []*models.Transfer
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		nextID: 1,
		byKey:  make(map[models.DedupKey][]*models.Transfer),
	}
}

func (r *MemoryRepository) Record(ctx context.Context, transfer *models.Transfer) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *transfer
	stored.ID = r.nextID
	r.nextID++

	r.log = append(r.log, &stored)
	if stored.Dedupable() {
		key := stored.Key()
		r.byKey[key] = append(r.byKey[key], &stored)
	}

	return stored.ID, nil
}

func (r *MemoryRepository) FindDuplicate(ctx context.Context, key models.DedupKey, cutoff time.Time) (*models.Transfer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matches := r.byKey[key]
	for i := len(matches) - 1; i >= 0; i-- {
		if !matches[i].ExecutedAt.Before(cutoff) {
			found := *matches[i]
			return &found, nil
		}
	}
	return nil, common.ErrorNotFound
}
