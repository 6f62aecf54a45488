package accounts

import (
	"context"
	"sort"
	"sync"

	"github.com/dmitrijs2005/lastping/internal/common"
	"github.com/dmitrijs2005/lastping/internal/identity"
	"github.com/dmitrijs2005/lastping/internal/server/models"
)

// MemoryRepository is a map-backed Repository used by the default in-process
// backend and by tests. All records are deep-copied on the way in and out so
// callers never share state with the store.
type MemoryRepository struct {
	mu       sync.RWMutex
	accounts map[identity.Principal]*models.Account
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{accounts: make(map[identity.Principal]*models.Account)}
}

func (r *MemoryRepository) Create(ctx context.Context, account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[account.Owner]; ok {
		return common.ErrorAlreadyExists
	}
	r.accounts[account.Owner] = account.Clone()
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, owner identity.Principal) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[owner]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return account.Clone(), nil
}

func (r *MemoryRepository) Update(ctx context.Context, account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[account.Owner]; !ok {
		return common.ErrorNotFound
	}
	r.accounts[account.Owner] = account.Clone()
	return nil
}

func (r *MemoryRepository) List(ctx context.Context) ([]*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Account, 0, len(r.accounts))
	for _, account := range r.accounts {
		out = append(out, account.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Owner.Less(out[j].Owner) })
	return out, nil
}
