package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/lastping/internal/dbx"
	"github.com/dmitrijs2005/lastping/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/lastping/internal/server/repositories/ledgerstate"
	"github.com/dmitrijs2005/lastping/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/lastping/internal/server/repositories/transfers"
)

// MemoryRepositoryManager vends process-local repositories. The DBTX handle
// is ignored; there is nothing to migrate.
type MemoryRepositoryManager struct {
	accounts      *accounts.MemoryRepository
	transfers     *transfers.MemoryRepository
	ledgerState   *ledgerstate.MemoryRepository
	refreshTokens *refreshtokens.MemoryRepository
}

func NewMemoryRepositoryManager() RepositoryManager {
	return &MemoryRepositoryManager{
		accounts:      accounts.NewMemoryRepository(),
		transfers:     transfers.NewMemoryRepository(),
		ledgerState:   ledgerstate.NewMemoryRepository(),
		refreshTokens: refreshtokens.NewMemoryRepository(),
	}
}

func (m *MemoryRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return nil
}

func (m *MemoryRepositoryManager) Accounts(db dbx.DBTX) accounts.Repository {
	return m.accounts
}

func (m *MemoryRepositoryManager) Transfers(db dbx.DBTX) transfers.Repository {
	return m.transfers
}

func (m *MemoryRepositoryManager) LedgerState(db dbx.DBTX) ledgerstate.Repository {
	return m.ledgerState
}

func (m *MemoryRepositoryManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return m.refreshTokens
}
