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

// RepositoryManager vends repository implementations bound to a database
// handle. Services pass their *sql.DB for plain calls or a *sql.Tx when a
// sequence has to commit atomically. The in-memory manager ignores the
// handle.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Transfers(db dbx.DBTX) transfers.Repository
	LedgerState(db dbx.DBTX) ledgerstate.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
