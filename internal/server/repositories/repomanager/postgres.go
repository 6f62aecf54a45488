// Package repomanager provides concrete RepositoryManager implementations:
// PostgreSQL (wiring repository constructors and goose migrations) and
// in-memory (for the default standalone backend and tests).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/lastping/internal/dbx"
	"github.com/dmitrijs2005/lastping/internal/server/migrations"
	"github.com/dmitrijs2005/lastping/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/lastping/internal/server/repositories/ledgerstate"
	"github.com/dmitrijs2005/lastping/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/lastping/internal/server/repositories/transfers"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository
// implementations and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}

// Accounts returns an accounts.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Accounts(db dbx.DBTX) accounts.Repository {
	return accounts.NewPostgresRepository(db)
}

// Transfers returns a transfers.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Transfers(db dbx.DBTX) transfers.Repository {
	return transfers.NewPostgresRepository(db)
}

// LedgerState returns a ledgerstate.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) LedgerState(db dbx.DBTX) ledgerstate.Repository {
	return ledgerstate.NewPostgresRepository(db)
}

// RefreshTokens returns a refreshtokens.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return refreshtokens.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetDialect("pgx")
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}
