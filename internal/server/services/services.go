// Package services implements the application logic of the LastPing server:
// account custody and liveness, the LPT ledger, login challenges, and
// snapshot export. Services own the concurrency discipline; repositories
// below them only store state.
package services

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/lastping/internal/dbx"
)

// withTx runs fn inside a database transaction when a real database is
// configured. With the in-memory backend db is nil and fn runs directly;
// atomicity is then guaranteed by the per-account locks held by the caller.
func withTx(ctx context.Context, db *sql.DB, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	if db == nil {
		return fn(ctx, nil)
	}
	return dbx.WithTx(ctx, db, nil, fn)
}
