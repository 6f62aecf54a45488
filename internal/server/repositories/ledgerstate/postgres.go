// Package ledgerstate stores the single-row ledger bookkeeping record
// (circulating token supply).
package ledgerstate

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/lastping/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) TotalSupply(ctx context.Context) (int64, error) {
	query := `
		SELECT total_supply FROM ledger_state WHERE id = 1
	`
	var supply int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&supply); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return supply, nil
}

func (r *PostgresRepository) AddSupply(ctx context.Context, delta int64) error {
	query := `
		UPDATE ledger_state SET total_supply = total_supply + $1 WHERE id = 1
	`
	if _, err := r.db.ExecContext(ctx, query, delta); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
