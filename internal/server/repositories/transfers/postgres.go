// Package transfers provides the transfer journal: an in-memory
// implementation and a PostgreSQL one over dbx.DBTX.
package transfers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/lastping/internal/common"
	"github.com/dmitrijs2005/lastping/internal/dbx"
	"github.com/dmitrijs2005/lastping/internal/identity"
	"github.com/dmitrijs2005/lastping/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Record(ctx context.Context, transfer *models.Transfer) (int64, error) {
	query := `
		INSERT INTO transfers (from_principal, to_principal, amount, fee, memo, created_at_time, executed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	var createdAt sql.NullInt64
	if transfer.CreatedAtTime != nil {
		createdAt = sql.NullInt64{Int64: *transfer.CreatedAtTime, Valid: true}
	}

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		transfer.From.String(), transfer.To.String(),
		transfer.Amount, transfer.Fee, transfer.Memo,
		createdAt, transfer.ExecutedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return id, nil
}

func (r *PostgresRepository) FindDuplicate(ctx context.Context, key models.DedupKey, cutoff time.Time) (*models.Transfer, error) {
	query := `
		SELECT id, from_principal, to_principal, amount, fee, memo, created_at_time, executed_at
		FROM transfers
		WHERE from_principal = $1 AND to_principal = $2 AND amount = $3 AND memo = $4
		  AND created_at_time = $5 AND executed_at >= $6
		ORDER BY id DESC
		LIMIT 1
	`
	row := r.db.QueryRowContext(ctx, query,
		key.From.String(), key.To.String(), key.Amount, key.Memo, key.CreatedAtTime, cutoff)

	var (
		transfer  models.Transfer
		fromText  string
		toText    string
		createdAt sql.NullInt64
	)
	err := row.Scan(&transfer.ID, &fromText, &toText, &transfer.Amount,
		&transfer.Fee, &transfer.Memo, &createdAt, &transfer.ExecutedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if transfer.From, err = identity.FromText(fromText); err != nil {
		return nil, fmt.Errorf("corrupt from principal: %w", err)
	}
	if transfer.To, err = identity.FromText(toText); err != nil {
		return nil, fmt.Errorf("corrupt to principal: %w", err)
	}
	if createdAt.Valid {
		v := createdAt.Int64
		transfer.CreatedAtTime = &v
	}
	return &transfer, nil
}
