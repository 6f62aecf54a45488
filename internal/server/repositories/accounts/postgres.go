// Package accounts provides storage for custody account records: an
// in-memory implementation and a PostgreSQL one over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx).
package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/lastping/internal/common"
	"github.com/dmitrijs2005/lastping/internal/dbx"
	"github.com/dmitrijs2005/lastping/internal/identity"
	"github.com/dmitrijs2005/lastping/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const uniqueViolation = "23505"

func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (owner, backup, timeout_ns, last_ping_ns, claimed, claimed_by, balance, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		account.Owner.String(), principalText(account.Backup),
		account.Timeout.Nanoseconds(), account.LastPing.UnixNano(),
		account.Claimed, principalText(account.ClaimedBy),
		account.Balance, account.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, owner identity.Principal) (*models.Account, error) {
	query := `
		SELECT owner, backup, timeout_ns, last_ping_ns, claimed, claimed_by, balance, created_at
		FROM accounts
		WHERE owner = $1
	`
	row := r.db.QueryRowContext(ctx, query, owner.String())

	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return account, nil
}

func (r *PostgresRepository) Update(ctx context.Context, account *models.Account) error {
	query := `
		UPDATE accounts
		SET backup = $2, timeout_ns = $3, last_ping_ns = $4, claimed = $5, claimed_by = $6, balance = $7
		WHERE owner = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		account.Owner.String(), principalText(account.Backup),
		account.Timeout.Nanoseconds(), account.LastPing.UnixNano(),
		account.Claimed, principalText(account.ClaimedBy),
		account.Balance)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Account, error) {
	query := `
		SELECT owner, backup, timeout_ns, last_ping_ns, claimed, claimed_by, balance, created_at
		FROM accounts
		ORDER BY owner
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var (
		account    models.Account
		ownerText  string
		backupText sql.NullString
		timeoutNs  int64
		lastPingNs int64
		claimedBy  sql.NullString
	)

	err := row.Scan(&ownerText, &backupText, &timeoutNs, &lastPingNs,
		&account.Claimed, &claimedBy, &account.Balance, &account.CreatedAt)
	if err != nil {
		return nil, err
	}

	owner, err := identity.FromText(ownerText)
	if err != nil {
		return nil, fmt.Errorf("corrupt owner principal: %w", err)
	}
	account.Owner = owner

	if account.Backup, err = nullPrincipal(backupText); err != nil {
		return nil, fmt.Errorf("corrupt backup principal: %w", err)
	}
	if account.ClaimedBy, err = nullPrincipal(claimedBy); err != nil {
		return nil, fmt.Errorf("corrupt claimed_by principal: %w", err)
	}

	account.Timeout = nsDuration(timeoutNs)
	account.LastPing = nsTime(lastPingNs)
	return &account, nil
}

func principalText(p *identity.Principal) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: p.String(), Valid: true}
}

func nullPrincipal(s sql.NullString) (*identity.Principal, error) {
	if !s.Valid {
		return nil, nil
	}
	p, err := identity.FromText(s.String)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
