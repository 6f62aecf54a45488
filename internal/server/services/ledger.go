package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/lastping/internal/common"
	"github.com/dmitrijs2005/lastping/internal/dbx"
	"github.com/dmitrijs2005/lastping/internal/identity"
	"github.com/dmitrijs2005/lastping/internal/server/locks"
	"github.com/dmitrijs2005/lastping/internal/server/models"
	"github.com/dmitrijs2005/lastping/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/lastping/internal/server/token"
)

// LedgerService exposes the LPT token: metadata, supply, balances, and the
// transfer operation with its fee and replay protection.
type LedgerService struct {
	rm    repomanager.RepositoryManager
	db    *sql.DB
	locks *locks.AccountLocks
	now   func() time.Time
}

func NewLedgerService(rm repomanager.RepositoryManager, db *sql.DB, locks *locks.AccountLocks) *LedgerService {
	return &LedgerService{rm: rm, db: db, locks: locks, now: time.Now}
}

func (s *LedgerService) Name() string   { return token.Name }
func (s *LedgerService) Symbol() string { return token.Symbol }
func (s *LedgerService) Decimals() int  { return token.Decimals }
func (s *LedgerService) Fee() int64     { return token.Fee }

func (s *LedgerService) TotalSupply(ctx context.Context) (int64, error) {
	return s.rm.LedgerState(s.db).TotalSupply(ctx)
}

// BalanceOf returns the LPT balance held by the principal. Principals
// without a custody account hold zero.
func (s *LedgerService) BalanceOf(ctx context.Context, p identity.Principal) (int64, error) {
	account, err := s.rm.Accounts(s.db).Get(ctx, p)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return account.Balance, nil
}

// TransferRequest carries one transfer submission. Fee, Memo, and
// CreatedAtTime are optional; a submitted Fee must match the ledger fee
// exactly, and only submissions with CreatedAtTime set participate in
// replay protection.
type TransferRequest struct {
	From          identity.Principal
	To            identity.Principal
	Amount        int64
	Fee           *int64
	Memo          string
	CreatedAtTime *int64
}

// Transfer moves Amount from the caller to the recipient and burns the fee.
// It returns the ledger transaction id. A resubmission with the same dedup
// key inside the dedup window returns the original id without moving funds
// again. Claimed accounts are frozen on both sides: they can neither send
// nor receive.
func (s *LedgerService) Transfer(ctx context.Context, req *TransferRequest) (int64, error) {
	if req.Amount <= 0 {
		return 0, fmt.Errorf("amount must be positive: %w", common.ErrorInvalidArgument)
	}
	if req.From == req.To {
		return 0, fmt.Errorf("self transfer: %w", common.ErrorInvalidArgument)
	}
	if req.Fee != nil && *req.Fee != token.Fee {
		return 0, fmt.Errorf("fee must be %d: %w", token.Fee, common.ErrorInvalidArgument)
	}

	unlock := s.locks.LockPair(req.From, req.To)
	defer unlock()

	now := s.now()
	transfer := &models.Transfer{
		From:          req.From,
		To:            req.To,
		Amount:        req.Amount,
		Fee:           token.Fee,
		Memo:          req.Memo,
		CreatedAtTime: req.CreatedAtTime,
		ExecutedAt:    now,
	}

	var id int64

	err := withTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		if transfer.Dedupable() {
			prior, err := s.rm.Transfers(tx).FindDuplicate(ctx, transfer.Key(), now.Add(-token.DedupWindow))
			if err == nil {
				id = prior.ID
				return nil
			}
			if !errors.Is(err, common.ErrorNotFound) {
				return err
			}
		}

		repo := s.rm.Accounts(tx)

		from, err := repo.Get(ctx, req.From)
		if err != nil {
			return err
		}
		if from.Claimed {
			return fmt.Errorf("account already claimed: %w", common.ErrorForbidden)
		}
		to, err := repo.Get(ctx, req.To)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return fmt.Errorf("unknown recipient: %w", common.ErrorInvalidArgument)
			}
			return err
		}
		if to.Claimed {
			return fmt.Errorf("recipient account already claimed: %w", common.ErrorForbidden)
		}

		if from.Balance < req.Amount+token.Fee {
			return fmt.Errorf("balance %d below amount plus fee: %w", from.Balance, common.ErrorInsufficientFunds)
		}

		from.Balance -= req.Amount + token.Fee
		to.Balance += req.Amount

		if err := repo.Update(ctx, from); err != nil {
			return err
		}
		if err := repo.Update(ctx, to); err != nil {
			return err
		}
		if err := s.rm.LedgerState(tx).AddSupply(ctx, -token.Fee); err != nil {
			return err
		}

		id, err = s.rm.Transfers(tx).Record(ctx, transfer)
		return err
	})
	if err != nil {
		return 0, err
	}

	return id, nil
}
