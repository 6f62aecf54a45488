package services

import (
	"context"
	"database/sql"
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

// AccountService manages custody accounts: registration, the liveness clock,
// succession settings, and the claim. All mutations take the owner's account
// lock for the whole read-check-write sequence; Claim takes both the owner's
// and the claimant's.
type AccountService struct {
	rm    repomanager.RepositoryManager
	db    *sql.DB
	locks *locks.AccountLocks
	now   func() time.Time
}

func NewAccountService(rm repomanager.RepositoryManager, db *sql.DB, locks *locks.AccountLocks) *AccountService {
	return &AccountService{rm: rm, db: db, locks: locks, now: time.Now}
}

// Initialize registers a custody account for owner with the default timeout,
// a fresh liveness clock, and the welcome bonus minted into its balance.
// A second call for the same owner fails with common.ErrorAlreadyExists and
// mints nothing.
func (s *AccountService) Initialize(ctx context.Context, owner identity.Principal) (*models.AccountView, error) {
	unlock := s.locks.Lock(owner)
	defer unlock()

	now := s.now()
	account := &models.Account{
		Owner:     owner,
		Timeout:   token.DefaultTimeout,
		LastPing:  now,
		Balance:   token.InitBonus,
		CreatedAt: now,
	}

	err := withTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.rm.Accounts(tx).Create(ctx, account); err != nil {
			return err
		}
		return s.rm.LedgerState(tx).AddSupply(ctx, token.InitBonus)
	})
	if err != nil {
		return nil, err
	}

	return account.View(now), nil
}

// Status returns the owner-facing view of the account, with the expiry flag
// evaluated at the current moment.
func (s *AccountService) Status(ctx context.Context, owner identity.Principal) (*models.AccountView, error) {
	account, err := s.rm.Accounts(s.db).Get(ctx, owner)
	if err != nil {
		return nil, err
	}
	return account.View(s.now()), nil
}

// Ping resets the owner's liveness clock and mints the ping reward. Pinging
// a claimed account is refused: the succession already happened and the
// clock no longer means anything.
func (s *AccountService) Ping(ctx context.Context, owner identity.Principal) (*models.AccountView, error) {
	unlock := s.locks.Lock(owner)
	defer unlock()

	now := s.now()
	var account *models.Account

	err := withTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.rm.Accounts(tx)

		var err error
		account, err = repo.Get(ctx, owner)
		if err != nil {
			return err
		}
		if account.Claimed {
			return fmt.Errorf("account already claimed: %w", common.ErrorForbidden)
		}

		if now.After(account.LastPing) {
			account.LastPing = now
		}
		account.Balance += token.PingReward

		if err := repo.Update(ctx, account); err != nil {
			return err
		}
		return s.rm.LedgerState(tx).AddSupply(ctx, token.PingReward)
	})
	if err != nil {
		return nil, err
	}

	return account.View(now), nil
}

// SetBackup designates backup as the principal allowed to claim the account
// after expiry, replacing any previous designation. Naming yourself is
// rejected, and a claimed account can no longer change its succession.
func (s *AccountService) SetBackup(ctx context.Context, owner, backup identity.Principal) error {
	if backup == owner {
		return fmt.Errorf("backup cannot be the account owner: %w", common.ErrorInvalidArgument)
	}

	unlock := s.locks.Lock(owner)
	defer unlock()

	repo := s.rm.Accounts(s.db)
	account, err := repo.Get(ctx, owner)
	if err != nil {
		return err
	}
	if account.Claimed {
		return fmt.Errorf("account already claimed: %w", common.ErrorForbidden)
	}

	account.Backup = &backup
	return repo.Update(ctx, account)
}

// SetTimeout replaces the liveness window. The new value applies to the
// existing LastPing immediately; it does not reset the clock.
func (s *AccountService) SetTimeout(ctx context.Context, owner identity.Principal, timeout time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("timeout must be positive: %w", common.ErrorInvalidArgument)
	}

	unlock := s.locks.Lock(owner)
	defer unlock()

	repo := s.rm.Accounts(s.db)
	account, err := repo.Get(ctx, owner)
	if err != nil {
		return err
	}
	if account.Claimed {
		return fmt.Errorf("account already claimed: %w", common.ErrorForbidden)
	}

	account.Timeout = timeout
	return repo.Update(ctx, account)
}

// Claim executes the succession: the caller must be the designated backup of
// an expired, unclaimed account. The whole balance is swept to the caller's
// own account, the claimed account is emptied and frozen, and the claimant
// is recorded. Exactly one of any number of concurrent claims succeeds; the
// rest see the account as already claimed.
//
// The caller must have initialized their own account first, since the swept
// balance needs somewhere to land.
func (s *AccountService) Claim(ctx context.Context, caller, owner identity.Principal) (*models.AccountView, error) {
	// checked before LockPair, which needs two distinct principals; the
	// caller can never be their own designated backup anyway
	if caller == owner {
		return nil, fmt.Errorf("caller is not the designated backup: %w", common.ErrorForbidden)
	}

	unlock := s.locks.LockPair(caller, owner)
	defer unlock()

	now := s.now()
	var claimed *models.Account

	err := withTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.rm.Accounts(tx)

		account, err := repo.Get(ctx, owner)
		if err != nil {
			return err
		}
		if account.Claimed {
			return fmt.Errorf("account already claimed: %w", common.ErrorForbidden)
		}
		if account.Backup == nil || *account.Backup != caller {
			return fmt.Errorf("caller is not the designated backup: %w", common.ErrorForbidden)
		}
		if !account.Expired(now) {
			return fmt.Errorf("liveness timeout has not expired: %w", common.ErrorPreconditionFailed)
		}

		callerAccount, err := repo.Get(ctx, caller)
		if err != nil {
			return err
		}

		swept := account.Balance
		account.Balance = 0
		account.Claimed = true
		account.ClaimedBy = &caller
		callerAccount.Balance += swept

		if err := repo.Update(ctx, account); err != nil {
			return err
		}
		if err := repo.Update(ctx, callerAccount); err != nil {
			return err
		}

		claimed = account
		return nil
	})
	if err != nil {
		return nil, err
	}

	return claimed.View(now), nil
}
