package transfers

import (
	"context"
	"time"

	"github.com/dmitrijs2005/lastping/internal/server/models"
)

// Repository records committed ledger transfers and answers dedup lookups.
//
// Record assigns the transfer its id. FindDuplicate returns the most recent
// transfer with the same dedup key executed at or after cutoff, or
// common.ErrorNotFound when there is none.
type Repository interface {
	Record(ctx context.Context, transfer *models.Transfer) (int64, error)
	FindDuplicate(ctx context.Context, key models.DedupKey, cutoff time.Time) (*models.Transfer, error)
}
