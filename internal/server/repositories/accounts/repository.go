package accounts

import (
	"context"

	"github.com/dmitrijs2005/lastping/internal/identity"
	"github.com/dmitrijs2005/lastping/internal/server/models"
)

// Repository stores custody account records keyed by owner principal.
//
// Create returns common.ErrorAlreadyExists when a record for the owner is
// already present; Get returns common.ErrorNotFound when it is absent.
type Repository interface {
	Create(ctx context.Context, account *models.Account) error
	Get(ctx context.Context, owner identity.Principal) (*models.Account, error)
	Update(ctx context.Context, account *models.Account) error
	List(ctx context.Context) ([]*models.Account, error)
}
