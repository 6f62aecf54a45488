package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/lastping/internal/identity"
	"github.com/dmitrijs2005/lastping/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, principal identity.Principal, token string, validity time.Duration) error
	Find(ctx context.Context, token string) (*models.RefreshToken, error)
	Delete(ctx context.Context, token string) error
}
