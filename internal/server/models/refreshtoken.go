package models

import (
	"time"

	"github.com/dmitrijs2005/lastping/internal/identity"
)

type RefreshToken struct {
	Principal identity.Principal
	Token     string
	Expires   time.Time
	CreatedAt time.Time
}
