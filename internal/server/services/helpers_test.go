package services

import (
	"crypto/ed25519"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/lastping/internal/identity"
	"github.com/dmitrijs2005/lastping/internal/server/locks"
	"github.com/dmitrijs2005/lastping/internal/server/repositories/repomanager"
)

func newTestPrincipal(t *testing.T) identity.Principal {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	p, err := identity.FromPublicKey(pub)
	require.NoError(t, err)
	return p
}

func newTestPrincipalWithKey(t *testing.T) (identity.Principal, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	p, err := identity.FromPublicKey(pub)
	require.NoError(t, err)
	return p, priv
}

// newTestServices wires account and ledger services over a shared in-memory
// backend and a controllable clock.
func newTestServices(t *testing.T) (*AccountService, *LedgerService, *time.Time) {
	t.Helper()

	rm := repomanager.NewMemoryRepositoryManager()
	l := locks.NewAccountLocks()

	now := time.Now()
	clock := func() time.Time { return now }

	accountSvc := NewAccountService(rm, nil, l)
	accountSvc.now = clock

	ledgerSvc := NewLedgerService(rm, nil, l)
	ledgerSvc.now = clock

	return accountSvc, ledgerSvc, &now
}
