package httpapi

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/lastping/internal/identity"
	"github.com/dmitrijs2005/lastping/internal/logging"
	"github.com/dmitrijs2005/lastping/internal/server/auth"
	sc "github.com/dmitrijs2005/lastping/internal/server/config"
	"github.com/dmitrijs2005/lastping/internal/server/locks"
	"github.com/dmitrijs2005/lastping/internal/server/models"
	"github.com/dmitrijs2005/lastping/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/lastping/internal/server/services"
	"github.com/dmitrijs2005/lastping/internal/server/token"
)

const testSecret = "test-secret"

func newTestServer(t *testing.T) *Server {
	t.Helper()

	rm := repomanager.NewMemoryRepositoryManager()
	l := locks.NewAccountLocks()
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	cfg := &sc.Config{S3Bucket: "lastping-snapshots"}

	authSvc := services.NewAuthService(rm, nil, []byte(testSecret),
		15*time.Minute, 24*time.Hour, 5*time.Minute)
	accountSvc := services.NewAccountService(rm, nil, l)
	ledgerSvc := services.NewLedgerService(rm, nil, l)
	snapshotSvc := services.NewSnapshotService(rm, nil, cfg)

	return NewServer(":0", logger, authSvc, accountSvc, ledgerSvc, snapshotSvc)
}

func newPrincipal(t *testing.T) identity.Principal {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	p, err := identity.FromPublicKey(pub)
	require.NoError(t, err)
	return p
}

func accessToken(t *testing.T, p identity.Principal) string {
	t.Helper()
	tok, err := auth.GenerateToken(p.String(), []byte(testSecret), time.Minute)
	require.NoError(t, err)
	return tok
}

func doRequest(t *testing.T, srv *Server, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	return v
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t)

	rr := doRequest(t, srv, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAuthRequired(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/account"},
		{http.MethodGet, "/api/v1/account"},
		{http.MethodPost, "/api/v1/account/ping"},
		{http.MethodPut, "/api/v1/account/backup"},
		{http.MethodPut, "/api/v1/account/timeout"},
		{http.MethodPost, "/api/v1/account/claim"},
		{http.MethodPost, "/api/v1/ledger/transfer"},
		{http.MethodPost, "/api/v1/admin/snapshot"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rr := doRequest(t, srv, tt.method, tt.path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, rr.Code)

			rr = doRequest(t, srv, tt.method, tt.path, "bad-token", nil)
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
		})
	}
}

func TestInitializeAndStatus(t *testing.T) {
	srv := newTestServer(t)
	p := newPrincipal(t)
	bearer := accessToken(t, p)

	rr := doRequest(t, srv, http.MethodPost, "/api/v1/account", bearer, nil)
	require.Equal(t, http.StatusCreated, rr.Code)

	view := decodeBody[models.AccountView](t, rr)
	assert.Equal(t, p, view.Owner)
	assert.Equal(t, token.InitBonus, view.TokenBalance)

	// initializing twice conflicts
	rr = doRequest(t, srv, http.MethodPost, "/api/v1/account", bearer, nil)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = doRequest(t, srv, http.MethodGet, "/api/v1/account", bearer, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	view = decodeBody[models.AccountView](t, rr)
	assert.Equal(t, p, view.Owner)
	assert.False(t, view.Expired)
}

func TestStatusNotFound(t *testing.T) {
	srv := newTestServer(t)
	bearer := accessToken(t, newPrincipal(t))

	rr := doRequest(t, srv, http.MethodGet, "/api/v1/account", bearer, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPing(t *testing.T) {
	srv := newTestServer(t)
	p := newPrincipal(t)
	bearer := accessToken(t, p)

	rr := doRequest(t, srv, http.MethodPost, "/api/v1/account", bearer, nil)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doRequest(t, srv, http.MethodPost, "/api/v1/account/ping", bearer, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	view := decodeBody[models.AccountView](t, rr)
	assert.Equal(t, token.InitBonus+token.PingReward, view.TokenBalance)
}

func TestSetBackupAndTimeout(t *testing.T) {
	srv := newTestServer(t)
	p := newPrincipal(t)
	backup := newPrincipal(t)
	bearer := accessToken(t, p)

	rr := doRequest(t, srv, http.MethodPost, "/api/v1/account", bearer, nil)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doRequest(t, srv, http.MethodPut, "/api/v1/account/backup", bearer,
		map[string]string{"backup": backup.String()})
	assert.Equal(t, http.StatusOK, rr.Code)

	// naming yourself is rejected
	rr = doRequest(t, srv, http.MethodPut, "/api/v1/account/backup", bearer,
		map[string]string{"backup": p.String()})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doRequest(t, srv, http.MethodPut, "/api/v1/account/backup", bearer,
		map[string]string{"backup": "garbage"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// duration accepted both as a string and as nanoseconds
	rr = doRequest(t, srv, http.MethodPut, "/api/v1/account/timeout", bearer,
		map[string]string{"timeout": "72h"})
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = doRequest(t, srv, http.MethodPut, "/api/v1/account/timeout", bearer,
		map[string]int64{"timeout": (time.Hour).Nanoseconds()})
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = doRequest(t, srv, http.MethodPut, "/api/v1/account/timeout", bearer,
		map[string]string{"timeout": "-5m"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doRequest(t, srv, http.MethodGet, "/api/v1/account", bearer, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	view := decodeBody[models.AccountView](t, rr)
	require.NotNil(t, view.Backup)
	assert.Equal(t, backup, *view.Backup)
	assert.Equal(t, time.Hour.Nanoseconds(), view.TimeoutNs)
}

func TestClaimNotExpired(t *testing.T) {
	srv := newTestServer(t)
	owner := newPrincipal(t)
	backup := newPrincipal(t)
	ownerBearer := accessToken(t, owner)
	backupBearer := accessToken(t, backup)

	rr := doRequest(t, srv, http.MethodPost, "/api/v1/account", ownerBearer, nil)
	require.Equal(t, http.StatusCreated, rr.Code)
	rr = doRequest(t, srv, http.MethodPost, "/api/v1/account", backupBearer, nil)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doRequest(t, srv, http.MethodPut, "/api/v1/account/backup", ownerBearer,
		map[string]string{"backup": backup.String()})
	require.Equal(t, http.StatusOK, rr.Code)

	// the owner is still alive
	rr = doRequest(t, srv, http.MethodPost, "/api/v1/account/claim", backupBearer,
		map[string]string{"owner": owner.String()})
	assert.Equal(t, http.StatusPreconditionFailed, rr.Code)
}

func TestLedgerInfo(t *testing.T) {
	srv := newTestServer(t)
	bearer := accessToken(t, newPrincipal(t))

	rr := doRequest(t, srv, http.MethodPost, "/api/v1/account", bearer, nil)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doRequest(t, srv, http.MethodGet, "/api/v1/ledger/info", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	info := decodeBody[ledgerInfoResponse](t, rr)
	assert.Equal(t, "LastPing Token", info.Name)
	assert.Equal(t, "LPT", info.Symbol)
	assert.Equal(t, 8, info.Decimals)
	assert.Equal(t, token.Fee, info.Fee)
	assert.Equal(t, token.InitBonus, info.TotalSupply)
}

func TestBalance(t *testing.T) {
	srv := newTestServer(t)
	p := newPrincipal(t)
	bearer := accessToken(t, p)

	rr := doRequest(t, srv, http.MethodPost, "/api/v1/account", bearer, nil)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doRequest(t, srv, http.MethodGet, "/api/v1/ledger/balance/"+p.String(), "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody[map[string]int64](t, rr)
	assert.Equal(t, token.InitBonus, body["balance"])

	// unknown principals hold zero
	rr = doRequest(t, srv, http.MethodGet, "/api/v1/ledger/balance/"+newPrincipal(t).String(), "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body = decodeBody[map[string]int64](t, rr)
	assert.Zero(t, body["balance"])

	rr = doRequest(t, srv, http.MethodGet, "/api/v1/ledger/balance/garbage", "", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestTransfer(t *testing.T) {
	srv := newTestServer(t)
	from := newPrincipal(t)
	to := newPrincipal(t)
	fromBearer := accessToken(t, from)
	toBearer := accessToken(t, to)

	rr := doRequest(t, srv, http.MethodPost, "/api/v1/account", fromBearer, nil)
	require.Equal(t, http.StatusCreated, rr.Code)
	rr = doRequest(t, srv, http.MethodPost, "/api/v1/account", toBearer, nil)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doRequest(t, srv, http.MethodPost, "/api/v1/ledger/transfer", fromBearer,
		map[string]any{"to": to.String(), "amount": 500})
	require.Equal(t, http.StatusOK, rr.Code)

	resp := decodeBody[transferResponse](t, rr)
	assert.Equal(t, int64(1), resp.ID)

	rr = doRequest(t, srv, http.MethodGet, "/api/v1/ledger/balance/"+to.String(), "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody[map[string]int64](t, rr)
	assert.Equal(t, token.InitBonus+int64(500), body["balance"])

	// more than the whole balance
	rr = doRequest(t, srv, http.MethodPost, "/api/v1/ledger/transfer", fromBearer,
		map[string]any{"to": to.String(), "amount": token.InitBonus * 2})
	assert.Equal(t, http.StatusPaymentRequired, rr.Code)

	rr = doRequest(t, srv, http.MethodPost, "/api/v1/ledger/transfer", fromBearer,
		map[string]any{"to": to.String(), "amount": -1})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doRequest(t, srv, http.MethodPost, "/api/v1/ledger/transfer", fromBearer,
		map[string]any{"to": "garbage", "amount": 5})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestTransferDedupOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	from := newPrincipal(t)
	to := newPrincipal(t)
	fromBearer := accessToken(t, from)
	toBearer := accessToken(t, to)

	rr := doRequest(t, srv, http.MethodPost, "/api/v1/account", fromBearer, nil)
	require.Equal(t, http.StatusCreated, rr.Code)
	rr = doRequest(t, srv, http.MethodPost, "/api/v1/account", toBearer, nil)
	require.Equal(t, http.StatusCreated, rr.Code)

	payload := map[string]any{
		"to": to.String(), "amount": 500,
		"created_at_time": time.Now().UnixNano(),
	}

	rr = doRequest(t, srv, http.MethodPost, "/api/v1/ledger/transfer", fromBearer, payload)
	require.Equal(t, http.StatusOK, rr.Code)
	first := decodeBody[transferResponse](t, rr)

	rr = doRequest(t, srv, http.MethodPost, "/api/v1/ledger/transfer", fromBearer, payload)
	require.Equal(t, http.StatusOK, rr.Code)
	second := decodeBody[transferResponse](t, rr)

	assert.Equal(t, first.ID, second.ID)
}

func TestMalformedBody(t *testing.T) {
	srv := newTestServer(t)
	bearer := accessToken(t, newPrincipal(t))

	req := httptest.NewRequest(http.MethodPut, "/api/v1/account/backup", bytes.NewBufferString("{"))
	req.Header.Set("Authorization", "Bearer "+bearer)
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLoginFlowOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	p, err := identity.FromPublicKey(pub)
	require.NoError(t, err)

	rr := doRequest(t, srv, http.MethodPost, "/api/v1/auth/challenge", "",
		map[string]string{"principal": p.String()})
	require.Equal(t, http.StatusOK, rr.Code)

	challenge := decodeBody[challengeResponse](t, rr)
	nonce := decodeHex(t, challenge.Challenge)

	signature := ed25519.Sign(priv, nonce)

	rr = doRequest(t, srv, http.MethodPost, "/api/v1/auth/login", "",
		map[string]string{"principal": p.String(), "signature": fmt.Sprintf("%x", signature)})
	require.Equal(t, http.StatusOK, rr.Code)

	pair := decodeBody[services.TokenPair](t, rr)
	require.NotEmpty(t, pair.AccessToken)

	// the minted token works against the protected surface
	rr = doRequest(t, srv, http.MethodPost, "/api/v1/account", pair.AccessToken, nil)
	assert.Equal(t, http.StatusCreated, rr.Code)

	rr = doRequest(t, srv, http.MethodPost, "/api/v1/auth/refresh", "",
		map[string]string{"refresh_token": pair.RefreshToken})
	require.Equal(t, http.StatusOK, rr.Code)

	rotated := decodeBody[services.TokenPair](t, rr)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)
}

func decodeHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}
