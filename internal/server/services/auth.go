package services

import (
	"context"
	"crypto/ed25519"
	"database/sql"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/lastping/internal/common"
	"github.com/dmitrijs2005/lastping/internal/dbx"
	"github.com/dmitrijs2005/lastping/internal/identity"
	"github.com/dmitrijs2005/lastping/internal/server/auth"
	"github.com/dmitrijs2005/lastping/internal/server/repositories/repomanager"
)

const challengeSize = 32

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type challenge struct {
	nonce   []byte
	expires time.Time
}

// AuthService authenticates callers by possession of their principal's
// ed25519 key: the caller requests a one-time nonce, signs it, and exchanges
// the signature for a JWT access token plus a rotating refresh token.
// Challenges are single-use and expire; they live in memory only, so a
// restart simply forces a new challenge.
type AuthService struct {
	rm                           repomanager.RepositoryManager
	db                           *sql.DB
	secretKey                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	challengeValidityDuration    time.Duration

	mu         sync.Mutex
	challenges map[identity.Principal]challenge

	now func() time.Time
}

func NewAuthService(rm repomanager.RepositoryManager, db *sql.DB, secretKey []byte,
	accessValidity, refreshValidity, challengeValidity time.Duration) *AuthService {
	return &AuthService{
		rm:                           rm,
		db:                           db,
		secretKey:                    secretKey,
		accessTokenValidityDuration:  accessValidity,
		refreshTokenValidityDuration: refreshValidity,
		challengeValidityDuration:    challengeValidity,
		challenges:                   make(map[identity.Principal]challenge),
		now:                          time.Now,
	}
}

// Challenge issues a fresh login nonce for the principal, replacing any
// outstanding one, and returns it hex-encoded.
func (s *AuthService) Challenge(ctx context.Context, principalText string) (string, error) {
	p, err := identity.FromText(principalText)
	if err != nil {
		return "", fmt.Errorf("%s: %w", err, common.ErrorInvalidArgument)
	}

	nonce := common.GenerateRandByteArray(challengeSize)
	now := s.now()

	s.mu.Lock()
	s.sweepExpired(now)
	s.challenges[p] = challenge{nonce: nonce, expires: now.Add(s.challengeValidityDuration)}
	s.mu.Unlock()

	return hex.EncodeToString(nonce), nil
}

// sweepExpired drops abandoned challenges so the map stays bounded by the
// number of principals with a live login attempt. Caller holds s.mu.
func (s *AuthService) sweepExpired(now time.Time) {
	for p, ch := range s.challenges {
		if now.After(ch.expires) {
			delete(s.challenges, p)
		}
	}
}

// Login verifies the hex-encoded ed25519 signature over the outstanding
// challenge nonce and, on success, consumes the challenge and mints a token
// pair. The public key is recovered from the principal itself, so no key
// registration step is needed.
func (s *AuthService) Login(ctx context.Context, principalText, signatureHex string) (*TokenPair, error) {
	p, err := identity.FromText(principalText)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", err, common.ErrorInvalidArgument)
	}

	signature, err := hex.DecodeString(signatureHex)
	if err != nil {
		return nil, fmt.Errorf("malformed signature: %w", common.ErrorInvalidArgument)
	}

	s.mu.Lock()
	ch, ok := s.challenges[p]
	delete(s.challenges, p)
	s.mu.Unlock()

	if !ok || s.now().After(ch.expires) {
		return nil, fmt.Errorf("no valid challenge outstanding: %w", common.ErrorUnauthorized)
	}

	if !ed25519.Verify(p.PublicKey(), ch.nonce, signature) {
		return nil, fmt.Errorf("signature verification failed: %w", common.ErrorUnauthorized)
	}

	return s.issueTokenPair(ctx, p)
}

// RefreshToken rotates the refresh token: the presented token is deleted and
// a new pair is minted. An unknown or expired token fails with
// common.ErrRefreshTokenExpired, forcing a new login.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var principal identity.Principal

	err := withTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.rm.RefreshTokens(tx)

		stored, err := repo.Find(ctx, refreshToken)
		if err != nil {
			return common.ErrRefreshTokenExpired
		}
		if err := repo.Delete(ctx, refreshToken); err != nil {
			return err
		}
		if s.now().After(stored.Expires) {
			return common.ErrRefreshTokenExpired
		}

		principal = stored.Principal
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.issueTokenPair(ctx, principal)
}

// VerifyAccessToken checks the JWT and returns the caller's principal.
func (s *AuthService) VerifyAccessToken(tokenString string) (identity.Principal, error) {
	principalText, err := auth.GetPrincipalFromToken(tokenString, s.secretKey)
	if err != nil {
		return identity.Principal{}, err
	}

	p, err := identity.FromText(principalText)
	if err != nil {
		return identity.Principal{}, common.ErrInvalidToken
	}
	return p, nil
}

func (s *AuthService) issueTokenPair(ctx context.Context, p identity.Principal) (*TokenPair, error) {
	accessToken, err := auth.GenerateToken(p.String(), s.secretKey, s.accessTokenValidityDuration)
	if err != nil {
		return nil, err
	}

	refreshToken, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, err
	}

	err = s.rm.RefreshTokens(s.db).Create(ctx, p, refreshToken, s.refreshTokenValidityDuration)
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
