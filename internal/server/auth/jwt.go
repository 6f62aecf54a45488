// Package auth mints and verifies the JWT access tokens that carry the
// authenticated caller's principal.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/lastping/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims extends the registered claims with the caller's principal in its
// canonical textual form.
type Claims struct {
	jwt.RegisteredClaims
	Principal string
}

// GenerateToken signs an HS256 access token for principalText valid for
// validityDuration.
func GenerateToken(principalText string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		Principal: principalText,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetPrincipalFromToken verifies the token signature and expiry and returns
// the embedded principal text. Expired tokens yield common.ErrTokenExpired,
// any other verification failure common.ErrInvalidToken.
func GetPrincipalFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid {
		return "", common.ErrInvalidToken
	}

	return claims.Principal, nil
}
