// Package common defines shared constants and sentinel errors used across
// the LastPing service layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Custody / ledger business errors.
	ErrorForbidden          = errors.New("forbidden")
	ErrorInvalidArgument    = errors.New("invalid argument")
	ErrorInsufficientFunds  = errors.New("insufficient funds")
	ErrorPreconditionFailed = errors.New("timeout not yet expired")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
