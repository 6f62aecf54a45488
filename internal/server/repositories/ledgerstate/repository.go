package ledgerstate

import "context"

// Repository tracks the circulating supply of the token. Supply only moves
// through AddSupply: positive deltas for mints, negative for fee burns.
type Repository interface {
	TotalSupply(ctx context.Context) (int64, error)
	AddSupply(ctx context.Context, delta int64) error
}
