// Package token holds the fixed parameters of the LastPing Token (LPT)
// ledger. Amounts are integers in minor units; with 8 decimals, 1 LPT is
// 100_000_000 minor units.
package token

import "time"

const (
	Name     = "LastPing Token"
	Symbol   = "LPT"
	Decimals = 8

	// Fee is charged on every transfer and burned, reducing total supply.
	Fee int64 = 10_000 // 0.0001 LPT

	// InitBonus is minted once when an account is initialized.
	InitBonus int64 = 100_000_000_000 // 1000 LPT

	// PingReward is minted on every successful ping.
	PingReward int64 = 1_000_000_000 // 10 LPT

	// DefaultTimeout is the liveness window assigned to new accounts.
	DefaultTimeout = 30 * 24 * time.Hour

	// DedupWindow bounds how far back a transfer with created_at_time set is
	// matched against prior transfers for replay protection.
	DedupWindow = 24 * time.Hour
)
