package models

import (
	"time"

	"github.com/dmitrijs2005/lastping/internal/identity"
)

// Account is the per-identity custody record.
//
// Owner is immutable once created. Backup and Timeout are mutable only while
// the account is unclaimed. LastPing never decreases. Claimed flips false to
// true at most once and is never reset.
type Account struct {
	Owner     identity.Principal
	Backup    *identity.Principal
	Timeout   time.Duration
	LastPing  time.Time
	Claimed   bool
	ClaimedBy *identity.Principal
	Balance   int64
	CreatedAt time.Time
}

// Expired reports whether the liveness window has elapsed at the given
// moment. The comparison is strictly greater-than: an account whose silence
// equals the timeout exactly is still alive. The claim gate and the status
// view both go through this method so they can never disagree on the
// boundary.
func (a *Account) Expired(now time.Time) bool {
	return now.Sub(a.LastPing) > a.Timeout
}

// AccountView is the owner-facing projection of an Account returned by the
// status call. Times are in nanoseconds since the Unix epoch, durations in
// nanoseconds, matching the wire format the browser client expects.
type AccountView struct {
	Owner        identity.Principal  `json:"owner"`
	Backup       *identity.Principal `json:"backupWallet,omitempty"`
	TimeoutNs    int64               `json:"timeout"`
	LastPingNs   int64               `json:"lastPing"`
	Claimed      bool                `json:"claimed"`
	ClaimedBy    *identity.Principal `json:"claimedBy,omitempty"`
	TokenBalance int64               `json:"tokenBalance"`
	Expired      bool                `json:"expired"`
}

// View projects the account into its wire representation, evaluating the
// expiry flag at now.
func (a *Account) View(now time.Time) *AccountView {
	return &AccountView{
		Owner:        a.Owner,
		Backup:       a.Backup,
		TimeoutNs:    a.Timeout.Nanoseconds(),
		LastPingNs:   a.LastPing.UnixNano(),
		Claimed:      a.Claimed,
		ClaimedBy:    a.ClaimedBy,
		TokenBalance: a.Balance,
		Expired:      a.Expired(now),
	}
}

// Clone returns a deep copy so repository callers can mutate freely.
func (a *Account) Clone() *Account {
	c := *a
	if a.Backup != nil {
		b := *a.Backup
		c.Backup = &b
	}
	if a.ClaimedBy != nil {
		b := *a.ClaimedBy
		c.ClaimedBy = &b
	}
	return &c
}
