package models

import (
	"time"

	"github.com/dmitrijs2005/lastping/internal/identity"
)

// Transfer is a committed ledger movement. ID is the ledger-assigned,
// monotonically increasing transaction id returned to the caller.
type Transfer struct {
	ID            int64
	From          identity.Principal
	To            identity.Principal
	Amount        int64
	Fee           int64
	Memo          string
	CreatedAtTime *int64 // client-supplied, ns since epoch; part of the dedup key
	ExecutedAt    time.Time
}

// DedupKey identifies a logical client submission. Two submissions with the
// same key inside the dedup window are the same transaction; the second one
// must return the original id instead of executing again.
type DedupKey struct {
	From          identity.Principal
	To            identity.Principal
	Amount        int64
	Memo          string
	CreatedAtTime int64
}

// Dedupable reports whether the transfer participates in replay protection.
// Only submissions that set created_at_time do.
func (t *Transfer) Dedupable() bool {
	return t.CreatedAtTime != nil
}

// Key builds the dedup key. Call only when Dedupable is true.
func (t *Transfer) Key() DedupKey {
	return DedupKey{
		From:          t.From,
		To:            t.To,
		Amount:        t.Amount,
		Memo:          t.Memo,
		CreatedAtTime: *t.CreatedAtTime,
	}
}
