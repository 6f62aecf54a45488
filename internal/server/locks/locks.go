// Package locks serializes mutating operations per account. Every account is
// an independently lockable unit: operations on different accounts proceed
// concurrently, operations on the same account run one at a time for the
// whole read-check-write sequence.
package locks

import (
	"sync"

	"github.com/dmitrijs2005/lastping/internal/identity"
)

// AccountLocks hands out one mutex per principal on demand. Mutexes are
// never evicted; the working set is bounded by the number of accounts.
type AccountLocks struct {
	mu    sync.Mutex
	locks map[identity.Principal]*sync.Mutex
}

func NewAccountLocks() *AccountLocks {
	return &AccountLocks{locks: make(map[identity.Principal]*sync.Mutex)}
}

func (l *AccountLocks) get(p identity.Principal) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.locks[p]
	if !ok {
		m = &sync.Mutex{}
		l.locks[p] = m
	}
	return m
}

// Lock acquires the account's mutex and returns the unlock function. Callers
// must release on every exit path, typically via defer.
func (l *AccountLocks) Lock(p identity.Principal) func() {
	m := l.get(p)
	m.Lock()
	return m.Unlock
}

// LockPair acquires both account mutexes in canonical principal order so two
// movements touching the same pair of accounts can never deadlock. The two
// principals must be distinct.
func (l *AccountLocks) LockPair(a, b identity.Principal) func() {
	first, second := a, b
	if second.Less(first) {
		first, second = second, first
	}

	fm := l.get(first)
	sm := l.get(second)

	fm.Lock()
	sm.Lock()

	return func() {
		sm.Unlock()
		fm.Unlock()
	}
}
