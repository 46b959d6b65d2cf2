// Package ledger provides the single linearizable ledger lock shared by the
// commander, the auction manager and the tipper. Every public mutating
// operation runs as one write transaction: no two mutations interleave, and
// a failed operation returns before touching any bookkeeping. Reads run
// under the shared read lock and never mutate.
package ledger

import "sync"

// Ledger serializes all fleet state transitions.
type Ledger struct {
	mu sync.RWMutex
}

// New returns a fresh ledger.
func New() *Ledger {
	return &Ledger{}
}

// Write runs fn as one indivisible state transition.
func (l *Ledger) Write(fn func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn()
}

// Read runs fn under the shared read lock.
func (l *Ledger) Read(fn func()) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	fn()
}
