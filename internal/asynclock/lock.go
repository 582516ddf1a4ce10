// Package asynclock provides a single-slot mutual-exclusion primitive for
// operations that must never run twice concurrently (payment-return
// reconciliation, billing-portal handoff). A second attempt while the lock
// is held is dropped, not queued: the caller gets a clear "busy" signal.
package asynclock

import (
	"context"
	"sync/atomic"
)

// Lock is a try-acquire lock. The zero value is ready to use.
type Lock struct {
	busy atomic.Bool
}

// TryAcquire takes the lock if free. Returns false when it is already held.
func (l *Lock) TryAcquire() bool {
	return l.busy.CompareAndSwap(false, true)
}

// Release frees the lock. Releasing an unheld lock is a no-op.
func (l *Lock) Release() {
	l.busy.Store(false)
}

// IsLocked reports whether the lock is currently held.
func (l *Lock) IsLocked() bool {
	return l.busy.Load()
}

// RunExclusive runs fn under the lock. The lock is released on every exit
// path, including panics. The bool result is false when the lock was busy
// and fn was skipped.
func (l *Lock) RunExclusive(ctx context.Context, fn func(ctx context.Context) error) (bool, error) {
	if !l.TryAcquire() {
		return false, nil
	}
	defer l.Release()
	return true, fn(ctx)
}
