// Package sync provides the synchronization primitives used by kernel code
// that cannot rely on the Go runtime's own scheduler-aware sync package:
// a busy-waiting Spinlock for data guarded across interrupt context, and a
// sleeping-equivalent Mutex for data that may be held across a yield point.
package sync

import "sync/atomic"

// Spinlock implements a lock where each CPU trying to acquire it busy-waits
// until the lock becomes available. It is safe to use from interrupt
// context. Re-acquiring a lock already held by the current CPU deadlocks.
type Spinlock struct {
	state uint32
}

// Acquire blocks until the lock can be acquired.
func (l *Spinlock) Acquire() {
	for !l.TryAcquire() {
		pause()
	}
}

// TryAcquire attempts to acquire the lock without blocking, returning true
// on success.
func (l *Spinlock) TryAcquire() bool {
	return atomic.SwapUint32(&l.state, 1) == 0
}

// Release relinquishes a held lock. Calling Release while the lock is free
// has no effect.
func (l *Spinlock) Release() {
	atomic.StoreUint32(&l.state, 0)
}

// pause runs between acquisition attempts. It defaults to a no-op and is
// only replaced through SetPauseFn, which no kernel code calls.
var pause = func() {}

// SetPauseFn registers the architecture-specific instruction the spinlock
// busy-wait loop executes between acquisition attempts (e.g. PAUSE on
// amd64). Tests never call this, so the default no-op keeps them fast.
func SetPauseFn(fn func()) {
	pause = fn
}
