package sync

import "testing"

func TestSpinlockMutualExclusion(t *testing.T) {
	var l Spinlock

	if !l.TryAcquire() {
		t.Fatal("expected first TryAcquire to succeed")
	}
	if l.TryAcquire() {
		t.Fatal("expected second TryAcquire to fail while held")
	}

	l.Release()

	if !l.TryAcquire() {
		t.Fatal("expected TryAcquire to succeed after Release")
	}
	l.Release()
}

func TestSpinlockAcquireBlocksUntilReleased(t *testing.T) {
	var l Spinlock
	l.Acquire()

	released := make(chan struct{})
	acquired := make(chan struct{})
	go func() {
		l.Acquire()
		close(acquired)
	}()

	go func() {
		l.Release()
		close(released)
	}()

	<-released
	<-acquired
}

func TestMutexLockUnlock(t *testing.T) {
	var m Mutex
	m.Lock()
	m.Unlock()
	m.Lock()
	m.Unlock()
}
