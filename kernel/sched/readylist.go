package sched

import (
	"container/heap"

	"github.com/aeleos/BoringOS/kernel/sync"
)

// readyHeap implements container/heap.Interface over *TCB using TCB.Less,
// so Pop always yields the highest-priority ready thread (ties broken by
// thread id).
type readyHeap []*TCB

func (h readyHeap) Len() int            { return len(h) }
func (h readyHeap) Less(i, j int) bool  { return h[i].Less(h[j]) }
func (h readyHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *readyHeap) Push(x interface{}) { *h = append(*h, x.(*TCB)) }
func (h *readyHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// readyList is READY_LIST: a priority heap of runnable TCBs, guarded by a
// spinlock since it may be touched from interrupt context.
type readyList struct {
	lock sync.Spinlock
	heap readyHeap
}

// Lock acquires the ready list's spinlock. Callers must call Unlock.
func (r *readyList) Lock() { r.lock.Acquire() }

// Unlock releases the ready list's spinlock.
func (r *readyList) Unlock() { r.lock.Release() }

// Peek returns the highest-priority ready thread without removing it, or
// nil if the list is empty. The caller must hold the lock.
func (r *readyList) Peek() *TCB {
	if len(r.heap) == 0 {
		return nil
	}
	return r.heap[0]
}

// Pop removes and returns the highest-priority ready thread. The caller
// must hold the lock and must have already checked Peek is non-nil.
func (r *readyList) Pop() *TCB {
	return heap.Pop(&r.heap).(*TCB)
}

// Push inserts t into the ready list. The caller must hold the lock.
func (r *readyList) Push(t *TCB) {
	heap.Push(&r.heap, t)
}

// Walk invokes fn for every queued thread, in no particular order. The
// caller must hold the lock; fn must not change any TCB field the heap
// ordering depends on.
func (r *readyList) Walk(fn func(*TCB)) {
	for _, t := range r.heap {
		fn(t)
	}
}
