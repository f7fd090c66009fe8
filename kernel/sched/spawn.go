package sched

import (
	"sync/atomic"

	"github.com/aeleos/BoringOS/kernel"
	"github.com/aeleos/BoringOS/kernel/mem"
	"github.com/aeleos/BoringOS/kernel/proc"
	"github.com/aeleos/BoringOS/kernel/proc/stack"
)

var (
	nextThreadID      uint64
	nextKernelStackID uint64
)

// Spawn creates a new process with a single Ready thread at the given
// priority and pushes it onto this CPU's ready list. It is the building
// block kernel/syscall's exec handler uses.
//
// The new thread's kernel stack is carved from the fixed kernel-stack
// window; the thread runs in the kernel's own address space rather than a
// fresh one of its own. Giving every process an isolated page table needs
// an L4-clone primitive -- copy the canonical high half, leave the low
// half empty for the loader to populate. A real loader would allocate that
// table and the user segments it maps before a thread created here ever
// reaches user mode.
func Spawn(priority Priority) (ProcessID, *kernel.Error) {
	addrSpace := proc.IdleAddressSpace()

	slot := atomic.AddUint64(&nextKernelStackID, 1)
	base := mem.KernelStackAreaBase.Add(slot * mem.KernelStackOffset)

	kstack, err := stack.New(stack.FullDescending, uint64(mem.PageSize), mem.KernelStackMaxSize, base, stack.Kernel, addrSpace)
	if err != nil {
		return 0, err
	}

	pcb := NewPCB(addrSpace)
	pid := RegisterProcess(pcb)

	tid := ThreadID(atomic.AddUint64(&nextThreadID, 1))
	t := NewTCB(tid, pid, priority, kstack, nil)

	c := thisCPU()
	c.ready.Lock()
	c.ready.Push(t)
	c.ready.Unlock()

	return pid, nil
}
