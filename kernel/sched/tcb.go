// Package sched implements the process/thread control blocks, the global
// process registry and the per-CPU preemptive scheduler.
package sched

import (
	"github.com/aeleos/BoringOS/kernel/proc/stack"
)

// ThreadID uniquely identifies a thread within its process.
type ThreadID uint64

// ProcessID uniquely identifies a process.
type ProcessID uint64

// ThreadState is the set of states a thread may be in.
//
//go:generate go run golang.org/x/tools/cmd/stringer -type ThreadState -output threadstate_string.go
type ThreadState uint8

const (
	// Ready threads are runnable and sit on a READY_LIST.
	Ready ThreadState = iota

	// Running is the state of whichever thread currently occupies
	// CURRENT_THREAD on its CPU.
	Running

	// Dead threads will never run again; a parked one is reclaimed when
	// ScheduleNextThread finds it at the top of READY_LIST, a running one
	// in afterContextSwitch once something else is switched in.
	Dead

	// Blocked threads are neither ready nor running and do not appear
	// on any READY_LIST.
	Blocked
)

// Context is the architecture-specific register state saved across a
// context switch. Only the stack pointer is tracked here: cpu.SwitchContext
// pushes/pops the callee-saved registers itself, so the Go side only needs
// to remember where they ended up.
type Context struct {
	StackPointer uintptr
}

// Priority is a thread's scheduling priority. Larger values run first;
// equal priorities rotate (see TCB.AtLeastAsUrgentAs).
type Priority uint8

const (
	// PriorityIdle is reserved for the per-CPU idle thread: it never
	// outranks a real thread and is only ever chosen when READY_LIST is
	// empty.
	PriorityIdle Priority = 0

	// PriorityNormal is the default priority assigned to new threads.
	PriorityNormal Priority = 10
)

// TCB is a thread control block: everything the scheduler needs to track
// and resume one thread of execution.
type TCB struct {
	id       ThreadID
	pid      ProcessID
	priority Priority
	state    ThreadState
	context  Context

	kernelStack *stack.Stack
	userStack   *stack.Stack // nil for kernel-only threads
}

// NewTCB creates a Ready TCB for pid, with the given priority and stacks.
// userStack may be nil for a kernel thread.
func NewTCB(id ThreadID, pid ProcessID, priority Priority, kernelStack, userStack *stack.Stack) *TCB {
	return &TCB{
		id:          id,
		pid:         pid,
		priority:    priority,
		state:       Ready,
		kernelStack: kernelStack,
		userStack:   userStack,
	}
}

// ID returns the thread's id.
func (t *TCB) ID() ThreadID { return t.id }

// PID returns the id of the process this thread belongs to.
func (t *TCB) PID() ProcessID { return t.pid }

// Priority returns the thread's scheduling priority.
func (t *TCB) Priority() Priority { return t.priority }

// State returns the thread's current state.
func (t *TCB) State() ThreadState { return t.state }

// IsDead reports whether the thread is Dead.
func (t *TCB) IsDead() bool { return t.state == Dead }

// SetReady marks the thread Ready.
func (t *TCB) SetReady() { t.state = Ready }

// SetRunning marks the thread Running.
func (t *TCB) SetRunning() { t.state = Running }

// Kill marks the thread Dead; it is never switched into again and is
// reclaimed as described for the Dead state.
func (t *TCB) Kill() { t.state = Dead }

// KernelStack returns the thread's kernel stack.
func (t *TCB) KernelStack() *stack.Stack { return t.kernelStack }

// UserStack returns the thread's user stack, or nil for a kernel thread.
func (t *TCB) UserStack() *stack.Stack { return t.userStack }

// Context returns a pointer to the thread's saved architectural context,
// for cpu.SwitchContext to read and write.
func (t *TCB) Context() *Context { return &t.context }

// Less orders TCBs by (priority desc, id asc), the composite ordering
// READY_LIST is heapified by: it lets the ready heap always yield the
// highest-priority ready thread, falling back to thread id to give
// same-priority threads a stable, deterministic pop order.
func (t *TCB) Less(other *TCB) bool {
	if t.priority != other.priority {
		return t.priority > other.priority
	}
	return t.id < other.id
}

// AtLeastAsUrgentAs implements the scheduler's "top >= CURRENT_THREAD"
// fairness check: equal-priority threads preempt, which is why this
// compares priority alone rather than the full (priority, id) heap
// ordering Less uses.
func (t *TCB) AtLeastAsUrgentAs(other *TCB) bool {
	return t.priority >= other.priority
}

// idleTCB constructs the per-CPU idle thread's TCB. cpuID distinguishes
// idle threads on different CPUs once SMP bring-up exists; today there is
// only ever cpu 0.
func idleTCB(cpuID int) *TCB {
	return &TCB{
		id:       ThreadID(cpuID),
		pid:      idleProcessID,
		priority: PriorityIdle,
		state:    Running,
	}
}
