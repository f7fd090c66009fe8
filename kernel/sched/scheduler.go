package sched

import (
	"github.com/aeleos/BoringOS/kernel"
	"github.com/aeleos/BoringOS/kernel/cpu"
)

var (
	errNotBootstrapped   = &kernel.Error{Module: "sched", Message: "Bootstrap was not called before scheduling"}
	errKillIdleProcess   = &kernel.Error{Module: "sched", Message: "the idle process cannot be killed"}
	errOldThreadOccupied = &kernel.Error{Module: "sched", Message: "OLD_THREAD must be empty on entry to ScheduleNextThread"}
)

// switchContextFn and panicFn are overridden by tests; calling the real
// cpu primitives outside of ring 0 would fault.
var (
	switchContextFn = cpu.SwitchContext
	panicFn         = kernel.Panic
)

// Bootstrap installs the idle PCB and this CPU's idle TCB as
// CURRENT_THREAD. It must be called exactly once per CPU, after paging is
// live (idlePCB reads the active page table root) and before interrupts
// that might call Schedule are enabled.
func Bootstrap() {
	registerIdlePCB()
	thisCPU().current = idleTCB(0)
}

// scheduleRequestedFn raises a self-IPI at the schedule vector; it is
// wired up by kernel/irq.Init, mirroring the ptePtrFn test-seam pattern
// used throughout kernel/mem/vmm, since kernel/sched cannot import
// kernel/irq (irq sits above sched, dispatching into it).
var scheduleRequestedFn = func() {}

// SetScheduleRequester registers the function Schedule calls to raise the
// schedule-vector self-IPI.
func SetScheduleRequester(fn func()) {
	scheduleRequestedFn = fn
}

// Schedule requests a reschedule by raising a self-IPI at the schedule
// vector. The actual decision happens in ScheduleNextThread, invoked from
// that vector's handler.
func Schedule() {
	scheduleRequestedFn()
}

// ScheduleNextThread takes the scheduling decision for this CPU and, when
// a switch is warranted, performs it. It is only ever invoked from the
// schedule-vector handler, with interrupts disabled. Execution resumes on
// whatever thread gets scheduled onto this CPU next, possibly in a
// different invocation.
func ScheduleNextThread() {
	prevDepth := disablePreemption()

	// A non-zero prior depth means another context on this CPU holds the
	// preemption gate closed; dispatching over it would hand the CPU away
	// mid-critical-section.
	if prevDepth > 0 {
		restorePreemption(prevDepth)
		return
	}

	c := thisCPU()
	if c.current == nil {
		panicFn(errNotBootstrapped)
	}
	if c.old != nil {
		panicFn(errOldThreadOccupied)
	}

	c.ready.Lock()

	// Threads killed while parked on the ready list are reclaimed here
	// rather than switched into. The lock is dropped around the reclaim
	// since it takes the process-list mutex; preemption stays disabled so
	// nobody else can touch this CPU's slots in between.
	for {
		top := c.ready.Peek()
		if top == nil || !top.IsDead() {
			break
		}
		dead := c.ready.Pop()
		c.ready.Unlock()
		reclaimThread(dead)
		c.ready.Lock()
	}

	top := c.ready.Peek()
	scheduleNeeded := top != nil && (top.AtLeastAsUrgentAs(c.current) || c.current.IsDead())

	if !scheduleNeeded {
		c.ready.Unlock()
		restorePreemption(prevDepth)
		return
	}

	c.old = c.ready.Pop()
	c.ready.Unlock()

	c.old, c.current = c.current, c.old

	if !c.old.IsDead() {
		c.old.SetReady()
	}
	c.current.SetRunning()

	switchContextFn(&c.old.context.StackPointer, c.current.context.StackPointer)

	afterContextSwitch()
	restorePreemption(prevDepth)
}

// afterContextSwitch runs once execution resumes after
// cpu.SwitchContext returns on the thread that issued the switch: it
// reclaims OLD_THREAD if it died, or otherwise returns it to its CPU's
// ready list. It never frees the stack the CPU is currently running on,
// since by construction OLD_THREAD is always the thread that yielded, not
// the one now running.
func afterContextSwitch() {
	c := thisCPU()
	if c.old == nil {
		return
	}

	old := c.old
	c.old = nil

	if old.IsDead() {
		reclaimThread(old)
		return
	}

	c.ready.Lock()
	c.ready.Push(old)
	c.ready.Unlock()
}

// reclaimThread drops a dead thread's resources and decrements its
// process's thread count, dropping the PCB too if it is both Dead and now
// droppable.
func reclaimThread(t *TCB) {
	lock, err := LockProcess(t.PID())
	if err != nil {
		// The process was already fully reclaimed (e.g. the idle
		// process never dies); nothing left to do.
		return
	}
	lock.PCB().removeThread()
	lock.Unlock()
}

// Idle is the per-CPU fallback thread body: enable preemption, request a
// schedule, then halt forever. It must never return.
func Idle() {
	enablePreemption()
	Schedule()
	for {
		cpu.Halt()
	}
}

// Kill marks pid's PCB Dead and flags its threads for eviction: parked
// threads are reclaimed at the next scheduling decision, a running thread
// drains through the normal afterContextSwitch path once something else is
// scheduled over it.
func Kill(pid ProcessID) *kernel.Error {
	if pid == idleProcessID {
		return errKillIdleProcess
	}

	lock, err := LockProcess(pid)
	if err != nil {
		return err
	}
	lock.PCB().Kill()
	lock.Unlock()

	c := thisCPU()
	c.ready.Lock()
	c.ready.Walk(func(t *TCB) {
		if t.PID() == pid {
			t.Kill()
		}
	})
	c.ready.Unlock()

	if cur := c.current; cur != nil && cur.PID() == pid {
		cur.Kill()
	}

	return nil
}

// ExitCurrentThread marks the calling thread dead and requests a
// reschedule. The thread keeps running until the schedule interrupt
// arrives, at which point it is switched out for good and reclaimed from
// the successor's stack.
func ExitCurrentThread() {
	Current().Kill()
	Schedule()
}
