package sched

// percpu holds everything the scheduler needs scoped to a single CPU: its
// ready list, its currently-running thread, the transient slot used while
// swapping contexts, and the preemption-disable depth. SMP bring-up is out
// of scope, so there is only ever one instance, for cpu 0; the type exists
// so the rest of the package reads the way it would under SMP rather than
// baking "there is only one CPU" into every call site.
type percpu struct {
	ready   readyList
	current *TCB
	old     *TCB

	preemptionDisableDepth uint32
}

var cpu0 = &percpu{}

// thisCPU returns the calling CPU's per-CPU scheduler state. With SMP
// bring-up out of scope there is only cpu0, but every caller goes through
// this indirection rather than referencing cpu0 directly.
func thisCPU() *percpu { return cpu0 }

// Current returns the thread currently running on this CPU.
func Current() *TCB { return thisCPU().current }

// disablePreemption increments this CPU's preemption-disable depth,
// returning the depth prior to the call so the caller can restore it.
func disablePreemption() uint32 {
	c := thisCPU()
	prev := c.preemptionDisableDepth
	c.preemptionDisableDepth++
	return prev
}

// restorePreemption sets this CPU's preemption-disable depth back to a
// value previously returned by disablePreemption.
func restorePreemption(prev uint32) {
	thisCPU().preemptionDisableDepth = prev
}

// enablePreemption drops this CPU's preemption-disable depth to zero.
func enablePreemption() {
	thisCPU().preemptionDisableDepth = 0
}

// preemptionDisabled reports whether this CPU currently has preemption
// disabled.
func preemptionDisabled() bool {
	return thisCPU().preemptionDisableDepth > 0
}
