package sched

import (
	"github.com/aeleos/BoringOS/kernel"
	"github.com/aeleos/BoringOS/kernel/cpu"
	"github.com/aeleos/BoringOS/kernel/proc"
	"github.com/aeleos/BoringOS/kernel/sync"
)

// idleProcessID is the reserved process id of the singleton idle PCB.
const idleProcessID ProcessID = 0

// ProcessState is the set of states a process (as opposed to one of its
// threads) may be in.
type ProcessState uint8

const (
	// Active processes may still have threads scheduled.
	Active ProcessState = iota

	// Dead processes have been killed; their remaining threads drain
	// through the normal scheduling path and are never rescheduled.
	Dead
)

// PCB is a process control block: the address space and thread bookkeeping
// shared by every thread of one process.
type PCB struct {
	addrSpace   *proc.AddressSpace
	threadCount uint16
	state       ProcessState
}

// NewPCB creates a PCB for a freshly-created process with one thread.
func NewPCB(addrSpace *proc.AddressSpace) *PCB {
	return &PCB{addrSpace: addrSpace, threadCount: 1, state: Active}
}

// idlePCB constructs the singleton PCB the idle thread(s) run under; its
// thread_count equals the CPU count, since every CPU's idle thread belongs
// to this one process.
func idlePCB() *PCB {
	return &PCB{
		addrSpace:   proc.IdleAddressSpace(),
		threadCount: uint16(cpu.NumCPUs()),
		state:       Active,
	}
}

// AddressSpace returns the process's address space.
func (p *PCB) AddressSpace() *proc.AddressSpace { return p.addrSpace }

// ThreadCount returns the number of threads currently belonging to this
// process.
func (p *PCB) ThreadCount() uint16 { return p.threadCount }

// IsDead reports whether the process has been killed.
func (p *PCB) IsDead() bool { return p.state == Dead }

// Kill marks the process Dead. The scheduler skips or evicts its threads
// at their next scheduling decision; already-running threads drain through
// the normal path.
func (p *PCB) Kill() { p.state = Dead }

// IsDroppable reports whether the PCB has no threads left and can be
// removed from PROCESS_LIST.
func (p *PCB) IsDroppable() bool { return p.threadCount == 0 }

// addThread increments the thread count, e.g. when a process spawns an
// additional thread.
func (p *PCB) addThread() { p.threadCount++ }

// removeThread decrements the thread count, called from afterContextSwitch
// when a thread belonging to this process is reclaimed.
func (p *PCB) removeThread() { p.threadCount-- }

var (
	// processListLock guards processList. It is a sleeping-equivalent
	// Mutex: callers must drop their ProcessLock before calling
	// Schedule, never hold it across a context switch.
	processListLock sync.Mutex
	processList      = map[ProcessID]*PCB{}
	nextProcessID    = idleProcessID + 1

	errNoSuchProcess = &kernel.Error{Module: "sched", Message: "no PCB registered for this process id"}
)

// registerIdlePCB installs the singleton idle PCB under idleProcessID. It
// is called once from Bootstrap, after paging is live, since idlePCB reads
// the currently-active page table root.
func registerIdlePCB() {
	processListLock.Lock()
	defer processListLock.Unlock()
	processList[idleProcessID] = idlePCB()
}

// RegisterProcess inserts pcb into PROCESS_LIST under a freshly allocated
// process id and returns it.
func RegisterProcess(pcb *PCB) ProcessID {
	processListLock.Lock()
	defer processListLock.Unlock()

	pid := nextProcessID
	nextProcessID++
	processList[pid] = pcb
	return pid
}

// ProcessLock is a held lock on one entry of the process list:
// constructing one is the only way to reach a *PCB, and dropping it
// (calling Unlock) is mandatory before the caller may yield or call
// Schedule.
type ProcessLock struct {
	pid ProcessID
	pcb *PCB
}

// LockProcess locks PROCESS_LIST and returns a ProcessLock for pid. The
// caller must call Unlock once done and before yielding.
func LockProcess(pid ProcessID) (*ProcessLock, *kernel.Error) {
	processListLock.Lock()
	pcb, ok := processList[pid]
	if !ok {
		processListLock.Unlock()
		return nil, errNoSuchProcess
	}
	return &ProcessLock{pid: pid, pcb: pcb}, nil
}

// CurrentProcess locks and returns the PCB owning the calling CPU's
// CURRENT_THREAD.
func CurrentProcess() (*ProcessLock, *kernel.Error) {
	return LockProcess(Current().PID())
}

// PCB derefs the lock to the process control block it guards.
func (l *ProcessLock) PCB() *PCB { return l.pcb }

// Unlock releases PROCESS_LIST. If the guarded PCB has become droppable
// (no threads left) and Dead, it is removed from PROCESS_LIST first.
func (l *ProcessLock) Unlock() {
	if l.pcb.IsDroppable() && l.pcb.IsDead() {
		delete(processList, l.pid)
	}
	processListLock.Unlock()
}
