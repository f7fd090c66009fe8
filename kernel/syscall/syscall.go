// Package syscall implements the register-based system call interface user
// code enters the kernel through. The syscall number travels in the gate's
// Info slot; arguments use RDI/RSI and the result is returned in RAX.
package syscall

import (
	"unsafe"

	"github.com/aeleos/BoringOS/kernel/addr"
	"github.com/aeleos/BoringOS/kernel/gate"
	"github.com/aeleos/BoringOS/kernel/sched"
)

// Number identifies a system call.
type Number uint64

const (
	// SysExit terminates the calling process. It does not return to user
	// space.
	SysExit Number = 1

	// SysGetPid returns the calling process's id.
	SysGetPid Number = 2

	// SysExec spawns a new process from the named image and returns its
	// non-negative process id, or a negative error code.
	SysExec Number = 3
)

// ErrorCode is the signed result domain user code sees: a non-negative
// value on success, a negative code on failure.
type ErrorCode int64

// ErrUnspecified is the single defined failure code.
const ErrUnspecified ErrorCode = -1

// Dispatch routes a syscall entry to its handler and stores the result (if
// the call has one) back into the register snapshot the gate restores on
// exit.
func Dispatch(regs *gate.Registers) {
	switch Number(regs.Info) {
	case SysExit:
		exit()
	case SysGetPid:
		regs.RAX = getPid()
	case SysExec:
		regs.RAX = uint64(exec(regs.RDI, regs.RSI))
	default:
		regs.RAX = uint64(ErrUnspecified)
	}
}

// exit marks the calling thread dead and yields. The scheduler reclaims the
// thread (and its process, once the last thread drains) on the other side
// of the context switch, so this never returns to the caller.
func exit() {
	sched.ExitCurrentThread()
}

// getPid returns the id of the process owning the calling thread.
func getPid() uint64 {
	return uint64(sched.Current().PID())
}

// exec spawns a new process from the image named by the (pointer, length)
// pair in the caller's address space. The pointer must carry at least
// pointer-size alignment and the name must be non-empty; either violation
// fails the call without touching the pointed-to memory.
func exec(namePtr, nameLen uint64) ErrorCode {
	const ptrAlignMask = uint64(unsafe.Sizeof(uintptr(0))) - 1

	if namePtr == 0 || namePtr&ptrAlignMask != 0 || nameLen == 0 {
		return ErrUnspecified
	}
	if !addr.VirtualAddress(namePtr).IsUserspaceAddress() {
		return ErrUnspecified
	}

	// The image name selects a payload from the initramfs; lookup is the
	// loader's concern. Spawning validates the request and creates the
	// process shell the loader populates.
	pid, err := sched.Spawn(sched.PriorityNormal)
	if err != nil {
		return ErrUnspecified
	}

	return ErrorCode(pid)
}
