// Package gate owns the raw IDT: register snapshots, interrupt/exception/
// IRQ vector numbers and the low-level handler registration API backed by
// arch-specific assembly stubs. kernel/irq layers typed exception/IRQ
// handlers and the envelope logic on top of this package.
package gate

import (
	"github.com/aeleos/BoringOS/kernel/kfmt"
	"io"
)

// Registers contains a snapshot of all register values when an exception,
// interrupt or syscall occurs.
type Registers struct {
	RAX uint64
	RBX uint64
	RCX uint64
	RDX uint64
	RSI uint64
	RDI uint64
	RBP uint64
	R8  uint64
	R9  uint64
	R10 uint64
	R11 uint64
	R12 uint64
	R13 uint64
	R14 uint64
	R15 uint64

	// Info contains the exception code for exceptions, the syscall number
	// for syscall entries or the IRQ number for HW interrupts.
	Info uint64

	// The return frame used by IRETQ
	RIP    uint64
	CS     uint64
	RFlags uint64
	RSP    uint64
	SS     uint64
}

// DumpTo outputs the register contents to w.
func (r *Registers) DumpTo(w io.Writer) {
	kfmt.Fprintf(w, "RAX = %16x RBX = %16x\n", r.RAX, r.RBX)
	kfmt.Fprintf(w, "RCX = %16x RDX = %16x\n", r.RCX, r.RDX)
	kfmt.Fprintf(w, "RSI = %16x RDI = %16x\n", r.RSI, r.RDI)
	kfmt.Fprintf(w, "RBP = %16x\n", r.RBP)
	kfmt.Fprintf(w, "R8  = %16x R9  = %16x\n", r.R8, r.R9)
	kfmt.Fprintf(w, "R10 = %16x R11 = %16x\n", r.R10, r.R11)
	kfmt.Fprintf(w, "R12 = %16x R13 = %16x\n", r.R12, r.R13)
	kfmt.Fprintf(w, "R14 = %16x R15 = %16x\n", r.R14, r.R15)
	kfmt.Fprintf(w, "\n")
	kfmt.Fprintf(w, "RIP = %16x CS  = %16x\n", r.RIP, r.CS)
	kfmt.Fprintf(w, "RSP = %16x SS  = %16x\n", r.RSP, r.SS)
	kfmt.Fprintf(w, "RFL = %16x\n", r.RFlags)
}

// InterruptNumber describes an x86 interrupt/exception/trap/IRQ slot.
type InterruptNumber uint8

const (
	// DivideByZero occurs when dividing any number by 0 using the DIV or
	// IDIV instruction.
	DivideByZero = InterruptNumber(0)

	// Breakpoint is raised by the INT3 instruction.
	Breakpoint = InterruptNumber(3)

	// NMI (non-maskable-interrupt) is a hardware interrupt that indicates
	// issues with RAM or unrecoverable hardware problems.
	NMI = InterruptNumber(2)

	// GPFException occurs when a general protection fault occurs.
	GPFException = InterruptNumber(13)

	// PageFaultException occurs when a page directory table (PDT) or one
	// of its entries is not present or when a privilege and/or RW
	// protection check fails.
	PageFaultException = InterruptNumber(14)

	// DoubleFault occurs when an unhandled exception occurs or when an
	// exception occurs within a running exception handler.
	DoubleFault = InterruptNumber(8)
)

// Hardware and software-raised vectors used by kernel/irq. Remapped past
// the 32 reserved CPU exception vectors, the conventional PIC/APIC
// placement.
const (
	// LAPICTimerVector fires on every periodic LAPIC timer tick.
	LAPICTimerVector = InterruptNumber(32)

	// KeyboardVector is IRQ1, the PS/2 keyboard controller.
	KeyboardVector = InterruptNumber(33)

	// SyscallVector is the software interrupt user code raises to enter
	// the kernel. Its IDT entry carries a user-reachable privilege level,
	// unlike every other gate.
	SyscallVector = InterruptNumber(0x40)

	// ScheduleVector is the software-raised self-IPI kernel/sched.Schedule
	// issues to request a reschedule. Its IDT entry must clear IF: the
	// schedule vector runs with interrupts disabled, start to finish.
	ScheduleVector = InterruptNumber(0x50)

	// SpuriousVector catches spurious LAPIC interrupts; its handler does
	// nothing but must not send an EOI.
	SpuriousVector = InterruptNumber(0xff)
)

// Init runs the appropriate CPU-specific initialization code for enabling
// support for interrupt handling.
func Init() {
	installIDT()
}

// HandleInterrupt ensures that the provided handler will be invoked when a
// particular interrupt number occurs. The value of the istOffset argument
// specifies the offset in the interrupt stack table (if 0 then IST is not
// used). clearIF controls whether the IDT gate clears the interrupt flag
// on entry (true for a trap/interrupt gate that must not nest further
// interrupts, as the schedule vector requires).
func HandleInterrupt(intNumber InterruptNumber, istOffset uint8, clearIF bool, handler func(*Registers))

// installIDT populates idtDescriptor with the address of IDT and loads it to
// the CPU. All gate entries are initially marked as non-present and must be
// explicitly enabled via a call to HandleInterrupt.
func installIDT()

// dispatchInterrupt is invoked by the interrupt gate entrypoints to route
// an incoming interrupt to the selected handler.
func dispatchInterrupt()

// interruptGateEntries contains a list of generated entries for each
// possible interrupt number.
func interruptGateEntries()
