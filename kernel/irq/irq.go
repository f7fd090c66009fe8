// Package irq layers typed exception and device-IRQ handling on top of
// kernel/gate's raw IDT plumbing, and owns the device-IRQ envelope: raise
// the LAPIC task priority to mask further device IRQs, re-enable
// interrupts for nested scheduling, run the handler, disable interrupts,
// signal EOI, restore the prior priority.
package irq

import (
	"github.com/aeleos/BoringOS/kernel"
	"github.com/aeleos/BoringOS/kernel/cpu"
	"github.com/aeleos/BoringOS/kernel/driver/lapic"
	"github.com/aeleos/BoringOS/kernel/gate"
	"github.com/aeleos/BoringOS/kernel/hal"
	"github.com/aeleos/BoringOS/kernel/kfmt/early"
	"github.com/aeleos/BoringOS/kernel/sched"
	"github.com/aeleos/BoringOS/kernel/syscall"
)

// ExceptionHandler handles an exception that pushes no error code.
type ExceptionHandler func(*gate.Registers)

// ExceptionHandlerWithCode handles an exception that pushes an error code;
// the code is read from Registers.Info and passed as a separate argument.
type ExceptionHandlerWithCode func(code uint64, regs *gate.Registers)

// deviceIRQTaskPriority is the LAPIC task-priority class device IRQs are
// masked at while one is being serviced.
const deviceIRQTaskPriority = 0x20

var errUnrecoverableFault = &kernel.Error{Module: "irq", Message: "unrecoverable fault, halting"}

// Init installs the IDT: the diagnostic exception handlers, the LAPIC
// timer and keyboard IRQs (under the envelope), the software-raised
// schedule vector, and the spurious-interrupt sink. It maps the LAPIC's
// MMIO page and registers kernel/sched's schedule requester so
// kernel/sched.Schedule can raise the self-IPI without importing this
// package. Must be called after paging is live and before interrupts are
// enabled.
func Init() *kernel.Error {
	gate.Init()

	if err := lapic.Init(uint8(gate.SpuriousVector)); err != nil {
		return err
	}

	HandleException(gate.DivideByZero, diagnosticHandler("divide-by-zero"))
	HandleException(gate.Breakpoint, diagnosticHandler("breakpoint"))
	HandleExceptionWithCode(gate.PageFaultException, pageFaultHandler)

	// The double-fault handler runs on its own interrupt-stack-table slot
	// so a corrupted kernel stack cannot take the diagnostics down with
	// it.
	gate.HandleInterrupt(gate.DoubleFault, 1, true, diagnosticHandler("double-fault"))

	gate.HandleInterrupt(gate.LAPICTimerVector, 0, false, envelope(timerTick))
	gate.HandleInterrupt(gate.KeyboardVector, 0, false, envelope(keyboardTick))

	// The schedule vector runs with interrupts disabled throughout: its
	// IDT entry clears IF and the handler never re-enables them. EOI is
	// signalled immediately, before the context switch, since execution
	// may resume this handler's epilogue on a different thread's stack.
	gate.HandleInterrupt(gate.ScheduleVector, 0, true, scheduleHandler)

	// Syscall entries arrive via a software interrupt gate reachable from
	// user mode; no EOI is involved and the handler may be preempted by
	// the schedule vector like any other kernel code.
	gate.HandleInterrupt(gate.SyscallVector, 0, false, syscall.Dispatch)

	gate.HandleInterrupt(gate.SpuriousVector, 0, false, func(*gate.Registers) {})

	sched.SetScheduleRequester(func() {
		lapic.SendSelfIPI(uint8(gate.ScheduleVector))
	})

	return nil
}

// HandleException registers handler for an exception that pushes no error
// code.
func HandleException(num gate.InterruptNumber, handler ExceptionHandler) {
	gate.HandleInterrupt(num, 0, false, func(r *gate.Registers) { handler(r) })
}

// HandleExceptionWithCode registers handler for an exception that pushes
// an error code, read from Registers.Info.
func HandleExceptionWithCode(num gate.InterruptNumber, handler ExceptionHandlerWithCode) {
	gate.HandleInterrupt(num, 0, false, func(r *gate.Registers) { handler(r.Info, r) })
}

// StartTimer arms the LAPIC's periodic timer to fire the schedule-driving
// tick every ticks units (kernel/kmain passes the default period of 150).
func StartTimer(ticks uint32) {
	lapic.SetPeriodicTimer(uint8(gate.LAPICTimerVector), ticks)
}

// envelope wraps a device-IRQ handler body with the mask/unmask and EOI
// sequence.
func envelope(handler func(*gate.Registers)) func(*gate.Registers) {
	return func(r *gate.Registers) {
		prior := lapic.TaskPriority()
		lapic.SetTaskPriority(deviceIRQTaskPriority)

		cpu.EnableInterrupts()
		handler(r)
		cpu.DisableInterrupts()

		lapic.EOI()
		lapic.SetTaskPriority(prior)
	}
}

func timerTick(*gate.Registers) {
	sched.Schedule()
}

func keyboardTick(*gate.Registers) {
	// Device driver for PS/2 scancodes is out of scope; the envelope
	// still drains the interrupt so the controller doesn't stay masked.
}

// scheduleHandler services the schedule vector: EOI first (since the
// context switch inside ScheduleNextThread may not return to this call
// frame until a later invocation on this CPU), then run the scheduler.
func scheduleHandler(*gate.Registers) {
	lapic.EOI()
	sched.ScheduleNextThread()
}

func diagnosticHandler(name string) ExceptionHandler {
	return func(r *gate.Registers) {
		early.Printf("\n[irq] %s exception\n", name)
		r.DumpTo(hal.ActiveTerminal)
		kernel.Panic(errUnrecoverableFault)
	}
}

// pageFaultHandler is reserved for future demand paging; today it
// diagnoses and halts.
func pageFaultHandler(code uint64, r *gate.Registers) {
	early.Printf("\n[irq] page fault, code=%x\n", code)
	r.DumpTo(hal.ActiveTerminal)
	kernel.Panic(errUnrecoverableFault)
}
