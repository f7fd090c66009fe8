package kmain

import (
	"github.com/aeleos/BoringOS/kernel"
	"github.com/aeleos/BoringOS/kernel/cpu"
	_ "github.com/aeleos/BoringOS/kernel/goruntime"
	"github.com/aeleos/BoringOS/kernel/hal"
	"github.com/aeleos/BoringOS/kernel/hal/multiboot"
	"github.com/aeleos/BoringOS/kernel/irq"
	"github.com/aeleos/BoringOS/kernel/kfmt"
	"github.com/aeleos/BoringOS/kernel/mem/pmm/allocator"
	"github.com/aeleos/BoringOS/kernel/mem/vmm"
	"github.com/aeleos/BoringOS/kernel/sched"
)

// scheduleTimerTicks is the LAPIC periodic timer period the scheduler's
// preemption tick runs at.
const scheduleTimerTicks = 150

var (
	errKmainReturned = &kernel.Error{Module: "kmain", Message: "Kmain returned"}
)

// Kmain is the only Go symbol that is visible (exported) from the rt0 initialization
// code. This function is invoked by the rt0 assembly code after setting up the GDT
// and setting up a a minimal g0 struct that allows Go code using the 4K stack
// allocated by the assembly code.
//
// The rt0 code passes along the magic value and info payload address the
// bootloader left behind, as well as the physical addresses for the kernel
// start/end.
//
// Kmain is not expected to return. If it does, the rt0 code will halt the CPU.
//
//go:noinline
func Kmain(bootMagic uint32, multibootInfoPtr, kernelStart, kernelEnd uintptr) {
	if multiboot.SetBootInfo(bootMagic, multibootInfoPtr) == multiboot.BootMethodUnknown {
		// Without a recognized boot protocol there is no memory map to
		// bring the kernel up from.
		for {
			cpu.Halt()
		}
	}

	hal.InitTerminal()
	hal.ActiveTerminal.Clear()
	kfmt.SetOutputSink(&kfmt.PrefixWriter{Sink: hal.ActiveTerminal, Prefix: []byte("[kernel] ")})

	var err *kernel.Error
	if err = allocator.Init(kernelStart, kernelEnd); err != nil {
		panic(err)
	} else if err = vmm.Init(); err != nil {
		panic(err)
	} else if err = irq.Init(); err != nil {
		panic(err)
	}

	// The Go runtime's allocator hooks (kernel/goruntime) are wired up by
	// that package's own init() as soon as it's linked in; importing it
	// for its side effect is all that's needed here.

	sched.Bootstrap()
	irq.StartTimer(scheduleTimerTicks)
	cpu.EnableInterrupts()
	sched.Idle()

	// Use kernel.Panic instead of panic to prevent the compiler from
	// treating kernel.Panic as dead-code and eliminating it.
	kernel.Panic(errKmainReturned)
}
