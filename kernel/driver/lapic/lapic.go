// Package lapic drives the local APIC: end-of-interrupt signalling, the
// task-priority register the IRQ envelope raises and restores, the
// periodic scheduler tick, and the software-raised self-IPI the schedule
// vector is delivered through. Registers are accessed through a mapped
// MMIO page, 32 bits at a time.
package lapic

import (
	"unsafe"

	"github.com/aeleos/BoringOS/kernel"
	"github.com/aeleos/BoringOS/kernel/addr"
	"github.com/aeleos/BoringOS/kernel/mem/vmm"
)

// physBase is the fixed physical address of the local APIC's MMIO page on
// every x86_64 system that hasn't been reconfigured away from it.
const physBase = addr.PhysicalAddress(0xfee0_0000)

// virtBase is where the LAPIC's MMIO page is mapped in the kernel's
// virtual address space. The fixed kernel layout doesn't reserve an MMIO
// window, so this sits in the gap between the kernel stack area and the
// final stack top, an address picked for this driver alone.
const virtBase = addr.VirtualAddress(0xffff_fe40_0000_0000)

const (
	regID                   = 0x020
	regTaskPriority         = 0x080
	regEOI                  = 0x0b0
	regSpuriousInterrupt    = 0x0f0
	regICRLow               = 0x300
	regICRHigh              = 0x310
	regLVTTimer             = 0x320
	regTimerInitialCount    = 0x380
	regTimerCurrentCount    = 0x390
	regTimerDivideConfig    = 0x3e0
)

const (
	// apicSoftwareEnable is bit 8 of the spurious-interrupt vector
	// register; setting it software-enables the APIC.
	apicSoftwareEnable = 1 << 8

	// lvtTimerPeriodic selects periodic (as opposed to one-shot) mode
	// for the LVT timer entry.
	lvtTimerPeriodic = 1 << 17

	// lvtMasked marks an LVT entry as masked (disabled).
	lvtMasked = 1 << 16

	// icrSelfShorthand addresses the issuing CPU only, used for the
	// schedule vector's self-IPI.
	icrSelfShorthand = 0b01 << 18
)

var errNotMapped = &kernel.Error{Module: "lapic", Message: "lapic.Init was not called before use"}

var mapped bool

// Init maps the LAPIC's MMIO page into the kernel address space and
// enables it via the spurious-interrupt vector register. spuriousVector is
// the interrupt vector the spurious-interrupt sink is installed at.
func Init(spuriousVector uint8) *kernel.Error {
	if !mapped {
		if err := vmm.MapPageAt(virtBase, physBase, vmm.Writable); err != nil {
			return err
		}
		mapped = true
	}

	write(regSpuriousInterrupt, uint32(spuriousVector)|apicSoftwareEnable)
	return nil
}

func reg(offset uintptr) *uint32 {
	if !mapped {
		kernel.Panic(errNotMapped)
	}
	return (*uint32)(unsafe.Pointer(uintptr(virtBase) + offset))
}

func read(offset uintptr) uint32 { return *reg(offset) }

func write(offset uintptr, v uint32) { *reg(offset) = v }

// EOI signals end-of-interrupt to the LAPIC. Must be called exactly once
// per interrupt handled through it, after the handler body runs.
func EOI() {
	write(regEOI, 0)
}

// TaskPriority returns the LAPIC's current task-priority class (bits 4-7
// of the register; sub-class bits are unused here).
func TaskPriority() uint8 {
	return uint8(read(regTaskPriority))
}

// SetTaskPriority raises or lowers the LAPIC task-priority register,
// masking interrupts at or below the given priority class.
func SetTaskPriority(tpr uint8) {
	write(regTaskPriority, uint32(tpr))
}

// SetPeriodicTimer arms the LVT timer entry to fire vector periodically
// every ticks units of the APIC timer's (unscaled) clock.
func SetPeriodicTimer(vector uint8, ticks uint32) {
	write(regTimerDivideConfig, 0b1011) // divide by 1
	write(regLVTTimer, uint32(vector)|lvtTimerPeriodic)
	write(regTimerInitialCount, ticks)
}

// DisableTimer masks the LVT timer entry.
func DisableTimer() {
	write(regLVTTimer, lvtMasked)
}

// SendSelfIPI raises a software interrupt at vector on the calling CPU,
// the mechanism kernel/sched.Schedule uses to request a reschedule.
func SendSelfIPI(vector uint8) {
	write(regICRHigh, 0)
	write(regICRLow, uint32(vector)|icrSelfShorthand)
}

// ID returns this CPU's local APIC id.
func ID() uint32 {
	return read(regID) >> 24
}
