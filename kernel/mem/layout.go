package mem

import "github.com/aeleos/BoringOS/kernel/addr"

// Fixed virtual layout of the kernel half of the address space. These
// constants must stay const-constructible since they are referenced before
// any runtime initialization has run (see kernel/addr's const
// constructors).
const (
	// UserStackAreaBase is the base address for per-thread user stacks.
	UserStackAreaBase = addr.VirtualAddress(0x0000_7f80_0000_0000)

	// UserStackOffset is the stride between consecutive user stack slots.
	UserStackOffset = uint64(0x40_0000)

	// UserStackMaxSize is the maximum size of a single user stack.
	UserStackMaxSize = uint64(0x20_0000)

	// DoubleFaultStackAreaBase is the base address for per-CPU double
	// fault stacks.
	DoubleFaultStackAreaBase = addr.VirtualAddress(0xffff_fd00_0000_0000)

	// DoubleFaultStackOffset is the stride between double fault stack
	// slots.
	DoubleFaultStackOffset = uint64(0x2000)

	// DoubleFaultStackMaxSize is the maximum size of a double fault stack.
	DoubleFaultStackMaxSize = uint64(0x1000)

	// HeapStart is the base address of the kernel heap.
	HeapStart = addr.VirtualAddress(0xffff_fd80_0000_0000)

	// HeapMaxSize is the amount of address space a single level-3 page
	// table can manage: 512^3 pages.
	HeapMaxSize = uint64(PageSize) * 512 * 512 * 512

	// KernelStackAreaBase is the base address for per-thread kernel
	// stacks.
	KernelStackAreaBase = addr.VirtualAddress(0xffff_fe00_0000_0000)

	// KernelStackOffset is the stride between kernel stack slots.
	KernelStackOffset = uint64(0x40_0000)

	// KernelStackMaxSize is the maximum size of a single kernel stack.
	KernelStackMaxSize = uint64(0x20_0000)

	// FinalStackTop is the stack pointer the kernel switches to once the
	// new, fully-mapped L4 table takes over from the bootstrap identity
	// mapping.
	FinalStackTop = addr.VirtualAddress(0xffff_fe80_0000_0000)

	// initramfsMapAreaStart is the base of the window the initramfs is
	// mapped into; it sits right after the area a single level-3 table
	// could address starting from the low end of the kernel half.
	initramfsMapAreaStart = addr.VirtualAddress(0xffff_8000_0000_0000) + addr.VirtualAddress(uint64(PageSize)*512*512*512)
)

// InitramfsMapAreaStart returns the base virtual address the initramfs
// window starts at.
func InitramfsMapAreaStart() addr.VirtualAddress {
	return initramfsMapAreaStart
}
