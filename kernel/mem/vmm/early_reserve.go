package vmm

import (
	"github.com/aeleos/BoringOS/kernel"
	"github.com/aeleos/BoringOS/kernel/addr"
	"github.com/aeleos/BoringOS/kernel/mem"
)

var (
	// earlyReserveLastUsed tracks the last reserved virtual address and is
	// decreased after each reservation. It starts at tempMappingAddr, which
	// sits at the very end of the kernel's virtual address space.
	earlyReserveLastUsed = tempMappingAddr

	errEarlyReserveNoSpace = &kernel.Error{Module: "vmm", Message: "remaining virtual address space not large enough to satisfy reservation request"}
)

// EarlyReserveRegion reserves a page-aligned contiguous virtual address
// range of the requested size (rounded up to a page boundary) and returns
// its start address. Regions are handed out back-to-back, starting at the
// top of the kernel's address space and growing downward; nothing is ever
// released. It is meant for the boot-time callers that need virtual space
// before the real allocator (kernel/goruntime, early page mappings) exists.
func EarlyReserveRegion(size mem.Size) (addr.VirtualAddress, *kernel.Error) {
	size = (size + (mem.PageSize - 1)) &^ (mem.PageSize - 1)

	if uint64(size) > uint64(earlyReserveLastUsed) {
		return 0, errEarlyReserveNoSpace
	}

	earlyReserveLastUsed -= addr.VirtualAddress(size)
	return earlyReserveLastUsed, nil
}
