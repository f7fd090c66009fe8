package vmm

import (
	"unsafe"

	"github.com/aeleos/BoringOS/kernel"
	"github.com/aeleos/BoringOS/kernel/addr"
	"github.com/aeleos/BoringOS/kernel/mem"
	"github.com/aeleos/BoringOS/kernel/mem/pmm"
)

var (
	// frameAllocator points to the frame allocator function registered
	// via SetFrameAllocator.
	frameAllocator FrameAllocatorFn

	// nextAddrFn lets tests intercept the address of a freshly allocated
	// page table before it is cleared. In the running kernel this is a
	// no-op automatically inlined by the compiler.
	nextAddrFn = func(entryAddr addr.VirtualAddress) addr.VirtualAddress {
		return entryAddr
	}

	// flushTLBEntryFn is mocked by tests; calling the real cpu primitive
	// outside of ring 0 would fault.
	flushTLBEntryFn = flushTLBEntry

	// mapFn, mapTemporaryFn and unmapFn are indirections over Map,
	// MapTemporary and Unmap that tests can override; the compiler inlines
	// them in the running kernel.
	mapFn          = Map
	mapTemporaryFn = MapTemporary
	unmapFn        = Unmap

	errNoHugePageSupport = &kernel.Error{Module: "vmm", Message: "huge pages are not supported"}
)

// FrameAllocatorFn is a function that can allocate physical frames.
type FrameAllocatorFn func() (pmm.Frame, *kernel.Error)

// SetFrameAllocator registers the allocator function vmm uses whenever a
// new physical frame is needed to back an intermediate page table.
func SetFrameAllocator(allocFn FrameAllocatorFn) {
	frameAllocator = allocFn
}

// Map establishes a mapping between a virtual page and a physical frame
// using the currently active page directory table, allocating any missing
// intermediate page tables along the way.
func Map(page Page, frame pmm.Frame, flags PageTableEntryFlag) *kernel.Error {
	var err *kernel.Error

	walk(page.Address(), func(pteLevel uint8, pte *pageTableEntry) bool {
		if pteLevel == pageLevels-1 {
			*pte = 0
			pte.SetFrame(frame)
			pte.SetFlags(FlagPresent | flags)
			flushTLBEntryFn(page.Address())
			return true
		}

		if pte.HasFlags(FlagHugePage) {
			err = errNoHugePageSupport
			return false
		}

		if !pte.HasFlags(FlagPresent) {
			var newTableFrame pmm.Frame
			newTableFrame, err = frameAllocator()
			if err != nil {
				return false
			}

			intermediateFlags := FlagPresent | FlagRW
			if page.Address().IsUserspaceAddress() {
				intermediateFlags |= FlagUserAccessible
			}

			*pte = 0
			pte.SetFrame(newTableFrame)
			pte.SetFlags(intermediateFlags)

			nextTableAddr := addr.VirtualAddress(uintptr(unsafe.Pointer(pte)) << pageLevelBits[pteLevel+1])
			mem.Memset(uintptr(nextAddrFn(nextTableAddr)), 0, mem.PageSize)
		}

		return true
	})

	return err
}

// MapRegion reserves the next available virtual address range of the given
// size (rounded up to a page boundary) and maps it to the physical region
// starting at frame, returning the Page the region begins at.
func MapRegion(frame pmm.Frame, size mem.Size, flags PageTableEntryFlag) (Page, *kernel.Error) {
	size = (size + (mem.PageSize - 1)) &^ (mem.PageSize - 1)
	startAddr, err := EarlyReserveRegion(size)
	if err != nil {
		return 0, err
	}

	pageCount := size >> mem.PageShift
	for page := PageFromAddress(startAddr); pageCount > 0; pageCount, page, frame = pageCount-1, page+1, frame+1 {
		if err := mapFn(page, frame, flags); err != nil {
			return 0, err
		}
	}

	return PageFromAddress(startAddr), nil
}

// MapTemporary establishes a temporary RW mapping of a physical frame to a
// fixed virtual address, overwriting any previous mapping there. It is used
// to access and initialize page tables that are not part of the currently
// active PDT.
func MapTemporary(frame pmm.Frame) (Page, *kernel.Error) {
	if err := Map(PageFromAddress(tempMappingAddr), frame, FlagRW); err != nil {
		return 0, err
	}
	return PageFromAddress(tempMappingAddr), nil
}

// Unmap removes a mapping previously installed via Map or MapTemporary.
func Unmap(page Page) *kernel.Error {
	var err *kernel.Error

	walk(page.Address(), func(pteLevel uint8, pte *pageTableEntry) bool {
		if pteLevel == pageLevels-1 {
			pte.ClearFlags(FlagPresent)
			flushTLBEntryFn(page.Address())
			return true
		}

		if !pte.HasFlags(FlagPresent) {
			err = ErrInvalidMapping
			return false
		}
		if pte.HasFlags(FlagHugePage) {
			err = errNoHugePageSupport
			return false
		}
		return true
	})

	return err
}
