package vmm

import (
	"github.com/aeleos/BoringOS/kernel"
	"github.com/aeleos/BoringOS/kernel/addr"
	"github.com/aeleos/BoringOS/kernel/mem"
	"github.com/aeleos/BoringOS/kernel/mem/pmm"
)

// ErrAlreadyMapped is returned by MapPage/MapPageAt when the target virtual
// address already has a present mapping.
var ErrAlreadyMapped = &kernel.Error{Module: "vmm", Message: "virtual address is already mapped"}

var (
	// frameFreerFn releases a frame back to the physical allocator. It is
	// wired up by kernel/mem/pmm/allocator.Init once the bitmap allocator
	// takes over from the early bump allocator, the same way
	// frameAllocator is.
	frameFreerFn func(pmm.Frame)

	// freeFrameCountFn reports the number of unreserved physical frames,
	// backing GetFreeMemorySize.
	freeFrameCountFn func() uint64
)

// SetFrameFreer registers the function used to release a frame back to the
// physical frame allocator when a page is unmapped.
func SetFrameFreer(fn func(pmm.Frame)) {
	frameFreerFn = fn
}

// SetFreeFrameCounter registers the function GetFreeMemorySize uses to
// report how many physical frames remain free.
func SetFreeFrameCounter(fn func() uint64) {
	freeFrameCountFn = fn
}

// MapPage allocates a free physical frame and maps va to it with the given
// flags, failing with ErrAlreadyMapped if va is already mapped.
func MapPage(va addr.VirtualAddress, flags PageFlags) *kernel.Error {
	if _, err := pteForAddress(va); err == nil {
		return ErrAlreadyMapped
	}

	frame, err := frameAllocator()
	if err != nil {
		return err
	}

	return Map(PageFromAddress(va), frame, flags.toPTE())
}

// MapPageAt maps va to the caller-supplied, already page-aligned physical
// frame pa, failing with ErrAlreadyMapped if va is already mapped.
func MapPageAt(va addr.VirtualAddress, pa addr.PhysicalAddress, flags PageFlags) *kernel.Error {
	if _, err := pteForAddress(va); err == nil {
		return ErrAlreadyMapped
	}

	return Map(PageFromAddress(va), pmm.FrameFromAddress(pa), flags.toPTE())
}

// UnmapPage clears va's leaf mapping, flushes its TLB entry and releases
// the backing frame to the free list. Intermediate tables are left in
// place. Unmapping an address that was never mapped is a no-op.
func UnmapPage(va addr.VirtualAddress) *kernel.Error {
	pte, err := pteForAddress(va)
	if err != nil {
		return nil
	}

	frame := pte.Frame()
	if err := Unmap(PageFromAddress(va)); err != nil {
		return err
	}

	if frameFreerFn != nil {
		frameFreerFn(frame)
	}

	return nil
}

// GetPageFlags returns the leaf mapping's flags, or the empty set if va is
// not mapped.
func GetPageFlags(va addr.VirtualAddress) PageFlags {
	pte, err := pteForAddress(va)
	if err != nil {
		return 0
	}

	raw := PageTableEntryFlag(*pte) & (FlagPresent | FlagRW | FlagUserAccessible | FlagGlobal | FlagNoExecute)
	return pageFlagsFromPTE(raw)
}

// GetFreeMemorySize returns the total size of the physical frames that are
// not currently reserved.
func GetFreeMemorySize() mem.Size {
	if freeFrameCountFn == nil {
		return 0
	}
	return mem.Size(freeFrameCountFn()) * mem.PageSize
}
