package vmm

import (
	"github.com/aeleos/BoringOS/kernel"
	"github.com/aeleos/BoringOS/kernel/addr"
	"github.com/aeleos/BoringOS/kernel/mem/pmm"
)

// ErrInvalidMapping is returned when trying to look up a virtual address
// that is not yet mapped.
var ErrInvalidMapping = &kernel.Error{Module: "vmm", Message: "virtual address does not point to a mapped physical page"}

// PageTableEntryFlag describes a flag that can be applied to a page table
// entry.
type PageTableEntryFlag uintptr

const (
	// FlagPresent is set when the page is available in memory and not
	// swapped out.
	FlagPresent PageTableEntryFlag = 1 << iota

	// FlagRW is set if the page can be written to.
	FlagRW

	// FlagUserAccessible is set if user-mode processes can access this
	// page. If not set, only kernel code can access it.
	FlagUserAccessible

	// FlagWriteThroughCaching implies write-through caching when set and
	// write-back caching if cleared.
	FlagWriteThroughCaching

	// FlagDoNotCache prevents this page from being cached if set.
	FlagDoNotCache

	// FlagAccessed is set by the CPU when this page is accessed.
	FlagAccessed

	// FlagDirty is set by the CPU when this page is modified.
	FlagDirty

	// FlagHugePage is set when using 2Mb pages instead of 4K pages.
	FlagHugePage

	// FlagGlobal, if set, prevents the TLB from flushing the cached
	// mapping for this page when CR3 is reloaded.
	FlagGlobal
)

// FlagNoExecute, if set, indicates that a page contains non-executable
// code. It occupies the architecture's NX bit, bit 63.
const FlagNoExecute PageTableEntryFlag = 1 << 63

// ptePhysPageMask extracts the physical memory address pointed to by a page
// table entry. For amd64, bits 12-51 carry the physical address.
const ptePhysPageMask = uintptr(0x000ffffffffff000)

// pageTableEntry describes a single entry in one of the four levels of
// page tables. The entry encodes a physical frame address and a set of
// flags; the layout is amd64-specific.
type pageTableEntry uintptr

// HasFlags returns true if this entry has all the input flags set.
func (pte pageTableEntry) HasFlags(flags PageTableEntryFlag) bool {
	return (uintptr(pte) & uintptr(flags)) == uintptr(flags)
}

// HasAnyFlag returns true if this entry has at least one of the input
// flags set.
func (pte pageTableEntry) HasAnyFlag(flags PageTableEntryFlag) bool {
	return (uintptr(pte) & uintptr(flags)) != 0
}

// SetFlags sets the given flags on the page table entry.
func (pte *pageTableEntry) SetFlags(flags PageTableEntryFlag) {
	*pte = pageTableEntry(uintptr(*pte) | uintptr(flags))
}

// ClearFlags clears the given flags from the page table entry.
func (pte *pageTableEntry) ClearFlags(flags PageTableEntryFlag) {
	*pte = pageTableEntry(uintptr(*pte) &^ uintptr(flags))
}

// Frame returns the physical page frame this page table entry points to.
func (pte pageTableEntry) Frame() pmm.Frame {
	return pmm.FrameFromAddress(addr.PhysicalAddress(uintptr(pte) & ptePhysPageMask))
}

// SetFrame updates the page table entry to point at the given physical
// frame.
func (pte *pageTableEntry) SetFrame(frame pmm.Frame) {
	*pte = pageTableEntry((uintptr(*pte) &^ ptePhysPageMask) | uintptr(frame.Address()))
}

// pteForAddress performs a page table walk for virtAddr and returns the
// final-level entry, or ErrInvalidMapping if it (or any intermediate table)
// is not present.
func pteForAddress(virtAddr addr.VirtualAddress) (*pageTableEntry, *kernel.Error) {
	var (
		err   *kernel.Error
		entry *pageTableEntry
	)

	walk(virtAddr, func(pteLevel uint8, pte *pageTableEntry) bool {
		if !pte.HasFlags(FlagPresent) {
			entry = nil
			err = ErrInvalidMapping
			return false
		}
		entry = pte
		return true
	})

	return entry, err
}
