package vmm

import (
	"unsafe"

	"github.com/aeleos/BoringOS/kernel/addr"
	"github.com/aeleos/BoringOS/kernel/mem"
)

// ptePtrFn returns a pointer to the supplied entry address. It is used by
// tests to override the generated page table entry pointers so walk() can
// be exercised off real hardware. When compiling the kernel this function
// is automatically inlined.
var ptePtrFn = func(entryAddr addr.VirtualAddress) unsafe.Pointer {
	return unsafe.Pointer(uintptr(entryAddr))
}

// walkStartFn is invoked at the beginning of every walk(). It is a no-op in
// the running kernel; tests that fake out ptePtrFn with a level-indexed
// table (rather than real recursively-derived addresses) use it to
// resynchronize their per-level counter at the start of each independent
// walk, since a single exported call (e.g. MapPage) may perform more than
// one walk() internally and an earlier one may have returned early.
var walkStartFn = func() {}

// pageTableWalker is called by walk with the current page level and page
// table entry. If it returns false, the walk stops.
type pageTableWalker func(pteLevel uint8, pte *pageTableEntry) bool

// walk performs a page table walk for virtAddr, invoking walkFn with the
// page table entry at each of the four page levels in turn.
func walk(virtAddr addr.VirtualAddress, walkFn pageTableWalker) {
	walkStartFn()

	var (
		level                            uint8
		tableAddr, entryAddr, entryIndex uintptr
	)

	// tableAddr starts out as the recursively-mapped virtual address of
	// the top-most (L4) page table; dereferencing it lets us walk down
	// through each level using the MMU's own translation mechanism.
	for level, tableAddr = 0, uintptr(pdtVirtualAddr); level < pageLevels; level, tableAddr = level+1, entryAddr {
		entryIndex = (uintptr(virtAddr) >> pageLevelShifts[level]) & ((1 << pageLevelBits[level]) - 1)
		entryAddr = tableAddr + (entryIndex << mem.PointerShift)

		if !walkFn(level, (*pageTableEntry)(ptePtrFn(addr.VirtualAddress(entryAddr)))) {
			return
		}

		// Shifting left by this level's index-bit count adds one more
		// level of recursive indirection, landing on the table that
		// entryAddr's entry points to.
		entryAddr <<= pageLevelBits[level]
	}
}
