// Package addr defines the typed physical and virtual address primitives
// used throughout the kernel. The two address kinds are intentionally
// distinct Go types so that arithmetic cannot silently mix them.
package addr

import "github.com/aeleos/BoringOS/kernel"

const (
	// PageShift is equal to log2(PageSize).
	PageShift = 12

	// PageSize is the system's page size in bytes.
	PageSize = uintptr(1) << PageShift

	pageMask = PageSize - 1
)

var (
	// virtualLowMax is the highest address in the low half of virtual
	// address space.
	virtualLowMax = VirtualAddress(0x0000_7fff_ffff_ffff)

	// virtualHighMin is the lowest address in the high (kernel) half of
	// virtual address space. Anything strictly between virtualLowMax and
	// virtualHighMin lies in the non-canonical gap.
	virtualHighMin = VirtualAddress(0xffff_8000_0000_0000)

	errNonCanonicalAddress = &kernel.Error{Module: "addr", Message: "virtual address lies in the non-canonical gap"}
	errAddressOverflow     = &kernel.Error{Module: "addr", Message: "address arithmetic overflowed"}

	// panicFn is overridden by tests so invariant violations can be
	// observed without halting the test binary.
	panicFn = kernel.Panic
)

// PhysicalAddress is a 64-bit physical memory address.
type PhysicalAddress uint64

// Add returns the address offset by n bytes.
func (a PhysicalAddress) Add(n uint64) PhysicalAddress {
	res := a + PhysicalAddress(n)
	if res < a {
		panicFn(errAddressOverflow)
	}
	return res
}

// Sub returns the address offset backwards by n bytes.
func (a PhysicalAddress) Sub(n uint64) PhysicalAddress {
	if uint64(a) < n {
		panicFn(errAddressOverflow)
	}
	return a - PhysicalAddress(n)
}

// Diff returns the signed byte distance between a and b (a - b).
func (a PhysicalAddress) Diff(b PhysicalAddress) int64 {
	return int64(a) - int64(b)
}

// PageAlignDown rounds the address down to the nearest page boundary.
func (a PhysicalAddress) PageAlignDown() PhysicalAddress {
	return a &^ PhysicalAddress(pageMask)
}

// PageAlignUp rounds the address up to the nearest page boundary.
func (a PhysicalAddress) PageAlignUp() PhysicalAddress {
	res := (a + PhysicalAddress(pageMask)) &^ PhysicalAddress(pageMask)
	if res < a {
		panicFn(errAddressOverflow)
	}
	return res
}

// PageNum returns the page-frame number for this address.
func (a PhysicalAddress) PageNum() uint64 {
	return uint64(a) >> PageShift
}

// OffsetInPage returns the in-page byte offset for this address.
func (a PhysicalAddress) OffsetInPage() uintptr {
	return uintptr(a) & pageMask
}

// PhysicalFromPageNum builds a page-aligned PhysicalAddress from a frame number.
func PhysicalFromPageNum(pageNum uint64) PhysicalAddress {
	return PhysicalAddress(pageNum << PageShift)
}

// VirtualAddress is a 64-bit virtual memory address.
type VirtualAddress uint64

// Add returns the address offset by n bytes.
func (a VirtualAddress) Add(n uint64) VirtualAddress {
	res := a + VirtualAddress(n)
	if res < a {
		panicFn(errAddressOverflow)
	}
	res.assertCanonical()
	return res
}

// Sub returns the address offset backwards by n bytes.
func (a VirtualAddress) Sub(n uint64) VirtualAddress {
	if uint64(a) < n {
		panicFn(errAddressOverflow)
	}
	res := a - VirtualAddress(n)
	res.assertCanonical()
	return res
}

// Diff returns the signed byte distance between a and b (a - b).
func (a VirtualAddress) Diff(b VirtualAddress) int64 {
	return int64(a) - int64(b)
}

// PageAlignDown rounds the address down to the nearest page boundary.
func (a VirtualAddress) PageAlignDown() VirtualAddress {
	return a &^ VirtualAddress(pageMask)
}

// PageAlignUp rounds the address up to the nearest page boundary.
func (a VirtualAddress) PageAlignUp() VirtualAddress {
	res := (a + VirtualAddress(pageMask)) &^ VirtualAddress(pageMask)
	if res < a {
		panicFn(errAddressOverflow)
	}
	return res
}

// PageNum returns the page number for this address.
func (a VirtualAddress) PageNum() uint64 {
	return uint64(a) >> PageShift
}

// OffsetInPage returns the in-page byte offset for this address.
func (a VirtualAddress) OffsetInPage() uintptr {
	return uintptr(a) & pageMask
}

// VirtualFromPageNum builds a page-aligned VirtualAddress from a page number.
func VirtualFromPageNum(pageNum uint64) VirtualAddress {
	return VirtualAddress(pageNum << PageShift)
}

// IsUserspaceAddress returns true iff the address lies in the low half of
// the virtual address space ([0, 0x0000_7fff_ffff_ffff]).
func (a VirtualAddress) IsUserspaceAddress() bool {
	return a <= virtualLowMax
}

// IsCanonical reports whether a lies in either the low or the high half of
// the virtual address space; the gap between them must never appear.
func (a VirtualAddress) IsCanonical() bool {
	return a <= virtualLowMax || a >= virtualHighMin
}

// assertCanonical panics (via kernel.Panic) if a lies in the non-canonical
// gap. All arithmetic that can move an address across the gap boundary
// calls this so the violation is caught at the point it is introduced.
func (a VirtualAddress) assertCanonical() {
	if !a.IsCanonical() {
		panicFn(errNonCanonicalAddress)
	}
}
