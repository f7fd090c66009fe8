package proc

import (
	"unsafe"

	"github.com/aeleos/BoringOS/kernel"
	"github.com/aeleos/BoringOS/kernel/addr"
	"github.com/aeleos/BoringOS/kernel/cpu"
	"github.com/aeleos/BoringOS/kernel/mem/vmm"
)

var (
	errNoEnclosingSeg = &kernel.Error{Module: "proc", Message: "virtual address is not covered by any segment"}
	idleAddressSpace  *AddressSpace

	// activePDTFn and switchPDTFn are overridden by tests; the running
	// kernel's values are automatically inlined by the compiler.
	activePDTFn = cpu.ActivePDT
	switchPDTFn = cpu.SwitchPDT
)

// AddressSpace holds the page-table root and ordered, non-overlapping
// segment list for one process. The zero value is not usable; construct
// with NewAddressSpace.
type AddressSpace struct {
	root     addr.PhysicalAddress
	segments []Segment
}

// NewAddressSpace creates an AddressSpace rooted at the given L4 table.
func NewAddressSpace(root addr.PhysicalAddress) *AddressSpace {
	return &AddressSpace{root: root}
}

// IdleAddressSpace returns the singleton address space idle threads run in:
// the currently active kernel L4 table, with no user segments. It must only
// be called once paging has been initialized.
func IdleAddressSpace() *AddressSpace {
	if idleAddressSpace == nil {
		idleAddressSpace = &AddressSpace{root: addr.PhysicalAddress(activePDTFn())}
	}
	return idleAddressSpace
}

// Root returns the physical address of the address space's L4 table.
func (as *AddressSpace) Root() addr.PhysicalAddress { return as.root }

// AddSegment inserts s into the address space's segment list, returning
// false without modifying the list if s overlaps an existing segment.
func (as *AddressSpace) AddSegment(s Segment) bool {
	for _, existing := range as.segments {
		if existing.Overlaps(s) {
			return false
		}
	}
	as.segments = append(as.segments, s)
	return true
}

// segmentFor returns the segment enclosing va, if any.
func (as *AddressSpace) segmentFor(va addr.VirtualAddress) (Segment, bool) {
	for _, s := range as.segments {
		if s.Contains(va) {
			return s, true
		}
	}
	return Segment{}, false
}

// MapPage walks the segment list to find the segment enclosing va and
// delegates to the paging engine with that segment's flags. An address not
// covered by any segment is a fault.
func (as *AddressSpace) MapPage(va addr.VirtualAddress) *kernel.Error {
	seg, ok := as.segmentFor(va)
	if !ok {
		return errNoEnclosingSeg
	}
	return vmm.MapPage(va, seg.Flags())
}

// UnmapPage is the inverse of MapPage.
func (as *AddressSpace) UnmapPage(va addr.VirtualAddress) *kernel.Error {
	if _, ok := as.segmentFor(va); !ok {
		return errNoEnclosingSeg
	}
	return vmm.UnmapPage(va)
}

// Activate installs this address space's L4 table as the active one on the
// current CPU.
func (as *AddressSpace) Activate() {
	switchPDTFn(uintptr(as.root))
}

// WriteVal copies the bytes of v into this address space at va. It is
// unsafe: the caller must ensure va is mapped, writable, and sized to hold
// v. The write is performed by temporarily activating this address space
// (saving and restoring whatever was active on the current CPU), the
// practical equivalent, for a single-CPU-at-a-time writer, of mapping the
// target frame into the caller's address space long enough to copy the
// bytes across.
func WriteVal[T any](as *AddressSpace, va addr.VirtualAddress, v T) {
	prevRoot := addr.PhysicalAddress(activePDTFn())
	as.Activate()
	defer switchPDTFn(uintptr(prevRoot))

	*(*T)(unsafe.Pointer(uintptr(va))) = v
}
