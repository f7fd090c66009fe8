// Package pmm contains code that manages physical memory frame allocations.
package pmm

import (
	"math"

	"github.com/aeleos/BoringOS/kernel/addr"
	"github.com/aeleos/BoringOS/kernel/mem"
)

// Frame describes a physical memory page index.
type Frame uint64

// InvalidFrame is returned by frame allocators when they fail to reserve the
// requested frame.
const InvalidFrame = Frame(math.MaxUint64)

// FrameFromAddress returns the Frame that contains the given physical
// address, rounding down to the containing page if the address is not
// page-aligned.
func FrameFromAddress(physAddr addr.PhysicalAddress) Frame {
	return Frame(physAddr.PageNum())
}

// IsValid returns true if this is a valid frame.
func (f Frame) IsValid() bool {
	return f != InvalidFrame
}

// Address returns the physical memory address for this Frame.
func (f Frame) Address() addr.PhysicalAddress {
	return addr.PhysicalFromPageNum(uint64(f))
}

// Size returns the size of this frame.
func (f Frame) Size() mem.Size {
	return mem.PageSize
}
