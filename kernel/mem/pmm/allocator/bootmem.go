// Package allocator provides the physical frame allocators used to bring up
// the kernel: a simple bump allocator for the early boot stages and a bitmap
// allocator that takes over once the kernel's own address space is mapped.
package allocator

import (
	"github.com/aeleos/BoringOS/kernel"
	"github.com/aeleos/BoringOS/kernel/kfmt/early"
	"github.com/aeleos/BoringOS/kernel/mem"
	"github.com/aeleos/BoringOS/kernel/mem/memmap"
	"github.com/aeleos/BoringOS/kernel/mem/pmm"
)

var (
	// EarlyAllocator is the allocator used to bootstrap the kernel before
	// BitmapAllocator takes over.
	EarlyAllocator BootMemAllocator

	errBootAllocUnsupportedOrder = &kernel.Error{Module: "bootmem", Message: "boot allocator only supports order(0) allocations"}
	errBootAllocOutOfMemory      = &kernel.Error{Module: "bootmem", Message: "out of memory"}
)

type frameRange struct {
	start pmm.Frame
	end   pmm.Frame // inclusive
}

// BootMemAllocator implements a rudimentary physical memory allocator used to
// bootstrap the kernel. It consumes the free-area iterator produced by
// kernel/mem/memmap once, materializing it into a small list of page-aligned
// frame ranges, and then serves AllocFrame requests off that list with a
// monotonically increasing cursor.
//
// Allocations are tracked via an internal counter that records the last
// allocated frame index; the allocator does not support freeing. Once the
// kernel is fully initialized, the reserved frames are handed over to
// BitmapAllocator, which does support freeing.
type BootMemAllocator struct {
	ranges []frameRange

	// allocCount tracks the total number of allocated frames.
	allocCount uint64

	// lastAllocIndex tracks the last allocated frame index, or -1 if no
	// frame has been allocated yet.
	lastAllocIndex int64
}

// Init consumes freeAreas (typically the output of memmap.Filter) and
// prepares the allocator to serve frames out of it.
func (a *BootMemAllocator) Init(freeAreas memmap.AreaIterator) {
	a.lastAllocIndex = -1
	a.ranges = a.ranges[:0]

	var totalFree mem.Size
	for {
		area, ok := freeAreas.Next()
		if !ok {
			break
		}
		if area.IsEmpty() {
			continue
		}

		startFrame := pmm.FrameFromAddress(area.Start().PageAlignUp())
		endExclusive := area.End().PageAlignDown()
		if endExclusive.PageNum() == 0 {
			continue
		}
		endFrame := pmm.Frame(endExclusive.PageNum() - 1)
		if endFrame < startFrame {
			continue
		}

		a.ranges = append(a.ranges, frameRange{start: startFrame, end: endFrame})
		totalFree += mem.Size((uint64(endFrame-startFrame) + 1) * uint64(mem.PageSize))
	}

	early.Printf("[bootmem] usable memory: %dKb across %d range(s)\n", uint64(totalFree/mem.Kb), len(a.ranges))
}

// AllocFrame reserves the next available free frame. It returns an error if
// no more memory can be allocated or the requested page order is non-zero.
func (a *BootMemAllocator) AllocFrame(order mem.PageOrder) (pmm.Frame, *kernel.Error) {
	if order != 0 {
		return pmm.InvalidFrame, errBootAllocUnsupportedOrder
	}

	var foundIndex int64 = -1
	for _, r := range a.ranges {
		rangeStart, rangeEnd := int64(r.start), int64(r.end)

		if a.lastAllocIndex >= rangeEnd {
			continue
		}

		if a.lastAllocIndex < rangeStart {
			foundIndex = rangeStart
		} else {
			foundIndex = a.lastAllocIndex + 1
		}
		break
	}

	if foundIndex == -1 {
		return pmm.InvalidFrame, errBootAllocOutOfMemory
	}

	a.allocCount++
	a.lastAllocIndex = foundIndex
	return pmm.Frame(foundIndex), nil
}

// FrameCount returns the number of frames allocated so far.
func (a *BootMemAllocator) FrameCount() uint64 {
	return a.allocCount
}

// Reset rewinds the allocator back to its initial, nothing-allocated state
// without forgetting which frame ranges are available. BitmapAllocator uses
// this to replay the sequence of frames handed out by the early allocator so
// it can mark exactly those frames as reserved in its own bitmap.
func (a *BootMemAllocator) Reset() {
	a.allocCount = 0
	a.lastAllocIndex = -1
}
