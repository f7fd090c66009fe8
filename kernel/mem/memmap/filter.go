// Package memmap composes the raw memory-map iterator produced by the
// boot-info layer with a small exclusion list (the kernel image and the
// initramfs) to yield an iterator over the regions that are genuinely free
// to hand to the frame allocator.
package memmap

import (
	"github.com/aeleos/BoringOS/kernel"
	"github.com/aeleos/BoringOS/kernel/addr"
	"github.com/aeleos/BoringOS/kernel/mem"
)

type physArea = mem.MemoryArea[addr.PhysicalAddress]

var errBadExclusionList = &kernel.Error{Module: "memmap", Message: "exclusion areas are not sorted, overlapping, or not each contained in a single input area"}

// AreaIterator is a pull-based iterator over physical memory areas. It is
// implemented by both boot-protocol-specific memory-map readers
// (kernel/hal/multiboot), letting the filter stay agnostic of which
// bootloader produced the raw map.
type AreaIterator interface {
	// Next returns the next area and true, or the zero area and false once
	// the iterator is exhausted.
	Next() (physArea, bool)
}

// Filter wraps an AreaIterator, removing the byte ranges occupied by the
// kernel image and the initramfs from the areas it reports as free.
type Filter struct {
	input     AreaIterator
	exclude   [2]physArea
	excludeAt int
	current   physArea
	haveCur   bool
}

// NewFilter creates a Filter that removes kernelArea and initramfsArea from
// the areas produced by input. The two exclusion areas need not be supplied
// in address order; NewFilter sorts them. NewFilter panics if the two
// exclusion areas overlap each other. It does not check that each exclusion
// area lies entirely within one area produced by input: an exclusion that
// lies within no single input area is never applied, every area from that
// point on is emitted unchanged, and the exclusion after it is never
// reached.
func NewFilter(input AreaIterator, kernelArea, initramfsArea physArea) *Filter {
	f := &Filter{input: input}

	if kernelArea.Start() <= initramfsArea.Start() {
		f.exclude = [2]physArea{kernelArea, initramfsArea}
	} else {
		f.exclude = [2]physArea{initramfsArea, kernelArea}
	}

	if f.exclude[0].Overlaps(f.exclude[1]) {
		kernel.Panic(errBadExclusionList)
	}

	f.current, f.haveCur = f.input.Next()
	return f
}

// Next returns the next free area, or the zero area and false once both the
// input iterator and any pending split area have been exhausted.
func (f *Filter) Next() (physArea, bool) {
	for f.haveCur {
		if f.excludeAt >= len(f.exclude) {
			area := f.current
			f.current, f.haveCur = f.input.Next()
			return area, true
		}

		excl := f.exclude[f.excludeAt]
		if !excl.IsContainedIn(f.current) {
			// This input area has no exclusion left inside it; move on.
			area := f.current
			f.current, f.haveCur = f.input.Next()
			return area, true
		}

		before := mem.AreaFromBounds[addr.PhysicalAddress](f.current.Start(), excl.Start())
		after := mem.AreaFromBounds[addr.PhysicalAddress](excl.End(), f.current.End())
		f.excludeAt++

		if after.IsEmpty() {
			f.current, f.haveCur = f.input.Next()
		} else {
			f.current = after
		}

		if !before.IsEmpty() {
			return before, true
		}
		// before was empty (the exclusion started exactly at the area's
		// start): loop again to consider `after` against the next
		// exclusion, or emit it directly.
	}

	return physArea{}, false
}
