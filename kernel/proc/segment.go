// Package proc implements per-process address spaces and the segments they
// are made of. The process/thread control blocks and the process registry
// live in kernel/sched.
package proc

import (
	"github.com/aeleos/BoringOS/kernel/addr"
	"github.com/aeleos/BoringOS/kernel/mem"
	"github.com/aeleos/BoringOS/kernel/mem/vmm"
)

// SegmentKind classifies the backing of a Segment.
type SegmentKind uint8

const (
	// MemoryOnly segments are backed purely by anonymous frames (stacks,
	// the heap).
	MemoryOnly SegmentKind = iota

	// FileBacked segments are backed by a file (e.g. a loaded ELF
	// section); demand-loading such segments is not implemented, but the
	// kind is tracked so the fault handler can tell the two apart once
	// it is.
	FileBacked
)

// Segment is a contiguous virtual range with uniform flags and kind.
// Segments within an AddressSpace are non-overlapping.
type Segment struct {
	area  mem.MemoryArea[addr.VirtualAddress]
	flags vmm.PageFlags
	kind  SegmentKind
}

// NewSegment creates a Segment covering area with the given flags and kind.
func NewSegment(area mem.MemoryArea[addr.VirtualAddress], flags vmm.PageFlags, kind SegmentKind) Segment {
	return Segment{area: area, flags: flags, kind: kind}
}

// Area returns the virtual range the segment covers.
func (s Segment) Area() mem.MemoryArea[addr.VirtualAddress] { return s.area }

// Flags returns the page flags new mappings in this segment are created
// with.
func (s Segment) Flags() vmm.PageFlags { return s.flags }

// Kind returns the segment's backing kind.
func (s Segment) Kind() SegmentKind { return s.kind }

// Contains reports whether va falls within the segment.
func (s Segment) Contains(va addr.VirtualAddress) bool { return s.area.Contains(va) }

// Overlaps reports whether s and other share any virtual address.
func (s Segment) Overlaps(other Segment) bool { return s.area.Overlaps(other.area) }
