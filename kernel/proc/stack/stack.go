// Package stack implements the kernel and user stack manager: typed,
// growable/shrinkable stacks bound to an address space.
package stack

import (
	"unsafe"

	"github.com/aeleos/BoringOS/kernel"
	"github.com/aeleos/BoringOS/kernel/addr"
	"github.com/aeleos/BoringOS/kernel/mem"
	"github.com/aeleos/BoringOS/kernel/mem/vmm"
	"github.com/aeleos/BoringOS/kernel/proc"
)

// Kind selects a stack's growth direction. Only FullDescending is
// implemented; the reserved variants exist so callers that need them later
// have a name to ask for, and so New refuses them explicitly rather than
// silently behaving as FullDescending.
type Kind uint8

const (
	// FullDescending stacks grow from high to low addresses; the only
	// kind this package implements.
	FullDescending Kind = iota

	// EmptyAscending is reserved for a future ascending-stack
	// implementation; New refuses it.
	EmptyAscending
)

// Access marks whether a stack is reachable from user mode.
type Access uint8

const (
	// Kernel stacks are never user-accessible.
	Kernel Access = iota

	// User stacks carry PageFlags.UserAccessible on every mapped page.
	User
)

var (
	errUnsupportedKind = &kernel.Error{Module: "stack", Message: "only FullDescending stacks are implemented"}
	errSegmentConflict = &kernel.Error{Module: "stack", Message: "stack segment overlaps an existing segment"}
)

// Stack is a typed, growable/shrinkable stack bound to an address space.
// Invariants: top-bottom <= maxSize; bottom and top are page-aligned;
// baseSP equals top when the stack is first created.
type Stack struct {
	kind      Kind
	top       addr.VirtualAddress
	bottom    addr.VirtualAddress
	maxSize   uint64
	baseSP    addr.VirtualAddress
	access    Access
	addrSpace *proc.AddressSpace
}

// New registers a MemoryOnly segment of size max at start in addrSpace
// (flags R|W, plus USER if access is User), then resizes the stack to
// initial bytes.
func New(kind Kind, initial, max uint64, start addr.VirtualAddress, access Access, addrSpace *proc.AddressSpace) (*Stack, *kernel.Error) {
	if kind != FullDescending {
		return nil, errUnsupportedKind
	}

	flags := vmm.Writable
	if access == User {
		flags |= vmm.UserAccessible
	}

	top := start.Add(max)
	seg := proc.NewSegment(mem.AreaFromBounds(start, top), flags, proc.MemoryOnly)
	if !addrSpace.AddSegment(seg) {
		return nil, errSegmentConflict
	}

	s := &Stack{
		kind:      kind,
		top:       top,
		bottom:    top,
		maxSize:   max,
		baseSP:    top,
		access:    access,
		addrSpace: addrSpace,
	}

	if err := s.Resize(int64(initial)); err != nil {
		return nil, err
	}

	return s, nil
}

// Top returns the stack's fixed upper bound (exclusive).
func (s *Stack) Top() addr.VirtualAddress { return s.top }

// Bottom returns the current lower bound (inclusive) of the mapped region.
func (s *Stack) Bottom() addr.VirtualAddress { return s.bottom }

// MaxSize returns the maximum number of bytes the stack may grow to.
func (s *Stack) MaxSize() uint64 { return s.maxSize }

// BaseSP returns the stack pointer the stack was created with (== Top()).
func (s *Stack) BaseSP() addr.VirtualAddress { return s.baseSP }

// Access reports whether this is a user or kernel stack.
func (s *Stack) Access() Access { return s.access }

// Size returns the current mapped size of the stack, top-bottom.
func (s *Stack) Size() uint64 { return uint64(s.top.Diff(s.bottom)) }

// growClampedBottom computes the new bottom from lowering bottom by n bytes,
// clamped so top-bottom never exceeds maxSize. Pulled out of Grow so the
// clamping arithmetic can be tested without an address space.
func growClampedBottom(top, bottom addr.VirtualAddress, maxSize, n uint64) addr.VirtualAddress {
	minBottom := top.Sub(maxSize).PageAlignDown()
	newBottom := bottom.Sub(n).PageAlignDown()
	if newBottom < minBottom {
		newBottom = minBottom
	}
	return newBottom
}

// shrinkClampedBottom computes the new bottom from raising bottom by n
// bytes, clamped to top. Pulled out of Shrink for the same reason as
// growClampedBottom.
func shrinkClampedBottom(top, bottom addr.VirtualAddress, n uint64) addr.VirtualAddress {
	newBottom := bottom.Add(n).PageAlignUp()
	if newBottom > top {
		newBottom = top
	}
	return newBottom
}

// Grow lowers bottom by n bytes, clamped so top-bottom never exceeds
// maxSize, and maps every newly-covered page.
func (s *Stack) Grow(n uint64) *kernel.Error {
	newBottom := growClampedBottom(s.top, s.bottom, s.maxSize, n)

	for va := newBottom; va < s.bottom; va = va.Add(uint64(mem.PageSize)) {
		if err := s.addrSpace.MapPage(va); err != nil {
			return err
		}
	}

	s.bottom = newBottom
	return nil
}

// Shrink raises bottom by n bytes, clamped to top, and unmaps the vacated
// pages.
func (s *Stack) Shrink(n uint64) *kernel.Error {
	newBottom := shrinkClampedBottom(s.top, s.bottom, n)

	for va := s.bottom; va < newBottom; va = va.Add(uint64(mem.PageSize)) {
		if err := s.addrSpace.UnmapPage(va); err != nil {
			return err
		}
	}

	s.bottom = newBottom
	return nil
}

// Resize grows or shrinks the stack to exactly size bytes.
func (s *Stack) Resize(size int64) *kernel.Error {
	delta := size - int64(s.Size())
	switch {
	case delta > 0:
		return s.Grow(uint64(delta))
	case delta < 0:
		return s.Shrink(uint64(-delta))
	default:
		return nil
	}
}

// PushIn decrements sp by sizeof(v) and writes v into addrSpace at the new
// sp, the building block cross-address-space stack initialization is built
// from.
func PushIn[T any](addrSpace *proc.AddressSpace, sp *addr.VirtualAddress, v T) {
	*sp = sp.Sub(uint64(unsafe.Sizeof(v)))
	proc.WriteVal(addrSpace, *sp, v)
}
