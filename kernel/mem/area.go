package mem

// Addr is the constraint satisfied by the two address kinds a MemoryArea can
// be parameterized over: kernel/addr.PhysicalAddress and
// kernel/addr.VirtualAddress. Both are plain uint64-based scalars that
// support addition and comparison, which is all a MemoryArea needs.
type Addr interface {
	~uint64
}

// MemoryArea describes a contiguous, half-open [start, start+length) region
// of address space. The zero value is the empty area at address 0.
type MemoryArea[A Addr] struct {
	start  A
	length Size
}

// NewArea creates a MemoryArea starting at start with the given length.
func NewArea[A Addr](start A, length Size) MemoryArea[A] {
	return MemoryArea[A]{start: start, length: length}
}

// AreaFromBounds creates a MemoryArea covering [start, end).
func AreaFromBounds[A Addr](start, end A) MemoryArea[A] {
	if end < start {
		return MemoryArea[A]{start: start, length: 0}
	}
	return MemoryArea[A]{start: start, length: Size(end - start)}
}

// Start returns the (inclusive) start address of the area.
func (a MemoryArea[A]) Start() A { return a.start }

// Length returns the size of the area in bytes.
func (a MemoryArea[A]) Length() Size { return a.length }

// End returns the (exclusive) end address of the area.
func (a MemoryArea[A]) End() A { return a.start + A(a.length) }

// IsEmpty reports whether the area covers zero bytes.
func (a MemoryArea[A]) IsEmpty() bool { return a.length == 0 }

// Contains reports whether addr lies within [start, end).
func (a MemoryArea[A]) Contains(addr A) bool {
	return addr >= a.start && addr < a.End()
}

// IsContainedIn reports whether a is properly contained within other, i.e.
// every byte of a also belongs to other.
func (a MemoryArea[A]) IsContainedIn(other MemoryArea[A]) bool {
	return a.start >= other.start && a.End() <= other.End()
}

// Overlaps reports whether a and other share at least one byte.
func (a MemoryArea[A]) Overlaps(other MemoryArea[A]) bool {
	if a.IsEmpty() || other.IsEmpty() {
		return false
	}
	return a.start < other.End() && other.start < a.End()
}
