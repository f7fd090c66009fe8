package stack

import (
	"testing"

	"github.com/aeleos/BoringOS/kernel/addr"
	"github.com/aeleos/BoringOS/kernel/mem"
	"github.com/aeleos/BoringOS/kernel/proc"
)

// growClampedBottom/shrinkClampedBottom are pure arithmetic and do not touch
// an address space, so they can be exercised directly off real hardware,
// unlike Grow/Shrink themselves which call through to vmm.MapPage/UnmapPage.

func TestGrowClampedBottomStaysWithinMaxSize(t *testing.T) {
	top := addr.VirtualAddress(0x0000_7f80_0020_0000)
	bottom := top

	// Grow a fresh 0x20_0000-byte stack by 0x3000.
	got := growClampedBottom(top, bottom, 0x20_0000, 0x3000)
	want := addr.VirtualAddress(0x0000_7f80_001f_d000)
	if got != want {
		t.Fatalf("growClampedBottom: got %#x, want %#x", got, want)
	}
}

func TestGrowClampedBottomClampsToMaxSize(t *testing.T) {
	top := addr.VirtualAddress(0x0000_7f80_0020_0000)
	bottom := top

	got := growClampedBottom(top, bottom, 0x20_0000, 0x30_0000)
	want := top.Sub(0x20_0000)
	if got != want {
		t.Fatalf("expected growth to clamp at maxSize below top; got %#x, want %#x", got, want)
	}
}

func TestGrowClampedBottomRoundsToPageBoundary(t *testing.T) {
	top := addr.VirtualAddress(0x0000_7f80_0020_0000)
	bottom := top

	got := growClampedBottom(top, bottom, 0x20_0000, 1)
	if uint64(got)%uint64(mem.PageSize) != 0 {
		t.Fatalf("expected page-aligned result; got %#x", got)
	}
	if got != top.Sub(uint64(mem.PageSize)) {
		t.Fatalf("expected a 1-byte grow to consume a whole page; got %#x", got)
	}
}

func TestShrinkClampedBottomClampsToTop(t *testing.T) {
	top := addr.VirtualAddress(0x0000_7f80_0020_0000)
	bottom := top.Sub(0x3000)

	got := shrinkClampedBottom(top, bottom, 0x10_0000)
	if got != top {
		t.Fatalf("expected shrink past top to clamp at top; got %#x, want %#x", got, top)
	}
}

func TestShrinkClampedBottomRoundsToPageBoundary(t *testing.T) {
	top := addr.VirtualAddress(0x0000_7f80_0020_0000)
	bottom := top.Sub(0x3000)

	got := shrinkClampedBottom(top, bottom, 1)
	if uint64(got)%uint64(mem.PageSize) != 0 {
		t.Fatalf("expected page-aligned result; got %#x", got)
	}
	if got != bottom.Add(uint64(mem.PageSize)) {
		t.Fatalf("expected a 1-byte shrink to release a whole page; got %#x", got)
	}
}

// New with a zero initial size never calls Grow/Shrink (Resize's delta is
// zero), so it is safe to exercise against a real AddressSpace without a
// physical frame allocator wired up.

func TestNewRegistersSegmentAndStartsEmpty(t *testing.T) {
	as := proc.NewAddressSpace(0)
	start := addr.VirtualAddress(0x0000_7f80_0000_0000)

	s, err := New(FullDescending, 0, 0x20_0000, start, User, as)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if s.Top() != start.Add(0x20_0000) {
		t.Fatalf("unexpected top: %#x", s.Top())
	}
	if s.Bottom() != s.Top() {
		t.Fatalf("expected an empty stack to have bottom == top; got bottom=%#x top=%#x", s.Bottom(), s.Top())
	}
	if s.BaseSP() != s.Top() {
		t.Fatalf("expected BaseSP == Top on creation; got %#x", s.BaseSP())
	}
	if s.Size() != 0 {
		t.Fatalf("expected a zero-initial stack to have size 0; got %d", s.Size())
	}
}

func TestNewRejectsOverlappingSegment(t *testing.T) {
	as := proc.NewAddressSpace(0)
	start := addr.VirtualAddress(0x0000_7f80_0000_0000)

	if _, err := New(FullDescending, 0, 0x20_0000, start, User, as); err != nil {
		t.Fatalf("first New failed: %v", err)
	}

	if _, err := New(FullDescending, 0, 0x20_0000, start, User, as); err != errSegmentConflict {
		t.Fatalf("expected errSegmentConflict for an overlapping stack; got %v", err)
	}
}

func TestNewRejectsUnsupportedKind(t *testing.T) {
	as := proc.NewAddressSpace(0)
	start := addr.VirtualAddress(0x0000_7f80_0000_0000)

	if _, err := New(EmptyAscending, 0, 0x20_0000, start, User, as); err != errUnsupportedKind {
		t.Fatalf("expected errUnsupportedKind; got %v", err)
	}
}
