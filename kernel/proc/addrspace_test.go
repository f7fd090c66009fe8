package proc

import (
	"testing"
	"unsafe"

	"github.com/aeleos/BoringOS/kernel/addr"
	"github.com/aeleos/BoringOS/kernel/mem"
	"github.com/aeleos/BoringOS/kernel/mem/vmm"
)

func TestAddSegmentRejectsOverlap(t *testing.T) {
	as := NewAddressSpace(0)

	s1 := NewSegment(mem.NewArea(addr.VirtualAddress(0x1000), mem.Size(0x2000)), vmm.Writable, MemoryOnly)
	if !as.AddSegment(s1) {
		t.Fatal("expected first segment to be accepted")
	}

	overlapping := NewSegment(mem.NewArea(addr.VirtualAddress(0x2000), mem.Size(0x1000)), vmm.Writable, MemoryOnly)
	if as.AddSegment(overlapping) {
		t.Fatal("expected overlapping segment to be rejected")
	}

	disjoint := NewSegment(mem.NewArea(addr.VirtualAddress(0x3000), mem.Size(0x1000)), vmm.Writable, MemoryOnly)
	if !as.AddSegment(disjoint) {
		t.Fatal("expected disjoint segment to be accepted")
	}

	if got := len(as.segments); got != 2 {
		t.Fatalf("expected 2 segments to be tracked; got %d", got)
	}
}

func TestMapPageUnknownAddressIsFault(t *testing.T) {
	as := NewAddressSpace(0)
	as.AddSegment(NewSegment(mem.NewArea(addr.VirtualAddress(0x1000), mem.Size(0x1000)), vmm.Writable, MemoryOnly))

	if err := as.MapPage(addr.VirtualAddress(0x5000)); err != errNoEnclosingSeg {
		t.Fatalf("expected errNoEnclosingSeg for an address outside every segment; got %v", err)
	}
	if err := as.UnmapPage(addr.VirtualAddress(0x5000)); err != errNoEnclosingSeg {
		t.Fatalf("expected errNoEnclosingSeg for an address outside every segment; got %v", err)
	}
}

func TestWriteValSwitchesAndRestoresAddressSpace(t *testing.T) {
	origActive, origSwitch := activePDTFn, switchPDTFn
	defer func() { activePDTFn, switchPDTFn = origActive, origSwitch }()

	var switchedTo []uintptr
	current := uintptr(0xAAAA000)
	activePDTFn = func() uintptr { return current }
	switchPDTFn = func(root uintptr) {
		switchedTo = append(switchedTo, root)
		current = root
	}

	as := NewAddressSpace(addr.PhysicalAddress(0xBBBB000))

	var target int
	WriteVal(as, addr.VirtualAddress(uintptr(unsafe.Pointer(&target))), 42)

	if target != 42 {
		t.Fatalf("expected WriteVal to write through to the target variable; got %d", target)
	}
	if len(switchedTo) != 2 {
		t.Fatalf("expected WriteVal to switch address spaces exactly twice (in and back); got %d", len(switchedTo))
	}
	if switchedTo[0] != uintptr(as.Root()) {
		t.Fatalf("expected first switch to activate the target address space; got %x", switchedTo[0])
	}
	if switchedTo[1] != 0xAAAA000 {
		t.Fatalf("expected second switch to restore the original address space; got %x", switchedTo[1])
	}
}
