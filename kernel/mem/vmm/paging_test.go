package vmm

import (
	"unsafe"

	"github.com/aeleos/BoringOS/kernel"
	"github.com/aeleos/BoringOS/kernel/addr"
	"github.com/aeleos/BoringOS/kernel/mem"
	"github.com/aeleos/BoringOS/kernel/mem/pmm"
	"testing"
)

// fakePageTables backs a fake recursively-addressed page table tree so
// MapPage/UnmapPage can be exercised without real hardware by substituting
// ptePtrFn. MapPage/UnmapPage/GetPageFlags
// each perform their own independent walk() call, so the fake resynchronizes
// its per-level counter at the start of every walk via walkStartFn rather
// than assuming a fixed number of ptePtrFn calls per exported function.
type fakePageTables struct {
	physPages   [pageLevels][mem.PageSize >> mem.PointerShift]pageTableEntry
	nextPhys    int
	allocCount  int
	flushCount  int
	freedFrames []pmm.Frame
	level       int
}

func newFakePageTables() *fakePageTables {
	return &fakePageTables{}
}

func (f *fakePageTables) install(t *testing.T) func() {
	origPtePtr, origNextAddr, origFlush, origAlloc, origFreer, origCounter, origWalkStart :=
		ptePtrFn, nextAddrFn, flushTLBEntryFn, frameAllocator, frameFreerFn, freeFrameCountFn, walkStartFn

	walkStartFn = func() {
		f.level = 0
	}

	ptePtrFn = func(entryAddr addr.VirtualAddress) unsafe.Pointer {
		level := f.level
		f.level++
		pteIndex := (uintptr(entryAddr) & uintptr(mem.PageSize-1)) >> mem.PointerShift
		return unsafe.Pointer(&f.physPages[level][pteIndex])
	}

	nextAddrFn = func(addr.VirtualAddress) addr.VirtualAddress {
		return addr.VirtualAddress(uintptr(unsafe.Pointer(&f.physPages[f.level][0])))
	}

	flushTLBEntryFn = func(addr.VirtualAddress) {
		f.flushCount++
	}

	frameAllocator = func() (pmm.Frame, *kernel.Error) {
		f.nextPhys++
		f.allocCount++
		return pmm.Frame(f.nextPhys), nil
	}

	frameFreerFn = func(fr pmm.Frame) {
		f.freedFrames = append(f.freedFrames, fr)
	}

	freeFrameCountFn = func() uint64 {
		return 1000 - uint64(f.allocCount) + uint64(len(f.freedFrames))
	}

	return func() {
		ptePtrFn, nextAddrFn, flushTLBEntryFn, frameAllocator, frameFreerFn, freeFrameCountFn, walkStartFn =
			origPtePtr, origNextAddr, origFlush, origAlloc, origFreer, origCounter, origWalkStart
	}
}

// testVA returns a canonical virtual address sharing the same P4/P3/P2
// indices as tempMappingAddr but with P1 index leafIndex, so repeated calls
// exercise distinct, disjoint leaf pages backed by the same fake
// intermediate tables.
func testVA(leafIndex uint64) addr.VirtualAddress {
	return addr.VirtualAddress((uint64(tempMappingAddr) &^ 0xfff) | (leafIndex << 12))
}

func TestMapPageGetPageFlagsUnmapPageRoundTrip(t *testing.T) {
	f := newFakePageTables()
	restore := f.install(t)
	defer restore()

	va := testVA(3)

	if got := GetPageFlags(va); got != 0 {
		t.Fatalf("expected unmapped page to report no flags; got %v", got)
	}

	if err := MapPage(va, Writable|UserAccessible); err != nil {
		t.Fatalf("MapPage failed: %v", err)
	}

	got := GetPageFlags(va)
	want := Readable | Writable | UserAccessible | Present | NoExecute
	if got != want {
		t.Fatalf("expected flags %v after MapPage; got %v", want, got)
	}

	if err := MapPage(va, Writable); err != ErrAlreadyMapped {
		t.Fatalf("expected ErrAlreadyMapped remapping the same page; got %v", err)
	}

	if err := UnmapPage(va); err != nil {
		t.Fatalf("UnmapPage failed: %v", err)
	}

	if got := GetPageFlags(va); got != 0 {
		t.Fatalf("expected flags to be empty after UnmapPage; got %v", got)
	}

	if len(f.freedFrames) != 1 {
		t.Fatalf("expected exactly one frame to be released; got %d", len(f.freedFrames))
	}
}

func TestMapPageDisjointAddressesIndependentFlags(t *testing.T) {
	f := newFakePageTables()
	restore := f.install(t)
	defer restore()

	vaR := testVA(1)
	vaW := testVA(2)

	if err := MapPage(vaR, 0); err != nil {
		t.Fatalf("MapPage(vaR) failed: %v", err)
	}
	if err := MapPage(vaW, Writable); err != nil {
		t.Fatalf("MapPage(vaW) failed: %v", err)
	}

	if got := GetPageFlags(vaR); got&Writable != 0 {
		t.Fatalf("expected vaR to remain read-only; got %v", got)
	}
	if got := GetPageFlags(vaW); got&Writable == 0 {
		t.Fatalf("expected vaW to be writable; got %v", got)
	}

	if err := UnmapPage(vaR); err != nil {
		t.Fatalf("UnmapPage(vaR) failed: %v", err)
	}
	if got := GetPageFlags(vaW); got&Writable == 0 {
		t.Fatalf("unmapping vaR must not disturb vaW; got %v", got)
	}
}

func TestGetFreeMemorySizeTracksMapAndUnmap(t *testing.T) {
	f := newFakePageTables()
	restore := f.install(t)
	defer restore()

	// Establish the shared intermediate tables with an unrelated mapping
	// first, so the assertions below measure only the leaf frame's cost
	// (intermediate tables are a one-time, non-reclaimed cost).
	if err := MapPage(testVA(0), Writable); err != nil {
		t.Fatalf("warm-up MapPage failed: %v", err)
	}

	va := testVA(4)
	before := GetFreeMemorySize()

	if err := MapPage(va, Writable); err != nil {
		t.Fatalf("MapPage failed: %v", err)
	}
	if got := GetFreeMemorySize(); got != before-mem.PageSize {
		t.Fatalf("expected free memory to shrink by exactly one page; before=%d got=%d", before, got)
	}

	if err := UnmapPage(va); err != nil {
		t.Fatalf("UnmapPage failed: %v", err)
	}
	if got := GetFreeMemorySize(); got != before {
		t.Fatalf("expected free memory to be restored after UnmapPage; before=%d got=%d", before, got)
	}
}
