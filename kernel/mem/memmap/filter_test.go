package memmap

import (
	"testing"

	"github.com/aeleos/BoringOS/kernel/addr"
	"github.com/aeleos/BoringOS/kernel/mem"
)

func area(start, length uint64) physArea {
	return mem.NewArea[addr.PhysicalAddress](addr.PhysicalAddress(start), mem.Size(length))
}

func collect(f *Filter) []physArea {
	var out []physArea
	for {
		a, ok := f.Next()
		if !ok {
			break
		}
		out = append(out, a)
	}
	return out
}

func TestFilterSplitsAroundKernelAndInitramfs(t *testing.T) {
	input := NewSliceIterator([]physArea{area(0x0, 0x100000)})
	kernelArea := area(0x10000, 0x5000)
	initramfsArea := area(0x20000, 0x2000)

	f := NewFilter(input, kernelArea, initramfsArea)
	got := collect(f)

	want := []physArea{
		area(0x0, 0x10000),
		area(0x15000, 0xb000),
		area(0x22000, 0xde000),
	}

	if len(got) != len(want) {
		t.Fatalf("expected %d areas; got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i].Start() != want[i].Start() || got[i].Length() != want[i].Length() {
			t.Errorf("area %d: expected [%#x, %#x); got [%#x, %#x)",
				i, want[i].Start(), want[i].End(), got[i].Start(), got[i].End())
		}
	}
}

// TestFilterOrderIndependence checks that the exclusion areas may be passed
// in either order.
func TestFilterOrderIndependence(t *testing.T) {
	input := NewSliceIterator([]physArea{area(0x0, 0x100000)})
	kernelArea := area(0x10000, 0x5000)
	initramfsArea := area(0x20000, 0x2000)

	f1 := collect(NewFilter(NewSliceIterator([]physArea{area(0x0, 0x100000)}), kernelArea, initramfsArea))
	f2 := collect(NewFilter(input, initramfsArea, kernelArea))

	if len(f1) != len(f2) {
		t.Fatalf("expected same area count regardless of exclusion order; got %d vs %d", len(f1), len(f2))
	}
	for i := range f1 {
		if f1[i] != f2[i] {
			t.Errorf("area %d differs by exclusion order: %+v vs %+v", i, f1[i], f2[i])
		}
	}
}

// TestFilterPropertiesAcrossMultipleAreas asserts that emitted areas are
// pairwise disjoint, ascending, contained in the union of inputs, and
// disjoint from both exclusions -- using a memory map that spans multiple
// raw input areas.
func TestFilterPropertiesAcrossMultipleAreas(t *testing.T) {
	inputAreas := []physArea{
		area(0x0, 0x4000),
		area(0x8000, 0x8000), // [0x8000, 0x10000)
		area(0x20000, 0x10000),
	}
	kernelArea := area(0x1000, 0x1000)       // inside first input area
	initramfsArea := area(0x9000, 0x1000)    // inside second input area

	f := NewFilter(NewSliceIterator(append([]physArea(nil), inputAreas...)), kernelArea, initramfsArea)
	got := collect(f)

	var prevEnd addr.PhysicalAddress
	for i, a := range got {
		if a.IsEmpty() {
			t.Errorf("area %d is empty", i)
		}
		if i > 0 && a.Start() < prevEnd {
			t.Errorf("area %d starts at %#x before previous area ended at %#x", i, a.Start(), prevEnd)
		}
		if a.Overlaps(kernelArea) || a.Overlaps(initramfsArea) {
			t.Errorf("area %d overlaps an excluded range: %+v", i, a)
		}

		containedInSomeInput := false
		for _, in := range inputAreas {
			if a.IsContainedIn(in) {
				containedInSomeInput = true
				break
			}
		}
		if !containedInSomeInput {
			t.Errorf("area %d is not contained in any input area: %+v", i, a)
		}

		prevEnd = a.End()
	}
}
