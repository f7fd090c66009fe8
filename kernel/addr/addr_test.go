package addr

import "testing"

func TestPhysicalAddressAlignment(t *testing.T) {
	specs := []struct {
		in       PhysicalAddress
		wantDown PhysicalAddress
		wantUp   PhysicalAddress
	}{
		{0, 0, 0},
		{1, 0, PhysicalAddress(PageSize)},
		{PhysicalAddress(PageSize), PhysicalAddress(PageSize), PhysicalAddress(PageSize)},
		{PhysicalAddress(PageSize) + 1, PhysicalAddress(PageSize), PhysicalAddress(2 * PageSize)},
	}

	for _, spec := range specs {
		if got := spec.in.PageAlignDown(); got != spec.wantDown {
			t.Errorf("PageAlignDown(%#x): expected %#x; got %#x", spec.in, spec.wantDown, got)
		}
		if got := spec.in.PageAlignUp(); got != spec.wantUp {
			t.Errorf("PageAlignUp(%#x): expected %#x; got %#x", spec.in, spec.wantUp, got)
		}
	}
}

func TestPhysicalAddressPageNum(t *testing.T) {
	a := PhysicalAddress(3 * PageSize)
	if got := a.PageNum(); got != 3 {
		t.Errorf("expected page num 3; got %d", got)
	}

	if got := PhysicalFromPageNum(3); got != a {
		t.Errorf("expected %#x; got %#x", a, got)
	}
}

func TestAddressDiff(t *testing.T) {
	a := PhysicalAddress(100)
	b := PhysicalAddress(40)

	if got := a.Diff(b); got != 60 {
		t.Errorf("expected diff 60; got %d", got)
	}
	if got := b.Diff(a); got != -60 {
		t.Errorf("expected diff -60; got %d", got)
	}
}

func TestIsUserspaceAddress(t *testing.T) {
	specs := []struct {
		addr VirtualAddress
		want bool
	}{
		{0x0, true},
		{virtualLowMax, true},
		{virtualLowMax + 1, false},
		{virtualHighMin, false},
		{VirtualAddress(0xffff_ffff_ffff_ffff), false},
	}

	for _, spec := range specs {
		if got := spec.addr.IsUserspaceAddress(); got != spec.want {
			t.Errorf("IsUserspaceAddress(%#x): expected %v; got %v", spec.addr, spec.want, got)
		}
	}
}

func TestIsCanonical(t *testing.T) {
	specs := []struct {
		addr VirtualAddress
		want bool
	}{
		{0, true},
		{virtualLowMax, true},
		{virtualLowMax + 1, false},
		{virtualHighMin - 1, false},
		{virtualHighMin, true},
		{VirtualAddress(0xffff_ffff_ffff_ffff), true},
	}

	for _, spec := range specs {
		if got := spec.addr.IsCanonical(); got != spec.want {
			t.Errorf("IsCanonical(%#x): expected %v; got %v", spec.addr, spec.want, got)
		}
	}
}

func TestVirtualAddressArithmeticPanicsOnNonCanonicalResult(t *testing.T) {
	origPanicFn := panicFn
	defer func() { panicFn = origPanicFn }()

	var gotErr interface{}
	panicFn = func(e interface{}) { gotErr = e }

	_ = virtualLowMax.Add(1)

	if gotErr == nil {
		t.Fatal("expected Add to report a non-canonical address, got none")
	}
}
