package vmm

import (
	"github.com/aeleos/BoringOS/kernel"
	"github.com/aeleos/BoringOS/kernel/addr"
	"github.com/aeleos/BoringOS/kernel/hal/multiboot"
	"github.com/aeleos/BoringOS/kernel/mem"
)

var errInitramfsWindowInUse = &kernel.Error{Module: "vmm", Message: "initramfs window overlaps an existing mapping"}

// initramfsVirtBase records where Init mapped the initramfs image; zero if
// no initramfs was loaded.
var initramfsVirtBase addr.VirtualAddress

// Init finishes paging bring-up once the frame allocator is available: it
// maps the boot-loaded initramfs image (if any) into its fixed window so
// later stages can read it by virtual address. The image lands at the
// window start plus its physical in-page offset, so byte offsets within the
// image are preserved. The recursively self-mapped L4 table and the
// kernel's own .text/.rodata/.data/.bss mappings are established by the
// assembly trampoline before Kmain ever runs; Init only extends that
// mapping, it never replaces it.
func Init() *kernel.Error {
	mod := multiboot.GetModule()
	if mod == nil {
		return nil
	}

	pa := addr.PhysicalAddress(mod.StartAddr).PageAlignDown()
	initramfsVirtBase = mem.InitramfsMapAreaStart().Add(uint64(addr.PhysicalAddress(mod.StartAddr).OffsetInPage()))

	size := mem.Size(mod.EndAddr) - mem.Size(pa)
	pageCount := (size + mem.PageSize - 1) >> mem.PageShift

	va := initramfsVirtBase.PageAlignDown()
	for ; pageCount > 0; pageCount, va, pa = pageCount-1, va.Add(uint64(mem.PageSize)), pa.Add(uint64(mem.PageSize)) {
		if err := MapPageAt(va, pa, Present); err != nil {
			if err == ErrAlreadyMapped {
				return errInitramfsWindowInUse
			}
			return err
		}
	}

	return nil
}

// InitramfsBase returns the virtual address the initramfs image was mapped
// at, or zero if the loader provided none.
func InitramfsBase() addr.VirtualAddress {
	return initramfsVirtBase
}
