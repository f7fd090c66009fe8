// Package multiboot provides a uniform view over the two boot protocols
// the loader may hand the kernel off with. Callers select the protocol once
// via SetBootInfo (using the magic value the loader left in a register) and
// then read the memory map, boot modules, bootloader name and framebuffer
// description through protocol-agnostic accessors.
package multiboot

import (
	"github.com/aeleos/BoringOS/kernel/addr"
	"github.com/aeleos/BoringOS/kernel/mem"
)

// BootMethod identifies which boot protocol the loader used to start the
// kernel.
type BootMethod uint8

const (
	// BootMethodUnknown indicates the loader's magic value matched
	// neither supported protocol. The kernel cannot continue.
	BootMethodUnknown BootMethod = iota

	// BootMethodMultiboot is the original multiboot protocol.
	BootMethodMultiboot

	// BootMethodMultiboot2 is the tag-based multiboot2 protocol.
	BootMethodMultiboot2
)

const (
	// Multiboot1BootloaderMagic is the value the loader passes to the
	// kernel entry point when booting via the original multiboot
	// protocol.
	Multiboot1BootloaderMagic = uint32(0x2BADB002)

	// Multiboot2BootloaderMagic is the equivalent value for multiboot2.
	Multiboot2BootloaderMagic = uint32(0x36D76289)
)

var (
	infoData   uintptr
	bootMethod BootMethod
)

// SetBootInfo records the loader-provided magic value and information
// pointer and returns the boot method the magic selects. It must be invoked
// before any other function exported by this package. The info structure is
// read-only and lives for the lifetime of the kernel.
func SetBootInfo(magic uint32, ptr uintptr) BootMethod {
	infoData = ptr

	switch magic {
	case Multiboot1BootloaderMagic:
		bootMethod = BootMethodMultiboot
	case Multiboot2BootloaderMagic:
		bootMethod = BootMethodMultiboot2
	default:
		bootMethod = BootMethodUnknown
	}

	return bootMethod
}

// Method returns the boot method selected by SetBootInfo.
func Method() BootMethod { return bootMethod }

// FramebufferType defines the type of the initialized framebuffer.
type FramebufferType uint8

const (
	// FrameBufferTypeIndexed specifies a 256-color palette.
	FrameBufferTypeIndexed FramebufferType = iota

	// FramebufferTypeRGB specifies direct RGB mode.
	FramebufferTypeRGB

	// FramebufferTypeEGA specifies EGA text mode.
	FramebufferTypeEGA
)

// FramebufferInfo provides information about the initialized framebuffer.
type FramebufferInfo struct {
	// The framebuffer physical address.
	PhysAddr uint64

	// Row pitch in bytes.
	Pitch uint32

	// Width and height in pixels (or characters if Type = FramebufferTypeEGA)
	Width, Height uint32

	// Bits per pixel (non EGA modes only).
	Bpp uint8

	// Framebuffer type.
	Type FramebufferType
}

// defaultFramebufferInfo is assumed when the loader supplies no framebuffer
// tag: standard 80x25 text mode with its buffer at physical 0xb8000.
var defaultFramebufferInfo = FramebufferInfo{
	PhysAddr: 0xb8000,
	Pitch:    160,
	Width:    80,
	Height:   25,
	Type:     FramebufferTypeEGA,
}

// MemoryEntryType defines the type of a MemoryMapEntry.
type MemoryEntryType uint32

const (
	// MemAvailable indicates that the memory region is available for use.
	MemAvailable MemoryEntryType = iota + 1

	// MemReserved indicates that the memory region is not available for use.
	MemReserved

	// MemAcpiReclaimable indicates a memory region that holds ACPI info that
	// can be reused by the OS.
	MemAcpiReclaimable

	// MemNvs indicates memory that must be preserved when hibernating.
	MemNvs

	// Any value >= memUnknown will be mapped to MemReserved.
	memUnknown
)

// MemoryMapEntry describes a memory region entry, namely its physical address,
// its length and its type.
type MemoryMapEntry struct {
	// The physical address for this memory region.
	PhysAddress uint64

	// The length of the memory region.
	Length uint64

	// The type of this entry.
	Type MemoryEntryType
}

// ModuleInfo describes the physical memory range of a boot module (e.g. an
// initramfs image) loaded by the bootloader alongside the kernel.
type ModuleInfo struct {
	// StartAddr is the first physical address occupied by the module.
	StartAddr uint64

	// EndAddr is the first physical address past the end of the module.
	EndAddr uint64
}

// initramfsModuleName is the module command line that identifies the
// initramfs image among the loaded boot modules.
const initramfsModuleName = "initramfs"

// MemRegionVisitor defies a visitor function that gets invoked by VisitMemRegions
// for each memory region provided by the boot loader. The visitor must return true
// to continue or false to abort the scan.
type MemRegionVisitor func(entry *MemoryMapEntry) bool

// VisitMemRegions will invoke the supplied visitor for each memory region that
// is defined by the boot info data that we received from the bootloader.
func VisitMemRegions(visitor MemRegionVisitor) {
	switch bootMethod {
	case BootMethodMultiboot:
		mb1VisitMemRegions(visitor)
	case BootMethodMultiboot2:
		mb2VisitMemRegions(visitor)
	}
}

// GetModule returns the physical range of the initramfs boot module, or nil
// if the loader did not provide one. Under multiboot2 the module is located
// by its command-line name; under multiboot the single supported module slot
// is used directly.
func GetModule() *ModuleInfo {
	switch bootMethod {
	case BootMethodMultiboot:
		return mb1GetModule()
	case BootMethodMultiboot2:
		return mb2GetModule(initramfsModuleName)
	default:
		return nil
	}
}

// GetBootLoaderName returns the bootloader-supplied name string, or "" if
// the loader did not identify itself.
func GetBootLoaderName() string {
	switch bootMethod {
	case BootMethodMultiboot:
		return mb1GetBootLoaderName()
	case BootMethodMultiboot2:
		return mb2GetBootLoaderName()
	default:
		return ""
	}
}

// GetFramebufferInfo returns information about the framebuffer initialized
// by the bootloader, falling back to standard 80x25 text mode at physical
// address 0xb8000 when the loader supplied no framebuffer description.
func GetFramebufferInfo() *FramebufferInfo {
	var info *FramebufferInfo

	switch bootMethod {
	case BootMethodMultiboot:
		info = mb1GetFramebufferInfo()
	case BootMethodMultiboot2:
		info = mb2GetFramebufferInfo()
	}

	if info == nil {
		info = &defaultFramebufferInfo
	}

	return info
}

// MemoryAreaIterator is a pull-based iterator over the usable physical
// memory areas reported by the bootloader. It satisfies the area-iterator
// contract kernel/mem/memmap's filter consumes.
type MemoryAreaIterator interface {
	// Next returns the next usable area and true, or the zero area and
	// false once the map is exhausted.
	Next() (mem.MemoryArea[addr.PhysicalAddress], bool)
}

// NewMemoryAreaIterator returns an iterator over the usable areas of the
// boot memory map, in the order the loader reported them. The concrete
// iterator depends on the boot protocol selected by SetBootInfo.
func NewMemoryAreaIterator() MemoryAreaIterator {
	switch bootMethod {
	case BootMethodMultiboot:
		return newMb1AreaIterator()
	default:
		return newMb2AreaIterator()
	}
}
