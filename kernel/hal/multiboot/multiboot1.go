package multiboot

import (
	"unsafe"

	"github.com/aeleos/BoringOS/kernel/addr"
	"github.com/aeleos/BoringOS/kernel/mem"
)

// mb1Info mirrors the fixed-layout information structure the original
// multiboot protocol hands the kernel. Which of its fields are valid is
// indicated by the flags bits.
type mb1Info struct {
	flags    uint32
	memLower uint32
	memUpper uint32
	bootDev  uint32
	cmdLine  uint32

	modsCount uint32
	modsAddr  uint32

	syms [4]uint32

	mmapLength uint32
	mmapAddr   uint32

	drivesLength uint32
	drivesAddr   uint32

	configTable    uint32
	bootLoaderName uint32

	apmTable uint32

	vbeControlInfo  uint32
	vbeModeInfo     uint32
	vbeMode         uint16
	vbeInterfaceSeg uint16
	vbeInterfaceOff uint16
	vbeInterfaceLen uint16

	framebufferAddr   uint64
	framebufferPitch  uint32
	framebufferWidth  uint32
	framebufferHeight uint32
	framebufferBpp    uint8
	framebufferType   uint8
}

// Validity bits in mb1Info.flags.
const (
	mb1FlagMods        = 1 << 3
	mb1FlagMmap        = 1 << 6
	mb1FlagLoaderName  = 1 << 9
	mb1FlagFramebuffer = 1 << 12
)

// The protocol-1 memory map is a packed record stream (size u32, base u64,
// length u64, type u32, with the u64s unaligned), so entries are read field
// by field rather than through a struct overlay, which Go would pad.
// The size field counts the bytes that follow it, so consecutive entries
// are size+4 bytes apart.
func mb1ReadMmapEntry(p uintptr) (size uint32, entry MemoryMapEntry) {
	size = *(*uint32)(unsafe.Pointer(p))
	entry = MemoryMapEntry{
		PhysAddress: *(*uint64)(unsafe.Pointer(p + 4)),
		Length:      *(*uint64)(unsafe.Pointer(p + 12)),
		Type:        MemoryEntryType(*(*uint32)(unsafe.Pointer(p + 20))),
	}
	return size, entry
}

// mb1ModEntry is one record of the protocol-1 module list.
type mb1ModEntry struct {
	modStart uint32
	modEnd   uint32
	cmdLine  uint32
	reserved uint32
}

func mb1() *mb1Info {
	return (*mb1Info)(unsafe.Pointer(infoData))
}

// mb1Ptr converts one of the info structure's 32-bit physical pointers into
// a dereferenceable address. In the running kernel the boot structures are
// identity-mapped when they are read, so this is the identity; tests remap
// it into a host buffer.
var mb1Ptr = func(p uint32) uintptr { return uintptr(p) }

// mb1VisitMemRegions invokes visitor for each entry of the protocol-1
// memory map.
func mb1VisitMemRegions(visitor MemRegionVisitor) {
	inf := mb1()
	if inf.flags&mb1FlagMmap == 0 {
		return
	}

	curPtr := mb1Ptr(inf.mmapAddr)
	endPtr := curPtr + uintptr(inf.mmapLength)

	for curPtr < endPtr {
		size, entry := mb1ReadMmapEntry(curPtr)

		if entry.Type == 0 || entry.Type >= memUnknown {
			entry.Type = MemReserved
		}

		if !visitor(&entry) {
			return
		}

		curPtr += uintptr(size) + 4
	}
}

// mb1GetModule returns the physical range described by the first module
// slot, which is where the loader places the initramfs image under the
// original protocol.
func mb1GetModule() *ModuleInfo {
	inf := mb1()
	if inf.flags&mb1FlagMods == 0 || inf.modsCount == 0 {
		return nil
	}

	mod := (*mb1ModEntry)(unsafe.Pointer(mb1Ptr(inf.modsAddr)))
	return &ModuleInfo{StartAddr: uint64(mod.modStart), EndAddr: uint64(mod.modEnd)}
}

// mb1GetBootLoaderName returns the loader's name string, or "".
func mb1GetBootLoaderName() string {
	inf := mb1()
	if inf.flags&mb1FlagLoaderName == 0 || inf.bootLoaderName == 0 {
		return ""
	}

	// The protocol gives no length for the name; cap the scan at one page.
	return cString(mb1Ptr(inf.bootLoaderName), uint32(mem.PageSize))
}

// mb1GetFramebufferInfo returns the protocol-1 framebuffer description, or
// nil if the loader did not fill it in.
func mb1GetFramebufferInfo() *FramebufferInfo {
	inf := mb1()
	if inf.flags&mb1FlagFramebuffer == 0 {
		return nil
	}

	return &FramebufferInfo{
		PhysAddr: inf.framebufferAddr,
		Pitch:    inf.framebufferPitch,
		Width:    inf.framebufferWidth,
		Height:   inf.framebufferHeight,
		Bpp:      inf.framebufferBpp,
		Type:     FramebufferType(inf.framebufferType),
	}
}

// mb1AreaIterator walks the protocol-1 memory map, emitting only the
// usable regions.
type mb1AreaIterator struct {
	cur uintptr
	end uintptr
}

func newMb1AreaIterator() *mb1AreaIterator {
	inf := mb1()
	if inf.flags&mb1FlagMmap == 0 {
		return &mb1AreaIterator{}
	}

	return &mb1AreaIterator{
		cur: mb1Ptr(inf.mmapAddr),
		end: mb1Ptr(inf.mmapAddr) + uintptr(inf.mmapLength),
	}
}

// Next implements MemoryAreaIterator.
func (it *mb1AreaIterator) Next() (mem.MemoryArea[addr.PhysicalAddress], bool) {
	for it.cur < it.end {
		size, entry := mb1ReadMmapEntry(it.cur)
		it.cur += uintptr(size) + 4

		if entry.Type != MemAvailable {
			continue
		}

		return mem.NewArea(addr.PhysicalAddress(entry.PhysAddress), mem.Size(entry.Length)), true
	}

	return mem.MemoryArea[addr.PhysicalAddress]{}, false
}
