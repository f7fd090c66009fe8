package multiboot

import (
	"unsafe"

	"github.com/aeleos/BoringOS/kernel/addr"
	"github.com/aeleos/BoringOS/kernel/mem"
)

type tagType uint32

// nolint
const (
	tagMbSectionEnd tagType = iota
	tagBootCmdLine
	tagBootLoaderName
	tagModules
	tagBasicMemoryInfo
	tagBiosBootDevice
	tagMemoryMap
	tagVbeInfo
	tagFramebufferInfo
	tagElfSymbols
	tagApmTable
)

// info describes the multiboot2 info section header.
type info struct {
	// Total size of multiboot info section.
	totalSize uint32

	// Always set to zero; reserved for future use
	reserved uint32
}

// tagHeader describes the header the preceedes each tag.
type tagHeader struct {
	// The type of the tag
	tagType tagType

	// The size of the tag including the header but *not* including any
	// padding. According to the spec, each tag starts at a 8-byte aligned
	// address.
	size uint32
}

// mmapHeader describes the header for a memory map specification.
type mmapHeader struct {
	// The size of each entry.
	entrySize uint32

	// The version of the entries that follow.
	entryVersion uint32
}

// moduleHeader describes the two dwords that precede a module tag's
// null-terminated command-line string.
type moduleHeader struct {
	modStart uint32
	modEnd   uint32
}

// mb2VisitMemRegions invokes visitor for each entry of the multiboot2
// memory-map tag.
func mb2VisitMemRegions(visitor MemRegionVisitor) {
	curPtr, size := findTagByType(tagMemoryMap)
	if size == 0 {
		return
	}

	// curPtr points to the memory map header (2 dwords long)
	ptrMapHeader := (*mmapHeader)(unsafe.Pointer(curPtr))
	endPtr := curPtr + uintptr(size)
	curPtr += 8

	var entry *MemoryMapEntry
	for curPtr != endPtr {
		entry = (*MemoryMapEntry)(unsafe.Pointer(curPtr))

		// Mark unknown entry types as reserved
		if entry.Type == 0 || entry.Type >= memUnknown {
			entry.Type = MemReserved
		}

		if !visitor(entry) {
			return
		}

		curPtr += uintptr(ptrMapHeader.entrySize)
	}
}

// mb2GetModule scans the module tags for one whose command line equals
// name and returns its physical range, or nil if no such module was loaded.
func mb2GetModule(name string) *ModuleInfo {
	curPtr := infoData + 8
	for {
		ptrTagHeader := (*tagHeader)(unsafe.Pointer(curPtr))
		if ptrTagHeader.tagType == tagMbSectionEnd {
			return nil
		}

		if ptrTagHeader.tagType == tagModules {
			hdr := (*moduleHeader)(unsafe.Pointer(curPtr + 8))
			cmdLine := cString(curPtr+8+unsafe.Sizeof(moduleHeader{}), ptrTagHeader.size-8-uint32(unsafe.Sizeof(moduleHeader{})))
			if cmdLine == name {
				return &ModuleInfo{StartAddr: uint64(hdr.modStart), EndAddr: uint64(hdr.modEnd)}
			}
		}

		// Tags are aligned at 8-byte aligned addresses
		curPtr += uintptr(int32(ptrTagHeader.size+7) & ^7)
	}
}

// mb2GetBootLoaderName returns the loader name tag's contents, or "".
func mb2GetBootLoaderName() string {
	curPtr, size := findTagByType(tagBootLoaderName)
	if size == 0 {
		return ""
	}

	return cString(curPtr, size)
}

// mb2GetFramebufferInfo returns the framebuffer tag's contents, or nil if
// the tag is not present.
func mb2GetFramebufferInfo() *FramebufferInfo {
	var info *FramebufferInfo

	curPtr, size := findTagByType(tagFramebufferInfo)
	if size != 0 {
		info = (*FramebufferInfo)(unsafe.Pointer(curPtr))
	}

	return info
}

// mb2AreaIterator walks the multiboot2 memory-map tag entry by entry,
// emitting only the usable regions.
type mb2AreaIterator struct {
	cur       uintptr
	end       uintptr
	entrySize uint32
}

func newMb2AreaIterator() *mb2AreaIterator {
	curPtr, size := findTagByType(tagMemoryMap)
	if size == 0 {
		return &mb2AreaIterator{}
	}

	hdr := (*mmapHeader)(unsafe.Pointer(curPtr))
	return &mb2AreaIterator{
		cur:       curPtr + 8,
		end:       curPtr + uintptr(size),
		entrySize: hdr.entrySize,
	}
}

// Next implements MemoryAreaIterator.
func (it *mb2AreaIterator) Next() (mem.MemoryArea[addr.PhysicalAddress], bool) {
	for it.cur != it.end && it.cur != 0 {
		entry := (*MemoryMapEntry)(unsafe.Pointer(it.cur))
		it.cur += uintptr(it.entrySize)

		if entry.Type != MemAvailable {
			continue
		}

		return mem.NewArea(addr.PhysicalAddress(entry.PhysAddress), mem.Size(entry.Length)), true
	}

	return mem.MemoryArea[addr.PhysicalAddress]{}, false
}

// findTagByType scans the multiboot info data looking for the start of of the
// specified type. It returns a pointer to the tag contents start offset and
// the content length exluding the tag header.
//
// If the tag is not present in the multiboot info, findTagByType will return
// back (0,0).
func findTagByType(tagType tagType) (uintptr, uint32) {
	var ptrTagHeader *tagHeader

	curPtr := infoData + 8
	for ptrTagHeader = (*tagHeader)(unsafe.Pointer(curPtr)); ptrTagHeader.tagType != tagMbSectionEnd; ptrTagHeader = (*tagHeader)(unsafe.Pointer(curPtr)) {
		if ptrTagHeader.tagType == tagType {
			return curPtr + 8, ptrTagHeader.size - 8
		}

		// Tags are aligned at 8-byte aligned addresses
		curPtr += uintptr(int32(ptrTagHeader.size+7) & ^7)
	}

	return 0, 0
}

// cString reads a null-terminated string of at most maxLen bytes starting
// at ptr.
func cString(ptr uintptr, maxLen uint32) string {
	data := make([]byte, 0, maxLen)
	for i := uint32(0); i < maxLen; i++ {
		ch := *(*byte)(unsafe.Pointer(ptr + uintptr(i)))
		if ch == 0 {
			break
		}
		data = append(data, ch)
	}

	return string(data)
}
