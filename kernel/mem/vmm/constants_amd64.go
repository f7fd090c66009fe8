package vmm

import (
	"math"

	"github.com/aeleos/BoringOS/kernel/addr"
)

const (
	// pageLevels indicates the number of page table levels supported by
	// the amd64 architecture (L4, L3, L2, L1).
	pageLevels = 4

	// tempMappingAddr is a reserved virtual page used for temporary
	// physical page mappings (e.g. when accessing an inactive PDT). On
	// amd64 this address uses page table indices 510, 511, 511, 511.
	tempMappingAddr = addr.VirtualAddress(0xffffff7ffffff000)
)

// pdtVirtualAddr exploits the recursive self-mapping installed in the last
// L4 entry to let the MMU's own address translation reach the active page
// directory. Setting all page-level index bits to 1 makes the MMU keep
// following the last L4 entry at every level, landing back on the L4 table
// itself.
var pdtVirtualAddr = addr.VirtualAddress(math.MaxUint64 &^ ((1 << 12) - 1))

// pageLevelBits defines the number of virtual address bits that index each
// page level. Each level uses 9 bits, i.e. 512 entries per table.
var pageLevelBits = [pageLevels]uint8{9, 9, 9, 9}

// pageLevelShifts defines the shift required to extract each page level's
// index from a virtual address.
var pageLevelShifts = [pageLevels]uint8{39, 30, 21, 12}
