package vmm

import "github.com/aeleos/BoringOS/kernel/addr"

// Page describes a virtual memory page index.
type Page uintptr

// Address returns the virtual address this Page corresponds to.
func (p Page) Address() addr.VirtualAddress {
	return addr.VirtualFromPageNum(uint64(p))
}

// PageFromAddress returns the Page that contains virtAddr, rounding down to
// the containing page if virtAddr is not page-aligned.
func PageFromAddress(virtAddr addr.VirtualAddress) Page {
	return Page(virtAddr.PageNum())
}
