package vmm

import (
	"github.com/aeleos/BoringOS/kernel/addr"
	"github.com/aeleos/BoringOS/kernel/cpu"
)

// flushTLBEntry invalidates the TLB's cached translation for virtAddr.
// Indirected through flushTLBEntryFn in map.go so tests running off real
// hardware can stub it out.
func flushTLBEntry(virtAddr addr.VirtualAddress) {
	cpu.FlushTLBEntry(uintptr(virtAddr))
}
