package cpu

// EnableInterrupts enables interrupt handling.
func EnableInterrupts()

// DisableInterrupts disables interrupt handling.
func DisableInterrupts()

// Halt stops instruction execution.
func Halt()

// FlushTLBEntry flushes a TLB entry for a particular virtual address.
func FlushTLBEntry(virtAddr uintptr)

// SwitchPDT sets the root page table directory to point to the specified
// physical address and flushes the TLB.
func SwitchPDT(pdtPhysAddr uintptr)

// ActivePDT returns the physical address of the currently active page table.
func ActivePDT() uintptr

// SwitchContext saves the current callee-saved register set and stack
// pointer at *oldSP, restores the register set saved at newSP and resumes
// execution there. Control returns to the caller only when a later
// SwitchContext call switches back into the context that called
// SwitchContext in the first place.
func SwitchContext(oldSP *uintptr, newSP uintptr)

// NumCPUs returns the number of CPUs the kernel schedules threads on.
// Bringing up secondary CPUs is out of scope, so this is always 1.
func NumCPUs() int { return 1 }
