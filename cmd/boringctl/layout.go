package main

import (
	"fmt"
	"io"
	"os"

	"github.com/aeleos/BoringOS/kernel/mem"
)

// writeLayout prints the kernel's fixed virtual layout in ascending address
// order, pulled straight from the constants the kernel itself maps by.
func writeLayout(out io.Writer) {
	rows := []struct {
		name   string
		base   uint64
		stride uint64
		max    uint64
	}{
		{"user stacks", uint64(mem.UserStackAreaBase), mem.UserStackOffset, mem.UserStackMaxSize},
		{"initramfs window", uint64(mem.InitramfsMapAreaStart()), 0, 0},
		{"double-fault stacks", uint64(mem.DoubleFaultStackAreaBase), mem.DoubleFaultStackOffset, mem.DoubleFaultStackMaxSize},
		{"heap", uint64(mem.HeapStart), 0, mem.HeapMaxSize},
		{"kernel stacks", uint64(mem.KernelStackAreaBase), mem.KernelStackOffset, mem.KernelStackMaxSize},
		{"final stack top", uint64(mem.FinalStackTop), 0, 0},
	}

	for _, row := range rows {
		fmt.Fprintf(out, "%-20s base %#018x", row.name, row.base)
		if row.stride != 0 {
			fmt.Fprintf(out, " stride %#x", row.stride)
		}
		if row.max != 0 {
			fmt.Fprintf(out, " max %#x", row.max)
		}
		fmt.Fprintln(out)
	}
}

func cmdLayout() int {
	writeLayout(os.Stdout)
	return 0
}
