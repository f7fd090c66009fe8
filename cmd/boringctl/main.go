// Command boringctl inspects the kernel's memory bring-up logic from the
// comfort of a hosted process: it runs the real memory-map filter and
// virtual-layout code against operator-supplied maps, so boot-time decisions
// can be examined without booting the kernel under an emulator.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/aeleos/BoringOS/internal/hostlog"
)

var logger = hostlog.DefaultLogger()

func usage(out *os.File) {
	fmt.Fprintln(out, "usage: boringctl <command> [flags]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "commands:")
	fmt.Fprintln(out, "  memmap   filter a physical memory map the way the frame allocator would")
	fmt.Fprintln(out, "  layout   print the kernel's fixed virtual memory layout")
	fmt.Fprintln(out, "  monitor  interactive monitor over the same commands")
}

func main() {
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage(os.Stderr)
		os.Exit(1)
	}

	var code int
	switch args[0] {
	case "memmap":
		code = cmdMemmap(args[1:])
	case "layout":
		code = cmdLayout()
	case "monitor":
		code = cmdMonitor()
	case "help":
		usage(os.Stdout)
	default:
		logger.Error("unknown command", hostlog.String("command", args[0]))
		usage(os.Stderr)
		code = 1
	}

	os.Exit(code)
}
