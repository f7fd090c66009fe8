package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aeleos/BoringOS/internal/hostlog"
	"golang.org/x/term"
)

// cmdMonitor runs an interactive monitor over the same commands the
// one-shot CLI exposes. The terminal is switched to raw mode for the
// duration; x/term's line editor provides history and echo.
func cmdMonitor() int {
	fd := int(os.Stdin.Fd())

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		logger.Error("cannot enter raw mode", hostlog.Any("err", err))
		return 1
	}
	defer term.Restore(fd, oldState)

	t := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}, "boringos> ")

	fmt.Fprintln(t, "boringctl monitor; type 'help' for commands")

	for {
		line, err := t.ReadLine()
		if err != nil {
			// io.EOF on ctrl-d; either way the session is over.
			return 0
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "quit", "exit":
			return 0

		case "help":
			fmt.Fprintln(t, "map -mem start:len[,start:len...] [-kernel start:len] [-initramfs start:len]")
			fmt.Fprintln(t, "layout")
			fmt.Fprintln(t, "quit")

		case "layout":
			writeLayout(t)

		case "map":
			if code := monitorMap(t, fields[1:]); code != 0 {
				fmt.Fprintln(t, "map failed; see flags with 'help'")
			}

		default:
			fmt.Fprintf(t, "unknown command %q\n", fields[0])
		}
	}
}

func monitorMap(t *term.Terminal, args []string) int {
	var memSpec, kernelSpec, initramfsSpec string
	kernelSpec, initramfsSpec = "0:0", "0:0"

	for i := 0; i < len(args)-1; i += 2 {
		switch args[i] {
		case "-mem":
			memSpec = args[i+1]
		case "-kernel":
			kernelSpec = args[i+1]
		case "-initramfs":
			initramfsSpec = args[i+1]
		default:
			return 1
		}
	}
	if memSpec == "" {
		return 1
	}

	input, err := parseAreaList(memSpec)
	if err != nil {
		fmt.Fprintln(t, err.Error())
		return 1
	}
	kernelArea, err := parseArea(kernelSpec)
	if err != nil {
		fmt.Fprintln(t, err.Error())
		return 1
	}
	initramfsArea, err := parseArea(initramfsSpec)
	if err != nil {
		fmt.Fprintln(t, err.Error())
		return 1
	}

	if err := runFilter(t, input, kernelArea, initramfsArea); err != nil {
		fmt.Fprintln(t, err.Error())
		return 1
	}

	return 0
}
