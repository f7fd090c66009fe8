package main

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aeleos/BoringOS/internal/hostlog"
	"github.com/aeleos/BoringOS/kernel/addr"
	"github.com/aeleos/BoringOS/kernel/mem"
	"github.com/aeleos/BoringOS/kernel/mem/memmap"
	"os"
)

type physArea = mem.MemoryArea[addr.PhysicalAddress]

// parseArea parses a "start:length" pair; both numbers accept the usual
// 0x/0o/0b prefixes.
func parseArea(spec string) (physArea, error) {
	parts := strings.SplitN(spec, ":", 2)
	if len(parts) != 2 {
		return physArea{}, fmt.Errorf("area %q: want start:length", spec)
	}

	start, err := strconv.ParseUint(parts[0], 0, 64)
	if err != nil {
		return physArea{}, fmt.Errorf("area %q: %w", spec, err)
	}
	length, err := strconv.ParseUint(parts[1], 0, 64)
	if err != nil {
		return physArea{}, fmt.Errorf("area %q: %w", spec, err)
	}

	return mem.NewArea(addr.PhysicalAddress(start), mem.Size(length)), nil
}

func parseAreaList(spec string) ([]physArea, error) {
	var areas []physArea
	for _, part := range strings.Split(spec, ",") {
		area, err := parseArea(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		areas = append(areas, area)
	}
	return areas, nil
}

// validateExclusions enforces the filter's preconditions up front so a bad
// operator-supplied map produces a diagnostic instead of a kernel-style
// panic: each exclusion must sit entirely inside one input area and the two
// exclusions must not overlap.
func validateExclusions(input []physArea, kernelArea, initramfsArea physArea) error {
	if kernelArea.Overlaps(initramfsArea) {
		return fmt.Errorf("kernel and initramfs areas overlap")
	}

	for _, excl := range []physArea{kernelArea, initramfsArea} {
		if excl.IsEmpty() {
			continue
		}
		contained := false
		for _, in := range input {
			if excl.IsContainedIn(in) {
				contained = true
				break
			}
		}
		if !contained {
			return fmt.Errorf("exclusion [%#x, %#x) is not contained in any input area", uint64(excl.Start()), uint64(excl.End()))
		}
	}

	return nil
}

func runFilter(out io.Writer, input []physArea, kernelArea, initramfsArea physArea) error {
	if err := validateExclusions(input, kernelArea, initramfsArea); err != nil {
		return err
	}

	filter := memmap.NewFilter(memmap.NewSliceIterator(input), kernelArea, initramfsArea)

	var totalFree mem.Size
	for {
		area, ok := filter.Next()
		if !ok {
			break
		}
		totalFree += area.Length()
		fmt.Fprintf(out, "free: [%#012x - %#012x], size: %d\n", uint64(area.Start()), uint64(area.End()), uint64(area.Length()))
	}
	fmt.Fprintf(out, "total free: %d bytes\n", uint64(totalFree))

	return nil
}

func cmdMemmap(args []string) int {
	fs := flag.NewFlagSet("memmap", flag.ContinueOnError)
	memSpec := fs.String("mem", "", "comma-separated usable areas as start:length")
	kernelSpec := fs.String("kernel", "0:0", "kernel image area as start:length")
	initramfsSpec := fs.String("initramfs", "0:0", "initramfs area as start:length")

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *memSpec == "" {
		fs.Usage()
		return 1
	}

	input, err := parseAreaList(*memSpec)
	if err != nil {
		logger.Error("bad memory map", hostlog.Any("err", err))
		return 1
	}
	kernelArea, err := parseArea(*kernelSpec)
	if err != nil {
		logger.Error("bad kernel area", hostlog.Any("err", err))
		return 1
	}
	initramfsArea, err := parseArea(*initramfsSpec)
	if err != nil {
		logger.Error("bad initramfs area", hostlog.Any("err", err))
		return 1
	}

	if err := runFilter(os.Stdout, input, kernelArea, initramfsArea); err != nil {
		logger.Error("filter failed", hostlog.Any("err", err))
		return 1
	}

	return 0
}
