package multiboot

import "unsafe"

// The loader locates the kernel by scanning its image for a protocol
// header. Both protocol headers are emitted back to back so either loader
// generation can boot the kernel; the linker script places the containing
// section near the start of the image, inside the region the loaders scan,
// with 8-byte alignment.

const (
	mb1HeaderMagic = uint32(0x1BADB002)
	mb1HeaderFlags = uint32(0)

	mb2HeaderMagic = uint32(0xE85250D6)
	mb2HeaderArch  = uint32(0)
)

// header1 is the protocol-1 header: magic, flags and a checksum chosen so
// the three fields sum to zero modulo 2^32.
type header1 struct {
	magic    uint32
	flags    uint32
	checksum uint32
}

// header2 is the protocol-2 header. Its length field counts the whole
// structure, terminating end tag included, and its checksum makes
// magic+arch+length+checksum equal zero modulo 2^32.
type header2 struct {
	magic    uint32
	arch     uint32
	length   uint32
	checksum uint32

	endTagType  uint16
	endTagFlags uint16
	endTagSize  uint32
}

const (
	mb1HeaderChecksum = ^(mb1HeaderMagic + mb1HeaderFlags) + 1

	mb2HeaderLength   = uint32(unsafe.Sizeof(header2{}))
	mb2HeaderChecksum = ^(mb2HeaderMagic + mb2HeaderArch + mb2HeaderLength) + 1
)

// Header holds the byte-exact header block the loader scans for. It is
// referenced from the entry assembly so the linker keeps it and its section
// placement directives apply.
//
//nolint:unused
var Header = struct {
	h1 header1
	h2 header2
}{
	h1: header1{
		magic:    mb1HeaderMagic,
		flags:    mb1HeaderFlags,
		checksum: mb1HeaderChecksum,
	},
	h2: header2{
		magic:    mb2HeaderMagic,
		arch:     mb2HeaderArch,
		length:   mb2HeaderLength,
		checksum: mb2HeaderChecksum,

		endTagType:  0,
		endTagFlags: 0,
		endTagSize:  8,
	},
}
