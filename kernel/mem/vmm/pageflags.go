package vmm

// PageFlags is the architecture-neutral view of a mapping's permissions.
// Two flags are canonicalized rather than stored: readable is implicit on
// amd64 (every present page is readable) and executable is the absence of
// the NX bit, not a bit of its own.
type PageFlags uint16

const (
	// Readable is always set on any mapping GetPageFlags reports; amd64
	// has no bit that can make a present page unreadable.
	Readable PageFlags = 1 << iota

	// Writable marks the page as writable.
	Writable

	// Executable marks the page as containing executable code. It is
	// the logical negation of the NX bit, not a stored bit itself.
	Executable

	// UserAccessible marks the page as accessible from ring 3.
	UserAccessible

	// Global prevents the TLB from invalidating this mapping's entry
	// when CR3 is reloaded.
	Global

	// Present marks the page as backed by a physical frame.
	Present

	// NoExecute is the raw NX bit. It is kept alongside Executable (its
	// logical negation) so callers that think in terms of the hardware
	// bit and callers that think in terms of "can this run" both have a
	// direct spelling.
	NoExecute
)

// toPTE converts a PageFlags set into the architecture's page table entry
// flags. Readable carries no bit; Executable is translated into the
// absence (not presence) of FlagNoExecute.
func (f PageFlags) toPTE() PageTableEntryFlag {
	var pte PageTableEntryFlag

	if f&Writable != 0 {
		pte |= FlagRW
	}
	if f&UserAccessible != 0 {
		pte |= FlagUserAccessible
	}
	if f&Global != 0 {
		pte |= FlagGlobal
	}
	if f&Present != 0 {
		pte |= FlagPresent
	}
	if f&NoExecute != 0 || f&Executable == 0 {
		pte |= FlagNoExecute
	}

	return pte
}

// pageFlagsFromPTE converts a page table entry's raw flags into the
// architecture-neutral PageFlags view.
func pageFlagsFromPTE(pte PageTableEntryFlag) PageFlags {
	if pte&FlagPresent == 0 {
		return 0
	}

	f := Readable | Present
	if pte&FlagRW != 0 {
		f |= Writable
	}
	if pte&FlagUserAccessible != 0 {
		f |= UserAccessible
	}
	if pte&FlagGlobal != 0 {
		f |= Global
	}
	if pte&FlagNoExecute != 0 {
		f |= NoExecute
	} else {
		f |= Executable
	}

	return f
}
