package kernel

// Error is the kernel's error value: a module tag plus a message. Every
// kernel error must be declared as a global *Error; errors.New is off the
// table since the Go allocator may not be up when an error is raised.
type Error struct {
	// The module where the error occurred.
	Module string

	// The error message
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}
