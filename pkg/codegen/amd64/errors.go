package amd64

// ContextError reports an expression used where an lvalue is required.
// Context names the construct that needed the address (assignment,
// address-of).
type ContextError struct {
	Context string
}

func (e *ContextError) Error() string {
	if e.Context == "" {
		return "lvalue is invalid"
	}
	return "lvalue is invalid in " + e.Context
}

// DerefError reports a dereference of a value whose type is not a pointer.
type DerefError struct{}

func (*DerefError) Error() string {
	return "cannot dereference a non-pointer value"
}
