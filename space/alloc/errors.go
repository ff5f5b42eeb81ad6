package alloc

import "errors"

var (
	// ErrBadAlignment indicates an alignment that is not a power of two.
	ErrBadAlignment = errors.New("alloc: alignment must be a power of two")

	// ErrNegativeSize indicates a negative allocation request.
	ErrNegativeSize = errors.New("alloc: negative size")
)
