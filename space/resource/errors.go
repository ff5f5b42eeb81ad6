package resource

import "errors"

var (
	// ErrUnknownResource indicates a strategy name that is not registered.
	ErrUnknownResource = errors.New("resource: unknown resource")

	// ErrDuplicateResource indicates a second registration under the same name.
	ErrDuplicateResource = errors.New("resource: duplicate resource name")

	// ErrUnknownPointer indicates an address that no tracked allocation owns.
	ErrUnknownPointer = errors.New("resource: pointer not owned by any allocation")

	// ErrOutOfBounds indicates an access range outside the resource's memory.
	ErrOutOfBounds = errors.New("resource: access out of bounds")
)
