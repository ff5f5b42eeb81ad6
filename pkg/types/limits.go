package types

// ============================================================================
// Tracked Allocation Layout Constants
// ============================================================================
// Every tracked allocation starts with a fixed-size header so that the payload
// pointer handed to callers is always HeaderSize bytes past the header. The
// header size does not depend on the memory space.

const (
	// HeaderSize is the size in bytes of the allocation header that precedes
	// every tracked payload.
	HeaderSize = 128

	// HeaderOwnerSize is the width of the owner back-reference (record ID)
	// stored at the start of the header.
	HeaderOwnerSize = 8

	// MaxLabelLength is the number of label bytes stored in the header,
	// including the terminating NUL.
	MaxLabelLength = HeaderSize - HeaderOwnerSize

	// PointerWidth is the width of the stashed raw pointer stored immediately
	// before an aligned allocation.
	PointerWidth = 8

	// DefaultAlignment is the alignment applied to raw allocations when a space
	// does not declare its own. It must be a power of two.
	DefaultAlignment = 64
)

// IsPowerOfTwo reports whether n is a non-zero power of two.
func IsPowerOfTwo(n uintptr) bool {
	return n != 0 && n&(n-1) == 0
}
