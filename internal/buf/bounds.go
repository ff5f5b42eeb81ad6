package buf

import "math"

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow int.
func AddOverflowSafe(a, b int) (int, bool) {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return 0, false
	case b < 0 && a < math.MinInt-b:
		return 0, false
	default:
		return a + b, true
	}
}

// MulOverflowSafe multiplies two non-negative ints, returning ok = false on
// overflow or negative input. Used for count * elementSize byte computations.
func MulOverflowSafe(a, b int) (int, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxInt/b {
		return 0, false
	}
	return a * b, true
}

// AlignUp rounds p up to the next multiple of align, which must be a power of
// two. ok is false when rounding wraps past the top of the address space.
func AlignUp(p, align uintptr) (uintptr, bool) {
	mask := align - 1
	if p > ^uintptr(0)-mask {
		return 0, false
	}
	return (p + mask) &^ mask, true
}
