// Package region provides platform-specific helpers for reserving anonymous
// memory regions that back memory-space arenas.
//
// A guarded region is kept inaccessible (PROT_NONE) whenever it is sealed, so
// any host load or store outside an Open/Seal window faults instead of
// silently touching the memory. Platforms without mprotect fall back to an
// ordinary heap slice and treat Open/Seal as no-ops.
package region

import (
	"errors"
	"unsafe"
)

// ErrUnmapped is returned when a region is used after Unmap.
var ErrUnmapped = errors.New("region: unmapped")

// Region is a fixed-size, address-stable block of memory.
type Region struct {
	data    []byte
	guarded bool
}

// Base returns the address of the first byte of the region, or 0 once unmapped.
func (r *Region) Base() uintptr {
	if len(r.data) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&r.data[0]))
}

// Len returns the region size in bytes.
func (r *Region) Len() int { return len(r.data) }

// Guarded reports whether the region is sealed between accesses.
func (r *Region) Guarded() bool { return r.guarded }

// Contains reports whether [addr, addr+n) lies inside the region.
func (r *Region) Contains(addr uintptr, n int) bool {
	base := r.Base()
	if base == 0 || n < 0 || addr < base {
		return false
	}
	off := addr - base
	return off <= uintptr(len(r.data)) && uintptr(n) <= uintptr(len(r.data))-off
}

// Slice returns the bytes [addr, addr+n). For guarded regions the slice is only
// safe to touch between Open and Seal.
func (r *Region) Slice(addr uintptr, n int) ([]byte, bool) {
	if !r.Contains(addr, n) {
		return nil, false
	}
	off := int(addr - r.Base())
	return r.data[off : off+n : off+n], true
}
