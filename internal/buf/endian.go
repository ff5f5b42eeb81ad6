// Package buf contains helpers for endian-safe encoding and bounds checks on
// header and payload buffers.
package buf

import "encoding/binary"

// U64LE reads a little-endian uint64 from b. Returns 0 when b is too short.
func U64LE(b []byte) uint64 {
	if len(b) < 8 {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

// PutU64LE writes v as little-endian into b. Reports false when b is too short.
func PutU64LE(b []byte, v uint64) bool {
	if len(b) < 8 {
		return false
	}
	binary.LittleEndian.PutUint64(b, v)
	return true
}

// Word reads a pointer-width (64-bit) little-endian address from b.
func Word(b []byte) uintptr {
	return uintptr(U64LE(b))
}

// PutWord writes a pointer-width address into b.
func PutWord(b []byte, p uintptr) bool {
	return PutU64LE(b, uint64(p))
}
