// Package types defines the error taxonomy and layout constants shared by the
// spacekit packages.
//
// Design goals:
//   - Typed errors with stable categories (out-of-memory/alignment/overrun/...).
//   - Failures are ordinary return values; nothing on the allocation or copy
//     path panics.
//   - Layout constants live in one place so header arithmetic agrees across
//     every memory space.
//
// This package has no dependencies beyond the standard library.
package types
