// Package record tracks labelled, reference-counted allocations inside memory
// spaces.
//
// Every tracked allocation begins with a fixed header:
//
//	offset  size  field
//	0       8     owner record ID (little endian)
//	8       120   label, NUL terminated
//	128     n     payload
//
// Callers hold the payload pointer. The header is written and read through
// the deep-copy engine, never by host loads, so it works the same way for
// memory the host cannot touch. A pointer is trusted only when the record its
// header names still claims that header address; anything else is reported
// as a corrupted record.
//
// Records live in a Registry. Default returns the process-wide one.
package record
