package types

import (
	"errors"
	"fmt"
)

// -----------------------------------------------------------------------------
// Typed Errors (stable categories for programmatic handling)
// -----------------------------------------------------------------------------

// ErrKind classifies errors so callers can branch on intent rather than text.
type ErrKind int

const (
	ErrKindOutOfMemory     ErrKind = iota // underlying strategy returned no memory
	ErrKindNotAligned                     // allocation failed the alignment/sentinel check
	ErrKindCopyOverrun                    // copy requested more bytes than an endpoint holds
	ErrKindCorruptRecord                  // pointer does not resolve to a consistent record
	ErrKindCopyUnsupported                // no transfer registered for a strategy pair
	ErrKindState                          // invalid operation for current state
)

// String returns the category name used in diagnostics.
func (k ErrKind) String() string {
	switch k {
	case ErrKindOutOfMemory:
		return "OutOfMemory"
	case ErrKindNotAligned:
		return "AllocationNotAligned"
	case ErrKindCopyOverrun:
		return "CopyOverrun"
	case ErrKindCorruptRecord:
		return "CorruptedRecord"
	case ErrKindCopyUnsupported:
		return "CopyUnsupported"
	case ErrKindState:
		return "State"
	default:
		return fmt.Sprintf("ErrKind(%d)", int(k))
	}
}

// Error is a typed error with an optional underlying cause.
type Error struct {
	Kind ErrKind
	Msg  string
	Err  error // optional underlying cause
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind, so that
// errors.Is(err, ErrCopyOverrun) matches every overrun regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind
}

// Errorf builds an *Error of the given kind with a formatted message.
func Errorf(kind ErrKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// Sentinels commonly returned by implementations.
var (
	// ErrOutOfMemory indicates the allocation strategy could not satisfy a request.
	ErrOutOfMemory = &Error{Kind: ErrKindOutOfMemory, Msg: "out of memory"}
	// ErrNotAligned indicates an allocation failed the alignment or sentinel check.
	ErrNotAligned = &Error{Kind: ErrKindNotAligned, Msg: "allocation not aligned"}
	// ErrCopyOverrun indicates a copy asked for more bytes than an endpoint holds.
	ErrCopyOverrun = &Error{Kind: ErrKindCopyOverrun, Msg: "copy overruns allocation"}
	// ErrCorruptRecord indicates a pointer that does not resolve to its record.
	ErrCorruptRecord = &Error{Kind: ErrKindCorruptRecord, Msg: "corrupted allocation record"}
	// ErrCopyUnsupported indicates no transfer is registered for a strategy pair.
	ErrCopyUnsupported = &Error{Kind: ErrKindCopyUnsupported, Msg: "copy unsupported"}
	// ErrState indicates an operation that is invalid for the current state.
	ErrState = &Error{Kind: ErrKindState, Msg: "invalid state"}
)

// -----------------------------------------------------------------------------
// Raw allocation failures
// -----------------------------------------------------------------------------

// FailureMode distinguishes the two ways a raw allocation can fail.
type FailureMode int

const (
	FailureOutOfMemory FailureMode = iota
	FailureNotAligned
)

func (m FailureMode) String() string {
	if m == FailureNotAligned {
		return "AllocationNotAligned"
	}
	return "OutOfMemory"
}

// AllocationFailure describes a failed raw allocation with enough context to
// diagnose it: requested size, alignment, failure mode and the strategy
// ("mechanism") that was asked. Label and Space are filled in by callers that
// know them.
type AllocationFailure struct {
	Size      int
	Alignment uintptr
	Mode      FailureMode
	Mechanism string
	Label     string
	Space     string
}

func (f *AllocationFailure) Error() string {
	msg := fmt.Sprintf("%s: requested %d bytes aligned to %d using %s",
		f.Mode, f.Size, f.Alignment, f.Mechanism)
	if f.Label != "" || f.Space != "" {
		msg = fmt.Sprintf("allocation of %q in space %q failed: %s", f.Label, f.Space, msg)
	}
	return msg
}

// Unwrap maps the failure onto the matching sentinel.
func (f *AllocationFailure) Unwrap() error {
	if f.Mode == FailureNotAligned {
		return ErrNotAligned
	}
	return ErrOutOfMemory
}
