package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_IsMatchesKind(t *testing.T) {
	err := Errorf(ErrKindCopyOverrun, "copy of %d bytes", 10)
	assert.True(t, errors.Is(err, ErrCopyOverrun))
	assert.False(t, errors.Is(err, ErrCorruptRecord))

	wrapped := fmt.Errorf("outer: %w", err)
	assert.True(t, errors.Is(wrapped, ErrCopyOverrun))
	assert.Equal(t, "outer: copy of 10 bytes", wrapped.Error())
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("mprotect failed")
	err := &Error{Kind: ErrKindState, Msg: "seal", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "seal: mprotect failed", err.Error())
}

func TestKindOf(t *testing.T) {
	k, ok := KindOf(fmt.Errorf("x: %w", ErrNotAligned))
	require.True(t, ok)
	assert.Equal(t, ErrKindNotAligned, k)

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestErrKind_String(t *testing.T) {
	assert.Equal(t, "OutOfMemory", ErrKindOutOfMemory.String())
	assert.Equal(t, "AllocationNotAligned", ErrKindNotAligned.String())
	assert.Equal(t, "CorruptedRecord", ErrKindCorruptRecord.String())
	assert.Equal(t, "ErrKind(42)", ErrKind(42).String())
}

func TestAllocationFailure(t *testing.T) {
	f := &AllocationFailure{Size: 100, Alignment: 64, Mode: FailureOutOfMemory, Mechanism: "DEVICE"}
	assert.True(t, errors.Is(f, ErrOutOfMemory))
	assert.False(t, errors.Is(f, ErrNotAligned))
	assert.Equal(t, "OutOfMemory: requested 100 bytes aligned to 64 using DEVICE", f.Error())

	f.Label, f.Space = "alpha", "DEVICE"
	assert.Contains(t, f.Error(), `allocation of "alpha" in space "DEVICE" failed`)

	f.Mode = FailureNotAligned
	assert.True(t, errors.Is(f, ErrNotAligned))
	k, ok := KindOf(f)
	require.True(t, ok)
	assert.Equal(t, ErrKindNotAligned, k)
}

func TestIsPowerOfTwo(t *testing.T) {
	for _, n := range []uintptr{1, 2, 64, 4096} {
		assert.True(t, IsPowerOfTwo(n), "%d", n)
	}
	for _, n := range []uintptr{0, 3, 48, 100} {
		assert.False(t, IsPowerOfTwo(n), "%d", n)
	}
}
