package alloc

import (
	"fmt"

	"github.com/joshuapare/spacekit/internal/buf"
	"github.com/joshuapare/spacekit/pkg/types"
	"github.com/joshuapare/spacekit/space/op"
	"github.com/joshuapare/spacekit/space/resource"
)

// notAlignedSentinel is the all-ones address a strategy may return to signal
// that it could not honour the request's alignment.
const notAlignedSentinel = ^uintptr(0)

// Aligned hands out alignment-rounded blocks from one strategy.
type Aligned struct {
	alloc     resource.Allocator
	ops       *op.Registry
	alignment uintptr
}

// NewAligned returns an allocator over a. An alignment of 0 selects
// types.DefaultAlignment.
func NewAligned(a resource.Allocator, ops *op.Registry, alignment uintptr) (*Aligned, error) {
	if alignment == 0 {
		alignment = types.DefaultAlignment
	}
	if !types.IsPowerOfTwo(alignment) {
		return nil, fmt.Errorf("%w: %d", ErrBadAlignment, alignment)
	}
	if ops == nil {
		ops = op.Default()
	}
	return &Aligned{alloc: a, ops: ops, alignment: alignment}, nil
}

// Alignment returns the alignment of every address handed out.
func (a *Aligned) Alignment() uintptr { return a.alignment }

// Mechanism returns the underlying strategy name.
func (a *Aligned) Mechanism() string { return a.alloc.Name() }

// Resource returns the underlying strategy.
func (a *Aligned) Resource() resource.Resource { return a.alloc.Resource() }

// Allocate returns an address aligned to Alignment with at least size usable
// bytes. A zero size returns 0 without touching the strategy. Failures are
// *types.AllocationFailure values.
func (a *Aligned) Allocate(size int) (uintptr, error) {
	if size < 0 {
		return 0, fmt.Errorf("%w: %d", ErrNegativeSize, size)
	}
	if size == 0 {
		return 0, nil
	}

	padded, ok := buf.AddOverflowSafe(size, types.PointerWidth+int(a.alignment))
	if !ok {
		return 0, a.failure(size, types.FailureOutOfMemory)
	}

	base := a.alloc.Allocate(padded)
	switch base {
	case 0:
		return 0, a.failure(size, types.FailureOutOfMemory)
	case notAlignedSentinel:
		return 0, a.failure(size, types.FailureNotAligned)
	}

	p, ok := a.place(base)
	if !ok {
		_ = a.alloc.Deallocate(base)
		return 0, a.failure(size, types.FailureNotAligned)
	}

	var word [types.PointerWidth]byte
	buf.PutWord(word[:], base)
	stash := op.Endpoint{Resource: a.alloc.Resource(), Addr: p - types.PointerWidth}
	if err := a.ops.Transfer(op.Endpoint{Host: word[:]}, stash, len(word)); err != nil {
		_ = a.alloc.Deallocate(base)
		return 0, fmt.Errorf("alloc: stash base pointer: %w", err)
	}
	return p, nil
}

// Deallocate frees an address returned by Allocate. size is informational.
// Deallocating 0 is a no-op.
func (a *Aligned) Deallocate(p uintptr, size int) error {
	_ = size
	if p == 0 {
		return nil
	}
	if p < types.PointerWidth {
		return types.Errorf(types.ErrKindCorruptRecord, "alloc: address 0x%x has no stash word", p)
	}
	var word [types.PointerWidth]byte
	stash := op.Endpoint{Resource: a.alloc.Resource(), Addr: p - types.PointerWidth}
	if err := a.ops.Transfer(stash, op.Endpoint{Host: word[:]}, len(word)); err != nil {
		return fmt.Errorf("alloc: read base pointer: %w", err)
	}
	return a.alloc.Deallocate(buf.Word(word[:]))
}

// place computes the aligned address for a block starting at base.
func (a *Aligned) place(base uintptr) (uintptr, bool) {
	if base > ^uintptr(0)-types.PointerWidth {
		return 0, false
	}
	p, ok := buf.AlignUp(base+types.PointerWidth, a.alignment)
	if !ok || p%a.alignment != 0 {
		return 0, false
	}
	return p, true
}

func (a *Aligned) failure(size int, mode types.FailureMode) error {
	return &types.AllocationFailure{
		Size:      size,
		Alignment: a.alignment,
		Mode:      mode,
		Mechanism: a.alloc.Name(),
	}
}
