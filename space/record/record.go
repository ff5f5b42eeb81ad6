package record

import (
	"sync/atomic"

	"github.com/joshuapare/spacekit/pkg/types"
	"github.com/joshuapare/spacekit/space"
)

// Record describes one tracked allocation.
type Record struct {
	id    uint64
	raw   space.Ptr // header address
	total int       // header plus payload
	sp    space.Space
	refs  atomic.Int64
	reg   *Registry

	links // root list membership; empty without diagnostics
}

// ID returns the identifier stored in the allocation header.
func (r *Record) ID() uint64 { return r.id }

// Header returns the address of the allocation header.
func (r *Record) Header() space.Ptr { return r.raw }

// Data returns the payload pointer handed to callers.
func (r *Record) Data() space.Ptr { return r.raw.Add(types.HeaderSize) }

// Size returns the payload size.
func (r *Record) Size() int { return r.total - types.HeaderSize }

// TotalSize returns the payload size plus the header.
func (r *Record) TotalSize() int { return r.total }

// Space returns the space the allocation lives in.
func (r *Record) Space() space.Space { return r.sp }

// UseCount returns the current number of references.
func (r *Record) UseCount() int { return int(r.refs.Load()) }

// Label reads the label back from the allocation header. Host-accessible
// headers are read in place; others are copied to the host first.
func (r *Record) Label() (string, error) {
	if r.sp.HostAccessible() {
		b, err := r.sp.Bytes(r.raw, types.HeaderSize)
		if err != nil {
			return "", err
		}
		var h header
		copy(h[:], b)
		return h.label(), nil
	}
	var h header
	if err := r.reg.engine(r.sp).SpaceToHost(h[:], r.raw, false); err != nil {
		return "", err
	}
	return h.label(), nil
}
