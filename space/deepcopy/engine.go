// Package deepcopy moves bytes between memory spaces.
//
// Every copy is bounds-checked against the allocation that owns each side
// before any byte moves, recorded as a replay event, and then dispatched to
// the COPY operation registered for the pair of platforms involved.
//
// The offset flag says whether a pointer is a payload pointer (one header
// width past an allocation header) or the header address itself. Payload
// pointers have the header excluded from the bytes available to the copy.
package deepcopy

import (
	"github.com/joshuapare/spacekit/internal/logger"
	"github.com/joshuapare/spacekit/pkg/types"
	"github.com/joshuapare/spacekit/space"
	"github.com/joshuapare/spacekit/space/exec"
	"github.com/joshuapare/spacekit/space/op"
	"github.com/joshuapare/spacekit/space/replay"
	"github.com/joshuapare/spacekit/space/resource"
)

// Engine performs checked cross-space copies.
type Engine struct {
	rm  *resource.Manager
	ops *op.Registry
	rec replay.Recorder
}

// New returns an engine resolving pointers through rm. Nil arguments select
// resource.Default(), op.Default() and a LogRecorder.
func New(rm *resource.Manager, ops *op.Registry, rec replay.Recorder) *Engine {
	if rm == nil {
		rm = resource.Default()
	}
	if ops == nil {
		ops = op.Default()
	}
	if rec == nil {
		rec = replay.LogRecorder{}
	}
	return &Engine{rm: rm, ops: ops, rec: rec}
}

// ForSpace returns an engine sharing sp's manager and op registry.
func ForSpace(sp space.Space, rec replay.Recorder) *Engine {
	return New(sp.Manager(), sp.Ops(), rec)
}

// side is one resolved end of a copy.
type side struct {
	alloc     resource.Allocation
	header    uintptr
	ptr       uintptr
	available int
}

func (e *Engine) resolve(p uintptr, offset bool) (side, error) {
	hdr := p
	if offset {
		if p < types.HeaderSize {
			return side{}, types.Errorf(types.ErrKindCorruptRecord,
				"deepcopy: 0x%x is not a payload pointer", p)
		}
		hdr = p - types.HeaderSize
	}
	a, ok := e.rm.FindAllocation(hdr)
	if !ok {
		return side{}, types.Errorf(types.ErrKindCorruptRecord,
			"deepcopy: 0x%x is not inside any allocation", hdr)
	}
	avail := a.Size - int(hdr-a.Base)
	if offset {
		avail -= types.HeaderSize
	}
	return side{alloc: a, header: hdr, ptr: p, available: avail}, nil
}

func (s side) endpoint() op.Endpoint {
	return op.Endpoint{Resource: s.alloc.Resource, Addr: s.ptr}
}

// hostEndpoint wraps an untracked host buffer, attributed to the manager's
// HOST resource when it has one.
func (e *Engine) hostEndpoint(b []byte) op.Endpoint {
	host, err := e.rm.Resource(resource.Host)
	if err != nil || !host.Platform().HostAccessible() {
		host = nil
	}
	return op.HostEndpoint(host, b)
}

func overrun(which string, n int, s side) error {
	return types.Errorf(types.ErrKindCopyOverrun,
		"deepcopy: %s 0x%x holds %d bytes, copy wants %d", which, s.ptr, s.available, n)
}

// record emits a copy event. A failing recorder never fails the copy.
func (e *Engine) record(ev replay.Event) {
	ev.Kind = replay.KindCopy
	if err := e.rec.Record(ev); err != nil {
		logger.Warn("deepcopy: replay event dropped",
			"src", ev.SrcStrategy, "dst", ev.DstStrategy, "size", ev.Size, "err", err)
	}
}

// SpaceToSpace copies n bytes from src to dst.
func (e *Engine) SpaceToSpace(dst, src space.Ptr, n int, offset bool) error {
	if n == 0 {
		return nil
	}
	d, err := e.resolve(uintptr(dst), offset)
	if err != nil {
		return err
	}
	s, err := e.resolve(uintptr(src), offset)
	if err != nil {
		return err
	}
	if n < 0 {
		return types.Errorf(types.ErrKindCopyOverrun, "deepcopy: negative copy size %d", n)
	}
	if n > s.available {
		return overrun("source", n, s)
	}
	if n > d.available {
		return overrun("destination", n, d)
	}
	e.record(replay.Event{
		Src:         s.header,
		SrcOffset:   uint64(s.ptr - s.header),
		Dst:         d.header,
		DstOffset:   uint64(d.ptr - d.header),
		Size:        uint64(n),
		SrcStrategy: s.alloc.Strategy(),
		DstStrategy: d.alloc.Strategy(),
	})
	return e.ops.Transfer(s.endpoint(), d.endpoint(), n)
}

// HostToSpace copies all of src into dst.
func (e *Engine) HostToSpace(dst space.Ptr, src []byte, offset bool) error {
	n := len(src)
	if n == 0 {
		return nil
	}
	d, err := e.resolve(uintptr(dst), offset)
	if err != nil {
		return err
	}
	if n > d.available {
		return overrun("destination", n, d)
	}
	e.record(replay.Event{
		Dst:         d.header,
		DstOffset:   uint64(d.ptr - d.header),
		Size:        uint64(n),
		SrcStrategy: resource.Host,
		DstStrategy: d.alloc.Strategy(),
	})
	return e.ops.Transfer(e.hostEndpoint(src), d.endpoint(), n)
}

// SpaceToHost fills all of dst from src.
func (e *Engine) SpaceToHost(dst []byte, src space.Ptr, offset bool) error {
	n := len(dst)
	if n == 0 {
		return nil
	}
	s, err := e.resolve(uintptr(src), offset)
	if err != nil {
		return err
	}
	if n > s.available {
		return overrun("source", n, s)
	}
	e.record(replay.Event{
		Src:         s.header,
		SrcOffset:   uint64(s.ptr - s.header),
		Size:        uint64(n),
		SrcStrategy: s.alloc.Strategy(),
		DstStrategy: resource.Host,
	})
	return e.ops.Transfer(s.endpoint(), e.hostEndpoint(dst), n)
}

// DeepCopy copies n payload bytes between two tracked allocations.
func (e *Engine) DeepCopy(dst, src space.Ptr, n int) error {
	return e.SpaceToSpace(dst, src, n, true)
}

// FromHost copies a host buffer into a tracked allocation's payload.
func (e *Engine) FromHost(dst space.Ptr, src []byte) error {
	return e.HostToSpace(dst, src, true)
}

// ToHost copies a tracked allocation's payload into a host buffer.
func (e *Engine) ToHost(dst []byte, src space.Ptr) error {
	return e.SpaceToHost(dst, src, true)
}

// DeepCopyExec is DeepCopy ordered on ctx: prior work on ctx completes
// before the copy starts and the copy completes before it returns.
func (e *Engine) DeepCopyExec(ctx exec.Context, dst, src space.Ptr, n int) error {
	return fenced(ctx, func() error { return e.DeepCopy(dst, src, n) })
}

// FromHostExec is FromHost ordered on ctx.
func (e *Engine) FromHostExec(ctx exec.Context, dst space.Ptr, src []byte) error {
	return fenced(ctx, func() error { return e.FromHost(dst, src) })
}

// ToHostExec is ToHost ordered on ctx.
func (e *Engine) ToHostExec(ctx exec.Context, dst []byte, src space.Ptr) error {
	return fenced(ctx, func() error { return e.ToHost(dst, src) })
}

func fenced(ctx exec.Context, fn func() error) error {
	if err := ctx.Fence(); err != nil {
		return err
	}
	if err := fn(); err != nil {
		return err
	}
	return ctx.Fence()
}
