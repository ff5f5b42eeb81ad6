package record

import (
	"errors"
	"fmt"
	"sync"

	"github.com/joshuapare/spacekit/internal/buf"
	"github.com/joshuapare/spacekit/internal/logger"
	"github.com/joshuapare/spacekit/pkg/types"
	"github.com/joshuapare/spacekit/space"
	"github.com/joshuapare/spacekit/space/deepcopy"
	"github.com/joshuapare/spacekit/space/op"
	"github.com/joshuapare/spacekit/space/replay"
	"github.com/joshuapare/spacekit/space/resource"
)

// Options configures a Registry.
type Options struct {
	// Recorder receives allocate, deallocate and copy events. Events are
	// numbered before they reach it.
	// Default: replay.LogRecorder{}
	Recorder replay.Recorder
}

// DefaultOptions returns the options used by Default.
func DefaultOptions() Options {
	return Options{Recorder: replay.LogRecorder{}}
}

// rootKey identifies the space a record belongs to.
type rootKey struct {
	rm   *resource.Manager
	name string
}

func keyOf(sp space.Space) rootKey { return rootKey{rm: sp.Manager(), name: sp.Name()} }

type engineKey struct {
	rm  *resource.Manager
	ops *op.Registry
}

// Registry owns the records of tracked allocations.
type Registry struct {
	rec replay.Recorder

	mu      sync.Mutex
	nextID  uint64
	byID    map[uint64]*Record
	roots   map[rootKey]*rootList
	engines map[engineKey]*deepcopy.Engine
}

// NewRegistry returns an empty registry.
func NewRegistry(opts Options) *Registry {
	rec := opts.Recorder
	if rec == nil {
		rec = replay.LogRecorder{}
	}
	return &Registry{
		rec:     replay.Sequence(rec),
		byID:    make(map[uint64]*Record),
		roots:   make(map[rootKey]*rootList),
		engines: make(map[engineKey]*deepcopy.Engine),
	}
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide registry.
func Default() *Registry {
	defaultOnce.Do(func() { defaultRegistry = NewRegistry(DefaultOptions()) })
	return defaultRegistry
}

// engine returns the copy engine for sp's manager and op registry.
func (g *Registry) engine(sp space.Space) *deepcopy.Engine {
	k := engineKey{rm: sp.Manager(), ops: sp.Ops()}
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.engines[k]
	if !ok {
		e = deepcopy.New(k.rm, k.ops, g.rec)
		g.engines[k] = e
	}
	return e
}

// Engine returns the copy engine the registry uses for sp. Copies through it
// share the registry's event numbering.
func (g *Registry) Engine(sp space.Space) *deepcopy.Engine { return g.engine(sp) }

// Allocate creates a record for n payload bytes in sp with a reference count
// of zero. Failures are logged with the label and space name.
func (g *Registry) Allocate(sp space.Space, label string, n int) (*Record, error) {
	if n < 0 {
		return nil, types.Errorf(types.ErrKindState, "record: negative size %d for %q", n, label)
	}
	total, ok := buf.AddOverflowSafe(n, types.HeaderSize)
	if !ok {
		return nil, types.Errorf(types.ErrKindOutOfMemory, "record: size %d for %q overflows", n, label)
	}

	raw, err := sp.Allocate(total)
	if err != nil {
		var f *types.AllocationFailure
		if errors.As(err, &f) {
			f.Label = label
			f.Space = sp.Name()
		}
		logger.Error("record: failed to allocate memory",
			"label", label, "space", sp.Name(), "size", n, "err", err)
		return nil, err
	}

	g.mu.Lock()
	g.nextID++
	id := g.nextID
	g.mu.Unlock()

	r := &Record{id: id, raw: raw, total: total, sp: sp, reg: g}
	h := newHeader(id, label)
	if err := g.engine(sp).HostToSpace(raw, h[:], false); err != nil {
		_ = sp.Deallocate(raw, total)
		logger.Error("record: failed to write header",
			"label", label, "space", sp.Name(), "err", err)
		return nil, fmt.Errorf("record: write header for %q: %w", label, err)
	}

	g.mu.Lock()
	g.byID[id] = r
	g.rootFor(keyOf(sp)).push(r)
	g.mu.Unlock()

	g.event(replay.KindAllocate, r, h.label())
	return r, nil
}

// rootFor returns the root list for k. Callers hold g.mu.
func (g *Registry) rootFor(k rootKey) *rootList {
	l, ok := g.roots[k]
	if !ok {
		l = &rootList{}
		g.roots[k] = l
	}
	return l
}

func (g *Registry) event(kind replay.Kind, r *Record, label string) {
	err := g.rec.Record(replay.Event{
		Kind:        kind,
		Dst:         uintptr(r.raw),
		DstOffset:   types.HeaderSize,
		Size:        uint64(r.Size()),
		DstStrategy: r.sp.Name(),
		Label:       label,
	})
	if err != nil {
		logger.Warn("record: replay event dropped", "kind", kind.String(), "err", err)
	}
}

// Increment adds a reference to r. A nil record is ignored.
func (g *Registry) Increment(r *Record) {
	if r == nil {
		return
	}
	r.refs.Add(1)
}

// Decrement drops a reference to r. When the count reaches zero the record is
// destroyed: its header owner is cleared, it leaves the registry and its
// memory returns to the space. A nil record is ignored.
func (g *Registry) Decrement(r *Record) error {
	if r == nil {
		return nil
	}
	n := r.refs.Add(-1)
	switch {
	case n < 0:
		r.refs.Add(1)
		return types.Errorf(types.ErrKindState, "record: decrement of record %d with no references", r.id)
	case n > 0:
		return nil
	}
	return g.destroy(r)
}

func (g *Registry) destroy(r *Record) error {
	var errs []error
	var zero [types.HeaderOwnerSize]byte
	if err := g.engine(r.sp).HostToSpace(r.raw, zero[:], false); err != nil {
		errs = append(errs, fmt.Errorf("record: clear header of %d: %w", r.id, err))
	}

	g.mu.Lock()
	delete(g.byID, r.id)
	if l, ok := g.roots[keyOf(r.sp)]; ok {
		l.remove(r)
	}
	g.mu.Unlock()

	g.event(replay.KindDeallocate, r, "")
	if err := r.sp.Deallocate(r.raw, r.total); err != nil {
		errs = append(errs, err)
	}
	logger.Debug("record: destroyed", "id", r.id, "space", r.sp.Name(), "size", r.Size())
	return errors.Join(errs...)
}

// AllocateTracked allocates n bytes with a single reference and returns the
// payload pointer. A zero size returns null.
func (g *Registry) AllocateTracked(sp space.Space, label string, n int) (space.Ptr, error) {
	if n == 0 {
		return 0, nil
	}
	r, err := g.Allocate(sp, label, n)
	if err != nil {
		return 0, err
	}
	g.Increment(r)
	return r.Data(), nil
}

// DeallocateTracked drops the reference taken by AllocateTracked. Null is a no-op.
func (g *Registry) DeallocateTracked(sp space.Space, p space.Ptr) error {
	if p.IsNull() {
		return nil
	}
	r, err := g.GetRecord(sp, p)
	if err != nil {
		return err
	}
	return g.Decrement(r)
}

// ReallocateTracked moves the payload at p into a fresh allocation of n bytes
// with the same label, copying min(old, n) bytes, and releases the old one.
// A zero size releases p and returns null.
func (g *Registry) ReallocateTracked(sp space.Space, p space.Ptr, n int) (space.Ptr, error) {
	if p.IsNull() {
		return 0, types.Errorf(types.ErrKindState, "record: reallocate of null pointer")
	}
	old, err := g.GetRecord(sp, p)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, g.Decrement(old)
	}
	label, err := old.Label()
	if err != nil {
		return 0, err
	}
	r, err := g.Allocate(sp, label, n)
	if err != nil {
		return 0, err
	}
	if err := g.engine(sp).DeepCopy(r.Data(), old.Data(), min(old.Size(), r.Size())); err != nil {
		g.Increment(r)
		_ = g.Decrement(r)
		return 0, err
	}
	g.Increment(r)
	if err := g.Decrement(old); err != nil {
		return r.Data(), err
	}
	return r.Data(), nil
}

// GetRecord returns the record owning the payload pointer p. The header is
// always copied to the host before it is inspected. Null yields a nil record.
func (g *Registry) GetRecord(sp space.Space, p space.Ptr) (*Record, error) {
	if p.IsNull() {
		return nil, nil
	}
	if uintptr(p) < types.HeaderSize {
		return nil, types.Errorf(types.ErrKindCorruptRecord, "record: 0x%x is not a payload pointer", uintptr(p))
	}
	hdr := p - types.HeaderSize

	var h header
	if err := g.engine(sp).SpaceToHost(h[:], hdr, false); err != nil {
		return nil, err
	}

	g.mu.Lock()
	r := g.byID[h.owner()]
	g.mu.Unlock()
	if r == nil || r.raw != hdr || !r.sp.Equal(sp) {
		return nil, types.Errorf(types.ErrKindCorruptRecord,
			"record: header at 0x%x in %s names no live record", uintptr(hdr), sp.Name())
	}
	return r, nil
}

// Label returns the label of the allocation owning p.
func (g *Registry) Label(sp space.Space, p space.Ptr) (string, error) {
	r, err := g.GetRecord(sp, p)
	if err != nil {
		return "", err
	}
	if r == nil {
		return "", types.Errorf(types.ErrKindState, "record: label of null pointer")
	}
	return r.Label()
}

// Live returns the number of live records in sp.
func (g *Registry) Live(sp space.Space) int {
	k := keyOf(sp)
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, r := range g.byID {
		if keyOf(r.sp) == k {
			n++
		}
	}
	return n
}
