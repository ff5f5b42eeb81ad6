// Package space is the memory-space facade: a small value describing where
// memory lives and how to get at it.
//
// A Space names an allocation strategy (HOST, DEVICE, UM, HOSTPINNED or any
// resource registered with a resource.Manager) and routes raw allocation
// through an aligned allocator over that strategy. Spaces are cheap to copy;
// copies of the same space are interchangeable.
//
// Tracked allocations with headers, labels and reference counts live in the
// record subpackage. Cross-space copies live in deepcopy.
package space

import (
	"errors"
	"fmt"

	"github.com/joshuapare/spacekit/pkg/types"
	"github.com/joshuapare/spacekit/space/alloc"
	"github.com/joshuapare/spacekit/space/op"
	"github.com/joshuapare/spacekit/space/resource"
)

// Ptr is an address inside a space. The zero value is null.
type Ptr uintptr

// Add returns p advanced by n bytes.
func (p Ptr) Add(n int) Ptr { return p + Ptr(n) }

// IsNull reports whether p is the null address.
func (p Ptr) IsNull() bool { return p == 0 }

// ErrNotHostAccessible indicates a direct host view of device memory.
var ErrNotHostAccessible = errors.New("space: memory is not host accessible")

// Space describes one memory space.
type Space struct {
	name      string
	alignment uintptr
	platform  resource.Platform
	rm        *resource.Manager
	ops       *op.Registry
	raw       *alloc.Aligned
}

// Option configures New.
type Option func(*Space)

// WithManager routes the space through m instead of resource.Default().
func WithManager(m *resource.Manager) Option {
	return func(s *Space) { s.rm = m }
}

// WithOps uses r for transfers instead of op.Default().
func WithOps(r *op.Registry) Option {
	return func(s *Space) { s.ops = r }
}

// WithAlignment sets the alignment of raw allocations. It must be a power of two.
func WithAlignment(a uintptr) Option {
	return func(s *Space) { s.alignment = a }
}

// New returns the space backed by the named strategy.
func New(name string, opts ...Option) (Space, error) {
	s := Space{name: name, alignment: types.DefaultAlignment}
	for _, o := range opts {
		o(&s)
	}
	if s.rm == nil {
		s.rm = resource.Default()
	}
	if s.ops == nil {
		s.ops = op.Default()
	}
	a, err := s.rm.Allocator(name)
	if err != nil {
		return Space{}, err
	}
	raw, err := alloc.NewAligned(a, s.ops, s.alignment)
	if err != nil {
		return Space{}, fmt.Errorf("space %s: %w", name, err)
	}
	s.raw = raw
	s.platform = a.Resource().Platform()
	return s, nil
}

// Host returns the HOST space.
func Host(opts ...Option) (Space, error) { return New(resource.Host, opts...) }

// Device returns the DEVICE space.
func Device(opts ...Option) (Space, error) { return New(resource.Device, opts...) }

// Name returns the strategy name.
func (s Space) Name() string { return s.name }

// String implements fmt.Stringer.
func (s Space) String() string { return s.name }

// HostAccessible reports whether host code may read and write the space's memory directly.
func (s Space) HostAccessible() bool { return s.platform.HostAccessible() }

// Platform returns the platform of the backing resource.
func (s Space) Platform() resource.Platform { return s.platform }

// Alignment returns the alignment of raw allocations.
func (s Space) Alignment() uintptr { return s.alignment }

// Manager returns the resource manager the space routes through.
func (s Space) Manager() *resource.Manager { return s.rm }

// Ops returns the transfer registry the space uses.
func (s Space) Ops() *op.Registry { return s.ops }

// Resource returns the backing resource.
func (s Space) Resource() resource.Resource {
	if s.raw == nil {
		return nil
	}
	return s.raw.Resource()
}

// Equal reports whether two spaces draw from the same resource.
func (s Space) Equal(o Space) bool {
	return s.name == o.name && s.rm == o.rm
}

// IsZero reports whether s was never initialised by New.
func (s Space) IsZero() bool { return s.raw == nil }

// Allocate returns n raw bytes aligned to Alignment. Zero n returns null.
func (s Space) Allocate(n int) (Ptr, error) {
	if s.raw == nil {
		return 0, types.Errorf(types.ErrKindState, "space: allocate from uninitialised space")
	}
	p, err := s.raw.Allocate(n)
	if err != nil {
		var f *types.AllocationFailure
		if errors.As(err, &f) {
			f.Space = s.name
		}
		return 0, err
	}
	return Ptr(p), nil
}

// Deallocate frees memory returned by Allocate.
func (s Space) Deallocate(p Ptr, n int) error {
	if s.raw == nil {
		return types.Errorf(types.ErrKindState, "space: deallocate from uninitialised space")
	}
	return s.raw.Deallocate(uintptr(p), n)
}

// Access calls fn with n bytes at p. It works for every space; device memory
// is opened only for the duration of fn.
func (s Space) Access(p Ptr, n int, fn func([]byte)) error {
	r := s.Resource()
	if r == nil {
		return types.Errorf(types.ErrKindState, "space: access through uninitialised space")
	}
	return r.Access(uintptr(p), n, fn)
}

// Bytes returns a direct slice of n bytes at p. It fails with
// ErrNotHostAccessible for device spaces. The slice stays valid until p is
// deallocated.
func (s Space) Bytes(p Ptr, n int) ([]byte, error) {
	if !s.HostAccessible() {
		return nil, fmt.Errorf("%w: %s", ErrNotHostAccessible, s.name)
	}
	var out []byte
	if err := s.Access(p, n, func(b []byte) { out = b }); err != nil {
		return nil, err
	}
	return out, nil
}

// Endpoint returns the transfer descriptor for p in this space.
func (s Space) Endpoint(p Ptr) op.Endpoint {
	return op.Endpoint{Resource: s.Resource(), Addr: uintptr(p)}
}
