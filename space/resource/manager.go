package resource

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/joshuapare/spacekit/internal/addrtree"
	"github.com/joshuapare/spacekit/internal/logger"
)

// Manager resolves strategy names to resources and tracks every allocation
// made through its Allocator handles.
type Manager struct {
	mu        sync.RWMutex
	resources map[string]Resource
	allocs    *addrtree.Tree[Allocation]
}

// NewManager returns a manager with no resources registered.
func NewManager() *Manager {
	return &Manager{
		resources: make(map[string]Resource),
		allocs:    addrtree.New[Allocation](),
	}
}

// NewDefaultManager returns a manager with the four built-in arenas.
func NewDefaultManager(opts Options) (*Manager, error) {
	m := NewManager()
	for _, cfg := range opts.arenas() {
		a, err := NewArena(cfg)
		if err != nil {
			_ = m.Close()
			return nil, err
		}
		if err := m.Register(a); err != nil {
			_ = a.Close()
			_ = m.Close()
			return nil, err
		}
	}
	return m, nil
}

var (
	defaultOnce    sync.Once
	defaultManager *Manager
)

// Default returns the process-wide manager, creating it with DefaultOptions on
// first use. If the built-in arenas cannot be mapped the manager is left empty
// and every lookup fails with ErrUnknownResource.
func Default() *Manager {
	defaultOnce.Do(func() {
		m, err := NewDefaultManager(DefaultOptions())
		if err != nil {
			logger.Error("resource: default manager unavailable", "err", err)
			m = NewManager()
		}
		defaultManager = m
	})
	return defaultManager
}

// Register adds r under its name.
func (m *Manager) Register(r Resource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.resources[r.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateResource, r.Name())
	}
	m.resources[r.Name()] = r
	return nil
}

// Resource returns the resource registered under name.
func (m *Manager) Resource(name string) (Resource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.resources[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownResource, name)
	}
	return r, nil
}

// Names returns the registered resource names in sorted order.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.resources))
	for name := range m.resources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Allocator resolves name to an allocation handle.
func (m *Manager) Allocator(name string) (Allocator, error) {
	r, err := m.Resource(name)
	if err != nil {
		return Allocator{}, err
	}
	return Allocator{m: m, r: r}, nil
}

// FindAllocation returns the live allocation that contains p.
func (m *Manager) FindAllocation(p uintptr) (Allocation, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, a, ok := m.allocs.Floor(p)
	if !ok || !a.Contains(p) {
		return Allocation{}, false
	}
	return a, true
}

// Live returns the number of tracked allocations.
func (m *Manager) Live() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.allocs.Len()
}

// Close closes every registered resource that implements io.Closer.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var errs []error
	for _, r := range m.resources {
		if c, ok := r.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	m.allocs = addrtree.New[Allocation]()
	return errors.Join(errs...)
}

func (m *Manager) track(a Allocation) {
	m.mu.Lock()
	m.allocs.Put(a.Base, a)
	m.mu.Unlock()
}

func (m *Manager) untrack(p uintptr) (Allocation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.allocs.Get(p)
	if !ok {
		return Allocation{}, false
	}
	m.allocs.Delete(p)
	return a, true
}

// Allocator is a handle to one resource that records allocations in its manager.
type Allocator struct {
	m *Manager
	r Resource
}

// Name returns the strategy name.
func (a Allocator) Name() string { return a.r.Name() }

// Resource returns the underlying resource.
func (a Allocator) Resource() Resource { return a.r }

// Allocate reserves n bytes. It returns 0 when the resource cannot satisfy the
// request. Any non-zero address is returned as-is so callers can validate it.
func (a Allocator) Allocate(n int) uintptr {
	p := a.r.Allocate(n)
	if p == 0 || p == ^uintptr(0) {
		return p
	}
	a.m.track(Allocation{Base: p, Size: n, Resource: a.r})
	return p
}

// Deallocate releases an address returned by Allocate.
func (a Allocator) Deallocate(p uintptr) error {
	alloc, ok := a.m.untrack(p)
	if !ok {
		return fmt.Errorf("%w: 0x%x", ErrUnknownPointer, p)
	}
	if alloc.Resource != a.r {
		// Put it back; it belongs to another strategy.
		a.m.track(alloc)
		return fmt.Errorf("%w: 0x%x belongs to %s, not %s",
			ErrUnknownPointer, p, alloc.Strategy(), a.r.Name())
	}
	a.r.Deallocate(p)
	return nil
}
