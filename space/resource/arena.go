package resource

import (
	"fmt"
	"sync"

	"github.com/joshuapare/spacekit/internal/addrtree"
	"github.com/joshuapare/spacekit/internal/region"
)

// DefaultGranule is the allocation granularity of an arena.
const DefaultGranule = 16

// ArenaConfig configures a single arena.
type ArenaConfig struct {
	Name     string
	Platform Platform
	// Capacity is the size of the backing mapping in bytes.
	Capacity int
	// Granule rounds every allocation up to a multiple of this power of two.
	// Default: DefaultGranule
	Granule int
	// Guarded keeps the mapping inaccessible outside Access.
	Guarded bool
}

// Arena is a Resource that carves allocations out of one contiguous mapping.
// Bookkeeping lives on the Go heap, never inside the mapping, so allocating
// from a guarded arena does not touch its memory.
type Arena struct {
	name     string
	platform Platform
	granule  uintptr

	mu     sync.Mutex
	reg    *region.Region
	free   *addrtree.Tree[uintptr] // span start -> span size
	used   *addrtree.Tree[uintptr] // allocation start -> rounded size
	inUse  int
	closed bool

	// accessMu serializes open/seal windows on guarded mappings.
	accessMu sync.Mutex
}

// NewArena maps the backing region and returns a ready arena.
func NewArena(cfg ArenaConfig) (*Arena, error) {
	granule := cfg.Granule
	if granule == 0 {
		granule = DefaultGranule
	}
	if granule < 0 || granule&(granule-1) != 0 {
		return nil, fmt.Errorf("resource: arena %q granule %d is not a power of two", cfg.Name, granule)
	}
	if cfg.Capacity < granule {
		return nil, fmt.Errorf("resource: arena %q capacity %d too small", cfg.Name, cfg.Capacity)
	}
	// Guards only make sense where host access is not allowed.
	guarded := cfg.Guarded && !cfg.Platform.HostAccessible()

	reg, err := region.Map(cfg.Capacity, guarded)
	if err != nil {
		return nil, fmt.Errorf("resource: arena %q: %w", cfg.Name, err)
	}

	a := &Arena{
		name:     cfg.Name,
		platform: cfg.Platform,
		granule:  uintptr(granule),
		reg:      reg,
		free:     addrtree.New[uintptr](),
		used:     addrtree.New[uintptr](),
	}
	usable := uintptr(reg.Len()) &^ (a.granule - 1)
	a.free.Put(reg.Base(), usable)
	return a, nil
}

// Name implements Resource.
func (a *Arena) Name() string { return a.name }

// Platform implements Resource.
func (a *Arena) Platform() Platform { return a.platform }

// Guarded reports whether the arena's mapping is sealed between accesses.
func (a *Arena) Guarded() bool { return a.reg.Guarded() }

// Capacity returns the size of the backing mapping.
func (a *Arena) Capacity() int { return a.reg.Len() }

// InUse returns the number of bytes currently allocated, after rounding.
func (a *Arena) InUse() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inUse
}

// Live returns the number of outstanding allocations.
func (a *Arena) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.used.Len()
}

// Allocate implements Resource using first-fit over address-ordered free spans.
func (a *Arena) Allocate(n int) uintptr {
	if n <= 0 {
		return 0
	}
	need := (uintptr(n) + a.granule - 1) &^ (a.granule - 1)
	if need < uintptr(n) {
		return 0
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return 0
	}

	var start, size uintptr
	a.free.Ascend(func(s, sz uintptr) bool {
		if sz >= need {
			start, size = s, sz
			return false
		}
		return true
	})
	if size == 0 {
		return 0
	}

	a.free.Delete(start)
	if size > need {
		a.free.Put(start+need, size-need)
	}
	a.used.Put(start, need)
	a.inUse += int(need)
	return start
}

// Deallocate implements Resource. Unknown addresses are ignored.
func (a *Arena) Deallocate(p uintptr) {
	a.mu.Lock()
	defer a.mu.Unlock()

	size, ok := a.used.Get(p)
	if !ok {
		return
	}
	a.used.Delete(p)
	a.inUse -= int(size)

	start := p
	// Merge with the preceding span if it ends where this one starts.
	if ps, psz, ok := a.free.Floor(p); ok && ps+psz == p {
		a.free.Delete(ps)
		start = ps
		size += psz
	}
	// Merge with the following span.
	if nsz, ok := a.free.Get(start + size); ok {
		a.free.Delete(start + size)
		size += nsz
	}
	a.free.Put(start, size)
}

// Access implements Resource. Guarded mappings are opened for the duration of fn.
func (a *Arena) Access(addr uintptr, n int, fn func([]byte)) (err error) {
	b, ok := a.reg.Slice(addr, n)
	if !ok {
		return fmt.Errorf("%w: %s [0x%x + %d]", ErrOutOfBounds, a.name, addr, n)
	}
	if !a.reg.Guarded() {
		fn(b)
		return nil
	}

	a.accessMu.Lock()
	defer a.accessMu.Unlock()
	if err := a.reg.Open(); err != nil {
		return fmt.Errorf("resource: open %s: %w", a.name, err)
	}
	defer func() {
		if sealErr := a.reg.Seal(); sealErr != nil && err == nil {
			err = fmt.Errorf("resource: seal %s: %w", a.name, sealErr)
		}
	}()
	fn(b)
	return nil
}

// Close unmaps the arena. Outstanding allocations become invalid.
func (a *Arena) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	a.accessMu.Lock()
	defer a.accessMu.Unlock()
	return a.reg.Unmap()
}
