package resource

// Platform identifies the kind of memory a resource hands out.
type Platform uint8

const (
	PlatformHost    Platform = 1
	PlatformDevice  Platform = 2
	PlatformUnified Platform = 3
	PlatformPinned  Platform = 4
)

// String returns the platform name.
func (p Platform) String() string {
	switch p {
	case PlatformHost:
		return "host"
	case PlatformDevice:
		return "device"
	case PlatformUnified:
		return "unified"
	case PlatformPinned:
		return "pinned"
	default:
		return "unknown"
	}
}

// HostAccessible reports whether memory of this platform can be read and
// written with ordinary host loads and stores.
func (p Platform) HostAccessible() bool {
	return p != PlatformDevice
}

// Built-in resource names.
const (
	Host       = "HOST"
	Device     = "DEVICE"
	Unified    = "UM"
	HostPinned = "HOSTPINNED"
)

// Resource defines the interface for a named allocation strategy.
//
// Implementations:
//   - Arena: contiguous mapping with first-fit allocation
//
// Allocate returns 0 when the request cannot be satisfied. Deallocate is only
// called with addresses previously returned by Allocate.
type Resource interface {
	// Name returns the strategy name used for lookup.
	Name() string

	// Platform returns the kind of memory handed out.
	Platform() Platform

	// Allocate reserves n bytes and returns the start address, or 0 on failure.
	Allocate(n int) uintptr

	// Deallocate releases an address returned by Allocate.
	Deallocate(p uintptr)

	// Access calls fn with the bytes [addr, addr+n). The slice is only valid
	// for the duration of the call.
	Access(addr uintptr, n int, fn func([]byte)) error
}

// Allocation is the manager's record of one live allocation.
type Allocation struct {
	Base     uintptr
	Size     int
	Resource Resource
}

// End returns the first address past the allocation.
func (a Allocation) End() uintptr { return a.Base + uintptr(a.Size) }

// Contains reports whether p lies inside the allocation.
func (a Allocation) Contains(p uintptr) bool {
	return p >= a.Base && p < a.End()
}

// Strategy returns the owning resource's name.
func (a Allocation) Strategy() string {
	if a.Resource == nil {
		return ""
	}
	return a.Resource.Name()
}
