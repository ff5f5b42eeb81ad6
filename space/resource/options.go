package resource

const (
	// DefaultCapacity is the mapping size of each built-in arena.
	DefaultCapacity = 32 << 20
)

// Options configures the built-in arenas created by NewDefaultManager.
type Options struct {
	// HostCapacity is the size of the HOST arena in bytes.
	// Default: DefaultCapacity
	HostCapacity int

	// DeviceCapacity is the size of the DEVICE arena in bytes.
	// Default: DefaultCapacity
	DeviceCapacity int

	// UnifiedCapacity is the size of the UM arena in bytes.
	// Default: DefaultCapacity
	UnifiedCapacity int

	// PinnedCapacity is the size of the HOSTPINNED arena in bytes.
	// Default: DefaultCapacity
	PinnedCapacity int

	// Granule is the allocation granularity of every arena.
	// Default: DefaultGranule
	Granule int

	// GuardDevice seals DEVICE memory between accesses so stray host loads fault.
	// Default: true
	GuardDevice bool
}

// DefaultOptions returns the configuration used by Default.
func DefaultOptions() Options {
	return Options{
		HostCapacity:    DefaultCapacity,
		DeviceCapacity:  DefaultCapacity,
		UnifiedCapacity: DefaultCapacity,
		PinnedCapacity:  DefaultCapacity,
		Granule:         DefaultGranule,
		GuardDevice:     true,
	}
}

func (o Options) arenas() []ArenaConfig {
	return []ArenaConfig{
		{Name: Host, Platform: PlatformHost, Capacity: o.HostCapacity, Granule: o.Granule},
		{Name: Device, Platform: PlatformDevice, Capacity: o.DeviceCapacity, Granule: o.Granule, Guarded: o.GuardDevice},
		{Name: Unified, Platform: PlatformUnified, Capacity: o.UnifiedCapacity, Granule: o.Granule},
		{Name: HostPinned, Platform: PlatformPinned, Capacity: o.PinnedCapacity, Granule: o.Granule},
	}
}
