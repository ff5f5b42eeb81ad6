// Package testutil holds fixtures shared by the spacekit package tests.
package testutil

import (
	"testing"

	"github.com/joshuapare/spacekit/space/resource"
)

// SmallCapacity is the arena size used by NewManager.
const SmallCapacity = 1 << 20

// SmallOptions returns built-in arena options of the given capacity. Device
// memory stays guarded.
func SmallOptions(capacity int) resource.Options {
	opts := resource.DefaultOptions()
	opts.HostCapacity = capacity
	opts.DeviceCapacity = capacity
	opts.UnifiedCapacity = capacity
	opts.PinnedCapacity = capacity
	return opts
}

// NewManager creates an isolated manager with SmallCapacity arenas that is
// closed when the test finishes.
//
// Example:
//
//	m := testutil.NewManager(t)
//	sp, err := space.Device(space.WithManager(m))
func NewManager(t testing.TB) *resource.Manager {
	t.Helper()
	return NewManagerWithCapacity(t, SmallCapacity)
}

// NewManagerWithCapacity is NewManager with a custom arena size.
func NewManagerWithCapacity(t testing.TB, capacity int) *resource.Manager {
	t.Helper()
	m, err := resource.NewDefaultManager(SmallOptions(capacity))
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	t.Cleanup(func() {
		if err := m.Close(); err != nil {
			t.Errorf("Failed to close manager: %v", err)
		}
	})
	return m
}

// Pattern returns n bytes of a deterministic, non-repeating-per-256 pattern
// seeded by seed.
func Pattern(n int, seed byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i*31) + seed
	}
	return b
}
