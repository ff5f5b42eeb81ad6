package resource

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// smallOptions returns built-in arena options sized for tests.
func smallOptions() Options {
	opts := DefaultOptions()
	opts.HostCapacity = 1 << 20
	opts.DeviceCapacity = 1 << 20
	opts.UnifiedCapacity = 1 << 20
	opts.PinnedCapacity = 1 << 20
	return opts
}

// newTestManager creates an isolated manager with small arenas and closes it
// when the test finishes.
func newTestManager(t testing.TB) *Manager {
	t.Helper()
	m, err := NewDefaultManager(smallOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

// newTestArena creates a standalone arena.
func newTestArena(t testing.TB, platform Platform, capacity int, guarded bool) *Arena {
	t.Helper()
	a, err := NewArena(ArenaConfig{
		Name:     "test-" + platform.String(),
		Platform: platform,
		Capacity: capacity,
		Guarded:  guarded,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}
