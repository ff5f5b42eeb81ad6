package alloc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/spacekit/internal/buf"
	"github.com/joshuapare/spacekit/internal/testutil"
	"github.com/joshuapare/spacekit/pkg/types"
	"github.com/joshuapare/spacekit/space/op"
	"github.com/joshuapare/spacekit/space/resource"
)

// fakeResource returns a fixed address from Allocate and records frees.
type fakeResource struct {
	addr  uintptr
	freed []uintptr
}

func (f *fakeResource) Name() string { return "FAKE" }
func (f *fakeResource) Platform() resource.Platform { return resource.PlatformHost }
func (f *fakeResource) Allocate(int) uintptr { return f.addr }
func (f *fakeResource) Deallocate(p uintptr) { f.freed = append(f.freed, p) }
func (f *fakeResource) Access(uintptr, int, func([]byte)) error {
	return errors.New("fake: no memory")
}

func newAligned(t *testing.T, m *resource.Manager, name string, alignment uintptr) *Aligned {
	t.Helper()
	a, err := m.Allocator(name)
	require.NoError(t, err)
	al, err := NewAligned(a, op.Default(), alignment)
	require.NoError(t, err)
	return al
}

func readWord(t *testing.T, r resource.Resource, p uintptr) uintptr {
	t.Helper()
	var w uintptr
	require.NoError(t, r.Access(p-types.PointerWidth, types.PointerWidth, func(b []byte) {
		w = buf.Word(b)
	}))
	return w
}

func TestAligned_AddressesAreAligned(t *testing.T) {
	m := testutil.NewManager(t)
	for _, name := range []string{resource.Host, resource.Device, resource.Unified, resource.HostPinned} {
		al := newAligned(t, m, name, 0)
		require.Equal(t, uintptr(types.DefaultAlignment), al.Alignment())
		for _, size := range []int{1, 7, 8, 63, 64, 65, 100, 1000, 4096} {
			p, err := al.Allocate(size)
			require.NoError(t, err, "%s size %d", name, size)
			assert.Zero(t, p%types.DefaultAlignment, "%s size %d", name, size)

			base := readWord(t, al.Resource(), p)
			alloc, ok := m.FindAllocation(base)
			require.True(t, ok)
			assert.Equal(t, base, alloc.Base)
			assert.GreaterOrEqual(t, alloc.End(), p+uintptr(size), "payload must fit in the padded block")

			require.NoError(t, al.Deallocate(p, size))
		}
	}
	assert.Zero(t, m.Live())
}

func TestAligned_CustomAlignment(t *testing.T) {
	m := testutil.NewManager(t)
	al := newAligned(t, m, resource.Host, 4096)
	p, err := al.Allocate(10)
	require.NoError(t, err)
	assert.Zero(t, p%4096)
	require.NoError(t, al.Deallocate(p, 10))
}

func TestAligned_BadAlignment(t *testing.T) {
	m := testutil.NewManager(t)
	a, err := m.Allocator(resource.Host)
	require.NoError(t, err)
	_, err = NewAligned(a, nil, 48)
	require.ErrorIs(t, err, ErrBadAlignment)
}

func TestAligned_ZeroSize(t *testing.T) {
	m := testutil.NewManager(t)
	al := newAligned(t, m, resource.Host, 0)
	p, err := al.Allocate(0)
	require.NoError(t, err)
	assert.Zero(t, p)
	assert.Zero(t, m.Live())
	require.NoError(t, al.Deallocate(0, 0))
}

func TestAligned_NegativeSize(t *testing.T) {
	m := testutil.NewManager(t)
	al := newAligned(t, m, resource.Host, 0)
	_, err := al.Allocate(-1)
	require.ErrorIs(t, err, ErrNegativeSize)
}

func TestAligned_OutOfMemory(t *testing.T) {
	m := testutil.NewManagerWithCapacity(t, 4096)
	al := newAligned(t, m, resource.Device, 0)

	_, err := al.Allocate(1 << 20)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrOutOfMemory))

	var f *types.AllocationFailure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, 1<<20, f.Size)
	assert.Equal(t, uintptr(64), f.Alignment)
	assert.Equal(t, types.FailureOutOfMemory, f.Mode)
	assert.Equal(t, resource.Device, f.Mechanism)
}

func TestAligned_SentinelIsNotAligned(t *testing.T) {
	fake := &fakeResource{addr: ^uintptr(0)}
	m := resource.NewManager()
	require.NoError(t, m.Register(fake))
	al := newAligned(t, m, "FAKE", 0)

	_, err := al.Allocate(16)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrNotAligned))
	assert.Empty(t, fake.freed, "sentinel is not a real block")
}

func TestAligned_RoundingOverflowIsNotAligned(t *testing.T) {
	base := ^uintptr(0) - 16
	fake := &fakeResource{addr: base}
	m := resource.NewManager()
	require.NoError(t, m.Register(fake))
	al := newAligned(t, m, "FAKE", 0)

	_, err := al.Allocate(16)
	require.Error(t, err)
	var f *types.AllocationFailure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, types.FailureNotAligned, f.Mode)
	assert.Equal(t, []uintptr{base}, fake.freed)
}

func TestAligned_StashFailureReleasesBlock(t *testing.T) {
	fake := &fakeResource{addr: 0x10000}
	m := resource.NewManager()
	require.NoError(t, m.Register(fake))
	al := newAligned(t, m, "FAKE", 0)

	_, err := al.Allocate(16)
	require.Error(t, err)
	assert.Equal(t, []uintptr{0x10000}, fake.freed)
	assert.Zero(t, m.Live())
}

func TestAligned_PayloadRoundTripOnDevice(t *testing.T) {
	m := testutil.NewManager(t)
	al := newAligned(t, m, resource.Device, 0)
	p, err := al.Allocate(256)
	require.NoError(t, err)

	want := make([]byte, 256)
	for i := range want {
		want[i] = byte(i)
	}
	require.NoError(t, op.Default().Transfer(op.Endpoint{Host: want}, op.Endpoint{Resource: al.Resource(), Addr: p}, len(want)))

	got := make([]byte, 256)
	require.NoError(t, op.Default().Transfer(op.Endpoint{Resource: al.Resource(), Addr: p}, op.Endpoint{Host: got}, len(got)))
	assert.Equal(t, want, got)
	require.NoError(t, al.Deallocate(p, 256))
}
