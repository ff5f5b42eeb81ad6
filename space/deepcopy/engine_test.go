package deepcopy

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/spacekit/internal/testutil"
	"github.com/joshuapare/spacekit/pkg/types"
	"github.com/joshuapare/spacekit/space"
	"github.com/joshuapare/spacekit/space/exec"
	"github.com/joshuapare/spacekit/space/op"
	"github.com/joshuapare/spacekit/space/replay"
	"github.com/joshuapare/spacekit/space/resource"
)

type captured struct {
	mu     sync.Mutex
	events []replay.Event
}

func (c *captured) Record(ev replay.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	return nil
}

type fixture struct {
	host, device space.Space
	rec          *captured
	eng          *Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	m := testutil.NewManager(t)
	host, err := space.Host(space.WithManager(m))
	require.NoError(t, err)
	device, err := space.Device(space.WithManager(m))
	require.NoError(t, err)
	rec := &captured{}
	return &fixture{host: host, device: device, rec: rec, eng: ForSpace(host, replay.Sequence(rec))}
}

func (f *fixture) alloc(t *testing.T, sp space.Space, n int) space.Ptr {
	t.Helper()
	p, err := sp.Allocate(n)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sp.Deallocate(p, n) })
	return p
}

func pattern(n int) []byte { return testutil.Pattern(n, 3) }

func TestEngine_RoundTripThroughDevice(t *testing.T) {
	f := newFixture(t)
	h := f.alloc(t, f.host, 512)
	d := f.alloc(t, f.device, 512)

	want := pattern(512)
	require.NoError(t, f.eng.HostToSpace(h, want, false))
	require.NoError(t, f.eng.SpaceToSpace(d, h, 512, false))

	got := make([]byte, 512)
	require.NoError(t, f.eng.SpaceToHost(got, d, false))
	assert.Equal(t, want, got)

	require.Len(t, f.rec.events, 3)
	ev := f.rec.events[1]
	assert.Equal(t, replay.KindCopy, ev.Kind)
	assert.Equal(t, uint64(2), ev.Seq)
	assert.Equal(t, uintptr(h), ev.Src)
	assert.Equal(t, uintptr(d), ev.Dst)
	assert.Zero(t, ev.SrcOffset)
	assert.Equal(t, uint64(512), ev.Size)
	assert.Equal(t, resource.Host, ev.SrcStrategy)
	assert.Equal(t, resource.Device, ev.DstStrategy)
}

func TestEngine_OffsetExcludesHeader(t *testing.T) {
	f := newFixture(t)
	hdr := f.alloc(t, f.device, types.HeaderSize+64)
	payload := hdr.Add(types.HeaderSize)

	require.NoError(t, f.eng.FromHost(payload, pattern(64)))
	got := make([]byte, 64)
	require.NoError(t, f.eng.ToHost(got, payload))
	assert.Equal(t, pattern(64), got)

	ev := f.rec.events[0]
	assert.Equal(t, uintptr(hdr), ev.Dst)
	assert.Equal(t, uint64(types.HeaderSize), ev.DstOffset)
}

func TestEngine_OverrunWritesNothing(t *testing.T) {
	f := newFixture(t)
	small := f.alloc(t, f.host, 64)
	big := f.alloc(t, f.host, 1024)
	require.NoError(t, f.eng.HostToSpace(big, pattern(1024), false))

	before, err := f.host.Bytes(small, 64)
	require.NoError(t, err)
	snapshot := bytes.Clone(before)
	events := len(f.rec.events)

	err = f.eng.SpaceToSpace(small, big, 1024, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrCopyOverrun))
	assert.Contains(t, err.Error(), "destination")

	after, err := f.host.Bytes(small, 64)
	require.NoError(t, err)
	assert.Equal(t, snapshot, after)
	assert.Len(t, f.rec.events, events, "rejected copies are not recorded")

	err = f.eng.SpaceToHost(make([]byte, 4096), small, false)
	assert.True(t, errors.Is(err, types.ErrCopyOverrun))
	err = f.eng.HostToSpace(small, make([]byte, 4096), false)
	assert.True(t, errors.Is(err, types.ErrCopyOverrun))
}

func TestEngine_InteriorPointerShrinksAvailable(t *testing.T) {
	f := newFixture(t)
	p := f.alloc(t, f.host, 256)
	a, ok := f.host.Manager().FindAllocation(uintptr(p))
	require.True(t, ok)
	tail := int(a.End() - uintptr(p))

	require.NoError(t, f.eng.HostToSpace(p, make([]byte, tail), false))
	err := f.eng.HostToSpace(p.Add(1), make([]byte, tail), false)
	assert.True(t, errors.Is(err, types.ErrCopyOverrun))
}

func TestEngine_ForeignPointerIsCorrupt(t *testing.T) {
	f := newFixture(t)
	h := f.alloc(t, f.host, 64)

	err := f.eng.SpaceToSpace(h, space.Ptr(0x1000), 8, false)
	assert.True(t, errors.Is(err, types.ErrCorruptRecord))

	err = f.eng.ToHost(make([]byte, 8), space.Ptr(16))
	assert.True(t, errors.Is(err, types.ErrCorruptRecord))
}

func TestEngine_UnsupportedPair(t *testing.T) {
	f := newFixture(t)
	eng := New(f.host.Manager(), op.NewRegistry(), replay.Discard)
	h := f.alloc(t, f.host, 64)
	d := f.alloc(t, f.device, 64)

	err := eng.SpaceToSpace(d, h, 8, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrCopyUnsupported))
}

func TestEngine_ZeroBytesIsNoop(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.eng.SpaceToSpace(0, 0, 0, true))
	require.NoError(t, f.eng.FromHost(0, nil))
	assert.Empty(t, f.rec.events)
}

func TestEngine_ExecVariantsFence(t *testing.T) {
	f := newFixture(t)
	hdr := f.alloc(t, f.device, types.HeaderSize+32)
	payload := hdr.Add(types.HeaderSize)

	stream := exec.NewStream(0)
	t.Cleanup(func() { _ = stream.Close() })

	src := make([]byte, 32)
	require.NoError(t, stream.Submit(func() error {
		copy(src, pattern(32))
		return nil
	}))
	require.NoError(t, f.eng.FromHostExec(stream, payload, src))

	got := make([]byte, 32)
	require.NoError(t, f.eng.ToHostExec(exec.Host{}, got, payload))
	assert.Equal(t, pattern(32), got)

	other := f.alloc(t, f.device, types.HeaderSize+32)
	require.NoError(t, f.eng.DeepCopyExec(stream, other.Add(types.HeaderSize), payload, 32))
	require.NoError(t, f.eng.ToHost(got, other.Add(types.HeaderSize)))
	assert.Equal(t, pattern(32), got)
}

func TestEngine_ExecFenceErrorStopsCopy(t *testing.T) {
	f := newFixture(t)
	hdr := f.alloc(t, f.host, types.HeaderSize+8)

	stream := exec.NewStream(0)
	t.Cleanup(func() { _ = stream.Close() })
	boom := errors.New("kernel failed")
	require.NoError(t, stream.Submit(func() error { return boom }))

	err := f.eng.FromHostExec(stream, hdr.Add(types.HeaderSize), []byte{1})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, f.rec.events)
}

func TestEngine_FailingRecorderDoesNotFailCopy(t *testing.T) {
	f := newFixture(t)
	calls := 0
	eng := ForSpace(f.host, replay.RecorderFunc(func(replay.Event) error {
		calls++
		return errors.New("trace sink down")
	}))
	h := f.alloc(t, f.host, types.HeaderSize+64)
	d := f.alloc(t, f.device, types.HeaderSize+64)

	require.NoError(t, eng.FromHost(h.Add(types.HeaderSize), pattern(64)))
	require.NoError(t, eng.DeepCopy(d.Add(types.HeaderSize), h.Add(types.HeaderSize), 64))
	got := make([]byte, 64)
	require.NoError(t, eng.ToHost(got, d.Add(types.HeaderSize)))
	assert.Equal(t, pattern(64), got)
	assert.Equal(t, 3, calls)
}

// A payload may be copied up to the end of its raw block, which includes the
// alignment slack behind the requested size.
func TestEngine_PayloadLimitIsRawBlockEnd(t *testing.T) {
	f := newFixture(t)
	const requested = 100
	hdr := f.alloc(t, f.host, types.HeaderSize+requested)
	payload := hdr.Add(types.HeaderSize)
	a, ok := f.host.Manager().FindAllocation(uintptr(hdr))
	require.True(t, ok)
	limit := int(a.End() - uintptr(payload))
	require.GreaterOrEqual(t, limit, requested)
	require.LessOrEqual(t, limit, requested+types.PointerWidth+types.DefaultAlignment)

	require.NoError(t, f.eng.FromHost(payload, make([]byte, requested)))
	require.NoError(t, f.eng.FromHost(payload, make([]byte, limit)))
	err := f.eng.FromHost(payload, make([]byte, limit+1))
	assert.True(t, errors.Is(err, types.ErrCopyOverrun))
	err = f.eng.ToHost(make([]byte, limit+1), payload)
	assert.True(t, errors.Is(err, types.ErrCopyOverrun))
}
