package exec

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHost_RunsInline(t *testing.T) {
	var h Host
	ran := false
	require.NoError(t, h.Submit(func() error { ran = true; return nil }))
	assert.True(t, ran)
	assert.NoError(t, h.Fence())
}

func TestStream_FIFOOrder(t *testing.T) {
	s := NewStream(4)
	t.Cleanup(func() { _ = s.Close() })

	var order []int
	for i := range 100 {
		require.NoError(t, s.Submit(func() error {
			order = append(order, i)
			return nil
		}))
	}
	require.NoError(t, s.Fence())
	require.Len(t, order, 100)
	for i, v := range order {
		assert.Equal(t, i, v)
	}
}

func TestStream_FenceWaitsForWork(t *testing.T) {
	s := NewStream(0)
	t.Cleanup(func() { _ = s.Close() })

	var done atomic.Bool
	require.NoError(t, s.Submit(func() error {
		time.Sleep(20 * time.Millisecond)
		done.Store(true)
		return nil
	}))
	require.NoError(t, s.Fence())
	assert.True(t, done.Load())
}

func TestStream_FenceReportsFirstErrorOnce(t *testing.T) {
	s := NewStream(0)
	t.Cleanup(func() { _ = s.Close() })

	first := errors.New("first")
	require.NoError(t, s.Submit(func() error { return first }))
	require.NoError(t, s.Submit(func() error { return errors.New("second") }))

	assert.ErrorIs(t, s.Fence(), first)
	assert.NoError(t, s.Fence(), "error is cleared by the fence that reported it")
}

func TestStream_CloseDrainsAndRejects(t *testing.T) {
	s := NewStream(0)
	var n atomic.Int32
	for range 10 {
		require.NoError(t, s.Submit(func() error { n.Add(1); return nil }))
	}
	require.NoError(t, s.Close())
	assert.Equal(t, int32(10), n.Load())

	assert.ErrorIs(t, s.Submit(func() error { return nil }), ErrClosed)
	assert.ErrorIs(t, s.Fence(), ErrClosed)
	assert.NoError(t, s.Close())
}

func TestStream_SubmitContextCancelled(t *testing.T) {
	s := NewStream(1)
	release := make(chan struct{})
	t.Cleanup(func() {
		close(release)
		_ = s.Close()
	})

	// Occupy the worker, then fill the single queue slot.
	started := make(chan struct{})
	require.NoError(t, s.Submit(func() error {
		close(started)
		<-release
		return nil
	}))
	<-started
	require.NoError(t, s.Submit(func() error { return nil }))

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()
	err := s.SubmitContext(ctx, func() error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestContext_Implementations(t *testing.T) {
	s := NewStream(1)
	t.Cleanup(func() { _ = s.Close() })
	var _ Submitter = Host{}
	var _ Submitter = s
}
