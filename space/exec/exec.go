// Package exec provides the execution contexts copies and kernels run on.
//
// A Context orders work: Fence blocks until everything submitted before it
// has finished. Host runs work inline. Stream runs work on its own goroutine
// in submission order, standing in for an accelerator queue.
package exec

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed indicates work submitted to a closed stream.
var ErrClosed = errors.New("exec: stream closed")

// Kernel is one unit of work.
type Kernel func() error

// Context is an ordered execution queue.
type Context interface {
	// Fence blocks until all previously submitted work has completed and
	// returns the first error that work produced.
	Fence() error
}

// Submitter is a Context that accepts work.
type Submitter interface {
	Context
	Submit(k Kernel) error
}

// Host executes kernels synchronously on the caller's goroutine.
type Host struct{}

// Submit runs k immediately.
func (Host) Submit(k Kernel) error { return k() }

// Fence is a no-op; host work is already complete.
func (Host) Fence() error { return nil }

// Stream executes kernels asynchronously, one at a time, in FIFO order.
type Stream struct {
	queue chan item

	mu     sync.Mutex // guards closed and sends on queue
	closed bool

	errMu sync.Mutex
	err   error

	done chan struct{}
}

type item struct {
	kernel Kernel
	fence  chan error
}

// NewStream starts a stream. depth bounds the number of queued kernels
// before Submit blocks; values below 1 mean 64.
func NewStream(depth int) *Stream {
	if depth < 1 {
		depth = 64
	}
	s := &Stream{
		queue: make(chan item, depth),
		done:  make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Stream) run() {
	defer close(s.done)
	for it := range s.queue {
		if it.fence != nil {
			it.fence <- s.takeErr()
			continue
		}
		if err := it.kernel(); err != nil {
			s.errMu.Lock()
			if s.err == nil {
				s.err = err
			}
			s.errMu.Unlock()
		}
	}
}

// Submit enqueues k. It returns ErrClosed after Close.
func (s *Stream) Submit(k Kernel) error {
	return s.enqueue(context.Background(), item{kernel: k})
}

// SubmitContext enqueues k, giving up if ctx ends while the queue is full.
func (s *Stream) SubmitContext(ctx context.Context, k Kernel) error {
	return s.enqueue(ctx, item{kernel: k})
}

// Fence waits for every kernel submitted so far and returns the first error
// any of them returned since the previous fence.
func (s *Stream) Fence() error {
	return s.FenceContext(context.Background())
}

// FenceContext is Fence with cancellation.
func (s *Stream) FenceContext(ctx context.Context) error {
	ch := make(chan error, 1)
	if err := s.enqueue(ctx, item{fence: ch}); err != nil {
		return err
	}
	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Stream) enqueue(ctx context.Context, it item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	select {
	case s.queue <- it:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains queued work, stops the stream and returns the pending error.
// Close is idempotent.
func (s *Stream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	<-s.done
	return s.takeErr()
}

func (s *Stream) takeErr() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	err := s.err
	s.err = nil
	return err
}
