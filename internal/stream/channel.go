// Package stream implements the bounded producer/consumer queue
// (spec.md §3 "StreamingChannel", §4.3) that decouples a wire-codec
// producer task (reading chunks or SSE events off a connection) from a
// consumer task (a caller iterating a response body, or a server
// writer draining a streaming service).
package stream

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// DefaultCapacity is the fixed channel capacity from spec.md §6.6: a
// design constant bounding memory while allowing a small burst.
const DefaultCapacity = 10

// BackpressurePolicy governs what TrySend does when the channel is
// full, resolving the Open Question in spec.md §9.
type BackpressurePolicy int

const (
	// DropWhenFull matches the source's try_send-drops-on-full behavior.
	DropWhenFull BackpressurePolicy = iota
	// Suspend makes TrySend behave like a blocking Send instead,
	// trading the "cannot suspend inside a codec callback" guarantee
	// for no dropped chunks; spec.md §9 recommends this for new
	// implementations but gates it behind configuration.
	Suspend
)

var (
	// ErrClosed is returned by Send on a closed channel.
	ErrClosed = errors.New("stream: channel closed")
	// ErrCancelled is returned by Send/Receive after Cancel.
	ErrCancelled = errors.New("stream: channel cancelled")
)

// Channel is a bounded FIFO of items of type T with close+cancel
// semantics, per spec.md §4.3. The zero value is not usable; use New.
type Channel[T any] struct {
	items      chan T
	cancelled  chan struct{}
	policy     BackpressurePolicy
	closeOnce  sync.Once
	cancelOnce sync.Once
	closed     atomic.Bool
}

// New constructs a Channel with the given capacity (spec.md §6.6
// defaults to DefaultCapacity) and backpressure policy.
func New[T any](capacity int, policy BackpressurePolicy) *Channel[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Channel[T]{
		items:     make(chan T, capacity),
		cancelled: make(chan struct{}),
		policy:    policy,
	}
}

// Send suspends (cooperatively, via select) until the item is queued,
// the channel is closed, or it is cancelled.
func (c *Channel[T]) Send(ctx context.Context, item T) error {
	if c.closed.Load() {
		return ErrClosed
	}
	select {
	case <-c.cancelled:
		return ErrCancelled
	default:
	}

	select {
	case c.items <- item:
		return nil
	case <-c.cancelled:
		return ErrCancelled
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TrySend is a non-blocking best-effort send, for use only from inside
// wire-codec callbacks that cannot suspend (spec.md §4.3/§4.4). Under
// BackpressurePolicy Suspend it blocks (using context.Background())
// instead of dropping; under DropWhenFull (default) a full channel
// silently drops the item and returns false, the acknowledged
// limitation of spec.md §9.
func (c *Channel[T]) TrySend(item T) bool {
	if c.closed.Load() {
		return false
	}
	select {
	case <-c.cancelled:
		return false
	default:
	}

	if c.policy == Suspend {
		return c.Send(context.Background(), item) == nil
	}

	select {
	case c.items <- item:
		return true
	default:
		return false
	}
}

// Receive suspends until an item is available, the channel closes
// (ok=false, err=nil signals clean end-of-stream), or it is cancelled.
func (c *Channel[T]) Receive(ctx context.Context) (item T, ok bool, err error) {
	select {
	case v, open := <-c.items:
		if !open {
			return item, false, nil
		}
		return v, true, nil
	case <-c.cancelled:
		return item, false, ErrCancelled
	case <-ctx.Done():
		return item, false, ctx.Err()
	}
}

// Close drains current items to receivers (a buffered Go channel
// already guarantees already-queued sends are delivered before the
// closed-channel zero-value read), then signals end-of-stream to
// subsequent Receive calls. After Close, no new Send succeeds.
func (c *Channel[T]) Close() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.items)
	})
}

// Cancel wakes all pending Send/Receive calls with ErrCancelled.
func (c *Channel[T]) Cancel() {
	c.cancelOnce.Do(func() {
		close(c.cancelled)
	})
}
