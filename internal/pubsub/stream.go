// Package pubsub holds the single-writer, many-reader stream that fans
// decoded packets out to every interested party.
//
// A [Stream] is a linked list of nodes. The writer fills the tail node and
// appends a fresh one; readers hold their own cursor and walk the list at
// their own pace, so a slow reader never delays the writer or other readers.
// A reader only sees values published after it took its cursor.
package pubsub

import "context"

// Stream is one node of the list.
//
// Once Ready is closed, exactly one of the following holds:
// Next is non-nil and Val is the published value, or
// Next is nil and Err holds the reason the stream ended.
type Stream[T any] struct {
	Ready chan struct{}
	Next  *Stream[T]
	Val   T
	Err   error
}

// NewStream returns an empty tail node.
func NewStream[T any]() *Stream[T] {
	return &Stream[T]{Ready: make(chan struct{})}
}

// Publish sets s's value, links a new tail and wakes readers.
// It returns the new tail. Publishing to the same node twice panics.
func (s *Stream[T]) Publish(v T) *Stream[T] {
	s.Val = v
	s.Next = NewStream[T]()
	close(s.Ready)
	return s.Next
}

// Close terminates the stream at s with err.
// Readers reaching s observe err instead of a value.
func (s *Stream[T]) Close(err error) {
	s.Err = err
	close(s.Ready)
}

// Cursor is a reader's position in a stream.
type Cursor[T any] struct {
	node *Stream[T]
}

// NewCursor returns a cursor positioned at s.
func NewCursor[T any](s *Stream[T]) *Cursor[T] {
	return &Cursor[T]{node: s}
}

// Next blocks until the value under the cursor is available,
// then advances past it.
//
// It returns the stream's close error once the end is reached,
// or ctx.Err() if ctx finishes first. Values published before
// the close are always delivered before the close error.
func (c *Cursor[T]) Next(ctx context.Context) (T, error) {
	var zero T

	select {
	case <-c.node.Ready:
	default:
		select {
		case <-c.node.Ready:
		case <-ctx.Done():
			return zero, context.Cause(ctx)
		}
	}

	n := c.node
	if n.Next == nil {
		return zero, n.Err
	}
	c.node = n.Next
	return n.Val, nil
}

// Ready returns the channel closed when Next would not block.
func (c *Cursor[T]) Ready() <-chan struct{} {
	return c.node.Ready
}
