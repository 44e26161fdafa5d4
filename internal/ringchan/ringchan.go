// Package ringchan provides a bounded channel that overwrites its oldest element when full.
package ringchan

import "sync/atomic"

// RingChannel wraps a buffered channel so producers never block: when the buffer is full
// the oldest element is discarded to make room.
//
//	rc := ringchan.New[int](3)
//	for i := 0; i < 10; i++ {
//	    rc.Send(i)
//	}
//	// a reader now sees 7, 8, 9
//
// Readers use C() like a normal channel.
type RingChannel[T any] struct {
	ch      chan T
	dropped atomic.Int64
	written atomic.Int64
}

// New creates a RingChannel with the given capacity.
func New[T any](capacity int) *RingChannel[T] {
	if capacity <= 0 {
		panic("ringchan: capacity must be > 0")
	}
	return &RingChannel[T]{ch: make(chan T, capacity)}
}

// C returns the receive side.
func (rc *RingChannel[T]) C() <-chan T {
	return rc.ch
}

// Send inserts v, discarding the oldest element if the buffer is full.
// Reports whether an element was dropped. Safe for a single producer.
func (rc *RingChannel[T]) Send(v T) bool {
	dropped := false

	select {
	case rc.ch <- v:
	default:
		select {
		case <-rc.ch:
			rc.dropped.Add(1)
			dropped = true
		default:
		}
		rc.ch <- v
	}
	rc.written.Add(1)

	return dropped
}

// TryReceive attempts a non-blocking receive.
func (rc *RingChannel[T]) TryReceive() (v T, ok bool) {
	select {
	case v, ok = <-rc.ch:
		return
	default:
		var zero T
		return zero, false
	}
}

func (rc *RingChannel[T]) Len() int { return len(rc.ch) }

func (rc *RingChannel[T]) Cap() int { return cap(rc.ch) }

// Dropped returns how many elements were overwritten before being read.
func (rc *RingChannel[T]) Dropped() int64 { return rc.dropped.Load() }

// Written returns how many elements were inserted.
func (rc *RingChannel[T]) Written() int64 { return rc.written.Load() }

// Close closes the underlying channel. Send panics afterwards.
func (rc *RingChannel[T]) Close() {
	close(rc.ch)
}
