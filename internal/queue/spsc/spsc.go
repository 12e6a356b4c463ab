// Package spsc implements a latency-critical single-producer /
// single-consumer ring, generalizing a concrete order-processing
// disruptor ring (a multi-producer ring specialized to one payload type)
// down to a strict two-endpoint, any-payload-type ring: one Sender, one
// Receiver, atomic cursors instead of CAS, and no consumer goroutine
// baked in — the caller drives Recv/RecvSpin itself.
package spsc

import (
	"runtime"
	"sync/atomic"
)

// ring is the shared state between a Sender and a Receiver. Head and tail
// are unbounded monotonic counters, same as the shared-memory ring in
// package shmring — index into buf is cursor % capacity.
type ring[T any] struct {
	buf      []T
	capacity uint64

	// head is the producer-owned write cursor (next slot to fill).
	// tail is the consumer-owned read cursor (next slot to drain).
	// Cache-line padding pads each cursor to 64 bytes specifically to keep
	// these two independently-mutated counters off the same cache line.
	head uint64
	_    [56]byte
	tail uint64
	_    [56]byte

	closed uint32 // atomic; set when either endpoint is dropped
}

// Sender is the write endpoint. At most one goroutine may hold a Sender at
// a time; Sender is not safe to share across goroutines without external
// synchronization — a multi-producer CAS loop belongs to package mpsc,
// not here.
type Sender[T any] struct {
	r *ring[T]
}

// Receiver is the read endpoint. At most one goroutine may hold a Receiver
// at a time.
type Receiver[T any] struct {
	r *ring[T]
}

// Channel creates a bounded SPSC ring of the given capacity and returns its
// two endpoints. Capacity need not be a power of two (only the
// cross-process shared-memory ring in package shmring requires that, for
// its bitmask indexing).
func Channel[T any](capacity int) (*Sender[T], *Receiver[T]) {
	if capacity <= 0 {
		panic("spsc: capacity must be positive")
	}
	r := &ring[T]{
		buf:      make([]T, capacity),
		capacity: uint64(capacity),
	}
	return &Sender[T]{r: r}, &Receiver[T]{r: r}
}

func (r *ring[T]) isClosed() bool {
	return atomic.LoadUint32(&r.closed) != 0
}

// Close marks the sender side closed. After Close, Send always fails.
func (s *Sender[T]) Close() {
	atomic.StoreUint32(&s.r.closed, 1)
}

// Close marks the receiver side closed. After Close, Recv/RecvSpin return
// disconnected once the buffered items have been drained.
func (r *Receiver[T]) Close() {
	atomic.StoreUint32(&r.r.closed, 1)
}

// Send writes item into the next free slot. It never blocks: if the ring
// is full (or the channel has been closed from the receiver side) it
// returns false and the caller keeps ownership of item — nothing was
// consumed, and the item is returned to the caller unchanged.
func (s *Sender[T]) Send(item T) bool {
	r := s.r
	head := atomic.LoadUint64(&r.head)
	tail := atomic.LoadUint64(&r.tail)
	if head-tail >= r.capacity {
		return false // full
	}
	if r.isClosed() {
		return false
	}
	r.buf[head%r.capacity] = item
	// Release: the item write above must be visible before head advances.
	atomic.StoreUint64(&r.head, head+1)
	return true
}

// Recv returns the oldest buffered item without blocking. ok is false if
// the ring is currently empty.
func (r *Receiver[T]) Recv() (item T, ok bool) {
	rr := r.r
	tail := atomic.LoadUint64(&rr.tail)
	// Acquire: head must be loaded after any prior Send's release store to
	// observe its payload write.
	head := atomic.LoadUint64(&rr.head)
	if tail >= head {
		return item, false
	}
	item = rr.buf[tail%rr.capacity]
	atomic.StoreUint64(&rr.tail, tail+1)
	return item, true
}

// RecvSpin busy-waits until an item is available, yielding the processor
// between attempts via runtime.Gosched while waiting on the next slot.
// It only returns false once the channel is disconnected and drained —
// RecvSpin is otherwise uncancellable and is meant for a dedicated
// polling goroutine.
func (r *Receiver[T]) RecvSpin() (item T, ok bool) {
	for {
		if item, ok = r.Recv(); ok {
			return item, true
		}
		if r.r.isClosed() {
			// One last check: a send could have landed between our failed
			// Recv and observing closed.
			if item, ok = r.Recv(); ok {
				return item, true
			}
			return item, false
		}
		runtime.Gosched()
	}
}

// RecvSpinLimited busy-waits for at most n iterations before giving up.
func (r *Receiver[T]) RecvSpinLimited(n int) (item T, ok bool) {
	for i := 0; i < n; i++ {
		if item, ok = r.Recv(); ok {
			return item, true
		}
		runtime.Gosched()
	}
	return item, false
}

// Drain returns every currently-buffered item, in FIFO order, without
// blocking.
func (r *Receiver[T]) Drain() []T {
	var out []T
	for {
		item, ok := r.Recv()
		if !ok {
			break
		}
		out = append(out, item)
	}
	return out
}

// Len reports how many items are currently buffered (best-effort; the
// producer may be concurrently adding more).
func (r *Receiver[T]) Len() int {
	head := atomic.LoadUint64(&r.r.head)
	tail := atomic.LoadUint64(&r.r.tail)
	return int(head - tail)
}

// Cap returns the ring's fixed capacity.
func (r *Receiver[T]) Cap() int { return int(r.r.capacity) }
