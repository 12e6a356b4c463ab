// Package broadcast implements a one-sender, many-receivers fan-out
// channel: a single ring of (sequence, value) pairs that receivers read
// independently, each tracking its own cursor and able to fall behind
// (and permanently lose entries) without affecting the sender.
//
// This generalizes a publisher shape that fans out by maintaining a
// slice of per-subscriber buffered channels and dropping on a full
// channel. That shape works for live-only fan-out but cannot support
// "join late and catch up from a known point" (SubscribeFromStart)
// because a dropped update is gone the moment it's dropped. Here, the
// shared ring itself is the buffer, and lag is just index arithmetic —
// any receiver can still read an entry as long as it hasn't been
// overwritten.
package broadcast

import "sync"

type entry[T any] struct {
	seq   uint64
	value T
	valid bool
}

// ring is the single shared buffer. One Sender writes, any number of
// Receivers (each with their own cursor) read.
type ring[T any] struct {
	mu       sync.Mutex
	buf      []entry[T]
	capacity uint64
	nextSeq  uint64 // next sequence that will be assigned on Send
}

// Sender is the single write endpoint.
type Sender[T any] struct {
	r *ring[T]
}

// Receiver is a read endpoint with its own independent cursor. Receivers
// are created by Subscribe/SubscribeFromStart, not cloned from one
// another — each has a distinct starting cursor by construction.
type Receiver[T any] struct {
	r       *ring[T]
	nextSeq uint64
}

// Channel creates a broadcast ring of the given capacity and its sender.
// Use the returned Sender's Subscribe/SubscribeFromStart to create
// receivers.
func Channel[T any](capacity int) *Sender[T] {
	if capacity <= 0 {
		panic("broadcast: capacity must be positive")
	}
	r := &ring[T]{
		buf:      make([]entry[T], capacity),
		capacity: uint64(capacity),
	}
	return &Sender[T]{r: r}
}

// Send assigns the next sequence number to value, appends it to the ring
// (evicting the oldest entry if the ring is full), and returns the assigned
// sequence.
func (s *Sender[T]) Send(value T) uint64 {
	r := s.r
	r.mu.Lock()
	defer r.mu.Unlock()
	seq := r.nextSeq
	r.buf[seq%r.capacity] = entry[T]{seq: seq, value: value, valid: true}
	r.nextSeq++
	return seq
}

// Subscribe creates a receiver that starts at the current sequence — no
// back-fill. It will only observe values sent after this call.
func (s *Sender[T]) Subscribe() *Receiver[T] {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	return &Receiver[T]{r: s.r, nextSeq: s.r.nextSeq}
}

// SubscribeFromStart creates a receiver that starts at the oldest entry
// still in the buffered window, so it observes every value the ring can
// still produce.
func (s *Sender[T]) SubscribeFromStart() *Receiver[T] {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	return &Receiver[T]{r: s.r, nextSeq: oldestSeqLocked(s.r)}
}

func oldestSeqLocked[T any](r *ring[T]) uint64 {
	if r.nextSeq <= r.capacity {
		return 0
	}
	return r.nextSeq - r.capacity
}

// Recv returns the entry at this receiver's cursor if it is still in the
// buffered window, advancing the cursor by one. If the cursor has fallen
// behind the oldest retained entry, those entries are permanently lost —
// favoring the sender over a slow receiver — and the cursor jumps forward
// to the oldest entry still available before reading. If the cursor has
// caught up to the sender (nothing new yet), Recv returns ok=false
// without advancing.
func (r *Receiver[T]) Recv() (value T, seq uint64, ok bool) {
	rr := r.r
	rr.mu.Lock()
	defer rr.mu.Unlock()

	oldest := oldestSeqLocked(rr)
	if r.nextSeq < oldest {
		r.nextSeq = oldest
	}
	if r.nextSeq >= rr.nextSeq {
		return value, 0, false
	}
	e := rr.buf[r.nextSeq%rr.capacity]
	seq = r.nextSeq
	r.nextSeq++
	if !e.valid || e.seq != seq {
		return value, seq, false
	}
	return e.value, seq, true
}

// RecvAll drains every value currently reachable from this receiver's
// cursor, in increasing sequence order.
func (r *Receiver[T]) RecvAll() []T {
	var out []T
	for {
		v, _, ok := r.Recv()
		if !ok {
			break
		}
		out = append(out, v)
	}
	return out
}

// Lag reports how many sends this receiver has not yet consumed. If Lag
// exceeds the ring's capacity, some of those sends are unrecoverable — the
// next Recv will jump the cursor forward rather than return them.
func (r *Receiver[T]) Lag() uint64 {
	r.r.mu.Lock()
	defer r.r.mu.Unlock()
	return r.r.nextSeq - r.nextSeq
}
