// Package ring implements the in-process single-producer single-consumer
// ring buffer that decouples the mailbox listener goroutine from the
// editor loop (spec.md §4.3). Unlike the mailbox segment, this ring never
// crosses a process boundary, so it is plain Go memory with atomic
// head/tail indices, generalized from
// _examples/other_examples/bureau-foundation-bureau__ringbuffer.go's
// offset-tracked circular buffer from bytes to fixed update.Ext records.
package ring

import (
	"sync/atomic"

	"github.com/abhinavnagar29/synctext/internal/update"
)

// Capacity is the ring's fixed slot count.
const Capacity = 128

// Ring is a fixed-capacity SPSC ring buffer of update.Ext values. Push is
// the producer-only operation; Pop is the consumer-only operation. Both
// are non-blocking.
type Ring struct {
	head int64 // atomic, producer-owned
	tail int64 // atomic, consumer-owned
	data [Capacity]update.Ext
}

// New returns an empty ring.
func New() *Ring { return &Ring{} }

// Push enqueues v. It returns false and silently drops v if the ring is
// full: loss is acceptable under LWW semantics, since a later update from
// the same peer subsumes a dropped one (spec.md §4.3).
func (r *Ring) Push(v update.Ext) bool {
	head := atomic.LoadInt64(&r.head)
	next := (head + 1) % Capacity
	if next == atomic.LoadInt64(&r.tail) {
		return false // full
	}
	r.data[head] = v
	atomic.StoreInt64(&r.head, next)
	return true
}

// Pop dequeues the oldest buffered value. ok is false when the ring is
// empty.
func (r *Ring) Pop() (v update.Ext, ok bool) {
	tail := atomic.LoadInt64(&r.tail)
	if tail == atomic.LoadInt64(&r.head) {
		return update.Ext{}, false
	}
	v = r.data[tail]
	atomic.StoreInt64(&r.tail, (tail+1)%Capacity)
	return v, true
}
