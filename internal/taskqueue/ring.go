package taskqueue

import "sync/atomic"

// ring is a single-producer/single-consumer ring buffer of task nodes.
// The producer side is made logically single by the Queue's producer
// lock; the consumer side is the one drain goroutine. head and tail
// only ever grow, so occupancy is tail-head and the capacity mask
// handles wrapping.
type ring struct {
	buf  []*node
	mask uint64
	head atomic.Uint64
	tail atomic.Uint64
}

func newRing(capacity uint64) *ring {
	return &ring{
		buf:  make([]*node, capacity),
		mask: capacity - 1,
	}
}

func (r *ring) cap() int {
	return len(r.buf)
}

func (r *ring) len() int {
	return int(r.tail.Load() - r.head.Load())
}

// push appends a node. Returns false when the ring is full.
func (r *ring) push(n *node) bool {
	tail := r.tail.Load()
	if tail-r.head.Load() > r.mask {
		return false
	}
	r.buf[tail&r.mask] = n
	r.tail.Store(tail + 1)
	return true
}

// pop removes the oldest node. Returns nil when the ring is empty.
func (r *ring) pop() *node {
	head := r.head.Load()
	if head == r.tail.Load() {
		return nil
	}
	n := r.buf[head&r.mask]
	r.buf[head&r.mask] = nil
	r.head.Store(head + 1)
	return n
}
