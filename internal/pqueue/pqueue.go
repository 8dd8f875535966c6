// Package pqueue provides the indexed priority queue behind each
// broker service: a binary min-heap over VIP status and arrival time,
// plus a ticket index so any pending item can be removed in O(log n).
package pqueue

import (
	"container/heap"
	"time"

	"github.com/Seintian/postoffice/internal/errors"
)

// Item is one pending service request. Items are ordered VIP first,
// then by arrival time, then by insertion order, so dispatch is
// deterministic even when arrivals share a timestamp.
type Item struct {
	Ticket    uint64
	Requester uint64
	VIP       bool
	Arrival   time.Time

	seq   uint64
	index int
}

// Queue is a binary min-heap indexed by ticket number: push, pop and
// remove-by-ticket are all O(log n). It is not synchronized; the broker
// holds one per service behind that service's lock.
type Queue struct {
	inner inner
	seq   uint64
}

// New returns an empty queue
func New() *Queue {
	return &Queue{
		inner: inner{byTicket: make(map[uint64]*Item)},
	}
}

// Len returns the number of pending items
func (q *Queue) Len() int {
	return q.inner.Len()
}

// Contains reports whether a ticket is pending
func (q *Queue) Contains(ticket uint64) bool {
	_, ok := q.inner.byTicket[ticket]
	return ok
}

// Push adds an item. A ticket already pending is rejected with
// ErrDuplicateTicket and the queue is unchanged.
func (q *Queue) Push(item Item) error {
	if q.Contains(item.Ticket) {
		return errors.Wrapf(errors.ErrDuplicateTicket, "push ticket %d", item.Ticket)
	}

	q.seq++
	item.seq = q.seq
	heap.Push(&q.inner, &item)
	return nil
}

// Pop removes and returns the highest-priority item. The second return
// is false when the queue is empty.
func (q *Queue) Pop() (Item, bool) {
	if q.inner.Len() == 0 {
		return Item{}, false
	}
	item := heap.Pop(&q.inner).(*Item)
	return *item, true
}

// Peek returns the highest-priority item without removing it
func (q *Queue) Peek() (Item, bool) {
	if q.inner.Len() == 0 {
		return Item{}, false
	}
	return *q.inner.items[0], true
}

// Remove takes a pending ticket out of the queue regardless of its
// position. The second return is false when the ticket is not pending.
func (q *Queue) Remove(ticket uint64) (Item, bool) {
	item, ok := q.inner.byTicket[ticket]
	if !ok {
		return Item{}, false
	}
	heap.Remove(&q.inner, item.index)
	return *item, true
}

// Tickets returns the pending ticket numbers in heap order, front
// first. Only the first element is ordered; the rest follow the heap's
// internal layout.
func (q *Queue) Tickets() []uint64 {
	out := make([]uint64, 0, q.inner.Len())
	for _, item := range q.inner.items {
		out = append(out, item.Ticket)
	}
	return out
}

// inner implements heap.Interface and keeps the ticket index current
// through every swap.
type inner struct {
	items    []*Item
	byTicket map[uint64]*Item
}

func (h *inner) Len() int { return len(h.items) }

func (h *inner) Less(i, j int) bool {
	a, b := h.items[i], h.items[j]
	if a.VIP != b.VIP {
		return a.VIP
	}
	if !a.Arrival.Equal(b.Arrival) {
		return a.Arrival.Before(b.Arrival)
	}
	return a.seq < b.seq
}

func (h *inner) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.items[i].index = i
	h.items[j].index = j
}

func (h *inner) Push(x any) {
	item := x.(*Item)
	item.index = len(h.items)
	h.items = append(h.items, item)
	h.byTicket[item.Ticket] = item
}

func (h *inner) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	h.items = old[:n-1]
	delete(h.byTicket, item.Ticket)
	return item
}
