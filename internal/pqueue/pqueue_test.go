package pqueue

import (
	"math/rand"
	"testing"
	"time"

	"github.com/Seintian/postoffice/internal/errors"
)

func at(offsetMs int) time.Time {
	base := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	return base.Add(time.Duration(offsetMs) * time.Millisecond)
}

func TestQueue_PopOrdersByPriority(t *testing.T) {
	q := New()

	pushes := []Item{
		{Ticket: 1, Arrival: at(0)},
		{Ticket: 2, VIP: true, Arrival: at(30)},
		{Ticket: 3, Arrival: at(10)},
		{Ticket: 4, VIP: true, Arrival: at(20)},
		{Ticket: 5, Arrival: at(5)},
	}
	for _, item := range pushes {
		if err := q.Push(item); err != nil {
			t.Fatalf("Push ticket %d failed: %v", item.Ticket, err)
		}
	}

	// VIPs by arrival first, then the rest by arrival.
	wantOrder := []uint64{4, 2, 1, 5, 3}
	for _, want := range wantOrder {
		got, ok := q.Pop()
		if !ok {
			t.Fatalf("Pop returned empty, want ticket %d", want)
		}
		if got.Ticket != want {
			t.Errorf("Pop = ticket %d, want %d", got.Ticket, want)
		}
	}

	if _, ok := q.Pop(); ok {
		t.Error("Pop on an empty queue should report empty")
	}
}

func TestQueue_EqualArrivalsKeepInsertionOrder(t *testing.T) {
	q := New()

	same := at(100)
	for ticket := uint64(1); ticket <= 5; ticket++ {
		if err := q.Push(Item{Ticket: ticket, Arrival: same}); err != nil {
			t.Fatalf("Push failed: %v", err)
		}
	}

	for want := uint64(1); want <= 5; want++ {
		got, ok := q.Pop()
		if !ok || got.Ticket != want {
			t.Fatalf("Pop = ticket %d (ok=%v), want %d", got.Ticket, ok, want)
		}
	}
}

func TestQueue_PushRejectsDuplicate(t *testing.T) {
	q := New()

	if err := q.Push(Item{Ticket: 7, Arrival: at(0)}); err != nil {
		t.Fatalf("First push failed: %v", err)
	}
	err := q.Push(Item{Ticket: 7, VIP: true, Arrival: at(1)})
	if !errors.Is(err, errors.ErrDuplicateTicket) {
		t.Fatalf("Duplicate push returned %v, want ErrDuplicateTicket", err)
	}

	if q.Len() != 1 {
		t.Errorf("Len = %d after rejected push, want 1", q.Len())
	}
	got, _ := q.Pop()
	if got.VIP {
		t.Error("Rejected push should not have replaced the original item")
	}
}

func TestQueue_Peek(t *testing.T) {
	q := New()

	if _, ok := q.Peek(); ok {
		t.Error("Peek on an empty queue should report empty")
	}

	q.Push(Item{Ticket: 1, Arrival: at(10)})
	q.Push(Item{Ticket: 2, VIP: true, Arrival: at(20)})

	got, ok := q.Peek()
	if !ok || got.Ticket != 2 {
		t.Errorf("Peek = ticket %d (ok=%v), want 2", got.Ticket, ok)
	}
	if q.Len() != 2 {
		t.Errorf("Peek should not remove items, Len = %d", q.Len())
	}
}

func TestQueue_RemoveByTicket(t *testing.T) {
	q := New()

	for ticket := uint64(1); ticket <= 6; ticket++ {
		q.Push(Item{Ticket: ticket, VIP: ticket%2 == 0, Arrival: at(int(ticket))})
	}

	removed, ok := q.Remove(4)
	if !ok {
		t.Fatal("Remove of a pending ticket should succeed")
	}
	if removed.Ticket != 4 || !removed.VIP {
		t.Errorf("Removed item = %+v, want ticket 4 VIP", removed)
	}
	if q.Contains(4) {
		t.Error("Removed ticket should no longer be pending")
	}

	if _, ok := q.Remove(4); ok {
		t.Error("Second remove of the same ticket should fail")
	}
	if _, ok := q.Remove(99); ok {
		t.Error("Remove of an unknown ticket should fail")
	}

	wantOrder := []uint64{2, 6, 1, 3, 5}
	for _, want := range wantOrder {
		got, ok := q.Pop()
		if !ok || got.Ticket != want {
			t.Fatalf("Pop after remove = ticket %d (ok=%v), want %d", got.Ticket, ok, want)
		}
	}
}

// Every pushed ticket stays reachable by Remove until popped, and pops
// come out non-decreasing under the comparator no matter how the queue
// was mutated in between.
func TestQueue_RandomizedMutations(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	q := New()

	pending := make(map[uint64]Item)
	next := uint64(1)

	for step := 0; step < 2000; step++ {
		switch op := rng.Intn(10); {
		case op < 5:
			item := Item{
				Ticket:  next,
				VIP:     rng.Intn(10) == 0,
				Arrival: at(rng.Intn(50)),
			}
			next++
			if err := q.Push(item); err != nil {
				t.Fatalf("Push failed: %v", err)
			}
			pending[item.Ticket] = item

		case op < 8:
			got, ok := q.Pop()
			if !ok {
				if len(pending) != 0 {
					t.Fatalf("Pop reported empty with %d pending", len(pending))
				}
				continue
			}
			want, tracked := pending[got.Ticket]
			if !tracked {
				t.Fatalf("Pop returned untracked ticket %d", got.Ticket)
			}
			if got.VIP != want.VIP || !got.Arrival.Equal(want.Arrival) {
				t.Fatalf("Pop returned corrupted item %+v, want %+v", got, want)
			}
			delete(pending, got.Ticket)

			// Nothing still pending may outrank what was just popped.
			if head, ok := q.Peek(); ok {
				if head.VIP && !got.VIP {
					t.Fatalf("Popped non-VIP %d while VIP %d was pending", got.Ticket, head.Ticket)
				}
				if head.VIP == got.VIP && head.Arrival.Before(got.Arrival) {
					t.Fatalf("Popped ticket %d before earlier arrival %d", got.Ticket, head.Ticket)
				}
			}

		default:
			for ticket := range pending {
				if _, ok := q.Remove(ticket); !ok {
					t.Fatalf("Pending ticket %d not reachable by Remove", ticket)
				}
				delete(pending, ticket)
				break
			}
		}

		if q.Len() != len(pending) {
			t.Fatalf("Len = %d, tracker has %d", q.Len(), len(pending))
		}
	}
}

func TestQueue_Tickets(t *testing.T) {
	q := New()
	q.Push(Item{Ticket: 3, Arrival: at(3)})
	q.Push(Item{Ticket: 1, Arrival: at(1)})
	q.Push(Item{Ticket: 2, Arrival: at(2)})

	tickets := q.Tickets()
	if len(tickets) != 3 {
		t.Fatalf("Tickets returned %d entries, want 3", len(tickets))
	}
	if tickets[0] != 1 {
		t.Errorf("Front of heap = ticket %d, want earliest arrival 1", tickets[0])
	}
}
