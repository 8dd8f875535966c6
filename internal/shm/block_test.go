package shm

import (
	"sync"
	"testing"

	"github.com/Seintian/postoffice/internal/clock"
	"github.com/Seintian/postoffice/internal/errors"
)

func TestBlock_ClockRoundTrip(t *testing.T) {
	var b Block

	if got := b.Clock(); got != (clock.Time{}) {
		t.Errorf("Zero block clock = %v, want zero time", got)
	}

	b.SetClock(clock.Time{Day: 2, Hour: 14, Minute: 59})
	if got := b.Clock(); got != (clock.Time{Day: 2, Hour: 14, Minute: 59}) {
		t.Errorf("Clock round trip returned %v", got)
	}

	if b.ClockActive() {
		t.Error("Clock should start inactive")
	}
	b.SetClockActive(true)
	if !b.ClockActive() {
		t.Error("SetClockActive(true) not observed")
	}
	b.SetClockActive(false)
	if b.ClockActive() {
		t.Error("SetClockActive(false) not observed")
	}
}

func TestBlock_StopFlag(t *testing.T) {
	var b Block

	if b.Stopped() {
		t.Error("New block should not be stopped")
	}
	b.RequestStop()
	if !b.Stopped() {
		t.Error("RequestStop not observed")
	}
}

func TestBlock_NextTicket(t *testing.T) {
	var b Block

	for want := uint64(1); want <= 3; want++ {
		if got := b.NextTicket(); got != want {
			t.Errorf("NextTicket = %d, want %d", got, want)
		}
	}
	if got := b.LastTicket(); got != 3 {
		t.Errorf("LastTicket = %d, want 3", got)
	}
}

func TestBlock_NextTicket_ConcurrentUnique(t *testing.T) {
	var b Block

	const goroutines = 8
	const perGoroutine = 500

	results := make(chan uint64, goroutines*perGoroutine)
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				results <- b.NextTicket()
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[uint64]bool, goroutines*perGoroutine)
	for ticket := range results {
		if seen[ticket] {
			t.Fatalf("Ticket %d issued twice", ticket)
		}
		seen[ticket] = true
	}

	if len(seen) != goroutines*perGoroutine {
		t.Errorf("Issued %d distinct tickets, want %d", len(seen), goroutines*perGoroutine)
	}
	if got := b.LastTicket(); got != goroutines*perGoroutine {
		t.Errorf("LastTicket = %d, want %d", got, goroutines*perGoroutine)
	}
}

func TestStatsBlock_Snapshot(t *testing.T) {
	var b Block
	stats := b.Stats()

	stats.AddIssued()
	stats.AddIssued()
	stats.AddServed()
	stats.AddUnserved()
	stats.AddVisit(false)
	stats.AddVisit(true)
	stats.AddVisit(true)
	stats.AddReassigned()

	snap := stats.Snapshot()
	want := Stats{Issued: 2, Served: 1, Unserved: 1, Visits: 3, VIPVisits: 2, Reassigned: 1}
	if snap != want {
		t.Errorf("Snapshot = %+v, want %+v", snap, want)
	}
}

func TestBarrierBlock(t *testing.T) {
	var b Block
	bar := b.Barrier()

	bar.SetRequired(3)
	if bar.Required() != 3 {
		t.Errorf("Required = %d, want 3", bar.Required())
	}

	bar.PublishRound(1)
	if bar.Round() != 1 {
		t.Errorf("Round = %d, want 1", bar.Round())
	}

	for want := uint32(1); want <= 3; want++ {
		if got := bar.CheckIn(); got != want {
			t.Errorf("CheckIn = %d, want %d", got, want)
		}
	}
	if bar.Ready() != 3 {
		t.Errorf("Ready = %d, want 3", bar.Ready())
	}

	bar.ResetReady()
	if bar.Ready() != 0 {
		t.Errorf("Ready after reset = %d, want 0", bar.Ready())
	}

	if bar.Active() {
		t.Error("New barrier should not be active")
	}
	bar.SetActive(true)
	if !bar.Active() {
		t.Error("SetActive(true) not observed")
	}
}

func TestWorkerSlot_StateTransitions(t *testing.T) {
	var b Block
	slot := b.Seat(0)

	if slot.State() != WorkerOffline {
		t.Fatalf("New seat state = %v, want offline", slot.State())
	}

	if !slot.CompareAndSwapState(WorkerOffline, WorkerFree) {
		t.Fatal("CAS offline→free should succeed on a new seat")
	}
	if slot.CompareAndSwapState(WorkerOffline, WorkerBusy) {
		t.Error("CAS from a stale state should fail")
	}
	if slot.State() != WorkerFree {
		t.Errorf("State = %v after failed CAS, want free", slot.State())
	}

	slot.SetState(WorkerBusy)
	slot.SetTicket(41)
	if slot.Ticket() != 41 {
		t.Errorf("Ticket = %d, want 41", slot.Ticket())
	}

	slot.Release()
	if slot.State() != WorkerOffline {
		t.Errorf("State after Release = %v, want offline", slot.State())
	}
	if slot.Ticket() != 0 {
		t.Errorf("Ticket after Release = %d, want 0", slot.Ticket())
	}
}

func TestWorkerSlot_ServiceReassignment(t *testing.T) {
	var b Block
	slot := b.Seat(0)

	slot.SetService(ServiceBanking)
	if slot.CompareAndSwapService(ServicePackages, ServiceLetters) {
		t.Error("CAS from the wrong service should fail")
	}
	if !slot.CompareAndSwapService(ServiceBanking, ServiceLetters) {
		t.Error("CAS from the current service should succeed")
	}
	if slot.Service() != ServiceLetters {
		t.Errorf("Service = %v, want letters", slot.Service())
	}
}

func TestBlock_ClaimSeat(t *testing.T) {
	var b Block

	first, err := b.ClaimSeat(2, 100)
	if err != nil {
		t.Fatalf("First claim failed: %v", err)
	}
	second, err := b.ClaimSeat(2, 101)
	if err != nil {
		t.Fatalf("Second claim failed: %v", err)
	}
	if first == second {
		t.Errorf("Claims returned the same seat %d", first)
	}

	if _, err := b.ClaimSeat(2, 102); !errors.Is(err, errors.ErrSeatTableFull) {
		t.Errorf("Claim beyond limit returned %v, want ErrSeatTableFull", err)
	}

	if got := b.Seat(first).Pid(); got != 100 {
		t.Errorf("Seat %d pid = %d, want 100", first, got)
	}
	if got := b.Seat(first).State(); got != WorkerFree {
		t.Errorf("Claimed seat state = %v, want free", got)
	}

	b.Seat(first).Release()
	reclaimed, err := b.ClaimSeat(2, 103)
	if err != nil {
		t.Fatalf("Claim after release failed: %v", err)
	}
	if reclaimed != first {
		t.Errorf("Reclaim returned seat %d, want released seat %d", reclaimed, first)
	}
}

func TestBlock_ClaimSeat_Concurrent(t *testing.T) {
	var b Block

	const seats = 32
	indexes := make(chan int, seats)
	var wg sync.WaitGroup
	for g := 0; g < seats; g++ {
		wg.Add(1)
		go func(pid int) {
			defer wg.Done()
			i, err := b.ClaimSeat(seats, pid)
			if err != nil {
				t.Errorf("Claim failed: %v", err)
				return
			}
			indexes <- i
		}(1000 + g)
	}
	wg.Wait()
	close(indexes)

	seen := make(map[int]bool, seats)
	for i := range indexes {
		if seen[i] {
			t.Fatalf("Seat %d claimed twice", i)
		}
		seen[i] = true
	}
	if len(seen) != seats {
		t.Errorf("Claimed %d distinct seats, want %d", len(seen), seats)
	}
}

func TestQueueSlot_PushPop(t *testing.T) {
	var b Block
	q := b.Queue(ServicePackages)

	startGen := q.ArrivalGen()
	for _, ticket := range []uint64{7, 8, 9} {
		if err := q.PushTicket(ticket); err != nil {
			t.Fatalf("Push %d failed: %v", ticket, err)
		}
	}

	if got := q.Waiting(); got != 3 {
		t.Errorf("Waiting = %d after three pushes, want 3", got)
	}
	if got := q.ArrivalGen(); got != startGen+3 {
		t.Errorf("ArrivalGen advanced by %d, want 3", got-startGen)
	}

	for _, want := range []uint64{7, 8, 9} {
		got, ok := q.PopTicket()
		if !ok {
			t.Fatalf("Pop returned empty, want %d", want)
		}
		if got != want {
			t.Errorf("Pop = %d, want %d", got, want)
		}
	}

	if _, ok := q.PopTicket(); ok {
		t.Error("Pop on an empty ring should report empty")
	}
	if got := q.Waiting(); got != 0 {
		t.Errorf("Waiting = %d after draining, want 0", got)
	}
}

func TestQueueSlot_PushTicket_Full(t *testing.T) {
	var b Block
	q := b.Queue(ServiceLetters)

	for i := uint64(1); i <= RingCapacity; i++ {
		if err := q.PushTicket(i); err != nil {
			t.Fatalf("Push %d failed: %v", i, err)
		}
	}

	if err := q.PushTicket(RingCapacity + 1); !errors.Is(err, errors.ErrRingFull) {
		t.Errorf("Push past capacity returned %v, want ErrRingFull", err)
	}

	if _, ok := q.PopTicket(); !ok {
		t.Fatal("Pop on a full ring should succeed")
	}
	if err := q.PushTicket(RingCapacity + 1); err != nil {
		t.Errorf("Push after one pop failed: %v", err)
	}
}

func TestQueueSlot_IndexWraparound(t *testing.T) {
	var b Block
	q := b.Queue(ServiceBanking)

	// Cycle more tickets than the ring holds so both indexes wrap.
	next := uint64(1)
	expect := uint64(1)
	for cycle := 0; cycle < 3; cycle++ {
		for i := 0; i < RingCapacity/2; i++ {
			if err := q.PushTicket(next); err != nil {
				t.Fatalf("Push %d failed: %v", next, err)
			}
			next++
		}
		for i := 0; i < RingCapacity/2; i++ {
			got, ok := q.PopTicket()
			if !ok {
				t.Fatalf("Pop returned empty, want %d", expect)
			}
			if got != expect {
				t.Fatalf("Pop = %d, want %d", got, expect)
			}
			expect++
		}
	}
}

func TestQueueSlot_LockMutualExclusion(t *testing.T) {
	var b Block
	q := b.Queue(ServiceFinancial)

	const goroutines = 4
	const perGoroutine = 2000

	counter := 0
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				q.Lock()
				counter++
				q.Unlock()
			}
		}()
	}
	wg.Wait()

	if counter != goroutines*perGoroutine {
		t.Errorf("Counter = %d under lock, want %d", counter, goroutines*perGoroutine)
	}
}

func TestQueueSlot_Generations(t *testing.T) {
	var b Block
	q := b.Queue(ServiceWatches)

	q.BumpCompletion()
	q.BumpCompletion()
	if got := q.CompletionGen(); got != 2 {
		t.Errorf("CompletionGen = %d, want 2", got)
	}

	q.BumpArrival()
	if got := q.ArrivalGen(); got != 1 {
		t.Errorf("ArrivalGen = %d, want 1", got)
	}
}

func TestBlock_TotalWaiting(t *testing.T) {
	var b Block

	b.Queue(ServicePackages).SetWaiting(4)
	b.Queue(ServiceBanking).SetWaiting(1)
	b.Queue(ServiceWatches).SetWaiting(10)

	if got := b.TotalWaiting(); got != 15 {
		t.Errorf("TotalWaiting = %d, want 15", got)
	}
}

func TestBlock_Snapshot(t *testing.T) {
	var b Block

	b.SetClock(clock.Time{Day: 1, Hour: 10, Minute: 30})
	b.SetClockActive(true)
	b.NextTicket()
	b.NextTicket()
	b.Stats().AddVisit(true)

	q := b.Queue(ServiceLetters)
	q.SetWaiting(5)
	q.AddServed()
	q.SetLastFinished(2)

	if _, err := b.ClaimSeat(4, 200); err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	b.Seat(0).SetService(ServiceLetters)

	snap := b.Snapshot(4)

	if snap.Clock != (clock.Time{Day: 1, Hour: 10, Minute: 30}) {
		t.Errorf("Snapshot clock = %v", snap.Clock)
	}
	if !snap.ClockActive {
		t.Error("Snapshot should observe the active clock")
	}
	if snap.LastTicket != 2 {
		t.Errorf("Snapshot last ticket = %d, want 2", snap.LastTicket)
	}
	if snap.Stats.VIPVisits != 1 {
		t.Errorf("Snapshot VIP visits = %d, want 1", snap.Stats.VIPVisits)
	}

	letters := snap.Queues[ServiceLetters]
	if letters.Service != ServiceLetters || letters.Waiting != 5 || letters.Served != 1 || letters.LastFinished != 2 {
		t.Errorf("Letters queue snapshot = %+v", letters)
	}

	if len(snap.Seats) != 4 {
		t.Fatalf("Snapshot seats = %d entries, want 4", len(snap.Seats))
	}
	if snap.Seats[0].State != WorkerFree || snap.Seats[0].Service != ServiceLetters || snap.Seats[0].Pid != 200 {
		t.Errorf("Seat 0 snapshot = %+v", snap.Seats[0])
	}
	if snap.Seats[3].State != WorkerOffline {
		t.Errorf("Unclaimed seat state = %v, want offline", snap.Seats[3].State)
	}

	if got := len(b.Snapshot(MaxSeats + 50).Seats); got != MaxSeats {
		t.Errorf("Oversized seat request returned %d entries, want %d", got, MaxSeats)
	}
}
