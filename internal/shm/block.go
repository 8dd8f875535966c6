package shm

import (
	"runtime"
	"sync/atomic"

	"github.com/Seintian/postoffice/internal/clock"
	"github.com/Seintian/postoffice/internal/errors"
)

// Clock returns the current simulated instant
func (b *Block) Clock() clock.Time {
	return clock.Unpack(atomic.LoadUint64(&b.header.clockWord))
}

// SetClock publishes a new simulated instant
func (b *Block) SetClock(t clock.Time) {
	atomic.StoreUint64(&b.header.clockWord, clock.Pack(t))
}

// ClockActive reports whether the simulation clock is running
func (b *Block) ClockActive() bool {
	return atomic.LoadUint32(&b.header.clockActive) == 1
}

// SetClockActive flips the clock's active flag
func (b *Block) SetClockActive(active bool) {
	var v uint32
	if active {
		v = 1
	}
	atomic.StoreUint32(&b.header.clockActive, v)
}

// Stopped reports whether cooperative shutdown was requested. Every
// blocking loop in every process checks this between iterations.
func (b *Block) Stopped() bool {
	return atomic.LoadUint32(&b.header.stop) == 1
}

// RequestStop asks every attached process to wind down
func (b *Block) RequestStop() {
	atomic.StoreUint32(&b.header.stop, 1)
}

// NextTicket issues the next globally unique ticket number. The
// increment is the only total order the simulation guarantees.
func (b *Block) NextTicket() uint64 {
	return atomic.AddUint64(&b.header.ticketSeq, 1)
}

// LastTicket returns the most recently issued ticket number
func (b *Block) LastTicket() uint64 {
	return atomic.LoadUint64(&b.header.ticketSeq)
}

// Stats returns the aggregate counter block
func (b *Block) Stats() *StatsBlock {
	return &b.stats
}

// Barrier returns the day-rendezvous block
func (b *Block) Barrier() *BarrierBlock {
	return &b.barrier
}

// Seat returns worker-status entry i
func (b *Block) Seat(i int) *WorkerSlot {
	return &b.seats[i]
}

// Queue returns the queue entry for a service
func (b *Block) Queue(s Service) *QueueSlot {
	return &b.queues[s]
}

// TotalWaiting sums the waiting counts across every service queue, for
// the explode-threshold check.
func (b *Block) TotalWaiting() uint64 {
	var total uint64
	for i := range b.queues {
		total += uint64(atomic.LoadUint32(&b.queues[i].waiting))
	}
	return total
}

// ClaimSeat claims the first offline seat below limit for the calling
// worker, marking it free and recording the pid. Returns the seat index
// or ErrSeatTableFull.
func (b *Block) ClaimSeat(limit int, pid int) (int, error) {
	if limit > MaxSeats {
		limit = MaxSeats
	}
	for i := 0; i < limit; i++ {
		slot := &b.seats[i]
		if atomic.CompareAndSwapUint32(&slot.state, uint32(WorkerOffline), uint32(WorkerFree)) {
			atomic.StoreUint32(&slot.pid, uint32(pid))
			atomic.StoreUint64(&slot.ticket, 0)
			return i, nil
		}
	}
	return 0, errors.ErrSeatTableFull
}

// ----- StatsBlock -----

// Stats is a point-in-time copy of the aggregate counters
type Stats struct {
	Issued     uint64
	Served     uint64
	Unserved   uint64
	Visits     uint64
	VIPVisits  uint64
	Reassigned uint64
}

// AddIssued counts one issued ticket
func (s *StatsBlock) AddIssued() { atomic.AddUint64(&s.issued, 1) }

// AddServed counts one served ticket
func (s *StatsBlock) AddServed() { atomic.AddUint64(&s.served, 1) }

// AddUnserved counts one user who gave up at closing time
func (s *StatsBlock) AddUnserved() { atomic.AddUint64(&s.unserved, 1) }

// AddVisit counts one office visit, VIP or ordinary
func (s *StatsBlock) AddVisit(vip bool) {
	atomic.AddUint64(&s.visits, 1)
	if vip {
		atomic.AddUint64(&s.vipVisits, 1)
	}
}

// AddReassigned counts one load-balancer reassignment
func (s *StatsBlock) AddReassigned() { atomic.AddUint64(&s.reassigned, 1) }

// Snapshot copies the counters
func (s *StatsBlock) Snapshot() Stats {
	return Stats{
		Issued:     atomic.LoadUint64(&s.issued),
		Served:     atomic.LoadUint64(&s.served),
		Unserved:   atomic.LoadUint64(&s.unserved),
		Visits:     atomic.LoadUint64(&s.visits),
		VIPVisits:  atomic.LoadUint64(&s.vipVisits),
		Reassigned: atomic.LoadUint64(&s.reassigned),
	}
}

// ----- BarrierBlock -----

// Round returns the published round sequence
func (bb *BarrierBlock) Round() uint64 { return atomic.LoadUint64(&bb.round) }

// PublishRound publishes a new round sequence
func (bb *BarrierBlock) PublishRound(r uint64) { atomic.StoreUint64(&bb.round, r) }

// Required returns the fixed participant count
func (bb *BarrierBlock) Required() uint32 { return atomic.LoadUint32(&bb.required) }

// SetRequired fixes the participant count. Called once at startup.
func (bb *BarrierBlock) SetRequired(n uint32) { atomic.StoreUint32(&bb.required, n) }

// Ready returns the current round's check-in count
func (bb *BarrierBlock) Ready() uint32 { return atomic.LoadUint32(&bb.ready) }

// CheckIn registers one participant for the current round and returns
// the new ready count.
func (bb *BarrierBlock) CheckIn() uint32 { return atomic.AddUint32(&bb.ready, 1) }

// ResetReady zeroes the ready count for the next round
func (bb *BarrierBlock) ResetReady() { atomic.StoreUint32(&bb.ready, 0) }

// Active reports whether a day is in progress
func (bb *BarrierBlock) Active() bool { return atomic.LoadUint32(&bb.active) == 1 }

// SetActive flips the day-in-progress flag
func (bb *BarrierBlock) SetActive(active bool) {
	var v uint32
	if active {
		v = 1
	}
	atomic.StoreUint32(&bb.active, v)
}

// ----- WorkerSlot -----

// State returns the seat's lifecycle state
func (w *WorkerSlot) State() WorkerState {
	return WorkerState(atomic.LoadUint32(&w.state))
}

// SetState publishes a new lifecycle state
func (w *WorkerSlot) SetState(s WorkerState) {
	atomic.StoreUint32(&w.state, uint32(s))
}

// CompareAndSwapState transitions the seat only from the expected state
func (w *WorkerSlot) CompareAndSwapState(old, new WorkerState) bool {
	return atomic.CompareAndSwapUint32(&w.state, uint32(old), uint32(new))
}

// Service returns the service the seat is assigned to
func (w *WorkerSlot) Service() Service {
	return Service(atomic.LoadUint32(&w.service))
}

// SetService assigns the seat to a service
func (w *WorkerSlot) SetService(s Service) {
	atomic.StoreUint32(&w.service, uint32(s))
}

// CompareAndSwapService reassigns the seat only from the expected
// service. The load balancer uses this so a seat is moved at most once
// per imbalance observation.
func (w *WorkerSlot) CompareAndSwapService(old, new Service) bool {
	return atomic.CompareAndSwapUint32(&w.service, uint32(old), uint32(new))
}

// Ticket returns the ticket the seat is serving, zero when idle
func (w *WorkerSlot) Ticket() uint64 {
	return atomic.LoadUint64(&w.ticket)
}

// SetTicket publishes the ticket the seat is serving
func (w *WorkerSlot) SetTicket(t uint64) {
	atomic.StoreUint64(&w.ticket, t)
}

// Pid returns the owning process id
func (w *WorkerSlot) Pid() int {
	return int(atomic.LoadUint32(&w.pid))
}

// Release marks the seat offline. The pid stays for post-mortem reads.
func (w *WorkerSlot) Release() {
	atomic.StoreUint64(&w.ticket, 0)
	atomic.StoreUint32(&w.state, uint32(WorkerOffline))
}

// ----- QueueSlot -----

// Lock acquires the queue's spinlock, yielding between attempts so a
// holder in another process gets scheduled.
func (q *QueueSlot) Lock() {
	for !atomic.CompareAndSwapUint32(&q.lock, 0, 1) {
		runtime.Gosched()
	}
}

// Unlock releases the queue's spinlock
func (q *QueueSlot) Unlock() {
	atomic.StoreUint32(&q.lock, 0)
}

// Waiting returns the queue's current depth
func (q *QueueSlot) Waiting() uint32 {
	return atomic.LoadUint32(&q.waiting)
}

// SetWaiting mirrors an externally owned depth (the broker's heap) into
// the shared count.
func (q *QueueSlot) SetWaiting(n uint32) {
	atomic.StoreUint32(&q.waiting, n)
}

// Served returns the queue's total served count
func (q *QueueSlot) Served() uint64 {
	return atomic.LoadUint64(&q.served)
}

// AddServed counts one completed ticket on this queue
func (q *QueueSlot) AddServed() {
	atomic.AddUint64(&q.served, 1)
}

// LastFinished returns the most recently completed ticket
func (q *QueueSlot) LastFinished() uint64 {
	return atomic.LoadUint64(&q.lastFinished)
}

// SetLastFinished publishes the most recently completed ticket
func (q *QueueSlot) SetLastFinished(t uint64) {
	atomic.StoreUint64(&q.lastFinished, t)
}

// ArrivalGen returns the arrival wake generation. Workers blocked on an
// empty queue re-check state whenever it advances.
func (q *QueueSlot) ArrivalGen() uint64 {
	return atomic.LoadUint64(&q.arrivalGen)
}

// BumpArrival wakes pollers waiting for work to arrive
func (q *QueueSlot) BumpArrival() {
	atomic.AddUint64(&q.arrivalGen, 1)
}

// CompletionGen returns the completion wake generation. Users polling
// for their ticket re-check the last-finished marker whenever it
// advances.
func (q *QueueSlot) CompletionGen() uint64 {
	return atomic.LoadUint64(&q.completionGen)
}

// BumpCompletion wakes pollers waiting on completions
func (q *QueueSlot) BumpCompletion() {
	atomic.AddUint64(&q.completionGen, 1)
}

// PushTicket appends a pending ticket to the legacy ring and bumps the
// arrival generation. Returns ErrRingFull when the ring is at capacity;
// the waiting count always equals the ring's occupancy on this path.
func (q *QueueSlot) PushTicket(ticket uint64) error {
	q.Lock()
	head := atomic.LoadUint32(&q.head)
	tail := atomic.LoadUint32(&q.tail)
	if tail-head >= RingCapacity {
		q.Unlock()
		return errors.ErrRingFull
	}
	atomic.StoreUint64(&q.ring[tail%RingCapacity], ticket)
	atomic.StoreUint32(&q.tail, tail+1)
	atomic.StoreUint32(&q.waiting, tail+1-head)
	q.Unlock()

	q.BumpArrival()
	return nil
}

// PopTicket removes the oldest pending ticket from the legacy ring.
// Returns false when the ring is empty.
func (q *QueueSlot) PopTicket() (uint64, bool) {
	q.Lock()
	head := atomic.LoadUint32(&q.head)
	tail := atomic.LoadUint32(&q.tail)
	if head == tail {
		q.Unlock()
		return 0, false
	}
	ticket := atomic.LoadUint64(&q.ring[head%RingCapacity])
	atomic.StoreUint32(&q.head, head+1)
	atomic.StoreUint32(&q.waiting, tail-head-1)
	q.Unlock()
	return ticket, true
}

// ----- snapshots -----

// QueueSnapshot is a point-in-time copy of one service queue's counters
type QueueSnapshot struct {
	Service      Service
	Waiting      uint32
	Served       uint64
	LastFinished uint64
}

// SeatSnapshot is a point-in-time copy of one worker seat
type SeatSnapshot struct {
	Seat    int
	State   WorkerState
	Service Service
	Ticket  uint64
	Pid     int
}

// Snapshot is a point-in-time copy of everything the dashboard and the
// reports read.
type Snapshot struct {
	Clock       clock.Time
	ClockActive bool
	LastTicket  uint64
	Stats       Stats
	Queues      [NumServices]QueueSnapshot
	Seats       []SeatSnapshot
}

// Snapshot copies the block's observable state. seats bounds how many
// worker entries are copied.
func (b *Block) Snapshot(seats int) Snapshot {
	if seats > MaxSeats {
		seats = MaxSeats
	}

	snap := Snapshot{
		Clock:       b.Clock(),
		ClockActive: b.ClockActive(),
		LastTicket:  b.LastTicket(),
		Stats:       b.stats.Snapshot(),
		Seats:       make([]SeatSnapshot, 0, seats),
	}

	for i, svc := range Services() {
		q := b.Queue(svc)
		snap.Queues[i] = QueueSnapshot{
			Service:      svc,
			Waiting:      q.Waiting(),
			Served:       q.Served(),
			LastFinished: q.LastFinished(),
		}
	}

	for i := 0; i < seats; i++ {
		slot := b.Seat(i)
		snap.Seats = append(snap.Seats, SeatSnapshot{
			Seat:    i,
			State:   slot.State(),
			Service: slot.Service(),
			Ticket:  slot.Ticket(),
			Pid:     slot.Pid(),
		})
	}

	return snap
}
