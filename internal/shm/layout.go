package shm

import "unsafe"

// The shared block is one fixed, unversioned layout. Every field that
// more than one process touches is either a lock word or is accessed
// through sync/atomic, and every concurrently-written entry is padded
// out to a cache line so neighbours never share one.

const (
	// cacheLine is the padding unit for per-entry isolation
	cacheLine = 64

	// MaxSeats is the worker-status table capacity baked into the layout.
	// The configured pool size bounds how many are claimable at runtime.
	MaxSeats = 128

	// RingCapacity is the pending-ticket ring size of each service queue
	// on the legacy path. Power of two so occupancy is tail-head with
	// free wraparound.
	RingCapacity = 64
)

// header carries the simulated clock, the global ticket sequence, and
// the run flags. One cache line, written by the Director, read by all.
type header struct {
	clockWord   uint64
	ticketSeq   uint64
	clockActive uint32
	stop        uint32
	_           [cacheLine - 24]byte
}

// StatsBlock aggregates simulation-wide counters
type StatsBlock struct {
	issued     uint64
	served     uint64
	unserved   uint64
	visits     uint64
	vipVisits  uint64
	reassigned uint64
	_          [cacheLine - 48]byte
}

// BarrierBlock is the day-rendezvous state: the published round, the
// fixed participant count, the per-round ready count, and the
// day-in-progress flag.
type BarrierBlock struct {
	round    uint64
	required uint32
	ready    uint32
	active   uint32
	_        [cacheLine - 20]byte
}

// WorkerSlot is one worker-status table entry
type WorkerSlot struct {
	ticket  uint64
	state   uint32
	service uint32
	pid     uint32
	_       [cacheLine - 20]byte
}

// QueueSlot is one per-service queue entry: the depth and served
// counters every process reads, the two wake generations (arrival,
// completion) pollers watch, the last-finished marker, and the legacy
// pending-ticket ring guarded by the lock word.
type QueueSlot struct {
	served        uint64
	lastFinished  uint64
	arrivalGen    uint64
	completionGen uint64
	ring          [RingCapacity]uint64
	lock          uint32
	waiting       uint32
	head          uint32
	tail          uint32
	_             [cacheLine - 48]byte
}

// Block is the complete layout of the shared region
type Block struct {
	header  header
	stats   StatsBlock
	barrier BarrierBlock
	seats   [MaxSeats]WorkerSlot
	queues  [NumServices]QueueSlot
}

// BlockSize is the byte size of the mapped layout
const BlockSize = int(unsafe.Sizeof(Block{}))
