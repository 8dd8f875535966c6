package balance

import (
	"fmt"

	"github.com/Seintian/postoffice/internal/shm"
)

// Default policy values, matching the configuration defaults.
const (
	defaultMinDepth     = 3
	defaultRatioPercent = 200
)

// Option configures a Balancer.
type Option func(*Balancer)

// WithMinDepth sets the minimum depth of the most-loaded queue before any
// reassignment is considered.
func WithMinDepth(n int) Option {
	return func(b *Balancer) { b.minDepth = n }
}

// WithRatioPercent sets the imbalance threshold: the most-loaded depth over
// the least-loaded depth, as a percentage. A pass reassigns only when the
// observed ratio reaches this value; 200 means one queue holds at least
// twice as many waiting requests as another.
func WithRatioPercent(n int) Option {
	return func(b *Balancer) { b.ratioPercent = n }
}

// Balancer detects queue-depth imbalance across the service queues and
// moves one idle worker per pass toward the most-loaded service.
//
// A Balancer carries no state between passes: every Rebalance call is an
// independent observation of the shared block.
type Balancer struct {
	block        *shm.Block
	seats        int
	minDepth     int
	ratioPercent int
}

// New creates a Balancer over the given shared block. seats is the number
// of worker table entries to scan, clamped to the table size. Unset
// options use defaults.
func New(block *shm.Block, seats int, opts ...Option) *Balancer {
	if block == nil {
		panic("balance: shared block must not be nil")
	}
	if seats < 0 {
		seats = 0
	}
	if seats > shm.MaxSeats {
		seats = shm.MaxSeats
	}
	b := &Balancer{
		block:        block,
		seats:        seats,
		minDepth:     defaultMinDepth,
		ratioPercent: defaultRatioPercent,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Rebalance performs one balancing pass: it snapshots every service
// queue's waiting count, finds the most- and least-loaded queues, and if
// the imbalance clears the configured thresholds it reassigns one idle
// worker from the least-loaded service to the most-loaded one.
//
// The reassignment is a compare-and-swap on the seat's service word, so a
// seat is moved at most once per observation even if its worker changes
// state concurrently. The worker itself picks up the new assignment on
// its next poll.
func (b *Balancer) Rebalance() Decision {
	var depths [shm.NumServices]uint64
	for i := range depths {
		depths[i] = uint64(b.block.Queue(shm.Service(i)).Waiting())
	}
	return b.apply(depths[:])
}

func (b *Balancer) apply(depths []uint64) Decision {
	if len(depths) < 2 {
		return Decision{Action: ActionNone, Reason: "fewer than two service queues"}
	}

	most, least := 0, 0
	for i, d := range depths {
		if d > depths[most] {
			most = i
		}
		if d < depths[least] {
			least = i
		}
	}
	if most == least {
		return Decision{Action: ActionNone, Reason: "queue depths balanced"}
	}

	if depths[most] < uint64(b.minDepth) {
		return Decision{
			Action: ActionNone,
			Reason: fmt.Sprintf("most-loaded depth %d below minimum %d", depths[most], b.minDepth),
		}
	}

	// A drained least-loaded queue is maximal imbalance; the ratio only
	// gates passes where both queues hold work.
	if depths[least] > 0 {
		ratio := depths[most] * 100 / depths[least]
		if ratio < uint64(b.ratioPercent) {
			return Decision{
				Action: ActionNone,
				Reason: fmt.Sprintf("imbalance %d%% below threshold %d%%", ratio, b.ratioPercent),
			}
		}
	}

	from := shm.Service(least)
	to := shm.Service(most)
	for i := 0; i < b.seats; i++ {
		seat := b.block.Seat(i)
		if seat.State() != shm.WorkerFree || seat.Service() != from {
			continue
		}
		if !seat.CompareAndSwapService(from, to) {
			continue
		}
		b.block.Stats().AddReassigned()
		b.block.Queue(to).BumpArrival()
		return Decision{
			Action: ActionReassign,
			Seat:   i,
			From:   from,
			To:     to,
			Reason: fmt.Sprintf("%d waiting on %s with %d on %s", depths[most], to, depths[least], from),
		}
	}

	return Decision{
		Action: ActionNone,
		Reason: fmt.Sprintf("no idle worker on %s", from),
	}
}
