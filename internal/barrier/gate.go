package barrier

import (
	"context"
	"sync"

	"github.com/Seintian/postoffice/internal/errors"
)

// Gate relays the day rendezvous inside one process. Only one unit per
// process sits at the shared barrier; it opens the gate after each
// rendezvous and every other unit awaits it here instead.
type Gate struct {
	mu   sync.Mutex
	day  uint64
	next chan struct{}
	done chan struct{}
}

// NewGate returns a gate with no day opened yet.
func NewGate() *Gate {
	return &Gate{
		next: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Open publishes a newly started day and wakes every waiter.
func (g *Gate) Open(day uint64) {
	g.mu.Lock()
	g.day = day
	close(g.next)
	g.next = make(chan struct{})
	g.mu.Unlock()
}

// Stop wakes every waiter for good. Called once, when the unit at the
// barrier leaves.
func (g *Gate) Stop() {
	close(g.done)
}

// Await blocks until a day newer than last opens.
func (g *Gate) Await(ctx context.Context, last uint64) (uint64, error) {
	for {
		g.mu.Lock()
		day, next := g.day, g.next
		g.mu.Unlock()
		if day > last {
			return day, nil
		}

		select {
		case <-next:
		case <-g.done:
			return 0, errors.ErrSimulationStopped
		case <-ctx.Done():
			return 0, errors.Wrap(ctx.Err(), "day gate interrupted")
		}
	}
}
