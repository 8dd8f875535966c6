package barrier

import (
	"context"
	"time"

	"github.com/Seintian/postoffice/internal/errors"
	"github.com/Seintian/postoffice/internal/shm"
)

const (
	// defaultPollInterval is how long waiters sleep between re-checks of
	// the shared barrier words. Kept far below the simulated minute so
	// rendezvous latency never shows up in the calendar.
	defaultPollInterval = 100 * time.Microsecond
)

// Coordinator is the Director's side of the day rendezvous. One exists
// per simulation run.
type Coordinator struct {
	block *shm.Block
	poll  time.Duration
}

// NewCoordinator fixes the participant count for the run and returns
// the Director's rendezvous handle.
func NewCoordinator(block *shm.Block, participants uint32) *Coordinator {
	block.Barrier().SetRequired(participants)
	return &Coordinator{block: block, poll: defaultPollInterval}
}

// StartDay opens the rendezvous for a day and blocks until every
// participant has checked in, then releases them together. On return
// the ready count is zero and the round is inactive.
//
// The active flag is raised before the round is published: a
// participant can only observe the new round after the hold gate is
// already up, so none slips past the release.
func (c *Coordinator) StartDay(ctx context.Context, day uint64) error {
	bar := c.block.Barrier()

	bar.ResetReady()
	bar.SetActive(true)
	bar.PublishRound(day)

	// Workers blocked on an empty queue re-check state once their
	// arrival generation moves.
	for _, svc := range shm.Services() {
		c.block.Queue(svc).BumpArrival()
	}

	for bar.Ready() < bar.Required() {
		if err := c.live(ctx); err != nil {
			bar.SetActive(false)
			return err
		}
		time.Sleep(c.poll)
	}

	bar.SetActive(false)
	bar.ResetReady()
	return nil
}

func (c *Coordinator) live(ctx context.Context) error {
	if c.block.Stopped() {
		return errors.ErrSimulationStopped
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "day rendezvous interrupted")
	}
	return nil
}

// Participant is one process class's side of the day rendezvous. The
// worker pool, the users-manager and the broker each hold exactly one.
type Participant struct {
	block *shm.Block
	last  uint64
	poll  time.Duration
}

// NewParticipant returns a rendezvous handle that has not synchronized
// on any day yet.
func NewParticipant(block *shm.Block) *Participant {
	return &Participant{block: block, poll: defaultPollInterval}
}

// LastDay returns the most recent day this participant synchronized on,
// zero before the first rendezvous.
func (p *Participant) LastDay() uint64 {
	return p.last
}

// AwaitDay blocks until the Director opens a day newer than the last
// one synchronized, checks in exactly once, holds until the Director
// releases the round, and returns the new day number.
func (p *Participant) AwaitDay(ctx context.Context) (uint64, error) {
	bar := p.block.Barrier()

	var day uint64
	for {
		day = bar.Round()
		if day > p.last {
			break
		}
		if err := p.live(ctx); err != nil {
			return 0, err
		}
		time.Sleep(p.poll)
	}

	bar.CheckIn()

	// A round advance here means the release was missed entirely, so
	// the hold exits on either condition.
	for bar.Active() && bar.Round() == day {
		if err := p.live(ctx); err != nil {
			return 0, err
		}
		time.Sleep(p.poll)
	}

	p.last = day
	return day, nil
}

func (p *Participant) live(ctx context.Context) error {
	if p.block.Stopped() {
		return errors.ErrSimulationStopped
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "day rendezvous interrupted")
	}
	return nil
}
