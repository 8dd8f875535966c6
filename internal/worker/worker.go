package worker

import (
	"context"
	"os"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/Seintian/postoffice/internal/barrier"
	"github.com/Seintian/postoffice/internal/broker"
	"github.com/Seintian/postoffice/internal/config"
	"github.com/Seintian/postoffice/internal/errors"
	"github.com/Seintian/postoffice/internal/logging"
	"github.com/Seintian/postoffice/internal/shm"
	"github.com/Seintian/postoffice/internal/wire"
)

// Pool runs a set of worker units inside one process. Each unit claims a
// seat in the shared worker table and serves tickets for whatever service
// its seat is currently assigned to, so a unit follows load-balancer
// reassignments without being told. Unit 0 checks in at the day
// rendezvous for the whole process; the others gate on an in-process day
// signal.
type Pool struct {
	block  *shm.Block
	client *broker.Client
	logger *logging.Logger

	units     int
	seatLimit int
	service   shm.Service
	fixed     bool
	baseID    uint64
	hasID     bool
	legacy    bool

	idle      time.Duration
	minute    time.Duration
	openHour  int
	closeHour int
	means     [shm.NumServices]int
}

// Option adjusts pool construction
type Option func(*options)

type options struct {
	units   int
	service shm.Service
	fixed   bool
	baseID  uint64
	hasID   bool
	socket  string
	logger  *logging.Logger
}

// WithUnits sets how many units the pool runs
func WithUnits(n int) Option {
	return func(o *options) { o.units = n }
}

// WithService fixes every unit's starting service instead of spreading
// units across the service set. Single-unit mode uses this.
func WithService(s shm.Service) Option {
	return func(o *options) { o.service = s; o.fixed = true }
}

// WithIdentity sets the wire identity of unit 0; later units count up
// from it. Without it a unit identifies itself by its seat index.
func WithIdentity(id uint64) Option {
	return func(o *options) { o.baseID = id; o.hasID = true }
}

// WithBrokerSocket overrides the resolved broker socket path
func WithBrokerSocket(path string) Option {
	return func(o *options) { o.socket = path }
}

// WithLogger sets the pool's logger
func WithLogger(l *logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New creates a pool over the shared block. The block must not be nil;
// passing nil panics early to surface wiring bugs immediately.
func New(block *shm.Block, cfg *config.Config, opts ...Option) *Pool {
	if block == nil {
		panic("worker: shared block must not be nil")
	}
	if cfg == nil {
		cfg = config.Default()
	}

	o := &options{units: 1, logger: logging.NopLogger()}
	for _, opt := range opts {
		opt(o)
	}
	if o.units <= 0 {
		o.units = 1
	}
	if o.logger == nil {
		o.logger = logging.NopLogger()
	}
	if o.socket == "" {
		o.socket = cfg.Broker.SocketPath
	}
	if o.socket == "" {
		o.socket = wire.BrokerSocketPath()
	}

	p := &Pool{
		block:     block,
		client:    broker.NewClient(o.socket),
		logger:    o.logger,
		units:     o.units,
		seatLimit: cfg.Workers.Seats,
		service:   o.service,
		fixed:     o.fixed,
		baseID:    o.baseID,
		hasID:     o.hasID,
		legacy:    cfg.Users.Legacy,
		idle:      cfg.Workers.IdlePoll(),
		minute:    cfg.Simulation.MinuteDuration(),
		openHour:  cfg.Simulation.OpeningHour,
		closeHour: cfg.Simulation.ClosingHour,
	}
	for _, s := range shm.Services() {
		p.means[s] = cfg.Services.MeanFor(s.String())
	}
	return p
}

// Run claims one seat per unit, spreads the units across the service set
// unless a fixed service was configured, and serves day after day until
// the simulation stops or ctx is cancelled. All claimed seats are
// released on return.
func (p *Pool) Run(ctx context.Context) error {
	seats, err := p.claimSeats()
	if err != nil {
		return err
	}

	p.logger.Info("worker pool up",
		"units", p.units,
		"seats", seats,
		"legacy", p.legacy,
	)

	gate := barrier.NewGate()
	var wg conc.WaitGroup
	for u := range p.units {
		wg.Go(func() {
			p.runUnit(ctx, u, seats[u], gate)
		})
	}
	wg.Wait()

	p.logger.Info("worker pool down")
	return nil
}

// claimSeats claims every unit's seat up front so the pool either starts
// whole or not at all.
func (p *Pool) claimSeats() ([]int, error) {
	pid := os.Getpid()
	seats := make([]int, 0, p.units)
	for u := range p.units {
		seat, err := p.block.ClaimSeat(p.seatLimit, pid)
		if err != nil {
			for _, s := range seats {
				p.block.Seat(s).Release()
			}
			return nil, errors.Wrapf(err, "failed to claim seat for unit %d", u)
		}
		service := shm.Service(u % shm.NumServices)
		if p.fixed {
			service = p.service
		}
		p.block.Seat(seat).SetService(service)
		seats = append(seats, seat)
	}
	return seats, nil
}

// runUnit is one unit's whole life: rendezvous, serve the day, repeat.
func (p *Pool) runUnit(ctx context.Context, unit, seat int, gate *barrier.Gate) {
	slot := p.block.Seat(seat)
	defer slot.Release()

	id := uint64(seat)
	if p.hasID {
		id = p.baseID + uint64(unit)
	}
	log := p.logger.WithWorker(seat)

	var part *barrier.Participant
	if unit == 0 {
		part = barrier.NewParticipant(p.block)
		defer gate.Stop()
	}

	var last uint64
	for {
		var (
			day uint64
			err error
		)
		if part != nil {
			day, err = part.AwaitDay(ctx)
			if err == nil {
				gate.Open(day)
			}
		} else {
			day, err = gate.Await(ctx, last)
		}
		if err != nil {
			log.Debug("unit leaving", "reason", err)
			return
		}
		last = day

		p.serveDay(ctx, day, id, slot, log)
		if ctx.Err() != nil || p.block.Stopped() {
			return
		}
	}
}

// serveDay serves tickets until the shared clock leaves the given day.
// Outside office hours the seat is parked PAUSED so the balancer leaves
// it alone.
func (p *Pool) serveDay(ctx context.Context, day uint64, id uint64, slot *shm.WorkerSlot, log *logging.Logger) {
	var seen [shm.NumServices]uint64
	for {
		if ctx.Err() != nil || p.block.Stopped() {
			return
		}
		now := p.block.Clock()
		if uint64(now.Day) != day {
			return
		}

		if !now.WithinHours(p.openHour, p.closeHour) {
			if slot.State() == shm.WorkerFree {
				slot.SetState(shm.WorkerPaused)
			}
			time.Sleep(p.idle)
			continue
		}
		if slot.State() == shm.WorkerPaused {
			slot.SetState(shm.WorkerFree)
		}

		service := slot.Service()
		ticket, ok := p.takeWork(ctx, service, id, &seen, log)
		if !ok {
			time.Sleep(p.idle)
			continue
		}
		p.serveTicket(ctx, slot, service, ticket, log)
	}
}

// takeWork fetches the next pending ticket for the seat's service. On
// the legacy path the shared ring is popped directly; otherwise the
// broker is asked, skipping the round-trip while the queue advertises no
// depth and no new arrival.
func (p *Pool) takeWork(ctx context.Context, service shm.Service, id uint64, seen *[shm.NumServices]uint64, log *logging.Logger) (uint64, bool) {
	q := p.block.Queue(service)

	if p.legacy {
		return q.PopTicket()
	}

	gen := q.ArrivalGen()
	if q.Waiting() == 0 && gen == seen[service] {
		return 0, false
	}
	seen[service] = gen

	item, ok, err := p.client.GetWork(ctx, service, id)
	if err != nil {
		if ctx.Err() == nil && !p.block.Stopped() {
			log.Warn("get-work failed", "service", service.String(), "error", err)
		}
		return 0, false
	}
	return item.Ticket, ok
}

// serveTicket holds the seat BUSY for the service's mean duration, then
// publishes the completion: served counters, last-finished marker,
// completion generation. An interrupted service completes nothing.
func (p *Pool) serveTicket(ctx context.Context, slot *shm.WorkerSlot, service shm.Service, ticket uint64, log *logging.Logger) {
	slot.SetTicket(ticket)
	slot.SetState(shm.WorkerBusy)
	defer func() {
		slot.SetTicket(0)
		slot.SetState(shm.WorkerFree)
	}()

	d := time.Duration(p.means[service]) * p.minute
	if !sleepCtx(ctx, d) {
		log.Debug("service interrupted", "ticket", ticket)
		return
	}

	q := p.block.Queue(service)
	q.AddServed()
	q.SetLastFinished(ticket)
	q.BumpCompletion()
	p.block.Stats().AddServed()

	log.Debug("ticket served", "ticket", ticket, "service", service.String())
}

// sleepCtx sleeps for d, returning false if ctx ends first
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
