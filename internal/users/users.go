package users

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
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

// Manager runs the customer side of the simulation inside one process.
// Each user unit is a goroutine with its own deterministic random
// stream; the manager itself sits at the day rendezvous and relays each
// day to the units.
type Manager struct {
	block  *shm.Block
	client *broker.Client
	logger *logging.Logger

	count      int
	requests   int
	visitProb  float64
	vipPercent float64
	legacy     bool
	seed       int64

	idle      time.Duration
	openHour  int
	closeHour int
}

// Option adjusts manager construction
type Option func(*options)

type options struct {
	count  int
	seed   int64
	socket string
	logger *logging.Logger
}

// WithCount overrides the configured user population
func WithCount(n int) Option {
	return func(o *options) { o.count = n }
}

// WithSeed overrides the configured randomness seed
func WithSeed(seed int64) Option {
	return func(o *options) { o.seed = seed }
}

// WithBrokerSocket overrides the resolved broker socket path
func WithBrokerSocket(path string) Option {
	return func(o *options) { o.socket = path }
}

// WithLogger sets the manager's logger
func WithLogger(l *logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New creates a manager over the shared block. The block must not be
// nil; passing nil panics early to surface wiring bugs immediately.
func New(block *shm.Block, cfg *config.Config, opts ...Option) *Manager {
	if block == nil {
		panic("users: shared block must not be nil")
	}
	if cfg == nil {
		cfg = config.Default()
	}

	o := &options{
		count:  cfg.Users.Count,
		seed:   cfg.Simulation.Seed,
		socket: cfg.Broker.SocketPath,
		logger: logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.count <= 0 {
		o.count = 1
	}
	if o.logger == nil {
		o.logger = logging.NopLogger()
	}
	if o.socket == "" {
		o.socket = wire.BrokerSocketPath()
	}
	if o.seed == 0 {
		o.seed = time.Now().UnixNano()
	}

	return &Manager{
		block:      block,
		client:     broker.NewClient(o.socket),
		logger:     o.logger,
		count:      o.count,
		requests:   cfg.Users.RequestsPerDay,
		visitProb:  cfg.Users.VisitProb,
		vipPercent: cfg.Users.VIPPercent,
		legacy:     cfg.Users.Legacy,
		seed:       o.seed,
		idle:       cfg.Workers.IdlePoll(),
		openHour:   cfg.Simulation.OpeningHour,
		closeHour:  cfg.Simulation.ClosingHour,
	}
}

// Run spawns the user units and holds the process's place at the day
// rendezvous until the simulation stops or ctx is cancelled.
func (m *Manager) Run(ctx context.Context) error {
	m.logger.Info("users manager up",
		"users", m.count,
		"requests_per_day", m.requests,
		"seed", m.seed,
		"legacy", m.legacy,
	)

	gate := barrier.NewGate()
	var wg conc.WaitGroup
	for u := range m.count {
		rng := rand.New(rand.NewSource(m.userSeed(u)))
		wg.Go(func() {
			m.runUser(ctx, u, rng, gate)
		})
	}

	part := barrier.NewParticipant(m.block)
	for {
		day, err := part.AwaitDay(ctx)
		if err != nil {
			gate.Stop()
			break
		}
		gate.Open(day)
	}
	wg.Wait()

	m.logger.Info("users manager down")
	return nil
}

// userSeed derives one unit's seed so the streams stay isolated: two
// users never share a sequence, and a fixed master seed reproduces
// every user's behavior run over run.
func (m *Manager) userSeed(user int) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "user_%d", user)
	return m.seed ^ int64(h.Sum64())
}

// runUser is one user's whole life: await the day, maybe visit, repeat.
func (m *Manager) runUser(ctx context.Context, id int, rng *rand.Rand, gate *barrier.Gate) {
	log := m.logger.With("user", id)

	var last uint64
	for {
		day, err := gate.Await(ctx, last)
		if err != nil {
			return
		}
		last = day

		m.liveDay(ctx, day, uint64(id), rng, log)
		if ctx.Err() != nil || m.block.Stopped() {
			return
		}
	}
}

// liveDay plays out one user's day: decide whether to visit, show up at
// a random minute of the open hours, then run the configured number of
// service requests back to back, giving up at closing time.
func (m *Manager) liveDay(ctx context.Context, day uint64, id uint64, rng *rand.Rand, log *logging.Logger) {
	if rng.Float64() >= m.visitProb {
		return
	}
	vip := rng.Float64() < m.vipPercent
	arrival := m.openHour*60 + rng.Intn((m.closeHour-m.openHour)*60)

	if !m.awaitMinute(ctx, day, arrival) {
		return
	}
	m.block.Stats().AddVisit(vip)
	log.Debug("user visiting", "day", day, "vip", vip)

	for range m.requests {
		now := m.block.Clock()
		if uint64(now.Day) != day || now.Hour >= m.closeHour {
			return
		}

		service := shm.Service(rng.Intn(shm.NumServices))
		ticket, err := m.join(ctx, day, service, id, vip)
		if err != nil {
			if errors.Is(err, errors.ErrRingFull) {
				m.block.Stats().AddUnserved()
			} else if ctx.Err() == nil && !m.block.Stopped() {
				log.Warn("join failed", "service", service.String(), "error", err)
			}
			return
		}

		if !m.awaitServed(ctx, day, service, ticket) {
			m.block.Stats().AddUnserved()
			log.Debug("user gave up", "ticket", ticket, "service", service.String())
			return
		}
		log.Debug("user served", "ticket", ticket, "service", service.String())
	}
}

// awaitMinute holds the user at home until the clock reaches its
// arrival minute. Returns false when the day ends or the simulation
// stops first.
func (m *Manager) awaitMinute(ctx context.Context, day uint64, minute int) bool {
	for {
		if ctx.Err() != nil || m.block.Stopped() {
			return false
		}
		now := m.block.Clock()
		if uint64(now.Day) != day {
			return false
		}
		if now.MinuteOfDay() >= minute {
			return true
		}
		time.Sleep(m.idle)
	}
}

// join queues one request. On the broker path a single join round-trip
// does everything; on the legacy path the broker only issues the ticket
// and the user pushes it onto the service's shared ring, waiting out
// backpressure until closing time.
func (m *Manager) join(ctx context.Context, day uint64, service shm.Service, id uint64, vip bool) (uint64, error) {
	if !m.legacy {
		return m.client.JoinQueue(ctx, service, id, vip)
	}

	ticket, err := m.client.RequestTicket(ctx, service, id, vip)
	if err != nil {
		return 0, err
	}

	q := m.block.Queue(service)
	for {
		err := q.PushTicket(ticket)
		if err == nil {
			return ticket, nil
		}
		if !errors.Is(err, errors.ErrRingFull) {
			return 0, err
		}

		if ctx.Err() != nil || m.block.Stopped() {
			return 0, err
		}
		now := m.block.Clock()
		if uint64(now.Day) != day || now.Hour >= m.closeHour {
			return 0, err
		}
		time.Sleep(m.idle)
	}
}

// awaitServed watches the queue's completion generation and checks the
// last-finished marker on every advance, until the ticket shows up, the
// office closes, or the day ends.
func (m *Manager) awaitServed(ctx context.Context, day uint64, service shm.Service, ticket uint64) bool {
	q := m.block.Queue(service)
	gen := q.CompletionGen()
	for {
		if q.LastFinished() == ticket {
			return true
		}
		if ctx.Err() != nil || m.block.Stopped() {
			return false
		}
		now := m.block.Clock()
		if uint64(now.Day) != day || now.Hour >= m.closeHour {
			return false
		}

		// A completion bump re-checks the marker immediately; quiet
		// periods fall through to the sleep.
		if g := q.CompletionGen(); g != gen {
			gen = g
			continue
		}
		time.Sleep(m.idle)
	}
}
