package broker

import (
	"context"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/Seintian/postoffice/internal/errors"
	"github.com/Seintian/postoffice/internal/logging"
	"github.com/Seintian/postoffice/internal/pqueue"
	"github.com/Seintian/postoffice/internal/shm"
	"github.com/Seintian/postoffice/internal/wire"
)

// defaultHandlers is the connection handler pool size when no override
// is configured.
const defaultHandlers = 4

// Broker issues tickets and dispenses work in priority order. It owns
// one indexed priority queue per service behind that service's lock,
// answers join-queue and get-work requests over a local socket, and
// mirrors every queue's depth into the shared block so the balancer and
// the dashboard see it.
type Broker struct {
	block  *shm.Block
	logger *logging.Logger

	path     string
	handlers int

	queues [shm.NumServices]serviceQueue

	listener net.Listener
	pool     *pool.Pool
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	closed   atomic.Bool

	mu      sync.Mutex
	conns   map[net.Conn]struct{}
	started bool
}

type serviceQueue struct {
	mu    sync.Mutex
	items *pqueue.Queue
}

// Option adjusts broker construction
type Option func(*config)

type config struct {
	path     string
	handlers int
	logger   *logging.Logger
}

// WithSocketPath overrides the resolved listening socket path
func WithSocketPath(path string) Option {
	return func(c *config) { c.path = path }
}

// WithHandlers sets the connection handler pool size
func WithHandlers(n int) Option {
	return func(c *config) { c.handlers = n }
}

// WithLogger sets the broker's logger
func WithLogger(l *logging.Logger) Option {
	return func(c *config) { c.logger = l }
}

// New creates a broker over the shared block. The block must not be
// nil; passing nil panics early to surface wiring bugs immediately.
func New(block *shm.Block, opts ...Option) *Broker {
	if block == nil {
		panic("broker: shared block must not be nil")
	}

	cfg := &config{
		path:     wire.BrokerSocketPath(),
		handlers: defaultHandlers,
		logger:   logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.handlers <= 0 {
		cfg.handlers = defaultHandlers
	}
	if cfg.logger == nil {
		cfg.logger = logging.NopLogger()
	}

	b := &Broker{
		block:    block,
		logger:   cfg.logger,
		path:     cfg.path,
		handlers: cfg.handlers,
		conns:    make(map[net.Conn]struct{}),
	}
	for i := range b.queues {
		b.queues[i].items = pqueue.New()
	}
	return b
}

// SocketPath returns the path the broker listens on
func (b *Broker) SocketPath() string {
	return b.path
}

// Start listens on the socket and begins accepting connections. It
// returns immediately; call Stop to shut down.
func (b *Broker) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started {
		return errors.New("broker: already started")
	}

	// A stale socket from a crashed run blocks the listen call.
	_ = os.Remove(b.path)

	listener, err := net.Listen("unix", b.path)
	if err != nil {
		return errors.NewBrokerError("failed to listen on broker socket", err)
	}

	b.listener = listener
	b.ctx, b.cancel = context.WithCancel(ctx)
	b.pool = pool.New().WithMaxGoroutines(b.handlers)
	b.started = true

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.acceptLoop()
	}()

	b.logger.Info("broker listening", "socket", b.path, "handlers", b.handlers)
	return nil
}

// Stop closes the listener and every open connection, waits for the
// handler pool to drain, and removes the socket file. Safe to call more
// than once.
func (b *Broker) Stop() {
	b.mu.Lock()
	if !b.started {
		b.mu.Unlock()
		return
	}
	b.closed.Store(true)
	b.cancel()
	_ = b.listener.Close()
	for conn := range b.conns {
		_ = conn.Close()
	}
	b.mu.Unlock()

	b.wg.Wait()
	b.pool.Wait()
	_ = os.Remove(b.path)

	b.mu.Lock()
	b.started = false
	b.mu.Unlock()
}

// IssueTicket assigns the next globally unique ticket number
func (b *Broker) IssueTicket() (uint64, error) {
	if b.closed.Load() {
		return 0, errors.ErrBrokerClosed
	}
	ticket := b.block.NextTicket()
	b.block.Stats().AddIssued()
	return ticket, nil
}

// Join assigns a ticket, queues the request for its service stamped
// with the current time, and wakes workers polling that queue.
func (b *Broker) Join(service shm.Service, requester uint64, vip bool) (uint64, error) {
	if !service.Valid() {
		return 0, errors.Wrapf(errors.ErrUnknownService, "join service %d", service)
	}
	ticket, err := b.IssueTicket()
	if err != nil {
		return 0, err
	}

	q := &b.queues[service]
	q.mu.Lock()
	pushErr := q.items.Push(pqueue.Item{
		Ticket:    ticket,
		Requester: requester,
		VIP:       vip,
		Arrival:   time.Now(),
	})
	depth := q.items.Len()
	b.block.Queue(service).SetWaiting(uint32(depth))
	q.mu.Unlock()

	if pushErr != nil {
		return 0, errors.NewBrokerError("failed to queue join", pushErr).
			WithService(service.String()).WithTicket(ticket)
	}

	b.block.Queue(service).BumpArrival()
	return ticket, nil
}

// TakeWork pops the highest-priority pending item for a service. The
// second return is false when the queue is empty.
func (b *Broker) TakeWork(service shm.Service) (pqueue.Item, bool, error) {
	if !service.Valid() {
		return pqueue.Item{}, false, errors.Wrapf(errors.ErrUnknownService, "take service %d", service)
	}
	if b.closed.Load() {
		return pqueue.Item{}, false, errors.ErrBrokerClosed
	}

	q := &b.queues[service]
	q.mu.Lock()
	item, ok := q.items.Pop()
	depth := q.items.Len()
	b.block.Queue(service).SetWaiting(uint32(depth))
	q.mu.Unlock()

	return item, ok, nil
}

// Pending returns a service queue's current depth
func (b *Broker) Pending(service shm.Service) int {
	q := &b.queues[service]
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// ResetDay discards every pending item so the new day starts with empty
// queues. The users that queued them already counted themselves unserved
// at closing time. Returns the number of discarded items.
func (b *Broker) ResetDay() int {
	discarded := 0
	for i := range b.queues {
		service := shm.Service(i)

		q := &b.queues[i]
		q.mu.Lock()
		for {
			if _, ok := q.items.Pop(); !ok {
				break
			}
			discarded++
		}
		q.mu.Unlock()

		// Legacy ring entries live in the shared block, not the heap.
		slot := b.block.Queue(service)
		for {
			if _, ok := slot.PopTicket(); !ok {
				break
			}
			discarded++
		}
		slot.SetWaiting(0)
	}
	if discarded > 0 {
		b.logger.Info("discarded stale tickets at day reset", "count", discarded)
	}
	return discarded
}

// acceptLoop hands each accepted connection to the handler pool. The
// pool bounds concurrent connections; when all handlers are busy the
// hand-off blocks, which in turn parks the accept loop.
func (b *Broker) acceptLoop() {
	for {
		conn, err := b.listener.Accept()
		if err != nil {
			if b.ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			b.logger.Error("accept failed", "error", err)
			return
		}

		b.mu.Lock()
		b.conns[conn] = struct{}{}
		b.mu.Unlock()

		b.pool.Go(func() {
			b.handle(conn)
		})
	}
}

// handle serves one connection until the client closes it or breaks
// protocol. A malformed or unexpected message closes only this
// connection; the broker keeps serving.
func (b *Broker) handle(conn net.Conn) {
	defer func() {
		b.mu.Lock()
		delete(b.conns, conn)
		b.mu.Unlock()
		_ = conn.Close()
	}()

	for {
		msg, err := wire.ReadMessage(conn)
		if err != nil {
			if err == io.EOF || b.ctx.Err() != nil {
				return
			}
			b.logger.Warn("dropping connection", "error", err)
			return
		}

		reply, err := b.dispatch(msg)
		if err != nil {
			b.logger.Warn("dropping connection", "error", err)
			return
		}

		if err := wire.WriteMessage(conn, reply); err != nil {
			if b.ctx.Err() == nil {
				b.logger.Warn("reply failed", "error", err)
			}
			return
		}
	}
}

func (b *Broker) dispatch(msg wire.Message) (wire.Message, error) {
	if !msg.Service.Valid() {
		return wire.Message{}, errors.Wrapf(errors.ErrUnknownService, "service %d", msg.Service)
	}

	switch msg.Type {
	case wire.TypeTicketRequest:
		ticket, err := b.IssueTicket()
		if err != nil {
			return wire.Message{}, err
		}
		return wire.NewTicketResponse(ticket), nil

	case wire.TypeJoinQueue:
		ticket, err := b.Join(msg.Service, msg.Requester, msg.VIP())
		if err != nil {
			return wire.Message{}, err
		}
		return wire.NewJoinAck(msg.Service, ticket), nil

	case wire.TypeGetWork:
		item, ok, err := b.TakeWork(msg.Service)
		if err != nil {
			return wire.Message{}, err
		}
		if !ok {
			return wire.NewNoWork(msg.Service), nil
		}
		return wire.NewWorkItem(msg.Service, item.Ticket, item.Requester, item.VIP, item.Arrival), nil

	default:
		return wire.Message{}, errors.Wrapf(errors.ErrMalformedMessage, "unexpected request type %d", msg.Type)
	}
}
