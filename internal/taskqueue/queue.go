package taskqueue

import (
	"runtime"
	"runtime/debug"
	"sync/atomic"

	"github.com/Seintian/postoffice/internal/errors"
	"github.com/Seintian/postoffice/internal/logging"
)

// Sentinel errors returned by queue operations.
var (
	ErrQueueFull     = errors.New("task ring full")
	ErrPoolExhausted = errors.New("task node pool exhausted")
	ErrQueueClosed   = errors.New("task queue closed")
)

// Task is one unit of deferred work, executed synchronously by Drain.
type Task func()

const (
	// minPoolSize floors the node pool so tiny rings still absorb bursts.
	minPoolSize = 16
	// releaseBatchSize bounds how many executed nodes Drain holds before
	// paying the producer lock once to return them.
	releaseBatchSize = 256
	// teardownBound caps how much queued work Close will still run.
	teardownBound = 1 << 20
)

// Queue is a multi-producer task queue built from one SPSC ring and a
// fixed node pool, with a spinlock serializing producers into the ring.
// Any goroutine may call Enqueue; Drain and Close belong to the single
// consumer. Enqueue never blocks: when the ring or the pool is out of
// room the task is dropped, counted, and reported by error.
type Queue struct {
	producers spinlock
	ring      *ring
	pool      *pool
	logger    *logging.Logger

	// releaseBuf stages executed nodes between flushes. Consumer-owned.
	releaseBuf []*node

	dropped  atomic.Uint64
	executed atomic.Uint64
	closed   atomic.Bool
}

// Option adjusts queue construction
type Option func(*options)

type options struct {
	poolSize int
	logger   *logging.Logger
}

// WithPoolSize overrides the derived node pool size
func WithPoolSize(n int) Option {
	return func(o *options) {
		o.poolSize = n
	}
}

// WithLogger sets the logger panicking tasks are reported on
func WithLogger(l *logging.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// New creates a queue whose ring holds at least capacity tasks, rounded
// up to a power of two. The node pool defaults to twice the ring
// capacity with a floor of 16.
func New(capacity int, opts ...Option) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	ringCap := nextPowerOfTwo(capacity)

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.NopLogger()
	}

	poolSize := o.poolSize
	if poolSize <= 0 {
		poolSize = 2 * int(ringCap)
		if poolSize < minPoolSize {
			poolSize = minPoolSize
		}
	}

	return &Queue{
		ring:       newRing(ringCap),
		pool:       newPool(poolSize),
		logger:     o.logger,
		releaseBuf: make([]*node, 0, releaseBatchSize),
	}
}

// Enqueue adds a task for the consumer to run. On a full ring or an
// exhausted pool the task is dropped, the drop counter is incremented,
// and the corresponding sentinel is returned.
func (q *Queue) Enqueue(task Task) error {
	if task == nil {
		return errors.Wrap(errors.ErrInvalidInput, "nil task")
	}
	if q.closed.Load() {
		return ErrQueueClosed
	}

	q.producers.lock()

	n := q.pool.acquire()
	if n == nil {
		q.producers.unlock()
		q.dropped.Add(1)
		return ErrPoolExhausted
	}

	n.task = task
	if !q.ring.push(n) {
		q.pool.release([]*node{n})
		q.producers.unlock()
		q.dropped.Add(1)
		return ErrQueueFull
	}

	q.producers.unlock()
	return nil
}

// Drain pops and runs up to max tasks, returning early when the ring
// empties, and reports how many ran. Executed nodes go back to the pool
// in batches so producers are not locked out once per task. Drain must
// only run on the consumer goroutine.
func (q *Queue) Drain(max int) int {
	ran := 0
	for ran < max {
		n := q.ring.pop()
		if n == nil {
			break
		}

		task := n.task
		q.releaseBuf = append(q.releaseBuf, n)
		if len(q.releaseBuf) >= releaseBatchSize {
			q.flushReleases()
		}

		q.runTask(task)
		ran++
	}

	q.flushReleases()
	q.executed.Add(uint64(ran))
	return ran
}

// runTask executes one task, containing any panic so the rest of the
// drain and the consumer goroutine survive it.
func (q *Queue) runTask(task Task) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("task panicked",
				"panic", r,
				"stack", string(debug.Stack()),
			)
		}
	}()
	task()
}

func (q *Queue) flushReleases() {
	if len(q.releaseBuf) == 0 {
		return
	}
	q.producers.lock()
	q.pool.release(q.releaseBuf)
	q.producers.unlock()
	q.releaseBuf = q.releaseBuf[:0]
}

// Close rejects further enqueues, then drains what is already queued up
// to a large bound. Like Drain it belongs to the consumer goroutine.
func (q *Queue) Close() error {
	if !q.closed.CompareAndSwap(false, true) {
		return ErrQueueClosed
	}
	q.Drain(teardownBound)
	return nil
}

// Len returns the number of queued, unexecuted tasks
func (q *Queue) Len() int {
	return q.ring.len()
}

// Cap returns the ring capacity
func (q *Queue) Cap() int {
	return q.ring.cap()
}

// Dropped returns how many enqueues were rejected for lack of room
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}

// Executed returns how many tasks Drain has run
func (q *Queue) Executed() uint64 {
	return q.executed.Load()
}

// spinlock serializes producers. Uncontended cost is one CAS; under
// contention waiters yield so the holder gets scheduled.
type spinlock struct {
	word atomic.Uint32
}

func (l *spinlock) lock() {
	for !l.word.CompareAndSwap(0, 1) {
		runtime.Gosched()
	}
}

func (l *spinlock) unlock() {
	l.word.Store(0)
}

func nextPowerOfTwo(n int) uint64 {
	v := uint64(1)
	for v < uint64(n) {
		v <<= 1
	}
	return v
}
