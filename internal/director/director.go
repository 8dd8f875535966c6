package director

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/Seintian/postoffice/internal/balance"
	"github.com/Seintian/postoffice/internal/barrier"
	"github.com/Seintian/postoffice/internal/bridge"
	"github.com/Seintian/postoffice/internal/clock"
	"github.com/Seintian/postoffice/internal/config"
	"github.com/Seintian/postoffice/internal/errors"
	"github.com/Seintian/postoffice/internal/event"
	"github.com/Seintian/postoffice/internal/logging"
	"github.com/Seintian/postoffice/internal/shm"
	"github.com/Seintian/postoffice/internal/supervisor"
	"github.com/Seintian/postoffice/internal/taskqueue"
	"github.com/Seintian/postoffice/internal/wire"
)

const (
	// defaultParticipants is one rendezvous slot per subsystem class:
	// the worker pool, the users-manager and the broker.
	defaultParticipants = 3

	// drainPerTick bounds how many queued tasks one clock tick executes.
	drainPerTick = 128

	// terminateGrace is how long shutdown waits for children to leave
	// after SIGTERM before escalating to SIGKILL.
	terminateGrace = 5 * time.Second
)

// Option adjusts Director construction.
type Option func(*options)

type options struct {
	logger       *logging.Logger
	bus          *event.Bus
	block        *shm.Block
	bridgePath   string
	watchPath    string
	executable   string
	participants uint32
	noChildren   bool
}

// WithLogger sets the Director's logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithBus sets the event bus the Director publishes on. The default is a
// fresh bus, reachable through Bus for dashboard subscriptions.
func WithBus(b *event.Bus) Option {
	return func(o *options) { o.bus = b }
}

// WithBlock runs the Director against an already mapped shared block
// instead of creating one. The caller keeps ownership of the mapping.
func WithBlock(b *shm.Block) Option {
	return func(o *options) { o.block = b }
}

// WithBridgeSocket overrides the control-bridge socket path.
func WithBridgeSocket(path string) Option {
	return func(o *options) { o.bridgePath = path }
}

// WithConfigWatch hot-reloads balancer tuning and the explode threshold
// from the given config file while the simulation runs.
func WithConfigWatch(path string) Option {
	return func(o *options) { o.watchPath = path }
}

// WithExecutable overrides the binary the subsystems are spawned from.
func WithExecutable(path string) Option {
	return func(o *options) { o.executable = path }
}

// WithParticipants overrides the rendezvous participant count.
func WithParticipants(n uint32) Option {
	return func(o *options) { o.participants = n }
}

// WithoutSubsystems runs the Director without spawning any child
// process. The rendezvous still expects the configured participants
// unless WithParticipants lowers the count.
func WithoutSubsystems() Option {
	return func(o *options) { o.noChildren = true }
}

// Director owns the simulation run: the shared block, the calendar, the
// day rendezvous, its own task queue, the load balancer schedule, child
// supervision and the control bridge.
type Director struct {
	cfg    *config.Config
	logger *logging.Logger
	bus    *event.Bus

	region *shm.Region

	// blockMu guards the block pointer against dashboard snapshots
	// racing the teardown unmap. The run loop itself is the only
	// writer and reads it unlocked.
	blockMu sync.Mutex
	block   *shm.Block

	coord  *barrier.Coordinator
	tasks  *taskqueue.Queue
	sup    *supervisor.Supervisor
	bridge *bridge.Bridge

	// mu guards the hot-reloadable tuning below.
	mu           sync.Mutex
	balancer     *balance.Balancer
	explodeAt    uint64
	balanceEvery int

	bridgePath   string
	watchPath    string
	executable   string
	participants uint32
	noChildren   bool
}

// New builds a Director from the configuration. Nothing touches the
// system until Run.
func New(cfg *config.Config, opts ...Option) *Director {
	if cfg == nil {
		cfg = config.Default()
	}

	o := &options{participants: defaultParticipants}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logging.NopLogger()
	}
	if o.bus == nil {
		o.bus = event.NewBus(event.WithLogger(o.logger))
	}
	if o.bridgePath == "" {
		o.bridgePath = wire.BridgeSocketPath()
	}

	return &Director{
		cfg:          cfg,
		logger:       o.logger,
		bus:          o.bus,
		block:        o.block,
		bridgePath:   o.bridgePath,
		watchPath:    o.watchPath,
		executable:   o.executable,
		participants: o.participants,
		noChildren:   o.noChildren,
	}
}

// Bus returns the event bus the Director publishes simulation events on.
func (d *Director) Bus() *event.Bus {
	return d.bus
}

// Snapshot copies the shared block's observable state for dashboards
// and reports. It returns the zero Snapshot before Run maps the block.
func (d *Director) Snapshot() shm.Snapshot {
	d.blockMu.Lock()
	defer d.blockMu.Unlock()
	if d.block == nil {
		return shm.Snapshot{}
	}
	return d.block.Snapshot(d.cfg.Workers.Seats)
}

// Run executes the whole simulation: it maps the shared block, spawns
// the subsystems, drives the calendar through every configured day and
// tears everything down. It returns nil on a completed run, the explode
// sentinel when the queues breached the threshold, or the first error
// that stopped the run.
func (d *Director) Run(ctx context.Context) error {
	if d.block == nil {
		region, err := shm.Create(d.cfg.Paths.ShmName)
		if err != nil {
			return err
		}
		d.region = region
		d.blockMu.Lock()
		d.block = region.Block()
		d.blockMu.Unlock()
		defer func() {
			d.blockMu.Lock()
			d.block = nil
			d.blockMu.Unlock()
			_ = region.Close()
		}()
	}

	d.coord = barrier.NewCoordinator(d.block, d.participants)
	d.tasks = taskqueue.New(d.cfg.Queue.TaskCapacity,
		taskqueue.WithLogger(d.logger.WithComponent("tasks")))
	defer func() { _ = d.tasks.Close() }()

	d.applyTuning(d.cfg)
	d.block.SetClockActive(true)

	d.startBridge(ctx)
	defer d.stopBridge()

	if w := d.startWatcher(); w != nil {
		defer w.Stop()
	}

	if err := d.spawnSubsystems(); err != nil {
		d.block.SetClockActive(false)
		d.block.RequestStop()
		return err
	}

	d.logger.Info("simulation starting",
		"days", d.cfg.Simulation.Days,
		"minute_ms", d.cfg.Simulation.MinuteMs,
		"participants", d.participants,
		"shm", d.cfg.Paths.ShmName,
	)

	runErr := d.runDays(ctx)
	d.shutdown(runErr)

	if runErr != nil && !errors.Is(runErr, errors.ErrSimulationStopped) {
		return runErr
	}
	return nil
}

// applyTuning installs the balancer and threshold settings from cfg.
// Safe to call while the run loop ticks; the watcher calls it on every
// accepted config edit.
func (d *Director) applyTuning(cfg *config.Config) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.balancer = balance.New(d.block, cfg.Workers.Seats,
		balance.WithMinDepth(cfg.Balancer.MinDepth),
		balance.WithRatioPercent(cfg.Balancer.RatioPercent),
	)
	d.explodeAt = uint64(cfg.Queue.ExplodeThreshold)
	d.balanceEvery = cfg.Balancer.IntervalTicks
}

func (d *Director) startBridge(ctx context.Context) {
	br := bridge.New(
		bridge.WithSocketPath(d.bridgePath),
		bridge.WithLogger(d.logger.WithComponent("bridge")),
	)
	if err := br.Start(ctx); err != nil {
		// The simulation runs fine without an operator channel.
		d.logger.Warn("control bridge unavailable", "path", d.bridgePath, "error", err)
		return
	}
	d.bridge = br
}

func (d *Director) stopBridge() {
	if d.bridge != nil {
		d.bridge.Stop()
	}
}

func (d *Director) startWatcher() *config.Watcher {
	if d.watchPath == "" {
		return nil
	}
	w, err := config.NewWatcher(d.watchPath, func(cfg *config.Config) {
		d.applyTuning(cfg)
		d.logger.Info("configuration reloaded",
			"min_depth", cfg.Balancer.MinDepth,
			"ratio_percent", cfg.Balancer.RatioPercent,
			"explode_threshold", cfg.Queue.ExplodeThreshold,
		)
		d.bus.Publish(event.NewConfigReloadedEvent(d.watchPath))
	})
	if err != nil {
		d.logger.Warn("config watch unavailable", "path", d.watchPath, "error", err)
		return nil
	}
	w.Start()
	return w
}

// spawnSubsystems starts the broker, the worker pool and the
// users-manager by re-executing this binary with the role subcommands.
func (d *Director) spawnSubsystems() error {
	if d.noChildren {
		return nil
	}

	supOpts := []supervisor.Option{supervisor.WithLogger(d.logger.WithComponent("supervisor"))}
	if d.executable != "" {
		supOpts = append(supOpts, supervisor.WithExecutable(d.executable))
	}
	sup, err := supervisor.New(supOpts...)
	if err != nil {
		return err
	}
	d.sup = sup

	shmName := d.cfg.Paths.ShmName
	level := d.cfg.Logging.Level
	children := []supervisor.Child{
		{
			Role: supervisor.RoleBroker,
			Args: []string{"broker",
				"--shm", shmName,
				"--handlers", itoa(d.cfg.Broker.Handlers),
				"--log-level", level,
			},
		},
		{
			Role: supervisor.RoleWorkers,
			Args: []string{"workers",
				"--shm", shmName,
				"--pool", itoa(d.cfg.Workers.Pool),
				"--log-level", level,
			},
		},
		{
			Role: supervisor.RoleUsers,
			Args: []string{"users",
				"--shm", shmName,
				"--log-level", level,
			},
			Env: []string{
				"POSTOFFICE_USERS_COUNT=" + itoa(d.cfg.Users.Count),
				"POSTOFFICE_USERS_REQUESTS_PER_DAY=" + itoa(d.cfg.Users.RequestsPerDay),
			},
		},
	}

	for _, c := range children {
		if _, err := sup.Spawn(c); err != nil {
			return err
		}
	}
	return nil
}

func (d *Director) runDays(ctx context.Context) error {
	for day := 1; day <= d.cfg.Simulation.Days; day++ {
		// Participants watch the clock to know when their day is over,
		// so the new day must be on the block before the rendezvous
		// releases them; with the clock still on the old day they would
		// keep serving it and never come back for the check-in.
		d.block.SetClock(clock.StartOfDay(day))
		if err := d.coord.StartDay(ctx, uint64(day)); err != nil {
			return err
		}
		d.bus.Publish(event.NewDayStartedEvent(uint64(day)))
		d.logger.Info("day started", "day", day)

		before := d.block.Stats().Snapshot()
		if err := d.runDay(ctx, day); err != nil {
			return err
		}
		after := d.block.Stats().Snapshot()

		d.reportDay(day, before, after)
		d.bus.Publish(event.NewDayEndedEvent(uint64(day),
			after.Issued-before.Issued,
			after.Served-before.Served,
			after.Unserved-before.Unserved,
		))
	}
	return nil
}

// runDay ticks the calendar through one simulated day. Each tick
// publishes the clock, runs the queued tasks, reaps exited children and
// checks the explode threshold.
func (d *Director) runDay(ctx context.Context, day int) error {
	opening := d.cfg.Simulation.OpeningHour
	closing := d.cfg.Simulation.ClosingHour
	minute := d.cfg.Simulation.MinuteDuration()

	t := clock.StartOfDay(day)
	for tick := 0; tick < clock.TicksPerDay; tick++ {
		d.block.SetClock(t)

		switch {
		case t.Hour == opening && t.Minute == 0:
			d.bus.Publish(event.NewOfficeOpenedEvent(uint64(day)))
		case t.Hour == closing && t.Minute == 0:
			d.bus.Publish(event.NewOfficeClosedEvent(uint64(day)))
		}

		d.scheduleRebalance(tick, t, opening, closing)
		d.tasks.Drain(drainPerTick)
		d.reapChildren()

		if err := d.checkExplode(); err != nil {
			return err
		}
		if d.block.Stopped() {
			return errors.ErrSimulationStopped
		}
		if !sleepCtx(ctx, minute) {
			return errors.Wrap(ctx.Err(), "clock loop interrupted")
		}

		t = t.Next()
	}
	return nil
}

// scheduleRebalance enqueues one balancing pass on the configured tick
// interval while the office is open. A dropped enqueue only delays the
// pass to the next interval.
func (d *Director) scheduleRebalance(tick int, t clock.Time, opening, closing int) {
	d.mu.Lock()
	every := d.balanceEvery
	d.mu.Unlock()

	if every <= 0 || tick%every != 0 || !t.WithinHours(opening, closing) {
		return
	}
	if err := d.tasks.Enqueue(d.rebalance); err != nil {
		d.logger.Debug("rebalance task dropped", "error", err, "dropped_total", d.tasks.Dropped())
	}
}

// rebalance runs one balancing pass on the drain goroutine.
func (d *Director) rebalance() {
	d.mu.Lock()
	bal := d.balancer
	d.mu.Unlock()

	dec := bal.Rebalance()
	if dec.Action != balance.ActionReassign {
		return
	}
	d.logger.Info("worker reassigned",
		"seat", dec.Seat,
		"from", dec.From.String(),
		"to", dec.To.String(),
		"reason", dec.Reason,
	)
	d.bus.Publish(event.NewWorkerReassignedEvent(dec.Seat, dec.From.String(), dec.To.String()))
}

func (d *Director) reapChildren() {
	if d.sup == nil {
		return
	}
	for _, e := range d.sup.CheckCrashes() {
		d.bus.Publish(event.NewChildExitedEvent(
			e.Role.String(), e.Pid, e.Class.String(), e.Code, e.SignalName(),
		))
	}
}

// checkExplode compares total queue depth against the configured
// threshold. A breach is the one fatal condition in the simulation.
func (d *Director) checkExplode() error {
	d.mu.Lock()
	threshold := d.explodeAt
	d.mu.Unlock()

	if threshold == 0 {
		return nil
	}
	total := d.block.TotalWaiting()
	if total < threshold {
		return nil
	}

	d.logger.Error("queue explode threshold breached", "total_waiting", total, "threshold", threshold)
	d.bus.Publish(event.NewQueueExplodedEvent(total, threshold))
	return errors.Wrapf(errors.ErrExplodeThreshold, "%d waiting across all queues", total)
}

// shutdown stops the calendar, releases every waiter and collects the
// children. Runs regardless of how the day loop ended.
func (d *Director) shutdown(runErr error) {
	reason := "completed"
	switch {
	case errors.Is(runErr, errors.ErrExplodeThreshold):
		reason = "exploded"
	case runErr != nil:
		reason = "interrupted"
	}

	d.block.SetClockActive(false)
	d.block.RequestStop()
	d.bus.Publish(event.NewSimulationStoppedEvent(reason))
	d.logger.Info("simulation stopping", "reason", reason)

	if d.sup != nil {
		tctx, cancel := context.WithTimeout(context.Background(), terminateGrace)
		defer cancel()
		if _, err := d.sup.TerminateAll(tctx); err != nil {
			d.logger.Warn("graceful termination incomplete, escalating", "error", err)
			for _, role := range []supervisor.Role{supervisor.RoleBroker, supervisor.RoleWorkers, supervisor.RoleUsers} {
				_ = d.sup.Signal(role, unix.SIGKILL)
			}
			kctx, kcancel := context.WithTimeout(context.Background(), terminateGrace)
			defer kcancel()
			if _, err := d.sup.TerminateAll(kctx); err != nil {
				d.logger.Error("children left unreaped", "error", err)
			}
		}
	}

	d.reportFinal(reason)
}

// sleepCtx sleeps for d unless ctx ends first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
