// Package internal contains integration tests that run the simulation's
// subsystems together in one process: the Director's calendar, the day
// rendezvous, the broker socket, worker units and user units all
// coordinate exactly as the separate processes would, over one shared
// block.
package internal

import (
	"context"
	"testing"
	"time"

	"github.com/Seintian/postoffice/internal/barrier"
	"github.com/Seintian/postoffice/internal/broker"
	"github.com/Seintian/postoffice/internal/config"
	"github.com/Seintian/postoffice/internal/director"
	"github.com/Seintian/postoffice/internal/shm"
	"github.com/Seintian/postoffice/internal/testutil"
	"github.com/Seintian/postoffice/internal/users"
	"github.com/Seintian/postoffice/internal/worker"
)

func integrationConfig() *config.Config {
	cfg := config.Default()
	cfg.Simulation.Days = 1
	cfg.Simulation.MinuteMs = 1
	cfg.Workers.Pool = 2
	cfg.Users.Count = 3
	cfg.Users.VisitProb = 1.0
	cfg.Users.RequestsPerDay = 1
	cfg.Queue.ExplodeThreshold = 100000
	return cfg
}

// TestSimulation_FullDayInProcess drives one simulated day with every
// subsystem attached: the broker serving the socket, two worker units
// and three users, all meeting the Director at the day rendezvous.
func TestSimulation_FullDayInProcess(t *testing.T) {
	if testing.Short() {
		t.Skip("full-day simulation run")
	}

	cfg := integrationConfig()
	socket := testutil.SocketPath(t, "broker.sock")

	var block shm.Block
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	b := broker.New(&block,
		broker.WithSocketPath(socket),
		broker.WithHandlers(cfg.Broker.Handlers),
	)
	if err := b.Start(ctx); err != nil {
		t.Fatalf("broker failed to start: %v", err)
	}
	defer b.Stop()

	// The broker's rendezvous seat, normally held by its process loop.
	go func() {
		part := barrier.NewParticipant(&block)
		for {
			if _, err := part.AwaitDay(ctx); err != nil {
				return
			}
			b.ResetDay()
		}
	}()

	workerDone := make(chan error, 1)
	go func() {
		pool := worker.New(&block, cfg,
			worker.WithUnits(cfg.Workers.Pool),
			worker.WithBrokerSocket(socket),
		)
		workerDone <- pool.Run(ctx)
	}()

	usersDone := make(chan error, 1)
	go func() {
		mgr := users.New(&block, cfg,
			users.WithSeed(42),
			users.WithBrokerSocket(socket),
		)
		usersDone <- mgr.Run(ctx)
	}()

	d := director.New(cfg,
		director.WithBlock(&block),
		director.WithoutSubsystems(),
		director.WithBridgeSocket(testutil.SocketPath(t, "bridge.sock")),
	)
	if err := d.Run(ctx); err != nil {
		t.Fatalf("Director run failed: %v", err)
	}

	if err := <-workerDone; err != nil {
		t.Errorf("worker pool failed: %v", err)
	}
	if err := <-usersDone; err != nil {
		t.Errorf("users manager failed: %v", err)
	}

	if !block.Stopped() {
		t.Error("stop flag not raised after the run")
	}
	if got := block.Clock().Day; got != 1 {
		t.Errorf("final clock day = %d, want 1", got)
	}

	stats := block.Stats().Snapshot()
	if stats.Visits != 3 {
		t.Errorf("visits = %d, want 3 (every user visits at probability 1)", stats.Visits)
	}
	if stats.Issued == 0 {
		t.Error("no tickets issued across a full open day")
	}
	if stats.Served+stats.Unserved > stats.Issued {
		t.Errorf("served %d + unserved %d exceeds issued %d",
			stats.Served, stats.Unserved, stats.Issued)
	}

	// Every claimed seat is released on the way out.
	for i := 0; i < cfg.Workers.Pool; i++ {
		if state := block.Seat(i).State(); state != shm.WorkerOffline {
			t.Errorf("seat %d still %s after shutdown", i, state)
		}
	}
}

// TestSimulation_TwoDayRollover runs the calendar across a day boundary
// with every subsystem live. The rollover is the delicate moment: the
// worker pool and the users-manager only leave day one once the shared
// clock moves on, and the whole run hangs at the day-two rendezvous if
// the Director releases it first.
func TestSimulation_TwoDayRollover(t *testing.T) {
	if testing.Short() {
		t.Skip("multi-day simulation run")
	}

	cfg := integrationConfig()
	cfg.Simulation.Days = 2
	socket := testutil.SocketPath(t, "broker.sock")

	var block shm.Block
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	b := broker.New(&block,
		broker.WithSocketPath(socket),
		broker.WithHandlers(cfg.Broker.Handlers),
	)
	if err := b.Start(ctx); err != nil {
		t.Fatalf("broker failed to start: %v", err)
	}
	defer b.Stop()

	go func() {
		part := barrier.NewParticipant(&block)
		for {
			if _, err := part.AwaitDay(ctx); err != nil {
				return
			}
			b.ResetDay()
		}
	}()

	workerDone := make(chan error, 1)
	go func() {
		pool := worker.New(&block, cfg,
			worker.WithUnits(cfg.Workers.Pool),
			worker.WithBrokerSocket(socket),
		)
		workerDone <- pool.Run(ctx)
	}()

	usersDone := make(chan error, 1)
	go func() {
		mgr := users.New(&block, cfg,
			users.WithSeed(11),
			users.WithBrokerSocket(socket),
		)
		usersDone <- mgr.Run(ctx)
	}()

	d := director.New(cfg,
		director.WithBlock(&block),
		director.WithoutSubsystems(),
		director.WithBridgeSocket(testutil.SocketPath(t, "bridge.sock")),
	)
	if err := d.Run(ctx); err != nil {
		t.Fatalf("Director run failed: %v", err)
	}

	if err := <-workerDone; err != nil {
		t.Errorf("worker pool failed: %v", err)
	}
	if err := <-usersDone; err != nil {
		t.Errorf("users manager failed: %v", err)
	}

	if got := block.Clock().Day; got != 2 {
		t.Errorf("final clock day = %d, want 2", got)
	}

	// Every user visits every day at probability 1, so both days ran.
	stats := block.Stats().Snapshot()
	if want := uint64(2 * cfg.Users.Count); stats.Visits != want {
		t.Errorf("visits = %d, want %d across two days", stats.Visits, want)
	}
	if stats.Issued == 0 {
		t.Error("no tickets issued across two open days")
	}
}

// TestSimulation_TicketsAreUniqueAcrossServices re-runs the full day
// checking the broker-side invariant from the outside: the shared
// sequence is the only ticket source, so the last ticket equals the
// issued count.
func TestSimulation_TicketCountMatchesSequence(t *testing.T) {
	if testing.Short() {
		t.Skip("full-day simulation run")
	}

	cfg := integrationConfig()
	socket := testutil.SocketPath(t, "broker.sock")

	var block shm.Block
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	b := broker.New(&block, broker.WithSocketPath(socket), broker.WithHandlers(2))
	if err := b.Start(ctx); err != nil {
		t.Fatalf("broker failed to start: %v", err)
	}
	defer b.Stop()

	go func() {
		part := barrier.NewParticipant(&block)
		for {
			if _, err := part.AwaitDay(ctx); err != nil {
				return
			}
			b.ResetDay()
		}
	}()
	go func() {
		pool := worker.New(&block, cfg, worker.WithUnits(2), worker.WithBrokerSocket(socket))
		_ = pool.Run(ctx)
	}()
	go func() {
		mgr := users.New(&block, cfg, users.WithSeed(7), users.WithBrokerSocket(socket))
		_ = mgr.Run(ctx)
	}()

	d := director.New(cfg,
		director.WithBlock(&block),
		director.WithoutSubsystems(),
		director.WithBridgeSocket(testutil.SocketPath(t, "bridge.sock")),
	)
	if err := d.Run(ctx); err != nil {
		t.Fatalf("Director run failed: %v", err)
	}

	stats := block.Stats().Snapshot()
	if got := block.LastTicket(); got != stats.Issued {
		t.Errorf("last ticket %d != issued count %d", got, stats.Issued)
	}
}
