// Package worker runs the serving side of the post office simulation.
//
// A worker process hosts a pool of units. Every unit owns one seat in
// the shared worker table and mirrors its lifecycle there: FREE while
// polling for tickets, BUSY while serving one, PAUSED outside office
// hours, OFFLINE once released. The seat's service word is the unit's
// assignment; because the load balancer moves idle workers by rewriting
// that word, a unit switches queues simply by re-reading it each poll.
//
// Work arrives on one of two paths. On the broker path a unit asks the
// Work Broker for the highest-priority pending item of its service,
// skipping the socket round-trip while the shared queue advertises no
// depth and no new arrival. On the legacy path the unit pops ticket
// numbers straight from the service's shared ring.
//
// # Usage
//
//	pool := worker.New(block, cfg,
//	    worker.WithUnits(cfg.Workers.Pool),
//	    worker.WithLogger(log),
//	)
//	if err := pool.Run(ctx); err != nil {
//	    return err
//	}
//
// Run blocks for the whole simulation: unit 0 synchronizes each day at
// the shared barrier and relays it to the other units in-process, and
// every unit serves until the clock leaves the day. Run returns when
// the simulation stops or ctx is cancelled.
package worker
