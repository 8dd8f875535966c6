// Package balance provides queue-depth-based worker reassignment for the
// post office simulation.
//
// Demand across the service types is uneven: one queue can pile up while
// a worker sits idle on a drained one. The Director periodically runs a
// balancing pass that compares per-service waiting counts from the shared
// block and, when the imbalance clears the configured thresholds, moves
// one idle worker to the most-loaded service.
//
// The core types are:
//
//   - [Balancer]: Scans the shared block and applies the reassignment rules
//   - [Decision]: The outcome of one pass — reassign or hold, with a reason
//
// # Usage
//
//	bal := balance.New(block, cfg.Workers.Seats,
//	    balance.WithMinDepth(cfg.Balancer.MinDepth),
//	    balance.WithRatioPercent(cfg.Balancer.RatioPercent),
//	)
//
//	d := bal.Rebalance()
//	if d.Action == balance.ActionReassign {
//	    log.Info("worker reassigned", "seat", d.Seat, "from", d.From, "to", d.To)
//	}
//
// A pass reassigns at most one worker. The move is published through the
// seat's service word in the shared block: the worker observes the new
// assignment on its next poll and switches queues, and the most-loaded
// queue's arrival generation is bumped so blocked workers re-check state.
package balance
