// Package users runs the customer side of the post office simulation.
//
// A users-manager process hosts the whole simulated population. Each
// user unit is a goroutine with a deterministic random stream derived
// from the master seed, so a fixed seed replays every visit decision,
// service pick and VIP draw run over run. Per day a unit decides
// whether to visit, shows up at a random minute of the open hours, and
// runs its service requests back to back: join the queue, watch the
// queue's completion generation for the last-finished marker, move on.
// A user still waiting at closing time gives up and is counted
// unserved.
//
// The manager holds the process's single place at the day rendezvous
// and relays each opened day to the units through a [barrier.Gate].
//
// # Usage
//
//	mgr := users.New(block, cfg,
//	    users.WithCount(cfg.Users.Count),
//	    users.WithLogger(log),
//	)
//	if err := mgr.Run(ctx); err != nil {
//	    return err
//	}
package users
