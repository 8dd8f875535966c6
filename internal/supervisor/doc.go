// Package supervisor spawns and tracks the simulation's child processes.
//
// The Director runs the broker, worker-pool, and users-manager as separate
// OS processes, each started by re-executing the Director's own binary
// with the matching subcommand. The supervisor records each child's pid,
// captures its stdout/stderr into the Director's log, and reaps exits.
//
// The core types are:
//
//   - [Supervisor]: Spawns children, checks for crashes, terminates in order
//   - [Child]: One subsystem's role, argument vector, and extra environment
//   - [Exit]: A reaped child with its classification (normal, failure, signaled)
//
// # Usage
//
//	sup, err := supervisor.New(supervisor.WithLogger(log))
//	if err != nil {
//	    return err
//	}
//
//	pid, err := sup.Spawn(supervisor.Child{
//	    Role: supervisor.RoleBroker,
//	    Args: []string{"broker", "--config", cfgPath},
//	})
//
//	// Each Director tick:
//	for _, e := range sup.CheckCrashes() {
//	    log.Warn("child gone", "role", e.Role, "class", e.Class)
//	}
//
//	// Shutdown:
//	exits, err := sup.TerminateAll(ctx)
//
// Crashes are observed, classified, and logged; nothing is restarted. The
// reap pass waits on any child of the process, so a pid the supervisor
// never tracked is reported as unexpected rather than silently consumed.
package supervisor
