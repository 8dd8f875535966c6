// Package director runs the simulation's main process. The Director
// owns the shared block, advances the simulated calendar tick by tick,
// gates every subsystem at the per-day rendezvous, drains its own task
// queue, schedules the load balancer, watches for crashed children, and
// tears the whole office down at the end of the last day.
//
// Everything the Director does between ticks goes through its task
// queue, so the run loop stays single-threaded: the only other
// goroutines in the process belong to the control bridge and the
// supervisor's output capture.
package director
