// Package tui renders the Director's live dashboard: the simulated
// clock, per-service queue depths, the worker seat table, counters and
// the recent simulation events. The dashboard is strictly read-only —
// it refreshes from shared-block snapshots on a timer and subscribes to
// the Director's event bus, but never mutates simulation state.
package tui
