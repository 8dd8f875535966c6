package event

import "time"

// Event is the interface that all events must implement.
// It provides a common way to identify and timestamp events.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "day.started", "queue.exploded")
	EventType() string

	// Timestamp returns when the event occurred, in real time.
	Timestamp() time.Time
}

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

// newBaseEvent creates a baseEvent with the current time.
func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Day Lifecycle Events
// -----------------------------------------------------------------------------

// DayStartedEvent is emitted after the day barrier releases and a new
// simulated day begins.
type DayStartedEvent struct {
	baseEvent
	Day uint64 // Simulated day number, 1-based
}

// NewDayStartedEvent creates a DayStartedEvent.
func NewDayStartedEvent(day uint64) DayStartedEvent {
	return DayStartedEvent{
		baseEvent: newBaseEvent("day.started"),
		Day:       day,
	}
}

// DayEndedEvent is emitted at the end of a simulated day with that day's
// counter deltas.
type DayEndedEvent struct {
	baseEvent
	Day      uint64 // Simulated day number, 1-based
	Issued   uint64 // Tickets issued during the day
	Served   uint64 // Tickets served during the day
	Unserved uint64 // Users who went home unserved during the day
}

// NewDayEndedEvent creates a DayEndedEvent.
func NewDayEndedEvent(day, issued, served, unserved uint64) DayEndedEvent {
	return DayEndedEvent{
		baseEvent: newBaseEvent("day.ended"),
		Day:       day,
		Issued:    issued,
		Served:    served,
		Unserved:  unserved,
	}
}

// OfficeOpenedEvent is emitted when the simulated clock reaches opening
// time.
type OfficeOpenedEvent struct {
	baseEvent
	Day uint64 // Simulated day number, 1-based
}

// NewOfficeOpenedEvent creates an OfficeOpenedEvent.
func NewOfficeOpenedEvent(day uint64) OfficeOpenedEvent {
	return OfficeOpenedEvent{
		baseEvent: newBaseEvent("office.opened"),
		Day:       day,
	}
}

// OfficeClosedEvent is emitted when the simulated clock reaches closing
// time.
type OfficeClosedEvent struct {
	baseEvent
	Day uint64 // Simulated day number, 1-based
}

// NewOfficeClosedEvent creates an OfficeClosedEvent.
func NewOfficeClosedEvent(day uint64) OfficeClosedEvent {
	return OfficeClosedEvent{
		baseEvent: newBaseEvent("office.closed"),
		Day:       day,
	}
}

// -----------------------------------------------------------------------------
// Queue Events
// -----------------------------------------------------------------------------

// QueueExplodedEvent is emitted when total waiting requests cross the
// configured explode threshold. The simulation treats this as fatal.
type QueueExplodedEvent struct {
	baseEvent
	TotalWaiting uint64 // Waiting requests summed across all services
	Threshold    uint64 // The configured explode threshold
}

// NewQueueExplodedEvent creates a QueueExplodedEvent.
func NewQueueExplodedEvent(totalWaiting, threshold uint64) QueueExplodedEvent {
	return QueueExplodedEvent{
		baseEvent:    newBaseEvent("queue.exploded"),
		TotalWaiting: totalWaiting,
		Threshold:    threshold,
	}
}

// WorkerReassignedEvent is emitted when the load balancer moves an idle
// worker to another service. Services are carried by name so subscribers
// need no shared-memory types.
type WorkerReassignedEvent struct {
	baseEvent
	Seat int    // Worker table index
	From string // Service name the worker was assigned to
	To   string // Service name the worker serves now
}

// NewWorkerReassignedEvent creates a WorkerReassignedEvent.
func NewWorkerReassignedEvent(seat int, from, to string) WorkerReassignedEvent {
	return WorkerReassignedEvent{
		baseEvent: newBaseEvent("worker.reassigned"),
		Seat:      seat,
		From:      from,
		To:        to,
	}
}

// -----------------------------------------------------------------------------
// Process Events
// -----------------------------------------------------------------------------

// ChildExitedEvent is emitted when the supervisor reaps a child process.
type ChildExitedEvent struct {
	baseEvent
	Role   string // Subsystem role (broker, workers, users, unknown)
	Pid    int    // Reaped process id
	Class  string // Exit classification (normal, failure, signaled)
	Code   int    // Exit code for normal/failure exits
	Signal string // Terminating signal name for signaled exits
}

// NewChildExitedEvent creates a ChildExitedEvent.
func NewChildExitedEvent(role string, pid int, class string, code int, signal string) ChildExitedEvent {
	return ChildExitedEvent{
		baseEvent: newBaseEvent("child.exited"),
		Role:      role,
		Pid:       pid,
		Class:     class,
		Code:      code,
		Signal:    signal,
	}
}

// Crashed reports whether the exit was anything other than a clean exit.
func (e ChildExitedEvent) Crashed() bool {
	return e.Class != "normal"
}

// -----------------------------------------------------------------------------
// Control Events
// -----------------------------------------------------------------------------

// ConfigReloadedEvent is emitted when the watched configuration file
// changes and the new values pass validation.
type ConfigReloadedEvent struct {
	baseEvent
	Path string // Path of the configuration file that changed
}

// NewConfigReloadedEvent creates a ConfigReloadedEvent.
func NewConfigReloadedEvent(path string) ConfigReloadedEvent {
	return ConfigReloadedEvent{
		baseEvent: newBaseEvent("config.reloaded"),
		Path:      path,
	}
}

// SimulationStoppedEvent is emitted once when the simulation begins
// shutting down, with the reason (completed, interrupted, exploded).
type SimulationStoppedEvent struct {
	baseEvent
	Reason string // Why the simulation stopped
}

// NewSimulationStoppedEvent creates a SimulationStoppedEvent.
func NewSimulationStoppedEvent(reason string) SimulationStoppedEvent {
	return SimulationStoppedEvent{
		baseEvent: newBaseEvent("simulation.stopped"),
		Reason:    reason,
	}
}
