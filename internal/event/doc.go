// Package event provides a pub-sub event bus for decoupled communication
// inside the Director process.
//
// The Director's clock loop, load balancer, and supervisor publish what
// happens during the simulation; the dashboard and the report writer
// subscribe. Publishers never know who is listening, and subscribers
// never reach into the publishing subsystem.
//
// # Main Types
//
//   - [Event]: Interface that all events must implement, providing EventType() and Timestamp()
//   - [Bus]: Synchronous pub-sub event dispatcher with thread-safe operations
//   - [Handler]: Function type for event handlers (func(Event))
//
// # Event Categories
//
// Day lifecycle:
//   - [DayStartedEvent]: Emitted after the day barrier releases
//   - [DayEndedEvent]: Emitted at day end with the day's counter deltas
//   - [OfficeOpenedEvent], [OfficeClosedEvent]: Emitted at opening and closing time
//
// Queues and workers:
//   - [QueueExplodedEvent]: Emitted when total waiting crosses the explode threshold
//   - [WorkerReassignedEvent]: Emitted when the balancer moves an idle worker
//
// Processes and control:
//   - [ChildExitedEvent]: Emitted when the supervisor reaps a child process
//   - [ConfigReloadedEvent]: Emitted when the watched configuration reloads
//   - [SimulationStoppedEvent]: Emitted once when shutdown begins
//
// # Thread Safety
//
// The [Bus] type is safe for concurrent use. Handlers are called
// synchronously in registration order and protected against panics: a
// panicking handler is logged and does not prevent delivery to the rest.
// Events carry plain values (names, counts, ids), never shared-memory
// pointers, so a late subscriber can hold them freely.
//
// # Basic Usage
//
//	bus := event.NewBus(event.WithLogger(log))
//
//	bus.Subscribe("queue.exploded", func(e event.Event) {
//	    exploded := e.(event.QueueExplodedEvent)
//	    log.Error("queues exploded", "waiting", exploded.TotalWaiting)
//	})
//
//	// Subscribe to all events (the dashboard's event pane does this)
//	bus.SubscribeAll(func(e event.Event) {
//	    log.Debug("event", "type", e.EventType())
//	})
//
//	bus.Publish(event.NewDayStartedEvent(3))
//
//	id := bus.Subscribe("day.ended", handler)
//	bus.Unsubscribe(id)
//
// # Event Type Naming Convention
//
// Event types follow the pattern "category.action":
//   - day.started, day.ended
//   - office.opened, office.closed
//   - queue.exploded
//   - worker.reassigned
//   - child.exited
//   - config.reloaded
//   - simulation.stopped
package event
