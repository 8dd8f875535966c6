// Package taskqueue provides the multi-producer task queue behind the
// Director's event loop.
//
// The structure is one single-producer/single-consumer ring buffer plus
// a fixed pool of task nodes; a spinlock serializes producers so the
// ring stays logically single-producer. The Director's own goroutine is
// the single consumer and runs queued tasks synchronously via
// [Queue.Drain].
//
// Backpressure is explicit: [Queue.Enqueue] never blocks. When the ring
// or the pool has no room the task is dropped, the drop counter
// advances, and the caller gets [ErrQueueFull] or [ErrPoolExhausted] to
// decide what to do. Nothing is retried or silently lost.
//
// Usage:
//
//	queue := taskqueue.New(256)
//
//	// Any goroutine
//	if err := queue.Enqueue(func() { director.reapChildren() }); err != nil {
//	    log.Warn("director task dropped", "error", err)
//	}
//
//	// Director loop
//	queue.Drain(64)
package taskqueue
