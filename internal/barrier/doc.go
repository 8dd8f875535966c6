// Package barrier implements the per-day rendezvous that keeps every
// simulation process on the same calendar day.
//
// The Director holds a [Coordinator]; the worker pool, the users-manager
// and the broker each hold a [Participant]. At each day boundary the
// Director calls [Coordinator.StartDay], which publishes the new round
// and blocks until all participants have called [Participant.AwaitDay]
// for it, then releases them together. No participant starts day N
// while another is still finishing day N-1.
//
// The rendezvous state lives in the shared block's barrier words and is
// driven entirely by atomics and bounded polling, so it works across
// process boundaries without process-shared mutexes. Both sides re-check
// the shared stop flag and their context between polls; a participant
// that never arrives stalls the day rather than being timed out.
//
// Usage:
//
//	// Director
//	coord := barrier.NewCoordinator(block, 3)
//	if err := coord.StartDay(ctx, day); err != nil {
//	    return err
//	}
//
//	// Worker pool / users-manager / broker
//	part := barrier.NewParticipant(block)
//	day, err := part.AwaitDay(ctx)
package barrier
