// Package broker implements the work broker: the one process that
// issues ticket numbers and dispenses queued work in priority order.
//
// The broker listens on a local socket and answers three requests.
// Join-queue assigns the next ticket from the shared block's global
// sequence, pushes a stamped item into that service's indexed priority
// queue, and acks with the ticket number. Get-work pops the service's
// highest-priority item (VIP first, then arrival order) or reports that
// none is pending. Ticket-request hands out a bare ticket for callers
// that queue through the shared ring instead.
//
// Each accepted connection is served by one goroutine from a bounded
// handler pool; clients hold a connection for a single request, so the
// pool cycles rather than pinning a handler per peer. A malformed or
// unexpected message closes that connection only.
//
// Every queue's depth is mirrored into the shared block after each
// mutation, which is what the load balancer and the dashboard read.
//
// Usage:
//
//	b := broker.New(block,
//	    broker.WithSocketPath(path),
//	    broker.WithHandlers(cfg.Broker.Handlers),
//	    broker.WithLogger(log))
//	if err := b.Start(ctx); err != nil {
//	    return err
//	}
//	defer b.Stop()
//
//	// Worker side
//	client := broker.NewClient(path)
//	item, ok, err := client.GetWork(ctx, service, workerID)
package broker
