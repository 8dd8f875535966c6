package broker

import (
	"context"
	"io"
	"net"

	"github.com/Seintian/postoffice/internal/errors"
	"github.com/Seintian/postoffice/internal/pqueue"
	"github.com/Seintian/postoffice/internal/shm"
	"github.com/Seintian/postoffice/internal/wire"
)

// Client talks to the broker over its local socket. Each call is one
// short-lived connection carrying a single request and reply, so a
// bounded handler pool cycles instead of pinning one handler per peer.
type Client struct {
	path   string
	dialer net.Dialer
}

// NewClient returns a client for the broker listening at path
func NewClient(path string) *Client {
	return &Client{path: path}
}

// JoinQueue asks the broker to queue a request and returns the assigned
// ticket number.
func (c *Client) JoinQueue(ctx context.Context, service shm.Service, requester uint64, vip bool) (uint64, error) {
	reply, err := c.roundTrip(ctx, wire.NewJoinQueue(service, requester, vip))
	if err != nil {
		return 0, err
	}
	if reply.Type != wire.TypeJoinAck {
		return 0, errors.Wrapf(errors.ErrMalformedMessage, "join reply type %d", reply.Type)
	}
	return reply.Ticket, nil
}

// RequestTicket asks for a bare ticket number without queueing. Callers
// on the legacy path push the ticket into the shared ring themselves.
func (c *Client) RequestTicket(ctx context.Context, service shm.Service, requester uint64, vip bool) (uint64, error) {
	reply, err := c.roundTrip(ctx, wire.NewTicketRequest(service, requester, vip))
	if err != nil {
		return 0, err
	}
	if reply.Type != wire.TypeTicketResponse {
		return 0, errors.Wrapf(errors.ErrMalformedMessage, "ticket reply type %d", reply.Type)
	}
	return reply.Ticket, nil
}

// GetWork asks for the highest-priority pending item of a service. The
// second return is false when the broker has no work for it.
func (c *Client) GetWork(ctx context.Context, service shm.Service, worker uint64) (pqueue.Item, bool, error) {
	reply, err := c.roundTrip(ctx, wire.NewGetWork(service, worker))
	if err != nil {
		return pqueue.Item{}, false, err
	}
	if reply.Type != wire.TypeWorkItem {
		return pqueue.Item{}, false, errors.Wrapf(errors.ErrMalformedMessage, "work reply type %d", reply.Type)
	}
	if reply.Empty() {
		return pqueue.Item{}, false, nil
	}
	return pqueue.Item{
		Ticket:    reply.Ticket,
		Requester: reply.Requester,
		VIP:       reply.VIP(),
		Arrival:   reply.ArrivalTime(),
	}, true, nil
}

func (c *Client) roundTrip(ctx context.Context, req wire.Message) (wire.Message, error) {
	conn, err := c.dialer.DialContext(ctx, "unix", c.path)
	if err != nil {
		return wire.Message{}, errors.NewBrokerError("failed to dial broker", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if err := wire.WriteMessage(conn, req); err != nil {
		return wire.Message{}, err
	}

	reply, err := wire.ReadMessage(conn)
	if err == io.EOF {
		// The broker answers every well-formed request, so a bare close
		// means it rejected the message or is shutting down.
		return wire.Message{}, errors.NewBrokerError("connection closed without reply", errors.ErrBrokerClosed)
	}
	return reply, err
}
