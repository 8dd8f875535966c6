// Package wire defines the fixed-size binary records exchanged over
// the broker's local socket, and resolves the socket paths themselves.
//
// Every message is exactly MessageSize bytes: a type byte, a flags
// byte, the service, and three 64-bit payload words, little-endian.
// There is no version field; both ends of a run come from the same
// binary.
package wire

import (
	"time"

	"github.com/Seintian/postoffice/internal/shm"
)

// MessageSize is the exact size of every wire record
const MessageSize = 32

// Type identifies a wire record
type Type uint8

// Wire record types.
const (
	// TypeTicketRequest asks for a bare ticket number (legacy ring path).
	TypeTicketRequest Type = iota + 1
	// TypeTicketResponse answers a ticket request.
	TypeTicketResponse
	// TypeJoinQueue asks to join a service queue and carries the VIP flag.
	TypeJoinQueue
	// TypeJoinAck confirms a join with the assigned ticket.
	TypeJoinAck
	// TypeGetWork asks for the highest-priority pending item of a service.
	TypeGetWork
	// TypeWorkItem answers a get-work request; FlagEmpty means no work.
	TypeWorkItem
)

func (t Type) valid() bool {
	return t >= TypeTicketRequest && t <= TypeWorkItem
}

// Flags qualify a record
type Flags uint8

const (
	// FlagVIP marks a join request as priority service.
	FlagVIP Flags = 1 << iota
	// FlagEmpty marks a work-item response carrying no work.
	FlagEmpty
)

// Message is one decoded wire record. Field meaning depends on Type:
// Ticket carries the assigned ticket on responses, Requester identifies
// the asking user or worker, Arrival is the queue-entry timestamp on
// work items.
type Message struct {
	Type      Type
	Flags     Flags
	Service   shm.Service
	Ticket    uint64
	Requester uint64
	Arrival   int64
}

// VIP reports whether the record carries the priority flag
func (m Message) VIP() bool {
	return m.Flags&FlagVIP != 0
}

// Empty reports whether a work-item response carries no work
func (m Message) Empty() bool {
	return m.Flags&FlagEmpty != 0
}

// ArrivalTime returns the arrival stamp as a time
func (m Message) ArrivalTime() time.Time {
	return time.Unix(0, m.Arrival)
}

// NewTicketRequest builds a bare ticket request for the legacy path
func NewTicketRequest(service shm.Service, requester uint64, vip bool) Message {
	m := Message{Type: TypeTicketRequest, Service: service, Requester: requester}
	if vip {
		m.Flags |= FlagVIP
	}
	return m
}

// NewTicketResponse answers a ticket request
func NewTicketResponse(ticket uint64) Message {
	return Message{Type: TypeTicketResponse, Ticket: ticket}
}

// NewJoinQueue builds a join-queue request
func NewJoinQueue(service shm.Service, requester uint64, vip bool) Message {
	m := Message{Type: TypeJoinQueue, Service: service, Requester: requester}
	if vip {
		m.Flags |= FlagVIP
	}
	return m
}

// NewJoinAck confirms a join with its assigned ticket
func NewJoinAck(service shm.Service, ticket uint64) Message {
	return Message{Type: TypeJoinAck, Service: service, Ticket: ticket}
}

// NewGetWork builds a get-work request for a worker
func NewGetWork(service shm.Service, worker uint64) Message {
	return Message{Type: TypeGetWork, Service: service, Requester: worker}
}

// NewWorkItem answers a get-work request with a pending item
func NewWorkItem(service shm.Service, ticket, requester uint64, vip bool, arrival time.Time) Message {
	m := Message{
		Type:      TypeWorkItem,
		Service:   service,
		Ticket:    ticket,
		Requester: requester,
		Arrival:   arrival.UnixNano(),
	}
	if vip {
		m.Flags |= FlagVIP
	}
	return m
}

// NewNoWork answers a get-work request when the service queue is empty
func NewNoWork(service shm.Service) Message {
	return Message{Type: TypeWorkItem, Flags: FlagEmpty, Service: service}
}
