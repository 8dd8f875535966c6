package balance

import "github.com/Seintian/postoffice/internal/shm"

// Action represents a balancing decision action.
type Action string

const (
	// ActionReassign indicates an idle worker was moved to another service.
	ActionReassign Action = "reassign"

	// ActionNone indicates no reassignment was made.
	ActionNone Action = "none"
)

// String returns the string representation of the action.
func (a Action) String() string {
	return string(a)
}

// Decision is the result of one balancing pass over the shared block.
type Decision struct {
	// Action is the outcome of the pass.
	Action Action

	// Seat is the worker table index that was reassigned.
	// Only meaningful when Action is ActionReassign.
	Seat int

	// From is the service the worker was assigned to before the pass.
	From shm.Service

	// To is the service the worker serves from now on.
	To shm.Service

	// Reason is a human-readable explanation of the decision.
	Reason string
}
