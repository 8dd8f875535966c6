package shm

import "github.com/Seintian/postoffice/internal/errors"

// Service identifies one of the office's fixed service types. The value
// doubles as the index into the shared block's queue table.
type Service uint32

const (
	ServicePackages Service = iota
	ServiceLetters
	ServiceBanking
	ServicePayments
	ServiceFinancial
	ServiceWatches
)

// NumServices is the size of the fixed service set
const NumServices = 6

var serviceNames = [NumServices]string{
	"package_shipping",
	"registered_letters",
	"postal_banking",
	"payment_slips",
	"financial_products",
	"watch_services",
}

var serviceLabels = [NumServices]string{
	"Package shipping",
	"Registered letters",
	"Postal banking",
	"Payment slips",
	"Financial products",
	"Watch services",
}

// Services returns all service types in index order
func Services() [NumServices]Service {
	return [NumServices]Service{
		ServicePackages,
		ServiceLetters,
		ServiceBanking,
		ServicePayments,
		ServiceFinancial,
		ServiceWatches,
	}
}

// Valid reports whether s is within the fixed service set
func (s Service) Valid() bool {
	return uint32(s) < NumServices
}

// String returns the service's canonical name, as used in configuration
// keys and log fields.
func (s Service) String() string {
	if !s.Valid() {
		return "unknown"
	}
	return serviceNames[s]
}

// Label returns the service's human-readable name for display
func (s Service) Label() string {
	if !s.Valid() {
		return "Unknown"
	}
	return serviceLabels[s]
}

// ParseService resolves a canonical service name to its Service value
func ParseService(name string) (Service, error) {
	for i, n := range serviceNames {
		if n == name {
			return Service(i), nil
		}
	}
	return 0, errors.Wrapf(errors.ErrUnknownService, "parse service %q", name)
}

// WorkerState is the lifecycle state of one worker seat
type WorkerState uint32

const (
	// WorkerOffline marks an unclaimed or released seat
	WorkerOffline WorkerState = iota
	// WorkerFree marks a seated worker waiting for a ticket
	WorkerFree
	// WorkerBusy marks a worker currently serving a ticket
	WorkerBusy
	// WorkerPaused marks a seated worker outside office hours
	WorkerPaused
)

// String returns the state name for logs and the dashboard
func (s WorkerState) String() string {
	switch s {
	case WorkerOffline:
		return "offline"
	case WorkerFree:
		return "free"
	case WorkerBusy:
		return "busy"
	case WorkerPaused:
		return "paused"
	default:
		return "invalid"
	}
}
