package errors

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

// -----------------------------------------------------------------------------
// Severity Tests
// -----------------------------------------------------------------------------

func TestSeverity_String(t *testing.T) {
	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityDebug, "debug"},
		{SeverityInfo, "info"},
		{SeverityWarning, "warning"},
		{SeverityError, "error"},
		{SeverityCritical, "critical"},
		{Severity(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.severity.String(); got != tt.want {
				t.Errorf("Severity.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// BrokerError Tests
// -----------------------------------------------------------------------------

func TestNewBrokerError(t *testing.T) {
	cause := ErrUnknownService
	err := NewBrokerError("join rejected", cause)

	if err.message != "join rejected" {
		t.Errorf("message = %q, want %q", err.message, "join rejected")
	}
	if err.cause != cause {
		t.Errorf("cause = %v, want %v", err.cause, cause)
	}
	if err.Severity() != SeverityError {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityError)
	}
	if err.IsRetryable() {
		t.Error("IsRetryable() = true, want false")
	}
}

func TestBrokerError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *BrokerError
		want string
	}{
		{
			name: "basic error",
			err:  NewBrokerError("bad request", nil),
			want: "broker error: bad request",
		},
		{
			name: "with cause",
			err:  NewBrokerError("bad request", ErrUnknownService),
			want: "broker error: bad request: unknown service type",
		},
		{
			name: "with service",
			err:  NewBrokerError("bad request", nil).WithService("packages"),
			want: "broker error [service=packages]: bad request",
		},
		{
			name: "with service and ticket",
			err:  NewBrokerError("pop failed", ErrNoWork).WithService("letters").WithTicket(42),
			want: "broker error [service=letters, ticket=42]: pop failed: no work available",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBrokerError_Is(t *testing.T) {
	err := NewBrokerError("join rejected", ErrUnknownService).WithService("watches")

	if !Is(err, &BrokerError{}) {
		t.Error("Is(&BrokerError{}) = false, want true")
	}
	if !Is(err, ErrUnknownService) {
		t.Error("Is(ErrUnknownService) = false, want true")
	}
	if Is(err, ErrNoWork) {
		t.Error("Is(ErrNoWork) = true, want false")
	}
}

// -----------------------------------------------------------------------------
// SharedStateError Tests
// -----------------------------------------------------------------------------

func TestSharedStateError(t *testing.T) {
	base := errors.New("permission denied")
	err := NewSharedStateError("attach failed", base).WithPath("/dev/shm/postoffice.99")

	want := "shared state error [path=/dev/shm/postoffice.99]: attach failed: permission denied"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if err.Severity() != SeverityCritical {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityCritical)
	}
	if !Is(err, base) {
		t.Error("Is(base) = false, want true")
	}
}

// -----------------------------------------------------------------------------
// SpawnError Tests
// -----------------------------------------------------------------------------

func TestSpawnError_Error(t *testing.T) {
	err := NewSpawnError("exec failed", ErrAlreadySpawned).WithRole("broker").WithPid(4221)

	want := "spawn error [role=broker, pid=4221]: exec failed: subsystems already spawned"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestSpawnError_Unwrap(t *testing.T) {
	cause := errors.New("fork failed")
	err := NewSpawnError("spawn", cause)

	if Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", Unwrap(err), cause)
	}
}

// -----------------------------------------------------------------------------
// Semantic Error Tests
// -----------------------------------------------------------------------------

func TestValidationError(t *testing.T) {
	err := NewValidationError("worker count must be positive").
		WithField("workers.count").
		WithValue(-3)

	want := "validation error [field=workers.count, value=-3]: worker count must be positive"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !Is(err, ErrInvalidInput) {
		t.Error("Is(ErrInvalidInput) = false, want true")
	}
}

func TestTimeoutError(t *testing.T) {
	err := NewTimeoutError("waiting for broker socket", 5*time.Second)

	want := "timeout error: waiting for broker socket (timeout: 5s)"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !Is(err, ErrTimeout) {
		t.Error("Is(ErrTimeout) = false, want true")
	}
	if !err.IsRetryable() {
		t.Error("IsRetryable() = false, want true")
	}
}

// -----------------------------------------------------------------------------
// Classification Tests
// -----------------------------------------------------------------------------

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"timeout error", NewTimeoutError("op", time.Second), true},
		{"wrapped timeout sentinel", fmt.Errorf("outer: %w", ErrTimeout), true},
		{"no work sentinel", ErrNoWork, true},
		{"broker error", NewBrokerError("bad", ErrUnknownService), false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetSeverity(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Severity
	}{
		{"nil", nil, SeverityDebug},
		{"shared state", NewSharedStateError("attach", nil), SeverityCritical},
		{"validation", NewValidationError("bad"), SeverityWarning},
		{"plain error", errors.New("boom"), SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetSeverity(tt.err); got != tt.want {
				t.Errorf("GetSeverity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsFatal(t *testing.T) {
	if !IsFatal(fmt.Errorf("queues: %w", ErrExplodeThreshold)) {
		t.Error("IsFatal(ErrExplodeThreshold) = false, want true")
	}
	if !IsFatal(NewSharedStateError("attach", nil)) {
		t.Error("IsFatal(SharedStateError) = false, want true")
	}
	if IsFatal(ErrNoWork) {
		t.Error("IsFatal(ErrNoWork) = true, want false")
	}
	if IsFatal(nil) {
		t.Error("IsFatal(nil) = true, want false")
	}
}

// -----------------------------------------------------------------------------
// Wrap Tests
// -----------------------------------------------------------------------------

func TestWrap(t *testing.T) {
	base := ErrSeatTableFull
	err := Wrap(base, "claim seat")

	want := "claim seat: worker seat table full"
	if got := err.Error(); got != want {
		t.Errorf("Wrap() = %q, want %q", got, want)
	}
	if !Is(err, base) {
		t.Error("wrapped error does not match base")
	}
	if Wrap(nil, "nothing") != nil {
		t.Error("Wrap(nil) != nil")
	}
}

func TestWrapf(t *testing.T) {
	err := Wrapf(ErrNotTracked, "reap pid %d", 77)

	want := "reap pid 77: process not tracked"
	if got := err.Error(); got != want {
		t.Errorf("Wrapf() = %q, want %q", got, want)
	}
	if Wrapf(nil, "nothing %d", 1) != nil {
		t.Error("Wrapf(nil) != nil")
	}
}
