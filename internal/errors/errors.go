// Package errors provides centralized error definitions and error handling
// utilities for the post office simulation. It defines domain-specific
// errors, semantic error types, error constructors with context wrapping,
// and error classification helpers.
//
// # Error Types
//
// Domain-specific errors represent failures in specific subsystems:
//   - BrokerError: errors in the work broker protocol or its queues
//   - SharedStateError: errors attaching to or mutating the shared block
//   - SpawnError: errors spawning or supervising child processes
//
// Semantic errors represent common conditions:
//   - ValidationError: invalid configuration or input
//   - TimeoutError: an operation exceeded its deadline
//
// # Usage
//
// Creating errors:
//
//	err := errors.NewBrokerError("join rejected", errors.ErrUnknownService).WithService("packages")
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrUnknownService) { ... }
//
//	var brokerErr *errors.BrokerError
//	if errors.As(err, &brokerErr) { ... }
//
//	if errors.IsRetryable(err) { ... }
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Simulation-level sentinel errors
var (
	// ErrSimulationStopped indicates the simulation clock was deactivated.
	ErrSimulationStopped = New("simulation stopped")
	// ErrExplodeThreshold indicates total queue depth breached the explode threshold.
	ErrExplodeThreshold = New("explode threshold breached")
	// ErrOfficeClosed indicates the office is outside its configured hours.
	ErrOfficeClosed = New("office closed")
)

// Broker-related sentinel errors
var (
	// ErrUnknownService indicates a request named a service type outside the fixed set.
	ErrUnknownService = New("unknown service type")
	// ErrMalformedMessage indicates a wire message that could not be decoded.
	ErrMalformedMessage = New("malformed message")
	// ErrNoWork indicates a get-work request found the service queue empty.
	ErrNoWork = New("no work available")
	// ErrDuplicateTicket indicates a ticket was pushed twice into the same queue.
	ErrDuplicateTicket = New("duplicate ticket")
	// ErrBrokerClosed indicates the broker is shutting down.
	ErrBrokerClosed = New("broker closed")
)

// Shared-state sentinel errors
var (
	// ErrSeatTableFull indicates no free worker seat remains in the shared table.
	ErrSeatTableFull = New("worker seat table full")
	// ErrBlockSize indicates the shared block file has the wrong size for the layout.
	ErrBlockSize = New("shared block size mismatch")
	// ErrNotAttached indicates an operation on a detached shared block.
	ErrNotAttached = New("shared block not attached")
	// ErrRingFull indicates a service queue's pending-ticket ring is at capacity.
	ErrRingFull = New("service ring full")
	// ErrLocked indicates another Director already owns the shared block.
	ErrLocked = New("shared block locked by another process")
)

// Supervision sentinel errors
var (
	// ErrAlreadySpawned indicates the subsystems were already spawned.
	ErrAlreadySpawned = New("subsystems already spawned")
	// ErrNotTracked indicates a reaped pid was not in the tracked set.
	ErrNotTracked = New("process not tracked")
)

// General sentinel errors
var (
	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = New("operation timed out")
	// ErrCanceled indicates that an operation was canceled.
	ErrCanceled = New("operation canceled")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// SimError is the base interface for all simulation errors. It extends the
// standard error interface with methods for classification.
type SimError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the error is transient and the operation
	// may succeed on retry.
	IsRetryable() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	message   string
	cause     error
	severity  Severity
	retryable bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// BrokerError represents errors in the work broker protocol or its queues.
//
// Example:
//
//	err := errors.NewBrokerError("join rejected", errors.ErrUnknownService)
//	err = err.WithService("packages").WithTicket(42)
type BrokerError struct {
	baseError
	Service string
	Ticket  uint64
}

// NewBrokerError creates a new BrokerError.
func NewBrokerError(message string, cause error) *BrokerError {
	return &BrokerError{
		baseError: baseError{
			message:  message,
			cause:    cause,
			severity: SeverityError,
		},
	}
}

// WithService adds the service type name to the error context.
func (e *BrokerError) WithService(service string) *BrokerError {
	e.Service = service
	return e
}

// WithTicket adds the ticket number to the error context.
func (e *BrokerError) WithTicket(ticket uint64) *BrokerError {
	e.Ticket = ticket
	return e
}

// WithSeverity sets the error severity.
func (e *BrokerError) WithSeverity(s Severity) *BrokerError {
	e.severity = s
	return e
}

// Error returns the formatted error message.
func (e *BrokerError) Error() string {
	var parts []string
	if e.Service != "" {
		parts = append(parts, fmt.Sprintf("service=%s", e.Service))
	}
	if e.Ticket != 0 {
		parts = append(parts, fmt.Sprintf("ticket=%d", e.Ticket))
	}

	prefix := "broker error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("broker error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *BrokerError) Is(target error) bool {
	if _, ok := target.(*BrokerError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// SharedStateError represents errors attaching to or mutating the shared block.
//
// Example:
//
//	err := errors.NewSharedStateError("attach failed", unix.EACCES).WithPath("/dev/shm/postoffice.123")
type SharedStateError struct {
	baseError
	Path string
}

// NewSharedStateError creates a new SharedStateError.
func NewSharedStateError(message string, cause error) *SharedStateError {
	return &SharedStateError{
		baseError: baseError{
			message:  message,
			cause:    cause,
			severity: SeverityCritical,
		},
	}
}

// WithPath adds the shared object path to the error context.
func (e *SharedStateError) WithPath(path string) *SharedStateError {
	e.Path = path
	return e
}

// Error returns the formatted error message.
func (e *SharedStateError) Error() string {
	prefix := "shared state error"
	if e.Path != "" {
		prefix = fmt.Sprintf("shared state error [path=%s]", e.Path)
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *SharedStateError) Is(target error) bool {
	if _, ok := target.(*SharedStateError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// SpawnError represents errors spawning or supervising child processes.
//
// Example:
//
//	err := errors.NewSpawnError("exec failed", execErr).WithRole("broker").WithPid(4221)
type SpawnError struct {
	baseError
	Role string
	Pid  int
}

// NewSpawnError creates a new SpawnError.
func NewSpawnError(message string, cause error) *SpawnError {
	return &SpawnError{
		baseError: baseError{
			message:  message,
			cause:    cause,
			severity: SeverityError,
		},
	}
}

// WithRole adds the child role name to the error context.
func (e *SpawnError) WithRole(role string) *SpawnError {
	e.Role = role
	return e
}

// WithPid adds the child pid to the error context.
func (e *SpawnError) WithPid(pid int) *SpawnError {
	e.Pid = pid
	return e
}

// WithSeverity sets the error severity.
func (e *SpawnError) WithSeverity(s Severity) *SpawnError {
	e.severity = s
	return e
}

// Error returns the formatted error message.
func (e *SpawnError) Error() string {
	var parts []string
	if e.Role != "" {
		parts = append(parts, fmt.Sprintf("role=%s", e.Role))
	}
	if e.Pid != 0 {
		parts = append(parts, fmt.Sprintf("pid=%d", e.Pid))
	}

	prefix := "spawn error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("spawn error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *SpawnError) Is(target error) bool {
	if _, ok := target.(*SpawnError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// ValidationError represents invalid configuration or input.
//
// Example:
//
//	err := errors.NewValidationError("worker count must be positive")
//	err = err.WithField("workers.count").WithValue(-3)
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:  message,
			severity: SeverityWarning,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}

	prefix := "validation error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("validation error [%s]", strings.Join(parts, ", "))
	}

	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if errors.Is(target, ErrInvalidInput) {
		return true
	}
	return e.baseError.Is(target)
}

// TimeoutError represents an operation that exceeded its deadline.
//
// Example:
//
//	err := errors.NewTimeoutError("waiting for broker socket", 5*time.Second)
type TimeoutError struct {
	baseError
	Operation string
	Duration  time.Duration
}

// NewTimeoutError creates a new TimeoutError.
func NewTimeoutError(operation string, duration time.Duration) *TimeoutError {
	return &TimeoutError{
		baseError: baseError{
			message:   operation,
			severity:  SeverityWarning,
			retryable: true, // Timeouts are generally retryable
		},
		Operation: operation,
		Duration:  duration,
	}
}

// WithCause adds a cause to the error.
func (e *TimeoutError) WithCause(cause error) *TimeoutError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *TimeoutError) Error() string {
	base := fmt.Sprintf("timeout error: %s (timeout: %s)", e.Operation, e.Duration)
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", base, e.cause)
	}
	return base
}

// Is checks if this error matches the target.
func (e *TimeoutError) Is(target error) bool {
	if _, ok := target.(*TimeoutError); ok {
		return true
	}
	if errors.Is(target, ErrTimeout) {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if the error represents a transient condition
// that may succeed on retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var simErr SimError
	if As(err, &simErr) {
		return simErr.IsRetryable()
	}

	return Is(err, ErrTimeout) || Is(err, ErrNoWork)
}

// GetSeverity returns the severity level of the error. Errors that don't
// implement SimError default to SeverityError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var simErr SimError
	if As(err, &simErr) {
		return simErr.Severity()
	}

	return SeverityError
}

// IsFatal returns true if the error must terminate the simulation loop.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return Is(err, ErrExplodeThreshold) || GetSeverity(err) == SeverityCritical
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with an additional context message.
//
// Example:
//
//	err := errors.Wrap(baseErr, "failed to attach shared block")
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
//
// Example:
//
//	err := errors.Wrapf(baseErr, "failed to spawn %s", role)
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
