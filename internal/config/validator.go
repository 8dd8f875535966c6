package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "workers.pool")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateSimulation()...)
	errors = append(errors, c.validateWorkers()...)
	errors = append(errors, c.validateUsers()...)
	errors = append(errors, c.validateBroker()...)
	errors = append(errors, c.validateQueue()...)
	errors = append(errors, c.validateBalancer()...)
	errors = append(errors, c.validateServices()...)
	errors = append(errors, c.validateLogging()...)
	errors = append(errors, c.validateTUI()...)
	errors = append(errors, c.validatePaths()...)

	return errors
}

// validateSimulation validates the SimulationConfig
func (c *Config) validateSimulation() []ValidationError {
	var errors []ValidationError

	if c.Simulation.Days <= 0 {
		errors = append(errors, ValidationError{
			Field:   "simulation.days",
			Value:   c.Simulation.Days,
			Message: "must be positive",
		})
	}

	// Keep a full run within a practical wall-clock bound
	const maxDays = 10000
	if c.Simulation.Days > maxDays {
		errors = append(errors, ValidationError{
			Field:   "simulation.days",
			Value:   c.Simulation.Days,
			Message: fmt.Sprintf("exceeds maximum of %d", maxDays),
		})
	}

	if c.Simulation.MinuteMs <= 0 {
		errors = append(errors, ValidationError{
			Field:   "simulation.minute_ms",
			Value:   c.Simulation.MinuteMs,
			Message: "must be positive",
		})
	}

	const maxMinuteMs = 60000 // one real minute per simulated minute
	if c.Simulation.MinuteMs > maxMinuteMs {
		errors = append(errors, ValidationError{
			Field:   "simulation.minute_ms",
			Value:   c.Simulation.MinuteMs,
			Message: fmt.Sprintf("exceeds maximum of %dms", maxMinuteMs),
		})
	}

	if c.Simulation.OpeningHour < 0 || c.Simulation.OpeningHour > 23 {
		errors = append(errors, ValidationError{
			Field:   "simulation.opening_hour",
			Value:   c.Simulation.OpeningHour,
			Message: "must be between 0 and 23",
		})
	}

	if c.Simulation.ClosingHour < 0 || c.Simulation.ClosingHour > 23 {
		errors = append(errors, ValidationError{
			Field:   "simulation.closing_hour",
			Value:   c.Simulation.ClosingHour,
			Message: "must be between 0 and 23",
		})
	} else if c.Simulation.OpeningHour >= 0 && c.Simulation.OpeningHour <= 23 &&
		c.Simulation.ClosingHour <= c.Simulation.OpeningHour {
		errors = append(errors, ValidationError{
			Field:   "simulation.closing_hour",
			Value:   c.Simulation.ClosingHour,
			Message: fmt.Sprintf("must be after opening_hour (%d)", c.Simulation.OpeningHour),
		})
	}

	return errors
}

// validateWorkers validates the WorkersConfig
func (c *Config) validateWorkers() []ValidationError {
	var errors []ValidationError

	if c.Workers.Pool <= 0 {
		errors = append(errors, ValidationError{
			Field:   "workers.pool",
			Value:   c.Workers.Pool,
			Message: "must be positive",
		})
	}

	if c.Workers.Seats <= 0 {
		errors = append(errors, ValidationError{
			Field:   "workers.seats",
			Value:   c.Workers.Seats,
			Message: "must be positive",
		})
	}

	// The seat table is part of the fixed shared-memory layout
	const maxSeats = 128
	if c.Workers.Seats > maxSeats {
		errors = append(errors, ValidationError{
			Field:   "workers.seats",
			Value:   c.Workers.Seats,
			Message: fmt.Sprintf("exceeds maximum of %d", maxSeats),
		})
	}

	if c.Workers.Pool > 0 && c.Workers.Seats > 0 && c.Workers.Pool > c.Workers.Seats {
		errors = append(errors, ValidationError{
			Field:   "workers.pool",
			Value:   c.Workers.Pool,
			Message: fmt.Sprintf("exceeds workers.seats (%d)", c.Workers.Seats),
		})
	}

	if c.Workers.IdlePollMs <= 0 {
		errors = append(errors, ValidationError{
			Field:   "workers.idle_poll_ms",
			Value:   c.Workers.IdlePollMs,
			Message: "must be positive",
		})
	}

	return errors
}

// validateUsers validates the UsersConfig
func (c *Config) validateUsers() []ValidationError {
	var errors []ValidationError

	if c.Users.Count <= 0 {
		errors = append(errors, ValidationError{
			Field:   "users.count",
			Value:   c.Users.Count,
			Message: "must be positive",
		})
	}

	const maxUsers = 100000
	if c.Users.Count > maxUsers {
		errors = append(errors, ValidationError{
			Field:   "users.count",
			Value:   c.Users.Count,
			Message: fmt.Sprintf("exceeds maximum of %d", maxUsers),
		})
	}

	if c.Users.RequestsPerDay <= 0 {
		errors = append(errors, ValidationError{
			Field:   "users.requests_per_day",
			Value:   c.Users.RequestsPerDay,
			Message: "must be positive",
		})
	}

	if c.Users.VisitProb < 0 || c.Users.VisitProb > 1 {
		errors = append(errors, ValidationError{
			Field:   "users.visit_prob",
			Value:   c.Users.VisitProb,
			Message: "must be between 0.0 and 1.0",
		})
	}

	if c.Users.VIPPercent < 0 || c.Users.VIPPercent > 1 {
		errors = append(errors, ValidationError{
			Field:   "users.vip_percent",
			Value:   c.Users.VIPPercent,
			Message: "must be between 0.0 and 1.0",
		})
	}

	return errors
}

// validateBroker validates the BrokerConfig
func (c *Config) validateBroker() []ValidationError {
	var errors []ValidationError

	if c.Broker.Handlers <= 0 {
		errors = append(errors, ValidationError{
			Field:   "broker.handlers",
			Value:   c.Broker.Handlers,
			Message: "must be positive",
		})
	}

	const maxHandlers = 256
	if c.Broker.Handlers > maxHandlers {
		errors = append(errors, ValidationError{
			Field:   "broker.handlers",
			Value:   c.Broker.Handlers,
			Message: fmt.Sprintf("exceeds maximum of %d", maxHandlers),
		})
	}

	if c.Broker.SocketPath != "" {
		if strings.ContainsRune(c.Broker.SocketPath, '\x00') {
			errors = append(errors, ValidationError{
				Field:   "broker.socket_path",
				Value:   c.Broker.SocketPath,
				Message: "path contains invalid null character",
			})
		}

		// Unix socket paths are limited to sizeof(sun_path), commonly 108
		const maxSocketPath = 104
		if len(c.Broker.SocketPath) > maxSocketPath {
			errors = append(errors, ValidationError{
				Field:   "broker.socket_path",
				Value:   c.Broker.SocketPath,
				Message: fmt.Sprintf("path exceeds maximum length of %d characters", maxSocketPath),
			})
		}
	}

	return errors
}

// validateQueue validates the QueueConfig
func (c *Config) validateQueue() []ValidationError {
	var errors []ValidationError

	if c.Queue.ExplodeThreshold <= 0 {
		errors = append(errors, ValidationError{
			Field:   "queue.explode_threshold",
			Value:   c.Queue.ExplodeThreshold,
			Message: "must be positive",
		})
	}

	if c.Queue.TaskCapacity <= 0 {
		errors = append(errors, ValidationError{
			Field:   "queue.task_capacity",
			Value:   c.Queue.TaskCapacity,
			Message: "must be positive",
		})
	}

	const maxTaskCapacity = 1 << 20
	if c.Queue.TaskCapacity > maxTaskCapacity {
		errors = append(errors, ValidationError{
			Field:   "queue.task_capacity",
			Value:   c.Queue.TaskCapacity,
			Message: fmt.Sprintf("exceeds maximum of %d", maxTaskCapacity),
		})
	}

	return errors
}

// validateBalancer validates the BalancerConfig
func (c *Config) validateBalancer() []ValidationError {
	var errors []ValidationError

	if c.Balancer.MinDepth < 0 {
		errors = append(errors, ValidationError{
			Field:   "balancer.min_depth",
			Value:   c.Balancer.MinDepth,
			Message: "must be non-negative",
		})
	}

	// A ratio at or below 100% would reassign on any difference
	if c.Balancer.RatioPercent <= 100 {
		errors = append(errors, ValidationError{
			Field:   "balancer.ratio_percent",
			Value:   c.Balancer.RatioPercent,
			Message: "must be greater than 100",
		})
	}

	if c.Balancer.IntervalTicks <= 0 {
		errors = append(errors, ValidationError{
			Field:   "balancer.interval_ticks",
			Value:   c.Balancer.IntervalTicks,
			Message: "must be positive",
		})
	}

	return errors
}

// validateServices validates the ServicesConfig
func (c *Config) validateServices() []ValidationError {
	var errors []ValidationError

	for name, mean := range c.Services.MeanMinutes {
		if !IsValidServiceName(name) {
			errors = append(errors, ValidationError{
				Field:   "services.mean_minutes",
				Value:   name,
				Message: fmt.Sprintf("unknown service, must be one of: %s", strings.Join(ValidServiceNames(), ", ")),
			})
		}
		if mean <= 0 {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("services.mean_minutes.%s", name),
				Value:   mean,
				Message: "must be positive",
			})
		}
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	// Validate log level
	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	// Max size must be positive
	if c.Logging.MaxSizeMB <= 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be positive",
		})
	}

	// Reasonable upper bound for log file size
	const maxLogSizeMB = 1000 // 1GB
	if c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	// Max backups must be non-negative
	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validateTUI validates the TUIConfig
func (c *Config) validateTUI() []ValidationError {
	var errors []ValidationError

	const minRefreshMs = 16 // roughly one frame at 60fps
	const maxRefreshMs = 10000
	if c.TUI.RefreshMs < minRefreshMs {
		errors = append(errors, ValidationError{
			Field:   "tui.refresh_ms",
			Value:   c.TUI.RefreshMs,
			Message: fmt.Sprintf("must be at least %dms", minRefreshMs),
		})
	}
	if c.TUI.RefreshMs > maxRefreshMs {
		errors = append(errors, ValidationError{
			Field:   "tui.refresh_ms",
			Value:   c.TUI.RefreshMs,
			Message: fmt.Sprintf("exceeds maximum of %dms", maxRefreshMs),
		})
	}

	return errors
}

// validatePaths validates the PathsConfig
func (c *Config) validatePaths() []ValidationError {
	var errors []ValidationError

	if c.Paths.ShmName == "" {
		errors = append(errors, ValidationError{
			Field:   "paths.shm_name",
			Value:   c.Paths.ShmName,
			Message: "must not be empty",
		})
		return errors
	}

	if strings.ContainsRune(c.Paths.ShmName, '/') {
		errors = append(errors, ValidationError{
			Field:   "paths.shm_name",
			Value:   c.Paths.ShmName,
			Message: "must be a bare name, not a path",
		})
	}

	const maxShmName = 64
	if len(c.Paths.ShmName) > maxShmName {
		errors = append(errors, ValidationError{
			Field:   "paths.shm_name",
			Value:   c.Paths.ShmName,
			Message: fmt.Sprintf("exceeds maximum length of %d characters", maxShmName),
		})
	}

	return errors
}
