package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete PostOffice simulation configuration
type Config struct {
	Simulation SimulationConfig `mapstructure:"simulation"`
	Workers    WorkersConfig    `mapstructure:"workers"`
	Users      UsersConfig      `mapstructure:"users"`
	Broker     BrokerConfig     `mapstructure:"broker"`
	Queue      QueueConfig      `mapstructure:"queue"`
	Balancer   BalancerConfig   `mapstructure:"balancer"`
	Services   ServicesConfig   `mapstructure:"services"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	TUI        TUIConfig        `mapstructure:"tui"`
	Paths      PathsConfig      `mapstructure:"paths"`
}

// SimulationConfig controls the simulated clock and calendar
type SimulationConfig struct {
	// Days is the number of simulated days to run (default: 5)
	Days int `mapstructure:"days"`
	// MinuteMs is the real-time duration of one simulated minute in
	// milliseconds (default: 2)
	MinuteMs int `mapstructure:"minute_ms"`
	// OpeningHour is the hour the office opens, 0-23 (default: 8)
	OpeningHour int `mapstructure:"opening_hour"`
	// ClosingHour is the hour the office closes, 0-23, exclusive:
	// the office is open while hour < ClosingHour (default: 19)
	ClosingHour int `mapstructure:"closing_hour"`
	// Seed fixes the randomness of user behavior for reproducible runs.
	// Zero picks a seed from the wall clock (default: 0)
	Seed int64 `mapstructure:"seed"`
}

// WorkersConfig controls the worker pool process
type WorkersConfig struct {
	// Pool is the number of worker units the pool process runs (default: 4)
	Pool int `mapstructure:"pool"`
	// Seats is the capacity of the shared worker-status table.
	// Fixed at shared-block creation; Pool must not exceed it (default: 32)
	Seats int `mapstructure:"seats"`
	// IdlePollMs is how long an idle worker sleeps before re-polling its
	// queue, in milliseconds (default: 1)
	IdlePollMs int `mapstructure:"idle_poll_ms"`
}

// UsersConfig controls the users-manager process
type UsersConfig struct {
	// Count is the number of simulated user units (default: 20)
	Count int `mapstructure:"count"`
	// RequestsPerDay is the maximum service requests a single user makes
	// per simulated day (default: 3)
	RequestsPerDay int `mapstructure:"requests_per_day"`
	// VisitProb is the probability that a user visits the office on any
	// given day, 0.0-1.0 (default: 0.8)
	VisitProb float64 `mapstructure:"visit_prob"`
	// VIPPercent is the probability that a visit is VIP, 0.0-1.0 (default: 0.1)
	VIPPercent float64 `mapstructure:"vip_percent"`
	// Legacy routes users through the shared-memory ticket rings instead
	// of the broker heaps (default: false)
	Legacy bool `mapstructure:"legacy"`
}

// BrokerConfig controls the work-broker process
type BrokerConfig struct {
	// Handlers is the size of the connection-handler pool (default: 4)
	Handlers int `mapstructure:"handlers"`
	// SocketPath overrides the broker's listening socket path.
	// Empty means resolve the default under $HOME with a pid-qualified
	// temp-directory fallback (default: "")
	SocketPath string `mapstructure:"socket_path"`
}

// QueueConfig controls queue sizing and the global overload escalation
type QueueConfig struct {
	// ExplodeThreshold is the total waiting count across all service
	// queues that aborts the simulation when breached (default: 200)
	ExplodeThreshold int `mapstructure:"explode_threshold"`
	// TaskCapacity is the capacity of the Director's internal task queue
	// ring, rounded up to a power of two (default: 256)
	TaskCapacity int `mapstructure:"task_capacity"`
}

// BalancerConfig controls the load-balancing policy
type BalancerConfig struct {
	// MinDepth is the minimum depth of the most-loaded queue before any
	// reassignment is considered (default: 3)
	MinDepth int `mapstructure:"min_depth"`
	// RatioPercent is the imbalance threshold: most-loaded depth over
	// least-loaded depth, as a percentage. 200 means 2x (default: 200)
	RatioPercent int `mapstructure:"ratio_percent"`
	// IntervalTicks is how many clock ticks (simulated minutes) pass
	// between balancer invocations (default: 30)
	IntervalTicks int `mapstructure:"interval_ticks"`
}

// ServicesConfig controls per-service-type behavior
type ServicesConfig struct {
	// MeanMinutes maps a service name to its mean service time in
	// simulated minutes. Keys must be valid service names (see
	// ValidServiceNames); values must be positive.
	MeanMinutes map[string]int `mapstructure:"mean_minutes"`
}

// LoggingConfig controls structured logging behavior
type LoggingConfig struct {
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// Dir is the directory per-role log files are written to.
	// Empty means log to stderr only (default: "")
	Dir string `mapstructure:"dir"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of backup log files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
	// Compress gzips rotated backups (default: false)
	Compress bool `mapstructure:"compress"`
}

// TUIConfig controls the Director's live dashboard
type TUIConfig struct {
	// Enabled shows the dashboard when the Director runs on a terminal.
	// Headless mode and non-tty stdout skip it regardless (default: true)
	Enabled bool `mapstructure:"enabled"`
	// RefreshMs is the dashboard refresh interval in milliseconds (default: 100)
	RefreshMs int `mapstructure:"refresh_ms"`
}

// PathsConfig controls where the simulation places its runtime files
type PathsConfig struct {
	// ShmName is the name of the shared-memory file, created under
	// /dev/shm when available and the system temp directory otherwise
	// (default: "postoffice")
	ShmName string `mapstructure:"shm_name"`
}

// Service name constants. These are the canonical config keys under
// services.mean_minutes and must match the service identifiers the
// shared-block layout uses (defined separately to avoid a config
// dependency in the shared-memory package).
const (
	ServicePackages  = "package_shipping"
	ServiceLetters   = "registered_letters"
	ServiceBanking   = "postal_banking"
	ServicePayments  = "payment_slips"
	ServiceFinancial = "financial_products"
	ServiceWatches   = "watch_services"
)

// ValidServiceNames returns the fixed set of service names in their
// canonical order.
func ValidServiceNames() []string {
	return []string{
		ServicePackages,
		ServiceLetters,
		ServiceBanking,
		ServicePayments,
		ServiceFinancial,
		ServiceWatches,
	}
}

// IsValidServiceName checks if the given name is a known service
func IsValidServiceName(name string) bool {
	for _, valid := range ValidServiceNames() {
		if name == valid {
			return true
		}
	}
	return false
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Simulation: SimulationConfig{
			Days:        5,
			MinuteMs:    2,
			OpeningHour: 8,
			ClosingHour: 19,
		},
		Workers: WorkersConfig{
			Pool:       4,
			Seats:      32,
			IdlePollMs: 1,
		},
		Users: UsersConfig{
			Count:          20,
			RequestsPerDay: 3,
			VisitProb:      0.8,
			VIPPercent:     0.1,
			Legacy:         false,
		},
		Broker: BrokerConfig{
			Handlers:   4,
			SocketPath: "", // Empty means resolve under $HOME
		},
		Queue: QueueConfig{
			ExplodeThreshold: 200,
			TaskCapacity:     256,
		},
		Balancer: BalancerConfig{
			MinDepth:      3,
			RatioPercent:  200,
			IntervalTicks: 30,
		},
		Services: ServicesConfig{
			MeanMinutes: map[string]int{
				ServicePackages:  10,
				ServiceLetters:   8,
				ServiceBanking:   6,
				ServicePayments:  8,
				ServiceFinancial: 20,
				ServiceWatches:   20,
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Dir:        "",
			MaxSizeMB:  10,
			MaxBackups: 3,
			Compress:   false,
		},
		TUI: TUIConfig{
			Enabled:   true,
			RefreshMs: 100,
		},
		Paths: PathsConfig{
			ShmName: "postoffice",
		},
	}
}

// MinuteDuration returns the real-time length of one simulated minute
func (c *SimulationConfig) MinuteDuration() time.Duration {
	return time.Duration(c.MinuteMs) * time.Millisecond
}

// DayTicks returns the number of clock ticks in one simulated day
func (c *SimulationConfig) DayTicks() int {
	return 24 * 60
}

// IdlePoll returns the idle worker re-poll interval as a time.Duration
func (c *WorkersConfig) IdlePoll() time.Duration {
	return time.Duration(c.IdlePollMs) * time.Millisecond
}

// Refresh returns the dashboard refresh interval as a time.Duration
func (c *TUIConfig) Refresh() time.Duration {
	return time.Duration(c.RefreshMs) * time.Millisecond
}

// MeanFor returns the configured mean service minutes for a service
// name, falling back to the default for unknown or missing entries.
func (c *ServicesConfig) MeanFor(name string) int {
	if m, ok := c.MeanMinutes[name]; ok && m > 0 {
		return m
	}
	if d, ok := Default().Services.MeanMinutes[name]; ok {
		return d
	}
	return 10
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Simulation defaults
	viper.SetDefault("simulation.days", defaults.Simulation.Days)
	viper.SetDefault("simulation.minute_ms", defaults.Simulation.MinuteMs)
	viper.SetDefault("simulation.opening_hour", defaults.Simulation.OpeningHour)
	viper.SetDefault("simulation.closing_hour", defaults.Simulation.ClosingHour)
	viper.SetDefault("simulation.seed", defaults.Simulation.Seed)

	// Workers defaults
	viper.SetDefault("workers.pool", defaults.Workers.Pool)
	viper.SetDefault("workers.seats", defaults.Workers.Seats)
	viper.SetDefault("workers.idle_poll_ms", defaults.Workers.IdlePollMs)

	// Users defaults
	viper.SetDefault("users.count", defaults.Users.Count)
	viper.SetDefault("users.requests_per_day", defaults.Users.RequestsPerDay)
	viper.SetDefault("users.visit_prob", defaults.Users.VisitProb)
	viper.SetDefault("users.vip_percent", defaults.Users.VIPPercent)
	viper.SetDefault("users.legacy", defaults.Users.Legacy)

	// Broker defaults
	viper.SetDefault("broker.handlers", defaults.Broker.Handlers)
	viper.SetDefault("broker.socket_path", defaults.Broker.SocketPath)

	// Queue defaults
	viper.SetDefault("queue.explode_threshold", defaults.Queue.ExplodeThreshold)
	viper.SetDefault("queue.task_capacity", defaults.Queue.TaskCapacity)

	// Balancer defaults
	viper.SetDefault("balancer.min_depth", defaults.Balancer.MinDepth)
	viper.SetDefault("balancer.ratio_percent", defaults.Balancer.RatioPercent)
	viper.SetDefault("balancer.interval_ticks", defaults.Balancer.IntervalTicks)

	// Services defaults
	viper.SetDefault("services.mean_minutes", defaults.Services.MeanMinutes)

	// Logging defaults
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	viper.SetDefault("logging.compress", defaults.Logging.Compress)

	// TUI defaults
	viper.SetDefault("tui.enabled", defaults.TUI.Enabled)
	viper.SetDefault("tui.refresh_ms", defaults.TUI.RefreshMs)

	// Paths defaults
	viper.SetDefault("paths.shm_name", defaults.Paths.ShmName)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "postoffice")
	}
	// Fall back to ~/.config/postoffice
	home, err := os.UserHomeDir()
	if err != nil {
		return ".postoffice"
	}
	return filepath.Join(home, ".config", "postoffice")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "postoffice.yaml")
}
