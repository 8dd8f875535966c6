package bridge

import (
	"github.com/Seintian/postoffice/internal/logging"
	"github.com/Seintian/postoffice/internal/wire"
)

// Option configures a Bridge.
type Option func(*config)

type config struct {
	path   string
	logger *logging.Logger
}

func newConfig(opts []Option) *config {
	cfg := &config{
		path:   wire.BridgeSocketPath(),
		logger: logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.path == "" {
		cfg.path = wire.BridgeSocketPath()
	}
	if cfg.logger == nil {
		cfg.logger = logging.NopLogger()
	}
	return cfg
}

// WithSocketPath overrides the control socket path.
func WithSocketPath(path string) Option {
	return func(c *config) {
		c.path = path
	}
}

// WithLogger sets the logger for the bridge.
func WithLogger(logger *logging.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}
