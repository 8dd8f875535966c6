package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Seintian/postoffice/internal/barrier"
	"github.com/Seintian/postoffice/internal/broker"
	"github.com/Seintian/postoffice/internal/config"
	"github.com/Seintian/postoffice/internal/shm"
)

var (
	brokerShm      string
	brokerLogLevel string
	brokerHandlers int
)

var brokerCmd = &cobra.Command{
	Use:   "broker",
	Short: "Run the work-broker process",
	Long: `Run the work broker: it listens on a local socket, issues tickets off
the shared sequence and serves queued requests in priority order.
Normally spawned by the Director.`,
	RunE: runBroker,
}

func init() {
	brokerCmd.Flags().StringVar(&brokerShm, "shm", "", "shared block name (default from config)")
	brokerCmd.Flags().StringVar(&brokerLogLevel, "log-level", "", "log level")
	brokerCmd.Flags().IntVar(&brokerHandlers, "handlers", 0, "handler pool size (overrides config)")
	rootCmd.AddCommand(brokerCmd)
}

func runBroker(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if brokerHandlers > 0 {
		cfg.Broker.Handlers = brokerHandlers
	}

	logger, err := roleLogger(cfg, "broker", brokerLogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	name := brokerShm
	if name == "" {
		name = cfg.Paths.ShmName
	}
	region, err := shm.Attach(name)
	if err != nil {
		logger.Error("failed to attach shared block", "shm", name, "error", err)
		return err
	}
	defer func() { _ = region.Close() }()

	opts := []broker.Option{
		broker.WithHandlers(cfg.Broker.Handlers),
		broker.WithLogger(logger),
	}
	if cfg.Broker.SocketPath != "" {
		opts = append(opts, broker.WithSocketPath(cfg.Broker.SocketPath))
	}
	b := broker.New(region.Block(), opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := b.Start(ctx); err != nil {
		logger.Error("broker failed to start", "error", err)
		return err
	}
	defer b.Stop()

	// The broker is one of the day-rendezvous participants: it checks in
	// each morning and clears the previous day's leftovers.
	part := barrier.NewParticipant(region.Block())
	for {
		day, err := part.AwaitDay(ctx)
		if err != nil {
			return nil
		}
		if discarded := b.ResetDay(); discarded > 0 {
			logger.Info("discarded stale requests", "day", day, "discarded", discarded)
		}
	}
}
