package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Seintian/postoffice/internal/config"
	"github.com/Seintian/postoffice/internal/shm"
	"github.com/Seintian/postoffice/internal/worker"
)

var (
	workersShm      string
	workersLogLevel string
	workersPool     int
	workersID       int
	workersService  string
)

var workersCmd = &cobra.Command{
	Use:     "workers",
	Aliases: []string{"worker"},
	Short:   "Run the worker-pool process",
	Long: `Run the worker pool. With --pool n the process runs n worker units;
with --id and --service it runs one unit pinned to a single service
(the legacy single-unit mode). Normally spawned by the Director.`,
	RunE: runWorkers,
}

func init() {
	workersCmd.Flags().StringVar(&workersShm, "shm", "", "shared block name (default from config)")
	workersCmd.Flags().StringVar(&workersLogLevel, "log-level", "", "log level")
	workersCmd.Flags().IntVar(&workersPool, "pool", 0, "number of worker units")
	workersCmd.Flags().IntVar(&workersID, "id", -1, "single-unit mode: worker identity")
	workersCmd.Flags().StringVar(&workersService, "service", "", "single-unit mode: service name")
	rootCmd.AddCommand(workersCmd)
}

func runWorkers(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := roleLogger(cfg, "workers", workersLogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	name := workersShm
	if name == "" {
		name = cfg.Paths.ShmName
	}
	region, err := shm.Attach(name)
	if err != nil {
		logger.Error("failed to attach shared block", "shm", name, "error", err)
		return err
	}
	defer func() { _ = region.Close() }()

	opts := []worker.Option{worker.WithLogger(logger)}
	switch {
	case workersService != "":
		svc, err := shm.ParseService(workersService)
		if err != nil {
			return err
		}
		opts = append(opts, worker.WithService(svc), worker.WithUnits(1))
		if workersID >= 0 {
			opts = append(opts, worker.WithIdentity(uint64(workersID)))
		}
	case workersPool > 0:
		opts = append(opts, worker.WithUnits(workersPool))
	default:
		opts = append(opts, worker.WithUnits(cfg.Workers.Pool))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return worker.New(region.Block(), cfg, opts...).Run(ctx)
}
