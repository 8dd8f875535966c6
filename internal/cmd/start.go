package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/Seintian/postoffice/internal/config"
	"github.com/Seintian/postoffice/internal/director"
	"github.com/Seintian/postoffice/internal/tui"
)

var (
	startHeadless bool
	startLogLevel string
	startWorkers  int
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the simulation Director",
	Long: `Start the Director: it creates the shared block, spawns the broker,
worker-pool and users-manager processes, and drives the simulated
calendar through the configured number of days. Without --headless (and
with a terminal on stdout) a live dashboard is shown.`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().BoolVar(&startHeadless, "headless", false, "run without the dashboard")
	startCmd.Flags().StringVar(&startLogLevel, "log-level", "", "log level (debug, info, warn, error)")
	startCmd.Flags().IntVar(&startWorkers, "workers", 0, "worker units in the pool (overrides config)")
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if startWorkers > 0 {
		cfg.Workers.Pool = startWorkers
	}
	if startLogLevel != "" {
		cfg.Logging.Level = startLogLevel
	}

	logger, err := roleLogger(cfg, "director", startLogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []director.Option{director.WithLogger(logger)}
	if path := viper.ConfigFileUsed(); path != "" {
		opts = append(opts, director.WithConfigWatch(path))
	}
	d := director.New(cfg, opts...)

	headless := startHeadless || !cfg.TUI.Enabled || !term.IsTerminal(int(os.Stdout.Fd()))
	if headless {
		return d.Run(ctx)
	}

	app := tui.New(d, tui.WithRefresh(cfg.TUI.Refresh()))

	runErr := make(chan error, 1)
	go func() {
		runErr <- d.Run(ctx)
		app.Quit()
	}()

	if err := app.Run(); err != nil {
		logger.Warn("dashboard failed", "error", err)
	}
	// Quitting the dashboard ends the run too.
	stop()
	return <-runErr
}
