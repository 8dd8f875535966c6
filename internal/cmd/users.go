package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Seintian/postoffice/internal/config"
	"github.com/Seintian/postoffice/internal/shm"
	"github.com/Seintian/postoffice/internal/users"
)

var (
	usersShm      string
	usersLogLevel string
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Run the users-manager process",
	Long: `Run the users-manager: one simulated user unit per configured user.
The user count comes from the configuration or the POSTOFFICE_USERS_COUNT
environment variable. Normally spawned by the Director.`,
	RunE: runUsers,
}

func init() {
	usersCmd.Flags().StringVar(&usersShm, "shm", "", "shared block name (default from config)")
	usersCmd.Flags().StringVar(&usersLogLevel, "log-level", "", "log level")
	rootCmd.AddCommand(usersCmd)
}

func runUsers(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := roleLogger(cfg, "users", usersLogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	name := usersShm
	if name == "" {
		name = cfg.Paths.ShmName
	}
	region, err := shm.Attach(name)
	if err != nil {
		logger.Error("failed to attach shared block", "shm", name, "error", err)
		return err
	}
	defer func() { _ = region.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return users.New(region.Block(), cfg, users.WithLogger(logger)).Run(ctx)
}
