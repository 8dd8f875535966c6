// Package cmd wires the simulation's process roles into one binary:
// the Director (start), the worker pool, the users-manager, the work
// broker and the operator tool are all subcommands, and the Director
// spawns the subsystem roles by re-executing its own executable.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Seintian/postoffice/internal/config"
	"github.com/Seintian/postoffice/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "postoffice",
	Short: "Queueing-office simulation",
	Long: `Postoffice simulates a queueing office as a fleet of cooperating
processes: a Director drives a shared simulated clock, a broker issues
tickets in priority order, worker units serve them, and simulated users
queue up for service. The processes coordinate through a shared memory
block and local sockets.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/postoffice/postoffice.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// Defaults first so every key resolves even without a config file.
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("postoffice")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("POSTOFFICE")
	// POSTOFFICE_USERS_COUNT resolves users.count, and so on.
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// A missing config file just means defaults.
	_ = viper.ReadInConfig()
}

// roleLogger builds the per-role logger: a rotating JSON file under the
// configured log directory, or stderr when none is set. levelFlag wins
// over the configured level when non-empty.
func roleLogger(cfg *config.Config, role, levelFlag string) (*logging.Logger, error) {
	level := cfg.Logging.Level
	if levelFlag != "" {
		level = levelFlag
	}

	if cfg.Logging.Dir == "" {
		return logging.NewStderr(level), nil
	}
	return logging.NewLogger(cfg.Logging.Dir, role, level, logging.RotationConfig{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		Compress:   cfg.Logging.Compress,
	})
}
