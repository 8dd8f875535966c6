package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Seintian/postoffice/internal/bridge"
	"github.com/Seintian/postoffice/internal/wire"
)

var ctlSocket string

var ctlCmd = &cobra.Command{
	Use:   "ctl <command...>",
	Short: "Send a command to a running Director",
	Long: `Send one line-based text command over the Director's control bridge
and print the acknowledgement.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCtl,
}

func init() {
	ctlCmd.Flags().StringVar(&ctlSocket, "socket", "", "control bridge socket path")
	rootCmd.AddCommand(ctlCmd)
}

func runCtl(cmd *cobra.Command, args []string) error {
	path := ctlSocket
	if path == "" {
		path = wire.BridgeSocketPath()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	reply, err := bridge.NewClient(path).Send(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), reply)
	return nil
}
