package cmd

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// version is stamped by the release build; "dev" otherwise.
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the postoffice version",
	Run: func(cmd *cobra.Command, args []string) {
		v := version
		if v == "dev" {
			if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
				v = info.Main.Version
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "postoffice %s\n", v)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
