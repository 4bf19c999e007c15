package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Version is the release version, stamped at build time:
//
//	go build -ldflags "-X github.com/HawaiianTea/kentbot-2.0/internal/cli.Version=v0.2.0"
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", appName, Version, runtime.Version())
	},
}
