package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of scribe",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "scribe version %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
