package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of publish-or-not",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "publish-or-not %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
