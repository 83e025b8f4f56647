// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"
)

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Continue a blocked or interrupted run from its checkpoint file",
	Long: `Resume runs the lookup over a checkpoint file written by an earlier
run and appends rows to the existing report instead of rewriting it. The
name list must be given with -l and the other flags should match the
original run.`,
	Example: `  publish-or-not resume -l names_remaining_20170601-130405.txt -o Output.txt -p "Learning Analytics" --after 2013 --before 2017`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLookup(cmd, true)
	},
}

func init() {
	addRunFlags(resumeCmd)
	resumeCmd.MarkFlagRequired("namelist")
	rootCmd.AddCommand(resumeCmd)
}
