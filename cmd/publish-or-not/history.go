// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/publish-or-not/internal/history"
	"github.com/pdiddy/publish-or-not/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past runs or export one run's attempts",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().String("history-db", "", "SQLite run history")
	historyCmd.Flags().String("run", "", "export the attempts of this run")
	historyCmd.Flags().Int("limit", 20, "number of runs to list (0 for all)")
	historyCmd.Flags().Bool("json", false, "export as JSON instead of YAML")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	viper.BindPFlag("history_db", cmd.Flags().Lookup("history-db"))
	path := viper.GetString("history_db")
	if path == "" {
		return fmt.Errorf("%w: provide a history database with --history-db", types.ErrConfig)
	}

	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	w := cmd.OutOrStdout()

	if runID, _ := cmd.Flags().GetString("run"); runID != "" {
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return store.ExportJSON(ctx, runID, w)
		}
		return store.ExportYAML(ctx, runID, w)
	}

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.Runs(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%s  %-9s  %s  %3d names  %q  %s\n",
			r.ID, r.Status, r.StartedAt.Local().Format("2006-01-02 15:04"), r.Total, r.Venue, r.Years)
	}
	return nil
}
