// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/pdiddy/publish-or-not/internal/alert"
	"github.com/pdiddy/publish-or-not/internal/checkpoint"
	"github.com/pdiddy/publish-or-not/internal/cookies"
	"github.com/pdiddy/publish-or-not/internal/decoy"
	"github.com/pdiddy/publish-or-not/internal/history"
	"github.com/pdiddy/publish-or-not/internal/lookup"
	"github.com/pdiddy/publish-or-not/internal/proxy"
	"github.com/pdiddy/publish-or-not/internal/report"
	"github.com/pdiddy/publish-or-not/internal/scholar"
	"github.com/pdiddy/publish-or-not/internal/secrets"
	"github.com/pdiddy/publish-or-not/pkg/types"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check a list of authors for publications in a venue",
	Long: `Check queries Google Scholar once per author in the name list for
publications containing the venue phrase within the year range, and writes
one report row per author:

  A. Smith    Yes    3
  B. Jones    No    0

Names not yet processed are kept in <names>_remaining.txt. When Scholar
blocks the run, the unprocessed names are saved to a timestamped
<names>_remaining_<time>.txt, an alert is sent, and the command exits
non-zero. Pass that file to "resume" to continue.`,
	Example: `  publish-or-not check -l names.txt -o Output.txt -p "Learning Analytics" --after 2013 --before 2017`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLookup(cmd, false)
	},
}

func init() {
	addRunFlags(checkCmd)
	rootCmd.AddCommand(checkCmd)
}

func runLookup(cmd *cobra.Command, resume bool) error {
	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.NamesPath == "" {
		return fmt.Errorf("%w: provide a name list with -l", types.ErrConfig)
	}
	if cfg.Names, err = checkpoint.Read(cfg.NamesPath); err != nil {
		return err
	}
	if len(cfg.Names) == 0 && resume {
		fmt.Fprintf(cmd.OutOrStdout(), "Nothing to resume: %s is empty\n", cfg.NamesPath)
		return nil
	}
	if cfg.Proxy.Enabled {
		if cfg.Proxy.ListPath == "" {
			return fmt.Errorf("%w: --proxy requires --proxy-list", types.ErrConfig)
		}
		if cfg.Proxy.Proxies, err = proxy.LoadList(cfg.Proxy.ListPath); err != nil {
			return err
		}
	}
	if cfg.Decoy.Enabled {
		if cfg.Decoy.ListPath == "" {
			return fmt.Errorf("%w: --decoy requires --decoy-list", types.ErrConfig)
		}
		if cfg.Decoy.Sites, err = decoy.LoadSites(cfg.Decoy.ListPath); err != nil {
			return err
		}
	}
	secrets.ApplyAlert(&cfg.Alert, loadedSecrets)
	if err := cfg.Validate(); err != nil {
		return err
	}

	if resume {
		cfg.AppendOutput = true
		if cfg.Names, err = skipReported(cmd, cfg); err != nil {
			return err
		}
		if len(cfg.Names) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "Nothing to resume: every name in %s already has a row in %s\n", cfg.NamesPath, cfg.OutputPath)
			return nil
		}
	} else {
		force, _ := cmd.Flags().GetBool("force")
		if cfg.OutputPath, err = report.ResolveOutput(cfg.OutputPath, force, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
			return err
		}
	}

	jar, err := cookies.New()
	if err != nil {
		return err
	}
	searcher := scholar.NewClient(scholar.Options{
		BaseURL:     cfg.ScholarURL,
		Timeout:     cfg.Timeout,
		Jar:         jar,
		MinInterval: time.Duration(cfg.RateLimit.Request.Min * float64(time.Second)),
	})
	defer searcher.Close()

	deps := lookup.Deps{
		Searcher: searcher,
		Alerter:  alert.New(cfg.Alert),
		Out:     cmd.OutOrStdout(),
	}
	if cfg.CookieFile != "" {
		if err := jar.Load(cfg.CookieFile); err != nil {
			return err
		}
		deps.Cookies = jar
	}
	if cfg.Proxy.Enabled {
		deps.Proxies = proxy.NewPool(cfg.Proxy.Proxies, &proxy.HTTPProber{
			Timeout: cfg.Proxy.ProbeTimeout,
			Target:  cfg.Proxy.ProbeTarget,
		})
	}
	if cfg.Decoy.Enabled {
		deps.Decoy = decoy.NewBrowser(cfg.Decoy, jar, nil)
	}
	if cfg.HistoryDB != "" {
		store, err := history.Open(cfg.HistoryDB)
		if err != nil {
			return err
		}
		defer store.Close()
		deps.History = store
	}

	driver, err := lookup.New(cfg, deps)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := driver.Run(ctx)
	switch {
	case errors.Is(err, lookup.ErrBlocked):
		fmt.Fprintf(cmd.ErrOrStderr(), "\nBlocked after %d of %d names. Resume with:\n  publish-or-not resume -l %s -o %s\n",
			summary.Processed(), summary.Total, summary.CheckpointPath, cfg.OutputPath)
	case err != nil:
		log.Error().Err(err).Str("checkpoint", summary.CheckpointPath).Msg("lookup stopped")
	default:
		log.Info().
			Int("found", summary.Found).
			Int("not_found", summary.NotFound).
			Str("report", cfg.OutputPath).
			Msg("lookup complete")
	}
	return err
}

// skipReported drops names that already have a definitive row in the report
// being resumed, so a stale checkpoint does not duplicate rows.
func skipReported(cmd *cobra.Command, cfg types.RunConfig) ([]string, error) {
	format := report.Text
	if cfg.CSV {
		format = report.CSV
	}
	rows, err := report.ReadRows(cfg.OutputPath, format)
	if errors.Is(err, os.ErrNotExist) {
		return cfg.Names, nil
	}
	if err != nil {
		return nil, err
	}

	done := report.Covered(rows)
	names := make([]string, 0, len(cfg.Names))
	for _, n := range cfg.Names {
		if done[n] {
			log.Warn().Str("name", n).Str("report", cfg.OutputPath).Msg("already reported, skipping")
			continue
		}
		names = append(names, n)
	}
	if skipped := len(cfg.Names) - len(names); skipped > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "Skipped %d names already in %s\n", skipped, cfg.OutputPath)
	}
	return names, nil
}
