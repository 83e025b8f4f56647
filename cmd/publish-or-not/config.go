// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/publish-or-not/pkg/types"
)

// registerDefaults makes every config key known to viper so that config
// files and PUBLISH_OR_NOT_* environment variables can set it.
func registerDefaults() {
	d := types.DefaultRunConfig()

	viper.SetDefault("secrets_dir", ".secrets")
	viper.SetDefault("timeout", d.Timeout)
	viper.SetDefault("user_agent", d.UserAgent)
	viper.SetDefault("venue", d.Venue)
	viper.SetDefault("names_path", d.NamesPath)
	viper.SetDefault("year_from", d.YearFrom)
	viper.SetDefault("year_to", d.YearTo)
	viper.SetDefault("output", d.OutputPath)
	viper.SetDefault("csv", d.CSV)
	viper.SetDefault("scholar_url", d.ScholarURL)
	viper.SetDefault("cookie_file", d.CookieFile)
	viper.SetDefault("history_db", d.HistoryDB)
	viper.SetDefault("seed", d.Seed)

	viper.SetDefault("filters.all_words", d.Filters.AllWords)
	viper.SetDefault("filters.some_words", d.Filters.SomeWords)
	viper.SetDefault("filters.none_words", d.Filters.NoneWords)
	viper.SetDefault("filters.publication", d.Filters.Publication)
	viper.SetDefault("filters.title_only", d.Filters.TitleOnly)
	viper.SetDefault("filters.include_patents", d.Filters.IncludePatents)
	viper.SetDefault("filters.include_citations", d.Filters.IncludeCitations)
	viper.SetDefault("filters.max_results", d.Filters.MaxResults)
	viper.SetDefault("filters.cluster_id", d.Filters.ClusterID)

	viper.SetDefault("proxy.enabled", d.Proxy.Enabled)
	viper.SetDefault("proxy.list_path", d.Proxy.ListPath)
	viper.SetDefault("proxy.probe_timeout", d.Proxy.ProbeTimeout)
	viper.SetDefault("proxy.probe_target", d.Proxy.ProbeTarget)

	viper.SetDefault("decoy.enabled", d.Decoy.Enabled)
	viper.SetDefault("decoy.list_path", d.Decoy.ListPath)
	viper.SetDefault("decoy.min_count", d.Decoy.MinCount)
	viper.SetDefault("decoy.count_mean", d.Decoy.CountMean)
	viper.SetDefault("decoy.count_std", d.Decoy.CountStd)
	viper.SetDefault("decoy.timeout", d.Decoy.Timeout)
	setDelayDefaults("decoy.interval", d.Decoy.Interval)

	viper.SetDefault("rate_limit.rest_every", d.RateLimit.RestEvery)
	setDelayDefaults("rate_limit.rest", d.RateLimit.Rest)
	setDelayDefaults("rate_limit.request", d.RateLimit.Request)

	viper.SetDefault("alert.smtp_host", d.Alert.SMTPHost)
	viper.SetDefault("alert.smtp_port", d.Alert.SMTPPort)
	viper.SetDefault("alert.username", d.Alert.Username)
	viper.SetDefault("alert.password", d.Alert.Password)
	viper.SetDefault("alert.from", d.Alert.From)
	viper.SetDefault("alert.to", d.Alert.To)
}

func setDelayDefaults(prefix string, p types.DelayPolicy) {
	viper.SetDefault(prefix+".mean", p.Mean)
	viper.SetDefault(prefix+".min", p.Min)
	viper.SetDefault(prefix+".std", p.Std)
}

// runFlagKeys maps lookup flags to the config keys they override.
var runFlagKeys = map[string]string{
	"namelist":     "names_path",
	"output":       "output",
	"phrase":       "venue",
	"after":        "year_from",
	"before":       "year_to",
	"all":          "filters.all_words",
	"some":         "filters.some_words",
	"none":         "filters.none_words",
	"title-only":   "filters.title_only",
	"pub":          "filters.publication",
	"cluster-id":   "filters.cluster_id",
	"count":        "filters.max_results",
	"csv":          "csv",
	"proxy":        "proxy.enabled",
	"proxy-list":   "proxy.list_path",
	"decoy":        "decoy.enabled",
	"decoy-list":   "decoy.list_path",
	"cookie-file":  "cookie_file",
	"history-db":   "history_db",
	"seed":         "seed",
	"timeout":      "timeout",
	"user-agent":   "user_agent",
	"scholar-url":  "scholar_url",
	"rest-every":   "rate_limit.rest_every",
	"alert-to":     "alert.to",
	"alert-host":   "alert.smtp_host",
	"alert-port":   "alert.smtp_port",
	"alert-sender": "alert.from",
}

// addRunFlags registers the lookup flags shared by check and resume.
func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("namelist", "l", "", "file with one author name per line")
	f.StringP("output", "o", "Output.txt", "report file")
	f.StringP("phrase", "p", "", "phrase that defines the venue; results must contain it exactly")
	f.Int("after", 0, "results must have appeared in or after this year")
	f.Int("before", 0, "results must have appeared in or before this year")
	f.StringP("all", "A", "", "results must contain all of these words")
	f.StringP("some", "s", "", `results must contain at least one of these words ("foo bar" or "a phrase, another phrase")`)
	f.StringP("none", "n", "", "results must contain none of these words")
	f.BoolP("title-only", "t", false, "search titles only")
	f.StringP("pub", "P", "", "results must have appeared in this publication")
	f.Bool("no-patents", false, "do not include patents in results")
	f.Bool("no-citations", false, "do not include citations in results")
	f.StringP("cluster-id", "C", "", "do not search, use the articles in this cluster")
	f.IntP("count", "c", 0, "maximum number of results per page (capped at 10)")
	f.Bool("csv", false, "write the report as CSV")
	f.Bool("force", false, "overwrite an existing report without asking")

	f.Bool("proxy", false, "rotate requests through proxies")
	f.String("proxy-list", "", "file with one proxy (host:port) per line")
	f.Bool("decoy", false, "visit decoy sites between lookups")
	f.String("decoy-list", "", "CSV file of decoy site addresses")
	f.String("cookie-file", "", "file to load cookies from at startup and save them to after each lookup")
	f.String("history-db", "", "SQLite run history (disabled when empty)")
	f.Int64("seed", 0, "random seed for delays and rotation (0 seeds from the clock)")
	f.Duration("timeout", 0, "HTTP request timeout (default 30s)")
	f.String("user-agent", "", "fixed user agent (disables rotation)")
	f.String("scholar-url", "", "Scholar base URL")
	f.Int("rest-every", 0, "take a long rest every N names (default 15)")
	f.StringSlice("alert-to", nil, "email addresses alerted when the run is blocked")
	f.String("alert-host", "", "SMTP relay host for alerts")
	f.Int("alert-port", 0, "SMTP relay port for alerts (default 587)")
	f.String("alert-sender", "", "From address of alert emails")
}

// loadRunConfig binds cmd's flags and unmarshals the merged configuration.
// Flags are bound here rather than in init because check and resume share
// keys and viper keeps one binding per key.
func loadRunConfig(cmd *cobra.Command) (types.RunConfig, error) {
	for flag, key := range runFlagKeys {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return types.RunConfig{}, fmt.Errorf("binding flag --%s: %w", flag, err)
		}
	}

	cfg := types.DefaultRunConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return types.RunConfig{}, fmt.Errorf("%w: %v", types.ErrConfig, err)
	}
	if noPatents, _ := cmd.Flags().GetBool("no-patents"); noPatents {
		cfg.Filters.IncludePatents = false
	}
	if noCitations, _ := cmd.Flags().GetBool("no-citations"); noCitations {
		cfg.Filters.IncludeCitations = false
	}
	return cfg, nil
}
