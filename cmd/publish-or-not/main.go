// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the publish-or-not CLI. It checks a
// list of authors for publications matching a venue phrase on Google
// Scholar.
package main

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/publish-or-not/internal/logging"
	"github.com/pdiddy/publish-or-not/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from the secrets directory at startup.
var loadedSecrets map[string]string

var rootCmd = &cobra.Command{
	Use:   "publish-or-not",
	Short: "Check whether authors published in a venue",
	Long: `publish-or-not reads a list of author names and asks Google Scholar,
one name at a time, whether each author has a publication containing a venue
phrase within a year range. Results are written to a report as they arrive
and unprocessed names are kept in a checkpoint file, so a blocked run can be
resumed later.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		debug, _ := cmd.Flags().GetCount("debug")
		logging.Init(logging.LevelFromVerbosity(debug), os.Stderr)

		if f := viper.ConfigFileUsed(); f != "" {
			log.Debug().Str("file", f).Msg("using config file")
		}

		s, err := secrets.Load(viper.GetString("secrets_dir"))
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			log.Debug().Strs("keys", keys).Msg("loaded secrets")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./publish-or-not.yaml or ~/.config/publish-or-not/publish-or-not.yaml)")
	rootCmd.PersistentFlags().CountP("debug", "d", "increase log verbosity (repeat for more detail)")
	rootCmd.PersistentFlags().String("secrets-dir", secrets.DefaultDir, "directory of credential files")
	viper.BindPFlag("secrets_dir", rootCmd.PersistentFlags().Lookup("secrets-dir"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("publish-or-not")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "publish-or-not"))
		}
	}

	setupEnv()
	registerDefaults()

	viper.ReadInConfig()
}

// setupEnv maps config keys to PUBLISH_OR_NOT_* variables, e.g.
// rate_limit.rest_every to PUBLISH_OR_NOT_RATE_LIMIT_REST_EVERY.
func setupEnv() {
	viper.SetEnvPrefix("PUBLISH_OR_NOT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
