// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRunCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	setupEnv()
	registerDefaults()

	cmd := &cobra.Command{Use: "check"}
	addRunFlags(cmd)
	require.NoError(t, cmd.Flags().Parse(args))
	return cmd
}

func TestLoadRunConfigDefaults(t *testing.T) {
	cfg, err := loadRunConfig(newRunCommand(t))
	require.NoError(t, err)

	assert.Equal(t, "Output.txt", cfg.OutputPath)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 15, cfg.RateLimit.RestEvery)
	assert.Equal(t, 10.0, cfg.RateLimit.Request.Mean)
	assert.Equal(t, 60.0, cfg.RateLimit.Rest.Min)
	assert.True(t, cfg.Filters.IncludePatents)
	assert.True(t, cfg.Filters.IncludeCitations)
	assert.Equal(t, "scholar.google.com:443", cfg.Proxy.ProbeTarget)
}

func TestLoadRunConfigFlags(t *testing.T) {
	cmd := newRunCommand(t,
		"-l", "names.txt",
		"-p", "Learning Analytics",
		"--after", "2013", "--before", "2017",
		"-s", "dashboards, learner models",
		"-t", "-c", "25",
		"--no-patents",
		"--proxy", "--proxy-list", "proxies.txt",
		"--alert-to", "ops@example.com,lead@example.com",
	)
	cfg, err := loadRunConfig(cmd)
	require.NoError(t, err)

	assert.Equal(t, "names.txt", cfg.NamesPath)
	assert.Equal(t, "Learning Analytics", cfg.Venue)
	assert.Equal(t, 2013, cfg.YearFrom)
	assert.Equal(t, 2017, cfg.YearTo)
	assert.Equal(t, "dashboards, learner models", cfg.Filters.SomeWords)
	assert.True(t, cfg.Filters.TitleOnly)
	assert.Equal(t, 25, cfg.Filters.MaxResults)
	assert.False(t, cfg.Filters.IncludePatents)
	assert.True(t, cfg.Filters.IncludeCitations)
	assert.True(t, cfg.Proxy.Enabled)
	assert.Equal(t, "proxies.txt", cfg.Proxy.ListPath)
	assert.Equal(t, []string{"ops@example.com", "lead@example.com"}, cfg.Alert.To)
}

func TestLoadRunConfigEnv(t *testing.T) {
	t.Setenv("PUBLISH_OR_NOT_RATE_LIMIT_REST_EVERY", "3")
	t.Setenv("PUBLISH_OR_NOT_VENUE", "Learning Analytics")
	t.Setenv("PUBLISH_OR_NOT_ALERT_SMTP_HOST", "smtp.example.com")

	cfg, err := loadRunConfig(newRunCommand(t))
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.RateLimit.RestEvery)
	assert.Equal(t, "Learning Analytics", cfg.Venue)
	assert.Equal(t, "smtp.example.com", cfg.Alert.SMTPHost)
}

func TestLoadRunConfigFlagBeatsEnv(t *testing.T) {
	t.Setenv("PUBLISH_OR_NOT_VENUE", "from env")
	cfg, err := loadRunConfig(newRunCommand(t, "-p", "from flag"))
	require.NoError(t, err)
	assert.Equal(t, "from flag", cfg.Venue)
}
