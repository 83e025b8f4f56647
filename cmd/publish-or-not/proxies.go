// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/publish-or-not/internal/proxy"
	"github.com/pdiddy/publish-or-not/pkg/types"
)

var proxiesCmd = &cobra.Command{
	Use:   "proxies",
	Short: "Inspect the proxy list",
}

var proxiesCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Probe every proxy in the list and report which are live",
	RunE:  runProxiesCheck,
}

func init() {
	proxiesCheckCmd.Flags().String("proxy-list", "", "file with one proxy (host:port) per line")
	proxiesCheckCmd.Flags().Duration("probe-timeout", 0, "timeout of a single probe (default 10s)")
	proxiesCheckCmd.Flags().String("probe-target", "", "host:port requested through each proxy")

	proxiesCmd.AddCommand(proxiesCheckCmd)
	rootCmd.AddCommand(proxiesCmd)
}

func runProxiesCheck(cmd *cobra.Command, args []string) error {
	for flag, key := range map[string]string{
		"proxy-list":    "proxy.list_path",
		"probe-timeout": "proxy.probe_timeout",
		"probe-target":  "proxy.probe_target",
	} {
		viper.BindPFlag(key, cmd.Flags().Lookup(flag))
	}

	path := viper.GetString("proxy.list_path")
	if path == "" {
		return fmt.Errorf("%w: provide a proxy list with --proxy-list", types.ErrConfig)
	}
	entries, err := proxy.LoadList(path)
	if err != nil {
		return err
	}

	pool := proxy.NewPool(entries, &proxy.HTTPProber{
		Timeout: viper.GetDuration("proxy.probe_timeout"),
		Target:  viper.GetString("proxy.probe_target"),
	})

	w := cmd.OutOrStdout()
	live := 0
	for _, st := range pool.Check(context.Background()) {
		if st.Alive {
			live++
			fmt.Fprintf(w, "live  %-28s %s\n", st.Addr, st.Latency.Round(time.Millisecond))
			continue
		}
		fmt.Fprintf(w, "dead  %-28s %v\n", st.Addr, st.Err)
	}
	fmt.Fprintf(w, "\n%d of %d proxies live\n", live, pool.Len())
	if live == 0 && pool.Len() > 0 {
		return proxy.ErrExhausted
	}
	return nil
}
