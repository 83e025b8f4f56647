// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package proxy loads a proxy list, probes proxies for liveness, and picks
// a live one at random for each request.
package proxy

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/pdiddy/publish-or-not/internal/httputil"
	"github.com/pdiddy/publish-or-not/pkg/types"
)

// LoadList reads one proxy per line ("host:port" or "scheme://host:port").
// Blank lines and lines starting with '#' are skipped.
func LoadList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: proxy list %s does not exist", types.ErrConfig, path)
		}
		return nil, fmt.Errorf("opening proxy list: %w", err)
	}
	defer f.Close()

	var proxies []string
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, err := httputil.ProxyURL(line); err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", types.ErrConfig, path, lineNum, err)
		}
		proxies = append(proxies, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading proxy list: %w", err)
	}
	return proxies, nil
}
