// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package proxy

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/proxy"

	"github.com/pdiddy/publish-or-not/internal/httputil"
)

const defaultProbeTarget = "scholar.google.com:443"

// Prober checks whether a proxy is usable.
type Prober interface {
	Probe(ctx context.Context, addr string) error
}

// HTTPProber probes HTTP proxies with a HEAD request through the proxy and
// SOCKS5 proxies with a TCP dial through the proxy.
type HTTPProber struct {
	Timeout time.Duration

	// Target is "host:port" (requested over https) or a full URL.
	Target string
}

var _ Prober = (*HTTPProber)(nil)

// Probe returns nil when addr forwards a request to the target.
func (p *HTTPProber) Probe(ctx context.Context, addr string) error {
	u, err := httputil.ProxyURL(addr)
	if err != nil {
		return err
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	target := p.Target
	if target == "" {
		target = defaultProbeTarget
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if strings.HasPrefix(u.Scheme, "socks5") {
		return p.probeSOCKS5(ctx, u.Host, hostPort(target), timeout)
	}
	return p.probeHTTP(ctx, addr, targetURL(target), timeout)
}

func (p *HTTPProber) probeHTTP(ctx context.Context, addr, target string, timeout time.Duration) error {
	client, err := httputil.NewClient(timeout, addr, nil)
	if err != nil {
		return err
	}
	defer client.CloseIdleConnections()
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return fmt.Errorf("creating probe request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return fmt.Errorf("probe through %s returned HTTP %d", addr, resp.StatusCode)
	}
	return nil
}

func (p *HTTPProber) probeSOCKS5(ctx context.Context, proxyHost, target string, timeout time.Duration) error {
	dialer, err := proxy.SOCKS5("tcp", proxyHost, nil, &net.Dialer{Timeout: timeout})
	if err != nil {
		return fmt.Errorf("creating SOCKS5 dialer: %w", err)
	}
	cd, ok := dialer.(proxy.ContextDialer)
	if !ok {
		return fmt.Errorf("SOCKS5 dialer does not support contexts")
	}
	conn, err := cd.DialContext(ctx, "tcp", target)
	if err != nil {
		return err
	}
	return conn.Close()
}

func targetURL(target string) string {
	if strings.Contains(target, "://") {
		return target
	}
	return "https://" + target
}

func hostPort(target string) string {
	if i := strings.Index(target, "://"); i >= 0 {
		rest := target[i+3:]
		if j := strings.IndexByte(rest, '/'); j >= 0 {
			rest = rest[:j]
		}
		if !strings.Contains(rest, ":") {
			if strings.HasPrefix(target, "https") {
				return rest + ":443"
			}
			return rest + ":80"
		}
		return rest
	}
	return target
}
