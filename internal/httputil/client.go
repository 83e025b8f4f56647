// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the Scholar client and
// the proxy prober.
package httputil

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTimeout  = 30 * time.Second
	idleConnTimeout = 90 * time.Second
)

// ProxyURL turns a proxy list entry into a URL. Bare "host:port" entries
// are treated as HTTP proxies; "socks5://" and "http(s)://" entries are
// kept as given.
func ProxyURL(addr string) (*url.URL, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("empty proxy address")
	}
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	u, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("parsing proxy %q: %w", addr, err)
	}
	switch u.Scheme {
	case "http", "https", "socks5", "socks5h":
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
	}
	if u.Port() == "" {
		return nil, fmt.Errorf("proxy %q has no port", addr)
	}
	return u, nil
}

// NewClient builds an HTTP client that routes through proxy (empty for a
// direct connection) and stores cookies in jar (nil for none). Idle
// connections are dropped after a short timeout; callers that build a
// client per use must call CloseIdleConnections when done with it.
func NewClient(timeout time.Duration, proxy string, jar http.CookieJar) (*http.Client, error) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	transport := &http.Transport{
		TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
		IdleConnTimeout:       idleConnTimeout,
		MaxIdleConnsPerHost:   1,
	}
	if proxy != "" {
		u, err := ProxyURL(proxy)
		if err != nil {
			return nil, err
		}
		transport.Proxy = http.ProxyURL(u)
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
		Jar:       jar,
	}, nil
}
