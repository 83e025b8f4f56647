// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scholar submits advanced-search queries to Google Scholar and
// reads the result count back.
package scholar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/publish-or-not/internal/httputil"
	"github.com/pdiddy/publish-or-not/internal/logging"
)

// DefaultBaseURL is the Scholar site queried by default.
const DefaultBaseURL = "https://scholar.google.com"

// DefaultUserAgent is sent when the transport does not name one.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"

// ErrBlocked is returned when Scholar refuses the request or answers with
// a captcha page.
var ErrBlocked = errors.New("blocked by Scholar")

// Transport names the proxy and user agent used for a single request.
type Transport struct {
	Proxy     string
	UserAgent string
}

// Searcher submits a query and returns the parsed result page. A nil
// ResultSet with a nil error is treated as a block by callers.
type Searcher interface {
	Search(ctx context.Context, q Query, t Transport) (*ResultSet, error)
}

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	Jar     http.CookieJar

	// MinInterval is the least time allowed between two requests issued
	// by this client. Zero disables the floor.
	MinInterval time.Duration
}

// Client is the net/http Scholar client. It keeps one HTTP client per
// proxy address so repeated requests through a proxy reuse its connection.
type Client struct {
	baseURL string
	timeout time.Duration
	jar     http.CookieJar
	limiter *rate.Limiter

	mu      sync.Mutex
	clients map[string]*http.Client
}

var _ Searcher = (*Client)(nil)

// NewClient returns a Client for opts.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		timeout: opts.Timeout,
		jar:     opts.Jar,
		clients: make(map[string]*http.Client),
	}
	if opts.MinInterval > 0 {
		c.limiter = rate.NewLimiter(rate.Every(opts.MinInterval), 1)
	}
	return c
}

// Search issues one query through t and parses the result page.
func (c *Client) Search(ctx context.Context, q Query, t Transport) (*ResultSet, error) {
	l := logging.WithComponent("scholar")

	u, err := q.URL(c.baseURL)
	if err != nil {
		return nil, err
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	client, err := c.httpClient(t.Proxy)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	ua := t.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.8")

	l.Debug().Str("url", u).Str("proxy", t.Proxy).Msg("querying")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Scholar request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden, http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return nil, fmt.Errorf("%w: HTTP %d", ErrBlocked, resp.StatusCode)
	default:
		return nil, fmt.Errorf("Scholar returned HTTP %d", resp.StatusCode)
	}
	if strings.Contains(resp.Request.URL.Path, "/sorry/") {
		return nil, fmt.Errorf("%w: redirected to %s", ErrBlocked, resp.Request.URL.Path)
	}

	rs, blocked, err := parsePage(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing Scholar response: %w", err)
	}
	if blocked {
		return nil, fmt.Errorf("%w: captcha page", ErrBlocked)
	}
	l.Debug().Int("total", rs.Total).Int("entries", len(rs.Articles)).Msg("parsed result page")
	return rs, nil
}

func (c *Client) httpClient(proxy string) (*http.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if hc, ok := c.clients[proxy]; ok {
		return hc, nil
	}
	hc, err := httputil.NewClient(c.timeout, proxy, c.jar)
	if err != nil {
		return nil, err
	}
	c.clients[proxy] = hc
	return hc, nil
}

// Close drops the idle connections of every cached HTTP client.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for proxy, hc := range c.clients {
		hc.CloseIdleConnections()
		delete(c.clients, proxy)
	}
}
