// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package decoy visits unrelated web sites between lookups so the traffic
// leaving the host does not consist of Scholar queries alone.
package decoy

import (
	"context"
	"math"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"

	"github.com/pdiddy/publish-or-not/internal/httputil"
	"github.com/pdiddy/publish-or-not/internal/logging"
	"github.com/pdiddy/publish-or-not/internal/useragent"
	"github.com/pdiddy/publish-or-not/pkg/types"
)

// Browser visits a random sample of decoy sites.
type Browser struct {
	cfg   types.DecoyConfig
	jar   http.CookieJar
	sleep func(time.Duration)
}

// NewBrowser returns a browser over cfg.Sites. jar is shared with the
// Scholar client; sleep pauses between visits (time.Sleep when nil).
func NewBrowser(cfg types.DecoyConfig, jar http.CookieJar, sleep func(time.Duration)) *Browser {
	if sleep == nil {
		sleep = time.Sleep
	}
	return &Browser{cfg: cfg, jar: jar, sleep: sleep}
}

// Count draws the number of sites to visit: MinCount + |Normal(CountMean,
// CountStd)|, capped at the number of sites.
func (b *Browser) Count(r *rand.Rand) int {
	n := b.cfg.MinCount + int(math.Abs(r.NormFloat64()*b.cfg.CountStd+b.cfg.CountMean))
	if n > len(b.cfg.Sites) {
		n = len(b.cfg.Sites)
	}
	if n < 0 {
		n = 0
	}
	return n
}

// Browse visits Count sites sampled without replacement, through proxy
// when it is non-empty. It returns the number of visits that succeeded.
// Fetch failures are logged and skipped.
func (b *Browser) Browse(ctx context.Context, r *rand.Rand, proxy string) int {
	l := logging.WithComponent("decoy")

	n := b.Count(r)
	if n == 0 {
		return 0
	}
	order := r.Perm(len(b.cfg.Sites))[:n]

	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.UserAgent(useragent.Pick(r)),
	)
	extensions.Referer(c)
	if b.cfg.Timeout > 0 {
		c.SetRequestTimeout(b.cfg.Timeout)
	}
	if b.jar != nil {
		c.SetCookieJar(b.jar)
	}
	if proxy != "" {
		u, err := httputil.ProxyURL(proxy)
		if err != nil {
			l.Debug().Err(err).Str("proxy", proxy).Msg("ignoring unusable proxy for decoy browsing")
		} else if err := c.SetProxy(u.String()); err != nil {
			l.Debug().Err(err).Str("proxy", proxy).Msg("ignoring unusable proxy for decoy browsing")
		}
	}
	c.OnError(func(resp *colly.Response, err error) {
		l.Debug().Err(err).Int("status_code", resp.StatusCode).Str("url", resp.Request.URL.String()).Msg("decoy visit failed")
	})

	visited := 0
	for i, idx := range order {
		if ctx.Err() != nil {
			break
		}
		if i > 0 {
			b.sleep(b.cfg.Interval.Draw(r))
		}
		site := b.cfg.Sites[idx]
		l.Debug().Str("url", site).Msg("visiting decoy site")
		if err := c.Visit(site); err != nil {
			l.Debug().Err(err).Str("url", site).Msg("skipping decoy site")
			continue
		}
		visited++
	}
	c.Wait()
	return visited
}
