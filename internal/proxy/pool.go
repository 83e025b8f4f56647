// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package proxy

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/pdiddy/publish-or-not/internal/logging"
)

// ErrExhausted is returned when every proxy in the pool failed its probe.
var ErrExhausted = errors.New("proxy pool exhausted: no live proxy")

// Pool picks live proxies at random.
type Pool struct {
	entries []string
	prober  Prober
}

// NewPool returns a pool over entries checked with prober.
func NewPool(entries []string, prober Prober) *Pool {
	e := make([]string, len(entries))
	copy(e, entries)
	return &Pool{entries: e, prober: prober}
}

// Len returns the number of configured proxies.
func (p *Pool) Len() int { return len(p.entries) }

// Select picks a proxy uniformly at random among those not yet tried in
// this call, probing each pick, until one is live. A dead pick is skipped
// and another is drawn; ErrExhausted means all of them are dead.
func (p *Pool) Select(ctx context.Context, r *rand.Rand) (string, error) {
	l := logging.WithComponent("proxy")
	for _, i := range r.Perm(len(p.entries)) {
		addr := p.entries[i]
		if err := p.prober.Probe(ctx, addr); err != nil {
			l.Debug().Err(err).Str("proxy", addr).Msg("proxy failed probe, re-picking")
			continue
		}
		l.Debug().Str("proxy", addr).Msg("proxy selected")
		return addr, nil
	}
	return "", ErrExhausted
}

// Status is the probe result for one proxy.
type Status struct {
	Addr    string
	Alive   bool
	Latency time.Duration
	Err     error
}

// Check probes every proxy in list order.
func (p *Pool) Check(ctx context.Context) []Status {
	out := make([]Status, 0, len(p.entries))
	for _, addr := range p.entries {
		start := time.Now()
		err := p.prober.Probe(ctx, addr)
		st := Status{Addr: addr, Alive: err == nil, Err: err}
		if err == nil {
			st.Latency = time.Since(start)
		}
		out = append(out, st)
	}
	return out
}
