// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package lookup runs the batch author lookup: one Scholar query per name,
// an incremental report, a remaining-names checkpoint, and the evasion
// heuristics (proxy and user-agent rotation, randomized delays, decoy
// browsing). A block stops the run after the checkpoint is saved and an
// operator is alerted.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"github.com/pdiddy/publish-or-not/internal/alert"
	"github.com/pdiddy/publish-or-not/internal/checkpoint"
	"github.com/pdiddy/publish-or-not/internal/history"
	"github.com/pdiddy/publish-or-not/internal/logging"
	"github.com/pdiddy/publish-or-not/internal/proxy"
	"github.com/pdiddy/publish-or-not/internal/report"
	"github.com/pdiddy/publish-or-not/internal/scholar"
	"github.com/pdiddy/publish-or-not/internal/useragent"
	"github.com/pdiddy/publish-or-not/pkg/types"
)

var (
	// ErrBlocked is returned when the backend refuses a lookup. The names
	// not yet processed are saved before it is returned.
	ErrBlocked = errors.New("lookup blocked")

	// ErrNegativeCount is returned when the backend reports a negative
	// result count.
	ErrNegativeCount = errors.New("negative result count")
)

// Sleeper pauses the run. Pauses are not cancellable.
type Sleeper func(time.Duration)

// ProxySelector picks a live proxy for one request.
type ProxySelector interface {
	Select(ctx context.Context, r *rand.Rand) (string, error)
}

// DecoyBrowser visits decoy sites between lookups.
type DecoyBrowser interface {
	Browse(ctx context.Context, r *rand.Rand, proxy string) int
}

// Recorder stores the run ledger.
type Recorder interface {
	StartRun(ctx context.Context, cfg types.RunConfig) (string, error)
	Record(ctx context.Context, runID string, a types.AttemptResult) error
	FinishRun(ctx context.Context, runID string, status history.Status) error
}

// CookieSaver persists cookies after each definitive lookup.
type CookieSaver interface {
	Save(path string) error
}

// Deps are the collaborators of a Driver. Searcher is required; nil
// optional fields disable the feature they provide.
type Deps struct {
	Searcher scholar.Searcher
	Proxies  ProxySelector
	Decoy    DecoyBrowser
	Alerter  alert.Alerter
	History  Recorder
	Cookies  CookieSaver

	Sleep Sleeper
	Rand  *rand.Rand
	Now   func() time.Time

	// Out receives one progress line per name.
	Out io.Writer
}

// Driver runs one batch lookup.
type Driver struct {
	cfg    types.RunConfig
	deps   Deps
	format report.Format
}

// New validates cfg and returns a driver ready to Run.
func New(cfg types.RunConfig, deps Deps) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Searcher == nil {
		return nil, fmt.Errorf("%w: no searcher configured", types.ErrConfig)
	}
	if deps.Alerter == nil {
		deps.Alerter = alert.Noop{}
	}
	if deps.Sleep == nil {
		deps.Sleep = time.Sleep
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Rand == nil {
		seed := uint64(cfg.Seed)
		if seed == 0 {
			seed = uint64(deps.Now().UnixNano())
		}
		deps.Rand = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
	if deps.Out == nil {
		deps.Out = io.Discard
	}
	format := report.Text
	if cfg.CSV {
		format = report.CSV
	}
	return &Driver{cfg: cfg, deps: deps, format: format}, nil
}

// run carries the mutable state of one Run call.
type run struct {
	id        string
	remaining *checkpoint.Remaining
	summary   types.Summary
}

// Run processes every name in order. It returns ErrBlocked (wrapped) when
// the backend refuses a lookup, and ErrNegativeCount on an impossible
// result count. On success the rolling checkpoint is left empty.
func (d *Driver) Run(ctx context.Context) (types.Summary, error) {
	l := logging.WithComponent("lookup")
	cfg := d.cfg

	st := &run{
		remaining: checkpoint.NewRemaining(cfg.Names),
		summary: types.Summary{
			Total:          len(cfg.Names),
			CheckpointPath: checkpoint.Path(cfg.NamesPath),
		},
	}

	if err := d.prepareReport(); err != nil {
		return st.summary, err
	}
	if err := checkpoint.Write(st.summary.CheckpointPath, st.remaining.Names()); err != nil {
		return st.summary, err
	}
	if d.deps.History != nil {
		id, err := d.deps.History.StartRun(ctx, cfg)
		if err != nil {
			l.Warn().Err(err).Msg("run history unavailable")
			d.deps.History = nil
		}
		st.id = id
	}

	l.Info().
		Int("names", len(cfg.Names)).
		Str("venue", cfg.Venue).
		Str("years", cfg.YearRange()).
		Bool("proxies", d.deps.Proxies != nil).
		Bool("decoy", d.deps.Decoy != nil).
		Msg("starting lookup")

	for i, name := range cfg.Names {
		if err := d.lookupOne(ctx, st, i, name); err != nil {
			return st.summary, err
		}
	}

	d.finish(ctx, st, history.StatusCompleted)
	fmt.Fprintf(d.deps.Out, "\nLookup summary: %d found, %d not found (total: %d)\n",
		st.summary.Found, st.summary.NotFound, st.summary.Total)
	return st.summary, nil
}

func (d *Driver) prepareReport() error {
	if d.cfg.AppendOutput {
		if _, err := os.Stat(d.cfg.OutputPath); err == nil {
			return nil
		}
	}
	return report.Create(d.cfg.OutputPath, report.Header{
		Venue: d.cfg.Venue,
		Years: d.cfg.YearRange(),
	}, d.format)
}

func (d *Driver) lookupOne(ctx context.Context, st *run, i int, name string) error {
	l := logging.WithComponent("lookup")
	cfg := d.cfg
	r := d.deps.Rand

	q := BuildQuery(cfg, name)

	if every := cfg.RateLimit.RestEvery; every > 0 && i > 0 && i%every == 0 {
		pause := cfg.RateLimit.Rest.Draw(r)
		l.Info().Int("processed", i).Dur("pause", pause).Msg("resting")
		d.deps.Sleep(pause)
	}

	var t scholar.Transport
	if d.deps.Proxies != nil {
		p, err := d.deps.Proxies.Select(ctx, r)
		switch {
		case errors.Is(err, proxy.ErrExhausted):
			l.Warn().Str("name", name).Msg("no live proxy, querying directly")
		case err != nil:
			l.Warn().Err(err).Str("name", name).Msg("proxy selection failed, querying directly")
		default:
			t.Proxy = p
		}
	}
	t.UserAgent = cfg.UserAgent
	if t.UserAgent == "" {
		t.UserAgent = useragent.Pick(r)
	}

	if i > 0 {
		d.deps.Sleep(cfg.RateLimit.Request.Draw(r))
	}

	start := d.deps.Now()
	rs, err := d.deps.Searcher.Search(ctx, q, t)
	attempt := types.AttemptResult{
		Name:      name,
		Proxy:     t.Proxy,
		UserAgent: t.UserAgent,
		Duration:  d.deps.Now().Sub(start),
		At:        start,
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		d.finish(ctx, st, history.StatusFailed)
		return fmt.Errorf("lookup interrupted at %s: %w", name, ctxErr)
	}
	if err != nil || rs == nil {
		if err == nil {
			err = errors.New("no response")
		}
		attempt.Outcome = types.Blocked
		return d.blocked(ctx, st, attempt, err)
	}
	if rs.Total < 0 {
		d.finish(ctx, st, history.StatusFailed)
		return fmt.Errorf("%w: %d for %s", ErrNegativeCount, rs.Total, name)
	}

	attempt.Count = rs.Total
	attempt.Outcome = types.ClassifyCount(rs.Total)
	if err := d.commit(ctx, st, attempt); err != nil {
		d.finish(ctx, st, history.StatusFailed)
		return err
	}

	fmt.Fprintf(d.deps.Out, "[%d/%d] %s: %s (%d)\n",
		i+1, st.summary.Total, name, attempt.Outcome, attempt.Count)

	if d.deps.Decoy != nil {
		n := d.deps.Decoy.Browse(ctx, r, t.Proxy)
		l.Debug().Int("visited", n).Msg("decoy browsing done")
	}
	return nil
}

// commit writes the report row, then drops the name from the checkpoint.
// The order keeps every name in the report or the checkpoint at all times.
func (d *Driver) commit(ctx context.Context, st *run, a types.AttemptResult) error {
	l := logging.WithComponent("lookup")

	row := report.Row{Name: a.Name, Outcome: a.Outcome, Count: a.Count}
	if err := report.Append(d.cfg.OutputPath, row, d.format); err != nil {
		return err
	}
	if err := checkpoint.Write(st.summary.CheckpointPath, st.remaining.Done(a.Name)); err != nil {
		return err
	}

	if a.Outcome == types.Found {
		st.summary.Found++
	} else {
		st.summary.NotFound++
	}

	if d.deps.History != nil {
		if err := d.deps.History.Record(ctx, st.id, a); err != nil {
			l.Warn().Err(err).Str("name", a.Name).Msg("could not record attempt")
		}
	}
	if d.deps.Cookies != nil && d.cfg.CookieFile != "" {
		if err := d.deps.Cookies.Save(d.cfg.CookieFile); err != nil {
			l.Warn().Err(err).Msg("could not save cookies")
		}
	}
	l.Debug().
		Str("name", a.Name).
		Str("publish", a.Outcome.String()).
		Int("total", a.Count).
		Dur("took", a.Duration).
		Msg("lookup done")
	return nil
}

// blocked saves every unprocessed name, current included, to a timestamped
// checkpoint and sends one alert.
func (d *Driver) blocked(ctx context.Context, st *run, a types.AttemptResult, cause error) error {
	l := logging.WithComponent("lookup")

	names := st.remaining.Names()
	path := checkpoint.BlockedPath(d.cfg.NamesPath, d.deps.Now())
	blockErr := fmt.Errorf("%w at %s: %v", ErrBlocked, a.Name, cause)

	if err := checkpoint.Write(path, names); err != nil {
		l.Error().Err(err).Str("path", path).Msg("could not save blocked checkpoint")
		path = st.summary.CheckpointPath
	}
	st.summary.Blocked = true
	st.summary.CheckpointPath = path

	if d.deps.History != nil {
		if err := d.deps.History.Record(ctx, st.id, a); err != nil {
			l.Warn().Err(err).Str("name", a.Name).Msg("could not record attempt")
		}
	}
	d.finish(ctx, st, history.StatusBlocked)

	l.Error().
		Err(cause).
		Str("name", a.Name).
		Str("proxy", a.Proxy).
		Int("remaining", len(names)).
		Str("checkpoint", path).
		Msg("blocked")
	fmt.Fprintf(d.deps.Out, "[%d/%d] %s: %s\n",
		st.summary.Processed()+1, st.summary.Total, a.Name, a.Outcome)

	subject := fmt.Sprintf("publish-or-not: blocked at %s", a.Name)
	if err := d.deps.Alerter.Alert(context.WithoutCancel(ctx), subject, d.alertBody(st, a, cause, names)); err != nil {
		return errors.Join(blockErr, fmt.Errorf("sending alert: %w", err))
	}
	return blockErr
}

func (d *Driver) alertBody(st *run, a types.AttemptResult, cause error, names []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The lookup was blocked while querying %q.\n\n", a.Name)
	fmt.Fprintf(&b, "Venue: %s\nYears: %s\n", d.cfg.Venue, d.cfg.YearRange())
	fmt.Fprintf(&b, "Processed: %d of %d\n", st.summary.Processed(), st.summary.Total)
	fmt.Fprintf(&b, "Remaining: %d\n", len(names))
	fmt.Fprintf(&b, "Checkpoint: %s\n", st.summary.CheckpointPath)
	if a.Proxy != "" {
		fmt.Fprintf(&b, "Proxy: %s\n", a.Proxy)
	}
	fmt.Fprintf(&b, "Error: %v\n", cause)
	return b.String()
}

func (d *Driver) finish(ctx context.Context, st *run, status history.Status) {
	if d.deps.History == nil {
		return
	}
	if err := d.deps.History.FinishRun(context.WithoutCancel(ctx), st.id, status); err != nil {
		l := logging.WithComponent("lookup")
		l.Warn().Err(err).Msg("could not finish run record")
	}
}
