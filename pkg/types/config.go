// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// ErrConfig marks configuration errors. They are raised before any request
// is sent.
var ErrConfig = errors.New("configuration error")

// DelayPolicy describes a positive-only randomized delay in seconds.
// Draw returns max(Min, |Normal(Mean, Std)|).
type DelayPolicy struct {
	Mean float64 `json:"mean" yaml:"mean" mapstructure:"mean"`
	Min  float64 `json:"min" yaml:"min" mapstructure:"min"`
	Std  float64 `json:"std" yaml:"std" mapstructure:"std"`
}

// Draw samples a delay from the policy using r.
func (p DelayPolicy) Draw(r *rand.Rand) time.Duration {
	secs := math.Abs(r.NormFloat64()*p.Std + p.Mean)
	if secs < p.Min {
		secs = p.Min
	}
	return time.Duration(secs * float64(time.Second))
}

func (p DelayPolicy) validate(name string) error {
	if p.Mean < 0 || p.Min < 0 || p.Std < 0 {
		return fmt.Errorf("%w: %s delay parameters must be non-negative (mean=%v min=%v std=%v)",
			ErrConfig, name, p.Mean, p.Min, p.Std)
	}
	return nil
}

// RateLimitConfig holds the timing policy of the lookup loop.
type RateLimitConfig struct {
	// RestEvery triggers a long rest before every RestEvery-th name.
	// Zero disables resting.
	RestEvery int `json:"rest_every" yaml:"rest_every" mapstructure:"rest_every"`

	// Rest is the long pause taken at each rest checkpoint.
	Rest DelayPolicy `json:"rest" yaml:"rest" mapstructure:"rest"`

	// Request is the pause taken before every request except the first.
	Request DelayPolicy `json:"request" yaml:"request" mapstructure:"request"`
}

// QueryFilters are the optional search filters applied to every name.
type QueryFilters struct {
	AllWords         string `json:"all_words" yaml:"all_words" mapstructure:"all_words"`
	SomeWords        string `json:"some_words" yaml:"some_words" mapstructure:"some_words"`
	NoneWords        string `json:"none_words" yaml:"none_words" mapstructure:"none_words"`
	Publication      string `json:"publication" yaml:"publication" mapstructure:"publication"`
	TitleOnly        bool   `json:"title_only" yaml:"title_only" mapstructure:"title_only"`
	IncludePatents   bool   `json:"include_patents" yaml:"include_patents" mapstructure:"include_patents"`
	IncludeCitations bool   `json:"include_citations" yaml:"include_citations" mapstructure:"include_citations"`

	// MaxResults caps results per page; the client clamps it to its
	// maximum page size. Zero leaves the backend default.
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// ClusterID queries a single article cluster instead of searching.
	ClusterID string `json:"cluster_id" yaml:"cluster_id" mapstructure:"cluster_id"`
}

// ProxyConfig controls proxy rotation.
type ProxyConfig struct {
	Enabled  bool     `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	ListPath string   `json:"list_path" yaml:"list_path" mapstructure:"list_path"`
	Proxies  []string `json:"-" yaml:"-" mapstructure:"-"`

	// ProbeTimeout bounds a single liveness probe.
	ProbeTimeout time.Duration `json:"probe_timeout" yaml:"probe_timeout" mapstructure:"probe_timeout"`

	// ProbeTarget is the host:port requested through a proxy to check it.
	ProbeTarget string `json:"probe_target" yaml:"probe_target" mapstructure:"probe_target"`
}

// DecoyConfig controls decoy browsing between lookups.
type DecoyConfig struct {
	Enabled  bool     `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	ListPath string   `json:"list_path" yaml:"list_path" mapstructure:"list_path"`
	Sites    []string `json:"-" yaml:"-" mapstructure:"-"`

	// MinCount is added to |Normal(CountMean, CountStd)| to get the number
	// of sites visited after each lookup.
	MinCount  int     `json:"min_count" yaml:"min_count" mapstructure:"min_count"`
	CountMean float64 `json:"count_mean" yaml:"count_mean" mapstructure:"count_mean"`
	CountStd  float64 `json:"count_std" yaml:"count_std" mapstructure:"count_std"`

	// Interval is the pause between two decoy visits.
	Interval DelayPolicy `json:"interval" yaml:"interval" mapstructure:"interval"`

	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// AlertConfig holds the SMTP settings used to notify an operator.
type AlertConfig struct {
	SMTPHost string   `json:"smtp_host" yaml:"smtp_host" mapstructure:"smtp_host"`
	SMTPPort int      `json:"smtp_port" yaml:"smtp_port" mapstructure:"smtp_port"`
	Username string   `json:"username" yaml:"username" mapstructure:"username"`
	Password string   `json:"-" yaml:"-" mapstructure:"password"`
	From     string   `json:"from" yaml:"from" mapstructure:"from"`
	To       []string `json:"to" yaml:"to" mapstructure:"to"`
}

// Enabled reports whether an SMTP relay is configured.
func (c AlertConfig) Enabled() bool {
	return c.SMTPHost != "" && len(c.To) > 0
}

// RunConfig is the full configuration of one batch lookup run.
type RunConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Venue is the exact phrase results must contain.
	Venue string `json:"venue" yaml:"venue" mapstructure:"venue"`

	// NamesPath is the file the names were read from. Checkpoint file
	// names are derived from it.
	NamesPath string   `json:"names_path" yaml:"names_path" mapstructure:"names_path"`
	Names     []string `json:"-" yaml:"-" mapstructure:"-"`

	// YearFrom and YearTo bound publication years. Zero leaves a side open.
	YearFrom int `json:"year_from" yaml:"year_from" mapstructure:"year_from"`
	YearTo   int `json:"year_to" yaml:"year_to" mapstructure:"year_to"`

	OutputPath string `json:"output" yaml:"output" mapstructure:"output"`
	CSV        bool   `json:"csv" yaml:"csv" mapstructure:"csv"`

	// AppendOutput keeps an existing report and appends rows to it instead
	// of rewriting the header. Set when resuming.
	AppendOutput bool `json:"-" yaml:"-" mapstructure:"-"`

	// ScholarURL overrides the Scholar site.
	ScholarURL string `json:"scholar_url" yaml:"scholar_url" mapstructure:"scholar_url"`

	Filters QueryFilters `json:"filters" yaml:"filters" mapstructure:"filters"`

	Proxy     ProxyConfig     `json:"proxy" yaml:"proxy" mapstructure:"proxy"`
	Decoy     DecoyConfig     `json:"decoy" yaml:"decoy" mapstructure:"decoy"`
	RateLimit RateLimitConfig `json:"rate_limit" yaml:"rate_limit" mapstructure:"rate_limit"`
	Alert     AlertConfig     `json:"alert" yaml:"alert" mapstructure:"alert"`

	// CookieFile persists cookies across runs when set.
	CookieFile string `json:"cookie_file" yaml:"cookie_file" mapstructure:"cookie_file"`

	// HistoryDB is the SQLite run ledger. Empty disables it.
	HistoryDB string `json:"history_db" yaml:"history_db" mapstructure:"history_db"`

	// Seed seeds the random source. Zero seeds from the clock.
	Seed int64 `json:"seed" yaml:"seed" mapstructure:"seed"`
}

// DefaultRunConfig returns a RunConfig with the default timing policy.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		HTTPConfig: HTTPConfig{Timeout: 30 * time.Second},
		OutputPath: "Output.txt",
		Filters: QueryFilters{
			IncludePatents:   true,
			IncludeCitations: true,
		},
		Proxy: ProxyConfig{
			ProbeTimeout: 10 * time.Second,
			ProbeTarget:  "scholar.google.com:443",
		},
		Decoy: DecoyConfig{
			MinCount:  1,
			CountMean: 5,
			CountStd:  2,
			Interval:  DelayPolicy{Mean: 4, Min: 1, Std: 2},
			Timeout:   20 * time.Second,
		},
		RateLimit: RateLimitConfig{
			RestEvery: 15,
			Rest:      DelayPolicy{Mean: 120, Min: 60, Std: 30},
			Request:   DelayPolicy{Mean: 10, Min: 5, Std: 3},
		},
		Alert: AlertConfig{SMTPPort: 587},
	}
}

// Validate checks the configuration before any request is sent.
func (c RunConfig) Validate() error {
	if len(c.Names) == 0 {
		return fmt.Errorf("%w: name list is empty", ErrConfig)
	}
	if c.YearFrom != 0 && c.YearTo != 0 && c.YearFrom > c.YearTo {
		return fmt.Errorf("%w: start year %d is after end year %d", ErrConfig, c.YearFrom, c.YearTo)
	}
	if c.OutputPath == "" {
		return fmt.Errorf("%w: output path is empty", ErrConfig)
	}
	if c.Proxy.Enabled && len(c.Proxy.Proxies) == 0 {
		return fmt.Errorf("%w: proxy rotation enabled but the proxy list is empty", ErrConfig)
	}
	if c.Decoy.Enabled && len(c.Decoy.Sites) == 0 {
		return fmt.Errorf("%w: decoy browsing enabled but the site list is empty", ErrConfig)
	}
	if c.Decoy.MinCount < 0 || c.Decoy.CountMean < 0 || c.Decoy.CountStd < 0 {
		return fmt.Errorf("%w: decoy count parameters must be non-negative", ErrConfig)
	}
	if c.RateLimit.RestEvery < 0 {
		return fmt.Errorf("%w: rest_every must be non-negative, got %d", ErrConfig, c.RateLimit.RestEvery)
	}
	for name, p := range map[string]DelayPolicy{
		"rest":           c.RateLimit.Rest,
		"request":        c.RateLimit.Request,
		"decoy interval": c.Decoy.Interval,
	} {
		if err := p.validate(name); err != nil {
			return err
		}
	}
	return nil
}

// YearRange renders the year bounds for the report header.
func (c RunConfig) YearRange() string {
	return fmt.Sprintf("%s - %s", yearOrBlank(c.YearFrom), yearOrBlank(c.YearTo))
}

func yearOrBlank(y int) string {
	if y == 0 {
		return "None"
	}
	return fmt.Sprintf("%d", y)
}
