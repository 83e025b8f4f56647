// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the publish-or-not
// lookup pipeline: run configuration, per-name attempt results, and the
// run summary.
package types

import (
	"fmt"
	"time"
)

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent overrides user-agent rotation when set.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// Outcome classifies one lookup attempt.
type Outcome int

const (
	NotFound Outcome = iota
	Found
	Blocked
)

// String returns the report flag for the outcome.
func (o Outcome) String() string {
	switch o {
	case Found:
		return "Yes"
	case NotFound:
		return "No"
	default:
		return "Failure"
	}
}

// ParseOutcome is the inverse of Outcome.String.
func ParseOutcome(s string) (Outcome, error) {
	switch s {
	case "Yes":
		return Found, nil
	case "No":
		return NotFound, nil
	case "Failure":
		return Blocked, nil
	}
	return NotFound, fmt.Errorf("unknown outcome %q", s)
}

// Definitive reports whether the outcome removes the name from the
// remaining set.
func (o Outcome) Definitive() bool {
	return o == Found || o == NotFound
}

// AttemptResult is the outcome of looking up one author name.
type AttemptResult struct {
	Name      string        `json:"name" yaml:"name"`
	Outcome   Outcome       `json:"outcome" yaml:"outcome"`
	Count     int           `json:"count" yaml:"count"`
	Proxy     string        `json:"proxy,omitempty" yaml:"proxy,omitempty"`
	UserAgent string        `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
	At        time.Time     `json:"at" yaml:"at"`
}

// ClassifyCount maps a non-negative result count to Found or NotFound.
// Callers must reject negative counts before calling.
func ClassifyCount(count int) Outcome {
	if count > 0 {
		return Found
	}
	return NotFound
}

// Summary holds the outcome of a batch lookup run.
type Summary struct {
	Total    int
	Found    int
	NotFound int

	// Blocked is set when the run stopped on a block.
	Blocked bool

	// CheckpointPath is the file holding the names left to process.
	CheckpointPath string
}

// Processed returns the number of names with a definitive result.
func (s Summary) Processed() int {
	return s.Found + s.NotFound
}

// Remaining returns the number of names not yet processed.
func (s Summary) Remaining() int {
	return s.Total - s.Processed()
}
