// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"go.yaml.in/yaml/v3"
)

// ExportRun holds a run with its attempts for export.
type ExportRun struct {
	Run      `yaml:",inline"`
	Attempts []ExportAttempt `json:"attempts" yaml:"attempts"`
}

// ExportAttempt is the exported form of one attempt.
type ExportAttempt struct {
	Name      string `json:"name" yaml:"name"`
	Publish   string `json:"publish" yaml:"publish"`
	Total     int    `json:"total" yaml:"total"`
	Proxy     string `json:"proxy,omitempty" yaml:"proxy,omitempty"`
	UserAgent string `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
	Duration  string `json:"duration" yaml:"duration"`
	At        string `json:"at" yaml:"at"`
}

func (s *Store) exportRun(ctx context.Context, runID string) (*ExportRun, error) {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	attempts, err := s.Attempts(ctx, runID)
	if err != nil {
		return nil, err
	}
	out := &ExportRun{Run: run, Attempts: make([]ExportAttempt, len(attempts))}
	for i, a := range attempts {
		out.Attempts[i] = ExportAttempt{
			Name:      a.Name,
			Publish:   a.Outcome.String(),
			Total:     a.Count,
			Proxy:     a.Proxy,
			UserAgent: a.UserAgent,
			Duration:  a.Duration.String(),
			At:        a.At.UTC().Format(time.RFC3339),
		}
	}
	return out, nil
}

// ExportYAML writes a run and its attempts to w as YAML.
func (s *Store) ExportYAML(ctx context.Context, runID string, w io.Writer) error {
	run, err := s.exportRun(ctx, runID)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(run); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// ExportJSON writes a run and its attempts to w as indented JSON.
func (s *Store) ExportJSON(ctx context.Context, runID string, w io.Writer) error {
	run, err := s.exportRun(ctx, runID)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(run); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return nil
}
